package server

import (
	"bytes"
	"context"
	"encoding/base64"
	"fmt"
	"image"
	"log"
	"net/http"
	"time"

	"github.com/gorilla/websocket"

	"github.com/df07/go-lambert-raytracer/pkg/loaders"
	"github.com/df07/go-lambert-raytracer/pkg/renderer"
)

// StreamEvent is one websocket message. Type is "console", "tile", "complete" or "error".
type StreamEvent struct {
	Type string      `json:"type"`
	Data interface{} `json:"data"`
}

// TileUpdate carries a finished tile as a base64 PNG
type TileUpdate struct {
	TileX      int    `json:"tileX"` // Tile grid coordinates
	TileY      int    `json:"tileY"`
	X          int    `json:"x"` // Pixel position of the tile's top-left corner
	Y          int    `json:"y"`
	Width      int    `json:"width"`
	Height     int    `json:"height"`
	ImageData  string `json:"imageData"`
	TileNumber int    `json:"tileNumber"` // Completion order (1-based)
	TotalTiles int    `json:"totalTiles"`
}

// Stats represents render statistics
type Stats struct {
	Width       int     `json:"width"`
	Height      int     `json:"height"`
	TotalPixels int     `json:"totalPixels"`
	Hits        int     `json:"hits"`
	Misses      int     `json:"misses"`
	HitRatio    float64 `json:"hitRatio"`
	Tiles       int     `json:"tiles"`
	ElapsedMs   int64   `json:"elapsedMs"`
}

func newStats(width, height int, stats renderer.RenderStats, elapsed time.Duration) Stats {
	return Stats{
		Width:       width,
		Height:      height,
		TotalPixels: stats.TotalPixels,
		Hits:        stats.Hits,
		Misses:      stats.Misses,
		HitRatio:    stats.HitRatio(),
		Tiles:       stats.Tiles,
		ElapsedMs:   elapsed.Milliseconds(),
	}
}

// handleRenderStream renders a scene tile by tile, streaming each finished
// tile over a websocket followed by a completion message
func (s *Server) handleRenderStream(w http.ResponseWriter, r *http.Request) {
	req, err := s.parseRenderRequest(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, fmt.Sprintf("Invalid request: %v", err))
		return
	}
	sceneObj, err := s.createScene(r, req)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	conn, err := s.upgrader.Upgrade(w, r, nil)
	if err != nil {
		log.Printf("Websocket upgrade failed: %v", err)
		return
	}
	defer conn.Close()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// The client sends nothing; a read error means it went away
	go func() {
		defer cancel()
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				return
			}
		}
	}()

	eventChan := make(chan StreamEvent, 100)
	consoleChan := make(chan ConsoleMessage, 50)
	writerDone := make(chan struct{})
	go s.writeStreamEvents(conn, cancel, eventChan, consoleChan, writerDone)

	renderID := newRenderID()
	pr := renderer.NewParallelRenderer(renderer.Config{
		TileSize:   s.config.TileSize,
		NumWorkers: s.config.Workers,
	}, NewWebLogger(renderID, consoleChan))

	sink := renderer.NewImageSink(sceneObj.Width, sceneObj.Height)
	startTime := time.Now()

	stats, err := pr.Render(ctx, sceneObj, sink, func(result renderer.TileCompletionResult) {
		s.handleTileUpdate(ctx, eventChan, sink.Image(), result)
	})
	if err != nil {
		sendEvent(ctx, eventChan, StreamEvent{Type: "error", Data: map[string]string{"error": err.Error()}})
	} else {
		sendEvent(ctx, eventChan, StreamEvent{
			Type: "complete",
			Data: newStats(sceneObj.Width, sceneObj.Height, stats, time.Since(startTime)),
		})
	}

	// The renderer has returned, so nothing else writes to either channel
	close(consoleChan)
	close(eventChan)
	<-writerDone

	conn.WriteControl(websocket.CloseMessage,
		websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""),
		time.Now().Add(time.Second))
}

// writeStreamEvents is the only goroutine that writes to the connection. It
// drains both channels until they are closed.
func (s *Server) writeStreamEvents(conn *websocket.Conn, cancel context.CancelFunc,
	eventChan <-chan StreamEvent, consoleChan <-chan ConsoleMessage, done chan<- struct{}) {
	defer close(done)

	failed := false
	write := func(event StreamEvent) {
		if failed {
			return
		}
		if err := conn.WriteJSON(event); err != nil {
			// Client disconnected during write; keep draining so senders never block
			failed = true
			cancel()
		}
	}

	for eventChan != nil || consoleChan != nil {
		select {
		case event, ok := <-eventChan:
			if !ok {
				eventChan = nil
				continue
			}
			write(event)
		case msg, ok := <-consoleChan:
			if !ok {
				consoleChan = nil
				continue
			}
			write(StreamEvent{Type: "console", Data: msg})
		}
	}
}

// handleTileUpdate encodes a finished tile and queues it for the client
func (s *Server) handleTileUpdate(ctx context.Context, eventChan chan<- StreamEvent, img *image.RGBA, result renderer.TileCompletionResult) {
	tileData, err := imageToBase64PNG(img.SubImage(result.Bounds))
	if err != nil {
		log.Printf("Error encoding tile image (%d, %d): %v", result.TileX, result.TileY, err)
		return
	}

	sendEvent(ctx, eventChan, StreamEvent{
		Type: "tile",
		Data: TileUpdate{
			TileX:      result.TileX,
			TileY:      result.TileY,
			X:          result.Bounds.Min.X,
			Y:          result.Bounds.Min.Y,
			Width:      result.Bounds.Dx(),
			Height:     result.Bounds.Dy(),
			ImageData:  tileData,
			TileNumber: result.TileNumber,
			TotalTiles: result.TotalTiles,
		},
	})
}

// sendEvent queues an event unless the client is gone
func sendEvent(ctx context.Context, eventChan chan<- StreamEvent, event StreamEvent) {
	select {
	case eventChan <- event:
	case <-ctx.Done():
	}
}

// imageToBase64PNG converts an image to base64-encoded PNG
func imageToBase64PNG(img image.Image) (string, error) {
	var buf bytes.Buffer
	if err := loaders.EncodeImage(&buf, img, "png"); err != nil {
		return "", err
	}
	return base64.StdEncoding.EncodeToString(buf.Bytes()), nil
}
