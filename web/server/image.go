package server

import (
	"bytes"
	"fmt"
	"image"
	"log"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/nfnt/resize"

	"github.com/df07/go-lambert-raytracer/pkg/loaders"
	"github.com/df07/go-lambert-raytracer/pkg/renderer"
	"github.com/df07/go-lambert-raytracer/pkg/storage"
)

// PublishResponse is returned when a render is uploaded instead of served
type PublishResponse struct {
	storage.UploadResult
	Scene string `json:"scene"`
	Stats Stats  `json:"stats"`
}

// handleRender renders a whole frame and returns it as an image, or uploads
// it to object storage when publish is set
func (s *Server) handleRender(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet && r.Method != http.MethodPost {
		writeError(w, http.StatusMethodNotAllowed, "Use GET or POST")
		return
	}

	req, err := s.parseRenderRequest(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, fmt.Sprintf("Invalid request: %v", err))
		return
	}
	if req.Publish && s.uploader == nil {
		writeError(w, http.StatusServiceUnavailable, "Publishing is not configured")
		return
	}

	sceneObj, err := s.createScene(r, req)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	pr := renderer.NewParallelRenderer(renderer.Config{
		TileSize:   s.config.TileSize,
		NumWorkers: s.config.Workers,
	}, NewWebLogger(newRenderID(), nil))

	startTime := time.Now()
	img, renderStats, err := pr.RenderImage(r.Context(), sceneObj)
	if err != nil {
		writeError(w, http.StatusInternalServerError, fmt.Sprintf("Render failed: %v", err))
		return
	}
	stats := newStats(sceneObj.Width, sceneObj.Height, renderStats, time.Since(startTime))

	var output image.Image = img
	if req.Thumbnail > 0 {
		output = resize.Thumbnail(uint(req.Thumbnail), uint(req.Thumbnail), img, resize.Lanczos3)
	}

	var buf bytes.Buffer
	if err := loaders.EncodeImage(&buf, output, req.Format); err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	contentType, _ := loaders.ContentType(req.Format)

	if req.Publish {
		name := fmt.Sprintf("%s/render_%s.%s", sanitizeName(sceneObj.Name), startTime.Format("20060102_150405"), req.Format)
		result, err := s.uploader.Upload(r.Context(), name, buf.Bytes(), contentType)
		if err != nil {
			log.Printf("Publish failed: %v", err)
			writeError(w, http.StatusBadGateway, "Upload failed")
			return
		}
		writeJSON(w, http.StatusOK, PublishResponse{UploadResult: result, Scene: sceneObj.Name, Stats: stats})
		return
	}

	w.Header().Set("Content-Type", contentType)
	w.Header().Set("Content-Length", strconv.Itoa(buf.Len()))
	w.Header().Set("Access-Control-Allow-Origin", "*")
	w.Header().Set("X-Render-Hits", strconv.Itoa(stats.Hits))
	w.Header().Set("X-Render-Misses", strconv.Itoa(stats.Misses))
	w.Header().Set("X-Render-Time-Ms", strconv.FormatInt(stats.ElapsedMs, 10))
	w.WriteHeader(http.StatusOK)
	if _, err := w.Write(buf.Bytes()); err != nil {
		log.Printf("Error writing image: %v", err)
	}
}

// sanitizeName turns a scene name into a safe object key segment
func sanitizeName(name string) string {
	name = strings.ToLower(strings.TrimSpace(name))
	safe := strings.Map(func(r rune) rune {
		switch {
		case r >= 'a' && r <= 'z', r >= '0' && r <= '9', r == '-', r == '_':
			return r
		case r == ' ', r == '.':
			return '-'
		default:
			return -1
		}
	}, name)
	if safe == "" {
		return "scene"
	}
	return safe
}
