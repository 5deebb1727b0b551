package renderer

import (
	"context"
	"fmt"
	"image"
	"time"

	"github.com/df07/go-lambert-raytracer/pkg/core"
	"github.com/df07/go-lambert-raytracer/pkg/scene"
)

// DefaultLogger implements core.Logger by writing to stdout
type DefaultLogger struct{}

func (dl *DefaultLogger) Printf(format string, args ...interface{}) {
	fmt.Printf(format, args...)
}

// NewDefaultLogger creates a new default logger
func NewDefaultLogger() core.Logger {
	return &DefaultLogger{}
}

// Config contains configuration for parallel rendering
type Config struct {
	TileSize   int // Size of each square tile in pixels
	NumWorkers int // Number of parallel workers (0 = use CPU count)
}

// DefaultConfig returns sensible default values
func DefaultConfig() Config {
	return Config{
		TileSize:   64,
		NumWorkers: 0, // Auto-detect CPU count
	}
}

// TileCompletionResult contains information about a completed tile for callbacks
type TileCompletionResult struct {
	TileX  int // Tile coordinates (not pixel coordinates)
	TileY  int
	Bounds image.Rectangle // Pixel bounds of the tile within the image
	Stats  RenderStats

	// Progress information
	TileNumber int // Completion order (1-based)
	TotalTiles int
}

// ParallelRenderer distributes the tiles of a frame across a pool of workers
type ParallelRenderer struct {
	config Config
	logger core.Logger
}

// NewParallelRenderer creates a new parallel renderer
func NewParallelRenderer(config Config, logger core.Logger) *ParallelRenderer {
	if config.TileSize <= 0 {
		config.TileSize = DefaultConfig().TileSize
	}
	if logger == nil {
		logger = NewDefaultLogger()
	}
	return &ParallelRenderer{config: config, logger: logger}
}

// Render renders the scene into sink using parallel tile workers. Tile
// callbacks are dispatched from the calling goroutine, one at a time.
// If ctx is cancelled, tiles not yet started are skipped and ctx.Err() is returned.
func (pr *ParallelRenderer) Render(ctx context.Context, s *scene.Scene, sink PixelSink, tileCallback func(TileCompletionResult)) (RenderStats, error) {
	if err := checkTarget(s, sink); err != nil {
		return RenderStats{}, err
	}

	tiles := NewTileGrid(s.Width, s.Height, pr.config.TileSize)
	tilesPerRow := (s.Width + pr.config.TileSize - 1) / pr.config.TileSize

	workerPool := NewWorkerPool(NewTileRenderer(NewRaytracer(s), sink), pr.config.NumWorkers, len(tiles))
	workerPool.Start(ctx)

	pr.logger.Printf("Rendering %dx%d in %d tiles using %d workers...\n",
		s.Width, s.Height, len(tiles), workerPool.GetNumWorkers())
	startTime := time.Now()

	for i, tile := range tiles {
		workerPool.SubmitTask(TileTask{Tile: tile, TaskID: i})
	}

	// Every submitted task produces exactly one result, even after cancellation
	var stats RenderStats
	var firstErr error
	for i := 0; i < len(tiles); i++ {
		result, ok := workerPool.GetResult()
		if !ok {
			firstErr = fmt.Errorf("worker pool closed unexpectedly")
			break
		}
		if result.Error != nil {
			if firstErr == nil {
				firstErr = result.Error
			}
			continue
		}

		stats.Merge(result.Stats)

		if tileCallback != nil {
			tile := tiles[result.TaskID]
			tileCallback(TileCompletionResult{
				TileX:      tile.ID % tilesPerRow,
				TileY:      tile.ID / tilesPerRow,
				Bounds:     tile.Bounds,
				Stats:      result.Stats,
				TileNumber: i + 1,
				TotalTiles: len(tiles),
			})
		}
	}
	workerPool.Stop()

	if firstErr != nil {
		pr.logger.Printf("Render stopped after %d of %d tiles: %v\n", stats.Tiles, len(tiles), firstErr)
		return stats, firstErr
	}

	pr.logger.Printf("Render completed in %v (%d hits, %d misses)\n",
		time.Since(startTime), stats.Hits, stats.Misses)
	return stats, nil
}

// RenderImage renders the scene in parallel into a newly allocated image
func (pr *ParallelRenderer) RenderImage(ctx context.Context, s *scene.Scene) (*image.RGBA, RenderStats, error) {
	if err := s.Validate(); err != nil {
		return nil, RenderStats{}, err
	}

	sink := NewImageSink(s.Width, s.Height)
	stats, err := pr.Render(ctx, s, sink, nil)
	if err != nil {
		return nil, stats, err
	}
	return sink.Image(), stats, nil
}
