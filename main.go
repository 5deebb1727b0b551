package main

import (
	"context"
	"flag"
	"fmt"
	"image"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"time"

	"github.com/df07/go-lambert-raytracer/pkg/config"
	"github.com/df07/go-lambert-raytracer/pkg/core"
	"github.com/df07/go-lambert-raytracer/pkg/loaders"
	"github.com/df07/go-lambert-raytracer/pkg/renderer"
	"github.com/df07/go-lambert-raytracer/pkg/scene"
	"github.com/df07/go-lambert-raytracer/pkg/storage"
)

// options holds the parsed command line
type options struct {
	sceneType  string
	output     string
	width      int
	height     int
	workers    int
	tileSize   int
	upload     bool
	compare    string
	sequential bool
}

func main() {
	// Parse command line flags
	sceneType := flag.String("scene", "default", "Built-in scene name or path to a .json scene file")
	output := flag.String("output", "", "Output image path (default output/<scene>/render_<timestamp>.png)")
	width := flag.Int("width", 0, "Override the scene width in pixels")
	height := flag.Int("height", 0, "Override the scene height in pixels")
	workers := flag.Int("workers", -1, "Number of parallel workers (0 = one per CPU, default from RAYTRACER_WORKERS)")
	tileSize := flag.Int("tile-size", 0, "Tile size in pixels (default from RAYTRACER_TILE_SIZE)")
	envFile := flag.String("env", config.DefaultEnvFile, "Optional .env file with RAYTRACER_* and S3_* settings")
	upload := flag.Bool("upload", false, "Upload the render to the configured S3 bucket")
	compare := flag.String("compare", "", "Reference image to compare the render against")
	sequential := flag.Bool("sequential", false, "Render on a single goroutine")
	help := flag.Bool("help", false, "Show help information")
	flag.Parse()

	cfg, err := config.Load(*envFile)
	if err != nil {
		fmt.Printf("Invalid configuration: %v\n", err)
		os.Exit(1)
	}

	// Show help if requested
	if *help {
		printHelp(cfg)
		return
	}

	opts := options{
		sceneType:  *sceneType,
		output:     *output,
		width:      *width,
		height:     *height,
		workers:    cfg.Workers,
		tileSize:   cfg.TileSize,
		upload:     *upload,
		compare:    *compare,
		sequential: *sequential,
	}
	if *workers >= 0 {
		opts.workers = *workers
	}
	if *tileSize > 0 {
		opts.tileSize = *tileSize
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	if err := run(ctx, cfg, opts, renderer.NewDefaultLogger()); err != nil {
		fmt.Printf("Error: %v\n", err)
		os.Exit(1)
	}
}

func printHelp(cfg *config.Config) {
	fmt.Println("Lambert Raytracer")
	fmt.Println("Usage: raytracer [options]")
	fmt.Println()
	fmt.Println("Options:")
	flag.PrintDefaults()
	fmt.Println()
	fmt.Println("Available scenes:")
	scenes, err := scene.ListAllScenes(cfg.ScenesDir)
	if err != nil {
		fmt.Printf("  (failed to list scenes: %v)\n", err)
	}
	for _, info := range scenes {
		if info.Description != "" {
			fmt.Printf("  %s - %s\n", info.ID, info.Description)
		} else {
			fmt.Printf("  %s\n", info.ID)
		}
	}
	fmt.Println()
	fmt.Printf("Output will be saved to %s/<scene>/render_<timestamp>.png\n", cfg.OutputDir)
}

// run renders one frame, saves it and optionally compares and uploads it
func run(ctx context.Context, cfg *config.Config, opts options, logger core.Logger) error {
	logger.Printf("Starting Lambert Raytracer...\n")

	selectedScene, err := createScene(opts.sceneType, cfg.ScenesDir)
	if err != nil {
		return err
	}
	if opts.width > 0 {
		selectedScene.Width = opts.width
	}
	if opts.height > 0 {
		selectedScene.Height = opts.height
	}
	logger.Printf("Using scene %q (%dx%d, %d elements)\n",
		selectedScene.Name, selectedScene.Width, selectedScene.Height, len(selectedScene.Elements))

	startTime := time.Now()
	img, stats, err := renderScene(ctx, selectedScene, opts, logger)
	if err != nil {
		return err
	}
	logger.Printf("Render completed in %v (%.1f%% of pixels hit geometry)\n",
		time.Since(startTime), stats.HitRatio()*100)

	filename := opts.output
	if filename == "" {
		outputDir := createOutputDir(cfg.OutputDir, opts.sceneType)
		timestamp := time.Now().Format("20060102_150405")
		filename = filepath.Join(outputDir, fmt.Sprintf("render_%s.png", timestamp))
	}
	if err := os.MkdirAll(filepath.Dir(filename), 0755); err != nil {
		return fmt.Errorf("error creating output directory: %w", err)
	}
	if err := loaders.SaveImage(img, filename); err != nil {
		return err
	}
	logger.Printf("Render saved as %s\n", filename)

	if opts.compare != "" {
		reference, err := loaders.LoadImage(opts.compare)
		if err != nil {
			return err
		}
		differing, err := loaders.CountDifferingPixels(img, reference)
		if err != nil {
			return fmt.Errorf("error comparing with %s: %w", opts.compare, err)
		}
		logger.Printf("%d of %d pixels differ from %s\n", differing, stats.TotalPixels, opts.compare)
	}

	if opts.upload {
		if err := uploadRender(ctx, cfg, filename, logger); err != nil {
			return err
		}
	}

	return nil
}

// renderScene renders with the tile renderer, or sequentially when requested
func renderScene(ctx context.Context, s *scene.Scene, opts options, logger core.Logger) (*image.RGBA, renderer.RenderStats, error) {
	sink := renderer.NewImageSink(s.Width, s.Height)
	if opts.sequential {
		stats, err := renderer.RenderTo(s, sink)
		return sink.Image(), stats, err
	}

	pr := renderer.NewParallelRenderer(renderer.Config{
		TileSize:   opts.tileSize,
		NumWorkers: opts.workers,
	}, logger)
	stats, err := pr.Render(ctx, s, sink, nil)
	return sink.Image(), stats, err
}

// uploadRender publishes a saved render to the configured bucket
func uploadRender(ctx context.Context, cfg *config.Config, filename string, logger core.Logger) error {
	client, err := storage.NewS3Client(cfg.S3)
	if err != nil {
		return err
	}

	data, err := os.ReadFile(filename)
	if err != nil {
		return fmt.Errorf("error reading render: %w", err)
	}
	contentType, err := loaders.ContentType(strings.TrimPrefix(filepath.Ext(filename), "."))
	if err != nil {
		return err
	}

	uploader := storage.NewUploader(client, cfg.S3, logger)
	result, err := uploader.Upload(ctx, uploadName(filename), data, contentType)
	if err != nil {
		return err
	}
	logger.Printf("Render published at %s\n", result.URL)
	return nil
}

// uploadName keeps the scene directory and file name of a render path
func uploadName(filename string) string {
	return filepath.ToSlash(filepath.Join(filepath.Base(filepath.Dir(filename)), filepath.Base(filename)))
}

// createScene creates a built-in scene by name, or loads a JSON scene file
// either from an explicit path or by name from the scenes directory
func createScene(sceneType, scenesDir string) (*scene.Scene, error) {
	if sceneType == "" {
		return nil, fmt.Errorf("scene name must not be empty")
	}

	if s, err := scene.Builtin(sceneType); err == nil {
		return s, nil
	}

	if s := tryLoadSceneFile(sceneType, scenesDir); s != nil {
		return s, nil
	}

	if strings.HasSuffix(sceneType, ".json") {
		// Report the real load error for explicit paths
		return loaders.LoadScene(sceneType)
	}

	return nil, fmt.Errorf("unknown scene: %s (built-in scenes: %s)", sceneType, strings.Join(scene.BuiltinNames(), ", "))
}

// tryLoadSceneFile returns nil when sceneType names no loadable scene file
func tryLoadSceneFile(sceneType, scenesDir string) *scene.Scene {
	path := sceneType
	if !strings.HasSuffix(sceneType, ".json") {
		path = filepath.Join(scenesDir, sceneType+".json")
	}

	if _, err := os.Stat(path); err != nil {
		return nil
	}
	s, err := loaders.LoadScene(path)
	if err != nil {
		return nil
	}
	return s
}

// createOutputDir returns <outputRoot>/<scene base name>
func createOutputDir(outputRoot, sceneType string) string {
	base := filepath.Base(sceneType)
	base = strings.TrimSuffix(base, filepath.Ext(base))
	if base == "" || base == "." || base == string(filepath.Separator) {
		base = "scene"
	}
	return filepath.Join(outputRoot, base)
}
