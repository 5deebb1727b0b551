package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/joho/godotenv"

	"github.com/df07/go-lambert-raytracer/pkg/storage"
)

const (
	// DefaultEnvFile is read when present; variables already set in the environment win
	DefaultEnvFile = ".env"
	// DefaultTileSize is the edge length of a render tile in pixels
	DefaultTileSize = 64
	// DefaultOutputDir receives CLI renders
	DefaultOutputDir = "output"
	// DefaultScenesDir is scanned for JSON scene files
	DefaultScenesDir = "scenes"
	// DefaultAddr is the web server listen address
	DefaultAddr = ":8080"
)

// Config captures the runtime tunables shared by the CLI and the web server
type Config struct {
	Workers   int // Zero means one worker per CPU
	TileSize  int
	OutputDir string
	ScenesDir string
	Address   string
	S3        storage.S3Config
}

// Load reads envFile (if it exists) into the process environment and then
// builds the configuration from environment variables. An empty envFile
// skips the file.
func Load(envFile string) (*Config, error) {
	if envFile != "" {
		if err := godotenv.Load(envFile); err != nil && !errors.Is(err, os.ErrNotExist) {
			return nil, fmt.Errorf("failed to load %s: %w", envFile, err)
		}
	}

	cfg := &Config{
		TileSize:  DefaultTileSize,
		OutputDir: getString("RAYTRACER_OUTPUT_DIR", DefaultOutputDir),
		ScenesDir: getString("RAYTRACER_SCENES_DIR", DefaultScenesDir),
		Address:   getString("RAYTRACER_ADDR", DefaultAddr),
		S3: storage.S3Config{
			AccessKey: strings.TrimSpace(os.Getenv("S3_ACCESS_KEY")),
			SecretKey: strings.TrimSpace(os.Getenv("S3_SECRET_KEY")),
			Endpoint:  strings.TrimSpace(os.Getenv("S3_ENDPOINT")),
			Region:    getString("S3_REGION", "us-east-1"),
			Bucket:    strings.TrimSpace(os.Getenv("S3_BUCKET")),
			Prefix:    strings.Trim(strings.TrimSpace(os.Getenv("S3_PREFIX")), "/"),
			CDNURL:    strings.TrimSpace(os.Getenv("CDN_URL")),
		},
	}

	var problems []error

	if raw := strings.TrimSpace(os.Getenv("RAYTRACER_WORKERS")); raw != "" {
		value, err := strconv.Atoi(raw)
		if err != nil || value < 0 {
			problems = append(problems, fmt.Errorf("RAYTRACER_WORKERS must be a non-negative integer, got %q", raw))
		} else {
			cfg.Workers = value
		}
	}

	if raw := strings.TrimSpace(os.Getenv("RAYTRACER_TILE_SIZE")); raw != "" {
		value, err := strconv.Atoi(raw)
		if err != nil || value <= 0 {
			problems = append(problems, fmt.Errorf("RAYTRACER_TILE_SIZE must be a positive integer, got %q", raw))
		} else {
			cfg.TileSize = value
		}
	}

	if (cfg.S3.AccessKey == "") != (cfg.S3.SecretKey == "") {
		problems = append(problems, errors.New("S3_ACCESS_KEY and S3_SECRET_KEY must be provided together"))
	}

	if len(problems) > 0 {
		return nil, errors.Join(problems...)
	}

	return cfg, nil
}

func getString(key, fallback string) string {
	if value := strings.TrimSpace(os.Getenv(key)); value != "" {
		return value
	}
	return fallback
}
