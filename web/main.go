package main

import (
	"flag"
	"log"
	"os"

	"github.com/df07/go-lambert-raytracer/pkg/config"
	"github.com/df07/go-lambert-raytracer/pkg/storage"
	"github.com/df07/go-lambert-raytracer/web/server"
)

func main() {
	envFile := flag.String("env", config.DefaultEnvFile, "Optional .env file with RAYTRACER_* and S3_* settings")
	addr := flag.String("addr", "", "Address to serve on (overrides RAYTRACER_ADDR)")
	flag.Parse()

	cfg, err := config.Load(*envFile)
	if err != nil {
		log.Printf("Invalid configuration: %v", err)
		os.Exit(1)
	}
	if *addr != "" {
		cfg.Address = *addr
	}

	var uploader *storage.Uploader
	if cfg.S3.Enabled() {
		client, err := storage.NewS3Client(cfg.S3)
		if err != nil {
			log.Printf("Error creating S3 client: %v", err)
			os.Exit(1)
		}
		uploader = storage.NewUploader(client, cfg.S3, log.Default())
		log.Printf("Publishing renders to bucket %s", cfg.S3.Bucket)
	}

	webServer := server.NewServer(cfg, uploader)

	log.Printf("Lambert Raytracer Web Server")
	log.Printf("Scenes directory: %s", cfg.ScenesDir)

	if err := webServer.Start(); err != nil {
		log.Printf("Error starting server: %v", err)
		os.Exit(1)
	}
}
