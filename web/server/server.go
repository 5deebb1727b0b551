package server

import (
	"encoding/json"
	"fmt"
	"io"
	"log"
	"net/http"
	"net/url"
	"strconv"

	"github.com/gorilla/websocket"
	"github.com/klauspost/compress/gzhttp"

	"github.com/df07/go-lambert-raytracer/pkg/config"
	"github.com/df07/go-lambert-raytracer/pkg/loaders"
	"github.com/df07/go-lambert-raytracer/pkg/scene"
	"github.com/df07/go-lambert-raytracer/pkg/storage"
)

const (
	// MaxDimension bounds the width and height overrides accepted from clients
	MaxDimension = 4096
	// MaxSceneBytes bounds the size of a POSTed JSON scene
	MaxSceneBytes = 1 << 20
)

// Server handles web requests for the raytracer
type Server struct {
	config   *config.Config
	uploader *storage.Uploader // nil when object storage is not configured
	upgrader websocket.Upgrader
}

// NewServer creates a new web server. uploader may be nil, which disables publishing.
func NewServer(cfg *config.Config, uploader *storage.Uploader) *Server {
	return &Server{
		config:   cfg,
		uploader: uploader,
		upgrader: websocket.Upgrader{
			CheckOrigin: func(r *http.Request) bool { return true },
		},
	}
}

// RenderRequest represents a render request from the client
type RenderRequest struct {
	Scene     string // Scene ID as listed by /api/scenes
	Width     int    // Optional width override
	Height    int    // Optional height override
	Format    string // Output image format
	Thumbnail int    // Bounding box of the downscaled preview, 0 for full size
	Publish   bool   // Upload the image instead of returning it
}

// Handler returns the HTTP routes of the server
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()

	// JSON routes are compressed; the websocket route must keep an unwrapped
	// ResponseWriter so the connection can be hijacked
	mux.Handle("/api/health", gzhttp.GzipHandler(http.HandlerFunc(s.handleHealth)))
	mux.Handle("/api/scenes", gzhttp.GzipHandler(http.HandlerFunc(s.handleScenes)))
	mux.Handle("/api/inspect", gzhttp.GzipHandler(http.HandlerFunc(s.handleInspect)))
	mux.HandleFunc("/api/render", s.handleRender)
	mux.HandleFunc("/api/render/ws", s.handleRenderStream)

	return mux
}

// Start starts the web server
func (s *Server) Start() error {
	log.Printf("Starting web server on %s", s.config.Address)
	return http.ListenAndServe(s.config.Address, s.Handler())
}

// handleHealth provides a simple health check endpoint
func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]interface{}{
		"status":     "ok",
		"publishing": s.uploader != nil,
	})
}

// handleScenes lists the built-in scenes and the JSON scenes in the scenes directory
func (s *Server) handleScenes(w http.ResponseWriter, r *http.Request) {
	scenes, err := scene.ListAllScenes(s.config.ScenesDir)
	if err != nil {
		log.Printf("Failed to list scenes: %v", err)
		writeError(w, http.StatusInternalServerError, "Failed to list scenes")
		return
	}
	writeJSON(w, http.StatusOK, scenes)
}

// parseRenderRequest parses query parameters shared by the render endpoints
func (s *Server) parseRenderRequest(r *http.Request) (*RenderRequest, error) {
	query := r.URL.Query()
	req := &RenderRequest{
		Scene:  query.Get("scene"),
		Format: query.Get("format"),
	}
	if req.Scene == "" {
		req.Scene = "default"
	}
	if req.Format == "" {
		req.Format = "png"
	}
	if _, err := loaders.ContentType(req.Format); err != nil {
		return nil, err
	}

	var err error
	if req.Width, err = parseIntParam(query, "width", 0, 1, MaxDimension); err != nil {
		return nil, err
	}
	if req.Height, err = parseIntParam(query, "height", 0, 1, MaxDimension); err != nil {
		return nil, err
	}
	if req.Thumbnail, err = parseIntParam(query, "thumbnail", 0, 1, MaxDimension); err != nil {
		return nil, err
	}
	if raw := query.Get("publish"); raw != "" {
		if req.Publish, err = strconv.ParseBool(raw); err != nil {
			return nil, fmt.Errorf("invalid publish: %s", raw)
		}
	}

	return req, nil
}

// parseIntParam parses an integer parameter from URL query with validation
func parseIntParam(values url.Values, key string, defaultValue, min, max int) (int, error) {
	if value := values.Get(key); value != "" {
		parsed, err := strconv.Atoi(value)
		if err != nil {
			return 0, fmt.Errorf("invalid %s: %s", key, value)
		}
		if parsed < min || parsed > max {
			return 0, fmt.Errorf("%s must be between %d and %d, got: %d", key, min, max, parsed)
		}
		return parsed, nil
	}
	return defaultValue, nil
}

// createScene resolves the scene for a request. A POST body holds a JSON
// scene; otherwise the ID must name a built-in scene or a listed scene file.
func (s *Server) createScene(r *http.Request, req *RenderRequest) (*scene.Scene, error) {
	var sceneObj *scene.Scene
	var err error

	if r.Method == http.MethodPost {
		sceneObj, err = loaders.DecodeScene(io.LimitReader(r.Body, MaxSceneBytes))
		if err == nil && sceneObj.Name == "" {
			sceneObj.Name = "posted"
		}
	} else {
		sceneObj, err = s.lookupScene(req.Scene)
	}
	if err != nil {
		return nil, err
	}

	if req.Width > 0 {
		sceneObj.Width = req.Width
	}
	if req.Height > 0 {
		sceneObj.Height = req.Height
	}
	if err := sceneObj.Validate(); err != nil {
		return nil, err
	}
	return sceneObj, nil
}

// lookupScene only opens files that appear in the scene listing, so clients
// cannot read arbitrary paths
func (s *Server) lookupScene(id string) (*scene.Scene, error) {
	if sceneObj, err := scene.Builtin(id); err == nil {
		return sceneObj, nil
	}

	fileScenes, err := scene.ListFileScenes(s.config.ScenesDir)
	if err != nil {
		return nil, err
	}
	for _, info := range fileScenes {
		if info.ID == id {
			return loaders.LoadScene(info.FilePath)
		}
	}
	return nil, fmt.Errorf("unknown scene: %s", id)
}

func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.Header().Set("Access-Control-Allow-Origin", "*")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		log.Printf("Error writing response: %v", err)
	}
}

func writeError(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, map[string]string{"error": message})
}
