package server

import (
	"bytes"
	"encoding/base64"
	"encoding/json"
	"image"
	"image/draw"
	"image/png"
	"io"
	"math"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/aws/aws-sdk-go/aws"
	"github.com/aws/aws-sdk-go/aws/request"
	"github.com/aws/aws-sdk-go/service/s3"
	"github.com/aws/aws-sdk-go/service/s3/s3iface"
	"github.com/gorilla/websocket"
	"github.com/klauspost/compress/gzip"

	"github.com/df07/go-lambert-raytracer/pkg/config"
	"github.com/df07/go-lambert-raytracer/pkg/renderer"
	"github.com/df07/go-lambert-raytracer/pkg/scene"
	"github.com/df07/go-lambert-raytracer/pkg/storage"
)

type fakeS3 struct {
	s3iface.S3API
	keys []string
}

func (f *fakeS3) PutObjectWithContext(_ aws.Context, input *s3.PutObjectInput, _ ...request.Option) (*s3.PutObjectOutput, error) {
	f.keys = append(f.keys, aws.StringValue(input.Key))
	return &s3.PutObjectOutput{}, nil
}

type testLogger struct{ t *testing.T }

func (l testLogger) Printf(format string, args ...interface{}) { l.t.Logf(format, args...) }

func newTestServer(t *testing.T, uploader *storage.Uploader) *Server {
	t.Helper()
	return NewServer(&config.Config{
		Workers:   2,
		TileSize:  16,
		ScenesDir: t.TempDir(),
		Address:   ":0",
	}, uploader)
}

func serve(t *testing.T, s *Server, method, target string, body io.Reader) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(method, target, body)
	rec := httptest.NewRecorder()
	s.Handler().ServeHTTP(rec, req)
	return rec
}

func TestHandleHealth(t *testing.T) {
	rec := serve(t, newTestServer(t, nil), http.MethodGet, "/api/health", nil)

	if rec.Code != http.StatusOK {
		t.Fatalf("Expected 200, got %d", rec.Code)
	}
	var body map[string]interface{}
	if err := json.NewDecoder(rec.Body).Decode(&body); err != nil {
		t.Fatalf("Invalid JSON: %v", err)
	}
	if body["status"] != "ok" || body["publishing"] != false {
		t.Errorf("Unexpected health response: %v", body)
	}
}

func TestHandleScenes(t *testing.T) {
	s := newTestServer(t, nil)
	scenePath := filepath.Join(s.config.ScenesDir, "my-scene.json")
	if err := os.WriteFile(scenePath, []byte(`{"name":"Mine","description":"test"}`), 0644); err != nil {
		t.Fatalf("Failed to write scene: %v", err)
	}

	req := httptest.NewRequest(http.MethodGet, "/api/scenes", nil)
	req.Header.Set("Accept-Encoding", "gzip")
	rec := httptest.NewRecorder()
	s.Handler().ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("Expected 200, got %d", rec.Code)
	}

	var reader io.Reader = rec.Body
	if rec.Header().Get("Content-Encoding") == "gzip" {
		gz, err := gzip.NewReader(rec.Body)
		if err != nil {
			t.Fatalf("Invalid gzip body: %v", err)
		}
		reader = gz
	}

	var scenes []scene.SceneInfo
	if err := json.NewDecoder(reader).Decode(&scenes); err != nil {
		t.Fatalf("Invalid JSON: %v", err)
	}
	if len(scenes) != len(scene.BuiltinNames())+1 {
		t.Fatalf("Expected built-ins plus one file scene, got %+v", scenes)
	}
	last := scenes[len(scenes)-1]
	if last.Type != "file" || last.Name != "Mine" || last.ID != scenePath {
		t.Errorf("Unexpected file scene: %+v", last)
	}
}

func TestHandleRender_PNG(t *testing.T) {
	rec := serve(t, newTestServer(t, nil), http.MethodGet, "/api/render?scene=default&width=48&height=27", nil)

	if rec.Code != http.StatusOK {
		t.Fatalf("Expected 200, got %d: %s", rec.Code, rec.Body.String())
	}
	if ct := rec.Header().Get("Content-Type"); ct != "image/png" {
		t.Errorf("Expected image/png, got %q", ct)
	}

	img, err := png.Decode(rec.Body)
	if err != nil {
		t.Fatalf("Response is not a PNG: %v", err)
	}
	if img.Bounds().Dx() != 48 || img.Bounds().Dy() != 27 {
		t.Errorf("Expected 48x27 image, got %v", img.Bounds())
	}
	if rec.Header().Get("X-Render-Hits") == "" {
		t.Error("Expected render stats headers")
	}
}

func TestHandleRender_ThumbnailAndFormat(t *testing.T) {
	rec := serve(t, newTestServer(t, nil), http.MethodGet, "/api/render?scene=portrait&width=60&height=120&thumbnail=30&format=jpeg", nil)

	if rec.Code != http.StatusOK {
		t.Fatalf("Expected 200, got %d: %s", rec.Code, rec.Body.String())
	}
	if ct := rec.Header().Get("Content-Type"); ct != "image/jpeg" {
		t.Errorf("Expected image/jpeg, got %q", ct)
	}

	cfg, format, err := image.DecodeConfig(rec.Body)
	if err != nil {
		t.Fatalf("Response is not an image: %v", err)
	}
	if format != "jpeg" {
		t.Errorf("Expected jpeg, got %s", format)
	}
	// Thumbnail preserves the aspect ratio inside a 30x30 box
	if cfg.Width != 15 || cfg.Height != 30 {
		t.Errorf("Expected 15x30 thumbnail, got %dx%d", cfg.Width, cfg.Height)
	}
}

func TestHandleRender_PostedScene(t *testing.T) {
	body := `{"width":20,"height":10,"fov":90,
		"light":{"direction":[0,0,-1],"color":[1,1,1],"intensity":1},
		"elements":[{"type":"sphere","center":[0,0,-3],"radius":1,"color":[1,1,1]}]}`

	rec := serve(t, newTestServer(t, nil), http.MethodPost, "/api/render", strings.NewReader(body))
	if rec.Code != http.StatusOK {
		t.Fatalf("Expected 200, got %d: %s", rec.Code, rec.Body.String())
	}
	img, err := png.Decode(rec.Body)
	if err != nil {
		t.Fatalf("Response is not a PNG: %v", err)
	}
	if img.Bounds().Dx() != 20 || img.Bounds().Dy() != 10 {
		t.Errorf("Expected 20x10 image, got %v", img.Bounds())
	}
}

func TestHandleRender_PostedSceneRejectsNonFiniteVectors(t *testing.T) {
	tests := []struct {
		name string
		body string
	}{
		{"light direction", `{"width":3,"height":1,"fov":90,
			"light":{"direction":[1e200,1e200,0],"color":[1,1,1],"intensity":1},
			"elements":[{"type":"sphere","center":[0,0,-5],"radius":1,"color":[1,1,1]}]}`},
		{"plane normal", `{"width":3,"height":1,"fov":90,
			"light":{"direction":[0,0,-1],"color":[1,1,1],"intensity":1},
			"elements":[{"type":"plane","origin":[0,0,0],"normal":[0,1e200,0],"color":[1,1,1]}]}`},
	}

	s := newTestServer(t, nil)
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := serve(t, s, http.MethodPost, "/api/render", strings.NewReader(tt.body))
			if rec.Code != http.StatusBadRequest {
				t.Errorf("Expected 400, got %d: %s", rec.Code, rec.Body.String())
			}
		})
	}
}

func TestHandleRender_FileScene(t *testing.T) {
	s := newTestServer(t, nil)
	scenePath := filepath.Join(s.config.ScenesDir, "floor.json")
	content := `{"width":16,"height":16,"fov":60,
		"light":{"direction":[0,-1,0],"color":[1,1,1],"intensity":3},
		"elements":[{"type":"plane","origin":[0,-1,0],"normal":[0,1,0],"color":[1,1,1]}]}`
	if err := os.WriteFile(scenePath, []byte(content), 0644); err != nil {
		t.Fatalf("Failed to write scene: %v", err)
	}

	rec := serve(t, s, http.MethodGet, "/api/render?scene="+scenePath, nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("Expected 200, got %d: %s", rec.Code, rec.Body.String())
	}

	// Paths outside the listing are refused
	rec = serve(t, s, http.MethodGet, "/api/render?scene=/etc/passwd", nil)
	if rec.Code != http.StatusBadRequest {
		t.Errorf("Expected 400 for unlisted path, got %d", rec.Code)
	}
}

func TestHandleRender_BadRequests(t *testing.T) {
	tests := []struct {
		name     string
		method   string
		target   string
		expected int
	}{
		{"unknown scene", http.MethodGet, "/api/render?scene=nope", http.StatusBadRequest},
		{"width too large", http.MethodGet, "/api/render?width=100000", http.StatusBadRequest},
		{"width not a number", http.MethodGet, "/api/render?width=abc", http.StatusBadRequest},
		{"unknown format", http.MethodGet, "/api/render?format=webp", http.StatusBadRequest},
		{"bad publish flag", http.MethodGet, "/api/render?publish=maybe", http.StatusBadRequest},
		{"publish without storage", http.MethodGet, "/api/render?publish=1", http.StatusServiceUnavailable},
		{"wrong method", http.MethodDelete, "/api/render", http.StatusMethodNotAllowed},
	}

	s := newTestServer(t, nil)
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := serve(t, s, tt.method, tt.target, nil)
			if rec.Code != tt.expected {
				t.Errorf("Expected %d, got %d: %s", tt.expected, rec.Code, rec.Body.String())
			}
		})
	}
}

func TestHandleRender_Publish(t *testing.T) {
	fake := &fakeS3{}
	uploader := storage.NewUploader(fake, storage.S3Config{Bucket: "renders", CDNURL: "https://cdn.example.com"}, testLogger{t})
	s := newTestServer(t, uploader)

	rec := serve(t, s, http.MethodGet, "/api/render?scene=single-sphere&width=32&height=24&publish=true", nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("Expected 200, got %d: %s", rec.Code, rec.Body.String())
	}

	var resp PublishResponse
	if err := json.NewDecoder(rec.Body).Decode(&resp); err != nil {
		t.Fatalf("Invalid JSON: %v", err)
	}
	if len(fake.keys) != 1 || resp.Key != fake.keys[0] {
		t.Fatalf("Expected one upload matching the response, got keys %v and %+v", fake.keys, resp)
	}
	if !strings.HasPrefix(resp.Key, "single-sphere/render_") || !strings.HasSuffix(resp.Key, ".png") {
		t.Errorf("Unexpected key %q", resp.Key)
	}
	if resp.URL != "https://cdn.example.com/"+resp.Key {
		t.Errorf("Unexpected URL %q", resp.URL)
	}
	if resp.Stats.TotalPixels != 32*24 {
		t.Errorf("Expected stats for 768 pixels, got %+v", resp.Stats)
	}
}

func TestHandleInspect(t *testing.T) {
	s := newTestServer(t, nil)

	rec := serve(t, s, http.MethodGet, "/api/inspect?scene=single-sphere&x=400&y=300", nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("Expected 200, got %d: %s", rec.Code, rec.Body.String())
	}
	var resp InspectResponse
	if err := json.NewDecoder(rec.Body).Decode(&resp); err != nil {
		t.Fatalf("Invalid JSON: %v", err)
	}
	if !resp.Hit || resp.GeometryType != "sphere" || resp.ElementIndex != 0 {
		t.Fatalf("Expected a sphere hit, got %+v", resp)
	}
	if math.Abs(resp.Distance-4.0) > 1e-3 {
		t.Errorf("Expected distance near 4.0, got %f", resp.Distance)
	}
	if resp.Color != "#205120" {
		t.Errorf("Expected shaded color #205120, got %s", resp.Color)
	}

	rec = serve(t, s, http.MethodGet, "/api/inspect?scene=single-sphere&x=0&y=0", nil)
	resp = InspectResponse{}
	if err := json.NewDecoder(rec.Body).Decode(&resp); err != nil {
		t.Fatalf("Invalid JSON: %v", err)
	}
	if resp.Hit || resp.ElementIndex != -1 {
		t.Errorf("Expected a miss at the corner, got %+v", resp)
	}

	rec = serve(t, s, http.MethodGet, "/api/inspect?scene=single-sphere&x=800&y=0", nil)
	if rec.Code != http.StatusBadRequest {
		t.Errorf("Expected 400 for out of bounds pixel, got %d", rec.Code)
	}
}

func TestHandleRenderStream(t *testing.T) {
	s := newTestServer(t, nil)
	ts := httptest.NewServer(s.Handler())
	defer ts.Close()

	const width, height = 50, 30
	wsURL := "ws" + strings.TrimPrefix(ts.URL, "http") + "/api/render/ws?scene=default&width=50&height=30"
	conn, _, err := websocket.DefaultDialer.Dial(wsURL, nil)
	if err != nil {
		t.Fatalf("Dial failed: %v", err)
	}
	defer conn.Close()

	assembled := image.NewRGBA(image.Rect(0, 0, width, height))
	tiles := 0
	var complete Stats

	for {
		conn.SetReadDeadline(time.Now().Add(10 * time.Second))
		var event struct {
			Type string          `json:"type"`
			Data json.RawMessage `json:"data"`
		}
		if err := conn.ReadJSON(&event); err != nil {
			t.Fatalf("Read failed before completion: %v", err)
		}

		if event.Type == "error" {
			t.Fatalf("Render error: %s", event.Data)
		}
		if event.Type == "complete" {
			if err := json.Unmarshal(event.Data, &complete); err != nil {
				t.Fatalf("Invalid completion message: %v", err)
			}
			break
		}
		if event.Type != "tile" {
			continue
		}

		var update TileUpdate
		if err := json.Unmarshal(event.Data, &update); err != nil {
			t.Fatalf("Invalid tile update: %v", err)
		}
		data, err := base64.StdEncoding.DecodeString(update.ImageData)
		if err != nil {
			t.Fatalf("Invalid base64: %v", err)
		}
		tile, err := png.Decode(bytes.NewReader(data))
		if err != nil {
			t.Fatalf("Invalid tile PNG: %v", err)
		}
		rect := image.Rect(update.X, update.Y, update.X+update.Width, update.Y+update.Height)
		draw.Draw(assembled, rect, tile, tile.Bounds().Min, draw.Src)
		tiles++
	}

	expectedTiles := len(renderer.NewTileGrid(width, height, 16))
	if tiles != expectedTiles {
		t.Errorf("Expected %d tiles, got %d", expectedTiles, tiles)
	}
	if complete.TotalPixels != width*height || complete.Tiles != expectedTiles {
		t.Errorf("Unexpected completion stats: %+v", complete)
	}

	sceneObj, err := scene.Builtin("default")
	if err != nil {
		t.Fatalf("Failed to create scene: %v", err)
	}
	sceneObj.Width, sceneObj.Height = width, height
	expected, err := renderer.Render(sceneObj)
	if err != nil {
		t.Fatalf("Sequential render failed: %v", err)
	}
	if !bytes.Equal(expected.Pix, assembled.Pix) {
		t.Error("Streamed tiles do not reassemble into the sequential render")
	}
}

func TestHandleRenderStream_InvalidScene(t *testing.T) {
	s := newTestServer(t, nil)
	ts := httptest.NewServer(s.Handler())
	defer ts.Close()

	wsURL := "ws" + strings.TrimPrefix(ts.URL, "http") + "/api/render/ws?scene=missing"
	_, resp, err := websocket.DefaultDialer.Dial(wsURL, nil)
	if err == nil {
		t.Fatal("Expected the handshake to fail for an unknown scene")
	}
	if resp == nil || resp.StatusCode != http.StatusBadRequest {
		t.Errorf("Expected 400 response, got %v", resp)
	}
}

func TestSanitizeName(t *testing.T) {
	tests := map[string]string{
		"Sunset Row":    "sunset-row",
		"single-sphere": "single-sphere",
		"../../etc":     "----etc",
		"!!!":           "scene",
	}
	for input, expected := range tests {
		if got := sanitizeName(input); got != expected {
			t.Errorf("sanitizeName(%q) = %q, want %q", input, got, expected)
		}
	}
}
