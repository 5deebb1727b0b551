package renderer

import (
	"fmt"
	"image"
	"image/color"

	"github.com/df07/go-lambert-raytracer/pkg/scene"
)

// Raytracer casts one primary ray per pixel and shades the nearest hit.
// It holds no mutable state, so one Raytracer can serve many goroutines.
type Raytracer struct {
	scene      *scene.Scene
	camera     *Camera
	background color.RGBA
}

// NewRaytracer creates a raytracer for an already validated scene
func NewRaytracer(s *scene.Scene) *Raytracer {
	background := color.RGBA{} // Transparent black
	if s.Background != nil {
		background = s.Background.ToRGBA()
	}

	return &Raytracer{
		scene:      s,
		camera:     NewCamera(s.Width, s.Height, s.FOV),
		background: background,
	}
}

// PixelColor computes the final color of pixel (x, y) and reports whether its ray hit anything
func (rt *Raytracer) PixelColor(x, y int) (color.RGBA, bool) {
	ray := rt.camera.PrimeRay(x, y)

	hit, isHit := rt.scene.Trace(ray)
	if !isHit {
		return rt.background, false
	}
	return Shade(rt.scene, ray, hit).ToRGBA(), true
}

// RenderBounds renders every pixel within bounds into the sink
func (rt *Raytracer) RenderBounds(bounds image.Rectangle, sink PixelSink) RenderStats {
	stats := RenderStats{TotalPixels: bounds.Dx() * bounds.Dy(), Tiles: 1}

	for y := bounds.Min.Y; y < bounds.Max.Y; y++ {
		for x := bounds.Min.X; x < bounds.Max.X; x++ {
			pixelColor, isHit := rt.PixelColor(x, y)
			if isHit {
				stats.Hits++
			} else {
				stats.Misses++
			}
			sink.PutPixel(x, y, pixelColor)
		}
	}

	return stats
}

// Bounds returns the full image rectangle of the scene
func (rt *Raytracer) Bounds() image.Rectangle {
	return image.Rect(0, 0, rt.scene.Width, rt.scene.Height)
}

// Render validates the scene and renders it sequentially into a new image
func Render(s *scene.Scene) (*image.RGBA, error) {
	if err := s.Validate(); err != nil {
		return nil, err
	}

	sink := NewImageSink(s.Width, s.Height)
	NewRaytracer(s).RenderBounds(image.Rect(0, 0, s.Width, s.Height), sink)
	return sink.Image(), nil
}

// RenderTo validates the scene and renders it sequentially into sink
func RenderTo(s *scene.Scene, sink PixelSink) (RenderStats, error) {
	if err := checkTarget(s, sink); err != nil {
		return RenderStats{}, err
	}

	rt := NewRaytracer(s)
	return rt.RenderBounds(rt.Bounds(), sink), nil
}

// checkTarget validates the scene and that the sink matches its dimensions
func checkTarget(s *scene.Scene, sink PixelSink) error {
	if err := s.Validate(); err != nil {
		return err
	}
	if sink.Width() != s.Width || sink.Height() != s.Height {
		return fmt.Errorf("sink is %dx%d but scene is %dx%d",
			sink.Width(), sink.Height(), s.Width, s.Height)
	}
	return nil
}
