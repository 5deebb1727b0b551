package renderer

import (
	"image"
	"image/color"
)

// PixelSink receives rendered pixels. The renderer writes every pixel in
// [0,Width)x[0,Height) exactly once. Parallel renders write disjoint pixel
// ranges from different goroutines, so implementations must tolerate
// concurrent writes to distinct pixels.
type PixelSink interface {
	Width() int
	Height() int
	PutPixel(x, y int, c color.RGBA)
}

// ImageSink is a PixelSink backed by an *image.RGBA
type ImageSink struct {
	img *image.RGBA
}

// NewImageSink allocates an RGBA image of the given size
func NewImageSink(width, height int) *ImageSink {
	return &ImageSink{img: image.NewRGBA(image.Rect(0, 0, width, height))}
}

// Width returns the image width
func (s *ImageSink) Width() int { return s.img.Bounds().Dx() }

// Height returns the image height
func (s *ImageSink) Height() int { return s.img.Bounds().Dy() }

// PutPixel stores one pixel
func (s *ImageSink) PutPixel(x, y int, c color.RGBA) {
	s.img.SetRGBA(x, y, c)
}

// Image returns the underlying image
func (s *ImageSink) Image() *image.RGBA {
	return s.img
}
