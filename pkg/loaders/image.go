package loaders

import (
	"fmt"
	"image"
	"io"
	"path/filepath"

	"github.com/disintegration/imaging"
)

// LoadImage loads an image in any format imaging understands (PNG, JPEG, GIF, TIFF, BMP)
func LoadImage(filename string) (image.Image, error) {
	img, err := imaging.Open(filename)
	if err != nil {
		return nil, fmt.Errorf("failed to load image: %w", err)
	}
	return img, nil
}

// SaveImage writes img to filename, choosing the encoding from the file extension
func SaveImage(img image.Image, filename string) error {
	if _, err := imaging.FormatFromFilename(filename); err != nil {
		return fmt.Errorf("unsupported output format %q: %w", filepath.Ext(filename), err)
	}
	if err := imaging.Save(img, filename); err != nil {
		return fmt.Errorf("failed to save image: %w", err)
	}
	return nil
}

// EncodeImage writes img to w in the named format ("png", "jpeg", "jpg", "gif", "tiff", "bmp")
func EncodeImage(w io.Writer, img image.Image, format string) error {
	f, err := imaging.FormatFromExtension(format)
	if err != nil {
		return fmt.Errorf("unsupported image format %q: %w", format, err)
	}
	if err := imaging.Encode(w, img, f); err != nil {
		return fmt.Errorf("failed to encode image: %w", err)
	}
	return nil
}

// ContentType returns the MIME type for an image format name
func ContentType(format string) (string, error) {
	f, err := imaging.FormatFromExtension(format)
	if err != nil {
		return "", fmt.Errorf("unsupported image format %q: %w", format, err)
	}
	switch f {
	case imaging.JPEG:
		return "image/jpeg", nil
	case imaging.PNG:
		return "image/png", nil
	case imaging.GIF:
		return "image/gif", nil
	case imaging.TIFF:
		return "image/tiff", nil
	case imaging.BMP:
		return "image/bmp", nil
	default:
		return "application/octet-stream", nil
	}
}

// CountDifferingPixels compares two images of equal size pixel by pixel
func CountDifferingPixels(a, b image.Image) (int, error) {
	boundsA, boundsB := a.Bounds(), b.Bounds()
	if boundsA.Dx() != boundsB.Dx() || boundsA.Dy() != boundsB.Dy() {
		return 0, fmt.Errorf("image sizes differ: %dx%d vs %dx%d",
			boundsA.Dx(), boundsA.Dy(), boundsB.Dx(), boundsB.Dy())
	}

	differing := 0
	for y := 0; y < boundsA.Dy(); y++ {
		for x := 0; x < boundsA.Dx(); x++ {
			r1, g1, b1, a1 := a.At(boundsA.Min.X+x, boundsA.Min.Y+y).RGBA()
			r2, g2, b2, a2 := b.At(boundsB.Min.X+x, boundsB.Min.Y+y).RGBA()
			if r1 != r2 || g1 != g2 || b1 != b2 || a1 != a2 {
				differing++
			}
		}
	}
	return differing, nil
}
