package renderer

import (
	"math"

	"github.com/go-gl/mathgl/mgl64"

	"github.com/df07/go-lambert-raytracer/pkg/core"
)

// Camera generates primary rays from a pinhole at the world origin looking down -Z
type Camera struct {
	width, height int
	// Sensor half-extents at unit distance. The longer image axis absorbs the
	// aspect ratio so pixels stay square in either orientation.
	halfWidth  float64
	halfHeight float64
}

// NewCamera creates a camera for an image of the given size and field of view in degrees.
// The field of view spans the shorter image axis.
func NewCamera(width, height int, fovDegrees float64) *Camera {
	fovAdjustment := math.Tan(mgl64.DegToRad(fovDegrees) / 2)

	halfWidth, halfHeight := fovAdjustment, fovAdjustment
	if width >= height {
		halfWidth *= float64(width) / float64(height)
	} else {
		halfHeight *= float64(height) / float64(width)
	}

	return &Camera{
		width:      width,
		height:     height,
		halfWidth:  halfWidth,
		halfHeight: halfHeight,
	}
}

// PrimeRay returns the ray from the camera through the center of pixel (x, y).
// Pixel (0, 0) is the top-left corner of the image.
func (c *Camera) PrimeRay(x, y int) core.Ray {
	sensorX := ((float64(x)+0.5)/float64(c.width)*2 - 1) * c.halfWidth
	sensorY := (1 - (float64(y)+0.5)/float64(c.height)*2) * c.halfHeight

	return core.NewRay(core.Origin(), core.NewVec3(sensorX, sensorY, -1))
}
