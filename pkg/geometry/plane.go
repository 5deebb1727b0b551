package geometry

import (
	"fmt"
	"math"

	"github.com/df07/go-lambert-raytracer/pkg/core"
)

// parallelEpsilon rejects rays that are (nearly) parallel to a plane
const parallelEpsilon = 1e-6

// Plane represents an infinite single-sided plane defined by a point and normal.
// The normal points out of the visible face; rays approaching from behind miss.
type Plane struct {
	Origin   core.Point // A point on the plane
	Normal   core.Vec3  // Unit normal of the visible face
	Material Material
}

// NewPlane creates a new plane. The normal must be non-zero.
func NewPlane(origin core.Point, normal core.Vec3, material Material) *Plane {
	return &Plane{
		Origin:   origin,
		Normal:   normal.Normalize(),
		Material: material,
	}
}

// Intersect tests if a ray hits the front face of the plane
func (p *Plane) Intersect(ray core.Ray) (float64, bool) {
	// Positive when the ray travels against the normal, towards the front face
	denominator := -ray.Direction.Dot(p.Normal)
	if denominator <= parallelEpsilon {
		return 0, false
	}

	// t = (origin - rayOrigin) · n / (d · n), with both signs flipped
	t := ray.Origin.Subtract(p.Origin).Dot(p.Normal) / denominator
	if t < 0 {
		return 0, false
	}
	return t, true
}

// SurfaceNormal returns the plane normal, which already faces any ray that can hit it
func (p *Plane) SurfaceNormal(core.Point) core.Vec3 {
	return p.Normal
}

// Color returns the surface color
func (p *Plane) Color() core.Color { return p.Material.Color }

// Albedo returns the surface reflectance
func (p *Plane) Albedo() float64 { return p.Material.Albedo }

// Kind returns KindPlane
func (p *Plane) Kind() Kind { return KindPlane }

// Validate rejects non-unit normals and invalid materials
func (p *Plane) Validate() error {
	if !(math.Abs(p.Normal.Length()-1) <= 1e-9) {
		return fmt.Errorf("plane normal must be unit length, got %v", p.Normal)
	}
	if err := p.Material.Validate(); err != nil {
		return fmt.Errorf("plane: %w", err)
	}
	return nil
}

func (p *Plane) element() {}
