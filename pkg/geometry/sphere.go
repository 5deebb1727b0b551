package geometry

import (
	"fmt"
	"math"

	"github.com/df07/go-lambert-raytracer/pkg/core"
)

// Sphere represents a sphere shape
type Sphere struct {
	Center   core.Point
	Radius   float64
	Material Material
}

// NewSphere creates a new sphere
func NewSphere(center core.Point, radius float64, material Material) *Sphere {
	return &Sphere{
		Center:   center,
		Radius:   radius,
		Material: material,
	}
}

// Intersect tests if a ray intersects with the sphere
func (s *Sphere) Intersect(ray core.Ray) (float64, bool) {
	// Project the center onto the ray to find the closest approach
	l := s.Center.Subtract(ray.Origin)
	adj := l.Dot(ray.Direction)
	d2 := l.Dot(l) - adj*adj
	radius2 := s.Radius * s.Radius

	if d2 > radius2 {
		return 0, false
	}

	// Half chord length from the right triangle (radius, d, thc)
	thc := math.Sqrt(radius2 - d2)
	t0 := adj - thc
	t1 := adj + thc

	if t0 < 0 && t1 < 0 {
		return 0, false
	}

	// Origin inside the sphere: only the far root is in front of the ray
	if t0 < 0 {
		return t1, true
	}
	return t0, true
}

// SurfaceNormal returns the outward unit normal at hitPoint
func (s *Sphere) SurfaceNormal(hitPoint core.Point) core.Vec3 {
	return hitPoint.Subtract(s.Center).Normalize()
}

// Color returns the surface color
func (s *Sphere) Color() core.Color { return s.Material.Color }

// Albedo returns the surface reflectance
func (s *Sphere) Albedo() float64 { return s.Material.Albedo }

// Kind returns KindSphere
func (s *Sphere) Kind() Kind { return KindSphere }

// Validate rejects non-positive radii and invalid materials
func (s *Sphere) Validate() error {
	if !(s.Radius > 0) || math.IsInf(s.Radius, 0) {
		return fmt.Errorf("sphere radius must be positive and finite, got %v", s.Radius)
	}
	if err := s.Material.Validate(); err != nil {
		return fmt.Errorf("sphere: %w", err)
	}
	return nil
}

func (s *Sphere) element() {}
