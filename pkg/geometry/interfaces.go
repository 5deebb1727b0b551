package geometry

import (
	"github.com/df07/go-lambert-raytracer/pkg/core"
)

// Intersectable is implemented by every primitive that can be hit by a ray
type Intersectable interface {
	// Intersect returns the smallest non-negative distance along the ray to the surface
	Intersect(ray core.Ray) (float64, bool)
	// SurfaceNormal returns the unit normal at a point on the surface
	SurfaceNormal(hitPoint core.Point) core.Vec3
}

// Element is a renderable primitive. The set of elements is closed: only
// *Sphere and *Plane implement it.
type Element interface {
	Intersectable
	Color() core.Color
	Albedo() float64
	Kind() Kind
	Validate() error

	element()
}

// Kind identifies the concrete primitive behind an Element
type Kind int

const (
	KindSphere Kind = iota
	KindPlane
)

func (k Kind) String() string {
	switch k {
	case KindSphere:
		return "sphere"
	case KindPlane:
		return "plane"
	default:
		return "unknown"
	}
}
