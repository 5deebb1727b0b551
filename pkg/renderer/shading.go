package renderer

import (
	"math"

	"github.com/df07/go-lambert-raytracer/pkg/core"
	"github.com/df07/go-lambert-raytracer/pkg/scene"
)

// Shade computes the Lambertian color of a resolved hit, clamped to [0, 1]
func Shade(s *scene.Scene, ray core.Ray, hit scene.Intersection) core.Color {
	hitPoint := ray.At(hit.Distance)
	normal := hit.Element.SurfaceNormal(hitPoint)

	// Lambert's cosine law scaled by the light intensity
	lightPower := s.Light.Irradiance(normal)

	// Dividing by π keeps a white diffuse surface from reflecting more than it receives
	lightReflected := hit.Element.Albedo() / math.Pi

	return hit.Element.Color().
		Multiply(s.Light.Color).
		Scale(lightPower * lightReflected).
		Clamp()
}
