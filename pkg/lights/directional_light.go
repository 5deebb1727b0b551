package lights

import (
	"fmt"
	"math"

	"github.com/df07/go-lambert-raytracer/pkg/core"
)

// DirectionalLight is a light infinitely far away whose rays all travel in
// the same direction, like sunlight.
type DirectionalLight struct {
	Direction core.Vec3  // Direction the light travels, from the light toward the scene
	Color     core.Color // Light color
	Intensity float64    // Non-negative power multiplier
}

// NewDirectionalLight creates a new directional light
func NewDirectionalLight(direction core.Vec3, color core.Color, intensity float64) DirectionalLight {
	return DirectionalLight{
		Direction: direction,
		Color:     color,
		Intensity: intensity,
	}
}

// DirectionToLight returns the unit vector pointing from any surface point back toward the light
func (l DirectionalLight) DirectionToLight() core.Vec3 {
	return l.Direction.Normalize().Negate()
}

// Irradiance returns the light power landing on a surface with the given unit
// normal (Lambert's cosine law). Surfaces facing away receive nothing.
func (l DirectionalLight) Irradiance(normal core.Vec3) float64 {
	return max(0, normal.Dot(l.DirectionToLight())) * l.Intensity
}

// Validate rejects zero or non-finite directions, negative intensities and negative colors
func (l DirectionalLight) Validate() error {
	if !l.Direction.CanNormalize() {
		return fmt.Errorf("light direction must have a finite non-zero length, got %v", l.Direction)
	}
	if l.Intensity < 0 || math.IsNaN(l.Intensity) || math.IsInf(l.Intensity, 0) {
		return fmt.Errorf("light intensity must be finite and non-negative, got %v", l.Intensity)
	}
	if l.Color.R < 0 || l.Color.G < 0 || l.Color.B < 0 {
		return fmt.Errorf("light color must be non-negative, got %v", l.Color)
	}
	return nil
}
