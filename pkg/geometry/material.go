package geometry

import (
	"fmt"
	"math"

	"github.com/df07/go-lambert-raytracer/pkg/core"
)

// DefaultAlbedo is the reflectance used when a primitive does not specify one
const DefaultAlbedo = 0.18

// Material describes the diffuse surface of a primitive
type Material struct {
	Color  core.Color
	Albedo float64 // Fraction of incident light reflected, in (0, 1]
}

// NewMaterial creates a new material
func NewMaterial(color core.Color, albedo float64) Material {
	return Material{Color: color, Albedo: albedo}
}

// Validate checks that the albedo and color are physically meaningful
func (m Material) Validate() error {
	if !(m.Albedo > 0 && m.Albedo <= 1) {
		return fmt.Errorf("albedo must be in (0, 1], got %v", m.Albedo)
	}
	for _, channel := range []float64{m.Color.R, m.Color.G, m.Color.B} {
		if channel < 0 || math.IsNaN(channel) || math.IsInf(channel, 0) {
			return fmt.Errorf("color channels must be finite and non-negative, got %v", m.Color)
		}
	}
	return nil
}
