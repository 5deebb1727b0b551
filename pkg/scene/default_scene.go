package scene

import (
	"fmt"
	"sort"

	"github.com/df07/go-lambert-raytracer/pkg/core"
	"github.com/df07/go-lambert-raytracer/pkg/geometry"
	"github.com/df07/go-lambert-raytracer/pkg/lights"
)

var builtins = map[string]func() *Scene{
	"default":       NewDefaultScene,
	"single-sphere": NewSingleSphereScene,
	"portrait":      NewPortraitScene,
}

// Builtin returns a freshly constructed built-in scene by name
func Builtin(name string) (*Scene, error) {
	create, ok := builtins[name]
	if !ok {
		return nil, fmt.Errorf("unknown scene %q", name)
	}
	return create(), nil
}

// BuiltinNames returns the names of all built-in scenes in sorted order
func BuiltinNames() []string {
	names := make([]string, 0, len(builtins))
	for name := range builtins {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// NewDefaultScene creates three spheres resting on a ground plane under a sun-like light
func NewDefaultScene() *Scene {
	s := &Scene{
		Name:   "default",
		Width:  800,
		Height: 450,
		FOV:    90,
		Light: lights.NewDirectionalLight(
			core.NewVec3(-0.25, -1, -1), // Shining down and away from the camera
			core.NewColor(1, 1, 1),
			20,
		),
	}

	green := geometry.NewMaterial(core.NewColor(0.4, 1.0, 0.4), geometry.DefaultAlbedo)
	red := geometry.NewMaterial(core.NewColor(1.0, 0.3, 0.3), geometry.DefaultAlbedo)
	blue := geometry.NewMaterial(core.NewColor(0.3, 0.4, 1.0), geometry.DefaultAlbedo)
	ground := geometry.NewMaterial(core.NewColor(0.6, 0.6, 0.6), geometry.DefaultAlbedo)

	s.Add(
		geometry.NewSphere(core.NewPoint(0, 0, -5), 1.0, green),
		geometry.NewSphere(core.NewPoint(-3, 1, -6), 2.0, red),
		geometry.NewSphere(core.NewPoint(2, 1, -4), 1.5, blue),
		geometry.NewPlane(core.NewPoint(0, -2, -5), core.NewVec3(0, 1, 0), ground),
	)
	s.SetBackground(core.NewColor(0.2, 0.3, 0.5))

	return s
}

// NewSingleSphereScene creates the minimal test scene: one green sphere straight ahead
func NewSingleSphereScene() *Scene {
	s := &Scene{
		Name:   "single-sphere",
		Width:  800,
		Height: 600,
		FOV:    90,
		Light: lights.NewDirectionalLight(
			core.NewVec3(0, 0, -1),
			core.NewColor(1, 1, 1),
			1,
		),
	}
	s.Add(geometry.NewSphere(
		core.NewPoint(0, 0, -5),
		1.0,
		geometry.NewMaterial(core.NewColor(0.4, 1.0, 0.4), 1.0),
	))
	return s
}

// NewPortraitScene creates a scene taller than it is wide: a stack of spheres above a floor
func NewPortraitScene() *Scene {
	s := &Scene{
		Name:   "portrait",
		Width:  360,
		Height: 640,
		FOV:    60,
		Light: lights.NewDirectionalLight(
			core.NewVec3(1, -1, -1),
			core.NewColor(1.0, 0.95, 0.9),
			15,
		),
	}

	stone := geometry.NewMaterial(core.NewColor(0.9, 0.85, 0.7), 0.5)
	floor := geometry.NewMaterial(core.NewColor(0.5, 0.5, 0.55), geometry.DefaultAlbedo)

	s.Add(
		geometry.NewSphere(core.NewPoint(0, -1.5, -8), 1.5, stone),
		geometry.NewSphere(core.NewPoint(0, 0.75, -8), 1.0, stone),
		geometry.NewSphere(core.NewPoint(0, 2.25, -8), 0.6, stone),
		geometry.NewPlane(core.NewPoint(0, -3, 0), core.NewVec3(0, 1, 0), floor),
	)

	return s
}
