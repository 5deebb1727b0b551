package loaders

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/df07/go-lambert-raytracer/pkg/core"
	"github.com/df07/go-lambert-raytracer/pkg/geometry"
	"github.com/df07/go-lambert-raytracer/pkg/lights"
	"github.com/df07/go-lambert-raytracer/pkg/scene"
)

// ErrUnknownElement is returned for element types other than "sphere" and "plane"
var ErrUnknownElement = errors.New("unknown element type")

// SceneFile is the JSON representation of a scene
type SceneFile struct {
	Name        string        `json:"name"`
	Description string        `json:"description,omitempty"`
	Width       int           `json:"width"`
	Height      int           `json:"height"`
	FOV         float64       `json:"fov"`
	Background  *[3]float64   `json:"background,omitempty"`
	Light       LightFile     `json:"light"`
	Elements    []ElementFile `json:"elements"`
}

// LightFile is the JSON representation of the directional light
type LightFile struct {
	Direction [3]float64 `json:"direction"`
	Color     [3]float64 `json:"color"`
	Intensity float64    `json:"intensity"`
}

// ElementFile is the JSON representation of one primitive. Spheres use
// Center and Radius; planes use Origin and Normal.
type ElementFile struct {
	Type   string      `json:"type"`
	Center *[3]float64 `json:"center,omitempty"`
	Radius float64     `json:"radius,omitempty"`
	Origin *[3]float64 `json:"origin,omitempty"`
	Normal *[3]float64 `json:"normal,omitempty"`
	Color  [3]float64  `json:"color"`
	Albedo *float64    `json:"albedo,omitempty"`
}

// LoadScene reads and validates a JSON scene file. Scenes without a name are
// named after the file.
func LoadScene(path string) (*scene.Scene, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open scene file: %w", err)
	}
	defer file.Close()

	s, err := DecodeScene(file)
	if err != nil {
		return nil, fmt.Errorf("failed to load scene %s: %w", path, err)
	}
	if s.Name == "" {
		s.Name = strings.TrimSuffix(filepath.Base(path), filepath.Ext(path))
	}
	return s, nil
}

// DecodeScene parses a JSON scene and validates the result
func DecodeScene(r io.Reader) (*scene.Scene, error) {
	decoder := json.NewDecoder(r)
	decoder.DisallowUnknownFields()

	var sf SceneFile
	if err := decoder.Decode(&sf); err != nil {
		return nil, fmt.Errorf("failed to parse scene JSON: %w", err)
	}
	return sf.Build()
}

// Build converts the file representation into a validated scene
func (sf SceneFile) Build() (*scene.Scene, error) {
	light := lights.NewDirectionalLight(vec(sf.Light.Direction), rgb(sf.Light.Color), sf.Light.Intensity)

	elements := make([]geometry.Element, 0, len(sf.Elements))
	for i, ef := range sf.Elements {
		element, err := ef.build()
		if err != nil {
			return nil, fmt.Errorf("element %d: %w", i, err)
		}
		elements = append(elements, element)
	}

	s := &scene.Scene{
		Name:     sf.Name,
		Width:    sf.Width,
		Height:   sf.Height,
		FOV:      sf.FOV,
		Elements: elements,
		Light:    light,
	}
	if sf.Background != nil {
		s.SetBackground(rgb(*sf.Background))
	}

	if err := s.Validate(); err != nil {
		return nil, err
	}
	return s, nil
}

func (ef ElementFile) build() (geometry.Element, error) {
	albedo := geometry.DefaultAlbedo
	if ef.Albedo != nil {
		albedo = *ef.Albedo
	}
	material := geometry.NewMaterial(rgb(ef.Color), albedo)

	switch strings.ToLower(ef.Type) {
	case "sphere":
		if ef.Center == nil {
			return nil, errors.New("sphere requires a center")
		}
		return geometry.NewSphere(point(*ef.Center), ef.Radius, material), nil
	case "plane":
		if ef.Origin == nil || ef.Normal == nil {
			return nil, errors.New("plane requires an origin and a normal")
		}
		normal := vec(*ef.Normal)
		if !normal.CanNormalize() {
			return nil, fmt.Errorf("plane normal must have a finite non-zero length, got %v", *ef.Normal)
		}
		return geometry.NewPlane(point(*ef.Origin), normal, material), nil
	default:
		return nil, fmt.Errorf("%w %q", ErrUnknownElement, ef.Type)
	}
}

// EncodeScene writes the JSON representation of a scene
func EncodeScene(w io.Writer, s *scene.Scene) error {
	sf := SceneFile{
		Name:   s.Name,
		Width:  s.Width,
		Height: s.Height,
		FOV:    s.FOV,
		Light: LightFile{
			Direction: [3]float64{s.Light.Direction.X, s.Light.Direction.Y, s.Light.Direction.Z},
			Color:     [3]float64{s.Light.Color.R, s.Light.Color.G, s.Light.Color.B},
			Intensity: s.Light.Intensity,
		},
	}
	if s.Background != nil {
		sf.Background = &[3]float64{s.Background.R, s.Background.G, s.Background.B}
	}

	for _, element := range s.Elements {
		albedo := element.Albedo()
		c := element.Color()
		ef := ElementFile{
			Type:   element.Kind().String(),
			Color:  [3]float64{c.R, c.G, c.B},
			Albedo: &albedo,
		}
		switch e := element.(type) {
		case *geometry.Sphere:
			ef.Center = &[3]float64{e.Center.X, e.Center.Y, e.Center.Z}
			ef.Radius = e.Radius
		case *geometry.Plane:
			ef.Origin = &[3]float64{e.Origin.X, e.Origin.Y, e.Origin.Z}
			ef.Normal = &[3]float64{e.Normal.X, e.Normal.Y, e.Normal.Z}
		}
		sf.Elements = append(sf.Elements, ef)
	}

	encoder := json.NewEncoder(w)
	encoder.SetIndent("", "  ")
	return encoder.Encode(sf)
}

func vec(v [3]float64) core.Vec3 { return core.NewVec3(v[0], v[1], v[2]) }

func point(v [3]float64) core.Point { return core.NewPoint(v[0], v[1], v[2]) }

func rgb(v [3]float64) core.Color { return core.NewColor(v[0], v[1], v[2]) }
