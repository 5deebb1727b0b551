package scene

import (
	"errors"
	"fmt"
	"math"

	"github.com/df07/go-lambert-raytracer/pkg/core"
	"github.com/df07/go-lambert-raytracer/pkg/geometry"
	"github.com/df07/go-lambert-raytracer/pkg/lights"
)

// ErrInvalidScene is wrapped by every scene validation error
var ErrInvalidScene = errors.New("invalid scene")

// Scene contains all the elements needed for rendering. A validated scene is
// read-only for the duration of a render.
type Scene struct {
	Name     string
	Width    int                     // Image width in pixels
	Height   int                     // Image height in pixels
	FOV      float64                 // Field of view in degrees
	Elements []geometry.Element      // Objects in the scene
	Light    lights.DirectionalLight // The single light source
	// Background is written for pixels whose ray hits nothing. Nil means
	// fully transparent black.
	Background *core.Color
}

// Intersection is the nearest hit of a ray. Element is borrowed from the
// scene's element list; Index is its position in that list.
type Intersection struct {
	Distance float64
	Index    int
	Element  geometry.Element
}

// New creates and validates a scene
func New(width, height int, fov float64, light lights.DirectionalLight, elements ...geometry.Element) (*Scene, error) {
	s := &Scene{
		Width:    width,
		Height:   height,
		FOV:      fov,
		Elements: elements,
		Light:    light,
	}
	if err := s.Validate(); err != nil {
		return nil, err
	}
	return s, nil
}

// Validate reports every problem with the scene at once
func (s *Scene) Validate() error {
	var problems []error

	if s.Width <= 0 || s.Height <= 0 {
		problems = append(problems, fmt.Errorf("dimensions must be positive, got %dx%d", s.Width, s.Height))
	}
	if !(s.FOV > 0 && s.FOV < 180) {
		problems = append(problems, fmt.Errorf("field of view must be in (0, 180) degrees, got %v", s.FOV))
	}
	if err := s.Light.Validate(); err != nil {
		problems = append(problems, err)
	}
	for i, element := range s.Elements {
		if element == nil {
			problems = append(problems, fmt.Errorf("element %d is nil", i))
			continue
		}
		if err := element.Validate(); err != nil {
			problems = append(problems, fmt.Errorf("element %d: %w", i, err))
		}
	}
	if s.Background != nil {
		bg := *s.Background
		if math.IsNaN(bg.R+bg.G+bg.B) || bg.R < 0 || bg.G < 0 || bg.B < 0 {
			problems = append(problems, fmt.Errorf("background color must be non-negative, got %v", bg))
		}
	}

	if len(problems) > 0 {
		return fmt.Errorf("%w: %w", ErrInvalidScene, errors.Join(problems...))
	}
	return nil
}

// AspectRatio returns width divided by height
func (s *Scene) AspectRatio() float64 {
	return float64(s.Width) / float64(s.Height)
}

// Trace finds the nearest element hit by the ray using a linear scan
func (s *Scene) Trace(ray core.Ray) (Intersection, bool) {
	closest := Intersection{Distance: math.Inf(1), Index: -1}

	for i, element := range s.Elements {
		distance, isHit := element.Intersect(ray)
		if isHit && distance < closest.Distance {
			closest = Intersection{Distance: distance, Index: i, Element: element}
		}
	}

	return closest, closest.Element != nil
}

// SetBackground sets an opaque background color
func (s *Scene) SetBackground(c core.Color) {
	s.Background = &c
}

// Add appends elements to the scene
func (s *Scene) Add(elements ...geometry.Element) {
	s.Elements = append(s.Elements, elements...)
}
