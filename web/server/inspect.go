package server

import (
	"fmt"
	"net/http"
	"strconv"

	"github.com/df07/go-lambert-raytracer/pkg/geometry"
	"github.com/df07/go-lambert-raytracer/pkg/renderer"
)

// InspectResponse describes what the primary ray through one pixel hits
type InspectResponse struct {
	Hit          bool                   `json:"hit"`
	GeometryType string                 `json:"geometryType,omitempty"`
	ElementIndex int                    `json:"elementIndex"`
	Point        [3]float64             `json:"point"`
	Normal       [3]float64             `json:"normal"`
	Distance     float64                `json:"distance"`
	Color        string                 `json:"color"` // Shaded pixel color as #rrggbb
	Properties   map[string]interface{} `json:"properties,omitempty"`
}

// extractGeometryInfo extracts the defining parameters of an element
func extractGeometryInfo(element geometry.Element) map[string]interface{} {
	c := element.Color()
	properties := map[string]interface{}{
		"color":  [3]float64{c.R, c.G, c.B},
		"albedo": element.Albedo(),
	}

	switch geom := element.(type) {
	case *geometry.Sphere:
		properties["center"] = [3]float64{geom.Center.X, geom.Center.Y, geom.Center.Z}
		properties["radius"] = geom.Radius
	case *geometry.Plane:
		properties["origin"] = [3]float64{geom.Origin.X, geom.Origin.Y, geom.Origin.Z}
		properties["normal"] = [3]float64{geom.Normal.X, geom.Normal.Y, geom.Normal.Z}
	}
	return properties
}

// handleInspect casts the primary ray through pixel (x, y) and reports the nearest hit
func (s *Server) handleInspect(w http.ResponseWriter, r *http.Request) {
	req, err := s.parseRenderRequest(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, "Invalid scene parameters: "+err.Error())
		return
	}

	pixelX, err := strconv.Atoi(r.URL.Query().Get("x"))
	if err != nil {
		writeError(w, http.StatusBadRequest, "Invalid x coordinate")
		return
	}
	pixelY, err := strconv.Atoi(r.URL.Query().Get("y"))
	if err != nil {
		writeError(w, http.StatusBadRequest, "Invalid y coordinate")
		return
	}

	sceneObj, err := s.createScene(r, req)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	if pixelX < 0 || pixelX >= sceneObj.Width || pixelY < 0 || pixelY >= sceneObj.Height {
		writeError(w, http.StatusBadRequest, "Pixel coordinates out of bounds")
		return
	}

	ray := renderer.NewCamera(sceneObj.Width, sceneObj.Height, sceneObj.FOV).PrimeRay(pixelX, pixelY)
	hit, isHit := sceneObj.Trace(ray)
	if !isHit {
		writeJSON(w, http.StatusOK, InspectResponse{Hit: false, ElementIndex: -1})
		return
	}

	point := ray.At(hit.Distance)
	normal := hit.Element.SurfaceNormal(point)
	shaded := renderer.Shade(sceneObj, ray, hit).ToRGBA()

	writeJSON(w, http.StatusOK, InspectResponse{
		Hit:          true,
		GeometryType: hit.Element.Kind().String(),
		ElementIndex: hit.Index,
		Point:        toArray(point.X, point.Y, point.Z),
		Normal:       toArray(normal.X, normal.Y, normal.Z),
		Distance:     hit.Distance,
		Color:        fmt.Sprintf("#%02x%02x%02x", shaded.R, shaded.G, shaded.B),
		Properties:   extractGeometryInfo(hit.Element),
	})
}

func toArray(x, y, z float64) [3]float64 {
	return [3]float64{x, y, z}
}
