package geo

import (
	"context"
	"encoding/json"
	"fmt"
	"math"
	"net/http"
	"strings"

	"github.com/golang/geo/s2"
)

const defaultBoundariesURL = "https://raw.githubusercontent.com/datasets/geo-countries/master/data/countries.geojson"

const (
	// UnknownName is used for features without a name property.
	UnknownName = "Unknown"

	minSearchLen   = 2
	maxSearchItems = 10
)

// featureCollection is the subset of GeoJSON the boundary dataset uses.
type featureCollection struct {
	Features []struct {
		Properties map[string]any `json:"properties"`
		Geometry   *struct {
			Type        string          `json:"type"`
			Coordinates json.RawMessage `json:"coordinates"`
		} `json:"geometry"`
	} `json:"features"`
}

// polygon is an outer ring with optional holes.
type polygon struct {
	outer *s2.Loop
	holes []*s2.Loop
}

func (p polygon) contains(pt s2.Point) bool {
	if !p.outer.ContainsPoint(pt) {
		return false
	}
	for _, h := range p.holes {
		if h.ContainsPoint(pt) {
			return false
		}
	}
	return true
}

// Feature is one country boundary.
type Feature struct {
	Name     string
	polygons []polygon
}

// Boundaries is the country boundary dataset.
type Boundaries struct {
	features []Feature
}

// BoundaryClient fetches the country boundary GeoJSON.
type BoundaryClient struct {
	httpClient *http.Client
	url        string
}

// NewBoundaryClient creates a client for the geo-countries dataset.
func NewBoundaryClient() *BoundaryClient {
	return &BoundaryClient{
		httpClient: newHTTPClient(),
		url:        defaultBoundariesURL,
	}
}

// Fetch downloads and parses the boundary dataset.
func (c *BoundaryClient) Fetch(ctx context.Context) (*Boundaries, error) {
	var fc featureCollection
	if err := getJSON(ctx, c.httpClient, c.url, &fc); err != nil {
		return nil, fmt.Errorf("fetching boundaries: %w", err)
	}
	return newBoundaries(fc)
}

// ParseBoundaries parses a GeoJSON feature collection.
func ParseBoundaries(data []byte) (*Boundaries, error) {
	var fc featureCollection
	if err := json.Unmarshal(data, &fc); err != nil {
		return nil, fmt.Errorf("parsing boundaries: %w", err)
	}
	return newBoundaries(fc)
}

func newBoundaries(fc featureCollection) (*Boundaries, error) {
	b := &Boundaries{features: make([]Feature, 0, len(fc.Features))}
	for _, f := range fc.Features {
		feat := Feature{Name: featureName(f.Properties)}
		if f.Geometry != nil {
			polys, err := parseGeometry(f.Geometry.Type, f.Geometry.Coordinates)
			if err != nil {
				return nil, fmt.Errorf("feature %q: %w", feat.Name, err)
			}
			feat.polygons = polys
		}
		b.features = append(b.features, feat)
	}
	return b, nil
}

// featureName picks the display name: ADMIN, then name, then NAME.
func featureName(props map[string]any) string {
	for _, key := range []string{"ADMIN", "name", "NAME"} {
		if s, ok := props[key].(string); ok && s != "" {
			return s
		}
	}
	return UnknownName
}

func parseGeometry(typ string, coords json.RawMessage) ([]polygon, error) {
	switch typ {
	case "Polygon":
		var rings [][][]float64
		if err := json.Unmarshal(coords, &rings); err != nil {
			return nil, fmt.Errorf("decoding polygon: %w", err)
		}
		if p, ok := buildPolygon(rings); ok {
			return []polygon{p}, nil
		}
		return nil, nil
	case "MultiPolygon":
		var parts [][][][]float64
		if err := json.Unmarshal(coords, &parts); err != nil {
			return nil, fmt.Errorf("decoding multipolygon: %w", err)
		}
		var polys []polygon
		for _, rings := range parts {
			if p, ok := buildPolygon(rings); ok {
				polys = append(polys, p)
			}
		}
		return polys, nil
	}
	// Other geometry types carry no area.
	return nil, nil
}

func buildPolygon(rings [][][]float64) (polygon, bool) {
	if len(rings) == 0 {
		return polygon{}, false
	}
	outer, ok := buildLoop(rings[0])
	if !ok {
		return polygon{}, false
	}
	p := polygon{outer: outer}
	for _, ring := range rings[1:] {
		if hole, ok := buildLoop(ring); ok {
			p.holes = append(p.holes, hole)
		}
	}
	return p, true
}

// buildLoop converts a GeoJSON ring of [lng, lat] positions into a
// normalized loop. GeoJSON repeats the first vertex at the end; s2 does not.
func buildLoop(ring [][]float64) (*s2.Loop, bool) {
	pts := make([]s2.Point, 0, len(ring))
	for _, pos := range ring {
		if len(pos) < 2 {
			continue
		}
		pt := s2.PointFromLatLng(s2.LatLngFromDegrees(pos[1], pos[0]))
		if n := len(pts); n > 0 && pts[n-1] == pt {
			continue
		}
		pts = append(pts, pt)
	}
	if n := len(pts); n > 1 && pts[0] == pts[n-1] {
		pts = pts[:n-1]
	}
	if len(pts) < 3 {
		return nil, false
	}

	loop := s2.LoopFromPoints(pts)
	loop.Normalize()
	return loop, true
}

// Len returns the number of features.
func (b *Boundaries) Len() int {
	if b == nil {
		return 0
	}
	return len(b.features)
}

// Names returns every feature's display name in dataset order.
func (b *Boundaries) Names() []string {
	if b == nil {
		return nil
	}
	names := make([]string, 0, len(b.features))
	for _, f := range b.features {
		names = append(names, f.Name)
	}
	return names
}

// Has reports whether a feature has the given display name.
func (b *Boundaries) Has(name string) bool {
	if b == nil {
		return false
	}
	for _, f := range b.features {
		if f.Name == name {
			return true
		}
	}
	return false
}

// Search returns up to ten feature names containing query,
// case-insensitively. Queries shorter than two characters match nothing.
func (b *Boundaries) Search(query string) []string {
	q := strings.ToLower(strings.TrimSpace(query))
	if b == nil || len([]rune(q)) < minSearchLen {
		return nil
	}

	var out []string
	for _, f := range b.features {
		if strings.Contains(strings.ToLower(f.Name), q) {
			out = append(out, f.Name)
			if len(out) == maxSearchItems {
				break
			}
		}
	}
	return out
}

// Locate returns the name of the country containing the coordinate.
func (b *Boundaries) Locate(lat, lng float64) (string, bool) {
	if b == nil {
		return "", false
	}
	if math.IsNaN(lat) || math.IsNaN(lng) || math.IsInf(lat, 0) || math.IsInf(lng, 0) {
		return "", false
	}
	ll := s2.LatLngFromDegrees(lat, lng)
	if !ll.IsValid() {
		return "", false
	}

	pt := s2.PointFromLatLng(ll)
	for _, f := range b.features {
		for _, p := range f.polygons {
			if p.contains(pt) {
				return f.Name, true
			}
		}
	}
	return "", false
}
