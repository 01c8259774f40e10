package geo

import (
	"context"
	"fmt"
	"math"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// Rings are [lng, lat]. Squareland's outer ring is clockwise on purpose.
const testGeoJSON = `{
	"type": "FeatureCollection",
	"features": [
		{
			"type": "Feature",
			"properties": {"ADMIN": "Squareland", "name": "ignored"},
			"geometry": {"type": "Polygon", "coordinates": [
				[[0,0],[0,10],[10,10],[10,0],[0,0]],
				[[4,4],[6,4],[6,6],[4,6],[4,4]]
			]}
		},
		{
			"type": "Feature",
			"properties": {"name": "Twinland"},
			"geometry": {"type": "MultiPolygon", "coordinates": [
				[[[20,20],[30,20],[30,30],[20,30],[20,20]]],
				[[[-30,-30],[-20,-30],[-20,-20],[-30,-20],[-30,-30]]]
			]}
		},
		{
			"type": "Feature",
			"properties": {"NAME": "Upper Squareland"},
			"geometry": {"type": "Polygon", "coordinates": [
				[[100,40],[110,40],[110,50],[100,50],[100,40]]
			]}
		},
		{
			"type": "Feature",
			"properties": {},
			"geometry": null
		}
	]
}`

func testBoundaries(t *testing.T) *Boundaries {
	t.Helper()
	b, err := ParseBoundaries([]byte(testGeoJSON))
	require.NoError(t, err)
	return b
}

func TestFeatureNames(t *testing.T) {
	b := testBoundaries(t)
	assert.Equal(t, []string{"Squareland", "Twinland", "Upper Squareland", UnknownName}, b.Names())
	assert.True(t, b.Has("Twinland"))
	assert.False(t, b.Has("twinland"))
}

func TestLocate(t *testing.T) {
	b := testBoundaries(t)

	tests := []struct {
		name     string
		lat, lng float64
		want     string
		found    bool
	}{
		{"inside square", 2, 2, "Squareland", true},
		{"inside hole", 5, 5, "", false},
		{"first part of multipolygon", 25, 25, "Twinland", true},
		{"second part of multipolygon", -25, -25, "Twinland", true},
		{"NAME fallback", 45, 105, "Upper Squareland", true},
		{"open ocean", -60, 150, "", false},
		{"NaN", math.NaN(), 0, "", false},
		{"out of range", 120, 0, "", false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, ok := b.Locate(tt.lat, tt.lng)
			assert.Equal(t, tt.found, ok)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestSearch(t *testing.T) {
	b := testBoundaries(t)

	assert.Equal(t, []string{"Squareland", "Upper Squareland"}, b.Search("SQUARE"))
	assert.Equal(t, []string{"Twinland"}, b.Search(" twin "))
	assert.Nil(t, b.Search("s"), "single character queries match nothing")
	assert.Empty(t, b.Search("atlantis"))
}

func TestSearchLimit(t *testing.T) {
	features := ""
	for i := 0; i < 15; i++ {
		if i > 0 {
			features += ","
		}
		features += fmt.Sprintf(`{"properties":{"ADMIN":"Island %d"},"geometry":null}`, i)
	}
	b, err := ParseBoundaries([]byte(`{"features":[` + features + `]}`))
	require.NoError(t, err)

	assert.Len(t, b.Search("island"), 10)
}

func TestNilBoundaries(t *testing.T) {
	var b *Boundaries
	assert.Zero(t, b.Len())
	assert.Nil(t, b.Search("japan"))
	_, ok := b.Locate(0, 0)
	assert.False(t, ok)
}

func TestBoundaryClientFetch(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(testGeoJSON))
	}))
	defer srv.Close()

	c := NewBoundaryClient()
	SetTestURL(c, srv.URL)

	b, err := c.Fetch(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 4, b.Len())
}

func TestBoundaryClientFetchError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
	}))
	defer srv.Close()

	c := NewBoundaryClient()
	SetTestURL(c, srv.URL)

	_, err := c.Fetch(context.Background())
	assert.Error(t, err)
}
