package geozone

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"reparto/internal/types"
)

// Rough bounding box around Almería city.
const almeriaPolygon = `{
	"type": "Polygon",
	"coordinates": [[
		[-2.60, 36.75],
		[-2.30, 36.75],
		[-2.30, 36.95],
		[-2.60, 36.95],
		[-2.60, 36.75]
	]]
}`

func TestContainsInsideAndOutside(t *testing.T) {
	z, err := Parse([]byte(almeriaPolygon))
	require.NoError(t, err)

	assert.True(t, z.Contains(types.Point{Lat: 36.8402, Lng: -2.4681}), "Almería centre should be inside")
	assert.False(t, z.Contains(types.Point{Lat: 40.4168, Lng: -3.7038}), "Madrid should be outside")
}

func TestParseFeatureCollectionPicksFirstPolygon(t *testing.T) {
	raw := `{
		"type": "FeatureCollection",
		"features": [
			{"type": "Feature", "properties": {}, "geometry": {"type": "Point", "coordinates": [-2.46, 36.84]}},
			{"type": "Feature", "properties": {}, "geometry": ` + almeriaPolygon + `}
		]
	}`
	z, err := Parse([]byte(raw))
	require.NoError(t, err)
	assert.True(t, z.Contains(types.Point{Lat: 36.8402, Lng: -2.4681}))
}

func TestParseFeature(t *testing.T) {
	raw := `{"type": "Feature", "properties": {}, "geometry": ` + almeriaPolygon + `}`
	z, err := Parse([]byte(raw))
	require.NoError(t, err)
	assert.True(t, z.Contains(types.Point{Lat: 36.8402, Lng: -2.4681}))
}

func TestParseRejectsNonPolygonal(t *testing.T) {
	cases := map[string]string{
		"point geometry":   `{"type": "Point", "coordinates": [-2.46, 36.84]}`,
		"linestring":       `{"type": "LineString", "coordinates": [[-2.46, 36.84], [-2.40, 36.90]]}`,
		"empty collection": `{"type": "FeatureCollection", "features": []}`,
		"not geojson":      `{"hello": "world"}`,
		"broken json":      `{`,
	}
	for name, raw := range cases {
		t.Run(name, func(t *testing.T) {
			z, err := Parse([]byte(raw))
			assert.Error(t, err)
			assert.Nil(t, z)
		})
	}
}

func TestParseRejectsDegenerateRing(t *testing.T) {
	raw := `{"type": "Polygon", "coordinates": [[[-2.46, 36.84], [-2.40, 36.90]]]}`
	_, err := Parse([]byte(raw))
	assert.ErrorIs(t, err, ErrBadGeometry)
}

// Containment must fail closed, never panic, for every degenerate input.
func TestContainsFailsClosed(t *testing.T) {
	var nilZone *Zone
	assert.False(t, nilZone.Contains(types.Point{Lat: 36.84, Lng: -2.46}))

	empty := &Zone{}
	assert.False(t, empty.Contains(types.Point{Lat: 36.84, Lng: -2.46}))

	z, err := Parse([]byte(almeriaPolygon))
	require.NoError(t, err)
	assert.False(t, z.Contains(types.Point{Lat: 91, Lng: 0}), "out-of-range latitude")
	assert.False(t, z.Contains(types.Point{Lat: 0, Lng: 181}), "out-of-range longitude")
}

func TestLoadFileMissing(t *testing.T) {
	_, err := LoadFile("testdata/does-not-exist.json")
	assert.Error(t, err)
}
