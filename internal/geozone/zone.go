// README: Service-zone geometry loading and fail-closed containment checks.
package geozone

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"

	"github.com/paulmach/orb"
	"github.com/paulmach/orb/geojson"
	"github.com/paulmach/orb/planar"

	"reparto/internal/types"
)

var (
	ErrNoGeometry  = errors.New("geozone: no polygonal geometry found")
	ErrBadGeometry = errors.New("geozone: degenerate geometry")
)

// Zone is the serviceable delivery area, normalized to a multi-polygon.
// The zero value (and a nil *Zone) contains nothing: containment checks
// fail closed rather than guessing.
type Zone struct {
	mp orb.MultiPolygon
}

// Parse normalizes raw GeoJSON into a Zone. It accepts a bare Polygon or
// MultiPolygon geometry, a Feature wrapping one, or a FeatureCollection
// (first polygonal feature wins). Anything else is an error, never a panic.
func Parse(raw []byte) (*Zone, error) {
	var probe struct {
		Type string `json:"type"`
	}
	if err := json.Unmarshal(raw, &probe); err != nil {
		return nil, fmt.Errorf("geozone: invalid json: %w", err)
	}

	var geom orb.Geometry
	switch probe.Type {
	case "FeatureCollection":
		fc, err := geojson.UnmarshalFeatureCollection(raw)
		if err != nil {
			return nil, fmt.Errorf("geozone: %w", err)
		}
		for _, ft := range fc.Features {
			if ft == nil {
				continue
			}
			switch ft.Geometry.(type) {
			case orb.Polygon, orb.MultiPolygon:
				geom = ft.Geometry
			}
			if geom != nil {
				break
			}
		}
	case "Feature":
		ft, err := geojson.UnmarshalFeature(raw)
		if err != nil {
			return nil, fmt.Errorf("geozone: %w", err)
		}
		geom = ft.Geometry
	case "Polygon", "MultiPolygon":
		g, err := geojson.UnmarshalGeometry(raw)
		if err != nil {
			return nil, fmt.Errorf("geozone: %w", err)
		}
		geom = g.Geometry()
	default:
		return nil, ErrNoGeometry
	}

	mp, err := toMultiPolygon(geom)
	if err != nil {
		return nil, err
	}
	return &Zone{mp: mp}, nil
}

// LoadFile reads and parses the zone file at path.
func LoadFile(path string) (*Zone, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("geozone: read %s: %w", path, err)
	}
	return Parse(raw)
}

// Contains reports whether p lies inside the zone. It returns false for a
// nil or invalid zone and on any containment failure; point-in-polygon
// correctness takes priority over availability.
func (z *Zone) Contains(p types.Point) (inside bool) {
	if z == nil || len(z.mp) == 0 {
		return false
	}
	if !p.Valid() {
		return false
	}
	defer func() {
		if recover() != nil {
			inside = false
		}
	}()
	return planar.MultiPolygonContains(z.mp, orb.Point{p.Lng, p.Lat})
}

func toMultiPolygon(geom orb.Geometry) (orb.MultiPolygon, error) {
	var mp orb.MultiPolygon
	switch g := geom.(type) {
	case orb.Polygon:
		mp = orb.MultiPolygon{g}
	case orb.MultiPolygon:
		mp = g
	default:
		return nil, ErrNoGeometry
	}
	if len(mp) == 0 {
		return nil, ErrBadGeometry
	}
	for _, poly := range mp {
		if len(poly) == 0 {
			return nil, ErrBadGeometry
		}
		// A linear ring needs at least 4 positions (first == last).
		if len(poly[0]) < 4 {
			return nil, ErrBadGeometry
		}
	}
	return mp, nil
}
