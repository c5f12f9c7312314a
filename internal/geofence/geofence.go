// Package geofence tests geographic points against GeoJSON mission zones.
// It is pure computation: evaluation runs client-side on every location
// update without a network round trip.
package geofence

import (
	"encoding/json"
	"errors"
	"fmt"
)

// Point is a geographic coordinate.
type Point struct {
	Latitude  float64 `json:"latitude"`
	Longitude float64 `json:"longitude"`
}

// Geometry is a GeoJSON geometry. Coordinates stay raw until evaluation so
// that storage and transport never need to understand ring structure.
type Geometry struct {
	Type        string          `json:"type"`
	Coordinates json.RawMessage `json:"coordinates"`
}

var (
	// ErrUnsupportedGeometry is returned for types other than Polygon and
	// MultiPolygon.
	ErrUnsupportedGeometry = errors.New("geofence: unsupported geometry type")
	// ErrMalformedGeometry is returned when coordinates do not decode into
	// valid rings.
	ErrMalformedGeometry = errors.New("geofence: malformed geometry")
)

// IsInside reports whether p lies inside g. Polygon holes are respected:
// a point inside an interior ring is outside the polygon.
func IsInside(p Point, g *Geometry) (bool, error) {
	if g == nil {
		return false, ErrMalformedGeometry
	}
	switch g.Type {
	case "Polygon":
		var rings [][][]float64
		if err := json.Unmarshal(g.Coordinates, &rings); err != nil {
			return false, fmt.Errorf("%w: %v", ErrMalformedGeometry, err)
		}
		return insidePolygon(p, rings)
	case "MultiPolygon":
		var polys [][][][]float64
		if err := json.Unmarshal(g.Coordinates, &polys); err != nil {
			return false, fmt.Errorf("%w: %v", ErrMalformedGeometry, err)
		}
		for _, rings := range polys {
			in, err := insidePolygon(p, rings)
			if err != nil {
				return false, err
			}
			if in {
				return true, nil
			}
		}
		return false, nil
	default:
		return false, fmt.Errorf("%w: %q", ErrUnsupportedGeometry, g.Type)
	}
}

func insidePolygon(p Point, rings [][][]float64) (bool, error) {
	if len(rings) == 0 {
		return false, ErrMalformedGeometry
	}
	outer, err := insideRing(p, rings[0])
	if err != nil {
		return false, err
	}
	if !outer {
		return false, nil
	}
	for _, hole := range rings[1:] {
		in, err := insideRing(p, hole)
		if err != nil {
			return false, err
		}
		if in {
			return false, nil
		}
	}
	return true, nil
}

// insideRing ray-casts along constant latitude. GeoJSON positions are
// [longitude, latitude].
func insideRing(p Point, ring [][]float64) (bool, error) {
	if len(ring) < 3 {
		return false, ErrMalformedGeometry
	}
	inside := false
	for i, j := 0, len(ring)-1; i < len(ring); j, i = i, i+1 {
		if len(ring[i]) < 2 || len(ring[j]) < 2 {
			return false, ErrMalformedGeometry
		}
		xi, yi := ring[i][0], ring[i][1]
		xj, yj := ring[j][0], ring[j][1]
		intersects := (yi > p.Latitude) != (yj > p.Latitude) &&
			p.Longitude < (xj-xi)*(p.Latitude-yi)/(yj-yi)+xi
		if intersects {
			inside = !inside
		}
	}
	return inside, nil
}
