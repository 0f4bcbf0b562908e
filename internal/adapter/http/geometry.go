package http

import (
	"fmt"

	"github.com/couchcryptid/hyperlocal-weather-service/internal/domain"
	"github.com/twpayne/go-geom"
	"github.com/twpayne/go-geom/encoding/geojson"
)

// boundaryFromGeoJSON reads the exterior ring of a GeoJSON Polygon as a
// field boundary. The closing vertex is dropped.
func boundaryFromGeoJSON(raw []byte) ([]domain.Coordinate, error) {
	var g geom.T
	if err := geojson.Unmarshal(raw, &g); err != nil {
		return nil, fmt.Errorf("%w: invalid GeoJSON geometry: %w", domain.ErrInvalidInput, err)
	}
	poly, ok := g.(*geom.Polygon)
	if !ok {
		return nil, fmt.Errorf("%w: geometry must be a Polygon, got %T", domain.ErrInvalidInput, g)
	}
	if poly.NumLinearRings() == 0 {
		return nil, fmt.Errorf("%w: polygon has no rings", domain.ErrInvalidInput)
	}

	ring := poly.LinearRing(0)
	n := ring.NumCoords()
	if n > 1 && ring.Coord(0).Equal(geom.XY, ring.Coord(n-1)) {
		n--
	}
	out := make([]domain.Coordinate, n)
	for i := range out {
		c := ring.Coord(i)
		out[i] = domain.Coordinate{Latitude: c.Y(), Longitude: c.X()}
	}
	return out, nil
}
