// Package location provides the registry of named places that plume arcs are
// attributed to.
package location

import (
	"errors"

	"github.com/paulmach/orb"
	"github.com/paulmach/orb/planar"

	"github.com/plumewatch/plumewatch/pkg/geoproj"
)

// Registry errors.
var (
	ErrInvalidPolygon = errors.New("polygon needs at least three distinct vertices")
)

// Location is a named place near a plant.
type Location struct {
	ID      int64
	PlantID int64
	Name    string
	Point   geoproj.LatLon
}

// Contains reports whether p lies inside or on the boundary of polygon.
// The polygon may be open or closed.
func Contains(polygon []geoproj.LatLon, p geoproj.LatLon) bool {
	return planar.RingContains(toRing(polygon), toPoint(p))
}

// ValidatePolygon checks that polygon can enclose an area.
func ValidatePolygon(polygon []geoproj.LatLon) error {
	distinct := make(map[geoproj.LatLon]struct{}, len(polygon))
	for _, p := range polygon {
		distinct[p] = struct{}{}
	}
	if len(distinct) < 3 {
		return ErrInvalidPolygon
	}
	return nil
}

// toRing converts to orb's [lon, lat] order and closes the ring.
func toRing(polygon []geoproj.LatLon) orb.Ring {
	ring := make(orb.Ring, 0, len(polygon)+1)
	for _, p := range polygon {
		ring = append(ring, toPoint(p))
	}
	if len(ring) > 0 && !ring.Closed() {
		ring = append(ring, ring[0])
	}
	return ring
}

func toPoint(p geoproj.LatLon) orb.Point {
	return orb.Point{p.Lon, p.Lat}
}
