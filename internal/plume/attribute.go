package plume

import (
	"context"
	"fmt"

	"github.com/plumewatch/plumewatch/internal/location"
	"github.com/plumewatch/plumewatch/pkg/geoproj"
)

// LocationRegistry finds the named locations of a plant inside a polygon.
type LocationRegistry interface {
	Within(ctx context.Context, plantID int64, polygon []geoproj.LatLon) ([]location.Location, error)
}

// AttributedArc pairs an arc with one location inside it.
type AttributedArc struct {
	Arc      Arc
	Location location.Location
}

// AttributedResult holds one record per (arc, contained location) pair,
// ordered by arc index and then by registry order.
type AttributedResult struct {
	Records []AttributedArc
	Status  Status
}

// Attribute looks up the locations inside each arc of res. Arcs that contain
// no location produce no record. A registry error fails the whole call.
func Attribute(ctx context.Context, registry LocationRegistry, plantID int64, res *Result) (*AttributedResult, error) {
	out := &AttributedResult{Status: res.Status}

	for _, arc := range res.Arcs {
		locs, err := registry.Within(ctx, plantID, arc.Boundary)
		if err != nil {
			return nil, fmt.Errorf("locate arc %d: %w", arc.Index, err)
		}
		for _, loc := range locs {
			out.Records = append(out.Records, AttributedArc{Arc: arc, Location: loc})
		}
	}

	return out, nil
}
