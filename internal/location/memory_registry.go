package location

import (
	"context"
	"sort"
	"sync"

	"github.com/plumewatch/plumewatch/pkg/geoproj"
)

// InMemoryRegistry is an in-memory location registry.
// This is intended for testing. Production should use PostgresRegistry.
type InMemoryRegistry struct {
	mu        sync.RWMutex
	locations map[int64][]Location
}

// NewInMemoryRegistry creates an empty registry.
func NewInMemoryRegistry() *InMemoryRegistry {
	return &InMemoryRegistry{
		locations: make(map[int64][]Location),
	}
}

// Add registers locations under their PlantID.
func (r *InMemoryRegistry) Add(locs ...Location) {
	r.mu.Lock()
	defer r.mu.Unlock()

	for _, l := range locs {
		r.locations[l.PlantID] = append(r.locations[l.PlantID], l)
	}
}

// Within returns the plant's locations contained in polygon, ordered by ID.
func (r *InMemoryRegistry) Within(_ context.Context, plantID int64, polygon []geoproj.LatLon) ([]Location, error) {
	if err := ValidatePolygon(polygon); err != nil {
		return nil, err
	}

	r.mu.RLock()
	defer r.mu.RUnlock()

	var found []Location
	for _, l := range r.locations[plantID] {
		if Contains(polygon, l.Point) {
			found = append(found, l)
		}
	}
	sort.Slice(found, func(a, b int) bool { return found[a].ID < found[b].ID })
	return found, nil
}
