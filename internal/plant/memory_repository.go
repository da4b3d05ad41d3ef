package plant

import (
	"context"
	"sort"
	"sync"
	"time"
)

// InMemoryRepository is an in-memory implementation of Repository.
// This is intended for testing. Production should use PostgresRepository.
type InMemoryRepository struct {
	mu       sync.RWMutex
	plants   map[int64]*Plant
	readings map[readingKey]*Reading
}

type readingKey struct {
	plantID int64
	hour    int64
}

// NewInMemoryRepository creates a new in-memory plant repository.
func NewInMemoryRepository() *InMemoryRepository {
	return &InMemoryRepository{
		plants:   make(map[int64]*Plant),
		readings: make(map[readingKey]*Reading),
	}
}

// AddPlant stores a plant, replacing any plant with the same ID.
func (r *InMemoryRepository) AddPlant(p *Plant) {
	r.mu.Lock()
	defer r.mu.Unlock()

	cp := *p
	r.plants[p.ID] = &cp
}

// AddReading stores a reading under its plant and hour.
func (r *InMemoryRepository) AddReading(reading *Reading) {
	r.mu.Lock()
	defer r.mu.Unlock()

	cp := *reading
	cp.Time = HourOf(reading.Time)
	r.readings[readingKey{plantID: cp.PlantID, hour: cp.Time.Unix()}] = &cp
}

// List returns all plants ordered by name.
func (r *InMemoryRepository) List(_ context.Context) ([]*Plant, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	plants := make([]*Plant, 0, len(r.plants))
	for _, p := range r.plants {
		cp := *p
		plants = append(plants, &cp)
	}
	sort.Slice(plants, func(i, j int) bool { return plants[i].Name < plants[j].Name })
	return plants, nil
}

// Get retrieves a plant by ID.
func (r *InMemoryRepository) Get(_ context.Context, id int64) (*Plant, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	p, ok := r.plants[id]
	if !ok {
		return nil, ErrPlantNotFound
	}
	cp := *p
	return &cp, nil
}

// Reading retrieves the reading for the hour containing at.
func (r *InMemoryRepository) Reading(_ context.Context, plantID int64, at time.Time) (*Reading, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	reading, ok := r.readings[readingKey{plantID: plantID, hour: HourOf(at).Unix()}]
	if !ok {
		return nil, ErrNoReading
	}
	cp := *reading
	return &cp, nil
}
