package plant

import (
	"context"
	"time"
)

// Repository defines the interface for plant data access.
type Repository interface {
	// List returns all plants ordered by name.
	List(ctx context.Context) ([]*Plant, error)

	// Get retrieves a plant by ID.
	// Returns ErrPlantNotFound if the plant doesn't exist.
	Get(ctx context.Context, id int64) (*Plant, error)

	// Reading retrieves the stored statistics for the hour containing at.
	// Returns ErrNoReading if nothing was recorded for that hour.
	Reading(ctx context.Context, plantID int64, at time.Time) (*Reading, error)
}

// ReadingSource provides hourly readings for a plant.
type ReadingSource interface {
	// Reading returns the reading for the hour containing at.
	Reading(ctx context.Context, p *Plant, at time.Time) (*Reading, error)

	// Name returns the source name for logging.
	Name() string
}

// RepositorySource adapts a Repository to a ReadingSource.
type RepositorySource struct {
	Repo Repository
}

// Reading returns the stored reading for the hour containing at.
func (s RepositorySource) Reading(ctx context.Context, p *Plant, at time.Time) (*Reading, error) {
	return s.Repo.Reading(ctx, p.ID, at)
}

// Name returns "warehouse".
func (s RepositorySource) Name() string {
	return "warehouse"
}
