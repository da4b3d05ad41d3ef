package location

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/plumewatch/plumewatch/pkg/geoproj"
)

// PostgresRegistry reads locations from the warehouse.
// The bounding box of the polygon narrows the query; containment is decided here.
type PostgresRegistry struct {
	pool *pgxpool.Pool
}

// NewPostgresRegistry creates a new PostgreSQL location registry.
func NewPostgresRegistry(pool *pgxpool.Pool) *PostgresRegistry {
	return &PostgresRegistry{pool: pool}
}

// Within returns the plant's locations contained in polygon, ordered by ID.
func (r *PostgresRegistry) Within(ctx context.Context, plantID int64, polygon []geoproj.LatLon) ([]Location, error) {
	if err := ValidatePolygon(polygon); err != nil {
		return nil, err
	}
	minPt, maxPt := geoproj.Bounds(polygon)

	query := `
		SELECT id, plant_id, name, latitude, longitude
		FROM dwh.locations
		WHERE plant_id = $1
		  AND latitude BETWEEN $2 AND $3
		  AND longitude BETWEEN $4 AND $5
		ORDER BY id
	`

	rows, err := r.pool.Query(ctx, query, plantID, minPt.Lat, maxPt.Lat, minPt.Lon, maxPt.Lon)
	if err != nil {
		return nil, fmt.Errorf("query locations: %w", err)
	}
	defer rows.Close()

	var found []Location
	for rows.Next() {
		var l Location
		if err := rows.Scan(&l.ID, &l.PlantID, &l.Name, &l.Point.Lat, &l.Point.Lon); err != nil {
			return nil, fmt.Errorf("scan location: %w", err)
		}
		if Contains(polygon, l.Point) {
			found = append(found, l)
		}
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate locations: %w", err)
	}

	return found, nil
}
