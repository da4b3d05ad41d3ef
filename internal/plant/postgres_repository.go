package plant

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// PostgresRepository is a PostgreSQL implementation of Repository backed by
// the warehouse's dwh schema.
type PostgresRepository struct {
	pool *pgxpool.Pool
}

// NewPostgresRepository creates a new PostgreSQL plant repository.
func NewPostgresRepository(pool *pgxpool.Pool) *PostgresRepository {
	return &PostgresRepository{pool: pool}
}

const plantColumns = `
	id, plant_name, latitude, longitude,
	weather_min_date, weather_max_date, air_min_date, air_max_date
`

// List returns all plants ordered by name.
func (r *PostgresRepository) List(ctx context.Context) ([]*Plant, error) {
	query := `SELECT` + plantColumns + `FROM dwh.v_plant_dates ORDER BY plant_name`

	rows, err := r.pool.Query(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("query plants: %w", err)
	}
	defer rows.Close()

	var plants []*Plant
	for rows.Next() {
		p, err := scanPlant(rows)
		if err != nil {
			return nil, err
		}
		plants = append(plants, p)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate plants: %w", err)
	}

	return plants, nil
}

// Get retrieves a plant by ID.
func (r *PostgresRepository) Get(ctx context.Context, id int64) (*Plant, error) {
	query := `SELECT` + plantColumns + `FROM dwh.v_plant_dates WHERE id = $1`

	p, err := scanPlant(r.pool.QueryRow(ctx, query, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrPlantNotFound
		}
		return nil, err
	}
	return p, nil
}

// Reading retrieves the stored statistics for the hour containing at.
func (r *PostgresRepository) Reading(ctx context.Context, plantID int64, at time.Time) (*Reading, error) {
	hour := HourOf(at)
	dateID := DateID(hour)

	query := `
		SELECT
			wind_speed_10m, wind_speed_100m,
			wind_direction_10m, wind_direction_100m,
			european_aqi, temperature_2m, precipitation
		FROM dwh.get_stat_by_plant_id($1, $2, $2, $3)
	`

	reading := Reading{PlantID: plantID, Time: hour}
	err := r.pool.QueryRow(ctx, query, plantID, dateID, hour.Hour()).Scan(
		&reading.WindSpeed10m,
		&reading.WindSpeed100m,
		&reading.WindDirection10m,
		&reading.WindDirection100m,
		&reading.EuropeanAQI,
		&reading.Temperature,
		&reading.Precipitation,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNoReading
		}
		return nil, fmt.Errorf("query reading: %w", err)
	}

	return &reading, nil
}

// scanPlant scans a plant from a row. Coverage dates are stored as yyyymmdd keys.
func scanPlant(row pgx.Row) (*Plant, error) {
	var (
		p                                      Plant
		weatherMin, weatherMax, airMin, airMax *int32
	)
	err := row.Scan(
		&p.ID,
		&p.Name,
		&p.Lat,
		&p.Lon,
		&weatherMin,
		&weatherMax,
		&airMin,
		&airMax,
	)
	if err != nil {
		return nil, err
	}

	p.WeatherMinDate = dateFromKey(weatherMin)
	p.WeatherMaxDate = dateFromKey(weatherMax)
	p.AirMinDate = dateFromKey(airMin)
	p.AirMaxDate = dateFromKey(airMax)
	return &p, nil
}

func dateFromKey(key *int32) *time.Time {
	if key == nil {
		return nil
	}
	d := ParseDateID(int(*key))
	return &d
}
