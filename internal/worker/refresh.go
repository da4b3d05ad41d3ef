package worker

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/jonboulle/clockwork"
	"github.com/rs/zerolog"

	"github.com/plumewatch/plumewatch/internal/plant"
)

// PlantLister lists the plants to refresh.
type PlantLister interface {
	List(ctx context.Context) ([]*plant.Plant, error)
}

// ReadingFetcher returns a plant's reading, populating its cache on a miss.
// plant.ReadingService implements it.
type ReadingFetcher interface {
	Reading(ctx context.Context, p *plant.Plant, at time.Time) (*plant.Reading, error)
}

// cacheReporter is implemented by fetchers that expose cache counters.
type cacheReporter interface {
	CacheStats() plant.CacheStats
}

// RefreshJob warms the reading cache for every plant.
type RefreshJob struct {
	config   RefreshConfig
	plants   PlantLister
	readings ReadingFetcher
	clock    clockwork.Clock
	logger   zerolog.Logger
	metrics  *Metrics
}

// RefreshJobConfig holds configuration for creating a RefreshJob.
type RefreshJobConfig struct {
	Config   RefreshConfig
	Plants   PlantLister
	Readings ReadingFetcher
	Clock    clockwork.Clock
	Logger   zerolog.Logger

	// Metrics is optional.
	Metrics *Metrics
}

// NewRefreshJob creates a new refresh job.
func NewRefreshJob(cfg RefreshJobConfig) *RefreshJob {
	clock := cfg.Clock
	if clock == nil {
		clock = clockwork.NewRealClock()
	}
	return &RefreshJob{
		config:   cfg.Config.withDefaults(),
		plants:   cfg.Plants,
		readings: cfg.Readings,
		clock:    clock,
		logger:   cfg.Logger,
		metrics:  cfg.Metrics,
	}
}

// RefreshRequest narrows a run. The zero value refreshes every plant for
// the current hour.
type RefreshRequest struct {
	At       time.Time
	PlantIDs []int64
}

// RefreshResult summarizes a refresh run.
type RefreshResult struct {
	Hour        time.Time
	StartTime   time.Time
	EndTime     time.Time
	Duration    time.Duration
	TotalPlants int
	Successful  int
	// Missing counts plants with no reading for the hour in any source.
	Missing     int
	Failed      int
	Errors      []RefreshError
	CacheHits   int64
	CacheMisses int64
}

// Outcome is "ok" with no failures, "failed" when no plant succeeded and
// "partial" otherwise.
func (r *RefreshResult) Outcome() string {
	switch {
	case r.Failed == 0:
		return "ok"
	case r.Successful == 0 && r.Missing == 0:
		return "failed"
	default:
		return "partial"
	}
}

// RefreshError records the failure of one plant.
type RefreshError struct {
	PlantID   int64
	PlantName string
	Error     string
}

// Run refreshes every plant for the current hour.
func (j *RefreshJob) Run(ctx context.Context) (*RefreshResult, error) {
	return j.RunFor(ctx, RefreshRequest{})
}

// RunFor refreshes the plants and hour selected by req. It fails only when
// the plants cannot be listed; per-plant errors are reported in the result.
func (j *RefreshJob) RunFor(ctx context.Context, req RefreshRequest) (*RefreshResult, error) {
	startTime := j.clock.Now()
	at := req.At
	if at.IsZero() {
		at = startTime
	}

	plants, err := j.selectPlants(ctx, req.PlantIDs)
	if err != nil {
		return nil, err
	}

	result := &RefreshResult{
		Hour:        plant.HourOf(at),
		StartTime:   startTime,
		TotalPlants: len(plants),
	}

	j.logger.Info().
		Int("total_plants", result.TotalPlants).
		Int("concurrency", j.config.Concurrency).
		Time("hour", result.Hour).
		Msg("starting reading refresh job")

	var before plant.CacheStats
	reporter, hasStats := j.readings.(cacheReporter)
	if hasStats {
		before = reporter.CacheStats()
	}

	plantsChan := make(chan *plant.Plant, len(plants))
	resultsChan := make(chan plantResult, len(plants))

	var wg sync.WaitGroup
	for i := 0; i < j.config.Concurrency; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			j.refreshWorker(ctx, at, plantsChan, resultsChan)
		}()
	}

	for _, p := range plants {
		plantsChan <- p
	}
	close(plantsChan)

	go func() {
		wg.Wait()
		close(resultsChan)
	}()

	for pr := range resultsChan {
		switch {
		case pr.err == nil:
			result.Successful++
		case errors.Is(pr.err, plant.ErrNoReading):
			result.Missing++
		default:
			result.Failed++
			result.Errors = append(result.Errors, RefreshError{
				PlantID:   pr.plant.ID,
				PlantName: pr.plant.Name,
				Error:     pr.err.Error(),
			})
		}
	}

	// Plants never picked up because ctx ended count as failed.
	if skipped := result.TotalPlants - result.Successful - result.Missing - result.Failed; skipped > 0 {
		result.Failed += skipped
		result.Errors = append(result.Errors, RefreshError{Error: fmt.Sprintf("%d plants skipped: %v", skipped, ctx.Err())})
	}

	if hasStats {
		after := reporter.CacheStats()
		result.CacheHits = after.Hits - before.Hits
		result.CacheMisses = after.Misses - before.Misses
	}

	result.EndTime = j.clock.Now()
	result.Duration = result.EndTime.Sub(startTime)
	j.metrics.observe(result)

	j.logger.Info().
		Dur("duration", result.Duration).
		Int("successful", result.Successful).
		Int("missing", result.Missing).
		Int("failed", result.Failed).
		Int64("cache_hits", result.CacheHits).
		Int64("cache_misses", result.CacheMisses).
		Msg("reading refresh job completed")

	return result, nil
}

// HealthCheck fetches the current reading of the first plant to verify the
// reading sources are reachable. A missing hour still counts as healthy.
func (j *RefreshJob) HealthCheck(ctx context.Context) error {
	plants, err := j.plants.List(ctx)
	if err != nil {
		return fmt.Errorf("listing plants: %w", err)
	}
	if len(plants) == 0 {
		return nil
	}

	ctx, cancel := context.WithTimeout(ctx, j.config.Timeout)
	defer cancel()

	_, err = j.readings.Reading(ctx, plants[0], j.clock.Now())
	if err != nil && !errors.Is(err, plant.ErrNoReading) {
		return fmt.Errorf("health check for plant %d: %w", plants[0].ID, err)
	}
	return nil
}

func (j *RefreshJob) selectPlants(ctx context.Context, ids []int64) ([]*plant.Plant, error) {
	all, err := j.plants.List(ctx)
	if err != nil {
		return nil, fmt.Errorf("listing plants: %w", err)
	}
	if len(ids) == 0 {
		return all, nil
	}

	want := make(map[int64]bool, len(ids))
	for _, id := range ids {
		want[id] = true
	}
	selected := make([]*plant.Plant, 0, len(ids))
	for _, p := range all {
		if want[p.ID] {
			selected = append(selected, p)
		}
	}
	return selected, nil
}

type plantResult struct {
	plant *plant.Plant
	err   error
}

func (j *RefreshJob) refreshWorker(ctx context.Context, at time.Time, plants <-chan *plant.Plant, results chan<- plantResult) {
	for p := range plants {
		select {
		case <-ctx.Done():
			return
		default:
			results <- plantResult{plant: p, err: j.refreshPlant(ctx, p, at)}
		}
	}
}

func (j *RefreshJob) refreshPlant(ctx context.Context, p *plant.Plant, at time.Time) error {
	plantCtx, cancel := context.WithTimeout(ctx, j.config.Timeout)
	defer cancel()

	_, err := j.readings.Reading(plantCtx, p, at)
	if err != nil && !errors.Is(err, plant.ErrNoReading) {
		j.logger.Warn().Err(err).
			Int64("plant_id", p.ID).
			Msg("failed to refresh reading")
	}
	return err
}
