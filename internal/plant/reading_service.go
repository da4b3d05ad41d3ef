package plant

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"github.com/jonboulle/clockwork"
	"github.com/rs/zerolog"
	"golang.org/x/sync/singleflight"
)

// ErrSourceUnavailable is returned when every reading source failed and no
// stale reading could be served.
var ErrSourceUnavailable = errors.New("reading source unavailable")

// ReadingServiceConfig holds configuration for the reading service.
type ReadingServiceConfig struct {
	// Sources are tried in order until one returns a reading.
	Sources []ReadingSource

	// Logger for service operations.
	Logger zerolog.Logger

	// Clock defaults to the real clock.
	Clock clockwork.Clock

	// CacheTTL is how long a reading is served from cache (default: 30 minutes).
	CacheTTL time.Duration

	// StaleIfErrorTTL allows serving stale readings on source errors (default: 6 hours).
	StaleIfErrorTTL time.Duration

	// FetchTimeout bounds a shared source fetch, which outlives the
	// cancellation of any single caller (default: 30 seconds).
	FetchTimeout time.Duration
}

// ReadingService provides hourly readings with caching and source fallback.
type ReadingService struct {
	sources         []ReadingSource
	logger          zerolog.Logger
	clock           clockwork.Clock
	cacheTTL        time.Duration
	staleIfErrorTTL time.Duration
	fetchTimeout    time.Duration

	group singleflight.Group

	mu              sync.RWMutex
	cache           map[readingKey]*cachedReading
	lastCleanup     time.Time
	cleanupInterval time.Duration

	hits   atomic.Int64
	misses atomic.Int64
}

type cachedReading struct {
	reading   *Reading
	fetchedAt time.Time
	expiresAt time.Time
}

// NewReadingService creates a new reading service.
func NewReadingService(cfg ReadingServiceConfig) *ReadingService {
	clock := cfg.Clock
	if clock == nil {
		clock = clockwork.NewRealClock()
	}

	cacheTTL := cfg.CacheTTL
	if cacheTTL == 0 {
		cacheTTL = 30 * time.Minute
	}

	staleIfErrorTTL := cfg.StaleIfErrorTTL
	if staleIfErrorTTL == 0 {
		staleIfErrorTTL = 6 * time.Hour
	}

	fetchTimeout := cfg.FetchTimeout
	if fetchTimeout == 0 {
		fetchTimeout = 30 * time.Second
	}

	return &ReadingService{
		sources:         cfg.Sources,
		logger:          cfg.Logger,
		clock:           clock,
		cacheTTL:        cacheTTL,
		staleIfErrorTTL: staleIfErrorTTL,
		fetchTimeout:    fetchTimeout,
		cache:           make(map[readingKey]*cachedReading),
		lastCleanup:     clock.Now(),
		cleanupInterval: 10 * time.Minute,
	}
}

// Reading returns the reading for the hour containing at.
// Uses cached data if available and not expired.
func (s *ReadingService) Reading(ctx context.Context, p *Plant, at time.Time) (*Reading, error) {
	key := readingKey{plantID: p.ID, hour: HourOf(at).Unix()}

	s.mu.RLock()
	if cached, ok := s.cache[key]; ok && s.clock.Now().Before(cached.expiresAt) {
		s.mu.RUnlock()
		s.hits.Add(1)
		return cached.reading, nil
	}
	s.mu.RUnlock()
	s.misses.Add(1)

	ch := s.group.DoChan(fmt.Sprintf("%d:%d", key.plantID, key.hour), func() (interface{}, error) {
		fetchCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), s.fetchTimeout)
		defer cancel()
		return s.fetch(fetchCtx, p, at, key)
	})

	select {
	case <-ctx.Done():
		return nil, ctx.Err()
	case res := <-ch:
		if res.Err != nil {
			return nil, res.Err
		}
		return res.Val.(*Reading), nil
	}
}

// fetch tries each source in order and updates the cache.
func (s *ReadingService) fetch(ctx context.Context, p *Plant, at time.Time, key readingKey) (*Reading, error) {
	// Double-check cache
	s.mu.RLock()
	if cached, ok := s.cache[key]; ok && s.clock.Now().Before(cached.expiresAt) {
		s.mu.RUnlock()
		return cached.reading, nil
	}
	s.mu.RUnlock()

	allMissing := true
	for _, src := range s.sources {
		s.logger.Debug().
			Int64("plant_id", p.ID).
			Time("hour", HourOf(at)).
			Str("source", src.Name()).
			Msg("fetching reading from source")

		reading, err := src.Reading(ctx, p, at)
		if err == nil {
			s.store(key, reading)
			return reading, nil
		}

		if errors.Is(err, ErrNoReading) {
			continue
		}
		allMissing = false
		s.logger.Error().Err(err).
			Int64("plant_id", p.ID).
			Str("source", src.Name()).
			Msg("failed to fetch reading")
	}

	if allMissing {
		return nil, ErrNoReading
	}

	// Check for stale data
	s.mu.RLock()
	defer s.mu.RUnlock()
	if cached, ok := s.cache[key]; ok {
		if s.clock.Now().Before(cached.fetchedAt.Add(s.staleIfErrorTTL)) {
			s.logger.Warn().
				Int64("plant_id", p.ID).
				Time("fetched_at", cached.fetchedAt).
				Msg("serving stale reading due to source error")
			return cached.reading, nil
		}
	}

	return nil, ErrSourceUnavailable
}

func (s *ReadingService) store(key readingKey, reading *Reading) {
	s.mu.Lock()
	defer s.mu.Unlock()

	now := s.clock.Now()
	s.cache[key] = &cachedReading{
		reading:   reading,
		fetchedAt: now,
		expiresAt: now.Add(s.cacheTTL),
	}
	s.cleanupIfNeeded(now)
}

// cleanupIfNeeded removes entries too old to serve even as stale.
// Callers must hold the write lock.
func (s *ReadingService) cleanupIfNeeded(now time.Time) {
	if now.Sub(s.lastCleanup) < s.cleanupInterval {
		return
	}
	s.lastCleanup = now

	expired := 0
	for key, cached := range s.cache {
		if now.After(cached.fetchedAt.Add(s.staleIfErrorTTL)) {
			delete(s.cache, key)
			expired++
		}
	}

	if expired > 0 {
		s.logger.Debug().
			Int("expired_entries", expired).
			Msg("cleaned up expired reading cache entries")
	}
}

// InvalidateCache clears all cached readings.
func (s *ReadingService) InvalidateCache() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.cache = make(map[readingKey]*cachedReading)
}

// CacheStats contains cache statistics.
type CacheStats struct {
	Entries      int
	FreshEntries int
	Hits         int64
	Misses       int64
}

// CacheStats returns cache statistics.
func (s *ReadingService) CacheStats() CacheStats {
	s.mu.RLock()
	defer s.mu.RUnlock()

	now := s.clock.Now()
	fresh := 0
	for _, c := range s.cache {
		if now.Before(c.expiresAt) {
			fresh++
		}
	}

	return CacheStats{
		Entries:      len(s.cache),
		FreshEntries: fresh,
		Hits:         s.hits.Load(),
		Misses:       s.misses.Load(),
	}
}
