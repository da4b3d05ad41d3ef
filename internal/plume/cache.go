package plume

import (
	"fmt"
	"sync/atomic"

	lru "github.com/hashicorp/golang-lru/v2"
	"golang.org/x/sync/singleflight"
)

// DefaultCacheSize is the number of results a CachedGenerator keeps.
const DefaultCacheSize = 1024

type cacheKey struct {
	source    EmissionSource
	wind      WindState
	stability StabilityClass
	aqi       float64
	arcCount  int
}

func (k cacheKey) String() string {
	return fmt.Sprintf("%v,%v|%v,%v|%s|%v|%d",
		k.source.Lat, k.source.Lon, k.wind.Speed, k.wind.Direction, k.stability, k.aqi, k.arcCount)
}

// CachedGenerator memoizes a Generator. Concurrent callers with the same
// inputs share one computation. Cached results are shared between callers
// and must not be modified.
type CachedGenerator struct {
	gen   *Generator
	cache *lru.Cache[cacheKey, *Result]
	group singleflight.Group

	computations atomic.Int64
}

// NewCachedGenerator wraps gen with an LRU cache of size entries.
// A size of zero uses DefaultCacheSize.
func NewCachedGenerator(gen *Generator, size int) (*CachedGenerator, error) {
	if size == 0 {
		size = DefaultCacheSize
	}
	cache, err := lru.New[cacheKey, *Result](size)
	if err != nil {
		return nil, fmt.Errorf("create plume cache: %w", err)
	}
	return &CachedGenerator{gen: gen, cache: cache}, nil
}

// Generate returns the cached result for these inputs, computing it once if
// needed. Errors are not cached.
func (c *CachedGenerator) Generate(source EmissionSource, wind WindState, stability StabilityClass, baselineAQI float64, arcCount int) (*Result, error) {
	if !stability.Valid() {
		stability = DefaultStability
	}
	key := cacheKey{source: source, wind: wind, stability: stability, aqi: baselineAQI, arcCount: arcCount}

	if res, ok := c.cache.Get(key); ok {
		return res, nil
	}

	v, err, _ := c.group.Do(key.String(), func() (interface{}, error) {
		if res, ok := c.cache.Get(key); ok {
			return res, nil
		}
		c.computations.Add(1)
		res, err := c.gen.Generate(source, wind, stability, baselineAQI, arcCount)
		if err != nil {
			return nil, err
		}
		c.cache.Add(key, res)
		return res, nil
	})
	if err != nil {
		return nil, err
	}
	return v.(*Result), nil
}

// Computations returns how many results were computed rather than served
// from cache.
func (c *CachedGenerator) Computations() int64 {
	return c.computations.Load()
}

// Len returns the number of cached results.
func (c *CachedGenerator) Len() int {
	return c.cache.Len()
}

// Purge drops all cached results.
func (c *CachedGenerator) Purge() {
	c.cache.Purge()
}
