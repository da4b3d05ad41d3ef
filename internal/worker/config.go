// Package worker keeps the reading cache warm for every plant.
package worker

import (
	"time"
)

// RefreshConfig holds configuration for the reading refresh job.
type RefreshConfig struct {
	// Concurrency is the number of plants refreshed at once.
	// Default: 3
	Concurrency int

	// Timeout bounds the refresh of a single plant.
	// Default: 30 seconds
	Timeout time.Duration
}

// DefaultRefreshConfig returns the default refresh configuration.
func DefaultRefreshConfig() RefreshConfig {
	return RefreshConfig{
		Concurrency: 3,
		Timeout:     30 * time.Second,
	}
}

func (c RefreshConfig) withDefaults() RefreshConfig {
	def := DefaultRefreshConfig()
	if c.Concurrency <= 0 {
		c.Concurrency = def.Concurrency
	}
	if c.Timeout <= 0 {
		c.Timeout = def.Timeout
	}
	return c
}
