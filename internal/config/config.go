// Package config loads service configuration from the environment.
package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"github.com/plumewatch/plumewatch/internal/database"
	"github.com/plumewatch/plumewatch/internal/plume"
)

// Config is the combined configuration of the API server and worker.
type Config struct {
	Port     string
	Env      string
	LogLevel zerolog.Level

	OTelEnabled     bool
	OTLPEndpoint    string
	OTelSampleRatio float64

	// RequireTLS rejects API requests forwarded over plain HTTP.
	RequireTLS bool

	Database database.Config

	WeatherURL    string
	AirQualityURL string

	// Plume is the validated generator shape, PLUME_PRESET plus overrides.
	Plume           plume.Params
	PlumeCacheSize  int
	BaselineScale   float64
	DefaultArcCount int

	ReadingCacheTTL time.Duration
	StaleIfErrorTTL time.Duration

	PubSubProjectID      string
	PubSubSubscriptionID string

	WorkerInterval    time.Duration
	WorkerConcurrency int
	WorkerTimeout     time.Duration
	WorkerMetricsPort string
}

// Load reads the configuration from the process environment.
func Load() (Config, error) {
	return LoadFrom(os.Getenv)
}

// LoadFrom reads the configuration through getenv. Every invalid variable is
// reported in the returned error.
func LoadFrom(getenv func(string) string) (Config, error) {
	e := &env{getenv: getenv}

	cfg := Config{
		Port:                 e.str("APP_PORT", "8080"),
		Env:                  e.str("APP_ENV", "development"),
		LogLevel:             e.level("LOG_LEVEL", zerolog.InfoLevel),
		OTelEnabled:          e.boolean("OTEL_ENABLED", false),
		OTLPEndpoint:         e.str("OTEL_EXPORTER_OTLP_ENDPOINT", "localhost:4317"),
		OTelSampleRatio:      e.float("OTEL_SAMPLE_RATIO", 1),
		RequireTLS:           e.boolean("REQUIRE_TLS", false),
		Database:             database.ConfigFromLookup(getenv),
		WeatherURL:           e.str("OPEN_METEO_WEATHER_URL", ""),
		AirQualityURL:        e.str("OPEN_METEO_AIR_QUALITY_URL", ""),
		PlumeCacheSize:       e.integer("PLUME_CACHE_SIZE", plume.DefaultCacheSize),
		BaselineScale:        e.float("PLUME_BASELINE_SCALE", 5),
		DefaultArcCount:      e.integer("PLUME_DEFAULT_ARCS", 10),
		ReadingCacheTTL:      e.duration("READING_CACHE_TTL", 30*time.Minute),
		StaleIfErrorTTL:      e.duration("READING_STALE_TTL", 6*time.Hour),
		PubSubProjectID:      e.str("PUBSUB_PROJECT_ID", ""),
		PubSubSubscriptionID: e.str("PUBSUB_SUBSCRIPTION_ID", ""),
		WorkerInterval:       e.duration("WORKER_INTERVAL", 15*time.Minute),
		WorkerConcurrency:    e.integer("WORKER_CONCURRENCY", 3),
		WorkerTimeout:        e.duration("WORKER_TIMEOUT", 30*time.Second),
		WorkerMetricsPort:    e.str("WORKER_METRICS_PORT", "9090"),
	}
	cfg.Plume = e.plumeParams()

	if cfg.OTelSampleRatio < 0 || cfg.OTelSampleRatio > 1 {
		e.fail("OTEL_SAMPLE_RATIO", "must be between 0 and 1")
	}
	if cfg.PlumeCacheSize < 0 {
		e.fail("PLUME_CACHE_SIZE", "must not be negative")
	}
	if cfg.BaselineScale <= 0 {
		e.fail("PLUME_BASELINE_SCALE", "must be positive")
	}
	if cfg.DefaultArcCount < 1 || cfg.DefaultArcCount > cfg.Plume.MaxArcs {
		e.fail("PLUME_DEFAULT_ARCS", fmt.Sprintf("must be between 1 and %d", cfg.Plume.MaxArcs))
	}
	if cfg.WorkerConcurrency < 1 {
		e.fail("WORKER_CONCURRENCY", "must be at least 1")
	}

	if err := errors.Join(e.errs...); err != nil {
		return Config{}, fmt.Errorf("invalid configuration: %w", err)
	}
	return cfg, nil
}

func (e *env) plumeParams() plume.Params {
	var p plume.Params
	switch preset := strings.ToLower(e.str("PLUME_PRESET", "default")); preset {
	case "default":
		p = plume.DefaultParams()
	case "fan":
		p = plume.FanParams()
	default:
		e.fail("PLUME_PRESET", fmt.Sprintf("unknown preset %q", preset))
		p = plume.DefaultParams()
	}

	p.DistanceScale = e.float("PLUME_DISTANCE_SCALE", p.DistanceScale)
	p.WidthScale = e.float("PLUME_WIDTH_SCALE", p.WidthScale)
	p.WidthGrowth = e.float("PLUME_WIDTH_GROWTH", p.WidthGrowth)
	p.DecayRate = e.float("PLUME_DECAY_RATE", p.DecayRate)
	p.Amplification = e.float("PLUME_AMPLIFICATION", p.Amplification)
	p.OriginShift = e.float("PLUME_ORIGIN_SHIFT", p.OriginShift)
	p.SweepStart = e.float("PLUME_SWEEP_START", p.SweepStart)
	p.SweepEnd = e.float("PLUME_SWEEP_END", p.SweepEnd)
	p.SweepStep = e.float("PLUME_SWEEP_STEP", p.SweepStep)
	p.SqueezeThreshold = e.float("PLUME_SQUEEZE_THRESHOLD", p.SqueezeThreshold)
	p.SqueezeCoefficient = e.float("PLUME_SQUEEZE_COEFFICIENT", p.SqueezeCoefficient)
	p.RadialFactor = e.float("PLUME_RADIAL_FACTOR", p.RadialFactor)
	p.LateralFactor = e.float("PLUME_LATERAL_FACTOR", p.LateralFactor)
	p.StabilityScaling = e.boolean("PLUME_STABILITY_SCALING", p.StabilityScaling)
	p.MaxArcs = e.integer("PLUME_MAX_ARCS", p.MaxArcs)

	if err := p.Validate(); err != nil {
		e.errs = append(e.errs, fmt.Errorf("PLUME_*: %w", err))
	}
	return p
}

type env struct {
	getenv func(string) string
	errs   []error
}

func (e *env) fail(key, reason string) {
	e.errs = append(e.errs, fmt.Errorf("%s: %s", key, reason))
}

func (e *env) str(key, def string) string {
	if v := e.getenv(key); v != "" {
		return v
	}
	return def
}

func (e *env) integer(key string, def int) int {
	v := e.getenv(key)
	if v == "" {
		return def
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		e.fail(key, fmt.Sprintf("invalid integer %q", v))
		return def
	}
	return n
}

func (e *env) float(key string, def float64) float64 {
	v := e.getenv(key)
	if v == "" {
		return def
	}
	f, err := strconv.ParseFloat(v, 64)
	if err != nil {
		e.fail(key, fmt.Sprintf("invalid number %q", v))
		return def
	}
	return f
}

func (e *env) boolean(key string, def bool) bool {
	v := e.getenv(key)
	if v == "" {
		return def
	}
	b, err := strconv.ParseBool(v)
	if err != nil {
		e.fail(key, fmt.Sprintf("invalid boolean %q", v))
		return def
	}
	return b
}

func (e *env) duration(key string, def time.Duration) time.Duration {
	v := e.getenv(key)
	if v == "" {
		return def
	}
	d, err := time.ParseDuration(v)
	if err != nil || d <= 0 {
		e.fail(key, fmt.Sprintf("invalid duration %q", v))
		return def
	}
	return d
}

func (e *env) level(key string, def zerolog.Level) zerolog.Level {
	v := e.getenv(key)
	if v == "" {
		return def
	}
	l, err := zerolog.ParseLevel(strings.ToLower(v))
	if err != nil {
		e.fail(key, fmt.Sprintf("invalid log level %q", v))
		return def
	}
	return l
}
