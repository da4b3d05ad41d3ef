package plume

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jonboulle/clockwork"
	"github.com/rs/zerolog"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"

	"github.com/plumewatch/plumewatch/internal/aqicolor"
	"github.com/plumewatch/plumewatch/internal/plant"
)

const tracerName = "github.com/plumewatch/plumewatch/internal/plume"

// ErrNoRegistry is returned when attribution is requested without a location registry.
var ErrNoRegistry = errors.New("location registry not configured")

// ArcGenerator produces plume arcs. Both Generator and CachedGenerator satisfy it.
type ArcGenerator interface {
	Generate(source EmissionSource, wind WindState, stability StabilityClass, baselineAQI float64, arcCount int) (*Result, error)
}

// PlantStore looks up plants.
type PlantStore interface {
	Get(ctx context.Context, id int64) (*plant.Plant, error)
}

// ReadingProvider returns the hourly reading of a plant.
type ReadingProvider interface {
	Reading(ctx context.Context, p *plant.Plant, at time.Time) (*plant.Reading, error)
}

// ServiceConfig holds configuration for the plume service.
type ServiceConfig struct {
	// Generator builds the arcs.
	Generator ArcGenerator

	// Mapper colors the arcs (default: the standard AQI bands).
	Mapper *aqicolor.Mapper

	// Plants and Readings back ComputeForPlant.
	Plants   PlantStore
	Readings ReadingProvider

	// Registry backs attribution. Optional.
	Registry LocationRegistry

	// Metrics records generation metrics. Optional.
	Metrics *Metrics

	// Logger for service operations.
	Logger zerolog.Logger

	// Clock defaults to the real clock.
	Clock clockwork.Clock

	// BaselineScale multiplies a reading's AQI before generation (default: 5).
	BaselineScale float64

	// DefaultArcCount is used when a request leaves the count at zero (default: 10).
	DefaultArcCount int
}

// Service computes colored plumes from explicit inputs or plant readings.
type Service struct {
	generator       ArcGenerator
	mapper          *aqicolor.Mapper
	plants          PlantStore
	readings        ReadingProvider
	registry        LocationRegistry
	metrics         *Metrics
	logger          zerolog.Logger
	clock           clockwork.Clock
	baselineScale   float64
	defaultArcCount int
}

// NewService creates a new plume service.
func NewService(cfg ServiceConfig) *Service {
	mapper := cfg.Mapper
	if mapper == nil {
		mapper = aqicolor.NewMapper(aqicolor.MapperConfig{})
	}

	clock := cfg.Clock
	if clock == nil {
		clock = clockwork.NewRealClock()
	}

	baselineScale := cfg.BaselineScale
	if baselineScale == 0 {
		baselineScale = 5
	}

	defaultArcCount := cfg.DefaultArcCount
	if defaultArcCount == 0 {
		defaultArcCount = 10
	}

	return &Service{
		generator:       cfg.Generator,
		mapper:          mapper,
		plants:          cfg.Plants,
		readings:        cfg.Readings,
		registry:        cfg.Registry,
		metrics:         cfg.Metrics,
		logger:          cfg.Logger,
		clock:           clock,
		baselineScale:   baselineScale,
		defaultArcCount: defaultArcCount,
	}
}

// Request holds explicit generation inputs. A zero ArcCount uses the
// service default; an empty Stability uses DefaultStability.
type Request struct {
	Source      EmissionSource
	Wind        WindState
	Stability   StabilityClass
	BaselineAQI float64
	ArcCount    int
}

// ColoredArc is an arc with its display color.
type ColoredArc struct {
	Arc
	Color aqicolor.ColorSpec
	Band  string
}

// Plume is a generated and colored plume. Arcs are ordered by ascending index.
type Plume struct {
	Status Status
	Arcs   []ColoredArc
}

// RenderOrder returns the arcs far to near.
func (p *Plume) RenderOrder() []ColoredArc {
	out := make([]ColoredArc, len(p.Arcs))
	for i, a := range p.Arcs {
		out[len(p.Arcs)-1-i] = a
	}
	return out
}

// Result returns the plume without colors.
func (p *Plume) Result() *Result {
	res := &Result{Status: p.Status, Arcs: make([]Arc, len(p.Arcs))}
	for i, a := range p.Arcs {
		res.Arcs[i] = a.Arc
	}
	return res
}

// Compute generates and colors a plume from explicit inputs.
func (s *Service) Compute(ctx context.Context, req Request) (*Plume, error) {
	ctx, span := otel.Tracer(tracerName).Start(ctx, "plume.Compute")
	defer span.End()

	req = s.WithDefaults(req)
	span.SetAttributes(
		attribute.Float64("plume.wind.speed", req.Wind.Speed),
		attribute.Float64("plume.wind.direction", req.Wind.Direction),
		attribute.String("plume.stability", string(req.Stability)),
		attribute.Int("plume.arc_count", req.ArcCount),
	)

	start := s.clock.Now()
	res, err := s.generator.Generate(req.Source, req.Wind, req.Stability, req.BaselineAQI, req.ArcCount)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return nil, err
	}
	s.metrics.record(ctx, string(res.Status), len(res.Arcs), s.clock.Since(start))

	if res.Skipped() {
		s.logger.Debug().
			Float64("lat", req.Source.Lat).
			Float64("lon", req.Source.Lon).
			Msg("skipping plume with no wind")
		span.SetAttributes(attribute.String("plume.status", string(res.Status)))
		return &Plume{Status: res.Status}, nil
	}

	out := &Plume{Status: res.Status, Arcs: make([]ColoredArc, len(res.Arcs))}
	for i, arc := range res.Arcs {
		out.Arcs[i] = ColoredArc{
			Arc:   arc,
			Color: s.mapper.ColorFor(arc.EstimatedAQI, arc.DistanceRatio),
			Band:  s.mapper.SeverityBand(arc.EstimatedAQI).Name,
		}
	}

	s.logger.Debug().
		Float64("lat", req.Source.Lat).
		Float64("lon", req.Source.Lon).
		Int("arcs", len(out.Arcs)).
		Dur("duration", s.clock.Since(start)).
		Msg("computed plume")

	return out, nil
}

// WithDefaults fills the zero ArcCount and empty Stability of req.
func (s *Service) WithDefaults(req Request) Request {
	if req.ArcCount == 0 {
		req.ArcCount = s.defaultArcCount
	}
	if req.Stability == "" {
		req.Stability = DefaultStability
	}
	return req
}

// PlantRequest selects a plant, an hour and the plume shape.
type PlantRequest struct {
	PlantID int64

	// At selects the hour. Zero means now.
	At time.Time

	ArcCount  int
	Stability StabilityClass

	// Attributed also looks up the locations inside each arc.
	Attributed bool
}

// PlantPlume is a plume computed from a plant's stored reading.
type PlantPlume struct {
	Plant       *plant.Plant
	Reading     *plant.Reading
	Request     Request
	Plume       *Plume
	Attribution *AttributedResult
}

// ComputeForPlant generates the plume of a plant for the hour of req.At,
// driven by the 100 m wind and the scaled European AQI of that hour.
func (s *Service) ComputeForPlant(ctx context.Context, req PlantRequest) (*PlantPlume, error) {
	if req.Attributed && s.registry == nil {
		return nil, ErrNoRegistry
	}

	p, err := s.plants.Get(ctx, req.PlantID)
	if err != nil {
		return nil, err
	}

	at := req.At
	if at.IsZero() {
		at = s.clock.Now()
	}

	reading, err := s.readings.Reading(ctx, p, at)
	if err != nil {
		return nil, fmt.Errorf("reading for plant %d: %w", p.ID, err)
	}

	speed, direction := reading.Wind()
	genReq := s.WithDefaults(Request{
		Source:      EmissionSource{Lat: p.Lat, Lon: p.Lon},
		Wind:        WindState{Speed: speed, Direction: direction},
		Stability:   req.Stability,
		BaselineAQI: reading.AQI() * s.baselineScale,
		ArcCount:    req.ArcCount,
	})

	pl, err := s.Compute(ctx, genReq)
	if err != nil {
		return nil, err
	}

	out := &PlantPlume{Plant: p, Reading: reading, Request: genReq, Plume: pl}
	if req.Attributed {
		out.Attribution, err = Attribute(ctx, s.registry, p.ID, pl.Result())
		if err != nil {
			return nil, err
		}
	}

	s.logger.Info().
		Int64("plant_id", p.ID).
		Time("hour", reading.Time).
		Float64("wind_speed", speed).
		Float64("wind_direction", direction).
		Str("status", string(pl.Status)).
		Msg("computed plant plume")

	return out, nil
}
