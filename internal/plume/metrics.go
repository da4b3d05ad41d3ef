package plume

import (
	"context"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
)

const meterName = "github.com/plumewatch/plumewatch/internal/plume"

// Metrics holds the OpenTelemetry instruments for plume generation.
type Metrics struct {
	generations metric.Int64Counter
	degenerate  metric.Int64Counter
	duration    metric.Float64Histogram
	arcCount    metric.Int64Histogram
}

// NewMetrics creates a new Metrics instance with initialized instruments.
func NewMetrics() (*Metrics, error) {
	meter := otel.Meter(meterName)

	generations, err := meter.Int64Counter(
		"plume.generations.total",
		metric.WithDescription("Total number of plume generations"),
		metric.WithUnit("{plume}"),
	)
	if err != nil {
		return nil, err
	}

	degenerate, err := meter.Int64Counter(
		"plume.degenerate_wind.total",
		metric.WithDescription("Generations skipped because there was no wind"),
		metric.WithUnit("{plume}"),
	)
	if err != nil {
		return nil, err
	}

	duration, err := meter.Float64Histogram(
		"plume.generation.duration",
		metric.WithDescription("Duration of plume generation in seconds"),
		metric.WithUnit("s"),
	)
	if err != nil {
		return nil, err
	}

	arcCount, err := meter.Int64Histogram(
		"plume.arcs",
		metric.WithDescription("Number of arcs per generated plume"),
		metric.WithUnit("{arc}"),
	)
	if err != nil {
		return nil, err
	}

	return &Metrics{
		generations: generations,
		degenerate:  degenerate,
		duration:    duration,
		arcCount:    arcCount,
	}, nil
}

// record is a no-op on a nil receiver.
func (m *Metrics) record(ctx context.Context, status string, arcs int, elapsed time.Duration) {
	if m == nil {
		return
	}
	attrs := metric.WithAttributes(attribute.String("plume.status", status))

	m.generations.Add(ctx, 1, attrs)
	m.duration.Record(ctx, elapsed.Seconds(), attrs)
	if status == string(StatusDegenerateWind) {
		m.degenerate.Add(ctx, 1)
		return
	}
	if arcs > 0 {
		m.arcCount.Record(ctx, int64(arcs))
	}
}
