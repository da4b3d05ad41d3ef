package worker

import (
	"github.com/prometheus/client_golang/prometheus"
)

const metricsNamespace = "plumewatch_worker"

// Metrics holds the Prometheus collectors of the refresh job.
type Metrics struct {
	Runs          *prometheus.CounterVec // labels: outcome={ok,partial,failed}
	Plants        *prometheus.CounterVec // labels: result={refreshed,missing,failed}
	RunDuration   prometheus.Histogram
	LastRun       prometheus.Gauge
	LastRunFailed prometheus.Gauge
	CacheHits     prometheus.Counter
	CacheMisses   prometheus.Counter
}

// NewMetrics creates the refresh metrics and registers them with reg.
func NewMetrics(reg prometheus.Registerer) (*Metrics, error) {
	m := &Metrics{
		Runs: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: metricsNamespace,
			Name:      "refresh_runs_total",
			Help:      "Refresh runs by outcome.",
		}, []string{"outcome"}),
		Plants: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: metricsNamespace,
			Name:      "refresh_plants_total",
			Help:      "Plant refreshes by result.",
		}, []string{"result"}),
		RunDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: metricsNamespace,
			Name:      "refresh_duration_seconds",
			Help:      "Duration of a complete refresh run.",
			Buckets:   []float64{0.1, 0.5, 1, 2.5, 5, 10, 30, 60, 120},
		}),
		LastRun: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: metricsNamespace,
			Name:      "refresh_last_run_timestamp_seconds",
			Help:      "Unix time the last refresh run finished.",
		}),
		LastRunFailed: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: metricsNamespace,
			Name:      "refresh_last_run_failed_plants",
			Help:      "Plants that failed in the last refresh run.",
		}),
		CacheHits: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: metricsNamespace,
			Name:      "reading_cache_hits_total",
			Help:      "Reading cache hits observed during refresh runs.",
		}),
		CacheMisses: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: metricsNamespace,
			Name:      "reading_cache_misses_total",
			Help:      "Reading cache misses observed during refresh runs.",
		}),
	}

	for _, c := range []prometheus.Collector{
		m.Runs, m.Plants, m.RunDuration, m.LastRun, m.LastRunFailed, m.CacheHits, m.CacheMisses,
	} {
		if err := reg.Register(c); err != nil {
			return nil, err
		}
	}
	return m, nil
}

func (m *Metrics) observe(result *RefreshResult) {
	if m == nil {
		return
	}
	m.Runs.WithLabelValues(result.Outcome()).Inc()
	m.Plants.WithLabelValues("refreshed").Add(float64(result.Successful))
	m.Plants.WithLabelValues("missing").Add(float64(result.Missing))
	m.Plants.WithLabelValues("failed").Add(float64(result.Failed))
	m.RunDuration.Observe(result.Duration.Seconds())
	m.LastRun.Set(float64(result.EndTime.Unix()))
	m.LastRunFailed.Set(float64(result.Failed))
	m.CacheHits.Add(float64(result.CacheHits))
	m.CacheMisses.Add(float64(result.CacheMisses))
}
