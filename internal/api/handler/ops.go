// Package handler provides HTTP handlers for the plume API.
package handler

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/jonboulle/clockwork"

	"github.com/plumewatch/plumewatch/internal/api/models"
	"github.com/plumewatch/plumewatch/internal/api/response"
	"github.com/plumewatch/plumewatch/internal/plant"
	"github.com/plumewatch/plumewatch/internal/provider/resilience"
)

// readinessTimeout bounds the warehouse ping of the readiness probe.
const readinessTimeout = 2 * time.Second

// Pinger checks connectivity to a dependency.
type Pinger interface {
	Ping(ctx context.Context) error
}

// ReadingCache reports the state of the reading cache.
type ReadingCache interface {
	CacheStats() plant.CacheStats
}

// PlumeCache reports the size of the plume cache.
type PlumeCache interface {
	Len() int
}

// OpsConfig holds the dependencies of the operational endpoints. Every
// dependency is optional; missing ones are left out of the reports.
type OpsConfig struct {
	Version   string
	BuildTime string
	Warehouse Pinger
	Readings  ReadingCache
	Plumes    PlumeCache
	Registry  *resilience.Registry
	Clock     clockwork.Clock
}

// OpsHandler handles operational endpoints.
type OpsHandler struct {
	cfg OpsConfig
}

// NewOpsHandler creates a new OpsHandler.
func NewOpsHandler(cfg OpsConfig) *OpsHandler {
	if cfg.Clock == nil {
		cfg.Clock = clockwork.NewRealClock()
	}
	return &OpsHandler{cfg: cfg}
}

// HealthCheck handles GET /v1/ops/health - liveness check.
func (h *OpsHandler) HealthCheck(w http.ResponseWriter, r *http.Request) {
	health := models.Health{
		Status: models.HealthStatusOK,
		Time:   models.Timestamp(h.cfg.Clock.Now()),
		Details: map[string]interface{}{
			"version":   h.cfg.Version,
			"buildTime": h.cfg.BuildTime,
		},
	}
	response.JSON(w, r, http.StatusOK, health)
}

// ReadinessCheck handles GET /v1/ops/ready - readiness check.
// The service is ready once the warehouse answers a ping.
func (h *OpsHandler) ReadinessCheck(w http.ResponseWriter, r *http.Request) {
	health := models.Health{
		Status: models.HealthStatusOK,
		Time:   models.Timestamp(h.cfg.Clock.Now()),
	}

	if h.cfg.Warehouse != nil {
		ctx, cancel := context.WithTimeout(r.Context(), readinessTimeout)
		defer cancel()
		if err := h.cfg.Warehouse.Ping(ctx); err != nil {
			health.Status = models.HealthStatusFail
			health.Details = map[string]interface{}{"warehouse": err.Error()}
			response.JSON(w, r, http.StatusServiceUnavailable, health)
			return
		}
	}

	response.JSON(w, r, http.StatusOK, health)
}

// SystemStatus handles GET /v1/ops/status - provider and subsystem status.
func (h *OpsHandler) SystemStatus(w http.ResponseWriter, r *http.Request) {
	status := models.SystemStatus{
		Status:     models.HealthStatusOK,
		Time:       models.Timestamp(h.cfg.Clock.Now()),
		Subsystems: []models.SubsystemStatus{},
		Providers:  []models.ProviderStatus{},
	}

	if h.cfg.Warehouse != nil {
		ctx, cancel := context.WithTimeout(r.Context(), readinessTimeout)
		defer cancel()
		sub := models.SubsystemStatus{Name: "warehouse", Status: models.HealthStatusOK}
		if err := h.cfg.Warehouse.Ping(ctx); err != nil {
			sub.Status = models.HealthStatusFail
			sub.Detail = strPtr(err.Error())
		}
		status.Subsystems = append(status.Subsystems, sub)
	}
	if h.cfg.Readings != nil {
		stats := h.cfg.Readings.CacheStats()
		status.Subsystems = append(status.Subsystems, models.SubsystemStatus{
			Name:   "reading-cache",
			Status: models.HealthStatusOK,
			Detail: strPtr(fmt.Sprintf("%d entries (%d fresh), %d hits, %d misses",
				stats.Entries, stats.FreshEntries, stats.Hits, stats.Misses)),
		})
	}
	if h.cfg.Plumes != nil {
		status.Subsystems = append(status.Subsystems, models.SubsystemStatus{
			Name:   "plume-cache",
			Status: models.HealthStatusOK,
			Detail: strPtr(fmt.Sprintf("%d entries", h.cfg.Plumes.Len())),
		})
	}
	if h.cfg.Registry != nil {
		for _, ph := range h.cfg.Registry.GetAllHealth() {
			status.Providers = append(status.Providers, toProviderStatus(ph))
		}
	}

	status.Status = overallStatus(status)
	response.JSON(w, r, http.StatusOK, status)
}

func toProviderStatus(ph *resilience.ProviderHealth) models.ProviderStatus {
	ps := models.ProviderStatus{
		Provider:     ph.Name,
		Status:       healthStatus(ph.Status()),
		CircuitState: ph.CircuitState.String(),
	}
	if ph.LastSuccessAt != nil {
		ts := models.Timestamp(*ph.LastSuccessAt)
		ps.LastSuccessAt = &ts
	}
	if ph.LastFailureAt != nil {
		ts := models.Timestamp(*ph.LastFailureAt)
		ps.LastFailureAt = &ts
	}
	if ph.LastError != "" {
		ps.Message = strPtr(ph.LastError)
	}
	return ps
}

func healthStatus(s string) models.HealthStatus {
	switch s {
	case "healthy":
		return models.HealthStatusOK
	case "degraded":
		return models.HealthStatusDegraded
	default:
		return models.HealthStatusFail
	}
}

// overallStatus is FAIL when the warehouse is down and DEGRADED when any
// provider is not healthy.
func overallStatus(s models.SystemStatus) models.HealthStatus {
	overall := models.HealthStatusOK
	for _, sub := range s.Subsystems {
		if sub.Status == models.HealthStatusFail {
			return models.HealthStatusFail
		}
	}
	for _, p := range s.Providers {
		if p.Status != models.HealthStatusOK {
			overall = models.HealthStatusDegraded
		}
	}
	return overall
}

func strPtr(s string) *string {
	return &s
}
