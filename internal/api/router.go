// Package api provides the HTTP API for plume generation.
package api

import (
	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/jonboulle/clockwork"
	"github.com/rs/zerolog"

	"github.com/plumewatch/plumewatch/internal/api/handler"
	"github.com/plumewatch/plumewatch/internal/api/middleware"
	"github.com/plumewatch/plumewatch/internal/provider/resilience"
)

// RouterConfig holds configuration for the router.
type RouterConfig struct {
	Version     string
	BuildTime   string
	Logger      zerolog.Logger
	ServiceName string
	Metrics     *middleware.Metrics

	PlumeService handler.PlumeService
	Plants       handler.PlantStore

	// Status reporting. All optional.
	Warehouse handler.Pinger
	Readings  handler.ReadingCache
	Plumes    handler.PlumeCache
	Registry  *resilience.Registry

	// RequireTLS rejects requests that did not arrive over HTTPS.
	RequireTLS bool

	Clock clockwork.Clock
}

// NewRouter creates a new chi router with all API routes configured.
func NewRouter(cfg RouterConfig) *chi.Mux {
	r := chi.NewRouter()

	serviceName := cfg.ServiceName
	if serviceName == "" {
		serviceName = "plumewatch-api"
	}
	if cfg.Clock == nil {
		cfg.Clock = clockwork.NewRealClock()
	}

	// Global middleware - order matters
	r.Use(middleware.RequestID)            // Generate/propagate request ID first
	r.Use(middleware.Tracing(serviceName)) // Distributed tracing
	if cfg.Metrics != nil {
		r.Use(cfg.Metrics.Middleware()) // HTTP metrics
	}
	r.Use(middleware.Logger(cfg.Logger))         // Structured logging
	r.Use(middleware.Recovery(cfg.Logger))       // Panic recovery
	r.Use(chimiddleware.RealIP)                  // Real IP extraction
	r.Use(middleware.SecurityHeaders)            // Security headers (HSTS, CSP, etc.)
	r.Use(middleware.RequireTLS(cfg.RequireTLS)) // TLS enforcement
	r.Use(middleware.ContentTypeJSON)            // JSON content type

	opsHandler := handler.NewOpsHandler(handler.OpsConfig{
		Version:   cfg.Version,
		BuildTime: cfg.BuildTime,
		Warehouse: cfg.Warehouse,
		Readings:  cfg.Readings,
		Plumes:    cfg.Plumes,
		Registry:  cfg.Registry,
		Clock:     cfg.Clock,
	})
	plantHandler := handler.NewPlantHandler(cfg.Plants, cfg.Clock, cfg.Logger)
	plumeHandler := handler.NewPlumeHandler(cfg.PlumeService, cfg.Clock, cfg.Logger)

	computeRateLimit := middleware.RateLimitByIP(middleware.ComputeRateLimit)   // 30 req/min
	standardRateLimit := middleware.RateLimitByIP(middleware.StandardRateLimit) // 100 req/min

	r.Route("/v1", func(r chi.Router) {
		r.Route("/ops", func(r chi.Router) {
			r.Get("/health", opsHandler.HealthCheck)
			r.Get("/ready", opsHandler.ReadinessCheck)
			r.Get("/status", opsHandler.SystemStatus)
		})

		// Plume from explicit inputs - compute, strict rate limiting
		r.With(computeRateLimit, middleware.RequireJSON).Post("/plumes:compute", plumeHandler.ComputePlume)

		r.Route("/plants", func(r chi.Router) {
			r.Use(standardRateLimit)
			r.Get("/", plantHandler.ListPlants)
			r.Route("/{plantId}", func(r chi.Router) {
				r.Get("/", plantHandler.GetPlant)
				r.Get("/plume", plumeHandler.PlantPlume)
				r.Get("/plume/overlay", plumeHandler.PlantPlumeOverlay)
			})
		})
	})

	return r
}
