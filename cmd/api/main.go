// Package main provides the entrypoint for the plume API server.
package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/rs/zerolog"

	"github.com/plumewatch/plumewatch/internal/api"
	"github.com/plumewatch/plumewatch/internal/api/middleware"
	"github.com/plumewatch/plumewatch/internal/config"
	"github.com/plumewatch/plumewatch/internal/database"
	"github.com/plumewatch/plumewatch/internal/location"
	"github.com/plumewatch/plumewatch/internal/meteo"
	"github.com/plumewatch/plumewatch/internal/plant"
	"github.com/plumewatch/plumewatch/internal/plume"
	"github.com/plumewatch/plumewatch/internal/provider/resilience"
	"github.com/plumewatch/plumewatch/internal/telemetry"
)

// Version and BuildTime are set at compile time via ldflags.
var (
	Version   = "dev"
	BuildTime = "unknown"
)

func main() {
	const serviceName = "plumewatch-api"

	cfg, err := config.Load()
	if err != nil {
		boot := telemetry.NewLogger(os.Stderr, serviceName, Version, zerolog.InfoLevel)
		boot.Fatal().Err(err).Msg("failed to load configuration")
	}

	log := telemetry.NewLogger(os.Stdout, serviceName, Version, cfg.LogLevel)
	log.Info().
		Str("build_time", BuildTime).
		Str("env", cfg.Env).
		Msg("starting plume API")

	// Initialize OpenTelemetry
	ctx := context.Background()
	tp, err := telemetry.Init(ctx, telemetry.Config{
		ServiceName:    serviceName,
		ServiceVersion: Version,
		Environment:    cfg.Env,
		OTLPEndpoint:   cfg.OTLPEndpoint,
		Enabled:        cfg.OTelEnabled,
		SampleRatio:    cfg.OTelSampleRatio,
	})
	if err != nil {
		log.Fatal().Err(err).Msg("failed to initialize telemetry")
	}
	defer func() {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if shutdownErr := tp.Shutdown(shutdownCtx); shutdownErr != nil {
			log.Error().Err(shutdownErr).Msg("failed to shutdown telemetry")
		}
	}()

	if cfg.OTelEnabled {
		log.Info().
			Str("otlp_endpoint", cfg.OTLPEndpoint).
			Msg("OpenTelemetry initialized")
	}

	httpMetrics, err := middleware.NewMetrics()
	if err != nil {
		log.Fatal().Err(err).Msg("failed to initialize HTTP metrics")
	}
	plumeMetrics, err := plume.NewMetrics()
	if err != nil {
		log.Fatal().Err(err).Msg("failed to initialize plume metrics")
	}

	// Connect to the warehouse
	pool, err := database.Connect(ctx, cfg.Database)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to connect to database")
	}
	defer pool.Close()
	log.Info().
		Str("host", cfg.Database.Host).
		Int("port", cfg.Database.Port).
		Str("database", cfg.Database.Database).
		Msg("database connected")

	plants := plant.NewPostgresRepository(pool)
	locations := location.NewPostgresRegistry(pool)

	// Readings come from the warehouse first, then Open-Meteo.
	registry := resilience.NewRegistry()
	clientCfg := resilience.DefaultClientConfig(meteo.ProviderName)
	clientCfg.Registry = registry
	clientCfg.Logger = log
	meteoClient := meteo.NewClient(meteo.ClientConfig{
		WeatherURL:    cfg.WeatherURL,
		AirQualityURL: cfg.AirQualityURL,
		HTTPClient:    resilience.NewClient(clientCfg),
		Logger:        log,
	})
	readings := plant.NewReadingService(plant.ReadingServiceConfig{
		Sources:         []plant.ReadingSource{plant.RepositorySource{Repo: plants}, meteoClient},
		Logger:          log,
		CacheTTL:        cfg.ReadingCacheTTL,
		StaleIfErrorTTL: cfg.StaleIfErrorTTL,
	})

	generator, err := plume.NewGenerator(cfg.Plume)
	if err != nil {
		log.Fatal().Err(err).Msg("invalid plume parameters")
	}
	cached, err := plume.NewCachedGenerator(generator, cfg.PlumeCacheSize)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to create plume cache")
	}
	plumeService := plume.NewService(plume.ServiceConfig{
		Generator:       cached,
		Plants:          plants,
		Readings:        readings,
		Registry:        locations,
		Metrics:         plumeMetrics,
		Logger:          log,
		BaselineScale:   cfg.BaselineScale,
		DefaultArcCount: cfg.DefaultArcCount,
	})
	log.Info().
		Int("cache_size", cfg.PlumeCacheSize).
		Int("max_arcs", cfg.Plume.MaxArcs).
		Msg("plume service initialized")

	router := api.NewRouter(api.RouterConfig{
		Version:      Version,
		BuildTime:    BuildTime,
		Logger:       log,
		ServiceName:  serviceName,
		Metrics:      httpMetrics,
		PlumeService: plumeService,
		Plants:       plants,
		Warehouse:    pool,
		Readings:     readings,
		Plumes:       cached,
		Registry:     registry,
		RequireTLS:   cfg.RequireTLS,
	})

	server := &http.Server{
		Addr:         ":" + cfg.Port,
		Handler:      router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 30 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	go func() {
		log.Info().
			Str("addr", server.Addr).
			Msg("server listening")

		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatal().Err(err).Msg("server error")
		}
	}()

	// Wait for interrupt signal
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info().Msg("shutting down server")

	// Graceful shutdown with timeout
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("server forced to shutdown")
		os.Exit(1) //nolint:gocritic // intentional exit, cleanup is best-effort
	}

	log.Info().Msg("server stopped")
}
