// Package main provides the entrypoint for the reading refresh worker.
package main

import (
	"context"
	"encoding/json"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog"

	"github.com/plumewatch/plumewatch/internal/config"
	"github.com/plumewatch/plumewatch/internal/database"
	"github.com/plumewatch/plumewatch/internal/meteo"
	"github.com/plumewatch/plumewatch/internal/plant"
	"github.com/plumewatch/plumewatch/internal/provider/resilience"
	"github.com/plumewatch/plumewatch/internal/telemetry"
	"github.com/plumewatch/plumewatch/internal/worker"
)

// Version and BuildTime are set at compile time via ldflags.
var (
	Version   = "dev"
	BuildTime = "unknown"
)

func main() {
	const serviceName = "plumewatch-worker"

	cfg, err := config.Load()
	if err != nil {
		boot := telemetry.NewLogger(os.Stderr, serviceName, Version, zerolog.InfoLevel)
		boot.Fatal().Err(err).Msg("failed to load configuration")
	}

	log := telemetry.NewLogger(os.Stdout, serviceName, Version, cfg.LogLevel)
	log.Info().
		Str("build_time", BuildTime).
		Dur("interval", cfg.WorkerInterval).
		Msg("starting reading refresh worker")

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

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
		shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer shutdownCancel()
		if shutdownErr := tp.Shutdown(shutdownCtx); shutdownErr != nil {
			log.Error().Err(shutdownErr).Msg("failed to shutdown telemetry")
		}
	}()

	promRegistry := prometheus.NewRegistry()
	promRegistry.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	metrics, err := worker.NewMetrics(promRegistry)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to initialize metrics")
	}

	pool, err := database.Connect(ctx, cfg.Database)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to connect to database")
	}
	defer pool.Close()

	plants := plant.NewPostgresRepository(pool)

	providers := resilience.NewRegistry()
	clientCfg := resilience.DefaultClientConfig(meteo.ProviderName)
	clientCfg.Registry = providers
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

	job := worker.NewRefreshJob(worker.RefreshJobConfig{
		Config: worker.RefreshConfig{
			Concurrency: cfg.WorkerConcurrency,
			Timeout:     cfg.WorkerTimeout,
		},
		Plants:   plants,
		Readings: readings,
		Logger:   log,
		Metrics:  metrics,
	})

	// Health and metrics server
	r := chi.NewRouter()
	r.Get("/health", func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(map[string]string{
			"status":    "healthy",
			"version":   Version,
			"providers": providers.Overall(),
		})
	})
	r.Handle("/metrics", promhttp.HandlerFor(promRegistry, promhttp.HandlerOpts{}))

	server := &http.Server{
		Addr:         ":" + cfg.WorkerMetricsPort,
		Handler:      r,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
	}

	go func() {
		log.Info().Str("addr", server.Addr).Msg("health server listening")
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Error().Err(err).Msg("health server error")
		}
	}()

	// Pub/Sub triggers are optional; the ticker always runs.
	if cfg.PubSubProjectID != "" && cfg.PubSubSubscriptionID != "" {
		handler, err := worker.NewPubSubHandler(ctx, worker.PubSubConfig{
			ProjectID:        cfg.PubSubProjectID,
			SubscriptionName: cfg.PubSubSubscriptionID,
			RefreshJob:       job,
			Logger:           log,
		})
		if err != nil {
			log.Fatal().Err(err).Msg("failed to create pubsub handler")
		}
		defer handler.Close()

		go func() {
			if err := handler.Start(ctx); err != nil && ctx.Err() == nil {
				log.Error().Err(err).Msg("pubsub handler stopped")
			}
		}()
	}

	go func() {
		ticker := time.NewTicker(cfg.WorkerInterval)
		defer ticker.Stop()

		for {
			if _, err := job.Run(ctx); err != nil {
				log.Error().Err(err).Msg("reading refresh failed")
			}

			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
			}
		}
	}()

	// Wait for interrupt signal
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info().Msg("shutting down worker")
	cancel()

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer shutdownCancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("health server forced to shutdown")
	}

	log.Info().Msg("worker stopped")
}
