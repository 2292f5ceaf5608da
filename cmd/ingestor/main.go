package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/rickgao/prediction-data/internal/config"
	"github.com/rickgao/prediction-data/internal/metrics"
	"github.com/rickgao/prediction-data/internal/poller"
	"github.com/rickgao/prediction-data/internal/source"
	"github.com/rickgao/prediction-data/internal/source/kalshi"
	"github.com/rickgao/prediction-data/internal/source/polymarket"
	"github.com/rickgao/prediction-data/internal/store"
	"github.com/rickgao/prediction-data/internal/version"
)

func main() {
	configPath := flag.String("config", "configs/ingestor.local.yaml", "path to config file")
	flag.Parse()

	// Set up structured logging
	logger := slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{
		Level: slog.LevelDebug,
	}))
	slog.SetDefault(logger)

	logger.Info("starting ingestor",
		"version", version.Version,
		"commit", version.Commit,
		"config", *configPath,
	)

	// Load configuration
	cfg, err := config.LoadAndValidate(*configPath)
	if err != nil {
		logger.Error("failed to load config", "error", err)
		os.Exit(1)
	}

	instanceID := cfg.Instance.ID
	if instanceID == "" {
		instanceID = uuid.NewString()
		logger.Info("no instance id configured, generated one", "instance_id", instanceID)
	}

	logger.Info("configuration loaded",
		"instance_id", instanceID,
		"poll_interval", cfg.Poll.Interval,
		"kalshi_series", cfg.Sources.Kalshi.SeriesTicker,
		"polymarket_slug", cfg.Sources.Polymarket.Slug,
	)

	// Create context with cancellation
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Handle shutdown signals
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		sig := <-sigCh
		logger.Info("received shutdown signal", "signal", sig)
		cancel()
	}()

	// Connect to database
	logger.Info("connecting to database",
		"host", cfg.Database.Postgres.Host,
		"port", cfg.Database.Postgres.Port,
		"database", cfg.Database.Postgres.Name,
	)

	db, err := store.Connect(ctx, cfg.Database.Postgres, logger)
	if err != nil {
		logger.Error("failed to connect to database", "error", err)
		os.Exit(1)
	}
	defer db.Close()

	if err := db.EnsureSchema(ctx); err != nil {
		logger.Error("failed to ensure schema", "error", err)
		os.Exit(1)
	}

	logger.Info("database connected")

	// Shared HTTP client for both providers
	client := source.NewClient(
		source.WithLogger(logger),
		source.WithTimeout(cfg.Client.Timeout),
		source.WithRetryPolicy(source.RetryPolicy{
			MaxAttempts:  cfg.Client.MaxAttempts,
			InitialDelay: cfg.Client.RetryBaseDelay,
			Multiplier:   2,
			MaxDelay:     cfg.Client.RetryMaxDelay,
		}),
	)

	adapters := []source.Adapter{
		kalshi.New(kalshi.Config{
			BaseURL:      cfg.Sources.Kalshi.BaseURL,
			SeriesTicker: cfg.Sources.Kalshi.SeriesTicker,
			Status:       cfg.Sources.Kalshi.Status,
		}, client, logger),
		polymarket.New(polymarket.Config{
			BaseURL: cfg.Sources.Polymarket.BaseURL,
			Slug:    cfg.Sources.Polymarket.Slug,
		}, client, logger),
	}

	recorder := metrics.New(nil)

	p := poller.New(poller.Config{
		Interval:     cfg.Poll.Interval,
		FetchTimeout: cfg.Poll.FetchTimeout,
	}, adapters, db, recorder, logger)

	// Health and metrics server
	healthServer := &http.Server{
		Addr:    fmt.Sprintf(":%d", cfg.Metrics.Port),
		Handler: createHealthHandler(db, p, cfg.Metrics.Path),
	}

	go func() {
		logger.Info("starting health server", "port", cfg.Metrics.Port)
		if err := healthServer.ListenAndServe(); err != http.ErrServerClosed {
			logger.Error("health server error", "error", err)
		}
	}()

	if err := p.Start(ctx); err != nil {
		logger.Error("failed to start poller", "error", err)
		os.Exit(1)
	}

	logger.Info("ingestor running",
		"instance_id", instanceID,
		"health_url", fmt.Sprintf("http://localhost:%d/health", cfg.Metrics.Port),
	)

	// Wait for shutdown
	<-ctx.Done()

	logger.Info("shutting down...")

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()

	if err := p.Stop(shutdownCtx); err != nil {
		logger.Warn("poller stop timed out", "error", err)
	}
	if err := healthServer.Shutdown(shutdownCtx); err != nil {
		logger.Warn("health server shutdown failed", "error", err)
	}

	logger.Info("ingestor stopped")
}

// createHealthHandler creates the HTTP handler for health checks and metrics.
func createHealthHandler(db *store.Store, p *poller.Poller, metricsPath string) http.Handler {
	mux := http.NewServeMux()

	mux.Handle(metricsPath, promhttp.Handler())

	mux.HandleFunc("/health", func(w http.ResponseWriter, r *http.Request) {
		ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
		defer cancel()

		health := struct {
			Status     string                 `json:"status"`
			Components map[string]interface{} `json:"components"`
		}{
			Status:     "healthy",
			Components: make(map[string]interface{}),
		}

		// Check database
		if err := db.Ping(ctx); err != nil {
			health.Status = "unhealthy"
			health.Components["postgres"] = map[string]string{
				"status": "disconnected",
				"error":  err.Error(),
			}
		} else {
			health.Components["postgres"] = "connected"
		}

		// Last tick summary
		report := p.LastReport()
		sources := make(map[string]interface{})
		for _, res := range report.Results {
			if res.Err != nil {
				sources[string(res.Source)] = map[string]string{"error": res.Err.Error()}
			} else {
				sources[string(res.Source)] = map[string]int{"snapshots": res.Count}
			}
		}
		health.Components["last_tick"] = map[string]interface{}{
			"timestamp": report.Timestamp,
			"written":   report.Written,
			"sources":   sources,
		}
		if report.PersistErr != nil {
			health.Status = "degraded"
		}

		w.Header().Set("Content-Type", "application/json")
		if health.Status == "unhealthy" {
			w.WriteHeader(http.StatusServiceUnavailable)
		}
		json.NewEncoder(w).Encode(health)
	})

	return mux
}
