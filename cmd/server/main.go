package main

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/localrank/backend/config"
	httpDelivery "github.com/localrank/backend/internal/delivery/http"
	"github.com/localrank/backend/internal/domain"
	"github.com/localrank/backend/internal/infrastructure/runstore"
	"github.com/localrank/backend/internal/infrastructure/serper"
	"github.com/localrank/backend/internal/job"
	"github.com/localrank/backend/internal/logging"
	"github.com/localrank/backend/internal/metrics"
	"github.com/localrank/backend/internal/usecase"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"
)

const shutdownTimeout = 10 * time.Second

func main() {
	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	logger, err := logging.New(cfg.Server.Environment, cfg.Log)
	if err != nil {
		log.Fatalf("Failed to build logger: %v", err)
	}
	defer logger.Sync()

	if err := run(cfg, logger); err != nil {
		logger.Fatal("server stopped", zap.Error(err))
	}
}

func run(cfg *config.Config, logger *zap.Logger) error {
	logger.Info("starting LocalRank backend",
		zap.String("version", "1.0.0"),
		zap.String("environment", cfg.Server.Environment),
		zap.String("port", cfg.Server.Port))

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// Metrics
	reg := prometheus.NewRegistry()
	reg.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	metrics.MustRegister(reg)

	// Infrastructure
	client := serper.NewClient(cfg.Serper.APIKey, cfg.Serper.BaseURL, serper.ClientOptions{
		Timeout:   cfg.Serper.Timeout,
		RateLimit: cfg.Serper.RateLimit,
		Burst:     cfg.Serper.Burst,
		Logger:    logger,
	})

	// Enable debug mode in development environment
	if cfg.Server.Environment == "development" {
		client.SetDebug(true)
		logger.Debug("places client debug mode enabled")
	}

	if cfg.Serper.APIKey != "" {
		logger.Info("places API configured", zap.String("base_url", cfg.Serper.BaseURL))
	} else {
		logger.Warn("SERPER_API_KEY not configured, every run will fail", zap.String("base_url", cfg.Serper.BaseURL))
	}

	store := runstore.NewMemoryStore()
	sweeper := job.NewSweeper(cfg.Runs.SweepCron, store, logger)
	stopSweeper, err := sweeper.Start(ctx)
	if err != nil {
		return fmt.Errorf("starting run sweeper: %w", err)
	}
	defer stopSweeper()

	// Usecase layer
	pager := usecase.NewPager(client, usecase.PagerConfig{
		PageDelay: cfg.Search.PageDelay,
		MaxPages:  cfg.Search.MaxPages,
		Logger:    logger,
	})
	matcher := usecase.NewMatcher(usecase.MatchConfig{
		EnableDebugLogging: cfg.Server.Environment == "development",
		Logger:             logger,
	})
	processor := usecase.NewQueryProcessor(pager, matcher, logger)
	orchestrator := usecase.NewOrchestrator(processor, logger)
	runs := usecase.NewRunService(orchestrator, store, usecase.RunServiceConfig{
		TTL:           cfg.Runs.TTL,
		HistoryLimit:  cfg.Runs.HistoryLimit,
		PreviewLimit:  cfg.Runs.PreviewLimit,
		DefaultLocale: domain.Locale{GL: cfg.Search.DefaultGL, HL: cfg.Search.DefaultHL},
		Logger:        logger,
	})

	logger.Info("pagination configured",
		zap.Duration("page_delay", cfg.Search.PageDelay),
		zap.Int("max_pages", cfg.Search.MaxPages),
		zap.Float64("rate_limit", cfg.Serper.RateLimit))

	// HTTP
	handler := httpDelivery.NewHandler(runs, logger)
	router := httpDelivery.SetupRouter(cfg, handler, promhttp.HandlerFor(reg, promhttp.HandlerOpts{}), logger)

	srv := &http.Server{
		Addr:              fmt.Sprintf(":%s", cfg.Server.Port),
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		logger.Info("server listening", zap.String("addr", srv.Addr))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	logger.Info("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("graceful shutdown: %w", err)
	}
	return nil
}
