// cmd/worker-manager/main.go
package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"go.uber.org/zap"

	"actuator-workers/internal/catalog"
	"actuator-workers/internal/common/camunda"
	"actuator-workers/internal/common/config"
	"actuator-workers/internal/common/logger"
	"actuator-workers/internal/common/observability"
	"actuator-workers/internal/selection"

	bs "actuator-workers/internal/workers/selection/batch-selection"
	cs "actuator-workers/internal/workers/selection/calculate-selection"
)

// retryWithBackoff attempts to execute a function with exponential backoff
func retryWithBackoff(operation func() error, maxRetries int, initialDelay time.Duration, log *zap.Logger, operationName string) error {
	var err error
	delay := initialDelay

	for i := 0; i < maxRetries; i++ {
		err = operation()
		if err == nil {
			return nil
		}

		if i < maxRetries-1 {
			log.Warn(fmt.Sprintf("%s failed, retrying...", operationName),
				zap.Error(err),
				zap.Int("attempt", i+1),
				zap.Int("maxRetries", maxRetries),
				zap.Duration("nextRetryIn", delay),
			)
			time.Sleep(delay)
			delay *= 2
		}
	}

	return fmt.Errorf("%s failed after %d attempts: %w", operationName, maxRetries, err)
}

func main() {
	cfg, err := loadConfig()
	if err != nil {
		fmt.Fprintf(os.Stderr, "config load failed: %v\n", err)
		os.Exit(1)
	}

	zapLog := logger.NewWithOutput(cfg.Logging.Level, cfg.Logging.Format, cfg.Logging.Output)
	defer zapLog.Sync()
	log := logger.NewZapAdapter(zapLog).WithFields(map[string]interface{}{
		"service": cfg.App.Name,
		"version": cfg.App.Version,
	})

	zapLog.Info("Starting worker manager...",
		zap.String("environment", cfg.App.Environment),
		zap.String("catalogBackend", cfg.Selection.CatalogBackend),
		zap.Bool("cacheEnabled", cfg.Selection.CacheEnabled),
	)

	obs, err := observability.New(cfg.App.Name)
	if err != nil {
		zapLog.Warn("observability init failed, job metrics limited to prometheus counters", zap.Error(err))
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// --- Catalog connections ---
	conns, closeConns, err := openConnections(ctx, cfg, zapLog)
	if err != nil {
		zapLog.Fatal("catalog connections failed", zap.Error(err))
	}
	defer closeConns()

	backend, cached, err := catalog.NewBackend(cfg, conns, log)
	if err != nil {
		zapLog.Fatal("catalog backend init failed", zap.Error(err))
	}

	engine := selection.NewEngine(backend, backend, selection.Options{
		DefaultSafetyFactor:  cfg.Selection.DefaultSafetyFactor,
		TemperatureSurcharge: cfg.Selection.TemperatureSurcharge,
		BatchConcurrency:     cfg.Selection.BatchConcurrency,
	}, log)

	var refresher *catalog.Refresher
	if cached != nil {
		refresher, err = catalog.NewRefresher(cfg.Selection.CacheRefreshCron, cached, log)
		if err != nil {
			zapLog.Fatal("cache refresher init failed", zap.Error(err))
		}
		refresher.Start()
	}

	// --- Zeebe client ---
	zeebe, err := camunda.NewClientWithConfig(camunda.ConfigFromApp(cfg.Camunda))
	if err != nil {
		zapLog.Fatal("zeebe client failed after retries", zap.Error(err))
	}
	zapLog.Info("Zeebe client connected successfully", zap.String("gateway", cfg.Camunda.BrokerAddress))

	// --- Workers ---
	var workers []*camunda.Worker

	csCfg := cs.LoadConfig(cfg)
	if csCfg.Enabled {
		if err := csCfg.Validate(); err != nil {
			zapLog.Fatal("invalid calculate-selection config", zap.Error(err))
		}
		handler := cs.NewHandler(csCfg, engine, obs, log)
		workers = append(workers, camunda.NewWorker(zeebe.GetClient(), camunda.WorkerOptions{
			TaskType:      cs.TaskType,
			MaxJobsActive: csCfg.MaxJobsActive,
			Timeout:       csCfg.Timeout,
		}, handler, log))
	} else {
		zapLog.Info("worker disabled", zap.String("taskType", cs.TaskType))
	}

	bsCfg := bs.LoadConfig(cfg)
	if bsCfg.Enabled {
		if err := bsCfg.Validate(); err != nil {
			zapLog.Fatal("invalid batch-selection config", zap.Error(err))
		}
		handler := bs.NewHandler(bsCfg, engine, obs, log)
		workers = append(workers, camunda.NewWorker(zeebe.GetClient(), camunda.WorkerOptions{
			TaskType:      bs.TaskType,
			MaxJobsActive: bsCfg.MaxJobsActive,
			Timeout:       bsCfg.Timeout,
		}, handler, log))
	} else {
		zapLog.Info("worker disabled", zap.String("taskType", bs.TaskType))
	}

	zapLog.Info("Workers registered", zap.Int("count", len(workers)))

	// --- Health & Metrics Server ---
	checks := readinessChecks{"zeebe": zeebe.HealthCheck}
	if conns.Postgres != nil {
		checks["postgres"] = conns.Postgres.Ping
	}
	if conns.Elasticsearch != nil {
		checks["elasticsearch"] = conns.Elasticsearch.Ping
	}
	if conns.Redis != nil {
		checks["redis"] = conns.Redis.Ping
	}
	var lastRefresh func() (time.Time, error)
	if refresher != nil {
		lastRefresh = refresher.LastRun
	}
	server := newHealthServer(cfg.Metrics.Address, checks, lastRefresh)
	go func() {
		zapLog.Info("Health/Metrics server listening", zap.String("address", cfg.Metrics.Address))
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			zapLog.Error("Health/Metrics server failed", zap.Error(err))
		}
	}()

	// --- Graceful Shutdown ---
	<-ctx.Done()
	zapLog.Info("Shutdown signal received, stopping workers...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	for _, w := range workers {
		w.Close()
	}
	if refresher != nil {
		refresher.Stop()
	}
	if err := server.Shutdown(shutdownCtx); err != nil {
		zapLog.Error("Error stopping health server", zap.Error(err))
	}
	if err := zeebe.Close(); err != nil {
		zapLog.Error("Error closing Zeebe client", zap.Error(err))
	}
	if err := obs.Shutdown(shutdownCtx); err != nil {
		zapLog.Error("Error flushing observability", zap.Error(err))
	}

	zapLog.Info("Worker manager stopped gracefully")
}

// loadConfig reads CONFIG_FILE when set, otherwise the configs/ search path.
func loadConfig() (*config.Config, error) {
	if path := os.Getenv("CONFIG_FILE"); path != "" {
		return config.LoadFromFile(path)
	}
	return config.Load()
}
