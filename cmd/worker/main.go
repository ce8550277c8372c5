// Package main implements the distributedq worker process: a pool of
// executors that pop tasks from the configured queue, dispatch them to
// registered handlers, and publish results to the configured result store.
//
// Features:
//   - Concurrent task processing with graceful shutdown
//   - Prometheus metrics exposed on :8080/metrics
//   - Bounded exponential-backoff retry on result publication
//
// Usage:
//
//	go run cmd/worker/main.go
package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/guido-cesarano/distributedq/pkg/backend"
	memorybackend "github.com/guido-cesarano/distributedq/pkg/backend/memory"
	redisbackend "github.com/guido-cesarano/distributedq/pkg/backend/redis"
	"github.com/guido-cesarano/distributedq/pkg/config"
	"github.com/guido-cesarano/distributedq/pkg/logger"
	"github.com/guido-cesarano/distributedq/pkg/worker"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	goredis "github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
)

// registerHandlers installs the demo handler set. A real deployment wires
// its own handlers here at startup; mutating the registry after the pool
// has started is a non-goal.
func registerHandlers(registry *worker.Registry) {
	registry.Register("square", func(_ context.Context, payload map[string]any) (any, error) {
		x, _ := payload["x"].(float64)
		return x * x, nil
	})
	registry.Register("echo", func(_ context.Context, payload map[string]any) (any, error) {
		return payload, nil
	})
}

func main() {
	log := logger.New()

	cfg, err := config.Load(os.Getenv("DQ_CONFIG_FILE"))
	if err != nil {
		log.Fatal().Err(err).Msg("failed to load configuration")
	}

	reg := prometheus.NewRegistry()
	metrics := worker.NewMetrics(reg)

	queue, err := buildQueue(cfg, log, metrics)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to construct queue backend")
	}
	store, closeStore, err := buildResultStore(cfg, log)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to construct result store backend")
	}
	defer closeStore()

	registry := worker.NewRegistry()
	registerHandlers(registry)

	numWorkers := cfg.APIWorkers
	if numWorkers <= 0 {
		numWorkers = 4
	}
	pool := worker.NewPool(worker.Config{
		NumWorkers: numWorkers,
		ResultTTL:  cfg.ResultStoreTTL,
	}, queue, store, registry, metrics, log)

	ctx, cancel := context.WithCancel(context.Background())

	go func() {
		mux := http.NewServeMux()
		mux.Handle("/metrics", promhttp.HandlerFor(reg, promhttp.HandlerOpts{}))
		log.Info().Msg("Metrics server listening on :8080")
		if err := http.ListenAndServe(":8080", mux); err != nil {
			log.Error().Err(err).Msg("metrics server stopped")
		}
	}()

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		<-sigChan
		log.Info().Msg("shutdown signal received, draining in-flight tasks...")
		cancel()
	}()

	go collectQueueDepth(ctx, queue, reg, log)

	log.Info().Int("workers", numWorkers).Msg("worker pool started")
	pool.Start(ctx)

	<-ctx.Done()
	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer shutdownCancel()
	if err := pool.Shutdown(shutdownCtx); err != nil {
		log.Warn().Err(err).Msg("shutdown grace deadline elapsed, detaching remaining executors")
	}
}

// collectQueueDepth reports Queue.Length on a fixed cadence, grounded on the
// teacher's collectQueueMetrics goroutine, generalized from five hardcoded
// Redis list names to the single backend.Queue abstraction.
func collectQueueDepth(ctx context.Context, queue backend.Queue, reg *prometheus.Registry, log zerolog.Logger) {
	gauge := prometheus.NewGauge(prometheus.GaugeOpts{
		Name: "distributedq_queue_depth",
		Help: "Best-effort current length of the task queue.",
	})
	reg.MustRegister(gauge)

	ticker := time.NewTicker(5 * time.Second)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			n, err := queue.Length(ctx)
			if err != nil {
				log.Warn().Err(err).Msg("failed to read queue depth")
				continue
			}
			gauge.Set(float64(n))
		}
	}
}

func buildQueue(cfg config.Config, log zerolog.Logger, metrics *worker.Metrics) (backend.Queue, error) {
	if cfg.QueueType == config.BackendRemote {
		rdb := goredis.NewClient(&goredis.Options{Addr: cfg.RedisURL})
		return redisbackend.NewQueue(rdb, "distributedq:tasks", log, metrics.MalformedEntry.Inc), nil
	}
	return memorybackend.NewQueue(), nil
}

func buildResultStore(cfg config.Config, log zerolog.Logger) (backend.ResultStore, func(), error) {
	if cfg.ResultStoreType == config.BackendRemote {
		rdb := goredis.NewClient(&goredis.Options{Addr: cfg.ResultStoreRedisURL})
		return redisbackend.NewStore(rdb, "distributedq:result"), func() {}, nil
	}
	store := memorybackend.NewStore(0, log)
	return store, func() { store.Close() }, nil
}
