// cmd/worker-manager/main.go
package main

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"card-decision-workers/internal/common/camunda"
	"card-decision-workers/internal/common/config"
	"card-decision-workers/internal/common/database"
	"card-decision-workers/internal/common/logger"
	"card-decision-workers/internal/common/observability"
	"card-decision-workers/pkg/registry"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		boot := logger.New("info", "console")
		boot.Fatal("config load failed", zap.Error(err))
	}

	zapLog := logger.New(cfg.Logging.Level, cfg.Logging.Format)
	defer func() { _ = zapLog.Sync() }()
	log := logger.NewZapAdapter(zapLog).WithFields(map[string]interface{}{
		"service":     cfg.App.Name,
		"version":     cfg.App.Version,
		"environment": cfg.App.Environment,
	})

	log.Info("starting worker manager", nil)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	obs, err := observability.New(observability.Config{
		ServiceName:    cfg.App.Name,
		TracingEnabled: cfg.Tracing.Enabled,
		JaegerEndpoint: cfg.Tracing.JaegerEndpoint,
		SampleRatio:    cfg.Tracing.SampleRatio,
		Registerer:     prometheus.DefaultRegisterer,
	})
	if err != nil {
		zapLog.Fatal("observability setup failed", zap.Error(err))
	}

	reg, err := registry.LoadRegistry(cfg.Registry.Path)
	if err != nil {
		zapLog.Fatal("activity registry load failed", zap.Error(err))
	}
	if err := reg.Validate(); err != nil {
		zapLog.Fatal("activity registry invalid", zap.Error(err))
	}

	// --- Zeebe ---
	var zeebe *camunda.Client
	err = camunda.Retry(ctx, camunda.DefaultRetryConfig, "zeebe connection", log, func(ctx context.Context) error {
		var err error
		zeebe, err = camunda.NewClient(ctx, cfg.Camunda)
		return err
	})
	if err != nil {
		zapLog.Fatal("zeebe client failed after retries", zap.Error(err))
	}
	log.Info("zeebe client connected", map[string]interface{}{"gateway": cfg.Camunda.BrokerAddress})

	// --- PostgreSQL ---
	pg, err := database.NewPostgres(cfg.Database.Postgres)
	if err != nil {
		zapLog.Fatal("postgres setup failed", zap.Error(err))
	}
	defer pg.Close()
	if err := camunda.Retry(ctx, camunda.DefaultRetryConfig, "postgres connection", log, pg.Ping); err != nil {
		zapLog.Fatal("postgres failed after retries", zap.Error(err))
	}
	if err := pg.EnsureSchema(ctx); err != nil {
		zapLog.Fatal("postgres schema setup failed", zap.Error(err))
	}

	// --- Redis ---
	rdb := database.NewRedis(cfg.Database.Redis)
	defer rdb.Close()
	if err := camunda.Retry(ctx, camunda.DefaultRetryConfig, "redis connection", log, rdb.Ping); err != nil {
		zapLog.Fatal("redis failed after retries", zap.Error(err))
	}

	// --- Elasticsearch ---
	es, err := database.NewElasticsearch(cfg.Database.Elasticsearch)
	if err != nil {
		zapLog.Fatal("elasticsearch setup failed", zap.Error(err))
	}
	if err := camunda.Retry(ctx, camunda.DefaultRetryConfig, "elasticsearch connection", log, es.Ping); err != nil {
		zapLog.Fatal("elasticsearch failed after retries", zap.Error(err))
	}
	if err := es.EnsureCBSIndex(ctx, cfg.Database.Elasticsearch.CBSIndex); err != nil {
		zapLog.Fatal("cbs index setup failed", zap.Error(err))
	}
	log.Info("data stores connected", nil)

	workers, err := registerWorkers(ctx, deps{
		cfg:      cfg,
		zeebe:    zeebe,
		pg:       pg,
		redis:    rdb,
		es:       es,
		obs:      obs,
		registry: reg,
		log:      log,
	})
	if err != nil {
		zapLog.Fatal("worker registration failed", zap.Error(err))
	}

	srv := newHealthServer(cfg.Metrics.Address, func(ctx context.Context) error {
		if err := zeebe.HealthCheck(ctx); err != nil {
			return err
		}
		return pg.Ping(ctx)
	})
	go func() {
		log.Info("health/metrics server listening", map[string]interface{}{"address": cfg.Metrics.Address})
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Error("health/metrics server failed", map[string]interface{}{"error": err})
		}
	}()

	<-ctx.Done()
	log.Info("shutdown signal received, stopping workers", nil)

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	for _, w := range workers {
		w.Close()
		w.AwaitClose()
	}
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error("health server shutdown failed", map[string]interface{}{"error": err})
	}
	if err := obs.Shutdown(shutdownCtx); err != nil {
		log.Error("observability shutdown failed", map[string]interface{}{"error": err})
	}
	if err := zeebe.Close(); err != nil {
		log.Error("error closing zeebe client", map[string]interface{}{"error": err})
	}

	log.Info("worker manager stopped", nil)
}

// newHealthServer serves liveness, readiness and Prometheus metrics.
func newHealthServer(addr string, ready func(context.Context) error) *http.Server {
	mux := http.NewServeMux()
	mux.HandleFunc("/health", func(w http.ResponseWriter, r *http.Request) {
		writeStatus(w, http.StatusOK, "healthy", "")
	})
	mux.HandleFunc("/ready", func(w http.ResponseWriter, r *http.Request) {
		ctx, cancel := context.WithTimeout(r.Context(), 3*time.Second)
		defer cancel()
		if err := ready(ctx); err != nil {
			writeStatus(w, http.StatusServiceUnavailable, "not ready", err.Error())
			return
		}
		writeStatus(w, http.StatusOK, "ready", "")
	})
	mux.Handle("/metrics", promhttp.Handler())

	return &http.Server{
		Addr:              addr,
		Handler:           mux,
		ReadHeaderTimeout: 5 * time.Second,
	}
}

func writeStatus(w http.ResponseWriter, code int, status, detail string) {
	body := map[string]string{
		"status": status,
		"time":   time.Now().Format(time.RFC3339),
	}
	if detail != "" {
		body["error"] = detail
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	_ = json.NewEncoder(w).Encode(body)
}
