package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/geocoder89/warehouse/internal/cache"
	"github.com/geocoder89/warehouse/internal/config"
	"github.com/geocoder89/warehouse/internal/db"
	httpx "github.com/geocoder89/warehouse/internal/http"
	"github.com/geocoder89/warehouse/internal/observability"
	"github.com/geocoder89/warehouse/internal/storage"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
)

func main() {
	// Load the config set up
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintln(os.Stderr, "config:", err)
		os.Exit(1)
	}

	// start up the observability logger
	log := observability.NewLogger(cfg.Env)
	slog.SetDefault(log)

	ctx := context.Background()

	shutdownTracer := func(context.Context) error { return nil }
	if cfg.OTLPEndpoint != "" {
		shutdownTracer, err = observability.InitTracer(ctx, cfg.ServiceName, cfg.Env, cfg.OTLPEndpoint)
		if err != nil {
			log.Error("tracer init failed", "err", err)
			os.Exit(1)
		}
	}

	var prom *observability.Prom
	if cfg.MetricsEnabled {
		reg := prometheus.NewRegistry()
		reg.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
		prom = observability.NewProm(reg)
	}

	backend, err := storage.Open(ctx, cfg, log, prom)
	if err != nil {
		log.Error("storage init failed", "err", err)
		os.Exit(1)
	}

	store, err := openCache(cfg, log)
	if err != nil {
		log.Error("cache init failed", "err", err)
		_ = backend.Close()
		os.Exit(1)
	}

	seedCtx, cancel := config.WithTimeout(ctx, 10*time.Second)
	err = db.EnsureAdminUser(seedCtx, backend.Users, cfg, log)
	cancel()
	if err != nil {
		log.Error("admin seed failed", "err", err)
		_ = backend.Close()
		os.Exit(1)
	}

	// set up routers with the log
	router := httpx.NewRouter(log, cfg, backend, store, prom)

	// server set up
	srv := &http.Server{
		Addr:              fmt.Sprintf(":%d", cfg.Port),
		Handler:           router,
		ReadHeaderTimeout: 5 * time.Second,
		ReadTimeout:       15 * time.Second,
		WriteTimeout:      15 * time.Second,
		IdleTimeout:       60 * time.Second,
	}

	go func() {
		log.Info("Server starting", "port", cfg.Port, "env", cfg.Env, "backend", backend.Name)
		err := srv.ListenAndServe()

		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Error("server failed", "err", err)
			os.Exit(1)
		}
	}()

	// Graceful shutdown

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, syscall.SIGINT, syscall.SIGTERM)
	<-stop
	log.Info("server shutting down")

	shutdownCh := make(chan struct{})

	go func() {
		defer close(shutdownCh)

		ctx, cancel := config.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()

		if err := srv.Shutdown(ctx); err != nil {
			log.Error("graceful shutdown failed", "err", err)
		}
		if err := backend.Close(); err != nil {
			log.Error("storage close failed", "err", err)
		}
		if err := store.Close(); err != nil {
			log.Error("cache close failed", "err", err)
		}
		if err := shutdownTracer(ctx); err != nil {
			log.Error("tracer shutdown failed", "err", err)
		}
	}()

	select {
	case <-shutdownCh:
		log.Info("shutdown complete")

	case <-time.After(12 * time.Second):
		log.Error("shutdown timed out")
	}
}

func openCache(cfg config.Config, log *slog.Logger) (cache.Store, error) {
	if cfg.RedisURL == "" {
		return cache.New(cfg.CacheTTL), nil
	}

	c, err := cache.NewRedis(cache.RedisConfig{URL: cfg.RedisURL, TTL: cfg.CacheTTL}, log)
	if err != nil {
		return nil, err
	}

	ctx, cancel := config.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()

	if err := c.Ping(ctx); err != nil {
		// reads fall through to storage; readiness reports the outage
		log.Warn("redis not reachable at startup", "err", err)
	}

	log.Info("cache ready", "driver", "redis")
	return c, nil
}
