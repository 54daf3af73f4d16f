// Copyright (c) 2026 Gatekeeper. All rights reserved.
// Author: tai.buivan.jp@gmail.com

// Command api is the entry point for the Gatekeeper HTTP API server.
//
// # Startup Sequence
//
//  1. Initialize structured logger.
//  2. Load configuration from environment variables.
//  3. Open the credential store (PostgreSQL + migrations, or in-memory).
//  4. Connect to Redis when configured.
//  5. Register Prometheus collectors.
//  6. Wire services and HTTP handlers.
//  7. Start HTTP server with graceful shutdown.
//
// No business logic lives here. All wiring is explicit constructor injection.
package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	goredis "github.com/redis/go-redis/v9"
	"golang.org/x/crypto/bcrypt"

	"github.com/taibuivan/gatekeeper/internal/api"
	"github.com/taibuivan/gatekeeper/internal/platform/config"
	"github.com/taibuivan/gatekeeper/internal/platform/constants"
	"github.com/taibuivan/gatekeeper/internal/platform/metrics"
	"github.com/taibuivan/gatekeeper/internal/platform/middleware"
	"github.com/taibuivan/gatekeeper/internal/platform/migration"
	pgstore "github.com/taibuivan/gatekeeper/internal/platform/postgres"
	redisstore "github.com/taibuivan/gatekeeper/internal/platform/redis"
	"github.com/taibuivan/gatekeeper/internal/platform/sec"
	"github.com/taibuivan/gatekeeper/internal/users/account"
	"github.com/taibuivan/gatekeeper/internal/users/auth"
)

func main() {
	// ── 1. Logger ──────────────────────────────────────────────────────────
	// Initialize first so that subsequent startup errors are structured JSON.
	log := newLogger(slog.LevelInfo)
	slog.SetDefault(log)

	log.Info("service_initializing", slog.String("version", constants.AppVersion))

	// ── 2. Configuration ──────────────────────────────────────────────────
	cfg, err := config.Load()
	must(log, err, "load configuration")

	if cfg.Debug {
		log = newLogger(slog.LevelDebug)
		slog.SetDefault(log)
		log.Debug("debug_logging_enabled")
	}

	log.Info("configuration_loaded",
		slog.String("environment", cfg.Environment),
		slog.String("port", cfg.ServerPort),
		slog.String("storage_driver", cfg.StorageDriver),
	)

	// Root context for startup. Use a 30s deadline so misconfiguration is
	// caught quickly rather than hanging indefinitely.
	startupCtx, startupCancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer startupCancel()

	var health api.HealthDependencies

	// ── 3. Credential Store ───────────────────────────────────────────────
	var repository account.Repository
	switch cfg.StorageDriver {
	case config.StorageDriverPostgres:
		if cfg.MigrateOnStart {
			must(log, migration.RunUp(cfg.DatabaseURL, log), "run migrations")
		}

		pool, err := pgstore.NewPool(startupCtx, cfg.DatabaseURL, log)
		must(log, err, "connect to postgres")
		defer func() {
			log.Info("closing_postgres_pool")
			pool.Close()
		}()

		repository = account.NewPostgresRepository(pool)
		health.CheckDatabase = func(ctx context.Context) error {
			return pgstore.Ping(ctx, pool)
		}

	default:
		log.Warn("memory_store_enabled", slog.String("note", "accounts are lost on restart"))
		repository = account.NewMemoryRepository()
	}

	// ── 4. Redis (optional) ───────────────────────────────────────────────
	// attempts stays a nil interface without Redis, which disables throttling.
	var attempts middleware.AttemptLimiter
	if cfg.RedisURL != "" {
		rdb, err := redisstore.NewClient(startupCtx, cfg.RedisURL, log)
		must(log, err, "connect to redis")
		defer closeRedis(log, rdb)

		if cfg.AuthAttemptLimit > 0 {
			attempts = redisstore.NewWindowLimiter(rdb, cfg.AuthAttemptLimit, cfg.AuthAttemptWindow)
		}
		health.CheckCache = func(ctx context.Context) error {
			return redisstore.Ping(ctx, rdb)
		}
	}

	// ── 5. Metrics ────────────────────────────────────────────────────────
	registry := prometheus.NewRegistry()
	registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	metrics.RegisterMetrics(registry)

	// ── 6. Domain Wiring ──────────────────────────────────────────────────
	users := account.NewService(repository, sec.NewHasher(bcrypt.DefaultCost), log)

	authService := auth.NewService(users, sec.NewTokenCodec(cfg.AuthIssuer), auth.TokenConfig{
		AccessSecret:  []byte(cfg.AccessTokenSecret),
		AccessTTL:     cfg.AccessTokenTTL,
		RefreshSecret: []byte(cfg.RefreshTokenSecret),
		RefreshTTL:    cfg.RefreshTokenTTL,
	}, log)

	liveness, readiness := api.NewHealthHandlers(health, log)

	// ── 7. HTTP Server ────────────────────────────────────────────────────
	serverCtx, serverCancel := context.WithCancel(context.Background())
	defer serverCancel()

	server := api.NewServer(serverCtx, cfg, log, authService, api.Handlers{
		Liveness:  liveness,
		Readiness: readiness,
		Metrics:   metrics.Handler(registry),
		Auth:      auth.NewHandler(authService, attempts),
		Users:     account.NewHandler(users),
	})

	// ── 8. Graceful Shutdown ──────────────────────────────────────────────
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGTERM, syscall.SIGINT)

	serverErr := make(chan error, 1)
	go func() {
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serverErr <- err
		}
	}()

	// Block until OS signal or server error.
	select {
	case sig := <-quit:
		log.Info("shutdown_signal_received", slog.String("signal", sig.String()))
	case err := <-serverErr:
		log.Error("server_startup_error", slog.Any("error", err))
	}

	// Give in-flight requests enough time to complete.
	shutdownTimeout := constants.ShutdownTimeout
	log.Info("shutting_down_server", slog.Duration("timeout", shutdownTimeout))

	if err := server.Shutdown(shutdownTimeout); err != nil {
		log.Error("shutdown_error", slog.Any("error", err))
		os.Exit(1)
	}

	log.Info("server_stopped_cleanly")
}

// newLogger builds the JSON logger tagged with the application name.
func newLogger(level slog.Level) *slog.Logger {
	handler := slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: level})
	return slog.New(handler).With(slog.String("app", constants.AppName))
}

func closeRedis(log *slog.Logger, client *goredis.Client) {
	log.Info("closing_redis_client")
	if err := client.Close(); err != nil {
		log.Error("redis_close_error", slog.Any("error", err))
	}
}

// must logs a structured fatal error and terminates the process if err is non-nil.
//
// It is limited to startup wiring. After startup, all errors are returned and
// handled explicitly.
func must(log *slog.Logger, err error, step string) {
	if err != nil {
		log.Error("startup_failure",
			slog.String("step", step),
			slog.Any("error", err),
		)
		os.Exit(1)
	}
}
