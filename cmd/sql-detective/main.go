package main

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/ananyabshetty/SQL-Detective-Game/internal/analytics"
	"github.com/ananyabshetty/SQL-Detective-Game/internal/api"
	"github.com/ananyabshetty/SQL-Detective-Game/internal/cleanup"
	"github.com/ananyabshetty/SQL-Detective-Game/internal/config"
	"github.com/ananyabshetty/SQL-Detective-Game/internal/engine"
	"github.com/ananyabshetty/SQL-Detective-Game/internal/game"
	"github.com/ananyabshetty/SQL-Detective-Game/internal/health"
	"github.com/ananyabshetty/SQL-Detective-Game/internal/levels"
	"github.com/ananyabshetty/SQL-Detective-Game/internal/session"
)

func main() {
	// Setup structured logging
	logger := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{
		Level: slog.LevelInfo,
	}))
	slog.SetDefault(logger)

	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		slog.Error("failed to load config", "error", err)
		os.Exit(1)
	}

	slog.Info("starting sql-detective",
		"host", cfg.Server.Host,
		"port", cfg.Server.Port,
	)

	// Create context for initialization
	initCtx, initCancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer initCancel()

	registry := health.NewRegistry()

	// Open the game database
	executor, err := engine.NewExecutor(engine.ExecutorConfig{
		Path:    cfg.Game.DatabasePath,
		Timeout: cfg.Game.QueryTimeout,
	})
	if err != nil {
		slog.Error("failed to open game database", "error", err, "path", cfg.Game.DatabasePath)
		os.Exit(1)
	}
	defer executor.Close()
	if err := executor.Ping(initCtx); err != nil {
		slog.Error("game database not reachable", "error", err)
		os.Exit(1)
	}
	registry.Register("game_db", health.CheckFunc(executor.Ping))
	slog.Info("game database connected", "path", cfg.Game.DatabasePath)

	// Load level content
	catalog, err := levels.Load(cfg.Game.LevelsDir)
	if err != nil {
		slog.Error("failed to load levels", "error", err, "dir", cfg.Game.LevelsDir)
		os.Exit(1)
	}

	// Player progress store
	var store session.Store
	if cfg.Session.RedisAddress != "" {
		redisStore, err := session.NewRedisStore(
			cfg.Session.RedisAddress,
			cfg.Session.RedisPassword,
			cfg.Session.RedisDB,
			cfg.Session.ProgressTTL,
		)
		if err != nil {
			slog.Error("failed to connect to redis", "error", err)
			os.Exit(1)
		}
		store = redisStore
		registry.Register("redis", health.CheckFunc(redisStore.Ping))
		slog.Info("progress store: redis", "address", cfg.Session.RedisAddress)
	} else {
		store = session.NewMemoryStore()
		slog.Info("progress store: in-memory")
	}
	defer store.Close()

	// Analytics (optional)
	var recorder analytics.Recorder = analytics.NoopRecorder{}
	var reporter analytics.Reporter
	if cfg.Analytics.DSN != "" {
		slog.Info("running analytics migrations", "dir", cfg.Analytics.MigrationsDir)
		if err := analytics.MigrateFromDSN(initCtx, cfg.Analytics.DSN, cfg.Analytics.MigrationsDir); err != nil {
			slog.Error("failed to run analytics migrations", "error", err)
			os.Exit(1)
		}

		pgRecorder, err := analytics.NewPostgresRecorder(initCtx, analytics.PostgresConfig{
			DSN: cfg.Analytics.DSN,
		})
		if err != nil {
			slog.Error("failed to connect to analytics database", "error", err)
			os.Exit(1)
		}
		recorder = pgRecorder
		reporter = pgRecorder
		registry.Register("analytics_db", health.CheckFunc(pgRecorder.Ping))
		slog.Info("analytics database connected")
	} else {
		slog.Info("analytics disabled")
	}
	defer recorder.Close()

	// Game service
	svc := game.NewService(catalog, executor, store, recorder)
	slog.Info("game service ready", "levels", catalog.Count())

	// Create context with cancellation
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Start stale session cleanup
	cleaner := cleanup.NewCleaner(recorder, cfg.Cleanup.Interval, cfg.Cleanup.IdleWindow)
	cleaner.Start(ctx)

	// Setup HTTP server
	server := api.NewServer(cfg.Server, svc, reporter, registry, recorder)
	httpServer := &http.Server{
		Addr:         fmt.Sprintf("%s:%d", cfg.Server.Host, cfg.Server.Port),
		Handler:      server.Router(),
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	// Start server in goroutine
	go func() {
		slog.Info("HTTP server starting", "addr", httpServer.Addr)
		if err := httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			slog.Error("HTTP server error", "error", err)
			os.Exit(1)
		}
	}()

	// Wait for interrupt signal
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	slog.Info("shutting down gracefully...")

	// Cancel context to stop background workers
	cancel()

	// Shutdown HTTP server with timeout
	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer shutdownCancel()

	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		slog.Error("HTTP server shutdown error", "error", err)
	}

	slog.Info("sql-detective stopped")
}
