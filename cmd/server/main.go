package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"net/url"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/joho/godotenv"

	"github.com/JonMunkholm/keymerge/internal/config"
	"github.com/JonMunkholm/keymerge/internal/core"
	"github.com/JonMunkholm/keymerge/internal/history"
	"github.com/JonMunkholm/keymerge/internal/logging"
	"github.com/JonMunkholm/keymerge/internal/web"
)

func main() {
	// Load .env file if it exists (Overload overwrites existing env vars)
	if err := godotenv.Overload(); err != nil {
		slog.Info("no .env file found, using environment variables")
	} else {
		slog.Info("loaded .env file (overwriting existing env vars)")
	}

	cfg, err := config.Load()
	if err != nil {
		slog.Error("failed to load configuration", "error", err)
		os.Exit(1)
	}

	logging.Setup(cfg.Logging.Level, cfg.Logging.Format)

	slog.Info("configuration loaded",
		"port", cfg.Server.Port,
		"history", historyBackend(cfg),
		"merge_cell_budget", cfg.Upload.MergeCellBudget,
		"rate_limit_enabled", cfg.Rate.Enabled,
		"min_overlap", cfg.Scoring.MinOverlap,
	)

	ctx := context.Background()

	recorder, closeRecorder, err := openHistory(ctx, cfg)
	if err != nil {
		slog.Error("failed to open merge history", "error", err)
		os.Exit(1)
	}
	defer closeRecorder()

	limiter := core.NewMergeLimiter(cfg.Upload.MergeCellBudget, cfg.Upload.MaxWaitTime)
	service := core.NewService(cfg.Scoring.Core(), limiter, recorder)
	server := web.NewServer(service, cfg)

	// Graceful shutdown
	done := make(chan struct{})
	go func() {
		defer close(done)

		sigCh := make(chan os.Signal, 1)
		signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
		<-sigCh

		slog.Info("shutting down...")

		shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
		defer cancel()

		// Let running merges finish before the listener goes away
		if status := limiter.Status(); status.Active > 0 {
			slog.Info("waiting for merges to complete", "active", status.Active)
			if err := limiter.WaitForDrain(shutdownCtx); err != nil {
				slog.Warn("merges did not complete in time", "error", err)
			} else {
				slog.Info("all merges completed")
			}
		}

		if err := server.Shutdown(shutdownCtx); err != nil {
			slog.Error("shutdown error", "error", err)
		}
	}()

	if err := server.Start(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		slog.Error("server failed", "error", err)
		closeRecorder()
		os.Exit(1)
	}
	<-done
	slog.Info("server stopped")
}

func historyBackend(cfg *config.Config) string {
	if cfg.Database.Enabled() {
		return "postgres"
	}
	return "memory"
}

// openHistory connects to Postgres when DATABASE_URL is set and keeps
// history in memory otherwise. The returned func releases the pool.
func openHistory(ctx context.Context, cfg *config.Config) (core.Recorder, func(), error) {
	if !cfg.Database.Enabled() {
		return history.NewMemoryStore(cfg.Database.HistorySize), func() {}, nil
	}

	poolConfig, err := pgxpool.ParseConfig(cfg.Database.URL)
	if err != nil {
		return nil, nil, err
	}
	poolConfig.MaxConns = int32(cfg.Database.MaxConns)
	poolConfig.MinConns = int32(cfg.Database.MinConns)
	poolConfig.MaxConnLifetime = cfg.Database.MaxConnLifetime
	poolConfig.MaxConnIdleTime = cfg.Database.MaxConnIdleTime

	pool, err := pgxpool.NewWithConfig(ctx, poolConfig)
	if err != nil {
		return nil, nil, err
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, nil, err
	}

	if u, err := url.Parse(cfg.Database.URL); err == nil {
		slog.Info("connected to database", "name", strings.TrimPrefix(u.Path, "/"))
	} else {
		slog.Info("connected to database")
	}

	store, err := history.NewPostgresStore(ctx, pool)
	if err != nil {
		pool.Close()
		return nil, nil, err
	}
	return store, pool.Close, nil
}
