package main

import (
	"context"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/JonMunkholm/colmap/internal/catalog"
	"github.com/JonMunkholm/colmap/internal/config"
	"github.com/JonMunkholm/colmap/internal/logging"
	"github.com/JonMunkholm/colmap/internal/mapping"
	"github.com/JonMunkholm/colmap/internal/web"
)

func main() {
	// Load .env file if it exists (Overload overwrites existing env vars)
	if err := config.LoadDotenv(".env"); err != nil {
		slog.Error("failed to read .env", "error", err)
		os.Exit(1)
	}

	// Load and validate configuration
	cfg, err := config.Load()
	if err != nil {
		slog.Error("failed to load configuration", "error", err)
		os.Exit(1)
	}

	// Setup structured logging based on config
	logging.Setup(cfg.Logging.Level, cfg.Logging.Format)

	slog.Info("configuration loaded", "config", cfg.String())

	if err := catalog.Load(cfg.Catalog.Dir); err != nil {
		slog.Error("failed to load catalogs", "dir", cfg.Catalog.Dir, "error", err)
		os.Exit(1)
	}
	if _, ok := catalog.Get(cfg.Catalog.Default); !ok {
		slog.Warn("default catalog not registered", "catalog", cfg.Catalog.Default)
	}
	slog.Info("catalogs registered", "count", catalog.Count(), "keys", catalog.Keys())

	store := mapping.NewStore(cfg.Session.TTL, cfg.Match.Options())
	server := web.NewServer(cfg, store)

	// Create cancellable context for background jobs
	jobCtx, cancelJobs := context.WithCancel(context.Background())
	go store.Run(jobCtx, cfg.Session.SweepInterval)

	// Graceful shutdown
	stopped := make(chan struct{})
	go func() {
		defer close(stopped)
		sigCh := make(chan os.Signal, 1)
		signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
		<-sigCh

		slog.Info("shutting down...")
		cancelJobs()

		shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
		defer cancel()

		if err := server.Shutdown(shutdownCtx); err != nil {
			slog.Error("shutdown error", "error", err)
		}
	}()

	if err := server.Start(); err != nil {
		slog.Error("server stopped", "error", err)
		os.Exit(1)
	}
	<-stopped
	slog.Info("server stopped")
}
