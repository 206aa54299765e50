package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"vidsnap/internal/server/api"
	"vidsnap/internal/server/config"
	"vidsnap/internal/server/database"
	"vidsnap/internal/server/metrics"
	"vidsnap/internal/server/provider"
	"vidsnap/internal/server/service"
)

func main() {
	// Load config
	cfg := config.Load()

	// Structured logging
	logger := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{
		Level: cfg.LogLevel,
	}))
	slog.SetDefault(logger)

	slog.Info("configuration loaded",
		"port", cfg.Port,
		"log_level", cfg.LogLevel,
		"allowed_origins", cfg.AllowedOrigins,
		"session_ttl", cfg.SessionTTL,
		"cleanup_interval", cfg.CleanupInterval,
		"rate_limit_rps", cfg.RateLimitRPS,
		"rate_limit_burst", cfg.RateLimitBurst,
	)

	// Connect to database
	ctx := context.Background()
	db, err := database.Open(ctx, cfg.DatabaseURL)
	if err != nil {
		slog.Error("failed to connect to database", "error", err)
		os.Exit(1)
	}
	defer db.Close()

	// Run migrations
	if err := db.RunMigrations(ctx); err != nil {
		slog.Error("failed to run migrations", "error", err)
		os.Exit(1)
	}
	slog.Info("database migrations complete")

	// Initialize services
	store := db.Store()
	youtube := provider.NewYouTube(provider.NewClient(cfg.YouTubeChunkSize))
	history := service.NewHistoryRecorder(store)
	videos := service.NewVideoService(youtube, history)
	auth := service.NewAuthService(store, store, cfg.SessionTTL)

	// Start session sweeper
	sweepCtx, sweepCancel := context.WithCancel(context.Background())
	sweeper := service.NewSessionSweeper(store, cfg.CleanupInterval)
	sweeper.Start(sweepCtx)

	// Setup HTTP router
	handler := api.NewHandler(videos, history, auth, db, metrics.New(), cfg.SessionSecure)
	e := api.SetupRouter(handler, cfg)

	// Start server in a goroutine
	go func() {
		addr := fmt.Sprintf(":%s", cfg.Port)
		slog.Info("starting server", "addr", addr)
		if err := e.Start(addr); err != nil {
			slog.Info("server stopped", "reason", err)
		}
	}()

	// Graceful shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	sig := <-quit

	slog.Info("shutting down", "signal", sig)

	// Stop accepting new requests, finish in-flight with 30s timeout
	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer shutdownCancel()

	if err := e.Shutdown(shutdownCtx); err != nil {
		slog.Error("server forced to shutdown", "error", err)
	}

	// Stop session sweeper
	sweepCancel()
	sweeper.Wait()

	slog.Info("server exited cleanly")
}
