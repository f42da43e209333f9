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

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/joho/godotenv"
	"github.com/redis/go-redis/v9"

	"github.com/nikhilbhutani/chunkscribe/internal/api"
	"github.com/nikhilbhutani/chunkscribe/internal/config"
	"github.com/nikhilbhutani/chunkscribe/internal/database"
	"github.com/nikhilbhutani/chunkscribe/internal/metrics"
)

func main() {
	if err := godotenv.Load(); err != nil && !errors.Is(err, os.ErrNotExist) {
		slog.Warn("could not read .env file", "error", err)
	}

	cfg, err := config.Load()
	if err != nil {
		slog.Error("failed to load config", "error", err)
		os.Exit(1)
	}

	logger := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: cfg.SlogLevel()}))
	slog.SetDefault(logger)

	if err := cfg.Validate(); err != nil {
		slog.Error("invalid config", "error", err)
		os.Exit(1)
	}

	ctx := context.Background()

	// Database connection (optional, job routes are disabled without it)
	var db *pgxpool.Pool
	if pool, err := database.NewPool(ctx, cfg.Database); err != nil {
		slog.Warn("database unavailable, running without jobs", "error", err)
	} else {
		db = pool
		defer db.Close()

		if err := database.RunMigrations(ctx, db, os.DirFS(cfg.Database.MigrationsPath)); err != nil {
			slog.Warn("migrations failed", "error", err)
		}
	}

	// Redis connection (optional)
	var rdb *redis.Client
	client := redis.NewClient(&redis.Options{
		Addr:     cfg.Redis.Addr,
		Password: cfg.Redis.Password,
		DB:       cfg.Redis.DB,
	})
	if err := client.Ping(ctx).Err(); err != nil {
		slog.Warn("redis unavailable, running without cache", "error", err)
		client.Close()
	} else {
		rdb = client
		defer rdb.Close()
	}

	router, err := api.NewRouter(db, rdb, cfg, metrics.New())
	if err != nil {
		slog.Error("failed to build router", "error", err)
		os.Exit(1)
	}
	defer router.Close()

	// No write timeout: a long recording is transcribed within one request.
	srv := &http.Server{
		Addr:              cfg.Addr(),
		Handler:           router.Setup(),
		ReadHeaderTimeout: 15 * time.Second,
		IdleTimeout:       120 * time.Second,
	}

	go func() {
		slog.Info("starting API server",
			"addr", cfg.Addr(),
			"backend", cfg.Inference.Backend,
			"chunk_size", cfg.Pipeline.ChunkSize,
		)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			slog.Error("server error", "error", err)
			os.Exit(1)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	slog.Info("shutting down server...")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		slog.Error("server forced shutdown", "error", err)
	}
	slog.Info("server stopped")
}
