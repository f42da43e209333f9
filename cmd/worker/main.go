package main

import (
	"context"
	"errors"
	"log/slog"
	"os"

	"github.com/hibiken/asynq"
	"github.com/joho/godotenv"

	"github.com/nikhilbhutani/chunkscribe/internal/config"
	"github.com/nikhilbhutani/chunkscribe/internal/database"
	"github.com/nikhilbhutani/chunkscribe/internal/jobs"
	"github.com/nikhilbhutani/chunkscribe/internal/pipeline"
	"github.com/nikhilbhutani/chunkscribe/internal/queue"
	"github.com/nikhilbhutani/chunkscribe/internal/queue/workers"
	"github.com/nikhilbhutani/chunkscribe/internal/storage"
)

const concurrency = 4

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

	// The worker has nothing to do without the jobs table.
	db, err := database.NewPool(context.Background(), cfg.Database)
	if err != nil {
		slog.Error("database unavailable", "error", err)
		os.Exit(1)
	}
	defer db.Close()

	p, err := pipeline.FromConfig(cfg)
	if err != nil {
		slog.Error("failed to build pipeline", "error", err)
		os.Exit(1)
	}

	client := queue.NewClient(cfg.Redis)
	defer client.Close()

	jobSvc := jobs.NewService(db, client, storage.FromConfig(cfg.Storage), cfg.Storage.Bucket)

	// Jobs run concurrently; segments within a job stay sequential.
	srv := asynq.NewServer(
		queue.RedisOpt(cfg.Redis),
		asynq.Config{
			Concurrency: concurrency,
		},
	)

	registry := queue.NewHandlersRegistry()

	// Register workers
	transcriptionWorker := workers.NewTranscriptionWorker(jobSvc, p)
	registry.Register(queue.TypeTranscriptionRun, asynq.HandlerFunc(transcriptionWorker.ProcessTask))

	slog.Info("starting worker",
		"concurrency", concurrency,
		"backend", cfg.Inference.Backend,
		"chunk_size", cfg.Pipeline.ChunkSize,
	)
	if err := srv.Run(registry.Mux()); err != nil {
		slog.Error("worker error", "error", err)
		os.Exit(1)
	}
}
