package workers

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"

	"github.com/google/uuid"
	"github.com/hibiken/asynq"

	"github.com/nikhilbhutani/chunkscribe/internal/jobs"
	"github.com/nikhilbhutani/chunkscribe/internal/models"
	"github.com/nikhilbhutani/chunkscribe/internal/pipeline"
	"github.com/nikhilbhutani/chunkscribe/internal/queue"
	"github.com/nikhilbhutani/chunkscribe/internal/transcription"
)

// JobStore is the subset of jobs.Service the worker needs.
type JobStore interface {
	GetByID(ctx context.Context, id uuid.UUID) (*models.TranscriptionJob, error)
	Start(ctx context.Context, id uuid.UUID) error
	Complete(ctx context.Context, id uuid.UUID, t *pipeline.Transcript) error
	Fail(ctx context.Context, id uuid.UUID, reason string) error
}

// Runner runs one transcription with the segment size recorded on the job.
type Runner interface {
	RunWithChunkSize(ctx context.Context, source string, chunkSize int, opts transcription.Options) (*pipeline.Transcript, error)
}

type TranscriptionWorker struct {
	jobs   JobStore
	runner Runner
}

func NewTranscriptionWorker(store JobStore, runner Runner) *TranscriptionWorker {
	return &TranscriptionWorker{
		jobs:   store,
		runner: runner,
	}
}

// ProcessTask runs the pipeline for a queued job. Failures are recorded on
// the job and reported with asynq.SkipRetry.
func (w *TranscriptionWorker) ProcessTask(ctx context.Context, t *asynq.Task) error {
	var payload queue.TranscriptionRunPayload
	if err := json.Unmarshal(t.Payload(), &payload); err != nil {
		return fmt.Errorf("unmarshal payload: %w: %w", err, asynq.SkipRetry)
	}

	jobID, err := uuid.Parse(payload.JobID)
	if err != nil {
		return fmt.Errorf("parse job ID: %w: %w", err, asynq.SkipRetry)
	}

	job, err := w.jobs.GetByID(ctx, jobID)
	if err != nil {
		return fmt.Errorf("get job: %w", err)
	}

	slog.Info("processing transcription job", "job_id", jobID, "source", job.SourceURL)

	if err := w.jobs.Start(ctx, jobID); err != nil {
		return fmt.Errorf("update status to processing: %w", err)
	}

	opts, err := jobs.Options(job)
	if err != nil {
		w.fail(ctx, jobID, err)
		return fmt.Errorf("%w: %w", err, asynq.SkipRetry)
	}

	result, err := w.runner.RunWithChunkSize(ctx, job.SourceURL, job.ChunkSize, opts)
	if err != nil {
		w.fail(ctx, jobID, err)
		return fmt.Errorf("run pipeline: %w: %w", err, asynq.SkipRetry)
	}

	if err := w.jobs.Complete(ctx, jobID, result); err != nil {
		w.fail(ctx, jobID, err)
		return fmt.Errorf("complete job: %w: %w", err, asynq.SkipRetry)
	}

	slog.Info("transcription job completed",
		"job_id", jobID,
		"segments", len(result.Segments),
		"failed", result.Failures(),
	)
	return nil
}

// fail records cause on the job. If that update also fails the job stays
// processing, so the error is logged.
func (w *TranscriptionWorker) fail(ctx context.Context, id uuid.UUID, cause error) {
	if err := w.jobs.Fail(ctx, id, cause.Error()); err != nil {
		slog.Error("failed to record job failure", "job_id", id, "cause", cause, "error", err)
	}
}
