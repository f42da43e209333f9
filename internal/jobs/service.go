package jobs

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"strings"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"

	"github.com/nikhilbhutani/chunkscribe/internal/models"
	"github.com/nikhilbhutani/chunkscribe/internal/pipeline"
	"github.com/nikhilbhutani/chunkscribe/internal/queue"
	"github.com/nikhilbhutani/chunkscribe/internal/storage"
	"github.com/nikhilbhutani/chunkscribe/internal/transcription"
)

const jobColumns = `id, source_url, status, options, chunk_size, segment_count, failed_segments,
	transcript, storage_path, error, started_at, completed_at, created_at`

// Enqueuer schedules a job for the worker.
type Enqueuer interface {
	EnqueueTranscriptionRun(payload queue.TranscriptionRunPayload) error
}

// DB is the part of *pgxpool.Pool the service uses.
type DB interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

// Service persists asynchronous transcription jobs.
type Service struct {
	db      DB
	queue   Enqueuer
	storage storage.Storage
	bucket  string
}

func NewService(db DB, q Enqueuer, store storage.Storage, bucket string) *Service {
	return &Service{
		db:      db,
		queue:   q,
		storage: store,
		bucket:  bucket,
	}
}

type CreateRequest struct {
	SourceURL string
	ChunkSize int
	Options   transcription.Options
}

func (s *Service) Create(ctx context.Context, req CreateRequest) (*models.TranscriptionJob, error) {
	opts, err := json.Marshal(req.Options)
	if err != nil {
		return nil, fmt.Errorf("marshal options: %w", err)
	}

	job, err := scanJob(s.db.QueryRow(ctx,
		`INSERT INTO transcription_jobs (id, source_url, status, options, chunk_size)
		 VALUES ($1, $2, $3, $4, $5)
		 RETURNING `+jobColumns,
		uuid.New(), req.SourceURL, models.JobStatusPending, opts, req.ChunkSize,
	))
	if err != nil {
		return nil, fmt.Errorf("insert job: %w", err)
	}

	if err := s.queue.EnqueueTranscriptionRun(queue.TranscriptionRunPayload{JobID: job.ID.String()}); err != nil {
		if ferr := s.Fail(ctx, job.ID, "enqueue failed"); ferr != nil {
			slog.Error("failed to record job failure", "job_id", job.ID, "error", ferr)
		}
		return nil, fmt.Errorf("enqueue transcription job: %w", err)
	}

	return job, nil
}

func (s *Service) GetByID(ctx context.Context, id uuid.UUID) (*models.TranscriptionJob, error) {
	job, err := scanJob(s.db.QueryRow(ctx,
		`SELECT `+jobColumns+` FROM transcription_jobs WHERE id = $1`, id,
	))
	if err != nil {
		return nil, fmt.Errorf("get job: %w", err)
	}
	return job, nil
}

func (s *Service) List(ctx context.Context, limit, offset int) ([]models.TranscriptionJob, error) {
	rows, err := s.db.Query(ctx,
		`SELECT `+jobColumns+` FROM transcription_jobs ORDER BY created_at DESC LIMIT $1 OFFSET $2`,
		limit, offset,
	)
	if err != nil {
		return nil, fmt.Errorf("list jobs: %w", err)
	}
	defer rows.Close()

	var jobs []models.TranscriptionJob
	for rows.Next() {
		job, err := scanJob(rows)
		if err != nil {
			return nil, fmt.Errorf("scan job: %w", err)
		}
		jobs = append(jobs, *job)
	}
	return jobs, rows.Err()
}

// Start marks a job as processing.
func (s *Service) Start(ctx context.Context, id uuid.UUID) error {
	_, err := s.db.Exec(ctx,
		"UPDATE transcription_jobs SET status = $1, started_at = now() WHERE id = $2",
		models.JobStatusProcessing, id,
	)
	return err
}

// Complete stores the transcript on the job row, then archives it when
// storage is configured. A failed upload leaves storage_path NULL and does
// not fail the job.
func (s *Service) Complete(ctx context.Context, id uuid.UUID, t *pipeline.Transcript) error {
	text := t.Text()

	_, err := s.db.Exec(ctx,
		`UPDATE transcription_jobs
		 SET status = $1, transcript = $2, chunk_size = $3, segment_count = $4,
		     failed_segments = $5, completed_at = now()
		 WHERE id = $6`,
		models.JobStatusCompleted, text, t.ChunkSize, len(t.Segments), t.Failures(), id,
	)
	if err != nil {
		return fmt.Errorf("store transcript: %w", err)
	}

	if s.storage == nil {
		return nil
	}
	path := fmt.Sprintf("jobs/%s.txt", id)
	if err := s.storage.Upload(ctx, s.bucket, path, strings.NewReader(text), "text/plain; charset=UTF-8"); err != nil {
		slog.Warn("archive transcript failed", "job_id", id, "error", err)
		return nil
	}
	if _, err := s.db.Exec(ctx, "UPDATE transcription_jobs SET storage_path = $1 WHERE id = $2", path, id); err != nil {
		slog.Warn("record archive path failed", "job_id", id, "path", path, "error", err)
	}
	return nil
}

func (s *Service) Fail(ctx context.Context, id uuid.UUID, reason string) error {
	_, err := s.db.Exec(ctx,
		"UPDATE transcription_jobs SET status = $1, error = $2, completed_at = now() WHERE id = $3",
		models.JobStatusFailed, reason, id,
	)
	return err
}

func (s *Service) Delete(ctx context.Context, id uuid.UUID) error {
	job, err := s.GetByID(ctx, id)
	if err != nil {
		return err
	}

	if job.StoragePath != nil && s.storage != nil {
		if err := s.storage.Delete(ctx, s.bucket, *job.StoragePath); err != nil {
			slog.Warn("delete archived transcript failed", "job_id", id, "path", *job.StoragePath, "error", err)
		}
	}

	_, err = s.db.Exec(ctx, "DELETE FROM transcription_jobs WHERE id = $1", id)
	return err
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanJob(row rowScanner) (*models.TranscriptionJob, error) {
	var j models.TranscriptionJob
	err := row.Scan(&j.ID, &j.SourceURL, &j.Status, &j.Options, &j.ChunkSize, &j.SegmentCount, &j.FailedSegments,
		&j.Transcript, &j.StoragePath, &j.Error, &j.StartedAt, &j.CompletedAt, &j.CreatedAt)
	if err != nil {
		return nil, err
	}
	return &j, nil
}
