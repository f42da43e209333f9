package models

import (
	"encoding/json"
	"time"

	"github.com/google/uuid"
)

type TranscriptionJob struct {
	ID             uuid.UUID       `json:"id" db:"id"`
	SourceURL      string          `json:"source_url" db:"source_url"`
	Status         string          `json:"status" db:"status"`
	Options        json.RawMessage `json:"options" db:"options"`
	ChunkSize      int             `json:"chunk_size" db:"chunk_size"`
	SegmentCount   int             `json:"segment_count" db:"segment_count"`
	FailedSegments int             `json:"failed_segments" db:"failed_segments"`
	Transcript     *string         `json:"-" db:"transcript"`
	StoragePath    *string         `json:"storage_path,omitempty" db:"storage_path"`
	Error          *string         `json:"error,omitempty" db:"error"`
	StartedAt      *time.Time      `json:"started_at,omitempty" db:"started_at"`
	CompletedAt    *time.Time      `json:"completed_at,omitempty" db:"completed_at"`
	CreatedAt      time.Time       `json:"created_at" db:"created_at"`
}

const (
	JobStatusPending    = "pending"
	JobStatusProcessing = "processing"
	JobStatusCompleted  = "completed"
	JobStatusFailed     = "failed"
)
