package handlers

import (
	"context"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/nikhilbhutani/chunkscribe/internal/jobs"
	"github.com/nikhilbhutani/chunkscribe/internal/models"
	"github.com/nikhilbhutani/chunkscribe/internal/pipeline"
)

// JobService is the subset of jobs.Service the job routes need.
type JobService interface {
	Create(ctx context.Context, req jobs.CreateRequest) (*models.TranscriptionJob, error)
	GetByID(ctx context.Context, id uuid.UUID) (*models.TranscriptionJob, error)
	List(ctx context.Context, limit, offset int) ([]models.TranscriptionJob, error)
	Delete(ctx context.Context, id uuid.UUID) error
}

type JobHandler struct {
	svc    JobService
	runner Runner
}

func NewJobHandler(svc JobService, runner Runner) *JobHandler {
	return &JobHandler{svc: svc, runner: runner}
}

// Create queues an asynchronous transcription of the url query parameter.
func (h *JobHandler) Create(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	source := q.Get("url")
	if err := pipeline.ValidateSource(source); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": err.Error()})
		return
	}

	opts, err := optionsFromQuery(q, h.runner.Defaults())
	if err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": err.Error()})
		return
	}

	job, err := h.svc.Create(r.Context(), jobs.CreateRequest{
		SourceURL: source,
		ChunkSize: h.runner.ChunkSize(),
		Options:   opts,
	})
	if err != nil {
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": err.Error()})
		return
	}

	writeJSON(w, http.StatusAccepted, job)
}

func (h *JobHandler) List(w http.ResponseWriter, r *http.Request) {
	limit, _ := strconv.Atoi(r.URL.Query().Get("limit"))
	offset, _ := strconv.Atoi(r.URL.Query().Get("offset"))
	if limit <= 0 || limit > 100 {
		limit = 20
	}
	if offset < 0 {
		offset = 0
	}

	list, err := h.svc.List(r.Context(), limit, offset)
	if err != nil {
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": err.Error()})
		return
	}

	writeJSON(w, http.StatusOK, map[string]interface{}{"jobs": list, "count": len(list)})
}

func (h *JobHandler) Get(w http.ResponseWriter, r *http.Request) {
	job, ok := h.lookup(w, r)
	if !ok {
		return
	}
	writeJSON(w, http.StatusOK, job)
}

// Transcript returns the finished transcript as plain text.
func (h *JobHandler) Transcript(w http.ResponseWriter, r *http.Request) {
	job, ok := h.lookup(w, r)
	if !ok {
		return
	}
	if job.Status != models.JobStatusCompleted || job.Transcript == nil {
		writeJSON(w, http.StatusConflict, map[string]string{"id": job.ID.String(), "status": job.Status})
		return
	}
	writeText(w, http.StatusOK, *job.Transcript)
}

func (h *JobHandler) Delete(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid job ID"})
		return
	}

	if err := h.svc.Delete(r.Context(), id); err != nil {
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": err.Error()})
		return
	}

	writeJSON(w, http.StatusOK, map[string]string{"status": "deleted"})
}

func (h *JobHandler) lookup(w http.ResponseWriter, r *http.Request) (*models.TranscriptionJob, bool) {
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid job ID"})
		return nil, false
	}

	job, err := h.svc.GetByID(r.Context(), id)
	if err != nil {
		writeJSON(w, http.StatusNotFound, map[string]string{"error": "job not found"})
		return nil, false
	}
	return job, true
}
