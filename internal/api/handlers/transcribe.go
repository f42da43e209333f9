package handlers

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"net/url"
	"strconv"

	"github.com/nikhilbhutani/chunkscribe/internal/cache"
	"github.com/nikhilbhutani/chunkscribe/internal/fetch"
	"github.com/nikhilbhutani/chunkscribe/internal/pipeline"
	"github.com/nikhilbhutani/chunkscribe/internal/transcription"
)

// Runner is the transcription pipeline as seen by the HTTP layer.
type Runner interface {
	Run(ctx context.Context, source string, opts transcription.Options) (*pipeline.Transcript, error)
	Defaults() transcription.Options
	ChunkSize() int
}

// TranscriptCache stores successful transcripts between requests.
type TranscriptCache interface {
	Get(ctx context.Context, key string) (*pipeline.Transcript, error)
	Put(ctx context.Context, key string, t *pipeline.Transcript) error
}

// CacheObserver counts cache hits and misses.
type CacheObserver interface {
	CacheHit()
	CacheMiss()
}

type TranscribeHandler struct {
	runner  Runner
	cache   TranscriptCache
	metrics CacheObserver
}

func NewTranscribeHandler(runner Runner, tc TranscriptCache, obs CacheObserver) *TranscribeHandler {
	return &TranscribeHandler{runner: runner, cache: tc, metrics: obs}
}

// Transcribe fetches the audio named by the url query parameter and returns
// the assembled transcript as plain text, or as JSON with format=json.
// refresh=true bypasses the cache lookup.
func (h *TranscribeHandler) Transcribe(w http.ResponseWriter, r *http.Request) {
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

	ctx := r.Context()
	key := cache.TranscriptKey(source, h.runner.ChunkSize(), opts)
	if q.Get("refresh") != "true" {
		if t := h.cached(ctx, key); t != nil {
			writeTranscript(w, q.Get("format"), t)
			return
		}
	}

	t, err := h.runner.Run(ctx, source, opts)
	if err != nil {
		writeRunError(w, err)
		return
	}

	if h.cache != nil {
		if err := h.cache.Put(ctx, key, t); err != nil {
			slog.Warn("cache transcript failed", "error", err)
		}
	}

	writeTranscript(w, q.Get("format"), t)
}

func (h *TranscribeHandler) cached(ctx context.Context, key string) *pipeline.Transcript {
	if h.cache == nil {
		return nil
	}
	t, err := h.cache.Get(ctx, key)
	if err != nil {
		if !errors.Is(err, cache.ErrMiss) {
			slog.Warn("cache lookup failed", "error", err)
		}
		if h.metrics != nil {
			h.metrics.CacheMiss()
		}
		return nil
	}
	if h.metrics != nil {
		h.metrics.CacheHit()
	}
	return t
}

// optionsFromQuery overlays task-mode query parameters on defaults.
func optionsFromQuery(q url.Values, defaults transcription.Options) (transcription.Options, error) {
	opts := defaults
	if v := q.Get("task"); v != "" {
		task, err := transcription.ParseTask(v)
		if err != nil {
			return opts, errors.New("invalid task parameter")
		}
		opts.Task = task
	}
	if v := q.Get("language"); v != "" {
		opts.Language = v
	}
	if v := q.Get("vad_filter"); v != "" {
		b, err := strconv.ParseBool(v)
		if err != nil {
			return opts, errors.New("invalid vad_filter parameter")
		}
		opts.VADFilter = b
	}
	if v := q.Get("initial_prompt"); v != "" {
		opts.InitialPrompt = v
	}
	if v := q.Get("prefix"); v != "" {
		opts.Prefix = v
	}
	return opts, nil
}

func writeRunError(w http.ResponseWriter, err error) {
	var fe *fetch.Error
	switch {
	case errors.Is(err, pipeline.ErrMissingSource), errors.Is(err, pipeline.ErrInvalidSource):
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": err.Error()})
	case errors.As(err, &fe):
		writeJSON(w, http.StatusBadGateway, map[string]string{"error": err.Error()})
	default:
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": err.Error()})
	}
}

func writeTranscript(w http.ResponseWriter, format string, t *pipeline.Transcript) {
	if format == "json" {
		writeJSON(w, http.StatusOK, map[string]interface{}{
			"text":       t.Text(),
			"transcript": t,
			"failed":     t.Failures(),
		})
		return
	}
	writeText(w, http.StatusOK, t.Text())
}
