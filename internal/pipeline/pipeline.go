package pipeline

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/url"
	"time"

	"github.com/nikhilbhutani/chunkscribe/internal/audio"
	"github.com/nikhilbhutani/chunkscribe/internal/transcription"
)

var (
	ErrMissingSource = errors.New("missing url parameter")
	ErrInvalidSource = errors.New("invalid url parameter")
)

// Fetcher retrieves the raw source audio.
type Fetcher interface {
	Fetch(ctx context.Context, url string) ([]byte, error)
}

// Observer is notified of state transitions and per-segment outcomes.
type Observer interface {
	StateChanged(state State)
	SegmentFinished(result SegmentResult, elapsed time.Duration)
}

type Config struct {
	ChunkSize int
	Defaults  transcription.Options
}

// Pipeline fetches audio, splits it into fixed-size segments and transcribes
// them one at a time. A failed segment is replaced by Placeholder and never
// stops the run; only a failed fetch does.
type Pipeline struct {
	fetcher     Fetcher
	transcriber transcription.Transcriber
	chunkSize   int
	defaults    transcription.Options
	observer    Observer
	logger      *slog.Logger
}

func New(fetcher Fetcher, transcriber transcription.Transcriber, cfg Config) *Pipeline {
	chunkSize := cfg.ChunkSize
	if chunkSize <= 0 {
		chunkSize = audio.DefaultChunkSize
	}
	return &Pipeline{
		fetcher:     fetcher,
		transcriber: transcriber,
		chunkSize:   chunkSize,
		defaults:    cfg.Defaults,
		logger:      slog.Default(),
	}
}

// WithObserver attaches o and returns p.
func (p *Pipeline) WithObserver(o Observer) *Pipeline {
	p.observer = o
	return p
}

// Defaults returns the task mode used when a request does not override it.
func (p *Pipeline) Defaults() transcription.Options { return p.defaults }

// ChunkSize returns the configured segment size in bytes.
func (p *Pipeline) ChunkSize() int { return p.chunkSize }

// ValidateSource rejects empty references and anything other than an
// absolute http(s) URL.
func ValidateSource(source string) error {
	if source == "" {
		return ErrMissingSource
	}
	u, err := url.Parse(source)
	if err != nil || (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
		return ErrInvalidSource
	}
	return nil
}

// Run transcribes the audio at source. The only errors returned are input
// errors (ErrMissingSource, ErrInvalidSource) and fetch failures.
func (p *Pipeline) Run(ctx context.Context, source string, opts transcription.Options) (*Transcript, error) {
	return p.RunWithChunkSize(ctx, source, p.chunkSize, opts)
}

// RunWithChunkSize is Run with a segment size for this run only. A
// non-positive chunkSize uses the configured one.
func (p *Pipeline) RunWithChunkSize(ctx context.Context, source string, chunkSize int, opts transcription.Options) (*Transcript, error) {
	if chunkSize <= 0 {
		chunkSize = p.chunkSize
	}
	if err := ValidateSource(source); err != nil {
		return nil, err
	}
	if opts.Task == "" {
		opts.Task = transcription.TaskTranscribe
	}

	start := time.Now()
	p.transition(StateFetching)
	data, err := p.fetcher.Fetch(ctx, source)
	if err != nil {
		p.transition(StateFailed)
		p.logger.Error("fetch audio failed", "source", source, "error", err)
		return nil, fmt.Errorf("fetch audio: %w", err)
	}

	p.transition(StateSegmenting)
	segments := audio.Split(data, chunkSize)
	p.logger.Info("transcription started",
		"source", source,
		"bytes", len(data),
		"segments", len(segments),
		"chunk_size", chunkSize,
		"backend", p.transcriber.Name(),
		"task", opts.Task,
	)

	results := make([]SegmentResult, len(segments))
	for i := range segments {
		p.transition(StateTranscribing)
		results[i] = p.transcribeSegment(ctx, segments[i], opts)
	}

	p.transition(StateAssembling)
	t := &Transcript{
		Source:    source,
		Bytes:     len(data),
		ChunkSize: chunkSize,
		Task:      opts.Task,
		Segments:  results,
	}
	p.transition(StateDone)

	p.logger.Info("transcription complete",
		"source", source,
		"segments", len(results),
		"failed", t.Failures(),
		"duration_ms", time.Since(start).Milliseconds(),
	)
	return t, nil
}

// transcribeSegment always yields exactly one result for seg.
func (p *Pipeline) transcribeSegment(ctx context.Context, seg audio.Segment, opts transcription.Options) (result SegmentResult) {
	start := time.Now()
	result.Index = seg.Index

	defer func() {
		if r := recover(); r != nil {
			result = failedResult(seg.Index, fmt.Errorf("panic: %v", r))
		}
		if result.Failed {
			p.logger.Warn("segment transcription failed", "segment", seg.Index, "error", result.Error)
		}
		if p.observer != nil {
			p.observer.SegmentFinished(result, time.Since(start))
		}
	}()

	res, err := p.transcriber.Transcribe(ctx, audio.Encode(seg.Data), opts)
	if err != nil {
		return failedResult(seg.Index, err)
	}
	if res == nil {
		return failedResult(seg.Index, fmt.Errorf("%w: empty result", transcription.ErrInference))
	}
	result.Text = res.Text
	return result
}

func failedResult(index int, err error) SegmentResult {
	return SegmentResult{
		Index:  index,
		Text:   Placeholder,
		Failed: true,
		Error:  err.Error(),
	}
}

func (p *Pipeline) transition(s State) {
	if p.observer != nil {
		p.observer.StateChanged(s)
	}
}
