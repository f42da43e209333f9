package pipeline

import (
	"github.com/nikhilbhutani/chunkscribe/internal/config"
	"github.com/nikhilbhutani/chunkscribe/internal/fetch"
	"github.com/nikhilbhutani/chunkscribe/internal/transcription"
)

// FromConfig wires a Pipeline with the HTTP fetcher and the configured backend.
func FromConfig(cfg *config.Config) (*Pipeline, error) {
	tr, err := transcription.New(cfg.Inference)
	if err != nil {
		return nil, err
	}
	f := fetch.New(fetch.Config{
		Timeout:      cfg.Fetch.Timeout,
		MaxRedirects: cfg.Fetch.MaxRedirects,
		MaxBytes:     cfg.Fetch.MaxBytes,
	})
	return New(f, tr, Config{
		ChunkSize: cfg.Pipeline.ChunkSize,
		Defaults:  transcription.DefaultOptions(cfg.Pipeline),
	}), nil
}
