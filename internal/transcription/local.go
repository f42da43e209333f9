package transcription

import "time"

// LocalConfig holds configuration for the local whisper.cpp backend.
type LocalConfig struct {
	BaseURL string // default: "http://localhost:8178"
	Timeout time.Duration
}

// LocalTranscriber wraps OpenAITranscriber pointing at a local whisper.cpp server.
// Start the server with: ./server -m models/ggml-base.en.bin --port 8178
type LocalTranscriber struct {
	*OpenAITranscriber
}

// NewLocalTranscriber creates a LocalTranscriber backed by a local whisper.cpp HTTP server.
func NewLocalTranscriber(cfg LocalConfig) *LocalTranscriber {
	baseURL := cfg.BaseURL
	if baseURL == "" {
		baseURL = "http://localhost:8178"
	}
	return &LocalTranscriber{
		OpenAITranscriber: NewOpenAITranscriber(OpenAIConfig{
			BaseURL: baseURL,
			Timeout: cfg.Timeout,
			// No API key needed for local server
		}),
	}
}

func (l *LocalTranscriber) Name() string { return "local-whisper" }
