package transcription

import (
	"fmt"

	"github.com/nikhilbhutani/chunkscribe/internal/config"
)

// New builds the Transcriber selected by cfg.Backend.
func New(cfg config.InferenceConfig) (Transcriber, error) {
	switch cfg.Backend {
	case "", "cloudflare":
		return NewCloudflareTranscriber(CloudflareConfig{
			AccountID: cfg.CloudflareAccountID,
			APIToken:  cfg.CloudflareAPIToken,
			BaseURL:   cfg.CloudflareBaseURL,
			Model:     cfg.CloudflareModel,
			Timeout:   cfg.Timeout,
		}), nil
	case "openai":
		return NewOpenAITranscriber(OpenAIConfig{
			APIKey:  cfg.OpenAIKey,
			BaseURL: cfg.OpenAIBaseURL,
			Model:   cfg.OpenAIModel,
			Timeout: cfg.Timeout,
		}), nil
	case "local":
		return NewLocalTranscriber(LocalConfig{
			BaseURL: cfg.LocalBaseURL,
			Timeout: cfg.Timeout,
		}), nil
	default:
		return nil, fmt.Errorf("unknown inference backend %q", cfg.Backend)
	}
}

// DefaultOptions returns the task mode configured for the pipeline.
func DefaultOptions(cfg config.PipelineConfig) Options {
	task, err := ParseTask(cfg.Task)
	if err != nil {
		task = TaskTranscribe
	}
	return Options{
		Task:          task,
		Language:      cfg.Language,
		VADFilter:     cfg.VADFilter,
		InitialPrompt: cfg.InitialPrompt,
		Prefix:        cfg.Prefix,
	}
}
