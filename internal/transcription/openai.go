package transcription

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	openai "github.com/sashabaranov/go-openai"

	"github.com/nikhilbhutani/chunkscribe/internal/audio"
)

// OpenAIConfig holds configuration for the OpenAI whisper backend.
type OpenAIConfig struct {
	APIKey  string
	BaseURL string // default: "https://api.openai.com/v1"
	Model   string // default: "whisper-1"
	Timeout time.Duration
}

// OpenAITranscriber sends segments to OpenAI's audio API (or a compatible endpoint).
type OpenAITranscriber struct {
	client *openai.Client
	model  string
}

// NewOpenAITranscriber creates an OpenAITranscriber with defaults applied.
func NewOpenAITranscriber(cfg OpenAIConfig) *OpenAITranscriber {
	if cfg.Model == "" {
		cfg.Model = openai.Whisper1
	}
	clientCfg := openai.DefaultConfig(cfg.APIKey)
	if cfg.BaseURL != "" {
		clientCfg.BaseURL = cfg.BaseURL
	}
	clientCfg.HTTPClient = &http.Client{Timeout: cfg.Timeout}

	return &OpenAITranscriber{
		client: openai.NewClientWithConfig(clientCfg),
		model:  cfg.Model,
	}
}

func (o *OpenAITranscriber) Name() string { return "openai-whisper" }

// Transcribe decodes the segment and uploads it as the multipart file part.
// Prefix and VADFilter have no equivalent in this API and are ignored.
func (o *OpenAITranscriber) Transcribe(ctx context.Context, encoded string, opts Options) (*Result, error) {
	data, err := audio.Decode(encoded)
	if err != nil {
		return nil, fmt.Errorf("%w: decode segment: %v", ErrInference, err)
	}

	req := openai.AudioRequest{
		Model:    o.model,
		FilePath: "segment.bin",
		Reader:   bytes.NewReader(data),
		Prompt:   opts.InitialPrompt,
		Format:   openai.AudioResponseFormatJSON,
	}

	var resp openai.AudioResponse
	switch opts.Task {
	case TaskTranslate:
		resp, err = o.client.CreateTranslation(ctx, req)
	default:
		req.Language = opts.Language
		resp, err = o.client.CreateTranscription(ctx, req)
	}
	if err != nil {
		return nil, fmt.Errorf("%w: openai audio: %v", ErrInference, err)
	}

	result := &Result{Text: resp.Text}
	if raw, err := json.Marshal(resp); err == nil {
		result.Raw = raw
	}
	return result, nil
}
