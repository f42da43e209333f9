package transcription

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"
)

// CloudflareConfig holds configuration for the Workers AI backend.
type CloudflareConfig struct {
	AccountID string
	APIToken  string
	BaseURL   string // default: "https://api.cloudflare.com/client/v4"
	Model     string // default: "@cf/openai/whisper-large-v3-turbo"
	Timeout   time.Duration
}

// CloudflareTranscriber runs whisper on Cloudflare Workers AI.
// POST {base}/accounts/{account_id}/ai/run/{model} with a bearer token.
type CloudflareTranscriber struct {
	cfg        CloudflareConfig
	httpClient *http.Client
}

// NewCloudflareTranscriber creates a CloudflareTranscriber with defaults applied.
func NewCloudflareTranscriber(cfg CloudflareConfig) *CloudflareTranscriber {
	if cfg.BaseURL == "" {
		cfg.BaseURL = "https://api.cloudflare.com/client/v4"
	}
	if cfg.Model == "" {
		cfg.Model = "@cf/openai/whisper-large-v3-turbo"
	}
	return &CloudflareTranscriber{
		cfg:        cfg,
		httpClient: &http.Client{Timeout: cfg.Timeout},
	}
}

func (c *CloudflareTranscriber) Name() string { return "cloudflare-whisper" }

type cfRequest struct {
	Audio string `json:"audio"`
	Options
}

type cfResponse struct {
	Success bool            `json:"success"`
	Errors  json.RawMessage `json:"errors"`
	Result  json.RawMessage `json:"result"`
}

func (c *CloudflareTranscriber) Transcribe(ctx context.Context, audio string, opts Options) (*Result, error) {
	if opts.Task == "" {
		opts.Task = TaskTranscribe
	}
	payload, err := json.Marshal(cfRequest{Audio: audio, Options: opts})
	if err != nil {
		return nil, fmt.Errorf("%w: marshal request: %v", ErrInference, err)
	}

	url := fmt.Sprintf("%s/accounts/%s/ai/run/%s", c.cfg.BaseURL, c.cfg.AccountID, c.cfg.Model)
	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(payload))
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInference, err)
	}
	httpReq.Header.Set("Content-Type", "application/json")
	if c.cfg.APIToken != "" {
		httpReq.Header.Set("Authorization", "Bearer "+c.cfg.APIToken)
	}

	resp, err := c.httpClient.Do(httpReq)
	if err != nil {
		return nil, fmt.Errorf("%w: request: %v", ErrInference, err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("%w: read response: %v", ErrInference, err)
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, fmt.Errorf("%w: status %d: %s", ErrInference, resp.StatusCode, string(body))
	}

	var cr cfResponse
	if err := json.Unmarshal(body, &cr); err != nil {
		return nil, fmt.Errorf("%w: parse response: %v", ErrInference, err)
	}
	if !cr.Success {
		return nil, fmt.Errorf("%w: unsuccessful response: %s", ErrInference, string(cr.Errors))
	}

	text, err := extractText(cr.Result)
	if err != nil {
		return nil, err
	}
	return &Result{Text: text, Raw: cr.Result}, nil
}
