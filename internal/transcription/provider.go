package transcription

import (
	"context"
	"encoding/json"
	"errors"
)

// ErrInference is wrapped by every failure a Transcriber reports.
var ErrInference = errors.New("inference failed")

// Task selects between same-language transcription and translation.
type Task string

const (
	TaskTranscribe Task = "transcribe"
	TaskTranslate  Task = "translate"
)

// ParseTask returns the task named by s. Empty means transcribe.
func ParseTask(s string) (Task, error) {
	switch Task(s) {
	case "", TaskTranscribe:
		return TaskTranscribe, nil
	case TaskTranslate:
		return TaskTranslate, nil
	default:
		return "", errors.New("unknown task " + s)
	}
}

// Options holds the task mode and optional hints for one inference call.
type Options struct {
	Task          Task   `json:"task"`
	Language      string `json:"language,omitempty"`
	VADFilter     bool   `json:"vad_filter,omitempty"`
	InitialPrompt string `json:"initial_prompt,omitempty"`
	Prefix        string `json:"prefix,omitempty"`
}

// Result holds the recognized text of one segment.
type Result struct {
	Text string          `json:"text"`
	Raw  json.RawMessage `json:"raw,omitempty"`
}

// Transcriber is the interface for speech-to-text backends. Audio is the
// base64 encoded segment. Implementations make exactly one backend call
// per invocation and never retry.
type Transcriber interface {
	Transcribe(ctx context.Context, audio string, opts Options) (*Result, error)
	Name() string
}
