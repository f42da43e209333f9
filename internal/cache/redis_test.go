package cache

import (
	"testing"

	"github.com/nikhilbhutani/chunkscribe/internal/transcription"
)

func TestTranscriptKeyStable(t *testing.T) {
	opts := transcription.Options{Task: transcription.TaskTranscribe, Language: "en"}
	a := TranscriptKey("https://example.com/a.mp3", 1024, opts)
	b := TranscriptKey("https://example.com/a.mp3", 1024, opts)
	if a != b {
		t.Fatalf("expected identical keys, got %q and %q", a, b)
	}
	if len(a) != len("transcript:")+64 {
		t.Fatalf("unexpected key %q", a)
	}
}

func TestTranscriptKeyDistinguishesInputs(t *testing.T) {
	base := transcription.Options{Task: transcription.TaskTranscribe}
	keys := map[string]string{
		"base":      TranscriptKey("https://example.com/a", 1024, base),
		"source":    TranscriptKey("https://example.com/b", 1024, base),
		"chunk":     TranscriptKey("https://example.com/a", 2048, base),
		"task":      TranscriptKey("https://example.com/a", 1024, transcription.Options{Task: transcription.TaskTranslate}),
		"vad":       TranscriptKey("https://example.com/a", 1024, transcription.Options{Task: transcription.TaskTranscribe, VADFilter: true}),
		"prompt":    TranscriptKey("https://example.com/a", 1024, transcription.Options{Task: transcription.TaskTranscribe, InitialPrompt: "x"}),
		"prefix":    TranscriptKey("https://example.com/a", 1024, transcription.Options{Task: transcription.TaskTranscribe, Prefix: "x"}),
		"separator": TranscriptKey("https://example.com/a", 1024, transcription.Options{Task: transcription.TaskTranscribe, Language: "x", InitialPrompt: ""}),
	}
	seen := map[string]string{}
	for name, key := range keys {
		if other, ok := seen[key]; ok {
			t.Fatalf("%s and %s produced the same key", name, other)
		}
		seen[key] = name
	}
}
