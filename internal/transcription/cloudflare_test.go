package transcription

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
)

func newCloudflareServer(t *testing.T, handler http.HandlerFunc) *CloudflareTranscriber {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)
	return NewCloudflareTranscriber(CloudflareConfig{
		AccountID: "acct",
		APIToken:  "token",
		BaseURL:   srv.URL,
		Model:     "@cf/openai/whisper",
	})
}

func TestCloudflareTranscribeSendsPayload(t *testing.T) {
	var got map[string]any
	client := newCloudflareServer(t, func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost {
			t.Errorf("expected POST, got %s", r.Method)
		}
		if r.URL.Path != "/accounts/acct/ai/run/@cf/openai/whisper" {
			t.Errorf("unexpected path %q", r.URL.Path)
		}
		if auth := r.Header.Get("Authorization"); auth != "Bearer token" {
			t.Errorf("unexpected authorization %q", auth)
		}
		if err := json.NewDecoder(r.Body).Decode(&got); err != nil {
			t.Errorf("decode body: %v", err)
		}
		w.Write([]byte(`{"success":true,"errors":[],"result":{"text":"hello world","word_count":2}}`))
	})

	res, err := client.Transcribe(context.Background(), "AAEC", Options{
		Task:      TaskTranslate,
		Language:  "fr",
		VADFilter: true,
		Prefix:    "intro",
	})
	if err != nil {
		t.Fatalf("Transcribe returned error: %v", err)
	}
	if res.Text != "hello world" {
		t.Fatalf("expected text %q, got %q", "hello world", res.Text)
	}
	if got["audio"] != "AAEC" || got["task"] != "translate" || got["language"] != "fr" {
		t.Fatalf("unexpected payload %v", got)
	}
	if got["vad_filter"] != true || got["prefix"] != "intro" {
		t.Fatalf("unexpected hints in payload %v", got)
	}
	if _, ok := got["initial_prompt"]; ok {
		t.Fatalf("empty initial_prompt should be omitted: %v", got)
	}
}

func TestCloudflareTranscribeDefaultsTask(t *testing.T) {
	var got map[string]any
	client := newCloudflareServer(t, func(w http.ResponseWriter, r *http.Request) {
		json.NewDecoder(r.Body).Decode(&got)
		w.Write([]byte(`{"success":true,"result":{"text":"x"}}`))
	})

	if _, err := client.Transcribe(context.Background(), "AA==", Options{}); err != nil {
		t.Fatalf("Transcribe returned error: %v", err)
	}
	if got["task"] != "transcribe" {
		t.Fatalf("expected task transcribe, got %v", got["task"])
	}
}

func TestCloudflareTranscribeFallsBackToSerializedResult(t *testing.T) {
	client := newCloudflareServer(t, func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"success":true,"result":{"segments": [ {"t": 1} ]}}`))
	})

	res, err := client.Transcribe(context.Background(), "AA==", Options{})
	if err != nil {
		t.Fatalf("Transcribe returned error: %v", err)
	}
	if res.Text != `{"segments":[{"t":1}]}` {
		t.Fatalf("unexpected fallback text %q", res.Text)
	}
}

func TestCloudflareTranscribeFailures(t *testing.T) {
	cases := []struct {
		name   string
		status int
		body   string
	}{
		{"server error", http.StatusInternalServerError, `{"success":false}`},
		{"malformed json", http.StatusOK, `{"success":tru`},
		{"unsuccessful", http.StatusOK, `{"success":false,"errors":[{"code":5006,"message":"bad audio"}]}`},
		{"null result", http.StatusOK, `{"success":true,"result":null}`},
		{"missing result", http.StatusOK, `{"success":true}`},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			calls := 0
			client := newCloudflareServer(t, func(w http.ResponseWriter, r *http.Request) {
				calls++
				w.WriteHeader(tc.status)
				w.Write([]byte(tc.body))
			})

			res, err := client.Transcribe(context.Background(), "AA==", Options{})
			if err == nil {
				t.Fatalf("expected error, got result %+v", res)
			}
			if !errors.Is(err, ErrInference) {
				t.Fatalf("expected ErrInference, got %v", err)
			}
			if res != nil {
				t.Fatalf("expected nil result on failure, got %+v", res)
			}
			if calls != 1 {
				t.Fatalf("expected exactly one call, got %d", calls)
			}
		})
	}
}

func TestCloudflareTranscribeUnreachable(t *testing.T) {
	srv := httptest.NewServer(http.NotFoundHandler())
	url := srv.URL
	srv.Close()

	client := NewCloudflareTranscriber(CloudflareConfig{AccountID: "acct", BaseURL: url})
	_, err := client.Transcribe(context.Background(), "AA==", Options{})
	if !errors.Is(err, ErrInference) {
		t.Fatalf("expected ErrInference, got %v", err)
	}
}
