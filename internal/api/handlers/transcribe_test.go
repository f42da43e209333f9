package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"

	"github.com/nikhilbhutani/chunkscribe/internal/cache"
	"github.com/nikhilbhutani/chunkscribe/internal/fetch"
	"github.com/nikhilbhutani/chunkscribe/internal/pipeline"
	"github.com/nikhilbhutani/chunkscribe/internal/transcription"
)

type fakeRunner struct {
	transcript *pipeline.Transcript
	err        error
	calls      int
	opts       transcription.Options
}

func (f *fakeRunner) Run(ctx context.Context, source string, opts transcription.Options) (*pipeline.Transcript, error) {
	f.calls++
	f.opts = opts
	return f.transcript, f.err
}

func (f *fakeRunner) Defaults() transcription.Options {
	return transcription.Options{Task: transcription.TaskTranscribe, Language: "en"}
}

func (f *fakeRunner) ChunkSize() int { return 1024 }

type mapCache struct {
	entries map[string]*pipeline.Transcript
	puts    int
}

func (m *mapCache) Get(ctx context.Context, key string) (*pipeline.Transcript, error) {
	if t, ok := m.entries[key]; ok {
		return t, nil
	}
	return nil, cache.ErrMiss
}

func (m *mapCache) Put(ctx context.Context, key string, t *pipeline.Transcript) error {
	m.puts++
	m.entries[key] = t
	return nil
}

type countingObserver struct{ hits, misses int }

func (c *countingObserver) CacheHit()  { c.hits++ }
func (c *countingObserver) CacheMiss() { c.misses++ }

func mixedTranscript() *pipeline.Transcript {
	return &pipeline.Transcript{Segments: []pipeline.SegmentResult{
		{Index: 0, Text: "A"},
		{Index: 1, Text: pipeline.Placeholder, Failed: true, Error: "inference failed"},
		{Index: 2, Text: "C"},
	}}
}

func doTranscribe(h *TranscribeHandler, query string) *httptest.ResponseRecorder {
	rec := httptest.NewRecorder()
	h.Transcribe(rec, httptest.NewRequest(http.MethodGet, "/?"+query, nil))
	return rec
}

func TestTranscribeReturnsPlainText(t *testing.T) {
	runner := &fakeRunner{transcript: mixedTranscript()}
	h := NewTranscribeHandler(runner, nil, nil)

	rec := doTranscribe(h, "url="+url.QueryEscape("https://example.com/a.mp3"))
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", rec.Code, rec.Body)
	}
	if ct := rec.Header().Get("Content-Type"); ct != "text/plain; charset=UTF-8" {
		t.Fatalf("unexpected content type %q", ct)
	}
	want := "A\n" + pipeline.Placeholder + "\nC\n"
	if rec.Body.String() != want {
		t.Fatalf("expected %q, got %q", want, rec.Body.String())
	}
}

func TestTranscribeMissingURL(t *testing.T) {
	runner := &fakeRunner{}
	rec := doTranscribe(NewTranscribeHandler(runner, nil, nil), "")

	if rec.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", rec.Code)
	}
	if !strings.Contains(rec.Body.String(), "missing url parameter") {
		t.Fatalf("unexpected body %q", rec.Body.String())
	}
	if runner.calls != 0 {
		t.Fatal("pipeline must not run without a url")
	}
}

func TestTranscribeBadParameters(t *testing.T) {
	for _, query := range []string{
		"url=notaurl",
		"url=https://example.com/a&task=summarize",
		"url=https://example.com/a&vad_filter=perhaps",
	} {
		runner := &fakeRunner{}
		rec := doTranscribe(NewTranscribeHandler(runner, nil, nil), query)
		if rec.Code != http.StatusBadRequest {
			t.Errorf("%s: expected 400, got %d", query, rec.Code)
		}
		if runner.calls != 0 {
			t.Errorf("%s: pipeline should not run", query)
		}
	}
}

func TestTranscribeFetchFailureIsBadGateway(t *testing.T) {
	runner := &fakeRunner{err: &fetch.Error{URL: "https://example.com/a", StatusCode: 404}}
	rec := doTranscribe(NewTranscribeHandler(runner, nil, nil), "url=https://example.com/a")

	if rec.Code != http.StatusBadGateway {
		t.Fatalf("expected 502, got %d", rec.Code)
	}
	var body map[string]string
	if err := json.Unmarshal(rec.Body.Bytes(), &body); err != nil {
		t.Fatalf("decode body: %v", err)
	}
	if !strings.Contains(body["error"], "404") {
		t.Fatalf("expected status in error, got %q", body["error"])
	}
}

func TestTranscribeUnexpectedErrorIsInternal(t *testing.T) {
	runner := &fakeRunner{err: errors.New("boom")}
	rec := doTranscribe(NewTranscribeHandler(runner, nil, nil), "url=https://example.com/a")
	if rec.Code != http.StatusInternalServerError {
		t.Fatalf("expected 500, got %d", rec.Code)
	}
}

func TestTranscribeQueryOverridesDefaults(t *testing.T) {
	runner := &fakeRunner{transcript: &pipeline.Transcript{}}
	h := NewTranscribeHandler(runner, nil, nil)

	rec := doTranscribe(h, "url=https://example.com/a&task=translate&vad_filter=true&initial_prompt=Kubernetes&prefix=So")
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	want := transcription.Options{
		Task:          transcription.TaskTranslate,
		Language:      "en",
		VADFilter:     true,
		InitialPrompt: "Kubernetes",
		Prefix:        "So",
	}
	if runner.opts != want {
		t.Fatalf("expected %+v, got %+v", want, runner.opts)
	}
}

func TestTranscribeJSONFormat(t *testing.T) {
	runner := &fakeRunner{transcript: mixedTranscript()}
	rec := doTranscribe(NewTranscribeHandler(runner, nil, nil), "url=https://example.com/a&format=json")

	if ct := rec.Header().Get("Content-Type"); ct != "application/json" {
		t.Fatalf("unexpected content type %q", ct)
	}
	var body struct {
		Text       string              `json:"text"`
		Failed     int                 `json:"failed"`
		Transcript pipeline.Transcript `json:"transcript"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &body); err != nil {
		t.Fatalf("decode body: %v", err)
	}
	if body.Failed != 1 || len(body.Transcript.Segments) != 3 {
		t.Fatalf("unexpected body %+v", body)
	}
}

func TestTranscribeUsesCache(t *testing.T) {
	runner := &fakeRunner{transcript: &pipeline.Transcript{Segments: []pipeline.SegmentResult{{Text: "cached"}}}}
	tc := &mapCache{entries: map[string]*pipeline.Transcript{}}
	obs := &countingObserver{}
	h := NewTranscribeHandler(runner, tc, obs)

	for i := 0; i < 2; i++ {
		rec := doTranscribe(h, "url=https://example.com/a")
		if rec.Body.String() != "cached\n" {
			t.Fatalf("request %d: unexpected body %q", i, rec.Body.String())
		}
	}
	if runner.calls != 1 {
		t.Fatalf("expected one pipeline run, got %d", runner.calls)
	}
	if obs.hits != 1 || obs.misses != 1 {
		t.Fatalf("expected 1 hit and 1 miss, got %+v", obs)
	}
}

func TestTranscribeRefreshBypassesCache(t *testing.T) {
	runner := &fakeRunner{transcript: &pipeline.Transcript{Segments: []pipeline.SegmentResult{{Text: "fresh"}}}}
	tc := &mapCache{entries: map[string]*pipeline.Transcript{}}
	h := NewTranscribeHandler(runner, tc, nil)

	doTranscribe(h, "url=https://example.com/a")
	rec := doTranscribe(h, "url=https://example.com/a&refresh=true")
	if rec.Body.String() != "fresh\n" {
		t.Fatalf("unexpected body %q", rec.Body.String())
	}
	if runner.calls != 2 {
		t.Fatalf("expected refresh to rerun the pipeline, got %d runs", runner.calls)
	}
	if tc.puts != 2 {
		t.Fatalf("expected refreshed transcript to be stored, got %d puts", tc.puts)
	}
}
