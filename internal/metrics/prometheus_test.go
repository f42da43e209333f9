package metrics

import (
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"

	"github.com/nikhilbhutani/chunkscribe/internal/pipeline"
)

func TestObserverCounts(t *testing.T) {
	m := New()

	m.StateChanged(pipeline.StateFetching)
	m.StateChanged(pipeline.StateDone)
	m.StateChanged(pipeline.StateFetching)
	m.StateChanged(pipeline.StateFailed)
	m.SegmentFinished(pipeline.SegmentResult{Index: 0, Text: "ok"}, 10*time.Millisecond)
	m.SegmentFinished(pipeline.SegmentResult{Index: 1, Text: pipeline.Placeholder, Failed: true}, time.Second)

	if got := testutil.ToFloat64(m.RunsStarted); got != 2 {
		t.Fatalf("expected 2 runs started, got %v", got)
	}
	if got := testutil.ToFloat64(m.RunsCompleted); got != 1 {
		t.Fatalf("expected 1 run completed, got %v", got)
	}
	if got := testutil.ToFloat64(m.FetchFailures); got != 1 {
		t.Fatalf("expected 1 fetch failure, got %v", got)
	}
	if got := testutil.ToFloat64(m.SegmentsTranscribed); got != 1 {
		t.Fatalf("expected 1 segment transcribed, got %v", got)
	}
	if got := testutil.ToFloat64(m.SegmentsFailed); got != 1 {
		t.Fatalf("expected 1 segment failed, got %v", got)
	}
}

func TestHandlerExposesMetrics(t *testing.T) {
	m := New()
	m.ObserveHTTP(http.MethodGet, "/", http.StatusOK, 5*time.Millisecond)

	srv := httptest.NewServer(m.Handler())
	defer srv.Close()

	resp, err := http.Get(srv.URL)
	if err != nil {
		t.Fatalf("scrape: %v", err)
	}
	defer resp.Body.Close()
	body, _ := io.ReadAll(resp.Body)

	if !strings.Contains(string(body), `chunkscribe_http_requests_total{method="GET",route="/",status="200"} 1`) {
		t.Fatalf("expected request counter in scrape output:\n%s", body)
	}
}

func TestNewIsIndependent(t *testing.T) {
	// Separate registries: constructing twice must not panic on duplicate registration.
	a, b := New(), New()
	a.CacheHits.Inc()
	if testutil.ToFloat64(b.CacheHits) != 0 {
		t.Fatal("metrics instances should not share collectors")
	}
}
