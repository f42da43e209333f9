package metrics

import (
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/nikhilbhutani/chunkscribe/internal/pipeline"
)

// Metrics holds the Prometheus collectors for the transcription service.
type Metrics struct {
	registry *prometheus.Registry

	// Pipeline metrics
	RunsStarted   prometheus.Counter
	RunsCompleted prometheus.Counter
	FetchFailures prometheus.Counter

	// Segment metrics
	SegmentsTranscribed prometheus.Counter
	SegmentsFailed      prometheus.Counter
	InferenceDuration   prometheus.Histogram

	// Cache metrics
	CacheHits   prometheus.Counter
	CacheMisses prometheus.Counter

	// HTTP API metrics
	HTTPRequests        *prometheus.CounterVec
	HTTPRequestDuration *prometheus.HistogramVec
}

// New creates all collectors on a private registry.
func New() *Metrics {
	reg := prometheus.NewRegistry()
	reg.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	f := promauto.With(reg)

	return &Metrics{
		registry: reg,

		RunsStarted: f.NewCounter(prometheus.CounterOpts{
			Name: "chunkscribe_runs_started_total",
			Help: "Total number of transcription runs started",
		}),
		RunsCompleted: f.NewCounter(prometheus.CounterOpts{
			Name: "chunkscribe_runs_completed_total",
			Help: "Total number of transcription runs that produced a transcript",
		}),
		FetchFailures: f.NewCounter(prometheus.CounterOpts{
			Name: "chunkscribe_fetch_failures_total",
			Help: "Total number of runs aborted because the source could not be fetched",
		}),

		SegmentsTranscribed: f.NewCounter(prometheus.CounterOpts{
			Name: "chunkscribe_segments_transcribed_total",
			Help: "Total number of segments transcribed successfully",
		}),
		SegmentsFailed: f.NewCounter(prometheus.CounterOpts{
			Name: "chunkscribe_segments_failed_total",
			Help: "Total number of segments replaced by the failure placeholder",
		}),
		InferenceDuration: f.NewHistogram(prometheus.HistogramOpts{
			Name:    "chunkscribe_inference_duration_seconds",
			Help:    "Duration of per-segment inference calls",
			Buckets: prometheus.ExponentialBuckets(0.1, 2, 10), // 100ms to ~1 minute
		}),

		CacheHits: f.NewCounter(prometheus.CounterOpts{
			Name: "chunkscribe_cache_hits_total",
			Help: "Total number of transcripts served from cache",
		}),
		CacheMisses: f.NewCounter(prometheus.CounterOpts{
			Name: "chunkscribe_cache_misses_total",
			Help: "Total number of transcript cache misses",
		}),

		HTTPRequests: f.NewCounterVec(prometheus.CounterOpts{
			Name: "chunkscribe_http_requests_total",
			Help: "Total number of HTTP requests",
		}, []string{"method", "route", "status"}),
		HTTPRequestDuration: f.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "chunkscribe_http_request_duration_seconds",
			Help:    "Duration of HTTP requests",
			Buckets: prometheus.DefBuckets,
		}, []string{"method", "route"}),
	}
}

// StateChanged implements pipeline.Observer.
func (m *Metrics) StateChanged(s pipeline.State) {
	switch s {
	case pipeline.StateFetching:
		m.RunsStarted.Inc()
	case pipeline.StateFailed:
		m.FetchFailures.Inc()
	case pipeline.StateDone:
		m.RunsCompleted.Inc()
	}
}

// SegmentFinished implements pipeline.Observer.
func (m *Metrics) SegmentFinished(res pipeline.SegmentResult, elapsed time.Duration) {
	m.InferenceDuration.Observe(elapsed.Seconds())
	if res.Failed {
		m.SegmentsFailed.Inc()
		return
	}
	m.SegmentsTranscribed.Inc()
}

// ObserveHTTP records one served request.
func (m *Metrics) ObserveHTTP(method, route string, status int, elapsed time.Duration) {
	m.HTTPRequests.WithLabelValues(method, route, strconv.Itoa(status)).Inc()
	m.HTTPRequestDuration.WithLabelValues(method, route).Observe(elapsed.Seconds())
}

// Handler exposes the registry for scraping.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}

func (m *Metrics) CacheHit() { m.CacheHits.Inc() }

func (m *Metrics) CacheMiss() { m.CacheMisses.Inc() }
