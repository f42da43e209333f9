package api

import (
	"context"
	"net/http"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/redis/go-redis/v9"

	"github.com/nikhilbhutani/chunkscribe/internal/api/handlers"
	"github.com/nikhilbhutani/chunkscribe/internal/api/middleware"
	"github.com/nikhilbhutani/chunkscribe/internal/cache"
	"github.com/nikhilbhutani/chunkscribe/internal/config"
	"github.com/nikhilbhutani/chunkscribe/internal/jobs"
	"github.com/nikhilbhutani/chunkscribe/internal/metrics"
	"github.com/nikhilbhutani/chunkscribe/internal/pipeline"
	"github.com/nikhilbhutani/chunkscribe/internal/queue"
	"github.com/nikhilbhutani/chunkscribe/internal/storage"
)

type Router struct {
	mux      *chi.Mux
	db       *pgxpool.Pool
	redis    *redis.Client
	cfg      *config.Config
	metrics  *metrics.Metrics
	pipeline *pipeline.Pipeline
	queue    *queue.Client
	limiter  *middleware.RateLimiter
}

// NewRouter builds the transcription pipeline from cfg. db and rdb may be
// nil; the job routes need both and the transcript cache needs rdb.
func NewRouter(db *pgxpool.Pool, rdb *redis.Client, cfg *config.Config, m *metrics.Metrics) (*Router, error) {
	p, err := pipeline.FromConfig(cfg)
	if err != nil {
		return nil, err
	}
	if m != nil {
		p.WithObserver(m)
	}
	return &Router{
		mux:      chi.NewRouter(),
		db:       db,
		redis:    rdb,
		cfg:      cfg,
		metrics:  m,
		pipeline: p,
	}, nil
}

func (rt *Router) Setup() http.Handler {
	r := rt.mux

	// Global middleware
	r.Use(chimiddleware.RequestID)
	r.Use(chimiddleware.RealIP)
	r.Use(middleware.Logging)
	if rt.metrics != nil {
		r.Use(middleware.Metrics(rt.metrics))
	}
	r.Use(chimiddleware.Recoverer)
	r.Use(middleware.CORS(rt.cfg.Server.CORSOrigins))

	// Health endpoints (not rate limited)
	checks := map[string]handlers.Pinger{}
	if rt.db != nil {
		checks["database"] = rt.db
	}
	if rt.redis != nil {
		checks["redis"] = redisPinger{rt.redis}
	}
	health := handlers.NewHealthHandler(checks)
	r.Get("/healthz", health.Healthz)
	r.Get("/readyz", health.Readyz)
	if rt.metrics != nil {
		r.Method(http.MethodGet, "/metrics", rt.metrics.Handler())
	}

	// Initialize services
	var tc handlers.TranscriptCache
	if rt.redis != nil && rt.cfg.Cache.Enabled {
		tc = cache.NewTranscriptCache(rt.redis, rt.cfg.Cache.TTL)
	}
	var cacheObs handlers.CacheObserver
	if rt.metrics != nil {
		cacheObs = rt.metrics
	}
	transcribeH := handlers.NewTranscribeHandler(rt.pipeline, tc, cacheObs)

	rt.limiter = middleware.NewRateLimiter(rt.cfg.Server.RateLimitRPS, rt.cfg.Server.RateLimitBurst)

	r.Group(func(r chi.Router) {
		r.Use(rt.limiter.Limit)

		r.Get("/", transcribeH.Transcribe)

		// API v1
		r.Route("/api/v1", func(r chi.Router) {
			r.Get("/transcribe", transcribeH.Transcribe)

			if rt.db == nil || rt.redis == nil {
				return
			}
			rt.queue = queue.NewClient(rt.cfg.Redis)
			jobSvc := jobs.NewService(rt.db, rt.queue, storage.FromConfig(rt.cfg.Storage), rt.cfg.Storage.Bucket)
			jobH := handlers.NewJobHandler(jobSvc, rt.pipeline)
			r.Route("/jobs", func(r chi.Router) {
				r.Post("/", jobH.Create)
				r.Get("/", jobH.List)
				r.Get("/{id}", jobH.Get)
				r.Get("/{id}/transcript", jobH.Transcript)
				r.Delete("/{id}", jobH.Delete)
			})
		})
	})

	return r
}

// Close releases resources created by Setup.
func (rt *Router) Close() error {
	if rt.limiter != nil {
		rt.limiter.Stop()
	}
	if rt.queue != nil {
		return rt.queue.Close()
	}
	return nil
}

type redisPinger struct {
	rdb *redis.Client
}

func (p redisPinger) Ping(ctx context.Context) error {
	return p.rdb.Ping(ctx).Err()
}
