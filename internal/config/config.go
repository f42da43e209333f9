package config

import (
	"fmt"
	"log/slog"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/nikhilbhutani/chunkscribe/internal/audio"
)

type Config struct {
	Server    ServerConfig
	Log       LogConfig
	Database  DatabaseConfig
	Redis     RedisConfig
	Storage   StorageConfig
	Inference InferenceConfig
	Pipeline  PipelineConfig
	Fetch     FetchConfig
	Cache     CacheConfig
}

type ServerConfig struct {
	Host           string
	Port           int
	CORSOrigins    []string
	RateLimitRPS   float64
	RateLimitBurst int
}

type LogConfig struct {
	Level string
}

type DatabaseConfig struct {
	URL            string
	MaxConns       int
	MinConns       int
	MigrationsPath string
}

type RedisConfig struct {
	Addr     string
	Password string
	DB       int
}

type StorageConfig struct {
	SupabaseURL string
	SupabaseKey string
	Bucket      string
}

type InferenceConfig struct {
	Backend string // "cloudflare", "openai" or "local"
	Timeout time.Duration

	CloudflareAccountID string
	CloudflareAPIToken  string
	CloudflareBaseURL   string
	CloudflareModel     string

	OpenAIKey     string
	OpenAIBaseURL string
	OpenAIModel   string

	LocalBaseURL string // default: "http://localhost:8178"
}

// PipelineConfig holds segmentation settings and the default task mode.
type PipelineConfig struct {
	ChunkSize     int
	Task          string
	Language      string
	VADFilter     bool
	InitialPrompt string
	Prefix        string
}

type FetchConfig struct {
	Timeout      time.Duration
	MaxRedirects int
	MaxBytes     int64
}

type CacheConfig struct {
	Enabled bool
	TTL     time.Duration
}

func Load() (*Config, error) {
	port, err := getEnvInt("SERVER_PORT", 8080)
	if err != nil {
		return nil, fmt.Errorf("invalid SERVER_PORT: %w", err)
	}

	rateLimitRPS, err := strconv.ParseFloat(getEnv("RATE_LIMIT_RPS", "10"), 64)
	if err != nil {
		return nil, fmt.Errorf("invalid RATE_LIMIT_RPS: %w", err)
	}

	rateLimitBurst, err := getEnvInt("RATE_LIMIT_BURST", 20)
	if err != nil {
		return nil, fmt.Errorf("invalid RATE_LIMIT_BURST: %w", err)
	}

	maxConns, err := getEnvInt("DB_MAX_CONNS", 10)
	if err != nil {
		return nil, fmt.Errorf("invalid DB_MAX_CONNS: %w", err)
	}

	minConns, err := getEnvInt("DB_MIN_CONNS", 1)
	if err != nil {
		return nil, fmt.Errorf("invalid DB_MIN_CONNS: %w", err)
	}

	redisDB, err := getEnvInt("REDIS_DB", 0)
	if err != nil {
		return nil, fmt.Errorf("invalid REDIS_DB: %w", err)
	}

	inferenceTimeout, err := getEnvDuration("INFERENCE_TIMEOUT", 0)
	if err != nil {
		return nil, fmt.Errorf("invalid INFERENCE_TIMEOUT: %w", err)
	}

	chunkSize, err := getEnvInt("CHUNK_SIZE", audio.DefaultChunkSize)
	if err != nil {
		return nil, fmt.Errorf("invalid CHUNK_SIZE: %w", err)
	}

	vadFilter, err := getEnvBool("VAD_FILTER", false)
	if err != nil {
		return nil, fmt.Errorf("invalid VAD_FILTER: %w", err)
	}

	fetchTimeout, err := getEnvDuration("FETCH_TIMEOUT", 2*time.Minute)
	if err != nil {
		return nil, fmt.Errorf("invalid FETCH_TIMEOUT: %w", err)
	}

	maxRedirects, err := getEnvInt("FETCH_MAX_REDIRECTS", 10)
	if err != nil {
		return nil, fmt.Errorf("invalid FETCH_MAX_REDIRECTS: %w", err)
	}

	maxBytes, err := getEnvInt("FETCH_MAX_BYTES", 0)
	if err != nil {
		return nil, fmt.Errorf("invalid FETCH_MAX_BYTES: %w", err)
	}

	cacheEnabled, err := getEnvBool("CACHE_ENABLED", true)
	if err != nil {
		return nil, fmt.Errorf("invalid CACHE_ENABLED: %w", err)
	}

	cacheTTL, err := getEnvDuration("CACHE_TTL", 24*time.Hour)
	if err != nil {
		return nil, fmt.Errorf("invalid CACHE_TTL: %w", err)
	}

	cfg := &Config{
		Server: ServerConfig{
			Host:           getEnv("SERVER_HOST", "0.0.0.0"),
			Port:           port,
			CORSOrigins:    splitList(getEnv("CORS_ALLOWED_ORIGINS", "*")),
			RateLimitRPS:   rateLimitRPS,
			RateLimitBurst: rateLimitBurst,
		},
		Log: LogConfig{
			Level: getEnv("LOG_LEVEL", "info"),
		},
		Database: DatabaseConfig{
			URL:            getEnv("DATABASE_URL", ""),
			MaxConns:       maxConns,
			MinConns:       minConns,
			MigrationsPath: getEnv("MIGRATIONS_PATH", "migrations"),
		},
		Redis: RedisConfig{
			Addr:     getEnv("REDIS_ADDR", "localhost:6379"),
			Password: getEnv("REDIS_PASSWORD", ""),
			DB:       redisDB,
		},
		Storage: StorageConfig{
			SupabaseURL: getEnv("SUPABASE_URL", ""),
			SupabaseKey: getEnv("SUPABASE_SERVICE_KEY", ""),
			Bucket:      getEnv("STORAGE_BUCKET", "transcripts"),
		},
		Inference: InferenceConfig{
			Backend:             getEnv("INFERENCE_BACKEND", "cloudflare"),
			Timeout:             inferenceTimeout,
			CloudflareAccountID: getEnv("CLOUDFLARE_ACCOUNT_ID", ""),
			CloudflareAPIToken:  getEnv("CLOUDFLARE_API_TOKEN", ""),
			CloudflareBaseURL:   getEnv("CLOUDFLARE_BASE_URL", ""),
			CloudflareModel:     getEnv("CLOUDFLARE_MODEL", ""),
			OpenAIKey:           getEnv("OPENAI_API_KEY", ""),
			OpenAIBaseURL:       getEnv("STT_OPENAI_BASE_URL", ""),
			OpenAIModel:         getEnv("STT_OPENAI_MODEL", ""),
			LocalBaseURL:        getEnv("STT_LOCAL_BASE_URL", "http://localhost:8178"),
		},
		Pipeline: PipelineConfig{
			ChunkSize:     chunkSize,
			Task:          getEnv("TRANSCRIBE_TASK", "transcribe"),
			Language:      getEnv("TRANSCRIBE_LANGUAGE", ""),
			VADFilter:     vadFilter,
			InitialPrompt: getEnv("TRANSCRIBE_INITIAL_PROMPT", ""),
			Prefix:        getEnv("TRANSCRIBE_PREFIX", ""),
		},
		Fetch: FetchConfig{
			Timeout:      fetchTimeout,
			MaxRedirects: maxRedirects,
			MaxBytes:     int64(maxBytes),
		},
		Cache: CacheConfig{
			Enabled: cacheEnabled,
			TTL:     cacheTTL,
		},
	}

	return cfg, nil
}

func (c *Config) Addr() string {
	return fmt.Sprintf("%s:%d", c.Server.Host, c.Server.Port)
}

// Validate checks the settings the pipeline cannot run without.
func (c *Config) Validate() error {
	var problems []string
	if c.Pipeline.ChunkSize <= 0 {
		problems = append(problems, "CHUNK_SIZE must be positive")
	}
	if c.Fetch.MaxRedirects < 0 {
		problems = append(problems, "FETCH_MAX_REDIRECTS must not be negative")
	}
	switch c.Pipeline.Task {
	case "transcribe", "translate":
	default:
		problems = append(problems, "TRANSCRIBE_TASK must be transcribe or translate")
	}

	switch c.Inference.Backend {
	case "cloudflare":
		if c.Inference.CloudflareAccountID == "" {
			problems = append(problems, "CLOUDFLARE_ACCOUNT_ID is required")
		}
		if c.Inference.CloudflareAPIToken == "" {
			problems = append(problems, "CLOUDFLARE_API_TOKEN is required")
		}
	case "openai":
		if c.Inference.OpenAIKey == "" {
			problems = append(problems, "OPENAI_API_KEY is required")
		}
	case "local":
	default:
		problems = append(problems, fmt.Sprintf("unknown INFERENCE_BACKEND %q", c.Inference.Backend))
	}

	if len(problems) > 0 {
		return fmt.Errorf("invalid configuration: %s", strings.Join(problems, "; "))
	}
	return nil
}

// SlogLevel maps Log.Level onto a slog level, defaulting to info.
func (c *Config) SlogLevel() slog.Level {
	switch strings.ToLower(c.Log.Level) {
	case "debug":
		return slog.LevelDebug
	case "warn", "warning":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

func getEnv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func getEnvInt(key string, fallback int) (int, error) {
	v := os.Getenv(key)
	if v == "" {
		return fallback, nil
	}
	return strconv.Atoi(v)
}

func getEnvBool(key string, fallback bool) (bool, error) {
	v := os.Getenv(key)
	if v == "" {
		return fallback, nil
	}
	return strconv.ParseBool(v)
}

func getEnvDuration(key string, fallback time.Duration) (time.Duration, error) {
	v := os.Getenv(key)
	if v == "" {
		return fallback, nil
	}
	return time.ParseDuration(v)
}

func splitList(v string) []string {
	var out []string
	for _, part := range strings.Split(v, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}
