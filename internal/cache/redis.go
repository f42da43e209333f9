package cache

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/nikhilbhutani/chunkscribe/internal/pipeline"
	"github.com/nikhilbhutani/chunkscribe/internal/transcription"
)

// ErrMiss is returned by Get when the key does not exist.
var ErrMiss = errors.New("cache miss")

type Cache struct {
	client *redis.Client
}

func NewCache(client *redis.Client) *Cache {
	return &Cache{client: client}
}

func (c *Cache) Get(ctx context.Context, key string, dest interface{}) error {
	val, err := c.client.Get(ctx, key).Result()
	if errors.Is(err, redis.Nil) {
		return ErrMiss
	}
	if err != nil {
		return fmt.Errorf("cache get %s: %w", key, err)
	}
	return json.Unmarshal([]byte(val), dest)
}

func (c *Cache) Set(ctx context.Context, key string, value interface{}, ttl time.Duration) error {
	data, err := json.Marshal(value)
	if err != nil {
		return fmt.Errorf("marshal value: %w", err)
	}
	return c.client.Set(ctx, key, data, ttl).Err()
}

// TranscriptCache stores fully successful transcripts keyed by source and
// task mode.
type TranscriptCache struct {
	cache *Cache
	ttl   time.Duration
}

func NewTranscriptCache(client *redis.Client, ttl time.Duration) *TranscriptCache {
	return &TranscriptCache{cache: NewCache(client), ttl: ttl}
}

// TranscriptKey identifies a transcript by everything that affects its text.
func TranscriptKey(source string, chunkSize int, opts transcription.Options) string {
	h := sha256.New()
	for _, part := range []string{
		source,
		strconv.Itoa(chunkSize),
		string(opts.Task),
		opts.Language,
		strconv.FormatBool(opts.VADFilter),
		opts.InitialPrompt,
		opts.Prefix,
	} {
		h.Write([]byte(part))
		h.Write([]byte{0})
	}
	return "transcript:" + hex.EncodeToString(h.Sum(nil))
}

func (c *TranscriptCache) Get(ctx context.Context, key string) (*pipeline.Transcript, error) {
	var t pipeline.Transcript
	if err := c.cache.Get(ctx, key, &t); err != nil {
		return nil, err
	}
	return &t, nil
}

// Put stores t unless any of its segments failed.
func (c *TranscriptCache) Put(ctx context.Context, key string, t *pipeline.Transcript) error {
	if t.Failures() > 0 {
		return nil
	}
	return c.cache.Set(ctx, key, t, c.ttl)
}
