package queue

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/hibiken/asynq"
	"github.com/nikhilbhutani/chunkscribe/internal/config"
)

type Client struct {
	client *asynq.Client
}

func NewClient(cfg config.RedisConfig) *Client {
	return &Client{
		client: asynq.NewClient(RedisOpt(cfg)),
	}
}

// RedisOpt converts the redis settings into asynq's connection options.
func RedisOpt(cfg config.RedisConfig) asynq.RedisClientOpt {
	return asynq.RedisClientOpt{
		Addr:     cfg.Addr,
		Password: cfg.Password,
		DB:       cfg.DB,
	}
}

func (c *Client) Close() error {
	return c.client.Close()
}

// EnqueueTranscriptionRun schedules a job. Transcription runs are never retried.
func (c *Client) EnqueueTranscriptionRun(payload TranscriptionRunPayload) error {
	return c.enqueue(TypeTranscriptionRun, payload, asynq.MaxRetry(0), asynq.Timeout(2*time.Hour), asynq.TaskID(payload.JobID))
}

func (c *Client) enqueue(taskType string, payload interface{}, opts ...asynq.Option) error {
	data, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("marshal payload: %w", err)
	}
	task := asynq.NewTask(taskType, data)
	_, err = c.client.Enqueue(task, opts...)
	if err != nil {
		return fmt.Errorf("enqueue %s: %w", taskType, err)
	}
	return nil
}
