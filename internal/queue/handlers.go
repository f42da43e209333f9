package queue

import (
	"context"
	"log/slog"
	"time"

	"github.com/hibiken/asynq"
)

// HandlersRegistry routes task types to their workers. Every handler is
// wrapped so task start, duration and outcome are logged.
type HandlersRegistry struct {
	mux *asynq.ServeMux
}

func NewHandlersRegistry() *HandlersRegistry {
	mux := asynq.NewServeMux()
	mux.Use(logTasks)
	return &HandlersRegistry{mux: mux}
}

func (r *HandlersRegistry) Register(taskType string, handler asynq.Handler) {
	r.mux.Handle(taskType, handler)
}

func (r *HandlersRegistry) Mux() *asynq.ServeMux {
	return r.mux
}

func logTasks(next asynq.Handler) asynq.Handler {
	return asynq.HandlerFunc(func(ctx context.Context, t *asynq.Task) error {
		start := time.Now()
		taskID, _ := asynq.GetTaskID(ctx)

		err := next.ProcessTask(ctx, t)

		attrs := []any{
			"type", t.Type(),
			"task_id", taskID,
			"duration_ms", time.Since(start).Milliseconds(),
		}
		if err != nil {
			slog.Error("task failed", append(attrs, "error", err)...)
			return err
		}
		slog.Info("task processed", attrs...)
		return nil
	})
}
