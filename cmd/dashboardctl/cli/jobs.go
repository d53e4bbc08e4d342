package cli

import (
	"context"
	"errors"

	"github.com/hibiken/asynq"

	"github.com/novaq/novaq-dashboard/internal/platform/cache"
	"github.com/novaq/novaq-dashboard/jobs"
)

// JobsCLI talks to the worker queue directly, bypassing the dashboard.
type JobsCLI struct {
	queue     *jobs.Client
	inspector *asynq.Inspector
}

// NewJobsCLI opens the queue at redisAddr (host:port or redis:// URL).
func NewJobsCLI(redisAddr string) (*JobsCLI, error) {
	opts, err := cache.QueueOpts(redisAddr)
	if err != nil {
		return nil, err
	}
	return &JobsCLI{queue: jobs.NewClient(opts), inspector: asynq.NewInspector(opts)}, nil
}

// Close releases both connections.
func (c *JobsCLI) Close() error {
	return errors.Join(c.inspector.Close(), c.queue.Close())
}

// Trigger enqueues a task by name.
func (c *JobsCLI) Trigger(ctx context.Context, name string) (*asynq.TaskInfo, error) {
	return c.queue.Enqueue(ctx, name, "manual")
}

// InspectQueue reports the default queue depth.
func (c *JobsCLI) InspectQueue(context.Context) (jobs.QueueStats, error) {
	return jobs.InspectQueue(c.inspector)
}
