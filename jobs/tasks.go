package jobs

import (
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/hibiken/asynq"
)

// ErrUnknownTask is returned by NewTask for unsupported task names.
var ErrUnknownTask = errors.New("jobs: unknown task")

const (
	// QueueDefault is the default queue name for background jobs.
	QueueDefault = "default"
	// TaskReferenceWarmup refetches regions and business classes into Redis.
	TaskReferenceWarmup = "reference:warmup"
	// TaskLoginSessionCleanup deletes expired login audit rows.
	TaskLoginSessionCleanup = "auth:login-sessions:cleanup"
)

// Cron schedules, UTC.
const (
	ReferenceWarmupCron     = "15 1 * * *"
	LoginSessionCleanupCron = "30 1 * * *"
)

// ReferenceWarmupPayload identifies who asked for the warm-up.
type ReferenceWarmupPayload struct {
	Reason string `json:"reason"`
}

// NewReferenceWarmupTask builds a warm-up task.
func NewReferenceWarmupTask(reason string) (*asynq.Task, error) {
	data, err := json.Marshal(ReferenceWarmupPayload{Reason: reason})
	if err != nil {
		return nil, err
	}
	return asynq.NewTask(TaskReferenceWarmup, data), nil
}

// NewLoginSessionCleanupTask builds a cleanup task. It carries no payload.
func NewLoginSessionCleanupTask() *asynq.Task {
	return asynq.NewTask(TaskLoginSessionCleanup, nil)
}

// NewTask builds a task by type name together with the options it is
// enqueued with. reason is only recorded by the warm-up task.
func NewTask(name, reason string) (*asynq.Task, []asynq.Option, error) {
	switch name {
	case TaskReferenceWarmup:
		task, err := NewReferenceWarmupTask(reason)
		if err != nil {
			return nil, nil, err
		}
		return task, []asynq.Option{asynq.Queue(QueueDefault), asynq.Unique(time.Minute), asynq.MaxRetry(3)}, nil
	case TaskLoginSessionCleanup:
		return NewLoginSessionCleanupTask(), []asynq.Option{asynq.Queue(QueueDefault), asynq.MaxRetry(1)}, nil
	default:
		return nil, nil, fmt.Errorf("%w %q", ErrUnknownTask, name)
	}
}
