package jobs

import (
	"context"
	"errors"
	"log/slog"

	"github.com/hibiken/asynq"

	jobmetrics "github.com/novaq/novaq-dashboard/internal/jobs"
)

// SessionCleaner deletes expired login audit rows.
type SessionCleaner interface {
	CleanupSessions(ctx context.Context) (int64, error)
}

// LoginSessionCleanupJob prunes the login audit table.
type LoginSessionCleanupJob struct {
	Sessions SessionCleaner
	Logger   *slog.Logger
	Metrics  *jobmetrics.Metrics
}

// NewLoginSessionCleanupJob wires dependencies for the cleanup handler.
func NewLoginSessionCleanupJob(sessions SessionCleaner, logger *slog.Logger, metrics *jobmetrics.Metrics) *LoginSessionCleanupJob {
	return &LoginSessionCleanupJob{Sessions: sessions, Logger: logger, Metrics: metrics}
}

// Handle processes TaskLoginSessionCleanup tasks.
func (j *LoginSessionCleanupJob) Handle(ctx context.Context, _ *asynq.Task) error {
	if j == nil || j.Sessions == nil {
		return errors.New("login session cleanup: handler not configured")
	}
	logger := jobLogger(j.Logger, TaskLoginSessionCleanup)
	return metricsOrDefault(j.Metrics).Run(TaskLoginSessionCleanup, func() (int64, error) {
		deleted, err := j.Sessions.CleanupSessions(ctx)
		if err != nil {
			logger.Error("delete expired login sessions", slog.Any("error", err))
			return 0, err
		}
		logger.Info("expired login sessions deleted", slog.Int64("rows", deleted))
		return deleted, nil
	})
}
