package jobs

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"time"

	"github.com/hibiken/asynq"

	jobmetrics "github.com/novaq/novaq-dashboard/internal/jobs"
	"github.com/novaq/novaq-dashboard/internal/reference"
)

var defaultJobMetrics = jobmetrics.NewMetrics(nil)

// ReferenceWarmer refreshes the reference cache.
type ReferenceWarmer interface {
	Warm(ctx context.Context) (reference.Data, error)
}

// ReferenceWarmupJob refetches the reference lists so the first form of the
// day does not pay for three backend calls.
type ReferenceWarmupJob struct {
	Reference ReferenceWarmer
	Logger    *slog.Logger
	Metrics   *jobmetrics.Metrics
	Timeout   time.Duration
}

// NewReferenceWarmupJob wires dependencies for the warm-up handler.
func NewReferenceWarmupJob(ref ReferenceWarmer, logger *slog.Logger, metrics *jobmetrics.Metrics) *ReferenceWarmupJob {
	return &ReferenceWarmupJob{Reference: ref, Logger: logger, Metrics: metrics, Timeout: time.Minute}
}

// Handle processes TaskReferenceWarmup tasks.
func (j *ReferenceWarmupJob) Handle(ctx context.Context, t *asynq.Task) error {
	if j == nil || j.Reference == nil {
		return errors.New("reference warmup: handler not configured")
	}
	var payload ReferenceWarmupPayload
	if len(t.Payload()) > 0 {
		if err := json.Unmarshal(t.Payload(), &payload); err != nil {
			return asynq.SkipRetry
		}
	}
	if payload.Reason == "" {
		payload.Reason = "cron"
	}

	logger := jobLogger(j.Logger, TaskReferenceWarmup).With(slog.String("reason", payload.Reason))
	if j.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, j.Timeout)
		defer cancel()
	}

	return metricsOrDefault(j.Metrics).Run(TaskReferenceWarmup, func() (int64, error) {
		start := time.Now()
		data, err := j.Reference.Warm(ctx)
		rows := len(data.Regions) + len(data.SubRegions) + len(data.BusinessClasses)
		if err != nil {
			logger.Error("warm reference cache", slog.Int("rows", rows), slog.Any("error", err))
			return int64(rows), err
		}
		logger.Info("reference cache warmed",
			slog.Int("regions", len(data.Regions)),
			slog.Int("sub_regions", len(data.SubRegions)),
			slog.Int("business_classes", len(data.BusinessClasses)),
			slog.Duration("duration", time.Since(start)))
		return int64(rows), nil
	})
}

func metricsOrDefault(m *jobmetrics.Metrics) *jobmetrics.Metrics {
	if m != nil {
		return m
	}
	return defaultJobMetrics
}

func jobLogger(logger *slog.Logger, job string) *slog.Logger {
	if logger == nil {
		logger = slog.Default()
	}
	return logger.With(slog.String("job", job))
}
