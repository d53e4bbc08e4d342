package main

import (
	"context"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/hibiken/asynq"

	"github.com/novaq/novaq-dashboard/internal/app"
	"github.com/novaq/novaq-dashboard/internal/auth"
	"github.com/novaq/novaq-dashboard/internal/backend"
	jobmetrics "github.com/novaq/novaq-dashboard/internal/jobs"
	"github.com/novaq/novaq-dashboard/internal/platform/cache"
	"github.com/novaq/novaq-dashboard/internal/platform/db"
	"github.com/novaq/novaq-dashboard/internal/reference"
	"github.com/novaq/novaq-dashboard/jobs"
)

func main() {
	if app.InTestMode() {
		slog.Default().Info("test mode detected, skipping worker startup")
		return
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	cfg, err := app.LoadConfig()
	if err != nil {
		slog.Default().Error("load config", slog.Any("error", err))
		os.Exit(1)
	}

	logger := app.NewLogger(cfg)

	redisClient, err := cache.New(ctx, cfg.RedisAddr, "novaq-worker")
	if err != nil {
		logger.Error("connect redis", slog.Any("error", err))
		os.Exit(1)
	}
	defer func() {
		if err := redisClient.Close(); err != nil {
			logger.Warn("redis close", slog.Any("error", err))
		}
	}()

	metrics := jobmetrics.NewMetrics(nil)
	api := backend.NewClient(cfg.BackendURL, cfg.BackendTimeout)
	referenceService := reference.NewService(api, reference.NewCache(redisClient, cfg.ReferenceCacheTTL), logger)
	warmupJob := jobs.NewReferenceWarmupJob(referenceService, logger, metrics)

	handlers := []jobs.TaskHandler{
		{Type: jobs.TaskReferenceWarmup, Handler: warmupJob.Handle},
	}
	warmupTask, err := jobs.NewReferenceWarmupTask("nightly")
	if err != nil {
		logger.Error("build warmup task", slog.Any("error", err))
		os.Exit(1)
	}
	cron := []jobs.CronRegistration{
		{Spec: jobs.ReferenceWarmupCron, Task: warmupTask, Options: []asynq.Option{asynq.MaxRetry(3)}},
	}

	if cfg.AuditEnabled() {
		pool, err := db.New(ctx, cfg.PGDSN, "novaq-worker")
		if err != nil {
			logger.Error("connect postgres", slog.Any("error", err))
			os.Exit(1)
		}
		defer pool.Close()
		authService := auth.NewService(api, auth.NewPGRecorder(pool), logger)
		cleanupJob := jobs.NewLoginSessionCleanupJob(authService, logger, metrics)
		handlers = append(handlers, jobs.TaskHandler{Type: jobs.TaskLoginSessionCleanup, Handler: cleanupJob.Handle})
		cron = append(cron, jobs.CronRegistration{
			Spec:    jobs.LoginSessionCleanupCron,
			Task:    jobs.NewLoginSessionCleanupTask(),
			Options: []asynq.Option{asynq.MaxRetry(1)},
		})
	}

	redisOpts, err := cache.QueueOpts(cfg.RedisAddr)
	if err != nil {
		logger.Error("redis options", slog.Any("error", err))
		os.Exit(1)
	}
	worker, err := jobs.NewWorker(jobs.WorkerConfig{
		RedisOpts:   redisOpts,
		Logger:      logger,
		Concurrency: cfg.WorkerConcurrency,
		Handlers:    handlers,
		Cron:        cron,
	})
	if err != nil {
		logger.Error("init worker", slog.Any("error", err))
		os.Exit(1)
	}

	if err := worker.Run(ctx); err != nil && err != context.Canceled {
		logger.Error("worker run", slog.Any("error", err))
		os.Exit(1)
	}
}
