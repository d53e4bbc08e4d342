package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/hibiken/asynq"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/redis/go-redis/v9"

	"github.com/novaq/novaq-dashboard/internal/app"
	"github.com/novaq/novaq-dashboard/internal/auth"
	"github.com/novaq/novaq-dashboard/internal/backend"
	"github.com/novaq/novaq-dashboard/internal/balances"
	"github.com/novaq/novaq-dashboard/internal/customers"
	"github.com/novaq/novaq-dashboard/internal/observability"
	"github.com/novaq/novaq-dashboard/internal/platform/cache"
	"github.com/novaq/novaq-dashboard/internal/platform/db"
	"github.com/novaq/novaq-dashboard/internal/reference"
	"github.com/novaq/novaq-dashboard/internal/shared"
	"github.com/novaq/novaq-dashboard/internal/view"
	"github.com/novaq/novaq-dashboard/jobs"
)

func main() {
	if app.InTestMode() {
		slog.Default().Info("test mode detected, skipping runtime startup")
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
	metrics := observability.NewMetrics()

	// Redis backs the reference cache, the job queue and optionally sessions.
	redisClient, err := cache.New(ctx, cfg.RedisAddr, "novaq-dashboard")
	if err != nil {
		if cfg.SessionBackend == app.SessionBackendRedis {
			logger.Error("connect redis", slog.Any("error", err))
			os.Exit(1)
		}
		logger.Warn("redis unavailable, reference cache disabled", slog.Any("error", err))
		redisClient = nil
	}
	defer closeRedis(logger, redisClient)

	var sessions shared.SessionStore
	switch cfg.SessionBackend {
	case app.SessionBackendRedis:
		sessions = shared.NewRedisSessionStore(redisClient, cfg.SessionTTL, cfg.SessionSecure)
	default:
		sessions = shared.NewCookieSessionStore(cfg.SessionSecret, cfg.SessionTTL, cfg.SessionSecure)
	}
	csrfManager := shared.NewCSRFManager(cfg.CSRFSecret, cfg.SessionSecure)

	var recorder auth.Recorder
	if cfg.AuditEnabled() {
		pool, err := db.New(ctx, cfg.PGDSN, "novaq-dashboard")
		if err != nil {
			logger.Error("connect postgres", slog.Any("error", err))
			os.Exit(1)
		}
		defer pool.Close()
		pgRecorder := auth.NewPGRecorder(pool)
		if err := pgRecorder.EnsureSchema(ctx); err != nil {
			logger.Error("login audit schema", slog.Any("error", err))
			os.Exit(1)
		}
		recorder = pgRecorder
		logStats(logger, pool)
	}

	templates, err := view.NewEngine()
	if err != nil {
		logger.Error("parse templates", slog.Any("error", err))
		os.Exit(1)
	}

	api := backend.NewClient(cfg.BackendURL, cfg.BackendTimeout, backend.WithObserver(metrics))

	var refCache *reference.Cache
	if redisClient != nil {
		refCache = reference.NewCache(redisClient, cfg.ReferenceCacheTTL)
	}
	referenceService := reference.NewService(api, refCache, logger)

	authService := auth.NewService(api, recorder, logger)
	authHandler := auth.NewHandler(logger, authService, templates, sessions, csrfManager)

	customerService := customers.NewService(api, logger)
	customersHandler := customers.NewHandler(logger, customerService, referenceService, templates, csrfManager)
	balancesHandler := balances.NewHandler(logger, balances.NewService(api, logger), customerService, templates, csrfManager)

	var jobHandler *jobs.Handler
	if redisClient != nil {
		// cache.New already parsed the same address.
		redisOpts, _ := cache.QueueOpts(cfg.RedisAddr)
		inspector := asynq.NewInspector(redisOpts)
		defer func() {
			if err := inspector.Close(); err != nil {
				logger.Warn("inspector close", slog.Any("error", err))
			}
		}()
		jobHandler = jobs.NewHandler(inspector, logger)

		queue := jobs.NewClient(redisOpts)
		if _, err := queue.EnqueueReferenceWarmup(ctx, "startup"); err != nil && !errors.Is(err, asynq.ErrDuplicateTask) {
			logger.Warn("enqueue reference warmup", slog.Any("error", err))
		}
		if err := queue.Close(); err != nil {
			logger.Warn("queue close", slog.Any("error", err))
		}
	}

	router := app.NewRouter(app.RouterParams{
		Logger:           logger,
		Config:           cfg,
		Templates:        templates,
		Sessions:         sessions,
		CSRFManager:      csrfManager,
		AuthHandler:      authHandler,
		CustomersHandler: customersHandler,
		BalancesHandler:  balancesHandler,
		ReferenceHandler: reference.NewHandler(referenceService),
		JobHandler:       jobHandler,
		Metrics:          metrics,
	})

	server := &http.Server{
		Addr:         cfg.AppAddr,
		Handler:      router,
		ReadTimeout:  cfg.AppReadTimeout,
		WriteTimeout: cfg.AppWriteTimeout,
	}

	go func() {
		logger.Info("starting http server", slog.String("addr", cfg.AppAddr), slog.String("backend", cfg.BackendURL))
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Error("http server", slog.Any("error", err))
			stop()
		}
	}()

	<-ctx.Done()
	logger.Info("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		logger.Error("graceful shutdown", slog.Any("error", err))
	}
}

func closeRedis(logger *slog.Logger, client *redis.Client) {
	if client == nil {
		return
	}
	if err := client.Close(); err != nil {
		logger.Warn("redis close", slog.Any("error", err))
	}
}

func logStats(logger *slog.Logger, pool *pgxpool.Pool) {
	stat := pool.Stat()
	logger.Info("postgres connected", slog.Int("max_conns", int(stat.MaxConns())), slog.Int("total_conns", int(stat.TotalConns())))
}
