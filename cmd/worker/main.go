package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/hibiken/asynq"

	"github.com/ledgerline/ledgerline/internal/app"
	"github.com/ledgerline/ledgerline/internal/directory"
	"github.com/ledgerline/ledgerline/internal/grants"
	jobmetrics "github.com/ledgerline/ledgerline/internal/jobs"
	"github.com/ledgerline/ledgerline/internal/migrate"
	"github.com/ledgerline/ledgerline/internal/platform/cache"
	"github.com/ledgerline/ledgerline/internal/platform/db"
	"github.com/ledgerline/ledgerline/internal/workspace"
	"github.com/ledgerline/ledgerline/jobs"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	cfg, err := app.LoadConfig()
	if err != nil {
		slog.Default().Error("load config", slog.Any("error", err))
		os.Exit(1)
	}

	logger := app.NewLogger(cfg)

	pool, err := db.New(ctx, cfg.PGDSN)
	if err != nil {
		logger.Error("connect database", slog.Any("error", err))
		os.Exit(1)
	}
	defer pool.Close()

	redisClient, err := cache.Connect(ctx, cfg.RedisAddr)
	if err != nil {
		logger.Error("connect redis", slog.Any("error", err))
		os.Exit(1)
	}
	defer func() {
		if err := redisClient.Close(); err != nil {
			logger.Warn("redis close", slog.Any("error", err))
		}
	}()

	store := cache.NewRedis(redisClient)

	directoryRepo := directory.NewRepository(pool)
	grantRepo := grants.NewRepository(pool)
	runner := migrate.NewRunner(directoryRepo, grantRepo, store, logger)

	loader := workspace.NewLoader(workspace.NewRepository(pool), store, logger, workspace.LoaderConfig{
		CacheTTL:    cfg.CacheTTL,
		LoadTimeout: cfg.LoadTimeout,
		ChunkSize:   cfg.LoadChunkSize,
	})

	metrics := jobmetrics.NewMetrics(nil)

	migrateJob := jobs.NewGrantMigrateJob(runner, logger, metrics)
	cleanupJob := jobs.NewCacheCleanupJob(store, logger, metrics)
	sweepJob := jobs.NewGrantExpirySweepJob(grantRepo, logger, metrics)
	warmupJob := jobs.NewWorkspaceWarmupJob(loader, directoryRepo, logger, metrics)

	cleanupSpec := cronEvery(cfg.CacheCleanupInterval)

	worker, err := jobs.NewWorker(jobs.WorkerConfig{
		RedisOpts: asynq.RedisClientOpt{Addr: cfg.RedisAddr},
		Logger:    logger,
		Handlers: []jobs.TaskHandler{
			{Type: jobs.TaskGrantMigrate, Handler: migrateJob.Handle},
			{Type: jobs.TaskCacheCleanup, Handler: cleanupJob.Handle},
			{Type: jobs.TaskGrantExpirySweep, Handler: sweepJob.Handle},
			{Type: jobs.TaskWorkspaceWarmup, Handler: warmupJob.Handle},
		},
		Cron: []jobs.CronRegistration{
			{Spec: cleanupSpec, Task: jobs.NewCacheCleanupTask()},
			{Spec: cfg.GrantExpirySweepCron, Task: jobs.NewGrantExpirySweepTask(), Options: []asynq.Option{asynq.MaxRetry(3)}},
			{Spec: cfg.WorkspaceWarmupCron, Task: jobs.NewWorkspaceWarmupTask()},
		},
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

// cronEvery renders an interval as a minute-resolution cron spec, clamped
// to at least one minute.
func cronEvery(interval time.Duration) string {
	minutes := int(interval.Minutes())
	if minutes < 1 {
		minutes = 1
	}
	return fmt.Sprintf("*/%d * * * *", minutes)
}
