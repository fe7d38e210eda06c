package jobs

import (
	"context"
	"errors"
	"log/slog"

	"github.com/hibiken/asynq"

	jobmetrics "github.com/ledgerline/ledgerline/internal/jobs"
	"github.com/ledgerline/ledgerline/internal/platform/cache"
)

// CacheCleanupJob sweeps expired workspace cache entries. Reads already
// self-validate, so this only reclaims memory.
type CacheCleanupJob struct {
	Store   cache.Store
	Logger  *slog.Logger
	Metrics *jobmetrics.Metrics
}

// NewCacheCleanupJob initialises the cleanup handler.
func NewCacheCleanupJob(store cache.Store, logger *slog.Logger, metrics *jobmetrics.Metrics) *CacheCleanupJob {
	return &CacheCleanupJob{Store: store, Logger: logger, Metrics: metrics}
}

// Handle runs one sweep.
func (j *CacheCleanupJob) Handle(ctx context.Context, t *asynq.Task) error {
	if j == nil || j.Store == nil {
		return errors.New("cache cleanup: handler not configured")
	}
	tracker := j.Metrics.Track(TaskCacheCleanup)
	evicted, err := j.Store.Cleanup(ctx)
	if err = tracker.End(err); err != nil {
		j.logger().Error("cache cleanup failed", slog.Any("error", err))
		return err
	}
	j.Metrics.AddEvicted(evicted)
	j.logger().Info("cache cleanup finished", slog.Int("evicted", evicted))
	return nil
}

func (j *CacheCleanupJob) logger() *slog.Logger {
	if j.Logger != nil {
		return j.Logger
	}
	return slog.Default()
}
