package jobs

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/hibiken/asynq"

	jobmetrics "github.com/ledgerline/ledgerline/internal/jobs"
)

// ExpiredGrantDeleter is the store operation the sweep needs.
type ExpiredGrantDeleter interface {
	DeleteExpired(ctx context.Context, now time.Time) (int64, error)
}

// GrantExpirySweepJob physically removes lapsed grant rows. Resolution
// treats expired grants as absent, so the sweep is hygiene only.
type GrantExpirySweepJob struct {
	Store   ExpiredGrantDeleter
	Logger  *slog.Logger
	Metrics *jobmetrics.Metrics
	clock   func() time.Time
}

// NewGrantExpirySweepJob initialises the sweep handler.
func NewGrantExpirySweepJob(store ExpiredGrantDeleter, logger *slog.Logger, metrics *jobmetrics.Metrics) *GrantExpirySweepJob {
	return &GrantExpirySweepJob{
		Store:   store,
		Logger:  logger,
		Metrics: metrics,
		clock:   func() time.Time { return time.Now().UTC() },
	}
}

// Handle runs one sweep.
func (j *GrantExpirySweepJob) Handle(ctx context.Context, t *asynq.Task) error {
	if j == nil || j.Store == nil {
		return errors.New("grant expiry sweep: handler not configured")
	}
	tracker := j.Metrics.Track(TaskGrantExpirySweep)
	removed, err := j.Store.DeleteExpired(ctx, j.clock())
	if err = tracker.End(err); err != nil {
		j.logger().Error("grant expiry sweep failed", slog.Any("error", err))
		return err
	}
	j.logger().Info("grant expiry sweep finished", slog.Int64("removed", removed))
	return nil
}

func (j *GrantExpirySweepJob) logger() *slog.Logger {
	if j.Logger != nil {
		return j.Logger
	}
	return slog.Default()
}
