package jobs

import (
	"context"
	"errors"
	"log/slog"

	"github.com/hibiken/asynq"

	jobmetrics "github.com/ledgerline/ledgerline/internal/jobs"
	"github.com/ledgerline/ledgerline/internal/workspace"
)

// WorkspaceLister enumerates workspace ids for warmup runs.
type WorkspaceLister interface {
	ListWorkspaceIDs(ctx context.Context) ([]string, error)
}

// WorkspaceWarmupJob pre-populates workspace dataset caches so the first
// interactive load after a deploy or cache flush is served warm.
type WorkspaceWarmupJob struct {
	Loader  *workspace.Loader
	Lister  WorkspaceLister
	Logger  *slog.Logger
	Metrics *jobmetrics.Metrics
}

// NewWorkspaceWarmupJob wires dependencies for the warmup handler.
func NewWorkspaceWarmupJob(loader *workspace.Loader, lister WorkspaceLister, logger *slog.Logger, metrics *jobmetrics.Metrics) *WorkspaceWarmupJob {
	return &WorkspaceWarmupJob{Loader: loader, Lister: lister, Logger: logger, Metrics: metrics}
}

// Handle refreshes every workspace's cached datasets. Per-workspace failures
// are reported but never fail the run; only a listing failure does.
func (j *WorkspaceWarmupJob) Handle(ctx context.Context, t *asynq.Task) error {
	if j == nil || j.Loader == nil || j.Lister == nil {
		return errors.New("workspace warmup: handler not configured")
	}

	tracker := j.Metrics.Track(TaskWorkspaceWarmup)

	ids, err := j.Lister.ListWorkspaceIDs(ctx)
	if err = tracker.End(err); err != nil {
		j.logger().Error("workspace warmup listing failed", slog.Any("error", err))
		return err
	}
	if len(ids) == 0 {
		j.logger().Info("workspace warmup found no workspaces")
		return nil
	}

	result, err := j.Loader.LoadMany(ctx, ids, workspace.LoadOptions{UseCache: true, ForceRefresh: true})
	if err != nil {
		j.logger().Error("workspace warmup aborted", slog.Any("error", err))
		return err
	}
	for _, werr := range result.Errors {
		j.logger().Warn("workspace warmup skipped workspace",
			slog.String("workspace_id", werr.WorkspaceID), slog.Any("error", werr.Err))
	}
	j.logger().Info("workspace warmup finished",
		slog.Int("warmed", len(result.Loaded)),
		slog.Int("failed", len(result.Errors)))
	return nil
}

func (j *WorkspaceWarmupJob) logger() *slog.Logger {
	if j.Logger != nil {
		return j.Logger
	}
	return slog.Default()
}
