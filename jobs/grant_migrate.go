package jobs

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"

	"github.com/hibiken/asynq"

	jobmetrics "github.com/ledgerline/ledgerline/internal/jobs"
	"github.com/ledgerline/ledgerline/internal/migrate"
)

// GrantMigrateJob applies role default policies as a background task.
type GrantMigrateJob struct {
	Runner  *migrate.Runner
	Logger  *slog.Logger
	Metrics *jobmetrics.Metrics
}

// NewGrantMigrateJob initialises the migration handler.
func NewGrantMigrateJob(runner *migrate.Runner, logger *slog.Logger, metrics *jobmetrics.Metrics) *GrantMigrateJob {
	return &GrantMigrateJob{Runner: runner, Logger: logger, Metrics: metrics}
}

// Handle executes a migration run for the requested scope.
func (j *GrantMigrateJob) Handle(ctx context.Context, t *asynq.Task) error {
	if j == nil || j.Runner == nil {
		return errors.New("grant migrate: handler not configured")
	}
	var payload GrantMigratePayload
	if len(t.Payload()) > 0 {
		if err := json.Unmarshal(t.Payload(), &payload); err != nil {
			return asynq.SkipRetry
		}
	}

	scope := migrate.AllWorkspaces()
	if payload.WorkspaceID != "" {
		scope = migrate.SingleWorkspace(payload.WorkspaceID)
	}

	tracker := j.Metrics.Track(TaskGrantMigrate)
	report, err := j.Runner.Run(ctx, scope)
	if err = tracker.End(err); err != nil {
		j.logger().Error("grant migration failed", slog.Any("error", err))
		return err
	}

	j.Metrics.AddMigrated("migrated", report.SuccessCount)
	j.Metrics.AddMigrated("failed", len(report.Errors))
	j.logger().Info("grant migration finished",
		slog.String("run_id", report.RunID),
		slog.Int("success", report.SuccessCount),
		slog.Int("failures", len(report.Errors)))
	return nil
}

func (j *GrantMigrateJob) logger() *slog.Logger {
	if j.Logger != nil {
		return j.Logger
	}
	return slog.Default()
}
