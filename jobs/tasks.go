package jobs

import (
	"encoding/json"

	"github.com/hibiken/asynq"
)

const (
	// QueueDefault is the default queue name for background jobs.
	QueueDefault = "default"

	// TaskGrantMigrate applies role default policies across memberships.
	TaskGrantMigrate = "grants:migrate"
	// TaskGrantExpirySweep deletes grant rows whose time bound has passed.
	TaskGrantExpirySweep = "grants:sweep-expired"
	// TaskCacheCleanup evicts expired workspace cache entries.
	TaskCacheCleanup = "cache:cleanup"
	// TaskWorkspaceWarmup refreshes cached workspace datasets.
	TaskWorkspaceWarmup = "workspace:warmup"
)

// GrantMigratePayload selects the migration scope. An empty WorkspaceID
// covers every workspace.
type GrantMigratePayload struct {
	WorkspaceID string `json:"workspace_id,omitempty"`
}

// NewGrantMigrateTask constructs the migration task.
func NewGrantMigrateTask(payload GrantMigratePayload) (*asynq.Task, error) {
	data, err := json.Marshal(payload)
	if err != nil {
		return nil, err
	}
	return asynq.NewTask(TaskGrantMigrate, data), nil
}

// NewGrantExpirySweepTask constructs the expiry sweep task.
func NewGrantExpirySweepTask() *asynq.Task {
	return asynq.NewTask(TaskGrantExpirySweep, nil)
}

// NewCacheCleanupTask constructs the cache cleanup task.
func NewCacheCleanupTask() *asynq.Task {
	return asynq.NewTask(TaskCacheCleanup, nil)
}

// NewWorkspaceWarmupTask constructs the workspace warmup task.
func NewWorkspaceWarmupTask() *asynq.Task {
	return asynq.NewTask(TaskWorkspaceWarmup, nil)
}
