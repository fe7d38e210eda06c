package migrate

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/ledgerline/ledgerline/internal/catalog"
	"github.com/ledgerline/ledgerline/internal/directory"
	"github.com/ledgerline/ledgerline/internal/grants"
	"github.com/ledgerline/ledgerline/internal/platform/cache"
)

// MigrationActor is recorded as grantedBy on every migrated grant.
const MigrationActor = "system:role-defaults"

// Scope selects which memberships a run covers.
type Scope struct {
	// WorkspaceID restricts the run to one workspace; empty means all.
	WorkspaceID string
}

// AllWorkspaces covers every membership record.
func AllWorkspaces() Scope { return Scope{} }

// SingleWorkspace covers one workspace.
func SingleWorkspace(id string) Scope { return Scope{WorkspaceID: id} }

// Status is the per-record outcome.
type Status string

const (
	StatusMigrated Status = "migrated"
	StatusFailed   Status = "failed"
)

// Detail records the outcome for one membership.
type Detail struct {
	UserID      string
	WorkspaceID string
	Role        catalog.Role
	Status      Status
	Reason      string
}

// Report aggregates a run. Partial failure is a first-class result: Errors
// and failed Details sit alongside the successes, never an error return.
type Report struct {
	RunID        string
	SuccessCount int
	Errors       []string
	Details      []Detail
	StartedAt    time.Time
	FinishedAt   time.Time
}

// GrantMerger is the write side of the grant store the runner needs.
type GrantMerger interface {
	Merge(ctx context.Context, userID, workspaceID string, updates map[string]grants.PermissionGrant, updatedBy string) error
}

// Runner batch-applies role default policies across existing memberships.
// Runs are idempotent: the store's merge preserves unchanged grants, so
// re-running yields the same final state and a full success report.
type Runner struct {
	directory directory.Directory
	store     GrantMerger
	cache     cache.Store
	logger    *slog.Logger
	now       func() time.Time
}

// NewRunner constructs a Runner. cacheStore may be nil.
func NewRunner(dir directory.Directory, store GrantMerger, cacheStore cache.Store, logger *slog.Logger) *Runner {
	return &Runner{directory: dir, store: store, cache: cacheStore, logger: logger, now: time.Now}
}

// Run applies role defaults to every membership in scope. One bad record
// never aborts the run; only the initial membership listing can fail.
func (r *Runner) Run(ctx context.Context, scope Scope) (Report, error) {
	report := Report{RunID: uuid.NewString(), StartedAt: r.now().UTC()}

	memberships, err := r.directory.ListMemberships(ctx, scope.WorkspaceID)
	if err != nil {
		return report, fmt.Errorf("migrate: list memberships: %w", err)
	}

	touched := make(map[string]struct{})
	for _, m := range memberships {
		detail := Detail{UserID: m.UserID, WorkspaceID: m.WorkspaceID, Role: m.Role}

		if reason := validate(m); reason != "" {
			detail.Status = StatusFailed
			detail.Reason = reason
			report.Details = append(report.Details, detail)
			report.Errors = append(report.Errors, fmt.Sprintf("%s/%s: %s", m.UserID, m.WorkspaceID, reason))
			continue
		}

		grantedAt := r.now().UTC()
		defaults := catalog.AllDefaultsFor(m.Role)
		updates := make(map[string]grants.PermissionGrant, len(defaults))
		for id, granted := range defaults {
			updates[id] = grants.PermissionGrant{
				Granted:   granted,
				GrantedBy: MigrationActor,
				GrantedAt: grantedAt,
			}
		}

		if err := r.store.Merge(ctx, m.UserID, m.WorkspaceID, updates, MigrationActor); err != nil {
			detail.Status = StatusFailed
			detail.Reason = err.Error()
			report.Details = append(report.Details, detail)
			report.Errors = append(report.Errors, fmt.Sprintf("%s/%s: %v", m.UserID, m.WorkspaceID, err))
			if r.logger != nil {
				r.logger.Warn("migrate: grant write failed",
					slog.String("user_id", m.UserID),
					slog.String("workspace_id", m.WorkspaceID),
					slog.Any("error", err))
			}
			continue
		}

		detail.Status = StatusMigrated
		report.Details = append(report.Details, detail)
		report.SuccessCount++
		touched[m.WorkspaceID] = struct{}{}
	}

	r.invalidate(ctx, touched)

	report.FinishedAt = r.now().UTC()
	if r.logger != nil {
		r.logger.Info("migrate: run finished",
			slog.String("run_id", report.RunID),
			slog.Int("success", report.SuccessCount),
			slog.Int("failures", len(report.Errors)))
	}
	return report, nil
}

func validate(m directory.Membership) string {
	switch {
	case m.UserID == "":
		return "missing user id"
	case m.WorkspaceID == "":
		return "missing workspace id"
	case m.Role == "":
		return "missing role"
	case !m.Role.Valid():
		return fmt.Sprintf("unknown role %q", m.Role)
	}
	return ""
}

func (r *Runner) invalidate(ctx context.Context, workspaceIDs map[string]struct{}) {
	if r.cache == nil {
		return
	}
	for id := range workspaceIDs {
		if err := r.cache.Invalidate(ctx, id); err != nil && r.logger != nil {
			r.logger.Warn("migrate: cache invalidation failed",
				slog.String("workspace_id", id), slog.Any("error", err))
		}
	}
}
