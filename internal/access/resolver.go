package access

import (
	"context"
	"log/slog"
	"time"

	"github.com/ledgerline/ledgerline/internal/catalog"
	"github.com/ledgerline/ledgerline/internal/directory"
	"github.com/ledgerline/ledgerline/internal/grants"
)

// GrantReader is the read side of the grant store the resolver needs.
type GrantReader interface {
	Get(ctx context.Context, userID, workspaceID string) (*grants.Record, error)
}

// Resolver combines role, explicit grants and department membership into an
// AccessLevel snapshot.
type Resolver struct {
	directory directory.Directory
	grants    GrantReader
	logger    *slog.Logger
	now       func() time.Time
}

// NewResolver constructs a Resolver.
func NewResolver(dir directory.Directory, reader GrantReader, logger *slog.Logger) *Resolver {
	return &Resolver{directory: dir, grants: reader, logger: logger, now: time.Now}
}

// Resolve computes the actor's AccessLevel for the workspace.
//
// Directory failures resolve to NoAccess rather than an error; only grant
// store failures propagate, since the caller may retry those.
func (r *Resolver) Resolve(ctx context.Context, userID, workspaceID string) (AccessLevel, error) {
	user, err := r.directory.GetUser(ctx, userID)
	if err != nil {
		if r.logger != nil {
			r.logger.Warn("access: directory lookup failed, resolving to no access",
				slog.String("user_id", userID),
				slog.String("workspace_id", workspaceID),
				slog.Any("error", err))
		}
		return NoAccess(), nil
	}
	if !user.IsActive {
		return NoAccess(), nil
	}

	// Owner bypass: the single, auditable override. Owners skip explicit
	// grant evaluation entirely.
	if user.Role == catalog.RoleOwner {
		return ownerAccess(), nil
	}

	record, err := r.grants.Get(ctx, userID, workspaceID)
	if err != nil {
		return NoAccess(), err
	}

	now := r.now()
	defaults := catalog.DefaultsFor(catalog.DomainFinance, user.Role)
	allows := func(permissionID string) bool {
		if record.Active(permissionID, now) {
			return true
		}
		// Explicit denials override role defaults.
		if record != nil {
			if grant, ok := record.Permissions[permissionID]; ok && !grant.Expired(now) && !grant.Granted {
				return false
			}
		}
		return defaults[permissionID]
	}

	level := AccessLevel{
		CanViewAll:           allows(catalog.PermExpensesViewAll),
		CanViewDepartment:    allows(catalog.PermExpensesViewDepartment),
		CanViewOwn:           allows(catalog.PermExpensesViewOwn),
		CanApprove:           allows(catalog.PermExpensesApproveAll),
		CanApproveDepartment: allows(catalog.PermExpensesApproveDept),
		CanEdit:              allows(catalog.PermExpensesEditAll),
		CanEditOwn:           allows(catalog.PermExpensesEditOwn),
		CanDelete:            allows(catalog.PermExpensesDeleteAll),
		CanDeleteOwn:         allows(catalog.PermExpensesDeleteOwn),
	}

	switch {
	case level.CanViewAll:
		// Unrestricted: the empty list means "no restriction" here.
	case level.CanViewDepartment && user.DepartmentID != "":
		level.AllowedDepartments = []string{user.DepartmentID}
	}

	return level, nil
}

// ownerAccess is the full-capability snapshot. Cross-workspace reach and
// workspace management derive purely from the owner role today, bypassing
// the explicit grant system.
func ownerAccess() AccessLevel {
	return AccessLevel{
		CanViewAll:              true,
		CanViewDepartment:       true,
		CanViewOwn:              true,
		CanApprove:              true,
		CanApproveDepartment:    true,
		CanEdit:                 true,
		CanEditOwn:              true,
		CanDelete:               true,
		CanDeleteOwn:            true,
		CanAccessCrossWorkspace: true,
		CanManageWorkspace:      true,
	}
}
