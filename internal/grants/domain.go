package grants

import (
	"context"
	"errors"
	"time"
)

var (
	// ErrInvalidUpdate indicates a malformed grant update payload.
	ErrInvalidUpdate = errors.New("grants: invalid update")

	// ErrUnknownSubject indicates a grant write against a user or workspace
	// the directory does not know.
	ErrUnknownSubject = errors.New("grants: unknown user or workspace")
)

// PermissionGrant is one explicit, possibly time-bounded grant entry.
type PermissionGrant struct {
	Granted   bool
	GrantedBy string
	GrantedAt time.Time
	ExpiresAt *time.Time
}

// Expired reports whether the grant's time bound has passed.
func (g PermissionGrant) Expired(now time.Time) bool {
	return g.ExpiresAt != nil && !now.Before(*g.ExpiresAt)
}

// ActiveAt reports whether the grant permits the permission at now.
func (g PermissionGrant) ActiveAt(now time.Time) bool {
	return g.Granted && !g.Expired(now)
}

// Record holds every explicit grant for one (user, workspace) pair.
// A nil Record means no explicit grants: resolution falls back to role
// defaults, it is not an error.
type Record struct {
	UserID      string
	WorkspaceID string
	Permissions map[string]PermissionGrant
	UpdatedAt   time.Time
}

// Active reports whether the record explicitly permits permissionID at now.
// Nil-safe.
func (r *Record) Active(permissionID string, now time.Time) bool {
	if r == nil {
		return false
	}
	grant, ok := r.Permissions[permissionID]
	return ok && grant.ActiveAt(now)
}

// Store is the durable grant persistence collaborator. Merge applies a
// partial update: permissions absent from updates are never touched, so
// concurrent merges for different permission ids on the same record do not
// clobber each other.
type Store interface {
	Get(ctx context.Context, userID, workspaceID string) (*Record, error)
	Merge(ctx context.Context, userID, workspaceID string, updates map[string]PermissionGrant, updatedBy string) error
	// Delete removes the whole record: the explicit "revoke all" path.
	Delete(ctx context.Context, userID, workspaceID string) error
}
