package directory

import (
	"context"
	"errors"

	"github.com/ledgerline/ledgerline/internal/catalog"
)

// ErrNotFound indicates that the requested record does not exist.
var ErrNotFound = errors.New("directory: not found")

// User is the directory's view of an actor: role plus department
// assignment. DepartmentID is empty when the user has no department.
type User struct {
	ID           string
	Email        string
	Name         string
	Role         catalog.Role
	DepartmentID string
	IsActive     bool
}

// Membership ties a user to a workspace with a role. Role may be empty for
// malformed legacy records; consumers must treat those as errors per record,
// never abort a batch.
type Membership struct {
	UserID      string
	WorkspaceID string
	Role        catalog.Role
}

// WorkspaceTree describes the tenants reachable by a user: the main
// tenants they belong to and the sub-tenants under each.
type WorkspaceTree struct {
	MainTenants        []string
	SubTenantsByParent map[string][]string
}

// SubTenants returns the children of parent, nil when there are none.
func (t WorkspaceTree) SubTenants(parent string) []string {
	if t.SubTenantsByParent == nil {
		return nil
	}
	return t.SubTenantsByParent[parent]
}

// Directory is the identity/membership collaborator. The engine only reads
// from it; writes belong to the host application.
type Directory interface {
	// GetUser returns the user's role and department assignment.
	GetUser(ctx context.Context, userID string) (User, error)
	// ListMemberships returns every (user, workspace, role) relationship,
	// optionally filtered to one workspace via a non-empty workspaceID.
	ListMemberships(ctx context.Context, workspaceID string) ([]Membership, error)
	// AccessibleWorkspaces returns the tenant tree reachable by the user.
	AccessibleWorkspaces(ctx context.Context, userID string) (WorkspaceTree, error)
}
