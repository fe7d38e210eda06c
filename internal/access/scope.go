package access

import (
	"context"

	"github.com/ledgerline/ledgerline/internal/directory"
)

// FilterType names the query scope a caller should apply.
type FilterType string

const (
	FilterAll            FilterType = "all"
	FilterDepartment     FilterType = "department"
	FilterOwn            FilterType = "own"
	FilterNone           FilterType = "none"
	FilterCrossWorkspace FilterType = "cross-workspace"
)

// WorkspaceScope is a transient query-filter descriptor derived from an
// AccessLevel. Callers translate it into whatever query shape they use.
type WorkspaceScope struct {
	FilterType    FilterType
	DepartmentIDs []string
	// UserID is set when the actor's own records must be included.
	UserID       string
	WorkspaceIDs []string
	CanManageAll bool
}

// ExpenseFilterCriteria builds the single-tenant query scope for the actor,
// in priority order: all, department, own, none. Department-level viewers
// who also hold own-view rights get their own id included so expenses they
// filed outside their department stay visible.
func ExpenseFilterCriteria(level AccessLevel, actorID string) WorkspaceScope {
	switch {
	case level.CanViewAll:
		return WorkspaceScope{FilterType: FilterAll}
	case level.CanViewDepartment && len(level.AllowedDepartments) > 0:
		scope := WorkspaceScope{
			FilterType:    FilterDepartment,
			DepartmentIDs: level.AllowedDepartments,
		}
		if level.CanViewOwn {
			scope.UserID = actorID
		}
		return scope
	case level.CanViewOwn:
		return WorkspaceScope{FilterType: FilterOwn, UserID: actorID}
	default:
		return WorkspaceScope{FilterType: FilterNone}
	}
}

// ScopeExpander widens elevated actors to the full reachable tenant set.
type ScopeExpander struct {
	resolver  *Resolver
	directory directory.Directory
}

// NewScopeExpander constructs a ScopeExpander.
func NewScopeExpander(resolver *Resolver, dir directory.Directory) *ScopeExpander {
	return &ScopeExpander{resolver: resolver, directory: dir}
}

// Expand returns the cross-workspace scope for the actor rooted at
// tenantID: the tenant itself plus every reachable sub-tenant. Actors
// without cross-workspace reach get FilterNone.
func (e *ScopeExpander) Expand(ctx context.Context, userID, tenantID string) (WorkspaceScope, error) {
	level, err := e.resolver.Resolve(ctx, userID, tenantID)
	if err != nil {
		return WorkspaceScope{FilterType: FilterNone}, err
	}
	if !level.CanAccessCrossWorkspace {
		return WorkspaceScope{FilterType: FilterNone}, nil
	}

	tree, err := e.directory.AccessibleWorkspaces(ctx, userID)
	if err != nil {
		return WorkspaceScope{FilterType: FilterNone}, err
	}

	ids := append([]string{tenantID}, tree.SubTenants(tenantID)...)
	return WorkspaceScope{
		FilterType:   FilterCrossWorkspace,
		WorkspaceIDs: ids,
		CanManageAll: true,
	}, nil
}
