package access

import (
	"context"
	"errors"
	"log/slog"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ledgerline/ledgerline/internal/catalog"
	"github.com/ledgerline/ledgerline/internal/directory"
	"github.com/ledgerline/ledgerline/internal/grants"
)

type fakeDirectory struct {
	users map[string]directory.User
	tree  directory.WorkspaceTree
	err   error
}

func (f *fakeDirectory) GetUser(ctx context.Context, userID string) (directory.User, error) {
	if f.err != nil {
		return directory.User{}, f.err
	}
	user, ok := f.users[userID]
	if !ok {
		return directory.User{}, directory.ErrNotFound
	}
	return user, nil
}

func (f *fakeDirectory) ListMemberships(ctx context.Context, workspaceID string) ([]directory.Membership, error) {
	return nil, nil
}

func (f *fakeDirectory) AccessibleWorkspaces(ctx context.Context, userID string) (directory.WorkspaceTree, error) {
	return f.tree, nil
}

type fakeGrants struct {
	records map[string]*grants.Record
	err     error
}

func (f *fakeGrants) Get(ctx context.Context, userID, workspaceID string) (*grants.Record, error) {
	if f.err != nil {
		return nil, f.err
	}
	return f.records[userID+"/"+workspaceID], nil
}

func activeUser(id string, role catalog.Role, dept string) directory.User {
	return directory.User{ID: id, Role: role, DepartmentID: dept, IsActive: true}
}

func TestResolveOwnerBypass(t *testing.T) {
	dir := &fakeDirectory{users: map[string]directory.User{
		"owner-1": activeUser("owner-1", catalog.RoleOwner, "d1"),
	}}
	// Explicit denials must be irrelevant for owners.
	store := &fakeGrants{records: map[string]*grants.Record{
		"owner-1/w1": {Permissions: map[string]grants.PermissionGrant{
			catalog.PermExpensesViewAll: {Granted: false, GrantedAt: time.Now()},
		}},
	}}
	resolver := NewResolver(dir, store, slog.Default())

	level, err := resolver.Resolve(context.Background(), "owner-1", "w1")
	require.NoError(t, err)

	assert.True(t, level.CanViewAll)
	assert.True(t, level.CanApprove)
	assert.True(t, level.CanDelete)
	assert.True(t, level.CanAccessCrossWorkspace)
	assert.True(t, level.CanManageWorkspace)
	assert.Empty(t, level.AllowedDepartments, "owners are unrestricted")
}

func TestResolveAdminDepartmentScope(t *testing.T) {
	dir := &fakeDirectory{users: map[string]directory.User{
		"admin-1": activeUser("admin-1", catalog.RoleAdmin, "d1"),
	}}
	resolver := NewResolver(dir, &fakeGrants{}, slog.Default())

	level, err := resolver.Resolve(context.Background(), "admin-1", "w1")
	require.NoError(t, err)

	assert.False(t, level.CanViewAll)
	assert.True(t, level.CanViewDepartment)
	assert.True(t, level.CanApproveDepartment)
	assert.Equal(t, []string{"d1"}, level.AllowedDepartments)

	assert.True(t, CanView(level, Entity{DepartmentID: "d1", OwnerID: "other"}, "admin-1"))
	assert.False(t, CanView(level, Entity{DepartmentID: "d2", OwnerID: "other"}, "admin-1"))
}

func TestResolveAdminWithoutDepartmentHasNoDepartmentReach(t *testing.T) {
	dir := &fakeDirectory{users: map[string]directory.User{
		"admin-1": activeUser("admin-1", catalog.RoleAdmin, ""),
	}}
	resolver := NewResolver(dir, &fakeGrants{}, slog.Default())

	level, err := resolver.Resolve(context.Background(), "admin-1", "w1")
	require.NoError(t, err)

	assert.True(t, level.CanViewDepartment)
	assert.Empty(t, level.AllowedDepartments)
	assert.False(t, CanView(level, Entity{DepartmentID: "d1", OwnerID: "other"}, "admin-1"))
}

func TestResolveExplicitGrantExtendsMember(t *testing.T) {
	dir := &fakeDirectory{users: map[string]directory.User{
		"member-1": activeUser("member-1", catalog.RoleMember, "d1"),
	}}
	store := &fakeGrants{records: map[string]*grants.Record{
		"member-1/w1": {Permissions: map[string]grants.PermissionGrant{
			catalog.PermExpensesViewAll: {Granted: true, GrantedAt: time.Now()},
		}},
	}}
	resolver := NewResolver(dir, store, slog.Default())

	level, err := resolver.Resolve(context.Background(), "member-1", "w1")
	require.NoError(t, err)

	assert.True(t, level.CanViewAll)
	assert.Empty(t, level.AllowedDepartments, "view-all implies the unrestricted sentinel")
}

func TestResolveExpiredGrantFallsBackToRole(t *testing.T) {
	expired := time.Now().Add(-time.Hour)
	dir := &fakeDirectory{users: map[string]directory.User{
		"member-1": activeUser("member-1", catalog.RoleMember, "d1"),
	}}
	store := &fakeGrants{records: map[string]*grants.Record{
		"member-1/w1": {Permissions: map[string]grants.PermissionGrant{
			catalog.PermExpensesViewAll: {Granted: true, GrantedAt: expired.Add(-time.Hour), ExpiresAt: &expired},
		}},
	}}
	resolver := NewResolver(dir, store, slog.Default())

	level, err := resolver.Resolve(context.Background(), "member-1", "w1")
	require.NoError(t, err)

	assert.False(t, level.CanViewAll, "expired grant must resolve as absent")
	assert.True(t, level.CanViewOwn, "role default survives the lapsed grant")
}

func TestResolveExplicitDenialOverridesRoleDefault(t *testing.T) {
	dir := &fakeDirectory{users: map[string]directory.User{
		"member-1": activeUser("member-1", catalog.RoleMember, "d1"),
	}}
	store := &fakeGrants{records: map[string]*grants.Record{
		"member-1/w1": {Permissions: map[string]grants.PermissionGrant{
			catalog.PermExpensesEditOwn: {Granted: false, GrantedAt: time.Now()},
		}},
	}}
	resolver := NewResolver(dir, store, slog.Default())

	level, err := resolver.Resolve(context.Background(), "member-1", "w1")
	require.NoError(t, err)

	// Members hold edit-own by default; the explicit denial wins.
	hasDefault := catalog.DefaultsFor(catalog.DomainFinance, catalog.RoleMember)[catalog.PermExpensesEditOwn]
	require.True(t, hasDefault, "fixture assumes members hold the edit-own default")
	assert.False(t, level.CanEditOwn)
	assert.True(t, level.CanViewOwn, "denial is scoped to one permission")
}

func TestResolveDirectoryFailureIsNoAccess(t *testing.T) {
	resolver := NewResolver(&fakeDirectory{err: errors.New("directory down")}, &fakeGrants{}, slog.Default())

	level, err := resolver.Resolve(context.Background(), "u1", "w1")
	require.NoError(t, err, "directory failure is data, not an error")
	assert.Equal(t, NoAccess(), level)
}

func TestResolveUnknownUserIsNoAccess(t *testing.T) {
	resolver := NewResolver(&fakeDirectory{users: map[string]directory.User{}}, &fakeGrants{}, slog.Default())

	level, err := resolver.Resolve(context.Background(), "ghost", "w1")
	require.NoError(t, err)
	assert.Equal(t, NoAccess(), level)
}

func TestResolveInactiveUserIsNoAccess(t *testing.T) {
	user := activeUser("u1", catalog.RoleAdmin, "d1")
	user.IsActive = false
	resolver := NewResolver(&fakeDirectory{users: map[string]directory.User{"u1": user}}, &fakeGrants{}, slog.Default())

	level, err := resolver.Resolve(context.Background(), "u1", "w1")
	require.NoError(t, err)
	assert.Equal(t, NoAccess(), level)
}

func TestResolveGrantStoreFailurePropagates(t *testing.T) {
	dir := &fakeDirectory{users: map[string]directory.User{
		"member-1": activeUser("member-1", catalog.RoleMember, "d1"),
	}}
	resolver := NewResolver(dir, &fakeGrants{err: errors.New("store unreachable")}, slog.Default())

	level, err := resolver.Resolve(context.Background(), "member-1", "w1")
	require.Error(t, err)
	assert.Equal(t, NoAccess(), level)
}
