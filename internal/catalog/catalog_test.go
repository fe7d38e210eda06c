package catalog

import (
	"errors"
	"sort"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func grantedSet(domain Domain, role Role) map[string]struct{} {
	out := make(map[string]struct{})
	for id, granted := range DefaultsFor(domain, role) {
		if granted {
			out[id] = struct{}{}
		}
	}
	return out
}

func missingFrom(superset, subset map[string]struct{}) []string {
	var missing []string
	for id := range subset {
		if _, ok := superset[id]; !ok {
			missing = append(missing, id)
		}
	}
	sort.Strings(missing)
	return missing
}

func delta(larger, smaller map[string]struct{}) []string {
	var out []string
	for id := range larger {
		if _, ok := smaller[id]; !ok {
			out = append(out, id)
		}
	}
	sort.Strings(out)
	return out
}

func TestRoleDefaultsFormSupersetChain(t *testing.T) {
	for _, domain := range Domains() {
		owner := grantedSet(domain, RoleOwner)
		admin := grantedSet(domain, RoleAdmin)
		member := grantedSet(domain, RoleMember)

		assert.Empty(t, missingFrom(owner, admin), "domain %s: admin defaults not covered by owner", domain)
		assert.Empty(t, missingFrom(admin, member), "domain %s: member defaults not covered by admin", domain)
	}
}

func TestOwnerAdminDeltaInFinanceIsWorkspaceWideSet(t *testing.T) {
	owner := grantedSet(DomainFinance, RoleOwner)
	admin := grantedSet(DomainFinance, RoleAdmin)

	want := []string{
		PermExpensesApproveAll,
		PermExpensesDeleteAll,
		PermExpensesEditAll,
		PermExpensesViewAll,
	}
	assert.Equal(t, want, delta(owner, admin))
}

func TestAdminMemberDeltaInFinanceIsDepartmentScope(t *testing.T) {
	admin := grantedSet(DomainFinance, RoleAdmin)
	member := grantedSet(DomainFinance, RoleMember)

	want := []string{
		PermExpensesApproveDept,
		PermExpensesViewDepartment,
	}
	assert.Equal(t, want, delta(admin, member))
}

func TestEveryDefaultPermissionExistsInCatalog(t *testing.T) {
	reg := NewRegistry()
	for _, domain := range Domains() {
		for _, role := range []Role{RoleOwner, RoleAdmin, RoleMember} {
			for id := range DefaultsFor(domain, role) {
				assert.True(t, reg.Known(id), "domain %s role %s references unknown permission %s", domain, role, id)
			}
		}
	}
}

func TestRegistryLookup(t *testing.T) {
	reg := NewRegistry()

	perm, err := reg.Lookup(PermExpensesApproveDept)
	require.NoError(t, err)
	assert.Equal(t, "expenses", perm.Category)
	assert.Equal(t, "finance", perm.Feature)

	_, err = reg.Lookup("expenses.nonsense")
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrUnknownPermission))
}

func TestRegistryHasNoDuplicateIDs(t *testing.T) {
	reg := NewRegistry()
	seen := make(map[string]struct{})
	for _, perm := range reg.All() {
		_, dup := seen[perm.ID]
		require.False(t, dup, "duplicate permission id %s", perm.ID)
		seen[perm.ID] = struct{}{}
	}
}
