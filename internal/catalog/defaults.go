package catalog

// Role default policies. Each domain seeds grants per role; the migration
// runner applies these across existing memberships and the resolver falls
// back to them when no explicit grant exists.
//
// Owner defaults are a superset of admin defaults, admin a superset of
// member. Admins operate at department scope: the workspace-wide
// expense permissions (view.all, edit.all, approve.all) stay with owners.
// So does expenses.delete.all; admins administer day-to-day spend but
// may not erase other people's expense history.

var roleDefaults = map[Domain]map[Role][]string{
	DomainFinance: {
		RoleOwner: {
			PermExpensesViewAll,
			PermExpensesViewDepartment,
			PermExpensesViewOwn,
			PermExpensesCreate,
			PermExpensesEditAll,
			PermExpensesEditOwn,
			PermExpensesDeleteAll,
			PermExpensesDeleteOwn,
			PermExpensesApproveAll,
			PermExpensesApproveDept,
		},
		RoleAdmin: {
			PermExpensesViewDepartment,
			PermExpensesViewOwn,
			PermExpensesCreate,
			PermExpensesEditOwn,
			PermExpensesDeleteOwn,
			PermExpensesApproveDept,
		},
		RoleMember: {
			PermExpensesViewOwn,
			PermExpensesCreate,
			PermExpensesEditOwn,
			PermExpensesDeleteOwn,
		},
	},
	DomainBudgets: {
		RoleOwner: {
			PermBudgetsViewAll,
			PermBudgetsViewDepartment,
			PermBudgetsCreate,
			PermBudgetsEdit,
			PermBudgetsDelete,
			PermBudgetsApprove,
		},
		RoleAdmin: {
			PermBudgetsViewAll,
			PermBudgetsViewDepartment,
			PermBudgetsCreate,
			PermBudgetsEdit,
			PermBudgetsApprove,
		},
		RoleMember: {
			PermBudgetsViewDepartment,
		},
	},
	DomainCostCenters: {
		RoleOwner: {
			PermCostCentersView,
			PermCostCentersCreate,
			PermCostCentersEdit,
			PermCostCentersDelete,
		},
		RoleAdmin: {
			PermCostCentersView,
			PermCostCentersCreate,
			PermCostCentersEdit,
		},
		RoleMember: {
			PermCostCentersView,
		},
	},
	DomainGeneric: {
		RoleOwner: {
			PermWorkspaceManage,
			PermWorkspaceMembersView,
			PermReportsView,
			PermProjectsView,
		},
		RoleAdmin: {
			PermWorkspaceMembersView,
			PermReportsView,
			PermProjectsView,
		},
		RoleMember: {
			PermProjectsView,
		},
	},
}

// DefaultsFor returns the seed grant set for a role within a domain. Every
// listed permission is granted; absence means no default grant.
func DefaultsFor(domain Domain, role Role) map[string]bool {
	perms := roleDefaults[domain][role]
	out := make(map[string]bool, len(perms))
	for _, id := range perms {
		out[id] = true
	}
	return out
}

// AllDefaultsFor merges every domain's defaults for a role into one set.
// The migration runner applies this merged view per membership.
func AllDefaultsFor(role Role) map[string]bool {
	out := make(map[string]bool)
	for _, domain := range Domains() {
		for id, granted := range DefaultsFor(domain, role) {
			out[id] = granted
		}
	}
	return out
}
