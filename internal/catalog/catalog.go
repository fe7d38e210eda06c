package catalog

import (
	"errors"
	"fmt"
)

// ErrUnknownPermission indicates a permission id absent from the catalog.
// Referencing an unknown id is a programmer error, not a denial.
var ErrUnknownPermission = errors.New("catalog: unknown permission")

// Expense permissions. The scope suffix encodes reach: all, department, own.
const (
	PermExpensesViewAll        = "expenses.view.all"
	PermExpensesViewDepartment = "expenses.view.department"
	PermExpensesViewOwn        = "expenses.view.own"
	PermExpensesCreate         = "expenses.create"
	PermExpensesEditAll        = "expenses.edit.all"
	PermExpensesEditOwn        = "expenses.edit.own"
	PermExpensesDeleteAll      = "expenses.delete.all"
	PermExpensesDeleteOwn      = "expenses.delete.own"
	PermExpensesApproveAll     = "expenses.approve.all"
	PermExpensesApproveDept    = "expenses.approve.department"
)

// Budget permissions.
const (
	PermBudgetsViewAll        = "budgets.view.all"
	PermBudgetsViewDepartment = "budgets.view.department"
	PermBudgetsCreate         = "budgets.create"
	PermBudgetsEdit           = "budgets.edit"
	PermBudgetsDelete         = "budgets.delete"
	PermBudgetsApprove        = "budgets.approve"
)

// Cost center permissions.
const (
	PermCostCentersView   = "costcenters.view"
	PermCostCentersCreate = "costcenters.create"
	PermCostCentersEdit   = "costcenters.edit"
	PermCostCentersDelete = "costcenters.delete"
)

// Generic workspace permissions.
const (
	PermWorkspaceManage      = "workspace.manage"
	PermWorkspaceMembersView = "workspace.members.view"
	PermReportsView          = "reports.view"
	PermProjectsView         = "projects.view"
)

// FinanceScopes lists every expense permission.
func FinanceScopes() []string {
	return []string{
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
	}
}

// BudgetScopes lists every budget permission.
func BudgetScopes() []string {
	return []string{
		PermBudgetsViewAll,
		PermBudgetsViewDepartment,
		PermBudgetsCreate,
		PermBudgetsEdit,
		PermBudgetsDelete,
		PermBudgetsApprove,
	}
}

// CostCenterScopes lists every cost center permission.
func CostCenterScopes() []string {
	return []string{
		PermCostCentersView,
		PermCostCentersCreate,
		PermCostCentersEdit,
		PermCostCentersDelete,
	}
}

// GenericScopes lists the workspace-level permissions.
func GenericScopes() []string {
	return []string{
		PermWorkspaceManage,
		PermWorkspaceMembersView,
		PermReportsView,
		PermProjectsView,
	}
}

// Registry is the immutable permission catalog, built once at start.
type Registry struct {
	byID    map[string]Permission
	ordered []Permission
}

// NewRegistry builds the catalog from the static definitions.
func NewRegistry() *Registry {
	defs := definitions()
	byID := make(map[string]Permission, len(defs))
	for _, def := range defs {
		byID[def.ID] = def
	}
	return &Registry{byID: byID, ordered: defs}
}

// Lookup returns the definition for id.
func (r *Registry) Lookup(id string) (Permission, error) {
	perm, ok := r.byID[id]
	if !ok {
		return Permission{}, fmt.Errorf("%w: %q", ErrUnknownPermission, id)
	}
	return perm, nil
}

// Known reports whether id exists in the catalog.
func (r *Registry) Known(id string) bool {
	_, ok := r.byID[id]
	return ok
}

// All returns every definition in declaration order.
func (r *Registry) All() []Permission {
	out := make([]Permission, len(r.ordered))
	copy(out, r.ordered)
	return out
}

func definitions() []Permission {
	return []Permission{
		{ID: PermExpensesViewAll, Name: "View all expenses", Description: "See every expense in the workspace", Category: "expenses", Feature: "finance"},
		{ID: PermExpensesViewDepartment, Name: "View department expenses", Description: "See expenses filed within the actor's departments", Category: "expenses", Feature: "finance"},
		{ID: PermExpensesViewOwn, Name: "View own expenses", Description: "See expenses the actor filed", Category: "expenses", Feature: "finance"},
		{ID: PermExpensesCreate, Name: "Create expenses", Description: "File new expenses", Category: "expenses", Feature: "finance"},
		{ID: PermExpensesEditAll, Name: "Edit any expense", Description: "Modify any editable expense", Category: "expenses", Feature: "finance"},
		{ID: PermExpensesEditOwn, Name: "Edit own expenses", Description: "Modify the actor's own editable expenses", Category: "expenses", Feature: "finance"},
		{ID: PermExpensesDeleteAll, Name: "Delete any expense", Description: "Remove any deletable expense", Category: "expenses", Feature: "finance"},
		{ID: PermExpensesDeleteOwn, Name: "Delete own expenses", Description: "Remove the actor's own deletable expenses", Category: "expenses", Feature: "finance"},
		{ID: PermExpensesApproveAll, Name: "Approve expenses", Description: "Approve any pending expense", Category: "expenses", Feature: "finance"},
		{ID: PermExpensesApproveDept, Name: "Approve department expenses", Description: "Approve pending expenses within the actor's departments", Category: "expenses", Feature: "finance"},

		{ID: PermBudgetsViewAll, Name: "View all budgets", Description: "See every budget in the workspace", Category: "budgets", Feature: "finance"},
		{ID: PermBudgetsViewDepartment, Name: "View department budgets", Description: "See budgets scoped to the actor's departments", Category: "budgets", Feature: "finance"},
		{ID: PermBudgetsCreate, Name: "Create budgets", Description: "Create new budgets", Category: "budgets", Feature: "finance"},
		{ID: PermBudgetsEdit, Name: "Edit budgets", Description: "Modify existing budgets", Category: "budgets", Feature: "finance"},
		{ID: PermBudgetsDelete, Name: "Delete budgets", Description: "Remove budgets", Category: "budgets", Feature: "finance"},
		{ID: PermBudgetsApprove, Name: "Approve budgets", Description: "Approve budget changes", Category: "budgets", Feature: "finance"},

		{ID: PermCostCentersView, Name: "View cost centers", Description: "See the workspace cost center tree", Category: "costcenters", Feature: "finance"},
		{ID: PermCostCentersCreate, Name: "Create cost centers", Description: "Add cost centers", Category: "costcenters", Feature: "finance"},
		{ID: PermCostCentersEdit, Name: "Edit cost centers", Description: "Modify cost centers", Category: "costcenters", Feature: "finance"},
		{ID: PermCostCentersDelete, Name: "Delete cost centers", Description: "Remove cost centers", Category: "costcenters", Feature: "finance"},

		{ID: PermWorkspaceManage, Name: "Manage workspace", Description: "Change workspace settings and membership", Category: "workspace", Feature: "core"},
		{ID: PermWorkspaceMembersView, Name: "View members", Description: "List workspace members", Category: "workspace", Feature: "core"},
		{ID: PermReportsView, Name: "View reports", Description: "Open financial reports", Category: "reports", Feature: "core"},
		{ID: PermProjectsView, Name: "View projects", Description: "See workspace projects", Category: "projects", Feature: "core"},
	}
}
