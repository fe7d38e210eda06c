package workspace

import "context"

// CostCenter is a workspace cost center.
type CostCenter struct {
	ID          string `json:"id"`
	WorkspaceID string `json:"workspace_id"`
	Code        string `json:"code"`
	Name        string `json:"name"`
}

// Department is a workspace department.
type Department struct {
	ID          string `json:"id"`
	WorkspaceID string `json:"workspace_id"`
	Name        string `json:"name"`
}

// Member is the workspace-roster view of a user.
type Member struct {
	ID           string `json:"id"`
	Email        string `json:"email"`
	Name         string `json:"name"`
	DepartmentID string `json:"department_id,omitempty"`
}

// Project is a workspace project.
type Project struct {
	ID          string `json:"id"`
	WorkspaceID string `json:"workspace_id"`
	Name        string `json:"name"`
	Status      string `json:"status"`
}

// Data aggregates the per-workspace datasets the resolvers consume.
// WorkspaceID is empty on merged multi-workspace results.
type Data struct {
	WorkspaceID string       `json:"workspace_id,omitempty"`
	CostCenters []CostCenter `json:"cost_centers"`
	Departments []Department `json:"departments"`
	Users       []Member     `json:"users"`
	Projects    []Project    `json:"projects"`
}

// Fetcher is the entity data collaborator: one fetch per dataset, each
// scoped to a workspace.
type Fetcher interface {
	FetchCostCenters(ctx context.Context, workspaceID string) ([]CostCenter, error)
	FetchDepartments(ctx context.Context, workspaceID string) ([]Department, error)
	FetchUsers(ctx context.Context, workspaceID string) ([]Member, error)
	FetchProjects(ctx context.Context, workspaceID string) ([]Project, error)
}
