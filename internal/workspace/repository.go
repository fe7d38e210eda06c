package workspace

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5/pgxpool"
)

// Repository provides PostgreSQL backed dataset fetches.
type Repository struct {
	pool *pgxpool.Pool
}

// NewRepository constructs a repository.
func NewRepository(pool *pgxpool.Pool) *Repository {
	return &Repository{pool: pool}
}

// FetchCostCenters returns the workspace's cost centers.
func (r *Repository) FetchCostCenters(ctx context.Context, workspaceID string) ([]CostCenter, error) {
	rows, err := r.pool.Query(ctx,
		`SELECT id, workspace_id, code, name
		 FROM cost_centers WHERE workspace_id = $1 ORDER BY code`, workspaceID)
	if err != nil {
		return nil, fmt.Errorf("workspace: fetch cost centers: %w", err)
	}
	defer rows.Close()

	var centers []CostCenter
	for rows.Next() {
		var cc CostCenter
		if err := rows.Scan(&cc.ID, &cc.WorkspaceID, &cc.Code, &cc.Name); err != nil {
			return nil, fmt.Errorf("workspace: scan cost center: %w", err)
		}
		centers = append(centers, cc)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("workspace: fetch cost centers: %w", err)
	}
	return centers, nil
}

// FetchDepartments returns the workspace's departments.
func (r *Repository) FetchDepartments(ctx context.Context, workspaceID string) ([]Department, error) {
	rows, err := r.pool.Query(ctx,
		`SELECT id, workspace_id, name
		 FROM departments WHERE workspace_id = $1 ORDER BY name`, workspaceID)
	if err != nil {
		return nil, fmt.Errorf("workspace: fetch departments: %w", err)
	}
	defer rows.Close()

	var departments []Department
	for rows.Next() {
		var d Department
		if err := rows.Scan(&d.ID, &d.WorkspaceID, &d.Name); err != nil {
			return nil, fmt.Errorf("workspace: scan department: %w", err)
		}
		departments = append(departments, d)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("workspace: fetch departments: %w", err)
	}
	return departments, nil
}

// FetchUsers returns the workspace's member roster.
func (r *Repository) FetchUsers(ctx context.Context, workspaceID string) ([]Member, error) {
	rows, err := r.pool.Query(ctx,
		`SELECT u.id, u.email, u.name, COALESCE(u.department_id, '')
		 FROM users u
		 JOIN workspace_memberships m ON m.user_id = u.id
		 WHERE m.workspace_id = $1
		 ORDER BY u.name`, workspaceID)
	if err != nil {
		return nil, fmt.Errorf("workspace: fetch users: %w", err)
	}
	defer rows.Close()

	var members []Member
	for rows.Next() {
		var m Member
		if err := rows.Scan(&m.ID, &m.Email, &m.Name, &m.DepartmentID); err != nil {
			return nil, fmt.Errorf("workspace: scan user: %w", err)
		}
		members = append(members, m)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("workspace: fetch users: %w", err)
	}
	return members, nil
}

// FetchProjects returns the workspace's projects.
func (r *Repository) FetchProjects(ctx context.Context, workspaceID string) ([]Project, error) {
	rows, err := r.pool.Query(ctx,
		`SELECT id, workspace_id, name, status
		 FROM projects WHERE workspace_id = $1 ORDER BY name`, workspaceID)
	if err != nil {
		return nil, fmt.Errorf("workspace: fetch projects: %w", err)
	}
	defer rows.Close()

	var projects []Project
	for rows.Next() {
		var p Project
		if err := rows.Scan(&p.ID, &p.WorkspaceID, &p.Name, &p.Status); err != nil {
			return nil, fmt.Errorf("workspace: scan project: %w", err)
		}
		projects = append(projects, p)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("workspace: fetch projects: %w", err)
	}
	return projects, nil
}
