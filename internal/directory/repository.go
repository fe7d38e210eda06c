package directory

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/ledgerline/ledgerline/internal/catalog"
)

// Repository provides PostgreSQL backed directory reads.
type Repository struct {
	pool *pgxpool.Pool
}

// NewRepository constructs a repository.
func NewRepository(pool *pgxpool.Pool) *Repository {
	return &Repository{pool: pool}
}

// GetUser returns the user's role and department assignment.
func (r *Repository) GetUser(ctx context.Context, userID string) (User, error) {
	var user User
	err := r.pool.QueryRow(ctx,
		`SELECT id, email, name, role, COALESCE(department_id, ''), is_active
		 FROM users WHERE id = $1`, userID,
	).Scan(&user.ID, &user.Email, &user.Name, &user.Role, &user.DepartmentID, &user.IsActive)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return User{}, ErrNotFound
		}
		return User{}, fmt.Errorf("directory: get user: %w", err)
	}
	return user, nil
}

// ListMemberships returns user/workspace/role relationships, optionally
// filtered to one workspace.
func (r *Repository) ListMemberships(ctx context.Context, workspaceID string) ([]Membership, error) {
	query := `SELECT user_id, workspace_id, COALESCE(role, '')
		  FROM workspace_memberships`
	args := []interface{}{}
	if workspaceID != "" {
		query += ` WHERE workspace_id = $1`
		args = append(args, workspaceID)
	}
	query += ` ORDER BY workspace_id, user_id`

	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("directory: list memberships: %w", err)
	}
	defer rows.Close()

	var memberships []Membership
	for rows.Next() {
		var m Membership
		var role string
		if err := rows.Scan(&m.UserID, &m.WorkspaceID, &role); err != nil {
			return nil, fmt.Errorf("directory: scan membership: %w", err)
		}
		m.Role = catalog.Role(role)
		memberships = append(memberships, m)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("directory: list memberships: %w", err)
	}
	return memberships, nil
}

// ListWorkspaceIDs returns every workspace id, main tenants first.
func (r *Repository) ListWorkspaceIDs(ctx context.Context) ([]string, error) {
	rows, err := r.pool.Query(ctx,
		`SELECT id FROM workspaces ORDER BY parent_id NULLS FIRST, id`)
	if err != nil {
		return nil, fmt.Errorf("directory: list workspaces: %w", err)
	}
	defer rows.Close()

	var ids []string
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, fmt.Errorf("directory: scan workspace id: %w", err)
		}
		ids = append(ids, id)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("directory: list workspaces: %w", err)
	}
	return ids, nil
}

// AccessibleWorkspaces returns the main tenants the user belongs to and the
// sub-tenants under each.
func (r *Repository) AccessibleWorkspaces(ctx context.Context, userID string) (WorkspaceTree, error) {
	rows, err := r.pool.Query(ctx,
		`SELECT w.id, COALESCE(w.parent_id, '')
		 FROM workspaces w
		 LEFT JOIN workspaces parent ON parent.id = w.parent_id
		 WHERE w.parent_id IS NULL AND EXISTS (
			SELECT 1 FROM workspace_memberships m
			WHERE m.workspace_id = w.id AND m.user_id = $1
		 )
		 OR w.parent_id IN (
			SELECT m.workspace_id FROM workspace_memberships m WHERE m.user_id = $1
		 )
		 ORDER BY w.id`, userID)
	if err != nil {
		return WorkspaceTree{}, fmt.Errorf("directory: accessible workspaces: %w", err)
	}
	defer rows.Close()

	tree := WorkspaceTree{SubTenantsByParent: make(map[string][]string)}
	for rows.Next() {
		var id, parentID string
		if err := rows.Scan(&id, &parentID); err != nil {
			return WorkspaceTree{}, fmt.Errorf("directory: scan workspace: %w", err)
		}
		if parentID == "" {
			tree.MainTenants = append(tree.MainTenants, id)
			continue
		}
		tree.SubTenantsByParent[parentID] = append(tree.SubTenantsByParent[parentID], id)
	}
	if err := rows.Err(); err != nil {
		return WorkspaceTree{}, fmt.Errorf("directory: accessible workspaces: %w", err)
	}
	return tree, nil
}
