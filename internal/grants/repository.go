package grants

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/ledgerline/ledgerline/internal/platform/db"
)

// foreignKeyViolation is the PostgreSQL error code for FK failures.
const foreignKeyViolation = "23503"

// Repository provides PostgreSQL backed grant persistence. Each explicit
// grant is one row keyed (user_id, workspace_id, permission_id), which makes
// Merge a true partial update at the store rather than a read-modify-write
// of a serialized blob.
type Repository struct {
	pool *pgxpool.Pool
}

// NewRepository constructs a repository.
func NewRepository(pool *pgxpool.Pool) *Repository {
	return &Repository{pool: pool}
}

// Get loads the grant record, or nil when the pair has no explicit grants.
func (r *Repository) Get(ctx context.Context, userID, workspaceID string) (*Record, error) {
	rows, err := r.pool.Query(ctx,
		`SELECT permission_id, granted, granted_by, granted_at, expires_at
		 FROM permission_grants
		 WHERE user_id = $1 AND workspace_id = $2`, userID, workspaceID)
	if err != nil {
		return nil, fmt.Errorf("grants: get: %w", err)
	}
	defer rows.Close()

	record := &Record{
		UserID:      userID,
		WorkspaceID: workspaceID,
		Permissions: make(map[string]PermissionGrant),
	}
	for rows.Next() {
		var permissionID string
		var grant PermissionGrant
		if err := rows.Scan(&permissionID, &grant.Granted, &grant.GrantedBy, &grant.GrantedAt, &grant.ExpiresAt); err != nil {
			return nil, fmt.Errorf("grants: scan: %w", err)
		}
		record.Permissions[permissionID] = grant
		if grant.GrantedAt.After(record.UpdatedAt) {
			record.UpdatedAt = grant.GrantedAt
		}
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("grants: get: %w", err)
	}
	if len(record.Permissions) == 0 {
		return nil, nil
	}
	return record, nil
}

// Merge upserts the supplied permission entries, leaving siblings intact.
// granted_at is preserved when the grant value does not change, so
// re-applying identical updates is a no-op on the stored state.
func (r *Repository) Merge(ctx context.Context, userID, workspaceID string, updates map[string]PermissionGrant, updatedBy string) error {
	if len(updates) == 0 {
		return nil
	}
	ids := make([]string, 0, len(updates))
	for id := range updates {
		ids = append(ids, id)
	}
	sort.Strings(ids)

	return db.WithTx(ctx, r.pool, func(tx pgx.Tx) error {
		for _, id := range ids {
			grant := updates[id]
			grantedAt := grant.GrantedAt
			if grantedAt.IsZero() {
				grantedAt = time.Now().UTC()
			}
			_, err := tx.Exec(ctx,
				`INSERT INTO permission_grants
					(user_id, workspace_id, permission_id, granted, granted_by, granted_at, expires_at)
				 VALUES ($1, $2, $3, $4, $5, $6, $7)
				 ON CONFLICT (user_id, workspace_id, permission_id) DO UPDATE SET
					granted    = EXCLUDED.granted,
					granted_by = EXCLUDED.granted_by,
					granted_at = CASE
						WHEN permission_grants.granted IS DISTINCT FROM EXCLUDED.granted
						THEN EXCLUDED.granted_at
						ELSE permission_grants.granted_at
					END,
					expires_at = EXCLUDED.expires_at`,
				userID, workspaceID, id, grant.Granted, updatedBy, grantedAt, grant.ExpiresAt)
			if err != nil {
				var pgErr *pgconn.PgError
				if errors.As(err, &pgErr) && pgErr.Code == foreignKeyViolation {
					return fmt.Errorf("grants: merge %s: %w", id, ErrUnknownSubject)
				}
				return fmt.Errorf("grants: merge %s: %w", id, err)
			}
		}
		return nil
	})
}

// Delete removes every grant row for the pair.
func (r *Repository) Delete(ctx context.Context, userID, workspaceID string) error {
	_, err := r.pool.Exec(ctx,
		`DELETE FROM permission_grants WHERE user_id = $1 AND workspace_id = $2`,
		userID, workspaceID)
	if err != nil {
		return fmt.Errorf("grants: delete: %w", err)
	}
	return nil
}

// DeleteExpired physically removes grant rows whose time bound has passed.
// Resolution already treats expired grants as absent; this is hygiene for
// the background sweep.
func (r *Repository) DeleteExpired(ctx context.Context, now time.Time) (int64, error) {
	tag, err := r.pool.Exec(ctx,
		`DELETE FROM permission_grants WHERE expires_at IS NOT NULL AND expires_at <= $1`, now)
	if err != nil {
		return 0, fmt.Errorf("grants: delete expired: %w", err)
	}
	return tag.RowsAffected(), nil
}
