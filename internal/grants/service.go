package grants

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/go-playground/validator/v10"

	"github.com/ledgerline/ledgerline/internal/catalog"
	"github.com/ledgerline/ledgerline/internal/platform/cache"
)

// UpdateRequest is one requested grant change.
type UpdateRequest struct {
	PermissionID string `validate:"required"`
	Granted      bool
	ExpiresAt    *time.Time
}

// Service validates and applies grant mutations, invalidating cached
// workspace data on every write.
type Service struct {
	store    Store
	registry *catalog.Registry
	cache    cache.Store
	validate *validator.Validate
	logger   *slog.Logger
	now      func() time.Time
}

// NewService constructs a Service. cacheStore may be nil when the host runs
// without a cache.
func NewService(store Store, registry *catalog.Registry, cacheStore cache.Store, logger *slog.Logger) *Service {
	return &Service{
		store:    store,
		registry: registry,
		cache:    cacheStore,
		validate: validator.New(),
		logger:   logger,
		now:      time.Now,
	}
}

// Record returns the explicit grants for the pair, nil when none exist.
func (s *Service) Record(ctx context.Context, userID, workspaceID string) (*Record, error) {
	if userID == "" || workspaceID == "" {
		return nil, fmt.Errorf("%w: user and workspace ids required", ErrInvalidUpdate)
	}
	return s.store.Get(ctx, userID, workspaceID)
}

// Apply validates and merges the requested changes for the pair.
func (s *Service) Apply(ctx context.Context, userID, workspaceID string, requests []UpdateRequest, updatedBy string) error {
	if userID == "" || workspaceID == "" {
		return fmt.Errorf("%w: user and workspace ids required", ErrInvalidUpdate)
	}
	if len(requests) == 0 {
		return fmt.Errorf("%w: no updates supplied", ErrInvalidUpdate)
	}

	now := s.now().UTC()
	updates := make(map[string]PermissionGrant, len(requests))
	for _, req := range requests {
		if err := s.validate.Struct(req); err != nil {
			return fmt.Errorf("%w: %v", ErrInvalidUpdate, err)
		}
		if _, err := s.registry.Lookup(req.PermissionID); err != nil {
			return err
		}
		if req.ExpiresAt != nil && !req.ExpiresAt.After(now) {
			return fmt.Errorf("%w: expiry %s is not in the future", ErrInvalidUpdate, req.ExpiresAt)
		}
		updates[req.PermissionID] = PermissionGrant{
			Granted:   req.Granted,
			GrantedBy: updatedBy,
			GrantedAt: now,
			ExpiresAt: req.ExpiresAt,
		}
	}

	if err := s.store.Merge(ctx, userID, workspaceID, updates, updatedBy); err != nil {
		return err
	}
	s.invalidate(ctx, workspaceID)
	return nil
}

// Grant permits a single permission, optionally time-bounded.
func (s *Service) Grant(ctx context.Context, userID, workspaceID, permissionID, updatedBy string, expiresAt *time.Time) error {
	return s.Apply(ctx, userID, workspaceID, []UpdateRequest{{
		PermissionID: permissionID,
		Granted:      true,
		ExpiresAt:    expiresAt,
	}}, updatedBy)
}

// Revoke denies a single permission. The entry is kept with granted=false
// so the denial overrides role defaults.
func (s *Service) Revoke(ctx context.Context, userID, workspaceID, permissionID, updatedBy string) error {
	return s.Apply(ctx, userID, workspaceID, []UpdateRequest{{
		PermissionID: permissionID,
		Granted:      false,
	}}, updatedBy)
}

// RevokeAll deletes the pair's entire grant record.
func (s *Service) RevokeAll(ctx context.Context, userID, workspaceID string) error {
	if userID == "" || workspaceID == "" {
		return fmt.Errorf("%w: user and workspace ids required", ErrInvalidUpdate)
	}
	if err := s.store.Delete(ctx, userID, workspaceID); err != nil {
		return err
	}
	s.invalidate(ctx, workspaceID)
	return nil
}

func (s *Service) invalidate(ctx context.Context, workspaceID string) {
	if s.cache == nil {
		return
	}
	if err := s.cache.Invalidate(ctx, workspaceID); err != nil && s.logger != nil {
		s.logger.Warn("grants: cache invalidation failed",
			slog.String("workspace_id", workspaceID), slog.Any("error", err))
	}
}
