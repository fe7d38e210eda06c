package cache

import (
	"context"
	"time"
)

// Namespaces for the workspace datasets this engine memoizes. Invalidate
// clears a key across every namespace, so the set is enumerated here.
const (
	NamespaceCostCenters   = "cost_centers"
	NamespaceDepartments   = "departments"
	NamespaceUsers         = "users"
	NamespaceProjects      = "projects"
	NamespaceWorkspaceData = "workspace_data"
)

// Namespaces returns every dataset namespace known to the engine.
func Namespaces() []string {
	return []string{
		NamespaceCostCenters,
		NamespaceDepartments,
		NamespaceUsers,
		NamespaceProjects,
		NamespaceWorkspaceData,
	}
}

// Store is a namespaced key/value cache with per-entry expiry. Values are
// stored as JSON, so Get unmarshals into dest and reports whether a live
// entry was found. Implementations are constructed once per process and
// passed by dependency injection.
type Store interface {
	Get(ctx context.Context, namespace, key string, dest interface{}) (bool, error)
	Set(ctx context.Context, namespace, key string, value interface{}, ttl time.Duration) error
	// Invalidate clears the key across all namespaces.
	Invalidate(ctx context.Context, key string) error
	// InvalidateAll clears every entry.
	InvalidateAll(ctx context.Context) error
	// Cleanup evicts expired entries and returns how many were removed.
	// Purely memory hygiene: Get self-validates, so correctness never
	// depends on the sweep running.
	Cleanup(ctx context.Context) (int, error)
}
