package workspace

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"golang.org/x/sync/errgroup"
	"golang.org/x/sync/singleflight"

	"github.com/ledgerline/ledgerline/internal/platform/cache"
)

const (
	defaultCacheTTL    = 5 * time.Minute
	defaultLoadTimeout = 15 * time.Second
	defaultChunkSize   = 3
)

// LoadOptions controls a single load.
type LoadOptions struct {
	UseCache     bool
	ForceRefresh bool
}

// WorkspaceError records an isolated per-workspace failure in a batch load.
type WorkspaceError struct {
	WorkspaceID string
	Err         error
}

func (e WorkspaceError) Error() string {
	return fmt.Sprintf("workspace %s: %v", e.WorkspaceID, e.Err)
}

func (e WorkspaceError) Unwrap() error { return e.Err }

// BatchResult is the merged outcome of a multi-workspace load. Failures are
// data, not an error: each failed workspace appears in Errors while the
// rest of the batch proceeds.
type BatchResult struct {
	Data   Data
	Loaded []string
	Errors []WorkspaceError
}

// LoaderConfig tunes cache lifetime, fetch timeout and batch fan-out.
type LoaderConfig struct {
	CacheTTL    time.Duration
	LoadTimeout time.Duration
	ChunkSize   int
}

func (c LoaderConfig) withDefaults() LoaderConfig {
	if c.CacheTTL <= 0 {
		c.CacheTTL = defaultCacheTTL
	}
	if c.LoadTimeout <= 0 {
		c.LoadTimeout = defaultLoadTimeout
	}
	if c.ChunkSize <= 0 {
		c.ChunkSize = defaultChunkSize
	}
	return c
}

// Loader fetches and memoizes per-workspace datasets. Concurrent loads for
// the same workspace share one underlying fetch through the in-flight
// group; the fetch itself is detached from the caller's context so an
// abandoned waiter never cancels it for everyone else, and timeout-bounded
// so a stuck backend cannot wedge all waiters.
type Loader struct {
	fetcher Fetcher
	cache   cache.Store
	logger  *slog.Logger
	cfg     LoaderConfig

	group singleflight.Group
}

// NewLoader constructs a Loader. cacheStore may be nil to disable caching.
func NewLoader(fetcher Fetcher, cacheStore cache.Store, logger *slog.Logger, cfg LoaderConfig) *Loader {
	return &Loader{
		fetcher: fetcher,
		cache:   cacheStore,
		logger:  logger,
		cfg:     cfg.withDefaults(),
	}
}

// LoadWorkspaceData returns the workspace's datasets, serving a live cache
// hit when allowed and coalescing concurrent fetches per workspace id.
func (l *Loader) LoadWorkspaceData(ctx context.Context, workspaceID string, opts LoadOptions) (Data, error) {
	if workspaceID == "" {
		return Data{}, fmt.Errorf("workspace: workspace id required")
	}

	if opts.UseCache && !opts.ForceRefresh && l.cache != nil {
		var cached Data
		ok, err := l.cache.Get(ctx, cache.NamespaceWorkspaceData, workspaceID, &cached)
		if err != nil && l.logger != nil {
			l.logger.Warn("workspace: cache read failed",
				slog.String("workspace_id", workspaceID), slog.Any("error", err))
		}
		if ok {
			return cached, nil
		}
	}

	ch := l.group.DoChan(workspaceID, func() (interface{}, error) {
		// Detach from the caller: no cancellation support, the shared
		// fetch always completes and warms the cache for the next caller.
		fetchCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), l.cfg.LoadTimeout)
		defer cancel()

		data, err := l.fetch(fetchCtx, workspaceID)
		if err != nil {
			return nil, err
		}
		l.populate(fetchCtx, data)
		return data, nil
	})

	select {
	case <-ctx.Done():
		return Data{}, ctx.Err()
	case res := <-ch:
		if res.Err != nil {
			return Data{}, res.Err
		}
		return res.Val.(Data), nil
	}
}

// LoadMany loads several workspaces in fixed-size chunks: chunks run
// sequentially to bound backend load, fetches within a chunk overlap.
// Results are merged with de-duplication by entity id.
func (l *Loader) LoadMany(ctx context.Context, workspaceIDs []string, opts LoadOptions) (BatchResult, error) {
	result := BatchResult{}
	merger := newMerger()

	for start := 0; start < len(workspaceIDs); start += l.cfg.ChunkSize {
		end := start + l.cfg.ChunkSize
		if end > len(workspaceIDs) {
			end = len(workspaceIDs)
		}
		chunk := workspaceIDs[start:end]

		type outcome struct {
			id   string
			data Data
			err  error
		}
		outcomes := make([]outcome, len(chunk))

		var g errgroup.Group
		for i, id := range chunk {
			g.Go(func() error {
				data, err := l.LoadWorkspaceData(ctx, id, opts)
				outcomes[i] = outcome{id: id, data: data, err: err}
				return nil
			})
		}
		_ = g.Wait()

		for _, o := range outcomes {
			if o.err != nil {
				result.Errors = append(result.Errors, WorkspaceError{WorkspaceID: o.id, Err: o.err})
				if l.logger != nil {
					l.logger.Warn("workspace: batch load failure",
						slog.String("workspace_id", o.id), slog.Any("error", o.err))
				}
				continue
			}
			merger.add(o.data)
			result.Loaded = append(result.Loaded, o.id)
		}

		if err := ctx.Err(); err != nil {
			return result, err
		}
	}

	result.Data = merger.data
	return result, nil
}

// Invalidate drops every cached dataset for the workspace. Hosts call it
// after mutating the underlying data (department added, user moved, ...).
func (l *Loader) Invalidate(ctx context.Context, workspaceID string) error {
	if l.cache == nil {
		return nil
	}
	return l.cache.Invalidate(ctx, workspaceID)
}

func (l *Loader) fetch(ctx context.Context, workspaceID string) (Data, error) {
	data := Data{WorkspaceID: workspaceID}

	g, ctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		centers, err := l.fetcher.FetchCostCenters(ctx, workspaceID)
		if err != nil {
			return fmt.Errorf("cost centers: %w", err)
		}
		data.CostCenters = centers
		return nil
	})
	g.Go(func() error {
		departments, err := l.fetcher.FetchDepartments(ctx, workspaceID)
		if err != nil {
			return fmt.Errorf("departments: %w", err)
		}
		data.Departments = departments
		return nil
	})
	g.Go(func() error {
		users, err := l.fetcher.FetchUsers(ctx, workspaceID)
		if err != nil {
			return fmt.Errorf("users: %w", err)
		}
		data.Users = users
		return nil
	})
	g.Go(func() error {
		projects, err := l.fetcher.FetchProjects(ctx, workspaceID)
		if err != nil {
			return fmt.Errorf("projects: %w", err)
		}
		data.Projects = projects
		return nil
	})
	if err := g.Wait(); err != nil {
		return Data{}, fmt.Errorf("workspace: load %s: %w", workspaceID, err)
	}
	return data, nil
}

func (l *Loader) populate(ctx context.Context, data Data) {
	if l.cache == nil {
		return
	}
	sets := []struct {
		namespace string
		value     interface{}
	}{
		{cache.NamespaceWorkspaceData, data},
		{cache.NamespaceCostCenters, data.CostCenters},
		{cache.NamespaceDepartments, data.Departments},
		{cache.NamespaceUsers, data.Users},
		{cache.NamespaceProjects, data.Projects},
	}
	for _, s := range sets {
		if err := l.cache.Set(ctx, s.namespace, data.WorkspaceID, s.value, l.cfg.CacheTTL); err != nil && l.logger != nil {
			l.logger.Warn("workspace: cache populate failed",
				slog.String("namespace", s.namespace),
				slog.String("workspace_id", data.WorkspaceID),
				slog.Any("error", err))
		}
	}
}

// merger accumulates datasets across workspaces, dropping duplicate entity
// ids so overlapping tenants never double-count.
type merger struct {
	data        Data
	costCenters map[string]struct{}
	departments map[string]struct{}
	users       map[string]struct{}
	projects    map[string]struct{}
}

func newMerger() *merger {
	return &merger{
		costCenters: make(map[string]struct{}),
		departments: make(map[string]struct{}),
		users:       make(map[string]struct{}),
		projects:    make(map[string]struct{}),
	}
}

func (m *merger) add(data Data) {
	for _, cc := range data.CostCenters {
		if _, ok := m.costCenters[cc.ID]; ok {
			continue
		}
		m.costCenters[cc.ID] = struct{}{}
		m.data.CostCenters = append(m.data.CostCenters, cc)
	}
	for _, d := range data.Departments {
		if _, ok := m.departments[d.ID]; ok {
			continue
		}
		m.departments[d.ID] = struct{}{}
		m.data.Departments = append(m.data.Departments, d)
	}
	for _, u := range data.Users {
		if _, ok := m.users[u.ID]; ok {
			continue
		}
		m.users[u.ID] = struct{}{}
		m.data.Users = append(m.data.Users, u)
	}
	for _, p := range data.Projects {
		if _, ok := m.projects[p.ID]; ok {
			continue
		}
		m.projects[p.ID] = struct{}{}
		m.data.Projects = append(m.data.Projects, p)
	}
}
