package workspace

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ledgerline/ledgerline/internal/platform/cache"
)

type mockFetcher struct {
	mu sync.Mutex

	fetchStarts int32
	inFlight    int32
	maxInFlight int32

	delay    time.Duration
	failFor  map[string]error
	datasets map[string]Data
}

func newMockFetcher() *mockFetcher {
	return &mockFetcher{
		failFor:  make(map[string]error),
		datasets: make(map[string]Data),
	}
}

func (m *mockFetcher) seed(workspaceID string, data Data) {
	data.WorkspaceID = workspaceID
	m.datasets[workspaceID] = data
}

// begin tracks one workspace-level fetch: FetchCostCenters is the chosen
// sentinel since each workspace load calls every dataset fetch exactly once.
func (m *mockFetcher) begin() {
	current := atomic.AddInt32(&m.inFlight, 1)
	atomic.AddInt32(&m.fetchStarts, 1)
	for {
		max := atomic.LoadInt32(&m.maxInFlight)
		if current <= max || atomic.CompareAndSwapInt32(&m.maxInFlight, max, current) {
			break
		}
	}
}

func (m *mockFetcher) end() { atomic.AddInt32(&m.inFlight, -1) }

func (m *mockFetcher) wait(ctx context.Context) error {
	if m.delay == 0 {
		return nil
	}
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-time.After(m.delay):
		return nil
	}
}

func (m *mockFetcher) lookup(workspaceID string) (Data, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if err := m.failFor[workspaceID]; err != nil {
		return Data{}, err
	}
	return m.datasets[workspaceID], nil
}

func (m *mockFetcher) FetchCostCenters(ctx context.Context, workspaceID string) ([]CostCenter, error) {
	m.begin()
	defer m.end()
	if err := m.wait(ctx); err != nil {
		return nil, err
	}
	data, err := m.lookup(workspaceID)
	if err != nil {
		return nil, err
	}
	return data.CostCenters, nil
}

func (m *mockFetcher) FetchDepartments(ctx context.Context, workspaceID string) ([]Department, error) {
	data, err := m.lookup(workspaceID)
	if err != nil {
		return nil, err
	}
	return data.Departments, nil
}

func (m *mockFetcher) FetchUsers(ctx context.Context, workspaceID string) ([]Member, error) {
	data, err := m.lookup(workspaceID)
	if err != nil {
		return nil, err
	}
	return data.Users, nil
}

func (m *mockFetcher) FetchProjects(ctx context.Context, workspaceID string) ([]Project, error) {
	data, err := m.lookup(workspaceID)
	if err != nil {
		return nil, err
	}
	return data.Projects, nil
}

func (m *mockFetcher) starts() int { return int(atomic.LoadInt32(&m.fetchStarts)) }

func TestLoadWorkspaceDataCacheHitSkipsFetch(t *testing.T) {
	fetcher := newMockFetcher()
	fetcher.seed("w1", Data{Departments: []Department{{ID: "d1", Name: "Ops"}}})
	store := cache.NewMemory()
	loader := NewLoader(fetcher, store, slog.Default(), LoaderConfig{})
	ctx := context.Background()

	first, err := loader.LoadWorkspaceData(ctx, "w1", LoadOptions{UseCache: true})
	require.NoError(t, err)
	require.Len(t, first.Departments, 1)
	require.Equal(t, 1, fetcher.starts())

	second, err := loader.LoadWorkspaceData(ctx, "w1", LoadOptions{UseCache: true})
	require.NoError(t, err)
	assert.Equal(t, first.Departments, second.Departments)
	assert.Equal(t, 1, fetcher.starts(), "cache hit must not refetch")
}

func TestLoadWorkspaceDataForceRefreshBypassesCache(t *testing.T) {
	fetcher := newMockFetcher()
	fetcher.seed("w1", Data{})
	loader := NewLoader(fetcher, cache.NewMemory(), slog.Default(), LoaderConfig{})
	ctx := context.Background()

	_, err := loader.LoadWorkspaceData(ctx, "w1", LoadOptions{UseCache: true})
	require.NoError(t, err)
	_, err = loader.LoadWorkspaceData(ctx, "w1", LoadOptions{UseCache: true, ForceRefresh: true})
	require.NoError(t, err)

	assert.Equal(t, 2, fetcher.starts())
}

func TestConcurrentLoadsCoalesceIntoOneFetch(t *testing.T) {
	fetcher := newMockFetcher()
	fetcher.seed("w1", Data{Users: []Member{{ID: "u1"}}})
	fetcher.delay = 50 * time.Millisecond
	loader := NewLoader(fetcher, cache.NewMemory(), slog.Default(), LoaderConfig{})
	ctx := context.Background()

	const callers = 8
	var wg sync.WaitGroup
	results := make([]error, callers)
	for i := 0; i < callers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := loader.LoadWorkspaceData(ctx, "w1", LoadOptions{})
			results[i] = err
		}()
	}
	wg.Wait()

	for i, err := range results {
		require.NoError(t, err, "caller %d", i)
	}
	assert.Equal(t, 1, fetcher.starts(), "concurrent callers must share one fetch")
}

func TestLoadTimeoutBoundsStuckFetch(t *testing.T) {
	fetcher := newMockFetcher()
	fetcher.seed("w1", Data{})
	fetcher.delay = time.Second
	loader := NewLoader(fetcher, nil, slog.Default(), LoaderConfig{LoadTimeout: 20 * time.Millisecond})

	_, err := loader.LoadWorkspaceData(context.Background(), "w1", LoadOptions{})
	require.Error(t, err)
	assert.True(t, errors.Is(err, context.DeadlineExceeded))
}

func TestAbandonedCallerDoesNotCancelSharedFetch(t *testing.T) {
	fetcher := newMockFetcher()
	fetcher.seed("w1", Data{Projects: []Project{{ID: "p1"}}})
	fetcher.delay = 30 * time.Millisecond
	store := cache.NewMemory()
	loader := NewLoader(fetcher, store, slog.Default(), LoaderConfig{})

	ctx, cancel := context.WithCancel(context.Background())
	go func() {
		time.Sleep(5 * time.Millisecond)
		cancel()
	}()
	_, err := loader.LoadWorkspaceData(ctx, "w1", LoadOptions{})
	require.Error(t, err)
	assert.True(t, errors.Is(err, context.Canceled))

	// The detached fetch still completes and warms the cache.
	assert.Eventually(t, func() bool {
		var cached Data
		ok, err := store.Get(context.Background(), cache.NamespaceWorkspaceData, "w1", &cached)
		return err == nil && ok
	}, time.Second, 10*time.Millisecond)
}

func TestFailedFetchDoesNotWedgeSubsequentLoads(t *testing.T) {
	fetcher := newMockFetcher()
	fetcher.seed("w1", Data{})
	fetcher.failFor["w1"] = errors.New("backend down")
	loader := NewLoader(fetcher, cache.NewMemory(), slog.Default(), LoaderConfig{})
	ctx := context.Background()

	_, err := loader.LoadWorkspaceData(ctx, "w1", LoadOptions{})
	require.Error(t, err)

	fetcher.mu.Lock()
	delete(fetcher.failFor, "w1")
	fetcher.mu.Unlock()

	_, err = loader.LoadWorkspaceData(ctx, "w1", LoadOptions{})
	require.NoError(t, err, "in-flight entry must be released after failure")
	assert.Equal(t, 2, fetcher.starts())
}

func TestLoadManyChunksBoundConcurrency(t *testing.T) {
	fetcher := newMockFetcher()
	ids := make([]string, 7)
	for i := range ids {
		ids[i] = fmt.Sprintf("w%d", i)
		fetcher.seed(ids[i], Data{})
	}
	fetcher.delay = 20 * time.Millisecond
	loader := NewLoader(fetcher, nil, slog.Default(), LoaderConfig{ChunkSize: 3})

	result, err := loader.LoadMany(context.Background(), ids, LoadOptions{})
	require.NoError(t, err)
	assert.Len(t, result.Loaded, 7)
	assert.Empty(t, result.Errors)
	assert.LessOrEqual(t, int(fetcher.maxInFlight), 3, "chunking must cap fan-out")
}

func TestLoadManyIsolatesFailuresAndDeduplicates(t *testing.T) {
	fetcher := newMockFetcher()
	shared := Member{ID: "u-shared", Name: "Shared"}
	fetcher.seed("w1", Data{
		Users:       []Member{shared, {ID: "u1"}},
		Departments: []Department{{ID: "d1"}},
	})
	fetcher.seed("w2", Data{
		Users:       []Member{shared, {ID: "u2"}},
		Departments: []Department{{ID: "d2"}},
	})
	fetcher.seed("w3", Data{})
	fetcher.failFor["w3"] = errors.New("backend down")

	loader := NewLoader(fetcher, nil, slog.Default(), LoaderConfig{})
	result, err := loader.LoadMany(context.Background(), []string{"w1", "w2", "w3"}, LoadOptions{})
	require.NoError(t, err, "partial failure is a report, not an error")

	assert.ElementsMatch(t, []string{"w1", "w2"}, result.Loaded)
	require.Len(t, result.Errors, 1)
	assert.Equal(t, "w3", result.Errors[0].WorkspaceID)

	assert.Len(t, result.Data.Users, 3, "shared member must appear once")
	assert.Len(t, result.Data.Departments, 2)
}

func TestLoadPopulatesEveryNamespace(t *testing.T) {
	fetcher := newMockFetcher()
	fetcher.seed("w1", Data{
		CostCenters: []CostCenter{{ID: "cc1"}},
		Departments: []Department{{ID: "d1"}},
		Users:       []Member{{ID: "u1"}},
		Projects:    []Project{{ID: "p1"}},
	})
	store := cache.NewMemory()
	loader := NewLoader(fetcher, store, slog.Default(), LoaderConfig{})
	ctx := context.Background()

	_, err := loader.LoadWorkspaceData(ctx, "w1", LoadOptions{UseCache: true})
	require.NoError(t, err)

	var departments []Department
	ok, err := store.Get(ctx, cache.NamespaceDepartments, "w1", &departments)
	require.NoError(t, err)
	assert.True(t, ok)

	var centers []CostCenter
	ok, err = store.Get(ctx, cache.NamespaceCostCenters, "w1", &centers)
	require.NoError(t, err)
	assert.True(t, ok)

	var users []Member
	ok, err = store.Get(ctx, cache.NamespaceUsers, "w1", &users)
	require.NoError(t, err)
	assert.True(t, ok)

	var projects []Project
	ok, err = store.Get(ctx, cache.NamespaceProjects, "w1", &projects)
	require.NoError(t, err)
	assert.True(t, ok)
}
