package cache

import (
	"context"
	"testing"
	"time"
)

type fakeClock struct {
	now time.Time
}

func (c *fakeClock) Now() time.Time { return c.now }

func (c *fakeClock) Advance(d time.Duration) { c.now = c.now.Add(d) }

func newClockedMemory() (*Memory, *fakeClock) {
	clock := &fakeClock{now: time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)}
	return NewMemory(WithClock(clock.Now)), clock
}

func TestMemoryRoundTrip(t *testing.T) {
	store, clock := newClockedMemory()
	ctx := context.Background()

	if err := store.Set(ctx, NamespaceDepartments, "ws-1", []string{"d1", "d2"}, time.Minute); err != nil {
		t.Fatalf("set: %v", err)
	}

	var got []string
	ok, err := store.Get(ctx, NamespaceDepartments, "ws-1", &got)
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if !ok {
		t.Fatal("expected cache hit before ttl elapsed")
	}
	if len(got) != 2 || got[0] != "d1" {
		t.Fatalf("unexpected value %v", got)
	}

	clock.Advance(time.Minute)
	ok, err = store.Get(ctx, NamespaceDepartments, "ws-1", &got)
	if err != nil {
		t.Fatalf("get after expiry: %v", err)
	}
	if ok {
		t.Fatal("expected miss after ttl elapsed")
	}
}

func TestMemoryGetMissOnUnknownKey(t *testing.T) {
	store, _ := newClockedMemory()
	var dest string
	ok, err := store.Get(context.Background(), NamespaceUsers, "nope", &dest)
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if ok {
		t.Fatal("expected miss for unknown key")
	}
}

func TestMemoryRejectsNonPositiveTTL(t *testing.T) {
	store, _ := newClockedMemory()
	if err := store.Set(context.Background(), NamespaceUsers, "ws-1", "x", 0); err == nil {
		t.Fatal("expected error for zero ttl")
	}
}

func TestMemoryInvalidateClearsKeyAcrossNamespaces(t *testing.T) {
	store, _ := newClockedMemory()
	ctx := context.Background()

	for _, ns := range Namespaces() {
		if err := store.Set(ctx, ns, "ws-1", ns, time.Hour); err != nil {
			t.Fatalf("set %s: %v", ns, err)
		}
		if err := store.Set(ctx, ns, "ws-2", ns, time.Hour); err != nil {
			t.Fatalf("set %s: %v", ns, err)
		}
	}

	if err := store.Invalidate(ctx, "ws-1"); err != nil {
		t.Fatalf("invalidate: %v", err)
	}

	var dest string
	for _, ns := range Namespaces() {
		if ok, _ := store.Get(ctx, ns, "ws-1", &dest); ok {
			t.Fatalf("namespace %s still holds invalidated key", ns)
		}
		if ok, _ := store.Get(ctx, ns, "ws-2", &dest); !ok {
			t.Fatalf("namespace %s lost an unrelated key", ns)
		}
	}
}

func TestMemoryCleanupEvictsOnlyExpired(t *testing.T) {
	store, clock := newClockedMemory()
	ctx := context.Background()

	if err := store.Set(ctx, NamespaceProjects, "short", 1, time.Minute); err != nil {
		t.Fatalf("set: %v", err)
	}
	if err := store.Set(ctx, NamespaceProjects, "long", 2, time.Hour); err != nil {
		t.Fatalf("set: %v", err)
	}

	clock.Advance(2 * time.Minute)
	evicted, err := store.Cleanup(ctx)
	if err != nil {
		t.Fatalf("cleanup: %v", err)
	}
	if evicted != 1 {
		t.Fatalf("expected 1 eviction, got %d", evicted)
	}

	var dest int
	if ok, _ := store.Get(ctx, NamespaceProjects, "long", &dest); !ok {
		t.Fatal("cleanup evicted a live entry")
	}
}

func TestMemoryInvalidateAll(t *testing.T) {
	store, _ := newClockedMemory()
	ctx := context.Background()

	if err := store.Set(ctx, NamespaceUsers, "ws-1", "u", time.Hour); err != nil {
		t.Fatalf("set: %v", err)
	}
	if err := store.InvalidateAll(ctx); err != nil {
		t.Fatalf("invalidate all: %v", err)
	}
	var dest string
	if ok, _ := store.Get(ctx, NamespaceUsers, "ws-1", &dest); ok {
		t.Fatal("expected empty store after InvalidateAll")
	}
}
