package cache

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"
	"time"
)

type memoryEntry struct {
	payload  []byte
	storedAt time.Time
	ttl      time.Duration
}

func (e memoryEntry) expired(now time.Time) bool {
	return now.Sub(e.storedAt) >= e.ttl
}

// Memory is an in-process Store backed by a mutex-guarded map. It is the
// default for hosts that embed the engine without a Redis deployment.
type Memory struct {
	mu      sync.RWMutex
	entries map[string]map[string]memoryEntry
	now     func() time.Time
}

// MemoryOption customises a Memory store.
type MemoryOption func(*Memory)

// WithClock overrides the time source. Tests use it to simulate expiry.
func WithClock(now func() time.Time) MemoryOption {
	return func(m *Memory) {
		if now != nil {
			m.now = now
		}
	}
}

// NewMemory constructs an empty in-process store.
func NewMemory(opts ...MemoryOption) *Memory {
	m := &Memory{
		entries: make(map[string]map[string]memoryEntry),
		now:     time.Now,
	}
	for _, opt := range opts {
		opt(m)
	}
	return m
}

// Get returns the live entry for (namespace, key), evicting it when expired.
func (m *Memory) Get(ctx context.Context, namespace, key string, dest interface{}) (bool, error) {
	m.mu.RLock()
	entry, ok := m.entries[namespace][key]
	m.mu.RUnlock()
	if !ok {
		return false, nil
	}
	if entry.expired(m.now()) {
		m.mu.Lock()
		// Re-check under the write lock; a concurrent Set may have refreshed it.
		if current, still := m.entries[namespace][key]; still && current.expired(m.now()) {
			delete(m.entries[namespace], key)
		}
		m.mu.Unlock()
		return false, nil
	}
	if err := json.Unmarshal(entry.payload, dest); err != nil {
		return false, fmt.Errorf("cache: decode %s/%s: %w", namespace, key, err)
	}
	return true, nil
}

// Set stores value under (namespace, key) for ttl.
func (m *Memory) Set(ctx context.Context, namespace, key string, value interface{}, ttl time.Duration) error {
	if ttl <= 0 {
		return fmt.Errorf("cache: ttl must be positive, got %s", ttl)
	}
	payload, err := json.Marshal(value)
	if err != nil {
		return fmt.Errorf("cache: encode %s/%s: %w", namespace, key, err)
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	ns, ok := m.entries[namespace]
	if !ok {
		ns = make(map[string]memoryEntry)
		m.entries[namespace] = ns
	}
	ns[key] = memoryEntry{payload: payload, storedAt: m.now(), ttl: ttl}
	return nil
}

// Invalidate removes key from every namespace.
func (m *Memory) Invalidate(ctx context.Context, key string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, ns := range m.entries {
		delete(ns, key)
	}
	return nil
}

// InvalidateAll drops every entry.
func (m *Memory) InvalidateAll(ctx context.Context) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.entries = make(map[string]map[string]memoryEntry)
	return nil
}

// Cleanup sweeps every namespace and evicts expired entries.
func (m *Memory) Cleanup(ctx context.Context) (int, error) {
	now := m.now()
	m.mu.Lock()
	defer m.mu.Unlock()
	evicted := 0
	for name, ns := range m.entries {
		for key, entry := range ns {
			if entry.expired(now) {
				delete(ns, key)
				evicted++
			}
		}
		if len(ns) == 0 {
			delete(m.entries, name)
		}
	}
	return evicted, nil
}
