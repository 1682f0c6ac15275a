package mocks

import (
	"context"
	"sync"

	"github.com/phrazzld/lexis/internal/domain"
	"github.com/phrazzld/lexis/internal/store"
)

// MockCacheStore implements store.CacheStore with an in-memory map.
type MockCacheStore struct {
	GetEntryFn  func(ctx context.Context, key string) (*domain.CacheEntry, error)
	SaveEntryFn func(ctx context.Context, entry *domain.CacheEntry) error

	mu        sync.Mutex
	entries   map[string]*domain.CacheEntry
	getCalls  int
	saveCalls int
}

// NewMockCacheStore creates an empty MockCacheStore.
func NewMockCacheStore() *MockCacheStore {
	return &MockCacheStore{entries: make(map[string]*domain.CacheEntry)}
}

// GetEntry implements store.CacheStore.
func (m *MockCacheStore) GetEntry(ctx context.Context, key string) (*domain.CacheEntry, error) {
	m.mu.Lock()
	m.getCalls++
	fn := m.GetEntryFn
	entry, ok := m.entries[key]
	m.mu.Unlock()

	if fn != nil {
		return fn(ctx, key)
	}
	if !ok {
		return nil, store.ErrCacheEntryNotFound
	}
	cp := *entry
	return &cp, nil
}

// SaveEntry implements store.CacheStore.
func (m *MockCacheStore) SaveEntry(ctx context.Context, entry *domain.CacheEntry) error {
	m.mu.Lock()
	m.saveCalls++
	fn := m.SaveEntryFn
	m.mu.Unlock()

	if fn != nil {
		return fn(ctx, entry)
	}

	cp := *entry
	m.mu.Lock()
	m.entries[entry.Key] = &cp
	m.mu.Unlock()
	return nil
}

// Put seeds an entry without counting a save.
func (m *MockCacheStore) Put(entry *domain.CacheEntry) {
	cp := *entry
	m.mu.Lock()
	m.entries[entry.Key] = &cp
	m.mu.Unlock()
}

// GetCalls returns how many times GetEntry was called.
func (m *MockCacheStore) GetCalls() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.getCalls
}

// SaveCalls returns how many times SaveEntry was called.
func (m *MockCacheStore) SaveCalls() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.saveCalls
}
