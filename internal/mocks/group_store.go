package mocks

import (
	"context"
	"database/sql"
	"sync"

	"github.com/google/uuid"
	"github.com/phrazzld/lexis/internal/domain"
	"github.com/phrazzld/lexis/internal/store"
)

// MockGroupStore implements store.GroupStore in memory.
type MockGroupStore struct {
	ListGroupsFn func(ctx context.Context, userID uuid.UUID) ([]*domain.GroupDescriptor, error)

	mu     sync.Mutex
	groups map[uuid.UUID][]*domain.GroupDescriptor
}

// NewMockGroupStore creates an empty MockGroupStore.
func NewMockGroupStore() *MockGroupStore {
	return &MockGroupStore{groups: make(map[uuid.UUID][]*domain.GroupDescriptor)}
}

// SaveGroups implements store.GroupStore.
func (m *MockGroupStore) SaveGroups(ctx context.Context, userID uuid.UUID, groups []*domain.GroupDescriptor) error {
	cp := make([]*domain.GroupDescriptor, len(groups))
	for i, g := range groups {
		c := *g
		c.UserID = userID
		c.Position = i
		c.CardIDs = append([]uuid.UUID(nil), g.CardIDs...)
		c.Items = nil
		cp[i] = &c
	}
	m.mu.Lock()
	m.groups[userID] = cp
	m.mu.Unlock()
	return nil
}

// ListGroups implements store.GroupStore.
func (m *MockGroupStore) ListGroups(ctx context.Context, userID uuid.UUID) ([]*domain.GroupDescriptor, error) {
	if m.ListGroupsFn != nil {
		return m.ListGroupsFn(ctx, userID)
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]*domain.GroupDescriptor, len(m.groups[userID]))
	for i, g := range m.groups[userID] {
		c := *g
		c.CardIDs = append([]uuid.UUID(nil), g.CardIDs...)
		out[i] = &c
	}
	return out, nil
}

// WithTx implements store.GroupStore.
func (m *MockGroupStore) WithTx(*sql.Tx) store.GroupStore {
	return m
}
