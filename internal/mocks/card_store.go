package mocks

import (
	"context"
	"database/sql"
	"sort"
	"sync"

	"github.com/google/uuid"
	"github.com/phrazzld/lexis/internal/domain"
	"github.com/phrazzld/lexis/internal/store"
)

// MockCardStore implements store.CardStore with an in-memory map.
// Returned cards are copies, as a real store would return.
type MockCardStore struct {
	GetByIDFn  func(ctx context.Context, id uuid.UUID) (*domain.Card, error)
	GetByIDsFn func(ctx context.Context, ids []uuid.UUID) ([]*domain.Card, error)
	SaveFn     func(ctx context.Context, card *domain.Card) error

	mu        sync.Mutex
	cards     map[uuid.UUID]*domain.Card
	saveCalls int
}

// NewMockCardStore creates a MockCardStore seeded with cards.
func NewMockCardStore(cards ...*domain.Card) *MockCardStore {
	m := &MockCardStore{cards: make(map[uuid.UUID]*domain.Card)}
	for _, c := range cards {
		m.cards[c.ID] = c.Clone()
	}
	return m
}

// GetByID implements store.CardStore.
func (m *MockCardStore) GetByID(ctx context.Context, id uuid.UUID) (*domain.Card, error) {
	if m.GetByIDFn != nil {
		return m.GetByIDFn(ctx, id)
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	c, ok := m.cards[id]
	if !ok {
		return nil, store.ErrCardNotFound
	}
	return c.Clone(), nil
}

// GetByIDs implements store.CardStore.
func (m *MockCardStore) GetByIDs(ctx context.Context, ids []uuid.UUID) ([]*domain.Card, error) {
	if m.GetByIDsFn != nil {
		return m.GetByIDsFn(ctx, ids)
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]*domain.Card, 0, len(ids))
	for _, id := range ids {
		if c, ok := m.cards[id]; ok {
			out = append(out, c.Clone())
		}
	}
	return out, nil
}

// Save implements store.CardStore.
func (m *MockCardStore) Save(ctx context.Context, card *domain.Card) error {
	m.mu.Lock()
	m.saveCalls++
	fn := m.SaveFn
	m.mu.Unlock()

	if fn != nil {
		return fn(ctx, card)
	}
	if err := card.Validate(); err != nil {
		return err
	}
	m.mu.Lock()
	m.cards[card.ID] = card.Clone()
	m.mu.Unlock()
	return nil
}

// ListByUser implements store.CardStore.
func (m *MockCardStore) ListByUser(ctx context.Context, userID uuid.UUID) ([]*domain.Card, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []*domain.Card
	for _, c := range m.cards {
		if c.UserID == userID {
			out = append(out, c.Clone())
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.Before(out[j].CreatedAt) })
	return out, nil
}

// WithTx implements store.CardStore.
func (m *MockCardStore) WithTx(*sql.Tx) store.CardStore {
	return m
}

// Delete removes a card so tests can simulate ids that no longer resolve.
func (m *MockCardStore) Delete(id uuid.UUID) {
	m.mu.Lock()
	delete(m.cards, id)
	m.mu.Unlock()
}

// SaveCalls returns how many times Save was called.
func (m *MockCardStore) SaveCalls() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.saveCalls
}
