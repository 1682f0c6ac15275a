package mocks

import (
	"context"
	"sync"

	"github.com/google/uuid"
	"github.com/phrazzld/lexis/internal/domain"
)

// RateCall records one call to MockRater.Rate.
type RateCall struct {
	CardID uuid.UUID
	Grade  domain.Grade
}

// MockRater implements the rating contract. By default a pass grade
// graduates the card and a fail grade puts it back into learning.
type MockRater struct {
	RateFn func(ctx context.Context, card *domain.Card, grade domain.Grade) (*domain.Card, error)

	mu    sync.Mutex
	calls []RateCall
}

// Rate implements the rating contract.
func (m *MockRater) Rate(ctx context.Context, card *domain.Card, grade domain.Grade) (*domain.Card, error) {
	m.mu.Lock()
	m.calls = append(m.calls, RateCall{CardID: card.ID, Grade: grade})
	m.mu.Unlock()

	if m.RateFn != nil {
		return m.RateFn(ctx, card, grade)
	}
	next := card.Clone()
	if grade.Passing() {
		next.State = domain.StateReview
	} else {
		next.State = domain.StateLearning
	}
	return next, nil
}

// Calls returns every recorded call.
func (m *MockRater) Calls() []RateCall {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]RateCall(nil), m.calls...)
}
