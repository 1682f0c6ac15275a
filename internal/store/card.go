package store

import (
	"context"
	"database/sql"

	"github.com/google/uuid"
	"github.com/phrazzld/lexis/internal/domain"
)

// CardStore defines the interface for card data persistence.
// Implementations must be read-after-write consistent within one process.
type CardStore interface {
	// GetByID retrieves a card by its unique ID.
	// Returns ErrCardNotFound if the card does not exist.
	GetByID(ctx context.Context, id uuid.UUID) (*domain.Card, error)

	// GetByIDs retrieves every card whose id is in ids. Ids that do not
	// resolve are omitted; order of the result is unspecified.
	GetByIDs(ctx context.Context, ids []uuid.UUID) ([]*domain.Card, error)

	// Save inserts or replaces a card. The card is validated first.
	Save(ctx context.Context, card *domain.Card) error

	// ListByUser returns all cards owned by userID ordered by creation time.
	ListByUser(ctx context.Context, userID uuid.UUID) ([]*domain.Card, error)

	// WithTx returns a CardStore bound to tx.
	WithTx(tx *sql.Tx) CardStore
}

// IndexCards maps cards by id.
func IndexCards(cards []*domain.Card) map[uuid.UUID]*domain.Card {
	m := make(map[uuid.UUID]*domain.Card, len(cards))
	for _, c := range cards {
		m[c.ID] = c
	}
	return m
}
