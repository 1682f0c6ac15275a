package store

import (
	"context"
	"database/sql"

	"github.com/google/uuid"
	"github.com/phrazzld/lexis/internal/domain"
)

// GroupStore persists the ordered study groups of a learner.
type GroupStore interface {
	// SaveGroups replaces every group of userID with groups, keeping their
	// order as Position.
	SaveGroups(ctx context.Context, userID uuid.UUID, groups []*domain.GroupDescriptor) error

	// ListGroups returns the groups of userID ordered by Position. Items is
	// left empty; callers resolve CardIDs through a CardStore.
	ListGroups(ctx context.Context, userID uuid.UUID) ([]*domain.GroupDescriptor, error)

	// WithTx returns a GroupStore bound to tx.
	WithTx(tx *sql.Tx) GroupStore
}
