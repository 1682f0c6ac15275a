package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"

	"github.com/google/uuid"
	"github.com/phrazzld/lexis/internal/domain"
	"github.com/phrazzld/lexis/internal/store"
)

// GroupStore implements store.GroupStore on SQLite.
type GroupStore struct {
	db     store.DBTX
	logger *slog.Logger
}

// NewGroupStore creates a group store over db or a transaction.
func NewGroupStore(db store.DBTX, log *slog.Logger) *GroupStore {
	if log == nil {
		log = slog.Default()
	}
	return &GroupStore{db: db, logger: log.With(slog.String("component", "sqlite_group_store"))}
}

var _ store.GroupStore = (*GroupStore)(nil)

// SaveGroups implements store.GroupStore.
func (s *GroupStore) SaveGroups(ctx context.Context, userID uuid.UUID, groups []*domain.GroupDescriptor) error {
	if _, err := s.db.ExecContext(ctx, `DELETE FROM study_groups WHERE user_id = ?`, userID); err != nil {
		return MapError(err)
	}
	for i, g := range groups {
		ids, err := store.EncodeCardIDs(g.CardIDs)
		if err != nil {
			return fmt.Errorf("%w: %v", store.ErrInvalidEntity, err)
		}
		id := g.ID
		if id == uuid.Nil {
			id = uuid.New()
		}
		if _, err := s.db.ExecContext(ctx,
			`INSERT INTO study_groups (id, user_id, label, position, card_ids) VALUES (?, ?, ?, ?, ?)`,
			id, userID, g.Label, i, ids); err != nil {
			s.logger.Error("failed to save group",
				slog.String("error", err.Error()),
				slog.String("group_id", id.String()))
			return MapError(err)
		}
	}
	return nil
}

// ListGroups implements store.GroupStore.
func (s *GroupStore) ListGroups(ctx context.Context, userID uuid.UUID) ([]*domain.GroupDescriptor, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, user_id, label, position, card_ids FROM study_groups WHERE user_id = ? ORDER BY position`,
		userID)
	if err != nil {
		return nil, MapError(err)
	}
	defer func() { _ = rows.Close() }()

	var groups []*domain.GroupDescriptor
	for rows.Next() {
		var (
			g   domain.GroupDescriptor
			raw []byte
		)
		if err := rows.Scan(&g.ID, &g.UserID, &g.Label, &g.Position, &raw); err != nil {
			return nil, MapError(err)
		}
		if g.CardIDs, err = store.DecodeCardIDs(raw); err != nil {
			return nil, err
		}
		groups = append(groups, &g)
	}
	return groups, MapError(rows.Err())
}

// WithTx implements store.GroupStore.
func (s *GroupStore) WithTx(tx *sql.Tx) store.GroupStore {
	return &GroupStore{db: tx, logger: s.logger}
}
