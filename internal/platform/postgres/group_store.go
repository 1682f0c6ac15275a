package postgres

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"

	"github.com/google/uuid"
	"github.com/phrazzld/lexis/internal/domain"
	"github.com/phrazzld/lexis/internal/store"
)

// PostgresGroupStore implements store.GroupStore on PostgreSQL.
type PostgresGroupStore struct {
	db     store.DBTX
	logger *slog.Logger
}

// NewPostgresGroupStore creates a group store over a connection or transaction.
func NewPostgresGroupStore(db store.DBTX, log *slog.Logger) *PostgresGroupStore {
	if db == nil {
		panic("db cannot be nil")
	}
	if log == nil {
		log = slog.Default()
	}
	return &PostgresGroupStore{db: db, logger: log.With(slog.String("component", "group_store"))}
}

var _ store.GroupStore = (*PostgresGroupStore)(nil)

// SaveGroups implements store.GroupStore. Callers wanting atomic replacement
// run it on a store bound to a transaction.
func (s *PostgresGroupStore) SaveGroups(ctx context.Context, userID uuid.UUID, groups []*domain.GroupDescriptor) error {
	if _, err := s.db.ExecContext(ctx, `DELETE FROM study_groups WHERE user_id = $1`, userID); err != nil {
		s.logger.Error("failed to clear groups",
			slog.String("error", err.Error()),
			slog.String("user_id", userID.String()))
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
		_, err = s.db.ExecContext(ctx,
			`INSERT INTO study_groups (id, user_id, label, position, card_ids) VALUES ($1, $2, $3, $4, $5)`,
			id, userID, g.Label, i, ids)
		if err != nil {
			s.logger.Error("failed to save group",
				slog.String("error", err.Error()),
				slog.String("group_id", id.String()))
			return MapError(err)
		}
	}

	s.logger.Debug("groups saved",
		slog.String("user_id", userID.String()),
		slog.Int("count", len(groups)))
	return nil
}

// ListGroups implements store.GroupStore.
func (s *PostgresGroupStore) ListGroups(ctx context.Context, userID uuid.UUID) ([]*domain.GroupDescriptor, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, user_id, label, position, card_ids FROM study_groups WHERE user_id = $1 ORDER BY position`,
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
func (s *PostgresGroupStore) WithTx(tx *sql.Tx) store.GroupStore {
	return &PostgresGroupStore{db: tx, logger: s.logger}
}
