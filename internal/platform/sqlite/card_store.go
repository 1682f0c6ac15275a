package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"

	"github.com/google/uuid"
	"github.com/phrazzld/lexis/internal/domain"
	"github.com/phrazzld/lexis/internal/store"
)

// CardStore implements store.CardStore on SQLite.
type CardStore struct {
	db     store.DBTX
	logger *slog.Logger
}

// NewCardStore creates a card store over db or a transaction.
func NewCardStore(db store.DBTX, log *slog.Logger) *CardStore {
	if log == nil {
		log = slog.Default()
	}
	return &CardStore{db: db, logger: log.With(slog.String("component", "sqlite_card_store"))}
}

var _ store.CardStore = (*CardStore)(nil)

// GetByID implements store.CardStore.
func (s *CardStore) GetByID(ctx context.Context, id uuid.UUID) (*domain.Card, error) {
	card, err := store.ScanCard(s.db.QueryRowContext(ctx,
		`SELECT `+store.CardColumns+` FROM cards WHERE id = ?`, id))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, store.ErrCardNotFound
	}
	if err != nil {
		return nil, MapError(err)
	}
	return card, nil
}

// GetByIDs implements store.CardStore.
func (s *CardStore) GetByIDs(ctx context.Context, ids []uuid.UUID) ([]*domain.Card, error) {
	if len(ids) == 0 {
		return nil, nil
	}
	args := make([]any, len(ids))
	for i, id := range ids {
		args[i] = id
	}
	return s.query(ctx, `SELECT `+store.CardColumns+` FROM cards WHERE id IN (`+
		store.Placeholders("?", 0, len(ids))+`)`, args...)
}

// ListByUser implements store.CardStore.
func (s *CardStore) ListByUser(ctx context.Context, userID uuid.UUID) ([]*domain.Card, error) {
	return s.query(ctx, `SELECT `+store.CardColumns+` FROM cards WHERE user_id = ? ORDER BY created_at, id`, userID)
}

// Save implements store.CardStore.
func (s *CardStore) Save(ctx context.Context, card *domain.Card) error {
	if err := card.Validate(); err != nil {
		return fmt.Errorf("%w: %v", store.ErrInvalidEntity, err)
	}
	args, err := store.CardArgs(card)
	if err != nil {
		return fmt.Errorf("%w: %v", store.ErrInvalidEntity, err)
	}

	_, err = s.db.ExecContext(ctx, `
		INSERT INTO cards (`+store.CardColumns+`)
		VALUES (`+store.Placeholders("?", 0, len(args))+`)
		ON CONFLICT (id) DO UPDATE SET
			word = excluded.word,
			meaning = excluded.meaning,
			state = excluded.state,
			due = excluded.due,
			familiar = excluded.familiar,
			interval_days = excluded.interval_days,
			ease_factor = excluded.ease_factor,
			consecutive_correct = excluded.consecutive_correct,
			review_count = excluded.review_count,
			last_reviewed_at = excluded.last_reviewed_at,
			enrichment = excluded.enrichment,
			updated_at = excluded.updated_at`, args...)
	if err != nil {
		s.logger.Error("failed to save card",
			slog.String("error", err.Error()),
			slog.String("card_id", card.ID.String()))
		return MapError(err)
	}
	return nil
}

// WithTx implements store.CardStore.
func (s *CardStore) WithTx(tx *sql.Tx) store.CardStore {
	return &CardStore{db: tx, logger: s.logger}
}

func (s *CardStore) query(ctx context.Context, query string, args ...any) ([]*domain.Card, error) {
	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, MapError(err)
	}
	defer func() { _ = rows.Close() }()

	var cards []*domain.Card
	for rows.Next() {
		card, err := store.ScanCard(rows)
		if err != nil {
			return nil, MapError(err)
		}
		cards = append(cards, card)
	}
	return cards, MapError(rows.Err())
}
