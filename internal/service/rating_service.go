package service

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/phrazzld/lexis/internal/domain"
	"github.com/phrazzld/lexis/internal/domain/srs"
	"github.com/phrazzld/lexis/internal/platform/logger"
	"github.com/phrazzld/lexis/internal/store"
)

// RatingService applies a grade to a card's scheduling state and persists
// the result. It satisfies the session engine's rating contract.
type RatingService struct {
	cards  store.CardStore
	db     *sql.DB
	srs    srs.Service
	now    func() time.Time
	logger *slog.Logger
}

// NewRatingService creates a RatingService. db may be nil, in which case
// the read and the write are not wrapped in a transaction.
func NewRatingService(cards store.CardStore, db *sql.DB, srsService srs.Service, log *slog.Logger) (*RatingService, error) {
	if cards == nil {
		return nil, fmt.Errorf("%w: card store cannot be nil", domain.ErrValidation)
	}
	if srsService == nil {
		return nil, fmt.Errorf("%w: srs service cannot be nil", domain.ErrValidation)
	}
	if log == nil {
		log = slog.Default()
	}

	return &RatingService{
		cards:  cards,
		db:     db,
		srs:    srsService,
		now:    func() time.Time { return time.Now().UTC() },
		logger: log.With(slog.String("component", "rating_service")),
	}, nil
}

// Rate re-reads card from the store, applies grade and saves the result.
// The stored card is the source of truth for scheduling fields; card only
// identifies it and its owner.
func (s *RatingService) Rate(ctx context.Context, card *domain.Card, grade domain.Grade) (*domain.Card, error) {
	if card == nil {
		return nil, srs.ErrNilCard
	}
	if !grade.Valid() {
		return nil, fmt.Errorf("%w: %q", domain.ErrInvalidGrade, grade)
	}

	log := logger.FromContextOrDefault(ctx).With(slog.String("component", "rating_service"))
	log.Debug("rating card",
		slog.String("card_id", card.ID.String()),
		slog.String("grade", string(grade)))

	var rated *domain.Card
	err := s.run(ctx, func(ctx context.Context, cards store.CardStore) error {
		current, err := cards.GetByID(ctx, card.ID)
		if err != nil {
			return err
		}
		if current.UserID != card.UserID {
			log.Warn("user does not own card",
				slog.String("user_id", card.UserID.String()),
				slog.String("card_id", card.ID.String()),
				slog.String("owner_id", current.UserID.String()))
			return ErrNotOwned
		}

		next, err := s.srs.Rate(current, grade, s.now())
		if err != nil {
			return fmt.Errorf("failed to calculate next review: %w", err)
		}
		if err := cards.Save(ctx, next); err != nil {
			return fmt.Errorf("failed to save rated card: %w", err)
		}
		rated = next
		return nil
	})
	if err != nil {
		if errors.Is(err, ErrNotOwned) || store.IsNotFoundError(err) {
			return nil, err
		}
		log.Error("failed to rate card",
			slog.String("error", err.Error()),
			slog.String("card_id", card.ID.String()))
		return nil, NewRatingServiceError("rate", "failed to rate card", err)
	}

	log.Debug("card rated",
		slog.String("card_id", rated.ID.String()),
		slog.String("state", string(rated.State)),
		slog.Int("interval", rated.Interval),
		slog.Float64("ease_factor", rated.EaseFactor),
		slog.Time("due", rated.Due))
	return rated, nil
}

func (s *RatingService) run(ctx context.Context, fn func(ctx context.Context, cards store.CardStore) error) error {
	if s.db == nil {
		return fn(ctx, s.cards)
	}
	return store.RunInTransaction(ctx, s.db, func(ctx context.Context, tx *sql.Tx) error {
		return fn(ctx, s.cards.WithTx(tx))
	})
}
