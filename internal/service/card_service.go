package service

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/phrazzld/lexis/internal/domain"
	"github.com/phrazzld/lexis/internal/domain/srs"
	"github.com/phrazzld/lexis/internal/platform/logger"
	"github.com/phrazzld/lexis/internal/store"
)

// CardInput is one word of an imported deck.
type CardInput struct {
	Word       string
	Meaning    string
	Enrichment domain.Enrichment
}

// GroupInput is one study group of an imported deck.
type GroupInput struct {
	Label string
	Cards []CardInput
}

// ImportResult summarizes an import.
type ImportResult struct {
	Groups  int `json:"groups"`
	Created int `json:"created"`
	Reused  int `json:"reused"`
}

// CardService manages a learner's cards and study groups.
type CardService struct {
	cards  store.CardStore
	groups store.GroupStore
	db     *sql.DB
	srs    srs.Service
	now    func() time.Time
	logger *slog.Logger
}

// NewCardService creates a CardService. db may be nil, in which case
// multi-store operations are not transactional.
func NewCardService(
	cards store.CardStore,
	groups store.GroupStore,
	db *sql.DB,
	srsService srs.Service,
	log *slog.Logger,
) (*CardService, error) {
	if cards == nil {
		return nil, fmt.Errorf("%w: card store cannot be nil", domain.ErrValidation)
	}
	if groups == nil {
		return nil, fmt.Errorf("%w: group store cannot be nil", domain.ErrValidation)
	}
	if srsService == nil {
		srsService = srs.NewDefaultService()
	}
	if log == nil {
		log = slog.Default()
	}

	return &CardService{
		cards:  cards,
		groups: groups,
		db:     db,
		srs:    srsService,
		now:    func() time.Time { return time.Now().UTC() },
		logger: log.With(slog.String("component", "card_service")),
	}, nil
}

// ImportDeck creates the cards of a deck and replaces the learner's group
// order with the deck's groups. Words the learner already has are reused
// with their scheduling state untouched; a word repeated across groups
// joins only the first.
func (s *CardService) ImportDeck(ctx context.Context, userID uuid.UUID, deck []GroupInput) (*ImportResult, error) {
	log := logger.FromContextOrDefault(ctx).With(slog.String("component", "card_service"))

	total := 0
	for _, g := range deck {
		total += len(g.Cards)
	}
	if total == 0 {
		return nil, ErrEmptyDeck
	}

	result := &ImportResult{}
	err := s.run(ctx, func(ctx context.Context, cards store.CardStore, groups store.GroupStore) error {
		existing, err := cards.ListByUser(ctx, userID)
		if err != nil {
			return NewCardServiceError("import_deck", "failed to list cards", err)
		}
		byWord := make(map[string]*domain.Card, len(existing))
		for _, c := range existing {
			byWord[domain.NormalizeWord(c.Word)] = c
		}

		placed := make(map[uuid.UUID]struct{})
		descriptors := make([]*domain.GroupDescriptor, 0, len(deck))
		for i, g := range deck {
			group := &domain.GroupDescriptor{ID: uuid.New(), UserID: userID, Label: g.Label, Position: i}
			for _, in := range g.Cards {
				key := domain.NormalizeWord(in.Word)
				card, ok := byWord[key]
				if ok {
					result.Reused++
				} else {
					card, err = domain.NewCard(userID, in.Word, in.Meaning)
					if err != nil {
						return fmt.Errorf("%w: word %q: %v", domain.ErrValidation, in.Word, err)
					}
					card.Enrichment = in.Enrichment
					if err := cards.Save(ctx, card); err != nil {
						return NewCardServiceError("import_deck", "failed to save card", err)
					}
					byWord[key] = card
					result.Created++
				}
				if _, dup := placed[card.ID]; dup {
					continue
				}
				placed[card.ID] = struct{}{}
				group.CardIDs = append(group.CardIDs, card.ID)
			}
			if len(group.CardIDs) > 0 {
				descriptors = append(descriptors, group)
			}
		}

		if err := groups.SaveGroups(ctx, userID, descriptors); err != nil {
			return NewCardServiceError("import_deck", "failed to save groups", err)
		}
		result.Groups = len(descriptors)
		return nil
	})
	if err != nil {
		log.Error("deck import failed",
			slog.String("error", err.Error()),
			slog.String("user_id", userID.String()))
		return nil, err
	}

	log.Info("deck imported",
		slog.String("user_id", userID.String()),
		slog.Int("groups", result.Groups),
		slog.Int("created", result.Created),
		slog.Int("reused", result.Reused))
	return result, nil
}

// GetCard returns a card owned by userID.
func (s *CardService) GetCard(ctx context.Context, userID, cardID uuid.UUID) (*domain.Card, error) {
	card, err := s.cards.GetByID(ctx, cardID)
	if err != nil {
		if store.IsNotFoundError(err) {
			return nil, store.ErrCardNotFound
		}
		return nil, NewCardServiceError("get_card", "failed to retrieve card", err)
	}
	if card.UserID != userID {
		return nil, ErrNotOwned
	}
	return card, nil
}

// ListCards returns every card of userID.
func (s *CardService) ListCards(ctx context.Context, userID uuid.UUID) ([]*domain.Card, error) {
	cards, err := s.cards.ListByUser(ctx, userID)
	if err != nil {
		return nil, NewCardServiceError("list_cards", "failed to list cards", err)
	}
	return cards, nil
}

// SetFamiliar sets or clears the familiar flag of a card.
func (s *CardService) SetFamiliar(ctx context.Context, userID, cardID uuid.UUID, familiar bool) (*domain.Card, error) {
	return s.update(ctx, "set_familiar", userID, cardID, func(c *domain.Card) (*domain.Card, error) {
		next := c.Clone()
		next.Familiar = familiar
		next.UpdatedAt = s.now()
		return next, nil
	})
}

// Postpone pushes a card's due date forward by days.
func (s *CardService) Postpone(ctx context.Context, userID, cardID uuid.UUID, days int) (*domain.Card, error) {
	return s.update(ctx, "postpone", userID, cardID, func(c *domain.Card) (*domain.Card, error) {
		return s.srs.Postpone(c, days, s.now())
	})
}

func (s *CardService) update(
	ctx context.Context,
	op string,
	userID, cardID uuid.UUID,
	mutate func(c *domain.Card) (*domain.Card, error),
) (*domain.Card, error) {
	var updated *domain.Card
	err := s.run(ctx, func(ctx context.Context, cards store.CardStore, _ store.GroupStore) error {
		card, err := cards.GetByID(ctx, cardID)
		if err != nil {
			return err
		}
		if card.UserID != userID {
			return ErrNotOwned
		}
		next, err := mutate(card)
		if err != nil {
			return err
		}
		if err := cards.Save(ctx, next); err != nil {
			return err
		}
		updated = next
		return nil
	})
	switch {
	case err == nil:
		return updated, nil
	case errors.Is(err, ErrNotOwned), store.IsNotFoundError(err), errors.Is(err, srs.ErrInvalidDays):
		return nil, err
	default:
		s.logger.Error("card update failed",
			slog.String("operation", op),
			slog.String("error", err.Error()),
			slog.String("card_id", cardID.String()))
		return nil, NewCardServiceError(op, "failed to update card", err)
	}
}

func (s *CardService) run(
	ctx context.Context,
	fn func(ctx context.Context, cards store.CardStore, groups store.GroupStore) error,
) error {
	if s.db == nil {
		return fn(ctx, s.cards, s.groups)
	}
	return store.RunInTransaction(ctx, s.db, func(ctx context.Context, tx *sql.Tx) error {
		return fn(ctx, s.cards.WithTx(tx), s.groups.WithTx(tx))
	})
}
