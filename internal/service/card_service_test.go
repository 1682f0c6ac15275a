package service

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/phrazzld/lexis/internal/domain"
	"github.com/phrazzld/lexis/internal/domain/srs"
	"github.com/phrazzld/lexis/internal/mocks"
	"github.com/phrazzld/lexis/internal/store"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newCardService(t *testing.T, cards ...*domain.Card) (*CardService, *mocks.MockCardStore, *mocks.MockGroupStore) {
	t.Helper()
	cs := mocks.NewMockCardStore(cards...)
	gs := mocks.NewMockGroupStore()
	svc, err := NewCardService(cs, gs, nil, nil, nil)
	require.NoError(t, err)
	return svc, cs, gs
}

func TestNewCardServiceValidation(t *testing.T) {
	t.Parallel()
	_, err := NewCardService(nil, mocks.NewMockGroupStore(), nil, nil, nil)
	assert.ErrorIs(t, err, domain.ErrValidation)
	_, err = NewCardService(mocks.NewMockCardStore(), nil, nil, nil, nil)
	assert.ErrorIs(t, err, domain.ErrValidation)
}

func TestImportDeck(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	userID := uuid.New()

	existing := newCard(t, userID, "Cat")
	existing.State = domain.StateReview
	svc, cards, groups := newCardService(t, existing)

	res, err := svc.ImportDeck(ctx, userID, []GroupInput{
		{Label: "animals", Cards: []CardInput{
			{Word: "cat", Meaning: "a small feline"},
			{Word: "kitten", Meaning: "a young cat", Enrichment: domain.Enrichment{Example: "The kitten slept."}},
		}},
		{Label: "empty", Cards: []CardInput{{Word: "kitten", Meaning: "dup"}}},
		{Label: "sky", Cards: []CardInput{{Word: "sun", Meaning: "the star"}}},
	})
	require.NoError(t, err)
	assert.Equal(t, &ImportResult{Groups: 2, Created: 2, Reused: 2}, res)

	all, err := cards.ListByUser(ctx, userID)
	require.NoError(t, err)
	assert.Len(t, all, 3)

	stored, err := cards.GetByID(ctx, existing.ID)
	require.NoError(t, err)
	assert.Equal(t, domain.StateReview, stored.State)

	saved, err := groups.ListGroups(ctx, userID)
	require.NoError(t, err)
	require.Len(t, saved, 2)
	assert.Equal(t, "animals", saved[0].Label)
	assert.Equal(t, existing.ID, saved[0].CardIDs[0])
	assert.Len(t, saved[0].CardIDs, 2)
	assert.Equal(t, "sky", saved[1].Label)
}

func TestImportDeckRejectsEmptyAndInvalid(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	svc, cards, _ := newCardService(t)
	userID := uuid.New()

	_, err := svc.ImportDeck(ctx, userID, []GroupInput{{Label: "none"}})
	assert.ErrorIs(t, err, ErrEmptyDeck)

	_, err = svc.ImportDeck(ctx, userID, []GroupInput{{Label: "bad", Cards: []CardInput{{Word: "x"}}}})
	assert.ErrorIs(t, err, domain.ErrValidation)
	assert.Equal(t, 0, cards.SaveCalls())
}

func TestSetFamiliarAndPostpone(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	userID := uuid.New()
	card := newCard(t, userID, "owl")
	svc, cards, _ := newCardService(t, card)

	updated, err := svc.SetFamiliar(ctx, userID, card.ID, true)
	require.NoError(t, err)
	assert.True(t, updated.Familiar)
	stored, err := cards.GetByID(ctx, card.ID)
	require.NoError(t, err)
	assert.True(t, stored.Familiar)

	postponed, err := svc.Postpone(ctx, userID, card.ID, 3)
	require.NoError(t, err)
	assert.Equal(t, card.Due.AddDate(0, 0, 3), postponed.Due)

	_, err = svc.Postpone(ctx, userID, card.ID, 0)
	assert.ErrorIs(t, err, srs.ErrInvalidDays)

	_, err = svc.SetFamiliar(ctx, uuid.New(), card.ID, false)
	assert.ErrorIs(t, err, ErrNotOwned)

	_, err = svc.GetCard(ctx, userID, uuid.New())
	assert.ErrorIs(t, err, store.ErrCardNotFound)

	got, err := svc.GetCard(ctx, userID, card.ID)
	require.NoError(t, err)
	assert.True(t, got.Familiar)
}
