//go:build integration

package postgres_test

import (
	"context"
	"database/sql"
	"encoding/json"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/phrazzld/lexis/internal/domain"
	"github.com/phrazzld/lexis/internal/platform/postgres"
	"github.com/phrazzld/lexis/internal/store"
	"github.com/phrazzld/lexis/internal/testdb"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newCard(t *testing.T, userID uuid.UUID, word string) *domain.Card {
	t.Helper()
	card, err := domain.NewCard(userID, word, word+" meaning")
	require.NoError(t, err)
	card.CreatedAt = card.CreatedAt.Truncate(time.Microsecond)
	card.UpdatedAt = card.CreatedAt
	card.Due = card.Due.Truncate(time.Microsecond)
	return card
}

func TestCardStoreRoundTrip(t *testing.T) {
	db := testdb.Open(t)
	testdb.WithTx(t, db, func(t *testing.T, tx *sql.Tx) {
		ctx := context.Background()
		cards := postgres.NewPostgresCardStore(tx, nil)
		userID := uuid.New()

		card := newCard(t, userID, "lucid")
		card.Enrichment.Example = "a lucid explanation"
		require.NoError(t, cards.Save(ctx, card))

		got, err := cards.GetByID(ctx, card.ID)
		require.NoError(t, err)
		assert.Equal(t, "lucid", got.Word)
		assert.Equal(t, domain.StateNew, got.State)
		assert.Equal(t, "a lucid explanation", got.Enrichment.Example)
		assert.True(t, got.LastReviewedAt.IsZero())

		got.State = domain.StateReview
		got.Interval = 3
		got.ReviewCount = 2
		got.LastReviewedAt = time.Now().UTC().Truncate(time.Microsecond)
		require.NoError(t, cards.Save(ctx, got))

		again, err := cards.GetByID(ctx, card.ID)
		require.NoError(t, err)
		assert.Equal(t, domain.StateReview, again.State)
		assert.Equal(t, 3, again.Interval)
		assert.Equal(t, 2, again.ReviewCount)
		assert.True(t, got.LastReviewedAt.Equal(again.LastReviewedAt))
	})
}

func TestCardStoreLookups(t *testing.T) {
	db := testdb.Open(t)
	testdb.WithTx(t, db, func(t *testing.T, tx *sql.Tx) {
		ctx := context.Background()
		cards := postgres.NewPostgresCardStore(tx, nil)
		userID := uuid.New()

		a, b := newCard(t, userID, "terse"), newCard(t, userID, "verbose")
		require.NoError(t, cards.Save(ctx, a))
		require.NoError(t, cards.Save(ctx, b))
		require.NoError(t, cards.Save(ctx, newCard(t, uuid.New(), "terse")))

		byIDs, err := cards.GetByIDs(ctx, []uuid.UUID{a.ID, b.ID, uuid.New()})
		require.NoError(t, err)
		assert.Len(t, byIDs, 2)

		list, err := cards.ListByUser(ctx, userID)
		require.NoError(t, err)
		assert.Len(t, list, 2)

		_, err = cards.GetByID(ctx, uuid.New())
		assert.ErrorIs(t, err, store.ErrCardNotFound)
		assert.True(t, store.IsNotFoundError(err))
	})
}

func TestCardStoreRejectsDuplicateWord(t *testing.T) {
	db := testdb.Open(t)
	testdb.WithTx(t, db, func(t *testing.T, tx *sql.Tx) {
		ctx := context.Background()
		cards := postgres.NewPostgresCardStore(tx, nil)
		userID := uuid.New()

		require.NoError(t, cards.Save(ctx, newCard(t, userID, "Ardent")))
		err := cards.Save(ctx, newCard(t, userID, "ardent"))
		assert.ErrorIs(t, err, store.ErrDuplicate)
	})
}

func TestGroupStoreReplacesOrder(t *testing.T) {
	db := testdb.Open(t)
	testdb.WithTx(t, db, func(t *testing.T, tx *sql.Tx) {
		ctx := context.Background()
		groups := postgres.NewPostgresGroupStore(tx, nil)
		userID := uuid.New()
		first := []uuid.UUID{uuid.New(), uuid.New()}
		second := []uuid.UUID{uuid.New()}

		require.NoError(t, groups.SaveGroups(ctx, userID, []*domain.GroupDescriptor{
			{Label: "one", CardIDs: first},
			{Label: "two", CardIDs: second},
		}))
		got, err := groups.ListGroups(ctx, userID)
		require.NoError(t, err)
		require.Len(t, got, 2)
		assert.Equal(t, "one", got[0].Label)
		assert.Equal(t, first, got[0].CardIDs)
		assert.Equal(t, 1, got[1].Position)

		require.NoError(t, groups.SaveGroups(ctx, userID, []*domain.GroupDescriptor{
			{Label: "only", CardIDs: second},
		}))
		got, err = groups.ListGroups(ctx, userID)
		require.NoError(t, err)
		require.Len(t, got, 1)
		assert.Equal(t, "only", got[0].Label)
	})
}

func TestCacheStoreUpsert(t *testing.T) {
	db := testdb.Open(t)
	testdb.WithTx(t, db, func(t *testing.T, tx *sql.Tx) {
		ctx := context.Background()
		cache := postgres.NewPostgresCacheStore(tx, nil)

		_, err := cache.GetEntry(ctx, "missing")
		assert.ErrorIs(t, err, store.ErrCacheEntryNotFound)

		now := time.Now().UTC().Truncate(time.Microsecond)
		require.NoError(t, cache.SaveEntry(ctx, &domain.CacheEntry{
			Key: "labels:v1:x", Payload: json.RawMessage(`["a"]`), CreatedAt: now,
		}))
		require.NoError(t, cache.SaveEntry(ctx, &domain.CacheEntry{
			Key: "labels:v1:x", Payload: json.RawMessage(`["b"]`), CreatedAt: now,
		}))

		got, err := cache.GetEntry(ctx, "labels:v1:x")
		require.NoError(t, err)
		assert.JSONEq(t, `["b"]`, string(got.Payload))
		assert.True(t, now.Equal(got.CreatedAt))
	})
}
