package repository

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ramonehamilton/mtg-deck-advisor/internal/mtg/cards"
)

func TestCardRepository_UpsertAndGet(t *testing.T) {
	db := setupTestDB(t)
	repo := NewCardRepository(db.Conn())
	ctx := context.Background()

	card := &cards.Card{
		ID:            "reversal",
		Name:          "Dramatic Reversal",
		TypeLine:      "Instant",
		ManaCost:      "{1}{U}",
		CMC:           2,
		Colors:        []string{"U"},
		ColorIdentity: []string{"U"},
		OracleText:    "Untap all nonland permanents you control.",
		Legalities:    map[string]string{"commander": "legal"},
		PriceUSD:      float(0.45),
	}
	require.NoError(t, repo.UpsertCard(ctx, card))

	got, err := repo.GetCardByID(ctx, "reversal")
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.Equal(t, card.Name, got.Name)
	assert.Equal(t, card.ColorIdentity, got.ColorIdentity)
	assert.Equal(t, card.Legalities, got.Legalities)
	require.NotNil(t, got.PriceUSD)
	assert.Equal(t, 0.45, *got.PriceUSD)
	assert.False(t, got.LastUpdated.IsZero())

	byName, err := repo.GetCardByName(ctx, "dramatic reversal")
	require.NoError(t, err)
	require.NotNil(t, byName)
	assert.Equal(t, "reversal", byName.ID)

	card.PriceUSD = nil
	require.NoError(t, repo.UpsertCard(ctx, card))
	got, err = repo.GetCardByID(ctx, "reversal")
	require.NoError(t, err)
	assert.Nil(t, got.PriceUSD)

	count, err := repo.GetCardCount(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, count)
}

func TestCardRepository_Missing(t *testing.T) {
	db := setupTestDB(t)
	repo := NewCardRepository(db.Conn())

	got, err := repo.GetCardByID(context.Background(), "nope")
	assert.NoError(t, err)
	assert.Nil(t, got)

	got, err = repo.GetCardByName(context.Background(), "Nope")
	assert.NoError(t, err)
	assert.Nil(t, got)
}

func TestCardRepository_ListCards(t *testing.T) {
	db := setupTestDB(t)
	repo := NewCardRepository(db.Conn())
	ctx := context.Background()

	for _, c := range []*cards.Card{{ID: "b", Name: "Sol Ring"}, {ID: "a", Name: "Counterspell"}} {
		require.NoError(t, repo.UpsertCard(ctx, c))
	}

	list, err := repo.ListCards(ctx)
	require.NoError(t, err)
	require.Len(t, list, 2)
	assert.Equal(t, "Counterspell", list[0].Name)
	assert.Equal(t, []string{}, list[0].ColorIdentity)
}
