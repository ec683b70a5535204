package repository

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ramonehamilton/mtg-deck-advisor/internal/storage/models"
)

func TestEmbeddingRepository(t *testing.T) {
	db := setupTestDB(t)
	repo := NewEmbeddingRepository(db.Conn())
	ctx := context.Background()

	require.NoError(t, repo.UpsertEmbedding(ctx, &models.CardEmbedding{
		CardID:           "reversal",
		CardName:         "Dramatic Reversal",
		Embedding:        []float64{0.1, 0.2, 0.3},
		EmbeddingVersion: 0,
		Source:           models.EmbeddingSourceHybrid,
	}))
	require.NoError(t, repo.UpsertEmbedding(ctx, &models.CardEmbedding{
		CardID:           "scepter",
		CardName:         "Isochron Scepter",
		Embedding:        []float64{1, 0, 0},
		EmbeddingVersion: models.EmbeddingVersion,
		Source:           models.EmbeddingSourceHybrid,
	}))

	got, err := repo.GetEmbedding(ctx, "reversal")
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.Equal(t, []float64{0.1, 0.2, 0.3}, got.Embedding)
	assert.Equal(t, models.EmbeddingSourceHybrid, got.Source)

	all, err := repo.GetAllEmbeddings(ctx)
	require.NoError(t, err)
	assert.Len(t, all, 2)

	count, err := repo.GetEmbeddingCount(ctx)
	require.NoError(t, err)
	assert.Equal(t, 2, count)

	missing, err := repo.GetEmbedding(ctx, "sol-ring")
	require.NoError(t, err)
	assert.Nil(t, missing)
}
