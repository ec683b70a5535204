package embeddings

import (
	"context"
	"errors"
	"sort"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ramonehamilton/mtg-deck-advisor/internal/mtg/cards"
	"github.com/ramonehamilton/mtg-deck-advisor/internal/storage/models"
)

// memoryRepo is an in-memory EmbeddingRepository.
type memoryRepo struct {
	embeddings map[string]*models.CardEmbedding
	failUpsert bool
	loads      int
}

func newMemoryRepo() *memoryRepo {
	return &memoryRepo{embeddings: make(map[string]*models.CardEmbedding)}
}

func (m *memoryRepo) UpsertEmbedding(_ context.Context, e *models.CardEmbedding) error {
	if m.failUpsert {
		return errors.New("disk full")
	}
	m.embeddings[e.CardID] = e
	return nil
}

func (m *memoryRepo) GetEmbedding(_ context.Context, id string) (*models.CardEmbedding, error) {
	return m.embeddings[id], nil
}

func (m *memoryRepo) GetAllEmbeddings(_ context.Context) ([]*models.CardEmbedding, error) {
	m.loads++
	out := make([]*models.CardEmbedding, 0, len(m.embeddings))
	for _, e := range m.embeddings {
		out = append(out, e)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CardID < out[j].CardID })
	return out, nil
}

func (m *memoryRepo) GetEmbeddingCount(_ context.Context) (int, error) {
	return len(m.embeddings), nil
}

func testCards() []*cards.Card {
	return []*cards.Card{
		{ID: "counterspell", Name: "Counterspell", TypeLine: "Instant", CMC: 2, ColorIdentity: []string{"U"}, OracleText: "Counter target spell."},
		{ID: "swords", Name: "Swords to Plowshares", TypeLine: "Instant", CMC: 1, ColorIdentity: []string{"W"}, OracleText: "Exile target creature. Its controller gains life equal to its power."},
		{ID: "goblin", Name: "Goblin Guide", TypeLine: "Creature — Goblin Scout", CMC: 1, ColorIdentity: []string{"R"}, OracleText: "Haste", Power: "2", Toughness: "2"},
	}
}

func TestService_IndexAndSearch(t *testing.T) {
	repo := newMemoryRepo()
	seed := NewService(repo, nil)

	n, err := seed.IndexCards(context.Background(), testCards())
	require.NoError(t, err)
	assert.Equal(t, 3, n)

	// A fresh service reads the index from the repository.
	svc := NewService(repo, nil)
	hits, err := svc.Search(context.Background(), "cards for a control theme", 2, nil)
	require.NoError(t, err)
	require.Len(t, hits, 2)

	ids := []string{hits[0].ID, hits[1].ID}
	assert.ElementsMatch(t, []string{"counterspell", "swords"}, ids)
	assert.GreaterOrEqual(t, hits[0].Score, hits[1].Score)
	assert.NotEmpty(t, hits[0].Metadata["name"])

	_, err = svc.Search(context.Background(), "anything", 5, nil)
	require.NoError(t, err)
	assert.Equal(t, 1, repo.loads, "index should be loaded once")
}

func TestService_SearchNoMatches(t *testing.T) {
	repo := newMemoryRepo()
	svc := NewService(repo, nil)
	_, err := svc.IndexCards(context.Background(), testCards())
	require.NoError(t, err)

	hits, err := svc.Search(context.Background(), "", 10, nil)
	require.NoError(t, err)
	assert.NotNil(t, hits)
	assert.Empty(t, hits)
}

func TestService_GetSimilarCards(t *testing.T) {
	svc := NewService(newMemoryRepo(), nil)
	_, err := svc.IndexCards(context.Background(), testCards())
	require.NoError(t, err)

	similar, err := svc.GetSimilarCards(context.Background(), "counterspell", 1)
	require.NoError(t, err)
	require.Len(t, similar, 1)
	assert.Equal(t, "swords", similar[0].CardID)
	assert.Equal(t, 1, similar[0].Rank)

	_, err = svc.GetSimilarCards(context.Background(), "missing", 1)
	assert.ErrorIs(t, err, ErrNoEmbedding)
}

func TestService_IndexCardsStopsOnError(t *testing.T) {
	repo := newMemoryRepo()
	repo.failUpsert = true
	svc := NewService(repo, nil)

	n, err := svc.IndexCards(context.Background(), testCards())
	assert.Error(t, err)
	assert.Equal(t, 0, n)
}

func TestService_Count(t *testing.T) {
	svc := NewService(newMemoryRepo(), nil)

	n, err := svc.Count(context.Background())
	require.NoError(t, err)
	assert.Zero(t, n)

	_, err = svc.IndexCards(context.Background(), testCards())
	require.NoError(t, err)

	n, err = svc.Count(context.Background())
	require.NoError(t, err)
	assert.Equal(t, len(testCards()), n)
}
