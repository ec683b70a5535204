package embeddings

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sort"
	"sync"

	"github.com/ramonehamilton/mtg-deck-advisor/internal/mtg/cards"
	"github.com/ramonehamilton/mtg-deck-advisor/internal/mtg/recommendations"
	"github.com/ramonehamilton/mtg-deck-advisor/internal/storage/models"
	"github.com/ramonehamilton/mtg-deck-advisor/internal/storage/repository"
)

// ErrNoEmbedding is returned when a card has not been indexed.
var ErrNoEmbedding = errors.New("no embedding for card")

// SimilarCard is a card ranked by similarity to another card.
type SimilarCard struct {
	CardID          string  `json:"cardId"`
	CardName        string  `json:"cardName"`
	SimilarityScore float64 `json:"similarityScore"`
	Rank            int     `json:"rank"`
}

// Service indexes card embeddings and answers similarity queries.
type Service struct {
	repo      repository.EmbeddingRepository
	generator *Generator
	logger    *slog.Logger

	cache   map[string]*models.CardEmbedding // In-memory copy of the index
	loaded  bool
	cacheMu sync.RWMutex
}

// NewService creates a new embedding service.
func NewService(repo repository.EmbeddingRepository, logger *slog.Logger) *Service {
	if logger == nil {
		logger = slog.Default()
	}
	return &Service{
		repo:      repo,
		generator: NewGenerator(),
		logger:    logger,
		cache:     make(map[string]*models.CardEmbedding),
	}
}

// GenerateAndStore generates an embedding for a card and stores it.
func (s *Service) GenerateAndStore(ctx context.Context, card *cards.Card) (*models.CardEmbedding, error) {
	embedding := s.generator.GenerateEmbedding(card)

	if err := s.repo.UpsertEmbedding(ctx, embedding); err != nil {
		return nil, fmt.Errorf("failed to store embedding: %w", err)
	}

	s.cacheMu.Lock()
	s.cache[card.ID] = embedding
	s.cacheMu.Unlock()

	return embedding, nil
}

// IndexCards embeds and stores every card, stopping at the first failure.
func (s *Service) IndexCards(ctx context.Context, list []*cards.Card) (int, error) {
	indexed := 0
	for _, card := range list {
		if err := ctx.Err(); err != nil {
			return indexed, err
		}
		if _, err := s.GenerateAndStore(ctx, card); err != nil {
			return indexed, fmt.Errorf("failed to index %s: %w", card.Name, err)
		}
		indexed++
	}
	s.logger.Info("indexed card embeddings", slog.Int("count", indexed))
	return indexed, nil
}

// GetEmbedding retrieves an embedding by card id.
func (s *Service) GetEmbedding(ctx context.Context, cardID string) (*models.CardEmbedding, error) {
	s.cacheMu.RLock()
	if emb, ok := s.cache[cardID]; ok {
		s.cacheMu.RUnlock()
		return emb, nil
	}
	s.cacheMu.RUnlock()

	emb, err := s.repo.GetEmbedding(ctx, cardID)
	if err != nil {
		return nil, err
	}

	if emb != nil {
		s.cacheMu.Lock()
		s.cache[cardID] = emb
		s.cacheMu.Unlock()
	}

	return emb, nil
}

// LoadAllToCache loads all embeddings into the in-memory cache.
func (s *Service) LoadAllToCache(ctx context.Context) error {
	embeddings, err := s.repo.GetAllEmbeddings(ctx)
	if err != nil {
		return fmt.Errorf("failed to load embeddings: %w", err)
	}

	s.cacheMu.Lock()
	defer s.cacheMu.Unlock()

	for _, emb := range embeddings {
		s.cache[emb.CardID] = emb
	}
	s.loaded = true

	return nil
}

func (s *Service) ensureLoaded(ctx context.Context) error {
	s.cacheMu.RLock()
	loaded := s.loaded
	s.cacheMu.RUnlock()
	if loaded {
		return nil
	}
	return s.LoadAllToCache(ctx)
}

type scoredCard struct {
	id    string
	name  string
	score float64
}

// rank scores every cached embedding against target, best first. Ties are
// broken by name so results are stable.
func (s *Service) rank(target []float64, skipID string) []scoredCard {
	s.cacheMu.RLock()
	scores := make([]scoredCard, 0, len(s.cache))
	for id, emb := range s.cache {
		if id == skipID {
			continue
		}
		scores = append(scores, scoredCard{
			id:    id,
			name:  emb.CardName,
			score: CosineSimilarity(target, emb.Embedding),
		})
	}
	s.cacheMu.RUnlock()

	sort.Slice(scores, func(i, j int) bool {
		if scores[i].score != scores[j].score {
			return scores[i].score > scores[j].score
		}
		return scores[i].name < scores[j].name
	})
	return scores
}

// GetSimilarCards finds the most similar cards to a given card.
func (s *Service) GetSimilarCards(ctx context.Context, cardID string, limit int) ([]SimilarCard, error) {
	targetEmb, err := s.GetEmbedding(ctx, cardID)
	if err != nil {
		return nil, fmt.Errorf("failed to get target embedding: %w", err)
	}
	if targetEmb == nil {
		return nil, fmt.Errorf("%w %s", ErrNoEmbedding, cardID)
	}
	if err := s.ensureLoaded(ctx); err != nil {
		return nil, err
	}

	scores := s.rank(targetEmb.Embedding, cardID)
	if limit > 0 && len(scores) > limit {
		scores = scores[:limit]
	}

	result := make([]SimilarCard, len(scores))
	for i, sc := range scores {
		result[i] = SimilarCard{
			CardID:          sc.id,
			CardName:        sc.name,
			SimilarityScore: sc.score,
			Rank:            i + 1,
		}
	}
	return result, nil
}

// Search embeds the text and returns the closest indexed cards. Cards with no
// similarity at all are left out. Filters are not supported by this index and
// are ignored.
func (s *Service) Search(ctx context.Context, text string, limit int, _ map[string]string) ([]recommendations.SearchHit, error) {
	if err := s.ensureLoaded(ctx); err != nil {
		return nil, err
	}

	scores := s.rank(s.generator.EmbedQuery(text), "")

	hits := make([]recommendations.SearchHit, 0, max(limit, 0))
	for _, sc := range scores {
		if sc.score <= 0 {
			break
		}
		if limit > 0 && len(hits) == limit {
			break
		}
		hits = append(hits, recommendations.SearchHit{
			ID:       sc.id,
			Score:    sc.score,
			Metadata: map[string]any{"name": sc.name},
		})
	}

	s.logger.Debug("semantic search", slog.String("query", text), slog.Int("hits", len(hits)))
	return hits, nil
}

// Count returns the number of indexed cards.
func (s *Service) Count(ctx context.Context) (int, error) {
	return s.repo.GetEmbeddingCount(ctx)
}
