package recommendations

import (
	"context"
	"log/slog"
)

// CandidateRetriever fetches a ranked candidate pool from the semantic-search
// collaborator, caching raw results per (query, maxResults).
type CandidateRetriever struct {
	searcher SemanticSearcher
	cache    *RetrievalCache
	logger   *slog.Logger
}

// NewCandidateRetriever creates a retriever. A nil cache disables caching.
func NewCandidateRetriever(searcher SemanticSearcher, cache *RetrievalCache, logger *slog.Logger) *CandidateRetriever {
	if logger == nil {
		logger = slog.Default()
	}
	return &CandidateRetriever{
		searcher: searcher,
		cache:    cache,
		logger:   logger,
	}
}

// Retrieve returns hits ordered by relevance. A search failure is logged and
// yields an empty list with complete set to false; failures are not cached.
func (r *CandidateRetriever) Retrieve(ctx context.Context, queryText string, maxResults int) (hits []SearchHit, complete bool) {
	if r.cache != nil {
		if cached, ok := r.cache.Get(queryText, maxResults); ok {
			r.logger.Debug("retrieval cache hit", slog.String("query", queryText), slog.Int("max_results", maxResults))
			return cached, true
		}
	}

	hits, err := r.searcher.Search(ctx, queryText, maxResults, nil)
	if err != nil {
		r.logger.Warn("semantic search unavailable",
			slog.String("stage", stageRetrieve),
			slog.String("query", queryText),
			slog.Any("error", err))
		return []SearchHit{}, false
	}
	if hits == nil {
		hits = []SearchHit{}
	}

	if r.cache != nil {
		r.cache.Set(queryText, maxResults, hits)
	}
	return hits, true
}
