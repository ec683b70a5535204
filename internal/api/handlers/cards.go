package handlers

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/ramonehamilton/mtg-deck-advisor/internal/api/response"
	"github.com/ramonehamilton/mtg-deck-advisor/internal/mtg/embeddings"
)

const (
	defaultSimilarLimit = 10
	maxSimilarLimit     = 100
)

// CardIndex answers similarity queries over indexed cards.
type CardIndex interface {
	GetSimilarCards(ctx context.Context, cardID string, limit int) ([]embeddings.SimilarCard, error)
	Count(ctx context.Context) (int, error)
}

// CardHandler handles card API requests.
type CardHandler struct {
	index CardIndex
}

// NewCardHandler creates a new CardHandler.
func NewCardHandler(index CardIndex) *CardHandler {
	return &CardHandler{index: index}
}

// GetSimilarCards returns the indexed cards closest to a card.
// GET /api/v1/cards/{cardID}/similar?limit=10
func (h *CardHandler) GetSimilarCards(w http.ResponseWriter, r *http.Request) {
	cardID := chi.URLParam(r, "cardID")
	if cardID == "" {
		response.BadRequest(w, errors.New("card ID is required"))
		return
	}

	limit := defaultSimilarLimit
	if raw := r.URL.Query().Get("limit"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n < 1 || n > maxSimilarLimit {
			response.BadRequest(w, fmt.Errorf("limit must be between 1 and %d", maxSimilarLimit))
			return
		}
		limit = n
	}

	similar, err := h.index.GetSimilarCards(r.Context(), cardID, limit)
	if errors.Is(err, embeddings.ErrNoEmbedding) {
		response.NotFound(w, err)
		return
	}
	if err != nil {
		response.InternalError(w, err)
		return
	}
	if similar == nil {
		similar = []embeddings.SimilarCard{}
	}

	response.Success(w, similar)
}
