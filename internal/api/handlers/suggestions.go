package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"reflect"
	"sync"

	"github.com/invopop/jsonschema"

	"github.com/ramonehamilton/mtg-deck-advisor/internal/api/response"
	"github.com/ramonehamilton/mtg-deck-advisor/internal/metrics"
	"github.com/ramonehamilton/mtg-deck-advisor/internal/mtg/recommendations"
)

// maxRequestBody bounds suggestion request bodies.
const maxRequestBody = 1 << 20

// SuggestionEngine is the part of the recommendation engine the API drives.
type SuggestionEngine interface {
	Suggest(ctx context.Context, deck *recommendations.Deck, c recommendations.Constraints) []recommendations.Suggestion
	CacheStats() recommendations.CacheStats
	ClearCaches()
}

// StatsSource reports pipeline metrics.
type StatsSource interface {
	GetStats() *metrics.Stats
	Reset()
}

// IndexCounter reports how many cards the semantic index holds.
type IndexCounter interface {
	Count(ctx context.Context) (int, error)
}

// CardCounter reports how many cards are stored locally.
type CardCounter interface {
	GetCardCount(ctx context.Context) (int, error)
}

// ComboCounter reports how many combos the knowledge base holds.
type ComboCounter interface {
	GetComboCount(ctx context.Context) (int, error)
}

// SuggestionOptions are the optional collaborators of a SuggestionHandler.
type SuggestionOptions struct {
	Stats  StatsSource
	Index  IndexCounter // An empty index refuses suggestions with 503
	Cards  CardCounter
	Combos ComboCounter
}

// SuggestionRequest is the body of POST /api/v1/suggestions.
type SuggestionRequest struct {
	Deck        *recommendations.Deck       `json:"deck" jsonschema:"required"`
	Constraints recommendations.Constraints `json:"constraints,omitempty"`
}

// SuggestionResponse wraps the suggestion list.
type SuggestionResponse struct {
	Suggestions []recommendations.Suggestion `json:"suggestions"`
	Count       int                          `json:"count"`
}

// Inventory counts the local data behind the engine. Counts whose source is
// not wired are omitted.
type Inventory struct {
	IndexedCards *int `json:"indexed_cards,omitempty"`
	StoredCards  *int `json:"stored_cards,omitempty"`
	Combos       *int `json:"combos,omitempty"`
}

// StatsResponse is returned by GET /api/v1/stats.
type StatsResponse struct {
	Caches    recommendations.CacheStats `json:"caches"`
	Inventory Inventory                  `json:"inventory"`
	Metrics   *metrics.Stats             `json:"metrics,omitempty"`
}

// SuggestionHandler handles suggestion API requests.
type SuggestionHandler struct {
	engine SuggestionEngine
	opts   SuggestionOptions

	schemaOnce sync.Once
	schema     *jsonschema.Schema
}

// NewSuggestionHandler creates a new SuggestionHandler.
func NewSuggestionHandler(engine SuggestionEngine, opts SuggestionOptions) *SuggestionHandler {
	return &SuggestionHandler{engine: engine, opts: opts}
}

// Suggest proposes cards for the posted deck.
// POST /api/v1/suggestions
func (h *SuggestionHandler) Suggest(w http.ResponseWriter, r *http.Request) {
	var req SuggestionRequest
	if err := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxRequestBody)).Decode(&req); err != nil {
		response.BadRequest(w, fmt.Errorf("invalid request body: %w", err))
		return
	}

	if req.Deck == nil {
		response.BadRequest(w, errors.New("deck is required"))
		return
	}

	if h.opts.Index != nil {
		indexed, err := h.opts.Index.Count(r.Context())
		if err != nil {
			response.InternalError(w, fmt.Errorf("count indexed cards: %w", err))
			return
		}
		if indexed == 0 {
			response.ServiceUnavailable(w, errors.New("card index is empty, run index-cards first"))
			return
		}
	}

	suggestions := h.engine.Suggest(r.Context(), req.Deck, req.Constraints)
	if suggestions == nil {
		suggestions = []recommendations.Suggestion{}
	}

	response.Success(w, SuggestionResponse{
		Suggestions: suggestions,
		Count:       len(suggestions),
	})
}

// GetStats returns cache statistics, local data counts and pipeline latencies.
// GET /api/v1/stats
func (h *SuggestionHandler) GetStats(w http.ResponseWriter, r *http.Request) {
	inventory, err := h.inventory(r.Context())
	if err != nil {
		response.InternalError(w, err)
		return
	}

	resp := StatsResponse{
		Caches:    h.engine.CacheStats(),
		Inventory: inventory,
	}
	if h.opts.Stats != nil {
		resp.Metrics = h.opts.Stats.GetStats()
	}
	response.Success(w, resp)
}

func (h *SuggestionHandler) inventory(ctx context.Context) (Inventory, error) {
	var inv Inventory
	if h.opts.Index != nil {
		n, err := h.opts.Index.Count(ctx)
		if err != nil {
			return inv, fmt.Errorf("count indexed cards: %w", err)
		}
		inv.IndexedCards = &n
	}
	if h.opts.Cards != nil {
		n, err := h.opts.Cards.GetCardCount(ctx)
		if err != nil {
			return inv, fmt.Errorf("count stored cards: %w", err)
		}
		inv.StoredCards = &n
	}
	if h.opts.Combos != nil {
		n, err := h.opts.Combos.GetComboCount(ctx)
		if err != nil {
			return inv, fmt.Errorf("count combos: %w", err)
		}
		inv.Combos = &n
	}
	return inv, nil
}

// ResetStats clears the pipeline metrics.
// POST /api/v1/stats/reset
func (h *SuggestionHandler) ResetStats(w http.ResponseWriter, _ *http.Request) {
	if h.opts.Stats != nil {
		h.opts.Stats.Reset()
	}
	response.Success(w, map[string]string{"status": "reset"})
}

// ClearCache drops every engine cache.
// POST /api/v1/cache/clear
func (h *SuggestionHandler) ClearCache(w http.ResponseWriter, _ *http.Request) {
	h.engine.ClearCaches()
	response.Success(w, map[string]string{"status": "cleared"})
}

// GetRequestSchema returns the JSON schema of SuggestionRequest.
// GET /api/v1/schema/suggestion-request
func (h *SuggestionHandler) GetRequestSchema(w http.ResponseWriter, _ *http.Request) {
	h.schemaOnce.Do(func() {
		h.schema = SuggestionRequestSchema()
	})
	response.JSON(w, http.StatusOK, h.schema)
}

// SuggestionRequestSchema reflects the request body. Numeric constraints
// accept numbers or numeric strings.
func SuggestionRequestSchema() *jsonschema.Schema {
	rawNumber := reflect.TypeOf(recommendations.RawNumber(""))
	r := &jsonschema.Reflector{
		ExpandedStruct: true,
		Mapper: func(t reflect.Type) *jsonschema.Schema {
			if t != rawNumber {
				return nil
			}
			return &jsonschema.Schema{
				OneOf: []*jsonschema.Schema{
					{Type: "number"},
					{Type: "string", Pattern: `^\$?\s*-?[0-9]+(\.[0-9]+)?$`},
				},
			}
		},
	}
	schema := r.Reflect(&SuggestionRequest{})
	schema.Title = "Deck suggestion request"
	return schema
}
