package recommendations

import (
	"context"

	"github.com/ramonehamilton/mtg-deck-advisor/internal/mtg/cards"
	"github.com/ramonehamilton/mtg-deck-advisor/internal/mtg/combos"
)

// SemanticSearcher finds cards relevant to a free-text description.
// An empty result is not an error.
type SemanticSearcher interface {
	Search(ctx context.Context, text string, limit int, filters map[string]string) ([]SearchHit, error)
}

// CardLookup resolves cards by name or id. A nil card with a nil error means
// the card is unknown.
type CardLookup interface {
	GetCardByName(ctx context.Context, name string) (*cards.Card, error)
	GetCardByID(ctx context.Context, id string, fetchIfMissing bool) (*cards.Card, error)
}

// ComboStore answers structured combo queries.
type ComboStore interface {
	Search(ctx context.Context, query combos.Query) ([]combos.Combo, error)
}

// Explainer generates free text for a prompt.
type Explainer interface {
	Generate(ctx context.Context, prompt string) (string, error)
}

// StageObserver receives the duration of each pipeline stage.
type StageObserver interface {
	ObserveStage(stage string, seconds float64)
}
