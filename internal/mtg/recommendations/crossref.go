package recommendations

import (
	"context"
	"log/slog"

	"github.com/ramonehamilton/mtg-deck-advisor/internal/mtg/combos"
)

// PairCard is one side of a pair lookup.
type PairCard struct {
	Name string
	ID   string
}

// ComboCrossReferencer looks up combos for every unordered pair formed by a
// candidate and the other cards in play.
type ComboCrossReferencer struct {
	store  ComboStore
	cache  *PairCache
	logger *slog.Logger
}

// NewComboCrossReferencer creates a cross-referencer. A nil cache disables caching.
func NewComboCrossReferencer(store ComboStore, cache *PairCache, logger *slog.Logger) *ComboCrossReferencer {
	if logger == nil {
		logger = slog.Default()
	}
	return &ComboCrossReferencer{
		store:  store,
		cache:  cache,
		logger: logger,
	}
}

// FindCombos returns the combos linking candidate with any card in others,
// deduplicated by id. Combos that reference banned or excluded cards are
// dropped. complete is false when at least one pair lookup failed; failed pairs
// contribute no combos and are not cached.
func (x *ComboCrossReferencer) FindCombos(ctx context.Context, candidate PairCard, others []PairCard, p *Profile) (found []combos.Combo, complete bool) {
	complete = true
	dedup := newComboSet()

	for _, other := range others {
		key := NewPairKey(candidate.Name, other.Name)
		if key.A == key.B || other.ID == "" || candidate.ID == "" {
			continue
		}

		list, ok := x.lookupPair(ctx, candidate, other, p)
		if !ok {
			complete = false
			continue
		}

		for _, c := range list {
			if c.ReferencesAny(p.Excluded) {
				continue
			}
			dedup.put(c)
		}
	}

	return dedup.list(), complete
}

// lookupPair answers one pair from the cache or the combo store.
func (x *ComboCrossReferencer) lookupPair(ctx context.Context, candidate, other PairCard, p *Profile) ([]combos.Combo, bool) {
	if x.cache != nil {
		if cached, ok := x.cache.Get(candidate.Name, other.Name); ok {
			return cached, true
		}
	}

	list, err := x.store.Search(ctx, buildComboQuery(candidate.ID, other.ID, p))
	if err != nil {
		x.logger.Warn("combo lookup failed",
			slog.String("stage", stageCrossReference),
			slog.String("card", candidate.Name),
			slog.String("other", other.Name),
			slog.Any("error", err))
		return nil, false
	}
	if list == nil {
		list = []combos.Combo{}
	}

	if x.cache != nil {
		x.cache.Set(candidate.Name, other.Name, list)
	}
	return list, true
}

// buildComboQuery attaches only the filters the profile actually sets.
func buildComboQuery(candidateID, otherID string, p *Profile) combos.Query {
	q := combos.Query{CardIDs: []string{candidateID, otherID}}
	if p.Theme != "" {
		q.Tags = []string{p.Theme}
	}
	if p.Format != "" {
		q.LegalFormats = []string{p.Format}
	}
	if p.Budget != nil {
		budget := *p.Budget
		q.MaxPrice = &budget
	}
	if len(p.Colors) > 0 {
		q.Colors = append([]string(nil), p.Colors...)
	}
	if len(p.ComboTypes) > 0 {
		q.ComboTypes = append([]string(nil), p.ComboTypes...)
	}
	return q
}

// comboSet deduplicates combos by id. A later combo replaces an earlier one
// with the same id but keeps the position where the id was first seen.
type comboSet struct {
	order []string
	byID  map[string]combos.Combo
}

func newComboSet() *comboSet {
	return &comboSet{byID: make(map[string]combos.Combo)}
}

func (s *comboSet) put(c combos.Combo) {
	if _, seen := s.byID[c.ID]; !seen {
		s.order = append(s.order, c.ID)
	}
	s.byID[c.ID] = c
}

func (s *comboSet) list() []combos.Combo {
	out := make([]combos.Combo, 0, len(s.order))
	for _, id := range s.order {
		out = append(out, s.byID[id])
	}
	return out
}
