package recommendations

import (
	"fmt"
	"sort"
	"strings"

	"github.com/ramonehamilton/mtg-deck-advisor/internal/mtg/cards"
)

// SuggestionAggregator turns a candidate and its ranked combos into a Suggestion.
type SuggestionAggregator struct{}

// NewSuggestionAggregator creates an aggregator.
func NewSuggestionAggregator() *SuggestionAggregator {
	return &SuggestionAggregator{}
}

// Build computes synergy, weaknesses and the reason line for one candidate.
func (a *SuggestionAggregator) Build(c Candidate, ranked []RankedCombo, p *Profile) Suggestion {
	card := c.Card

	synergy := 0
	if cards.SharedColors(p.Colors, card.ColorIdentity) > 0 {
		synergy = 1
	}

	if ranked == nil {
		ranked = []RankedCombo{}
	}

	return Suggestion{
		Name:       card.Name,
		CardID:     card.ID,
		Score:      c.Score,
		Synergy:    synergy,
		Weaknesses: weaknesses(card, p),
		Reason:     reason(card, synergy, ranked, p),
		Combos:     ranked,
	}
}

// weaknesses runs best-effort checks: the oracle text is searched for the
// theme as a plain substring, and the price is compared only when known.
func weaknesses(card *cards.Card, p *Profile) []string {
	out := []string{}
	if p.Theme != "" && !strings.Contains(strings.ToLower(card.OracleText), strings.ToLower(p.Theme)) {
		out = append(out, fmt.Sprintf("Oracle text does not mention the %q theme", p.Theme))
	}
	if p.Budget != nil && card.PriceUSD != nil && *card.PriceUSD > *p.Budget {
		out = append(out, fmt.Sprintf("Price $%.2f exceeds budget $%.2f", *card.PriceUSD, *p.Budget))
	}
	return out
}

func reason(card *cards.Card, synergy int, ranked []RankedCombo, p *Profile) string {
	var parts []string

	if synergy > 0 {
		parts = append(parts, "Fits the deck's colors")
	} else if len(p.Colors) > 0 {
		parts = append(parts, "Relevant to the deck but off-color")
	} else {
		parts = append(parts, "Relevant to the deck's needs")
	}

	if p.Theme != "" && strings.Contains(strings.ToLower(card.OracleText), strings.ToLower(p.Theme)) {
		parts = append(parts, fmt.Sprintf("supports the %s theme", p.Theme))
	}

	switch len(ranked) {
	case 0:
	case 1:
		parts = append(parts, "enables 1 combo: "+comboLabel(ranked[0]))
	default:
		parts = append(parts, fmt.Sprintf("enables %d combos, best: %s", len(ranked), comboLabel(ranked[0])))
	}

	return strings.Join(parts, "; ")
}

func comboLabel(rc RankedCombo) string {
	if len(rc.Combo.CardNames) > 0 {
		return strings.Join(rc.Combo.CardNames, " + ")
	}
	return rc.Combo.ID
}

// SortSuggestions orders by synergy, then retrieval score, then combo count,
// all descending. Remaining ties keep their current order.
func SortSuggestions(list []Suggestion) {
	sort.SliceStable(list, func(i, j int) bool {
		if list[i].Synergy != list[j].Synergy {
			return list[i].Synergy > list[j].Synergy
		}
		if list[i].Score != list[j].Score {
			return list[i].Score > list[j].Score
		}
		return len(list[i].Combos) > len(list[j].Combos)
	})
}
