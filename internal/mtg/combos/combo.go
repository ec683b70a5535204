// Package combos defines the combo knowledge-base model and its query shape.
package combos

import (
	"strings"

	"github.com/ramonehamilton/mtg-deck-advisor/internal/mtg/cards"
)

// Complexity describes how hard a combo is to execute.
type Complexity string

const (
	ComplexityLow    Complexity = "low"
	ComplexityMedium Complexity = "medium"
	ComplexityHigh   Complexity = "high"
)

// Viability is the competitive-viability tier of a combo.
type Viability string

const (
	ViabilityCasual Viability = "casual"
	ViabilityFringe Viability = "fringe"
	ViabilityTier2  Viability = "tier2"
	ViabilityTier1  Viability = "tier1"
)

// Tier maps the viability onto the 1-4 power scale. Unknown tiers return 0.
func (v Viability) Tier() int {
	switch Viability(strings.ToLower(string(v))) {
	case ViabilityCasual:
		return 1
	case ViabilityFringe:
		return 2
	case ViabilityTier2:
		return 3
	case ViabilityTier1:
		return 4
	default:
		return 0
	}
}

// Combo is a documented set of cards whose joint effect is recorded in the
// knowledge base, independent of any deck.
type Combo struct {
	ID              string     `json:"id" yaml:"id"`
	CardIDs         []string   `json:"card_ids" yaml:"card_ids"`
	CardNames       []string   `json:"card_names" yaml:"card_names"`
	ComboTypes      []string   `json:"combo_types,omitempty" yaml:"combo_types"`
	Tags            []string   `json:"tags,omitempty" yaml:"tags"`
	Colors          []string   `json:"colors,omitempty" yaml:"colors"`
	TotalPriceUSD   *float64   `json:"total_price_usd,omitempty" yaml:"total_price_usd"`
	CardCount       int        `json:"card_count" yaml:"card_count"`
	Complexity      Complexity `json:"complexity,omitempty" yaml:"complexity"`
	PopularityScore *float64   `json:"popularity_score,omitempty" yaml:"popularity_score"`
	Viability       Viability  `json:"competitive_viability,omitempty" yaml:"competitive_viability"`
	Weaknesses      []string   `json:"weaknesses,omitempty" yaml:"weaknesses"`
	Description     string     `json:"description,omitempty" yaml:"description"`
	LegalFormats    []string   `json:"legal_formats,omitempty" yaml:"legal_formats"`
}

// Size returns the number of pieces needed to assemble the combo.
func (c *Combo) Size() int {
	if c.CardCount > 0 {
		return c.CardCount
	}
	if len(c.CardNames) > len(c.CardIDs) {
		return len(c.CardNames)
	}
	return len(c.CardIDs)
}

// HasCard reports whether a card with the given name is a member of the combo.
func (c *Combo) HasCard(name string) bool {
	target := cards.NormalizeName(name)
	if target == "" {
		return false
	}
	for _, n := range c.CardNames {
		if cards.NormalizeName(n) == target {
			return true
		}
	}
	return false
}

// ReferencesAny reports whether any member card name is in the given set of
// normalized names.
func (c *Combo) ReferencesAny(normalized map[string]bool) bool {
	if len(normalized) == 0 {
		return false
	}
	for _, n := range c.CardNames {
		if normalized[cards.NormalizeName(n)] {
			return true
		}
	}
	return false
}

// IsInfinite reports whether any combo type belongs to the infinite family
// (infinite_mana, infinite_damage, ...).
func (c *Combo) IsInfinite() bool {
	for _, t := range c.ComboTypes {
		if strings.HasPrefix(strings.ToLower(strings.TrimSpace(t)), "infinite") {
			return true
		}
	}
	return false
}

// Query is a structured combo-store lookup. Every field is optional; empty
// fields apply no filter.
type Query struct {
	CardIDs      []string `json:"card_ids,omitempty"`
	Tags         []string `json:"tags,omitempty"`
	LegalFormats []string `json:"legal_formats,omitempty"`
	MaxPrice     *float64 `json:"max_price,omitempty"`
	Colors       []string `json:"colors,omitempty"`
	ComboTypes   []string `json:"combo_types,omitempty"`
	Limit        int      `json:"limit,omitempty"`
}
