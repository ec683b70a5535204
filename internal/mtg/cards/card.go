// Package cards defines the card model shared by lookup, indexing and suggestion code.
package cards

import (
	"strconv"
	"strings"
	"time"
)

// Card represents the metadata about a Magic card that the advisor needs.
type Card struct {
	// Scryfall identifier (primary identifier)
	ID       string `json:"id"`
	OracleID string `json:"oracle_id,omitempty"`

	// Basic card information
	Name     string  `json:"name"`
	TypeLine string  `json:"type_line"`
	ManaCost string  `json:"mana_cost,omitempty"`
	CMC      float64 `json:"cmc"`
	Rarity   string  `json:"rarity,omitempty"`

	// Colors and identity
	Colors        []string `json:"colors,omitempty"`
	ColorIdentity []string `json:"color_identity"`

	// Power/Toughness (for creatures)
	Power     string `json:"power,omitempty"`
	Toughness string `json:"toughness,omitempty"`

	OracleText string `json:"oracle_text,omitempty"`

	// Format -> "legal", "not_legal", "banned", "restricted"
	Legalities map[string]string `json:"legalities,omitempty"`

	// PriceUSD is nil when no price is known.
	PriceUSD *float64 `json:"price_usd,omitempty"`

	LastUpdated time.Time `json:"last_updated"`
}

// IsLegalIn reports whether the card is legal in the given format.
// Unknown legality is treated as legal.
func (c *Card) IsLegalIn(format string) bool {
	if format == "" || len(c.Legalities) == 0 {
		return true
	}
	status, ok := c.Legalities[strings.ToLower(format)]
	if !ok {
		return true
	}
	return status == "legal" || status == "restricted"
}

// ParsePrice converts a decimal price string into a pointer, returning nil for
// empty or malformed input.
func ParsePrice(s *string) *float64 {
	if s == nil || *s == "" {
		return nil
	}
	v, err := strconv.ParseFloat(*s, 64)
	if err != nil {
		return nil
	}
	return &v
}

// NormalizeName returns the comparison form of a card name.
func NormalizeName(name string) string {
	return strings.ToLower(strings.TrimSpace(name))
}

// NormalizeColors upper-cases color symbols, dropping blanks and duplicates
// while preserving order.
func NormalizeColors(colors []string) []string {
	seen := make(map[string]bool, len(colors))
	out := make([]string, 0, len(colors))
	for _, c := range colors {
		c = strings.ToUpper(strings.TrimSpace(c))
		if c == "" || seen[c] {
			continue
		}
		seen[c] = true
		out = append(out, c)
	}
	return out
}

// SharedColors returns the number of colors present in both sets.
func SharedColors(a, b []string) int {
	set := make(map[string]bool, len(a))
	for _, c := range NormalizeColors(a) {
		set[c] = true
	}
	shared := 0
	for _, c := range NormalizeColors(b) {
		if set[c] {
			shared++
		}
	}
	return shared
}
