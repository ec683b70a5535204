// Package recommendations proposes cards for an existing deck, cross-references
// them against the combo knowledge base and ranks the results.
package recommendations

import (
	"bytes"
	"encoding/json"
	"strconv"
	"strings"

	"github.com/ramonehamilton/mtg-deck-advisor/internal/mtg/cards"
	"github.com/ramonehamilton/mtg-deck-advisor/internal/mtg/combos"
)

// SortKey selects how combos are ordered for a suggestion.
type SortKey string

const (
	SortByPower      SortKey = "power"
	SortByPrice      SortKey = "price"
	SortByPopularity SortKey = "popularity"
	SortByComplexity SortKey = "complexity"
)

// ComboMode selects how many combos are shown per suggested card.
type ComboMode string

const (
	// ComboModeFocused caps the combo list at the configured limit.
	ComboModeFocused ComboMode = "focused"
	// ComboModeBroad keeps the full deduplicated list.
	ComboModeBroad ComboMode = "broad"
)

// RawNumber is a numeric constraint as supplied by the caller. It accepts JSON
// numbers and strings and is parsed lazily, so malformed input can be reported
// and skipped instead of rejecting the whole request.
type RawNumber string

// UnmarshalJSON accepts both `50` and `"50"`.
func (n *RawNumber) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if bytes.Equal(data, []byte("null")) {
		*n = ""
		return nil
	}
	if len(data) > 0 && data[0] == '"' {
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return err
		}
		*n = RawNumber(s)
		return nil
	}
	*n = RawNumber(data)
	return nil
}

// Float parses the value. ok is false when the value is empty; err is set when
// it is present but not a number.
func (n RawNumber) Float() (value float64, ok bool, err error) {
	s := strings.TrimSpace(strings.TrimPrefix(strings.TrimSpace(string(n)), "$"))
	if s == "" {
		return 0, false, nil
	}
	v, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return 0, false, err
	}
	return v, true, nil
}

// DeckMetadata carries free-form thematic information recorded with a deck.
type DeckMetadata struct {
	Theme  string    `json:"theme,omitempty"`
	Budget RawNumber `json:"budget,omitempty"`
	Power  RawNumber `json:"power,omitempty"`
	Colors []string  `json:"colors,omitempty"`
}

// Deck is the player's current deck. Card names may repeat for multiples.
type Deck struct {
	Name      string              `json:"name,omitempty"`
	Format    string              `json:"format,omitempty"`
	Cards     []string            `json:"cards"`
	Sections  map[string][]string `json:"sections,omitempty"`
	Commander string              `json:"commander,omitempty"`
	Metadata  DeckMetadata        `json:"metadata"`
}

// Constraints are the caller's soft preferences for a suggestion request.
// Theme, Budget and TargetPower override the deck metadata when set.
type Constraints struct {
	Theme       string    `json:"theme,omitempty"`
	Budget      RawNumber `json:"budget,omitempty"`
	TargetPower RawNumber `json:"target_power,omitempty"`
	Banned      []string  `json:"banned,omitempty"`
	Excluded    []string  `json:"excluded,omitempty"`
	ComboTypes  []string  `json:"combo_types,omitempty"`
	SortBy      SortKey   `json:"sort_by,omitempty"`
	ComboMode   ComboMode `json:"combo_mode,omitempty"`
	ComboLimit  int       `json:"combo_limit,omitempty"`
	MaxResults  int       `json:"max_results,omitempty"`
	Explain     bool      `json:"explain,omitempty"`
}

// SearchHit is one result from the semantic-search collaborator. Higher scores
// are more relevant.
type SearchHit struct {
	ID       string         `json:"id"`
	Score    float64        `json:"score"`
	Metadata map[string]any `json:"metadata,omitempty"`
}

// Candidate is a card proposed by retrieval that has not yet become a suggestion.
type Candidate struct {
	Card  *cards.Card
	Score float64
}

// RankedCombo pairs a combo with the score it earned in this run.
type RankedCombo struct {
	Combo       combos.Combo `json:"combo"`
	Score       float64      `json:"score"`
	Explanation string       `json:"explanation,omitempty"`
}

// Suggestion is a card proposed for the deck.
type Suggestion struct {
	Name       string        `json:"name"`
	CardID     string        `json:"card_id"`
	Score      float64       `json:"score"`
	Synergy    int           `json:"synergy"`
	Weaknesses []string      `json:"weaknesses"`
	Reason     string        `json:"reason"`
	Combos     []RankedCombo `json:"combos"`
}

func cloneSuggestions(in []Suggestion) []Suggestion {
	out := make([]Suggestion, len(in))
	for i, s := range in {
		s.Weaknesses = append(make([]string, 0, len(s.Weaknesses)), s.Weaknesses...)
		s.Combos = append(make([]RankedCombo, 0, len(s.Combos)), s.Combos...)
		out[i] = s
	}
	return out
}
