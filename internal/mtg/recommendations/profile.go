package recommendations

import (
	"log/slog"
	"strings"

	"github.com/ramonehamilton/mtg-deck-advisor/internal/mtg/cards"
)

// Profile is a deck and its constraints resolved into the values the ranking
// and filtering stages read. Budget and TargetPower are nil when absent or
// unparseable.
type Profile struct {
	Theme       string
	Format      string
	Commander   string
	Colors      []string
	Budget      *float64
	TargetPower *float64
	ComboTypes  []string

	// Normalized names of cards already in the deck, including the commander.
	InDeck map[string]bool
	// Normalized names of banned or excluded cards.
	Excluded map[string]bool
}

// NewProfile resolves deck metadata and constraints. Constraint values take
// precedence over deck metadata. Unparseable numbers are logged and skipped.
func NewProfile(deck *Deck, c Constraints, logger *slog.Logger) *Profile {
	if logger == nil {
		logger = slog.Default()
	}
	if deck == nil {
		deck = &Deck{}
	}

	p := &Profile{
		Theme:      strings.TrimSpace(firstNonEmpty(c.Theme, deck.Metadata.Theme)),
		Format:     strings.ToLower(strings.TrimSpace(deck.Format)),
		Commander:  strings.TrimSpace(deck.Commander),
		Colors:     cards.NormalizeColors(deck.Metadata.Colors),
		ComboTypes: nonBlank(c.ComboTypes),
		InDeck:     make(map[string]bool, len(deck.Cards)+1),
		Excluded:   make(map[string]bool, len(c.Banned)+len(c.Excluded)),
	}

	budget := c.Budget
	if budget == "" {
		budget = deck.Metadata.Budget
	}
	p.Budget = parseConstraint(logger, "budget", budget)

	power := c.TargetPower
	if power == "" {
		power = deck.Metadata.Power
	}
	p.TargetPower = parseConstraint(logger, "target_power", power)

	for _, name := range deck.Cards {
		if n := cards.NormalizeName(name); n != "" {
			p.InDeck[n] = true
		}
	}
	for _, section := range deck.Sections {
		for _, name := range section {
			if n := cards.NormalizeName(name); n != "" {
				p.InDeck[n] = true
			}
		}
	}
	if p.Commander != "" {
		p.InDeck[cards.NormalizeName(p.Commander)] = true
	}
	for _, list := range [][]string{c.Banned, c.Excluded} {
		for _, name := range list {
			if n := cards.NormalizeName(name); n != "" {
				p.Excluded[n] = true
			}
		}
	}

	return p
}

// Blocks reports whether a card may not be suggested: it is already in the
// deck, is the commander, or is banned/excluded.
func (p *Profile) Blocks(name string) bool {
	n := cards.NormalizeName(name)
	return p.InDeck[n] || p.Excluded[n]
}

func parseConstraint(logger *slog.Logger, field string, raw RawNumber) *float64 {
	v, ok, err := raw.Float()
	if err != nil {
		logger.Warn("ignoring invalid constraint",
			slog.String("field", field),
			slog.String("value", string(raw)),
			slog.Any("error", err))
		return nil
	}
	if !ok {
		return nil
	}
	return &v
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if strings.TrimSpace(v) != "" {
			return v
		}
	}
	return ""
}

func nonBlank(values []string) []string {
	var out []string
	for _, v := range values {
		if v = strings.TrimSpace(v); v != "" {
			out = append(out, v)
		}
	}
	return out
}
