package recommendations

import (
	"strconv"
	"strings"
)

const queryPrefix = "Magic: The Gathering cards that strengthen this deck"

// BuildQuery renders the free-text description sent to semantic search.
func BuildQuery(p *Profile) string {
	var b strings.Builder
	b.WriteString(queryPrefix)

	if p.Theme != "" {
		b.WriteString(" with a ")
		b.WriteString(p.Theme)
		b.WriteString(" theme")
	}
	if p.Format != "" {
		b.WriteString(" legal in ")
		b.WriteString(p.Format)
	}
	if p.TargetPower != nil {
		b.WriteString(" at power level ")
		b.WriteString(strconv.FormatFloat(*p.TargetPower, 'f', -1, 64))
	}
	if p.Budget != nil {
		b.WriteString(" under a budget of $")
		b.WriteString(strconv.FormatFloat(*p.Budget, 'f', 2, 64))
	}

	return b.String()
}
