package recommendations

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
)

// comboExplainer calls the Explainer at most once per combo id within a run.
type comboExplainer struct {
	explainer Explainer
	logger    *slog.Logger
	seen      map[string]string
}

func newComboExplainer(explainer Explainer, logger *slog.Logger) *comboExplainer {
	return &comboExplainer{
		explainer: explainer,
		logger:    logger,
		seen:      make(map[string]string),
	}
}

// annotate fills Explanation on each ranked combo. Failures leave it empty.
func (e *comboExplainer) annotate(ctx context.Context, ranked []RankedCombo, p *Profile) {
	for i := range ranked {
		id := ranked[i].Combo.ID
		text, done := e.seen[id]
		if !done {
			var err error
			text, err = e.explainer.Generate(ctx, explanationPrompt(&ranked[i], p))
			if err != nil {
				e.logger.Warn("combo explanation failed",
					slog.String("stage", stageRank),
					slog.String("combo_id", id),
					slog.Any("error", err))
				text = ""
			}
			e.seen[id] = strings.TrimSpace(text)
		}
		ranked[i].Explanation = e.seen[id]
	}
}

func explanationPrompt(rc *RankedCombo, p *Profile) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Explain in two or three sentences how the Magic: The Gathering combo %s works",
		strings.Join(rc.Combo.CardNames, " + "))
	if len(rc.Combo.ComboTypes) > 0 {
		fmt.Fprintf(&b, " (%s)", strings.Join(rc.Combo.ComboTypes, ", "))
	}
	b.WriteString(".")
	if rc.Combo.Description != "" {
		fmt.Fprintf(&b, " Known effect: %s.", strings.TrimSuffix(rc.Combo.Description, "."))
	}
	if p.Format != "" || p.Commander != "" || p.Theme != "" {
		b.WriteString(" The deck")
		if p.Format != "" {
			fmt.Fprintf(&b, " plays %s", p.Format)
		}
		if p.Commander != "" {
			fmt.Fprintf(&b, " with %s as commander", p.Commander)
		}
		if p.Theme != "" {
			fmt.Fprintf(&b, " and a %s theme", p.Theme)
		}
		b.WriteString(".")
	}
	b.WriteString(" Mention how to protect the combo from its weaknesses.")
	return b.String()
}
