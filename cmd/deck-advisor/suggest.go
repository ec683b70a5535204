package main

import (
	"encoding/json"
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"

	"github.com/ramonehamilton/mtg-deck-advisor/internal/mtg/recommendations"
)

type suggestOptions struct {
	theme      string
	budget     string
	power      string
	banned     []string
	comboTypes []string
	sortBy     string
	comboMode  string
	comboLimit int
	maxResults int
	explain    bool
}

func newSuggestCmd(a *app) *cobra.Command {
	opts := &suggestOptions{}

	cmd := &cobra.Command{
		Use:   "suggest <deck.json|->",
		Short: "Suggest cards and combos for a deck",
		Long: `Suggest cards and combos for a deck read from a JSON file, or stdin with "-".

The deck file holds name, format, commander, cards, sections and metadata
(theme, budget, power, colors). Suggestions are printed as JSON.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			deck, err := readDeck(args[0], cmd.InOrStdin())
			if err != nil {
				return err
			}

			c, err := a.wire(cmd.Context())
			if err != nil {
				return err
			}
			defer func() { _ = c.Close() }()

			suggestions := c.engine.Suggest(cmd.Context(), deck, opts.constraints(a))

			enc := json.NewEncoder(cmd.OutOrStdout())
			enc.SetIndent("", "  ")
			return enc.Encode(suggestions)
		},
	}

	cmd.Flags().StringVar(&opts.theme, "theme", "", "theme override, e.g. control")
	cmd.Flags().StringVar(&opts.budget, "budget", "", "budget override in USD")
	cmd.Flags().StringVar(&opts.power, "power", "", "target power level override")
	cmd.Flags().StringSliceVar(&opts.banned, "ban", nil, "card names never to suggest")
	cmd.Flags().StringSliceVar(&opts.comboTypes, "combo-type", nil, "preferred combo types")
	cmd.Flags().StringVar(&opts.sortBy, "sort", "", "combo order: power, price, popularity or complexity")
	cmd.Flags().StringVar(&opts.comboMode, "mode", "", "combo mode: focused or broad")
	cmd.Flags().IntVar(&opts.comboLimit, "combo-limit", 0, "combos per card in focused mode")
	cmd.Flags().IntVar(&opts.maxResults, "max-results", 0, "candidate pool size")
	cmd.Flags().BoolVar(&opts.explain, "explain", false, "explain combos with the configured LLM")

	return cmd
}

func (o *suggestOptions) constraints(a *app) recommendations.Constraints {
	return recommendations.Constraints{
		Theme:       o.theme,
		Budget:      recommendations.RawNumber(o.budget),
		TargetPower: recommendations.RawNumber(o.power),
		Banned:      o.banned,
		ComboTypes:  o.comboTypes,
		SortBy:      recommendations.SortKey(o.sortBy),
		ComboMode:   recommendations.ComboMode(o.comboMode),
		ComboLimit:  o.comboLimit,
		MaxResults:  o.maxResults,
		Explain:     o.explain || a.cfg.Engine.Explain,
	}
}

func readDeck(path string, stdin io.Reader) (*recommendations.Deck, error) {
	var data []byte
	var err error
	if path == "-" {
		data, err = io.ReadAll(stdin)
	} else {
		data, err = os.ReadFile(path)
	}
	if err != nil {
		return nil, fmt.Errorf("read deck: %w", err)
	}

	var deck recommendations.Deck
	if err := json.Unmarshal(data, &deck); err != nil {
		return nil, fmt.Errorf("parse deck %q: %w", path, err)
	}
	return &deck, nil
}
