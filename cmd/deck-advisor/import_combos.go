package main

import (
	"fmt"
	"log/slog"
	"strings"

	"github.com/spf13/cobra"

	"github.com/ramonehamilton/mtg-deck-advisor/internal/mtg/combos"
)

func newImportCombosCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "import-combos <file.json|file.yaml>...",
		Short: "Import combos into the knowledge base",
		Long: `Import combos from JSON or YAML files. Combos without an id get one.
Card ids missing from a combo are resolved by card name through the local
card store and, unless --offline is set, Scryfall.`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			c, err := a.wire(ctx)
			if err != nil {
				return err
			}
			defer func() { _ = c.Close() }()

			total := 0
			for _, path := range args {
				list, err := combos.LoadFile(path)
				if err != nil {
					return err
				}

				for i := range list {
					missing, err := combos.ResolveCardIDs(ctx, c.lookup, &list[i])
					if err != nil {
						return fmt.Errorf("combo %s: %w", list[i].ID, err)
					}
					if len(missing) > 0 {
						a.logger.Warn("combo has unresolved cards",
							slog.String("combo", list[i].ID),
							slog.String("cards", strings.Join(missing, ", ")))
					}
				}

				n, err := combos.Import(ctx, c.combos, list)
				total += n
				if err != nil {
					return err
				}
				a.logger.Info("imported combos", slog.String("file", path), slog.Int("count", n))
			}

			count, err := c.combos.GetComboCount(ctx)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "imported %d combos, %d stored\n", total, count)
			return nil
		},
	}
}
