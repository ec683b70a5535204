package main

import (
	"bufio"
	"context"
	"fmt"
	"log/slog"
	"os"
	"strings"
	"sync/atomic"

	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"
)

func newIndexCardsCmd(a *app) *cobra.Command {
	var namesFile string
	var workers int

	cmd := &cobra.Command{
		Use:   "index-cards",
		Short: "Build search embeddings for stored cards",
		Long: `Build search embeddings for every card in the local store.

With --names, the listed cards (one name per line) are looked up first, which
fetches them from Scryfall when they are not stored yet.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx := cmd.Context()
			c, err := a.wire(ctx)
			if err != nil {
				return err
			}
			defer func() { _ = c.Close() }()

			if namesFile != "" {
				names, err := readNames(namesFile)
				if err != nil {
					return err
				}
				found, err := a.fetchCards(ctx, c, names, workers)
				if err != nil {
					return err
				}
				a.logger.Info("cards looked up", slog.Int("requested", len(names)), slog.Int("found", found))
			}

			list, err := c.cards.ListCards(ctx)
			if err != nil {
				return err
			}
			indexed, err := c.embeddings.IndexCards(ctx, list)
			if err != nil {
				return err
			}

			fmt.Fprintf(cmd.OutOrStdout(), "indexed %d of %d cards\n", indexed, len(list))
			return nil
		},
	}

	cmd.Flags().StringVar(&namesFile, "names", "", "file of card names to look up before indexing")
	cmd.Flags().IntVar(&workers, "workers", 4, "concurrent card lookups")

	return cmd
}

// fetchCards resolves names concurrently. Unknown cards are logged and
// skipped; lookup errors stop the run.
func (a *app) fetchCards(ctx context.Context, c *components, names []string, workers int) (int, error) {
	var found atomic.Int64

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(max(workers, 1))
	for _, name := range names {
		g.Go(func() error {
			card, err := c.lookup.GetCardByName(gctx, name)
			if err != nil {
				return fmt.Errorf("look up %q: %w", name, err)
			}
			if card == nil {
				a.logger.Warn("card not found", slog.String("card", name))
				return nil
			}
			found.Add(1)
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return int(found.Load()), err
	}
	return int(found.Load()), nil
}

func readNames(path string) ([]string, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open names file: %w", err)
	}
	defer func() { _ = f.Close() }()

	var names []string
	scanner := bufio.NewScanner(f)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		names = append(names, line)
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("read names file: %w", err)
	}
	return names, nil
}
