package main

import (
	"context"
	"fmt"
	"log/slog"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"github.com/ramonehamilton/mtg-deck-advisor/internal/api"
	"github.com/ramonehamilton/mtg-deck-advisor/internal/config"
)

func newServeCmd(a *app) *cobra.Command {
	var port int
	var watch bool

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Start the HTTP API",
		Long: `Start the HTTP API.

Examples:
  deck-advisor serve
  deck-advisor serve --port 9000 --watch=false`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
			defer stop()
			if port > 0 {
				a.cfg.Server.Port = port
			}
			return a.serve(ctx, watch)
		},
	}

	cmd.Flags().IntVar(&port, "port", 0, "port to listen on, overrides the config file")
	cmd.Flags().BoolVar(&watch, "watch", true, "reload engine settings when the config file changes")

	return cmd
}

// serve runs the API server and, optionally, the config watcher until ctx is
// done or either of them fails.
func (a *app) serve(ctx context.Context, watch bool) error {
	c, err := a.wire(ctx)
	if err != nil {
		return err
	}
	defer func() { _ = c.Close() }()

	server := api.NewServer(&api.Config{
		Port:           a.cfg.Server.Port,
		AllowedOrigins: a.cfg.Server.AllowedOrigins,
		Logger:         a.logger,
	}, api.Services{
		Engine:  c.engine,
		Combos:  c.combos,
		Cards:   c.cards,
		Index:   c.embeddings,
		Metrics: c.metrics,
	})

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		return server.ListenAndServe(gctx)
	})
	if watch {
		g.Go(func() error {
			err := config.Watch(gctx, a.configPath, func(cfg *config.Config) {
				c.engine.Reconfigure(engineConfig(cfg))
			}, config.WatchOptions{Logger: a.logger})
			if err != nil {
				// The API keeps serving with the settings it started with.
				a.logger.Warn("config hot reload disabled", slog.String("error", err.Error()))
			}
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return fmt.Errorf("serve: %w", err)
	}
	return nil
}
