package main

import (
	"fmt"
	"io"
	"log/slog"
	"os"

	"github.com/spf13/cobra"

	"github.com/ramonehamilton/mtg-deck-advisor/internal/config"
)

// globalOptions are the persistent flags shared by every subcommand.
type globalOptions struct {
	configPath string
	dbPath     string
	logLevel   string
	offline    bool
}

func newRootCmd() *cobra.Command {
	opts := &globalOptions{}
	a := &app{opts: opts}

	rootCmd := &cobra.Command{
		Use:           "deck-advisor",
		Short:         "Card and combo suggestions for Magic: The Gathering decks",
		Version:       Version,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			return a.setup(cmd.ErrOrStderr())
		},
	}

	rootCmd.PersistentFlags().StringVar(&opts.configPath, "config", "", "config file (default ~/.mtg-deck-advisor/config.toml)")
	rootCmd.PersistentFlags().StringVar(&opts.dbPath, "db", "", "database path, overrides the config file")
	rootCmd.PersistentFlags().StringVar(&opts.logLevel, "log-level", "", "log level (debug, info, warn, error)")
	rootCmd.PersistentFlags().BoolVar(&opts.offline, "offline", false, "never call the Scryfall API")

	rootCmd.AddCommand(newServeCmd(a))
	rootCmd.AddCommand(newSuggestCmd(a))
	rootCmd.AddCommand(newMigrateCmd(a))
	rootCmd.AddCommand(newImportCombosCmd(a))
	rootCmd.AddCommand(newIndexCardsCmd(a))

	return rootCmd
}

// setup loads the configuration, applies flag overrides and installs the logger.
func (a *app) setup(stderr io.Writer) error {
	path := a.opts.configPath
	if path == "" {
		var err error
		if path, err = config.DefaultPath(); err != nil {
			return err
		}
	}

	cfg, err := config.LoadFrom(path)
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}
	if a.opts.dbPath != "" {
		cfg.Database.Path = a.opts.dbPath
	}
	if a.opts.logLevel != "" {
		cfg.Log.Level = a.opts.logLevel
	}
	if a.opts.offline {
		cfg.Scryfall.Enabled = false
	}
	if err := cfg.Validate(); err != nil {
		return err
	}

	logger, err := newLogger(cfg, stderr)
	if err != nil {
		return err
	}
	slog.SetDefault(logger)

	a.cfg = cfg
	a.configPath = path
	a.logger = logger
	return nil
}

func newLogger(cfg *config.Config, w io.Writer) (*slog.Logger, error) {
	level, err := cfg.SlogLevel()
	if err != nil {
		return nil, err
	}
	if w == nil {
		w = os.Stderr
	}

	handlerOpts := &slog.HandlerOptions{Level: level}
	if cfg.Log.Format == "json" {
		return slog.New(slog.NewJSONHandler(w, handlerOpts)), nil
	}
	return slog.New(slog.NewTextHandler(w, handlerOpts)), nil
}
