package main

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/ramonehamilton/mtg-deck-advisor/internal/storage"
)

func newMigrateCmd(a *app) *cobra.Command {
	var down bool
	var steps int

	cmd := &cobra.Command{
		Use:   "migrate",
		Short: "Apply database migrations",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			path := a.dbPath()
			if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
				return fmt.Errorf("create database directory: %w", err)
			}

			version, dirty, err := runMigrations(path, down, steps)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "schema version %d (dirty: %t)\n", version, dirty)
			return nil
		},
	}

	cmd.Flags().BoolVar(&down, "down", false, "roll back every migration")
	cmd.Flags().IntVar(&steps, "steps", 0, "apply n migrations, negative to roll back")

	return cmd
}

// runMigrations applies the requested migrations and reports the resulting version.
func runMigrations(path string, down bool, steps int) (uint, bool, error) {
	if !down && steps == 0 {
		return storage.Migrate(path)
	}

	mgr, err := storage.NewMigrationManager(path)
	if err != nil {
		return 0, false, err
	}
	defer func() { _ = mgr.Close() }()

	if steps != 0 {
		err = mgr.Steps(steps)
	} else {
		err = mgr.Down()
	}
	if err != nil {
		return 0, false, err
	}
	return mgr.Version()
}
