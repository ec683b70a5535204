package repository

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/ramonehamilton/mtg-deck-advisor/internal/storage"
)

// setupTestDB opens a migrated database in a temporary directory.
func setupTestDB(t *testing.T) *storage.DB {
	t.Helper()

	config := storage.DefaultConfig(filepath.Join(t.TempDir(), "test.db"))
	config.AutoMigrate = true

	db, err := storage.Open(config)
	require.NoError(t, err, "failed to open test database")
	t.Cleanup(func() {
		if err := db.Close(); err != nil {
			t.Errorf("Error closing database: %v", err)
		}
	})
	return db
}

func float(v float64) *float64 { return &v }
