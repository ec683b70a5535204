package storage

import (
	"path/filepath"
	"testing"
)

func TestMigrationManager_Up(t *testing.T) {
	dbPath := filepath.Join(t.TempDir(), "migration-test.db")

	mgr, err := NewMigrationManager(dbPath)
	if err != nil {
		t.Fatalf("Failed to create migration manager: %v", err)
	}
	if err := mgr.Up(); err != nil {
		t.Fatalf("Failed to run migrations: %v", err)
	}
	// A second Up is a no-op.
	if err := mgr.Up(); err != nil {
		t.Fatalf("Second Up failed: %v", err)
	}

	version, dirty, err := mgr.Version()
	if err != nil {
		t.Fatalf("Failed to get migration version: %v", err)
	}
	if dirty {
		t.Error("Database is in dirty state after migrations")
	}
	if version != 3 {
		t.Errorf("Expected migration version 3, got %d", version)
	}

	if err := mgr.Down(); err != nil {
		t.Fatalf("Failed to roll back migrations: %v", err)
	}
	if err := mgr.Close(); err != nil {
		t.Fatalf("Failed to close migration manager: %v", err)
	}
}

func TestMigrate_CreatesTables(t *testing.T) {
	dbPath := filepath.Join(t.TempDir(), "tables-test.db")

	version, _, err := Migrate(dbPath)
	if err != nil {
		t.Fatalf("Migrate failed: %v", err)
	}
	if version != 3 {
		t.Errorf("Expected version 3, got %d", version)
	}

	db, err := Open(DefaultConfig(dbPath))
	if err != nil {
		t.Fatalf("failed to open database: %v", err)
	}
	defer db.Close()

	for _, table := range []string{"cards", "combos", "combo_cards", "card_embeddings"} {
		var name string
		err := db.Conn().QueryRow("SELECT name FROM sqlite_master WHERE type='table' AND name=?", table).Scan(&name)
		if err != nil {
			t.Errorf("table %s not found: %v", table, err)
		}
	}
}

func TestDatabaseURL(t *testing.T) {
	if got := databaseURL("/tmp/advisor.db"); got != "sqlite:///tmp/advisor.db" {
		t.Errorf("unexpected url %q", got)
	}
	if got := databaseURL("advisor.db"); got != "sqlite://advisor.db" {
		t.Errorf("unexpected url %q", got)
	}
}
