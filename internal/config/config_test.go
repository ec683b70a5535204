package config

import (
	"log/slog"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefaultConfigIsValid(t *testing.T) {
	cfg := DefaultConfig()

	require.NoError(t, cfg.Validate())
	assert.Equal(t, 20, cfg.Engine.CandidatePoolSize)
	assert.Equal(t, "focused", cfg.Engine.ComboMode)
	assert.Equal(t, 3, cfg.Engine.ComboLimit)
	assert.Equal(t, "power", cfg.Engine.SortBy)
	assert.Equal(t, "none", cfg.LLM.Provider)
	assert.Equal(t, 5*time.Second, cfg.BusyTimeout())
	assert.Equal(t, 168*time.Hour, cfg.ScryfallStaleAfter())
	assert.Equal(t, time.Minute, cfg.LLMTimeout())
}

func TestLoadFromMissingFileReturnsDefaults(t *testing.T) {
	cfg, err := LoadFrom(filepath.Join(t.TempDir(), "nope.toml"))
	require.NoError(t, err)

	if diff := cmp.Diff(DefaultConfig(), cfg); diff != "" {
		t.Errorf("config mismatch (-want +got):\n%s", diff)
	}
}

func TestLoadFromMergesOverDefaults(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.toml")
	content := `
[engine]
combo_mode = "broad"
sort_by = "price"

[llm]
provider = "ollama"
model = "llama3"

[server]
allowed_origins = ["http://localhost:3000"]
`
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))

	cfg, err := LoadFrom(path)
	require.NoError(t, err)

	assert.Equal(t, "broad", cfg.Engine.ComboMode)
	assert.Equal(t, "price", cfg.Engine.SortBy)
	assert.Equal(t, 20, cfg.Engine.CandidatePoolSize, "unset keys keep defaults")
	assert.Equal(t, "ollama", cfg.LLM.Provider)
	assert.Equal(t, "llama3", cfg.LLM.Model)
	assert.Equal(t, []string{"http://localhost:3000"}, cfg.Server.AllowedOrigins)
	assert.Equal(t, 8080, cfg.Server.Port)
}

func TestLoadFromRejectsBadFiles(t *testing.T) {
	tests := []struct {
		name    string
		content string
	}{
		{"malformed toml", "[engine\ncombo_mode = "},
		{"invalid combo mode", "[engine]\ncombo_mode = \"everything\""},
		{"invalid provider", "[llm]\nprovider = \"gemini\""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			path := filepath.Join(t.TempDir(), "config.toml")
			require.NoError(t, os.WriteFile(path, []byte(tt.content), 0o644))

			_, err := LoadFrom(path)
			assert.Error(t, err)
		})
	}
}

func TestSaveRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "config.toml")
	cfg := DefaultConfig()
	cfg.Engine.ComboLimit = 5
	cfg.Server.AllowedOrigins = []string{"https://decks.example"}

	require.NoError(t, cfg.Save(path))

	loaded, err := LoadFrom(path)
	require.NoError(t, err)
	if diff := cmp.Diff(cfg, loaded); diff != "" {
		t.Errorf("config mismatch (-want +got):\n%s", diff)
	}
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(*Config)
		wantErr bool
	}{
		{"defaults", func(*Config) {}, false},
		{"negative pool", func(c *Config) { c.Engine.CandidatePoolSize = -1 }, true},
		{"negative combo limit", func(c *Config) { c.Engine.ComboLimit = -2 }, true},
		{"unknown sort", func(c *Config) { c.Engine.SortBy = "alphabetical" }, true},
		{"negative cache", func(c *Config) { c.Cache.Size = -1 }, true},
		{"bad busy timeout", func(c *Config) { c.Database.BusyTimeout = "soon" }, true},
		{"negative rate", func(c *Config) { c.Scryfall.RequestsPerSecond = -1 }, true},
		{"bad stale_after", func(c *Config) { c.Scryfall.StaleAfter = "weekly" }, true},
		{"bad llm timeout", func(c *Config) { c.LLM.Timeout = "1 minute" }, true},
		{"port out of range", func(c *Config) { c.Server.Port = 70000 }, true},
		{"bad log level", func(c *Config) { c.Log.Level = "chatty" }, true},
		{"bad log format", func(c *Config) { c.Log.Format = "xml" }, true},
		{"openai provider", func(c *Config) { c.LLM.Provider = "openai" }, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := DefaultConfig()
			tt.mutate(cfg)
			err := cfg.Validate()
			if tt.wantErr {
				assert.Error(t, err)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}

func TestSlogLevel(t *testing.T) {
	cfg := DefaultConfig()

	for name, want := range map[string]slog.Level{
		"":      slog.LevelInfo,
		"debug": slog.LevelDebug,
		"WARN":  slog.LevelWarn,
		"error": slog.LevelError,
	} {
		cfg.Log.Level = name
		got, err := cfg.SlogLevel()
		require.NoError(t, err, name)
		assert.Equal(t, want, got, name)
	}
}
