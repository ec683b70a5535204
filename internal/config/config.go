// Package config loads the deck advisor's TOML configuration.
package config

import (
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/pelletier/go-toml/v2"
)

// Config represents the application configuration.
type Config struct {
	Engine   EngineConfig   `toml:"engine"`
	Cache    CacheConfig    `toml:"cache"`
	Database DatabaseConfig `toml:"database"`
	Scryfall ScryfallConfig `toml:"scryfall"`
	LLM      LLMConfig      `toml:"llm"`
	Server   ServerConfig   `toml:"server"`
	Log      LogConfig      `toml:"log"`
}

// EngineConfig contains the suggestion pipeline tunables. These are the only
// settings applied on hot reload.
type EngineConfig struct {
	CandidatePoolSize int    `toml:"candidate_pool_size"` // Semantic search results per request
	ComboMode         string `toml:"combo_mode"`          // "focused" or "broad"
	ComboLimit        int    `toml:"combo_limit"`         // Combos kept per card in focused mode
	SortBy            string `toml:"sort_by"`             // power, price, popularity, complexity
	Explain           bool   `toml:"explain"`             // Explain combos by default in the CLI
}

// CacheConfig contains caching settings.
type CacheConfig struct {
	Size int `toml:"size"` // Entries per engine cache
}

// DatabaseConfig contains SQLite settings.
type DatabaseConfig struct {
	Path        string `toml:"path"`         // Empty uses ~/.mtg-deck-advisor/deck-advisor.db
	AutoMigrate bool   `toml:"auto_migrate"` // Apply migrations on open
	BusyTimeout string `toml:"busy_timeout"` // e.g. "5s"
}

// ScryfallConfig contains card API settings.
type ScryfallConfig struct {
	Enabled           bool    `toml:"enabled"`             // Fetch cards missing from the local store
	BaseURL           string  `toml:"base_url"`            // Empty uses the public API
	RequestsPerSecond float64 `toml:"requests_per_second"` // Client-side rate limit
	StaleAfter        string  `toml:"stale_after"`         // Refetch cached cards older than this
}

// LLMConfig selects the combo explainer.
type LLMConfig struct {
	Provider  string `toml:"provider"`    // none, ollama or openai
	Model     string `toml:"model"`       // Empty uses the provider default
	BaseURL   string `toml:"base_url"`    // Empty uses the provider default
	APIKeyEnv string `toml:"api_key_env"` // Environment variable holding the API key
	Timeout   string `toml:"timeout"`     // Per generation, e.g. "60s"
}

// ServerConfig contains HTTP API settings.
type ServerConfig struct {
	Port           int      `toml:"port"`
	AllowedOrigins []string `toml:"allowed_origins"` // Empty allows all origins
}

// LogConfig contains logging settings.
type LogConfig struct {
	Level  string `toml:"level"`  // debug, info, warn, error
	Format string `toml:"format"` // text or json
}

// DefaultConfig returns the default configuration.
func DefaultConfig() *Config {
	return &Config{
		Engine: EngineConfig{
			CandidatePoolSize: 20,
			ComboMode:         "focused",
			ComboLimit:        3,
			SortBy:            "power",
			Explain:           false,
		},
		Cache: CacheConfig{
			Size: 100,
		},
		Database: DatabaseConfig{
			Path:        "",
			AutoMigrate: true,
			BusyTimeout: "5s",
		},
		Scryfall: ScryfallConfig{
			Enabled:           true,
			BaseURL:           "",
			RequestsPerSecond: 10,
			StaleAfter:        "168h",
		},
		LLM: LLMConfig{
			Provider:  "none",
			APIKeyEnv: "OPENAI_API_KEY",
			Timeout:   "60s",
		},
		Server: ServerConfig{
			Port: 8080,
		},
		Log: LogConfig{
			Level:  "info",
			Format: "text",
		},
	}
}

// DefaultPath returns ~/.mtg-deck-advisor/config.toml.
func DefaultPath() (string, error) {
	homeDir, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("get home directory: %w", err)
	}
	return filepath.Join(homeDir, ".mtg-deck-advisor", "config.toml"), nil
}

// Load loads the configuration from the default path. Returns the default
// config if the file doesn't exist.
func Load() (*Config, error) {
	path, err := DefaultPath()
	if err != nil {
		return nil, err
	}
	return LoadFrom(path)
}

// LoadFrom loads the configuration at path on top of the defaults, so keys
// missing from the file keep their default values.
func LoadFrom(path string) (*Config, error) {
	config := DefaultConfig()

	data, err := os.ReadFile(path)
	if errors.Is(err, fs.ErrNotExist) {
		return config, nil
	}
	if err != nil {
		return nil, fmt.Errorf("read config file: %w", err)
	}

	if err := toml.Unmarshal(data, config); err != nil {
		return nil, fmt.Errorf("parse config file: %w", err)
	}

	if err := config.Validate(); err != nil {
		return nil, err
	}
	return config, nil
}

// Save writes the configuration to path, creating its directory.
func (c *Config) Save(path string) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("create config directory: %w", err)
	}

	data, err := toml.Marshal(c)
	if err != nil {
		return fmt.Errorf("marshal config: %w", err)
	}

	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("write config file: %w", err)
	}

	return nil
}

// Validate validates the configuration values.
func (c *Config) Validate() error {
	if c.Engine.CandidatePoolSize < 0 {
		return fmt.Errorf("candidate pool size cannot be negative: %d", c.Engine.CandidatePoolSize)
	}
	if c.Engine.ComboLimit < 0 {
		return fmt.Errorf("combo limit cannot be negative: %d", c.Engine.ComboLimit)
	}
	switch c.Engine.ComboMode {
	case "", "focused", "broad":
	default:
		return fmt.Errorf("invalid combo mode %q", c.Engine.ComboMode)
	}
	switch c.Engine.SortBy {
	case "", "power", "price", "popularity", "complexity":
	default:
		return fmt.Errorf("invalid sort key %q", c.Engine.SortBy)
	}

	if c.Cache.Size < 0 {
		return fmt.Errorf("cache size cannot be negative: %d", c.Cache.Size)
	}

	if c.Database.BusyTimeout != "" {
		if _, err := time.ParseDuration(c.Database.BusyTimeout); err != nil {
			return fmt.Errorf("invalid busy timeout %q: %w", c.Database.BusyTimeout, err)
		}
	}

	if c.Scryfall.RequestsPerSecond < 0 {
		return fmt.Errorf("scryfall rate cannot be negative: %v", c.Scryfall.RequestsPerSecond)
	}
	if c.Scryfall.StaleAfter != "" {
		if _, err := time.ParseDuration(c.Scryfall.StaleAfter); err != nil {
			return fmt.Errorf("invalid stale_after %q: %w", c.Scryfall.StaleAfter, err)
		}
	}

	switch c.LLM.Provider {
	case "", "none", "ollama", "openai":
	default:
		return fmt.Errorf("invalid llm provider %q", c.LLM.Provider)
	}
	if c.LLM.Timeout != "" {
		if _, err := time.ParseDuration(c.LLM.Timeout); err != nil {
			return fmt.Errorf("invalid llm timeout %q: %w", c.LLM.Timeout, err)
		}
	}

	if c.Server.Port < 0 || c.Server.Port > 65535 {
		return fmt.Errorf("invalid server port %d", c.Server.Port)
	}

	if _, err := c.SlogLevel(); err != nil {
		return err
	}
	switch c.Log.Format {
	case "", "text", "json":
	default:
		return fmt.Errorf("invalid log format %q", c.Log.Format)
	}

	return nil
}

// BusyTimeout returns the database busy timeout, zero when unset.
func (c *Config) BusyTimeout() time.Duration {
	return parseDurationOr(c.Database.BusyTimeout, 0)
}

// ScryfallStaleAfter returns the card refetch threshold, zero when unset.
func (c *Config) ScryfallStaleAfter() time.Duration {
	return parseDurationOr(c.Scryfall.StaleAfter, 0)
}

// LLMTimeout returns the per-generation timeout, zero when unset.
func (c *Config) LLMTimeout() time.Duration {
	return parseDurationOr(c.LLM.Timeout, 0)
}

// SlogLevel maps the log level name to a slog.Level.
func (c *Config) SlogLevel() (slog.Level, error) {
	var level slog.Level
	name := c.Log.Level
	if name == "" {
		name = "info"
	}
	if err := level.UnmarshalText([]byte(strings.ToLower(name))); err != nil {
		return 0, fmt.Errorf("invalid log level %q: %w", c.Log.Level, err)
	}
	return level, nil
}

func parseDurationOr(value string, fallback time.Duration) time.Duration {
	if value == "" {
		return fallback
	}
	d, err := time.ParseDuration(value)
	if err != nil {
		return fallback
	}
	return d
}
