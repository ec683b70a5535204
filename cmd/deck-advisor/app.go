package main

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/ramonehamilton/mtg-deck-advisor/internal/config"
	"github.com/ramonehamilton/mtg-deck-advisor/internal/llm"
	"github.com/ramonehamilton/mtg-deck-advisor/internal/metrics"
	"github.com/ramonehamilton/mtg-deck-advisor/internal/mtg/cardlookup"
	"github.com/ramonehamilton/mtg-deck-advisor/internal/mtg/cards/scryfall"
	"github.com/ramonehamilton/mtg-deck-advisor/internal/mtg/embeddings"
	"github.com/ramonehamilton/mtg-deck-advisor/internal/mtg/recommendations"
	"github.com/ramonehamilton/mtg-deck-advisor/internal/storage"
	"github.com/ramonehamilton/mtg-deck-advisor/internal/storage/repository"
)

// app holds what the subcommands share once the root command has run.
type app struct {
	opts       *globalOptions
	cfg        *config.Config
	configPath string
	logger     *slog.Logger
}

// components are the wired collaborators of a command run.
type components struct {
	db         *storage.DB
	cards      repository.CardRepository
	combos     repository.ComboRepository
	embeddings *embeddings.Service
	lookup     *cardlookup.Service
	metrics    *metrics.PipelineMetrics
	engine     *recommendations.Engine
}

func (c *components) Close() error {
	return c.db.Close()
}

func (a *app) dbPath() string {
	if a.cfg.Database.Path != "" {
		return a.cfg.Database.Path
	}
	return storage.DefaultPath()
}

// openDB opens the configured database, migrating it when configured to.
func (a *app) openDB() (*storage.DB, error) {
	dbConfig := storage.DefaultConfig(a.dbPath())
	dbConfig.AutoMigrate = a.cfg.Database.AutoMigrate
	if timeout := a.cfg.BusyTimeout(); timeout > 0 {
		dbConfig.BusyTimeout = timeout
	}

	db, err := storage.Open(dbConfig)
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}
	return db, nil
}

// fetcher returns the Scryfall client, or nil when remote lookups are off.
func (a *app) fetcher() cardlookup.Fetcher {
	if !a.cfg.Scryfall.Enabled {
		return nil
	}
	return scryfall.NewClient(scryfall.Options{
		BaseURL:           a.cfg.Scryfall.BaseURL,
		RequestsPerSecond: a.cfg.Scryfall.RequestsPerSecond,
		UserAgent:         "mtg-deck-advisor/" + Version,
	})
}

// engineConfig maps the [engine] section onto the engine's tunables.
func engineConfig(cfg *config.Config) recommendations.Config {
	return recommendations.Config{
		CandidatePoolSize: cfg.Engine.CandidatePoolSize,
		ComboMode:         recommendations.ComboMode(cfg.Engine.ComboMode),
		ComboLimit:        cfg.Engine.ComboLimit,
		SortBy:            recommendations.SortKey(cfg.Engine.SortBy),
	}
}

// explainer builds the configured combo explainer. A provider that cannot be
// set up is logged and left out, since explanations are optional.
func (a *app) explainer() recommendations.Explainer {
	gen, err := llm.New(llm.Settings{
		Provider:  llm.Provider(a.cfg.LLM.Provider),
		Model:     a.cfg.LLM.Model,
		BaseURL:   a.cfg.LLM.BaseURL,
		APIKeyEnv: a.cfg.LLM.APIKeyEnv,
		Timeout:   a.cfg.LLMTimeout(),
	})
	if err != nil {
		a.logger.Warn("combo explanations disabled", slog.String("error", err.Error()))
		return nil
	}
	if gen == nil {
		return nil
	}
	return gen
}

// wire opens storage and builds every collaborator plus the engine.
func (a *app) wire(ctx context.Context) (*components, error) {
	db, err := a.openDB()
	if err != nil {
		return nil, err
	}

	c := &components{
		db:      db,
		cards:   repository.NewCardRepository(db.Conn()),
		combos:  repository.NewComboRepository(db.SQLX()),
		metrics: metrics.NewPipelineMetrics(0),
	}
	c.embeddings = embeddings.NewService(repository.NewEmbeddingRepository(db.Conn()), a.logger)
	c.lookup = cardlookup.NewService(c.cards, a.fetcher(), cardlookup.ServiceOptions{
		StaleThreshold: a.cfg.ScryfallStaleAfter(),
		Logger:         a.logger,
	})

	if err := c.embeddings.LoadAllToCache(ctx); err != nil {
		a.logger.Warn("embedding cache not preloaded", slog.String("error", err.Error()))
	}

	cacheSize := a.cfg.Cache.Size
	if cacheSize <= 0 {
		cacheSize = recommendations.DefaultCacheSize
	}

	engineCfg := engineConfig(a.cfg)
	engineCfg.Logger = a.logger
	engineCfg.Metrics = c.metrics

	c.engine, err = recommendations.NewEngine(engineCfg, recommendations.Dependencies{
		Search:    c.embeddings,
		Cards:     c.lookup,
		Combos:    c.combos,
		Explainer: a.explainer(),
		Caches:    recommendations.NewCaches(cacheSize),
	})
	if err != nil {
		_ = db.Close()
		return nil, err
	}
	return c, nil
}
