package recommendations

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/ramonehamilton/mtg-deck-advisor/internal/mtg/cards"
)

// ErrConfiguration is returned by NewEngine when a required collaborator is missing.
var ErrConfiguration = errors.New("invalid engine configuration")

// Pipeline stages, in execution order.
const (
	stageBuildQuery     = "query_built"
	stageRetrieve       = "candidates_retrieved"
	stageCrossReference = "combos_cross_referenced"
	stageRank           = "ranked"
	stageDone           = "done"
)

// Config tunes the engine. Zero values fall back to defaults.
type Config struct {
	// CandidatePoolSize is the number of semantic-search results requested.
	// Default: 20
	CandidatePoolSize int

	// ComboMode is the default presentation mode. Default: focused
	ComboMode ComboMode

	// ComboLimit caps combos per suggestion in focused mode. Default: 3
	ComboLimit int

	// SortBy is the default combo ordering. Default: power
	SortBy SortKey

	Logger  *slog.Logger
	Metrics StageObserver
}

// DefaultConfig returns the engine defaults.
func DefaultConfig() Config {
	return Config{
		CandidatePoolSize: 20,
		ComboMode:         ComboModeFocused,
		ComboLimit:        defaultFocusedComboCap,
		SortBy:            SortByPower,
	}
}

// Dependencies are the collaborators the engine drives. Search, Cards and
// Combos are required.
type Dependencies struct {
	Search    SemanticSearcher
	Cards     CardLookup
	Combos    ComboStore
	Explainer Explainer
	Caches    *Caches
}

// Engine runs the suggestion pipeline.
type Engine struct {
	mu         sync.RWMutex
	config     Config
	cards      CardLookup
	explainer  Explainer
	caches     *Caches
	retriever  *CandidateRetriever
	xref       *ComboCrossReferencer
	ranker     *ComboRanker
	aggregator *SuggestionAggregator
	logger     *slog.Logger
}

// NewEngine validates the collaborators and builds an engine.
func NewEngine(config Config, deps Dependencies) (*Engine, error) {
	switch {
	case deps.Search == nil:
		return nil, fmt.Errorf("%w: semantic search collaborator is required", ErrConfiguration)
	case deps.Cards == nil:
		return nil, fmt.Errorf("%w: card lookup collaborator is required", ErrConfiguration)
	case deps.Combos == nil:
		return nil, fmt.Errorf("%w: combo store collaborator is required", ErrConfiguration)
	}

	config = withDefaults(config)
	if config.Logger == nil {
		config.Logger = slog.Default()
	}

	caches := deps.Caches
	if caches == nil {
		caches = NewCaches(DefaultCacheSize)
	}

	return &Engine{
		config:     config,
		cards:      deps.Cards,
		explainer:  deps.Explainer,
		caches:     caches,
		retriever:  NewCandidateRetriever(deps.Search, caches.Retrieval, config.Logger),
		xref:       NewComboCrossReferencer(deps.Combos, caches.Pairs, config.Logger),
		ranker:     NewComboRanker(),
		aggregator: NewSuggestionAggregator(),
		logger:     config.Logger,
	}, nil
}

// withDefaults fills unset tunables.
func withDefaults(config Config) Config {
	defaults := DefaultConfig()
	if config.CandidatePoolSize <= 0 {
		config.CandidatePoolSize = defaults.CandidatePoolSize
	}
	if config.ComboMode == "" {
		config.ComboMode = defaults.ComboMode
	}
	if config.ComboLimit <= 0 {
		config.ComboLimit = defaults.ComboLimit
	}
	if config.SortBy == "" {
		config.SortBy = defaults.SortBy
	}
	return config
}

// Reconfigure swaps the tunables (pool size, combo mode, combo limit and sort
// key) of a running engine. Logger and Metrics are left untouched.
func (e *Engine) Reconfigure(config Config) {
	config = withDefaults(config)

	e.mu.Lock()
	defer e.mu.Unlock()
	e.config.CandidatePoolSize = config.CandidatePoolSize
	e.config.ComboMode = config.ComboMode
	e.config.ComboLimit = config.ComboLimit
	e.config.SortBy = config.SortBy
	e.logger.Info("engine reconfigured",
		slog.Int("candidate_pool_size", config.CandidatePoolSize),
		slog.String("combo_mode", string(config.ComboMode)),
		slog.Int("combo_limit", config.ComboLimit),
		slog.String("sort_by", string(config.SortBy)))
}

// runOptions are the per-request presentation settings after defaults.
type runOptions struct {
	sortBy     SortKey
	mode       ComboMode
	limit      int
	maxResults int
	explain    bool
}

func (e *Engine) options(c Constraints) runOptions {
	e.mu.RLock()
	opts := runOptions{
		sortBy:     e.config.SortBy,
		mode:       e.config.ComboMode,
		limit:      e.config.ComboLimit,
		maxResults: e.config.CandidatePoolSize,
		explain:    c.Explain && e.explainer != nil,
	}
	e.mu.RUnlock()
	switch c.SortBy {
	case SortByPower, SortByPrice, SortByPopularity, SortByComplexity:
		opts.sortBy = c.SortBy
	case "":
	default:
		e.logger.Warn("ignoring unknown sort key", slog.String("sort_by", string(c.SortBy)))
	}
	switch c.ComboMode {
	case ComboModeFocused, ComboModeBroad:
		opts.mode = c.ComboMode
	case "":
	default:
		e.logger.Warn("ignoring unknown combo mode", slog.String("combo_mode", string(c.ComboMode)))
	}
	if c.ComboLimit > 0 {
		opts.limit = c.ComboLimit
	}
	if c.MaxResults > 0 {
		opts.maxResults = c.MaxResults
	}
	return opts
}

// run carries the state of one Suggest call.
type run struct {
	deck     *Deck
	profile  *Profile
	opts     runOptions
	degraded bool
	started  time.Time
	stageAt  time.Time // Start of the stage in progress
}

// Suggest proposes cards for the deck. It never fails: collaborator problems
// are logged and produce an empty or partial answer.
func (e *Engine) Suggest(ctx context.Context, deck *Deck, c Constraints) []Suggestion {
	if deck == nil {
		e.logger.Warn("suggest called without a deck")
		return []Suggestion{}
	}

	r := &run{
		deck:    deck,
		profile: NewProfile(deck, c, e.logger),
		opts:    e.options(c),
		started: time.Now(),
	}
	r.stageAt = r.started

	e.resolveColors(ctx, r)
	query := BuildQuery(r.profile)
	key := QueryKey(query, requestFilters(deck, r.profile, r.opts))
	e.finishStage(r, stageBuildQuery, slog.String("query", query))

	if cached, ok := e.caches.Query.Get(key); ok {
		e.logger.Debug("query cache hit", slog.String("query", query))
		return cached
	}

	hits, complete := e.retriever.Retrieve(ctx, query, r.opts.maxResults)
	r.degraded = r.degraded || !complete
	candidates := e.hydrate(ctx, r, hits)
	e.finishStage(r, stageRetrieve, slog.Int("hits", len(hits)), slog.Int("candidates", len(candidates)))

	if len(candidates) == 0 {
		e.finishStage(r, stageDone, slog.Int("suggestions", 0))
		if !r.degraded {
			e.caches.Query.Set(key, []Suggestion{})
		}
		return []Suggestion{}
	}

	deckCards := e.resolveDeckCards(ctx, r)
	found := make([][]RankedCombo, len(candidates))
	for i, cand := range candidates {
		others := make([]PairCard, 0, len(deckCards)+len(candidates)-1)
		others = append(others, deckCards...)
		for j, other := range candidates {
			if j != i {
				others = append(others, PairCard{Name: other.Card.Name, ID: other.Card.ID})
			}
		}

		list, complete := e.xref.FindCombos(ctx, PairCard{Name: cand.Card.Name, ID: cand.Card.ID}, others, r.profile)
		r.degraded = r.degraded || !complete
		found[i] = e.ranker.Rank(list, r.profile, r.opts.sortBy)
	}
	e.finishStage(r, stageCrossReference, slog.Int("deck_cards", len(deckCards)))

	var explainer *comboExplainer
	if r.opts.explain {
		explainer = newComboExplainer(e.explainer, e.logger)
	}

	suggestions := make([]Suggestion, 0, len(candidates))
	for i, cand := range candidates {
		ranked := Truncate(found[i], r.opts.mode, r.opts.limit)
		if explainer != nil {
			explainer.annotate(ctx, ranked, r.profile)
		}
		suggestions = append(suggestions, e.aggregator.Build(cand, ranked, r.profile))
	}
	SortSuggestions(suggestions)
	e.finishStage(r, stageRank, slog.Int("suggestions", len(suggestions)))

	if !r.degraded {
		e.caches.Query.Set(key, suggestions)
	}
	e.finishStage(r, stageDone, slog.Bool("degraded", r.degraded))
	return suggestions
}

// resolveColors falls back to the commander's color identity when the deck
// records no colors.
func (e *Engine) resolveColors(ctx context.Context, r *run) {
	if len(r.profile.Colors) > 0 || r.profile.Commander == "" {
		return
	}
	card, err := e.cards.GetCardByName(ctx, r.profile.Commander)
	if err != nil {
		e.degrade(r, stageBuildQuery, err, slog.String("commander", r.profile.Commander))
		return
	}
	if card != nil {
		r.profile.Colors = cards.NormalizeColors(card.ColorIdentity)
	}
}

// hydrate resolves hits into candidate cards and drops cards the deck already
// has, banned or excluded cards, illegal cards and duplicates.
func (e *Engine) hydrate(ctx context.Context, r *run, hits []SearchHit) []Candidate {
	candidates := make([]Candidate, 0, len(hits))
	seen := make(map[string]bool, len(hits))

	for _, hit := range hits {
		card := e.lookupHit(ctx, r, hit)
		if card == nil {
			continue
		}
		name := cards.NormalizeName(card.Name)
		if name == "" || seen[name] || r.profile.Blocks(card.Name) {
			continue
		}
		if !card.IsLegalIn(r.profile.Format) {
			e.logger.Debug("skipping card not legal in format",
				slog.String("card", card.Name), slog.String("format", r.profile.Format))
			continue
		}
		seen[name] = true
		candidates = append(candidates, Candidate{Card: card, Score: hit.Score})
	}
	return candidates
}

func (e *Engine) lookupHit(ctx context.Context, r *run, hit SearchHit) *cards.Card {
	if hit.ID != "" {
		card, err := e.cards.GetCardByID(ctx, hit.ID, true)
		if err != nil {
			e.degrade(r, stageRetrieve, err, slog.String("card_id", hit.ID))
		} else if card != nil {
			return card
		}
	}

	name, _ := hit.Metadata["name"].(string)
	if name == "" {
		return nil
	}
	card, err := e.cards.GetCardByName(ctx, name)
	if err != nil {
		e.degrade(r, stageRetrieve, err, slog.String("card", name))
		return nil
	}
	return card
}

// resolveDeckCards looks up ids for the distinct deck cards and the commander.
// Cards that cannot be resolved are skipped.
func (e *Engine) resolveDeckCards(ctx context.Context, r *run) []PairCard {
	names := make([]string, 0, len(r.deck.Cards)+1)
	names = append(names, r.deck.Cards...)
	for _, section := range r.deck.Sections {
		names = append(names, section...)
	}
	if r.profile.Commander != "" {
		names = append(names, r.profile.Commander)
	}

	out := make([]PairCard, 0, len(names))
	seen := make(map[string]bool, len(names))
	for _, name := range names {
		n := cards.NormalizeName(name)
		if n == "" || seen[n] {
			continue
		}
		seen[n] = true

		card, err := e.cards.GetCardByName(ctx, name)
		if err != nil {
			e.degrade(r, stageCrossReference, err, slog.String("card", name))
			continue
		}
		if card == nil {
			e.logger.Debug("deck card not found", slog.String("card", name))
			continue
		}
		out = append(out, PairCard{Name: card.Name, ID: card.ID})
	}
	return out
}

// degrade records a collaborator failure that the run absorbs.
func (e *Engine) degrade(r *run, stage string, err error, attrs ...any) {
	r.degraded = true
	args := append([]any{slog.String("stage", stage), slog.Any("error", err)}, attrs...)
	e.logger.Warn("collaborator unavailable", args...)
}

// finishStage reports the time spent in stage. The done stage reports the
// whole run.
func (e *Engine) finishStage(r *run, stage string, attrs ...any) {
	now := time.Now()
	elapsed := now.Sub(r.stageAt)
	if stage == stageDone {
		elapsed = now.Sub(r.started)
	}
	r.stageAt = now

	if e.config.Metrics != nil {
		e.config.Metrics.ObserveStage(stage, elapsed.Seconds())
	}
	args := append([]any{slog.String("stage", stage), slog.Duration("elapsed", elapsed)}, attrs...)
	e.logger.Debug("pipeline stage complete", args...)
}

// CacheStats reports statistics for the engine's caches.
func (e *Engine) CacheStats() CacheStats {
	return e.caches.Stats()
}

// ClearCaches empties every cache the engine uses.
func (e *Engine) ClearCaches() {
	e.caches.Clear()
}
