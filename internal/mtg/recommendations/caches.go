package recommendations

import (
	"crypto/sha256"
	"encoding/hex"
	"sort"
	"strconv"
	"strings"

	"github.com/ramonehamilton/mtg-deck-advisor/internal/cache"
	"github.com/ramonehamilton/mtg-deck-advisor/internal/mtg/cards"
	"github.com/ramonehamilton/mtg-deck-advisor/internal/mtg/combos"
)

// DefaultCacheSize is the configured bound used when none is given.
const DefaultCacheSize = 256

// PairKey is the order-independent identifier of two card names.
type PairKey struct {
	A string
	B string
}

// NewPairKey normalizes both names and orders them so (x, y) and (y, x) map to
// the same key.
func NewPairKey(x, y string) PairKey {
	a, b := cards.NormalizeName(x), cards.NormalizeName(y)
	if b < a {
		a, b = b, a
	}
	return PairKey{A: a, B: b}
}

// PairCache holds combo-store answers per unordered card pair. It evicts in
// insertion order and holds up to twice the configured size.
type PairCache struct {
	entries *cache.FIFO[PairKey, []combos.Combo]
}

// NewPairCache creates a pair cache for the configured size.
func NewPairCache(size int) *PairCache {
	if size < 1 {
		size = DefaultCacheSize
	}
	return &PairCache{entries: cache.NewFIFO[PairKey, []combos.Combo](2 * size)}
}

// Get returns the cached combos for the pair in either order.
func (c *PairCache) Get(x, y string) ([]combos.Combo, bool) {
	return c.entries.Get(NewPairKey(x, y))
}

// Set caches the combos for the pair. An empty result is cached too.
func (c *PairCache) Set(x, y string, list []combos.Combo) {
	c.entries.Set(NewPairKey(x, y), list)
}

// Clear empties the cache.
func (c *PairCache) Clear() { c.entries.Clear() }

// Stats returns cache statistics.
func (c *PairCache) Stats() cache.Stats { return c.entries.Stats() }

// retrievalKey identifies a semantic-search request.
type retrievalKey struct {
	query      string
	maxResults int
}

// RetrievalCache holds raw semantic-search results per (query, maxResults).
// It evicts in insertion order.
type RetrievalCache struct {
	entries *cache.FIFO[retrievalKey, []SearchHit]
}

// NewRetrievalCache creates a retrieval cache bounded by size.
func NewRetrievalCache(size int) *RetrievalCache {
	if size < 1 {
		size = DefaultCacheSize
	}
	return &RetrievalCache{entries: cache.NewFIFO[retrievalKey, []SearchHit](size)}
}

// Get returns the cached hits for the request.
func (c *RetrievalCache) Get(query string, maxResults int) ([]SearchHit, bool) {
	return c.entries.Get(retrievalKey{query: query, maxResults: maxResults})
}

// Set caches the hits for the request.
func (c *RetrievalCache) Set(query string, maxResults int, hits []SearchHit) {
	c.entries.Set(retrievalKey{query: query, maxResults: maxResults}, hits)
}

// Clear empties the cache.
func (c *RetrievalCache) Clear() { c.entries.Clear() }

// Stats returns cache statistics.
func (c *RetrievalCache) Stats() cache.Stats { return c.entries.Stats() }

// QueryCache memoizes whole suggestion answers with least-recently-used eviction.
type QueryCache struct {
	entries *cache.LRU[string, []Suggestion]
}

// NewQueryCache creates a query cache bounded by size.
func NewQueryCache(size int) *QueryCache {
	if size < 1 {
		size = DefaultCacheSize
	}
	return &QueryCache{entries: cache.NewLRU[string, []Suggestion](size)}
}

// Get returns a copy of the cached answer.
func (c *QueryCache) Get(key string) ([]Suggestion, bool) {
	list, ok := c.entries.Get(key)
	if !ok {
		return nil, false
	}
	return cloneSuggestions(list), true
}

// Set caches a copy of the answer.
func (c *QueryCache) Set(key string, list []Suggestion) {
	c.entries.Set(key, cloneSuggestions(list))
}

// Clear empties the cache.
func (c *QueryCache) Clear() { c.entries.Clear() }

// Stats returns cache statistics.
func (c *QueryCache) Stats() cache.Stats { return c.entries.Stats() }

// QueryKey hashes the normalized query text together with the filter set. The
// filter order does not matter.
func QueryKey(queryText string, filters map[string]string) string {
	h := sha256.New()
	h.Write([]byte(strings.Join(strings.Fields(strings.ToLower(queryText)), " ")))

	keys := make([]string, 0, len(filters))
	for k := range filters {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	for _, k := range keys {
		h.Write([]byte{0})
		h.Write([]byte(k))
		h.Write([]byte{'='})
		h.Write([]byte(filters[k]))
	}
	return hex.EncodeToString(h.Sum(nil))
}

// Caches groups the caches one engine uses.
type Caches struct {
	Query     *QueryCache
	Pairs     *PairCache
	Retrieval *RetrievalCache
}

// NewCaches creates all caches for the configured size.
func NewCaches(size int) *Caches {
	return &Caches{
		Query:     NewQueryCache(size),
		Pairs:     NewPairCache(size),
		Retrieval: NewRetrievalCache(size),
	}
}

// Clear restores every cache to its freshly constructed state.
func (c *Caches) Clear() {
	c.Query.Clear()
	c.Pairs.Clear()
	c.Retrieval.Clear()
}

// CacheStats reports statistics for every cache.
type CacheStats struct {
	Query     cache.Stats `json:"query"`
	Pairs     cache.Stats `json:"pairs"`
	Retrieval cache.Stats `json:"retrieval"`
}

// Stats returns statistics for every cache.
func (c *Caches) Stats() CacheStats {
	return CacheStats{
		Query:     c.Query.Stats(),
		Pairs:     c.Pairs.Stats(),
		Retrieval: c.Retrieval.Stats(),
	}
}

// requestFilters is the filter set folded into the query cache key.
func requestFilters(deck *Deck, p *Profile, opts runOptions) map[string]string {
	deckCards := make([]string, 0, len(deck.Cards))
	for _, name := range deck.Cards {
		deckCards = append(deckCards, cards.NormalizeName(name))
	}
	sort.Strings(deckCards)

	excluded := make([]string, 0, len(p.Excluded))
	for name := range p.Excluded {
		excluded = append(excluded, name)
	}
	sort.Strings(excluded)

	comboTypes := append([]string(nil), p.ComboTypes...)
	sort.Strings(comboTypes)

	sections := make([]string, 0, len(deck.Sections))
	for name, list := range deck.Sections {
		normalized := make([]string, 0, len(list))
		for _, card := range list {
			normalized = append(normalized, cards.NormalizeName(card))
		}
		sort.Strings(normalized)
		sections = append(sections, name+":"+strings.Join(normalized, ","))
	}
	sort.Strings(sections)

	return map[string]string{
		"format":      p.Format,
		"commander":   cards.NormalizeName(p.Commander),
		"deck":        strings.Join(deckCards, "\x1f"),
		"sections":    strings.Join(sections, "\x1f"),
		"colors":      strings.Join(p.Colors, ","),
		"excluded":    strings.Join(excluded, "\x1f"),
		"combo_types": strings.Join(comboTypes, ","),
		"sort_by":     string(opts.sortBy),
		"combo_mode":  string(opts.mode),
		"combo_limit": strconv.Itoa(opts.limit),
		"max_results": strconv.Itoa(opts.maxResults),
		"explain":     strconv.FormatBool(opts.explain),
		"theme":       p.Theme,
		"budget":      formatOptional(p.Budget),
		"power":       formatOptional(p.TargetPower),
	}
}

func formatOptional(v *float64) string {
	if v == nil {
		return ""
	}
	return strconv.FormatFloat(*v, 'f', -1, 64)
}
