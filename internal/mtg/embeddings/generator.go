// Package embeddings builds characteristic vectors for cards and free-text
// queries and serves cosine-similarity search over the stored index.
package embeddings

import (
	"math"
	"strconv"
	"strings"

	"github.com/ramonehamilton/mtg-deck-advisor/internal/mtg/cards"
	"github.com/ramonehamilton/mtg-deck-advisor/internal/storage/models"
)

// Generator creates embeddings from card characteristics.
type Generator struct{}

// NewGenerator creates a new embedding generator.
func NewGenerator() *Generator {
	return &Generator{}
}

// GenerateEmbedding creates a 64-dimensional embedding from card data.
// Dimensions breakdown:
// - [0-4]: Color identity (W, U, B, R, G) - 5D
// - [5-12]: CMC bucketed (0, 1, 2, 3, 4, 5, 6, 7+) - 8D
// - [13-20]: Card types (creature, instant, sorcery, enchantment, artifact, planeswalker, land, other) - 8D
// - [21-24]: Rarity (common, uncommon, rare, mythic) - 4D
// - [25-34]: Power/Toughness buckets - 5D each
// - [35-63]: Keywords (29 common keywords) - 29D
func (g *Generator) GenerateEmbedding(card *cards.Card) *models.CardEmbedding {
	embedding := make([]float64, models.EmbeddingDimensions)

	identity := card.ColorIdentity
	if len(identity) == 0 {
		identity = card.Colors
	}
	g.encodeColors(embedding[0:5], identity)
	g.encodeCMC(embedding[5:13], card.CMC)
	g.encodeTypes(embedding[13:21], card.TypeLine)
	g.encodeRarity(embedding[21:25], card.Rarity)
	g.encodePowerToughness(embedding[25:35], card.Power, card.Toughness)
	g.encodeKeywords(embedding[35:64], card.OracleText)

	normalize(embedding)

	return &models.CardEmbedding{
		CardID:           card.ID,
		CardName:         card.Name,
		Embedding:        embedding,
		EmbeddingVersion: models.EmbeddingVersion,
		Source:           models.EmbeddingSourceCharacteristics,
	}
}

// EmbedQuery maps a free-text description into the same space as card
// embeddings. Only dimensions the text actually mentions are set: color and
// type names, mana values, keywords and the keywords implied by theme words.
func (g *Generator) EmbedQuery(text string) []float64 {
	embedding := make([]float64, models.EmbeddingDimensions)
	lower := strings.ToLower(text)
	words := strings.FieldsFunc(lower, func(r rune) bool {
		return !(r >= 'a' && r <= 'z' || r >= '0' && r <= '9' || r == '-')
	})

	for i, name := range colorNames {
		if containsWord(words, name) {
			embedding[i] = 1.0
		}
	}
	for i, tc := range typeChecks {
		if containsWord(words, tc) || containsWord(words, tc+"s") {
			embedding[13+i] = 1.0
		}
	}
	for i, w := range words {
		if (w == "cmc" || w == "value") && i+1 < len(words) {
			if v, err := strconv.Atoi(words[i+1]); err == nil {
				g.encodeCMC(embedding[5:13], float64(v))
			}
		}
	}

	g.encodeKeywords(embedding[35:64], lower)
	for theme, keywords := range themeKeywords {
		if !containsWord(words, theme) {
			continue
		}
		for _, kw := range keywords {
			if idx := keywordIndex(kw); idx >= 0 {
				embedding[35+idx] = 1.0
			}
		}
	}

	normalize(embedding)
	return embedding
}

var colorNames = []string{"white", "blue", "black", "red", "green"}

var typeChecks = []string{"creature", "instant", "sorcery", "enchantment", "artifact", "planeswalker", "land"}

// themeKeywords expands common deck themes into the oracle keywords that
// usually carry them.
var themeKeywords = map[string][]string{
	"control":      {"counter", "destroy", "exile", "draw"},
	"aggro":        {"haste", "trample", "menace", "first strike"},
	"tokens":       {"token", "enters"},
	"aristocrats":  {"sacrifice", "dies", "token"},
	"lifegain":     {"lifelink"},
	"graveyard":    {"graveyard", "return", "surveil"},
	"reanimator":   {"graveyard", "return"},
	"voltron":      {"double strike", "hexproof", "indestructible"},
	"flyers":       {"flying"},
	"stax":         {"sacrifice", "destroy"},
	"spellslinger": {"prowess", "draw", "counter"},
}

func containsWord(words []string, target string) bool {
	for _, w := range words {
		if w == target {
			return true
		}
	}
	return false
}

// encodeColors sets color identity flags.
func (g *Generator) encodeColors(vec []float64, colors []string) {
	colorMap := map[string]int{"W": 0, "U": 1, "B": 2, "R": 3, "G": 4}
	for _, c := range colors {
		if idx, ok := colorMap[strings.ToUpper(c)]; ok {
			vec[idx] = 1.0
		}
	}
}

// encodeCMC buckets the converted mana cost.
func (g *Generator) encodeCMC(vec []float64, cmc float64) {
	idx := int(cmc)
	if idx > 7 {
		idx = 7
	}
	if idx < 0 {
		idx = 0
	}
	vec[idx] = 1.0
}

// encodeTypes extracts card types from the type line.
func (g *Generator) encodeTypes(vec []float64, typeLine string) {
	lower := strings.ToLower(typeLine)

	foundType := false
	for i, keyword := range typeChecks {
		if strings.Contains(lower, keyword) {
			vec[i] = 1.0
			foundType = true
		}
	}

	// "Other" type (battle, kindred, etc.)
	if !foundType {
		vec[7] = 1.0
	}
}

// encodeRarity sets rarity flag.
func (g *Generator) encodeRarity(vec []float64, rarity string) {
	rarityMap := map[string]int{
		"common":   0,
		"uncommon": 1,
		"rare":     2,
		"mythic":   3,
	}
	if idx, ok := rarityMap[strings.ToLower(rarity)]; ok {
		vec[idx] = 1.0
	}
}

// encodePowerToughness encodes creature stats.
func (g *Generator) encodePowerToughness(vec []float64, power, toughness string) {
	g.encodeStatValue(vec[0:5], power)
	g.encodeStatValue(vec[5:10], toughness)
}

// encodeStatValue converts a power/toughness value to bucketed encoding.
// Non-creatures leave the buckets empty.
func (g *Generator) encodeStatValue(vec []float64, value string) {
	switch {
	case value == "":
		return
	case value == "*":
		for i := range vec {
			vec[i] = 0.2
		}
		return
	case strings.ContainsAny(value, "Xx"):
		vec[4] = 1.0
		return
	}

	val := 0
	for _, c := range value {
		if c >= '0' && c <= '9' {
			val = val*10 + int(c-'0')
		}
	}

	// Bucket: 0-1, 2-3, 4-5, 6-7, 8+
	bucket := val / 2
	if bucket > 4 {
		bucket = 4
	}
	vec[bucket] = 1.0
}

// Common MTG keywords for embedding.
var commonKeywords = []string{
	"flying", "trample", "haste", "vigilance", "lifelink",
	"deathtouch", "first strike", "double strike", "menace", "reach",
	"flash", "hexproof", "indestructible", "defender", "protection",
	"ward", "prowess", "scry", "surveil", "draw",
	"counter", "destroy", "exile", "return", "sacrifice",
	"token", "enters", "dies", "graveyard",
}

func keywordIndex(keyword string) int {
	for i, k := range commonKeywords {
		if k == keyword {
			return i
		}
	}
	return -1
}

// encodeKeywords extracts keyword abilities from oracle text.
func (g *Generator) encodeKeywords(vec []float64, oracleText string) {
	lower := strings.ToLower(oracleText)

	for i, keyword := range commonKeywords {
		if i >= len(vec) {
			break
		}
		if strings.Contains(lower, keyword) {
			vec[i] = 1.0
		}
	}
}

// normalize applies L2 normalization to the embedding.
func normalize(vec []float64) {
	var sumSquares float64
	for _, v := range vec {
		sumSquares += v * v
	}

	if sumSquares == 0 {
		return
	}

	norm := math.Sqrt(sumSquares)
	for i := range vec {
		vec[i] /= norm
	}
}

// CosineSimilarity computes the cosine similarity between two embeddings.
func CosineSimilarity(a, b []float64) float64 {
	if len(a) != len(b) {
		return 0
	}

	var dotProduct, normA, normB float64
	for i := range a {
		dotProduct += a[i] * b[i]
		normA += a[i] * a[i]
		normB += b[i] * b[i]
	}

	if normA == 0 || normB == 0 {
		return 0
	}

	return dotProduct / (math.Sqrt(normA) * math.Sqrt(normB))
}
