package embeddings

import (
	"math"
	"testing"

	"github.com/ramonehamilton/mtg-deck-advisor/internal/mtg/cards"
	"github.com/ramonehamilton/mtg-deck-advisor/internal/storage/models"
)

func TestGenerator_GenerateEmbedding(t *testing.T) {
	generator := NewGenerator()

	tests := []struct {
		name    string
		card    *cards.Card
		checkFn func(t *testing.T, emb *models.CardEmbedding)
	}{
		{
			name: "basic creature with colors",
			card: &cards.Card{
				ID:            "elves",
				Name:          "Llanowar Elves",
				CMC:           1,
				TypeLine:      "Creature — Elf Druid",
				ColorIdentity: []string{"G"},
				OracleText:    "{T}: Add {G}.",
				Power:         "1",
				Toughness:     "1",
				Rarity:        "common",
			},
			checkFn: func(t *testing.T, emb *models.CardEmbedding) {
				if emb.Embedding[4] == 0 {
					t.Error("expected green color to be encoded")
				}
				if emb.Embedding[6] == 0 {
					t.Error("expected CMC 1 to be encoded at position 6")
				}
				if emb.Embedding[13] == 0 {
					t.Error("expected creature type to be encoded")
				}
				if emb.Embedding[21] == 0 {
					t.Error("expected common rarity to be encoded")
				}
				if emb.CardID != "elves" {
					t.Errorf("expected card id elves, got %s", emb.CardID)
				}
			},
		},
		{
			name: "instant with keywords",
			card: &cards.Card{
				ID:            "counterspell",
				Name:          "Counterspell",
				CMC:           2,
				TypeLine:      "Instant",
				ColorIdentity: []string{"U"},
				OracleText:    "Counter target spell.",
				Rarity:        "uncommon",
			},
			checkFn: func(t *testing.T, emb *models.CardEmbedding) {
				if emb.Embedding[1] == 0 {
					t.Error("expected blue color to be encoded")
				}
				if emb.Embedding[14] == 0 {
					t.Error("expected instant type to be encoded")
				}
				if emb.Embedding[35+keywordIndex("counter")] == 0 {
					t.Error("expected counter keyword to be encoded")
				}
				for i := 25; i < 35; i++ {
					if emb.Embedding[i] != 0 {
						t.Errorf("expected no stat buckets for a non-creature, got %v at %d", emb.Embedding[i], i)
					}
				}
			},
		},
		{
			name: "battle falls into other type",
			card: &cards.Card{ID: "battle", Name: "Invasion of Zendikar", TypeLine: "Battle — Siege"},
			checkFn: func(t *testing.T, emb *models.CardEmbedding) {
				if emb.Embedding[20] == 0 {
					t.Error("expected other type to be encoded")
				}
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			emb := generator.GenerateEmbedding(tt.card)
			if len(emb.Embedding) != models.EmbeddingDimensions {
				t.Fatalf("expected %d dimensions, got %d", models.EmbeddingDimensions, len(emb.Embedding))
			}

			var sum float64
			for _, v := range emb.Embedding {
				sum += v * v
			}
			if math.Abs(sum-1) > 1e-9 {
				t.Errorf("expected unit-length embedding, got squared norm %v", sum)
			}
			tt.checkFn(t, emb)
		})
	}
}

func TestGenerator_EmbedQuery(t *testing.T) {
	generator := NewGenerator()

	vec := generator.EmbedQuery("Magic: The Gathering cards that strengthen this deck with a control theme legal in commander")
	for _, kw := range []string{"counter", "destroy", "exile", "draw"} {
		if vec[35+keywordIndex(kw)] == 0 {
			t.Errorf("expected control theme to imply %q", kw)
		}
	}

	vec = generator.EmbedQuery("blue instants with flying")
	if vec[1] == 0 {
		t.Error("expected blue to be encoded")
	}
	if vec[14] == 0 {
		t.Error("expected instant to be encoded")
	}
	if vec[35+keywordIndex("flying")] == 0 {
		t.Error("expected flying to be encoded")
	}

	empty := generator.EmbedQuery("")
	for i, v := range empty {
		if v != 0 {
			t.Fatalf("expected zero vector, got %v at %d", v, i)
		}
	}
}

func TestCosineSimilarity(t *testing.T) {
	tests := []struct {
		name string
		a, b []float64
		want float64
	}{
		{"identical", []float64{1, 0}, []float64{1, 0}, 1},
		{"orthogonal", []float64{1, 0}, []float64{0, 1}, 0},
		{"zero vector", []float64{0, 0}, []float64{1, 0}, 0},
		{"length mismatch", []float64{1}, []float64{1, 0}, 0},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := CosineSimilarity(tt.a, tt.b); math.Abs(got-tt.want) > 1e-9 {
				t.Errorf("CosineSimilarity() = %v, want %v", got, tt.want)
			}
		})
	}
}
