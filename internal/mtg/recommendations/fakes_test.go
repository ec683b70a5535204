package recommendations

import (
	"bytes"
	"context"
	"errors"
	"log/slog"
	"sort"
	"strings"
	"time"

	"github.com/ramonehamilton/mtg-deck-advisor/internal/mtg/cards"
	"github.com/ramonehamilton/mtg-deck-advisor/internal/mtg/combos"
)

var errUnavailable = errors.New("collaborator unavailable")

type fakeSearcher struct {
	hits  []SearchHit
	err   error
	delay time.Duration
	calls int
}

func (f *fakeSearcher) Search(_ context.Context, _ string, limit int, _ map[string]string) ([]SearchHit, error) {
	f.calls++
	time.Sleep(f.delay)
	if f.err != nil {
		return nil, f.err
	}
	if limit > 0 && len(f.hits) > limit {
		return f.hits[:limit], nil
	}
	return f.hits, nil
}

type fakeCards struct {
	byID map[string]*cards.Card
}

func newFakeCards(list ...*cards.Card) *fakeCards {
	f := &fakeCards{byID: make(map[string]*cards.Card)}
	for _, c := range list {
		f.byID[c.ID] = c
	}
	return f
}

func (f *fakeCards) GetCardByName(_ context.Context, name string) (*cards.Card, error) {
	for _, c := range f.byID {
		if strings.EqualFold(c.Name, name) {
			return c, nil
		}
	}
	return nil, nil
}

func (f *fakeCards) GetCardByID(_ context.Context, id string, _ bool) (*cards.Card, error) {
	return f.byID[id], nil
}

// fakeComboStore answers by the sorted pair of card ids in the query.
type fakeComboStore struct {
	byPair  map[string][]combos.Combo
	err     error
	calls   map[string]int
	queries []combos.Query
}

func newFakeComboStore() *fakeComboStore {
	return &fakeComboStore{
		byPair: make(map[string][]combos.Combo),
		calls:  make(map[string]int),
	}
}

func pairID(a, b string) string {
	ids := []string{a, b}
	sort.Strings(ids)
	return ids[0] + "|" + ids[1]
}

func (f *fakeComboStore) add(a, b string, list ...combos.Combo) {
	key := pairID(a, b)
	f.byPair[key] = append(f.byPair[key], list...)
}

func (f *fakeComboStore) Search(_ context.Context, q combos.Query) ([]combos.Combo, error) {
	f.queries = append(f.queries, q)
	key := pairID(q.CardIDs[0], q.CardIDs[1])
	f.calls[key]++
	if f.err != nil {
		return nil, f.err
	}
	return f.byPair[key], nil
}

type fakeExplainer struct {
	err   error
	calls int
}

func (f *fakeExplainer) Generate(_ context.Context, prompt string) (string, error) {
	f.calls++
	if f.err != nil {
		return "", f.err
	}
	return "explained: " + prompt[:20], nil
}

type stageRecorder struct {
	stages  []string
	seconds map[string]float64
}

func (s *stageRecorder) ObserveStage(stage string, seconds float64) {
	s.stages = append(s.stages, stage)
	if s.seconds == nil {
		s.seconds = make(map[string]float64)
	}
	s.seconds[stage] = seconds
}

func bufferLogger() (*slog.Logger, *bytes.Buffer) {
	var buf bytes.Buffer
	return slog.New(slog.NewTextHandler(&buf, &slog.HandlerOptions{Level: slog.LevelDebug})), &buf
}

func price(v float64) *float64 { return &v }

var (
	atraxa = &cards.Card{
		ID:            "atraxa",
		Name:          "Atraxa, Praetors' Voice",
		ColorIdentity: []string{"W", "U", "B", "G"},
	}
	scepter = &cards.Card{
		ID:            "scepter",
		Name:          "Isochron Scepter",
		ColorIdentity: []string{},
		OracleText:    "Imprint - When Isochron Scepter enters, you may exile an instant card with mana value 2 or less from your hand.",
	}
	reversal = &cards.Card{
		ID:            "reversal",
		Name:          "Dramatic Reversal",
		ColorIdentity: []string{"U"},
		OracleText:    "Untap all nonland permanents you control.",
		PriceUSD:      price(0.5),
	}
	counterspell = &cards.Card{
		ID:            "counterspell",
		Name:          "Counterspell",
		ColorIdentity: []string{"U"},
		OracleText:    "Counter target spell. A staple of any control deck.",
		PriceUSD:      price(1.5),
	}
	solRing = &cards.Card{
		ID:            "sol-ring",
		Name:          "Sol Ring",
		ColorIdentity: []string{},
		Legalities:    map[string]string{"commander": "legal"},
	}
	bolt = &cards.Card{
		ID:            "bolt",
		Name:          "Lightning Bolt",
		ColorIdentity: []string{"R"},
		OracleText:    "Lightning Bolt deals 3 damage to any target.",
	}
	pauperOnly = &cards.Card{
		ID:            "pauper-only",
		Name:          "Banned Thing",
		ColorIdentity: []string{"U"},
		Legalities:    map[string]string{"commander": "banned"},
	}
)

func scepterCombo() combos.Combo {
	return combos.Combo{
		ID:            "scepter-reversal",
		CardIDs:       []string{"scepter", "reversal"},
		CardNames:     []string{"Isochron Scepter", "Dramatic Reversal"},
		ComboTypes:    []string{"infinite_mana"},
		Tags:          []string{"control", "artifact"},
		TotalPriceUSD: price(15),
		CardCount:     2,
		Complexity:    combos.ComplexityLow,
	}
}

func atraxaDeck() *Deck {
	return &Deck{
		Name:      "Superfriends",
		Format:    "Commander",
		Cards:     []string{"Isochron Scepter", "Sol Ring"},
		Commander: "Atraxa, Praetors' Voice",
		Metadata:  DeckMetadata{Theme: "control", Budget: "50"},
	}
}

func atraxaHits() []SearchHit {
	return []SearchHit{
		{ID: "reversal", Score: 0.9},
		{ID: "counterspell", Score: 0.8},
		{ID: "sol-ring", Score: 0.7},
		{ID: "pauper-only", Score: 0.65},
		{Score: 0.6, Metadata: map[string]any{"name": "Lightning Bolt"}},
	}
}
