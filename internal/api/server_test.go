package api

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ramonehamilton/mtg-deck-advisor/internal/metrics"
	"github.com/ramonehamilton/mtg-deck-advisor/internal/mtg/combos"
	"github.com/ramonehamilton/mtg-deck-advisor/internal/mtg/embeddings"
	"github.com/ramonehamilton/mtg-deck-advisor/internal/mtg/recommendations"
	"github.com/ramonehamilton/mtg-deck-advisor/internal/storage/repository"
)

type stubEngine struct {
	calls atomic.Int32
}

func (s *stubEngine) Suggest(_ context.Context, _ *recommendations.Deck, _ recommendations.Constraints) []recommendations.Suggestion {
	s.calls.Add(1)
	return []recommendations.Suggestion{{Name: "Counterspell", CardID: "counterspell"}}
}

func (s *stubEngine) CacheStats() recommendations.CacheStats { return recommendations.CacheStats{} }

func (s *stubEngine) ClearCaches() {}

type stubCombos struct{}

func (stubCombos) GetCombo(_ context.Context, id string) (*combos.Combo, error) {
	if id == "known" {
		return &combos.Combo{ID: "known"}, nil
	}
	return nil, repository.ErrComboNotFound
}

func (stubCombos) DeleteCombo(_ context.Context, id string) error {
	if id == "known" {
		return nil
	}
	return repository.ErrComboNotFound
}

func (stubCombos) GetComboCount(context.Context) (int, error) { return 1, nil }

type stubIndex struct{ n int }

func (s stubIndex) GetSimilarCards(_ context.Context, cardID string, _ int) ([]embeddings.SimilarCard, error) {
	if cardID != "counterspell" {
		return nil, embeddings.ErrNoEmbedding
	}
	return []embeddings.SimilarCard{{CardID: "mana-leak", Rank: 1}}, nil
}

func (s stubIndex) Count(context.Context) (int, error) { return s.n, nil }

func newTestServer(t *testing.T, cfg *Config) (*httptest.Server, *stubEngine, *metrics.PipelineMetrics) {
	t.Helper()
	engine := &stubEngine{}
	m := metrics.NewPipelineMetrics(10)
	s := NewServer(cfg, Services{Engine: engine, Combos: stubCombos{}, Index: stubIndex{n: 1}, Metrics: m})
	ts := httptest.NewServer(s.Handler())
	t.Cleanup(ts.Close)
	return ts, engine, m
}

func TestNewServer_NilConfig(t *testing.T) {
	server := NewServer(nil, Services{})

	require.NotNil(t, server)
	assert.Equal(t, 8080, server.Port())
	assert.Equal(t, 60*time.Second, server.timeout)
}

func TestHealthCheck(t *testing.T) {
	ts, _, _ := newTestServer(t, nil)

	resp, err := http.Get(ts.URL + "/health")
	require.NoError(t, err)
	defer resp.Body.Close()

	assert.Equal(t, http.StatusOK, resp.StatusCode)
	var body map[string]string
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&body))
	assert.Equal(t, "healthy", body["status"])
}

func TestSuggestionRoute(t *testing.T) {
	ts, engine, m := newTestServer(t, nil)

	resp, err := http.Post(ts.URL+"/api/v1/suggestions", "application/json",
		bytes.NewBufferString(`{"deck": {"cards": ["Sol Ring"]}}`))
	require.NoError(t, err)
	defer resp.Body.Close()

	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.NotEmpty(t, resp.Header.Get("Content-Type"))
	assert.Equal(t, int32(1), engine.calls.Load())
	assert.Eventually(t, func() bool { return m.GetStats().APIRequests == 1 }, time.Second, 10*time.Millisecond)
}

func TestSuggestionRouteRequiresJSON(t *testing.T) {
	ts, engine, _ := newTestServer(t, nil)

	resp, err := http.Post(ts.URL+"/api/v1/suggestions", "text/plain", bytes.NewBufferString("deck"))
	require.NoError(t, err)
	defer resp.Body.Close()

	assert.Equal(t, http.StatusUnsupportedMediaType, resp.StatusCode)
	assert.Zero(t, engine.calls.Load())
}

func TestComboRoute(t *testing.T) {
	ts, _, _ := newTestServer(t, nil)

	for id, want := range map[string]int{"known": http.StatusOK, "unknown": http.StatusNotFound} {
		resp, err := http.Get(ts.URL + "/api/v1/combos/" + id)
		require.NoError(t, err)
		resp.Body.Close()
		assert.Equal(t, want, resp.StatusCode, id)
	}
}

func TestDeleteComboRoute(t *testing.T) {
	ts, _, _ := newTestServer(t, nil)

	for id, want := range map[string]int{"known": http.StatusOK, "unknown": http.StatusNotFound} {
		req, err := http.NewRequest(http.MethodDelete, ts.URL+"/api/v1/combos/"+id, nil)
		require.NoError(t, err)
		resp, err := http.DefaultClient.Do(req)
		require.NoError(t, err)
		resp.Body.Close()
		assert.Equal(t, want, resp.StatusCode, id)
	}
}

func TestSuggestionRouteEmptyIndex(t *testing.T) {
	engine := &stubEngine{}
	ts := httptest.NewServer(NewServer(nil, Services{Engine: engine, Index: stubIndex{}}).Handler())
	t.Cleanup(ts.Close)

	resp, err := http.Post(ts.URL+"/api/v1/suggestions", "application/json",
		bytes.NewBufferString(`{"deck": {"cards": ["Sol Ring"]}}`))
	require.NoError(t, err)
	defer resp.Body.Close()

	assert.Equal(t, http.StatusServiceUnavailable, resp.StatusCode)
	assert.Zero(t, engine.calls.Load())
}

func TestRoutesAreRegistered(t *testing.T) {
	ts, _, _ := newTestServer(t, nil)

	tests := []struct {
		method string
		path   string
	}{
		{http.MethodGet, "/api/v1/stats"},
		{http.MethodPost, "/api/v1/stats/reset"},
		{http.MethodPost, "/api/v1/cache/clear"},
		{http.MethodGet, "/api/v1/cards/counterspell/similar"},
		{http.MethodGet, "/api/v1/schema/suggestion-request"},
	}
	for _, tt := range tests {
		req, err := http.NewRequest(tt.method, ts.URL+tt.path, nil)
		require.NoError(t, err)
		resp, err := http.DefaultClient.Do(req)
		require.NoError(t, err)
		resp.Body.Close()
		assert.Equal(t, http.StatusOK, resp.StatusCode, tt.path)
	}
}

func TestCORS(t *testing.T) {
	ts, _, _ := newTestServer(t, &Config{AllowedOrigins: []string{"https://decks.example"}})

	preflight := func(origin string) *http.Response {
		req, err := http.NewRequest(http.MethodOptions, ts.URL+"/api/v1/suggestions", nil)
		require.NoError(t, err)
		req.Header.Set("Origin", origin)
		req.Header.Set("Access-Control-Request-Method", http.MethodPost)
		resp, err := http.DefaultClient.Do(req)
		require.NoError(t, err)
		resp.Body.Close()
		return resp
	}

	assert.Equal(t, "https://decks.example", preflight("https://decks.example").Header.Get("Access-Control-Allow-Origin"))
	assert.Empty(t, preflight("https://evil.example").Header.Get("Access-Control-Allow-Origin"))
}

func TestListenAndServeStopsOnCancel(t *testing.T) {
	l, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)
	port := l.Addr().(*net.TCPAddr).Port
	require.NoError(t, l.Close())

	server := NewServer(&Config{Port: port}, Services{Engine: &stubEngine{}})
	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- server.ListenAndServe(ctx) }()

	require.Eventually(t, func() bool {
		resp, err := http.Get(fmt.Sprintf("http://127.0.0.1:%d/health", port))
		if err != nil {
			return false
		}
		resp.Body.Close()
		return resp.StatusCode == http.StatusOK
	}, 5*time.Second, 20*time.Millisecond)

	cancel()
	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(15 * time.Second):
		t.Fatal("server did not stop")
	}
}
