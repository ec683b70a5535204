package api

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/ramonehamilton/mtg-deck-advisor/internal/api/handlers"
	"github.com/ramonehamilton/mtg-deck-advisor/internal/api/response"
)

// setupRoutes configures all API routes.
func (s *Server) setupRoutes() {
	// Health check endpoint (no versioning)
	s.router.Get("/health", s.healthCheck)

	s.router.Route("/api/v1", func(r chi.Router) {
		if s.engine != nil {
			opts := handlers.SuggestionOptions{
				Index:  s.index,
				Cards:  s.cards,
				Combos: s.combos,
			}
			if s.metrics != nil {
				opts.Stats = s.metrics
			}

			suggestionHandler := handlers.NewSuggestionHandler(s.engine, opts)
			r.Post("/suggestions", suggestionHandler.Suggest)
			r.Get("/stats", suggestionHandler.GetStats)
			r.Post("/stats/reset", suggestionHandler.ResetStats)
			r.Post("/cache/clear", suggestionHandler.ClearCache)
			r.Get("/schema/suggestion-request", suggestionHandler.GetRequestSchema)
		}

		if s.combos != nil {
			var onChange func()
			if s.engine != nil {
				// Cached answers may still reference a deleted combo.
				onChange = s.engine.ClearCaches
			}
			comboHandler := handlers.NewComboHandler(s.combos, onChange)
			r.Get("/combos/{comboID}", comboHandler.GetCombo)
			r.Delete("/combos/{comboID}", comboHandler.DeleteCombo)
		}

		if s.index != nil {
			cardHandler := handlers.NewCardHandler(s.index)
			r.Get("/cards/{cardID}/similar", cardHandler.GetSimilarCards)
		}
	})
}

// healthCheck returns server health status.
func (s *Server) healthCheck(w http.ResponseWriter, _ *http.Request) {
	response.JSON(w, http.StatusOK, map[string]interface{}{
		"status":  "healthy",
		"service": "mtg-deck-advisor-api",
	})
}
