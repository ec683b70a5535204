package handlers

import (
	"context"
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/ramonehamilton/mtg-deck-advisor/internal/api/response"
	"github.com/ramonehamilton/mtg-deck-advisor/internal/mtg/combos"
	"github.com/ramonehamilton/mtg-deck-advisor/internal/storage/repository"
)

// ComboCatalog is the combo knowledge base as the API sees it.
type ComboCatalog interface {
	GetCombo(ctx context.Context, id string) (*combos.Combo, error)
	DeleteCombo(ctx context.Context, id string) error
	GetComboCount(ctx context.Context) (int, error)
}

// ComboHandler handles combo API requests.
type ComboHandler struct {
	combos   ComboCatalog
	onChange func()
}

// NewComboHandler creates a new ComboHandler. onChange, when set, runs after
// the knowledge base was modified.
func NewComboHandler(combos ComboCatalog, onChange func()) *ComboHandler {
	return &ComboHandler{combos: combos, onChange: onChange}
}

// GetCombo returns a single combo by ID.
// GET /api/v1/combos/{comboID}
func (h *ComboHandler) GetCombo(w http.ResponseWriter, r *http.Request) {
	comboID := chi.URLParam(r, "comboID")
	if comboID == "" {
		response.BadRequest(w, errors.New("combo ID is required"))
		return
	}

	combo, err := h.combos.GetCombo(r.Context(), comboID)
	if errors.Is(err, repository.ErrComboNotFound) {
		response.NotFound(w, err)
		return
	}
	if err != nil {
		response.InternalError(w, err)
		return
	}

	response.Success(w, combo)
}

// DeleteCombo removes a combo from the knowledge base.
// DELETE /api/v1/combos/{comboID}
func (h *ComboHandler) DeleteCombo(w http.ResponseWriter, r *http.Request) {
	comboID := chi.URLParam(r, "comboID")
	if comboID == "" {
		response.BadRequest(w, errors.New("combo ID is required"))
		return
	}

	err := h.combos.DeleteCombo(r.Context(), comboID)
	if errors.Is(err, repository.ErrComboNotFound) {
		response.NotFound(w, err)
		return
	}
	if err != nil {
		response.InternalError(w, err)
		return
	}

	if h.onChange != nil {
		h.onChange()
	}
	response.Success(w, map[string]string{"status": "deleted", "id": comboID})
}
