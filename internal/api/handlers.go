package api

import (
	"encoding/json"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/BrayneSnax/pdaok/internal/insight"
	"github.com/BrayneSnax/pdaok/internal/models"
	"github.com/BrayneSnax/pdaok/internal/state"
	"github.com/BrayneSnax/pdaok/internal/transmit"
)

// Handler holds API route handlers.
type Handler struct {
	ctrl   *state.Controller
	reader *transmit.Reader
	cache  *insight.Cache
}

// NewHandler creates a new Handler.
func NewHandler(ctrl *state.Controller, reader *transmit.Reader, cache *insight.Cache) *Handler {
	return &Handler{ctrl: ctrl, reader: reader, cache: cache}
}

// decode parses and validates a JSON request body.
func decode[T interface{ Validate() error }](w http.ResponseWriter, r *http.Request) (T, bool) {
	var req T
	r.Body = http.MaxBytesReader(w, r.Body, 1<<20)
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, errorBody("invalid JSON body"))
		return req, false
	}
	if err := req.Validate(); err != nil {
		writeJSON(w, http.StatusBadRequest, errorBody(err.Error()))
		return req, false
	}
	return req, true
}

// GetState handles GET /api/state.
func (h *Handler) GetState(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, h.ctrl.Snapshot())
}

// RefreshContainer handles POST /api/state/container.
func (h *Handler) RefreshContainer(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, ContainerResponse{ActiveContainer: h.ctrl.RefreshContainer()})
}

// AppendJournal handles POST /api/journal.
func (h *Handler) AppendJournal(w http.ResponseWriter, r *http.Request) {
	req, ok := decode[MomentRequest](w, r)
	if !ok {
		return
	}
	writeJSON(w, http.StatusCreated, h.ctrl.AppendJournalEntry(req.Moment()))
}

// AppendSubstanceJournal handles POST /api/substance-journal.
func (h *Handler) AppendSubstanceJournal(w http.ResponseWriter, r *http.Request) {
	req, ok := decode[MomentRequest](w, r)
	if !ok {
		return
	}
	writeJSON(w, http.StatusCreated, h.ctrl.AppendSubstanceEntry(req.Moment()))
}

// UpsertItem handles POST /api/items.
func (h *Handler) UpsertItem(w http.ResponseWriter, r *http.Request) {
	req, ok := decode[ItemRequest](w, r)
	if !ok {
		return
	}
	writeJSON(w, http.StatusOK, h.ctrl.UpsertItem(req.Item()))
}

// AddCompletion handles POST /api/completions.
func (h *Handler) AddCompletion(w http.ResponseWriter, r *http.Request) {
	req, ok := decode[CompletionRequest](w, r)
	if !ok {
		return
	}
	h.ctrl.AddCompletion(req.ItemID, req.Date)
	w.WriteHeader(http.StatusNoContent)
}

// AddPattern handles POST /api/patterns.
func (h *Handler) AddPattern(w http.ResponseWriter, r *http.Request) {
	req, ok := decode[TextRequest](w, r)
	if !ok {
		return
	}
	writeJSON(w, http.StatusCreated, h.ctrl.AddPattern(req.Text))
}

// AddDreamseed handles POST /api/dreamseeds.
func (h *Handler) AddDreamseed(w http.ResponseWriter, r *http.Request) {
	req, ok := decode[TextRequest](w, r)
	if !ok {
		return
	}
	writeJSON(w, http.StatusCreated, h.ctrl.AddDreamseed(req.Text))
}

// AddFoodEntry handles POST /api/food.
func (h *Handler) AddFoodEntry(w http.ResponseWriter, r *http.Request) {
	req, ok := decode[TextRequest](w, r)
	if !ok {
		return
	}
	writeJSON(w, http.StatusCreated, h.ctrl.AddFoodEntry(req.Text))
}

// AddFieldWhisper handles POST /api/whispers.
func (h *Handler) AddFieldWhisper(w http.ResponseWriter, r *http.Request) {
	req, ok := decode[TextRequest](w, r)
	if !ok {
		return
	}
	writeJSON(w, http.StatusCreated, h.ctrl.AddFieldWhisper(req.Text))
}

// AddConversation handles POST /api/conversations.
func (h *Handler) AddConversation(w http.ResponseWriter, r *http.Request) {
	req, ok := decode[ConversationRequest](w, r)
	if !ok {
		return
	}
	writeJSON(w, http.StatusCreated, h.ctrl.AddConversation(req.Entity, req.Role, req.Text))
}

// ListTransmissions handles GET /api/transmissions.
func (h *Handler) ListTransmissions(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, h.reader.Snapshot())
}

// MarkTransmissionRead handles POST /api/transmissions/{id}/read.
// Unknown ids are a no-op, matching the store contract.
func (h *Handler) MarkTransmissionRead(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	if id == "" {
		writeJSON(w, http.StatusBadRequest, errorBody("id is required"))
		return
	}
	if err := h.reader.MarkRead(id); err != nil {
		slog.Error("mark read failed", slog.String("id", id), slog.String("error", err.Error()))
		writeJSON(w, http.StatusInternalServerError, errorBody("internal error"))
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// CheckTransmissions handles POST /api/transmissions/check: an
// immediate eligibility pass that skips the elapsed-time guard only.
func (h *Handler) CheckTransmissions(w http.ResponseWriter, r *http.Request) {
	created := h.reader.ForceCheck(r.Context())
	if created == nil {
		created = []models.Transmission{}
	}
	writeJSON(w, http.StatusOK, map[string]any{"created": created})
}

// ClearTransmissions handles DELETE /api/transmissions.
func (h *Handler) ClearTransmissions(w http.ResponseWriter, _ *http.Request) {
	if err := h.reader.ClearAll(); err != nil {
		slog.Error("clear transmissions failed", slog.String("error", err.Error()))
		writeJSON(w, http.StatusInternalServerError, errorBody("internal error"))
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// GetSynthesis handles GET /api/synthesis. Always a string, never an
// error payload: failures inside fall back to the default message.
func (h *Handler) GetSynthesis(w http.ResponseWriter, r *http.Request) {
	snap := h.ctrl.Snapshot()
	writeJSON(w, http.StatusOK, SynthesisResponse{
		Date: h.cache.DateKey(),
		Text: h.cache.Synthesize(r.Context(), &snap),
	})
}
