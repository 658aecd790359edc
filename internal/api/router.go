package api

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/BrayneSnax/pdaok/internal/insight"
	"github.com/BrayneSnax/pdaok/internal/state"
	"github.com/BrayneSnax/pdaok/internal/transmit"
)

// NewRouter creates a chi router with all API routes mounted.
// authEnabled controls whether Bearer token auth is enforced.
// sseHandler, if non-nil, is mounted at GET /events inside the auth group.
func NewRouter(ctrl *state.Controller, reader *transmit.Reader, cache *insight.Cache, authEnabled bool, token string, sseHandler http.Handler) chi.Router {
	h := NewHandler(ctrl, reader, cache)

	r := chi.NewRouter()
	r.Use(AuthMiddleware(authEnabled, token))

	// State document.
	r.Get("/state", h.GetState)
	r.Post("/state/container", h.RefreshContainer)

	// Journals and logs.
	r.Post("/journal", h.AppendJournal)
	r.Post("/substance-journal", h.AppendSubstanceJournal)
	r.Post("/items", h.UpsertItem)
	r.Post("/completions", h.AddCompletion)
	r.Post("/patterns", h.AddPattern)
	r.Post("/dreamseeds", h.AddDreamseed)
	r.Post("/food", h.AddFoodEntry)
	r.Post("/whispers", h.AddFieldWhisper)
	r.Post("/conversations", h.AddConversation)

	// Transmissions.
	r.Get("/transmissions", h.ListTransmissions)
	r.Post("/transmissions/check", h.CheckTransmissions)
	r.Post("/transmissions/{id}/read", h.MarkTransmissionRead)
	r.Delete("/transmissions", h.ClearTransmissions)

	// Daily synthesis.
	r.Get("/synthesis", h.GetSynthesis)

	// SSE endpoint (protected by same auth middleware).
	if sseHandler != nil {
		r.Get("/events", sseHandler.ServeHTTP)
	}

	return r
}
