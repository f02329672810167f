package api

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/starford/huddle/internal/eventservice"
)

// NewRouter creates a chi router with all API routes mounted.
// authEnabled controls whether Bearer token auth is enforced.
// sseHandler, if non-nil, is mounted at GET /stream inside the auth group.
func NewRouter(svc *eventservice.Service, authEnabled bool, token string, sseHandler http.Handler) chi.Router {
	h := NewHandler(svc)

	r := chi.NewRouter()
	r.Use(AuthMiddleware(authEnabled, token))

	// Collections.
	r.Get("/saved", h.ListSaved)
	r.Post("/saved", h.SaveEvent)
	r.Delete("/saved/{id}", h.UnsaveEvent)
	r.Post("/saved/{id}/toggle", h.ToggleSaved)

	r.Get("/rsvped", h.ListRSVPed)
	r.Post("/rsvped", h.RSVPEvent)
	r.Delete("/rsvped/{id}", h.CancelRSVP)

	// Per-event state.
	r.Route("/events/{id}", func(r chi.Router) {
		r.Get("/status", h.EventStatus)
		r.Get("/note", h.GetNote)
		r.Put("/note", h.SetNote)
		r.Get("/friend-notes", h.ListFriendNotes)
		r.Post("/friend-notes", h.AddFriendNote)
		r.Put("/friend-notes/{noteID}", h.UpdateFriendNote)
		r.Delete("/friend-notes/{noteID}", h.RemoveFriendNote)
	})

	// SSE endpoint (protected by same auth middleware).
	if sseHandler != nil {
		r.Get("/stream", sseHandler.ServeHTTP)
	}

	return r
}
