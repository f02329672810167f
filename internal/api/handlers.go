package api

import (
	"log/slog"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"

	"github.com/starford/huddle/internal/checksum"
	"github.com/starford/huddle/internal/collection"
	"github.com/starford/huddle/internal/eventservice"
	"github.com/starford/huddle/internal/models"
)

// Handler holds API route handlers.
type Handler struct {
	svc *eventservice.Service
}

// NewHandler creates a new Handler.
func NewHandler(svc *eventservice.Service) *Handler {
	return &Handler{svc: svc}
}

func eventID(r *http.Request) string {
	return strings.TrimSpace(chi.URLParam(r, "id"))
}

// ListSaved handles GET /api/saved.
//
//	@Summary		List saved events, newest first
//	@Tags			saved
//	@Produce		json
//	@Param			If-None-Match	header	string	false	"ETag of a previous listing"
//	@Success		200		{object}	CollectionResponse
//	@Success		304		"Not modified"
//	@Security		BearerAuth
//	@Router			/saved [get]
func (h *Handler) ListSaved(w http.ResponseWriter, r *http.Request) {
	h.listCollection(w, r, h.svc.Saved())
}

// ListRSVPed handles GET /api/rsvped.
//
//	@Summary		List RSVP'd events, newest first
//	@Tags			rsvped
//	@Produce		json
//	@Param			If-None-Match	header	string	false	"ETag of a previous listing"
//	@Success		200		{object}	CollectionResponse
//	@Success		304		"Not modified"
//	@Security		BearerAuth
//	@Router			/rsvped [get]
func (h *Handler) ListRSVPed(w http.ResponseWriter, r *http.Request) {
	h.listCollection(w, r, h.svc.RSVPed())
}

// listCollection writes the list with an ETag over its JSON encoding so
// polling clients can skip unchanged snapshots.
func (h *Handler) listCollection(w http.ResponseWriter, r *http.Request, store *collection.Store) {
	events, err := store.List(r.Context())
	if err != nil {
		writeServiceError(w, "list "+store.Key(), err)
		return
	}
	etag, err := checksum.ETag(events)
	if err != nil {
		slog.Error("etag failed", slog.String("key", store.Key()), slog.String("error", err.Error()))
		writeJSON(w, http.StatusInternalServerError, errorBody("internal error"))
		return
	}
	w.Header().Set("ETag", etag)
	if r.Header.Get("If-None-Match") == etag {
		w.WriteHeader(http.StatusNotModified)
		return
	}
	writeJSON(w, http.StatusOK, CollectionResponse{Events: events, Total: len(events)})
}

// SaveEvent handles POST /api/saved.
//
//	@Summary		Save an event
//	@Description	Saving an event that is already saved is a no-op.
//	@Tags			saved
//	@Accept			json
//	@Produce		json
//	@Param			body	body		EventRequest	true	"Event to save"
//	@Success		201		{object}	models.SavedEvent
//	@Failure		400		{object}	errResponse
//	@Security		BearerAuth
//	@Router			/saved [post]
func (h *Handler) SaveEvent(w http.ResponseWriter, r *http.Request) {
	var req EventRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	if err := h.svc.Save(r.Context(), req.SavedEvent); err != nil {
		writeServiceError(w, "save event", err)
		return
	}
	writeJSON(w, http.StatusCreated, req.SavedEvent)
}

// UnsaveEvent handles DELETE /api/saved/{id}.
//
//	@Summary		Remove an event from Saved
//	@Tags			saved
//	@Param			id	path	string	true	"Event ID"
//	@Success		204	"Removed (or was not saved)"
//	@Security		BearerAuth
//	@Router			/saved/{id} [delete]
func (h *Handler) UnsaveEvent(w http.ResponseWriter, r *http.Request) {
	if err := h.svc.Unsave(r.Context(), eventID(r)); err != nil {
		writeServiceError(w, "unsave event", err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// ToggleSaved handles POST /api/saved/{id}/toggle.
//
//	@Summary		Toggle the bookmark of an event
//	@Tags			saved
//	@Accept			json
//	@Produce		json
//	@Param			id		path		string			true	"Event ID"
//	@Param			body	body		ToggleRequest	false	"Display fields used when the event gets saved"
//	@Success		200		{object}	ToggleResponse
//	@Failure		400		{object}	errResponse
//	@Security		BearerAuth
//	@Router			/saved/{id}/toggle [post]
func (h *Handler) ToggleSaved(w http.ResponseWriter, r *http.Request) {
	var req ToggleRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	evt := models.SavedEvent{
		ID:       eventID(r),
		Title:    req.Title,
		Subtitle: req.Subtitle,
		Location: req.Location,
		Image:    req.Image,
	}
	saved, err := h.svc.ToggleSaved(r.Context(), evt)
	if err != nil {
		writeServiceError(w, "toggle saved", err)
		return
	}
	writeJSON(w, http.StatusOK, ToggleResponse{ID: evt.ID, Saved: saved})
}

// RSVPEvent handles POST /api/rsvped.
//
//	@Summary		RSVP to an event
//	@Description	Adds the event to RSVP'd and removes it from Saved.
//	@Tags			rsvped
//	@Accept			json
//	@Produce		json
//	@Param			body	body		EventRequest	true	"Event to RSVP"
//	@Success		201		{object}	models.SavedEvent
//	@Failure		400		{object}	errResponse
//	@Security		BearerAuth
//	@Router			/rsvped [post]
func (h *Handler) RSVPEvent(w http.ResponseWriter, r *http.Request) {
	var req EventRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	if err := h.svc.RSVP(r.Context(), req.SavedEvent); err != nil {
		writeServiceError(w, "rsvp event", err)
		return
	}
	writeJSON(w, http.StatusCreated, req.SavedEvent)
}

// CancelRSVP handles DELETE /api/rsvped/{id}.
//
//	@Summary		Cancel an RSVP
//	@Tags			rsvped
//	@Param			id	path	string	true	"Event ID"
//	@Success		204	"Cancelled (or was not RSVP'd)"
//	@Security		BearerAuth
//	@Router			/rsvped/{id} [delete]
func (h *Handler) CancelRSVP(w http.ResponseWriter, r *http.Request) {
	if err := h.svc.CancelRSVP(r.Context(), eventID(r)); err != nil {
		writeServiceError(w, "cancel rsvp", err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// EventStatus handles GET /api/events/{id}/status.
//
//	@Summary		Saved / RSVP'd flags, personal note and friend note count of an event
//	@Tags			events
//	@Produce		json
//	@Param			id	path		string	true	"Event ID"
//	@Success		200	{object}	EventStatus
//	@Security		BearerAuth
//	@Router			/events/{id}/status [get]
func (h *Handler) EventStatus(w http.ResponseWriter, r *http.Request) {
	st, err := h.svc.Status(r.Context(), eventID(r))
	if err != nil {
		writeServiceError(w, "event status", err)
		return
	}
	writeJSON(w, http.StatusOK, st)
}
