package api

import (
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"
)

// GetNote handles GET /api/events/{id}/note.
//
//	@Summary		Get the personal note of an event
//	@Tags			notes
//	@Produce		json
//	@Param			id	path		string	true	"Event ID"
//	@Success		200	{object}	NoteResponse
//	@Security		BearerAuth
//	@Router			/events/{id}/note [get]
func (h *Handler) GetNote(w http.ResponseWriter, r *http.Request) {
	id := eventID(r)
	text, err := h.svc.Note(r.Context(), id)
	if err != nil {
		writeServiceError(w, "get note", err)
		return
	}
	writeJSON(w, http.StatusOK, NoteResponse{EventID: id, Text: text})
}

// SetNote handles PUT /api/events/{id}/note.
//
//	@Summary		Set or clear the personal note of an event
//	@Tags			notes
//	@Accept			json
//	@Produce		json
//	@Param			id		path		string		true	"Event ID"
//	@Param			body	body		NoteRequest	true	"Note text; blank clears"
//	@Success		200		{object}	NoteResponse
//	@Failure		400		{object}	errResponse
//	@Security		BearerAuth
//	@Router			/events/{id}/note [put]
func (h *Handler) SetNote(w http.ResponseWriter, r *http.Request) {
	var req NoteRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	id := eventID(r)
	if err := h.svc.SetNote(r.Context(), id, req.Text); err != nil {
		writeServiceError(w, "set note", err)
		return
	}
	text := req.Text
	if strings.TrimSpace(text) == "" {
		text = ""
	}
	writeJSON(w, http.StatusOK, NoteResponse{EventID: id, Text: text})
}

// ListFriendNotes handles GET /api/events/{id}/friend-notes.
//
//	@Summary		List friend notes of an event, newest first
//	@Tags			friend-notes
//	@Produce		json
//	@Param			id	path		string	true	"Event ID"
//	@Success		200	{object}	FriendNotesResponse
//	@Security		BearerAuth
//	@Router			/events/{id}/friend-notes [get]
func (h *Handler) ListFriendNotes(w http.ResponseWriter, r *http.Request) {
	id := eventID(r)
	list, err := h.svc.FriendNotes(r.Context(), id)
	if err != nil {
		writeServiceError(w, "list friend notes", err)
		return
	}
	writeJSON(w, http.StatusOK, FriendNotesResponse{EventID: id, Notes: list})
}

// AddFriendNote handles POST /api/events/{id}/friend-notes.
//
//	@Summary		Add a friend note
//	@Tags			friend-notes
//	@Accept			json
//	@Produce		json
//	@Param			id		path		string				true	"Event ID"
//	@Param			body	body		FriendNoteRequest	true	"Note; id is generated when empty"
//	@Success		201		{object}	models.FriendNote
//	@Failure		400		{object}	errResponse
//	@Security		BearerAuth
//	@Router			/events/{id}/friend-notes [post]
func (h *Handler) AddFriendNote(w http.ResponseWriter, r *http.Request) {
	var req FriendNoteRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	added, err := h.svc.AddFriendNote(r.Context(), eventID(r), req.note())
	if err != nil {
		writeServiceError(w, "add friend note", err)
		return
	}
	writeJSON(w, http.StatusCreated, added)
}

// UpdateFriendNote handles PUT /api/events/{id}/friend-notes/{noteID}.
//
//	@Summary		Replace a friend note in place
//	@Tags			friend-notes
//	@Accept			json
//	@Produce		json
//	@Param			id		path		string				true	"Event ID"
//	@Param			noteID	path		string				true	"Friend note ID"
//	@Param			body	body		FriendNoteRequest	true	"Replacement"
//	@Success		200		{object}	models.FriendNote
//	@Failure		400		{object}	errResponse
//	@Failure		404		{object}	errResponse
//	@Security		BearerAuth
//	@Router			/events/{id}/friend-notes/{noteID} [put]
func (h *Handler) UpdateFriendNote(w http.ResponseWriter, r *http.Request) {
	var req FriendNoteRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	note := req.note()
	note.ID = chi.URLParam(r, "noteID")
	if err := h.svc.UpdateFriendNote(r.Context(), eventID(r), note); err != nil {
		writeServiceError(w, "update friend note", err)
		return
	}
	writeJSON(w, http.StatusOK, note)
}

// RemoveFriendNote handles DELETE /api/events/{id}/friend-notes/{noteID}.
//
//	@Summary		Delete a friend note
//	@Tags			friend-notes
//	@Param			id		path	string	true	"Event ID"
//	@Param			noteID	path	string	true	"Friend note ID"
//	@Success		204		"Deleted (or did not exist)"
//	@Security		BearerAuth
//	@Router			/events/{id}/friend-notes/{noteID} [delete]
func (h *Handler) RemoveFriendNote(w http.ResponseWriter, r *http.Request) {
	if err := h.svc.RemoveFriendNote(r.Context(), eventID(r), chi.URLParam(r, "noteID")); err != nil {
		writeServiceError(w, "remove friend note", err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
