package api

import (
	validation "github.com/go-ozzo/ozzo-validation/v4"

	"github.com/starford/huddle/internal/eventservice"
	"github.com/starford/huddle/internal/models"
)

// EventRequest is the request body for saving or RSVP'ing an event.
type EventRequest struct {
	models.SavedEvent
}

// Validate validates the request.
func (r *EventRequest) Validate() error {
	return r.SavedEvent.Validate()
}

// CollectionResponse wraps a Saved or RSVP'd listing.
type CollectionResponse struct {
	Events []models.SavedEvent `json:"events" validate:"required"`
	Total  int                 `json:"total" example:"3" validate:"required"`
}

// ToggleRequest optionally carries the display fields captured when the
// toggle adds the event.
type ToggleRequest struct {
	Title    string `json:"title,omitempty" example:"Spring Career Fair"`
	Subtitle string `json:"subtitle,omitempty" example:"Tue 10:00"`
	Location string `json:"location,omitempty" example:"Student Union"`
	Image    string `json:"image,omitempty"`
}

// Validate validates the request.
func (r *ToggleRequest) Validate() error {
	return validation.ValidateStruct(r,
		validation.Field(&r.Title, validation.Length(0, 512)),
		validation.Field(&r.Image, validation.Length(0, 2048)),
	)
}

// ToggleResponse reports membership after a toggle.
type ToggleResponse struct {
	ID    string `json:"id" example:"evt-42" validate:"required"`
	Saved bool   `json:"saved"`
}

// NoteRequest is the request body for setting a personal note. Blank text
// clears the note.
type NoteRequest struct {
	Text string `json:"text" example:"Bring a resume"`
}

// Validate validates the request.
func (r *NoteRequest) Validate() error {
	return validation.ValidateStruct(r,
		validation.Field(&r.Text, validation.Length(0, 8192)),
	)
}

// NoteResponse is a personal note. Text is empty when none is stored.
type NoteResponse struct {
	EventID string `json:"event_id" example:"evt-42" validate:"required"`
	Text    string `json:"text"`
}

// FriendNoteRequest is the request body for adding or updating a friend note.
type FriendNoteRequest struct {
	ID     string `json:"id,omitempty"`
	Author string `json:"author" example:"Maya" validate:"required"`
	Avatar string `json:"avatar,omitempty"`
	Text   string `json:"text" example:"Saving you a seat" validate:"required"`
}

// Validate validates the request.
func (r *FriendNoteRequest) Validate() error {
	return r.note().Validate()
}

func (r *FriendNoteRequest) note() models.FriendNote {
	return models.FriendNote{ID: r.ID, Author: r.Author, Avatar: r.Avatar, Text: r.Text}
}

// FriendNotesResponse wraps an event's friend notes, newest first.
type FriendNotesResponse struct {
	EventID string              `json:"event_id" validate:"required"`
	Notes   []models.FriendNote `json:"notes" validate:"required"`
}

// EventStatus is the per-event status response (aliased from the domain layer).
type EventStatus = eventservice.EventStatus
