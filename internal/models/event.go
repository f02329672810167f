// Package models defines the domain types for Huddle.
package models

import (
	validation "github.com/go-ozzo/ozzo-validation/v4"
)

// Storage keys. Values must stay stable so that previously persisted data keeps loading.
const (
	SavedKey     = "SAVED_EVENTS_V1"
	RSVPedKey    = "RSVPED_EVENTS_V1"
	NotesKey     = "EVENT_NOTES_V1"
	NotesListKey = "EVENT_NOTES_LIST_V1"
)

// SavedEvent is a bookmarked or RSVP'd event. Only ID carries identity; the other
// fields are a display cache captured at save time.
type SavedEvent struct {
	ID       string `json:"id"`
	Title    string `json:"title,omitempty"`
	Subtitle string `json:"subtitle,omitempty"`
	Location string `json:"location,omitempty"`
	Image    string `json:"image,omitempty"`
}

// Validate validates the event.
func (e SavedEvent) Validate() error {
	return validation.ValidateStruct(&e,
		validation.Field(&e.ID, validation.Required, validation.Length(1, 256)),
		validation.Field(&e.Title, validation.Length(0, 512)),
		validation.Field(&e.Image, validation.Length(0, 2048)),
	)
}

// FriendNote is a short attributed comment attached to an event.
type FriendNote struct {
	ID     string `json:"id"`
	Author string `json:"author"`
	Avatar string `json:"avatar,omitempty"`
	Text   string `json:"text"`
}

// Validate validates the note. ID may be empty; stores assign one on insert.
func (n FriendNote) Validate() error {
	return validation.ValidateStruct(&n,
		validation.Field(&n.Author, validation.Required, validation.Length(1, 128)),
		validation.Field(&n.Text, validation.Required, validation.Length(1, 4096)),
	)
}
