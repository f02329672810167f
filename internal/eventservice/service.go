// Package eventservice is the facade screens use to read and change the
// per-user event state: the Saved and RSVP'd collections and both note stores.
//
// The storage layer lets an event sit in Saved and RSVP'd at the same time.
// This package layers the app's policy on top: RSVP'ing moves an event out of
// Saved.
package eventservice

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/starford/huddle/internal/bus"
	"github.com/starford/huddle/internal/collection"
	"github.com/starford/huddle/internal/kv"
	"github.com/starford/huddle/internal/models"
	"github.com/starford/huddle/internal/notes"
)

// Note change kinds passed to NoteChangeFunc.
const (
	NoteKindNote        = "note"
	NoteKindFriendNotes = "friend_notes"
)

// NoteChangeFunc is called after a successful note mutation. eventID is empty
// when the whole note map was replaced externally.
type NoteChangeFunc func(kind, eventID string)

// NoteChange is one note mutation as carried by the note hook registry.
type NoteChange struct {
	Kind    string
	EventID string
}

// EventStatus is what a feed card or the detail modal derives for one event.
type EventStatus struct {
	ID          string `json:"id"`
	Saved       bool   `json:"saved"`
	RSVPed      bool   `json:"rsvped"`
	Note        string `json:"note"`
	FriendNotes int    `json:"friend_notes"`
}

// Service coordinates the collections and note stores over one backend.
type Service struct {
	saved   *collection.Store
	rsvped  *collection.Store
	notes   *notes.Notes
	friends *notes.FriendNotes
	logger  *slog.Logger

	noteHooks *bus.Registry[NoteChange]
}

// NewService builds every store over backend.
func NewService(backend kv.Backend, logger *slog.Logger) *Service {
	return &Service{
		saved:   collection.New(models.SavedKey, backend, logger),
		rsvped:  collection.New(models.RSVPedKey, backend, logger),
		notes:   notes.NewNotes(backend, logger),
		friends: notes.NewFriendNotes(backend, logger),
		logger:  logger,

		noteHooks: bus.New[NoteChange]("note_changes", logger),
	}
}

// Saved returns the Saved collection.
func (s *Service) Saved() *collection.Store { return s.saved }

// RSVPed returns the RSVP'd collection.
func (s *Service) RSVPed() *collection.Store { return s.rsvped }

// OnNoteChange registers fn for note mutations and returns the function that
// removes it. Note stores have no registry of their own, so this is the only
// way to observe them. A panicking fn is logged and does not affect the
// mutation or other hooks.
func (s *Service) OnNoteChange(fn NoteChangeFunc) bus.Unsubscribe {
	return s.noteHooks.Subscribe(func(changes []NoteChange) {
		for _, c := range changes {
			fn(c.Kind, c.EventID)
		}
	})
}

func (s *Service) noteChanged(kind, eventID string) {
	s.noteHooks.Notify([]NoteChange{{Kind: kind, EventID: eventID}})
}

// Save adds evt to Saved.
func (s *Service) Save(ctx context.Context, evt models.SavedEvent) error {
	return s.saved.Add(ctx, evt)
}

// Unsave removes id from Saved.
func (s *Service) Unsave(ctx context.Context, id string) error {
	return s.saved.Remove(ctx, id)
}

// ToggleSaved flips evt's membership in Saved and reports the new state.
func (s *Service) ToggleSaved(ctx context.Context, evt models.SavedEvent) (bool, error) {
	in, err := s.saved.Contains(ctx, evt.ID)
	if err != nil {
		return false, err
	}
	if in {
		return false, s.saved.Remove(ctx, evt.ID)
	}
	if err := s.saved.Add(ctx, evt); err != nil {
		return false, err
	}
	return true, nil
}

// RSVP adds evt to RSVP'd and then removes it from Saved.
func (s *Service) RSVP(ctx context.Context, evt models.SavedEvent) error {
	if err := s.rsvped.Add(ctx, evt); err != nil {
		return err
	}
	in, err := s.saved.Contains(ctx, evt.ID)
	if err != nil {
		return err
	}
	if !in {
		return nil
	}
	if err := s.saved.Remove(ctx, evt.ID); err != nil {
		return fmt.Errorf("eventservice: rsvp %s: leave saved: %w", evt.ID, err)
	}
	return nil
}

// CancelRSVP removes id from RSVP'd. The event does not return to Saved.
func (s *Service) CancelRSVP(ctx context.Context, id string) error {
	return s.rsvped.Remove(ctx, id)
}

// ToggleRSVP flips evt's RSVP state and reports the new state.
func (s *Service) ToggleRSVP(ctx context.Context, evt models.SavedEvent) (bool, error) {
	in, err := s.rsvped.Contains(ctx, evt.ID)
	if err != nil {
		return false, err
	}
	if in {
		return false, s.CancelRSVP(ctx, evt.ID)
	}
	if err := s.RSVP(ctx, evt); err != nil {
		return false, err
	}
	return true, nil
}

// Status gathers everything known about one event.
func (s *Service) Status(ctx context.Context, id string) (EventStatus, error) {
	st := EventStatus{ID: id}
	var err error
	if st.Saved, err = s.saved.Contains(ctx, id); err != nil {
		return st, err
	}
	if st.RSVPed, err = s.rsvped.Contains(ctx, id); err != nil {
		return st, err
	}
	if st.Note, err = s.notes.Get(ctx, id); err != nil {
		return st, err
	}
	if st.FriendNotes, err = s.friends.Count(ctx, id); err != nil {
		return st, err
	}
	return st, nil
}

// Note returns the personal note of eventID.
func (s *Service) Note(ctx context.Context, eventID string) (string, error) {
	return s.notes.Get(ctx, eventID)
}

// SetNote stores or clears the personal note of eventID.
func (s *Service) SetNote(ctx context.Context, eventID, text string) error {
	if err := s.notes.Set(ctx, eventID, text); err != nil {
		return err
	}
	s.noteChanged(NoteKindNote, eventID)
	return nil
}

// FriendNotes lists the friend notes of eventID, newest first.
func (s *Service) FriendNotes(ctx context.Context, eventID string) ([]models.FriendNote, error) {
	return s.friends.List(ctx, eventID)
}

// AddFriendNote prepends note to eventID's friend notes.
func (s *Service) AddFriendNote(ctx context.Context, eventID string, note models.FriendNote) (models.FriendNote, error) {
	added, err := s.friends.Add(ctx, eventID, note)
	if err != nil {
		return added, err
	}
	s.noteChanged(NoteKindFriendNotes, eventID)
	return added, nil
}

// UpdateFriendNote replaces a friend note in place.
func (s *Service) UpdateFriendNote(ctx context.Context, eventID string, note models.FriendNote) error {
	if err := s.friends.Update(ctx, eventID, note); err != nil {
		return err
	}
	s.noteChanged(NoteKindFriendNotes, eventID)
	return nil
}

// RemoveFriendNote deletes a friend note.
func (s *Service) RemoveFriendNote(ctx context.Context, eventID, noteID string) error {
	if err := s.friends.Remove(ctx, eventID, noteID); err != nil {
		return err
	}
	s.noteChanged(NoteKindFriendNotes, eventID)
	return nil
}

// Refresh re-publishes state stored under key after it changed outside this
// process.
func (s *Service) Refresh(ctx context.Context, key string) error {
	switch key {
	case models.SavedKey:
		return s.saved.Refresh(ctx)
	case models.RSVPedKey:
		return s.rsvped.Refresh(ctx)
	case models.NotesKey:
		s.noteChanged(NoteKindNote, "")
	case models.NotesListKey:
		s.noteChanged(NoteKindFriendNotes, "")
	default:
		s.logger.Debug("eventservice: ignoring change to unknown key", slog.String("key", key))
	}
	return nil
}
