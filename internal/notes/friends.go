package notes

import (
	"context"
	"log/slog"
	"slices"

	"github.com/google/uuid"

	"github.com/starford/huddle/internal/apperr"
	"github.com/starford/huddle/internal/kv"
	"github.com/starford/huddle/internal/models"
)

// FriendNotes stores an ordered, newest-first list of friend notes per event.
type FriendNotes struct {
	blob *blob[[]models.FriendNote]
}

// NewFriendNotes creates the friend note store.
func NewFriendNotes(backend kv.Backend, logger *slog.Logger) *FriendNotes {
	return &FriendNotes{blob: newBlob[[]models.FriendNote](models.NotesListKey, backend, logger)}
}

// List returns the notes of eventID, newest first.
func (f *FriendNotes) List(ctx context.Context, eventID string) ([]models.FriendNote, error) {
	m, err := f.blob.load(ctx)
	if err != nil {
		return nil, err
	}
	list := m[eventID]
	if list == nil {
		return []models.FriendNote{}, nil
	}
	return list, nil
}

// Count returns the number of notes attached to eventID.
func (f *FriendNotes) Count(ctx context.Context, eventID string) (int, error) {
	list, err := f.List(ctx, eventID)
	if err != nil {
		return 0, err
	}
	return len(list), nil
}

// Add prepends note to eventID's list and returns it. A note without an id
// gets a random one.
func (f *FriendNotes) Add(ctx context.Context, eventID string, note models.FriendNote) (models.FriendNote, error) {
	if eventID == "" {
		return models.FriendNote{}, apperr.ErrInvalidID
	}
	if note.ID == "" {
		note.ID = uuid.NewString()
	}
	err := f.blob.update(ctx, func(m map[string][]models.FriendNote) error {
		m[eventID] = slices.Insert(m[eventID], 0, note)
		return nil
	})
	if err != nil {
		return models.FriendNote{}, err
	}
	return note, nil
}

// Remove deletes the note with noteID from eventID's list. Removing an absent
// note succeeds. Events left without notes are dropped from the map; older
// clients stored such events as an empty list instead, and both shapes read
// back as no notes.
func (f *FriendNotes) Remove(ctx context.Context, eventID, noteID string) error {
	return f.blob.update(ctx, func(m map[string][]models.FriendNote) error {
		next := slices.DeleteFunc(m[eventID], func(n models.FriendNote) bool { return n.ID == noteID })
		if len(next) == 0 {
			delete(m, eventID)
		} else {
			m[eventID] = next
		}
		return nil
	})
}

// Update replaces the note whose id matches note.ID, keeping its position.
// It returns apperr.ErrNotFound, and writes nothing, when no note matches.
// Older clients silently succeeded in that case; callers that relied on it
// should ignore ErrNotFound.
func (f *FriendNotes) Update(ctx context.Context, eventID string, note models.FriendNote) error {
	return f.blob.update(ctx, func(m map[string][]models.FriendNote) error {
		list := m[eventID]
		i := slices.IndexFunc(list, func(n models.FriendNote) bool { return n.ID == note.ID })
		if i < 0 {
			return apperr.ErrNotFound
		}
		list[i] = note
		return nil
	})
}
