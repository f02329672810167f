package notes

import (
	"context"
	"log/slog"
	"strings"

	"github.com/starford/huddle/internal/apperr"
	"github.com/starford/huddle/internal/kv"
	"github.com/starford/huddle/internal/models"
)

// Notes stores one personal note per event id.
type Notes struct {
	blob *blob[string]
}

// NewNotes creates the personal note store.
func NewNotes(backend kv.Backend, logger *slog.Logger) *Notes {
	return &Notes{blob: newBlob[string](models.NotesKey, backend, logger)}
}

// Get returns the note for eventID, or "" when there is none.
func (n *Notes) Get(ctx context.Context, eventID string) (string, error) {
	m, err := n.blob.load(ctx)
	if err != nil {
		return "", err
	}
	return m[eventID], nil
}

// Set stores text for eventID. Blank text (after trimming) removes the note.
// Non-blank text is stored as given.
func (n *Notes) Set(ctx context.Context, eventID, text string) error {
	if eventID == "" {
		return apperr.ErrInvalidID
	}
	return n.blob.update(ctx, func(m map[string]string) error {
		if strings.TrimSpace(text) == "" {
			delete(m, eventID)
		} else {
			m[eventID] = text
		}
		return nil
	})
}
