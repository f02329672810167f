package eventservice

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/starford/huddle/internal/apperr"
	"github.com/starford/huddle/internal/kv"
	"github.com/starford/huddle/internal/models"
	"github.com/starford/huddle/internal/testutil"
)

func newService(t *testing.T) (*Service, kv.Backend) {
	t.Helper()
	b := kv.NewMemory()
	return NewService(b, testutil.Logger()), b
}

func listIDs(t *testing.T, list []models.SavedEvent) []string {
	t.Helper()
	out := make([]string, len(list))
	for i, e := range list {
		out[i] = e.ID
	}
	return out
}

func TestToggleSaved(t *testing.T) {
	ctx := context.Background()
	svc, _ := newService(t)
	evt := models.SavedEvent{ID: "evt-1", Title: "Jam"}

	saved, err := svc.ToggleSaved(ctx, evt)
	require.NoError(t, err)
	assert.True(t, saved)

	saved, err = svc.ToggleSaved(ctx, evt)
	require.NoError(t, err)
	assert.False(t, saved)

	list, err := svc.Saved().List(ctx)
	require.NoError(t, err)
	assert.Empty(t, list)
}

func TestToggleSavedInvalidID(t *testing.T) {
	svc, _ := newService(t)
	saved, err := svc.ToggleSaved(context.Background(), models.SavedEvent{})
	assert.ErrorIs(t, err, apperr.ErrInvalidID)
	assert.False(t, saved)
}

func TestRSVPMovesOutOfSaved(t *testing.T) {
	ctx := context.Background()
	svc, _ := newService(t)
	evt := models.SavedEvent{ID: "evt-1", Title: "Jam"}
	require.NoError(t, svc.Save(ctx, evt))
	require.NoError(t, svc.Save(ctx, models.SavedEvent{ID: "evt-2"}))

	var savedSnapshots, rsvpSnapshots [][]models.SavedEvent
	svc.Saved().Subscribe(func(l []models.SavedEvent) { savedSnapshots = append(savedSnapshots, l) })
	svc.RSVPed().Subscribe(func(l []models.SavedEvent) { rsvpSnapshots = append(rsvpSnapshots, l) })

	require.NoError(t, svc.RSVP(ctx, evt))

	require.Len(t, rsvpSnapshots, 1)
	assert.Equal(t, []string{"evt-1"}, listIDs(t, rsvpSnapshots[0]))
	require.Len(t, savedSnapshots, 1)
	assert.Equal(t, []string{"evt-2"}, listIDs(t, savedSnapshots[0]))

	st, err := svc.Status(ctx, "evt-1")
	require.NoError(t, err)
	assert.True(t, st.RSVPed)
	assert.False(t, st.Saved)
}

func TestRSVPWithoutSavedDoesNotTouchSaved(t *testing.T) {
	ctx := context.Background()
	svc, _ := newService(t)
	calls := 0
	svc.Saved().Subscribe(func([]models.SavedEvent) { calls++ })

	require.NoError(t, svc.RSVP(ctx, models.SavedEvent{ID: "evt-1"}))
	assert.Zero(t, calls)
}

func TestCancelRSVPDoesNotRestoreSaved(t *testing.T) {
	ctx := context.Background()
	svc, _ := newService(t)
	evt := models.SavedEvent{ID: "evt-1"}
	require.NoError(t, svc.Save(ctx, evt))
	require.NoError(t, svc.RSVP(ctx, evt))

	rsvped, err := svc.ToggleRSVP(ctx, evt)
	require.NoError(t, err)
	assert.False(t, rsvped)

	st, err := svc.Status(ctx, "evt-1")
	require.NoError(t, err)
	assert.False(t, st.Saved)
	assert.False(t, st.RSVPed)
}

func TestToggleRSVP(t *testing.T) {
	ctx := context.Background()
	svc, _ := newService(t)
	rsvped, err := svc.ToggleRSVP(ctx, models.SavedEvent{ID: "evt-1"})
	require.NoError(t, err)
	assert.True(t, rsvped)

	list, err := svc.RSVPed().List(ctx)
	require.NoError(t, err)
	assert.Equal(t, []string{"evt-1"}, listIDs(t, list))
}

func TestStatusAggregatesNotes(t *testing.T) {
	ctx := context.Background()
	svc, _ := newService(t)
	require.NoError(t, svc.Save(ctx, models.SavedEvent{ID: "evt-1"}))
	require.NoError(t, svc.SetNote(ctx, "evt-1", "bring a jacket"))
	_, err := svc.AddFriendNote(ctx, "evt-1", models.FriendNote{Author: "Maya", Text: "in!"})
	require.NoError(t, err)

	st, err := svc.Status(ctx, "evt-1")
	require.NoError(t, err)
	assert.Equal(t, EventStatus{ID: "evt-1", Saved: true, Note: "bring a jacket", FriendNotes: 1}, st)
}

func TestNoteChangeCallbacks(t *testing.T) {
	ctx := context.Background()
	svc, _ := newService(t)
	var got []string
	svc.OnNoteChange(func(kind, eventID string) { got = append(got, kind+":"+eventID) })

	require.NoError(t, svc.SetNote(ctx, "evt-1", "x"))
	n, err := svc.AddFriendNote(ctx, "evt-1", models.FriendNote{Author: "You", Text: "hi"})
	require.NoError(t, err)
	n.Text = "edited"
	require.NoError(t, svc.UpdateFriendNote(ctx, "evt-1", n))
	require.NoError(t, svc.RemoveFriendNote(ctx, "evt-1", n.ID))

	assert.Equal(t, []string{
		"note:evt-1",
		"friend_notes:evt-1",
		"friend_notes:evt-1",
		"friend_notes:evt-1",
	}, got)
}

func TestFailedNoteMutationDoesNotCallback(t *testing.T) {
	ctx := context.Background()
	svc, _ := newService(t)
	calls := 0
	svc.OnNoteChange(func(string, string) { calls++ })

	err := svc.UpdateFriendNote(ctx, "evt-1", models.FriendNote{ID: "ghost", Author: "x", Text: "y"})
	assert.ErrorIs(t, err, apperr.ErrNotFound)
	assert.Zero(t, calls)
}

func TestRefreshByKey(t *testing.T) {
	ctx := context.Background()
	svc, b := newService(t)

	var saved []models.SavedEvent
	svc.Saved().Subscribe(func(l []models.SavedEvent) { saved = l })
	var kinds []string
	svc.OnNoteChange(func(kind, eventID string) { kinds = append(kinds, kind+":"+eventID) })

	require.NoError(t, b.Set(ctx, models.SavedKey, `[{"id":"from-disk"}]`))
	require.NoError(t, svc.Refresh(ctx, models.SavedKey))
	require.NoError(t, svc.Refresh(ctx, models.NotesListKey))
	require.NoError(t, svc.Refresh(ctx, "unrelated"))

	assert.Equal(t, []string{"from-disk"}, listIDs(t, saved))
	assert.Equal(t, []string{"friend_notes:"}, kinds)
}

func TestNoteHookDetachAndPanicIsolation(t *testing.T) {
	ctx := context.Background()
	svc, _ := newService(t)

	svc.OnNoteChange(func(string, string) { panic("hook bug") })
	var got []string
	detach := svc.OnNoteChange(func(kind, eventID string) { got = append(got, kind+":"+eventID) })

	require.NoError(t, svc.SetNote(ctx, "evt-1", "x"))
	assert.Equal(t, []string{"note:evt-1"}, got)

	note, err := svc.Note(ctx, "evt-1")
	require.NoError(t, err)
	assert.Equal(t, "x", note, "a failing hook must not undo the mutation")

	detach()
	detach()
	require.NoError(t, svc.SetNote(ctx, "evt-1", "y"))
	assert.Equal(t, []string{"note:evt-1"}, got)
}
