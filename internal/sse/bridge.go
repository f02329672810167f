package sse

import (
	"github.com/starford/huddle/internal/eventservice"
	"github.com/starford/huddle/internal/models"
)

// Attach forwards every collection snapshot and note change of svc to the
// broker. The returned function detaches every listener it registered.
func (b *Broker) Attach(svc *eventservice.Service) func() {
	unsubSaved := svc.Saved().Subscribe(func(list []models.SavedEvent) {
		b.PublishChange(TopicSaved, list)
	})
	unsubRSVPed := svc.RSVPed().Subscribe(func(list []models.SavedEvent) {
		b.PublishChange(TopicRSVPed, list)
	})
	unsubNotes := svc.OnNoteChange(func(kind, eventID string) {
		topic := TopicNote
		if kind == eventservice.NoteKindFriendNotes {
			topic = TopicFriendNotes
		}
		b.PublishChange(topic, map[string]string{"event_id": eventID})
	})
	return func() {
		unsubSaved()
		unsubRSVPed()
		unsubNotes()
	}
}
