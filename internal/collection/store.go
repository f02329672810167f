// Package collection implements a persisted, deduplicated, most-recent-first
// list of SavedEvent records stored as one JSON array under a single key.
package collection

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"slices"
	"sync"

	"golang.org/x/sync/semaphore"

	"github.com/starford/huddle/internal/apperr"
	"github.com/starford/huddle/internal/bus"
	"github.com/starford/huddle/internal/kv"
	"github.com/starford/huddle/internal/models"
)

// Store is one named collection (Saved or RSVP'd).
//
// Mutations are serialized per store: at most one read-modify-write runs at a
// time, so concurrent Add/Remove calls cannot clobber each other. List and
// Contains read without waiting. Serialization only covers callers sharing this
// Store value; two Stores over the same key and backend still race.
//
// Listeners run after the write lock is released, so they may mutate this or
// any other store. Snapshots are delivered in mutation order: a mutation made
// from inside a listener is delivered once the current listener round ends,
// before the outermost mutating call returns.
type Store struct {
	key       string
	backend   kv.Backend
	logger    *slog.Logger
	mu        *semaphore.Weighted
	listeners *bus.Registry[models.SavedEvent]

	qmu        sync.Mutex
	queue      [][]models.SavedEvent
	delivering bool
}

// New creates a collection persisted under key.
func New(key string, backend kv.Backend, logger *slog.Logger) *Store {
	logger = logger.With(slog.String("collection", key))
	return &Store{
		key:       key,
		backend:   backend,
		logger:    logger,
		mu:        semaphore.NewWeighted(1),
		listeners: bus.New[models.SavedEvent](key, logger),
	}
}

// Key returns the storage key of the collection.
func (s *Store) Key() string { return s.key }

// List returns the collection, most recently added first. A missing or
// unreadable blob yields an empty list.
func (s *Store) List(ctx context.Context) ([]models.SavedEvent, error) {
	raw, ok, err := s.backend.Get(ctx, s.key)
	if err != nil {
		return nil, fmt.Errorf("collection: list %s: %w", s.key, err)
	}
	if !ok || raw == "" {
		return []models.SavedEvent{}, nil
	}
	var list []models.SavedEvent
	if err := json.Unmarshal([]byte(raw), &list); err != nil {
		s.logger.Warn("collection: discarding malformed data", slog.String("error", err.Error()))
		return []models.SavedEvent{}, nil
	}
	if list == nil {
		list = []models.SavedEvent{}
	}
	return list, nil
}

// Contains reports whether an entry with id is present.
func (s *Store) Contains(ctx context.Context, id string) (bool, error) {
	list, err := s.List(ctx)
	if err != nil {
		return false, err
	}
	return indexOf(list, id) >= 0, nil
}

// Add prepends evt unless an entry with the same id already exists, in which
// case nothing is written and no listener is notified.
func (s *Store) Add(ctx context.Context, evt models.SavedEvent) error {
	if evt.ID == "" {
		return apperr.ErrInvalidID
	}
	return s.mutate(ctx, func(list []models.SavedEvent) ([]models.SavedEvent, bool, error) {
		if indexOf(list, evt.ID) >= 0 {
			return nil, false, nil
		}
		next := slices.Insert(list, 0, evt)
		if err := s.write(ctx, next); err != nil {
			return nil, false, err
		}
		s.logger.Debug("collection: added", slog.String("id", evt.ID))
		return next, true, nil
	})
}

// Remove drops the entry with id. Listeners are notified even when nothing
// matched.
func (s *Store) Remove(ctx context.Context, id string) error {
	return s.mutate(ctx, func(list []models.SavedEvent) ([]models.SavedEvent, bool, error) {
		next := slices.DeleteFunc(list, func(e models.SavedEvent) bool { return e.ID == id })
		if err := s.write(ctx, next); err != nil {
			return nil, false, err
		}
		s.logger.Debug("collection: removed", slog.String("id", id))
		return next, true, nil
	})
}

// Refresh re-reads the collection and notifies listeners. It is used when the
// stored value changed behind the store's back.
func (s *Store) Refresh(ctx context.Context) error {
	return s.mutate(ctx, func(list []models.SavedEvent) ([]models.SavedEvent, bool, error) {
		return list, true, nil
	})
}

// mutate runs fn over the current list under the write lock. When fn asks for
// a notification its snapshot is queued before the lock is released and
// delivered after.
func (s *Store) mutate(ctx context.Context, fn func(list []models.SavedEvent) ([]models.SavedEvent, bool, error)) error {
	if err := s.mu.Acquire(ctx, 1); err != nil {
		return err
	}
	notify, err := func() (bool, error) {
		defer s.mu.Release(1)
		list, err := s.List(ctx)
		if err != nil {
			return false, err
		}
		next, notify, err := fn(list)
		if err != nil || !notify {
			return false, err
		}
		s.enqueue(next)
		return true, nil
	}()
	if notify {
		s.flush()
	}
	return err
}

// Subscribe registers fn for future Add/Remove/Refresh notifications.
func (s *Store) Subscribe(fn bus.Listener[models.SavedEvent]) bus.Unsubscribe {
	return s.listeners.Subscribe(fn)
}

// Listeners returns the number of subscribed listeners.
func (s *Store) Listeners() int {
	return s.listeners.Len()
}

// enqueue must be called with the write lock held so that queue order matches
// mutation order.
func (s *Store) enqueue(list []models.SavedEvent) {
	s.qmu.Lock()
	s.queue = append(s.queue, list)
	s.qmu.Unlock()
}

// flush delivers queued snapshots unless another call is already doing so, in
// which case that call picks them up.
func (s *Store) flush() {
	s.qmu.Lock()
	if s.delivering {
		s.qmu.Unlock()
		return
	}
	s.delivering = true
	for len(s.queue) > 0 {
		next := s.queue[0]
		s.queue[0] = nil
		s.queue = s.queue[1:]
		s.qmu.Unlock()
		s.listeners.Notify(next)
		s.qmu.Lock()
	}
	s.delivering = false
	s.qmu.Unlock()
}

func (s *Store) write(ctx context.Context, list []models.SavedEvent) error {
	raw, err := json.Marshal(list)
	if err != nil {
		return fmt.Errorf("collection: encode %s: %w", s.key, err)
	}
	if err := s.backend.Set(ctx, s.key, string(raw)); err != nil {
		return fmt.Errorf("collection: write %s: %w", s.key, err)
	}
	return nil
}

func indexOf(list []models.SavedEvent, id string) int {
	return slices.IndexFunc(list, func(e models.SavedEvent) bool { return e.ID == id })
}
