// Package bus implements the per-collection observer registry used to fan
// full-list snapshots out to independent consumers.
package bus

import (
	"fmt"
	"log/slog"
	"slices"
	"sync"
)

// Listener receives the complete current list after a mutation. The slice is
// the listener's own copy.
type Listener[T any] func(items []T)

// Unsubscribe detaches a listener. Calling it more than once is a no-op.
type Unsubscribe func()

type entry[T any] struct {
	id uint64
	fn Listener[T]
}

// Registry is an ordered set of listeners owned by a single store.
type Registry[T any] struct {
	name   string
	logger *slog.Logger

	mu      sync.RWMutex
	nextID  uint64
	entries []entry[T]
}

// New creates an empty registry. name only appears in logs.
func New[T any](name string, logger *slog.Logger) *Registry[T] {
	return &Registry[T]{name: name, logger: logger}
}

// Subscribe appends fn and returns the function that removes it. fn is not
// called with the current state; callers fetch that separately.
func (r *Registry[T]) Subscribe(fn Listener[T]) Unsubscribe {
	r.mu.Lock()
	r.nextID++
	id := r.nextID
	r.entries = append(r.entries, entry[T]{id: id, fn: fn})
	r.mu.Unlock()

	var once sync.Once
	return func() {
		once.Do(func() { r.remove(id) })
	}
}

func (r *Registry[T]) remove(id uint64) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.entries = slices.DeleteFunc(r.entries, func(e entry[T]) bool { return e.id == id })
}

// Notify delivers a copy of items to every listener synchronously, in
// registration order. A panicking listener is logged and skipped.
func (r *Registry[T]) Notify(items []T) {
	r.mu.RLock()
	targets := slices.Clone(r.entries)
	r.mu.RUnlock()

	for _, e := range targets {
		r.deliver(e, items)
	}
}

func (r *Registry[T]) deliver(e entry[T], items []T) {
	defer func() {
		if rec := recover(); rec != nil {
			r.logger.Error("bus: listener failed",
				slog.String("registry", r.name),
				slog.Uint64("listener", e.id),
				slog.String("error", fmt.Sprint(rec)))
		}
	}()
	snapshot := slices.Clone(items)
	if snapshot == nil {
		snapshot = []T{}
	}
	e.fn(snapshot)
}

// Len returns the number of registered listeners.
func (r *Registry[T]) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.entries)
}
