// Package notes implements the two note stores attached to events: one
// free-text personal note per event, and an ordered list of friend notes per
// event. Each store keeps its whole map in a single JSON blob and rewrites it
// on every mutation.
package notes

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"

	"golang.org/x/sync/semaphore"

	"github.com/starford/huddle/internal/kv"
)

// blob is a JSON object persisted under one key with serialized mutations.
type blob[V any] struct {
	key     string
	backend kv.Backend
	logger  *slog.Logger
	mu      *semaphore.Weighted
}

func newBlob[V any](key string, backend kv.Backend, logger *slog.Logger) *blob[V] {
	return &blob[V]{
		key:     key,
		backend: backend,
		logger:  logger.With(slog.String("notes", key)),
		mu:      semaphore.NewWeighted(1),
	}
}

// load returns the stored map. Missing or malformed data yields an empty map.
func (b *blob[V]) load(ctx context.Context) (map[string]V, error) {
	raw, ok, err := b.backend.Get(ctx, b.key)
	if err != nil {
		return nil, fmt.Errorf("notes: load %s: %w", b.key, err)
	}
	m := make(map[string]V)
	if !ok || raw == "" {
		return m, nil
	}
	if err := json.Unmarshal([]byte(raw), &m); err != nil {
		b.logger.Warn("notes: discarding malformed data", slog.String("error", err.Error()))
		return make(map[string]V), nil
	}
	if m == nil {
		m = make(map[string]V)
	}
	return m, nil
}

// update runs fn over the current map and persists the result unless fn
// returns an error.
func (b *blob[V]) update(ctx context.Context, fn func(m map[string]V) error) error {
	if err := b.mu.Acquire(ctx, 1); err != nil {
		return err
	}
	defer b.mu.Release(1)

	m, err := b.load(ctx)
	if err != nil {
		return err
	}
	if err := fn(m); err != nil {
		return err
	}
	raw, err := json.Marshal(m)
	if err != nil {
		return fmt.Errorf("notes: encode %s: %w", b.key, err)
	}
	if err := b.backend.Set(ctx, b.key, string(raw)); err != nil {
		return fmt.Errorf("notes: write %s: %w", b.key, err)
	}
	return nil
}
