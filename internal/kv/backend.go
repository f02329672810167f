// Package kv provides the string-keyed storage backends Huddle persists to.
//
// A Backend is total: Get on a missing key reports ok == false rather than an
// error, and Remove on a missing key is a no-op. Only genuine I/O failures are
// returned as errors; none of the implementations retry.
package kv

import (
	"context"
	"log/slog"
)

// Backend is an opaque string to string store with no ordering across keys.
type Backend interface {
	// Get returns the value stored under key. ok is false when the key is absent.
	Get(ctx context.Context, key string) (value string, ok bool, err error)
	// Set stores value under key, replacing any previous value.
	Set(ctx context.Context, key, value string) error
	// Remove deletes key. Removing an absent key succeeds.
	Remove(ctx context.Context, key string) error
	// Close releases the underlying resources.
	Close() error
}

// Watchable is implemented by backends that can report keys changed by
// another process (for example by editing the files of a File backend).
type Watchable interface {
	Watch(ctx context.Context, logger *slog.Logger, cb func(key string)) error
}

var (
	_ Backend = (*Memory)(nil)
	_ Backend = (*SQLite)(nil)
	_ Backend = (*Badger)(nil)
	_ Backend = (*File)(nil)
	_ Backend = (*Cached)(nil)

	_ Watchable = (*File)(nil)
	_ Watchable = (*Cached)(nil)
)
