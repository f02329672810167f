// Package testutil provides shared test helpers for backends and services.
package testutil

import (
	"log/slog"
	"path/filepath"
	"testing"

	"github.com/starford/huddle/internal/kv"
)

// Logger returns a logger that drops everything.
func Logger() *slog.Logger {
	return slog.New(slog.DiscardHandler)
}

// SQLite creates a temporary SQLite backend that is closed on cleanup.
func SQLite(t *testing.T) kv.Backend {
	t.Helper()
	b, err := kv.OpenSQLite(filepath.Join(t.TempDir(), "huddle-test.db"))
	if err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() { b.Close() })
	return b
}

// File creates a temporary file backend.
func File(t *testing.T) *kv.File {
	t.Helper()
	f, err := kv.NewFile(t.TempDir())
	if err != nil {
		t.Fatal(err)
	}
	return f
}

// Backends returns the in-memory fallback and two durable backends, so that
// store behaviour can be checked for parity across all of them.
func Backends(t *testing.T) map[string]kv.Backend {
	t.Helper()
	return map[string]kv.Backend{
		"memory": kv.NewMemory(),
		"sqlite": SQLite(t),
		"file":   File(t),
	}
}
