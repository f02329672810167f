package kv

import (
	"context"
	"fmt"
	"log/slog"
	"strconv"
	"time"
)

// Drivers accepted by Open.
const (
	DriverSQLite = "sqlite"
	DriverBadger = "badger"
	DriverFile   = "file"
	DriverMemory = "memory"
)

const probeKey = "__huddle_probe__"

// Options selects and configures the durable backend.
type Options struct {
	Driver string
	// Path is the database file (sqlite) or directory (badger, file).
	Path string
	// CacheTTL enables the read cache when positive.
	CacheTTL time.Duration
}

// Open probes the configured durable backend once. When it cannot be opened
// or fails a write/remove probe, the failure is logged and an in-memory
// backend is returned instead; the choice is not revisited for the lifetime
// of the returned Backend.
func Open(opts Options, logger *slog.Logger) Backend {
	if opts.Driver == DriverMemory {
		logger.Info("kv: using in-memory backend")
		return NewMemory()
	}

	durable, err := openDriver(opts, logger)
	if err == nil {
		if err = probe(durable); err != nil {
			_ = durable.Close()
		}
	}
	if err != nil {
		logger.Warn("kv: durable backend unavailable, using in-memory fallback",
			slog.String("driver", opts.Driver),
			slog.String("path", opts.Path),
			slog.String("error", err.Error()))
		return NewMemory()
	}

	logger.Info("kv: durable backend ready",
		slog.String("driver", opts.Driver),
		slog.String("path", opts.Path))

	if opts.CacheTTL > 0 {
		return NewCached(durable, opts.CacheTTL)
	}
	return durable
}

func openDriver(opts Options, logger *slog.Logger) (Backend, error) {
	switch opts.Driver {
	case DriverSQLite:
		return OpenSQLite(opts.Path)
	case DriverBadger:
		return OpenBadger(opts.Path, logger)
	case DriverFile:
		return NewFile(opts.Path)
	default:
		return nil, fmt.Errorf("kv: unknown driver %q", opts.Driver)
	}
}

func probe(b Backend) error {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := b.Set(ctx, probeKey, strconv.FormatInt(time.Now().UnixNano(), 10)); err != nil {
		return fmt.Errorf("kv: probe write: %w", err)
	}
	if err := b.Remove(ctx, probeKey); err != nil {
		return fmt.Errorf("kv: probe remove: %w", err)
	}
	return nil
}

// AsWatchable returns b as a Watchable when it, or the backend it caches, can
// report external changes.
func AsWatchable(b Backend) (Watchable, bool) {
	if c, ok := b.(*Cached); ok {
		if _, ok := c.inner.(Watchable); !ok {
			return nil, false
		}
		return c, true
	}
	w, ok := b.(Watchable)
	return w, ok
}
