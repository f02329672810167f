package kv

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestOpen_Memory(t *testing.T) {
	b := Open(Options{Driver: DriverMemory}, quietLogger())
	defer b.Close()
	assert.IsType(t, &Memory{}, b)
}

func TestOpen_SQLite(t *testing.T) {
	b := Open(Options{Driver: DriverSQLite, Path: filepath.Join(t.TempDir(), "huddle.db")}, quietLogger())
	defer b.Close()
	assert.IsType(t, &SQLite{}, b)

	// The probe key must not be left behind.
	_, ok, err := b.Get(context.Background(), probeKey)
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestOpen_CacheWrapsDurable(t *testing.T) {
	b := Open(Options{Driver: DriverFile, Path: t.TempDir(), CacheTTL: time.Minute}, quietLogger())
	defer b.Close()
	assert.IsType(t, &Cached{}, b)

	_, ok := AsWatchable(b)
	assert.True(t, ok)
}

func TestOpen_FallsBackWhenFileRootIsAFile(t *testing.T) {
	f, err := os.CreateTemp(t.TempDir(), "not-a-dir")
	require.NoError(t, err)
	require.NoError(t, f.Close())

	b := Open(Options{Driver: DriverFile, Path: f.Name(), CacheTTL: time.Minute}, quietLogger())
	defer b.Close()
	assert.IsType(t, &Memory{}, b)
}

func TestOpen_FallsBackWhenSQLiteDirMissing(t *testing.T) {
	path := filepath.Join(t.TempDir(), "missing", "dir", "huddle.db")
	b := Open(Options{Driver: DriverSQLite, Path: path}, quietLogger())
	defer b.Close()
	assert.IsType(t, &Memory{}, b)
}

func TestOpen_FallsBackOnUnknownDriver(t *testing.T) {
	b := Open(Options{Driver: "floppy"}, quietLogger())
	defer b.Close()
	assert.IsType(t, &Memory{}, b)
}

func TestOpen_FallbackIsUsable(t *testing.T) {
	ctx := context.Background()
	b := Open(Options{Driver: "floppy"}, quietLogger())
	defer b.Close()

	require.NoError(t, b.Set(ctx, "k", "v"))
	v, ok, err := b.Get(ctx, "k")
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, "v", v)
}

func TestAsWatchable(t *testing.T) {
	file, err := NewFile(t.TempDir())
	require.NoError(t, err)

	_, ok := AsWatchable(file)
	assert.True(t, ok)
	_, ok = AsWatchable(NewMemory())
	assert.False(t, ok)

	cached := NewCached(NewMemory(), time.Minute)
	defer cached.Close()
	_, ok = AsWatchable(cached)
	assert.False(t, ok)
}
