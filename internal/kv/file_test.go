package kv

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func tempFile(t *testing.T) *File {
	t.Helper()
	f, err := NewFile(t.TempDir())
	require.NoError(t, err)
	return f
}

func TestFile_KeyStoredAsJSONFile(t *testing.T) {
	f := tempFile(t)
	require.NoError(t, f.Set(context.Background(), "SAVED_EVENTS_V1", "[]"))

	data, err := os.ReadFile(filepath.Join(f.Root(), "SAVED_EVENTS_V1.json"))
	require.NoError(t, err)
	assert.Equal(t, "[]", string(data))
}

func TestFile_TraversalKeysStayInsideRoot(t *testing.T) {
	f := tempFile(t)
	ctx := context.Background()

	for _, key := range []string{"../escape", "../../etc/passwd", "a/b"} {
		require.NoError(t, f.Set(ctx, key, "x"), key)
		v, ok, err := f.Get(ctx, key)
		require.NoError(t, err)
		assert.True(t, ok)
		assert.Equal(t, "x", v)
	}

	_, err := os.Stat(filepath.Join(filepath.Dir(f.Root()), "escape.json"))
	assert.True(t, os.IsNotExist(err), "file escaped root")
}

func TestFile_EmptyKeyRejected(t *testing.T) {
	f := tempFile(t)
	assert.Error(t, f.Set(context.Background(), "", "x"))
}

func TestFile_KeyFromPathRoundTrip(t *testing.T) {
	f := tempFile(t)
	for _, key := range []string{"SAVED_EVENTS_V1", "a/b", "with space"} {
		p, err := f.keyPath(key)
		require.NoError(t, err)
		got, ok := f.keyFromPath(p)
		require.True(t, ok)
		assert.Equal(t, key, got)
	}

	_, ok := f.keyFromPath(filepath.Join(f.Root(), ".huddle-tmp-123"))
	assert.False(t, ok)
	_, ok = f.keyFromPath(filepath.Join(f.Root(), "notes.txt"))
	assert.False(t, ok)
}

func TestFile_NoLeftoverTempFiles(t *testing.T) {
	f := tempFile(t)
	ctx := context.Background()
	require.NoError(t, f.Set(ctx, "k", "one"))
	require.NoError(t, f.Set(ctx, "k", "two"))

	matches, _ := filepath.Glob(filepath.Join(f.Root(), ".huddle-tmp-*"))
	assert.Empty(t, matches)
}

func TestFile_OwnState(t *testing.T) {
	f := tempFile(t)
	ctx := context.Background()

	require.NoError(t, f.Set(ctx, "k", "ours"))
	assert.True(t, f.ownState("k"))

	require.NoError(t, os.WriteFile(filepath.Join(f.Root(), "k.json"), []byte("theirs"), 0o644))
	assert.False(t, f.ownState("k"))

	require.NoError(t, f.Remove(ctx, "k"))
	assert.True(t, f.ownState("k"))

	assert.False(t, f.ownState("never-touched"))
}

func TestFile_FailedSetKeepsPreviousOwnState(t *testing.T) {
	f := tempFile(t)
	ctx := context.Background()
	require.NoError(t, f.Set(ctx, "k", "first"))

	orig := rename
	rename = func(string, string) error { return errors.New("disk full") }
	t.Cleanup(func() { rename = orig })

	require.Error(t, f.Set(ctx, "k", "second"))

	got, ok, err := f.Get(ctx, "k")
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, "first", got)
	// The file still holds our last successful write, so it is not foreign.
	assert.True(t, f.ownState("k"))

	matches, _ := filepath.Glob(filepath.Join(f.Root(), ".huddle-tmp-*"))
	assert.Empty(t, matches)
}
