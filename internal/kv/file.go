package kv

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"net/url"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"github.com/starford/huddle/internal/checksum"
)

const (
	fileExt    = ".json"
	tmpPattern = ".huddle-tmp-*"
)

// rename is swapped in tests to simulate a failing commit.
var rename = os.Rename

// File is a durable backend storing every key as one file under a directory.
type File struct {
	root string // absolute path to the data directory

	// written remembers the checksum of the last value this process wrote per
	// key ("" after a remove) so the watcher can tell our writes from foreign ones.
	mu      sync.Mutex
	written map[string]string
}

// NewFile creates a File backend rooted at dir, creating the directory if needed.
func NewFile(dir string) (*File, error) {
	abs, err := filepath.Abs(dir)
	if err != nil {
		return nil, fmt.Errorf("kv: resolve root: %w", err)
	}
	if err := os.MkdirAll(abs, 0o755); err != nil {
		return nil, fmt.Errorf("kv: create root: %w", err)
	}
	info, err := os.Stat(abs)
	if err != nil {
		return nil, fmt.Errorf("kv: stat root: %w", err)
	}
	if !info.IsDir() {
		return nil, fmt.Errorf("kv: root is not a directory: %s", abs)
	}
	return &File{root: abs, written: make(map[string]string)}, nil
}

// Root returns the absolute data directory.
func (f *File) Root() string { return f.root }

// keyPath maps key to a file directly under root. Keys are path-escaped, and
// anything that still resolves outside root is rejected.
func (f *File) keyPath(key string) (string, error) {
	if key == "" {
		return "", errors.New("kv: empty key")
	}
	abs := filepath.Join(f.root, url.PathEscape(key)+fileExt)
	if filepath.Dir(abs) != f.root {
		return "", fmt.Errorf("kv: key escapes root: %s", key)
	}
	return abs, nil
}

// keyFromPath is the inverse of keyPath. ok is false for temp files and
// anything that is not a key file.
func (f *File) keyFromPath(p string) (string, bool) {
	if filepath.Dir(p) != f.root {
		return "", false
	}
	name := filepath.Base(p)
	if strings.HasPrefix(name, strings.TrimSuffix(tmpPattern, "*")) || !strings.HasSuffix(name, fileExt) {
		return "", false
	}
	key, err := url.PathUnescape(strings.TrimSuffix(name, fileExt))
	if err != nil || key == "" {
		return "", false
	}
	return key, true
}

func (f *File) Get(_ context.Context, key string) (string, bool, error) {
	abs, err := f.keyPath(key)
	if err != nil {
		return "", false, err
	}
	data, err := os.ReadFile(abs)
	if errors.Is(err, fs.ErrNotExist) {
		return "", false, nil
	}
	if err != nil {
		return "", false, fmt.Errorf("kv: read %s: %w", key, err)
	}
	return string(data), true, nil
}

// Set atomically writes value: tmp file, fsync, rename.
func (f *File) Set(_ context.Context, key, value string) error {
	abs, err := f.keyPath(key)
	if err != nil {
		return err
	}

	tmp, err := os.CreateTemp(f.root, tmpPattern)
	if err != nil {
		return fmt.Errorf("kv: create temp: %w", err)
	}
	tmpName := tmp.Name()

	success := false
	defer func() {
		if !success {
			_ = tmp.Close()
			_ = os.Remove(tmpName)
		}
	}()

	if _, err := tmp.WriteString(value); err != nil {
		return fmt.Errorf("kv: write temp: %w", err)
	}
	if err := tmp.Sync(); err != nil {
		return fmt.Errorf("kv: fsync: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("kv: close temp: %w", err)
	}

	if err := rename(tmpName, abs); err != nil {
		return fmt.Errorf("kv: rename: %w", err)
	}
	success = true
	// The watcher debounces and checks ownState when it flushes, so recording
	// after the rename is not racy. A failed write must not be recorded.
	f.remember(key, checksum.Sum([]byte(value)))
	return nil
}

func (f *File) Remove(_ context.Context, key string) error {
	abs, err := f.keyPath(key)
	if err != nil {
		return err
	}
	if err := os.Remove(abs); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return fmt.Errorf("kv: remove %s: %w", key, err)
	}
	f.remember(key, "")
	return nil
}

func (f *File) Close() error { return nil }

func (f *File) remember(key, sum string) {
	f.mu.Lock()
	f.written[key] = sum
	f.mu.Unlock()
}

// ownState reports whether the current on-disk state of key matches the last
// write or remove performed through this backend.
func (f *File) ownState(key string) bool {
	f.mu.Lock()
	sum, known := f.written[key]
	f.mu.Unlock()
	if !known {
		return false
	}
	abs, err := f.keyPath(key)
	if err != nil {
		return false
	}
	data, err := os.ReadFile(abs)
	if errors.Is(err, fs.ErrNotExist) {
		return sum == ""
	}
	if err != nil {
		return false
	}
	return checksum.Sum(data) == sum
}
