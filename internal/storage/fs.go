package storage

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"

	"github.com/starford/planinsta/internal/apperr"
	"github.com/starford/planinsta/internal/checksum"
)

// FS implements Provider with one JSON file per key under a root directory.
//
// Compare-and-swap is serialized by an in-process mutex; the write itself is
// atomic (tmp file, fsync, rename), so readers in other processes never see a
// torn payload.
type FS struct {
	root string // absolute path to the data directory
	mu   sync.Mutex
}

// NewFS creates a new FS provider rooted at the given directory.
// The directory must already exist.
func NewFS(root string) (*FS, error) {
	abs, err := filepath.Abs(root)
	if err != nil {
		return nil, fmt.Errorf("storage: resolve root: %w", err)
	}
	info, err := os.Stat(abs)
	if err != nil {
		return nil, fmt.Errorf("storage: stat root: %w", err)
	}
	if !info.IsDir() {
		return nil, fmt.Errorf("storage: root is not a directory: %s", abs)
	}
	return &FS{root: abs}, nil
}

// Root returns the absolute data directory.
func (f *FS) Root() string { return f.root }

// Path returns the file backing key.
func (f *FS) Path(key string) (string, error) {
	if err := validKey(key); err != nil {
		return "", err
	}
	return filepath.Join(f.root, key+".json"), nil
}

// Read returns the slot payload and its revision.
func (f *FS) Read(_ context.Context, key string) ([]byte, string, error) {
	p, err := f.Path(key)
	if err != nil {
		return nil, "", err
	}
	data, err := os.ReadFile(p)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, "", nil
		}
		return nil, "", fmt.Errorf("storage: read %s: %w", key, err)
	}
	return data, checksum.Revision(data), nil
}

// CompareAndSwap atomically replaces the slot when its revision matches expected.
func (f *FS) CompareAndSwap(ctx context.Context, key, expected string, data []byte) (string, error) {
	p, err := f.Path(key)
	if err != nil {
		return "", err
	}

	f.mu.Lock()
	defer f.mu.Unlock()

	_, current, err := f.Read(ctx, key)
	if err != nil {
		return "", err
	}
	if current != expected {
		return "", fmt.Errorf("storage: %s revision changed: %w", key, apperr.ErrConflict)
	}
	if err := writeAtomic(p, data); err != nil {
		return "", err
	}
	return checksum.Revision(data), nil
}

// Close is a no-op for the file backend.
func (f *FS) Close() error { return nil }

// writeAtomic writes content: tmp file → fsync → rename.
func writeAtomic(abs string, content []byte) error {
	dir := filepath.Dir(abs)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("storage: mkdir: %w", err)
	}

	tmp, err := os.CreateTemp(dir, ".planinsta-tmp-*")
	if err != nil {
		return fmt.Errorf("storage: create temp: %w", err)
	}
	tmpName := tmp.Name()

	success := false
	defer func() {
		if !success {
			_ = tmp.Close()
			_ = os.Remove(tmpName)
		}
	}()

	if _, err := tmp.Write(content); err != nil {
		return fmt.Errorf("storage: write temp: %w", err)
	}
	if err := tmp.Sync(); err != nil {
		return fmt.Errorf("storage: fsync: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("storage: close temp: %w", err)
	}
	if err := os.Rename(tmpName, abs); err != nil {
		return fmt.Errorf("storage: rename: %w", err)
	}
	success = true
	return nil
}
