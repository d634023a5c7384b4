// Package storage defines the keyed slot abstraction that holds the plan
// collection and preferences. A slot is read and overwritten wholesale; writes
// are compare-and-swap against the revision observed at read time.
package storage

import (
	"context"
	"fmt"
	"strings"
)

// Provider is the interface for slot persistence.
type Provider interface {
	// Read returns the payload stored under key and its revision.
	// A missing key yields nil data, an empty revision, and no error.
	Read(ctx context.Context, key string) ([]byte, string, error)
	// CompareAndSwap stores data under key if the current revision equals
	// expected and returns the new revision. On mismatch it returns an error
	// wrapping apperr.ErrConflict and leaves the slot untouched.
	CompareAndSwap(ctx context.Context, key, expected string, data []byte) (string, error)
	// Close releases backend resources.
	Close() error
}

// Backend names accepted by configuration.
const (
	BackendFile   = "file"
	BackendSQLite = "sqlite"
	BackendRedis  = "redis"
)

// validKey rejects keys that could escape a namespace (path separators,
// traversal, whitespace).
func validKey(key string) error {
	if key == "" {
		return fmt.Errorf("storage: key is required")
	}
	if strings.ContainsAny(key, `/\ `) || strings.Contains(key, "..") {
		return fmt.Errorf("storage: invalid key: %q", key)
	}
	return nil
}
