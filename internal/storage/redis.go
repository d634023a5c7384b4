package storage

import (
	"context"
	"errors"
	"fmt"

	"github.com/redis/go-redis/v9"

	"github.com/starford/planinsta/internal/apperr"
	"github.com/starford/planinsta/internal/checksum"
)

// Redis implements Provider with one string value per key. Swaps use
// WATCH/MULTI so a concurrent writer aborts the transaction.
type Redis struct {
	client *redis.Client
	prefix string
}

// NewRedis wraps an existing client. prefix namespaces every key.
func NewRedis(client *redis.Client, prefix string) *Redis {
	return &Redis{client: client, prefix: prefix}
}

func (r *Redis) key(key string) string { return r.prefix + key }

// Read returns the slot payload and its revision.
func (r *Redis) Read(ctx context.Context, key string) ([]byte, string, error) {
	if err := validKey(key); err != nil {
		return nil, "", err
	}
	data, err := r.client.Get(ctx, r.key(key)).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, "", nil
	}
	if err != nil {
		return nil, "", fmt.Errorf("storage: read %s: %w", key, err)
	}
	return data, checksum.Revision(data), nil
}

// CompareAndSwap replaces the slot when its revision equals expected.
func (r *Redis) CompareAndSwap(ctx context.Context, key, expected string, data []byte) (string, error) {
	if err := validKey(key); err != nil {
		return "", err
	}
	k := r.key(key)

	err := r.client.Watch(ctx, func(tx *redis.Tx) error {
		cur, err := tx.Get(ctx, k).Bytes()
		if err != nil && !errors.Is(err, redis.Nil) {
			return err
		}
		if checksum.Revision(cur) != expected {
			return apperr.ErrConflict
		}
		_, err = tx.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
			pipe.Set(ctx, k, data, 0)
			return nil
		})
		return err
	}, k)

	switch {
	case err == nil:
		return checksum.Revision(data), nil
	case errors.Is(err, apperr.ErrConflict), errors.Is(err, redis.TxFailedErr):
		return "", fmt.Errorf("storage: %s revision changed: %w", key, apperr.ErrConflict)
	default:
		return "", fmt.Errorf("storage: write %s: %w", key, err)
	}
}

// Close closes the client.
func (r *Redis) Close() error {
	return r.client.Close()
}
