package persistence

import (
	"context"
	"errors"
)

// ErrStoreUnavailable is returned by backends that were never connected.
var ErrStoreUnavailable = errors.New("kv store not configured")

// Batch is a set of writes applied atomically.
type Batch struct {
	Sets    map[string][]byte
	Deletes []string
}

// Empty reports whether the batch carries no writes.
func (b Batch) Empty() bool {
	return len(b.Sets) == 0 && len(b.Deletes) == 0
}

// KVStore persists JSON documents by key.
type KVStore interface {
	// Get returns nil, nil when key is absent.
	Get(ctx context.Context, key string) ([]byte, error)
	Set(ctx context.Context, key string, value []byte) error
	Delete(ctx context.Context, keys ...string) error
	// Apply writes every entry of the batch or none of them.
	Apply(ctx context.Context, batch Batch) error
	Ping(ctx context.Context) error
	Close() error
}
