package cache

import (
	"context"
	"errors"
	"fmt"
	"time"
)

// ErrNotFound is returned by a Store when no record exists for a key.
var ErrNotFound = errors.New("cache: not found")

// Record is the storage form of a cache entry: the encoded payload
// envelope and its expiry. Stores write records whole.
type Record struct {
	Key       string
	Data      []byte
	ExpiresAt time.Time
}

// Store is the durable key-value backend of the series cache. Put
// overwrites any existing record for the key (last writer wins). Stores
// never evict on their own.
type Store interface {
	Get(ctx context.Context, key string) (Record, error)
	Put(ctx context.Context, rec Record) error
	Close() error
}

// StorageError wraps a failure of the backing store or of encoding a
// payload for it.
type StorageError struct {
	Op  string
	Key string
	Err error
}

func (e *StorageError) Error() string {
	return fmt.Sprintf("cache %s %q: %v", e.Op, e.Key, e.Err)
}

func (e *StorageError) Unwrap() error { return e.Err }
