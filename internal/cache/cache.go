package cache

import (
	"context"
	"errors"
	"time"

	"livechart/internal/series"

	"go.uber.org/zap"
)

// Entry is a decoded cache record.
type Entry struct {
	Key       series.Key
	Payload   series.Payload
	ExpiresAt time.Time
}

// Live reports whether the entry is still fresh at now.
func (e *Entry) Live(now time.Time) bool {
	return now.Before(e.ExpiresAt)
}

// SeriesCache stores series payloads under their key with an expiry at the
// next reference-zone midnight. It does not check freshness on read: stale
// entries are returned and it is up to the caller to treat them as misses.
type SeriesCache struct {
	store  Store
	clock  *Clock
	logger *zap.Logger
}

// New wraps store. The cache owns the store and closes it on Close.
func New(store Store, clock *Clock, logger *zap.Logger) *SeriesCache {
	return &SeriesCache{store: store, clock: clock, logger: logger}
}

func (c *SeriesCache) Clock() *Clock { return c.clock }

// Get returns the entry stored under key. Store failures and corrupt or
// malformed records are logged and reported as absent.
func (c *SeriesCache) Get(ctx context.Context, key series.Key) (*Entry, bool) {
	rec, err := c.store.Get(ctx, key.String())
	if err != nil {
		if !errors.Is(err, ErrNotFound) {
			c.logger.Warn("cache read failed", zap.String("key", key.String()), zap.Error(err))
		}
		return nil, false
	}

	payload, err := series.Decode(rec.Data)
	if err != nil {
		c.logger.Warn("discarding malformed cache entry", zap.String("key", key.String()), zap.Error(err))
		return nil, false
	}

	return &Entry{Key: key, Payload: payload, ExpiresAt: rec.ExpiresAt}, true
}

// Put stores payload under key, expiring at the next boundary after now.
func (c *SeriesCache) Put(ctx context.Context, key series.Key, payload series.Payload) error {
	data, err := series.Encode(payload)
	if err != nil {
		return &StorageError{Op: "encode", Key: key.String(), Err: err}
	}

	rec := Record{
		Key:       key.String(),
		Data:      data,
		ExpiresAt: c.clock.NextBoundary(c.clock.Now()),
	}
	if err := c.store.Put(ctx, rec); err != nil {
		return &StorageError{Op: "put", Key: key.String(), Err: err}
	}
	return nil
}

// Close releases the backing store.
func (c *SeriesCache) Close() error {
	return c.store.Close()
}
