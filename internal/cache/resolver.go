package cache

import (
	"context"
	"fmt"

	"livechart/internal/series"

	"go.uber.org/zap"
	"golang.org/x/sync/singleflight"
)

// Fetcher retrieves a fresh payload from the remote API.
type Fetcher[P series.Payload] func(ctx context.Context) (P, error)

// Resolver serves one series kind from the cache, falling back to a fetch
// when the entry is absent, expired or of another kind.
type Resolver[P series.Payload] struct {
	cache  *SeriesCache
	logger *zap.Logger
	group  *singleflight.Group
}

type ResolverOption func(*resolverOptions)

type resolverOptions struct {
	singleFlight bool
}

// WithSingleFlight collapses concurrent resolves of the same key into one
// fetch. Without it, concurrent callers each fetch and the last write wins.
func WithSingleFlight() ResolverOption {
	return func(o *resolverOptions) { o.singleFlight = true }
}

func NewResolver[P series.Payload](c *SeriesCache, logger *zap.Logger, opts ...ResolverOption) *Resolver[P] {
	var o resolverOptions
	for _, opt := range opts {
		opt(&o)
	}
	r := &Resolver[P]{cache: c, logger: logger}
	if o.singleFlight {
		r.group = &singleflight.Group{}
	}
	return r
}

// Resolve returns the cached payload for key if it is live, otherwise calls
// fetch, stores its result and returns it. Fetch errors are returned
// wrapped and nothing is cached; a failed cache write is logged and the
// fetched payload is still returned.
func (r *Resolver[P]) Resolve(ctx context.Context, key series.Key, fetch Fetcher[P]) (P, error) {
	if p, ok := r.lookup(ctx, key); ok {
		return p, nil
	}
	if r.group == nil {
		return r.fetch(ctx, key, fetch)
	}

	v, err, _ := r.group.Do(key.String(), func() (any, error) {
		return r.fetch(ctx, key, fetch)
	})
	if err != nil {
		var zero P
		return zero, err
	}
	return v.(P), nil
}

func (r *Resolver[P]) lookup(ctx context.Context, key series.Key) (P, bool) {
	var zero P
	entry, ok := r.cache.Get(ctx, key)
	if !ok {
		return zero, false
	}
	if !entry.Live(r.cache.clock.Now()) {
		r.logger.Debug("cache entry expired", zap.String("key", key.String()), zap.Time("expires_at", entry.ExpiresAt))
		return zero, false
	}
	p, ok := entry.Payload.(P)
	if !ok {
		r.logger.Warn("cache entry has unexpected kind",
			zap.String("key", key.String()),
			zap.String("kind", string(entry.Payload.Kind())),
		)
		return zero, false
	}
	r.logger.Debug("cache hit", zap.String("key", key.String()))
	return p, true
}

func (r *Resolver[P]) fetch(ctx context.Context, key series.Key, fetch Fetcher[P]) (P, error) {
	p, err := fetch(ctx)
	if err != nil {
		var zero P
		return zero, fmt.Errorf("fetch %s: %w", key, err)
	}
	if err := p.Validate(); err != nil {
		var zero P
		return zero, fmt.Errorf("fetch %s: %w", key, err)
	}
	if err := r.cache.Put(ctx, key, p); err != nil {
		r.logger.Warn("failed to cache fetched series", zap.String("key", key.String()), zap.Error(err))
	}
	return p, nil
}
