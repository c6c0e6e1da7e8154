package view

import (
	"context"
	"strings"
	"sync"

	"livechart/internal/cache"
	"livechart/internal/feed"
	"livechart/internal/series"

	"go.uber.org/zap"
)

// StrategyView exposes the derived series of the selected symbol/strategy.
// Only strategies in the supported set are served; any other selection
// yields empty data without a request.
type StrategyView struct {
	Observable[*series.DerivedSeries]

	resolver  *cache.Resolver[*series.DerivedSeries]
	api       API
	supported map[string]bool
	logger    *zap.Logger

	mu       sync.Mutex
	gen      uint64
	identity feed.Identity
}

func NewStrategyView(resolver *cache.Resolver[*series.DerivedSeries], api API, supported []string, logger *zap.Logger) *StrategyView {
	set := make(map[string]bool, len(supported))
	for _, s := range supported {
		set[strings.ToLower(s)] = true
	}
	return &StrategyView{resolver: resolver, api: api, supported: set, logger: logger}
}

// Supports reports whether strategy is served by this view.
func (v *StrategyView) Supports(strategy string) bool {
	return v.supported[strings.ToLower(strategy)]
}

// Load resolves the series for id. Incomplete or unsupported identities
// clear the view. Results of superseded loads are discarded.
func (v *StrategyView) Load(ctx context.Context, id feed.Identity) {
	v.prepare(id)(ctx)
}

// prepare binds the view to id and publishes the loading state. The
// returned func fetches and commits only if no later prepare has happened.
func (v *StrategyView) prepare(id feed.Identity) func(context.Context) {
	v.mu.Lock()
	defer v.mu.Unlock()
	v.gen++
	gen := v.gen
	changed := id != v.identity
	v.identity = id

	if !id.Complete() || !v.Supports(id.Strategy) {
		v.set(State[*series.DerivedSeries]{})
		return func(context.Context) {}
	}
	v.update(func(s *State[*series.DerivedSeries]) {
		if changed {
			s.Data = nil
		}
		s.Loading = true
		s.Err = nil
	})

	return func(ctx context.Context) {
		key := series.DerivedKey(id.Symbol, id.Strategy)
		data, err := v.resolver.Resolve(ctx, key, func(ctx context.Context) (*series.DerivedSeries, error) {
			return v.api.GetAnalytics(ctx, id.Strategy, id.Symbol)
		})
		if err != nil {
			v.logger.Warn("failed to load strategy series", zap.Stringer("identity", id), zap.Error(err))
		}

		v.mu.Lock()
		defer v.mu.Unlock()
		if v.gen != gen {
			v.logger.Debug("discarding stale strategy result", zap.Stringer("identity", id))
			return
		}
		v.update(func(s *State[*series.DerivedSeries]) {
			if err == nil {
				s.Data = data
			}
			s.Err = err
			s.Loading = false
		})
	}
}

// Identity returns the identity of the most recent Load.
func (v *StrategyView) Identity() feed.Identity {
	v.mu.Lock()
	defer v.mu.Unlock()
	return v.identity
}
