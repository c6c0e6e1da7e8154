package view

import (
	"context"
	"sync"

	"livechart/internal/cache"
	"livechart/internal/series"

	"go.uber.org/zap"
)

// HistoryView exposes the daily bar history of the selected symbol.
type HistoryView struct {
	Observable[*series.RawSeries]

	resolver *cache.Resolver[*series.RawSeries]
	api      API
	logger   *zap.Logger

	mu     sync.Mutex
	gen    uint64
	symbol string
}

func NewHistoryView(resolver *cache.Resolver[*series.RawSeries], api API, logger *zap.Logger) *HistoryView {
	return &HistoryView{resolver: resolver, api: api, logger: logger}
}

// Load resolves the history of symbol from cache or network. An empty
// symbol clears the view. If another Load starts before this one returns,
// this result is discarded.
func (v *HistoryView) Load(ctx context.Context, symbol string) {
	v.prepare(symbol)(ctx)
}

// prepare binds the view to symbol and publishes the loading state. The
// returned func performs the fetch and commits its result only if no later
// prepare has happened.
func (v *HistoryView) prepare(symbol string) func(context.Context) {
	v.mu.Lock()
	defer v.mu.Unlock()
	v.gen++
	gen := v.gen
	changed := symbol != v.symbol
	v.symbol = symbol

	if symbol == "" {
		v.set(State[*series.RawSeries]{})
		return func(context.Context) {}
	}
	v.update(func(s *State[*series.RawSeries]) {
		if changed {
			s.Data = nil
		}
		s.Loading = true
		s.Err = nil
	})

	return func(ctx context.Context) {
		data, err := v.resolver.Resolve(ctx, series.RawKey(symbol), func(ctx context.Context) (*series.RawSeries, error) {
			return v.api.GetHistory(ctx, symbol)
		})
		if err != nil {
			v.logger.Warn("failed to load history", zap.String("symbol", symbol), zap.Error(err))
		}

		v.mu.Lock()
		defer v.mu.Unlock()
		if v.gen != gen {
			v.logger.Debug("discarding stale history result", zap.String("symbol", symbol))
			return
		}
		v.update(func(s *State[*series.RawSeries]) {
			if err == nil {
				s.Data = data
			}
			s.Err = err
			s.Loading = false
		})
	}
}

// Symbol returns the symbol of the most recent Load.
func (v *HistoryView) Symbol() string {
	v.mu.Lock()
	defer v.mu.Unlock()
	return v.symbol
}
