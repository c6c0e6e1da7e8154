package view

import (
	"context"
	"sync"

	"livechart/internal/cache"
	"livechart/internal/feed"
	"livechart/internal/series"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

// Session binds one symbol/strategy selection to every view.
type Session struct {
	History  *HistoryView
	Strategy *StrategyView
	Live     *LiveView
	Merged   *MergedView
	Catalog  *CatalogView

	logger *zap.Logger

	// switchMu orders selection changes and refreshes: the views are
	// re-bound under it, so the last prepared load is the current one.
	switchMu sync.Mutex

	mu        sync.Mutex
	selection feed.Identity
}

// SessionDeps are the collaborators a Session is built from.
type SessionDeps struct {
	API        API
	Raw        *cache.Resolver[*series.RawSeries]
	Derived    *cache.Resolver[*series.DerivedSeries]
	Dialer     feed.Dialer
	Strategies []string // strategies served by the strategy view
	Logger     *zap.Logger
}

func NewSession(d SessionDeps) *Session {
	strategy := NewStrategyView(d.Derived, d.API, d.Strategies, d.Logger)
	live := NewLiveView(d.Dialer, d.Logger)
	return &Session{
		History:  NewHistoryView(d.Raw, d.API, d.Logger),
		Strategy: strategy,
		Live:     live,
		Merged:   NewMergedView(strategy, live),
		Catalog:  NewCatalogView(d.API, d.Logger),
		logger:   d.Logger,
	}
}

// Select switches every view to id and blocks until the base series have
// resolved. The live stream is re-pointed before the loads start. Loads of
// an earlier selection still in flight are discarded.
func (s *Session) Select(ctx context.Context, id feed.Identity) {
	s.switchMu.Lock()
	s.mu.Lock()
	s.selection = id
	s.mu.Unlock()

	s.logger.Info("selection changed", zap.String("symbol", id.Symbol), zap.String("strategy", id.Strategy))

	if err := s.Live.Select(ctx, id); err != nil {
		s.logger.Warn("live stream unavailable", zap.Stringer("identity", id), zap.Error(err))
	}
	loads := s.prepare(id)
	s.switchMu.Unlock()

	run(ctx, loads...)
}

// Refresh reloads the current selection and the catalog. Entries that
// expired since the last load are fetched again.
func (s *Session) Refresh(ctx context.Context) {
	s.switchMu.Lock()
	id := s.Selection()
	loads := s.prepare(id)
	s.switchMu.Unlock()

	s.logger.Info("refreshing views", zap.Stringer("identity", id))
	run(ctx, append(loads, s.Catalog.Load)...)
}

func (s *Session) Selection() feed.Identity {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.selection
}

// Close stops the live stream and detaches the merged view.
func (s *Session) Close() {
	s.Live.Close()
	s.Merged.Close()
}

func (s *Session) prepare(id feed.Identity) []func(context.Context) {
	return []func(context.Context){
		s.History.prepare(id.Symbol),
		s.Strategy.prepare(id),
	}
}

// run executes the loads in parallel and waits for all of them.
func run(ctx context.Context, loads ...func(context.Context)) {
	var g errgroup.Group
	for _, load := range loads {
		load := load
		g.Go(func() error {
			load(ctx)
			return nil
		})
	}
	_ = g.Wait()
}
