package app

import (
	"context"
	"errors"
	"fmt"

	"livechart/config"
	"livechart/internal/cache"
	"livechart/internal/cache/memorystore"
	"livechart/internal/feed"
	"livechart/internal/series"
	"livechart/internal/server"
	"livechart/internal/view"
	"livechart/pkg/analytics"
	"livechart/pkg/storage/postgres"
	"livechart/pkg/storage/redis"
	"livechart/pkg/storage/sqlite"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

// App owns every long-lived component: one series cache, the analytics
// clients, the view session, the midnight refresher and the HTTP server.
type App struct {
	cfg    *config.Config
	logger *zap.Logger

	store     cache.Store
	cache     *cache.SeriesCache
	Session   *view.Session
	refresher *view.Refresher
}

// New opens the configured cache backend and assembles the views.
func New(ctx context.Context, cfg *config.Config, logger *zap.Logger) (*App, error) {
	clock, err := cache.LoadClock(cfg.Cache.TimeZone)
	if err != nil {
		return nil, err
	}

	store, err := openStore(ctx, cfg, logger)
	if err != nil {
		return nil, fmt.Errorf("open %s cache store: %w", cfg.Cache.Backend, err)
	}
	seriesCache := cache.New(store, clock, logger.Named("cache"))

	var opts []cache.ResolverOption
	if cfg.Cache.SingleFlight {
		opts = append(opts, cache.WithSingleFlight())
	}

	rest := analytics.NewRESTClient(cfg.API.BaseURL, cfg.API.Timeout)
	wsBase := cfg.API.WSURL
	if wsBase == "" {
		wsBase = cfg.API.BaseURL
	}
	ws := analytics.NewWSClient(wsBase, cfg.API.Timeout, logger.Named("ws"))

	session := view.NewSession(view.SessionDeps{
		API:        rest,
		Raw:        cache.NewResolver[*series.RawSeries](seriesCache, logger.Named("resolver"), opts...),
		Derived:    cache.NewResolver[*series.DerivedSeries](seriesCache, logger.Named("resolver"), opts...),
		Dialer:     streamDialer(ws),
		Strategies: cfg.Analytics.LiveStrategies,
		Logger:     logger.Named("view"),
	})

	logger.Info("app initialized",
		zap.String("backend", cfg.Cache.Backend),
		zap.String("timezone", clock.Location().String()),
		zap.Bool("single_flight", cfg.Cache.SingleFlight),
		zap.String("api", cfg.API.BaseURL),
	)

	return &App{
		cfg:       cfg,
		logger:    logger,
		store:     store,
		cache:     seriesCache,
		Session:   session,
		refresher: view.NewRefresher(clock.Location(), logger.Named("refresh")),
	}, nil
}

func openStore(ctx context.Context, cfg *config.Config, logger *zap.Logger) (cache.Store, error) {
	switch cfg.Cache.Backend {
	case config.BackendMemory:
		return memorystore.New(), nil
	case config.BackendSQLite:
		logger.Info("opening sqlite cache", zap.String("path", cfg.Cache.SQLite.Path))
		return sqlite.Open(cfg.Cache.SQLite.Path)
	case config.BackendPostgres:
		return postgres.InitializeAndMigrate(cfg.Postgres, cfg.Log.Environment, true)
	case config.BackendRedis:
		r := cfg.Cache.Redis
		return redis.Open(ctx, r.Addr, r.Password, r.DB, r.Prefix)
	}
	return nil, fmt.Errorf("unknown cache backend %q", cfg.Cache.Backend)
}

// streamDialer adapts the websocket client to feed.Dialer.
func streamDialer(ws *analytics.WSClient) feed.Dialer {
	return feed.DialerFunc(func(ctx context.Context, id feed.Identity) (feed.Conn, error) {
		conn, err := ws.Dial(ctx, id.Symbol, id.Strategy)
		if err != nil {
			return nil, err
		}
		return conn, nil
	})
}

// Run loads the initial selection, starts the refresher and, if enabled,
// the HTTP server. It blocks until ctx is cancelled or the server fails.
func (a *App) Run(ctx context.Context) error {
	if err := a.refresher.Register(a.cfg.Refresh.Spec, func() { a.Session.Refresh(ctx) }); err != nil {
		return err
	}

	g, ctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		initial := feed.Identity{Symbol: a.cfg.Selection.Symbol, Strategy: a.cfg.Selection.Strategy}
		a.Session.Catalog.Load(ctx)
		a.Session.Select(ctx, initial)
		return nil
	})

	a.refresher.Start()
	g.Go(func() error {
		<-ctx.Done()
		a.refresher.Stop()
		return nil
	})

	if a.cfg.Server.Enabled {
		var opts []server.Option
		if hc, ok := a.store.(server.HealthChecker); ok {
			opts = append(opts, server.WithHealthCheck(a.cfg.Cache.Backend, hc))
		}
		srv := server.New(ctx, a.Session, a.logger.Named("http"), opts...)
		g.Go(func() error {
			if err := srv.Run(ctx, a.cfg.Server.Addr); err != nil {
				return fmt.Errorf("http server: %w", err)
			}
			return nil
		})
	}

	err := g.Wait()
	if errors.Is(err, context.Canceled) {
		return nil
	}
	return err
}

// Close stops the live stream and closes the cache store.
func (a *App) Close() error {
	a.Session.Close()
	if err := a.cache.Close(); err != nil {
		return fmt.Errorf("close cache: %w", err)
	}
	a.logger.Info("app closed")
	return nil
}
