package view

import (
	"context"

	"livechart/pkg/analytics"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

// CatalogView exposes the symbol and strategy lists offered by the API.
type CatalogView struct {
	Symbols    Observable[[]analytics.LabeledItem]
	Strategies Observable[[]analytics.LabeledItem]

	api    API
	logger *zap.Logger
}

func NewCatalogView(api API, logger *zap.Logger) *CatalogView {
	return &CatalogView{api: api, logger: logger}
}

// Load fetches both lists concurrently. Failures land in the list's state.
func (c *CatalogView) Load(ctx context.Context) {
	var g errgroup.Group
	g.Go(func() error {
		loadList(ctx, &c.Symbols, c.api.GetSymbols, c.logger.With(zap.String("catalog", "symbols")))
		return nil
	})
	g.Go(func() error {
		loadList(ctx, &c.Strategies, c.api.GetStrategies, c.logger.With(zap.String("catalog", "strategies")))
		return nil
	})
	_ = g.Wait()
}

func loadList(ctx context.Context, o *Observable[[]analytics.LabeledItem],
	fetch func(context.Context) ([]analytics.LabeledItem, error), logger *zap.Logger) {
	o.update(func(s *State[[]analytics.LabeledItem]) {
		s.Loading = true
		s.Err = nil
	})

	items, err := fetch(ctx)
	if err != nil {
		logger.Warn("failed to load catalog", zap.Error(err))
	} else {
		logger.Info("loaded catalog", zap.Int("count", len(items)))
	}

	o.update(func(s *State[[]analytics.LabeledItem]) {
		if err == nil {
			s.Data = items
		}
		s.Err = err
		s.Loading = false
	})
}
