package view

import (
	"context"

	"livechart/internal/series"
	"livechart/pkg/analytics"
)

// API is the remote surface the views read from. *analytics.RESTClient
// implements it.
type API interface {
	GetHistory(ctx context.Context, symbol string) (*series.RawSeries, error)
	GetAnalytics(ctx context.Context, strategy, symbol string) (*series.DerivedSeries, error)
	GetSymbols(ctx context.Context) ([]analytics.LabeledItem, error)
	GetStrategies(ctx context.Context) ([]analytics.LabeledItem, error)
}
