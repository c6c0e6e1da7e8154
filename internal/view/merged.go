package view

import (
	"strings"
	"sync"

	"livechart/internal/series"
)

// MergedView is the strategy series with live observations folded in.
// Each observation is merged into the displayed series; when the base
// reloads, the latest observation is re-applied on top of it.
type MergedView struct {
	Observable[*series.DerivedSeries]

	mu        sync.Mutex
	base      *series.DerivedSeries
	latest    *series.LiveObservation
	displayed *series.DerivedSeries
	cancel    []func()
}

func NewMergedView(strategy *StrategyView, live *LiveView) *MergedView {
	m := &MergedView{}
	m.cancel = append(m.cancel,
		strategy.Subscribe(m.onBase),
		live.Subscribe(m.onLive),
	)
	return m
}

// Close detaches the view from its sources.
func (m *MergedView) Close() {
	for _, c := range m.cancel {
		c()
	}
}

func (m *MergedView) onBase(s State[*series.DerivedSeries]) {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.base = s.Data
	var obs *series.LiveObservation
	if belongsTo(m.latest, s.Data) {
		obs = m.latest
	}
	m.displayed = series.MergeDerived(s.Data, obs)
	m.set(State[*series.DerivedSeries]{Data: m.displayed, Loading: s.Loading, Err: s.Err})
}

func (m *MergedView) onLive(s State[*series.LiveObservation]) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if s.Data == m.latest {
		return // connection state change only
	}
	m.latest = s.Data
	switch {
	case s.Data == nil:
		// The live identity changed; the base belongs to the previous one
		// until the strategy view reloads.
		m.base = nil
		m.displayed = nil
	case belongsTo(s.Data, m.displayed):
		m.displayed = series.MergeDerived(m.displayed, s.Data)
	default:
		return
	}
	m.update(func(st *State[*series.DerivedSeries]) { st.Data = m.displayed })
}

// belongsTo reports whether obs can be merged into base.
func belongsTo(obs *series.LiveObservation, base *series.DerivedSeries) bool {
	if obs == nil || base == nil {
		return false
	}
	if obs.Symbol != "" && base.Symbol != "" && !strings.EqualFold(obs.Symbol, base.Symbol) {
		return false
	}
	if obs.Strategy != "" && base.Strategy != "" && !strings.EqualFold(obs.Strategy, base.Strategy) {
		return false
	}
	return true
}
