package view

import (
	"context"
	"sync"

	"livechart/internal/feed"
	"livechart/internal/series"

	"go.uber.org/zap"
)

// LiveView exposes the latest live observation of the selected identity.
// Switching identity resets the data to nil before the new stream opens.
type LiveView struct {
	Observable[*series.LiveObservation]

	sub    *feed.Subscriber
	logger *zap.Logger

	mu   sync.Mutex
	want feed.Identity
}

func NewLiveView(dialer feed.Dialer, logger *zap.Logger) *LiveView {
	v := &LiveView{logger: logger}
	v.sub = feed.NewSubscriber(dialer, v.receive, logger)
	v.sub.OnStateChange(v.stateChanged)
	return v
}

// Select points the live stream at id. Dial failures are recorded in the
// view state and returned.
func (v *LiveView) Select(ctx context.Context, id feed.Identity) error {
	v.mu.Lock()
	if id != v.want {
		v.want = id
		v.set(State[*series.LiveObservation]{})
	}
	v.mu.Unlock()

	return v.sub.SetIdentity(ctx, id)
}

// Connected reports whether a stream is open.
func (v *LiveView) Connected() bool {
	return v.sub.State() == feed.Connected
}

// Close shuts the stream down.
func (v *LiveView) Close() {
	v.sub.Close()
}

func (v *LiveView) receive(id feed.Identity, obs *series.LiveObservation) {
	v.mu.Lock()
	defer v.mu.Unlock()
	if id != v.want {
		return
	}
	v.update(func(s *State[*series.LiveObservation]) {
		s.Data = obs
		s.Err = nil
	})
}

func (v *LiveView) stateChanged(id feed.Identity, state feed.State, err error) {
	v.mu.Lock()
	defer v.mu.Unlock()
	if id != v.want {
		return
	}
	v.update(func(s *State[*series.LiveObservation]) {
		switch {
		case err != nil:
			s.Err = err
		case state == feed.Connected:
			s.Err = nil
		}
	})
}
