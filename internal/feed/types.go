package feed

import (
	"context"
	"strings"

	"livechart/internal/series"
)

// Identity scopes a live stream to one symbol/strategy pair.
type Identity struct {
	Symbol   string `json:"symbol"`
	Strategy string `json:"strategy"`
}

// Complete reports whether both halves are set.
func (id Identity) Complete() bool {
	return id.Symbol != "" && id.Strategy != ""
}

func (id Identity) String() string {
	return id.Symbol + "/" + id.Strategy
}

// owns reports whether an observation's identity tag is compatible with id.
// Untagged observations are accepted.
func (id Identity) owns(obs *series.LiveObservation) bool {
	if obs.Symbol != "" && !strings.EqualFold(obs.Symbol, id.Symbol) {
		return false
	}
	if obs.Strategy != "" && !strings.EqualFold(obs.Strategy, id.Strategy) {
		return false
	}
	return true
}

type State int

const (
	Disconnected State = iota
	Connected
)

func (s State) String() string {
	if s == Connected {
		return "connected"
	}
	return "disconnected"
}

// Conn is one open stream delivering text frames.
type Conn interface {
	ReadMessage() ([]byte, error)
	Close() error
}

// Dialer opens a stream scoped to an identity.
type Dialer interface {
	Dial(ctx context.Context, id Identity) (Conn, error)
}

// DialerFunc adapts a function to Dialer.
type DialerFunc func(ctx context.Context, id Identity) (Conn, error)

func (f DialerFunc) Dial(ctx context.Context, id Identity) (Conn, error) { return f(ctx, id) }

// Consumer receives every parsed observation of the active identity. It is
// called from the stream's read goroutine and must not call back into the
// Subscriber.
type Consumer func(id Identity, obs *series.LiveObservation)

// StateHook is notified after each state transition. err is set when the
// transition was caused by a failure (dial error, stream read error).
type StateHook func(id Identity, state State, err error)
