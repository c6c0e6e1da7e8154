package feed

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"livechart/internal/series"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

// Subscriber keeps at most one live stream open, scoped to the current
// identity. Changing the identity closes the active stream before the next
// one is dialed; frames read from a superseded stream are never delivered.
type Subscriber struct {
	dialer  Dialer
	consume Consumer
	hook    StateHook
	logger  *zap.Logger

	mu       sync.Mutex
	identity Identity
	seq      uint64 // bumped on every identity change
	sess     *session
}

type session struct {
	id       string
	identity Identity
	conn     Conn
	done     chan struct{}

	mu     sync.Mutex
	closed bool
}

func NewSubscriber(dialer Dialer, consume Consumer, logger *zap.Logger) *Subscriber {
	return &Subscriber{
		dialer:  dialer,
		consume: consume,
		logger:  logger,
	}
}

// OnStateChange registers a hook for state transitions. Must be called
// before the first SetIdentity.
func (s *Subscriber) OnStateChange(h StateHook) {
	s.hook = h
}

// SetIdentity binds the subscriber to id. An unchanged identity is a no-op,
// including while disconnected: streams are never retried on the same
// identity. An incomplete identity only disconnects. The dial runs without
// holding the subscriber lock; if the identity changes meanwhile, the new
// connection is closed unused.
func (s *Subscriber) SetIdentity(ctx context.Context, id Identity) error {
	s.mu.Lock()
	if id == s.identity {
		s.mu.Unlock()
		return nil
	}
	prev := s.identity
	s.identity = id
	s.seq++
	seq := s.seq
	closed := s.disconnectLocked()
	s.mu.Unlock()

	if closed {
		s.notify(prev, Disconnected, nil)
	}
	if !id.Complete() {
		return nil
	}

	conn, err := s.dialer.Dial(ctx, id)

	s.mu.Lock()
	if s.seq != seq {
		s.mu.Unlock()
		if err != nil {
			return fmt.Errorf("dial %s: %w", id, err)
		}
		_ = conn.Close()
		s.logger.Debug("discarding stream of superseded identity", zap.Stringer("identity", id))
		return nil
	}
	if err != nil {
		s.mu.Unlock()
		s.logger.Warn("live stream dial failed", zap.Stringer("identity", id), zap.Error(err))
		err = fmt.Errorf("dial %s: %w", id, err)
		s.notify(id, Disconnected, err)
		return err
	}
	sess := s.open(id, conn)
	s.mu.Unlock()

	s.notify(id, Connected, nil)
	go s.listen(sess)
	return nil
}

// Close disconnects and forgets the identity. Idempotent.
func (s *Subscriber) Close() {
	s.mu.Lock()
	prev := s.identity
	s.identity = Identity{}
	s.seq++
	closed := s.disconnectLocked()
	s.mu.Unlock()

	if closed {
		s.notify(prev, Disconnected, nil)
	}
}

func (s *Subscriber) State() State {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.sess != nil {
		return Connected
	}
	return Disconnected
}

func (s *Subscriber) Identity() Identity {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.identity
}

// open installs conn as the active session. Caller holds s.mu.
func (s *Subscriber) open(id Identity, conn Conn) *session {
	sess := &session{
		id:       uuid.NewString(),
		identity: id,
		conn:     conn,
		done:     make(chan struct{}),
	}
	s.sess = sess
	s.logger.Info("live stream opened", zap.Stringer("identity", id), zap.String("session", sess.id))
	return sess
}

// disconnectLocked closes the active session, reporting whether there was one.
func (s *Subscriber) disconnectLocked() bool {
	if s.sess == nil {
		return false
	}
	sess := s.sess
	s.sess = nil
	sess.close()
	s.logger.Info("live stream closed", zap.Stringer("identity", sess.identity), zap.String("session", sess.id))
	return true
}

func (s *Subscriber) listen(sess *session) {
	defer close(sess.done)

	for {
		msg, err := sess.conn.ReadMessage()
		if err != nil {
			s.ended(sess, err)
			return
		}

		obs, err := series.ParseLiveObservation(msg)
		if err != nil {
			s.logger.Debug("dropping malformed live frame", zap.String("session", sess.id), zap.Error(err))
			continue
		}
		if !sess.identity.owns(obs) {
			s.logger.Debug("dropping live frame for another identity",
				zap.String("session", sess.id),
				zap.String("symbol", obs.Symbol),
				zap.String("strategy", obs.Strategy),
			)
			continue
		}

		sess.deliver(func() { s.consume(sess.identity, obs) })
	}
}

// ended handles a stream that stopped on its own (remote close or error).
func (s *Subscriber) ended(sess *session, err error) {
	if !sess.markClosed() {
		return // closed by us
	}
	_ = sess.conn.Close()

	s.mu.Lock()
	current := s.sess == sess
	if current {
		s.sess = nil
	}
	s.mu.Unlock()
	if !current {
		return
	}

	s.logger.Info("live stream ended", zap.Stringer("identity", sess.identity), zap.String("session", sess.id), zap.Error(err))
	s.notify(sess.identity, Disconnected, &ConnectionError{Identity: sess.identity, Err: err})
}

func (s *Subscriber) notify(id Identity, state State, err error) {
	if s.hook != nil {
		s.hook(id, state, err)
	}
}

func (sess *session) deliver(fn func()) {
	sess.mu.Lock()
	defer sess.mu.Unlock()
	if sess.closed {
		return
	}
	fn()
}

// markClosed flips the session to closed, reporting whether this call did it.
func (sess *session) markClosed() bool {
	sess.mu.Lock()
	defer sess.mu.Unlock()
	if sess.closed {
		return false
	}
	sess.closed = true
	return true
}

func (sess *session) close() {
	if sess.markClosed() {
		_ = sess.conn.Close()
	}
}

// ConnectionError reports a stream that closed or failed after opening.
type ConnectionError struct {
	Identity Identity
	Err      error
}

func (e *ConnectionError) Error() string {
	return fmt.Sprintf("live stream %s: %v", e.Identity, e.Err)
}

func (e *ConnectionError) Unwrap() error { return e.Err }

// IsConnectionError reports whether err is, or wraps, a *ConnectionError.
func IsConnectionError(err error) bool {
	var ce *ConnectionError
	return errors.As(err, &ce)
}
