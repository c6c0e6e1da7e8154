package analytics

import (
	"context"
	"fmt"
	"net/url"
	"strings"
	"sync"
	"time"

	"github.com/gorilla/websocket"
	"go.uber.org/zap"
)

// WSClient opens analytics streams of the form
// <base>/analytics/<strategy>/ws?symbol=<symbol>.
type WSClient struct {
	baseURL string
	dialer  *websocket.Dialer
	logger  *zap.Logger
}

// NewWSClient creates a client for the given ws:// or wss:// base. An
// http(s) base is rewritten to the matching websocket scheme.
func NewWSClient(baseURL string, timeout time.Duration, logger *zap.Logger) *WSClient {
	return &WSClient{
		baseURL: WebSocketBase(baseURL),
		dialer: &websocket.Dialer{
			Proxy:            websocket.DefaultDialer.Proxy,
			HandshakeTimeout: timeout,
		},
		logger: logger,
	}
}

// WebSocketBase converts an http(s) URL into its ws(s) equivalent.
func WebSocketBase(base string) string {
	base = strings.TrimRight(base, "/")
	switch {
	case strings.HasPrefix(base, "https://"):
		return "wss://" + strings.TrimPrefix(base, "https://")
	case strings.HasPrefix(base, "http://"):
		return "ws://" + strings.TrimPrefix(base, "http://")
	}
	return base
}

// StreamURL returns the stream endpoint for a symbol/strategy pair.
func (c *WSClient) StreamURL(symbol, strategy string) string {
	q := url.Values{"symbol": {symbol}}
	return c.baseURL + "/analytics/" + url.PathEscape(strategy) + "/ws?" + q.Encode()
}

// Dial opens one stream. The returned Conn is owned by the caller.
func (c *WSClient) Dial(ctx context.Context, symbol, strategy string) (*Conn, error) {
	endpoint := c.StreamURL(symbol, strategy)

	conn, _, err := c.dialer.DialContext(ctx, endpoint, nil)
	if err != nil {
		c.logger.Warn("Failed to connect to WebSocket", zap.String("url", endpoint), zap.Error(err))
		return nil, &TransportError{Op: "WS " + endpoint, Err: err}
	}
	c.logger.Info("WebSocket connected", zap.String("url", endpoint))

	return &Conn{conn: conn, url: endpoint}, nil
}

// Conn is an open analytics stream.
type Conn struct {
	conn      *websocket.Conn
	url       string
	closeOnce sync.Once
	closeErr  error
}

// ReadMessage blocks for the next data frame.
func (c *Conn) ReadMessage() ([]byte, error) {
	for {
		typ, msg, err := c.conn.ReadMessage()
		if err != nil {
			return nil, err
		}
		if typ == websocket.TextMessage || typ == websocket.BinaryMessage {
			return msg, nil
		}
	}
}

// Close sends a close frame and closes the socket. Safe to call repeatedly.
func (c *Conn) Close() error {
	c.closeOnce.Do(func() {
		deadline := time.Now().Add(time.Second)
		_ = c.conn.WriteControl(websocket.CloseMessage,
			websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""), deadline)
		if err := c.conn.Close(); err != nil {
			c.closeErr = fmt.Errorf("close %s: %w", c.url, err)
		}
	})
	return c.closeErr
}
