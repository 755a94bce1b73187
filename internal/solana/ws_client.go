package solana

import (
	"context"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"github.com/gorilla/websocket"
)

// WSClientConfig configures WebSocket connection behavior.
type WSClientConfig struct {
	// HandshakeTimeout bounds the opening handshake.
	HandshakeTimeout time.Duration
	// PingInterval is interval for sending ping frames.
	PingInterval time.Duration
	// ReadTimeout is how long the connection may stay silent, pongs included.
	ReadTimeout time.Duration
	// WriteTimeout is timeout for writing messages.
	WriteTimeout time.Duration
}

// DefaultWSConfig returns default WebSocket configuration.
func DefaultWSConfig() WSClientConfig {
	return WSClientConfig{
		HandshakeTimeout: 10 * time.Second,
		PingInterval:     30 * time.Second,
		ReadTimeout:      60 * time.Second,
		WriteTimeout:     10 * time.Second,
	}
}

// WSConn is one live WebSocket connection to a Solana PubSub endpoint.
// It is not reconnected internally: once ReadFrame fails the connection is
// dead and the owner is expected to Close it and dial a new one.
type WSConn struct {
	conn   *websocket.Conn
	config WSClientConfig

	writeMu   sync.Mutex
	requestID atomic.Uint64
	closed    atomic.Bool

	done chan struct{}
	wg   sync.WaitGroup
}

// DialWS opens a WebSocket connection to endpoint.
func DialWS(ctx context.Context, endpoint string, config *WSClientConfig) (*WSConn, error) {
	cfg := DefaultWSConfig()
	if config != nil {
		cfg = *config
	}

	dialer := websocket.Dialer{
		HandshakeTimeout: cfg.HandshakeTimeout,
	}

	conn, _, err := dialer.DialContext(ctx, endpoint, nil)
	if err != nil {
		return nil, fmt.Errorf("websocket dial: %w", err)
	}

	c := &WSConn{
		conn:   conn,
		config: cfg,
		done:   make(chan struct{}),
	}

	// Any inbound traffic, pongs included, proves the link is alive.
	c.extendReadDeadline()
	conn.SetPongHandler(func(string) error {
		c.extendReadDeadline()
		return nil
	})

	if cfg.PingInterval > 0 {
		c.wg.Add(1)
		go c.pingLoop()
	}

	return c, nil
}

func (c *WSConn) extendReadDeadline() {
	if c.config.ReadTimeout > 0 {
		c.conn.SetReadDeadline(time.Now().Add(c.config.ReadTimeout))
	}
}

// SubscribeLogs sends a logsSubscribe request and returns its request ID.
// The confirmation arrives later as an ordinary frame.
func (c *WSConn) SubscribeLogs(filter LogsFilter, commitment string) (uint64, error) {
	if c.closed.Load() {
		return 0, fmt.Errorf("connection closed")
	}

	reqID := c.requestID.Add(1)

	mentionsFilter := make(map[string]interface{})
	if len(filter.Mentions) > 0 {
		mentionsFilter["mentions"] = filter.Mentions
	} else {
		mentionsFilter["all"] = nil
	}

	req := wsRequest{
		JSONRPC: "2.0",
		ID:      reqID,
		Method:  "logsSubscribe",
		Params: []interface{}{
			mentionsFilter,
			map[string]string{"commitment": commitment},
		},
	}

	c.writeMu.Lock()
	defer c.writeMu.Unlock()

	if c.config.WriteTimeout > 0 {
		c.conn.SetWriteDeadline(time.Now().Add(c.config.WriteTimeout))
	}
	if err := c.conn.WriteJSON(req); err != nil {
		return 0, fmt.Errorf("write subscribe: %w", err)
	}

	return reqID, nil
}

// ReadFrame blocks until the next data frame arrives.
func (c *WSConn) ReadFrame() ([]byte, error) {
	_, message, err := c.conn.ReadMessage()
	if err != nil {
		return nil, err
	}
	c.extendReadDeadline()
	return message, nil
}

// Close closes the connection. It is safe to call more than once and
// concurrently with ReadFrame, which then returns an error.
func (c *WSConn) Close() error {
	if c.closed.Swap(true) {
		return nil
	}

	close(c.done)

	deadline := time.Now().Add(time.Second)
	c.conn.WriteControl(websocket.CloseMessage,
		websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""), deadline)
	err := c.conn.Close()

	c.wg.Wait()
	return err
}

// pingLoop sends periodic ping frames to keep connection alive.
func (c *WSConn) pingLoop() {
	defer c.wg.Done()

	ticker := time.NewTicker(c.config.PingInterval)
	defer ticker.Stop()

	for {
		select {
		case <-c.done:
			return
		case <-ticker.C:
			timeout := c.config.WriteTimeout
			if timeout <= 0 {
				timeout = DefaultWSConfig().WriteTimeout
			}
			deadline := time.Now().Add(timeout)
			// A failed ping means the link is dead; ReadFrame will report it.
			_ = c.conn.WriteControl(websocket.PingMessage, nil, deadline)
		}
	}
}
