package watcher

import (
	"context"
	"fmt"
	"sync/atomic"
	"time"

	"github.com/cenkalti/backoff/v4"
	"go.uber.org/zap"

	"spl-transfer-watch/internal/observability"
	"spl-transfer-watch/internal/solana"
)

// DefaultReconnectDelay is the fixed pause between connection attempts.
const DefaultReconnectDelay = 5 * time.Second

// State is the connection state of a SubscriptionManager.
type State int32

const (
	StateDisconnected State = iota
	StateConnecting
	StateSubscribed
)

func (s State) String() string {
	switch s {
	case StateDisconnected:
		return "disconnected"
	case StateConnecting:
		return "connecting"
	case StateSubscribed:
		return "subscribed"
	default:
		return fmt.Sprintf("state(%d)", int32(s))
	}
}

// Stream is one live log subscription connection.
// Close must be idempotent and must unblock a pending ReadFrame.
type Stream interface {
	SubscribeLogs(filter solana.LogsFilter, commitment string) (uint64, error)
	ReadFrame() ([]byte, error)
	Close() error
}

// DialFunc opens a new Stream.
type DialFunc func(ctx context.Context) (Stream, error)

// WSDialer returns a DialFunc that opens WebSocket connections to endpoint.
func WSDialer(endpoint string, cfg *solana.WSClientConfig) DialFunc {
	return func(ctx context.Context) (Stream, error) {
		conn, err := solana.DialWS(ctx, endpoint, cfg)
		if err != nil {
			return nil, err
		}
		return conn, nil
	}
}

// FrameHandler consumes raw inbound frames.
type FrameHandler interface {
	Dispatch(ctx context.Context, frame []byte) bool
}

// SubscriptionManager keeps one logsSubscribe stream open for the watched
// address, reconnecting after a fixed delay whenever it drops.
type SubscriptionManager struct {
	dial       DialFunc
	handler    FrameHandler
	watched    string
	commitment string
	delay      time.Duration
	logger     *zap.Logger

	state atomic.Int32
}

// SubscriptionManagerOptions contains configuration for creating a SubscriptionManager.
type SubscriptionManagerOptions struct {
	Dial           DialFunc
	Handler        FrameHandler
	WatchedAddress string
	Commitment     string        // Default: confirmed
	ReconnectDelay time.Duration // Default: 5s
	Logger         *zap.Logger
}

// NewSubscriptionManager creates a new SubscriptionManager.
func NewSubscriptionManager(opts SubscriptionManagerOptions) *SubscriptionManager {
	commitment := opts.Commitment
	if commitment == "" {
		commitment = solana.CommitmentConfirmed
	}

	delay := opts.ReconnectDelay
	if delay <= 0 {
		delay = DefaultReconnectDelay
	}

	logger := opts.Logger
	if logger == nil {
		logger = zap.NewNop()
	}

	return &SubscriptionManager{
		dial:       opts.Dial,
		handler:    opts.Handler,
		watched:    opts.WatchedAddress,
		commitment: commitment,
		delay:      delay,
		logger:     logger.Named("subscription"),
	}
}

// State returns the current connection state.
func (m *SubscriptionManager) State() State {
	return State(m.state.Load())
}

func (m *SubscriptionManager) setState(s State) {
	prev := State(m.state.Swap(int32(s)))
	observability.SetConnectionState(int(s))
	if prev != s {
		m.logger.Info("connection state", zap.Stringer("from", prev), zap.Stringer("to", s))
	}
}

// Run keeps the subscription alive until ctx is cancelled and then returns ctx.Err().
func (m *SubscriptionManager) Run(ctx context.Context) error {
	m.logger.Info("starting subscription",
		zap.String("address", m.watched),
		zap.String("commitment", m.commitment),
		zap.Duration("reconnect_delay", m.delay))

	op := func() error {
		err := m.session(ctx)
		if ctx.Err() != nil {
			return backoff.Permanent(ctx.Err())
		}
		return err
	}

	notify := func(err error, next time.Duration) {
		observability.RecordReconnect()
		m.logger.Warn("connection lost, reconnecting", zap.Error(err), zap.Duration("delay", next))
	}

	b := backoff.WithContext(backoff.NewConstantBackOff(m.delay), ctx)
	err := backoff.RetryNotify(op, b, notify)

	m.setState(StateDisconnected)
	m.logger.Info("subscription stopped")
	return err
}

// session runs one connection until it fails. It always returns a non-nil error.
func (m *SubscriptionManager) session(ctx context.Context) error {
	m.setState(StateConnecting)

	stream, err := m.dial(ctx)
	if err != nil {
		m.setState(StateDisconnected)
		return fmt.Errorf("dial: %w", err)
	}
	defer func() {
		stream.Close()
		m.setState(StateDisconnected)
	}()

	// Closing the stream is the only way to unblock ReadFrame on shutdown.
	stop := make(chan struct{})
	defer close(stop)
	go func() {
		select {
		case <-ctx.Done():
			stream.Close()
		case <-stop:
		}
	}()

	filter := solana.LogsFilter{Mentions: []string{m.watched}}
	if _, err := stream.SubscribeLogs(filter, m.commitment); err != nil {
		return fmt.Errorf("subscribe: %w", err)
	}
	m.setState(StateSubscribed)

	for {
		frame, err := stream.ReadFrame()
		if err != nil {
			return fmt.Errorf("read: %w", err)
		}
		observability.RecordFrameReceived()
		m.handler.Dispatch(ctx, frame)
	}
}
