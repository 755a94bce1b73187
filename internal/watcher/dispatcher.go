package watcher

import (
	"context"
	"sync"
	"sync/atomic"

	"go.uber.org/zap"
	"golang.org/x/sync/semaphore"

	"spl-transfer-watch/internal/observability"
	"spl-transfer-watch/internal/solana"
)

// Discard reasons reported for frames that start no work.
const (
	DiscardMalformed       = "malformed"
	DiscardRPCError        = "rpc_error"
	DiscardConfirmation    = "confirmation"
	DiscardNotNotification = "not_notification"
	DiscardNoSignature     = "no_signature"
)

// SignatureHandler processes one transaction signature.
type SignatureHandler interface {
	Resolve(ctx context.Context, signature string)
}

// Dispatcher decodes inbound frames and starts one independent unit of
// work per actionable signature. Dispatch never waits for that work.
type Dispatcher struct {
	handler SignatureHandler
	sem     *semaphore.Weighted
	logger  *zap.Logger

	wg       sync.WaitGroup
	inFlight atomic.Int64
}

// DispatcherOptions contains configuration for creating a Dispatcher.
type DispatcherOptions struct {
	Handler SignatureHandler
	// MaxConcurrency caps concurrently running handlers. 0 means unbounded.
	MaxConcurrency int64
	Logger         *zap.Logger
}

// NewDispatcher creates a new Dispatcher.
func NewDispatcher(opts DispatcherOptions) *Dispatcher {
	logger := opts.Logger
	if logger == nil {
		logger = zap.NewNop()
	}

	d := &Dispatcher{
		handler: opts.Handler,
		logger:  logger.Named("dispatcher"),
	}
	if opts.MaxConcurrency > 0 {
		d.sem = semaphore.NewWeighted(opts.MaxConcurrency)
	}
	return d
}

// Dispatch handles one raw frame and reports whether work was started.
func (d *Dispatcher) Dispatch(ctx context.Context, frame []byte) bool {
	msg, err := solana.DecodeMessage(frame)
	if err != nil {
		d.discard(DiscardMalformed)
		d.logger.Warn("malformed frame", zap.Error(err), zap.Int("bytes", len(frame)))
		return false
	}

	switch {
	case msg.Error != nil:
		d.discard(DiscardRPCError)
		d.logger.Warn("rpc error frame",
			zap.Uint64("id", msg.ID),
			zap.Int("code", msg.Error.Code),
			zap.String("message", msg.Error.Message))
		return false
	case msg.IsSubscriptionConfirmation():
		d.discard(DiscardConfirmation)
		d.logger.Debug("subscription confirmed", zap.Uint64("id", msg.ID), zap.ByteString("subscription", msg.Result))
		return false
	case msg.Method != solana.MethodLogsNotification:
		d.discard(DiscardNotNotification)
		return false
	case msg.Notification == nil || msg.Notification.Signature == "":
		d.discard(DiscardNoSignature)
		d.logger.Debug("notification without signature")
		return false
	}

	notif := msg.Notification
	if notif.Err != nil {
		d.logger.Debug("dispatching failed transaction", zap.String("signature", notif.Signature), zap.Any("err", notif.Err))
	}

	observability.RecordEventDispatched()
	d.spawn(ctx, notif.Signature)
	return true
}

func (d *Dispatcher) discard(reason string) {
	observability.RecordFrameDiscarded(reason)
}

func (d *Dispatcher) spawn(ctx context.Context, signature string) {
	d.wg.Add(1)
	d.inFlight.Add(1)
	observability.AddInFlight(1)

	go func() {
		defer func() {
			if r := recover(); r != nil {
				d.logger.Error("handler panic", zap.String("signature", signature), zap.Any("panic", r))
			}
			observability.AddInFlight(-1)
			d.inFlight.Add(-1)
			d.wg.Done()
		}()

		if d.sem != nil {
			if err := d.sem.Acquire(ctx, 1); err != nil {
				return
			}
			defer d.sem.Release(1)
		}

		d.handler.Resolve(ctx, signature)
	}()
}

// InFlight returns the number of started, unfinished units of work.
func (d *Dispatcher) InFlight() int64 {
	return d.inFlight.Load()
}

// Wait blocks until all started work has finished.
func (d *Dispatcher) Wait() {
	d.wg.Wait()
}
