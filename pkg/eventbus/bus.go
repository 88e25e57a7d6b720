package eventbus

import (
	"context"
	"log/slog"
	"runtime/debug"
	"time"

	"go.opentelemetry.io/otel/attribute"

	"github.com/randalmurphal/eventbus/pkg/eventbus/event"
	"github.com/randalmurphal/eventbus/pkg/eventbus/observability"
)

// LocalBus is the in-process Bus implementation.
//
// LocalBus performs no threading of its own: Emit runs in the caller's
// goroutine and calls Execute on each matching handler in turn. Handlers
// choose whether their work runs inline or elsewhere.
//
// The registry is the only mutable state and LocalBus does not lock it.
// Concurrent Register calls, or Register concurrent with Emit, need a
// synchronized registry (registry.Locked) or external locking.
type LocalBus struct {
	registry Registry

	logger  *slog.Logger
	metrics observability.MetricsRecorder
	spans   observability.SpanManager
}

// Compile-time interface check.
var _ Bus = (*LocalBus)(nil)

// New creates a bus that owns reg. reg must not be nil or shared with
// another bus.
func New(reg Registry, opts ...Option) *LocalBus {
	if reg == nil {
		panic(ErrNilRegistry)
	}

	b := &LocalBus{
		registry: reg,
		logger:   observability.DiscardLogger(),
		metrics:  observability.NoopMetrics{},
		spans:    observability.NoopSpanManager{},
	}

	for _, opt := range opts {
		opt(b)
	}

	return b
}

// Register binds h to key. key is either a concrete type key from
// event.TypeOf / event.KeyOf or event.AllEvents. No compatibility check is
// made between h and key.
func (b *LocalBus) Register(key event.Key, h Handler) {
	if h == nil {
		panic("eventbus: nil handler")
	}
	b.registry.AddHandler(key, h)
	observability.LogRegister(b.logger, key.String(), HandlerName(h))
}

// Emit dispatches evt.
//
// Wildcard handlers run first, then handlers registered for the exact
// dynamic type of evt; each group in registration order. The first handler
// returning an error stops the emission: later handlers are skipped and the
// error is returned wrapped in *HandlerError.
//
// Emit returns once every Execute call has returned. Work that asynchronous
// or pool handlers handed off may still be queued or running.
func (b *LocalBus) Emit(ctx context.Context, evt event.Event) (err error) {
	if evt == nil {
		return ErrNilEvent
	}

	key := event.KeyOf(evt)
	eventType := key.String()
	done := observability.TimedOperation()
	start := time.Now()

	ctx, span := b.spans.StartEmitSpan(ctx, eventType, evt.ID(), evt.CorrelationID())
	defer func() {
		r := recover()
		if r != nil {
			err = &PanicError{Value: r, Stack: debug.Stack()}
		}
		b.spans.EndSpanWithError(span, err)
		b.metrics.RecordEmit(ctx, eventType, time.Since(start), err)
		if r != nil {
			panic(r)
		}
	}()

	observability.LogEmit(b.logger, evt.ID(), eventType, evt.CorrelationID())

	wildcards := b.registry.Handlers(event.AllEvents)

	executed, err := b.dispatch(ctx, evt, event.AllEvents, wildcards)
	if err != nil {
		return err
	}

	// Resolved after the wildcard pass, so registrations made by wildcard
	// handlers during this emission are visible here.
	typed := b.registry.Handlers(key)
	n, err := b.dispatch(ctx, evt, key, typed)
	executed += n
	if err != nil {
		return err
	}

	observability.LogEmitComplete(b.logger, evt.ID(), done(), executed)
	return nil
}

// dispatch calls Execute on each handler in order and stops at the first
// error. Returns the number of handlers whose Execute returned nil.
func (b *LocalBus) dispatch(ctx context.Context, evt event.Event, key event.Key, handlers []Handler) (int, error) {
	eventType := event.KeyOf(evt).String()

	for i, h := range handlers {
		name := HandlerName(h)
		start := time.Now()

		err := h.Execute(ctx, evt, b)

		b.metrics.RecordHandlerExecution(ctx, name, eventType, time.Since(start), err)
		b.spans.AddSpanEvent(ctx, "handler.executed",
			attribute.String("handler", name),
			attribute.String("key", key.String()),
			attribute.Bool("error", err != nil),
		)

		if err != nil {
			logger := observability.EnrichLogger(b.logger, evt.ID(), eventType, evt.CorrelationID())
			observability.LogHandlerFailure(logger, name, err, len(handlers)-i-1)
			return i, &HandlerError{
				Event:   evt,
				Key:     key,
				Handler: name,
				Err:     err,
			}
		}
	}

	return len(handlers), nil
}
