package eventbus

import (
	"context"

	"github.com/randalmurphal/eventbus/pkg/eventbus/event"
)

// Handler is a registered unit of event processing.
//
// The bus calls Execute once per matching registration. Execute decides how
// the actual work runs: inline, on a cooperative scheduler, or on a worker
// pool (see package handler). The bus never waits for work Execute did not
// run inline.
type Handler interface {
	Execute(ctx context.Context, evt event.Event, bus Bus) error
}

// Registry stores handlers by key.
// Implementations may use any storage as long as they keep these contracts.
type Registry interface {
	// AddHandler appends h to the handlers stored under key.
	// Handlers are not deduplicated; registering twice means two invocations.
	AddHandler(key event.Key, h Handler)

	// Handlers returns the handlers stored under key in registration order.
	// The result is a snapshot: modifying it never changes the registry.
	// Returns an empty slice when nothing is registered.
	Handlers(key event.Key) []Handler
}

// Bus connects emitters with registered handlers.
type Bus interface {
	// Register binds h to a concrete event type key or to event.AllEvents.
	// Register never invokes handlers.
	Register(key event.Key, h Handler)

	// Emit dispatches evt to every wildcard handler, then to every handler
	// registered for the exact type of evt, each in registration order.
	Emit(ctx context.Context, evt event.Event) error
}

// Named is implemented by handlers that carry a stable name for logs,
// metrics, and persisted registrations.
type Named interface {
	Name() string
}
