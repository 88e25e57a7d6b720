package eventbus

import (
	"errors"
	"fmt"

	"github.com/randalmurphal/eventbus/pkg/eventbus/event"
)

// Sentinel errors.
var (
	// ErrNilEvent is returned by Emit when called with a nil event.
	ErrNilEvent = errors.New("eventbus: nil event")

	// ErrNilRegistry is the panic value of New when given a nil registry.
	ErrNilRegistry = errors.New("eventbus: nil registry")
)

// HandlerError reports a synchronous handler failure that aborted an emission.
type HandlerError struct {
	Event   event.Event // The event being dispatched
	Key     event.Key   // Key the handler was registered under
	Handler string      // Handler name
	Err     error       // Error returned by Execute
}

// Error implements error interface.
func (e *HandlerError) Error() string {
	return fmt.Sprintf("event %s: handler %s (key %s): %v", e.Event.ID(), e.Handler, e.Key, e.Err)
}

// Unwrap returns the underlying error.
func (e *HandlerError) Unwrap() error {
	return e.Err
}

// PanicError is produced when work running outside the emitting goroutine
// panics. Schedulers and pools report it through their failure channel.
// Emit records it on the emission span and metrics when a synchronous
// handler panics, then re-panics with the original value.
type PanicError struct {
	Value any    // Recovered panic value
	Stack []byte // Stack trace at recovery
}

// Error implements error interface.
func (e *PanicError) Error() string {
	return fmt.Sprintf("panic: %v", e.Value)
}

// Unwrap returns the panic value when it is an error.
func (e *PanicError) Unwrap() error {
	if err, ok := e.Value.(error); ok {
		return err
	}
	return nil
}

// TypeMismatchError is returned by typed processors handed an event of a
// different concrete type than they were written for. The bus does not check
// compatibility at registration; this is how a misregistration surfaces.
type TypeMismatchError struct {
	Event    event.Event
	Expected string
}

// Error implements error interface.
func (e *TypeMismatchError) Error() string {
	return fmt.Sprintf("event %s: expected %s, got %s", e.Event.ID(), e.Expected, event.KeyOf(e.Event))
}

// HandlerName returns a name for h, used in logs and metrics.
func HandlerName(h Handler) string {
	if n, ok := h.(Named); ok {
		if name := n.Name(); name != "" {
			return name
		}
	}
	return fmt.Sprintf("%T", h)
}
