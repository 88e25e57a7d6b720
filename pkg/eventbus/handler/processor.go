package handler

import (
	"context"

	"github.com/randalmurphal/eventbus/pkg/eventbus"
	"github.com/randalmurphal/eventbus/pkg/eventbus/event"
)

// Processor holds the user logic behind a handler.
type Processor interface {
	Process(ctx context.Context, evt event.Event, bus eventbus.Bus) error
}

// ProcessorFunc adapts a function to Processor.
type ProcessorFunc func(ctx context.Context, evt event.Event, bus eventbus.Bus) error

// Process calls f.
func (f ProcessorFunc) Process(ctx context.Context, evt event.Event, bus eventbus.Bus) error {
	return f(ctx, evt, bus)
}

// Typed adapts a function written for one concrete event type.
//
// Registration does not check that the key matches E. An event of any other
// type makes Process return *eventbus.TypeMismatchError without calling fn.
func Typed[E event.Event](fn func(ctx context.Context, evt E, bus eventbus.Bus) error) Processor {
	return ProcessorFunc(func(ctx context.Context, evt event.Event, bus eventbus.Bus) error {
		typed, ok := evt.(E)
		if !ok {
			return &eventbus.TypeMismatchError{
				Event:    evt,
				Expected: event.TypeOf[E]().String(),
			}
		}
		return fn(ctx, typed, bus)
	})
}
