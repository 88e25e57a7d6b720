package handler

import (
	"context"
	"fmt"

	"github.com/randalmurphal/eventbus/pkg/eventbus"
	"github.com/randalmurphal/eventbus/pkg/eventbus/event"
)

// Submitter runs work on other goroutines.
// Submit must not block waiting for the work to finish. It returns an error
// only when the work was refused. *pool.Pool implements it.
type Submitter interface {
	Submit(task func(ctx context.Context) error) error
}

// Pool submits its processor to a worker pool.
//
// Execute returns once the work is accepted. Failures of the work itself go
// to the pool's failure channel. Only a refused submission, such as a closed
// pool, is returned to the bus.
type Pool struct {
	proc    Processor
	workers Submitter
	name    string
}

// Compile-time interface checks.
var (
	_ eventbus.Handler = (*Pool)(nil)
	_ eventbus.Named   = (*Pool)(nil)
)

// NewPool creates a handler that runs p on s. Panics if p or s is nil.
func NewPool(p Processor, s Submitter, opts ...Option) *Pool {
	if p == nil {
		panic("handler: nil processor")
	}
	if s == nil {
		panic("handler: nil submitter")
	}
	o := applyOptions(p, opts)
	return &Pool{proc: p, workers: s, name: o.name}
}

// Execute submits the processor and returns the submission error, if any.
func (h *Pool) Execute(ctx context.Context, evt event.Event, bus eventbus.Bus) error {
	detached := context.WithoutCancel(ctx)
	err := h.workers.Submit(func(context.Context) error {
		return h.proc.Process(detached, evt, bus)
	})
	if err != nil {
		return fmt.Errorf("submit event %s: %w", evt.ID(), err)
	}
	return nil
}

// Name returns the configured name, or "" when none was set.
func (h *Pool) Name() string {
	return h.name
}
