package handler

import (
	"context"

	"github.com/randalmurphal/eventbus/pkg/eventbus"
	"github.com/randalmurphal/eventbus/pkg/eventbus/event"
)

// Scheduler queues work for a cooperative loop.
// Schedule must not block and must not run task before returning.
// *scheduler.Loop implements it.
type Scheduler interface {
	Schedule(task func(ctx context.Context) error)
}

// Async schedules its processor on a cooperative loop.
//
// Execute returns nil as soon as the work is queued. The processor runs
// later, when the loop gets to it, with a context that keeps the emitter's
// values but not its cancellation. Its error or panic is reported by the
// scheduler and never reaches the emitter.
type Async struct {
	proc  Processor
	sched Scheduler
	name  string
}

// Compile-time interface checks.
var (
	_ eventbus.Handler = (*Async)(nil)
	_ eventbus.Named   = (*Async)(nil)
)

// NewAsync creates a handler that runs p on s. Panics if p or s is nil.
func NewAsync(p Processor, s Scheduler, opts ...Option) *Async {
	if p == nil {
		panic("handler: nil processor")
	}
	if s == nil {
		panic("handler: nil scheduler")
	}
	o := applyOptions(p, opts)
	return &Async{proc: p, sched: s, name: o.name}
}

// Execute queues the processor and returns nil.
func (h *Async) Execute(ctx context.Context, evt event.Event, bus eventbus.Bus) error {
	detached := context.WithoutCancel(ctx)
	h.sched.Schedule(func(context.Context) error {
		return h.proc.Process(detached, evt, bus)
	})
	return nil
}

// Name returns the configured name, or "" when none was set.
func (h *Async) Name() string {
	return h.name
}
