package handler

import (
	"context"

	"github.com/randalmurphal/eventbus/pkg/eventbus"
	"github.com/randalmurphal/eventbus/pkg/eventbus/event"
)

// Sync runs its processor inline during Emit.
//
// The processor's error is returned from Execute, which makes the bus stop
// the emission. Panics are not recovered.
type Sync struct {
	proc Processor
	name string
}

// Compile-time interface checks.
var (
	_ eventbus.Handler = (*Sync)(nil)
	_ eventbus.Named   = (*Sync)(nil)
)

// NewSync creates a synchronous handler. Panics if p is nil.
func NewSync(p Processor, opts ...Option) *Sync {
	if p == nil {
		panic("handler: nil processor")
	}
	o := applyOptions(p, opts)
	return &Sync{proc: p, name: o.name}
}

// Execute runs the processor and returns its error.
func (h *Sync) Execute(ctx context.Context, evt event.Event, bus eventbus.Bus) error {
	return h.proc.Process(ctx, evt, bus)
}

// Name returns the configured name, or "" when none was set.
func (h *Sync) Name() string {
	return h.name
}
