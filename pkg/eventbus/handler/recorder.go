package handler

import (
	"context"
	"slices"
	"sync"

	"github.com/randalmurphal/eventbus/pkg/eventbus"
	"github.com/randalmurphal/eventbus/pkg/eventbus/event"
)

// Recorder is a synchronous handler that records every event it handles.
// It is safe for concurrent use.
type Recorder struct {
	mu     sync.Mutex
	events []event.Event
	name   string
}

// Compile-time interface checks.
var (
	_ eventbus.Handler = (*Recorder)(nil)
	_ eventbus.Named   = (*Recorder)(nil)
)

// NewRecorder creates an empty recorder.
func NewRecorder(opts ...Option) *Recorder {
	var o options
	for _, opt := range opts {
		opt(&o)
	}
	return &Recorder{name: o.name}
}

// Execute records evt. It never fails.
func (r *Recorder) Execute(_ context.Context, evt event.Event, _ eventbus.Bus) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.events = append(r.events, evt)
	return nil
}

// Name returns the configured name, or "" when none was set.
func (r *Recorder) Name() string {
	return r.name
}

// Recorded returns the recorded events in handling order.
func (r *Recorder) Recorded() []event.Event {
	r.mu.Lock()
	defer r.mu.Unlock()
	return slices.Clone(r.events)
}

// Len returns the number of recorded events.
func (r *Recorder) Len() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.events)
}

// Reset drops every recorded event.
func (r *Recorder) Reset() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.events = nil
}

// First returns the earliest recorded event of type E.
func First[E event.Event](r *Recorder) (E, bool) {
	for _, evt := range r.Recorded() {
		if typed, ok := evt.(E); ok {
			return typed, true
		}
	}
	var zero E
	return zero, false
}

// All returns every recorded event of type E, in handling order.
func All[E event.Event](r *Recorder) []E {
	var out []E
	for _, evt := range r.Recorded() {
		if typed, ok := evt.(E); ok {
			out = append(out, typed)
		}
	}
	return out
}
