package event

import (
	"time"

	"github.com/google/uuid"
)

// Event is the core interface for everything emitted through the bus.
// Events are immutable once created; the parent link cannot be reassigned.
type Event interface {
	// Identity
	ID() string            // Unique event identifier
	OccurredAt() time.Time // When the event was created

	// Causation
	Parent() Event         // Event whose handling produced this one, or nil
	CorrelationID() string // ID of the oldest ancestor (own ID for roots)
	CausationID() string   // ID of the parent, or "" for roots

	// History returns the ancestors oldest first, immediate parent last.
	History() []Event
}

// Base provides the Event implementation that concrete event kinds embed.
// It carries no payload; payload fields belong to the embedding type.
//
//	type OrderPlaced struct {
//	    event.Base
//	    OrderID string
//	}
//
//	evt := &OrderPlaced{Base: event.NewBase(nil), OrderID: "o-1"}
type Base struct {
	id            string
	occurredAt    time.Time
	parent        Event
	correlationID string
}

// Option configures event creation.
type Option func(*baseConfig)

type baseConfig struct {
	id         string
	occurredAt time.Time
}

// WithID sets a specific event ID (default: auto-generated UUID).
func WithID(id string) Option {
	return func(cfg *baseConfig) {
		cfg.id = id
	}
}

// WithTime sets a specific creation time (default: time.Now()).
func WithTime(t time.Time) Option {
	return func(cfg *baseConfig) {
		cfg.occurredAt = t
	}
}

// NewBase creates the embedded base of an event.
// parent is the event whose handler produced this one; pass nil for roots.
func NewBase(parent Event, opts ...Option) Base {
	cfg := &baseConfig{
		id:         uuid.New().String(),
		occurredAt: time.Now(),
	}

	for _, opt := range opts {
		opt(cfg)
	}

	// Roots start a new correlation chain
	correlationID := cfg.id
	if parent != nil {
		correlationID = parent.CorrelationID()
	}

	return Base{
		id:            cfg.id,
		occurredAt:    cfg.occurredAt,
		parent:        parent,
		correlationID: correlationID,
	}
}

// ID returns the unique event identifier.
func (b *Base) ID() string {
	return b.id
}

// OccurredAt returns when the event was created.
func (b *Base) OccurredAt() time.Time {
	return b.occurredAt
}

// Parent returns the event that caused this one, or nil.
func (b *Base) Parent() Event {
	return b.parent
}

// CorrelationID returns the ID shared by every event in the causal chain.
func (b *Base) CorrelationID() string {
	return b.correlationID
}

// CausationID returns the ID of the parent event, or "" for roots.
func (b *Base) CausationID() string {
	if b.parent == nil {
		return ""
	}
	return b.parent.ID()
}

// History returns the ancestors of this event, oldest first and the
// immediate parent last. The event itself is not included.
func (b *Base) History() []Event {
	return ancestors(b.parent, b)
}

func (b *Base) base() *Base {
	return b
}
