package handler

import "github.com/randalmurphal/eventbus/pkg/eventbus"

// Option configures a handler.
type Option func(*options)

type options struct {
	name string
}

// WithName sets the name used in logs, metrics, and persisted registrations.
func WithName(name string) Option {
	return func(o *options) {
		o.name = name
	}
}

// applyOptions resolves options. Without WithName, a Named processor lends
// its own name.
func applyOptions(p Processor, opts []Option) options {
	var o options
	for _, opt := range opts {
		opt(&o)
	}
	if o.name == "" {
		if n, ok := p.(eventbus.Named); ok {
			o.name = n.Name()
		}
	}
	return o
}
