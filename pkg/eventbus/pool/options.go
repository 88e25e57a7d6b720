package pool

import (
	"log/slog"

	"github.com/randalmurphal/eventbus/pkg/eventbus/observability"
)

// Option configures a Pool.
type Option func(*Pool)

// WithWorkers sets the number of worker goroutines. Values below 1 mean 1.
func WithWorkers(n int) Option {
	return func(p *Pool) {
		p.workers = n
	}
}

// WithLogger sets the logger for task failures.
func WithLogger(logger *slog.Logger) Option {
	return func(p *Pool) {
		if logger != nil {
			p.logger = logger
		}
	}
}

// WithMetrics sets the recorder for task failures.
func WithMetrics(m observability.MetricsRecorder) Option {
	return func(p *Pool) {
		if m != nil {
			p.metrics = m
		}
	}
}

// OnFailure sets the callback receiving task failures. It runs on the
// worker that ran the task and must be safe for concurrent use.
func OnFailure(fn func(Failure)) Option {
	return func(p *Pool) {
		p.onFailure = fn
	}
}
