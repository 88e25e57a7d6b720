package scheduler

import (
	"log/slog"

	"github.com/randalmurphal/eventbus/pkg/eventbus/observability"
)

// Option configures a Loop.
type Option func(*Loop)

// WithLogger sets the logger for task failures and lifecycle messages.
func WithLogger(logger *slog.Logger) Option {
	return func(l *Loop) {
		if logger != nil {
			l.logger = logger
		}
	}
}

// WithMetrics sets the recorder for task failures.
func WithMetrics(m observability.MetricsRecorder) Option {
	return func(l *Loop) {
		if m != nil {
			l.metrics = m
		}
	}
}

// OnError sets a callback for task errors and recovered panics.
// Panics arrive as *eventbus.PanicError. The callback runs on the
// goroutine driving the loop.
func OnError(fn func(err error)) Option {
	return func(l *Loop) {
		l.onError = fn
	}
}
