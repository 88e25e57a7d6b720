package eventbus

import (
	"log/slog"

	"github.com/randalmurphal/eventbus/pkg/eventbus/observability"
)

// Option configures a LocalBus.
type Option func(*LocalBus)

// WithLogger sets the logger for bus operations.
// Default: a logger that discards everything.
func WithLogger(logger *slog.Logger) Option {
	return func(b *LocalBus) {
		if logger != nil {
			b.logger = logger
		}
	}
}

// WithMetrics sets the metrics recorder.
// Default: observability.NoopMetrics{}.
func WithMetrics(m observability.MetricsRecorder) Option {
	return func(b *LocalBus) {
		if m != nil {
			b.metrics = m
		}
	}
}

// WithSpanManager sets the tracing span manager.
// Default: observability.NoopSpanManager{}.
func WithSpanManager(sm observability.SpanManager) Option {
	return func(b *LocalBus) {
		if sm != nil {
			b.spans = sm
		}
	}
}

// WithObservability enables OTel metrics and tracing using the global
// providers.
func WithObservability() Option {
	return func(b *LocalBus) {
		b.metrics = observability.NewMetricsRecorder()
		b.spans = observability.NewSpanManager()
	}
}
