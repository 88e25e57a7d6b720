package observability

import (
	"context"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
	"go.opentelemetry.io/otel/trace/noop"
)

// NoopMetrics discards every measurement. It is the bus default.
type NoopMetrics struct{}

var _ MetricsRecorder = NoopMetrics{}

// RecordEmit does nothing.
func (NoopMetrics) RecordEmit(context.Context, string, time.Duration, error) {}

// RecordHandlerExecution does nothing.
func (NoopMetrics) RecordHandlerExecution(context.Context, string, string, time.Duration, error) {}

// RecordTaskFailure does nothing.
func (NoopMetrics) RecordTaskFailure(context.Context, string, bool) {}

// NoopSpanManager starts non-recording spans and leaves ctx untouched.
type NoopSpanManager struct{}

var _ SpanManager = NoopSpanManager{}

// StartEmitSpan returns ctx unchanged and a no-op span.
func (NoopSpanManager) StartEmitSpan(ctx context.Context, _, _, _ string) (context.Context, trace.Span) {
	return ctx, noop.Span{}
}

// EndSpanWithError does nothing.
func (NoopSpanManager) EndSpanWithError(trace.Span, error) {}

// AddSpanEvent does nothing.
func (NoopSpanManager) AddSpanEvent(context.Context, string, ...attribute.KeyValue) {}
