package observability

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
)

const instrumentationName = "github.com/randalmurphal/eventbus"

// MetricsRecorder records event bus metrics.
// Use NewMetricsRecorder() for OTel metrics or NoopMetrics{} when disabled.
type MetricsRecorder interface {
	// RecordEmit records a completed (or aborted) emission.
	RecordEmit(ctx context.Context, eventType string, duration time.Duration, err error)

	// RecordHandlerExecution records one Execute call made by the bus.
	RecordHandlerExecution(ctx context.Context, handler, eventType string, duration time.Duration, err error)

	// RecordTaskFailure records a failure swallowed by a scheduler or pool.
	RecordTaskFailure(ctx context.Context, component string, panicked bool)
}

type otelMetrics struct {
	emits          metric.Int64Counter
	emitErrors     metric.Int64Counter
	emitLatency    metric.Float64Histogram
	handlerExecs   metric.Int64Counter
	handlerErrors  metric.Int64Counter
	handlerLatency metric.Float64Histogram
	taskFailures   metric.Int64Counter
}

// NewMetricsRecorder returns an OTel recorder on the global meter provider.
// Set the provider with otel.SetMeterProvider first. Falls back to
// NoopMetrics when the instruments cannot be created.
func NewMetricsRecorder() MetricsRecorder {
	m, err := NewMeterRecorder(otel.GetMeterProvider())
	if err != nil {
		slog.Warn("metrics disabled", slog.String("error", err.Error()))
		return NoopMetrics{}
	}
	return m
}

// NewMeterRecorder creates the bus instruments on mp.
func NewMeterRecorder(mp metric.MeterProvider) (MetricsRecorder, error) {
	meter := mp.Meter(instrumentationName)

	var errs []error
	counter := func(name, desc string) metric.Int64Counter {
		c, err := meter.Int64Counter(name, metric.WithDescription(desc))
		errs = append(errs, err)
		return c
	}
	latency := func(name, desc string) metric.Float64Histogram {
		h, err := meter.Float64Histogram(name, metric.WithDescription(desc), metric.WithUnit("ms"))
		errs = append(errs, err)
		return h
	}

	m := &otelMetrics{
		emits:          counter("eventbus.emits", "Emitted events"),
		emitErrors:     counter("eventbus.emit.errors", "Emissions aborted by a handler error"),
		emitLatency:    latency("eventbus.emit.latency_ms", "Time spent in Emit"),
		handlerExecs:   counter("eventbus.handler.executions", "Handler Execute calls"),
		handlerErrors:  counter("eventbus.handler.errors", "Handler Execute calls returning an error"),
		handlerLatency: latency("eventbus.handler.latency_ms", "Handler Execute latency"),
		taskFailures:   counter("eventbus.task.failures", "Failed scheduled or pooled tasks"),
	}
	if err := errors.Join(errs...); err != nil {
		return nil, fmt.Errorf("create instruments: %w", err)
	}
	return m, nil
}

func (m *otelMetrics) RecordEmit(ctx context.Context, eventType string, duration time.Duration, err error) {
	set := metric.WithAttributes(attribute.String("event_type", eventType))
	m.emits.Add(ctx, 1, set)
	m.emitLatency.Record(ctx, durationMs(duration), set)
	if err != nil {
		m.emitErrors.Add(ctx, 1, set)
	}
}

func (m *otelMetrics) RecordHandlerExecution(ctx context.Context, handler, eventType string, duration time.Duration, err error) {
	set := metric.WithAttributes(
		attribute.String("handler", handler),
		attribute.String("event_type", eventType),
	)
	m.handlerExecs.Add(ctx, 1, set)
	m.handlerLatency.Record(ctx, durationMs(duration), set)
	if err != nil {
		m.handlerErrors.Add(ctx, 1, set)
	}
}

func (m *otelMetrics) RecordTaskFailure(ctx context.Context, component string, panicked bool) {
	m.taskFailures.Add(ctx, 1, metric.WithAttributes(
		attribute.String("component", component),
		attribute.Bool("panic", panicked),
	))
}

func durationMs(d time.Duration) float64 {
	return float64(d.Microseconds()) / 1000
}
