// Package observability holds the slog helpers, OpenTelemetry instruments and
// span handling shared by the bus, the scheduler loop and the worker pool.
// Every piece has a no-op counterpart, which is what components use until
// configured otherwise.
package observability

import (
	"io"
	"log/slog"
	"time"
)

// DiscardLogger returns a logger that drops every record.
// Components use it when no logger is configured.
func DiscardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

// EnrichLogger adds event context to a logger.
// Returns a new logger with event_id, event_type, and correlation_id fields.
//
// Example:
//
//	enriched := EnrichLogger(logger, evt.ID(), "orders.Placed", evt.CorrelationID())
//	enriched.Info("handling") // includes event_id, event_type, correlation_id
func EnrichLogger(logger *slog.Logger, eventID, eventType, correlationID string) *slog.Logger {
	if logger == nil {
		return nil
	}
	return logger.With(
		slog.String("event_id", eventID),
		slog.String("event_type", eventType),
		slog.String("correlation_id", correlationID),
	)
}

// LogRegister logs a handler registration.
func LogRegister(logger *slog.Logger, key, handler string) {
	if logger == nil {
		return
	}
	logger.Debug("handler registered",
		slog.String("key", key),
		slog.String("handler", handler),
	)
}

// LogEmit logs the start of an emission.
func LogEmit(logger *slog.Logger, eventID, eventType, correlationID string) {
	if logger == nil {
		return
	}
	logger.Debug("emitting event",
		slog.String("event_id", eventID),
		slog.String("event_type", eventType),
		slog.String("correlation_id", correlationID),
	)
}

// LogEmitComplete logs a completed emission.
func LogEmitComplete(logger *slog.Logger, eventID string, durationMs float64, executed int) {
	if logger == nil {
		return
	}
	logger.Debug("event emitted",
		slog.String("event_id", eventID),
		slog.Float64("duration_ms", durationMs),
		slog.Int("handlers_executed", executed),
	)
}

// LogHandlerFailure logs a synchronous handler failure that aborted an
// emission. Pass a logger from EnrichLogger so the record carries the event.
func LogHandlerFailure(logger *slog.Logger, handler string, err error, skipped int) {
	if logger == nil {
		return
	}
	logger.Warn("handler failed, emission aborted",
		slog.String("handler", handler),
		slog.String("error", err.Error()),
		slog.Int("handlers_skipped", skipped),
	)
}

// LogTaskFailure logs a failure of work running outside the emitting
// goroutine. These failures are never returned to the emitter.
func LogTaskFailure(logger *slog.Logger, component string, err error) {
	if logger == nil {
		return
	}
	logger.Error("background task failed",
		slog.String("component", component),
		slog.String("error", err.Error()),
	)
}

// TimedOperation starts a stopwatch; the returned func reports elapsed
// milliseconds.
func TimedOperation() func() float64 {
	start := time.Now()
	return func() float64 { return durationMs(time.Since(start)) }
}
