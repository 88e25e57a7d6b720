package eventbus_test

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
	"go.opentelemetry.io/otel/trace/noop"

	"github.com/randalmurphal/eventbus/pkg/eventbus"
	"github.com/randalmurphal/eventbus/pkg/eventbus/event"
	"github.com/randalmurphal/eventbus/pkg/eventbus/handler"
	"github.com/randalmurphal/eventbus/pkg/eventbus/observability"
	"github.com/randalmurphal/eventbus/pkg/eventbus/registry"
)

type emitRecord struct {
	eventType string
	err       error
}

type handlerRecord struct {
	handler string
	err     error
}

// fakeMetrics captures metric calls.
type fakeMetrics struct {
	mu       sync.Mutex
	emits    []emitRecord
	handlers []handlerRecord
}

func (m *fakeMetrics) RecordEmit(_ context.Context, eventType string, _ time.Duration, err error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.emits = append(m.emits, emitRecord{eventType: eventType, err: err})
}

func (m *fakeMetrics) RecordHandlerExecution(_ context.Context, h, _ string, _ time.Duration, err error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.handlers = append(m.handlers, handlerRecord{handler: h, err: err})
}

func (m *fakeMetrics) RecordTaskFailure(context.Context, string, bool) {}

// fakeSpans captures span lifecycle calls.
type fakeSpans struct {
	started []string
	ended   []error
	events  []string
}

func (s *fakeSpans) StartEmitSpan(ctx context.Context, eventType, _, _ string) (context.Context, trace.Span) {
	s.started = append(s.started, eventType)
	return ctx, noop.Span{}
}

func (s *fakeSpans) EndSpanWithError(_ trace.Span, err error) {
	s.ended = append(s.ended, err)
}

func (s *fakeSpans) AddSpanEvent(_ context.Context, name string, _ ...attribute.KeyValue) {
	s.events = append(s.events, name)
}

var (
	_ observability.MetricsRecorder = (*fakeMetrics)(nil)
	_ observability.SpanManager     = (*fakeSpans)(nil)
)

func TestEmit_RecordsMetricsAndSpans(t *testing.T) {
	metrics := &fakeMetrics{}
	spans := &fakeSpans{}
	bus := eventbus.New(registry.NewMemory(),
		eventbus.WithMetrics(metrics),
		eventbus.WithSpanManager(spans),
	)

	j := &journal{}
	declined := errors.New("declined")
	bus.Register(event.AllEvents, &tracked{name: "audit", j: j})
	bus.Register(event.TypeOf[*userCreated](), &tracked{name: "billing", j: j, err: declined})

	require.NoError(t, bus.Emit(context.Background(), newWelcomeSent(nil)))
	require.Error(t, bus.Emit(context.Background(), newUserCreated(nil, "a@example.com")))

	welcomeType := event.TypeOf[*welcomeSent]().String()
	userType := event.TypeOf[*userCreated]().String()

	require.Len(t, metrics.emits, 2)
	assert.Equal(t, welcomeType, metrics.emits[0].eventType)
	assert.NoError(t, metrics.emits[0].err)
	assert.Equal(t, userType, metrics.emits[1].eventType)
	assert.ErrorIs(t, metrics.emits[1].err, declined)

	assert.Equal(t, []handlerRecord{
		{handler: "audit"},
		{handler: "audit"},
		{handler: "billing", err: declined},
	}, metrics.handlers)

	assert.Equal(t, []string{welcomeType, userType}, spans.started)
	require.Len(t, spans.ended, 2)
	assert.NoError(t, spans.ended[0])
	assert.ErrorIs(t, spans.ended[1], declined)
	assert.Equal(t, []string{"handler.executed", "handler.executed", "handler.executed"}, spans.events)
}

func TestEmit_PanicRecordedAsFailure(t *testing.T) {
	metrics := &fakeMetrics{}
	spans := &fakeSpans{}
	bus := eventbus.New(registry.NewMemory(),
		eventbus.WithMetrics(metrics),
		eventbus.WithSpanManager(spans),
	)
	bus.Register(event.AllEvents, handler.NewSync(handler.ProcessorFunc(
		func(context.Context, event.Event, eventbus.Bus) error { panic("bad") },
	)))

	assert.PanicsWithValue(t, "bad", func() {
		_ = bus.Emit(context.Background(), newWelcomeSent(nil))
	})

	var perr *eventbus.PanicError
	require.Len(t, spans.ended, 1)
	require.ErrorAs(t, spans.ended[0], &perr)
	assert.Equal(t, "bad", perr.Value)
	assert.NotEmpty(t, perr.Stack)

	require.Len(t, metrics.emits, 1)
	assert.ErrorAs(t, metrics.emits[0].err, &perr)
}

func TestEmit_Logs(t *testing.T) {
	var buf bytes.Buffer
	logger := slog.New(slog.NewJSONHandler(&buf, &slog.HandlerOptions{Level: slog.LevelDebug}))
	bus := eventbus.New(registry.NewMemory(), eventbus.WithLogger(logger))

	declined := errors.New("declined")
	bus.Register(event.TypeOf[*userCreated](), &tracked{name: "billing", j: &journal{}, err: declined})
	bus.Register(event.TypeOf[*userCreated](), &tracked{name: "shipping", j: &journal{}})

	evt := newUserCreated(nil, "a@example.com")
	require.Error(t, bus.Emit(context.Background(), evt))

	var messages []string
	var failure map[string]any
	for _, line := range strings.Split(strings.TrimSpace(buf.String()), "\n") {
		var rec map[string]any
		require.NoError(t, json.Unmarshal([]byte(line), &rec))
		messages = append(messages, rec["msg"].(string))
		if rec["level"] == "WARN" {
			failure = rec
		}
	}

	assert.Equal(t, []string{"handler registered", "handler registered", "emitting event", "handler failed, emission aborted"}, messages)
	require.NotNil(t, failure)
	assert.Equal(t, evt.ID(), failure["event_id"])
	assert.Equal(t, event.TypeOf[*userCreated]().String(), failure["event_type"])
	assert.Equal(t, evt.CorrelationID(), failure["correlation_id"])
	assert.Equal(t, "billing", failure["handler"])
	assert.Equal(t, float64(1), failure["handlers_skipped"])
}

func TestWithObservability(t *testing.T) {
	bus := eventbus.New(registry.NewMemory(), eventbus.WithObservability())
	bus.Register(event.AllEvents, &tracked{name: "audit", j: &journal{}})

	assert.NoError(t, bus.Emit(context.Background(), newWelcomeSent(nil)))
}
