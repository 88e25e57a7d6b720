package registry_test

import (
	"context"

	"github.com/randalmurphal/eventbus/pkg/eventbus"
	"github.com/randalmurphal/eventbus/pkg/eventbus/event"
)

type orderPlaced struct {
	event.Base
}

type orderShipped struct {
	event.Base
}

// namedHandler is a no-op handler identified by name.
type namedHandler struct {
	name string
}

func (h *namedHandler) Name() string { return h.name }

func (h *namedHandler) Execute(context.Context, event.Event, eventbus.Bus) error {
	return nil
}

func handler(name string) *namedHandler {
	return &namedHandler{name: name}
}

func names(handlers []eventbus.Handler) []string {
	out := make([]string, 0, len(handlers))
	for _, h := range handlers {
		out = append(out, eventbus.HandlerName(h))
	}
	return out
}
