package eventbus_test

import (
	"context"
	"sync"

	"github.com/randalmurphal/eventbus/pkg/eventbus"
	"github.com/randalmurphal/eventbus/pkg/eventbus/event"
)

type userCreated struct {
	event.Base
	Email string
}

func newUserCreated(parent event.Event, email string) *userCreated {
	return &userCreated{Base: event.NewBase(parent), Email: email}
}

type welcomeSent struct {
	event.Base
}

func newWelcomeSent(parent event.Event) *welcomeSent {
	return &welcomeSent{Base: event.NewBase(parent)}
}

// adminCreated extends userCreated but is its own dispatch type.
type adminCreated struct {
	userCreated
}

func newAdminCreated(email string) *adminCreated {
	return &adminCreated{userCreated: userCreated{Base: event.NewBase(nil), Email: email}}
}

// journal records handler invocations in order across goroutines.
type journal struct {
	mu      sync.Mutex
	entries []string
}

func (j *journal) add(s string) {
	j.mu.Lock()
	defer j.mu.Unlock()
	j.entries = append(j.entries, s)
}

func (j *journal) list() []string {
	j.mu.Lock()
	defer j.mu.Unlock()
	return append([]string(nil), j.entries...)
}

// tracked is a handler that writes its name to a journal.
type tracked struct {
	name string
	j    *journal
	err  error
}

func (h *tracked) Name() string { return h.name }

func (h *tracked) Execute(context.Context, event.Event, eventbus.Bus) error {
	h.j.add(h.name)
	return h.err
}
