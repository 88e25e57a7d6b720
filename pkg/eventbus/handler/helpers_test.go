package handler_test

import (
	"context"
	"errors"

	"github.com/randalmurphal/eventbus/pkg/eventbus/event"
)

type orderPlaced struct {
	event.Base
	OrderID string
}

func newOrderPlaced(id string) *orderPlaced {
	return &orderPlaced{Base: event.NewBase(nil), OrderID: id}
}

type orderShipped struct {
	event.Base
}

func newOrderShipped(parent event.Event) *orderShipped {
	return &orderShipped{Base: event.NewBase(parent)}
}

// queue is a Scheduler that holds tasks until run is called.
type queue struct {
	tasks []func(context.Context) error
}

func (q *queue) Schedule(task func(context.Context) error) {
	q.tasks = append(q.tasks, task)
}

func (q *queue) run() []error {
	tasks := q.tasks
	q.tasks = nil
	var errs []error
	for _, task := range tasks {
		errs = append(errs, task(context.Background()))
	}
	return errs
}

var errRefused = errors.New("refused")

// submitter is a Submitter that holds tasks, or refuses them when closed.
type submitter struct {
	queue
	closed bool
}

func (s *submitter) Submit(task func(context.Context) error) error {
	if s.closed {
		return errRefused
	}
	s.Schedule(task)
	return nil
}
