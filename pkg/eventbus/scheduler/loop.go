// Package scheduler provides a cooperative task loop for asynchronous
// handlers.
//
// A Loop keeps one FIFO queue. Tasks run one at a time, in the order they
// were scheduled, on whichever goroutine drives the loop: Run for a
// long-lived loop, or RunPending / RunUntilIdle when the application steps
// the loop itself.
//
//	loop := scheduler.New(scheduler.WithLogger(logger))
//	go loop.Run(ctx)
//
//	bus.Register(event.AllEvents, handler.NewAsync(audit, loop))
//	_ = bus.Emit(ctx, evt)
//	_ = loop.Yield(ctx) // audit has now seen evt
package scheduler

import (
	"context"
	"errors"
	"log/slog"
	"runtime/debug"
	"sync"
	"sync/atomic"

	"github.com/randalmurphal/eventbus/pkg/eventbus"
	"github.com/randalmurphal/eventbus/pkg/eventbus/handler"
	"github.com/randalmurphal/eventbus/pkg/eventbus/observability"
)

// Sentinel errors.
var (
	// ErrAlreadyRunning is returned by Run while another Run is active.
	ErrAlreadyRunning = errors.New("scheduler: already running")

	// ErrStopped is returned by Yield when Run exits before the barrier is reached.
	ErrStopped = errors.New("scheduler: loop stopped")
)

// Task is a unit of scheduled work.
type Task = func(ctx context.Context) error

const component = "scheduler"

// item is a queued task or a Yield barrier.
type item struct {
	task    Task
	barrier chan struct{}
}

// Stats reports loop counters.
type Stats struct {
	Scheduled uint64 `json:"scheduled"` // Tasks accepted by Schedule
	Completed uint64 `json:"completed"` // Tasks that returned nil
	Failed    uint64 `json:"failed"`    // Tasks that returned an error or panicked
	Pending   int    `json:"pending"`   // Tasks queued but not started
}

// Loop is a single-consumer FIFO task loop.
type Loop struct {
	mu      sync.Mutex
	queue   []item
	running bool
	stopped chan struct{} // closed when the active Run exits
	wake    chan struct{}

	driver    sync.Mutex // held by whoever is executing tasks
	done      chan struct{}
	closeOnce sync.Once

	scheduled atomic.Uint64
	completed atomic.Uint64
	failed    atomic.Uint64

	onError func(error)
	logger  *slog.Logger
	metrics observability.MetricsRecorder
}

// Compile-time interface check.
var _ handler.Scheduler = (*Loop)(nil)

// New creates an idle loop.
func New(opts ...Option) *Loop {
	l := &Loop{
		wake:    make(chan struct{}, 1),
		done:    make(chan struct{}),
		logger:  observability.DiscardLogger(),
		metrics: observability.NoopMetrics{},
	}
	for _, opt := range opts {
		opt(l)
	}
	return l
}

// Schedule appends task to the queue. It never blocks and never runs task.
// A nil task is ignored.
func (l *Loop) Schedule(task Task) {
	if task == nil {
		return
	}
	l.scheduled.Add(1)
	l.push(item{task: task})
}

func (l *Loop) push(it item) {
	l.mu.Lock()
	l.queue = append(l.queue, it)
	l.mu.Unlock()

	select {
	case l.wake <- struct{}{}:
	default:
	}
}

func (l *Loop) pop() (item, bool) {
	l.mu.Lock()
	defer l.mu.Unlock()

	if len(l.queue) == 0 {
		return item{}, false
	}
	it := l.queue[0]
	l.queue[0] = item{}
	l.queue = l.queue[1:]
	return it, true
}

// Run executes tasks as they are scheduled until ctx is done or Close is
// called. It returns nil after Close and ctx.Err() after cancellation.
// Tasks left in the queue stay there.
func (l *Loop) Run(ctx context.Context) error {
	l.mu.Lock()
	if l.running {
		l.mu.Unlock()
		return ErrAlreadyRunning
	}
	l.running = true
	stopped := make(chan struct{})
	l.stopped = stopped
	l.mu.Unlock()

	l.driver.Lock()
	defer func() {
		l.driver.Unlock()
		l.mu.Lock()
		l.running = false
		l.stopped = nil
		l.mu.Unlock()
		close(stopped)
	}()

	l.logger.Debug("scheduler started")

	for {
		select {
		case <-l.done:
			l.logger.Debug("scheduler closed")
			return nil
		case <-ctx.Done():
			return ctx.Err()
		default:
		}

		it, ok := l.pop()
		if !ok {
			select {
			case <-l.done:
				l.logger.Debug("scheduler closed")
				return nil
			case <-ctx.Done():
				return ctx.Err()
			case <-l.wake:
			}
			continue
		}
		l.execute(ctx, it)
	}
}

// RunPending runs the tasks queued at the time of the call in the calling
// goroutine and returns how many ran. Tasks they schedule wait for the next
// call. While Run is active RunPending does nothing and returns 0.
func (l *Loop) RunPending() int {
	l.mu.Lock()
	if l.running {
		l.mu.Unlock()
		return 0
	}
	l.mu.Unlock()

	l.driver.Lock()
	defer l.driver.Unlock()

	l.mu.Lock()
	n := len(l.queue)
	l.mu.Unlock()

	ran := 0
	for i := 0; i < n; i++ {
		it, ok := l.pop()
		if !ok {
			break
		}
		if l.execute(context.Background(), it) {
			ran++
		}
	}
	return ran
}

// RunUntilIdle calls RunPending until the queue is empty, so tasks
// scheduled by other tasks run too. Returns the total number of tasks run.
func (l *Loop) RunUntilIdle() int {
	total := 0
	for {
		n := l.RunPending()
		if n == 0 {
			return total
		}
		total += n
	}
}

// Yield waits until every task scheduled before the call has run.
//
// While Run is active, Yield queues a barrier and blocks until Run reaches
// it, ctx is done, or Run exits (ErrStopped). Otherwise it behaves like
// RunPending in the calling goroutine.
func (l *Loop) Yield(ctx context.Context) error {
	l.mu.Lock()
	if !l.running {
		l.mu.Unlock()
		l.RunPending()
		return nil
	}
	barrier := make(chan struct{})
	stopped := l.stopped
	l.queue = append(l.queue, item{barrier: barrier})
	l.mu.Unlock()

	select {
	case l.wake <- struct{}{}:
	default:
	}

	select {
	case <-barrier:
		return nil
	case <-stopped:
		return ErrStopped
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Close makes an active Run return. Queued tasks are kept and can still be
// run with RunPending. Close is idempotent.
func (l *Loop) Close() error {
	l.closeOnce.Do(func() {
		close(l.done)
	})
	return nil
}

// Running reports whether Run is driving the loop.
func (l *Loop) Running() bool {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.running
}

// Len returns the number of queued tasks.
func (l *Loop) Len() int {
	l.mu.Lock()
	defer l.mu.Unlock()

	n := 0
	for _, it := range l.queue {
		if it.task != nil {
			n++
		}
	}
	return n
}

// Stats returns a snapshot of the loop counters.
func (l *Loop) Stats() Stats {
	return Stats{
		Scheduled: l.scheduled.Load(),
		Completed: l.completed.Load(),
		Failed:    l.failed.Load(),
		Pending:   l.Len(),
	}
}

// execute runs one queued item and reports whether it was a task.
func (l *Loop) execute(ctx context.Context, it item) bool {
	if it.barrier != nil {
		close(it.barrier)
		return false
	}

	err := runTask(ctx, it.task)
	if err == nil {
		l.completed.Add(1)
		return true
	}

	l.failed.Add(1)

	var panicErr *eventbus.PanicError
	panicked := errors.As(err, &panicErr)

	observability.LogTaskFailure(l.logger, component, err)
	l.metrics.RecordTaskFailure(ctx, component, panicked)
	if l.onError != nil {
		l.onError(err)
	}
	return true
}

// runTask calls task, converting a panic into *eventbus.PanicError.
func runTask(ctx context.Context, task Task) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = &eventbus.PanicError{Value: r, Stack: debug.Stack()}
		}
	}()
	return task(ctx)
}
