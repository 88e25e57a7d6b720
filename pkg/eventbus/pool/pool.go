// Package pool provides a worker pool for handlers whose work should run
// off the emitting goroutine.
//
// Submit never blocks: the queue is unbounded and a fixed set of workers
// drains it in FIFO order. Task errors and panics are reported as Failure
// values and never reach the submitter.
//
//	workers := pool.New(pool.WithWorkers(4), pool.OnFailure(func(f pool.Failure) {
//	    log.Printf("background work failed: %v", f.Err)
//	}))
//	defer workers.Close()
//
//	bus.Register(event.TypeOf[*InvoiceRequested](), handler.NewPool(renderPDF, workers))
package pool

import (
	"context"
	"errors"
	"log/slog"
	"runtime"
	"runtime/debug"
	"sync"
	"sync/atomic"

	"github.com/randalmurphal/eventbus/pkg/eventbus"
	"github.com/randalmurphal/eventbus/pkg/eventbus/handler"
	"github.com/randalmurphal/eventbus/pkg/eventbus/observability"
)

// ErrClosed is returned by Submit after Close.
var ErrClosed = errors.New("pool: closed")

// Task is a unit of submitted work.
type Task = func(ctx context.Context) error

const component = "pool"

// Failure describes a task that returned an error or panicked.
type Failure struct {
	Err   error // Task error, or *eventbus.PanicError
	Panic bool  // True when the task panicked
}

// Stats reports pool counters.
type Stats struct {
	Workers   int    `json:"workers"`
	Submitted uint64 `json:"submitted"`
	Completed uint64 `json:"completed"`
	Failed    uint64 `json:"failed"`
	Queued    int    `json:"queued"`
	Active    int    `json:"active"`
}

// Pool runs submitted tasks on a fixed number of goroutines.
type Pool struct {
	mu     sync.Mutex
	work   *sync.Cond // signaled when a task is queued or the pool closes
	idle   *sync.Cond // signaled when the queue is empty and no task runs
	queue  []Task
	active int
	closed bool
	wg     sync.WaitGroup

	workers   int
	submitted atomic.Uint64
	completed atomic.Uint64
	failed    atomic.Uint64

	onFailure func(Failure)
	logger    *slog.Logger
	metrics   observability.MetricsRecorder
}

// Compile-time interface check.
var _ handler.Submitter = (*Pool)(nil)

// New creates a pool and starts its workers.
// The default worker count is runtime.GOMAXPROCS(0).
func New(opts ...Option) *Pool {
	p := &Pool{
		workers: runtime.GOMAXPROCS(0),
		logger:  observability.DiscardLogger(),
		metrics: observability.NoopMetrics{},
	}
	for _, opt := range opts {
		opt(p)
	}
	if p.workers < 1 {
		p.workers = 1
	}

	p.work = sync.NewCond(&p.mu)
	p.idle = sync.NewCond(&p.mu)

	p.wg.Add(p.workers)
	for i := 0; i < p.workers; i++ {
		go p.worker()
	}

	p.logger.Debug("pool started", slog.Int("workers", p.workers))
	return p
}

// Submit queues task. It returns ErrClosed after Close and never blocks on
// the task itself. A nil task is ignored.
func (p *Pool) Submit(task Task) error {
	if task == nil {
		return nil
	}

	p.mu.Lock()
	defer p.mu.Unlock()

	if p.closed {
		return ErrClosed
	}
	p.queue = append(p.queue, task)
	p.submitted.Add(1)
	p.work.Signal()
	return nil
}

// Wait blocks until the queue is empty and every worker is idle.
func (p *Pool) Wait() {
	p.mu.Lock()
	defer p.mu.Unlock()

	for len(p.queue) > 0 || p.active > 0 {
		p.idle.Wait()
	}
}

// Close stops accepting tasks, lets the workers drain the queue, and waits
// for them to exit. Close is idempotent.
func (p *Pool) Close() error {
	p.mu.Lock()
	if !p.closed {
		p.closed = true
		p.work.Broadcast()
	}
	p.mu.Unlock()

	p.wg.Wait()
	return nil
}

// Stats returns a snapshot of the pool counters.
func (p *Pool) Stats() Stats {
	p.mu.Lock()
	queued, active := len(p.queue), p.active
	p.mu.Unlock()

	return Stats{
		Workers:   p.workers,
		Submitted: p.submitted.Load(),
		Completed: p.completed.Load(),
		Failed:    p.failed.Load(),
		Queued:    queued,
		Active:    active,
	}
}

func (p *Pool) worker() {
	defer p.wg.Done()

	for {
		p.mu.Lock()
		for len(p.queue) == 0 && !p.closed {
			p.work.Wait()
		}
		if len(p.queue) == 0 {
			p.mu.Unlock()
			return
		}
		task := p.queue[0]
		p.queue[0] = nil
		p.queue = p.queue[1:]
		p.active++
		p.mu.Unlock()

		p.execute(task)

		p.mu.Lock()
		p.active--
		if p.active == 0 && len(p.queue) == 0 {
			p.idle.Broadcast()
		}
		p.mu.Unlock()
	}
}

func (p *Pool) execute(task Task) {
	ctx := context.Background()

	err := runTask(ctx, task)
	if err == nil {
		p.completed.Add(1)
		return
	}

	p.failed.Add(1)

	var panicErr *eventbus.PanicError
	f := Failure{Err: err, Panic: errors.As(err, &panicErr)}

	observability.LogTaskFailure(p.logger, component, err)
	p.metrics.RecordTaskFailure(ctx, component, f.Panic)
	if p.onFailure != nil {
		p.onFailure(f)
	}
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
