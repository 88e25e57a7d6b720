package pool_test

import (
	"bytes"
	"context"
	"errors"
	"log/slog"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/randalmurphal/eventbus/pkg/eventbus"
	"github.com/randalmurphal/eventbus/pkg/eventbus/pool"
)

func TestPool_RunsTasks(t *testing.T) {
	p := pool.New(pool.WithWorkers(4))
	defer p.Close()

	var count atomic.Int32
	for i := 0; i < 100; i++ {
		require.NoError(t, p.Submit(func(context.Context) error {
			count.Add(1)
			return nil
		}))
	}

	p.Wait()

	assert.Equal(t, int32(100), count.Load())
	stats := p.Stats()
	assert.Equal(t, 4, stats.Workers)
	assert.Equal(t, uint64(100), stats.Submitted)
	assert.Equal(t, uint64(100), stats.Completed)
	assert.Zero(t, stats.Queued)
	assert.Zero(t, stats.Active)
}

func TestPool_SingleWorkerIsFIFO(t *testing.T) {
	p := pool.New(pool.WithWorkers(1))
	defer p.Close()

	var got []int
	for i := 1; i <= 5; i++ {
		require.NoError(t, p.Submit(func(context.Context) error {
			got = append(got, i)
			return nil
		}))
	}
	p.Wait()

	assert.Equal(t, []int{1, 2, 3, 4, 5}, got)
}

func TestPool_SubmitDoesNotBlock(t *testing.T) {
	p := pool.New(pool.WithWorkers(1))

	release := make(chan struct{})
	submitted := make(chan struct{})

	go func() {
		for i := 0; i < 10; i++ {
			_ = p.Submit(func(context.Context) error {
				<-release
				return nil
			})
		}
		close(submitted)
	}()

	select {
	case <-submitted:
	case <-time.After(time.Second):
		t.Fatal("Submit blocked while workers were busy")
	}

	close(release)
	require.NoError(t, p.Close())
	assert.Equal(t, uint64(10), p.Stats().Completed)
}

func TestPool_Failures(t *testing.T) {
	boom := errors.New("boom")
	var buf bytes.Buffer

	var mu sync.Mutex
	var failures []pool.Failure

	p := pool.New(
		pool.WithWorkers(1),
		pool.WithLogger(slog.New(slog.NewTextHandler(&buf, nil))),
		pool.OnFailure(func(f pool.Failure) {
			mu.Lock()
			defer mu.Unlock()
			failures = append(failures, f)
		}),
	)
	defer p.Close()

	require.NoError(t, p.Submit(func(context.Context) error { return boom }))
	require.NoError(t, p.Submit(func(context.Context) error { panic("bad") }))
	require.NoError(t, p.Submit(func(context.Context) error { return nil }))
	p.Wait()

	mu.Lock()
	defer mu.Unlock()
	require.Len(t, failures, 2)

	assert.ErrorIs(t, failures[0].Err, boom)
	assert.False(t, failures[0].Panic)

	var panicErr *eventbus.PanicError
	require.ErrorAs(t, failures[1].Err, &panicErr)
	assert.True(t, failures[1].Panic)
	assert.Equal(t, "bad", panicErr.Value)

	stats := p.Stats()
	assert.Equal(t, uint64(1), stats.Completed)
	assert.Equal(t, uint64(2), stats.Failed)
	assert.Contains(t, buf.String(), "boom")
}

func TestPool_CloseDrainsQueue(t *testing.T) {
	p := pool.New(pool.WithWorkers(2))

	var count atomic.Int32
	for i := 0; i < 20; i++ {
		require.NoError(t, p.Submit(func(context.Context) error {
			time.Sleep(time.Millisecond)
			count.Add(1)
			return nil
		}))
	}

	require.NoError(t, p.Close())
	assert.Equal(t, int32(20), count.Load())

	// Idempotent, and refuses new work
	require.NoError(t, p.Close())
	assert.ErrorIs(t, p.Submit(func(context.Context) error { return nil }), pool.ErrClosed)
}

func TestPool_DefaultWorkers(t *testing.T) {
	p := pool.New()
	defer p.Close()
	assert.GreaterOrEqual(t, p.Stats().Workers, 1)

	q := pool.New(pool.WithWorkers(0))
	defer q.Close()
	assert.Equal(t, 1, q.Stats().Workers)
}

func TestPool_SubmitNil(t *testing.T) {
	p := pool.New(pool.WithWorkers(1))
	defer p.Close()

	assert.NoError(t, p.Submit(nil))
	assert.Zero(t, p.Stats().Submitted)
}

func TestPool_WaitWithNoWork(t *testing.T) {
	p := pool.New(pool.WithWorkers(1))
	defer p.Close()

	done := make(chan struct{})
	go func() {
		p.Wait()
		close(done)
	}()

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("Wait blocked on an idle pool")
	}
}
