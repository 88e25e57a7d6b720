package benchmarks

import (
	"context"
	"testing"

	"github.com/randalmurphal/eventbus/pkg/eventbus"
	"github.com/randalmurphal/eventbus/pkg/eventbus/event"
	"github.com/randalmurphal/eventbus/pkg/eventbus/handler"
	"github.com/randalmurphal/eventbus/pkg/eventbus/pool"
	"github.com/randalmurphal/eventbus/pkg/eventbus/registry"
	"github.com/randalmurphal/eventbus/pkg/eventbus/scheduler"
)

// Tick is the benchmark event.
type Tick struct {
	event.Base
}

func newTick() *Tick {
	return &Tick{Base: event.NewBase(nil)}
}

var noop = handler.ProcessorFunc(func(context.Context, event.Event, eventbus.Bus) error {
	return nil
})

// buildBus registers n sync handlers under Tick and one wildcard.
func buildBus(reg eventbus.Registry, n int) *eventbus.LocalBus {
	bus := eventbus.New(reg)
	bus.Register(event.AllEvents, handler.NewSync(noop))
	for i := 0; i < n; i++ {
		bus.Register(event.TypeOf[*Tick](), handler.NewSync(noop))
	}
	return bus
}

// BenchmarkEmit_NoHandlers measures dispatch overhead with an empty registry.
func BenchmarkEmit_NoHandlers(b *testing.B) {
	bus := eventbus.New(registry.NewMemory())
	evt := newTick()
	ctx := context.Background()
	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		_ = bus.Emit(ctx, evt)
	}
}

// BenchmarkEmit_Sync_1 emits to one typed handler plus a wildcard.
func BenchmarkEmit_Sync_1(b *testing.B) {
	bus := buildBus(registry.NewMemory(), 1)
	evt := newTick()
	ctx := context.Background()
	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		_ = bus.Emit(ctx, evt)
	}
}

// BenchmarkEmit_Sync_10 emits to ten typed handlers plus a wildcard.
func BenchmarkEmit_Sync_10(b *testing.B) {
	bus := buildBus(registry.NewMemory(), 10)
	evt := newTick()
	ctx := context.Background()
	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		_ = bus.Emit(ctx, evt)
	}
}

// BenchmarkEmit_Locked_10 measures the cost of the locked registry.
func BenchmarkEmit_Locked_10(b *testing.B) {
	bus := buildBus(registry.NewLocked(nil), 10)
	evt := newTick()
	ctx := context.Background()
	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		_ = bus.Emit(ctx, evt)
	}
}

// BenchmarkEmit_LockedParallel emits from many goroutines.
func BenchmarkEmit_LockedParallel(b *testing.B) {
	bus := buildBus(registry.NewLocked(nil), 10)
	ctx := context.Background()
	b.ResetTimer()
	b.RunParallel(func(pb *testing.PB) {
		evt := newTick()
		for pb.Next() {
			_ = bus.Emit(ctx, evt)
		}
	})
}

// BenchmarkEmit_Async queues one task per emission and drains in batches.
func BenchmarkEmit_Async(b *testing.B) {
	loop := scheduler.New()
	bus := eventbus.New(registry.NewMemory())
	bus.Register(event.TypeOf[*Tick](), handler.NewAsync(noop, loop))
	evt := newTick()
	ctx := context.Background()
	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		_ = bus.Emit(ctx, evt)
		if i%1024 == 0 {
			loop.RunPending()
		}
	}
	loop.RunPending()
}

// BenchmarkEmit_Pool submits one task per emission to a worker pool.
func BenchmarkEmit_Pool(b *testing.B) {
	workers := pool.New()
	defer workers.Close()
	bus := eventbus.New(registry.NewMemory())
	bus.Register(event.TypeOf[*Tick](), handler.NewPool(noop, workers))
	evt := newTick()
	ctx := context.Background()
	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		_ = bus.Emit(ctx, evt)
	}
	workers.Wait()
}
