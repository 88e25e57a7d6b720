package handler_test

import (
	"context"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/randalmurphal/eventbus/pkg/eventbus/event"
	"github.com/randalmurphal/eventbus/pkg/eventbus/handler"
)

func TestRecorder(t *testing.T) {
	rec := handler.NewRecorder()
	ctx := context.Background()

	first := newOrderPlaced("o-1")
	shipped := newOrderShipped(first)
	second := newOrderPlaced("o-2")

	for _, evt := range []event.Event{first, shipped, second} {
		require.NoError(t, rec.Execute(ctx, evt, nil))
	}

	assert.Equal(t, 3, rec.Len())
	assert.Equal(t, []event.Event{first, shipped, second}, rec.Recorded())

	got, ok := handler.First[*orderPlaced](rec)
	require.True(t, ok)
	assert.Same(t, first, got)

	assert.Equal(t, []*orderPlaced{first, second}, handler.All[*orderPlaced](rec))
	assert.Equal(t, []*orderShipped{shipped}, handler.All[*orderShipped](rec))
}

func TestRecorder_Empty(t *testing.T) {
	rec := handler.NewRecorder()

	got, ok := handler.First[*orderPlaced](rec)
	assert.False(t, ok)
	assert.Nil(t, got)
	assert.Empty(t, handler.All[*orderPlaced](rec))
	assert.Empty(t, rec.Recorded())
}

func TestRecorder_Reset(t *testing.T) {
	rec := handler.NewRecorder()
	require.NoError(t, rec.Execute(context.Background(), newOrderPlaced("o-1"), nil))

	rec.Reset()

	assert.Zero(t, rec.Len())
	_, ok := handler.First[*orderPlaced](rec)
	assert.False(t, ok)
}

func TestRecorder_SnapshotIsolation(t *testing.T) {
	rec := handler.NewRecorder()
	require.NoError(t, rec.Execute(context.Background(), newOrderPlaced("o-1"), nil))

	snapshot := rec.Recorded()
	snapshot[0] = nil

	assert.NotNil(t, rec.Recorded()[0])
}

func TestRecorder_Concurrent(t *testing.T) {
	rec := handler.NewRecorder()

	var wg sync.WaitGroup
	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_ = rec.Execute(context.Background(), newOrderPlaced("o"), nil)
			_ = rec.Len()
		}()
	}
	wg.Wait()

	assert.Equal(t, 50, rec.Len())
}
