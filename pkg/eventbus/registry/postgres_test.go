package registry_test

import (
	"context"
	"os"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/randalmurphal/eventbus/pkg/eventbus/event"
	"github.com/randalmurphal/eventbus/pkg/eventbus/registry"
)

// newPostgres connects to EVENTBUS_POSTGRES_DSN or skips the test.
func newPostgres(t *testing.T) *registry.SQL {
	t.Helper()

	dsn := os.Getenv("EVENTBUS_POSTGRES_DSN")
	if dsn == "" {
		t.Skip("EVENTBUS_POSTGRES_DSN not set")
	}

	ctx := context.Background()
	reg, err := registry.NewPostgres(ctx, dsn)
	require.NoError(t, err)
	require.NoError(t, reg.Clear(ctx))
	t.Cleanup(func() {
		_ = reg.Clear(context.Background())
		_ = reg.Close()
	})
	return reg
}

func TestPostgres_BindingsAndRestore(t *testing.T) {
	reg := newPostgres(t)
	ctx := context.Background()

	placed := event.TypeOf[*orderPlaced]()
	audit, billing := handler("audit"), handler("billing")

	reg.AddHandler(event.AllEvents, audit)
	reg.AddHandler(placed, billing)
	require.NoError(t, reg.LastError())
	assert.Equal(t, registry.DialectPostgres, reg.Dialect())

	bindings, err := reg.Bindings(ctx)
	require.NoError(t, err)
	require.Len(t, bindings, 2)
	assert.Equal(t, "audit", bindings[0].Handler)
	assert.Equal(t, placed.String(), bindings[1].Key)

	catalog := registry.NewCatalog().Key(placed).Handler(audit).Handler(billing)
	require.NoError(t, reg.Restore(ctx, catalog))
	assert.Equal(t, []string{"billing"}, names(reg.Handlers(placed)))
	assert.Equal(t, []string{"audit"}, names(reg.Handlers(event.AllEvents)))
}

func TestPostgres_BadDSN(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := registry.NewPostgres(ctx, "postgres://nobody@127.0.0.1:1/none?connect_timeout=1")
	assert.Error(t, err)
}
