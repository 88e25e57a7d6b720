package cli

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/randalmurphal/eventbus/pkg/eventbus"
	"github.com/randalmurphal/eventbus/pkg/eventbus/config"
	"github.com/randalmurphal/eventbus/pkg/eventbus/observability"
	"github.com/randalmurphal/eventbus/pkg/eventbus/pool"
	"github.com/randalmurphal/eventbus/pkg/eventbus/registry"
	"github.com/randalmurphal/eventbus/pkg/eventbus/scheduler"
)

// errNotPersistent is returned by binding commands on in-memory drivers.
var errNotPersistent = errors.New("registry driver does not persist bindings")

// runtime is a bus assembled from Settings.
type runtime struct {
	bus     *eventbus.LocalBus
	loop    *scheduler.Loop
	pool    *pool.Pool
	store   *registry.SQL // nil for in-memory drivers
	logger  *slog.Logger
	metrics observability.MetricsRecorder
}

// openStore opens the persistent registry named by s.
func openStore(ctx context.Context, s config.Settings, logger *slog.Logger) (*registry.SQL, error) {
	switch s.RegistryDriver {
	case config.DriverSQLite:
		return registry.NewSQLite(s.RegistryPath, registry.WithSQLLogger(logger))
	case config.DriverPostgres:
		return registry.NewPostgres(ctx, s.RegistryDSN, registry.WithSQLLogger(logger))
	default:
		return nil, fmt.Errorf("%w: %s", errNotPersistent, s.RegistryDriver)
	}
}

func newRuntime(ctx context.Context, s config.Settings, logger *slog.Logger) (*runtime, error) {
	rt := &runtime{
		logger:  logger,
		metrics: observability.NoopMetrics{},
	}

	var reg eventbus.Registry
	switch s.RegistryDriver {
	case config.DriverSQLite, config.DriverPostgres:
		store, err := openStore(ctx, s, logger)
		if err != nil {
			return nil, fmt.Errorf("open registry: %w", err)
		}
		rt.store = store
		reg = store
	case config.DriverLocked:
		reg = registry.NewLocked(nil)
	default:
		reg = registry.NewMemory()
	}

	opts := []eventbus.Option{eventbus.WithLogger(logger)}
	if s.Metrics {
		rt.metrics = observability.NewMetricsRecorder()
		opts = append(opts, eventbus.WithMetrics(rt.metrics))
	}
	if s.Tracing {
		opts = append(opts, eventbus.WithSpanManager(observability.NewSpanManager()))
	}
	rt.bus = eventbus.New(reg, opts...)

	rt.loop = scheduler.New(scheduler.WithLogger(logger), scheduler.WithMetrics(rt.metrics))

	poolOpts := []pool.Option{pool.WithLogger(logger), pool.WithMetrics(rt.metrics)}
	if s.PoolWorkers > 0 {
		poolOpts = append(poolOpts, pool.WithWorkers(s.PoolWorkers))
	}
	rt.pool = pool.New(poolOpts...)

	return rt, nil
}

// Close drains the pool, stops the loop, and closes the store.
func (rt *runtime) Close() error {
	var errs []error
	errs = append(errs, rt.pool.Close(), rt.loop.Close())
	if rt.store != nil {
		errs = append(errs, rt.store.Close())
	}
	return errors.Join(errs...)
}
