package cli

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"sync/atomic"
	"time"

	"github.com/spf13/cobra"

	"github.com/randalmurphal/eventbus/pkg/eventbus"
	"github.com/randalmurphal/eventbus/pkg/eventbus/admin"
	"github.com/randalmurphal/eventbus/pkg/eventbus/event"
	"github.com/randalmurphal/eventbus/pkg/eventbus/handler"
	"github.com/randalmurphal/eventbus/pkg/eventbus/registry"
)

// Heartbeat is emitted by serve on every tick.
type Heartbeat struct {
	event.Base
	Seq int
}

// Pulse is emitted by the pool handler for every Heartbeat it sees.
type Pulse struct {
	event.Base
	Seq int
}

// heartbeatHandlers are the handlers serve binds. Names are stable so a
// persisted manifest can be restored across restarts.
type heartbeatHandlers struct {
	trace  eventbus.Handler
	pulse  eventbus.Handler
	count  eventbus.Handler
	pulses atomic.Int64
}

func newHeartbeatHandlers(rt *runtime) *heartbeatHandlers {
	hh := &heartbeatHandlers{}

	hh.trace = handler.NewSync(handler.ProcessorFunc(
		func(_ context.Context, evt event.Event, _ eventbus.Bus) error {
			rt.logger.Debug("event",
				slog.String("type", event.KeyOf(evt).String()),
				slog.String("event_id", evt.ID()),
				slog.Int("depth", event.Depth(evt)),
			)
			return nil
		}), handler.WithName("trace"))

	hh.pulse = handler.NewPool(handler.Typed(
		func(ctx context.Context, evt *Heartbeat, bus eventbus.Bus) error {
			return bus.Emit(ctx, &Pulse{Base: event.NewBase(evt), Seq: evt.Seq})
		}), rt.pool, handler.WithName("pulse"))

	hh.count = handler.NewAsync(handler.Typed(
		func(_ context.Context, _ *Pulse, _ eventbus.Bus) error {
			hh.pulses.Add(1)
			return nil
		}), rt.loop, handler.WithName("count"))

	return hh
}

// bind registers the heartbeat handlers, or restores them from the store
// when it already holds a manifest.
func (hh *heartbeatHandlers) bind(ctx context.Context, rt *runtime) error {
	if rt.store != nil {
		existing, err := rt.store.Bindings(ctx)
		if err != nil {
			return fmt.Errorf("read bindings: %w", err)
		}
		if len(existing) > 0 {
			catalog := registry.NewCatalog().
				Key(event.TypeOf[*Heartbeat]()).
				Key(event.TypeOf[*Pulse]()).
				Handler(hh.trace).
				Handler(hh.pulse).
				Handler(hh.count)
			if err := rt.store.Restore(ctx, catalog); err != nil {
				return fmt.Errorf("restore bindings: %w", err)
			}
			rt.logger.Info("bindings restored", slog.Int("count", len(existing)))
			return nil
		}
	}

	rt.bus.Register(event.AllEvents, hh.trace)
	rt.bus.Register(event.TypeOf[*Heartbeat](), hh.pulse)
	rt.bus.Register(event.TypeOf[*Pulse](), hh.count)
	if rt.store != nil {
		return rt.store.LastError()
	}
	return nil
}

func newServeCmd(a *app) *cobra.Command {
	var (
		addr     string
		interval time.Duration
	)

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Run a heartbeat bus with admin endpoints",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			s, err := a.settings()
			if err != nil {
				return err
			}
			if interval <= 0 {
				return fmt.Errorf("interval must be positive, got %s", interval)
			}

			logger := s.NewLogger(cmd.ErrOrStderr())
			ctx := cmd.Context()

			rt, err := newRuntime(ctx, s, logger)
			if err != nil {
				return err
			}
			defer rt.Close()

			hh := newHeartbeatHandlers(rt)
			if err := hh.bind(ctx, rt); err != nil {
				return err
			}

			routerOpts := []admin.Option{
				admin.WithLoop(rt.loop),
				admin.WithPool(rt.pool),
				admin.WithLogger(logger),
			}
			if rt.store != nil {
				routerOpts = append(routerOpts, admin.WithBindings(rt.store))
			}
			srv := &http.Server{
				Addr:              addr,
				Handler:           admin.NewRouter(routerOpts...),
				ReadHeaderTimeout: 5 * time.Second,
			}

			loopDone := make(chan struct{})
			go func() {
				defer close(loopDone)
				if err := rt.loop.Run(ctx); err != nil && ctx.Err() == nil {
					logger.Error("scheduler stopped", slog.String("error", err.Error()))
				}
			}()

			srvErr := make(chan error, 1)
			go func() {
				if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
					srvErr <- err
				}
			}()
			logger.Info("serving", slog.String("addr", addr), slog.Duration("interval", interval))

			beats, err := heartbeat(ctx, rt.bus, interval, srvErr)

			shutdownCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), 5*time.Second)
			defer cancel()
			if serr := srv.Shutdown(shutdownCtx); serr != nil {
				logger.Warn("admin shutdown", slog.String("error", serr.Error()))
			}
			rt.pool.Wait()
			// RunUntilIdle does nothing while Run still holds the loop.
			<-loopDone
			rt.loop.RunUntilIdle()

			fmt.Fprintf(cmd.OutOrStdout(), "emitted %d heartbeats, counted %d pulses\n", beats, hh.pulses.Load())
			return err
		},
	}

	cmd.Flags().StringVar(&addr, "addr", "127.0.0.1:8080", "admin listen address")
	cmd.Flags().DurationVar(&interval, "interval", time.Second, "heartbeat interval")
	return cmd
}

// heartbeat emits a Heartbeat every interval until ctx ends or the server fails.
func heartbeat(ctx context.Context, bus eventbus.Bus, interval time.Duration, srvErr <-chan error) (int, error) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	seq := 0
	for {
		select {
		case <-ctx.Done():
			return seq, nil
		case err := <-srvErr:
			return seq, fmt.Errorf("admin server: %w", err)
		case <-ticker.C:
			seq++
			if err := bus.Emit(ctx, &Heartbeat{Base: event.NewBase(nil), Seq: seq}); err != nil {
				return seq, fmt.Errorf("emit heartbeat %d: %w", seq, err)
			}
		}
	}
}
