// Package handler provides the eventbus.Handler variants.
//
// User logic implements Processor. A variant decides where that logic runs:
//
//   - Sync runs it inline, inside Emit; its error aborts the emission
//   - Async hands it to a cooperative Scheduler (see package scheduler)
//   - Pool hands it to a worker Submitter (see package pool)
//
// Async and Pool never report task failures to the emitter. Those go to the
// scheduler's or pool's failure path instead.
//
// # Usage
//
//	loop := scheduler.New()
//	workers := pool.New(pool.WithWorkers(4))
//
//	bus.Register(event.TypeOf[*OrderPlaced](), handler.NewSync(
//	    handler.Typed(func(ctx context.Context, evt *OrderPlaced, bus eventbus.Bus) error {
//	        return bus.Emit(ctx, NewInvoiceRequested(evt))
//	    }),
//	    handler.WithName("invoicing"),
//	))
//
//	bus.Register(event.AllEvents, handler.NewAsync(auditProcessor, loop))
//	bus.Register(event.TypeOf[*InvoiceRequested](), handler.NewPool(renderPDF, workers))
//
// # Recorder
//
// Recorder is a synchronous handler that keeps every event it sees, for
// tests and debugging:
//
//	rec := handler.NewRecorder()
//	bus.Register(event.AllEvents, rec)
//	...
//	invoice, ok := handler.First[*InvoiceRequested](rec)
package handler
