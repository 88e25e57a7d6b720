// Package event defines the event model for the bus.
//
// # Defining events
//
// Concrete event kinds embed Base and add their own payload fields:
//
//	type OrderPlaced struct {
//	    event.Base
//	    OrderID string
//	}
//
//	type InvoiceIssued struct {
//	    event.Base
//	    InvoiceID string
//	}
//
// Events are passed around by pointer; the Event methods are promoted from
// *Base.
//
// # Causal chain
//
// A handler that emits an event as a consequence of another passes the
// triggering event as parent:
//
//	placed := &OrderPlaced{Base: event.NewBase(nil), OrderID: "o-1"}
//	issued := &InvoiceIssued{Base: event.NewBase(placed), InvoiceID: "i-1"}
//
//	issued.History()       // [placed]
//	issued.CausationID()   // placed.ID()
//	issued.CorrelationID() // placed.ID() (root of the chain)
//
// # Keys
//
// Registries index handlers by Key. TypeOf returns the key of one concrete
// type, AllEvents matches everything:
//
//	bus.Register(event.TypeOf[*OrderPlaced](), h)
//	bus.Register(event.AllEvents, auditor)
package event
