package registry

import (
	"fmt"

	"github.com/randalmurphal/eventbus/pkg/eventbus"
	"github.com/randalmurphal/eventbus/pkg/eventbus/event"
)

// Catalog maps persisted names back to live keys and handlers.
//
//	catalog := registry.NewCatalog().
//	    Key(event.TypeOf[*OrderPlaced]()).
//	    Key(event.AllEvents).
//	    Handler(auditHandler).
//	    Handler(billingHandler)
//
//	err := reg.Restore(ctx, catalog)
type Catalog struct {
	keys     map[string]event.Key
	handlers map[string]eventbus.Handler
}

// NewCatalog creates a catalog that already knows event.AllEvents.
func NewCatalog() *Catalog {
	c := &Catalog{
		keys:     make(map[string]event.Key),
		handlers: make(map[string]eventbus.Handler),
	}
	return c.Key(event.AllEvents)
}

// Key makes k resolvable by its String form.
func (c *Catalog) Key(k event.Key) *Catalog {
	c.keys[k.String()] = k
	return c
}

// Handler makes h resolvable by eventbus.HandlerName(h).
// Give handlers distinct names (handler.WithName) when several share a type.
func (c *Catalog) Handler(h eventbus.Handler) *Catalog {
	c.handlers[eventbus.HandlerName(h)] = h
	return c
}

func (c *Catalog) resolve(b Binding) (event.Key, eventbus.Handler, error) {
	if c == nil {
		return event.Key{}, nil, fmt.Errorf("binding %d: no catalog", b.Sequence)
	}
	key, ok := c.keys[b.Key]
	if !ok {
		return event.Key{}, nil, fmt.Errorf("binding %d: unknown key %s", b.Sequence, b.Key)
	}
	h, ok := c.handlers[b.Handler]
	if !ok {
		return event.Key{}, nil, fmt.Errorf("binding %d: unknown handler %s", b.Sequence, b.Handler)
	}
	return key, h, nil
}
