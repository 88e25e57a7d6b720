package event

import "reflect"

// Key identifies a handler bucket in a registry: either one concrete event
// type or the AllEvents wildcard. Keys are comparable and usable as map keys.
//
// Matching is exact: a handler registered under TypeOf[*OrderPlaced]() is not
// invoked for a type that embeds OrderPlaced.
type Key struct {
	t reflect.Type
}

// allEvents is the wildcard marker. It is unexported and has no Event
// methods, so it can never be emitted.
type allEvents struct{}

// AllEvents is the wildcard key matching every emitted event.
var AllEvents = Key{t: reflect.TypeOf((*allEvents)(nil)).Elem()}

// TypeOf returns the key for the concrete event type E.
//
//	bus.Register(event.TypeOf[*OrderPlaced](), h)
func TypeOf[E Event]() Key {
	return Key{t: reflect.TypeOf((*E)(nil)).Elem()}
}

// KeyOf returns the key for the dynamic type of evt.
func KeyOf(evt Event) Key {
	return Key{t: reflect.TypeOf(evt)}
}

// IsWildcard reports whether k is AllEvents.
func (k Key) IsWildcard() bool {
	return k == AllEvents
}

// IsZero reports whether k was never initialized.
func (k Key) IsZero() bool {
	return k.t == nil
}

// String returns a stable name for the key, used in logs, metrics and
// persisted registrations.
func (k Key) String() string {
	switch {
	case k.t == nil:
		return "<nil>"
	case k.IsWildcard():
		return "*"
	}
	return qualifiedName(k.t)
}

// qualifiedName includes the package path so that equally named types from
// different packages do not collide.
func qualifiedName(t reflect.Type) string {
	if t.Kind() == reflect.Pointer {
		return "*" + qualifiedName(t.Elem())
	}
	if t.PkgPath() == "" || t.Name() == "" {
		return t.String()
	}
	return t.PkgPath() + "." + t.Name()
}
