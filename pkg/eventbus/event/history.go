package event

import (
	"reflect"
	"slices"
)

// History returns the causal ancestors of evt, oldest first.
// A nil event or a root event has an empty history.
func History(evt Event) []Event {
	if evt == nil {
		return []Event{}
	}
	return evt.History()
}

// Root returns the oldest ancestor of evt, or evt itself when it has no parent.
func Root(evt Event) Event {
	if evt == nil {
		return nil
	}
	if h := evt.History(); len(h) > 0 {
		return h[0]
	}
	return evt
}

// Depth returns the number of ancestors of evt.
func Depth(evt Event) int {
	return len(History(evt))
}

// ancestors walks the parent chain starting at parent and returns it
// reversed. Visited events are tracked by identity, since IDs are caller
// supplied and may repeat. self seeds the visited set so a chain forced
// into a loop terminates instead of spinning.
func ancestors(parent Event, self *Base) []Event {
	chain := make([]Event, 0)
	seen := map[any]struct{}{self: {}}

	for p := parent; p != nil; p = p.Parent() {
		key := identity(p)
		if key != nil {
			if _, ok := seen[key]; ok {
				break
			}
			seen[key] = struct{}{}
		}
		chain = append(chain, p)
	}

	slices.Reverse(chain)
	return chain
}

// identity returns a comparable key for evt: its embedded Base when it has
// one, else the interface value itself. Non-comparable events yield nil and
// are not tracked.
func identity(evt Event) any {
	if b, ok := evt.(interface{ base() *Base }); ok {
		return b.base()
	}
	if reflect.TypeOf(evt).Comparable() {
		return evt
	}
	return nil
}
