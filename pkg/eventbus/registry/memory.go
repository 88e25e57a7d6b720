// Package registry provides eventbus.Registry implementations.
//
//   - Memory: the default in-memory storage, unsynchronized
//   - Locked: wraps any Registry with a sync.RWMutex
//   - SQL: persists the registration manifest to SQLite or PostgreSQL
package registry

import (
	"slices"

	"github.com/randalmurphal/eventbus/pkg/eventbus"
	"github.com/randalmurphal/eventbus/pkg/eventbus/event"
)

// Memory stores handlers in a map keyed by event.Key.
//
// Memory is not safe for concurrent mutation. Wrap it with NewLocked when
// handlers are registered while other goroutines emit.
type Memory struct {
	entries map[event.Key][]eventbus.Handler
}

// Compile-time interface check.
var _ eventbus.Registry = (*Memory)(nil)

// NewMemory creates an empty in-memory registry.
func NewMemory() *Memory {
	return &Memory{
		entries: make(map[event.Key][]eventbus.Handler),
	}
}

// AddHandler appends h under key.
func (m *Memory) AddHandler(key event.Key, h eventbus.Handler) {
	m.entries[key] = append(m.entries[key], h)
}

// Handlers returns a copy of the handlers stored under key.
func (m *Memory) Handlers(key event.Key) []eventbus.Handler {
	handlers := m.entries[key]
	if len(handlers) == 0 {
		return []eventbus.Handler{}
	}
	return slices.Clone(handlers)
}

// Len returns the total number of registrations across all keys.
func (m *Memory) Len() int {
	n := 0
	for _, handlers := range m.entries {
		n += len(handlers)
	}
	return n
}
