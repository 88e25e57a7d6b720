package registry

import (
	"sync"

	"github.com/randalmurphal/eventbus/pkg/eventbus"
	"github.com/randalmurphal/eventbus/pkg/eventbus/event"
)

// Locked is a thread-safe wrapper around another registry.
// It uses sync.RWMutex since emission (reads) dominates registration.
type Locked struct {
	mu    sync.RWMutex
	inner eventbus.Registry
}

// Compile-time interface check.
var _ eventbus.Registry = (*Locked)(nil)

// NewLocked wraps inner. If inner is nil a new Memory registry is used.
func NewLocked(inner eventbus.Registry) *Locked {
	if inner == nil {
		inner = NewMemory()
	}
	return &Locked{inner: inner}
}

// AddHandler appends h under key while holding the write lock.
func (l *Locked) AddHandler(key event.Key, h eventbus.Handler) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.inner.AddHandler(key, h)
}

// Handlers returns the inner registry's snapshot while holding the read lock.
func (l *Locked) Handlers(key event.Key) []eventbus.Handler {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return l.inner.Handlers(key)
}
