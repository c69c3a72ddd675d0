// Package revision tracks the last repository revision observed by a client.
package revision

import "sync"

// Tracker is the single source of truth for the last-known revision. It is
// updated after every successful read or write of repository content and
// read fresh at commit-assembly time. Callers hold a *Tracker explicitly so
// tests can inject their own instance.
type Tracker struct {
	mu  sync.RWMutex
	rev string
}

// NewTracker returns a tracker with no observed revision.
func NewTracker() *Tracker {
	return &Tracker{}
}

// Get returns the last-known revision, or "" when none has been observed.
func (t *Tracker) Get() string {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return t.rev
}

// Set records a newly observed revision. No validation: the value is an
// opaque server-assigned hash.
func (t *Tracker) Set(rev string) {
	t.mu.Lock()
	t.rev = rev
	t.mu.Unlock()
}
