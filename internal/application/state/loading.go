// Package state holds the plumbing shared by the state stores: per-operation
// loading flags, change listeners, notice surfacing and input validation.
package state

import "sync"

// Loading tracks one flag per named operation so a UI can show a spinner
// for exactly the operation that is running.
type Loading struct {
	mu sync.Mutex
	on map[string]bool
}

// TryBegin sets the flag for op and reports true, or reports false when op is
// already running.
func (l *Loading) TryBegin(op string) bool {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.on[op] {
		return false
	}
	if l.on == nil {
		l.on = make(map[string]bool)
	}
	l.on[op] = true
	return true
}

// Set forces the flag for op.
func (l *Loading) Set(op string, v bool) {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.on == nil {
		l.on = make(map[string]bool)
	}
	l.on[op] = v
}

// End clears the flag for op.
func (l *Loading) End(op string) { l.Set(op, false) }

// Active reports whether op is running.
func (l *Loading) Active(op string) bool {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.on[op]
}

// Any reports whether any operation is running.
func (l *Loading) Any() bool {
	l.mu.Lock()
	defer l.mu.Unlock()
	for _, v := range l.on {
		if v {
			return true
		}
	}
	return false
}
