package devserver

import (
	"strings"
	"sync"
	"time"
)

type lockEntry struct {
	failures    int
	lockedUntil time.Time
}

// lockout locks a username after max consecutive failed logins. max <= 0
// disables it.
type lockout struct {
	mu       sync.Mutex
	data     map[string]*lockEntry
	max      int
	cooldown time.Duration
	now      func() time.Time
}

func newLockout(max int, cooldown time.Duration) *lockout {
	if cooldown <= 0 {
		cooldown = 15 * time.Minute
	}
	return &lockout{data: make(map[string]*lockEntry), max: max, cooldown: cooldown, now: time.Now}
}

// locked reports whether username is locked and for how long.
func (l *lockout) locked(username string) (bool, time.Duration) {
	if l.max <= 0 {
		return false, 0
	}
	l.mu.Lock()
	defer l.mu.Unlock()
	e, ok := l.data[strings.ToLower(username)]
	if !ok {
		return false, 0
	}
	if wait := e.lockedUntil.Sub(l.now()); wait > 0 {
		return true, wait
	}
	return false, 0
}

func (l *lockout) fail(username string) {
	if l.max <= 0 {
		return
	}
	l.mu.Lock()
	defer l.mu.Unlock()
	key := strings.ToLower(username)
	e, ok := l.data[key]
	if !ok {
		e = &lockEntry{}
		l.data[key] = e
	}
	if !e.lockedUntil.IsZero() && l.now().After(e.lockedUntil) {
		e.failures = 0
		e.lockedUntil = time.Time{}
	}
	e.failures++
	if e.failures >= l.max {
		e.lockedUntil = l.now().Add(l.cooldown)
	}
}

func (l *lockout) succeed(username string) {
	l.mu.Lock()
	delete(l.data, strings.ToLower(username))
	l.mu.Unlock()
}
