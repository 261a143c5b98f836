package task

import (
	"sync"
	"time"
)

// debouncer coalesces bursts of Trigger calls into one call of the last fn,
// made once no Trigger has arrived for the quiet period.
type debouncer struct {
	mu    sync.Mutex
	quiet time.Duration
	timer *time.Timer
}

func newDebouncer(quiet time.Duration) *debouncer {
	return &debouncer{quiet: quiet}
}

// Trigger (re)starts the quiet period; fn runs on its own goroutine.
func (d *debouncer) Trigger(fn func()) {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.timer != nil {
		d.timer.Stop()
	}
	d.timer = time.AfterFunc(d.quiet, fn)
}

// Stop drops a pending call.
func (d *debouncer) Stop() {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.timer != nil {
		d.timer.Stop()
		d.timer = nil
	}
}
