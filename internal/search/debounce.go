package search

import (
	"sync"
	"time"
)

// Debouncer coalesces rapid successive query executions into one. Each
// Trigger resets the delay timer; only the last query submitted within a
// burst is executed, after the configured quiet period (the directory uses
// 300ms). Explicit filter changes should bypass the debouncer and run
// immediately.
//
// The zero value is not usable; construct with NewDebouncer. Safe for
// concurrent use.
type Debouncer struct {
	delay time.Duration
	run   func(query string)

	mu    sync.Mutex
	timer *time.Timer
}

// NewDebouncer returns a Debouncer that invokes run with the most recent
// query once delay has elapsed without a newer Trigger. A non-positive delay
// defaults to 300ms.
func NewDebouncer(delay time.Duration, run func(query string)) *Debouncer {
	if delay <= 0 {
		delay = 300 * time.Millisecond
	}
	return &Debouncer{delay: delay, run: run}
}

// Trigger schedules an execution for query, cancelling any pending one.
func (d *Debouncer) Trigger(query string) {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.timer != nil {
		d.timer.Stop()
	}
	d.timer = time.AfterFunc(d.delay, func() { d.run(query) })
}

// Stop cancels any pending execution without running it.
func (d *Debouncer) Stop() {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.timer != nil {
		d.timer.Stop()
		d.timer = nil
	}
}
