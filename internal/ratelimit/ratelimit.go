// Package ratelimit provides a sliding window rate limiter used to cap
// order placement frequency.
package ratelimit

import (
	"sync"
	"time"
)

// SlidingWindow counts events inside a rolling time window. Unlike a
// token bucket it never smooths bursts: the caller checks Full before
// acting and calls Record only once the action is committed, so a
// rejected attempt does not consume capacity.
type SlidingWindow struct {
	limit  int
	window time.Duration
	events []time.Time
	now    func() time.Time
	mu     sync.Mutex
}

// NewSlidingWindow creates a limiter that allows at most limit events
// per window.
func NewSlidingWindow(limit int, window time.Duration) *SlidingWindow {
	return NewSlidingWindowWithClock(limit, window, time.Now)
}

// NewSlidingWindowWithClock is NewSlidingWindow with an injectable
// clock for tests.
func NewSlidingWindowWithClock(limit int, window time.Duration, now func() time.Time) *SlidingWindow {
	return &SlidingWindow{
		limit:  limit,
		window: window,
		events: make([]time.Time, 0, limit),
		now:    now,
	}
}

// prune drops events that fell out of the window. Caller must hold mu.
func (sw *SlidingWindow) prune() {
	cutoff := sw.now().Add(-sw.window)
	valid := sw.events[:0]
	for _, ev := range sw.events {
		if ev.After(cutoff) {
			valid = append(valid, ev)
		}
	}
	sw.events = valid
}

// Full reports whether the window has reached its limit.
func (sw *SlidingWindow) Full() bool {
	sw.mu.Lock()
	defer sw.mu.Unlock()

	sw.prune()
	return len(sw.events) >= sw.limit
}

// Record registers one event at the current time.
func (sw *SlidingWindow) Record() {
	sw.mu.Lock()
	defer sw.mu.Unlock()

	sw.events = append(sw.events, sw.now())
}

// Count returns the number of events still inside the window.
func (sw *SlidingWindow) Count() int {
	sw.mu.Lock()
	defer sw.mu.Unlock()

	sw.prune()
	return len(sw.events)
}
