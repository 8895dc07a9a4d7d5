// Package ratelimit contains the per-client submission budget: a sliding
// window that counts accepted requests over a trailing duration.
package ratelimit

import (
	"sync"
	"time"
)

// Window is a sliding-window rate limiter keyed by client identifier
// (normally the IP address). Check and record are a single atomic
// operation: two concurrent calls for the same key can never both be
// admitted into the last remaining slot.
//
// Entries for distinct keys are retained for the life of the process.
// That is acceptable at the current scale; eviction is a known hardening
// item.
type Window struct {
	mu     sync.Mutex
	hits   map[string][]time.Time
	max    int
	window time.Duration
	now    func() time.Time
}

// NewWindow creates a limiter admitting at most max calls per key within
// the trailing window duration.
func NewWindow(max int, window time.Duration) *Window {
	return &Window{
		hits:   make(map[string][]time.Time),
		max:    max,
		window: window,
		now:    time.Now,
	}
}

// Allow reports whether a request for key is within budget, and if so
// records it. Expired timestamps for the key are pruned on every call.
func (w *Window) Allow(key string) bool {
	w.mu.Lock()
	defer w.mu.Unlock()

	now := w.now()
	cutoff := now.Add(-w.window)

	kept := w.hits[key][:0]
	for _, ts := range w.hits[key] {
		if ts.After(cutoff) {
			kept = append(kept, ts)
		}
	}

	if len(kept) >= w.max {
		w.hits[key] = kept
		return false
	}

	w.hits[key] = append(kept, now)
	return true
}

// Len reports the current number of recorded requests for key, pruning
// expired entries first. Used by tests and diagnostics.
func (w *Window) Len(key string) int {
	w.mu.Lock()
	defer w.mu.Unlock()

	cutoff := w.now().Add(-w.window)
	kept := w.hits[key][:0]
	for _, ts := range w.hits[key] {
		if ts.After(cutoff) {
			kept = append(kept, ts)
		}
	}
	w.hits[key] = kept
	return len(kept)
}
