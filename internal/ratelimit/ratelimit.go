// Package ratelimit implements a fixed-window request counter per caller.
// FixedWindow satisfies echo's middleware.RateLimiterStore.
package ratelimit

import (
	"sync"
	"time"
)

// DefaultWindow is the counting window used by the cache endpoint
const DefaultWindow = 60 * time.Second

type window struct {
	start time.Time
	count int
}

// FixedWindow allows Limit requests per identifier in each Window.
// The window of an identifier starts at its first request.
type FixedWindow struct {
	limit   int
	window  time.Duration
	mu      sync.Mutex
	windows map[string]*window
	now     func() time.Time
}

// NewFixedWindow creates a limiter. A non-positive window means DefaultWindow.
func NewFixedWindow(limit int, per time.Duration) *FixedWindow {
	if per <= 0 {
		per = DefaultWindow
	}
	return &FixedWindow{
		limit:   limit,
		window:  per,
		windows: make(map[string]*window),
		now:     time.Now,
	}
}

// Allow counts one request and reports whether it is within the limit
func (f *FixedWindow) Allow(identifier string) (bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	now := f.now()
	w, ok := f.windows[identifier]
	if !ok || !now.Before(w.start.Add(f.window)) {
		w = &window{start: now}
		f.windows[identifier] = w
	}

	if w.count >= f.limit {
		return false, nil
	}
	w.count++
	return true, nil
}

// ResetAt returns when the current window of identifier ends
func (f *FixedWindow) ResetAt(identifier string) time.Time {
	f.mu.Lock()
	defer f.mu.Unlock()

	if w, ok := f.windows[identifier]; ok {
		return w.start.Add(f.window)
	}
	return f.now()
}

// Sweep forgets windows that already ended and returns how many went
func (f *FixedWindow) Sweep() int {
	f.mu.Lock()
	defer f.mu.Unlock()

	now := f.now()
	n := 0
	for id, w := range f.windows {
		if !now.Before(w.start.Add(f.window)) {
			delete(f.windows, id)
			n++
		}
	}
	return n
}

// Limit returns the configured requests per window
func (f *FixedWindow) Limit() int {
	return f.limit
}
