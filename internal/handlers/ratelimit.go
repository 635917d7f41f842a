package handlers

import (
	"sync"
	"time"
)

// rateLimiter is a fixed-window request counter keyed by caller identity.
// The service is single-process, so the windows live in memory.
type rateLimiter struct {
	mu        sync.Mutex
	window    time.Duration
	entries   map[string]*windowEntry
	lastSweep time.Time
	now       func() time.Time
}

type windowEntry struct {
	windowStart time.Time
	count       int
}

// newRateLimiter creates a limiter with the given window size
func newRateLimiter(window time.Duration) *rateLimiter {
	if window <= 0 {
		window = time.Minute
	}
	return &rateLimiter{
		window:  window,
		entries: make(map[string]*windowEntry),
		now:     time.Now,
	}
}

// Allow reports whether another request fits inside the current window for
// the given key
func (l *rateLimiter) Allow(key string, limit int) bool {
	if limit <= 0 {
		return true
	}

	l.mu.Lock()
	defer l.mu.Unlock()

	now := l.now()
	l.sweep(now)

	entry, ok := l.entries[key]
	if !ok || now.Sub(entry.windowStart) >= l.window {
		l.entries[key] = &windowEntry{windowStart: now, count: 1}
		return true
	}

	if entry.count >= limit {
		return false
	}
	entry.count++
	return true
}

// sweep drops expired windows at most once per window, so the map does not
// grow with the number of distinct callers ever seen. Caller holds the lock.
func (l *rateLimiter) sweep(now time.Time) {
	if now.Sub(l.lastSweep) < l.window {
		return
	}
	for key, entry := range l.entries {
		if now.Sub(entry.windowStart) >= l.window {
			delete(l.entries, key)
		}
	}
	l.lastSweep = now
}
