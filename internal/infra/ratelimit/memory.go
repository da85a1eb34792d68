// Package ratelimit provides the in-memory fixed-window rate limiter.
package ratelimit

import (
	"sync"
	"time"

	"tradegate/internal/domain/service"
)

// entry is one identifier's counter for the current window.
type entry struct {
	count   int
	resetAt time.Time
}

// memoryLimiter implements RateLimiter with a mutex-guarded map. Entries are
// created lazily and overwritten once their window lapses; there is no
// eviction beyond that. Correct for a single-process deployment only.
type memoryLimiter struct {
	mu      sync.Mutex
	entries map[string]*entry

	now func() time.Time
}

// NewMemoryLimiter is the constructor for memoryLimiter.
func NewMemoryLimiter() service.RateLimiter {
	return &memoryLimiter{
		entries: make(map[string]*entry),
		now:     time.Now,
	}
}

// Allow counts this call against the identifier's window and reports whether
// it may proceed. The mutex makes every check a single atomic
// read-modify-write, so concurrent identical-key callers cannot slip past the
// limit through a lost update.
func (l *memoryLimiter) Allow(identifier string, maxRequests int, window time.Duration) bool {
	l.mu.Lock()
	defer l.mu.Unlock()

	now := l.now()

	current, ok := l.entries[identifier]
	if !ok || now.After(current.resetAt) {
		l.entries[identifier] = &entry{count: 1, resetAt: now.Add(window)}

		return true
	}

	if current.count >= maxRequests {
		return false
	}
	current.count++

	return true
}
