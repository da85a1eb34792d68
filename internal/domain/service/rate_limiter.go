package service

import "time"

// RateLimiter bounds how often one identifier may hit an endpoint purpose
// within a fixed window. Allow never fails; it only answers yes or no.
// Implementations must be safe for concurrent use across request goroutines.
type RateLimiter interface {
	// Allow reports whether the identifier may proceed, counting this call.
	// The first call in a window (or any call after the window lapsed) resets
	// the counter to 1 and is always allowed.
	Allow(identifier string, maxRequests int, window time.Duration) bool
}
