// Package ratelimit throttles outbound calls to third-party IP-reputation
// providers, one token-bucket limiter per provider, adapted from the
// teacher's per-IP connection rate limiter.
package ratelimit

import (
	"context"
	"sync"

	"golang.org/x/time/rate"
)

// Limiter provides per-key rate limiting, keyed by provider name instead of
// client IP.
type Limiter struct {
	mu       sync.Mutex
	limiters map[string]*rate.Limiter
}

// New returns an empty per-key limiter registry.
func New() *Limiter {
	return &Limiter{limiters: make(map[string]*rate.Limiter)}
}

// Wait blocks until a request for key is allowed, registering a new
// token-bucket limiter of the given interval on first use (one token every
// interval, burst of 1 — matching the spec's "inter-request sleep" wording
// for abuseipdb/ipapi).
func (l *Limiter) Wait(ctx context.Context, key string, every rate.Limit) error {
	l.mu.Lock()
	limiter, ok := l.limiters[key]
	if !ok {
		limiter = rate.NewLimiter(every, 1)
		l.limiters[key] = limiter
	}
	l.mu.Unlock()

	return limiter.Wait(ctx) //nolint: wrapcheck
}

// Every converts a fixed delay between requests into a rate.Limit.
func Every(seconds float64) rate.Limit {
	if seconds <= 0 {
		return rate.Inf
	}

	return rate.Limit(1 / seconds)
}
