// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Tbook Contributors

package auth

import (
	"sync"
	"time"
)

// Login rate limit defaults.
const (
	DefaultLoginBurst    = 10
	DefaultLoginInterval = 30 * time.Second

	// sweepEvery is the number of Allow calls between stale bucket sweeps.
	sweepEvery = 256
)

// LoginLimiter is an in-memory per-key token bucket. Each key starts with
// burst tokens, spends one per attempt and regains one every interval.
//
// Keys are normalized emails, so the limit applies the same way whether or
// not an account exists. Idle buckets are swept during Allow; the limiter
// runs no goroutines of its own.
type LoginLimiter struct {
	mu       sync.Mutex
	buckets  map[string]*bucket
	burst    float64
	interval time.Duration
	now      func() time.Time
	calls    int
}

type bucket struct {
	tokens float64
	last   time.Time
}

// NewLoginLimiter creates a LoginLimiter. Non-positive arguments fall back
// to DefaultLoginBurst and DefaultLoginInterval.
func NewLoginLimiter(burst int, interval time.Duration) *LoginLimiter {
	if burst <= 0 {
		burst = DefaultLoginBurst
	}
	if interval <= 0 {
		interval = DefaultLoginInterval
	}
	return &LoginLimiter{
		buckets:  make(map[string]*bucket),
		burst:    float64(burst),
		interval: interval,
		now:      time.Now,
	}
}

// WithClock replaces the limiter's time source. Intended for tests.
func (l *LoginLimiter) WithClock(now func() time.Time) *LoginLimiter {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.now = now
	return l
}

// Allow reports whether key may attempt again, consuming one token if so.
func (l *LoginLimiter) Allow(key string) bool {
	l.mu.Lock()
	defer l.mu.Unlock()

	now := l.now()
	l.calls++
	if l.calls%sweepEvery == 0 {
		l.sweep(now)
	}

	b, ok := l.buckets[key]
	if !ok {
		b = &bucket{tokens: l.burst, last: now}
		l.buckets[key] = b
	}

	elapsed := now.Sub(b.last)
	if elapsed > 0 {
		b.tokens = min(b.tokens+float64(elapsed)/float64(l.interval), l.burst)
		b.last = now
	}

	if b.tokens >= 1 {
		b.tokens--
		return true
	}
	return false
}

// Reset forgets key, restoring its full burst.
func (l *LoginLimiter) Reset(key string) {
	l.mu.Lock()
	defer l.mu.Unlock()
	delete(l.buckets, key)
}

// Len returns the number of tracked keys.
func (l *LoginLimiter) Len() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return len(l.buckets)
}

// sweep drops buckets that have refilled completely; they are
// indistinguishable from new ones.
func (l *LoginLimiter) sweep(now time.Time) {
	full := time.Duration(l.burst) * l.interval
	for key, b := range l.buckets {
		if now.Sub(b.last) >= full {
			delete(l.buckets, key)
		}
	}
}
