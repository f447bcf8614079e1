package ratelimit

import (
	"context"
	"sync"
	"time"
)

// window is the fixed-window size for all limiters. Manual reconciliation
// is a rare operator action, so a one-minute window absorbs accidental
// retry storms without getting in the way of normal use.
const window = time.Minute

type bucket struct {
	start int64
	used  int
}

// MemoryLimiter is a fixed-window limiter for single-process deployments.
type MemoryLimiter struct {
	mu      sync.Mutex
	buckets map[string]bucket
}

// NewMemoryLimiter constructs a MemoryLimiter.
func NewMemoryLimiter() *MemoryLimiter {
	return &MemoryLimiter{buckets: make(map[string]bucket)}
}

// Allow consumes one slot from the key's current window.
func (l *MemoryLimiter) Allow(_ context.Context, key string, limit int, now time.Time) (Result, error) {
	if limit <= 0 || key == "" {
		return Result{Allowed: true}, nil
	}
	start := now.Truncate(window).Unix()
	reset := time.Unix(start, 0).Add(window).UTC()

	l.mu.Lock()
	defer l.mu.Unlock()

	b := l.buckets[key]
	if b.start != start {
		b = bucket{start: start}
	}
	if b.used >= limit {
		l.buckets[key] = b
		return Result{Allowed: false, Remaining: 0, Reset: reset}, nil
	}
	b.used++
	l.buckets[key] = b
	return Result{Allowed: true, Remaining: limit - b.used, Reset: reset}, nil
}
