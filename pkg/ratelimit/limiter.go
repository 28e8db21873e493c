// Package ratelimit provides a process-wide sliding window limiter for oracle calls.
// A limiter instance is shared by every component issuing calls to the same quota,
// it is passed explicitly and never kept in a package variable.
package ratelimit

import (
	"context"
	"sync"
	"time"
)

const window = time.Minute

// Limiter allows at most max acquisitions within any trailing 60 second window.
// Waiters poll at a fixed interval, fairness is best-effort and not strict FIFO.
type Limiter struct {
	max      int
	interval time.Duration
	now      func() time.Time

	mu     sync.Mutex
	stamps []time.Time
}

// Option configures Limiter
type Option func(*Limiter)

// WithInterval sets polling interval used by WaitIfNeeded, 1s by default
func WithInterval(d time.Duration) Option {
	return func(l *Limiter) {
		if d > 0 {
			l.interval = d
		}
	}
}

// WithClock replaces time source, used in tests
func WithClock(now func() time.Time) Option {
	return func(l *Limiter) { l.now = now }
}

// New makes a limiter for maxPerMinute requests, values below 1 are treated as 1
func New(maxPerMinute int, opts ...Option) *Limiter {
	if maxPerMinute < 1 {
		maxPerMinute = 1
	}
	l := &Limiter{max: maxPerMinute, interval: time.Second, now: time.Now}
	for _, opt := range opts {
		opt(l)
	}
	return l
}

// Acquire records a request and returns true if the window has room, otherwise returns false
// and leaves the state untouched apart from pruning expired stamps.
func (l *Limiter) Acquire() bool {
	l.mu.Lock()
	defer l.mu.Unlock()

	now := l.now()
	l.prune(now)
	if len(l.stamps) >= l.max {
		return false
	}
	l.stamps = append(l.stamps, now)
	return true
}

// WaitIfNeeded blocks until Acquire succeeds or ctx is done
func (l *Limiter) WaitIfNeeded(ctx context.Context) error {
	if l.Acquire() {
		return nil
	}
	ticker := time.NewTicker(l.interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
			if l.Acquire() {
				return nil
			}
		}
	}
}

// InFlight returns number of requests recorded in the current window
func (l *Limiter) InFlight() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.prune(l.now())
	return len(l.stamps)
}

// prune drops stamps older than the window, caller holds the lock
func (l *Limiter) prune(now time.Time) {
	i := 0
	for ; i < len(l.stamps); i++ {
		if now.Sub(l.stamps[i]) < window {
			break
		}
	}
	if i > 0 {
		l.stamps = append(l.stamps[:0], l.stamps[i:]...)
	}
}
