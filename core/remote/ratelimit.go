package remote

import (
	"context"
	"sync"
	"time"
)

// Limiter is a sliding-window rate limiter. One Limiter instance is shared
// by every sync run in the process, because the remote quota is global, not
// per-run.
type Limiter struct {
	mu     sync.Mutex
	limit  int
	window time.Duration
	stamps []time.Time
	clock  func() time.Time
}

// NewLimiter creates a limiter allowing limit calls per window.
func NewLimiter(limit int, window time.Duration) *Limiter {
	if limit <= 0 {
		limit = 1
	}
	if window <= 0 {
		window = time.Second
	}
	return &Limiter{
		limit:  limit,
		window: window,
		clock:  time.Now,
	}
}

// Wait blocks until a call slot is free, then records the call in the
// window. It returns early only when the context is cancelled.
func (l *Limiter) Wait(ctx context.Context) error {
	for {
		l.mu.Lock()
		now := l.clock()
		l.prune(now)
		if len(l.stamps) < l.limit {
			l.stamps = append(l.stamps, now)
			l.mu.Unlock()
			return nil
		}
		// Oldest stamp leaving the window frees the next slot.
		wait := l.stamps[0].Add(l.window).Sub(now)
		l.mu.Unlock()

		if err := sleepWithContext(ctx, wait); err != nil {
			return err
		}
	}
}

// Forgive removes the most recent recorded call. A throttled attempt did
// not reach the remote quota, so it must not consume a local slot either.
func (l *Limiter) Forgive() {
	l.mu.Lock()
	defer l.mu.Unlock()
	if n := len(l.stamps); n > 0 {
		l.stamps = l.stamps[:n-1]
	}
}

// Pending returns the number of calls currently counted in the window.
func (l *Limiter) Pending() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.prune(l.clock())
	return len(l.stamps)
}

// prune drops stamps that have left the window. Caller holds mu.
func (l *Limiter) prune(now time.Time) {
	cutoff := now.Add(-l.window)
	idx := 0
	for idx < len(l.stamps) && !l.stamps[idx].After(cutoff) {
		idx++
	}
	if idx > 0 {
		l.stamps = append(l.stamps[:0], l.stamps[idx:]...)
	}
}
