package remote

import (
	"context"
	"math/rand"
	"time"
)

// Policy encapsulates backoff computation and the retry budget. It is pure:
// no sleeping, no I/O, so the delay schedule can be asserted in tests.
type Policy struct {
	// MaxRetries is the number of retries after the first attempt.
	MaxRetries int
	// BaseDelay is the delay for the first retry.
	BaseDelay time.Duration
	// MaxDelay caps any single delay.
	MaxDelay time.Duration
	// Jitter perturbs a computed delay. Nil means the default ±10%,
	// which keeps concurrent callers from retrying in lockstep.
	Jitter func(time.Duration) time.Duration
}

// DefaultPolicy returns the retry policy used against the remote API.
func DefaultPolicy() Policy {
	return Policy{
		MaxRetries: 5,
		BaseDelay:  500 * time.Millisecond,
		MaxDelay:   10 * time.Second,
	}
}

// BackoffDelay returns the delay before retry number attempt (zero-based)
// after a throttled response: min(MaxDelay, jittered BaseDelay*2^attempt).
// MaxDelay is a hard bound; jitter never pushes a delay past it.
func (p Policy) BackoffDelay(attempt int) time.Duration {
	if attempt < 0 {
		attempt = 0
	}
	delay := p.BaseDelay << uint(attempt)
	if delay > p.MaxDelay || delay <= 0 {
		delay = p.MaxDelay
	}
	delay = p.jitter(delay)
	if delay > p.MaxDelay {
		delay = p.MaxDelay
	}
	return delay
}

// TransientDelay returns the delay before retrying a network-level failure.
// Fixed base delay, not exponential: a flaky connection does not signal load.
func (p Policy) TransientDelay() time.Duration {
	return p.jitter(p.BaseDelay)
}

// Exhausted reports whether the given zero-based attempt count has used up
// the retry budget.
func (p Policy) Exhausted(attempt int) bool {
	return attempt >= p.MaxRetries
}

func (p Policy) jitter(d time.Duration) time.Duration {
	if p.Jitter != nil {
		return p.Jitter(d)
	}
	if d <= 0 {
		return d
	}
	// ±10%
	spread := float64(d) * 0.1
	return d + time.Duration(rand.Float64()*2*spread-spread)
}

// sleepWithContext waits for the delay or until the context is cancelled.
func sleepWithContext(ctx context.Context, delay time.Duration) error {
	if delay <= 0 {
		return nil
	}
	timer := time.NewTimer(delay)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}
