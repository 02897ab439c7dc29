// Package retry applies a bounded retry policy with exponential backoff to
// fallible operations. One policy value is shared by answer generation,
// ground-truth generation, and judge scoring.
package retry

import (
	"context"
	"time"
)

// Policy describes how many attempts to make and how long to wait between
// them. Backoff doubles each attempt: initial, 2*initial, 4*initial, ...
// with no jitter.
type Policy struct {
	MaxAttempts    int
	InitialBackoff time.Duration

	// sleep is replaceable in tests.
	sleep func(time.Duration)
}

// DefaultPolicy matches the generator contract: 3 attempts, backoff
// starting at one second.
func DefaultPolicy() Policy {
	return Policy{MaxAttempts: 3, InitialBackoff: time.Second}
}

// WithSleep returns a copy of the policy using fn instead of time.Sleep.
func (p Policy) WithSleep(fn func(time.Duration)) Policy {
	p.sleep = fn
	return p
}

// Do runs fn until it succeeds or the attempt budget is exhausted. The last
// error is returned along with the number of attempts made. Context
// cancellation stops retrying immediately.
func (p Policy) Do(ctx context.Context, fn func(context.Context) error) (int, error) {
	attempts := p.MaxAttempts
	if attempts <= 0 {
		attempts = 1
	}
	backoff := p.InitialBackoff
	if backoff <= 0 {
		backoff = time.Second
	}
	sleep := p.sleep
	if sleep == nil {
		sleep = time.Sleep
	}

	var lastErr error
	for attempt := 1; attempt <= attempts; attempt++ {
		if attempt > 1 {
			sleep(backoff)
			backoff *= 2
		}
		if err := ctx.Err(); err != nil {
			return attempt - 1, err
		}
		if lastErr = fn(ctx); lastErr == nil {
			return attempt, nil
		}
	}
	return attempts, lastErr
}
