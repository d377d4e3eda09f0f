package publish

import (
	"time"

	"github.com/cenkalti/backoff/v5"
)

// BackoffPolicy spaces out retries of a failed publish
type BackoffPolicy struct {
	Initial    time.Duration
	Multiplier float64
	Max        time.Duration
	Jitter     float64
}

// DefaultBackoff is 30s doubling up to 30m with 20% jitter
var DefaultBackoff = BackoffPolicy{
	Initial:    30 * time.Second,
	Multiplier: 2,
	Max:        30 * time.Minute,
	Jitter:     0.2,
}

// Delay returns the wait before retrying after the given attempt (1-based).
// Attempts are persisted, so the sequence is replayed rather than kept.
func (p BackoffPolicy) Delay(attempt int) time.Duration {
	b := &backoff.ExponentialBackOff{
		InitialInterval:     p.Initial,
		RandomizationFactor: p.Jitter,
		Multiplier:          p.Multiplier,
		MaxInterval:         p.Max,
	}
	b.Reset()

	var d time.Duration
	for i := 0; i < max(attempt, 1); i++ {
		d = b.NextBackOff()
	}
	return d
}

// retryDelay honors a server-provided Retry-After when it is longer
func (p BackoffPolicy) retryDelay(attempt int, retryAfter time.Duration) time.Duration {
	return max(p.Delay(attempt), retryAfter)
}
