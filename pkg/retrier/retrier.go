// Package retrier implements exponential backoff with jitter, used for
// best-effort persistence writes.
package retrier

import (
	"context"
	"math/rand"
	"time"
)

const defaultJitter = 0.1

// Retrier retries a function with exponentially growing pauses.
type Retrier struct {
	initialInterval time.Duration
	maxInterval     time.Duration
	maxRetries      int
	jitter          float64
}

// New creates a Retrier that waits initial between the first attempts,
// doubling the pause up to max, for at most retries retries after the
// first call.
func New(initial, max time.Duration, retries int) *Retrier {
	return &Retrier{
		initialInterval: initial,
		maxInterval:     max,
		maxRetries:      retries,
		jitter:          defaultJitter,
	}
}

// Do executes fn until it succeeds, retries are exhausted, or ctx is
// cancelled. The last error is returned.
func (r *Retrier) Do(ctx context.Context, fn func(ctx context.Context) error) error {
	var err error
	interval := r.initialInterval

	for attempt := 0; attempt <= r.maxRetries; attempt++ {
		if attempt > 0 {
			jitter := (rand.Float64()*2 - 1) * r.jitter * float64(interval)
			sleep := time.Duration(float64(interval) + jitter)
			if sleep < 0 {
				sleep = 0
			}

			select {
			case <-ctx.Done():
				return ctx.Err()
			case <-time.After(sleep):
			}

			interval *= 2
			if interval > r.maxInterval {
				interval = r.maxInterval
			}
		}

		err = fn(ctx)
		if err == nil {
			return nil
		}
	}

	return err
}
