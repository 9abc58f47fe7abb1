package errors

import (
	"context"
	"fmt"
	"math/rand"
	"time"
)

// RetryConfig shapes the backoff applied to transient failures, such
// as embedding requests against a busy or briefly unreachable backend.
type RetryConfig struct {
	// MaxRetries is how many retries follow the first attempt.
	MaxRetries int

	// InitialDelay precedes the first retry.
	InitialDelay time.Duration

	// MaxDelay caps the backoff growth.
	MaxDelay time.Duration

	// Multiplier grows the delay after each attempt.
	Multiplier float64

	// Jitter randomizes each delay so concurrent workers retrying the
	// same backend do not fire in lockstep.
	Jitter bool
}

// RetryWithResult runs fn until it succeeds or the attempts are
// exhausted, backing off between attempts. A cancelled context wins
// over the schedule at every point and is returned as-is.
func RetryWithResult[T any](ctx context.Context, cfg RetryConfig, fn func() (T, error)) (T, error) {
	var zero T
	delay := cfg.InitialDelay

	for attempt := 0; ; attempt++ {
		if err := ctx.Err(); err != nil {
			return zero, err
		}

		result, err := fn()
		if err == nil {
			return result, nil
		}

		if attempt >= cfg.MaxRetries {
			return zero, fmt.Errorf("failed after %d retries: %w", cfg.MaxRetries, err)
		}

		select {
		case <-ctx.Done():
			return zero, ctx.Err()
		case <-time.After(cfg.jittered(delay)):
		}
		delay = cfg.next(delay)
	}
}

// jittered scales one delay by a random factor in [0.5, 1.0).
func (cfg RetryConfig) jittered(delay time.Duration) time.Duration {
	if !cfg.Jitter {
		return delay
	}
	return time.Duration(float64(delay) * (0.5 + rand.Float64()*0.5))
}

// next grows the delay geometrically up to MaxDelay.
func (cfg RetryConfig) next(delay time.Duration) time.Duration {
	delay = time.Duration(float64(delay) * cfg.Multiplier)
	if delay > cfg.MaxDelay {
		delay = cfg.MaxDelay
	}
	return delay
}
