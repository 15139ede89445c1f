// Package retry provides bounded retry with exponential backoff.
package retry

import (
	"context"
	"log/slog"
	"math"
	"time"
)

// Config controls retry behavior.
type Config struct {
	// MaxAttempts is the total number of attempts, including the first.
	MaxAttempts int
	// InitialWait is the delay before the second attempt.
	InitialWait time.Duration
	// MaxWait caps the backoff delay.
	MaxWait time.Duration
	// Multiplier grows the delay between consecutive attempts.
	Multiplier float64
}

// DefaultConfig matches the audio download policy: up to 10 attempts, first
// retry after 200ms, doubling each time, capped at 10s.
var DefaultConfig = Config{
	MaxAttempts: 10,
	InitialWait: 200 * time.Millisecond,
	MaxWait:     10 * time.Second,
	Multiplier:  2.0,
}

// Wait returns the delay before attempt n (1-based). Attempt 1 has no delay.
func (c Config) Wait(attempt int) time.Duration {
	if attempt <= 1 {
		return 0
	}
	wait := time.Duration(float64(c.InitialWait) * math.Pow(c.Multiplier, float64(attempt-2)))
	if wait > c.MaxWait {
		wait = c.MaxWait
	}
	return wait
}

// Do runs fn until it succeeds or MaxAttempts is exhausted, sleeping the
// backoff delay between attempts. Every failure is retried; the last error is
// returned when attempts run out. Context cancellation interrupts the backoff
// sleep and surfaces ctx.Err().
func Do(ctx context.Context, cfg Config, fn func(ctx context.Context) error) error {
	var lastErr error

	for attempt := 1; attempt <= cfg.MaxAttempts; attempt++ {
		if wait := cfg.Wait(attempt); wait > 0 {
			slog.Debug("retrying",
				slog.Int("attempt", attempt),
				slog.Duration("wait", wait),
				slog.Any("error", lastErr),
			)
			select {
			case <-time.After(wait):
			case <-ctx.Done():
				return ctx.Err()
			}
		}

		if err := fn(ctx); err != nil {
			lastErr = err
			continue
		}
		return nil
	}
	return lastErr
}
