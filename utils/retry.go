package utils

import (
	"context"
	"fmt"
	"time"
)

// Retry calls fn up to attempts times, waiting delay between failures. It
// gives up early when ctx is done.
func Retry[T any](ctx context.Context, attempts int, delay time.Duration, name string, fn func() (T, error)) (T, error) {
	var zero T
	var lastErr error

	for attempt := 0; attempt < attempts; attempt++ {
		v, err := fn()
		if err == nil {
			return v, nil
		}
		lastErr = err

		if attempt < attempts-1 {
			select {
			case <-ctx.Done():
				return zero, fmt.Errorf("failed to %s: %w", name, ctx.Err())
			case <-time.After(delay):
			}
		}
	}

	return zero, fmt.Errorf("failed to %s after %d attempts: %w", name, attempts, lastErr)
}
