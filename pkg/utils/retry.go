package utils

import (
	"context"
	"fmt"
	"time"
)

// Retry runs fn up to attempts times with a fixed delay between tries.
// There is no backoff: callers wrap small idempotent operations (one
// frame write) and a growing delay only hides a dead connection.
func Retry(ctx context.Context, attempts int, delay time.Duration, fn func() error) error {
	if attempts < 1 {
		attempts = 1
	}

	var lastErr error
	for i := 0; i < attempts; i++ {
		if err := ctx.Err(); err != nil {
			return err
		}
		if lastErr = fn(); lastErr == nil {
			return nil
		}
		if i == attempts-1 {
			break
		}
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(delay):
		}
	}
	return fmt.Errorf("after %d attempts: %w", attempts, lastErr)
}
