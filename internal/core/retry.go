package core

import (
	"context"
	"time"
)

const (
	retryAttempts     = 2
	retryInitialDelay = time.Second
)

// withRetry runs fn up to retryAttempts times, doubling the delay between
// attempts starting from retryInitialDelay. Respects context cancellation.
func withRetry(ctx context.Context, fn func() error) error {
	delay := retryInitialDelay

	var err error
	for attempt := 0; attempt < retryAttempts; attempt++ {
		if attempt > 0 {
			select {
			case <-time.After(delay):
				delay *= 2
			case <-ctx.Done():
				return ctx.Err()
			}
		}

		if err = fn(); err == nil {
			return nil
		}
	}
	return err
}
