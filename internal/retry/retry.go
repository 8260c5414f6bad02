// Package retry wraps network-touching operations in bounded
// retry-with-delay so transient failures never immediately abort a run.
package retry

import (
	"context"
	"fmt"
	"time"

	"github.com/rs/zerolog"
)

// Do executes op up to maxAttempts times, sleeping delay between attempts.
// Returns nil on the first success, or the last failure once attempts are
// exhausted. Context cancellation cuts the wait short and wins over retries.
func Do(ctx context.Context, log zerolog.Logger, name string, maxAttempts int, delay time.Duration, op func() error) error {
	if maxAttempts < 1 {
		maxAttempts = 1
	}

	var lastErr error
	for attempt := 1; attempt <= maxAttempts; attempt++ {
		if err := ctx.Err(); err != nil {
			return err
		}

		lastErr = op()
		if lastErr == nil {
			return nil
		}

		if attempt < maxAttempts {
			log.Warn().
				Str("op", name).
				Int("attempt", attempt).
				Int("max", maxAttempts).
				Err(lastErr).
				Msg("operation failed, retrying")

			select {
			case <-ctx.Done():
				return ctx.Err()
			case <-time.After(delay):
			}
		}
	}

	return fmt.Errorf("%s failed after %d attempts: %w", name, maxAttempts, lastErr)
}
