package email

import (
	"context"
	"time"
)

// MaxSendAttempts bounds delivery attempts for one invitation email.
const MaxSendAttempts = 3

// retryBaseDelay is the unit of the linear backoff: the wait before
// attempt N+1 is baseDelay * N (1s, then 2s).
const retryBaseDelay = 1 * time.Second

// SendResult is the outcome of a bounded retry send. The helper never
// re-raises: an error on the final attempt is carried in LastErr with
// Delivered false, so callers branch on one shape.
type SendResult struct {
	Delivered bool
	Attempts  int
	LastErr   error
}

// SendWithRetry runs fn up to maxAttempts times, waiting retryBaseDelay
// times the attempt index between tries. Attempts for one invitation are
// strictly sequential: each waits for the previous attempt and its backoff
// before starting. Context cancellation stops the loop early.
func SendWithRetry(ctx context.Context, maxAttempts int, fn func(context.Context) error) SendResult {
	return sendWithRetry(ctx, maxAttempts, retryBaseDelay, fn)
}

func sendWithRetry(ctx context.Context, maxAttempts int, baseDelay time.Duration, fn func(context.Context) error) SendResult {
	if maxAttempts < 1 {
		maxAttempts = 1
	}

	result := SendResult{}
	for attempt := 1; attempt <= maxAttempts; attempt++ {
		result.Attempts = attempt

		err := fn(ctx)
		if err == nil {
			result.Delivered = true
			result.LastErr = nil
			return result
		}
		result.LastErr = err

		if attempt == maxAttempts {
			break
		}

		wait := time.Duration(attempt) * baseDelay
		select {
		case <-ctx.Done():
			result.LastErr = ctx.Err()
			return result
		case <-time.After(wait):
		}
	}
	return result
}
