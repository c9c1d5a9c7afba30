package email

import (
	"context"
	"errors"
	"testing"
	"time"
)

func TestSendWithRetrySucceedsFirstAttempt(t *testing.T) {
	calls := 0
	result := sendWithRetry(context.Background(), 3, time.Millisecond, func(context.Context) error {
		calls++
		return nil
	})

	if !result.Delivered {
		t.Fatal("expected delivery")
	}
	if result.Attempts != 1 || calls != 1 {
		t.Fatalf("expected exactly one attempt, got attempts=%d calls=%d", result.Attempts, calls)
	}
	if result.LastErr != nil {
		t.Fatalf("expected nil LastErr, got %v", result.LastErr)
	}
}

func TestSendWithRetryRecoversOnLaterAttempt(t *testing.T) {
	calls := 0
	result := sendWithRetry(context.Background(), 3, time.Millisecond, func(context.Context) error {
		calls++
		if calls < 3 {
			return errors.New("smtp timeout")
		}
		return nil
	})

	if !result.Delivered {
		t.Fatalf("expected delivery on third attempt, got %+v", result)
	}
	if result.Attempts != 3 {
		t.Fatalf("expected 3 attempts, got %d", result.Attempts)
	}
	if result.LastErr != nil {
		t.Fatalf("expected LastErr cleared after success, got %v", result.LastErr)
	}
}

func TestSendWithRetryExhaustsWithoutRaising(t *testing.T) {
	sendErr := errors.New("connection refused")
	calls := 0
	result := sendWithRetry(context.Background(), 3, time.Millisecond, func(context.Context) error {
		calls++
		return sendErr
	})

	if result.Delivered {
		t.Fatal("expected failure after exhausting attempts")
	}
	if calls != 3 || result.Attempts != 3 {
		t.Fatalf("expected exactly 3 attempts, got calls=%d attempts=%d", calls, result.Attempts)
	}
	if !errors.Is(result.LastErr, sendErr) {
		t.Fatalf("expected final error carried in LastErr, got %v", result.LastErr)
	}
}

func TestSendWithRetryBackoffGrowsLinearly(t *testing.T) {
	base := 20 * time.Millisecond
	start := time.Now()
	sendWithRetry(context.Background(), 3, base, func(context.Context) error {
		return errors.New("nope")
	})
	elapsed := time.Since(start)

	// waits of 1*base and 2*base between the three attempts
	if elapsed < 3*base {
		t.Fatalf("expected at least %v of backoff, finished in %v", 3*base, elapsed)
	}
}

func TestSendWithRetryStopsOnContextCancellation(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	calls := 0
	result := sendWithRetry(ctx, 3, time.Hour, func(context.Context) error {
		calls++
		cancel()
		return errors.New("nope")
	})

	if result.Delivered {
		t.Fatal("expected failure")
	}
	if calls != 1 {
		t.Fatalf("expected the backoff wait to observe cancellation, got %d calls", calls)
	}
	if !errors.Is(result.LastErr, context.Canceled) {
		t.Fatalf("expected context error, got %v", result.LastErr)
	}
}

func TestSendWithRetryTreatsNonPositiveAttemptsAsOne(t *testing.T) {
	calls := 0
	result := sendWithRetry(context.Background(), 0, time.Millisecond, func(context.Context) error {
		calls++
		return errors.New("nope")
	})
	if calls != 1 || result.Attempts != 1 {
		t.Fatalf("expected a single attempt, got calls=%d attempts=%d", calls, result.Attempts)
	}
}
