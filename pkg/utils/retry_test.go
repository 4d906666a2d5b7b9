package utils

import (
	"context"
	"errors"
	"testing"
	"time"
)

func fastRetryConfig(attempts int) RetryConfig {
	return RetryConfig{
		MaxAttempts:   attempts,
		InitialDelay:  time.Millisecond,
		MaxDelay:      10 * time.Millisecond,
		BackoffFactor: 2.0,
	}
}

func TestRetry_SucceedsFirstTry(t *testing.T) {
	calls := 0
	err := Retry(context.Background(), fastRetryConfig(3), func() error {
		calls++
		return nil
	})
	if err != nil {
		t.Fatal(err)
	}
	if calls != 1 {
		t.Errorf("calls = %d, want 1", calls)
	}
}

func TestRetry_SucceedsAfterTransientFailures(t *testing.T) {
	calls := 0
	err := Retry(context.Background(), fastRetryConfig(3), func() error {
		calls++
		if calls < 3 {
			return errors.New("transient")
		}
		return nil
	})
	if err != nil {
		t.Fatal(err)
	}
	if calls != 3 {
		t.Errorf("calls = %d, want 3", calls)
	}
}

func TestRetry_ExhaustsAttempts(t *testing.T) {
	wantErr := errors.New("persistent")
	calls := 0
	err := Retry(context.Background(), fastRetryConfig(3), func() error {
		calls++
		return wantErr
	})
	if !errors.Is(err, wantErr) {
		t.Errorf("err = %v, want last error", err)
	}
	if calls != 3 {
		t.Errorf("calls = %d, want 3", calls)
	}
}

func TestRetry_ContextCancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	err := Retry(ctx, fastRetryConfig(5), func() error {
		return errors.New("failing")
	})
	if !errors.Is(err, context.Canceled) {
		t.Errorf("err = %v, want context.Canceled", err)
	}
}

func TestRetryNotify_ReportsEachFailure(t *testing.T) {
	var attempts []int
	calls := 0

	err := RetryNotify(context.Background(), fastRetryConfig(3),
		func() error {
			calls++
			if calls < 3 {
				return errors.New("transient")
			}
			return nil
		},
		func(attempt int, err error) {
			attempts = append(attempts, attempt)
		})
	if err != nil {
		t.Fatal(err)
	}
	if len(attempts) != 2 || attempts[0] != 1 || attempts[1] != 2 {
		t.Errorf("notified attempts = %v, want [1 2]", attempts)
	}
}

func TestCalculateBackoff(t *testing.T) {
	initial := 100 * time.Millisecond
	max := time.Second

	if got := CalculateBackoff(0, initial, max, 2.0); got != 100*time.Millisecond {
		t.Errorf("attempt 0 = %v", got)
	}
	if got := CalculateBackoff(2, initial, max, 2.0); got != 400*time.Millisecond {
		t.Errorf("attempt 2 = %v", got)
	}
	// Capped at max.
	if got := CalculateBackoff(10, initial, max, 2.0); got != max {
		t.Errorf("attempt 10 = %v, want %v", got, max)
	}
}
