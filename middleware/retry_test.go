package middleware

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/goliatone/go-db-middleware/dbx"
)

func countingOp(calls *int, failUntil int) dbx.Operation[string] {
	return func(ctx context.Context, conn dbx.Connection, args ...any) (string, error) {
		*calls++
		if *calls <= failUntil {
			return "", errors.New("transient")
		}
		return "done", nil
	}
}

func TestRetry_ExhaustsAttempts(t *testing.T) {
	calls := 0
	op := Retry[string](RetryConfig{Retries: 2})(countingOp(&calls, 100))

	_, err := op(context.Background(), &fakeConn{})

	if calls != 3 {
		t.Errorf("expected 3 attempts, got %d", calls)
	}
	var exhausted *dbx.RetryExhaustedError
	if !errors.As(err, &exhausted) {
		t.Fatalf("expected RetryExhaustedError, got %v", err)
	}
	if exhausted.Attempts != 3 {
		t.Errorf("expected Attempts=3, got %d", exhausted.Attempts)
	}
}

func TestRetry_SucceedsMidway(t *testing.T) {
	tests := []struct {
		name      string
		failUntil int
		wantCalls int
	}{
		{"first attempt succeeds", 0, 1},
		{"second attempt succeeds", 1, 2},
		{"last attempt succeeds", 3, 4},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			calls := 0
			op := Retry[string](RetryConfig{Retries: 3})(countingOp(&calls, tt.failUntil))

			result, err := op(context.Background(), &fakeConn{})
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if result != "done" {
				t.Errorf("expected %q, got %q", "done", result)
			}
			if calls != tt.wantCalls {
				t.Errorf("expected %d calls, got %d", tt.wantCalls, calls)
			}
		})
	}
}

func TestRetry_ZeroRetriesSingleAttempt(t *testing.T) {
	calls := 0
	op := Retry[string](RetryConfig{})(countingOp(&calls, 100))

	_, err := op(context.Background(), &fakeConn{})

	if calls != 1 {
		t.Errorf("expected exactly 1 attempt, got %d", calls)
	}
	var exhausted *dbx.RetryExhaustedError
	if !errors.As(err, &exhausted) {
		t.Fatalf("expected RetryExhaustedError, got %v", err)
	}
	if exhausted.Attempts != 1 {
		t.Errorf("expected Attempts=1, got %d", exhausted.Attempts)
	}
}

func TestRetry_PreservesLastError(t *testing.T) {
	lastErr := errors.New("final failure")
	count := 0
	op := Retry[int](RetryConfig{Retries: 1})(func(ctx context.Context, conn dbx.Connection, args ...any) (int, error) {
		count++
		if count == 2 {
			return 0, lastErr
		}
		return 0, errors.New("earlier failure")
	})

	_, err := op(context.Background(), &fakeConn{})

	if !errors.Is(err, lastErr) {
		t.Errorf("expected the final attempt's error to surface, got %v", err)
	}
}

func TestRetry_OnRetryHook(t *testing.T) {
	var attempts []int
	cfg := RetryConfig{
		Retries: 2,
		OnRetry: func(attempt int, err error, delay time.Duration) {
			attempts = append(attempts, attempt)
		},
	}

	calls := 0
	op := Retry[string](cfg)(countingOp(&calls, 100))
	_, _ = op(context.Background(), &fakeConn{})

	// The hook fires after each failed attempt except the last.
	if len(attempts) != 2 || attempts[0] != 1 || attempts[1] != 2 {
		t.Errorf("expected hook calls for attempts [1 2], got %v", attempts)
	}
}

func TestRetry_NoDelayAfterFinalAttempt(t *testing.T) {
	calls := 0
	cfg := RetryConfig{Retries: 2, Delay: 30 * time.Millisecond}
	op := Retry[string](cfg)(countingOp(&calls, 100))

	start := time.Now()
	_, _ = op(context.Background(), &fakeConn{})
	elapsed := time.Since(start)

	// 3 attempts with 2 inter-attempt delays; a trailing delay would add a third.
	if elapsed >= 3*cfg.Delay {
		t.Errorf("expected roughly 2 delays (%v), took %v", 2*cfg.Delay, elapsed)
	}
}

func TestRetry_ContextCancelDuringDelay(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	calls := 0
	cfg := RetryConfig{
		Retries: 5,
		Delay:   time.Minute,
		OnRetry: func(int, error, time.Duration) { cancel() },
	}
	op := Retry[string](cfg)(countingOp(&calls, 100))

	done := make(chan error, 1)
	go func() {
		_, err := op(ctx, &fakeConn{})
		done <- err
	}()

	select {
	case err := <-done:
		if !errors.Is(err, context.Canceled) {
			t.Errorf("expected context.Canceled, got %v", err)
		}
		if calls != 1 {
			t.Errorf("expected 1 attempt before cancellation, got %d", calls)
		}
	case <-time.After(5 * time.Second):
		t.Fatal("retry did not honor context cancellation during the delay")
	}
}

func TestRetryConfig_Validate(t *testing.T) {
	tests := []struct {
		name    string
		cfg     RetryConfig
		wantErr bool
	}{
		{"default is valid", DefaultRetryConfig(), false},
		{"zero value is valid", RetryConfig{}, false},
		{"negative retries", RetryConfig{Retries: -1}, true},
		{"negative delay", RetryConfig{Delay: -time.Second}, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.cfg.Validate()
			if (err != nil) != tt.wantErr {
				t.Errorf("Validate() = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}
}
