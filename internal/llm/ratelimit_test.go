package llm

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/scholarpipe/litreview/internal/logger"
)

// fastPolicy keeps backoff delays negligible in tests.
func fastPolicy(maxRetries int) RetryPolicy {
	return RetryPolicy{
		MaxRetries: maxRetries,
		BaseDelay:  time.Millisecond,
		MaxDelay:   5 * time.Millisecond,
	}
}

func TestRateLimitedCall_Success(t *testing.T) {
	ctx := context.Background()
	log := logger.NewNoOpLogger()

	result, err := RateLimitedCall(ctx, 100, fastPolicy(3), log, func(ctx context.Context) (string, error) {
		return "success", nil
	})

	if err != nil {
		t.Fatalf("Expected no error, got: %v", err)
	}

	if result != "success" {
		t.Errorf("Expected 'success', got: %s", result)
	}
}

func TestRateLimitedCall_PermanentError(t *testing.T) {
	ctx := context.Background()
	log := logger.NewNoOpLogger()

	// Permanent errors must not be retried.
	testErr := errors.New("401 Unauthorized")
	callCount := 0
	_, err := RateLimitedCall(ctx, 100, fastPolicy(3), log, func(ctx context.Context) (string, error) {
		callCount++
		return "", testErr
	})

	if err == nil {
		t.Fatal("Expected error, got nil")
	}
	if !errors.Is(err, testErr) {
		t.Errorf("Expected original error, got: %v", err)
	}
	if callCount != 1 {
		t.Errorf("Expected 1 call, got: %d", callCount)
	}
}

func TestRateLimitedCall_TransientRetry(t *testing.T) {
	ctx := context.Background()
	log := logger.NewNoOpLogger()

	callCount := 0
	result, err := RateLimitedCall(ctx, 100, fastPolicy(3), log, func(ctx context.Context) (string, error) {
		callCount++
		if callCount < 3 {
			return "", errors.New("429 Too Many Requests")
		}
		return "success after retry", nil
	})

	if err != nil {
		t.Fatalf("Expected no error after retry, got: %v", err)
	}
	if result != "success after retry" {
		t.Errorf("Expected 'success after retry', got: %s", result)
	}
	if callCount != 3 {
		t.Errorf("Expected 3 calls, got: %d", callCount)
	}
}

func TestRateLimitedCall_RateLimitPausesSiblings(t *testing.T) {
	ctx := context.Background()
	log := logger.NewNoOpLogger()

	// First call hits a 429 and opens a 300ms shared pause window.
	policy := RetryPolicy{MaxRetries: 2, BaseDelay: 300 * time.Millisecond, MaxDelay: 300 * time.Millisecond}
	firstDone := make(chan struct{})
	go func() {
		defer close(firstDone)
		calls := 0
		_, _ = RateLimitedCall(ctx, 100, policy, log, func(ctx context.Context) (string, error) {
			calls++
			if calls == 1 {
				return "", errors.New("429 Too Many Requests")
			}
			return "recovered", nil
		})
	}()

	time.Sleep(50 * time.Millisecond)

	// A sibling call issued during the window must wait it out.
	start := time.Now()
	_, err := RateLimitedCall(ctx, 100, fastPolicy(1), log, func(ctx context.Context) (string, error) {
		return "sibling", nil
	})
	elapsed := time.Since(start)

	if err != nil {
		t.Fatalf("Sibling call failed: %v", err)
	}
	if elapsed < 150*time.Millisecond {
		t.Errorf("Sibling call completed in %v during a rate-limit pause; want it held until the window passes", elapsed)
	}
	<-firstDone
}

func TestRateLimitedCall_RetriesExhausted(t *testing.T) {
	ctx := context.Background()
	log := logger.NewNoOpLogger()

	transient := errors.New("503 Service Unavailable")
	callCount := 0
	_, err := RateLimitedCall(ctx, 100, fastPolicy(2), log, func(ctx context.Context) (string, error) {
		callCount++
		return "", transient
	})

	if err == nil {
		t.Fatal("Expected error after exhausting retries, got nil")
	}
	if !errors.Is(err, transient) {
		t.Errorf("Expected wrapped transient error, got: %v", err)
	}
	// Initial attempt plus MaxRetries retries.
	if callCount != 3 {
		t.Errorf("Expected 3 calls, got: %d", callCount)
	}
}

func TestRateLimitedCall_ContextCancellation(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	log := logger.NewNoOpLogger()

	policy := RetryPolicy{MaxRetries: 5, BaseDelay: time.Second, MaxDelay: time.Second}
	callCount := 0
	done := make(chan error, 1)
	go func() {
		_, err := RateLimitedCall(ctx, 100, policy, log, func(ctx context.Context) (string, error) {
			callCount++
			return "", errors.New("429 rate limit")
		})
		done <- err
	}()

	// Cancel while the call is waiting out its first backoff delay.
	time.Sleep(50 * time.Millisecond)
	cancel()

	select {
	case err := <-done:
		if !errors.Is(err, context.Canceled) {
			t.Errorf("Expected context.Canceled, got: %v", err)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("Call did not return after cancellation")
	}
}

func TestIsTransient(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want bool
	}{
		{"nil", nil, false},
		{"rate limit 429", errors.New("429 Too Many Requests"), true},
		{"rate limit text", errors.New("openai: rate_limit_exceeded"), true},
		{"server error", errors.New("500 Internal Server Error"), true},
		{"bad gateway", errors.New("502 Bad Gateway"), true},
		{"timeout", errors.New("request timed out"), true},
		{"connection reset", errors.New("read: connection reset by peer"), true},
		{"auth failure", errors.New("401 Unauthorized"), false},
		{"invalid request", errors.New("400 invalid request"), false},
		{"context canceled", context.Canceled, false},
		{"deadline exceeded", context.DeadlineExceeded, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := IsTransient(tt.err); got != tt.want {
				t.Errorf("IsTransient(%v) = %v, want %v", tt.err, got, tt.want)
			}
		})
	}
}

func TestWorkerPool_BoundsConcurrency(t *testing.T) {
	ctx := context.Background()
	pool := NewWorkerPool(2)

	if err := pool.Acquire(ctx); err != nil {
		t.Fatalf("First acquire failed: %v", err)
	}
	if err := pool.Acquire(ctx); err != nil {
		t.Fatalf("Second acquire failed: %v", err)
	}

	// Third acquire should block until a slot is released.
	blocked, cancel := context.WithTimeout(ctx, 20*time.Millisecond)
	defer cancel()
	if err := pool.Acquire(blocked); err == nil {
		t.Fatal("Expected third acquire to block, but it succeeded")
	}

	pool.Release()
	if err := pool.Acquire(ctx); err != nil {
		t.Fatalf("Acquire after release failed: %v", err)
	}
}
