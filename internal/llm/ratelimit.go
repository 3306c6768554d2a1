package llm

import (
	"context"
	"errors"
	"fmt"
	"math"
	"strings"
	"sync"
	"time"

	"golang.org/x/time/rate"

	"github.com/scholarpipe/litreview/internal/logger"
)

const (
	// Sustained token throughput kept below the service's published limit to
	// leave safety margin.
	tokensPerSecond = 30000
	// Burst allows short bursts above the sustained rate
	burstTokens = 60000

	// Default retry configuration
	defaultMaxRetries = 3
	baseRetryDelay    = 1 * time.Second
	maxRetryDelay     = 32 * time.Second
)

// Shared rate limiter for all outbound calls. All concurrent workers draw
// from the same budget, so a rate-limit signal slows the whole run, not just
// the call that observed it.
var serviceRateLimiter = rate.NewLimiter(rate.Limit(tokensPerSecond), burstTokens)

// Shared pause window. A 429 from the service means the whole account is
// throttled, so every in-flight call holds off until the window passes, not
// just the call that observed it.
var (
	pauseMu    sync.Mutex
	pauseUntil time.Time
)

// pauseAll extends the shared pause window to at least d from now.
func pauseAll(d time.Duration) {
	pauseMu.Lock()
	defer pauseMu.Unlock()
	until := time.Now().Add(d)
	if until.After(pauseUntil) {
		pauseUntil = until
	}
}

// awaitPause blocks while a shared pause window is active. The window can be
// extended by other calls while waiting, so re-check until it has passed.
func awaitPause(ctx context.Context) error {
	for {
		pauseMu.Lock()
		wait := time.Until(pauseUntil)
		pauseMu.Unlock()
		if wait <= 0 {
			return nil
		}
		select {
		case <-time.After(wait):
		case <-ctx.Done():
			return ctx.Err()
		}
	}
}

// RetryPolicy bounds retry behavior for one outbound call.
type RetryPolicy struct {
	MaxRetries int
	BaseDelay  time.Duration
	MaxDelay   time.Duration
}

// DefaultRetryPolicy returns the standard bounded-backoff policy.
func DefaultRetryPolicy() RetryPolicy {
	return RetryPolicy{
		MaxRetries: defaultMaxRetries,
		BaseDelay:  baseRetryDelay,
		MaxDelay:   maxRetryDelay,
	}
}

// backoff returns the exponential delay before the given retry attempt.
func (p RetryPolicy) backoff(attempt int) time.Duration {
	delay := time.Duration(float64(p.BaseDelay) * math.Pow(2, float64(attempt-1)))
	if delay > p.MaxDelay {
		delay = p.MaxDelay
	}
	return delay
}

func (p RetryPolicy) normalize() RetryPolicy {
	if p.MaxRetries <= 0 {
		p.MaxRetries = defaultMaxRetries
	}
	if p.BaseDelay <= 0 {
		p.BaseDelay = baseRetryDelay
	}
	if p.MaxDelay <= 0 {
		p.MaxDelay = maxRetryDelay
	}
	return p
}

// RateLimitedCall wraps an outbound call with shared rate limiting and
// bounded retry. Transient failures (rate limit, timeout, service errors)
// are retried with exponential backoff; permanent failures (invalid input,
// auth) return immediately.
func RateLimitedCall[T any](ctx context.Context, estimatedTokens int, policy RetryPolicy, log logger.Logger, fn func(context.Context) (T, error)) (T, error) {
	var zero T
	policy = policy.normalize()

	if err := serviceRateLimiter.WaitN(ctx, estimatedTokens); err != nil {
		return zero, fmt.Errorf("rate limiter wait failed: %w", err)
	}

	var lastErr error
	for attempt := 0; attempt <= policy.MaxRetries; attempt++ {
		if attempt > 0 {
			delay := policy.backoff(attempt)
			log.Info("Retry attempt %d/%d after %v delay", attempt, policy.MaxRetries, delay)

			select {
			case <-time.After(delay):
			case <-ctx.Done():
				return zero, ctx.Err()
			}
		}

		if err := awaitPause(ctx); err != nil {
			return zero, err
		}

		result, err := fn(ctx)
		if err == nil {
			if attempt > 0 {
				log.Info("Retry succeeded on attempt %d", attempt)
			}
			return result, nil
		}

		lastErr = err

		if !IsTransient(err) {
			return zero, err
		}
		if IsRateLimit(err) {
			pauseAll(policy.backoff(attempt + 1))
		}

		log.Warn("Transient service error on attempt %d/%d: %v", attempt+1, policy.MaxRetries+1, err)
	}

	return zero, fmt.Errorf("max retries (%d) exceeded, last error: %w", policy.MaxRetries, lastErr)
}

// IsTransient reports whether an error is worth retrying: rate limiting,
// timeouts, and server-side failures. Auth and malformed-request errors are
// permanent.
func IsTransient(err error) bool {
	if err == nil {
		return false
	}
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return false
	}
	return IsRateLimit(err) || isServerError(err)
}

// IsRateLimit reports whether an error is a 429 rate-limit signal.
func IsRateLimit(err error) bool {
	if err == nil {
		return false
	}
	return containsAny(err.Error(), []string{"429", "rate limit", "rate_limit_exceeded", "Too Many Requests"})
}

func isServerError(err error) bool {
	return containsAny(err.Error(), []string{
		"500", "502", "503", "504",
		"Internal Server Error", "Bad Gateway", "Service Unavailable",
		"timeout", "timed out", "connection reset", "connection refused", "EOF",
	})
}

func containsAny(s string, substrs []string) bool {
	for _, substr := range substrs {
		if strings.Contains(s, substr) {
			return true
		}
	}
	return false
}

// WorkerPool bounds the number of concurrent outbound calls.
type WorkerPool struct {
	semaphore chan struct{}
}

// NewWorkerPool creates a worker pool with the given concurrency bound.
func NewWorkerPool(maxWorkers int) *WorkerPool {
	if maxWorkers <= 0 {
		maxWorkers = 4
	}
	return &WorkerPool{
		semaphore: make(chan struct{}, maxWorkers),
	}
}

// Acquire acquires a worker slot, blocking if all workers are busy
func (wp *WorkerPool) Acquire(ctx context.Context) error {
	select {
	case wp.semaphore <- struct{}{}:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Release releases a worker slot, allowing another worker to proceed
func (wp *WorkerPool) Release() {
	<-wp.semaphore
}
