// Package retry runs operations with exponential backoff and classifies
// errors into retryable and permanent ones.
package retry

import (
	"context"
	"errors"
	"fmt"
	"math/rand"
	"time"

	"github.com/rohanthewiz/logger"
)

// Policy defines the configuration for retry attempts
type Policy struct {
	// MaxAttempts is the maximum number of retry attempts (excluding the initial attempt)
	MaxAttempts int
	// InitialDelay is the initial delay between retries
	InitialDelay time.Duration
	// MaxDelay caps both the backoff and any server supplied Retry-After
	MaxDelay time.Duration
	// Multiplier is the factor by which the delay is multiplied after each retry
	Multiplier float64
	// Jitter adds up to 20% randomness to each delay
	Jitter bool
	// Retryable decides which errors trigger a retry; nil retries everything
	Retryable func(error) bool
}

// DefaultPolicy provides sensible defaults for most operations
var DefaultPolicy = Policy{
	MaxAttempts:  3,
	InitialDelay: 100 * time.Millisecond,
	MaxDelay:     5 * time.Second,
	Multiplier:   2.0,
	Jitter:       true,
	Retryable:    IsRetryable,
}

// NetworkPolicy is used for wordpress.org API calls and downloads
var NetworkPolicy = Policy{
	MaxAttempts:  4,
	InitialDelay: 500 * time.Millisecond,
	MaxDelay:     30 * time.Second,
	Multiplier:   2.0,
	Jitter:       true,
	Retryable:    IsRetryable,
}

// Result contains information about the retry operation
type Result struct {
	// Attempts is the total number of attempts made
	Attempts int
	// Success indicates whether the operation eventually succeeded
	Success bool
	// LastError is the error from the final attempt
	LastError error
	// TotalDuration is the total time spent including all retries
	TotalDuration time.Duration
}

// Operation is a function that can be retried
type Operation func(ctx context.Context) error

// Do executes an operation with the given policy
func Do(ctx context.Context, policy Policy, operation Operation) Result {
	start := time.Now()
	result := Result{}
	delay := policy.InitialDelay

	for attempt := 0; ; attempt++ {
		result.Attempts++
		err := operation(ctx)
		if err == nil {
			result.Success = true
			result.TotalDuration = time.Since(start)
			if attempt > 0 {
				logger.Debug("Retry succeeded", "attempt", attempt)
			}
			return result
		}

		if policy.Retryable != nil && !policy.Retryable(err) {
			result.LastError = err
			result.TotalDuration = time.Since(start)
			logger.Debug("Error is not retryable", "error", err.Error())
			return result
		}

		if attempt >= policy.MaxAttempts {
			result.LastError = fmt.Errorf("operation failed after %d attempts: %w", result.Attempts, err)
			result.TotalDuration = time.Since(start)
			return result
		}

		wait := nextDelay(policy, delay, err)
		logger.Debug("Retrying operation",
			"attempt", attempt+1,
			"max_attempts", policy.MaxAttempts,
			"delay", wait.String(),
			"previous_error", err.Error())

		select {
		case <-ctx.Done():
			result.LastError = fmt.Errorf("retry cancelled: %w", ctx.Err())
			result.TotalDuration = time.Since(start)
			return result
		case <-time.After(wait):
		}

		delay = time.Duration(float64(delay) * policy.Multiplier)
		if policy.MaxDelay > 0 && delay > policy.MaxDelay {
			delay = policy.MaxDelay
		}
	}
}

// nextDelay picks the wait before the next attempt.
// A server Retry-After wins over the backoff but is still capped by MaxDelay.
func nextDelay(policy Policy, delay time.Duration, err error) time.Duration {
	var rateLimit *RateLimitError
	if errors.As(err, &rateLimit) && rateLimit.RetryAfter > 0 {
		delay = rateLimit.RetryAfter
	} else if policy.Jitter {
		jitter := float64(delay) * 0.2 * rand.Float64()
		delay = time.Duration(float64(delay) + jitter)
	}

	if policy.MaxDelay > 0 && delay > policy.MaxDelay {
		delay = policy.MaxDelay
	}
	return delay
}
