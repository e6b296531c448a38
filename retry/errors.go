package retry

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"
)

// Error types for classification
type (
	// RetryableError represents an error that can be retried
	RetryableError struct {
		Err    error
		Reason string
	}

	// PermanentError represents an error that should not be retried
	PermanentError struct {
		Err    error
		Reason string
	}

	// RateLimitError is a throttling response; RetryAfter is zero when the server gave no hint
	RateLimitError struct {
		Err        error
		RetryAfter time.Duration
	}

	// HTTPStatusError is an unexpected HTTP response status
	HTTPStatusError struct {
		StatusCode int
		Status     string
		URL        string
	}
)

func (e *RetryableError) Error() string {
	if e.Reason != "" {
		return fmt.Sprintf("retryable error (%s): %v", e.Reason, e.Err)
	}
	return fmt.Sprintf("retryable error: %v", e.Err)
}

func (e *RetryableError) Unwrap() error {
	return e.Err
}

func (e *PermanentError) Error() string {
	if e.Reason != "" {
		return fmt.Sprintf("permanent error (%s): %v", e.Reason, e.Err)
	}
	return fmt.Sprintf("permanent error: %v", e.Err)
}

func (e *PermanentError) Unwrap() error {
	return e.Err
}

func (e *RateLimitError) Error() string {
	if e.RetryAfter > 0 {
		return fmt.Sprintf("rate limit exceeded (retry after %s): %v", e.RetryAfter, e.Err)
	}
	return fmt.Sprintf("rate limit exceeded: %v", e.Err)
}

func (e *RateLimitError) Unwrap() error {
	return e.Err
}

func (e *HTTPStatusError) Error() string {
	return fmt.Sprintf("unexpected HTTP status %s from %s", e.Status, e.URL)
}

func NewRetryableError(err error, reason string) error {
	return &RetryableError{Err: err, Reason: reason}
}

func NewPermanentError(err error, reason string) error {
	return &PermanentError{Err: err, Reason: reason}
}

func NewRateLimitError(err error, retryAfter time.Duration) error {
	return &RateLimitError{Err: err, RetryAfter: retryAfter}
}

// StatusCode extracts the HTTP status of an error chain, or 0
func StatusCode(err error) int {
	var statusErr *HTTPStatusError
	if errors.As(err, &statusErr) {
		return statusErr.StatusCode
	}
	return 0
}

// FromResponse classifies a non-2xx response.
// 429 becomes a RateLimitError, 408 and 5xx are retryable, anything else is permanent.
func FromResponse(resp *http.Response) error {
	statusErr := &HTTPStatusError{
		StatusCode: resp.StatusCode,
		Status:     resp.Status,
	}
	if resp.Request != nil && resp.Request.URL != nil {
		statusErr.URL = resp.Request.URL.String()
	}

	switch {
	case resp.StatusCode == http.StatusTooManyRequests:
		return NewRateLimitError(statusErr, parseRetryAfter(resp.Header.Get("Retry-After")))
	case resp.StatusCode == http.StatusRequestTimeout || resp.StatusCode >= 500:
		return NewRetryableError(statusErr, "server error")
	default:
		return NewPermanentError(statusErr, "client error")
	}
}

// parseRetryAfter understands both delta-seconds and HTTP-date forms
func parseRetryAfter(v string) time.Duration {
	v = strings.TrimSpace(v)
	if v == "" {
		return 0
	}
	if secs, err := strconv.Atoi(v); err == nil && secs > 0 {
		return time.Duration(secs) * time.Second
	}
	if at, err := http.ParseTime(v); err == nil {
		if d := time.Until(at); d > 0 {
			return d
		}
	}
	return 0
}

// IsRetryable determines if an error should trigger a retry
func IsRetryable(err error) bool {
	if err == nil {
		return false
	}

	var retryable *RetryableError
	if errors.As(err, &retryable) {
		return true
	}

	var permanent *PermanentError
	if errors.As(err, &permanent) {
		return false
	}

	var rateLimit *RateLimitError
	if errors.As(err, &rateLimit) {
		return true
	}

	if errors.Is(err, context.Canceled) {
		return false
	}

	if isRetryableNetworkError(err) {
		return true
	}

	return isRetryableByMessage(err)
}

// isRetryableNetworkError checks if a network error is retryable
func isRetryableNetworkError(err error) bool {
	var netErr net.Error
	if errors.As(err, &netErr) && netErr.Timeout() {
		return true
	}

	var urlErr *url.Error
	if errors.As(err, &urlErr) && urlErr.Err != nil && urlErr.Err != err {
		if isRetryableNetworkError(urlErr.Err) {
			return true
		}
	}

	var dnsErr *net.DNSError
	if errors.As(err, &dnsErr) {
		return dnsErr.IsTemporary || dnsErr.IsTimeout
	}

	// Connection refused, reset, etc. are often transient
	var opErr *net.OpError
	if errors.As(err, &opErr) {
		if opErr.Op == "dial" || opErr.Op == "read" || opErr.Op == "write" {
			return true
		}
	}

	// Connection closed mid-response
	if errors.Is(err, io.EOF) || errors.Is(err, io.ErrUnexpectedEOF) {
		return true
	}

	return false
}

// retryablePatterns are message fragments of transient failures
var retryablePatterns = []string{
	"timeout",
	"timed out",
	"temporary failure",
	"connection refused",
	"connection reset",
	"broken pipe",
	"service unavailable",
	"too many requests",
	"rate limit",
	"try again",
}

// isRetryableByMessage checks error messages for retryable patterns
func isRetryableByMessage(err error) bool {
	msg := strings.ToLower(err.Error())
	for _, pattern := range retryablePatterns {
		if strings.Contains(msg, pattern) {
			return true
		}
	}
	return false
}

// Classify wraps an error with the appropriate retry classification
func Classify(err error) error {
	if err == nil {
		return nil
	}

	var retryable *RetryableError
	var permanent *PermanentError
	var rateLimit *RateLimitError
	if errors.As(err, &retryable) || errors.As(err, &permanent) || errors.As(err, &rateLimit) {
		return err
	}

	if IsRetryable(err) {
		return NewRetryableError(err, "transient failure")
	}
	return NewPermanentError(err, "non-retryable failure")
}

// WrapNetworkError classifies a transport-level error from an HTTP client.
// Once ctx is done the error is permanent whatever its kind.
func WrapNetworkError(ctx context.Context, err error) error {
	if err == nil {
		return nil
	}
	if ctx.Err() != nil {
		return NewPermanentError(err, "request cancelled")
	}
	if isRetryableNetworkError(err) || isRetryableByMessage(err) {
		return NewRetryableError(err, "network error")
	}
	return NewPermanentError(err, "network error")
}
