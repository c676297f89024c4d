// Package retry runs blocking provider calls under a bounded exponential
// backoff policy shared by the chat and speech-to-text collaborators.
package retry

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"ytsummarize/internal/logging"
	"ytsummarize/internal/services"
)

const (
	DefaultMaxAttempts = 3
	DefaultBaseDelay   = 2 * time.Second
	DefaultMaxDelay    = 30 * time.Second
)

// Policy describes how many times and how patiently a call is retried.
type Policy struct {
	MaxAttempts int
	BaseDelay   time.Duration
	MaxDelay    time.Duration
	// Sleeper replaces the timer wait, mainly for tests.
	Sleeper func(time.Duration)
	Logger  *slog.Logger
}

// Default returns the policy used when nothing is configured: three attempts
// with 2s and 4s waits between them.
func Default() Policy {
	return Policy{
		MaxAttempts: DefaultMaxAttempts,
		BaseDelay:   DefaultBaseDelay,
		MaxDelay:    DefaultMaxDelay,
	}
}

// StatusError is a provider response with a non-success HTTP status.
type StatusError struct {
	Provider   string
	StatusCode int
	Body       string
	RetryAfter time.Duration
}

func (e *StatusError) Error() string {
	body := strings.TrimSpace(e.Body)
	if body == "" {
		return fmt.Sprintf("%s request: http %d", e.Provider, e.StatusCode)
	}
	return fmt.Sprintf("%s request: http %d: %s", e.Provider, e.StatusCode, body)
}

// EmptyResponseError reports a successful call that produced no usable text.
type EmptyResponseError struct {
	Op     string
	Detail string
}

func (e *EmptyResponseError) Error() string {
	if e.Detail == "" {
		return e.Op + ": empty content"
	}
	return fmt.Sprintf("%s: empty content (%s)", e.Op, e.Detail)
}

// ExhaustedError is returned once every attempt failed with a retryable error.
type ExhaustedError struct {
	Op       string
	Attempts int
	Err      error
}

func (e *ExhaustedError) Error() string {
	return fmt.Sprintf("%s: failed after %d attempts: %v", e.Op, e.Attempts, e.Err)
}

func (e *ExhaustedError) Unwrap() error { return e.Err }

// Do calls fn until it succeeds, returns a non-retryable error, or the
// attempt budget is spent.
func (p Policy) Do(ctx context.Context, op string, fn func(context.Context) error) error {
	attempts := p.attempts()
	logger := p.Logger
	if logger == nil {
		logger = logging.NewNop()
	}
	var lastErr error
	for attempt := 1; attempt <= attempts; attempt++ {
		err := fn(ctx)
		if err == nil {
			return nil
		}
		if !Retryable(err) {
			return err
		}
		lastErr = err
		delay, retry := p.delay(err, attempt)
		if !retry {
			break
		}
		logger.Debug("retrying provider call",
			logging.String("operation", op),
			logging.Int(logging.FieldAttempt, attempt),
			logging.Duration("delay", delay),
			logging.Error(err),
		)
		if err := p.sleep(ctx, delay); err != nil {
			return err
		}
	}
	return &ExhaustedError{Op: op, Attempts: attempts, Err: lastErr}
}

// Retryable reports whether err is worth another attempt. Authentication
// and malformed-request failures are final; throttling, server errors,
// timeouts, and empty completions are not.
func Retryable(err error) bool {
	_, ok := classify(err)
	return ok
}

func classify(err error) (time.Duration, bool) {
	if err == nil {
		return 0, false
	}
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return 0, false
	}
	if errors.Is(err, services.ErrConfiguration) || errors.Is(err, services.ErrValidation) {
		return 0, false
	}

	var empty *EmptyResponseError
	if errors.As(err, &empty) {
		return 0, true
	}

	var statusErr *StatusError
	if errors.As(err, &statusErr) {
		if retryableStatus(statusErr.StatusCode) {
			return statusErr.RetryAfter, true
		}
		return 0, false
	}

	var urlErr *url.Error
	if errors.As(err, &urlErr) {
		if urlErr.Timeout() {
			return 0, true
		}
		var opErr *net.OpError
		return 0, errors.As(urlErr.Err, &opErr)
	}

	var netErr net.Error
	if errors.As(err, &netErr) {
		return 0, true
	}
	return 0, false
}

func retryableStatus(code int) bool {
	switch {
	case code == http.StatusRequestTimeout,
		code == http.StatusConflict,
		code == http.StatusTooManyRequests,
		code >= http.StatusInternalServerError:
		return true
	default:
		return false
	}
}

func (p Policy) attempts() int {
	if p.MaxAttempts <= 0 {
		return 1
	}
	return p.MaxAttempts
}

func (p Policy) delay(err error, attempt int) (time.Duration, bool) {
	if attempt >= p.attempts() {
		return 0, false
	}
	hint, ok := classify(err)
	if !ok {
		return 0, false
	}
	if hint > 0 {
		return p.capDelay(hint), true
	}
	return p.backoffDelay(attempt), true
}

func (p Policy) backoffDelay(attempt int) time.Duration {
	base := p.BaseDelay
	if base <= 0 {
		return 0
	}
	maxDelay := p.maxDelay()
	// attempt 1 -> base, attempt 2 -> base*2, attempt 3 -> base*4, ...
	delay := base
	for i := 1; i < attempt; i++ {
		if delay > maxDelay/2 {
			delay = maxDelay
			break
		}
		delay *= 2
	}
	return p.capDelay(delay)
}

func (p Policy) maxDelay() time.Duration {
	if p.MaxDelay > 0 {
		return p.MaxDelay
	}
	return DefaultMaxDelay
}

func (p Policy) capDelay(delay time.Duration) time.Duration {
	if delay < 0 {
		return 0
	}
	if maxDelay := p.maxDelay(); delay > maxDelay {
		return maxDelay
	}
	return delay
}

func (p Policy) sleep(ctx context.Context, delay time.Duration) error {
	if delay <= 0 {
		return nil
	}
	if ctx.Err() != nil {
		return ctx.Err()
	}
	if p.Sleeper != nil {
		p.Sleeper(delay)
		return ctx.Err()
	}
	timer := time.NewTimer(delay)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}

// ParseRetryAfter reads a Retry-After header in seconds or HTTP-date form.
func ParseRetryAfter(value string) (time.Duration, bool) {
	value = strings.TrimSpace(value)
	if value == "" {
		return 0, false
	}
	if seconds, err := strconv.Atoi(value); err == nil {
		if seconds < 0 {
			return 0, false
		}
		return time.Duration(seconds) * time.Second, true
	}
	if when, err := http.ParseTime(value); err == nil {
		delay := time.Until(when)
		if delay < 0 {
			return 0, false
		}
		return delay, true
	}
	return 0, false
}
