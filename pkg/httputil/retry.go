package httputil

import (
	"context"
	"errors"
	"net/http"
	"time"
)

// RetryableError marks a failure as transient.
type RetryableError struct{ Err error }

func (e *RetryableError) Error() string { return e.Err.Error() }
func (e *RetryableError) Unwrap() error { return e.Err }

// Retryable wraps err so [Backoff.Do] retries it. A nil err stays nil.
func Retryable(err error) error {
	if err == nil {
		return nil
	}
	return &RetryableError{Err: err}
}

// IsRetryable reports whether err or anything it wraps is a [RetryableError].
func IsRetryable(err error) bool {
	return errors.As(err, new(*RetryableError))
}

// RetryableStatus reports whether an HTTP status is worth another attempt:
// any 5xx, 408 and 429.
func RetryableStatus(code int) bool {
	return code >= 500 || code == http.StatusRequestTimeout || code == http.StatusTooManyRequests
}

// Backoff is an exponential retry policy.
type Backoff struct {
	Attempts int           // total attempts, at least 1
	Delay    time.Duration // wait before the second attempt
	MaxDelay time.Duration // cap on a single wait; 0 means no cap

	// OnRetry, if set, is called before each wait.
	OnRetry func(attempt int, err error, wait time.Duration)
}

// Do runs fn until it succeeds, returns a non-retryable error, or the
// attempts run out. The wait doubles after every failure. Cancelling ctx
// during a wait returns ctx.Err().
func (b Backoff) Do(ctx context.Context, fn func(ctx context.Context) error) error {
	attempts := max(b.Attempts, 1)
	wait := b.Delay

	var err error
	for i := 1; ; i++ {
		if err = fn(ctx); err == nil || !IsRetryable(err) || i == attempts {
			return err
		}
		if b.MaxDelay > 0 {
			wait = min(wait, b.MaxDelay)
		}
		if b.OnRetry != nil {
			b.OnRetry(i, err, wait)
		}

		t := time.NewTimer(wait)
		select {
		case <-ctx.Done():
			t.Stop()
			return ctx.Err()
		case <-t.C:
		}
		wait *= 2
	}
}

// Retry runs fn under a [Backoff] of attempts starting at delay.
func Retry(ctx context.Context, attempts int, delay time.Duration, fn func() error) error {
	return Backoff{Attempts: attempts, Delay: delay}.Do(ctx, func(context.Context) error { return fn() })
}
