package cache

import (
	"context"
	"errors"
	"time"
)

// ErrUnavailable is returned when a remote backend cannot be reached.
var ErrUnavailable = errors.New("cache backend unavailable")

// transientError marks a backend failure that a later attempt may not hit.
type transientError struct{ cause error }

func (e *transientError) Error() string { return e.cause.Error() }
func (e *transientError) Unwrap() error { return e.cause }

// Retryable marks err as transient. Nil stays nil.
func Retryable(err error) error {
	if err == nil {
		return nil
	}
	return &transientError{cause: err}
}

// IsRetryable reports whether err, or anything it wraps, was marked by
// [Retryable].
func IsRetryable(err error) bool {
	var te *transientError
	return errors.As(err, &te)
}

// backoff is the retry schedule of remote backends.
type backoff struct {
	attempts int
	first    time.Duration
}

var redisBackoff = backoff{attempts: 3, first: 200 * time.Millisecond}

// RetryWithBackoff runs fn on the Redis schedule: three attempts with the
// delay doubling from 200ms. Errors not marked [Retryable] end it at once.
func RetryWithBackoff(ctx context.Context, fn func() error) error {
	return redisBackoff.run(ctx, fn)
}

func (b backoff) run(ctx context.Context, fn func() error) error {
	wait := b.first
	var err error
	for attempt := 1; ; attempt++ {
		if err = fn(); err == nil || !IsRetryable(err) || attempt >= b.attempts {
			return err
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
