// Package retry runs a function until it succeeds, gives up, or runs out of attempts.
package retry

import (
	"context"
	"time"

	"github.com/jonboulle/clockwork"
	"github.com/pkg/errors"
)

// ErrAttemptsExhausted max attempts reached, the last retryable error is wrapped
var ErrAttemptsExhausted = errors.New("retry attempts exhausted")

// Retryable returns retryable error
func Retryable(err error) error {
	if err == nil {
		return nil
	}
	return RetryableError{err: err}
}

// RetryableError represents retryable error
type RetryableError struct {
	err error
}

// Error returns string representation of error
func (e RetryableError) Error() string {
	return e.err.Error()
}

// Unwrap returns next error
func (e RetryableError) Unwrap() error {
	return e.err
}

// Options retry options, zero MaxAttempts means unlimited
type Options struct {
	RetryAfter  time.Duration
	MaxAttempts int
	Clock       clockwork.Clock
	OnRetry     func(attempt int, err error)
}

// Do retries running function until it returns non-retryable error
func Do(ctx context.Context, opts Options, fn func() error) error {
	clock := opts.Clock
	if clock == nil {
		clock = clockwork.NewRealClock()
	}
	var r RetryableError
	for attempt := 1; ; attempt++ {
		var r2 RetryableError
		if err := fn(); !errors.As(err, &r2) {
			return err
		}
		if errors.Is(r2.err, ctx.Err()) {
			if errors.Is(ctx.Err(), context.DeadlineExceeded) && r.err != nil {
				return r.err
			}
			return r2.err
		}
		r = r2

		if opts.MaxAttempts > 0 && attempt >= opts.MaxAttempts {
			return errors.Wrapf(ErrAttemptsExhausted, "after %d attempts: %v", attempt, r.err)
		}
		if opts.OnRetry != nil {
			opts.OnRetry(attempt, r.err)
		}

		select {
		case <-ctx.Done():
			if errors.Is(ctx.Err(), context.DeadlineExceeded) {
				return r.err
			}
			return errors.WithStack(ctx.Err())
		case <-clock.After(opts.RetryAfter):
		}
	}
}
