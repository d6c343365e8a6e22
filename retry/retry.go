package retry

import (
	"context"
	"errors"
	"time"

	"github.com/cenkalti/backoff/v5"
)

const (
	defaultInitialInterval = 500 * time.Millisecond
	defaultMultiplier      = 2.0
	defaultMaxInterval     = 5 * time.Second
	defaultRandomization   = 0.5
	defaultMaxElapsed      = 20 * time.Second
)

// Policy bounds an exponential backoff loop.
type Policy struct {
	InitialInterval time.Duration
	MaxInterval     time.Duration
	MaxElapsed      time.Duration
}

// StartupPolicy is used for the opt-in startup database probe.
func StartupPolicy() Policy {
	return Policy{
		InitialInterval: defaultInitialInterval,
		MaxInterval:     defaultMaxInterval,
		MaxElapsed:      defaultMaxElapsed,
	}
}

// PermanentError wraps a non-retryable error.
type PermanentError struct {
	err error
}

func (e PermanentError) Error() string {
	if e.err == nil {
		return "permanent error"
	}
	return e.err.Error()
}

func (e PermanentError) Unwrap() error { return e.err }

// Permanent marks an error as non-retryable.
func Permanent(err error) error {
	if err == nil {
		return nil
	}
	if IsPermanent(err) {
		return err
	}
	return PermanentError{err: err}
}

// IsPermanent reports whether err is marked as non-retryable.
func IsPermanent(err error) bool {
	var pe PermanentError
	if errors.As(err, &pe) {
		return true
	}

	var bpe *backoff.PermanentError
	return errors.As(err, &bpe)
}

// Do retries fn with exponential backoff.
// It stops on context cancellation, permanent errors, or p.MaxElapsed.
// onRetry, when set, is called before each wait with the failure and the delay.
func Do(ctx context.Context, p Policy, fn func() error, onRetry func(err error, next time.Duration)) error {
	exp := backoff.NewExponentialBackOff()
	exp.InitialInterval = orDefault(p.InitialInterval, defaultInitialInterval)
	exp.Multiplier = defaultMultiplier
	exp.MaxInterval = orDefault(p.MaxInterval, defaultMaxInterval)
	exp.RandomizationFactor = defaultRandomization
	exp.Reset()

	type unit struct{}
	op := func() (unit, error) {
		if err := ctx.Err(); err != nil {
			return unit{}, backoff.Permanent(err)
		}

		err := fn()
		if IsPermanent(err) {
			var bpe *backoff.PermanentError
			if errors.As(err, &bpe) {
				return unit{}, err
			}
			return unit{}, backoff.Permanent(err)
		}
		return unit{}, err
	}

	opts := []backoff.RetryOption{
		backoff.WithBackOff(exp),
		backoff.WithMaxElapsedTime(orDefault(p.MaxElapsed, defaultMaxElapsed)),
	}
	if onRetry != nil {
		opts = append(opts, backoff.WithNotify(onRetry))
	}

	_, err := backoff.Retry(ctx, op, opts...)
	return err
}

func orDefault(d, def time.Duration) time.Duration {
	if d <= 0 {
		return def
	}
	return d
}
