// Package retry wraps operations against flaky upstreams with exponential
// backoff. It is stateless: every call re-evaluates from zero, there is no
// circuit breaker and no shared budget between invocations.
package retry

import (
	"context"
	"errors"
	"log/slog"
	"net"
	"net/http"
	"time"

	"github.com/cenkalti/backoff/v4"
)

// Default backoff parameters.
const (
	DefaultMaxRetries = 3
	DefaultBaseDelay  = 1 * time.Second
	DefaultMaxDelay   = 10 * time.Second
	DefaultMultiplier = 2.0

	// jitterFactor randomizes each delay by up to 10%.
	jitterFactor = 0.1
)

// StatusCoder is implemented by errors that carry an upstream HTTP status.
type StatusCoder interface {
	StatusCode() int
}

// Options configure a retried operation. The zero value uses the defaults.
type Options struct {
	// MaxRetries is the number of retries after the initial attempt.
	MaxRetries int
	// BaseDelay is the delay before the first retry.
	BaseDelay time.Duration
	// MaxDelay caps the computed delay between attempts.
	MaxDelay time.Duration
	// Multiplier grows the delay between consecutive retries.
	Multiplier float64
	// RetryIf decides whether an error is worth retrying. When it returns
	// false the error is returned immediately without consuming the retry
	// budget. Defaults to IsRetryable.
	RetryIf func(error) bool
	// Logger receives a warning per retry attempt. Defaults to slog.Default.
	Logger *slog.Logger
}

func (o Options) withDefaults() Options {
	if o.MaxRetries == 0 {
		o.MaxRetries = DefaultMaxRetries
	}
	if o.BaseDelay == 0 {
		o.BaseDelay = DefaultBaseDelay
	}
	if o.MaxDelay == 0 {
		o.MaxDelay = DefaultMaxDelay
	}
	if o.Multiplier == 0 {
		o.Multiplier = DefaultMultiplier
	}
	if o.RetryIf == nil {
		o.RetryIf = IsRetryable
	}
	if o.Logger == nil {
		o.Logger = slog.Default()
	}
	return o
}

// RateLimitOptions returns options tuned for rate-limited upstreams: fewer
// attempts with a longer initial delay, so a 429 is given time to clear.
func RateLimitOptions() Options {
	return Options{
		MaxRetries: 2,
		BaseDelay:  5 * time.Second,
		MaxDelay:   30 * time.Second,
		Multiplier: 2,
	}
}

// IsRetryable is the default retry predicate: network-layer errors, upstream
// 5xx responses, and 429 rate limits are retryable; everything else is not.
func IsRetryable(err error) bool {
	if err == nil {
		return false
	}

	var sc StatusCoder
	if errors.As(err, &sc) {
		status := sc.StatusCode()
		return status >= 500 || status == http.StatusTooManyRequests
	}

	var netErr net.Error
	if errors.As(err, &netErr) {
		return true
	}

	return false
}

// Do runs op with exponential backoff according to opts. The name labels the
// operation in retry logs. The last error is returned after the budget is
// exhausted; context cancellation aborts the wait between attempts.
func Do(ctx context.Context, name string, opts Options, op func(ctx context.Context) error) error {
	opts = opts.withDefaults()

	b := backoff.NewExponentialBackOff()
	b.InitialInterval = opts.BaseDelay
	b.MaxInterval = opts.MaxDelay
	b.Multiplier = opts.Multiplier
	b.RandomizationFactor = jitterFactor
	b.MaxElapsedTime = 0

	policy := backoff.WithContext(backoff.WithMaxRetries(b, uint64(opts.MaxRetries)), ctx)

	attempt := 0
	return backoff.RetryNotify(
		func() error {
			attempt++
			err := op(ctx)
			if err == nil {
				return nil
			}
			if !opts.RetryIf(err) {
				return backoff.Permanent(err)
			}
			return err
		},
		policy,
		func(err error, next time.Duration) {
			opts.Logger.WarnContext(ctx, "retrying operation",
				slog.String("operation", name),
				slog.Int("attempt", attempt),
				slog.Duration("next_delay", next),
				slog.String("error", err.Error()),
			)
		},
	)
}

// DoValue is Do for operations that produce a value.
func DoValue[T any](ctx context.Context, name string, opts Options, op func(ctx context.Context) (T, error)) (T, error) {
	var result T
	err := Do(ctx, name, opts, func(ctx context.Context) error {
		var opErr error
		result, opErr = op(ctx)
		return opErr
	})
	if err != nil {
		var zero T
		return zero, err
	}
	return result, nil
}
