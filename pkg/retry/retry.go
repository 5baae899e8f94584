// Package retry runs an operation again when it fails with a retryable
// provider error, waiting with exponential backoff between attempts.
//
// Nothing in the registry or the backends retries on its own. Callers opt in
// by calling Do directly or by wrapping a provider with middleware.WithRetry.
package retry

import (
	"context"
	"errors"
	"time"

	"github.com/cenkalti/backoff/v4"

	"github.com/zenocode/zenocode/pkg/types"
)

const (
	// DefaultMaxRetries is the number of retries after the first attempt
	DefaultMaxRetries = 3
	// DefaultInitialInterval is the wait before the first retry
	DefaultInitialInterval = time.Second
	// DefaultMaxInterval caps the computed wait
	DefaultMaxInterval = 30 * time.Second
	// DefaultMultiplier grows the wait between retries
	DefaultMultiplier = 2.0
	// DefaultJitter randomizes each wait by up to this fraction
	DefaultJitter = 0.5
)

// NotifyFunc is called before each wait with the failed attempt number
// (starting at 1), its error, and the delay that follows.
type NotifyFunc func(attempt int, err error, delay time.Duration)

// Policy controls how often and how long Do waits between attempts
type Policy struct {
	MaxRetries      int
	InitialInterval time.Duration
	MaxInterval     time.Duration
	Multiplier      float64
	Jitter          float64

	// Notify, when set, observes every retry.
	Notify NotifyFunc
}

// DefaultPolicy returns three retries starting at one second
func DefaultPolicy() Policy {
	return Policy{
		MaxRetries:      DefaultMaxRetries,
		InitialInterval: DefaultInitialInterval,
		MaxInterval:     DefaultMaxInterval,
		Multiplier:      DefaultMultiplier,
		Jitter:          DefaultJitter,
	}
}

// NoRetry returns a policy that runs the operation exactly once
func NoRetry() Policy {
	p := DefaultPolicy()
	p.MaxRetries = 0
	return p
}

// backOff builds the cenkalti schedule for p, bounded by MaxRetries and ctx
func (p Policy) backOff(ctx context.Context) backoff.BackOff {
	b := backoff.NewExponentialBackOff()
	if p.InitialInterval > 0 {
		b.InitialInterval = p.InitialInterval
	}
	if p.MaxInterval > 0 {
		b.MaxInterval = p.MaxInterval
	}
	if p.Multiplier >= 1 {
		b.Multiplier = p.Multiplier
	}
	if p.Jitter >= 0 && p.Jitter <= 1 {
		b.RandomizationFactor = p.Jitter
	}
	// MaxRetries is the only bound on the number of attempts.
	b.MaxElapsedTime = 0
	b.Reset()

	retries := p.MaxRetries
	if retries < 0 {
		retries = 0
	}
	return backoff.WithContext(backoff.WithMaxRetries(b, uint64(retries)), ctx)
}

// Do runs op until it succeeds, fails with an error that is not retryable,
// the policy is exhausted, or ctx is done. The last error is returned; if
// ctx ended the wait, its error is joined to it.
func Do(ctx context.Context, policy Policy, op func(ctx context.Context) error) error {
	b := policy.backOff(ctx)
	for attempt := 1; ; attempt++ {
		err := op(ctx)
		if err == nil {
			return nil
		}
		if !types.IsRetryable(err) {
			return err
		}
		if ctxErr := ctx.Err(); ctxErr != nil {
			return errors.Join(err, ctxErr)
		}

		next := b.NextBackOff()
		if next == backoff.Stop {
			return err
		}
		next = delayFor(err, next)

		if policy.Notify != nil {
			policy.Notify(attempt, err, next)
		}

		timer := time.NewTimer(next)
		select {
		case <-ctx.Done():
			timer.Stop()
			return errors.Join(err, ctx.Err())
		case <-timer.C:
		}
	}
}

// DoValue is Do for operations that produce a value
func DoValue[T any](ctx context.Context, policy Policy, op func(ctx context.Context) (T, error)) (T, error) {
	var result T
	err := Do(ctx, policy, func(ctx context.Context) error {
		v, err := op(ctx)
		if err != nil {
			return err
		}
		result = v
		return nil
	})
	return result, err
}

// delayFor prefers a backend's Retry-After hint over the computed delay
func delayFor(err error, computed time.Duration) time.Duration {
	var pe *types.ProviderError
	if errors.As(err, &pe) && pe.RetryAfter > 0 {
		return time.Duration(pe.RetryAfter) * time.Second
	}
	return computed
}
