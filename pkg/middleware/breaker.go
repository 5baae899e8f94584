package middleware

import (
	"context"
	"errors"
	"time"

	"github.com/rs/zerolog"
	"github.com/sony/gobreaker/v2"

	"github.com/zenocode/zenocode/pkg/types"
)

// Default circuit breaker settings.
const (
	defaultBreakerMaxFailures uint32        = 5
	defaultBreakerTimeout     time.Duration = 30 * time.Second
	defaultBreakerInterval    time.Duration = 60 * time.Second
)

// BreakerConfig configures the circuit breaker
type BreakerConfig struct {
	// MaxFailures is the number of consecutive failures before the circuit opens.
	MaxFailures uint32 `yaml:"max_failures"`
	// Timeout is how long the circuit stays open before a half-open trial request.
	Timeout time.Duration `yaml:"timeout"`
	// Interval clears failure counts while closed. Zero uses the default.
	Interval time.Duration `yaml:"interval"`
}

// BreakerProvider fails fast once the wrapped provider keeps failing
type BreakerProvider struct {
	inner   types.Provider
	name    string
	breaker *gobreaker.CircuitBreaker[any]
}

var _ types.Provider = (*BreakerProvider)(nil)

// WithCircuitBreaker guards Complete and stream setup with a circuit breaker
// named name. Only retryable failures count against the circuit; caller
// cancellation and configuration or credential errors do not.
func WithCircuitBreaker(p types.Provider, name string, cfg BreakerConfig, logger zerolog.Logger) *BreakerProvider {
	maxFailures := cfg.MaxFailures
	if maxFailures == 0 {
		maxFailures = defaultBreakerMaxFailures
	}
	timeout := cfg.Timeout
	if timeout == 0 {
		timeout = defaultBreakerTimeout
	}
	interval := cfg.Interval
	if interval == 0 {
		interval = defaultBreakerInterval
	}

	cb := gobreaker.NewCircuitBreaker[any](gobreaker.Settings{
		Name:        "provider:" + name,
		MaxRequests: 1,
		Interval:    interval,
		Timeout:     timeout,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures >= maxFailures
		},
		OnStateChange: func(breaker string, from, to gobreaker.State) {
			logger.Warn().
				Str("breaker", breaker).
				Str("from", from.String()).
				Str("to", to.String()).
				Msg("circuit breaker state change")
		},
		IsSuccessful: countsAsSuccess,
	})

	return &BreakerProvider{inner: p, name: name, breaker: cb}
}

// CircuitBreaker is WithCircuitBreaker as a Decorator
func CircuitBreaker(name string, cfg BreakerConfig, logger zerolog.Logger) Decorator {
	return func(p types.Provider) types.Provider {
		return WithCircuitBreaker(p, name, cfg, logger)
	}
}

func countsAsSuccess(err error) bool {
	if err == nil {
		return true
	}
	if errors.Is(err, context.Canceled) {
		return true
	}
	return !types.IsRetryable(err)
}

// Complete routes the call through the breaker
func (b *BreakerProvider) Complete(ctx context.Context, prompt string) (string, error) {
	out, err := b.breaker.Execute(func() (any, error) {
		return b.inner.Complete(ctx, prompt)
	})
	if err != nil {
		return "", b.wrap(err, "complete")
	}
	return out.(string), nil
}

// Stream routes stream setup through the breaker. Errors after the source is
// returned do not affect the circuit.
func (b *BreakerProvider) Stream(ctx context.Context, prompt string) (types.ChunkSource, error) {
	var src types.ChunkSource
	_, err := b.breaker.Execute(func() (any, error) {
		var streamErr error
		src, streamErr = b.inner.Stream(ctx, prompt)
		return nil, streamErr
	})
	if err != nil {
		return nil, b.wrap(err, "stream")
	}
	return src, nil
}

// State returns the current circuit state
func (b *BreakerProvider) State() gobreaker.State {
	return b.breaker.State()
}

// Counts returns the current failure/success counts
func (b *BreakerProvider) Counts() gobreaker.Counts {
	return b.breaker.Counts()
}

func (b *BreakerProvider) wrap(err error, op string) error {
	if errors.Is(err, gobreaker.ErrOpenState) || errors.Is(err, gobreaker.ErrTooManyRequests) {
		return &types.ProviderError{
			Code:        types.ErrCodeTransport,
			Message:     "circuit open",
			Provider:    b.name,
			Operation:   op,
			OriginalErr: err,
		}
	}
	return err
}
