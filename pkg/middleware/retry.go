package middleware

import (
	"context"

	"github.com/zenocode/zenocode/pkg/retry"
	"github.com/zenocode/zenocode/pkg/types"
)

type retryProvider struct {
	inner  types.Provider
	policy retry.Policy
}

var _ types.Provider = (*retryProvider)(nil)

// WithRetry retries Complete and the opening of a stream according to policy.
// Once Stream has returned a source, failures are reported through it and
// never retried.
func WithRetry(p types.Provider, policy retry.Policy) types.Provider {
	return &retryProvider{inner: p, policy: policy}
}

// Retry is WithRetry as a Decorator
func Retry(policy retry.Policy) Decorator {
	return func(p types.Provider) types.Provider {
		return WithRetry(p, policy)
	}
}

func (r *retryProvider) Complete(ctx context.Context, prompt string) (string, error) {
	return retry.DoValue(ctx, r.policy, func(ctx context.Context) (string, error) {
		return r.inner.Complete(ctx, prompt)
	})
}

func (r *retryProvider) Stream(ctx context.Context, prompt string) (types.ChunkSource, error) {
	return retry.DoValue(ctx, r.policy, func(ctx context.Context) (types.ChunkSource, error) {
		return r.inner.Stream(ctx, prompt)
	})
}
