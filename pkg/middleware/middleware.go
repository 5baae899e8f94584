// Package middleware decorates a types.Provider with cross-cutting behaviour:
// retries, a circuit breaker, and call logging. Decorators only wrap calls
// that have not yet delivered a chunk, so a stream in progress is never
// replayed.
package middleware

import (
	"github.com/zenocode/zenocode/pkg/types"
)

// Decorator wraps a provider
type Decorator func(types.Provider) types.Provider

// Chain applies decorators to p. The first decorator ends up outermost, so
// Chain(p, Logging(..), Retry(..)) logs once per call and retries inside.
func Chain(p types.Provider, decorators ...Decorator) types.Provider {
	for i := len(decorators) - 1; i >= 0; i-- {
		if decorators[i] != nil {
			p = decorators[i](p)
		}
	}
	return p
}
