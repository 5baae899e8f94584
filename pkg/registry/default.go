package registry

import (
	"context"

	"github.com/zenocode/zenocode/pkg/types"
)

// defaultRegistry is created empty at package initialisation, filled by
// start-up code, and lives for the rest of the process.
var defaultRegistry = New()

// Default returns the process-wide registry
func Default() *Registry {
	return defaultRegistry
}

// Register adds f to the process-wide registry
func Register(f types.Factory) {
	defaultRegistry.Register(f)
}

// Resolve constructs a provider from the process-wide registry
func Resolve(ctx context.Context, name string, cfg types.Config) (types.Provider, error) {
	return defaultRegistry.Resolve(ctx, name, cfg)
}

// Available lists the names registered in the process-wide registry
func Available() []string {
	return defaultRegistry.Available()
}
