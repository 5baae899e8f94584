package registry

import (
	"context"
	"fmt"
	"sort"
	"sync"

	"github.com/rs/zerolog"

	"github.com/zenocode/zenocode/pkg/types"
)

// Registry is a name -> Factory mapping
type Registry struct {
	factories map[string]types.Factory
	mutex     sync.RWMutex
	logger    zerolog.Logger
}

// Option configures a Registry
type Option func(*Registry)

// WithLogger sets the logger used for registration and resolution events
func WithLogger(logger zerolog.Logger) Option {
	return func(r *Registry) {
		r.logger = logger
	}
}

// New creates an empty registry
func New(opts ...Option) *Registry {
	r := &Registry{
		factories: make(map[string]types.Factory),
		logger:    zerolog.Nop(),
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Register adds f under f.Name(), replacing any factory already registered
// under that name. It panics if f is nil or has an empty name.
func (r *Registry) Register(f types.Factory) {
	if f == nil {
		panic("registry: Register factory is nil")
	}
	name := f.Name()
	if name == "" {
		panic("registry: Register factory has an empty name")
	}

	r.mutex.Lock()
	_, replaced := r.factories[name]
	r.factories[name] = f
	r.mutex.Unlock()

	r.logger.Debug().Str("provider", name).Bool("replaced", replaced).Msg("registered provider factory")
}

// Unregister removes the factory registered under name
func (r *Registry) Unregister(name string) bool {
	r.mutex.Lock()
	defer r.mutex.Unlock()

	_, exists := r.factories[name]
	delete(r.factories, name)
	return exists
}

// Resolve constructs the provider registered under name.
//
// An unknown name yields an ErrCodeProviderNotFound error listing the
// available names. Errors from Factory.Create are returned unchanged.
func (r *Registry) Resolve(ctx context.Context, name string, cfg types.Config) (types.Provider, error) {
	r.mutex.RLock()
	f, exists := r.factories[name]
	var available []string
	if !exists {
		available = r.namesLocked()
	}
	r.mutex.RUnlock()

	if !exists {
		r.logger.Debug().Str("provider", name).Strs("available", available).Msg("provider not registered")
		return nil, types.NewNotFoundError(name, available)
	}

	provider, err := f.Create(ctx, cfg)
	if err != nil {
		r.logger.Debug().Str("provider", name).Err(err).Msg("provider construction failed")
		return nil, err
	}
	if provider == nil {
		return nil, types.NewBackendError(name, fmt.Sprintf("factory %q returned no provider", name)).
			WithOperation("resolve")
	}

	r.logger.Debug().Str("provider", name).Str("model", cfg.Model).Msg("resolved provider")
	return provider, nil
}

// ResolveConfig validates cfg and resolves cfg.Provider
func (r *Registry) ResolveConfig(ctx context.Context, cfg types.Config) (types.Provider, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return r.Resolve(ctx, cfg.Provider, cfg)
}

// Available returns a snapshot of the registered names, sorted
func (r *Registry) Available() []string {
	r.mutex.RLock()
	defer r.mutex.RUnlock()
	return r.namesLocked()
}

// Len returns the number of registered factories
func (r *Registry) Len() int {
	r.mutex.RLock()
	defer r.mutex.RUnlock()
	return len(r.factories)
}

func (r *Registry) namesLocked() []string {
	names := make([]string, 0, len(r.factories))
	for name := range r.factories {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
