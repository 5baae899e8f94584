package types

import (
	"context"
)

// ChunkSource yields the text fragments of one streaming completion in the
// order the backend produced them.
//
// Next returns io.EOF once the sequence is exhausted. Any other error is
// terminal: fragments already returned stay valid and every later call
// returns io.EOF. A source is not restartable; request a new stream to retry.
type ChunkSource interface {
	// Next blocks until the next fragment is available or ctx is done.
	Next(ctx context.Context) (string, error)

	// Close stops delivery and releases the underlying connection.
	// It is safe to call more than once.
	Close() error
}

// Provider is the completion contract every backend implements.
// Implementations must be safe for concurrent use.
type Provider interface {
	// Complete sends prompt and returns the whole response.
	Complete(ctx context.Context, prompt string) (string, error)

	// Stream sends prompt and returns a source of incremental fragments.
	// Cancelling ctx stops delivery and releases the connection.
	Stream(ctx context.Context, prompt string) (ChunkSource, error)
}

// Factory constructs a Provider from configuration.
//
// Create validates cfg and wires a ready Provider. It must not perform
// network I/O; a missing or malformed field yields an ErrCodeConfig error.
type Factory interface {
	Name() string
	Create(ctx context.Context, cfg Config) (Provider, error)
}

// FactoryFunc builds a Provider from configuration
type FactoryFunc func(ctx context.Context, cfg Config) (Provider, error)

type funcFactory struct {
	name string
	fn   FactoryFunc
}

// NewFactory adapts fn into a Factory registered under name
func NewFactory(name string, fn FactoryFunc) Factory {
	return &funcFactory{name: name, fn: fn}
}

func (f *funcFactory) Name() string { return f.name }

func (f *funcFactory) Create(ctx context.Context, cfg Config) (Provider, error) {
	return f.fn(ctx, cfg)
}
