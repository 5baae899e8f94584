// Package echo provides an offline backend that returns the prompt unchanged.
// Its Stream is built on Complete and split into words, which makes it the
// reference for backends without incremental delivery.
package echo

import (
	"context"

	"github.com/zenocode/zenocode/pkg/stream"
	"github.com/zenocode/zenocode/pkg/types"
)

// Name is the registry key for this backend
const Name = "echo"

// Factory builds echo providers. Any configuration is accepted.
type Factory struct{}

var (
	_ types.Factory  = (*Factory)(nil)
	_ types.Provider = (*Provider)(nil)
)

// NewFactory returns the echo factory
func NewFactory() *Factory {
	return &Factory{}
}

// Name returns the registry key
func (f *Factory) Name() string { return Name }

// Create returns a new echo provider
func (f *Factory) Create(_ context.Context, _ types.Config) (types.Provider, error) {
	return &Provider{}, nil
}

// Provider echoes prompts
type Provider struct{}

// Complete returns prompt unchanged
func (p *Provider) Complete(ctx context.Context, prompt string) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", types.NewTransportError(Name, err).WithOperation("complete")
	}
	return prompt, nil
}

// Stream completes prompt and streams the result word by word
func (p *Provider) Stream(ctx context.Context, prompt string) (types.ChunkSource, error) {
	text, err := p.Complete(ctx, prompt)
	if err != nil {
		return nil, types.WithOperation(err, "stream")
	}
	return stream.Words(ctx, text), nil
}
