// Package anthropic provides the reference HTTP backend for Anthropic Claude,
// streaming text deltas from the Messages API.
package anthropic

import (
	"context"
	"strings"

	"github.com/rs/zerolog"

	zhttp "github.com/zenocode/zenocode/internal/http"
	"github.com/zenocode/zenocode/pkg/types"
)

const (
	// Name is the registry key for this backend
	Name = "anthropic"
	// DefaultBaseURL is the public Anthropic endpoint
	DefaultBaseURL = "https://api.anthropic.com"
	// DefaultModel is used when the configuration names none
	DefaultModel = "claude-3-5-sonnet-latest"
	// DefaultMaxTokens caps every response
	DefaultMaxTokens = 4096
	// APIVersion is sent in the anthropic-version header
	APIVersion = "2023-06-01"

	messagesPath = "/v1/messages"
)

// Factory builds Anthropic providers
type Factory struct {
	logger *zerolog.Logger
}

// Option configures a Factory
type Option func(*Factory)

// WithLogger sets the logger handed to every provider the factory builds
func WithLogger(logger zerolog.Logger) Option {
	return func(f *Factory) {
		f.logger = &logger
	}
}

var (
	_ types.Factory  = (*Factory)(nil)
	_ types.Provider = (*AnthropicProvider)(nil)
)

// NewFactory returns the Anthropic factory
func NewFactory(opts ...Option) *Factory {
	f := &Factory{}
	for _, opt := range opts {
		opt(f)
	}
	return f
}

// Name returns the registry key
func (f *Factory) Name() string { return Name }

// Create requires a credential
func (f *Factory) Create(_ context.Context, cfg types.Config) (types.Provider, error) {
	if !cfg.HasCredential() {
		return nil, types.NewConfigError(Name, "Anthropic API key not configured")
	}
	return NewAnthropicProvider(cfg, f.logger), nil
}

// AnthropicProvider implements types.Provider for Anthropic Claude
type AnthropicProvider struct {
	client    *zhttp.Client
	model     string
	maxTokens int
}

// NewAnthropicProvider creates a provider from cfg
func NewAnthropicProvider(cfg types.Config, logger *zerolog.Logger) *AnthropicProvider {
	client := zhttp.NewClient(zhttp.ClientConfig{
		Provider:          Name,
		BaseURL:           cfg.BaseURLOr(DefaultBaseURL),
		Timeout:           cfg.Timeout,
		RequestsPerMinute: cfg.RequestsPerMinute,
		Headers: map[string]string{
			"x-api-key":         cfg.APIKey,
			"anthropic-version": APIVersion,
		},
		Logger: logger,
	})
	return &AnthropicProvider{
		client:    client,
		model:     cfg.ModelOr(DefaultModel),
		maxTokens: DefaultMaxTokens,
	}
}

// Model returns the model sent with every request
func (p *AnthropicProvider) Model() string {
	return p.model
}

func (p *AnthropicProvider) prepareRequest(prompt string, stream bool) AnthropicRequest {
	return AnthropicRequest{
		Model:     p.model,
		MaxTokens: p.maxTokens,
		Messages:  []AnthropicMessage{{Role: "user", Content: prompt}},
		Stream:    stream,
	}
}

// Complete sends prompt and returns the concatenated text blocks
func (p *AnthropicProvider) Complete(ctx context.Context, prompt string) (string, error) {
	var resp AnthropicResponse
	if err := p.client.PostJSON(ctx, messagesPath, p.prepareRequest(prompt, false), &resp); err != nil {
		return "", types.WithOperation(err, "complete")
	}
	if len(resp.Content) == 0 {
		return "", types.NewBackendError(Name, "response contained no content").WithOperation("complete")
	}

	var b strings.Builder
	for _, block := range resp.Content {
		if block.Type == "text" {
			b.WriteString(block.Text)
		}
	}
	return b.String(), nil
}
