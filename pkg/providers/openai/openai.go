// Package openai provides the reference HTTP backend for OpenAI-compatible
// chat completion APIs, with incremental delivery over server-sent events.
package openai

import (
	"context"

	"github.com/rs/zerolog"
	"golang.org/x/oauth2"

	zhttp "github.com/zenocode/zenocode/internal/http"
	"github.com/zenocode/zenocode/pkg/types"
)

const (
	// Name is the registry key for this backend
	Name = "openai"
	// DefaultBaseURL is the public OpenAI endpoint
	DefaultBaseURL = "https://api.openai.com/v1"
	// DefaultModel is used when the configuration names none
	DefaultModel = "gpt-4-turbo"

	completionsPath = "/chat/completions"
)

// OpenAI API Request/Response Structures

// OpenAIRequest represents a request to the chat completions API
type OpenAIRequest struct {
	Model    string          `json:"model"`
	Messages []OpenAIMessage `json:"messages"`
	Stream   bool            `json:"stream"`
}

// OpenAIMessage represents a message in the OpenAI API
type OpenAIMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

// OpenAIResponse represents a non-streaming response
type OpenAIResponse struct {
	ID      string         `json:"id"`
	Model   string         `json:"model"`
	Choices []OpenAIChoice `json:"choices"`
}

// OpenAIChoice represents a choice in the OpenAI API response
type OpenAIChoice struct {
	Index        int           `json:"index"`
	Message      OpenAIMessage `json:"message"`
	FinishReason string        `json:"finish_reason"`
}

// OpenAIStreamResponse represents a streaming response chunk
type OpenAIStreamResponse struct {
	ID      string               `json:"id"`
	Choices []OpenAIStreamChoice `json:"choices"`
	Error   *OpenAIError         `json:"error,omitempty"`
}

// OpenAIStreamChoice represents a choice in the streaming response
type OpenAIStreamChoice struct {
	Index        int         `json:"index"`
	Delta        OpenAIDelta `json:"delta"`
	FinishReason string      `json:"finish_reason,omitempty"`
}

// OpenAIDelta represents the delta content in a streaming response
type OpenAIDelta struct {
	Role    string `json:"role,omitempty"`
	Content string `json:"content,omitempty"`
}

// OpenAIError represents an error in the OpenAI response
type OpenAIError struct {
	Message string `json:"message"`
	Type    string `json:"type"`
	Code    string `json:"code"`
}

// Factory builds OpenAI providers
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
	_ types.Provider = (*OpenAIProvider)(nil)
)

// NewFactory returns the OpenAI factory
func NewFactory(opts ...Option) *Factory {
	f := &Factory{}
	for _, opt := range opts {
		opt(f)
	}
	return f
}

// Name returns the registry key
func (f *Factory) Name() string { return Name }

// Create requires a credential and wires a provider without touching the network
func (f *Factory) Create(_ context.Context, cfg types.Config) (types.Provider, error) {
	if !cfg.HasCredential() {
		return nil, types.NewConfigError(Name, "OpenAI API key not configured")
	}
	if cfg.RequestsPerMinute < 0 {
		return nil, types.NewConfigError(Name, "requests_per_minute must not be negative")
	}
	return NewOpenAIProvider(cfg, f.logger), nil
}

// OpenAIProvider implements types.Provider for OpenAI
type OpenAIProvider struct {
	client *zhttp.Client
	model  string
}

// NewOpenAIProvider creates a provider from cfg. The credential is attached
// as a bearer token on every request.
func NewOpenAIProvider(cfg types.Config, logger *zerolog.Logger) *OpenAIProvider {
	client := zhttp.NewClient(zhttp.ClientConfig{
		Provider:          Name,
		BaseURL:           cfg.BaseURLOr(DefaultBaseURL),
		Timeout:           cfg.Timeout,
		RequestsPerMinute: cfg.RequestsPerMinute,
		TokenSource:       oauth2.StaticTokenSource(&oauth2.Token{AccessToken: cfg.APIKey, TokenType: "Bearer"}),
		Logger:            logger,
	})
	return &OpenAIProvider{
		client: client,
		model:  cfg.ModelOr(DefaultModel),
	}
}

// Model returns the model sent with every request
func (p *OpenAIProvider) Model() string {
	return p.model
}

func (p *OpenAIProvider) buildRequest(prompt string, stream bool) OpenAIRequest {
	return OpenAIRequest{
		Model:    p.model,
		Messages: []OpenAIMessage{{Role: "user", Content: prompt}},
		Stream:   stream,
	}
}

// Complete sends prompt and returns the first choice's content
func (p *OpenAIProvider) Complete(ctx context.Context, prompt string) (string, error) {
	var resp OpenAIResponse
	if err := p.client.PostJSON(ctx, completionsPath, p.buildRequest(prompt, false), &resp); err != nil {
		return "", types.WithOperation(err, "complete")
	}
	if len(resp.Choices) == 0 {
		return "", types.NewBackendError(Name, "response contained no choices").WithOperation("complete")
	}
	return resp.Choices[0].Message.Content, nil
}
