// Package ollama provides the reference backend for a local or hosted Ollama
// server, streaming newline-delimited JSON from /api/chat.
package ollama

import (
	"context"

	"github.com/rs/zerolog"
	"golang.org/x/oauth2"

	zhttp "github.com/zenocode/zenocode/internal/http"
	"github.com/zenocode/zenocode/pkg/types"
)

const (
	// Name is the registry key for this backend
	Name = "ollama"
	// DefaultBaseURL is a local Ollama daemon
	DefaultBaseURL = "http://localhost:11434"
	// DefaultModel is used when the configuration names none
	DefaultModel = "llama3.1:8b"

	chatPath = "/api/chat"
)

// ollamaChatRequest represents a request to the Ollama chat API
type ollamaChatRequest struct {
	Model    string              `json:"model"`
	Messages []ollamaChatMessage `json:"messages"`
	Stream   bool                `json:"stream"`
}

// ollamaChatMessage represents a message in the Ollama chat API
type ollamaChatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

// ollamaChatResponse represents one frame of a chat response
type ollamaChatResponse struct {
	Model     string            `json:"model"`
	CreatedAt string            `json:"created_at"`
	Message   ollamaChatMessage `json:"message"`
	Done      bool              `json:"done"`
	Error     string            `json:"error,omitempty"`

	// Usage information (only in final chunk when done=true)
	PromptEvalCount int `json:"prompt_eval_count,omitempty"`
	EvalCount       int `json:"eval_count,omitempty"`
}

// Factory builds Ollama providers
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
	_ types.Provider = (*OllamaProvider)(nil)
)

// NewFactory returns the Ollama factory
func NewFactory(opts ...Option) *Factory {
	f := &Factory{}
	for _, opt := range opts {
		opt(f)
	}
	return f
}

// Name returns the registry key
func (f *Factory) Name() string { return Name }

// Create never requires a credential. A configured key is sent as a bearer
// token for hosted endpoints.
func (f *Factory) Create(_ context.Context, cfg types.Config) (types.Provider, error) {
	return NewOllamaProvider(cfg, f.logger), nil
}

// OllamaProvider implements types.Provider for Ollama
type OllamaProvider struct {
	client *zhttp.Client
	model  string
}

// NewOllamaProvider creates a provider from cfg
func NewOllamaProvider(cfg types.Config, logger *zerolog.Logger) *OllamaProvider {
	clientConfig := zhttp.ClientConfig{
		Provider:          Name,
		BaseURL:           cfg.BaseURLOr(DefaultBaseURL),
		Timeout:           cfg.Timeout,
		RequestsPerMinute: cfg.RequestsPerMinute,
		Logger:            logger,
	}
	if cfg.HasCredential() {
		clientConfig.TokenSource = oauth2.StaticTokenSource(&oauth2.Token{AccessToken: cfg.APIKey, TokenType: "Bearer"})
	}
	return &OllamaProvider{
		client: zhttp.NewClient(clientConfig),
		model:  cfg.ModelOr(DefaultModel),
	}
}

// Model returns the model sent with every request
func (p *OllamaProvider) Model() string {
	return p.model
}

func (p *OllamaProvider) buildOllamaChatRequest(prompt string, stream bool) ollamaChatRequest {
	return ollamaChatRequest{
		Model:    p.model,
		Messages: []ollamaChatMessage{{Role: "user", Content: prompt}},
		Stream:   stream,
	}
}

// Complete sends prompt with streaming disabled and returns the reply
func (p *OllamaProvider) Complete(ctx context.Context, prompt string) (string, error) {
	var resp ollamaChatResponse
	if err := p.client.PostJSON(ctx, chatPath, p.buildOllamaChatRequest(prompt, false), &resp); err != nil {
		return "", types.WithOperation(err, "complete")
	}
	if resp.Error != "" {
		return "", types.NewBackendError(Name, resp.Error).WithOperation("complete")
	}
	return resp.Message.Content, nil
}
