// Package http provides the HTTP client shared by the bundled backends.
// It handles transport pooling, default headers, request IDs, client-side
// rate limiting, and mapping failures onto the types error taxonomy.
package http

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"golang.org/x/oauth2"
	"golang.org/x/time/rate"

	"github.com/zenocode/zenocode/pkg/types"
)

// DefaultUserAgent is sent when ClientConfig.UserAgent is empty
const DefaultUserAgent = "zenocode/1.0"

// HeaderRequestID carries the generated request identifier
const HeaderRequestID = "X-Request-ID"

const maxErrorBody = 64 << 10

// ClientConfig configures the HTTP client
type ClientConfig struct {
	// Provider labels errors and log lines.
	Provider string
	// BaseURL is prefixed to every request path.
	BaseURL string
	// Timeout bounds non-streaming requests and the wait for response
	// headers on streaming ones.
	Timeout time.Duration
	// RequestsPerMinute enables client-side rate limiting when positive.
	RequestsPerMinute int
	// Headers are set on every request.
	Headers map[string]string
	// UserAgent defaults to DefaultUserAgent.
	UserAgent string
	// TokenSource attaches a bearer credential to every request.
	TokenSource oauth2.TokenSource
	// Transport overrides the pooled default transport.
	Transport http.RoundTripper
	// Logger defaults to a no-op logger.
	Logger *zerolog.Logger

	// Transport pool settings
	MaxIdleConns        int           `json:"max_idle_conns,omitempty"`
	MaxIdleConnsPerHost int           `json:"max_idle_conns_per_host,omitempty"`
	IdleConnTimeout     time.Duration `json:"idle_conn_timeout,omitempty"`
	TLSHandshakeTimeout time.Duration `json:"tls_handshake_timeout,omitempty"`
}

// Client sends JSON requests to one backend
type Client struct {
	client   *http.Client
	config   ClientConfig
	limiter  *rate.Limiter
	logger   zerolog.Logger
	provider string
}

// NewClient creates a client, filling in defaults
func NewClient(config ClientConfig) *Client {
	if config.Timeout == 0 {
		config.Timeout = 60 * time.Second
	}
	if config.MaxIdleConns == 0 {
		config.MaxIdleConns = 100
	}
	if config.MaxIdleConnsPerHost == 0 {
		config.MaxIdleConnsPerHost = 10
	}
	if config.IdleConnTimeout == 0 {
		config.IdleConnTimeout = 90 * time.Second
	}
	if config.TLSHandshakeTimeout == 0 {
		config.TLSHandshakeTimeout = 10 * time.Second
	}
	if config.UserAgent == "" {
		config.UserAgent = DefaultUserAgent
	}

	transport := config.Transport
	if transport == nil {
		transport = createTransport(config)
	}
	if config.TokenSource != nil {
		transport = &oauth2.Transport{Source: config.TokenSource, Base: transport}
	}

	logger := zerolog.Nop()
	if config.Logger != nil {
		logger = *config.Logger
	}

	c := &Client{
		// No client-level timeout: it would cut long streams short. Non-streaming
		// calls get a context deadline instead.
		client:   &http.Client{Transport: transport},
		config:   config,
		logger:   logger.With().Str("provider", config.Provider).Logger(),
		provider: config.Provider,
	}
	if config.RequestsPerMinute > 0 {
		c.limiter = NewLimiter(config.RequestsPerMinute)
	}
	return c
}

// NewLimiter allows requestsPerMinute requests per minute with a burst of the same size
func NewLimiter(requestsPerMinute int) *rate.Limiter {
	return rate.NewLimiter(rate.Every(time.Minute/time.Duration(requestsPerMinute)), requestsPerMinute)
}

// createTransport creates an http.Transport with the specified configuration
func createTransport(config ClientConfig) *http.Transport {
	return &http.Transport{
		Proxy:                 http.ProxyFromEnvironment,
		MaxIdleConns:          config.MaxIdleConns,
		MaxIdleConnsPerHost:   config.MaxIdleConnsPerHost,
		IdleConnTimeout:       config.IdleConnTimeout,
		TLSHandshakeTimeout:   config.TLSHandshakeTimeout,
		ResponseHeaderTimeout: config.Timeout,
		ExpectContinueTimeout: time.Second,
		ForceAttemptHTTP2:     true,
	}
}

// PostJSON posts body to path and decodes a successful response into out.
// The call is bounded by the configured timeout.
func (c *Client) PostJSON(ctx context.Context, path string, body, out any) error {
	ctx, cancel := context.WithTimeout(ctx, c.config.Timeout)
	defer cancel()

	resp, requestID, err := c.do(ctx, http.MethodPost, path, body, "application/json")
	if err != nil {
		return err
	}
	defer func() { _ = resp.Body.Close() }()

	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return types.NewTransportError(c.provider, ctxErr).WithRequestID(requestID)
		}
		return types.NewBackendError(c.provider, "malformed response payload").
			WithStatusCode(resp.StatusCode).
			WithOriginalErr(err).
			WithRequestID(requestID)
	}
	return nil
}

// OpenStream posts body to path and returns the successful response for the
// caller to read incrementally. The caller must close the response body.
func (c *Client) OpenStream(ctx context.Context, path string, body any, accept string) (*http.Response, error) {
	resp, _, err := c.do(ctx, http.MethodPost, path, body, accept)
	return resp, err
}

// do sends one request and returns a 2xx response or a classified error
func (c *Client) do(ctx context.Context, method, path string, body any, accept string) (*http.Response, string, error) {
	requestID := uuid.New().String()

	if c.limiter != nil {
		if err := c.limiter.Wait(ctx); err != nil {
			return nil, requestID, types.NewTransportError(c.provider, err).WithRequestID(requestID)
		}
	}

	req, err := NewJSONRequest(ctx, method, c.config.BaseURL+path, body)
	if err != nil {
		return nil, requestID, types.NewConfigError(c.provider, err.Error())
	}
	req.Header.Set("User-Agent", c.config.UserAgent)
	req.Header.Set(HeaderRequestID, requestID)
	if accept != "" {
		req.Header.Set("Accept", accept)
	}
	for key, value := range c.config.Headers {
		req.Header.Set(key, value)
	}

	start := time.Now()
	resp, err := c.client.Do(req)
	if err != nil {
		c.logger.Debug().Str("request_id", requestID).Err(err).Msg("request failed")
		if ctxErr := ctx.Err(); ctxErr != nil {
			err = ctxErr
		}
		return nil, requestID, c.transportError(err, requestID)
	}

	c.logger.Debug().
		Str("request_id", requestID).
		Str("path", path).
		Int("status", resp.StatusCode).
		Dur("latency", time.Since(start)).
		Msg("response received")

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		defer func() { _ = resp.Body.Close() }()
		raw, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBody))
		return nil, requestID, c.statusError(resp, raw, requestID)
	}
	return resp, requestID, nil
}

func (c *Client) transportError(err error, requestID string) error {
	// A credential the token source refuses to produce is an auth problem.
	var re *oauth2.RetrieveError
	if errors.As(err, &re) {
		return types.NewAuthError(c.provider, "credential rejected").
			WithOriginalErr(err).
			WithRequestID(requestID)
	}
	return types.NewTransportError(c.provider, err).WithRequestID(requestID)
}

func (c *Client) statusError(resp *http.Response, raw []byte, requestID string) error {
	message := ExtractErrorMessage(raw)
	if message == "" {
		message = fmt.Sprintf("HTTP %d %s", resp.StatusCode, http.StatusText(resp.StatusCode))
	}
	return types.NewProviderError(c.provider, types.ClassifyHTTPStatus(resp.StatusCode), message).
		WithStatusCode(resp.StatusCode).
		WithRetryAfter(ParseRetryAfter(resp.Header.Get("Retry-After"))).
		WithRequestID(requestID)
}

// Logger returns the client's provider-scoped logger
func (c *Client) Logger() zerolog.Logger {
	return c.logger
}
