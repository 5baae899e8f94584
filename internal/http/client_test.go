package http

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/oauth2"

	"github.com/zenocode/zenocode/pkg/types"
)

type echoPayload struct {
	Value string `json:"value"`
}

func newTestClient(t *testing.T, handler http.HandlerFunc, mutate ...func(*ClientConfig)) *Client {
	t.Helper()
	server := httptest.NewServer(handler)
	t.Cleanup(server.Close)

	cfg := ClientConfig{Provider: "test", BaseURL: server.URL, Timeout: 2 * time.Second}
	for _, m := range mutate {
		m(&cfg)
	}
	return NewClient(cfg)
}

// TestClient_PostJSON tests a successful round trip with default headers
func TestClient_PostJSON(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "/v1/echo", r.URL.Path)
		assert.Equal(t, "application/json", r.Header.Get("Content-Type"))
		assert.Equal(t, DefaultUserAgent, r.Header.Get("User-Agent"))
		assert.Equal(t, "yes", r.Header.Get("X-Custom"))
		assert.Equal(t, "Bearer sk-test", r.Header.Get("Authorization"))

		_, err := uuid.Parse(r.Header.Get(HeaderRequestID))
		assert.NoError(t, err, "request id must be a uuid")

		var in echoPayload
		require.NoError(t, json.NewDecoder(r.Body).Decode(&in))
		_ = json.NewEncoder(w).Encode(echoPayload{Value: in.Value + "!"})
	}, func(c *ClientConfig) {
		c.Headers = map[string]string{"X-Custom": "yes"}
		c.TokenSource = oauth2.StaticTokenSource(&oauth2.Token{AccessToken: "sk-test"})
	})

	var out echoPayload
	require.NoError(t, client.PostJSON(context.Background(), "/v1/echo", echoPayload{Value: "hi"}, &out))
	assert.Equal(t, "hi!", out.Value)
}

func TestClient_StatusClassification(t *testing.T) {
	tests := []struct {
		name       string
		status     int
		body       string
		retryAfter string
		code       types.ErrorCode
		message    string
		retryable  bool
	}{
		{"unauthorized", 401, `{"error":{"message":"Incorrect API key provided","type":"invalid_request_error"}}`, "", types.ErrCodeAuthentication, "Incorrect API key provided", false},
		{"forbidden", 403, `{"error":"forbidden"}`, "", types.ErrCodeAuthentication, "forbidden", false},
		{"rate limited", 429, `{"message":"slow down"}`, "7", types.ErrCodeBackend, "slow down", true},
		{"server error", 500, ``, "", types.ErrCodeBackend, "HTTP 500 Internal Server Error", true},
		{"bad request", 400, `model not found`, "", types.ErrCodeBackend, "model not found", false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
				if tt.retryAfter != "" {
					w.Header().Set("Retry-After", tt.retryAfter)
				}
				w.WriteHeader(tt.status)
				_, _ = w.Write([]byte(tt.body))
			})

			var out echoPayload
			err := client.PostJSON(context.Background(), "/", echoPayload{}, &out)
			require.Error(t, err)

			var pe *types.ProviderError
			require.True(t, errors.As(err, &pe))
			assert.Equal(t, tt.code, pe.Code)
			assert.Equal(t, tt.status, pe.StatusCode)
			assert.Equal(t, tt.message, pe.Message)
			assert.Equal(t, "test", pe.Provider)
			assert.NotEmpty(t, pe.RequestID)
			assert.Equal(t, tt.retryable, pe.IsRetryable())
			if tt.retryAfter != "" {
				assert.Equal(t, 7, pe.RetryAfter)
			}
		})
	}
}

func TestClient_MalformedPayload(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"value":`))
	})

	var out echoPayload
	err := client.PostJSON(context.Background(), "/", nil, &out)
	assert.ErrorIs(t, err, types.ErrBackend)
}

func TestClient_TransportError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	url := server.URL
	server.Close()

	client := NewClient(ClientConfig{Provider: "test", BaseURL: url, Timeout: time.Second})
	var out echoPayload
	err := client.PostJSON(context.Background(), "/", nil, &out)
	assert.ErrorIs(t, err, types.ErrTransport)
	assert.True(t, types.IsRetryable(err))
}

func TestClient_Timeout(t *testing.T) {
	release := make(chan struct{})
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		select {
		case <-release:
		case <-r.Context().Done():
		}
	}, func(c *ClientConfig) { c.Timeout = 50 * time.Millisecond })
	defer close(release)

	var out echoPayload
	err := client.PostJSON(context.Background(), "/", nil, &out)
	assert.ErrorIs(t, err, types.ErrTransport)
}

func TestClient_OpenStream(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "text/event-stream", r.Header.Get("Accept"))
		w.Header().Set("Content-Type", "text/event-stream")
		_, _ = w.Write([]byte("data: hi\n\n"))
	})

	resp, err := client.OpenStream(context.Background(), "/stream", map[string]bool{"stream": true}, "text/event-stream")
	require.NoError(t, err)
	defer func() { _ = resp.Body.Close() }()
	assert.Equal(t, http.StatusOK, resp.StatusCode)
}

func TestClient_RateLimiterHonoursContext(t *testing.T) {
	var hits atomic.Int32
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		hits.Add(1)
		_, _ = w.Write([]byte(`{}`))
	}, func(c *ClientConfig) { c.RequestsPerMinute = 1 })

	var out echoPayload
	require.NoError(t, client.PostJSON(context.Background(), "/", nil, &out))

	// The single token is spent; the next wait would take a minute.
	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()
	err := client.PostJSON(ctx, "/", nil, &out)
	assert.ErrorIs(t, err, types.ErrTransport)
	assert.Equal(t, int32(1), hits.Load())
}
