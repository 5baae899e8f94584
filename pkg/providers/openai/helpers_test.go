package openai

import (
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/zenocode/zenocode/pkg/types"
)

// createTestProvider creates a provider pointed at server
func createTestProvider(t *testing.T, server *httptest.Server) *OpenAIProvider {
	t.Helper()
	return NewOpenAIProvider(types.Config{
		Provider: Name,
		APIKey:   "sk-test-key",
		BaseURL:  server.URL,
	}, nil)
}

// decodeTestRequest decodes the chat request sent to a mock server
func decodeTestRequest(t *testing.T, r *http.Request) OpenAIRequest {
	t.Helper()
	var req OpenAIRequest
	require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
	return req
}

// writeSSEChunks writes one data frame per delta followed by [DONE]
func writeSSEChunks(w http.ResponseWriter, deltas ...string) {
	w.Header().Set("Content-Type", "text/event-stream")
	w.WriteHeader(http.StatusOK)
	for _, d := range deltas {
		chunk := OpenAIStreamResponse{
			ID:      "chatcmpl-test",
			Choices: []OpenAIStreamChoice{{Delta: OpenAIDelta{Content: d}}},
		}
		data, _ := json.Marshal(chunk)
		_, _ = fmt.Fprintf(w, "data: %s\n\n", data)
	}
	_, _ = fmt.Fprint(w, "data: [DONE]\n\n")
}
