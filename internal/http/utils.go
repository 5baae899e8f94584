package http

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"strings"
)

// NewJSONRequest creates a JSON HTTP request with proper headers
func NewJSONRequest(ctx context.Context, method, url string, body interface{}) (*http.Request, error) {
	var bodyReader io.Reader

	if body != nil {
		jsonBody, err := json.Marshal(body)
		if err != nil {
			return nil, fmt.Errorf("failed to marshal request body: %w", err)
		}
		bodyReader = bytes.NewReader(jsonBody)
	}

	req, err := http.NewRequestWithContext(ctx, method, url, bodyReader)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}

	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	return req, nil
}

// ExtractErrorMessage pulls a human-readable message out of an error body.
// It understands {"error":{"message":...}}, {"error":"..."} and
// {"message":"..."}, and falls back to the trimmed body when it is short.
func ExtractErrorMessage(body []byte) string {
	body = bytes.TrimSpace(body)
	if len(body) == 0 {
		return ""
	}

	var envelope struct {
		Error   json.RawMessage `json:"error"`
		Message string          `json:"message"`
	}
	if err := json.Unmarshal(body, &envelope); err == nil {
		if len(envelope.Error) > 0 {
			var s string
			if json.Unmarshal(envelope.Error, &s) == nil && s != "" {
				return s
			}
			var obj struct {
				Message string `json:"message"`
				Type    string `json:"type"`
			}
			if json.Unmarshal(envelope.Error, &obj) == nil && obj.Message != "" {
				return obj.Message
			}
		}
		if envelope.Message != "" {
			return envelope.Message
		}
		return ""
	}

	text := string(body)
	if len(text) > 200 || strings.ContainsAny(text, "<>") {
		return ""
	}
	return text
}

// ParseRetryAfter reads a Retry-After header given in seconds.
// HTTP-date values and garbage yield 0.
func ParseRetryAfter(value string) int {
	seconds, err := strconv.Atoi(strings.TrimSpace(value))
	if err != nil || seconds < 0 {
		return 0
	}
	return seconds
}
