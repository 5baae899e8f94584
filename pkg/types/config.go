package types

import (
	"strings"
	"time"
)

// Config is the resolved configuration handed to a Factory.
//
// It is a value type: callers pass copies and nothing in this module mutates
// a Config after it has been loaded.
type Config struct {
	// Provider is the registry name of the backend to use.
	Provider string `json:"provider" yaml:"provider"`

	// APIKey is the pre-resolved credential. Empty means absent.
	APIKey string `json:"api_key,omitempty" yaml:"api_key,omitempty"`

	// Model identifies the backend model. Empty selects the backend default.
	Model string `json:"model,omitempty" yaml:"model,omitempty"`

	// BaseURL overrides the backend endpoint (proxies, local gateways, tests).
	BaseURL string `json:"base_url,omitempty" yaml:"base_url,omitempty"`

	// Timeout bounds a single non-streaming request. Zero uses the backend default.
	Timeout time.Duration `json:"timeout,omitempty" yaml:"timeout,omitempty"`

	// RequestsPerMinute enables client-side rate limiting when positive.
	RequestsPerMinute int `json:"requests_per_minute,omitempty" yaml:"requests_per_minute,omitempty"`
}

// HasCredential reports whether a non-blank credential is present
func (c Config) HasCredential() bool {
	return strings.TrimSpace(c.APIKey) != ""
}

// ModelOr returns the configured model, or def when none is set
func (c Config) ModelOr(def string) string {
	if m := strings.TrimSpace(c.Model); m != "" {
		return m
	}
	return def
}

// BaseURLOr returns the configured base URL without a trailing slash, or def
func (c Config) BaseURLOr(def string) string {
	if u := strings.TrimSpace(c.BaseURL); u != "" {
		return strings.TrimRight(u, "/")
	}
	return def
}

// TimeoutOr returns the configured timeout, or def when unset
func (c Config) TimeoutOr(def time.Duration) time.Duration {
	if c.Timeout > 0 {
		return c.Timeout
	}
	return def
}

// Validate checks the fields every backend relies on
func (c Config) Validate() error {
	if strings.TrimSpace(c.Provider) == "" {
		return NewConfigError("", "provider name is required")
	}
	if c.RequestsPerMinute < 0 {
		return NewConfigError(c.Provider, "requests_per_minute must not be negative")
	}
	if c.Timeout < 0 {
		return NewConfigError(c.Provider, "timeout must not be negative")
	}
	return nil
}

// Redacted returns a copy safe for logging
func (c Config) Redacted() Config {
	if c.HasCredential() {
		c.APIKey = MaskSecret(c.APIKey)
	}
	return c
}

// MaskSecret keeps the first and last few characters of a secret
func MaskSecret(s string) string {
	if len(s) <= 8 {
		return "****"
	}
	return s[:4] + "..." + s[len(s)-4:]
}
