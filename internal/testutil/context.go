package testutil

import (
	"context"
	"testing"
	"time"
)

// TestContext creates a context with a reasonable timeout for tests.
// It is cancelled when the test finishes.
func TestContext(t *testing.T) context.Context {
	t.Helper()
	return TestContextWithTimeout(t, 30*time.Second)
}

// TestContextWithTimeout creates a context with a custom timeout that is
// cancelled when the test finishes.
func TestContextWithTimeout(t *testing.T, timeout time.Duration) context.Context {
	t.Helper()
	ctx, cancel := context.WithTimeout(context.Background(), timeout)
	t.Cleanup(cancel)
	return ctx
}
