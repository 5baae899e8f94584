package retry

import (
	"context"
	"errors"
	"net/http"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/zenocode/zenocode/pkg/types"
)

func fastPolicy(retries int) Policy {
	return Policy{
		MaxRetries:      retries,
		InitialInterval: time.Millisecond,
		MaxInterval:     5 * time.Millisecond,
		Multiplier:      2,
		Jitter:          0,
	}
}

func transportErr() error {
	return types.NewTransportError("test", errors.New("connection reset"))
}

func TestDo_SucceedsAfterTransientFailures(t *testing.T) {
	calls := 0
	err := Do(context.Background(), fastPolicy(3), func(context.Context) error {
		calls++
		if calls < 3 {
			return transportErr()
		}
		return nil
	})
	require.NoError(t, err)
	assert.Equal(t, 3, calls)
}

func TestDo_StopsOnNonRetryable(t *testing.T) {
	tests := []struct {
		name string
		err  error
	}{
		{"Config", types.NewConfigError("test", "missing key")},
		{"Auth", types.NewAuthError("test", "bad key").WithStatusCode(http.StatusUnauthorized)},
		{"BadRequest", types.NewBackendError("test", "bad").WithStatusCode(http.StatusBadRequest)},
		{"Plain", errors.New("not a provider error")},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			calls := 0
			err := Do(context.Background(), fastPolicy(5), func(context.Context) error {
				calls++
				return tt.err
			})
			assert.Equal(t, 1, calls)
			assert.Equal(t, tt.err, err)
		})
	}
}

func TestDo_RetriesThrottlingAndServerErrors(t *testing.T) {
	for _, status := range []int{http.StatusTooManyRequests, http.StatusBadGateway} {
		calls := 0
		err := Do(context.Background(), fastPolicy(2), func(context.Context) error {
			calls++
			return types.NewBackendError("test", "busy").WithStatusCode(status)
		})
		assert.ErrorIs(t, err, types.ErrBackend)
		assert.Equal(t, 3, calls, "status %d", status)
	}
}

func TestDo_Exhaustion(t *testing.T) {
	var attempts []int
	policy := fastPolicy(2)
	policy.Notify = func(attempt int, err error, delay time.Duration) {
		attempts = append(attempts, attempt)
		assert.ErrorIs(t, err, types.ErrTransport)
		assert.Greater(t, delay, time.Duration(0))
	}

	calls := 0
	err := Do(context.Background(), policy, func(context.Context) error {
		calls++
		return transportErr()
	})
	assert.ErrorIs(t, err, types.ErrTransport)
	assert.Equal(t, 3, calls)
	assert.Equal(t, []int{1, 2}, attempts)
}

func TestNoRetry(t *testing.T) {
	calls := 0
	err := Do(context.Background(), NoRetry(), func(context.Context) error {
		calls++
		return transportErr()
	})
	assert.Error(t, err)
	assert.Equal(t, 1, calls)
}

func TestDo_ContextCancelledDuringWait(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	policy := Policy{MaxRetries: 5, InitialInterval: time.Hour, MaxInterval: time.Hour, Multiplier: 2}

	calls := 0
	go func() {
		time.Sleep(20 * time.Millisecond)
		cancel()
	}()

	start := time.Now()
	err := Do(ctx, policy, func(context.Context) error {
		calls++
		return transportErr()
	})
	assert.Less(t, time.Since(start), 5*time.Second)
	assert.Equal(t, 1, calls)
	assert.ErrorIs(t, err, context.Canceled)
	assert.ErrorIs(t, err, types.ErrTransport)
}

func TestDoValue(t *testing.T) {
	calls := 0
	v, err := DoValue(context.Background(), fastPolicy(2), func(context.Context) (string, error) {
		calls++
		if calls == 1 {
			return "", transportErr()
		}
		return "ok", nil
	})
	require.NoError(t, err)
	assert.Equal(t, "ok", v)

	v, err = DoValue(context.Background(), fastPolicy(2), func(context.Context) (string, error) {
		return "partial", types.NewConfigError("test", "nope")
	})
	assert.Error(t, err)
	assert.Empty(t, v)
}

func TestDelayFor_RetryAfterOverrides(t *testing.T) {
	computed := 10 * time.Millisecond

	hinted := types.NewBackendError("test", "slow down").
		WithStatusCode(http.StatusTooManyRequests).
		WithRetryAfter(3)
	assert.Equal(t, 3*time.Second, delayFor(hinted, computed))

	assert.Equal(t, computed, delayFor(transportErr(), computed))
	assert.Equal(t, computed, delayFor(errors.New("plain"), computed))
}

func TestDefaultPolicy(t *testing.T) {
	p := DefaultPolicy()
	assert.Equal(t, 3, p.MaxRetries)
	assert.Equal(t, time.Second, p.InitialInterval)
	assert.Equal(t, 30*time.Second, p.MaxInterval)
	assert.Equal(t, 0, NoRetry().MaxRetries)
}
