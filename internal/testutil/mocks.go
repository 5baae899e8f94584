// Package testutil provides shared testing utilities and mocks for the
// zenocode test suite.
package testutil

import (
	"context"
	"sync"

	"github.com/zenocode/zenocode/pkg/stream"
	"github.com/zenocode/zenocode/pkg/types"
)

// ConfigurableMockProvider is a mock Provider with configurable behaviour.
// Queued errors are returned one per call, in order, before the provider
// starts succeeding.
type ConfigurableMockProvider struct {
	mu sync.RWMutex

	// Behavior control
	completeErrors []error
	streamErrors   []error

	// Mock responses
	reply        string
	streamChunks []string
	streamErr    error

	// Call tracking
	completeCalled int
	streamCalled   int
	lastPrompt     string
}

var _ types.Provider = (*ConfigurableMockProvider)(nil)

// NewConfigurableMockProvider creates a mock that answers every prompt with reply
func NewConfigurableMockProvider(reply string) *ConfigurableMockProvider {
	return &ConfigurableMockProvider{reply: reply}
}

// QueueCompleteErrors makes the next len(errs) Complete calls fail in order
func (m *ConfigurableMockProvider) QueueCompleteErrors(errs ...error) *ConfigurableMockProvider {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.completeErrors = append(m.completeErrors, errs...)
	return m
}

// QueueStreamErrors makes the next len(errs) Stream calls fail in order
func (m *ConfigurableMockProvider) QueueStreamErrors(errs ...error) *ConfigurableMockProvider {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.streamErrors = append(m.streamErrors, errs...)
	return m
}

// SetStream makes successful Stream calls yield chunks followed by err.
// Without it, the reply is streamed word by word.
func (m *ConfigurableMockProvider) SetStream(chunks []string, err error) *ConfigurableMockProvider {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.streamChunks = chunks
	m.streamErr = err
	return m
}

// GetCompleteCallCount returns the number of Complete calls
func (m *ConfigurableMockProvider) GetCompleteCallCount() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.completeCalled
}

// GetStreamCallCount returns the number of Stream calls
func (m *ConfigurableMockProvider) GetStreamCallCount() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.streamCalled
}

// LastPrompt returns the prompt of the most recent call
func (m *ConfigurableMockProvider) LastPrompt() string {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.lastPrompt
}

// Complete returns the next queued error or the reply
func (m *ConfigurableMockProvider) Complete(ctx context.Context, prompt string) (string, error) {
	m.mu.Lock()
	m.completeCalled++
	m.lastPrompt = prompt
	err := pop(&m.completeErrors)
	m.mu.Unlock()

	if err != nil {
		return "", err
	}
	if ctxErr := ctx.Err(); ctxErr != nil {
		return "", types.NewTransportError("mock", ctxErr).WithOperation("complete")
	}
	return m.reply, nil
}

// Stream returns the next queued error or a source over the configured chunks
func (m *ConfigurableMockProvider) Stream(ctx context.Context, prompt string) (types.ChunkSource, error) {
	m.mu.Lock()
	m.streamCalled++
	m.lastPrompt = prompt
	err := pop(&m.streamErrors)
	chunks, streamErr, reply := m.streamChunks, m.streamErr, m.reply
	m.mu.Unlock()

	if err != nil {
		return nil, err
	}
	if chunks == nil && streamErr == nil {
		return stream.Words(ctx, reply), nil
	}
	return stream.Failed(ctx, chunks, streamErr), nil
}

func pop(errs *[]error) error {
	if len(*errs) == 0 {
		return nil
	}
	err := (*errs)[0]
	*errs = (*errs)[1:]
	return err
}
