package stream

import (
	"context"
	"io"
	"sync"

	"github.com/zenocode/zenocode/pkg/types"
)

// DefaultBufferSize is the queue capacity used when Produce is given size <= 0
const DefaultBufferSize = 10

// Chunk is one queued item: a fragment or the terminal error
type Chunk struct {
	Text string
	Err  error
}

// EmitFunc delivers one fragment to the consumer. It blocks while the queue is
// full and returns the context error once the stream is closed or cancelled.
type EmitFunc func(text string) error

// ProduceFunc writes fragments through emit. A non-nil return value becomes
// the terminal error seen by the consumer.
type ProduceFunc func(ctx context.Context, emit EmitFunc) error

// Source is a bounded producer/consumer ChunkSource
type Source struct {
	ch     chan Chunk
	ctx    context.Context
	cancel context.CancelFunc
	done   chan struct{}

	mu        sync.Mutex
	exhausted bool
}

var _ types.ChunkSource = (*Source)(nil)

// Produce runs fn on its own goroutine and returns the consuming end.
// The producer context is derived from ctx and is cancelled by Close.
func Produce(ctx context.Context, size int, fn ProduceFunc) *Source {
	if size <= 0 {
		size = DefaultBufferSize
	}
	pctx, cancel := context.WithCancel(ctx)
	s := &Source{
		ch:     make(chan Chunk, size),
		ctx:    pctx,
		cancel: cancel,
		done:   make(chan struct{}),
	}
	go s.run(fn)
	return s
}

func (s *Source) run(fn ProduceFunc) {
	defer close(s.done)
	defer close(s.ch)

	emit := func(text string) error {
		if err := s.ctx.Err(); err != nil {
			return err
		}
		select {
		case s.ch <- Chunk{Text: text}:
			return nil
		case <-s.ctx.Done():
			return s.ctx.Err()
		}
	}

	err := fn(s.ctx, emit)
	if err == nil || s.ctx.Err() != nil {
		return
	}
	select {
	case s.ch <- Chunk{Err: err}:
	case <-s.ctx.Done():
	}
}

// Next returns the next fragment, io.EOF when exhausted, or the terminal error.
func (s *Source) Next(ctx context.Context) (string, error) {
	if s.isExhausted() {
		return "", io.EOF
	}
	if err := s.ctx.Err(); err != nil {
		return "", s.finish(err)
	}

	select {
	case c, ok := <-s.ch:
		if !ok {
			return "", s.finish(nil)
		}
		// Nothing is delivered once the stream has been cancelled.
		if err := s.ctx.Err(); err != nil {
			return "", s.finish(err)
		}
		if c.Err != nil {
			return "", s.finish(c.Err)
		}
		return c.Text, nil
	case <-s.ctx.Done():
		return "", s.finish(s.ctx.Err())
	case <-ctx.Done():
		return "", s.finish(ctx.Err())
	}
}

// C exposes the queue for range-style consumers. It bypasses Next's
// bookkeeping, so use one or the other for a given Source.
func (s *Source) C() <-chan Chunk {
	return s.ch
}

// Done is closed once the producer goroutine has returned
func (s *Source) Done() <-chan struct{} {
	return s.done
}

// Close cancels the producer and waits for it to return.
func (s *Source) Close() error {
	s.finish(nil)
	<-s.done
	return nil
}

// finish marks the source exhausted, stops the producer, and returns err or
// io.EOF when err is nil.
func (s *Source) finish(err error) error {
	s.mu.Lock()
	already := s.exhausted
	s.exhausted = true
	s.mu.Unlock()

	s.cancel()
	if already || err == nil {
		return io.EOF
	}
	return err
}

func (s *Source) isExhausted() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.exhausted
}
