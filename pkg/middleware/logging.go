package middleware

import (
	"context"
	"errors"
	"io"
	"sync"
	"sync/atomic"
	"time"

	"github.com/rs/zerolog"

	"github.com/zenocode/zenocode/pkg/types"
)

type loggingProvider struct {
	inner  types.Provider
	logger zerolog.Logger
}

var _ types.Provider = (*loggingProvider)(nil)

// WithLogging logs every call on p: a debug line when it starts and one line
// when it ends, at error level for failures.
func WithLogging(p types.Provider, name string, logger zerolog.Logger) types.Provider {
	return &loggingProvider{
		inner:  p,
		logger: logger.With().Str("provider", name).Logger(),
	}
}

// Logging is WithLogging as a Decorator
func Logging(name string, logger zerolog.Logger) Decorator {
	return func(p types.Provider) types.Provider {
		return WithLogging(p, name, logger)
	}
}

func (l *loggingProvider) Complete(ctx context.Context, prompt string) (string, error) {
	start := time.Now()
	l.logger.Debug().Int("prompt_len", len(prompt)).Msg("complete started")

	out, err := l.inner.Complete(ctx, prompt)
	if err != nil {
		l.logger.Error().Err(err).Dur("latency", time.Since(start)).Msg("complete failed")
		return out, err
	}
	l.logger.Info().Int("response_len", len(out)).Dur("latency", time.Since(start)).Msg("complete finished")
	return out, nil
}

func (l *loggingProvider) Stream(ctx context.Context, prompt string) (types.ChunkSource, error) {
	start := time.Now()
	l.logger.Debug().Int("prompt_len", len(prompt)).Msg("stream started")

	src, err := l.inner.Stream(ctx, prompt)
	if err != nil {
		l.logger.Error().Err(err).Dur("latency", time.Since(start)).Msg("stream setup failed")
		return nil, err
	}
	return &loggingSource{inner: src, logger: l.logger, start: start}, nil
}

// loggingSource counts fragments and logs once when the stream ends
type loggingSource struct {
	inner  types.ChunkSource
	logger zerolog.Logger
	start  time.Time

	// Close may run on another goroutine than Next.
	chunks atomic.Int64
	once   sync.Once
}

func (s *loggingSource) Next(ctx context.Context) (string, error) {
	text, err := s.inner.Next(ctx)
	switch {
	case err == nil:
		s.chunks.Add(1)
	case errors.Is(err, io.EOF):
		s.finish(nil)
	default:
		s.finish(err)
	}
	return text, err
}

func (s *loggingSource) Close() error {
	s.finish(nil)
	return s.inner.Close()
}

func (s *loggingSource) finish(err error) {
	s.once.Do(func() {
		if err != nil {
			s.logger.Error().Err(err).Int64("chunks", s.chunks.Load()).Dur("latency", time.Since(s.start)).Msg("stream failed")
			return
		}
		s.logger.Info().Int64("chunks", s.chunks.Load()).Dur("latency", time.Since(s.start)).Msg("stream finished")
	})
}
