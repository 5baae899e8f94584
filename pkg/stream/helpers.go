package stream

import (
	"context"
	"errors"
	"io"
	"strings"

	"github.com/zenocode/zenocode/pkg/types"
)

// Words splits text on whitespace and streams each word as one fragment.
// Backends without incremental delivery use it to implement Stream on top of
// Complete.
func Words(ctx context.Context, text string) *Source {
	return FromSlice(ctx, strings.Fields(text))
}

// FromSlice streams parts in order
func FromSlice(ctx context.Context, parts []string) *Source {
	return Produce(ctx, 0, func(ctx context.Context, emit EmitFunc) error {
		for _, p := range parts {
			if err := emit(p); err != nil {
				return err
			}
		}
		return nil
	})
}

// Failed returns a source that yields parts and then err
func Failed(ctx context.Context, parts []string, err error) *Source {
	return Produce(ctx, 0, func(ctx context.Context, emit EmitFunc) error {
		for _, p := range parts {
			if e := emit(p); e != nil {
				return e
			}
		}
		return err
	})
}

// Collect drains src and closes it. The fragments read before a terminal
// error are returned together with that error.
func Collect(ctx context.Context, src types.ChunkSource) ([]string, error) {
	defer func() { _ = src.Close() }()

	var parts []string
	for {
		text, err := src.Next(ctx)
		if errors.Is(err, io.EOF) {
			return parts, nil
		}
		if err != nil {
			return parts, err
		}
		parts = append(parts, text)
	}
}

// Join drains src and joins the fragments with sep
func Join(ctx context.Context, src types.ChunkSource, sep string) (string, error) {
	parts, err := Collect(ctx, src)
	return strings.Join(parts, sep), err
}

// DecodeFunc reads frames from r and emits their text
type DecodeFunc func(ctx context.Context, r io.Reader, emit EmitFunc) error

// FromBody decodes body on a producer goroutine. The body is closed when
// decoding returns or when the stream is cancelled, which unblocks a pending
// read.
func FromBody(ctx context.Context, body io.ReadCloser, decode DecodeFunc) *Source {
	return Produce(ctx, 0, func(ctx context.Context, emit EmitFunc) error {
		stop := context.AfterFunc(ctx, func() { _ = body.Close() })
		defer func() {
			stop()
			_ = body.Close()
		}()
		return decode(ctx, body, emit)
	})
}
