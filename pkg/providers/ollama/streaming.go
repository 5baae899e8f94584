package ollama

import (
	"context"
	"errors"
	"io"

	"github.com/zenocode/zenocode/pkg/stream"
	"github.com/zenocode/zenocode/pkg/types"
)

// Stream posts prompt with streaming enabled and yields each message fragment
func (p *OllamaProvider) Stream(ctx context.Context, prompt string) (types.ChunkSource, error) {
	resp, err := p.client.OpenStream(ctx, chatPath, p.buildOllamaChatRequest(prompt, true), "application/x-ndjson")
	if err != nil {
		return nil, types.WithOperation(err, "stream")
	}
	return stream.FromBody(ctx, resp.Body, decodeFrames), nil
}

// decodeFrames reads one JSON object per line until a frame reports done
func decodeFrames(ctx context.Context, r io.Reader, emit stream.EmitFunc) error {
	frames := stream.NewNDJSONReader(r)
	for {
		var frame ollamaChatResponse
		err := frames.Next(&frame)
		if err == io.EOF {
			return nil
		}
		var syntaxErr *stream.SyntaxError
		if errors.As(err, &syntaxErr) {
			return types.NewBackendError(Name, "malformed stream frame").
				WithOriginalErr(err).
				WithOperation("stream")
		}
		if err != nil {
			return types.NewTransportError(Name, err).WithOperation("stream")
		}

		if frame.Error != "" {
			return types.NewBackendError(Name, frame.Error).WithOperation("stream")
		}
		if frame.Message.Content != "" {
			if err := emit(frame.Message.Content); err != nil {
				return err
			}
		}
		if frame.Done {
			return nil
		}
	}
}
