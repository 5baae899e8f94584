package openai

import (
	"context"
	"encoding/json"
	"io"
	"strings"

	"github.com/zenocode/zenocode/pkg/stream"
	"github.com/zenocode/zenocode/pkg/types"
)

const doneSentinel = "[DONE]"

// Stream opens a server-sent event stream and yields each content delta
func (p *OpenAIProvider) Stream(ctx context.Context, prompt string) (types.ChunkSource, error) {
	resp, err := p.client.OpenStream(ctx, completionsPath, p.buildRequest(prompt, true), "text/event-stream")
	if err != nil {
		return nil, types.WithOperation(err, "stream")
	}
	return stream.FromBody(ctx, resp.Body, decodeSSE), nil
}

// decodeSSE emits choices[0].delta.content for every data frame until [DONE].
// A body that ends without [DONE] is treated as complete.
func decodeSSE(ctx context.Context, r io.Reader, emit stream.EmitFunc) error {
	events := stream.NewSSEReader(r)
	for {
		ev, err := events.Next()
		if err == io.EOF {
			return nil
		}
		if err != nil {
			return types.NewTransportError(Name, err).WithOperation("stream")
		}

		data := strings.TrimSpace(ev.Data)
		if data == "" {
			continue
		}
		if data == doneSentinel {
			return nil
		}

		var chunk OpenAIStreamResponse
		if err := json.Unmarshal([]byte(data), &chunk); err != nil {
			return types.NewBackendError(Name, "malformed stream chunk").
				WithOriginalErr(err).
				WithOperation("stream")
		}
		if chunk.Error != nil {
			return types.NewBackendError(Name, chunk.Error.Message).WithOperation("stream")
		}
		if len(chunk.Choices) == 0 {
			continue
		}
		if content := chunk.Choices[0].Delta.Content; content != "" {
			if err := emit(content); err != nil {
				return err
			}
		}
	}
}
