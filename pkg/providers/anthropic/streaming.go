package anthropic

import (
	"context"
	"encoding/json"
	"io"
	"strings"

	"github.com/zenocode/zenocode/pkg/stream"
	"github.com/zenocode/zenocode/pkg/types"
)

// Stream opens a Messages API event stream and yields each text delta
func (p *AnthropicProvider) Stream(ctx context.Context, prompt string) (types.ChunkSource, error) {
	resp, err := p.client.OpenStream(ctx, messagesPath, p.prepareRequest(prompt, true), "text/event-stream")
	if err != nil {
		return nil, types.WithOperation(err, "stream")
	}
	return stream.FromBody(ctx, resp.Body, p.decodeEvents), nil
}

// decodeEvents emits text_delta content until message_stop. Event types it
// does not know are skipped.
func (p *AnthropicProvider) decodeEvents(ctx context.Context, r io.Reader, emit stream.EmitFunc) error {
	logger := p.client.Logger()
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

		var event AnthropicStreamResponse
		if err := json.Unmarshal([]byte(data), &event); err != nil {
			return types.NewBackendError(Name, "malformed stream event").
				WithOriginalErr(err).
				WithOperation("stream")
		}
		// The data payload names its type; the SSE event name is a fallback.
		kind := event.Type
		if kind == "" {
			kind = ev.Name
		}

		switch kind {
		case eventContentBlockDelta:
			if event.Delta == nil || event.Delta.Type != deltaText || event.Delta.Text == "" {
				continue
			}
			if err := emit(event.Delta.Text); err != nil {
				return err
			}
		case eventMessageStop:
			return nil
		case eventError:
			message := "stream error"
			if event.Error != nil && event.Error.Message != "" {
				message = event.Error.Message
			}
			return types.NewBackendError(Name, message).WithOperation("stream")
		case eventPing:
		default:
			logger.Debug().Str("event", kind).Msg("skipping stream event")
		}
	}
}
