package anthropic

// AnthropicRequest represents a request to the Messages API
type AnthropicRequest struct {
	Model     string             `json:"model"`
	MaxTokens int                `json:"max_tokens"`
	Messages  []AnthropicMessage `json:"messages"`
	Stream    bool               `json:"stream,omitempty"`
}

// AnthropicMessage represents a message in the Anthropic API
type AnthropicMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

// AnthropicResponse represents a non-streaming response
type AnthropicResponse struct {
	ID         string                  `json:"id"`
	Type       string                  `json:"type"`
	Role       string                  `json:"role"`
	Content    []AnthropicContentBlock `json:"content"`
	Model      string                  `json:"model"`
	Usage      AnthropicUsage          `json:"usage"`
	StopReason string                  `json:"stop_reason,omitempty"`
}

// AnthropicContentBlock represents a content block in the response
type AnthropicContentBlock struct {
	Type string `json:"type"` // "text", "tool_use", ...
	Text string `json:"text,omitempty"`
}

// AnthropicUsage represents token usage
type AnthropicUsage struct {
	InputTokens  int `json:"input_tokens"`
	OutputTokens int `json:"output_tokens"`
}

// AnthropicError represents the error object in error responses and events
type AnthropicError struct {
	Type    string `json:"type"`
	Message string `json:"message"`
}

// AnthropicStreamResponse represents one server-sent event payload
type AnthropicStreamResponse struct {
	Type  string                `json:"type"`
	Index int                   `json:"index,omitempty"`
	Delta *AnthropicStreamDelta `json:"delta,omitempty"`
	Error *AnthropicError       `json:"error,omitempty"`
}

// AnthropicStreamDelta represents the delta in a content_block_delta event
type AnthropicStreamDelta struct {
	Type        string `json:"type"`
	Text        string `json:"text,omitempty"`
	PartialJSON string `json:"partial_json,omitempty"` // for tool_use streaming
	StopReason  string `json:"stop_reason,omitempty"`
}

// Stream event types
const (
	eventMessageStart      = "message_start"
	eventContentBlockDelta = "content_block_delta"
	eventMessageStop       = "message_stop"
	eventPing              = "ping"
	eventError             = "error"

	deltaText = "text_delta"
)
