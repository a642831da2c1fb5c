// Package providers defines the LLM provider interface and response types.
package providers

import "context"

// ToolCallRequest represents a tool call requested by the LLM.
type ToolCallRequest struct {
	ID        string         `json:"id"`
	Name      string         `json:"name"`
	Arguments map[string]any `json:"arguments"`
}

// LLMResponse is the standardized response from any LLM backend.
type LLMResponse struct {
	Content      *string           `json:"content"`
	ToolCalls    []ToolCallRequest `json:"tool_calls,omitempty"`
	FinishReason string            `json:"finish_reason"`
	Usage        map[string]int    `json:"usage,omitempty"`
}

// HasToolCalls returns true if the response contains tool calls.
func (r *LLMResponse) HasToolCalls() bool {
	return len(r.ToolCalls) > 0
}

// Message is one chat message. ImageJPEG, when set, attaches a captured
// image as an OpenAI-compatible image content part. ToolCalls carries an
// assistant turn's requested calls back to the model; ToolCallID and Name
// mark a role "tool" result message.
type Message struct {
	Role       string           `json:"role"`
	Content    string           `json:"content"`
	ImageJPEG  []byte           `json:"-"`
	ToolCalls  []map[string]any `json:"tool_calls,omitempty"`
	ToolCallID string           `json:"tool_call_id,omitempty"`
	Name       string           `json:"name,omitempty"`
}

// ChatRequest holds all parameters for a chat completion call.
type ChatRequest struct {
	Messages    []Message
	Tools       []map[string]any
	Model       string
	MaxTokens   int
	Temperature float64
}

// LLMProvider is the interface the agent runtime reasons through.
// Implementations convert transport failures into error-text responses so
// an agent always has something to surface to the operator.
type LLMProvider interface {
	Chat(ctx context.Context, req ChatRequest) (*LLMResponse, error)
	DefaultModel() string
}
