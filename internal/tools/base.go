// Package tools defines the Tool interface and the publish-to-topic tools
// the doctor agent uses to delegate work to other agents.
package tools

import (
	"context"

	"github.com/liquidos-ai/medcluster/internal/bus"
)

// Tool is the interface all agent tools implement.
type Tool interface {
	// Name returns the tool name used in LLM function calls.
	Name() string

	// Description returns what the tool does.
	Description() string

	// Parameters returns the JSON Schema for tool parameters.
	Parameters() map[string]any

	// Execute runs the tool with the given arguments.
	Execute(ctx context.Context, args map[string]any) (string, error)
}

// Publisher is anything a tool can publish tasks through — the cluster
// client on client nodes, the host or a bare bus elsewhere.
type Publisher interface {
	Publish(topic string, task bus.Task) error
}

// ToSchema converts a tool to OpenAI function calling format.
func ToSchema(t Tool) map[string]any {
	return map[string]any{
		"type": "function",
		"function": map[string]any{
			"name":        t.Name(),
			"description": t.Description(),
			"parameters":  t.Parameters(),
		},
	}
}
