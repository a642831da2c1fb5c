// Package agent implements the per-node agent runtime: the event loop
// that drives one agent instance, plus the executor variants the system
// ships with (tool-augmented doctor, direct analysis and camera agents).
package agent

import (
	"context"
	"fmt"

	"github.com/liquidos-ai/medcluster/internal/bus"
	"github.com/liquidos-ai/medcluster/internal/providers"
)

// Transport is the publish/subscribe contract the runtime and tools use.
// Satisfied by both *bus.Bus (in-process) and *cluster.Client, so an agent
// runs unchanged on a single node or inside a cluster.
type Transport interface {
	Publish(topic string, task bus.Task) error
	Subscribe(topic, agentID string) error
}

// Agent turns one task into one result, optionally publishing
// intermediate tasks to other topics along the way. Variants are selected
// at construction, not by inheritance.
type Agent interface {
	// Name identifies the agent on the bus and in logs.
	Name() string

	// Execute processes one task to completion and returns the result
	// text. Implementations must not retain task or actx.
	Execute(ctx context.Context, task bus.Task, actx *Context) (string, error)
}

// Context is handed to an executing agent. It exposes publishing and the
// external reasoning call; everything else the agent needs it owns.
type Context struct {
	Transport   Transport
	Provider    providers.LLMProvider
	Model       string
	MaxTokens   int
	Temperature float64

	// emit hands runtime-lifecycle events back to the owning runtime.
	// Nil outside a runtime (direct invocation in tests).
	emit func(bus.Event)
}

// Publish publishes a task cluster-wide through the node's transport.
func (c *Context) Publish(topic string, task bus.Task) error {
	return c.Transport.Publish(topic, task)
}

// Chat calls the external reasoning model with the context's defaults.
// Failures surface as error-text responses, never as a nil response.
func (c *Context) Chat(ctx context.Context, messages []providers.Message, toolSchemas []map[string]any) (*providers.LLMResponse, error) {
	resp, err := c.Provider.Chat(ctx, providers.ChatRequest{
		Messages:    messages,
		Tools:       toolSchemas,
		Model:       c.Model,
		MaxTokens:   c.MaxTokens,
		Temperature: c.Temperature,
	})
	if err != nil {
		return nil, fmt.Errorf("reasoning call: %w", err)
	}
	return resp, nil
}

// Emit reports a lifecycle event (e.g. a requested tool call) to the
// runtime. No-op outside a runtime.
func (c *Context) Emit(ev bus.Event) {
	if c.emit != nil {
		c.emit(ev)
	}
}

// ResponseText unwraps a provider response, mapping error responses to a
// user-visible failure string.
func ResponseText(resp *providers.LLMResponse) (text string, failed bool) {
	content := ""
	if resp.Content != nil {
		content = *resp.Content
	}
	if resp.FinishReason == "error" {
		return content, true
	}
	return content, false
}
