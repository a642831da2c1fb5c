// Package bus provides the topic registry and the in-process pub/sub bus
// that carries tasks between agents.
package bus

import (
	"time"

	"github.com/google/uuid"
)

// Task is the unit of work carried on a topic. Immutable after creation;
// deriving a reply means creating a new Task with its own ID.
type Task struct {
	ID        string    `json:"id"`
	Prompt    string    `json:"prompt"`
	CreatedAt time.Time `json:"created_at"`
}

// NewTask creates a Task with a fresh ID and timestamp.
func NewTask(prompt string) Task {
	return Task{
		ID:        uuid.NewString(),
		Prompt:    prompt,
		CreatedAt: time.Now().UTC(),
	}
}

// Derive creates a new Task carrying a result or follow-up prompt.
// The derived task gets its own identity; the original is untouched.
func (t Task) Derive(prompt string) Task {
	return NewTask(prompt)
}

// Event is delivered on an agent's event stream.
// Exactly one of the payload fields is meaningful per Kind.
type Event struct {
	Kind EventKind

	// EventNewTask
	Topic string
	Task  Task

	// EventToolCallRequested
	ToolName  string
	Arguments map[string]any

	// EventTaskComplete / EventAgentStopped
	AgentID string
	Result  string
}

// EventKind tags the Event union.
type EventKind int

const (
	EventNewTask EventKind = iota
	EventToolCallRequested
	EventTaskComplete
	EventAgentStopped
)

func (k EventKind) String() string {
	switch k {
	case EventNewTask:
		return "new_task"
	case EventToolCallRequested:
		return "tool_call_requested"
	case EventTaskComplete:
		return "task_complete"
	case EventAgentStopped:
		return "agent_stopped"
	}
	return "unknown"
}
