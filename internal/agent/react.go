package agent

import (
	"context"
	"encoding/json"
	"fmt"
	"log"

	"github.com/liquidos-ai/medcluster/internal/bus"
	"github.com/liquidos-ai/medcluster/internal/memory"
	"github.com/liquidos-ai/medcluster/internal/providers"
	"github.com/liquidos-ai/medcluster/internal/tools"
)

// SelfTestPrompt short-circuits every executor: agents answer it with a
// fixed string and zero provider calls, so a deployment can be smoke
// tested without burning API quota.
const SelfTestPrompt = "SELF_TEST"

// SelfTestResult is the canonical self-test answer.
const SelfTestResult = "Self-test completed successfully"

const doctorSystemPrompt = `You are a medical doctor AI assistant coordinating patient care.

You have access to tools that delegate work to specialist agents:
- ecg_analysis_tool: submits ECG/heart-rate questions to the analysis agent
- camera_analysis: asks the camera agent to capture and assess an image of the patient room

When a user asks about ECG data, heart rate, or cardiac analysis, use the
ecg_analysis_tool. When a user asks about the patient's visible condition
or the room, use camera_analysis. After submitting a request, tell the
user the result will arrive shortly — do NOT call the same tool again for
the same question.

When you receive a completed analysis report, summarize it for the user
directly. Never submit a report back for further analysis.`

// defaultMaxTurns bounds one reasoning loop. Each delegation tool answers
// in a single call, so the budget only trips on model misbehavior.
const defaultMaxTurns = 5

// DoctorAgent is the tool-augmented coordinator: it reasons in a loop,
// delegating to specialist agents over the bus, until the model produces
// a final text answer or the turn budget runs out.
type DoctorAgent struct {
	name     string
	registry *tools.Registry
	memory   *memory.SlidingWindow
	maxTurns int
	system   string
}

// NewDoctorAgent builds the coordinator with its delegation tools
// registered. mem may be nil to disable conversation memory.
func NewDoctorAgent(pub tools.Publisher, mem *memory.SlidingWindow) *DoctorAgent {
	reg := tools.NewRegistry()
	reg.Register(tools.NewECGAnalysisTool(pub))
	reg.Register(tools.NewCameraAnalysisTool(pub))
	return &DoctorAgent{
		name:     "doctor_agent",
		registry: reg,
		memory:   mem,
		maxTurns: defaultMaxTurns,
		system:   doctorSystemPrompt,
	}
}

func (d *DoctorAgent) Name() string { return d.name }

// Tools exposes the registry for wiring checks in callers.
func (d *DoctorAgent) Tools() *tools.Registry { return d.registry }

// SetMaxTurns overrides the reasoning turn budget. n < 1 is ignored.
func (d *DoctorAgent) SetMaxTurns(n int) {
	if n > 0 {
		d.maxTurns = n
	}
}

// Execute runs the reasoning loop for one task.
func (d *DoctorAgent) Execute(ctx context.Context, task bus.Task, actx *Context) (string, error) {
	if task.Prompt == SelfTestPrompt {
		return SelfTestResult, nil
	}

	messages := []providers.Message{{Role: "system", Content: d.system}}
	if d.memory != nil {
		for _, turn := range d.memory.History() {
			messages = append(messages, providers.Message{Role: turn.Role, Content: turn.Content})
		}
	}
	messages = append(messages, providers.Message{Role: "user", Content: task.Prompt})

	schemas := d.registry.Schemas()
	for turn := 0; turn < d.maxTurns; turn++ {
		resp, err := actx.Chat(ctx, messages, schemas)
		if err != nil {
			return "", err
		}

		text, failed := ResponseText(resp)
		if failed {
			return fmt.Sprintf("AI analysis failed: %s", text), nil
		}

		if !resp.HasToolCalls() {
			d.remember(task.Prompt, text)
			return text, nil
		}

		messages = append(messages, assistantToolCallMessage(resp))
		for _, call := range resp.ToolCalls {
			actx.Emit(bus.Event{
				Kind:      bus.EventToolCallRequested,
				AgentID:   d.name,
				ToolName:  call.Name,
				Arguments: call.Arguments,
			})
			messages = append(messages, d.runTool(ctx, call))
		}
	}

	log.Printf("[Doctor] ⚠️ Max iterations reached for task %s", task.ID)
	result := "Max iterations reached. The requested work has been submitted; results will arrive shortly."
	d.remember(task.Prompt, result)
	return result, nil
}

// runTool executes one requested call and wraps the outcome as a tool
// message. Tool failures feed back into the loop as text so the model can
// recover or apologize.
func (d *DoctorAgent) runTool(ctx context.Context, call providers.ToolCallRequest) providers.Message {
	var content string
	tool := d.registry.Get(call.Name)
	if tool == nil {
		content = fmt.Sprintf("Error: unknown tool %q", call.Name)
	} else {
		out, err := tool.Execute(ctx, call.Arguments)
		if err != nil {
			content = fmt.Sprintf("Error: %v", err)
		} else {
			content = out
		}
	}
	return providers.Message{
		Role:       "tool",
		Content:    content,
		ToolCallID: call.ID,
		Name:       call.Name,
	}
}

func (d *DoctorAgent) remember(prompt, result string) {
	if d.memory == nil {
		return
	}
	d.memory.Add("user", prompt)
	d.memory.Add("assistant", result)
}

// assistantToolCallMessage echoes the model's requested calls back in the
// OpenAI tool protocol shape.
func assistantToolCallMessage(resp *providers.LLMResponse) providers.Message {
	calls := make([]map[string]any, len(resp.ToolCalls))
	for i, c := range resp.ToolCalls {
		args, err := json.Marshal(c.Arguments)
		if err != nil {
			args = []byte("{}")
		}
		calls[i] = map[string]any{
			"id":   c.ID,
			"type": "function",
			"function": map[string]any{
				"name":      c.Name,
				"arguments": string(args),
			},
		}
	}
	content := ""
	if resp.Content != nil {
		content = *resp.Content
	}
	return providers.Message{Role: "assistant", Content: content, ToolCalls: calls}
}
