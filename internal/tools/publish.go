package tools

import (
	"context"
	"fmt"
	"log"

	"github.com/liquidos-ai/medcluster/internal/bus"
)

// queryParameters is the shared schema: every delegation tool takes one
// free-text query.
func queryParameters(description string) map[string]any {
	return map[string]any{
		"type": "object",
		"properties": map[string]any{
			"query": map[string]any{
				"type":        "string",
				"description": description,
			},
		},
		"required": []string{"query"},
	}
}

// queryArg extracts the query argument, tolerating missing or mistyped
// values so a malformed tool call degrades to an error string.
func queryArg(args map[string]any) (string, error) {
	q, ok := args["query"].(string)
	if !ok || q == "" {
		return "", fmt.Errorf("missing required argument %q", "query")
	}
	return q, nil
}

// TopicPublishTool delegates a query to another agent by publishing a new
// task on its input topic. The tool returns immediately with an
// acknowledgment; the remote agent's answer arrives later on a result
// topic.
type TopicPublishTool struct {
	ToolName string
	Desc     string
	Topic    string
	AckText  string // fmt string with one %s for the query
	Pub      Publisher
}

func (t *TopicPublishTool) Name() string        { return t.ToolName }
func (t *TopicPublishTool) Description() string { return t.Desc }

func (t *TopicPublishTool) Parameters() map[string]any {
	return queryParameters("The query to submit")
}

func (t *TopicPublishTool) Execute(_ context.Context, args map[string]any) (string, error) {
	query, err := queryArg(args)
	if err != nil {
		return "", err
	}

	task := bus.NewTask(query)
	log.Printf("[Tools] 🚀 %s publishing to %q: %s", t.ToolName, t.Topic, query)
	if err := t.Pub.Publish(t.Topic, task); err != nil {
		return "", fmt.Errorf("publish to %s: %w", t.Topic, err)
	}
	return fmt.Sprintf(t.AckText, query), nil
}

// NewECGAnalysisTool builds the doctor's tool for delegating ECG questions
// to the analysis agent.
func NewECGAnalysisTool(pub Publisher) *TopicPublishTool {
	return &TopicPublishTool{
		ToolName: "ecg_analysis_tool",
		Desc: "Submit a query to the ECG analysis agent. Once the query is " +
			"submitted, respond to the user that the analysis will arrive shortly.",
		Topic:   "analysis_agent",
		AckText: "Analysis request submitted: %q. The analysis will be processed shortly.",
		Pub:     pub,
	}
}

// NewCameraAnalysisTool builds the doctor's tool for requesting a camera
// capture and visual assessment of the patient room.
func NewCameraAnalysisTool(pub Publisher) *TopicPublishTool {
	return &TopicPublishTool{
		ToolName: "camera_analysis",
		Desc:     "Request the camera agent to capture and analyze an image based on the user query.",
		Topic:    "camera_requests",
		AckText:  "Camera analysis request submitted: %s",
		Pub:      pub,
	}
}
