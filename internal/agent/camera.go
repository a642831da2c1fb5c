package agent

import (
	"context"
	"fmt"
	"log"

	"github.com/liquidos-ai/medcluster/internal/bus"
	"github.com/liquidos-ai/medcluster/internal/providers"
)

const cameraSystemPrompt = `You are a medical visual assessment specialist.
You receive an image from the patient room camera and a question about
it. Describe what is clinically relevant: patient posture, visible
distress, equipment state, environment hazards. If the image is unclear,
say so rather than guessing.`

// ImageSource grabs one frame from the node's camera hardware.
// Satisfied by *capture.Camera.
type ImageSource interface {
	Capture() ([]byte, error)
}

// CameraAgent is a direct executor: capture one frame, describe it with a
// single vision call, return a framed result.
type CameraAgent struct {
	name   string
	camera ImageSource
	system string
}

// NewCameraAgent builds the visual assessment specialist over the given
// image source.
func NewCameraAgent(camera ImageSource) *CameraAgent {
	return &CameraAgent{name: "camera_agent", camera: camera, system: cameraSystemPrompt}
}

func (c *CameraAgent) Name() string { return c.name }

// Execute captures a frame and runs one vision call. Capture and provider
// failures both become framed error results so the requester always gets
// a response on the result topic.
func (c *CameraAgent) Execute(ctx context.Context, task bus.Task, actx *Context) (string, error) {
	if task.Prompt == SelfTestPrompt {
		return SelfTestResult, nil
	}

	log.Printf("[Camera] 📷 Capturing for task %s", task.ID)
	image, err := c.camera.Capture()
	if err != nil {
		log.Printf("[Camera] ❌ Capture failed: %v", err)
		return "### Camera Analysis Error\nCamera capture failed - no image analysis available", nil
	}

	resp, err := actx.Chat(ctx, []providers.Message{
		{Role: "system", Content: c.system},
		{Role: "user", Content: fmt.Sprintf("Analyze this image: %s", task.Prompt), ImageJPEG: image},
	}, nil)
	if err != nil {
		return "", err
	}

	text, failed := ResponseText(resp)
	if failed {
		return fmt.Sprintf("### Camera Analysis Error\nAI analysis failed: %s", text), nil
	}
	return fmt.Sprintf("### Camera Analysis Result\n%s", text), nil
}
