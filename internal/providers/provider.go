// Package providers — provider.go
// OpenAI-compatible LLM provider using standard HTTP. Works against direct
// OpenAI, OpenRouter, DeepSeek, and any other chat-completions endpoint.
package providers

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"
)

// Provider is an OpenAI-compatible LLM provider.
type Provider struct {
	APIKey       string
	APIBase      string
	Model        string // default model
	ExtraHeaders map[string]string
	HTTPClient   *http.Client
}

// NewProvider creates a Provider with the given config.
func NewProvider(apiKey, apiBase, defaultModel string) *Provider {
	if defaultModel == "" {
		defaultModel = "gpt-4o-mini"
	}
	if apiBase == "" {
		apiBase = "https://api.openai.com/v1"
	}
	return &Provider{
		APIKey:     apiKey,
		APIBase:    apiBase,
		Model:      defaultModel,
		HTTPClient: &http.Client{Timeout: 120 * time.Second},
	}
}

// DefaultModel satisfies the LLMProvider interface.
func (p *Provider) DefaultModel() string { return p.Model }

// Chat sends a chat completion request. Transport and API failures are
// returned as error-text responses (FinishReason "error"), never as Go
// errors, so callers can surface them to the operator directly.
func (p *Provider) Chat(ctx context.Context, req ChatRequest) (*LLMResponse, error) {
	model := req.Model
	if model == "" {
		model = p.Model
	}
	maxTokens := req.MaxTokens
	if maxTokens < 1 {
		maxTokens = 4096
	}

	body := map[string]any{
		"model":       model,
		"messages":    buildMessages(req.Messages),
		"max_tokens":  maxTokens,
		"temperature": req.Temperature,
	}
	if len(req.Tools) > 0 {
		body["tools"] = req.Tools
		body["tool_choice"] = "auto"
	}

	jsonBody, err := json.Marshal(body)
	if err != nil {
		return nil, fmt.Errorf("marshal request: %w", err)
	}

	endpoint := p.APIBase + "/chat/completions"
	httpReq, err := http.NewRequestWithContext(ctx, "POST", endpoint, bytes.NewReader(jsonBody))
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	httpReq.Header.Set("Content-Type", "application/json")
	if p.APIKey != "" {
		httpReq.Header.Set("Authorization", "Bearer "+p.APIKey)
	}
	for k, v := range p.ExtraHeaders {
		httpReq.Header.Set(k, v)
	}

	resp, err := p.HTTPClient.Do(httpReq)
	if err != nil {
		return errorResponse(fmt.Sprintf("Error calling LLM: %v", err)), nil
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return errorResponse(fmt.Sprintf("Error reading response: %v", err)), nil
	}
	if resp.StatusCode != 200 {
		return errorResponse(fmt.Sprintf("Error calling LLM (HTTP %d): %s", resp.StatusCode, string(respBody))), nil
	}

	return parseResponse(respBody)
}

// buildMessages converts to the wire format; a message carrying an image
// becomes a text part plus an image_url data-URL part.
func buildMessages(msgs []Message) []map[string]any {
	out := make([]map[string]any, 0, len(msgs))
	for _, m := range msgs {
		if len(m.ImageJPEG) == 0 {
			msg := map[string]any{"role": m.Role, "content": m.Content}
			if len(m.ToolCalls) > 0 {
				msg["tool_calls"] = m.ToolCalls
			}
			if m.ToolCallID != "" {
				msg["tool_call_id"] = m.ToolCallID
				msg["name"] = m.Name
			}
			out = append(out, msg)
			continue
		}
		dataURL := "data:image/jpeg;base64," + base64.StdEncoding.EncodeToString(m.ImageJPEG)
		out = append(out, map[string]any{
			"role": m.Role,
			"content": []map[string]any{
				{"type": "text", "text": m.Content},
				{"type": "image_url", "image_url": map[string]any{"url": dataURL}},
			},
		})
	}
	return out
}

// openAIResponse mirrors the OpenAI chat completion response structure.
type openAIResponse struct {
	Choices []struct {
		Message struct {
			Content   *string `json:"content"`
			ToolCalls []struct {
				ID       string `json:"id"`
				Function struct {
					Name      string `json:"name"`
					Arguments string `json:"arguments"`
				} `json:"function"`
			} `json:"tool_calls"`
		} `json:"message"`
		FinishReason string `json:"finish_reason"`
	} `json:"choices"`
	Usage *struct {
		PromptTokens     int `json:"prompt_tokens"`
		CompletionTokens int `json:"completion_tokens"`
		TotalTokens      int `json:"total_tokens"`
	} `json:"usage"`
}

func parseResponse(body []byte) (*LLMResponse, error) {
	var resp openAIResponse
	if err := json.Unmarshal(body, &resp); err != nil {
		return errorResponse(fmt.Sprintf("Error parsing response: %v", err)), nil
	}
	if len(resp.Choices) == 0 {
		return errorResponse("Error: no choices in response"), nil
	}

	choice := resp.Choices[0]
	msg := choice.Message

	var toolCalls []ToolCallRequest
	for _, tc := range msg.ToolCalls {
		var args map[string]any
		if tc.Function.Arguments != "" {
			json.Unmarshal([]byte(tc.Function.Arguments), &args)
		}
		toolCalls = append(toolCalls, ToolCallRequest{
			ID:        tc.ID,
			Name:      tc.Function.Name,
			Arguments: args,
		})
	}

	usage := map[string]int{}
	if resp.Usage != nil {
		usage["prompt_tokens"] = resp.Usage.PromptTokens
		usage["completion_tokens"] = resp.Usage.CompletionTokens
		usage["total_tokens"] = resp.Usage.TotalTokens
	}

	finishReason := choice.FinishReason
	if finishReason == "" {
		finishReason = "stop"
	}

	return &LLMResponse{
		Content:      msg.Content,
		ToolCalls:    toolCalls,
		FinishReason: finishReason,
		Usage:        usage,
	}, nil
}

func errorResponse(msg string) *LLMResponse {
	return &LLMResponse{Content: strPtr(msg), FinishReason: "error"}
}

func strPtr(s string) *string { return &s }
