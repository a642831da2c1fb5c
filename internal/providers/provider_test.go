package providers

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestProvider_ImplementsLLMProvider(t *testing.T) {
	var _ LLMProvider = &Provider{}
}

// --- Response Parsing ---

func TestParseResponse_TextOnly(t *testing.T) {
	body := `{"choices":[{"message":{"content":"Hello!"},"finish_reason":"stop"}],"usage":{"prompt_tokens":10,"completion_tokens":5,"total_tokens":15}}`
	resp, err := parseResponse([]byte(body))
	require.NoError(t, err)
	require.NotNil(t, resp.Content)
	assert.Equal(t, "Hello!", *resp.Content)
	assert.Equal(t, "stop", resp.FinishReason)
	assert.False(t, resp.HasToolCalls())
	assert.Equal(t, 15, resp.Usage["total_tokens"])
}

func TestParseResponse_ToolCalls(t *testing.T) {
	body := `{"choices":[{"message":{"content":null,"tool_calls":[{"id":"call_1","function":{"name":"camera_analysis","arguments":"{\"query\":\"check the room\"}"}}]},"finish_reason":"tool_calls"}]}`
	resp, err := parseResponse([]byte(body))
	require.NoError(t, err)
	assert.True(t, resp.HasToolCalls())
	require.Len(t, resp.ToolCalls, 1)
	assert.Equal(t, "camera_analysis", resp.ToolCalls[0].Name)
	assert.Equal(t, "check the room", resp.ToolCalls[0].Arguments["query"])
}

func TestParseResponse_EmptyChoices(t *testing.T) {
	resp, err := parseResponse([]byte(`{"choices":[]}`))
	require.NoError(t, err)
	assert.Contains(t, *resp.Content, "no choices")
	assert.Equal(t, "error", resp.FinishReason)
}

func TestParseResponse_InvalidJSON(t *testing.T) {
	resp, err := parseResponse([]byte("not json"))
	require.NoError(t, err) // graceful error
	assert.Contains(t, *resp.Content, "Error parsing")
}

// --- Message building ---

func TestBuildMessages_ImagePart(t *testing.T) {
	msgs := buildMessages([]Message{
		{Role: "system", Content: "You are a camera analysis agent."},
		{Role: "user", Content: "What do you see?", ImageJPEG: []byte{0xff, 0xd8, 0xff}},
	})
	require.Len(t, msgs, 2)
	assert.Equal(t, "You are a camera analysis agent.", msgs[0]["content"])

	parts, ok := msgs[1]["content"].([]map[string]any)
	require.True(t, ok)
	require.Len(t, parts, 2)
	assert.Equal(t, "text", parts[0]["type"])
	imageURL := parts[1]["image_url"].(map[string]any)["url"].(string)
	assert.True(t, strings.HasPrefix(imageURL, "data:image/jpeg;base64,"))
}

// --- Integration with Mock Server ---

func TestProvider_Chat_MockServer(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "POST", r.Method)
		assert.Equal(t, "Bearer test-key", r.Header.Get("Authorization"))

		var body map[string]any
		json.NewDecoder(r.Body).Decode(&body)
		assert.Equal(t, "gpt-4o-mini", body["model"])

		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(map[string]any{
			"choices": []map[string]any{
				{"message": map[string]any{"content": "All clear"}, "finish_reason": "stop"},
			},
		})
	}))
	defer server.Close()

	p := NewProvider("test-key", server.URL, "gpt-4o-mini")
	resp, err := p.Chat(context.Background(), ChatRequest{
		Messages: []Message{{Role: "user", Content: "Hello"}},
	})
	require.NoError(t, err)
	require.NotNil(t, resp.Content)
	assert.Equal(t, "All clear", *resp.Content)
}

func TestProvider_Chat_SendsTools(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var body map[string]any
		json.NewDecoder(r.Body).Decode(&body)
		assert.NotNil(t, body["tools"])
		assert.Equal(t, "auto", body["tool_choice"])

		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(map[string]any{
			"choices": []map[string]any{
				{
					"message": map[string]any{
						"content": nil,
						"tool_calls": []map[string]any{
							{"id": "call_abc", "function": map[string]any{
								"name":      "ecg_analysis_tool",
								"arguments": `{"query":"resting rhythm"}`,
							}},
						},
					},
					"finish_reason": "tool_calls",
				},
			},
		})
	}))
	defer server.Close()

	p := NewProvider("key", server.URL, "gpt-4o-mini")
	resp, err := p.Chat(context.Background(), ChatRequest{
		Messages: []Message{{Role: "user", Content: "Check my ECG"}},
		Tools: []map[string]any{
			{"type": "function", "function": map[string]any{"name": "ecg_analysis_tool"}},
		},
	})
	require.NoError(t, err)
	assert.True(t, resp.HasToolCalls())
	assert.Equal(t, "ecg_analysis_tool", resp.ToolCalls[0].Name)
}

func TestProvider_Chat_HTTPErrorBecomesErrorText(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(500)
		w.Write([]byte("internal error"))
	}))
	defer server.Close()

	p := NewProvider("key", server.URL, "gpt-4o-mini")
	resp, err := p.Chat(context.Background(), ChatRequest{
		Messages: []Message{{Role: "user", Content: "Hello"}},
	})
	require.NoError(t, err)
	assert.Contains(t, *resp.Content, "Error calling LLM")
	assert.Equal(t, "error", resp.FinishReason)
}

func TestProvider_Defaults(t *testing.T) {
	p := NewProvider("", "", "")
	assert.Equal(t, "gpt-4o-mini", p.DefaultModel())
	assert.Equal(t, "https://api.openai.com/v1", p.APIBase)
}
