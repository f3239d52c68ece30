package openai

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/mealmind/v1/internal/ports/outbound"
)

func newTestClient(t *testing.T, handler http.HandlerFunc) *Client {
	t.Helper()
	server := httptest.NewServer(handler)
	t.Cleanup(server.Close)
	return NewClient(Config{APIKey: "test-key", BaseURL: server.URL, Model: "test-model"}, zap.NewNop())
}

func TestChatParsesToolCalls(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/chat/completions", r.URL.Path)
		assert.Equal(t, "Bearer test-key", r.Header.Get("Authorization"))

		var req chatCompletionRequest
		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		require.Len(t, req.Tools, 1)
		assert.Equal(t, "resolve_nutrition", req.Tools[0].Function.Name)

		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"choices": [{"message": {
			"role": "assistant",
			"content": "",
			"tool_calls": [{"id": "call_1", "type": "function", "function": {"name": "resolve_nutrition", "arguments": "{\"food_name\": \"egg\"}"}}]
		}}]}`))
	})

	resp, err := client.Chat(context.Background(),
		[]outbound.ChatMessage{{Role: outbound.RoleUser, Content: "log 2 eggs"}},
		[]outbound.ToolDefinition{{Name: "resolve_nutrition", Parameters: json.RawMessage(`{"type": "object"}`)}},
	)
	require.NoError(t, err)
	require.Len(t, resp.ToolCalls, 1)
	assert.Equal(t, "call_1", resp.ToolCalls[0].ID)
	assert.Equal(t, "resolve_nutrition", resp.ToolCalls[0].Name)
	assert.JSONEq(t, `{"food_name": "egg"}`, string(resp.ToolCalls[0].Arguments))
}

func TestCompleteJSONStripsProse(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		reply := map[string]any{"choices": []any{map[string]any{"message": map[string]any{
			"role":    "assistant",
			"content": "Here you go:\n```json\n{\"type\": \"log_food\"}\n```",
		}}}}
		_ = json.NewEncoder(w).Encode(reply)
	})

	var out struct {
		Type string `json:"type"`
	}
	require.NoError(t, client.CompleteJSON(context.Background(), "system", "user", &out))
	assert.Equal(t, "log_food", out.Type)
}

func TestCallSurfacesAPIError(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, _ *http.Request) {
		http.Error(w, `{"error": "rate limited"}`, http.StatusTooManyRequests)
	})

	_, err := client.CompleteText(context.Background(), "system", "user")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "429")
}

func TestExtractJSON(t *testing.T) {
	payload, err := extractJSON(`noise {"a": 1} trailing`)
	require.NoError(t, err)
	assert.Equal(t, `{"a": 1}`, payload)

	_, err = extractJSON("no json here")
	assert.Error(t, err)
}
