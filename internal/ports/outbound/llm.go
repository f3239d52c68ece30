// Package outbound defines the interfaces for outbound ports (secondary/driven adapters)
// These are the interfaces that the application uses to interact with external systems
package outbound

import (
	"context"
	"encoding/json"
)

// Chat roles used in the reasoning transcript.
const (
	RoleSystem    = "system"
	RoleUser      = "user"
	RoleAssistant = "assistant"
	RoleTool      = "tool"
)

// ToolDefinition describes one callable operation in the closed catalog
// advertised to the language model.
type ToolDefinition struct {
	Name        string          `json:"name"`
	Description string          `json:"description"`
	Parameters  json.RawMessage `json:"parameters"` // JSON schema
}

// ToolCall is a single tool-call request returned by the model.
type ToolCall struct {
	ID        string          `json:"id"`
	Name      string          `json:"name"`
	Arguments json.RawMessage `json:"arguments"`
}

// ChatMessage is one transcript entry.
type ChatMessage struct {
	Role       string     `json:"role"`
	Content    string     `json:"content,omitempty"`
	ToolCalls  []ToolCall `json:"tool_calls,omitempty"`
	ToolCallID string     `json:"tool_call_id,omitempty"`
	Name       string     `json:"name,omitempty"`
}

// ChatResponse is the model's reply: free text, tool-call requests, or both.
type ChatResponse struct {
	Content   string     `json:"content"`
	ToolCalls []ToolCall `json:"tool_calls,omitempty"`
}

// LanguageModel is the LLM reasoning service. Chat drives the tool-calling
// loop; CompleteJSON is the strict-JSON mode used for classification and
// extraction calls.
type LanguageModel interface {
	Chat(ctx context.Context, messages []ChatMessage, tools []ToolDefinition) (*ChatResponse, error)
	CompleteJSON(ctx context.Context, systemPrompt, userPrompt string, out any) error
	CompleteText(ctx context.Context, systemPrompt, userPrompt string) (string, error)
}
