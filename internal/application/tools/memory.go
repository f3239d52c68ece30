package tools

import (
	"context"
	"encoding/json"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/mealmind/v1/internal/ports/outbound"
	"github.com/mealmind/v1/pkg/errors"
)

// SaveMemoryTool stores a free-form fact about the user.
type SaveMemoryTool struct {
	Memory outbound.MemoryRepository
}

func (t *SaveMemoryTool) Definition() outbound.ToolDefinition {
	return outbound.ToolDefinition{
		Name:        "save_memory",
		Description: "Remember a fact about the user, such as a preference or dietary restriction.",
		Parameters: json.RawMessage(`{
			"type": "object",
			"properties": {"content": {"type": "string"}},
			"required": ["content"]
		}`),
	}
}

func (t *SaveMemoryTool) Execute(ctx context.Context, userID string, args json.RawMessage) (any, error) {
	var params struct {
		Content string `json:"content"`
	}
	if err := json.Unmarshal(args, &params); err != nil || strings.TrimSpace(params.Content) == "" {
		return nil, errors.NewValidationError("content is required")
	}

	fact := &outbound.MemoryFact{
		ID:        uuid.New(),
		UserID:    userID,
		Content:   strings.TrimSpace(params.Content),
		CreatedAt: time.Now(),
	}
	if err := t.Memory.Store(ctx, fact); err != nil {
		return nil, errors.NewExternalServiceError("memory store", err)
	}
	return map[string]any{"stored": true, "content": fact.Content}, nil
}

// SearchMemoryTool finds previously remembered facts.
type SearchMemoryTool struct {
	Memory outbound.MemoryRepository
}

func (t *SearchMemoryTool) Definition() outbound.ToolDefinition {
	return outbound.ToolDefinition{
		Name:        "search_memory",
		Description: "Search previously remembered facts about the user.",
		Parameters: json.RawMessage(`{
			"type": "object",
			"properties": {
				"query": {"type": "string"},
				"limit": {"type": "integer"}
			},
			"required": ["query"]
		}`),
	}
}

func (t *SearchMemoryTool) Execute(ctx context.Context, userID string, args json.RawMessage) (any, error) {
	var params struct {
		Query string `json:"query"`
		Limit int    `json:"limit"`
	}
	if err := json.Unmarshal(args, &params); err != nil || strings.TrimSpace(params.Query) == "" {
		return nil, errors.NewValidationError("query is required")
	}
	if params.Limit <= 0 || params.Limit > 20 {
		params.Limit = 5
	}

	facts, err := t.Memory.Search(ctx, userID, params.Query, params.Limit)
	if err != nil {
		return nil, errors.NewExternalServiceError("memory store", err)
	}
	return map[string]any{"facts": facts}, nil
}
