// Package tools implements the closed catalog of operations the reasoning
// engine can invoke. Every tool validates and normalizes its inputs, and
// proposal builders run the nutrient-hierarchy checks before a payload can
// become a pending action. Unknown tool names are rejected at the boundary.
package tools

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"go.uber.org/zap"

	"github.com/mealmind/v1/internal/domain/conversation"
	"github.com/mealmind/v1/internal/domain/nutrition"
	"github.com/mealmind/v1/internal/ports/outbound"
)

// ErrUnknownTool rejects tool names outside the catalog.
var ErrUnknownTool = errors.New("unknown tool")

// Tool is one callable operation in the catalog.
type Tool interface {
	Definition() outbound.ToolDefinition
	Execute(ctx context.Context, userID string, args json.RawMessage) (any, error)
}

// ResolvedFood is the result of a resolve_nutrition call. The orchestrator's
// logging safety net also reads these out of gathered results.
type ResolvedFood struct {
	Name        string            `json:"name"`
	Portion     string            `json:"portion"`
	ServingSize string            `json:"serving_size"`
	Nutrients   *nutrition.Vector `json:"nutrients"`
}

// Proposal is a pending mutation produced by a proposal-builder tool. The
// reasoning engine merges proposals from one turn into the single pending
// action: food logs batch, other kinds first-wins.
type Proposal struct {
	Kind      conversation.ActionKind            `json:"kind"`
	Summary   string                             `json:"summary"`
	Items     []conversation.FoodLogItem         `json:"items,omitempty"`
	RecipeLog *conversation.RecipeLogPayload     `json:"recipe_log,omitempty"`
	Goals     []conversation.GoalField           `json:"goals,omitempty"`
	Excluded  []string                           `json:"excluded,omitempty"` // items dropped for lack of nutrition data
}

// Registry is the closed tool catalog.
type Registry struct {
	tools  map[string]Tool
	order  []string
	logger *zap.Logger
}

// NewRegistry builds a registry from the given tools.
func NewRegistry(logger *zap.Logger, tools ...Tool) *Registry {
	r := &Registry{
		tools:  make(map[string]Tool, len(tools)),
		logger: logger.Named("tool-registry"),
	}
	for _, t := range tools {
		name := t.Definition().Name
		if _, exists := r.tools[name]; !exists {
			r.order = append(r.order, name)
		}
		r.tools[name] = t
	}
	return r
}

// Definitions returns the catalog advertised to the language model, in
// registration order.
func (r *Registry) Definitions() []outbound.ToolDefinition {
	defs := make([]outbound.ToolDefinition, 0, len(r.order))
	for _, name := range r.order {
		defs = append(defs, r.tools[name].Definition())
	}
	return defs
}

// Has reports whether the catalog contains a tool.
func (r *Registry) Has(name string) bool {
	_, ok := r.tools[name]
	return ok
}

// Execute runs one tool call. Unknown names are rejected; tool failures are
// returned as errors for the caller to envelope into the transcript.
func (r *Registry) Execute(ctx context.Context, userID, name string, args json.RawMessage) (any, error) {
	t, ok := r.tools[name]
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrUnknownTool, name)
	}
	result, err := t.Execute(ctx, userID, args)
	if err != nil {
		r.logger.Warn("tool call failed",
			zap.String("tool", name),
			zap.String("user_id", userID),
			zap.Error(err))
		return nil, err
	}
	return result, nil
}
