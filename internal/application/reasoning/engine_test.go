package reasoning

import (
	"context"
	"encoding/json"
	"errors"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/mealmind/v1/internal/application/tools"
	"github.com/mealmind/v1/internal/domain/conversation"
	"github.com/mealmind/v1/internal/ports/outbound"
)

// scriptedChat replays canned responses and records the transcript it was
// shown on each call.
type scriptedChat struct {
	responses   []*outbound.ChatResponse
	transcripts [][]outbound.ChatMessage
}

func (s *scriptedChat) Chat(_ context.Context, messages []outbound.ChatMessage, _ []outbound.ToolDefinition) (*outbound.ChatResponse, error) {
	s.transcripts = append(s.transcripts, messages)
	if len(s.responses) == 0 {
		return &outbound.ChatResponse{Content: "done"}, nil
	}
	resp := s.responses[0]
	s.responses = s.responses[1:]
	return resp, nil
}

func (s *scriptedChat) CompleteJSON(context.Context, string, string, any) error {
	return errors.New("not used")
}

func (s *scriptedChat) CompleteText(context.Context, string, string) (string, error) {
	return "", errors.New("not used")
}

type countingTool struct {
	name   string
	result any
	err    error

	mu    sync.Mutex
	calls int
}

func (c *countingTool) Definition() outbound.ToolDefinition {
	return outbound.ToolDefinition{Name: c.name, Parameters: json.RawMessage(`{"type": "object"}`)}
}

func (c *countingTool) Execute(context.Context, string, json.RawMessage) (any, error) {
	c.mu.Lock()
	c.calls++
	c.mu.Unlock()
	return c.result, c.err
}

func userMessage(text string) []outbound.ChatMessage {
	return []outbound.ChatMessage{{Role: outbound.RoleUser, Content: text}}
}

func TestRunDirectText(t *testing.T) {
	llm := &scriptedChat{responses: []*outbound.ChatResponse{{Content: "Protein helps build muscle."}}}
	registry := tools.NewRegistry(zap.NewNop())
	e := NewEngine(llm, registry, zap.NewNop())

	out, err := e.Run(context.Background(), "u1", "You are a nutrition assistant.", userMessage("why protein?"))
	require.NoError(t, err)
	assert.Equal(t, "Protein helps build muscle.", out.Text)
	assert.Nil(t, out.Proposal)
	assert.Len(t, llm.transcripts, 1)
}

func TestRunToolLoopAccumulatesResults(t *testing.T) {
	tool := &countingTool{name: "resolve_nutrition", result: map[string]any{"name": "egg"}}
	registry := tools.NewRegistry(zap.NewNop(), tool)

	llm := &scriptedChat{responses: []*outbound.ChatResponse{
		{ToolCalls: []outbound.ToolCall{
			{ID: "c1", Name: "resolve_nutrition", Arguments: json.RawMessage(`{"food_name": "egg"}`)},
			{ID: "c2", Name: "resolve_nutrition", Arguments: json.RawMessage(`{"food_name": "rice"}`)},
		}},
		{Content: "Logged results."},
	}}
	e := NewEngine(llm, registry, zap.NewNop())

	out, err := e.Run(context.Background(), "u1", "system", userMessage("log eggs and rice"))
	require.NoError(t, err)
	assert.Equal(t, 2, tool.calls)
	assert.Len(t, out.Gathered["resolve_nutrition"], 2, "repeat calls append")

	// Second model call must see the assistant tool-call turn plus one tool
	// message per call, each tied to its call id.
	second := llm.transcripts[1]
	require.Len(t, second, 5) // system, user, assistant, tool, tool
	assert.Equal(t, outbound.RoleAssistant, second[2].Role)
	assert.Equal(t, outbound.RoleTool, second[3].Role)
	assert.Equal(t, "c1", second[3].ToolCallID)
	assert.Equal(t, "c2", second[4].ToolCallID)
}

func TestRunIterationCap(t *testing.T) {
	tool := &countingTool{name: "get_progress", result: map[string]any{"entries": 0}}
	registry := tools.NewRegistry(zap.NewNop(), tool)

	// Always request another tool call; the loop must stop at the cap.
	llm := &scriptedChat{}
	for i := 0; i < 10; i++ {
		llm.responses = append(llm.responses, &outbound.ChatResponse{
			Content:   "checking...",
			ToolCalls: []outbound.ToolCall{{ID: "c", Name: "get_progress", Arguments: json.RawMessage(`{}`)}},
		})
	}
	e := NewEngine(llm, registry, zap.NewNop())

	out, err := e.Run(context.Background(), "u1", "system", userMessage("how am I doing?"))
	require.NoError(t, err)
	assert.Len(t, llm.transcripts, MaxIterations)
	assert.Equal(t, MaxIterations, tool.calls)
	assert.Equal(t, "checking...", out.Text, "uses whatever text exists at the cap")
}

func TestRunToolFailureFedBackAsEnvelope(t *testing.T) {
	tool := &countingTool{name: "get_profile", err: errors.New("store unavailable")}
	registry := tools.NewRegistry(zap.NewNop(), tool)

	llm := &scriptedChat{responses: []*outbound.ChatResponse{
		{ToolCalls: []outbound.ToolCall{{ID: "c1", Name: "get_profile", Arguments: json.RawMessage(`{}`)}}},
		{Content: "Sorry, I couldn't load your profile."},
	}}
	e := NewEngine(llm, registry, zap.NewNop())

	out, err := e.Run(context.Background(), "u1", "system", userMessage("what's my timezone?"))
	require.NoError(t, err, "tool failures never abort the run")
	assert.Empty(t, out.Gathered["get_profile"])

	second := llm.transcripts[1]
	last := second[len(second)-1]
	assert.Equal(t, outbound.RoleTool, last.Role)
	assert.Contains(t, last.Content, `"error":true`)
}

func TestRunUnknownToolRejected(t *testing.T) {
	registry := tools.NewRegistry(zap.NewNop())
	llm := &scriptedChat{responses: []*outbound.ChatResponse{
		{ToolCalls: []outbound.ToolCall{{ID: "c1", Name: "rm_rf", Arguments: json.RawMessage(`{}`)}}},
		{Content: "I can't do that."},
	}}
	e := NewEngine(llm, registry, zap.NewNop())

	out, err := e.Run(context.Background(), "u1", "system", userMessage("hack the planet"))
	require.NoError(t, err)
	assert.Equal(t, "I can't do that.", out.Text)

	second := llm.transcripts[1]
	last := second[len(second)-1]
	assert.Contains(t, last.Content, "unknown tool")
}

func TestRunMergesProposals(t *testing.T) {
	breakfast := &tools.Proposal{
		Kind:  conversation.ActionFoodLog,
		Items: []conversation.FoodLogItem{{Name: "eggs", Portion: "2 eggs"}},
	}
	lunch := &tools.Proposal{
		Kind:  conversation.ActionFoodLog,
		Items: []conversation.FoodLogItem{{Name: "rice", Portion: "1 cup"}},
	}
	goal := &tools.Proposal{
		Kind:  conversation.ActionGoalUpdate,
		Goals: []conversation.GoalField{{Nutrient: "protein_g", Target: 160}},
	}

	foodTool := &queuedTool{name: "propose_food_log", results: []any{breakfast, lunch}}
	goalTool := &countingTool{name: "propose_goal_update", result: goal}
	registry := tools.NewRegistry(zap.NewNop(), foodTool, goalTool)

	llm := &scriptedChat{responses: []*outbound.ChatResponse{
		{ToolCalls: []outbound.ToolCall{
			{ID: "c1", Name: "propose_food_log", Arguments: json.RawMessage(`{}`)},
			{ID: "c2", Name: "propose_goal_update", Arguments: json.RawMessage(`{}`)},
		}},
		{ToolCalls: []outbound.ToolCall{
			{ID: "c3", Name: "propose_food_log", Arguments: json.RawMessage(`{}`)},
		}},
		{Content: "Here's what I'll log."},
	}}
	e := NewEngine(llm, registry, zap.NewNop())

	out, err := e.Run(context.Background(), "u1", "system", userMessage("log my meals"))
	require.NoError(t, err)

	// Food logs batch and win over the goal proposal.
	require.NotNil(t, out.Proposal)
	assert.Equal(t, conversation.ActionFoodLog, out.Proposal.Kind)
	require.Len(t, out.Proposal.Items, 2)
	assert.Equal(t, "eggs", out.Proposal.Items[0].Name)
	assert.Equal(t, "rice", out.Proposal.Items[1].Name)
}

type queuedTool struct {
	name    string
	mu      sync.Mutex
	results []any
}

func (q *queuedTool) Definition() outbound.ToolDefinition {
	return outbound.ToolDefinition{Name: q.name, Parameters: json.RawMessage(`{"type": "object"}`)}
}

func (q *queuedTool) Execute(context.Context, string, json.RawMessage) (any, error) {
	q.mu.Lock()
	defer q.mu.Unlock()
	if len(q.results) == 0 {
		return nil, errors.New("queue exhausted")
	}
	result := q.results[0]
	q.results = q.results[1:]
	return result, nil
}
