package orchestrator

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/mealmind/v1/internal/application/intent"
	appnutrition "github.com/mealmind/v1/internal/application/nutrition"
	"github.com/mealmind/v1/internal/application/portion"
	"github.com/mealmind/v1/internal/application/reasoning"
	"github.com/mealmind/v1/internal/application/recipeflow"
	"github.com/mealmind/v1/internal/application/tools"
	"github.com/mealmind/v1/internal/domain/conversation"
	"github.com/mealmind/v1/internal/domain/nutrition"
	"github.com/mealmind/v1/internal/domain/recipe"
	"github.com/mealmind/v1/internal/ports/inbound"
	"github.com/mealmind/v1/internal/ports/outbound"

	"github.com/google/uuid"
)

// fakeLLM routes strict-JSON calls by prompt kind and replays chat responses.
type fakeLLM struct {
	mu               sync.Mutex
	classifications  []string
	chats            []*outbound.ChatResponse
	parseReply       string
	nutritionReplies map[string]string
	panicOnChat      bool
}

func (f *fakeLLM) Chat(context.Context, []outbound.ChatMessage, []outbound.ToolDefinition) (*outbound.ChatResponse, error) {
	if f.panicOnChat {
		panic("chat exploded")
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	if len(f.chats) == 0 {
		return &outbound.ChatResponse{Content: "done"}, nil
	}
	resp := f.chats[0]
	f.chats = f.chats[1:]
	return resp, nil
}

func (f *fakeLLM) CompleteJSON(_ context.Context, system, user string, out any) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	switch {
	case strings.Contains(system, "classify messages"):
		if len(f.classifications) == 0 {
			return json.Unmarshal([]byte(`{"type": "unknown", "ambiguity": "none"}`), out)
		}
		reply := f.classifications[0]
		f.classifications = f.classifications[1:]
		return json.Unmarshal([]byte(reply), out)
	case strings.Contains(system, "extract recipes"):
		return json.Unmarshal([]byte(f.parseReply), out)
	default:
		for food, reply := range f.nutritionReplies {
			if strings.Contains(user, fmt.Sprintf("%q", food)) {
				return json.Unmarshal([]byte(reply), out)
			}
		}
		return errors.New("no reply scripted")
	}
}

func (f *fakeLLM) CompleteText(context.Context, string, string) (string, error) {
	return "", errors.New("not used")
}

type fakeSessions struct {
	mu      sync.Mutex
	pending map[string]*conversation.PendingAction
	clar    map[string]*conversation.ClarificationContext
}

func newFakeSessions() *fakeSessions {
	return &fakeSessions{
		pending: make(map[string]*conversation.PendingAction),
		clar:    make(map[string]*conversation.ClarificationContext),
	}
}

func (f *fakeSessions) GetPendingAction(_ context.Context, userID string) (*conversation.PendingAction, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.pending[userID], nil
}

func (f *fakeSessions) SavePendingAction(_ context.Context, a *conversation.PendingAction) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.pending[a.UserID] = a
	return nil
}

func (f *fakeSessions) ClearPendingAction(_ context.Context, userID string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	delete(f.pending, userID)
	return nil
}

func (f *fakeSessions) GetClarification(_ context.Context, userID string) (*conversation.ClarificationContext, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.clar[userID], nil
}

func (f *fakeSessions) SaveClarification(_ context.Context, userID string, cc *conversation.ClarificationContext) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.clar[userID] = cc
	return nil
}

func (f *fakeSessions) ClearClarification(_ context.Context, userID string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	delete(f.clar, userID)
	return nil
}

func (f *fakeSessions) GetDayType(context.Context, string, time.Time) (string, error) {
	return "", nil
}

func (f *fakeSessions) SetDayType(context.Context, string, time.Time, string) error {
	return nil
}

type fakeFoodLogRepo struct {
	mu       sync.Mutex
	entries  []*outbound.FoodLogEntry
	batchErr error
}

func (f *fakeFoodLogRepo) Create(_ context.Context, e *outbound.FoodLogEntry) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.entries = append(f.entries, e)
	return nil
}

func (f *fakeFoodLogRepo) CreateBatch(_ context.Context, es []*outbound.FoodLogEntry) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.batchErr != nil {
		return f.batchErr
	}
	f.entries = append(f.entries, es...)
	return nil
}

func (f *fakeFoodLogRepo) ListByDay(context.Context, string, time.Time) ([]*outbound.FoodLogEntry, error) {
	return nil, nil
}

func (f *fakeFoodLogRepo) ListRecent(context.Context, string, int) ([]*outbound.FoodLogEntry, error) {
	return nil, nil
}

type fakeGoalRepo struct {
	upserts []*outbound.Goal
}

func (f *fakeGoalRepo) Upsert(_ context.Context, g *outbound.Goal) error {
	f.upserts = append(f.upserts, g)
	return nil
}

func (f *fakeGoalRepo) List(context.Context, string) ([]*outbound.Goal, error) { return nil, nil }

func (f *fakeGoalRepo) Get(context.Context, string, string, string) (*outbound.Goal, error) {
	return nil, nil
}

type fakeMemoryRepo struct {
	facts []*outbound.MemoryFact
}

func (f *fakeMemoryRepo) Store(_ context.Context, fact *outbound.MemoryFact) error {
	f.facts = append(f.facts, fact)
	return nil
}

func (f *fakeMemoryRepo) Search(context.Context, string, string, int) ([]*outbound.MemoryFact, error) {
	return nil, nil
}

type fakeRecipeRepo struct{}

func (fakeRecipeRepo) Create(context.Context, *recipe.Recipe) error { return nil }
func (fakeRecipeRepo) Update(context.Context, *recipe.Recipe) error { return nil }
func (fakeRecipeRepo) FindByID(context.Context, uuid.UUID) (*recipe.Recipe, error) {
	return nil, nil
}
func (fakeRecipeRepo) FindByUserID(context.Context, string) ([]*recipe.Recipe, error) {
	return nil, nil
}
func (fakeRecipeRepo) FindByFingerprint(context.Context, string, string) (*recipe.Recipe, error) {
	return nil, nil
}

// resolveStub stands in for resolve_nutrition with canned results.
type resolveStub struct {
	results []*tools.ResolvedFood
	mu      sync.Mutex
}

func (r *resolveStub) Definition() outbound.ToolDefinition {
	return outbound.ToolDefinition{Name: "resolve_nutrition", Parameters: json.RawMessage(`{"type": "object"}`)}
}

func (r *resolveStub) Execute(context.Context, string, json.RawMessage) (any, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if len(r.results) == 0 {
		return nil, errors.New("exhausted")
	}
	result := r.results[0]
	r.results = r.results[1:]
	return result, nil
}

type harness struct {
	svc      inbound.AssistantService
	llm      *fakeLLM
	sessions *fakeSessions
	foodLog  *fakeFoodLogRepo
	goals    *fakeGoalRepo
	memory   *fakeMemoryRepo
	resolve  *resolveStub
}

func newHarness(llm *fakeLLM) *harness {
	logger := zap.NewNop()
	sessions := newFakeSessions()
	foodLog := &fakeFoodLogRepo{}
	goals := &fakeGoalRepo{}
	memory := &fakeMemoryRepo{}
	resolve := &resolveStub{}

	pipeline := appnutrition.NewPipeline(nil, llm, nil, logger)
	nutritionSvc := appnutrition.NewService(pipeline, portion.NewResolver(nil, llm, logger), logger)

	registry := tools.NewRegistry(logger,
		resolve,
		&tools.ProposeFoodLogTool{Nutrition: nutritionSvc},
		&tools.ProposeGoalUpdateTool{},
		&tools.SaveMemoryTool{Memory: memory},
		&tools.InsightsTool{FoodLog: foodLog, Goals: goals},
	)

	machine := recipeflow.NewMachine(fakeRecipeRepo{}, foodLog, nutritionSvc, llm, logger)
	engine := reasoning.NewEngine(llm, registry, logger)
	classifier := intent.NewClassifier(llm, logger)

	svc := NewService(classifier, engine, registry, machine, sessions, foodLog, goals, logger)
	return &harness{svc: svc, llm: llm, sessions: sessions, foodLog: foodLog, goals: goals, memory: memory, resolve: resolve}
}

const logFoodClassification = `{"type": "log_food", "ambiguity": "none", "food_items": ["egg"], "portions": ["2 eggs"]}`

func proposeEggsChat() *outbound.ChatResponse {
	return &outbound.ChatResponse{ToolCalls: []outbound.ToolCall{{
		ID:   "c1",
		Name: "propose_food_log",
		Arguments: json.RawMessage(`{"items": [
			{"name": "egg", "portion": "2 eggs", "nutrients": {"calories": 144, "protein": 12.6, "carbs": 0.8, "fat": 9.6}}
		]}`),
	}}}
}

func TestProposeConfirmCommit(t *testing.T) {
	llm := &fakeLLM{
		classifications: []string{logFoodClassification},
		chats:           []*outbound.ChatResponse{proposeEggsChat(), {Content: "Ready to log."}},
	}
	h := newHarness(llm)
	ctx := context.Background()

	reply, err := h.svc.Send(ctx, "I had 2 eggs", "u1", "UTC")
	require.NoError(t, err)
	assert.Equal(t, inbound.ResponseConfirmation, reply.ResponseType)
	assert.Empty(t, h.foodLog.entries, "no write before confirmation")
	pending := h.sessions.pending["u1"]
	require.NotNil(t, pending)
	assert.Equal(t, conversation.ActionFoodLog, pending.Kind)

	reply, err = h.svc.Send(ctx, "yes", "u1", "UTC")
	require.NoError(t, err)
	assert.Equal(t, inbound.ResponseAnswer, reply.ResponseType)
	assert.Len(t, h.foodLog.entries, 1)
	assert.Equal(t, "egg", h.foodLog.entries[0].Name)
	assert.Nil(t, h.sessions.pending["u1"], "pending cleared after commit")
}

func TestCancelDiscardsPending(t *testing.T) {
	llm := &fakeLLM{
		classifications: []string{logFoodClassification},
		chats:           []*outbound.ChatResponse{proposeEggsChat(), {Content: "Ready."}},
	}
	h := newHarness(llm)
	ctx := context.Background()

	_, err := h.svc.Send(ctx, "I had 2 eggs", "u1", "UTC")
	require.NoError(t, err)

	reply, err := h.svc.Send(ctx, "no", "u1", "UTC")
	require.NoError(t, err)
	assert.Contains(t, reply.Message, "cancelled")
	assert.Empty(t, h.foodLog.entries)
	assert.Nil(t, h.sessions.pending["u1"])
}

func TestButtonPayloadConfirm(t *testing.T) {
	llm := &fakeLLM{
		classifications: []string{logFoodClassification},
		chats:           []*outbound.ChatResponse{proposeEggsChat(), {Content: "Ready."}},
	}
	h := newHarness(llm)
	ctx := context.Background()

	reply, err := h.svc.Send(ctx, "I had 2 eggs", "u1", "UTC")
	require.NoError(t, err)
	data := reply.Data.(map[string]any)
	confirmPayload := data["confirm"].(string)

	_, err = h.svc.Send(ctx, confirmPayload, "u1", "UTC")
	require.NoError(t, err)
	assert.Len(t, h.foodLog.entries, 1)
}

func TestUnrelatedAffirmativeDoesNotCommit(t *testing.T) {
	llm := &fakeLLM{
		classifications: []string{
			logFoodClassification,
			`{"type": "question", "ambiguity": "none"}`,
		},
		chats: []*outbound.ChatResponse{
			proposeEggsChat(),
			{Content: "Ready."},
			{Content: "Glad the workout went well!"},
		},
	}
	h := newHarness(llm)
	ctx := context.Background()

	_, err := h.svc.Send(ctx, "I had 2 eggs", "u1", "UTC")
	require.NoError(t, err)

	reply, err := h.svc.Send(ctx, "yes that workout was amazing, felt so strong", "u1", "UTC")
	require.NoError(t, err)
	assert.Empty(t, h.foodLog.entries, "free-form affirmative language must not commit")
	assert.NotNil(t, h.sessions.pending["u1"], "non-mutating turn keeps the proposal pending")
	assert.Equal(t, inbound.ResponseAnswer, reply.ResponseType)
}

func TestClarifyAtMostOnce(t *testing.T) {
	highAmbiguity := `{"type": "log_food", "ambiguity": "high", "ambiguity_reasons": ["no portion given for a calorie-dense food"], "food_items": ["lasagna"]}`
	llm := &fakeLLM{
		classifications: []string{highAmbiguity, highAmbiguity},
		chats:           []*outbound.ChatResponse{{Content: "Logged nothing, just chatting."}},
	}
	h := newHarness(llm)
	ctx := context.Background()

	reply, err := h.svc.Send(ctx, "I had lasagna", "u1", "UTC")
	require.NoError(t, err)
	assert.Equal(t, inbound.ResponseClarification, reply.ResponseType)
	assert.NotNil(t, h.sessions.clar["u1"])

	// Second pass stays ambiguous; the gate must proceed instead of asking
	// again.
	reply, err = h.svc.Send(ctx, "a normal amount I guess", "u1", "UTC")
	require.NoError(t, err)
	assert.NotEqual(t, inbound.ResponseClarification, reply.ResponseType)
	assert.Nil(t, h.sessions.clar["u1"], "clarification context consumed")
}

func TestClarificationConsumedByInterveningTurn(t *testing.T) {
	highLasagna := `{"type": "log_food", "ambiguity": "high", "ambiguity_reasons": ["no portion given"], "food_items": ["lasagna"]}`
	highCurry := `{"type": "log_food", "ambiguity": "high", "ambiguity_reasons": ["no portion given"], "food_items": ["curry"]}`
	llm := &fakeLLM{classifications: []string{highLasagna, highCurry}}
	h := newHarness(llm)
	ctx := context.Background()

	reply, err := h.svc.Send(ctx, "I had lasagna", "u1", "UTC")
	require.NoError(t, err)
	assert.Equal(t, inbound.ResponseClarification, reply.ResponseType)

	// A pleasantry never reaches the gate, but it must still use up the
	// saved context: it lives exactly one turn no matter the path taken.
	reply, err = h.svc.Send(ctx, "thanks!", "u1", "UTC")
	require.NoError(t, err)
	assert.Equal(t, inbound.ResponseAnswer, reply.ResponseType)
	assert.Nil(t, h.sessions.clar["u1"], "context consumed by the pleasantry turn")

	// The next ambiguous utterance is unrelated and gets its own question
	// instead of a silent downgrade.
	reply, err = h.svc.Send(ctx, "I also had curry", "u1", "UTC")
	require.NoError(t, err)
	assert.Equal(t, inbound.ResponseClarification, reply.ResponseType)
}

func proposeBreakfastChat() *outbound.ChatResponse {
	return &outbound.ChatResponse{ToolCalls: []outbound.ToolCall{{
		ID:   "c1",
		Name: "propose_food_log",
		Arguments: json.RawMessage(`{"items": [
			{"name": "egg", "portion": "2 eggs", "nutrients": {"calories": 144, "protein": 12.6, "carbs": 0.8, "fat": 9.6}},
			{"name": "toast", "portion": "1 slice", "nutrients": {"calories": 75, "protein": 2.7, "carbs": 13.7, "fat": 1.0}}
		]}`),
	}}}
}

func TestFailedCommitWritesNothingAndKeepsPending(t *testing.T) {
	llm := &fakeLLM{
		classifications: []string{logFoodClassification},
		chats:           []*outbound.ChatResponse{proposeBreakfastChat(), {Content: "Ready."}},
	}
	h := newHarness(llm)
	ctx := context.Background()

	reply, err := h.svc.Send(ctx, "I had 2 eggs and a slice of toast", "u1", "UTC")
	require.NoError(t, err)
	require.Equal(t, inbound.ResponseConfirmation, reply.ResponseType)
	require.Len(t, h.sessions.pending["u1"].FoodLog.Items, 2)

	h.foodLog.batchErr = errors.New("disk full")
	_, err = h.svc.Send(ctx, "yes", "u1", "UTC")
	require.Error(t, err)
	assert.Empty(t, h.foodLog.entries, "a failed commit must not half-persist")
	require.NotNil(t, h.sessions.pending["u1"], "proposal survives the failure")

	// A retried confirmation commits everything exactly once.
	h.foodLog.batchErr = nil
	_, err = h.svc.Send(ctx, "yes", "u1", "UTC")
	require.NoError(t, err)
	assert.Len(t, h.foodLog.entries, 2)
	assert.Nil(t, h.sessions.pending["u1"])
}

func TestLoggingSafetyNet(t *testing.T) {
	resolved := &tools.ResolvedFood{
		Name:      "egg",
		Portion:   "2 eggs",
		Nutrients: eggVector(),
	}
	llm := &fakeLLM{
		classifications: []string{logFoodClassification},
		chats: []*outbound.ChatResponse{
			{ToolCalls: []outbound.ToolCall{{ID: "c1", Name: "resolve_nutrition", Arguments: json.RawMessage(`{"food_name": "egg"}`)}}},
			{Content: "Eggs have about 144 kcal."}, // resolved but never proposed
		},
	}
	h := newHarness(llm)
	h.resolve.results = []*tools.ResolvedFood{resolved}
	ctx := context.Background()

	reply, err := h.svc.Send(ctx, "log 2 eggs", "u1", "UTC")
	require.NoError(t, err)
	assert.Equal(t, inbound.ResponseConfirmation, reply.ResponseType, "resolved loggable data must not be dropped")
	pending := h.sessions.pending["u1"]
	require.NotNil(t, pending)
	require.NotNil(t, pending.FoodLog)
	assert.Equal(t, "egg", pending.FoodLog.Items[0].Name)
}

func TestPanicReturnsApology(t *testing.T) {
	llm := &fakeLLM{
		classifications: []string{`{"type": "question", "ambiguity": "none"}`},
		panicOnChat:     true,
	}
	h := newHarness(llm)

	reply, err := h.svc.Send(context.Background(), "why is the sky blue?", "u1", "UTC")
	require.NoError(t, err)
	assert.Equal(t, inbound.ResponseError, reply.ResponseType)
	assert.Equal(t, apology, reply.Message)
}

func TestPleasantryFastPath(t *testing.T) {
	h := newHarness(&fakeLLM{})

	reply, err := h.svc.Send(context.Background(), "thanks!", "u1", "UTC")
	require.NoError(t, err)
	assert.Equal(t, inbound.ResponseAnswer, reply.ResponseType)
}

func TestMemoryStoreRoute(t *testing.T) {
	llm := &fakeLLM{
		classifications: []string{`{"type": "memory_store", "ambiguity": "none"}`},
	}
	h := newHarness(llm)

	reply, err := h.svc.Send(context.Background(), "remember that I'm lactose intolerant", "u1", "UTC")
	require.NoError(t, err)
	assert.Contains(t, reply.Message, "remember")
	require.Len(t, h.memory.facts, 1)
	assert.Contains(t, h.memory.facts[0].Content, "lactose")
}

func TestGoalUpdateCommit(t *testing.T) {
	llm := &fakeLLM{
		classifications: []string{`{"type": "update_goal", "ambiguity": "none", "goals": [{"nutrient": "protein", "target": 160}]}`},
		chats: []*outbound.ChatResponse{
			{ToolCalls: []outbound.ToolCall{{
				ID:        "c1",
				Name:      "propose_goal_update",
				Arguments: json.RawMessage(`{"goals": [{"nutrient": "protein", "target": 160, "day_type": "training"}]}`),
			}}},
			{Content: "Proposing."},
		},
	}
	h := newHarness(llm)
	ctx := context.Background()

	reply, err := h.svc.Send(ctx, "set protein to 160 on training days", "u1", "UTC")
	require.NoError(t, err)
	assert.Equal(t, inbound.ResponseConfirmation, reply.ResponseType)
	assert.Empty(t, h.goals.upserts)

	_, err = h.svc.Send(ctx, "confirm", "u1", "UTC")
	require.NoError(t, err)
	require.Len(t, h.goals.upserts, 1)
	assert.Equal(t, "protein_g", h.goals.upserts[0].Nutrient)
	assert.Equal(t, "training", h.goals.upserts[0].DayType)
}

func eggVector() *nutrition.Vector {
	v := nutrition.NewVector(nutrition.ConfidenceMedium)
	v.Set(nutrition.KeyCalories, 144)
	v.Set(nutrition.KeyProtein, 12.6)
	v.Set(nutrition.KeyCarbs, 0.8)
	v.Set(nutrition.KeyFatTotal, 9.6)
	return v
}
