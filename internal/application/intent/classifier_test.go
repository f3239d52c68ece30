package intent

import (
	"context"
	"encoding/json"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"go.uber.org/zap"

	"github.com/mealmind/v1/internal/domain/conversation"
	"github.com/mealmind/v1/internal/ports/outbound"
)

type fakeClassifierLLM struct {
	reply string
	err   error
}

func (f *fakeClassifierLLM) Chat(context.Context, []outbound.ChatMessage, []outbound.ToolDefinition) (*outbound.ChatResponse, error) {
	return nil, errors.New("not used")
}

func (f *fakeClassifierLLM) CompleteText(context.Context, string, string) (string, error) {
	return "", errors.New("not used")
}

func (f *fakeClassifierLLM) CompleteJSON(_ context.Context, _, _ string, out any) error {
	if f.err != nil {
		return f.err
	}
	return json.Unmarshal([]byte(f.reply), out)
}

func TestClassifyLogFood(t *testing.T) {
	llm := &fakeClassifierLLM{reply: `{
		"type": "log_food",
		"ambiguity": "none",
		"food_items": ["chicken breast", "white rice"],
		"portions": ["200g", "1 cup"]
	}`}
	c := NewClassifier(llm, zap.NewNop())

	intent := c.Classify(context.Background(), "I had 200g chicken and a cup of rice", nil)
	assert.Equal(t, conversation.IntentLogFood, intent.Type)
	assert.Equal(t, conversation.AmbiguityNone, intent.Ambiguity)
	assert.Equal(t, []string{"chicken breast", "white rice"}, intent.FoodItems)
	assert.Equal(t, []string{"200g", "1 cup"}, intent.Portions)
	assert.True(t, intent.IsMutating())
}

func TestClassifyNormalizesGoalNutrients(t *testing.T) {
	llm := &fakeClassifierLLM{reply: `{
		"type": "update_goal",
		"ambiguity": "low",
		"goals": [{"nutrient": "protein", "target": 160, "day_type": "training"}]
	}`}
	c := NewClassifier(llm, zap.NewNop())

	intent := c.Classify(context.Background(), "set my protein to 160 on training days", nil)
	assert.Equal(t, conversation.IntentUpdateGoal, intent.Type)
	if assert.Len(t, intent.Goals, 1) {
		assert.Equal(t, "protein_g", intent.Goals[0].Nutrient)
		assert.InDelta(t, 160.0, intent.Goals[0].Target, 0.001)
		assert.Equal(t, "training", intent.Goals[0].DayType)
	}
}

func TestClassifyPadsPortions(t *testing.T) {
	llm := &fakeClassifierLLM{reply: `{
		"type": "log_food",
		"ambiguity": "medium",
		"food_items": ["pasta", "garlic bread"],
		"portions": ["1 cup"]
	}`}
	c := NewClassifier(llm, zap.NewNop())

	intent := c.Classify(context.Background(), "pasta with a cup of sauce and garlic bread", nil)
	assert.Len(t, intent.Portions, 2)
	assert.Equal(t, "", intent.Portions[1])
}

func TestClassifyUnknownTypeAndLevel(t *testing.T) {
	llm := &fakeClassifierLLM{reply: `{"type": "order_pizza", "ambiguity": "extreme"}`}
	c := NewClassifier(llm, zap.NewNop())

	intent := c.Classify(context.Background(), "order me a pizza", nil)
	assert.Equal(t, conversation.IntentUnknown, intent.Type)
	assert.Equal(t, conversation.AmbiguityNone, intent.Ambiguity)
}

func TestClassifyModelFailureDegradesToUnknown(t *testing.T) {
	llm := &fakeClassifierLLM{err: errors.New("timeout")}
	c := NewClassifier(llm, zap.NewNop())

	intent := c.Classify(context.Background(), "anything", []string{"user: hi"})
	assert.Equal(t, conversation.IntentUnknown, intent.Type)
	assert.False(t, intent.IsMutating())
}
