// Package intent classifies an utterance into a structured intent record
// using the language model's strict-JSON mode. Classification is best effort:
// a failed or malformed model call degrades to the unknown intent so the turn
// can still fall through to the reasoning engine.
package intent

import (
	"context"
	"fmt"
	"strings"

	"go.uber.org/zap"

	"github.com/mealmind/v1/internal/domain/conversation"
	"github.com/mealmind/v1/internal/domain/nutrition"
	"github.com/mealmind/v1/internal/ports/outbound"
)

const systemPrompt = `You classify messages sent to a nutrition assistant. Respond with strict JSON only:
{
  "type": "log_food|save_recipe|log_recipe|update_goal|question|insight|greeting|memory_store|confirm|decline|cancel|unknown",
  "ambiguity": "none|low|medium|high",
  "ambiguity_reasons": ["..."],
  "food_items": ["..."],
  "portions": ["..."],
  "goals": [{"nutrient": "...", "target": 0, "day_type": ""}],
  "day_type": ""
}
food_items and portions are parallel arrays: portions[i] is the stated portion of food_items[i], or "" when none was given. Set ambiguity to high only when a literal reading could be wrong by a large margin (missing portions for calorie-dense foods, contradictory quantities, unclear referents).`

var validTypes = map[string]conversation.IntentType{
	string(conversation.IntentLogFood):    conversation.IntentLogFood,
	string(conversation.IntentSaveRecipe): conversation.IntentSaveRecipe,
	string(conversation.IntentLogRecipe):  conversation.IntentLogRecipe,
	string(conversation.IntentUpdateGoal): conversation.IntentUpdateGoal,
	string(conversation.IntentQuestion):   conversation.IntentQuestion,
	string(conversation.IntentInsight):    conversation.IntentInsight,
	string(conversation.IntentGreeting):   conversation.IntentGreeting,
	string(conversation.IntentMemory):     conversation.IntentMemory,
	string(conversation.IntentConfirm):    conversation.IntentConfirm,
	string(conversation.IntentDecline):    conversation.IntentDecline,
	string(conversation.IntentCancel):     conversation.IntentCancel,
	string(conversation.IntentUnknown):    conversation.IntentUnknown,
}

var validAmbiguity = map[string]conversation.AmbiguityLevel{
	string(conversation.AmbiguityNone):   conversation.AmbiguityNone,
	string(conversation.AmbiguityLow):    conversation.AmbiguityLow,
	string(conversation.AmbiguityMedium): conversation.AmbiguityMedium,
	string(conversation.AmbiguityHigh):   conversation.AmbiguityHigh,
}

// classification is the wire shape returned by the model.
type classification struct {
	Type             string                   `json:"type"`
	Ambiguity        string                   `json:"ambiguity"`
	AmbiguityReasons []string                 `json:"ambiguity_reasons"`
	FoodItems        []string                 `json:"food_items"`
	Portions         []string                 `json:"portions"`
	Goals            []conversation.GoalField `json:"goals"`
	DayType          string                   `json:"day_type"`
}

// Classifier turns utterances into intent records.
type Classifier struct {
	llm    outbound.LanguageModel
	logger *zap.Logger
}

// NewClassifier creates an intent classifier.
func NewClassifier(llm outbound.LanguageModel, logger *zap.Logger) *Classifier {
	return &Classifier{
		llm:    llm,
		logger: logger.Named("intent-classifier"),
	}
}

// Classify classifies one message given recent conversation history. Model
// failures never surface: the unknown intent is returned instead so the
// caller can fall through to the reasoning engine.
func (c *Classifier) Classify(ctx context.Context, message string, history []string) *conversation.Intent {
	prompt := fmt.Sprintf("Message: %q", message)
	if len(history) > 0 {
		prompt = fmt.Sprintf("Recent conversation:\n%s\n\n%s", strings.Join(history, "\n"), prompt)
	}

	var out classification
	if err := c.llm.CompleteJSON(ctx, systemPrompt, prompt, &out); err != nil {
		c.logger.Warn("classification failed, treating as unknown", zap.Error(err))
		return &conversation.Intent{Type: conversation.IntentUnknown, Ambiguity: conversation.AmbiguityNone}
	}

	intent := &conversation.Intent{
		Type:             conversation.IntentUnknown,
		Ambiguity:        conversation.AmbiguityNone,
		AmbiguityReasons: out.AmbiguityReasons,
		FoodItems:        out.FoodItems,
		Portions:         out.Portions,
		DayType:          out.DayType,
	}
	if t, ok := validTypes[out.Type]; ok {
		intent.Type = t
	}
	if a, ok := validAmbiguity[out.Ambiguity]; ok {
		intent.Ambiguity = a
	}

	// Pad portions so the arrays stay parallel.
	for len(intent.Portions) < len(intent.FoodItems) {
		intent.Portions = append(intent.Portions, "")
	}

	for _, g := range out.Goals {
		if key, ok := nutrition.ResolveAlias(g.Nutrient); ok {
			g.Nutrient = string(key)
		}
		intent.Goals = append(intent.Goals, g)
	}

	return intent
}
