// Package conversation contains the domain model of a chat turn: the
// classified intent, the single pending action awaiting confirmation, and
// the one-turn clarification context.
package conversation

// IntentType identifies what the user is trying to do.
type IntentType string

const (
	IntentLogFood    IntentType = "log_food"
	IntentSaveRecipe IntentType = "save_recipe"
	IntentLogRecipe  IntentType = "log_recipe"
	IntentUpdateGoal IntentType = "update_goal"
	IntentQuestion   IntentType = "question"
	IntentInsight    IntentType = "insight"
	IntentGreeting   IntentType = "greeting"
	IntentMemory     IntentType = "memory_store"
	IntentConfirm    IntentType = "confirm"
	IntentDecline    IntentType = "decline"
	IntentCancel     IntentType = "cancel"
	IntentUnknown    IntentType = "unknown"
)

// AmbiguityLevel grades the risk that a literal reading of the utterance is
// wrong by a large margin.
type AmbiguityLevel string

const (
	AmbiguityNone   AmbiguityLevel = "none"
	AmbiguityLow    AmbiguityLevel = "low"
	AmbiguityMedium AmbiguityLevel = "medium"
	AmbiguityHigh   AmbiguityLevel = "high"
)

// GoalField names a nutrition goal that can be updated.
type GoalField struct {
	Nutrient string  `json:"nutrient"`
	Target   float64 `json:"target"`
	DayType  string  `json:"day_type,omitempty"` // training|rest|"" for all days
}

// Intent is the ephemeral classification of one utterance.
type Intent struct {
	Type             IntentType     `json:"type"`
	Ambiguity        AmbiguityLevel `json:"ambiguity_level"`
	AmbiguityReasons []string       `json:"ambiguity_reasons,omitempty"`
	FoodItems        []string       `json:"food_items,omitempty"`
	Portions         []string       `json:"portions,omitempty"`
	Goals            []GoalField    `json:"goals,omitempty"`
	DayType          string         `json:"day_type,omitempty"`
}

// IsMutating reports whether acting on this intent would write to the
// persistent store, which clears any unrelated pending action.
func (i *Intent) IsMutating() bool {
	switch i.Type {
	case IntentLogFood, IntentSaveRecipe, IntentLogRecipe, IntentUpdateGoal:
		return true
	default:
		return false
	}
}

// ClarificationContext is stored when a highly ambiguous utterance triggers
// the single allowed clarifying question. It lives for at most one turn:
// consumed and cleared on the next message, never issued twice for the same
// root utterance.
type ClarificationContext struct {
	OriginalMessage  string   `json:"original_message"`
	AmbiguityReasons []string `json:"ambiguity_reasons,omitempty"`
	PartialIntent    *Intent  `json:"partial_intent,omitempty"`
}
