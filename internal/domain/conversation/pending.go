package conversation

import (
	"time"

	"github.com/google/uuid"

	"github.com/mealmind/v1/internal/domain/nutrition"
	"github.com/mealmind/v1/internal/domain/recipe"
)

// ActionKind tags the pending-action union.
type ActionKind string

const (
	ActionFoodLog         ActionKind = "food_log"
	ActionRecipeLog       ActionKind = "recipe_log"
	ActionGoalUpdate      ActionKind = "goal_update"
	ActionBulkGoalUpdate  ActionKind = "bulk_goal_update"
	ActionRecipeSave      ActionKind = "recipe_save"
	ActionRecipeSelection ActionKind = "recipe_selection"
)

// FoodLogItem is one resolved food item awaiting confirmation.
type FoodLogItem struct {
	Name      string            `json:"name"`
	Portion   string            `json:"portion"`
	Nutrients *nutrition.Vector `json:"nutrients"`
}

// FoodLogPayload proposes logging one or more food items.
type FoodLogPayload struct {
	Items []FoodLogItem `json:"items"`
}

// RecipeLogPayload proposes logging servings of a saved recipe.
type RecipeLogPayload struct {
	RecipeID  string            `json:"recipe_id"`
	Name      string            `json:"name"`
	Servings  float64           `json:"servings"`
	Nutrients *nutrition.Vector `json:"nutrients"`
}

// GoalUpdatePayload proposes a single goal change.
type GoalUpdatePayload struct {
	Goal GoalField `json:"goal"`
}

// BulkGoalUpdatePayload proposes several goal changes at once.
type BulkGoalUpdatePayload struct {
	Goals []GoalField `json:"goals"`
}

// RecipeSelectionPayload asks the user to pick among duplicate candidates.
type RecipeSelectionPayload struct {
	Candidates []recipe.Candidate `json:"candidates"`
}

// PendingAction is the single per-user record of a proposed mutation.
// Exactly one payload field matching Kind is non-nil. A new proposal
// replaces it; confirm, cancel, or an unrelated mutating intent clears it.
type PendingAction struct {
	ID        uuid.UUID  `json:"id"`
	UserID    string     `json:"user_id"`
	Kind      ActionKind `json:"kind"`
	Summary   string     `json:"summary"`
	CreatedAt time.Time  `json:"created_at"`

	FoodLog         *FoodLogPayload         `json:"food_log,omitempty"`
	RecipeLog       *RecipeLogPayload       `json:"recipe_log,omitempty"`
	GoalUpdate      *GoalUpdatePayload      `json:"goal_update,omitempty"`
	BulkGoalUpdate  *BulkGoalUpdatePayload  `json:"bulk_goal_update,omitempty"`
	RecipeSave      *recipe.FlowState       `json:"recipe_save,omitempty"`
	RecipeSelection *RecipeSelectionPayload `json:"recipe_selection,omitempty"`
}

// NewPendingAction creates a pending action with a fresh proposal id.
func NewPendingAction(userID string, kind ActionKind, summary string) *PendingAction {
	return &PendingAction{
		ID:        uuid.New(),
		UserID:    userID,
		Kind:      kind,
		Summary:   summary,
		CreatedAt: time.Now(),
	}
}

// Validate checks that exactly the payload matching Kind is set.
func (p *PendingAction) Validate() error {
	set := 0
	var match bool
	if p.FoodLog != nil {
		set++
		match = match || p.Kind == ActionFoodLog
	}
	if p.RecipeLog != nil {
		set++
		match = match || p.Kind == ActionRecipeLog
	}
	if p.GoalUpdate != nil {
		set++
		match = match || p.Kind == ActionGoalUpdate
	}
	if p.BulkGoalUpdate != nil {
		set++
		match = match || p.Kind == ActionBulkGoalUpdate
	}
	if p.RecipeSave != nil {
		set++
		match = match || p.Kind == ActionRecipeSave
	}
	if p.RecipeSelection != nil {
		set++
		match = match || p.Kind == ActionRecipeSelection
	}
	if set != 1 || !match {
		return ErrMalformedPendingAction
	}
	return nil
}
