package tools

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/google/uuid"

	appnutrition "github.com/mealmind/v1/internal/application/nutrition"
	"github.com/mealmind/v1/internal/domain/conversation"
	"github.com/mealmind/v1/internal/domain/nutrition"
	"github.com/mealmind/v1/internal/domain/recipe"
	"github.com/mealmind/v1/internal/ports/outbound"
	"github.com/mealmind/v1/pkg/errors"
)

// ProposeFoodLogTool builds a food-log proposal. Items are resolved, the
// hierarchy invariants are checked, and any violation is rejected back into
// the transcript as a correction request rather than becoming a proposal.
type ProposeFoodLogTool struct {
	Nutrition *appnutrition.Service
}

func (t *ProposeFoodLogTool) Definition() outbound.ToolDefinition {
	return outbound.ToolDefinition{
		Name:        "propose_food_log",
		Description: "Propose logging one or more food items. The user must confirm before anything is saved.",
		Parameters: json.RawMessage(`{
			"type": "object",
			"properties": {
				"items": {
					"type": "array",
					"items": {
						"type": "object",
						"properties": {
							"name": {"type": "string"},
							"portion": {"type": "string"},
							"nutrients": {
								"type": "object",
								"description": "Optional nutrient values already resolved, keyed by nutrient name.",
								"additionalProperties": {"type": "number"}
							}
						},
						"required": ["name"]
					}
				}
			},
			"required": ["items"]
		}`),
	}
}

func (t *ProposeFoodLogTool) Execute(ctx context.Context, _ string, args json.RawMessage) (any, error) {
	var params struct {
		Items []struct {
			Name      string             `json:"name"`
			Portion   string             `json:"portion"`
			Nutrients map[string]float64 `json:"nutrients"`
		} `json:"items"`
	}
	if err := json.Unmarshal(args, &params); err != nil || len(params.Items) == 0 {
		return nil, errors.NewValidationError("items is required and must be non-empty")
	}

	proposal := &Proposal{Kind: conversation.ActionFoodLog}
	for _, item := range params.Items {
		name := strings.TrimSpace(item.Name)
		if name == "" {
			continue
		}
		portion := strings.TrimSpace(item.Portion)
		if portion == "" {
			portion = "1 serving"
		}

		var vec *nutrition.Vector
		if len(item.Nutrients) > 0 {
			vec = vectorFromArgs(item.Nutrients)
		}
		if vec == nil {
			resolved, _, err := t.Nutrition.ResolvePortion(ctx, name, portion)
			if err != nil {
				proposal.Excluded = append(proposal.Excluded, name)
				continue
			}
			vec = resolved
		}
		if violations := nutrition.ValidateHierarchy(vec); len(violations) > 0 {
			return nil, errors.NewValidationError(fmt.Sprintf(
				"nutrition for %q is inconsistent (%s); correct the values and propose again",
				name, violations[0].Message,
			))
		}
		proposal.Items = append(proposal.Items, conversation.FoodLogItem{
			Name:      name,
			Portion:   portion,
			Nutrients: vec,
		})
	}

	if len(proposal.Items) == 0 {
		return nil, errors.NewResolutionError(params.Items[0].Name)
	}
	proposal.Summary = summarizeFoodLog(proposal.Items)
	return proposal, nil
}

// vectorFromArgs builds a vector from model-supplied nutrient values, mapping
// names through the alias table. Returns nil when nothing maps.
func vectorFromArgs(values map[string]float64) *nutrition.Vector {
	vec := nutrition.NewVector(nutrition.ConfidenceMedium)
	for rawKey, value := range values {
		if key, ok := nutrition.ResolveAlias(rawKey); ok {
			vec.Set(key, value)
		}
	}
	if len(vec.Values) == 0 {
		return nil
	}
	vec.ReconcileCalories()
	return vec
}

func summarizeFoodLog(items []conversation.FoodLogItem) string {
	parts := make([]string, len(items))
	var calories float64
	for i, item := range items {
		parts[i] = fmt.Sprintf("%s (%s)", item.Name, item.Portion)
		calories += item.Nutrients.Get(nutrition.KeyCalories)
	}
	return fmt.Sprintf("Log %s (about %.0f kcal total)", strings.Join(parts, ", "), calories)
}

// ProposeRecipeLogTool builds a proposal to log servings of a saved recipe.
type ProposeRecipeLogTool struct {
	Recipes outbound.RecipeRepository
}

func (t *ProposeRecipeLogTool) Definition() outbound.ToolDefinition {
	return outbound.ToolDefinition{
		Name:        "propose_recipe_log",
		Description: "Propose logging servings of one of the user's saved recipes. The user must confirm.",
		Parameters: json.RawMessage(`{
			"type": "object",
			"properties": {
				"recipe_id": {"type": "string"},
				"name": {"type": "string"},
				"servings": {"type": "number"}
			}
		}`),
	}
}

func (t *ProposeRecipeLogTool) Execute(ctx context.Context, userID string, args json.RawMessage) (any, error) {
	var params struct {
		RecipeID string  `json:"recipe_id"`
		Name     string  `json:"name"`
		Servings float64 `json:"servings"`
	}
	if err := json.Unmarshal(args, &params); err != nil {
		return nil, errors.NewValidationError("propose_recipe_log arguments are not valid JSON")
	}
	if params.Servings <= 0 {
		params.Servings = 1
	}

	target, err := t.find(ctx, userID, params.RecipeID, params.Name)
	if err != nil {
		return nil, err
	}

	per := target.PerServing()
	if per == nil {
		return nil, errors.NewResolutionError(target.Name)
	}
	scaled := per.Scale(params.Servings)
	if violations := nutrition.ValidateHierarchy(scaled); len(violations) > 0 {
		return nil, errors.NewValidationError(violations[0].Message)
	}

	return &Proposal{
		Kind:    conversation.ActionRecipeLog,
		Summary: fmt.Sprintf("Log %.3g serving(s) of %q (about %.0f kcal)", params.Servings, target.Name, scaled.Get(nutrition.KeyCalories)),
		RecipeLog: &conversation.RecipeLogPayload{
			RecipeID:  target.ID.String(),
			Name:      target.Name,
			Servings:  params.Servings,
			Nutrients: scaled,
		},
	}, nil
}

func (t *ProposeRecipeLogTool) find(ctx context.Context, userID, id, name string) (*recipe.Recipe, error) {
	if id != "" {
		parsed, err := uuid.Parse(id)
		if err == nil {
			if r, err := t.Recipes.FindByID(ctx, parsed); err == nil && r != nil {
				return r, nil
			}
		}
	}
	if strings.TrimSpace(name) == "" {
		return nil, errors.NewValidationError("recipe_id or name is required")
	}

	saved, err := t.Recipes.FindByUserID(ctx, userID)
	if err != nil {
		return nil, errors.NewExternalServiceError("recipe store", err)
	}
	query := strings.ToLower(strings.TrimSpace(name))
	for _, r := range saved {
		candidate := strings.ToLower(r.Name)
		if candidate == query || strings.Contains(candidate, query) || strings.Contains(query, candidate) {
			return r, nil
		}
	}
	return nil, errors.NewResolutionError(name)
}

// ProposeGoalUpdateTool builds a goal-change proposal, normalizing nutrient
// names through the alias table.
type ProposeGoalUpdateTool struct{}

func (t *ProposeGoalUpdateTool) Definition() outbound.ToolDefinition {
	return outbound.ToolDefinition{
		Name:        "propose_goal_update",
		Description: "Propose changing one or more nutrition goals. The user must confirm.",
		Parameters: json.RawMessage(`{
			"type": "object",
			"properties": {
				"goals": {
					"type": "array",
					"items": {
						"type": "object",
						"properties": {
							"nutrient": {"type": "string"},
							"target": {"type": "number"},
							"day_type": {"type": "string", "enum": ["", "training", "rest"]}
						},
						"required": ["nutrient", "target"]
					}
				}
			},
			"required": ["goals"]
		}`),
	}
}

func (t *ProposeGoalUpdateTool) Execute(_ context.Context, _ string, args json.RawMessage) (any, error) {
	var params struct {
		Goals []conversation.GoalField `json:"goals"`
	}
	if err := json.Unmarshal(args, &params); err != nil || len(params.Goals) == 0 {
		return nil, errors.NewValidationError("goals is required and must be non-empty")
	}

	var normalized []conversation.GoalField
	for _, g := range params.Goals {
		key, ok := nutrition.ResolveAlias(g.Nutrient)
		if !ok {
			return nil, errors.NewValidationError(fmt.Sprintf("unknown nutrient %q", g.Nutrient))
		}
		if g.Target <= 0 {
			return nil, errors.NewValidationError(fmt.Sprintf("target for %q must be positive", g.Nutrient))
		}
		if g.DayType != "" && g.DayType != "training" && g.DayType != "rest" {
			return nil, errors.NewValidationError(fmt.Sprintf("day_type %q must be training, rest, or empty", g.DayType))
		}
		g.Nutrient = string(key)
		normalized = append(normalized, g)
	}

	kind := conversation.ActionGoalUpdate
	if len(normalized) > 1 {
		kind = conversation.ActionBulkGoalUpdate
	}
	return &Proposal{
		Kind:    kind,
		Summary: summarizeGoals(normalized),
		Goals:   normalized,
	}, nil
}

func summarizeGoals(goals []conversation.GoalField) string {
	parts := make([]string, len(goals))
	for i, g := range goals {
		scope := "all days"
		if g.DayType != "" {
			scope = g.DayType + " days"
		}
		parts[i] = fmt.Sprintf("%s to %.4g (%s)", g.Nutrient, g.Target, scope)
	}
	return "Set " + strings.Join(parts, ", ")
}
