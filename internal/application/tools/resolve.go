package tools

import (
	"context"
	"encoding/json"
	"strings"

	appnutrition "github.com/mealmind/v1/internal/application/nutrition"
	"github.com/mealmind/v1/internal/ports/outbound"
	"github.com/mealmind/v1/pkg/errors"
)

// ResolveNutritionTool resolves one food item and portion into a scaled
// nutrient vector.
type ResolveNutritionTool struct {
	Nutrition *appnutrition.Service
}

func (t *ResolveNutritionTool) Definition() outbound.ToolDefinition {
	return outbound.ToolDefinition{
		Name:        "resolve_nutrition",
		Description: "Resolve a food item and portion into nutrition values. Call once per food item.",
		Parameters: json.RawMessage(`{
			"type": "object",
			"properties": {
				"food_name": {"type": "string"},
				"portion": {"type": "string", "description": "Portion as stated by the user, e.g. \"2 eggs\" or \"100 g\"."}
			},
			"required": ["food_name"]
		}`),
	}
}

func (t *ResolveNutritionTool) Execute(ctx context.Context, _ string, args json.RawMessage) (any, error) {
	var params struct {
		FoodName string `json:"food_name"`
		Portion  string `json:"portion"`
	}
	if err := json.Unmarshal(args, &params); err != nil {
		return nil, errors.NewValidationError("resolve_nutrition arguments are not valid JSON")
	}
	params.FoodName = strings.TrimSpace(params.FoodName)
	if params.FoodName == "" {
		return nil, errors.NewValidationError("food_name is required")
	}
	if strings.TrimSpace(params.Portion) == "" {
		params.Portion = "1 serving"
	}

	vec, serving, err := t.Nutrition.ResolvePortion(ctx, params.FoodName, params.Portion)
	if err != nil {
		return nil, err
	}
	return &ResolvedFood{
		Name:        params.FoodName,
		Portion:     params.Portion,
		ServingSize: serving,
		Nutrients:   vec,
	}, nil
}

// LookupRecipeTool finds the user's saved recipes by name.
type LookupRecipeTool struct {
	Recipes outbound.RecipeRepository
}

func (t *LookupRecipeTool) Definition() outbound.ToolDefinition {
	return outbound.ToolDefinition{
		Name:        "lookup_recipe",
		Description: "Find the user's saved recipes matching a name.",
		Parameters: json.RawMessage(`{
			"type": "object",
			"properties": {"name": {"type": "string"}},
			"required": ["name"]
		}`),
	}
}

// RecipeMatch is one lookup hit.
type RecipeMatch struct {
	RecipeID           string  `json:"recipe_id"`
	Name               string  `json:"name"`
	Servings           int     `json:"servings"`
	CaloriesPerServing float64 `json:"calories_per_serving"`
}

func (t *LookupRecipeTool) Execute(ctx context.Context, userID string, args json.RawMessage) (any, error) {
	var params struct {
		Name string `json:"name"`
	}
	if err := json.Unmarshal(args, &params); err != nil || strings.TrimSpace(params.Name) == "" {
		return nil, errors.NewValidationError("name is required")
	}

	saved, err := t.Recipes.FindByUserID(ctx, userID)
	if err != nil {
		return nil, errors.NewExternalServiceError("recipe store", err)
	}

	query := strings.ToLower(strings.TrimSpace(params.Name))
	var matches []RecipeMatch
	for _, r := range saved {
		name := strings.ToLower(r.Name)
		if !strings.Contains(name, query) && !strings.Contains(query, name) {
			continue
		}
		match := RecipeMatch{RecipeID: r.ID.String(), Name: r.Name, Servings: r.Servings}
		if per := r.PerServing(); per != nil {
			match.CaloriesPerServing = per.Get("calories")
		}
		matches = append(matches, match)
	}
	return map[string]any{"matches": matches}, nil
}
