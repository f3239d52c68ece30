package recipe

import (
	"time"

	"github.com/google/uuid"

	"github.com/mealmind/v1/internal/domain/nutrition"
)

// Ingredient is a single parsed recipe ingredient. The resolved nutrient
// vector is owned by the capture flow until the recipe is persisted.
type Ingredient struct {
	Name      string            `json:"name"`
	Quantity  float64           `json:"quantity"`
	Unit      string            `json:"unit"`
	Nutrients *nutrition.Vector `json:"nutrients,omitempty"`
}

// Parsed is the model-extracted recipe awaiting confirmation.
type Parsed struct {
	Name        string       `json:"name"`
	Ingredients []Ingredient `json:"ingredients"`
	Servings    int          `json:"servings"`
	Fingerprint string       `json:"fingerprint"`
}

// IngredientNames returns the ingredient names in order.
func (p *Parsed) IngredientNames() []string {
	names := make([]string, len(p.Ingredients))
	for i, ing := range p.Ingredients {
		names[i] = ing.Name
	}
	return names
}

// Recipe is a persisted recipe record.
type Recipe struct {
	ID          uuid.UUID         `json:"id"`
	UserID      string            `json:"user_id"`
	Name        string            `json:"name"`
	Ingredients []Ingredient      `json:"ingredients"`
	Servings    int               `json:"servings"`
	Fingerprint string            `json:"fingerprint"`
	Nutrients   *nutrition.Vector `json:"nutrients"` // totals for the whole batch
	CreatedAt   time.Time         `json:"created_at"`
	UpdatedAt   time.Time         `json:"updated_at"`
}

// NewRecipe creates a persisted recipe from a confirmed parse.
func NewRecipe(userID string, parsed Parsed, nutrients *nutrition.Vector) (*Recipe, error) {
	if parsed.Name == "" {
		return nil, ErrMissingName
	}
	if len(parsed.Ingredients) == 0 {
		return nil, ErrNoIngredients
	}
	if parsed.Servings <= 0 {
		return nil, ErrInvalidServings
	}

	now := time.Now()
	fp := parsed.Fingerprint
	if fp == "" {
		fp = Fingerprint(parsed.IngredientNames())
	}

	return &Recipe{
		ID:          uuid.New(),
		UserID:      userID,
		Name:        parsed.Name,
		Ingredients: parsed.Ingredients,
		Servings:    parsed.Servings,
		Fingerprint: fp,
		Nutrients:   nutrients,
		CreatedAt:   now,
		UpdatedAt:   now,
	}, nil
}

// PerServing returns the per-serving nutrient vector.
func (r *Recipe) PerServing() *nutrition.Vector {
	if r.Nutrients == nil || r.Servings <= 0 {
		return nil
	}
	return r.Nutrients.Scale(1 / float64(r.Servings))
}
