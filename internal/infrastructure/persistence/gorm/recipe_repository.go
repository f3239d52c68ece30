package gorm

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/mealmind/v1/internal/domain/recipe"
	"github.com/mealmind/v1/internal/ports/outbound"
)

// RecipeRepository implements the recipe repository interface using GORM.
type RecipeRepository struct {
	db *gorm.DB
}

// NewRecipeRepository creates a new recipe repository.
func NewRecipeRepository(db *gorm.DB) outbound.RecipeRepository {
	return &RecipeRepository{db: db}
}

// Create persists a new recipe.
func (r *RecipeRepository) Create(ctx context.Context, rec *recipe.Recipe) error {
	return r.db.WithContext(ctx).Create(recipeToModel(rec)).Error
}

// Update replaces an existing recipe.
func (r *RecipeRepository) Update(ctx context.Context, rec *recipe.Recipe) error {
	result := r.db.WithContext(ctx).Save(recipeToModel(rec))
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return errors.New("recipe not found")
	}
	return nil
}

// FindByID returns one recipe, or nil when it does not exist.
func (r *RecipeRepository) FindByID(ctx context.Context, id uuid.UUID) (*recipe.Recipe, error) {
	var model RecipeModel
	result := r.db.WithContext(ctx).First(&model, "id = ?", id)
	if result.Error != nil {
		if errors.Is(result.Error, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, result.Error
	}
	return modelToRecipe(&model), nil
}

// FindByUserID returns all of the user's recipes, newest first.
func (r *RecipeRepository) FindByUserID(ctx context.Context, userID string) ([]*recipe.Recipe, error) {
	var models []RecipeModel
	result := r.db.WithContext(ctx).
		Where("user_id = ?", userID).
		Order("created_at DESC").
		Find(&models)
	if result.Error != nil {
		return nil, result.Error
	}

	recipes := make([]*recipe.Recipe, len(models))
	for i := range models {
		recipes[i] = modelToRecipe(&models[i])
	}
	return recipes, nil
}

// FindByFingerprint returns the user's recipe with an exact ingredient
// fingerprint, or nil when none matches.
func (r *RecipeRepository) FindByFingerprint(ctx context.Context, userID, fingerprint string) (*recipe.Recipe, error) {
	var model RecipeModel
	result := r.db.WithContext(ctx).
		Where("user_id = ? AND fingerprint = ?", userID, fingerprint).
		First(&model)
	if result.Error != nil {
		if errors.Is(result.Error, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, result.Error
	}
	return modelToRecipe(&model), nil
}

func recipeToModel(rec *recipe.Recipe) *RecipeModel {
	return &RecipeModel{
		ID:          rec.ID,
		UserID:      rec.UserID,
		Name:        rec.Name,
		Ingredients: marshalIngredients(rec.Ingredients),
		Servings:    rec.Servings,
		Fingerprint: rec.Fingerprint,
		Nutrients:   marshalVector(rec.Nutrients),
		CreatedAt:   rec.CreatedAt,
		UpdatedAt:   rec.UpdatedAt,
	}
}

func modelToRecipe(model *RecipeModel) *recipe.Recipe {
	return &recipe.Recipe{
		ID:          model.ID,
		UserID:      model.UserID,
		Name:        model.Name,
		Ingredients: unmarshalIngredients(model.Ingredients),
		Servings:    model.Servings,
		Fingerprint: model.Fingerprint,
		Nutrients:   unmarshalVector(model.Nutrients),
		CreatedAt:   model.CreatedAt,
		UpdatedAt:   model.UpdatedAt,
	}
}
