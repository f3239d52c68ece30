// Package gorm provides the GORM-backed repository implementations and their
// persistence models. Nutrient vectors and ingredient lists are stored as
// JSON text columns; the relational shape follows the query patterns, not the
// domain graph.
package gorm

import (
	"encoding/json"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/mealmind/v1/internal/domain/conversation"
	"github.com/mealmind/v1/internal/domain/nutrition"
	"github.com/mealmind/v1/internal/domain/recipe"
)

// FoodLogModel is the persistence model for committed food-log entries.
type FoodLogModel struct {
	ID        uuid.UUID `gorm:"type:uuid;primaryKey"`
	UserID    string    `gorm:"index:idx_food_log_user_day;not null"`
	Name      string    `gorm:"not null"`
	Portion   string
	Nutrients string    `gorm:"type:text"`
	LoggedAt  time.Time `gorm:"index:idx_food_log_user_day"`
	CreatedAt time.Time
}

func (FoodLogModel) TableName() string { return "food_log_entries" }

// GoalModel is the persistence model for nutrition goals. One row per
// user, nutrient, and day-type scope.
type GoalModel struct {
	ID        uint   `gorm:"primaryKey"`
	UserID    string `gorm:"uniqueIndex:idx_goal_scope;not null"`
	Nutrient  string `gorm:"uniqueIndex:idx_goal_scope;not null"`
	DayType   string `gorm:"uniqueIndex:idx_goal_scope"`
	Target    float64
	UpdatedAt time.Time
}

func (GoalModel) TableName() string { return "goals" }

// RecipeModel is the persistence model for saved recipes.
type RecipeModel struct {
	ID          uuid.UUID `gorm:"type:uuid;primaryKey"`
	UserID      string    `gorm:"index;not null"`
	Name        string    `gorm:"not null"`
	Ingredients string    `gorm:"type:text"`
	Servings    int
	Fingerprint string `gorm:"index:idx_recipe_fingerprint"`
	Nutrients   string `gorm:"type:text"`
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

func (RecipeModel) TableName() string { return "recipes" }

// MemoryFactModel is the persistence model for remembered user facts.
type MemoryFactModel struct {
	ID        uuid.UUID `gorm:"type:uuid;primaryKey"`
	UserID    string    `gorm:"index;not null"`
	Content   string    `gorm:"type:text;not null"`
	CreatedAt time.Time
}

func (MemoryFactModel) TableName() string { return "memory_facts" }

// ProfileModel is the persistence model for user profiles.
type ProfileModel struct {
	UserID            string `gorm:"primaryKey"`
	DisplayName       string
	Timezone          string
	HealthConstraints string `gorm:"type:text"`
	UpdatedAt         time.Time
}

func (ProfileModel) TableName() string { return "profiles" }

// ConversionModel is the persistence model for memoized portion ratios.
type ConversionModel struct {
	ID         uint   `gorm:"primaryKey"`
	FoodName   string `gorm:"uniqueIndex:idx_conversion_key;not null"`
	FromUnit   string `gorm:"uniqueIndex:idx_conversion_key;not null"`
	ToUnit     string `gorm:"uniqueIndex:idx_conversion_key;not null"`
	Multiplier float64
	CreatedAt  time.Time
}

func (ConversionModel) TableName() string { return "conversion_cache" }

// PendingActionModel persists the single per-user pending action as a JSON
// document keyed by user.
type PendingActionModel struct {
	UserID    string `gorm:"primaryKey"`
	Payload   string `gorm:"type:text;not null"`
	UpdatedAt time.Time
}

func (PendingActionModel) TableName() string { return "pending_actions" }

// ClarificationModel persists the one-turn clarification context.
type ClarificationModel struct {
	UserID    string `gorm:"primaryKey"`
	Payload   string `gorm:"type:text;not null"`
	CreatedAt time.Time
}

func (ClarificationModel) TableName() string { return "clarifications" }

// DayTypeModel persists the training/rest classification per user and day.
type DayTypeModel struct {
	ID      uint   `gorm:"primaryKey"`
	UserID  string `gorm:"uniqueIndex:idx_day_type_key;not null"`
	Day     string `gorm:"uniqueIndex:idx_day_type_key;not null"` // YYYY-MM-DD
	DayType string
}

func (DayTypeModel) TableName() string { return "day_types" }

// AutoMigrate creates or updates the schema for all persistence models.
func AutoMigrate(db *gorm.DB) error {
	return db.AutoMigrate(
		&FoodLogModel{},
		&GoalModel{},
		&RecipeModel{},
		&MemoryFactModel{},
		&ProfileModel{},
		&ConversionModel{},
		&PendingActionModel{},
		&ClarificationModel{},
		&DayTypeModel{},
	)
}

func marshalVector(v *nutrition.Vector) string {
	if v == nil {
		return ""
	}
	data, err := json.Marshal(v)
	if err != nil {
		return ""
	}
	return string(data)
}

func unmarshalVector(data string) *nutrition.Vector {
	if data == "" {
		return nil
	}
	var v nutrition.Vector
	if err := json.Unmarshal([]byte(data), &v); err != nil {
		return nil
	}
	return &v
}

func marshalIngredients(ingredients []recipe.Ingredient) string {
	data, err := json.Marshal(ingredients)
	if err != nil {
		return "[]"
	}
	return string(data)
}

func unmarshalIngredients(data string) []recipe.Ingredient {
	if data == "" {
		return nil
	}
	var out []recipe.Ingredient
	if err := json.Unmarshal([]byte(data), &out); err != nil {
		return nil
	}
	return out
}

func marshalPendingAction(a *conversation.PendingAction) (string, error) {
	data, err := json.Marshal(a)
	if err != nil {
		return "", err
	}
	return string(data), nil
}

func unmarshalPendingAction(data string) (*conversation.PendingAction, error) {
	var a conversation.PendingAction
	if err := json.Unmarshal([]byte(data), &a); err != nil {
		return nil, err
	}
	return &a, nil
}

func marshalClarification(cc *conversation.ClarificationContext) (string, error) {
	data, err := json.Marshal(cc)
	if err != nil {
		return "", err
	}
	return string(data), nil
}

func unmarshalClarification(data string) (*conversation.ClarificationContext, error) {
	var cc conversation.ClarificationContext
	if err := json.Unmarshal([]byte(data), &cc); err != nil {
		return nil, err
	}
	return &cc, nil
}
