package outbound

import (
	"context"
	"time"

	"github.com/google/uuid"

	"github.com/mealmind/v1/internal/domain/conversation"
	"github.com/mealmind/v1/internal/domain/nutrition"
	"github.com/mealmind/v1/internal/domain/recipe"
)

// FoodLogEntry is a committed food-log record.
type FoodLogEntry struct {
	ID        uuid.UUID         `json:"id"`
	UserID    string            `json:"user_id"`
	Name      string            `json:"name"`
	Portion   string            `json:"portion"`
	Nutrients *nutrition.Vector `json:"nutrients"`
	LoggedAt  time.Time         `json:"logged_at"`
}

// Goal is a persisted nutrition target, optionally scoped to a day type.
type Goal struct {
	UserID   string  `json:"user_id"`
	Nutrient string  `json:"nutrient"`
	Target   float64 `json:"target"`
	DayType  string  `json:"day_type,omitempty"`
}

// MemoryFact is a free-form remembered fact about the user.
type MemoryFact struct {
	ID        uuid.UUID `json:"id"`
	UserID    string    `json:"user_id"`
	Content   string    `json:"content"`
	CreatedAt time.Time `json:"created_at"`
}

// Profile holds user-level settings read by the assistant.
type Profile struct {
	UserID            string   `json:"user_id"`
	DisplayName       string   `json:"display_name"`
	Timezone          string   `json:"timezone"`
	HealthConstraints []string `json:"health_constraints,omitempty"`
}

// ConversionEntry is a memoized portion-scaling ratio.
type ConversionEntry struct {
	FoodName   string  `json:"food_name"`
	FromUnit   string  `json:"from_unit"`
	ToUnit     string  `json:"to_unit"`
	Multiplier float64 `json:"multiplier"`
}

// FoodLogRepository persists committed food-log entries.
type FoodLogRepository interface {
	Create(ctx context.Context, entry *FoodLogEntry) error
	// CreateBatch persists entries atomically; either all commit or none.
	CreateBatch(ctx context.Context, entries []*FoodLogEntry) error
	ListByDay(ctx context.Context, userID string, day time.Time) ([]*FoodLogEntry, error)
	ListRecent(ctx context.Context, userID string, limit int) ([]*FoodLogEntry, error)
}

// GoalRepository persists nutrition goals.
type GoalRepository interface {
	Upsert(ctx context.Context, goal *Goal) error
	List(ctx context.Context, userID string) ([]*Goal, error)
	Get(ctx context.Context, userID, nutrient, dayType string) (*Goal, error)
}

// RecipeRepository persists saved recipes with their ingredients.
type RecipeRepository interface {
	Create(ctx context.Context, r *recipe.Recipe) error
	Update(ctx context.Context, r *recipe.Recipe) error
	FindByID(ctx context.Context, id uuid.UUID) (*recipe.Recipe, error)
	FindByUserID(ctx context.Context, userID string) ([]*recipe.Recipe, error)
	FindByFingerprint(ctx context.Context, userID, fingerprint string) (*recipe.Recipe, error)
}

// MemoryRepository stores and searches remembered user facts.
type MemoryRepository interface {
	Store(ctx context.Context, fact *MemoryFact) error
	Search(ctx context.Context, userID, query string, limit int) ([]*MemoryFact, error)
}

// ProfileRepository reads user profiles. Profile ownership is external;
// the assistant only reads.
type ProfileRepository interface {
	Get(ctx context.Context, userID string) (*Profile, error)
}

// ConversionCacheRepository persists memoized portion-scaling ratios.
type ConversionCacheRepository interface {
	Get(ctx context.Context, foodName, fromUnit, toUnit string) (*ConversionEntry, error)
	Put(ctx context.Context, entry *ConversionEntry) error
}

// SessionRepository owns per-user conversational state: the single pending
// action, the one-turn clarification context, and day classification.
type SessionRepository interface {
	GetPendingAction(ctx context.Context, userID string) (*conversation.PendingAction, error)
	SavePendingAction(ctx context.Context, action *conversation.PendingAction) error
	ClearPendingAction(ctx context.Context, userID string) error

	GetClarification(ctx context.Context, userID string) (*conversation.ClarificationContext, error)
	SaveClarification(ctx context.Context, userID string, cc *conversation.ClarificationContext) error
	ClearClarification(ctx context.Context, userID string) error

	GetDayType(ctx context.Context, userID string, day time.Time) (string, error)
	SetDayType(ctx context.Context, userID string, day time.Time, dayType string) error
}

// CacheRepository is a byte cache for resolved nutrient vectors.
type CacheRepository interface {
	Get(ctx context.Context, key string) ([]byte, error)
	Set(ctx context.Context, key string, value []byte, ttl time.Duration) error
	Delete(ctx context.Context, key string) error
}

// NutritionLookupResult is the normalized shape of an external lookup.
type NutritionLookupResult struct {
	Status      string            `json:"status"` // found|not_found
	Nutrients   *nutrition.Vector `json:"nutrients,omitempty"`
	ServingSize string            `json:"serving_size,omitempty"`
}

// NutritionAPI is the best-effort external nutrition lookup service.
type NutritionAPI interface {
	Lookup(ctx context.Context, foodName string) (*NutritionLookupResult, error)
}
