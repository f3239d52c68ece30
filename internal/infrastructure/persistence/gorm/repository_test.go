package gorm

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/mealmind/v1/internal/domain/conversation"
	"github.com/mealmind/v1/internal/domain/nutrition"
	"github.com/mealmind/v1/internal/domain/recipe"
	"github.com/mealmind/v1/internal/ports/outbound"
	gormdb "gorm.io/gorm"
)

var dbCounter int

func openTestDB(t *testing.T) *gormdb.DB {
	t.Helper()
	dbCounter++
	// A named shared in-memory database keeps the schema visible across the
	// connections in GORM's pool.
	dsn := fmt.Sprintf("file:repo_test_%d?mode=memory&cache=shared", dbCounter)
	db, err := Open(Config{Path: dsn}, zap.NewNop())
	require.NoError(t, err)
	return db
}

func sampleVector() *nutrition.Vector {
	v := nutrition.NewVector(nutrition.ConfidenceHigh)
	v.Set(nutrition.KeyCalories, 165)
	v.Set(nutrition.KeyProtein, 31)
	v.Set(nutrition.KeyFatTotal, 3.6)
	return v
}

func TestFoodLogRoundTrip(t *testing.T) {
	db := openTestDB(t)
	repo := NewFoodLogRepository(db)
	ctx := context.Background()

	noon := time.Date(2026, 8, 30, 12, 0, 0, 0, time.UTC)
	entry := &outbound.FoodLogEntry{
		ID:        uuid.New(),
		UserID:    "u1",
		Name:      "chicken breast",
		Portion:   "100 g",
		Nutrients: sampleVector(),
		LoggedAt:  noon,
	}
	require.NoError(t, repo.Create(ctx, entry))
	require.NoError(t, repo.Create(ctx, &outbound.FoodLogEntry{
		ID:       uuid.New(),
		UserID:   "u1",
		Name:     "yesterday's toast",
		LoggedAt: noon.AddDate(0, 0, -1),
	}))

	day, err := repo.ListByDay(ctx, "u1", noon)
	require.NoError(t, err)
	require.Len(t, day, 1)
	assert.Equal(t, "chicken breast", day[0].Name)
	require.NotNil(t, day[0].Nutrients)
	assert.InDelta(t, 165, day[0].Nutrients.Get(nutrition.KeyCalories), 0.01)

	recent, err := repo.ListRecent(ctx, "u1", 10)
	require.NoError(t, err)
	require.Len(t, recent, 2)
	assert.Equal(t, "chicken breast", recent[0].Name, "newest first")
}

func TestFoodLogCreateBatch(t *testing.T) {
	db := openTestDB(t)
	repo := NewFoodLogRepository(db)
	ctx := context.Background()

	noon := time.Date(2026, 8, 30, 12, 0, 0, 0, time.UTC)
	batch := []*outbound.FoodLogEntry{
		{ID: uuid.New(), UserID: "u1", Name: "egg", Portion: "2 eggs", Nutrients: sampleVector(), LoggedAt: noon},
		{ID: uuid.New(), UserID: "u1", Name: "toast", Portion: "1 slice", LoggedAt: noon},
	}
	require.NoError(t, repo.CreateBatch(ctx, batch))
	require.NoError(t, repo.CreateBatch(ctx, nil), "empty batch is a no-op")

	day, err := repo.ListByDay(ctx, "u1", noon)
	require.NoError(t, err)
	assert.Len(t, day, 2)

	// A duplicate primary key rolls the whole batch back.
	err = repo.CreateBatch(ctx, []*outbound.FoodLogEntry{
		{ID: uuid.New(), UserID: "u1", Name: "apple", LoggedAt: noon},
		{ID: batch[0].ID, UserID: "u1", Name: "egg again", LoggedAt: noon},
	})
	require.Error(t, err)

	day, err = repo.ListByDay(ctx, "u1", noon)
	require.NoError(t, err)
	assert.Len(t, day, 2, "failed batch persists nothing")
}

func TestGoalUpsertReplaces(t *testing.T) {
	db := openTestDB(t)
	repo := NewGoalRepository(db)
	ctx := context.Background()

	require.NoError(t, repo.Upsert(ctx, &outbound.Goal{UserID: "u1", Nutrient: "protein_g", Target: 140, DayType: "training"}))
	require.NoError(t, repo.Upsert(ctx, &outbound.Goal{UserID: "u1", Nutrient: "protein_g", Target: 160, DayType: "training"}))
	require.NoError(t, repo.Upsert(ctx, &outbound.Goal{UserID: "u1", Nutrient: "protein_g", Target: 120, DayType: "rest"}))

	goals, err := repo.List(ctx, "u1")
	require.NoError(t, err)
	require.Len(t, goals, 2, "same scope upserts collapse to one row")

	got, err := repo.Get(ctx, "u1", "protein_g", "training")
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.InDelta(t, 160, got.Target, 0.01)

	missing, err := repo.Get(ctx, "u1", "fiber_g", "")
	require.NoError(t, err)
	assert.Nil(t, missing)
}

func TestRecipeFingerprintLookup(t *testing.T) {
	db := openTestDB(t)
	repo := NewRecipeRepository(db)
	ctx := context.Background()

	rec, err := recipe.NewRecipe("u1", recipe.Parsed{
		Name:     "Pancakes",
		Servings: 4,
		Ingredients: []recipe.Ingredient{
			{Name: "flour", Quantity: 2, Unit: "cup"},
			{Name: "egg", Quantity: 2, Unit: "egg"},
		},
	}, sampleVector())
	require.NoError(t, err)
	require.NoError(t, repo.Create(ctx, rec))

	found, err := repo.FindByFingerprint(ctx, "u1", rec.Fingerprint)
	require.NoError(t, err)
	require.NotNil(t, found)
	assert.Equal(t, "Pancakes", found.Name)
	assert.Len(t, found.Ingredients, 2)
	require.NotNil(t, found.Nutrients)

	otherUser, err := repo.FindByFingerprint(ctx, "u2", rec.Fingerprint)
	require.NoError(t, err)
	assert.Nil(t, otherUser, "fingerprints are scoped per user")

	found.Servings = 6
	require.NoError(t, repo.Update(ctx, found))
	byID, err := repo.FindByID(ctx, rec.ID)
	require.NoError(t, err)
	assert.Equal(t, 6, byID.Servings)
}

func TestSessionPendingActionRoundTrip(t *testing.T) {
	db := openTestDB(t)
	repo := NewSessionRepository(db)
	ctx := context.Background()

	none, err := repo.GetPendingAction(ctx, "u1")
	require.NoError(t, err)
	assert.Nil(t, none)

	action := conversation.NewPendingAction("u1", conversation.ActionFoodLog, "Log chicken breast (100 g)")
	action.FoodLog = &conversation.FoodLogPayload{Items: []conversation.FoodLogItem{
		{Name: "chicken breast", Portion: "100 g", Nutrients: sampleVector()},
	}}
	require.NoError(t, repo.SavePendingAction(ctx, action))

	loaded, err := repo.GetPendingAction(ctx, "u1")
	require.NoError(t, err)
	require.NotNil(t, loaded)
	assert.Equal(t, action.ID, loaded.ID)
	assert.Equal(t, conversation.ActionFoodLog, loaded.Kind)
	require.NotNil(t, loaded.FoodLog)
	assert.Equal(t, "chicken breast", loaded.FoodLog.Items[0].Name)

	// A new proposal replaces the old one.
	replacement := conversation.NewPendingAction("u1", conversation.ActionGoalUpdate, "Set protein_g to 160")
	replacement.GoalUpdate = &conversation.GoalUpdatePayload{Goal: conversation.GoalField{Nutrient: "protein_g", Target: 160}}
	require.NoError(t, repo.SavePendingAction(ctx, replacement))
	loaded, err = repo.GetPendingAction(ctx, "u1")
	require.NoError(t, err)
	assert.Equal(t, replacement.ID, loaded.ID)

	require.NoError(t, repo.ClearPendingAction(ctx, "u1"))
	cleared, err := repo.GetPendingAction(ctx, "u1")
	require.NoError(t, err)
	assert.Nil(t, cleared)
}

func TestSessionClarificationAndDayType(t *testing.T) {
	db := openTestDB(t)
	repo := NewSessionRepository(db)
	ctx := context.Background()

	cc := &conversation.ClarificationContext{
		OriginalMessage:  "I had lasagna",
		AmbiguityReasons: []string{"no portion given"},
	}
	require.NoError(t, repo.SaveClarification(ctx, "u1", cc))
	loaded, err := repo.GetClarification(ctx, "u1")
	require.NoError(t, err)
	require.NotNil(t, loaded)
	assert.Equal(t, "I had lasagna", loaded.OriginalMessage)
	require.NoError(t, repo.ClearClarification(ctx, "u1"))

	day := time.Date(2026, 8, 30, 9, 0, 0, 0, time.UTC)
	require.NoError(t, repo.SetDayType(ctx, "u1", day, "training"))
	require.NoError(t, repo.SetDayType(ctx, "u1", day, "rest"))
	dt, err := repo.GetDayType(ctx, "u1", day)
	require.NoError(t, err)
	assert.Equal(t, "rest", dt, "same-day updates overwrite")
}

func TestConversionUpsert(t *testing.T) {
	db := openTestDB(t)
	repo := NewConversionRepository(db)
	ctx := context.Background()

	require.NoError(t, repo.Put(ctx, &outbound.ConversionEntry{FoodName: "rice", FromUnit: "cup", ToUnit: "g", Multiplier: 1.85}))
	require.NoError(t, repo.Put(ctx, &outbound.ConversionEntry{FoodName: "rice", FromUnit: "cup", ToUnit: "g", Multiplier: 1.9}))

	entry, err := repo.Get(ctx, "rice", "cup", "g")
	require.NoError(t, err)
	require.NotNil(t, entry)
	assert.InDelta(t, 1.9, entry.Multiplier, 0.001)

	missing, err := repo.Get(ctx, "rice", "bowl", "g")
	require.NoError(t, err)
	assert.Nil(t, missing)
}

func TestMemorySearch(t *testing.T) {
	db := openTestDB(t)
	repo := NewMemoryRepository(db)
	ctx := context.Background()

	for _, content := range []string{"lactose intolerant", "prefers high-protein breakfasts", "training days are Mon/Wed/Fri"} {
		require.NoError(t, repo.Store(ctx, &outbound.MemoryFact{
			ID:        uuid.New(),
			UserID:    "u1",
			Content:   content,
			CreatedAt: time.Now(),
		}))
	}

	facts, err := repo.Search(ctx, "u1", "protein", 5)
	require.NoError(t, err)
	require.Len(t, facts, 1)
	assert.Contains(t, facts[0].Content, "high-protein")

	all, err := repo.Search(ctx, "u1", "", 5)
	require.NoError(t, err)
	assert.Len(t, all, 3)
}
