package memory

import (
	"context"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/mealmind/v1/internal/domain/conversation"
	"github.com/mealmind/v1/internal/domain/recipe"
	"github.com/mealmind/v1/internal/ports/outbound"
)

// FoodLogRepository is an in-memory food log.
type FoodLogRepository struct {
	mu      sync.RWMutex
	entries map[string][]*outbound.FoodLogEntry // by user
}

// NewFoodLogRepository creates an in-memory food log.
func NewFoodLogRepository() outbound.FoodLogRepository {
	return &FoodLogRepository{entries: make(map[string][]*outbound.FoodLogEntry)}
}

func (r *FoodLogRepository) Create(_ context.Context, entry *outbound.FoodLogEntry) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.entries[entry.UserID] = append(r.entries[entry.UserID], entry)
	return nil
}

func (r *FoodLogRepository) CreateBatch(_ context.Context, entries []*outbound.FoodLogEntry) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, entry := range entries {
		r.entries[entry.UserID] = append(r.entries[entry.UserID], entry)
	}
	return nil
}

func (r *FoodLogRepository) ListByDay(_ context.Context, userID string, day time.Time) ([]*outbound.FoodLogEntry, error) {
	start := time.Date(day.Year(), day.Month(), day.Day(), 0, 0, 0, 0, day.Location())
	end := start.AddDate(0, 0, 1)

	r.mu.RLock()
	defer r.mu.RUnlock()
	var out []*outbound.FoodLogEntry
	for _, e := range r.entries[userID] {
		if !e.LoggedAt.Before(start) && e.LoggedAt.Before(end) {
			out = append(out, e)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].LoggedAt.Before(out[j].LoggedAt) })
	return out, nil
}

func (r *FoodLogRepository) ListRecent(_ context.Context, userID string, limit int) ([]*outbound.FoodLogEntry, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	entries := append([]*outbound.FoodLogEntry(nil), r.entries[userID]...)
	sort.Slice(entries, func(i, j int) bool { return entries[i].LoggedAt.After(entries[j].LoggedAt) })
	if limit > 0 && len(entries) > limit {
		entries = entries[:limit]
	}
	return entries, nil
}

// GoalRepository is an in-memory goal store.
type GoalRepository struct {
	mu    sync.RWMutex
	goals map[string]*outbound.Goal // key: user|nutrient|dayType
}

// NewGoalRepository creates an in-memory goal store.
func NewGoalRepository() outbound.GoalRepository {
	return &GoalRepository{goals: make(map[string]*outbound.Goal)}
}

func goalKey(userID, nutrient, dayType string) string {
	return userID + "|" + nutrient + "|" + dayType
}

func (r *GoalRepository) Upsert(_ context.Context, goal *outbound.Goal) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.goals[goalKey(goal.UserID, goal.Nutrient, goal.DayType)] = goal
	return nil
}

func (r *GoalRepository) List(_ context.Context, userID string) ([]*outbound.Goal, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	var out []*outbound.Goal
	for _, g := range r.goals {
		if g.UserID == userID {
			out = append(out, g)
		}
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Nutrient != out[j].Nutrient {
			return out[i].Nutrient < out[j].Nutrient
		}
		return out[i].DayType < out[j].DayType
	})
	return out, nil
}

func (r *GoalRepository) Get(_ context.Context, userID, nutrient, dayType string) (*outbound.Goal, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.goals[goalKey(userID, nutrient, dayType)], nil
}

// RecipeRepository is an in-memory recipe store.
type RecipeRepository struct {
	mu      sync.RWMutex
	recipes map[uuid.UUID]*recipe.Recipe
}

// NewRecipeRepository creates an in-memory recipe store.
func NewRecipeRepository() outbound.RecipeRepository {
	return &RecipeRepository{recipes: make(map[uuid.UUID]*recipe.Recipe)}
}

func (r *RecipeRepository) Create(_ context.Context, rec *recipe.Recipe) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.recipes[rec.ID] = rec
	return nil
}

func (r *RecipeRepository) Update(_ context.Context, rec *recipe.Recipe) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.recipes[rec.ID] = rec
	return nil
}

func (r *RecipeRepository) FindByID(_ context.Context, id uuid.UUID) (*recipe.Recipe, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.recipes[id], nil
}

func (r *RecipeRepository) FindByUserID(_ context.Context, userID string) ([]*recipe.Recipe, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	var out []*recipe.Recipe
	for _, rec := range r.recipes {
		if rec.UserID == userID {
			out = append(out, rec)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.After(out[j].CreatedAt) })
	return out, nil
}

func (r *RecipeRepository) FindByFingerprint(_ context.Context, userID, fingerprint string) (*recipe.Recipe, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	for _, rec := range r.recipes {
		if rec.UserID == userID && rec.Fingerprint == fingerprint {
			return rec, nil
		}
	}
	return nil, nil
}

// MemoryRepository is an in-memory remembered-facts store.
type MemoryRepository struct {
	mu    sync.RWMutex
	facts map[string][]*outbound.MemoryFact
}

// NewMemoryRepository creates an in-memory facts store.
func NewMemoryRepository() outbound.MemoryRepository {
	return &MemoryRepository{facts: make(map[string][]*outbound.MemoryFact)}
}

func (r *MemoryRepository) Store(_ context.Context, fact *outbound.MemoryFact) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.facts[fact.UserID] = append(r.facts[fact.UserID], fact)
	return nil
}

func (r *MemoryRepository) Search(_ context.Context, userID, query string, limit int) ([]*outbound.MemoryFact, error) {
	query = strings.ToLower(strings.TrimSpace(query))

	r.mu.RLock()
	defer r.mu.RUnlock()
	var out []*outbound.MemoryFact
	for _, f := range r.facts[userID] {
		if query == "" || strings.Contains(strings.ToLower(f.Content), query) {
			out = append(out, f)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.After(out[j].CreatedAt) })
	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

// ProfileRepository is an in-memory profile store seeded at construction.
type ProfileRepository struct {
	mu       sync.RWMutex
	profiles map[string]*outbound.Profile
}

// NewProfileRepository creates an in-memory profile store.
func NewProfileRepository() *ProfileRepository {
	return &ProfileRepository{profiles: make(map[string]*outbound.Profile)}
}

// Put stores a profile, mainly for demo seeding.
func (r *ProfileRepository) Put(profile *outbound.Profile) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.profiles[profile.UserID] = profile
}

func (r *ProfileRepository) Get(_ context.Context, userID string) (*outbound.Profile, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	if p, ok := r.profiles[userID]; ok {
		return p, nil
	}
	return &outbound.Profile{UserID: userID, Timezone: "UTC"}, nil
}

// ConversionRepository is an in-memory conversion ratio cache.
type ConversionRepository struct {
	mu      sync.RWMutex
	entries map[string]*outbound.ConversionEntry
}

// NewConversionRepository creates an in-memory conversion cache.
func NewConversionRepository() outbound.ConversionCacheRepository {
	return &ConversionRepository{entries: make(map[string]*outbound.ConversionEntry)}
}

func conversionKey(foodName, fromUnit, toUnit string) string {
	return foodName + "|" + fromUnit + "|" + toUnit
}

func (r *ConversionRepository) Get(_ context.Context, foodName, fromUnit, toUnit string) (*outbound.ConversionEntry, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.entries[conversionKey(foodName, fromUnit, toUnit)], nil
}

func (r *ConversionRepository) Put(_ context.Context, entry *outbound.ConversionEntry) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.entries[conversionKey(entry.FoodName, entry.FromUnit, entry.ToUnit)] = entry
	return nil
}

// SessionRepository is an in-memory session state store.
type SessionRepository struct {
	mu       sync.RWMutex
	pending  map[string]*conversation.PendingAction
	clar     map[string]*conversation.ClarificationContext
	dayTypes map[string]string // key: user|YYYY-MM-DD
}

// NewSessionRepository creates an in-memory session store.
func NewSessionRepository() outbound.SessionRepository {
	return &SessionRepository{
		pending:  make(map[string]*conversation.PendingAction),
		clar:     make(map[string]*conversation.ClarificationContext),
		dayTypes: make(map[string]string),
	}
}

func (r *SessionRepository) GetPendingAction(_ context.Context, userID string) (*conversation.PendingAction, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.pending[userID], nil
}

func (r *SessionRepository) SavePendingAction(_ context.Context, action *conversation.PendingAction) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.pending[action.UserID] = action
	return nil
}

func (r *SessionRepository) ClearPendingAction(_ context.Context, userID string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.pending, userID)
	return nil
}

func (r *SessionRepository) GetClarification(_ context.Context, userID string) (*conversation.ClarificationContext, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.clar[userID], nil
}

func (r *SessionRepository) SaveClarification(_ context.Context, userID string, cc *conversation.ClarificationContext) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.clar[userID] = cc
	return nil
}

func (r *SessionRepository) ClearClarification(_ context.Context, userID string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.clar, userID)
	return nil
}

func (r *SessionRepository) GetDayType(_ context.Context, userID string, day time.Time) (string, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.dayTypes[userID+"|"+day.Format("2006-01-02")], nil
}

func (r *SessionRepository) SetDayType(_ context.Context, userID string, day time.Time, dayType string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.dayTypes[userID+"|"+day.Format("2006-01-02")] = dayType
	return nil
}
