package gorm

import (
	"context"
	"time"

	"gorm.io/gorm"

	"github.com/mealmind/v1/internal/ports/outbound"
)

// FoodLogRepository implements the food-log repository interface using GORM.
type FoodLogRepository struct {
	db *gorm.DB
}

// NewFoodLogRepository creates a new food-log repository.
func NewFoodLogRepository(db *gorm.DB) outbound.FoodLogRepository {
	return &FoodLogRepository{db: db}
}

// Create persists one committed food-log entry.
func (r *FoodLogRepository) Create(ctx context.Context, entry *outbound.FoodLogEntry) error {
	model := &FoodLogModel{
		ID:        entry.ID,
		UserID:    entry.UserID,
		Name:      entry.Name,
		Portion:   entry.Portion,
		Nutrients: marshalVector(entry.Nutrients),
		LoggedAt:  entry.LoggedAt,
	}
	return r.db.WithContext(ctx).Create(model).Error
}

// CreateBatch persists a set of entries in one transaction, so a confirmed
// multi-item proposal never half-commits.
func (r *FoodLogRepository) CreateBatch(ctx context.Context, entries []*outbound.FoodLogEntry) error {
	if len(entries) == 0 {
		return nil
	}
	models := make([]FoodLogModel, len(entries))
	for i, entry := range entries {
		models[i] = FoodLogModel{
			ID:        entry.ID,
			UserID:    entry.UserID,
			Name:      entry.Name,
			Portion:   entry.Portion,
			Nutrients: marshalVector(entry.Nutrients),
			LoggedAt:  entry.LoggedAt,
		}
	}
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return tx.Create(&models).Error
	})
}

// ListByDay returns the user's entries for one calendar day, oldest first.
func (r *FoodLogRepository) ListByDay(ctx context.Context, userID string, day time.Time) ([]*outbound.FoodLogEntry, error) {
	start := time.Date(day.Year(), day.Month(), day.Day(), 0, 0, 0, 0, day.Location())
	end := start.AddDate(0, 0, 1)

	var models []FoodLogModel
	result := r.db.WithContext(ctx).
		Where("user_id = ? AND logged_at >= ? AND logged_at < ?", userID, start, end).
		Order("logged_at ASC").
		Find(&models)
	if result.Error != nil {
		return nil, result.Error
	}
	return toFoodLogEntries(models), nil
}

// ListRecent returns the user's most recent entries, newest first.
func (r *FoodLogRepository) ListRecent(ctx context.Context, userID string, limit int) ([]*outbound.FoodLogEntry, error) {
	var models []FoodLogModel
	result := r.db.WithContext(ctx).
		Where("user_id = ?", userID).
		Order("logged_at DESC").
		Limit(limit).
		Find(&models)
	if result.Error != nil {
		return nil, result.Error
	}
	return toFoodLogEntries(models), nil
}

func toFoodLogEntries(models []FoodLogModel) []*outbound.FoodLogEntry {
	entries := make([]*outbound.FoodLogEntry, len(models))
	for i, m := range models {
		entries[i] = &outbound.FoodLogEntry{
			ID:        m.ID,
			UserID:    m.UserID,
			Name:      m.Name,
			Portion:   m.Portion,
			Nutrients: unmarshalVector(m.Nutrients),
			LoggedAt:  m.LoggedAt,
		}
	}
	return entries
}
