package gorm

import (
	"context"
	"errors"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/mealmind/v1/internal/ports/outbound"
)

// GoalRepository implements the goal repository interface using GORM.
type GoalRepository struct {
	db *gorm.DB
}

// NewGoalRepository creates a new goal repository.
func NewGoalRepository(db *gorm.DB) outbound.GoalRepository {
	return &GoalRepository{db: db}
}

// Upsert inserts or replaces the goal for its user, nutrient, and day-type
// scope.
func (r *GoalRepository) Upsert(ctx context.Context, goal *outbound.Goal) error {
	model := &GoalModel{
		UserID:   goal.UserID,
		Nutrient: goal.Nutrient,
		DayType:  goal.DayType,
		Target:   goal.Target,
	}
	return r.db.WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "user_id"}, {Name: "nutrient"}, {Name: "day_type"}},
			DoUpdates: clause.AssignmentColumns([]string{"target", "updated_at"}),
		}).
		Create(model).Error
}

// List returns all of the user's goals.
func (r *GoalRepository) List(ctx context.Context, userID string) ([]*outbound.Goal, error) {
	var models []GoalModel
	result := r.db.WithContext(ctx).
		Where("user_id = ?", userID).
		Order("nutrient ASC, day_type ASC").
		Find(&models)
	if result.Error != nil {
		return nil, result.Error
	}

	goals := make([]*outbound.Goal, len(models))
	for i, m := range models {
		goals[i] = &outbound.Goal{
			UserID:   m.UserID,
			Nutrient: m.Nutrient,
			Target:   m.Target,
			DayType:  m.DayType,
		}
	}
	return goals, nil
}

// Get returns one goal by scope, or nil when no goal is set.
func (r *GoalRepository) Get(ctx context.Context, userID, nutrient, dayType string) (*outbound.Goal, error) {
	var model GoalModel
	result := r.db.WithContext(ctx).
		Where("user_id = ? AND nutrient = ? AND day_type = ?", userID, nutrient, dayType).
		First(&model)
	if result.Error != nil {
		if errors.Is(result.Error, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, result.Error
	}
	return &outbound.Goal{
		UserID:   model.UserID,
		Nutrient: model.Nutrient,
		Target:   model.Target,
		DayType:  model.DayType,
	}, nil
}
