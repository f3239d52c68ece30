package gorm

import (
	"context"
	"errors"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/mealmind/v1/internal/ports/outbound"
)

// ConversionRepository persists memoized portion-scaling ratios using GORM.
type ConversionRepository struct {
	db *gorm.DB
}

// NewConversionRepository creates a new conversion cache repository.
func NewConversionRepository(db *gorm.DB) outbound.ConversionCacheRepository {
	return &ConversionRepository{db: db}
}

// Get returns a memoized ratio, or nil when none is stored.
func (r *ConversionRepository) Get(ctx context.Context, foodName, fromUnit, toUnit string) (*outbound.ConversionEntry, error) {
	var model ConversionModel
	result := r.db.WithContext(ctx).
		Where("food_name = ? AND from_unit = ? AND to_unit = ?", foodName, fromUnit, toUnit).
		First(&model)
	if result.Error != nil {
		if errors.Is(result.Error, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, result.Error
	}
	return &outbound.ConversionEntry{
		FoodName:   model.FoodName,
		FromUnit:   model.FromUnit,
		ToUnit:     model.ToUnit,
		Multiplier: model.Multiplier,
	}, nil
}

// Put stores a ratio, replacing any previous value for the same key.
func (r *ConversionRepository) Put(ctx context.Context, entry *outbound.ConversionEntry) error {
	model := &ConversionModel{
		FoodName:   entry.FoodName,
		FromUnit:   entry.FromUnit,
		ToUnit:     entry.ToUnit,
		Multiplier: entry.Multiplier,
	}
	return r.db.WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "food_name"}, {Name: "from_unit"}, {Name: "to_unit"}},
			DoUpdates: clause.AssignmentColumns([]string{"multiplier"}),
		}).
		Create(model).Error
}
