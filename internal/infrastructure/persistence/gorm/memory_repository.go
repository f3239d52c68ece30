package gorm

import (
	"context"
	"strings"

	"gorm.io/gorm"

	"github.com/mealmind/v1/internal/ports/outbound"
)

// MemoryRepository implements the remembered-facts repository using GORM.
// Search is a case-insensitive substring match; ranking beyond recency is
// left to the language model reading the results.
type MemoryRepository struct {
	db *gorm.DB
}

// NewMemoryRepository creates a new memory repository.
func NewMemoryRepository(db *gorm.DB) outbound.MemoryRepository {
	return &MemoryRepository{db: db}
}

// Store persists one remembered fact.
func (r *MemoryRepository) Store(ctx context.Context, fact *outbound.MemoryFact) error {
	model := &MemoryFactModel{
		ID:        fact.ID,
		UserID:    fact.UserID,
		Content:   fact.Content,
		CreatedAt: fact.CreatedAt,
	}
	return r.db.WithContext(ctx).Create(model).Error
}

// Search returns the user's facts matching the query, newest first. An empty
// query returns the most recent facts.
func (r *MemoryRepository) Search(ctx context.Context, userID, query string, limit int) ([]*outbound.MemoryFact, error) {
	q := r.db.WithContext(ctx).Where("user_id = ?", userID)
	if strings.TrimSpace(query) != "" {
		q = q.Where("LOWER(content) LIKE ?", "%"+strings.ToLower(strings.TrimSpace(query))+"%")
	}

	var models []MemoryFactModel
	result := q.Order("created_at DESC").Limit(limit).Find(&models)
	if result.Error != nil {
		return nil, result.Error
	}

	facts := make([]*outbound.MemoryFact, len(models))
	for i, m := range models {
		facts[i] = &outbound.MemoryFact{
			ID:        m.ID,
			UserID:    m.UserID,
			Content:   m.Content,
			CreatedAt: m.CreatedAt,
		}
	}
	return facts, nil
}
