package gorm

import (
	"context"
	"errors"
	"time"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/mealmind/v1/internal/domain/conversation"
	"github.com/mealmind/v1/internal/ports/outbound"
)

// SessionRepository persists per-user conversational state using GORM. The
// pending action and clarification context are stored as JSON documents
// since only the orchestrator interprets them.
type SessionRepository struct {
	db *gorm.DB
}

// NewSessionRepository creates a new session repository.
func NewSessionRepository(db *gorm.DB) outbound.SessionRepository {
	return &SessionRepository{db: db}
}

// GetPendingAction returns the user's pending action, or nil when none is
// waiting.
func (r *SessionRepository) GetPendingAction(ctx context.Context, userID string) (*conversation.PendingAction, error) {
	var model PendingActionModel
	result := r.db.WithContext(ctx).First(&model, "user_id = ?", userID)
	if result.Error != nil {
		if errors.Is(result.Error, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, result.Error
	}
	return unmarshalPendingAction(model.Payload)
}

// SavePendingAction stores the pending action, replacing any previous one.
func (r *SessionRepository) SavePendingAction(ctx context.Context, action *conversation.PendingAction) error {
	payload, err := marshalPendingAction(action)
	if err != nil {
		return err
	}
	model := &PendingActionModel{UserID: action.UserID, Payload: payload}
	return r.db.WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "user_id"}},
			DoUpdates: clause.AssignmentColumns([]string{"payload", "updated_at"}),
		}).
		Create(model).Error
}

// ClearPendingAction removes the user's pending action.
func (r *SessionRepository) ClearPendingAction(ctx context.Context, userID string) error {
	return r.db.WithContext(ctx).Delete(&PendingActionModel{}, "user_id = ?", userID).Error
}

// GetClarification returns the stored clarification context, or nil.
func (r *SessionRepository) GetClarification(ctx context.Context, userID string) (*conversation.ClarificationContext, error) {
	var model ClarificationModel
	result := r.db.WithContext(ctx).First(&model, "user_id = ?", userID)
	if result.Error != nil {
		if errors.Is(result.Error, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, result.Error
	}
	return unmarshalClarification(model.Payload)
}

// SaveClarification stores the one-turn clarification context.
func (r *SessionRepository) SaveClarification(ctx context.Context, userID string, cc *conversation.ClarificationContext) error {
	payload, err := marshalClarification(cc)
	if err != nil {
		return err
	}
	model := &ClarificationModel{UserID: userID, Payload: payload}
	return r.db.WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "user_id"}},
			DoUpdates: clause.AssignmentColumns([]string{"payload", "created_at"}),
		}).
		Create(model).Error
}

// ClearClarification removes the stored clarification context.
func (r *SessionRepository) ClearClarification(ctx context.Context, userID string) error {
	return r.db.WithContext(ctx).Delete(&ClarificationModel{}, "user_id = ?", userID).Error
}

// GetDayType returns the stored day classification for one calendar day.
func (r *SessionRepository) GetDayType(ctx context.Context, userID string, day time.Time) (string, error) {
	var model DayTypeModel
	result := r.db.WithContext(ctx).
		Where("user_id = ? AND day = ?", userID, day.Format("2006-01-02")).
		First(&model)
	if result.Error != nil {
		if errors.Is(result.Error, gorm.ErrRecordNotFound) {
			return "", nil
		}
		return "", result.Error
	}
	return model.DayType, nil
}

// SetDayType stores the day classification for one calendar day.
func (r *SessionRepository) SetDayType(ctx context.Context, userID string, day time.Time, dayType string) error {
	model := &DayTypeModel{
		UserID:  userID,
		Day:     day.Format("2006-01-02"),
		DayType: dayType,
	}
	return r.db.WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "user_id"}, {Name: "day"}},
			DoUpdates: clause.AssignmentColumns([]string{"day_type"}),
		}).
		Create(model).Error
}
