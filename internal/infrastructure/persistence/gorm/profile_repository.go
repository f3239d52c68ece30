package gorm

import (
	"context"
	"errors"
	"strings"

	"gorm.io/gorm"

	"github.com/mealmind/v1/internal/ports/outbound"
)

// ProfileRepository reads user profiles using GORM. A missing profile yields
// a default one so the assistant never depends on profile onboarding.
type ProfileRepository struct {
	db *gorm.DB
}

// NewProfileRepository creates a new profile repository.
func NewProfileRepository(db *gorm.DB) outbound.ProfileRepository {
	return &ProfileRepository{db: db}
}

// Get returns the user's profile.
func (r *ProfileRepository) Get(ctx context.Context, userID string) (*outbound.Profile, error) {
	var model ProfileModel
	result := r.db.WithContext(ctx).First(&model, "user_id = ?", userID)
	if result.Error != nil {
		if errors.Is(result.Error, gorm.ErrRecordNotFound) {
			return &outbound.Profile{UserID: userID, Timezone: "UTC"}, nil
		}
		return nil, result.Error
	}

	profile := &outbound.Profile{
		UserID:      model.UserID,
		DisplayName: model.DisplayName,
		Timezone:    model.Timezone,
	}
	if model.HealthConstraints != "" {
		profile.HealthConstraints = strings.Split(model.HealthConstraints, "\n")
	}
	return profile, nil
}
