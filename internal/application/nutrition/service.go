package nutrition

import (
	"context"

	"go.uber.org/zap"

	"github.com/mealmind/v1/internal/application/portion"
	"github.com/mealmind/v1/internal/domain/nutrition"
)

// Service resolves (food name, portion) pairs into portion-scaled nutrient
// vectors by combining the resolution pipeline with the portion resolver.
type Service struct {
	pipeline *Pipeline
	portions *portion.Resolver
	logger   *zap.Logger
}

// NewService creates a nutrition service.
func NewService(pipeline *Pipeline, portions *portion.Resolver, logger *zap.Logger) *Service {
	return &Service{
		pipeline: pipeline,
		portions: portions,
		logger:   logger.Named("nutrition-service"),
	}
}

// ResolvePortion resolves the food's per-serving vector, computes the scaling
// multiplier against the user's portion, and returns the scaled vector with
// the official serving it was scaled from. Hollow fat-subtype data is flagged
// on the vector but never blocks resolution.
func (s *Service) ResolvePortion(ctx context.Context, foodName, portionText string) (*nutrition.Vector, string, error) {
	res, err := s.pipeline.Resolve(ctx, foodName)
	if err != nil {
		return nil, "", err
	}

	multiplier := s.portions.Multiplier(ctx, foodName, portionText, res.ServingSize)
	scaled := res.Nutrients.Scale(multiplier)

	if nutrition.HasHollowFatSubtypes(scaled) {
		scaled.AddErrorSource(nutrition.SourceHollowFat)
	}

	s.logger.Info("resolved portion",
		zap.String("food", foodName),
		zap.String("portion", portionText),
		zap.String("serving", res.ServingSize),
		zap.String("source", res.Source),
		zap.Float64("multiplier", multiplier))

	return scaled, res.ServingSize, nil
}
