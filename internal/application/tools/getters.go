package tools

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/mealmind/v1/internal/domain/nutrition"
	"github.com/mealmind/v1/internal/ports/outbound"
	"github.com/mealmind/v1/pkg/errors"
)

// ProfileTool returns the user's profile settings.
type ProfileTool struct {
	Profiles outbound.ProfileRepository
}

func (t *ProfileTool) Definition() outbound.ToolDefinition {
	return outbound.ToolDefinition{
		Name:        "get_profile",
		Description: "Get the user's profile: display name, timezone, and health constraints.",
		Parameters:  json.RawMessage(`{"type": "object", "properties": {}}`),
	}
}

func (t *ProfileTool) Execute(ctx context.Context, userID string, _ json.RawMessage) (any, error) {
	profile, err := t.Profiles.Get(ctx, userID)
	if err != nil {
		return nil, errors.NewExternalServiceError("profile store", err)
	}
	return profile, nil
}

// GoalsTool returns the user's nutrition goals, including today's day type.
type GoalsTool struct {
	Goals    outbound.GoalRepository
	Sessions outbound.SessionRepository
}

func (t *GoalsTool) Definition() outbound.ToolDefinition {
	return outbound.ToolDefinition{
		Name:        "get_goals",
		Description: "Get the user's nutrition goals and today's day type (training or rest).",
		Parameters:  json.RawMessage(`{"type": "object", "properties": {}}`),
	}
}

func (t *GoalsTool) Execute(ctx context.Context, userID string, _ json.RawMessage) (any, error) {
	goals, err := t.Goals.List(ctx, userID)
	if err != nil {
		return nil, errors.NewExternalServiceError("goal store", err)
	}
	dayType, err := t.Sessions.GetDayType(ctx, userID, time.Now())
	if err != nil {
		dayType = ""
	}
	return map[string]any{"goals": goals, "day_type": dayType}, nil
}

// GoalProgress is one nutrient's consumed-vs-target line.
type GoalProgress struct {
	Nutrient  string  `json:"nutrient"`
	Target    float64 `json:"target"`
	Consumed  float64 `json:"consumed"`
	Remaining float64 `json:"remaining"`
	DayType   string  `json:"day_type,omitempty"`
}

// DailyProgress is today's consumption measured against goals.
type DailyProgress struct {
	Date     string            `json:"date"`
	Entries  int               `json:"entries"`
	Totals   *nutrition.Vector `json:"totals"`
	Goals    []GoalProgress    `json:"goals"`
}

func computeProgress(ctx context.Context, foodLog outbound.FoodLogRepository, goals outbound.GoalRepository, userID string, day time.Time) (*DailyProgress, error) {
	entries, err := foodLog.ListByDay(ctx, userID, day)
	if err != nil {
		return nil, errors.NewExternalServiceError("food log store", err)
	}

	totals := nutrition.NewVector(nutrition.ConfidenceHigh)
	for _, e := range entries {
		totals.Add(e.Nutrients)
	}

	progress := &DailyProgress{
		Date:    day.Format("2006-01-02"),
		Entries: len(entries),
		Totals:  totals,
	}

	userGoals, err := goals.List(ctx, userID)
	if err != nil {
		return nil, errors.NewExternalServiceError("goal store", err)
	}
	for _, g := range userGoals {
		consumed := totals.Get(nutrition.Key(g.Nutrient))
		progress.Goals = append(progress.Goals, GoalProgress{
			Nutrient:  g.Nutrient,
			Target:    g.Target,
			Consumed:  consumed,
			Remaining: g.Target - consumed,
			DayType:   g.DayType,
		})
	}
	return progress, nil
}

// ProgressTool reports today's totals against the user's goals.
type ProgressTool struct {
	FoodLog outbound.FoodLogRepository
	Goals   outbound.GoalRepository
}

func (t *ProgressTool) Definition() outbound.ToolDefinition {
	return outbound.ToolDefinition{
		Name:        "get_progress",
		Description: "Get today's consumed nutrition totals measured against the user's goals.",
		Parameters:  json.RawMessage(`{"type": "object", "properties": {}}`),
	}
}

func (t *ProgressTool) Execute(ctx context.Context, userID string, _ json.RawMessage) (any, error) {
	return computeProgress(ctx, t.FoodLog, t.Goals, userID, time.Now())
}

// HistoryTool lists recent food-log entries.
type HistoryTool struct {
	FoodLog outbound.FoodLogRepository
}

func (t *HistoryTool) Definition() outbound.ToolDefinition {
	return outbound.ToolDefinition{
		Name:        "get_history",
		Description: "Get the user's most recent food-log entries.",
		Parameters:  json.RawMessage(`{"type": "object", "properties": {"limit": {"type": "integer"}}}`),
	}
}

func (t *HistoryTool) Execute(ctx context.Context, userID string, args json.RawMessage) (any, error) {
	var params struct {
		Limit int `json:"limit"`
	}
	if len(args) > 0 {
		_ = json.Unmarshal(args, &params)
	}
	if params.Limit <= 0 || params.Limit > 50 {
		params.Limit = 10
	}
	entries, err := t.FoodLog.ListRecent(ctx, userID, params.Limit)
	if err != nil {
		return nil, errors.NewExternalServiceError("food log store", err)
	}
	return entries, nil
}

// InsightsTool summarizes today's progress in a readable form. It backs both
// the catalog entry and the orchestrator's insight fast path.
type InsightsTool struct {
	FoodLog outbound.FoodLogRepository
	Goals   outbound.GoalRepository
}

func (t *InsightsTool) Definition() outbound.ToolDefinition {
	return outbound.ToolDefinition{
		Name:        "get_insights",
		Description: "Summarize how the user's day is going against their goals.",
		Parameters:  json.RawMessage(`{"type": "object", "properties": {}}`),
	}
}

func (t *InsightsTool) Execute(ctx context.Context, userID string, _ json.RawMessage) (any, error) {
	progress, err := computeProgress(ctx, t.FoodLog, t.Goals, userID, time.Now())
	if err != nil {
		return nil, err
	}
	return map[string]any{
		"progress": progress,
		"summary":  Summarize(progress),
	}, nil
}

// Summarize renders a daily progress report as user-facing text.
func Summarize(p *DailyProgress) string {
	if p.Entries == 0 {
		return "Nothing logged yet today."
	}
	text := fmt.Sprintf("So far today: %.0f kcal across %d entries.", p.Totals.Get(nutrition.KeyCalories), p.Entries)
	for _, g := range p.Goals {
		if g.Remaining > 0 {
			text += fmt.Sprintf(" %s: %.0f of %.0f (%.0f to go).", g.Nutrient, g.Consumed, g.Target, g.Remaining)
		} else {
			text += fmt.Sprintf(" %s: %.0f of %.0f (goal met).", g.Nutrient, g.Consumed, g.Target)
		}
	}
	return text
}
