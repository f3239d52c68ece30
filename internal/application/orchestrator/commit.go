package orchestrator

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/mealmind/v1/internal/application/tools"
	"github.com/mealmind/v1/internal/domain/conversation"
	"github.com/mealmind/v1/internal/ports/inbound"
	"github.com/mealmind/v1/internal/ports/outbound"
)

// commit writes a confirmed pending action to the store and clears it. This
// is the only path from proposal to persistence.
func (s *Service) commit(ctx context.Context, userID string, pending *conversation.PendingAction, timezone string) (*inbound.Reply, error) {
	if err := pending.Validate(); err != nil {
		s.clearPending(ctx, userID)
		return answer("That proposal looked corrupted, so I discarded it. Please try again."), nil
	}

	now := time.Now()
	if loc, err := time.LoadLocation(timezone); err == nil && timezone != "" {
		now = now.In(loc)
	}

	var message string
	switch pending.Kind {
	case conversation.ActionFoodLog:
		entries := make([]*outbound.FoodLogEntry, len(pending.FoodLog.Items))
		for i, item := range pending.FoodLog.Items {
			entries[i] = &outbound.FoodLogEntry{
				ID:        uuid.New(),
				UserID:    userID,
				Name:      item.Name,
				Portion:   item.Portion,
				Nutrients: item.Nutrients,
				LoggedAt:  now,
			}
		}
		// One atomic write: a failure keeps the pending action intact with
		// nothing persisted, so a retried confirmation cannot double-log.
		if err := s.foodLog.CreateBatch(ctx, entries); err != nil {
			return nil, fmt.Errorf("commit food log: %w", err)
		}
		message = fmt.Sprintf("Logged %d item(s).", len(pending.FoodLog.Items))

	case conversation.ActionRecipeLog:
		p := pending.RecipeLog
		entry := &outbound.FoodLogEntry{
			ID:        uuid.New(),
			UserID:    userID,
			Name:      p.Name,
			Portion:   fmt.Sprintf("%.3g serving(s)", p.Servings),
			Nutrients: p.Nutrients,
			LoggedAt:  now,
		}
		if err := s.foodLog.Create(ctx, entry); err != nil {
			return nil, fmt.Errorf("commit recipe log: %w", err)
		}
		message = fmt.Sprintf("Logged %.3g serving(s) of %q.", p.Servings, p.Name)

	case conversation.ActionGoalUpdate:
		if err := s.upsertGoal(ctx, userID, pending.GoalUpdate.Goal); err != nil {
			return nil, err
		}
		message = "Goal updated."

	case conversation.ActionBulkGoalUpdate:
		for _, g := range pending.BulkGoalUpdate.Goals {
			if err := s.upsertGoal(ctx, userID, g); err != nil {
				return nil, err
			}
		}
		message = fmt.Sprintf("Updated %d goals.", len(pending.BulkGoalUpdate.Goals))

	default:
		s.clearPending(ctx, userID)
		return answer("I couldn't work out what to commit there, so I discarded it."), nil
	}

	s.clearPending(ctx, userID)
	return answer(message), nil
}

func (s *Service) upsertGoal(ctx context.Context, userID string, g conversation.GoalField) error {
	goal := &outbound.Goal{
		UserID:   userID,
		Nutrient: g.Nutrient,
		Target:   g.Target,
		DayType:  g.DayType,
	}
	if err := s.goals.Upsert(ctx, goal); err != nil {
		return fmt.Errorf("commit goal update: %w", err)
	}
	return nil
}

// actionFromProposal turns a merged proposal into the persisted pending
// action record.
func actionFromProposal(userID string, p *tools.Proposal) *conversation.PendingAction {
	action := conversation.NewPendingAction(userID, p.Kind, p.Summary)
	switch p.Kind {
	case conversation.ActionFoodLog:
		action.FoodLog = &conversation.FoodLogPayload{Items: p.Items}
	case conversation.ActionRecipeLog:
		action.RecipeLog = p.RecipeLog
	case conversation.ActionGoalUpdate:
		if len(p.Goals) > 0 {
			action.GoalUpdate = &conversation.GoalUpdatePayload{Goal: p.Goals[0]}
		}
	case conversation.ActionBulkGoalUpdate:
		action.BulkGoalUpdate = &conversation.BulkGoalUpdatePayload{Goals: p.Goals}
	}
	return action
}
