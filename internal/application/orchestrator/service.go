// Package orchestrator is the top-level state machine behind every turn:
// pleasantry and pending-action fast paths, the ambiguity gate, the intent
// switchboard, propose-confirm-commit resolution, and the logging safety net.
// It is the only layer with a catch-all recovery; everything below degrades
// gracefully instead of aborting a turn.
package orchestrator

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/mealmind/v1/internal/application/intent"
	"github.com/mealmind/v1/internal/application/reasoning"
	"github.com/mealmind/v1/internal/application/recipeflow"
	"github.com/mealmind/v1/internal/application/tools"
	"github.com/mealmind/v1/internal/domain/conversation"
	"github.com/mealmind/v1/internal/ports/inbound"
	"github.com/mealmind/v1/internal/ports/outbound"
	"github.com/mealmind/v1/pkg/errors"
)

const historyLimit = 12

const apology = "Sorry, something went wrong on my end. Nothing was saved; please try again."

// Service implements the conversational entry point.
type Service struct {
	classifier *intent.Classifier
	engine     *reasoning.Engine
	registry   *tools.Registry
	machine    *recipeflow.Machine
	sessions   outbound.SessionRepository
	foodLog    outbound.FoodLogRepository
	goals      outbound.GoalRepository
	logger     *zap.Logger

	mu      sync.Mutex
	history map[string][]outbound.ChatMessage
}

// NewService creates the orchestrator.
func NewService(
	classifier *intent.Classifier,
	engine *reasoning.Engine,
	registry *tools.Registry,
	machine *recipeflow.Machine,
	sessions outbound.SessionRepository,
	foodLog outbound.FoodLogRepository,
	goals outbound.GoalRepository,
	logger *zap.Logger,
) inbound.AssistantService {
	return &Service{
		classifier: classifier,
		engine:     engine,
		registry:   registry,
		machine:    machine,
		sessions:   sessions,
		foodLog:    foodLog,
		goals:      goals,
		logger:     logger.Named("orchestrator"),
		history:    make(map[string][]outbound.ChatMessage),
	}
}

// Send processes one turn. The single top-level recover guarantees a
// response is always returned; no other layer aborts a turn.
func (s *Service) Send(ctx context.Context, message, sessionID, timezone string) (reply *inbound.Reply, err error) {
	defer func() {
		if r := recover(); r != nil {
			s.logger.Error("orchestration panic",
				zap.String("session_id", sessionID),
				zap.Error(errors.NewFatalError(fmt.Errorf("%v", r))))
			reply = &inbound.Reply{Status: "error", Message: apology, ResponseType: inbound.ResponseError}
			err = nil
		}
	}()

	userID := sessionID
	message = strings.TrimSpace(message)
	if message == "" {
		return answer("I didn't catch that. What would you like to do?"), nil
	}

	clarification := s.takeClarification(ctx, userID)

	reply, handled, err := s.fastPath(ctx, userID, message, timezone)
	if err != nil {
		return nil, err
	}
	if handled {
		s.remember(sessionID, message, reply.Message)
		return reply, nil
	}

	it := s.classifier.Classify(ctx, message, s.historyTexts(sessionID))

	reply, handled, err = s.resolvePendingByIntent(ctx, userID, message, timezone, it)
	if err != nil {
		return nil, err
	}
	if handled {
		s.remember(sessionID, message, reply.Message)
		return reply, nil
	}

	if reply, asked := s.ambiguityGate(ctx, userID, message, it, clarification); asked {
		s.remember(sessionID, message, reply.Message)
		return reply, nil
	}

	reply, err = s.route(ctx, userID, sessionID, message, timezone, it)
	if err != nil {
		return nil, err
	}
	s.remember(sessionID, message, reply.Message)
	return reply, nil
}

// fastPath handles pleasantries and pending-action turns before any
// classification happens. Pending recipe captures consume every message
// until the flow is terminal.
func (s *Service) fastPath(ctx context.Context, userID, message, timezone string) (*inbound.Reply, bool, error) {
	pending, err := s.sessions.GetPendingAction(ctx, userID)
	if err != nil {
		s.logger.Warn("pending action load failed", zap.Error(err))
		pending = nil
	}

	if pending == nil {
		if isPleasantry(message) {
			return answer("Anytime! Let me know what you eat and I'll keep track."), true, nil
		}
		return nil, false, nil
	}

	if pending.Kind == conversation.ActionRecipeSave || pending.Kind == conversation.ActionRecipeSelection {
		reply, err := s.advanceRecipeCapture(ctx, userID, pending, message)
		return reply, true, err
	}

	if matchesConfirm(message, pending.ID.String()) {
		reply, err := s.commit(ctx, userID, pending, timezone)
		return reply, true, err
	}
	if matchesCancel(message, pending.ID.String()) {
		s.clearPending(ctx, userID)
		return answer(fmt.Sprintf("Okay, cancelled: %s.", pending.Summary)), true, nil
	}
	return nil, false, nil
}

// resolvePendingByIntent handles the classified confirm/decline signals and
// clears a stale pending action when an unrelated mutating intent arrives.
func (s *Service) resolvePendingByIntent(ctx context.Context, userID, message, timezone string, it *conversation.Intent) (*inbound.Reply, bool, error) {
	pending, err := s.sessions.GetPendingAction(ctx, userID)
	if err != nil || pending == nil {
		return nil, false, nil
	}

	switch it.Type {
	case conversation.IntentConfirm:
		reply, err := s.commit(ctx, userID, pending, timezone)
		return reply, true, err
	case conversation.IntentDecline, conversation.IntentCancel:
		s.clearPending(ctx, userID)
		return answer(fmt.Sprintf("Okay, cancelled: %s.", pending.Summary)), true, nil
	}

	if it.IsMutating() {
		// A new mutating request abandons the old proposal.
		s.clearPending(ctx, userID)
	}
	return nil, false, nil
}

// ambiguityGate asks the single allowed clarifying question. When the
// previous turn already asked, the intent is downgraded and processing
// proceeds; a question is never asked twice for the same root utterance.
func (s *Service) ambiguityGate(ctx context.Context, userID, message string, it *conversation.Intent, cc *conversation.ClarificationContext) (*inbound.Reply, bool) {
	if cc != nil {
		// The previous turn asked; proceed no matter what the classifier
		// thinks this time.
		if it.Ambiguity == conversation.AmbiguityHigh {
			it.Ambiguity = conversation.AmbiguityMedium
		}
		return nil, false
	}

	if it.Ambiguity != conversation.AmbiguityHigh {
		return nil, false
	}

	if err := s.sessions.SaveClarification(ctx, userID, &conversation.ClarificationContext{
		OriginalMessage:  message,
		AmbiguityReasons: it.AmbiguityReasons,
		PartialIntent:    it,
	}); err != nil {
		s.logger.Warn("clarification save failed, proceeding unclarified", zap.Error(err))
		return nil, false
	}

	return &inbound.Reply{
		Status:       "ok",
		Message:      clarifyingQuestion(it),
		ResponseType: inbound.ResponseClarification,
	}, true
}

// route dispatches a classified, unambiguous-enough turn.
func (s *Service) route(ctx context.Context, userID, sessionID, message, timezone string, it *conversation.Intent) (*inbound.Reply, error) {
	switch it.Type {
	case conversation.IntentGreeting:
		return answer("Hi! Tell me what you ate, save a recipe, or ask how your day is going."), nil

	case conversation.IntentInsight:
		return s.insights(ctx, userID)

	case conversation.IntentMemory:
		return s.storeMemory(ctx, userID, message)

	case conversation.IntentSaveRecipe:
		return s.startRecipeCapture(ctx, userID, message)

	case conversation.IntentConfirm, conversation.IntentDecline, conversation.IntentCancel:
		return answer("There's nothing waiting for a confirmation right now."), nil

	default:
		return s.reason(ctx, userID, sessionID, message, timezone, it)
	}
}

// reason runs the bounded tool-calling loop and turns its outcome into a
// reply, persisting a proposal as the pending action when one was built.
func (s *Service) reason(ctx context.Context, userID, sessionID, message, timezone string, it *conversation.Intent) (*inbound.Reply, error) {
	messages := append(s.boundedHistory(sessionID), outbound.ChatMessage{
		Role:    outbound.RoleUser,
		Content: message,
	})

	outcome, err := s.engine.Run(ctx, userID, systemPrompt(timezone), messages)
	if err != nil {
		s.logger.Error("reasoning run failed", zap.Error(err))
		return &inbound.Reply{Status: "error", Message: apology, ResponseType: inbound.ResponseError}, nil
	}

	proposal := outcome.Proposal
	if proposal == nil && isLoggingIntent(it) {
		// Safety net: already-resolved items must never be dropped silently.
		proposal = salvageProposal(outcome.Gathered)
	}

	if proposal != nil {
		return s.propose(ctx, userID, proposal)
	}

	text := outcome.Text
	if text == "" {
		text = "I wasn't able to work that one out. Could you rephrase it?"
	}
	return answer(text), nil
}

// propose persists the proposal as the user's single pending action and asks
// for confirmation. A re-proposal simply replaces the previous record.
func (s *Service) propose(ctx context.Context, userID string, p *tools.Proposal) (*inbound.Reply, error) {
	action := actionFromProposal(userID, p)
	if err := action.Validate(); err != nil {
		s.logger.Error("malformed proposal", zap.Error(err), zap.String("kind", string(p.Kind)))
		return &inbound.Reply{Status: "error", Message: apology, ResponseType: inbound.ResponseError}, nil
	}
	if err := s.sessions.SavePendingAction(ctx, action); err != nil {
		return nil, fmt.Errorf("save pending action: %w", err)
	}

	message := p.Summary + ". Should I go ahead?"
	if len(p.Excluded) > 0 {
		message = fmt.Sprintf("%s (I couldn't find nutrition data for %s.)", message, strings.Join(p.Excluded, ", "))
	}
	return &inbound.Reply{
		Status:       "ok",
		Message:      message,
		ResponseType: inbound.ResponseConfirmation,
		Data: map[string]any{
			"proposal_id": action.ID.String(),
			"kind":        string(action.Kind),
			"confirm":     "confirm:" + action.ID.String(),
			"cancel":      "cancel:" + action.ID.String(),
		},
	}, nil
}

func (s *Service) insights(ctx context.Context, userID string) (*inbound.Reply, error) {
	result, err := s.registry.Execute(ctx, userID, "get_insights", nil)
	if err != nil {
		s.logger.Warn("insights failed", zap.Error(err))
		return answer("I couldn't pull up your day just now. Try again in a moment."), nil
	}
	if m, ok := result.(map[string]any); ok {
		if summary, ok := m["summary"].(string); ok {
			return &inbound.Reply{Status: "ok", Message: summary, ResponseType: inbound.ResponseAnswer, Data: m["progress"]}, nil
		}
	}
	return answer("I couldn't pull up your day just now. Try again in a moment."), nil
}

func (s *Service) storeMemory(ctx context.Context, userID, message string) (*inbound.Reply, error) {
	args := fmt.Sprintf(`{"content": %q}`, message)
	if _, err := s.registry.Execute(ctx, userID, "save_memory", []byte(args)); err != nil {
		s.logger.Warn("memory store failed", zap.Error(err))
		return answer("I couldn't save that just now, sorry."), nil
	}
	return answer("Got it, I'll remember that."), nil
}

func (s *Service) startRecipeCapture(ctx context.Context, userID, message string) (*inbound.Reply, error) {
	state, prompt, err := s.machine.Start(ctx, userID, message)
	if err != nil {
		s.logger.Warn("recipe capture start failed", zap.Error(err))
		return answer("I couldn't read a recipe out of that. Could you list the ingredients?"), nil
	}

	action := conversation.NewPendingAction(userID, conversation.ActionRecipeSave, "Save recipe "+state.Parsed.Name)
	action.RecipeSave = state
	if err := s.sessions.SavePendingAction(ctx, action); err != nil {
		return nil, fmt.Errorf("save recipe capture state: %w", err)
	}
	return &inbound.Reply{Status: "ok", Message: prompt, ResponseType: inbound.ResponseConfirmation}, nil
}

// advanceRecipeCapture routes a message into an in-progress capture flow and
// persists or clears the updated state.
func (s *Service) advanceRecipeCapture(ctx context.Context, userID string, pending *conversation.PendingAction, message string) (*inbound.Reply, error) {
	state := pending.RecipeSave
	if state == nil {
		s.clearPending(ctx, userID)
		return answer("That recipe capture got lost; please start again."), nil
	}

	prompt, err := s.machine.Advance(ctx, userID, state, message)
	if err != nil {
		s.logger.Warn("recipe capture advance failed", zap.Error(err))
		s.clearPending(ctx, userID)
		return answer("I lost track of that recipe, sorry. Please start again."), nil
	}

	if state.Terminal() {
		s.clearPending(ctx, userID)
		return answer(prompt), nil
	}

	pending.RecipeSave = state
	if err := s.sessions.SavePendingAction(ctx, pending); err != nil {
		return nil, fmt.Errorf("save recipe capture state: %w", err)
	}
	return &inbound.Reply{Status: "ok", Message: prompt, ResponseType: inbound.ResponseConfirmation}, nil
}

func (s *Service) clearPending(ctx context.Context, userID string) {
	if err := s.sessions.ClearPendingAction(ctx, userID); err != nil {
		s.logger.Warn("clear pending action failed", zap.Error(err))
	}
}

func (s *Service) clearClarification(ctx context.Context, userID string) {
	if err := s.sessions.ClearClarification(ctx, userID); err != nil {
		s.logger.Warn("clear clarification failed", zap.Error(err))
	}
}

// takeClarification consumes the clarification context saved by the previous
// turn. The context lives for exactly one turn regardless of which path that
// turn takes, so an intervening pleasantry or confirmation cannot leave it
// dangling to downgrade a later unrelated utterance.
func (s *Service) takeClarification(ctx context.Context, userID string) *conversation.ClarificationContext {
	cc, err := s.sessions.GetClarification(ctx, userID)
	if err != nil || cc == nil {
		return nil
	}
	s.clearClarification(ctx, userID)
	return cc
}

func (s *Service) remember(sessionID, userMessage, assistantMessage string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	h := s.history[sessionID]
	h = append(h,
		outbound.ChatMessage{Role: outbound.RoleUser, Content: userMessage},
		outbound.ChatMessage{Role: outbound.RoleAssistant, Content: assistantMessage},
	)
	if len(h) > historyLimit {
		h = h[len(h)-historyLimit:]
	}
	s.history[sessionID] = h
}

func (s *Service) boundedHistory(sessionID string) []outbound.ChatMessage {
	s.mu.Lock()
	defer s.mu.Unlock()
	h := s.history[sessionID]
	out := make([]outbound.ChatMessage, len(h))
	copy(out, h)
	return out
}

func (s *Service) historyTexts(sessionID string) []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	var texts []string
	for _, m := range s.history[sessionID] {
		texts = append(texts, m.Role+": "+m.Content)
	}
	return texts
}

func answer(text string) *inbound.Reply {
	return &inbound.Reply{Status: "ok", Message: text, ResponseType: inbound.ResponseAnswer}
}

func isLoggingIntent(it *conversation.Intent) bool {
	return it.Type == conversation.IntentLogFood || it.Type == conversation.IntentLogRecipe
}

// salvageProposal builds a food-log proposal from resolved nutrition results
// the reasoning run gathered but never proposed.
func salvageProposal(gathered map[string][]any) *tools.Proposal {
	var items []conversation.FoodLogItem
	for _, raw := range gathered["resolve_nutrition"] {
		if food, ok := raw.(*tools.ResolvedFood); ok && food.Nutrients != nil {
			items = append(items, conversation.FoodLogItem{
				Name:      food.Name,
				Portion:   food.Portion,
				Nutrients: food.Nutrients,
			})
		}
	}
	if len(items) == 0 {
		return nil
	}
	merged := tools.MergeProposals([]*tools.Proposal{{Kind: conversation.ActionFoodLog, Items: items}})
	return merged
}

func clarifyingQuestion(it *conversation.Intent) string {
	if len(it.AmbiguityReasons) > 0 {
		return fmt.Sprintf("Quick check before I log anything: %s. Could you clarify?", it.AmbiguityReasons[0])
	}
	return "I want to make sure I get this right. Could you give me a bit more detail?"
}

func systemPrompt(timezone string) string {
	loc := timezone
	if loc == "" {
		loc = "UTC"
	}
	return fmt.Sprintf(
		"You are a nutrition assistant. Today is %s (%s). "+
			"Resolve every food item with resolve_nutrition before proposing. "+
			"Use the propose_* tools for anything that should be saved; never claim something was saved, because every save needs the user's confirmation first. "+
			"Keep answers short and concrete.",
		time.Now().Format("Monday, January 2 2006"), loc,
	)
}
