// Package recipeflow drives the multi-turn recipe capture state machine:
// parse, duplicate check, batch confirm, servings confirm, save. Nutrition
// for the full ingredient list is computed once per flow and cached in the
// flow state; every later step reuses it.
package recipeflow

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	appnutrition "github.com/mealmind/v1/internal/application/nutrition"
	"github.com/mealmind/v1/internal/domain/nutrition"
	"github.com/mealmind/v1/internal/domain/recipe"
	"github.com/mealmind/v1/internal/domain/units"
	"github.com/mealmind/v1/internal/ports/outbound"
)

// Machine advances recipe capture flows turn by turn.
type Machine struct {
	recipes   outbound.RecipeRepository
	foodLog   outbound.FoodLogRepository
	nutrition *appnutrition.Service
	llm       outbound.LanguageModel
	logger    *zap.Logger
}

// NewMachine creates a recipe capture machine.
func NewMachine(
	recipes outbound.RecipeRepository,
	foodLog outbound.FoodLogRepository,
	nutritionSvc *appnutrition.Service,
	llm outbound.LanguageModel,
	logger *zap.Logger,
) *Machine {
	return &Machine{
		recipes:   recipes,
		foodLog:   foodLog,
		nutrition: nutritionSvc,
		llm:       llm,
		logger:    logger.Named("recipe-flow"),
	}
}

// parsedRecipe is the strict-JSON contract for recipe extraction calls.
type parsedRecipe struct {
	Name        string `json:"name"`
	Servings    int    `json:"servings"`
	Ingredients []struct {
		Name     string  `json:"name"`
		Quantity float64 `json:"quantity"`
		Unit     string  `json:"unit"`
	} `json:"ingredients"`
}

// Start parses the recipe out of the message, resolves nutrition for the
// full ingredient list, runs the duplicate check, and returns the initial
// flow state with the prompt to show the user.
func (m *Machine) Start(ctx context.Context, userID, message string) (*recipe.FlowState, string, error) {
	parsed, err := m.parse(ctx, message)
	if err != nil {
		return nil, "", err
	}

	state := &recipe.FlowState{Step: recipe.StepParse, Parsed: *parsed}
	m.resolveIngredients(ctx, state)

	candidates, err := m.findDuplicates(ctx, userID, parsed)
	if err != nil {
		m.logger.Warn("duplicate check failed, proceeding as new", zap.Error(err))
	}
	if len(candidates) > 0 {
		state.Step = recipe.StepPendingDuplicate
		state.Candidates = candidates
		return state, duplicatePrompt(parsed.Name, candidates), nil
	}

	return state, m.toBatchConfirm(state), nil
}

// Advance applies one user message to an in-progress flow. The returned
// prompt is the next thing to say; once the state is terminal the prompt
// describes the outcome.
func (m *Machine) Advance(ctx context.Context, userID string, state *recipe.FlowState, message string) (string, error) {
	if state.Terminal() {
		return "", recipe.ErrFlowTerminal
	}
	if isNegative(message) {
		state.Step = recipe.StepDone
		state.Outcome = recipe.OutcomeCancelled
		return fmt.Sprintf("Okay, I won't save %q.", state.Parsed.Name), nil
	}

	switch state.Step {
	case recipe.StepPendingDuplicate:
		return m.advanceDuplicate(ctx, userID, state, message)
	case recipe.StepPendingBatchConfirm:
		return m.advanceBatchConfirm(state, message)
	case recipe.StepPendingServingsConfirm:
		return m.advanceServingsConfirm(state, message)
	case recipe.StepReadyToSave:
		return m.advanceSave(ctx, userID, state, message)
	default:
		return "", recipe.ErrUnexpectedStep
	}
}

func (m *Machine) advanceDuplicate(ctx context.Context, userID string, state *recipe.FlowState, message string) (string, error) {
	if len(state.Candidates) > 1 {
		chosen, ok := pickCandidate(state.Candidates, message)
		if !ok {
			if wantsNew(message) {
				state.Candidates = nil
				return m.toBatchConfirm(state), nil
			}
			return disambiguationPrompt(state.Candidates), nil
		}
		state.Candidates = []recipe.Candidate{chosen}
		return duplicatePrompt(state.Parsed.Name, state.Candidates), nil
	}

	choice, ok := ParseDuplicateChoice(message)
	if !ok {
		return duplicatePrompt(state.Parsed.Name, state.Candidates), nil
	}

	switch choice {
	case recipe.ChoiceLogExisting:
		return m.logExisting(ctx, userID, state)
	case recipe.ChoiceUpdate:
		state.TargetRecipeID = state.Candidates[0].RecipeID
		return m.toBatchConfirm(state), nil
	default: // save new
		return m.toBatchConfirm(state), nil
	}
}

func (m *Machine) logExisting(ctx context.Context, userID string, state *recipe.FlowState) (string, error) {
	existing, err := m.recipes.FindByID(ctx, uuid.MustParse(state.Candidates[0].RecipeID))
	if err != nil || existing == nil {
		return "", fmt.Errorf("load existing recipe: %w", err)
	}
	entry := &outbound.FoodLogEntry{
		ID:        uuid.New(),
		UserID:    userID,
		Name:      existing.Name,
		Portion:   "1 serving",
		Nutrients: existing.PerServing(),
		LoggedAt:  time.Now(),
	}
	if err := m.foodLog.Create(ctx, entry); err != nil {
		return "", fmt.Errorf("log existing recipe: %w", err)
	}
	state.Step = recipe.StepDone
	state.Outcome = recipe.OutcomeLoggedExisting
	return fmt.Sprintf("Logged one serving of %q.", existing.Name), nil
}

// toBatchConfirm estimates the batch size and moves the flow to the batch
// confirmation step.
func (m *Machine) toBatchConfirm(state *recipe.FlowState) string {
	grams, confidence := estimateBatch(state.Parsed.Ingredients)
	state.BatchSizeGrams = grams
	state.BatchConfidence = confidence
	state.Step = recipe.StepPendingBatchConfirm
	if grams <= 0 {
		return fmt.Sprintf("I couldn't estimate the batch size for %q. Roughly how much does the whole batch weigh?", state.Parsed.Name)
	}
	return fmt.Sprintf("I estimate the whole batch of %q weighs about %.0f g. Does that sound right, or should I use a different size?", state.Parsed.Name, grams)
}

func (m *Machine) advanceBatchConfirm(state *recipe.FlowState, message string) (string, error) {
	if !isAffirmative(message) {
		// Natural-language size correction: "more like 2 kg".
		if q, ok := units.ParseQuantity(message); ok {
			if grams, converted := units.ToGrams(q, "batch"); converted && grams > 0 {
				state.BatchSizeGrams = grams
				state.BatchConfidence = nutrition.ConfidenceHigh
			}
		}
	}
	state.SuggestedServings = suggestServings(state)
	state.Step = recipe.StepPendingServingsConfirm
	return fmt.Sprintf("How many servings is that? I'd suggest %d.", state.SuggestedServings), nil
}

func (m *Machine) advanceServingsConfirm(state *recipe.FlowState, message string) (string, error) {
	servings := state.SuggestedServings
	if !isAffirmative(message) {
		if q, ok := units.ParseQuantity(message); ok && q.Amount >= 1 {
			servings = int(q.Amount + 0.5)
		}
	}
	if servings < 1 {
		servings = 1
	}
	state.Parsed.Servings = servings
	state.Step = recipe.StepReadyToSave

	perServing := ""
	if state.Nutrients != nil {
		per := state.Nutrients.Scale(1 / float64(servings))
		perServing = fmt.Sprintf(" (~%.0f kcal per serving)", per.Get(nutrition.KeyCalories))
	}
	verb := "Save"
	if state.TargetRecipeID != "" {
		verb = "Update"
	}
	return fmt.Sprintf("%s %q with %d servings%s?", verb, state.Parsed.Name, servings, perServing), nil
}

func (m *Machine) advanceSave(ctx context.Context, userID string, state *recipe.FlowState, message string) (string, error) {
	if isRefusal(message) {
		state.Step = recipe.StepDone
		state.Outcome = recipe.OutcomeCancelled
		return fmt.Sprintf("Okay, I won't save %q.", state.Parsed.Name), nil
	}
	if !isAffirmative(message) {
		return fmt.Sprintf("Should I save %q? Say yes to save or cancel to discard.", state.Parsed.Name), nil
	}

	if state.TargetRecipeID != "" {
		return m.saveUpdate(ctx, state)
	}

	rec, err := recipe.NewRecipe(userID, state.Parsed, state.Nutrients)
	if err != nil {
		return "", err
	}
	if err := m.recipes.Create(ctx, rec); err != nil {
		return "", fmt.Errorf("save recipe: %w", err)
	}
	state.Step = recipe.StepDone
	state.Outcome = recipe.OutcomeSaved
	return fmt.Sprintf("Saved %q with %d servings.", rec.Name, rec.Servings), nil
}

func (m *Machine) saveUpdate(ctx context.Context, state *recipe.FlowState) (string, error) {
	existing, err := m.recipes.FindByID(ctx, uuid.MustParse(state.TargetRecipeID))
	if err != nil || existing == nil {
		return "", fmt.Errorf("load recipe for update: %w", err)
	}
	existing.Ingredients = state.Parsed.Ingredients
	existing.Servings = state.Parsed.Servings
	existing.Fingerprint = state.Parsed.Fingerprint
	existing.Nutrients = state.Nutrients
	existing.UpdatedAt = time.Now()
	if err := m.recipes.Update(ctx, existing); err != nil {
		return "", fmt.Errorf("update recipe: %w", err)
	}
	state.Step = recipe.StepDone
	state.Outcome = recipe.OutcomeUpdated
	return fmt.Sprintf("Updated %q with %d servings.", existing.Name, existing.Servings), nil
}

func (m *Machine) parse(ctx context.Context, message string) (*recipe.Parsed, error) {
	system := "You extract recipes from messages. Respond with strict JSON only: " +
		`{"name": "...", "servings": 0, "ingredients": [{"name": "...", "quantity": 0, "unit": "..."}]}. ` +
		"Use 0 for servings when not stated."

	var out parsedRecipe
	if err := m.llm.CompleteJSON(ctx, system, "Extract the recipe: "+message, &out); err != nil {
		return nil, fmt.Errorf("parse recipe: %w", err)
	}
	if out.Name == "" {
		return nil, recipe.ErrMissingName
	}
	if len(out.Ingredients) == 0 {
		return nil, recipe.ErrNoIngredients
	}

	parsed := &recipe.Parsed{Name: out.Name, Servings: out.Servings}
	for _, ing := range out.Ingredients {
		qty := ing.Quantity
		if qty <= 0 {
			qty = 1
		}
		unit := units.NormalizeUnit(ing.Unit)
		if unit == "" {
			unit = "serving"
		}
		parsed.Ingredients = append(parsed.Ingredients, recipe.Ingredient{
			Name:     ing.Name,
			Quantity: qty,
			Unit:     unit,
		})
	}
	parsed.Fingerprint = recipe.Fingerprint(parsed.IngredientNames())
	return parsed, nil
}

// resolveIngredients computes nutrition for the whole ingredient list once.
// Unresolvable ingredients are excluded from the totals with a warning.
func (m *Machine) resolveIngredients(ctx context.Context, state *recipe.FlowState) {
	totals := nutrition.NewVector(nutrition.ConfidenceHigh)
	resolvedAny := false

	for i := range state.Parsed.Ingredients {
		ing := &state.Parsed.Ingredients[i]
		portionText := fmt.Sprintf("%g %s %s", ing.Quantity, ing.Unit, ing.Name)
		vec, _, err := m.nutrition.ResolvePortion(ctx, ing.Name, portionText)
		if err != nil {
			state.AddWarning(fmt.Sprintf("couldn't find nutrition for %q; it is not counted in the totals", ing.Name))
			continue
		}
		ing.Nutrients = vec
		totals.Add(vec)
		resolvedAny = true
	}

	if resolvedAny {
		totals.ReconcileCalories()
		if nutrition.HasHollowFatSubtypes(totals) {
			state.AddWarning("fat subtype breakdown is incomplete for this recipe")
		}
		state.Nutrients = totals
	}
}

func suggestServings(state *recipe.FlowState) int {
	if state.Parsed.Servings > 0 {
		return state.Parsed.Servings
	}
	if state.BatchSizeGrams > 0 {
		s := int(state.BatchSizeGrams/350 + 0.5)
		if s < 1 {
			s = 1
		}
		return s
	}
	return 1
}
