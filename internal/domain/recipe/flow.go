package recipe

import (
	"github.com/mealmind/v1/internal/domain/nutrition"
)

// FlowStep identifies where a multi-turn recipe capture currently stands.
type FlowStep string

const (
	StepParse                  FlowStep = "parse"
	StepPendingDuplicate       FlowStep = "pending_duplicate_confirm"
	StepPendingBatchConfirm    FlowStep = "pending_batch_confirm"
	StepPendingServingsConfirm FlowStep = "pending_servings_confirm"
	StepReadyToSave            FlowStep = "ready_to_save"
	StepDone                   FlowStep = "done"
)

// Outcome is the terminal result of a capture flow.
type Outcome string

const (
	OutcomeSaved          Outcome = "saved"
	OutcomeUpdated        Outcome = "updated"
	OutcomeLoggedExisting Outcome = "logged_existing"
	OutcomeCancelled      Outcome = "cancelled"
)

// DuplicateChoice is the explicit, tagged resolution for a detected
// duplicate. Free text is parsed into one of these at the transition
// boundary, never carried through the flow.
type DuplicateChoice string

const (
	ChoiceLogExisting DuplicateChoice = "log_existing"
	ChoiceUpdate      DuplicateChoice = "update"
	ChoiceSaveNew     DuplicateChoice = "save_new"
)

// DuplicateKind distinguishes how a duplicate was matched; the prompts are
// worded differently but the flow-state shape is identical.
type DuplicateKind string

const (
	DuplicateExactFingerprint DuplicateKind = "exact_fingerprint"
	DuplicateFuzzyName        DuplicateKind = "fuzzy_name"
)

// Candidate is a possible duplicate of the recipe being captured.
type Candidate struct {
	RecipeID string        `json:"recipe_id"`
	Name     string        `json:"name"`
	Kind     DuplicateKind `json:"kind"`
}

// FlowState is the resumable state of an in-progress recipe capture.
// Nutrition for the full ingredient list is computed once per flow and
// cached here. Mutated turn-by-turn; terminal once Outcome is set.
type FlowState struct {
	Step              FlowStep          `json:"step"`
	Parsed            Parsed            `json:"parsed"`
	BatchSizeGrams    float64           `json:"batch_size_grams"`
	BatchConfidence   nutrition.Confidence `json:"batch_confidence"`
	SuggestedServings int               `json:"suggested_servings"`
	Nutrients         *nutrition.Vector `json:"nutrients,omitempty"`
	Warnings          []string          `json:"warnings,omitempty"`
	Candidates        []Candidate       `json:"candidates,omitempty"`
	TargetRecipeID    string            `json:"target_recipe_id,omitempty"` // set when an update choice picked an existing recipe
	Outcome           Outcome           `json:"outcome,omitempty"`
}

// Terminal reports whether the flow has finished.
func (s *FlowState) Terminal() bool {
	return s.Outcome != ""
}

// AddWarning records a data-quality warning once.
func (s *FlowState) AddWarning(w string) {
	for _, existing := range s.Warnings {
		if existing == w {
			return
		}
	}
	s.Warnings = append(s.Warnings, w)
}
