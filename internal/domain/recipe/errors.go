package recipe

import "errors"

// Domain errors for recipe capture

var (
	ErrMissingName     = errors.New("recipe name is required")
	ErrNoIngredients   = errors.New("recipe must have at least one ingredient")
	ErrInvalidServings = errors.New("servings must be greater than 0")
	ErrFlowTerminal    = errors.New("recipe capture flow already finished")
	ErrUnexpectedStep  = errors.New("message does not apply to the current capture step")
)
