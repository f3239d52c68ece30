package nutrition

import "errors"

// Domain errors for nutrient data handling

var (
	ErrUnknownNutrient   = errors.New("nutrient name does not map to a tracked key")
	ErrEmptyVector       = errors.New("nutrient vector has no values")
	ErrHierarchyViolated = errors.New("nutrient hierarchy invariant violated")
	ErrNegativeValue     = errors.New("nutrient value cannot be negative")
)
