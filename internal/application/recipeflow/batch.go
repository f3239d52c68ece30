package recipeflow

import (
	"strings"

	"github.com/mealmind/v1/internal/domain/nutrition"
	"github.com/mealmind/v1/internal/domain/recipe"
	"github.com/mealmind/v1/internal/domain/units"
)

// estimateBatch sums per-ingredient gram estimates: weight units convert
// directly, volume units go through the density table, countable items use
// the average-weight table. Aggregate confidence is graded by the fraction
// of ingredients that converted.
func estimateBatch(ingredients []recipe.Ingredient) (float64, nutrition.Confidence) {
	var total float64
	converted := 0
	for _, ing := range ingredients {
		q := units.Quantity{Amount: ing.Quantity, Unit: ing.Unit}
		if grams, ok := units.ToGrams(q, ing.Name); ok && grams > 0 {
			total += grams
			converted++
		}
	}

	if len(ingredients) == 0 || converted == 0 {
		return 0, nutrition.ConfidenceLow
	}
	switch {
	case converted == len(ingredients):
		return total, nutrition.ConfidenceHigh
	case converted*2 >= len(ingredients):
		return total, nutrition.ConfidenceMedium
	default:
		return total, nutrition.ConfidenceLow
	}
}

var affirmativePhrases = []string{
	"yes", "y", "yep", "yeah", "yup", "sure", "ok", "okay", "correct",
	"right", "sounds good", "looks good", "that's right", "confirm", "go ahead", "save it",
}

var negativePhrases = []string{
	"cancel", "nevermind", "never mind", "stop", "forget it", "discard", "abort",
}

// refusalPhrases are plain declines; at the save prompt they discard the
// recipe just like an explicit cancel.
var refusalPhrases = []string{
	"no", "nope", "nah", "no thanks", "don't", "do not",
}

func isAffirmative(message string) bool {
	text := strings.ToLower(strings.TrimSpace(strings.Trim(message, ".!")))
	for _, p := range affirmativePhrases {
		if text == p {
			return true
		}
	}
	return false
}

func isRefusal(message string) bool {
	text := strings.ToLower(strings.TrimSpace(strings.Trim(message, ".!")))
	for _, p := range refusalPhrases {
		if text == p {
			return true
		}
	}
	return false
}

func isNegative(message string) bool {
	text := strings.ToLower(strings.TrimSpace(message))
	for _, p := range negativePhrases {
		if text == p || strings.Contains(text, p) {
			return true
		}
	}
	return false
}
