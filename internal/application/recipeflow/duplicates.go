package recipeflow

import (
	"context"
	"fmt"
	"strconv"
	"strings"

	"github.com/mealmind/v1/internal/domain/recipe"
)

// findDuplicates looks for recipes the capture may duplicate: an exact
// fingerprint match first, then exact, substring, and fuzzy word-intersection
// name matches against the user's saved recipes.
func (m *Machine) findDuplicates(ctx context.Context, userID string, parsed *recipe.Parsed) ([]recipe.Candidate, error) {
	if exact, err := m.recipes.FindByFingerprint(ctx, userID, parsed.Fingerprint); err == nil && exact != nil {
		return []recipe.Candidate{{
			RecipeID: exact.ID.String(),
			Name:     exact.Name,
			Kind:     recipe.DuplicateExactFingerprint,
		}}, nil
	}

	saved, err := m.recipes.FindByUserID(ctx, userID)
	if err != nil {
		return nil, err
	}

	var candidates []recipe.Candidate
	for _, r := range saved {
		if nameMatches(parsed.Name, r.Name) {
			candidates = append(candidates, recipe.Candidate{
				RecipeID: r.ID.String(),
				Name:     r.Name,
				Kind:     recipe.DuplicateFuzzyName,
			})
		}
	}
	return candidates, nil
}

// nameMatches reports whether two recipe names refer to plausibly the same
// recipe: equal (case-insensitive), one containing the other, or sharing at
// least half of the shorter name's words.
func nameMatches(a, b string) bool {
	a = strings.ToLower(strings.TrimSpace(a))
	b = strings.ToLower(strings.TrimSpace(b))
	if a == "" || b == "" {
		return false
	}
	if a == b || strings.Contains(a, b) || strings.Contains(b, a) {
		return true
	}

	wordsA := strings.Fields(a)
	wordsB := strings.Fields(b)
	setB := make(map[string]bool, len(wordsB))
	for _, w := range wordsB {
		setB[w] = true
	}
	shared := 0
	for _, w := range wordsA {
		if setB[w] {
			shared++
		}
	}
	shorter := len(wordsA)
	if len(wordsB) < shorter {
		shorter = len(wordsB)
	}
	return shared*2 >= shorter && shared > 0
}

// ParseDuplicateChoice maps free text onto the explicit duplicate-resolution
// choices. Substring keyword matching is deliberately the whole contract,
// isolated here so the flow itself only ever sees tagged choices.
func ParseDuplicateChoice(message string) (recipe.DuplicateChoice, bool) {
	text := strings.ToLower(message)
	switch {
	case strings.Contains(text, "update"):
		return recipe.ChoiceUpdate, true
	case strings.Contains(text, "new"):
		return recipe.ChoiceSaveNew, true
	case strings.Contains(text, "log") || strings.Contains(text, "existing"):
		return recipe.ChoiceLogExisting, true
	}
	return "", false
}

func wantsNew(message string) bool {
	text := strings.ToLower(message)
	return strings.Contains(text, "new") || strings.Contains(text, "none")
}

// pickCandidate resolves a disambiguation reply: a 1-based number or a
// candidate-name substring.
func pickCandidate(candidates []recipe.Candidate, message string) (recipe.Candidate, bool) {
	text := strings.ToLower(strings.TrimSpace(message))
	if n, err := strconv.Atoi(text); err == nil && n >= 1 && n <= len(candidates) {
		return candidates[n-1], true
	}
	for _, c := range candidates {
		if strings.Contains(text, strings.ToLower(c.Name)) {
			return c, true
		}
	}
	return recipe.Candidate{}, false
}

// duplicatePrompt words the single-candidate prompt. Exact-fingerprint and
// fuzzy-name matches read differently but drive the identical flow shape.
func duplicatePrompt(name string, candidates []recipe.Candidate) string {
	c := candidates[0]
	if c.Kind == recipe.DuplicateExactFingerprint {
		return fmt.Sprintf(
			"You already have %q saved with these exact ingredients. Log the existing recipe, update it, or save this as new?",
			c.Name,
		)
	}
	return fmt.Sprintf(
		"This looks similar to your saved recipe %q. Log the existing one, update it, or save %q as new?",
		c.Name, name,
	)
}

func disambiguationPrompt(candidates []recipe.Candidate) string {
	var b strings.Builder
	b.WriteString("A few saved recipes look similar. Which did you mean?\n")
	for i, c := range candidates {
		fmt.Fprintf(&b, "%d. %s\n", i+1, c.Name)
	}
	b.WriteString("Or say \"new\" to save this as a new recipe.")
	return b.String()
}
