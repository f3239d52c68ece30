// Package recipe contains the core domain logic for recipe capture:
// parsed recipes, the multi-turn capture flow state, and the fingerprint
// identity used for duplicate detection.
package recipe

import (
	"sort"
	"strings"
)

// fingerprintStopWords are descriptors and unit words stripped before
// fingerprinting, so "2 cups fresh chopped spinach" and "spinach" produce
// the same identity.
var fingerprintStopWords = map[string]bool{
	// descriptors
	"fresh": true, "raw": true, "ripe": true, "organic": true, "plain": true,
	"chopped": true, "diced": true, "sliced": true, "minced": true,
	"shredded": true, "grated": true, "crushed": true, "ground": true,
	"cooked": true, "baked": true, "grilled": true, "roasted": true,
	"boiled": true, "steamed": true, "fried": true,
	"dried": true, "frozen": true, "canned": true, "smoked": true,
	"boneless": true, "skinless": true, "seedless": true, "unsalted": true,
	"salted": true, "sweetened": true, "unsweetened": true,
	"large": true, "small": true, "medium": true, "extra": true,
	"whole": true, "half": true, "quartered": true, "peeled": true,
	"low": true, "reduced": true, "light": true, "lite": true, "free": true,
	"the": true, "and": true, "with": true, "without": true, "for": true,
	// unit words
	"cup": true, "cups": true, "tablespoon": true, "tablespoons": true,
	"tbsp": true, "teaspoon": true, "teaspoons": true, "tsp": true,
	"gram": true, "grams": true, "kg": true, "kilogram": true,
	"ounce": true, "ounces": true, "oz": true, "lb": true, "lbs": true,
	"pound": true, "pounds": true, "ml": true, "liter": true, "liters": true,
	"slice": true, "slices": true, "piece": true, "pieces": true,
	"can": true, "cans": true, "clove": true, "cloves": true,
	"stick": true, "sticks": true, "pinch": true, "dash": true,
	"serving": true, "servings": true, "scoop": true, "scoops": true,
}

// Fingerprint derives a deterministic identity string from an ingredient
// list. It is order-independent and sensitive only to core ingredient name
// changes: amounts, units, and descriptors do not alter it.
func Fingerprint(ingredientNames []string) string {
	canonical := make([]string, 0, len(ingredientNames))
	for _, name := range ingredientNames {
		c := canonicalizeIngredient(name)
		if c != "" {
			canonical = append(canonical, c)
		}
	}
	sort.Strings(canonical)
	return strings.Join(canonical, ",")
}

// canonicalizeIngredient reduces one ingredient name to its core tokens.
func canonicalizeIngredient(name string) string {
	var b strings.Builder
	for _, r := range strings.ToLower(name) {
		if r >= 'a' && r <= 'z' {
			b.WriteRune(r)
		} else {
			b.WriteRune(' ')
		}
	}

	var tokens []string
	for _, token := range strings.Fields(b.String()) {
		if len(token) <= 1 || fingerprintStopWords[token] {
			continue
		}
		token = singularize(token)
		if len(token) <= 1 {
			continue
		}
		tokens = append(tokens, token)
	}
	return strings.Join(tokens, " ")
}

// singularize strips plural suffixes crudely. It only needs to be stable,
// not linguistically correct: "berries"/"berry" and "eggs"/"egg" must agree.
func singularize(token string) string {
	switch {
	case strings.HasSuffix(token, "ies") && len(token) > 4:
		return token[:len(token)-3] + "y"
	case strings.HasSuffix(token, "oes") && len(token) > 4:
		return token[:len(token)-2]
	case strings.HasSuffix(token, "ses") || strings.HasSuffix(token, "xes") ||
		strings.HasSuffix(token, "ches") || strings.HasSuffix(token, "shes"):
		return token[:len(token)-2]
	case strings.HasSuffix(token, "ss"):
		return token
	case strings.HasSuffix(token, "s") && len(token) > 2:
		return token[:len(token)-1]
	default:
		return token
	}
}
