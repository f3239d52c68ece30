package nutrition

import (
	"strings"

	"github.com/mealmind/v1/internal/domain/nutrition"
)

// heuristicEntry is a rough per-serving nutrition profile for a common food,
// used as the last resolution stage when cache, model, and API all fail.
type heuristicEntry struct {
	serving  string
	calories float64
	protein  float64
	carbs    float64
	fat      float64
	fiber    float64
	sugar    float64
}

func (e heuristicEntry) vector() *nutrition.Vector {
	v := nutrition.NewVector(nutrition.ConfidenceLow)
	v.Set(nutrition.KeyCalories, e.calories)
	v.Set(nutrition.KeyProtein, e.protein)
	v.Set(nutrition.KeyCarbs, e.carbs)
	v.Set(nutrition.KeyFatTotal, e.fat)
	v.Set(nutrition.KeyFiber, e.fiber)
	v.Set(nutrition.KeySugar, e.sugar)
	v.AddErrorSource(nutrition.SourceHeuristic)
	v.ReconcileCalories()
	return v
}

var heuristicTable = map[string]heuristicEntry{
	"chicken breast": {"100 g", 165, 31, 0, 3.6, 0, 0},
	"chicken thigh":  {"100 g", 209, 26, 0, 10.9, 0, 0},
	"ground beef":    {"100 g", 250, 26, 0, 15, 0, 0},
	"salmon":         {"100 g", 208, 20, 0, 13, 0, 0},
	"tuna":           {"100 g", 132, 28, 0, 1.3, 0, 0},
	"tofu":           {"100 g", 76, 8, 1.9, 4.8, 0.3, 0.6},
	"egg":            {"1 large egg (50g)", 72, 6.3, 0.4, 4.8, 0, 0.2},
	"white rice":     {"1 cup (195g)", 205, 4.3, 44.5, 0.4, 0.6, 0.1},
	"brown rice":     {"1 cup (195g)", 216, 5, 45, 1.8, 3.5, 0.7},
	"oatmeal":        {"1 cup (234g)", 166, 5.9, 28, 3.6, 4, 0.6},
	"pasta":          {"1 cup (140g)", 220, 8, 43, 1.3, 2.5, 0.8},
	"bread":          {"1 slice (30g)", 80, 3, 15, 1, 1.2, 1.5},
	"potato":         {"1 medium (170g)", 130, 3.4, 30, 0.2, 3.2, 1.4},
	"banana":         {"1 medium (118g)", 105, 1.3, 25, 0.4, 3.1, 14},
	"apple":          {"1 medium (182g)", 95, 0.5, 24, 0.3, 4.4, 18},
	"orange":         {"1 medium (131g)", 62, 1.2, 14.5, 0.2, 3.1, 12},
	"avocado":        {"1 medium (150g)", 240, 3, 12.8, 22, 10, 1},
	"broccoli":       {"1 cup (91g)", 35, 2.5, 6, 0.3, 2.4, 1.5},
	"black beans":    {"1 cup (172g)", 227, 15, 41, 0.9, 15, 0.6},
	"whole milk":     {"1 cup (244ml)", 149, 7.7, 11.7, 7.9, 0, 12.3},
	"greek yogurt":   {"1 cup (245g)", 146, 20, 9, 4, 0, 7},
	"cheddar cheese": {"1 oz (28g)", 115, 6.4, 0.9, 9.4, 0, 0.1},
	"peanut butter":  {"2 tbsp (32g)", 190, 8, 8, 15, 1.6, 3},
	"almonds":        {"1 oz (28g)", 164, 6, 6, 14, 3.5, 1.2},
	"olive oil":      {"1 tbsp (14g)", 119, 0, 0, 13.5, 0, 0},
	"protein shake":  {"1 scoop (31g)", 120, 24, 3, 1.5, 0.5, 2},
}

// modifierWords are preparation/descriptor tokens stripped before matching.
var modifierWords = map[string]bool{
	"grilled": true, "baked": true, "fried": true, "roasted": true,
	"steamed": true, "boiled": true, "raw": true, "cooked": true,
	"fresh": true, "frozen": true, "organic": true, "plain": true,
	"homemade": true, "leftover": true, "skinless": true, "boneless": true,
	"small": true, "medium": true, "large": true, "a": true, "an": true,
	"some": true, "of": true,
}

// heuristicLookup matches a food name against the fallback table: exact match
// on the modifier-stripped name first, then the longest partial match in
// either direction.
func heuristicLookup(name string) (heuristicEntry, bool) {
	n := stripModifiers(name)
	if n == "" {
		return heuristicEntry{}, false
	}
	if e, ok := heuristicTable[n]; ok {
		return e, true
	}

	var best heuristicEntry
	bestLen := 0
	for key, e := range heuristicTable {
		if strings.Contains(n, key) || strings.Contains(key, n) {
			if len(key) > bestLen {
				best = e
				bestLen = len(key)
			}
		}
	}
	return best, bestLen > 0
}

func stripModifiers(name string) string {
	fields := strings.Fields(strings.ToLower(name))
	kept := fields[:0]
	for _, f := range fields {
		if !modifierWords[f] {
			kept = append(kept, f)
		}
	}
	return strings.Join(kept, " ")
}
