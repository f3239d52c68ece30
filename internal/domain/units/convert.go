package units

import (
	"regexp"
	"strconv"
	"strings"
)

// weightGrams maps canonical weight units to grams.
var weightGrams = map[string]float64{
	"mg": 0.001,
	"g":  1,
	"kg": 1000,
	"oz": 28.35,
	"lb": 453.59,
}

// volumeMilliliters maps canonical volume units to milliliters.
var volumeMilliliters = map[string]float64{
	"ml":     1,
	"l":      1000,
	"tsp":    4.93,
	"tbsp":   14.79,
	"fl oz":  29.57,
	"cup":    240,
	"pint":   473.18,
	"quart":  946.35,
	"gallon": 3785.41,
}

// ingredientDensities maps ingredient keywords to grams per milliliter.
var ingredientDensities = map[string]float64{
	"water":         1.00,
	"milk":          1.03,
	"cream":         0.99,
	"yogurt":        1.04,
	"oil":           0.92,
	"olive oil":     0.91,
	"butter":        0.96,
	"honey":         1.42,
	"syrup":         1.33,
	"flour":         0.53,
	"sugar":         0.85,
	"brown sugar":   0.93,
	"powdered sugar": 0.56,
	"rice":          0.85,
	"oats":          0.41,
	"cocoa":         0.52,
	"peanut butter": 1.01,
	"mayonnaise":    0.91,
	"ketchup":       1.14,
	"broth":         1.00,
	"stock":         1.00,
	"juice":         1.05,
	"vinegar":       1.01,
	"soy sauce":     1.16,
	"salt":          1.22,
}

// liquidKeywords mark ingredients that default to water density when no
// specific density is known.
var liquidKeywords = []string{
	"juice", "water", "milk", "broth", "stock", "soup", "drink", "beverage",
	"soda", "coffee", "tea", "smoothie", "shake", "beer", "wine", "sauce",
}

// countUnits are units measured in discrete items rather than mass/volume.
var countUnits = map[string]bool{
	"piece": true, "slice": true, "serving": true, "scoop": true,
	"clove": true, "stick": true, "can": true, "handful": true,
}

// averageItemGrams maps countable foods to a typical per-item weight.
var averageItemGrams = map[string]float64{
	"egg":        50,
	"apple":      182,
	"banana":     118,
	"orange":     131,
	"potato":     170,
	"tomato":     123,
	"onion":      110,
	"carrot":     61,
	"bread":      30,
	"tortilla":   45,
	"bagel":      98,
	"avocado":    150,
	"lemon":      58,
	"lime":       44,
	"garlic":     3,
	"date":       24,
	"almond":     1.2,
	"peanut":     0.9,
	"grape":      5,
	"olive":      4,
	"strawberry": 12,
	"blueberry":  1.5,
	"cherry":     8,
	"cracker":    3.5,
	"chip":       2,
	"raisin":     0.5,
}

// smallItemAllowList names foods whose per-item weight is legitimately tiny,
// exempting them from the implausible-unit-weight rejection on count-style
// conversions.
var smallItemAllowList = []string{
	"almond", "peanut", "nut", "grape", "olive", "berry", "blueberry",
	"raisin", "cracker", "chip", "candy", "mint", "seed", "caper", "garlic",
}

// IsWeightUnit reports whether unit is a recognized weight unit.
func IsWeightUnit(unit string) bool {
	_, ok := weightGrams[NormalizeUnit(unit)]
	return ok
}

// IsVolumeUnit reports whether unit is a recognized volume unit.
func IsVolumeUnit(unit string) bool {
	_, ok := volumeMilliliters[NormalizeUnit(unit)]
	return ok
}

// IsCountUnit reports whether unit counts discrete items.
func IsCountUnit(unit string) bool {
	return countUnits[NormalizeUnit(unit)]
}

// ToGrams converts a quantity to grams. Weight units convert directly;
// volume units require an ingredient density or a liquid-keyword default;
// count units use the average item weight table.
func ToGrams(q Quantity, ingredient string) (float64, bool) {
	unit := NormalizeUnit(q.Unit)

	if factor, ok := weightGrams[unit]; ok {
		return q.Amount * factor, true
	}

	if ml, ok := volumeMilliliters[unit]; ok {
		density, found := DensityFor(ingredient)
		if !found {
			return 0, false
		}
		return q.Amount * ml * density, true
	}

	if countUnits[unit] {
		if grams, ok := AverageItemGrams(ingredient); ok {
			return q.Amount * grams, true
		}
	}

	return 0, false
}

// ToMilliliters converts a volume quantity to milliliters.
func ToMilliliters(q Quantity) (float64, bool) {
	if factor, ok := volumeMilliliters[NormalizeUnit(q.Unit)]; ok {
		return q.Amount * factor, true
	}
	return 0, false
}

// DensityFor returns grams-per-milliliter for an ingredient. Specific table
// entries win; otherwise liquid keywords default to water density.
func DensityFor(ingredient string) (float64, bool) {
	name := strings.ToLower(ingredient)

	// Longest keyword match wins so "olive oil" beats "oil".
	var best float64
	bestLen := 0
	for keyword, density := range ingredientDensities {
		if len(keyword) > bestLen && strings.Contains(name, keyword) {
			best = density
			bestLen = len(keyword)
		}
	}
	if bestLen > 0 {
		return best, true
	}

	for _, kw := range liquidKeywords {
		if strings.Contains(name, kw) {
			return 1.0, true
		}
	}
	return 0, false
}

// AverageItemGrams returns the typical weight of one countable item.
func AverageItemGrams(ingredient string) (float64, bool) {
	name := strings.ToLower(ingredient)
	var best float64
	bestLen := 0
	for keyword, grams := range averageItemGrams {
		if len(keyword) > bestLen && strings.Contains(name, keyword) {
			best = grams
			bestLen = len(keyword)
		}
	}
	return best, bestLen > 0
}

// IsSmallItem reports whether the ingredient is on the small-item allow
// list for count-style conversions.
func IsSmallItem(ingredient string) bool {
	name := strings.ToLower(ingredient)
	for _, kw := range smallItemAllowList {
		if strings.Contains(name, kw) {
			return true
		}
	}
	return false
}

var servingAnnotationRe = regexp.MustCompile(`\(\s*(?:about\s+)?(\d+(?:\.\d+)?)\s*(g|grams?|oz|ounces?|ml|milliliters?)\s*\)`)

// ParseServingAnnotation extracts a parenthetical weight from an official
// serving string such as "1 large egg (50g)". Ounces convert to grams;
// milliliter annotations are returned as grams at water density, which is
// how serving labels use them.
func ParseServingAnnotation(serving string) (grams float64, ok bool) {
	m := servingAnnotationRe.FindStringSubmatch(strings.ToLower(serving))
	if m == nil {
		return 0, false
	}
	value, err := strconv.ParseFloat(m[1], 64)
	if err != nil {
		return 0, false
	}
	switch {
	case strings.HasPrefix(m[2], "oz"), strings.HasPrefix(m[2], "ounce"):
		return value * weightGrams["oz"], true
	default:
		return value, true
	}
}
