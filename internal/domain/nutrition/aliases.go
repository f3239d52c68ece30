package nutrition

import "strings"

// aliasTable maps common nutrient spellings to canonical keys. Resolution is
// deterministic: exact normalized match first, then the longest alias that
// matches as a whole phrase.
var aliasTable = map[string]Key{
	"calories":            KeyCalories,
	"calorie":             KeyCalories,
	"kcal":                KeyCalories,
	"energy":              KeyCalories,
	"protein":             KeyProtein,
	"proteins":            KeyProtein,
	"carbohydrate":        KeyCarbs,
	"carbohydrates":       KeyCarbs,
	"carbs":               KeyCarbs,
	"carb":                KeyCarbs,
	"net carbs":           KeyCarbs,
	"total fat":           KeyFatTotal,
	"fat":                 KeyFatTotal,
	"fats":                KeyFatTotal,
	"lipids":              KeyFatTotal,
	"saturated fat":       KeyFatSaturated,
	"sat fat":             KeyFatSaturated,
	"saturates":           KeyFatSaturated,
	"monounsaturated fat": KeyFatMono,
	"mono fat":            KeyFatMono,
	"polyunsaturated fat": KeyFatPoly,
	"poly fat":            KeyFatPoly,
	"trans fat":           KeyFatTrans,
	"sugar":               KeySugar,
	"sugars":              KeySugar,
	"total sugar":         KeySugar,
	"added sugar":         KeySugarAdded,
	"added sugars":        KeySugarAdded,
	"fiber":               KeyFiber,
	"fibre":               KeyFiber,
	"dietary fiber":       KeyFiber,
	"starch":              KeyStarch,
	"water":               KeyWater,
	"alcohol":             KeyAlcohol,
	"omega 3":             KeyOmega3,
	"omega-3":             KeyOmega3,
	"omega 6":             KeyOmega6,
	"omega-6":             KeyOmega6,
	"cholesterol":         KeyCholesterol,
	"sodium":              KeySodium,
	"salt":                KeySodium,
	"potassium":           KeyPotassium,
	"calcium":             KeyCalcium,
	"iron":                KeyIron,
	"magnesium":           KeyMagnesium,
	"zinc":                KeyZinc,
	"phosphorus":          KeyPhosphorus,
	"copper":              KeyCopper,
	"manganese":           KeyManganese,
	"selenium":            KeySelenium,
	"choline":             KeyCholine,
	"caffeine":            KeyCaffeine,
	"vitamin a":           KeyVitaminA,
	"vitamin c":           KeyVitaminC,
	"ascorbic acid":       KeyVitaminC,
	"vitamin d":           KeyVitaminD,
	"vitamin e":           KeyVitaminE,
	"vitamin k":           KeyVitaminK,
	"vitamin b1":          KeyVitaminB1,
	"thiamin":             KeyVitaminB1,
	"thiamine":            KeyVitaminB1,
	"vitamin b2":          KeyVitaminB2,
	"riboflavin":          KeyVitaminB2,
	"vitamin b3":          KeyVitaminB3,
	"niacin":              KeyVitaminB3,
	"vitamin b6":          KeyVitaminB6,
	"vitamin b12":         KeyVitaminB12,
	"cobalamin":           KeyVitaminB12,
	"folate":              KeyFolate,
	"folic acid":          KeyFolate,
}

// ResolveAlias maps a free-form nutrient name to its canonical key.
// Canonical key strings resolve to themselves. Returns false when the name
// cannot be mapped to a tracked nutrient.
func ResolveAlias(name string) (Key, bool) {
	trimmed := strings.ToLower(strings.TrimSpace(name))
	if IsTracked(Key(trimmed)) {
		return Key(trimmed), true
	}

	normalized := normalizeAlias(name)
	if normalized == "" {
		return "", false
	}
	if key, ok := aliasTable[normalized]; ok {
		return key, true
	}

	// Longest alias that appears as a whole phrase wins, so "saturated fat"
	// beats "fat" for inputs like "saturated fat content".
	var best Key
	bestLen := 0
	padded := " " + normalized + " "
	for alias, key := range aliasTable {
		if len(alias) > bestLen && strings.Contains(padded, " "+alias+" ") {
			best = key
			bestLen = len(alias)
		}
	}
	if bestLen > 0 {
		return best, true
	}
	return "", false
}

func normalizeAlias(name string) string {
	name = strings.ToLower(strings.TrimSpace(name))
	name = strings.ReplaceAll(name, "_", " ")
	// Collapse suffixes like "(g)" or "in grams" that callers tack on.
	for _, suffix := range []string{"(g)", "(mg)", "(mcg)", "(kcal)", "in grams", "in mg"} {
		name = strings.TrimSuffix(strings.TrimSpace(name), suffix)
	}
	return strings.Join(strings.Fields(name), " ")
}
