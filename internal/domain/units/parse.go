// Package units parses free-text quantity expressions and converts between
// weight, volume, and count measures. Everything here is pure; cache and
// model-assisted conversions live in the application layer.
package units

import (
	"strconv"
	"strings"
)

// Quantity is a parsed amount with a normalized unit.
type Quantity struct {
	Amount float64
	Unit   string
}

// vulgarFractions maps unicode fraction glyphs to ascii fractions.
var vulgarFractions = map[string]string{
	"½": "1/2", "⅓": "1/3", "⅔": "2/3", "¼": "1/4", "¾": "3/4",
	"⅕": "1/5", "⅖": "2/5", "⅗": "3/5", "⅘": "4/5",
	"⅙": "1/6", "⅚": "5/6", "⅛": "1/8", "⅜": "3/8", "⅝": "5/8", "⅞": "7/8",
}

// wordNumbers maps number words to values.
var wordNumbers = map[string]float64{
	"zero": 0, "one": 1, "two": 2, "three": 3, "four": 4, "five": 5,
	"six": 6, "seven": 7, "eight": 8, "nine": 9, "ten": 10,
	"eleven": 11, "twelve": 12, "thirteen": 13, "fourteen": 14, "fifteen": 15,
	"sixteen": 16, "seventeen": 17, "eighteen": 18, "nineteen": 19, "twenty": 20,
	"thirty": 30, "forty": 40, "fifty": 50, "sixty": 60,
	"seventy": 70, "eighty": 80, "ninety": 90, "hundred": 100,
	"half": 0.5, "quarter": 0.25, "dozen": 12,
	"a": 1, "an": 1, "couple": 2, "few": 3, "several": 3,
}

// unitAliases maps unit spellings to canonical unit names.
var unitAliases = map[string]string{
	"g": "g", "gram": "g", "grams": "g", "gr": "g",
	"kg": "kg", "kilogram": "kg", "kilograms": "kg", "kilo": "kg", "kilos": "kg",
	"mg": "mg", "milligram": "mg", "milligrams": "mg",
	"oz": "oz", "ounce": "oz", "ounces": "oz",
	"lb": "lb", "lbs": "lb", "pound": "lb", "pounds": "lb",
	"ml": "ml", "milliliter": "ml", "milliliters": "ml", "millilitre": "ml", "millilitres": "ml",
	"l": "l", "liter": "l", "liters": "l", "litre": "l", "litres": "l",
	"cup": "cup", "cups": "cup", "c": "cup",
	"tbsp": "tbsp", "tablespoon": "tbsp", "tablespoons": "tbsp", "tbs": "tbsp",
	"tsp": "tsp", "teaspoon": "tsp", "teaspoons": "tsp",
	"floz": "fl oz", "fl oz": "fl oz", "fluid ounce": "fl oz", "fluid ounces": "fl oz",
	"pint": "pint", "pints": "pint", "pt": "pint",
	"quart": "quart", "quarts": "quart", "qt": "quart",
	"gallon": "gallon", "gallons": "gallon", "gal": "gallon",
	"piece": "piece", "pieces": "piece", "pc": "piece", "pcs": "piece",
	"item": "piece", "items": "piece", "unit": "piece", "units": "piece",
	"whole": "piece", "count": "piece", "each": "piece",
	"slice": "slice", "slices": "slice",
	"serving": "serving", "servings": "serving", "portion": "serving", "portions": "serving",
	"scoop": "scoop", "scoops": "scoop",
	"clove": "clove", "cloves": "clove",
	"stick": "stick", "sticks": "stick",
	"can": "can", "cans": "can",
	"egg": "piece", "eggs": "piece",
	"small": "piece", "medium": "piece", "large": "piece", "extra large": "piece",
	"bar": "piece", "bars": "piece",
	"handful": "handful", "handfuls": "handful",
	"pinch": "pinch", "pinches": "pinch", "dash": "pinch",
}

// NormalizeUnit maps a free-form unit spelling to its canonical name.
// Unknown units normalize to their lowercase trimmed form.
func NormalizeUnit(unit string) string {
	u := strings.ToLower(strings.TrimSpace(unit))
	u = strings.Trim(u, ".")
	if canonical, ok := unitAliases[u]; ok {
		return canonical
	}
	return u
}

// ParseQuantity parses a free-text portion expression into amount + unit.
// Handles decimals, vulgar fractions, mixed numbers ("1 1/2 cups"), and
// number words ("two large eggs"). When no unit is found the unit defaults
// to "serving" for bare numbers.
func ParseQuantity(text string) (Quantity, bool) {
	for glyph, ascii := range vulgarFractions {
		text = strings.ReplaceAll(text, glyph, " "+ascii)
	}
	text = strings.ToLower(strings.TrimSpace(text))
	if text == "" {
		return Quantity{}, false
	}

	fields := strings.Fields(strings.ReplaceAll(text, ",", " "))
	amount := -1.0
	unitStart := 0

	for i := 0; i < len(fields); i++ {
		value, consumed, ok := parseNumberAt(fields, i)
		if !ok {
			continue
		}
		amount = value
		unitStart = i + consumed
		break
	}

	if amount < 0 {
		// "chicken breast" with no amount at all: treat as one serving of
		// the named thing so resolution can still proceed.
		return Quantity{Amount: 1, Unit: "serving"}, true
	}

	unit := findUnit(fields[unitStart:])
	if unit == "" {
		unit = "serving"
	}
	return Quantity{Amount: amount, Unit: unit}, true
}

// parseNumberAt parses a numeric token at index i, consuming a following
// fraction token for mixed numbers. Returns the value and tokens consumed.
func parseNumberAt(fields []string, i int) (float64, int, bool) {
	token := fields[i]

	if frac, ok := parseFraction(token); ok {
		return frac, 1, true
	}

	if value, err := strconv.ParseFloat(token, 64); err == nil {
		// Mixed number: "1 1/2".
		if i+1 < len(fields) {
			if frac, ok := parseFraction(fields[i+1]); ok {
				return value + frac, 2, true
			}
		}
		return value, 1, true
	}

	if value, ok := wordNumbers[token]; ok {
		// "a couple", "a few", "a half".
		if (token == "a" || token == "an") && i+1 < len(fields) {
			if next, ok := wordNumbers[fields[i+1]]; ok && fields[i+1] != "a" && fields[i+1] != "an" {
				return next, 2, true
			}
		}
		return value, 1, true
	}

	return 0, 0, false
}

func parseFraction(token string) (float64, bool) {
	parts := strings.Split(token, "/")
	if len(parts) != 2 {
		return 0, false
	}
	num, err1 := strconv.ParseFloat(parts[0], 64)
	den, err2 := strconv.ParseFloat(parts[1], 64)
	if err1 != nil || err2 != nil || den == 0 {
		return 0, false
	}
	return num / den, true
}

// findUnit scans tokens following the amount for a recognizable unit.
func findUnit(fields []string) string {
	// Two-word units first ("fl oz", "fluid ounces", "extra large").
	for i := 0; i+1 < len(fields); i++ {
		joined := strings.Trim(fields[i], ".") + " " + strings.Trim(fields[i+1], ".")
		if canonical, ok := unitAliases[joined]; ok {
			return canonical
		}
	}
	for _, f := range fields {
		f = strings.Trim(f, ".")
		if f == "of" {
			continue
		}
		if canonical, ok := unitAliases[f]; ok {
			return canonical
		}
	}
	return ""
}
