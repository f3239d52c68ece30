// Package nutrition contains the core domain logic for nutrient data.
// A NutrientVector maps a fixed vocabulary of nutrient keys to numeric
// values and carries a confidence grade plus the provenance of any
// corrections applied to it.
package nutrition

// Key identifies a tracked nutrient. The vocabulary is fixed; values for
// unknown keys are rejected at the boundary.
type Key string

// Tracked nutrient keys. The suffix encodes the unit of measure.
const (
	KeyCalories     Key = "calories"
	KeyProtein      Key = "protein_g"
	KeyCarbs        Key = "carbs_g"
	KeyFatTotal     Key = "fat_total_g"
	KeyFatSaturated Key = "fat_saturated_g"
	KeyFatMono      Key = "fat_mono_g"
	KeyFatPoly      Key = "fat_poly_g"
	KeyFatTrans     Key = "fat_trans_g"
	KeySugar        Key = "sugar_g"
	KeySugarAdded   Key = "sugar_added_g"
	KeyFiber        Key = "fiber_g"
	KeyStarch       Key = "starch_g"
	KeyWater        Key = "water_g"
	KeyAlcohol      Key = "alcohol_g"
	KeyOmega3       Key = "omega3_g"
	KeyOmega6       Key = "omega6_g"
	KeyCholesterol  Key = "cholesterol_mg"
	KeySodium       Key = "sodium_mg"
	KeyPotassium    Key = "potassium_mg"
	KeyCalcium      Key = "calcium_mg"
	KeyIron         Key = "iron_mg"
	KeyMagnesium    Key = "magnesium_mg"
	KeyZinc         Key = "zinc_mg"
	KeyPhosphorus   Key = "phosphorus_mg"
	KeyCopper       Key = "copper_mg"
	KeyManganese    Key = "manganese_mg"
	KeySelenium     Key = "selenium_mcg"
	KeyCholine      Key = "choline_mg"
	KeyCaffeine     Key = "caffeine_mg"
	KeyVitaminA     Key = "vitamin_a_mcg"
	KeyVitaminC     Key = "vitamin_c_mg"
	KeyVitaminD     Key = "vitamin_d_mcg"
	KeyVitaminE     Key = "vitamin_e_mg"
	KeyVitaminK     Key = "vitamin_k_mcg"
	KeyVitaminB1    Key = "vitamin_b1_mg"
	KeyVitaminB2    Key = "vitamin_b2_mg"
	KeyVitaminB3    Key = "vitamin_b3_mg"
	KeyVitaminB6    Key = "vitamin_b6_mg"
	KeyVitaminB12   Key = "vitamin_b12_mcg"
	KeyFolate       Key = "folate_mcg"
)

// keyUnits maps each tracked key to its unit of measure.
var keyUnits = map[Key]string{
	KeyCalories:     "kcal",
	KeyProtein:      "g",
	KeyCarbs:        "g",
	KeyFatTotal:     "g",
	KeyFatSaturated: "g",
	KeyFatMono:      "g",
	KeyFatPoly:      "g",
	KeyFatTrans:     "g",
	KeySugar:        "g",
	KeySugarAdded:   "g",
	KeyFiber:        "g",
	KeyStarch:       "g",
	KeyWater:        "g",
	KeyAlcohol:      "g",
	KeyOmega3:       "g",
	KeyOmega6:       "g",
	KeyCholesterol:  "mg",
	KeySodium:       "mg",
	KeyPotassium:    "mg",
	KeyCalcium:      "mg",
	KeyIron:         "mg",
	KeyMagnesium:    "mg",
	KeyZinc:         "mg",
	KeyPhosphorus:   "mg",
	KeyCopper:       "mg",
	KeyManganese:    "mg",
	KeySelenium:     "mcg",
	KeyCholine:      "mg",
	KeyCaffeine:     "mg",
	KeyVitaminA:     "mcg",
	KeyVitaminC:     "mg",
	KeyVitaminD:     "mcg",
	KeyVitaminE:     "mg",
	KeyVitaminK:     "mcg",
	KeyVitaminB1:    "mg",
	KeyVitaminB2:    "mg",
	KeyVitaminB3:    "mg",
	KeyVitaminB6:    "mg",
	KeyVitaminB12:   "mcg",
	KeyFolate:       "mcg",
}

// AllKeys returns the fixed nutrient key vocabulary.
func AllKeys() []Key {
	keys := make([]Key, 0, len(keyUnits))
	for k := range keyUnits {
		keys = append(keys, k)
	}
	return keys
}

// IsTracked reports whether key belongs to the fixed vocabulary.
func IsTracked(key Key) bool {
	_, ok := keyUnits[key]
	return ok
}

// Unit returns the unit of measure for a tracked key, or "" if untracked.
func Unit(key Key) string {
	return keyUnits[key]
}
