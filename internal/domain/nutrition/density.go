package nutrition

import "strings"

// DensityBand is the expected calories-per-gram range for a food category.
// Estimates that land outside their band by more than the deviation limit
// are treated as outliers.
type DensityBand struct {
	Category string
	Min      float64
	Max      float64
}

// Relative deviation beyond the band edge that triggers a corrective
// re-query of the estimator.
const DensityDeviationLimit = 0.25

// densityBands list expected kcal/g ranges keyed by category keywords.
// Ordered so that more specific categories match before generic ones.
var densityBands = []struct {
	keywords []string
	band     DensityBand
}{
	{[]string{"oil", "butter", "ghee", "lard"}, DensityBand{"fats_oils", 7.0, 9.0}},
	{[]string{"nut", "almond", "peanut", "cashew", "walnut", "seed"}, DensityBand{"nuts_seeds", 5.0, 7.0}},
	{[]string{"cheese"}, DensityBand{"cheese", 2.5, 4.5}},
	{[]string{"chocolate", "candy"}, DensityBand{"confectionery", 4.0, 6.0}},
	{[]string{"bacon", "sausage", "salami"}, DensityBand{"cured_meat", 3.0, 5.5}},
	{[]string{"chicken", "turkey", "poultry"}, DensityBand{"poultry", 1.1, 2.0}},
	{[]string{"beef", "steak", "lamb", "pork"}, DensityBand{"red_meat", 1.5, 3.5}},
	{[]string{"salmon", "tuna", "fish", "shrimp", "prawn"}, DensityBand{"seafood", 0.8, 2.5}},
	{[]string{"egg"}, DensityBand{"eggs", 1.2, 1.8}},
	{[]string{"bread", "bagel", "toast", "tortilla"}, DensityBand{"bread", 2.2, 3.2}},
	{[]string{"rice", "pasta", "noodle", "quinoa", "oat"}, DensityBand{"cooked_grains", 1.0, 2.0}},
	{[]string{"potato", "sweet potato", "yam"}, DensityBand{"starchy_veg", 0.7, 1.5}},
	{[]string{"yogurt", "yoghurt", "milk", "kefir"}, DensityBand{"dairy", 0.4, 1.2}},
	{[]string{"apple", "banana", "berry", "orange", "grape", "mango", "fruit"}, DensityBand{"fruit", 0.3, 1.0}},
	{[]string{"broccoli", "spinach", "lettuce", "salad", "vegetable", "carrot", "cucumber", "tomato"}, DensityBand{"vegetables", 0.1, 0.8}},
	{[]string{"soda", "juice", "drink", "beverage"}, DensityBand{"beverages", 0.0, 0.8}},
}

// BandFor returns the caloric-density band for a food name, matched by
// category keyword. Returns false when the food has no recognized category.
func BandFor(foodName string) (DensityBand, bool) {
	name := strings.ToLower(foodName)
	for _, entry := range densityBands {
		for _, kw := range entry.keywords {
			if strings.Contains(name, kw) {
				return entry.band, true
			}
		}
	}
	return DensityBand{}, false
}

// CheckDensity validates calories-per-gram against the food's category band.
// Returns ok=true when no band exists or the density is within the allowed
// deviation of the band.
func CheckDensity(foodName string, caloriesPerGram float64) (band DensityBand, ok bool) {
	band, found := BandFor(foodName)
	if !found {
		return band, true
	}
	low := band.Min * (1 - DensityDeviationLimit)
	high := band.Max * (1 + DensityDeviationLimit)
	return band, caloriesPerGram >= low && caloriesPerGram <= high
}
