package units

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestToGramsWeightUnits(t *testing.T) {
	grams, ok := ToGrams(Quantity{Amount: 2, Unit: "oz"}, "cheddar")
	require.True(t, ok)
	assert.InDelta(t, 56.7, grams, 0.1)

	grams, ok = ToGrams(Quantity{Amount: 1.5, Unit: "kg"}, "rice")
	require.True(t, ok)
	assert.InDelta(t, 1500, grams, 0.1)
}

func TestToGramsVolumeNeedsDensity(t *testing.T) {
	// Flour has a table density.
	grams, ok := ToGrams(Quantity{Amount: 1, Unit: "cup"}, "all purpose flour")
	require.True(t, ok)
	assert.InDelta(t, 240*0.53, grams, 1)

	// Liquids without a table entry fall back to water density.
	grams, ok = ToGrams(Quantity{Amount: 1, Unit: "cup"}, "vegetable soup")
	require.True(t, ok)
	assert.InDelta(t, 240, grams, 1)

	// Dry goods with no density cannot be converted.
	_, ok = ToGrams(Quantity{Amount: 1, Unit: "cup"}, "croutons")
	assert.False(t, ok)
}

func TestToGramsCountableItems(t *testing.T) {
	grams, ok := ToGrams(Quantity{Amount: 3, Unit: "piece"}, "eggs")
	require.True(t, ok)
	assert.InDelta(t, 150, grams, 0.1)

	_, ok = ToGrams(Quantity{Amount: 2, Unit: "piece"}, "mystery gadget")
	assert.False(t, ok)
}

func TestDensityLongestMatchWins(t *testing.T) {
	d, ok := DensityFor("extra virgin olive oil")
	require.True(t, ok)
	assert.InDelta(t, 0.91, d, 0.001)
}

func TestParseServingAnnotation(t *testing.T) {
	grams, ok := ParseServingAnnotation("1 large egg (50g)")
	require.True(t, ok)
	assert.InDelta(t, 50, grams, 0.001)

	grams, ok = ParseServingAnnotation("1 bar (1.5 oz)")
	require.True(t, ok)
	assert.InDelta(t, 42.5, grams, 0.2)

	grams, ok = ParseServingAnnotation("1 cup (about 240 ml)")
	require.True(t, ok)
	assert.InDelta(t, 240, grams, 0.001)

	_, ok = ParseServingAnnotation("1 large egg")
	assert.False(t, ok)
}

func TestSmallItemAllowList(t *testing.T) {
	assert.True(t, IsSmallItem("roasted almonds"))
	assert.True(t, IsSmallItem("seedless grapes"))
	assert.False(t, IsSmallItem("whole chicken"))
}

func TestUnitClassifiers(t *testing.T) {
	assert.True(t, IsWeightUnit("grams"))
	assert.True(t, IsVolumeUnit("cups"))
	assert.True(t, IsCountUnit("slices"))
	assert.False(t, IsCountUnit("ml"))
}
