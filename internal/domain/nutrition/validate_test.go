package nutrition

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestValidateHierarchySugarExceedsCarbs(t *testing.T) {
	v := NewVector(ConfidenceHigh)
	v.Set(KeyCarbs, 10)
	v.Set(KeySugar, 15)

	violations := ValidateHierarchy(v)

	assert.Len(t, violations, 1)
	assert.Equal(t, KeySugar, violations[0].Key)
}

func TestValidateHierarchyFatSubtypeSum(t *testing.T) {
	v := NewVector(ConfidenceHigh)
	v.Set(KeyFatTotal, 10)
	v.Set(KeyFatSaturated, 6)
	v.Set(KeyFatMono, 4)
	v.Set(KeyFatPoly, 3)

	violations := ValidateHierarchy(v)

	assert.Len(t, violations, 1)
	assert.Equal(t, KeyFatTotal, violations[0].Key)
}

func TestValidateHierarchyEpsilonSlack(t *testing.T) {
	// Rounding noise within epsilon must not trip the invariant.
	v := NewVector(ConfidenceHigh)
	v.Set(KeyFatTotal, 10)
	v.Set(KeyFatSaturated, 5.2)
	v.Set(KeyFatMono, 3.1)
	v.Set(KeyFatPoly, 2.0)

	assert.Empty(t, ValidateHierarchy(v))
}

func TestValidateHierarchyCleanVector(t *testing.T) {
	v := NewVector(ConfidenceHigh)
	v.Set(KeyCalories, 200)
	v.Set(KeyCarbs, 20)
	v.Set(KeySugar, 5)
	v.Set(KeyFatTotal, 8)
	v.Set(KeyFatSaturated, 2)

	assert.Empty(t, ValidateHierarchy(v))
	assert.True(t, IsCommittable(v))
}

func TestValidateHierarchyNegativeValue(t *testing.T) {
	v := NewVector(ConfidenceHigh)
	v.Set(KeyProtein, -5)

	violations := ValidateHierarchy(v)
	assert.NotEmpty(t, violations)
	assert.False(t, IsCommittable(v))
}

func TestHollowFatSubtypesFlaggedNotBlocking(t *testing.T) {
	// fat_total_g=20 with all subtypes zero warns but remains committable.
	v := NewVector(ConfidenceHigh)
	v.Set(KeyCalories, 180)
	v.Set(KeyFatTotal, 20)
	v.Set(KeyFatSaturated, 0)
	v.Set(KeyFatMono, 0)
	v.Set(KeyFatPoly, 0)

	assert.True(t, HasHollowFatSubtypes(v))
	assert.True(t, IsCommittable(v))
}

func TestHollowFatSubtypesLowTotalNotFlagged(t *testing.T) {
	v := NewVector(ConfidenceHigh)
	v.Set(KeyFatTotal, 1.5)

	assert.False(t, HasHollowFatSubtypes(v))
}
