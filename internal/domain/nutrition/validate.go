package nutrition

import "fmt"

// Slack allowed when comparing the fat-subtype sum against total fat.
const fatSubtypeEpsilon = 0.5

// Total fat above this with all subtypes at zero is considered hollow data.
const hollowFatThreshold = 3.0

// Violation describes a single nutrient-hierarchy breach.
type Violation struct {
	Key     Key
	Message string
}

func (v Violation) String() string { return v.Message }

// ValidateHierarchy checks the nutrient-hierarchy invariants:
// sugar cannot exceed carbs, added sugar cannot exceed sugar, and the fat
// subtype sum cannot exceed total fat beyond a small epsilon. Returns nil
// when the vector is consistent.
func ValidateHierarchy(v *Vector) []Violation {
	if v == nil {
		return nil
	}
	var violations []Violation

	if sugar, carbs := v.Get(KeySugar), v.Get(KeyCarbs); sugar > carbs {
		violations = append(violations, Violation{
			Key:     KeySugar,
			Message: fmt.Sprintf("sugar_g (%.1f) exceeds carbs_g (%.1f)", sugar, carbs),
		})
	}

	if added, sugar := v.Get(KeySugarAdded), v.Get(KeySugar); added > sugar {
		violations = append(violations, Violation{
			Key:     KeySugarAdded,
			Message: fmt.Sprintf("sugar_added_g (%.1f) exceeds sugar_g (%.1f)", added, sugar),
		})
	}

	subtypeSum := v.Get(KeyFatSaturated) + v.Get(KeyFatMono) + v.Get(KeyFatPoly) + v.Get(KeyFatTrans)
	if total := v.Get(KeyFatTotal); subtypeSum > total+fatSubtypeEpsilon {
		violations = append(violations, Violation{
			Key:     KeyFatTotal,
			Message: fmt.Sprintf("fat subtype sum (%.1f) exceeds fat_total_g (%.1f)", subtypeSum, total),
		})
	}

	for key, value := range v.Values {
		if value < 0 {
			violations = append(violations, Violation{
				Key:     key,
				Message: fmt.Sprintf("%s is negative (%.1f)", key, value),
			})
		}
	}

	return violations
}

// HasHollowFatSubtypes reports whether the vector carries non-trivial total
// fat with every subtype at zero. Depending on call site this is flagged as
// a data-quality warning or causes the subtype data to be discarded; it
// never blocks saving.
func HasHollowFatSubtypes(v *Vector) bool {
	if v == nil {
		return false
	}
	if v.Get(KeyFatTotal) < hollowFatThreshold {
		return false
	}
	return v.Get(KeyFatSaturated) == 0 &&
		v.Get(KeyFatMono) == 0 &&
		v.Get(KeyFatPoly) == 0 &&
		v.Get(KeyFatTrans) == 0
}

// IsCommittable reports whether the vector satisfies every invariant a
// persisted vector must hold.
func IsCommittable(v *Vector) bool {
	if v == nil || len(v.Values) == 0 {
		return false
	}
	return len(ValidateHierarchy(v)) == 0
}
