package nutrition

import "math"

// Confidence grades how reliable a resolved vector is.
type Confidence string

const (
	ConfidenceLow    Confidence = "low"
	ConfidenceMedium Confidence = "medium"
	ConfidenceHigh   Confidence = "high"
)

// Error source tags recorded when a vector is corrected or degraded.
const (
	SourceMacroDerived   = "calories_derived_from_macros"
	SourceDensityOutlier = "density_outlier"
	SourceHeuristic      = "heuristic_fallback"
	SourceHollowFat      = "hollow_fat_subtypes"
	SourceScaled         = "scaled"
)

// Tolerated relative gap between stated calories and the 4/4/9 macro formula.
const calorieTolerance = 0.10

// Vector is the full set of nutrient key/value pairs describing one food
// portion. It is created by the resolution pipeline, mutated only by scaling,
// and persisted on commit.
type Vector struct {
	Values       map[Key]float64 `json:"values"`
	Confidence   Confidence      `json:"confidence"`
	ErrorSources []string        `json:"error_sources,omitempty"`
}

// NewVector creates an empty vector at the given confidence.
func NewVector(confidence Confidence) *Vector {
	return &Vector{
		Values:     make(map[Key]float64),
		Confidence: confidence,
	}
}

// Get returns the value for a key, zero if absent.
func (v *Vector) Get(key Key) float64 {
	if v == nil {
		return 0
	}
	return v.Values[key]
}

// Set stores a value for a tracked key. Untracked keys are ignored.
func (v *Vector) Set(key Key, value float64) {
	if !IsTracked(key) {
		return
	}
	if v.Values == nil {
		v.Values = make(map[Key]float64)
	}
	v.Values[key] = value
}

// Clone returns a deep copy of the vector.
func (v *Vector) Clone() *Vector {
	out := &Vector{
		Values:     make(map[Key]float64, len(v.Values)),
		Confidence: v.Confidence,
	}
	for k, val := range v.Values {
		out.Values[k] = val
	}
	out.ErrorSources = append(out.ErrorSources, v.ErrorSources...)
	return out
}

// Scale multiplies every field by the multiplier and re-applies the
// macro/calorie consistency check. Returns a new vector.
func (v *Vector) Scale(multiplier float64) *Vector {
	out := v.Clone()
	for k, val := range out.Values {
		out.Values[k] = val * multiplier
	}
	if multiplier != 1 {
		out.addErrorSource(SourceScaled)
	}
	out.ReconcileCalories()
	return out
}

// MacroCalories computes calories from the 4/4/9 macro formula.
func (v *Vector) MacroCalories() float64 {
	return 4*v.Get(KeyProtein) + 4*v.Get(KeyCarbs) + 9*v.Get(KeyFatTotal)
}

// ReconcileCalories enforces the calorie/macro consistency invariant.
// Zero calories alongside non-trivial macros, or a stated value more than
// 10% away from the macro formula, causes calories to be recomputed from
// macros with a confidence downgrade.
func (v *Vector) ReconcileCalories() {
	macroCal := v.MacroCalories()
	if macroCal <= 0 {
		return
	}

	stated := v.Get(KeyCalories)
	if stated <= 0 {
		v.Set(KeyCalories, round1(macroCal))
		v.Downgrade()
		v.addErrorSource(SourceMacroDerived)
		return
	}

	if math.Abs(stated-macroCal)/stated > calorieTolerance {
		v.Set(KeyCalories, round1(macroCal))
		v.Downgrade()
		v.addErrorSource(SourceMacroDerived)
	}
}

// Downgrade lowers confidence by one grade.
func (v *Vector) Downgrade() {
	switch v.Confidence {
	case ConfidenceHigh:
		v.Confidence = ConfidenceMedium
	case ConfidenceMedium:
		v.Confidence = ConfidenceLow
	}
}

// Add accumulates another vector into this one (ingredient totals).
func (v *Vector) Add(other *Vector) {
	if other == nil {
		return
	}
	for k, val := range other.Values {
		v.Set(k, v.Get(k)+val)
	}
	if confidenceRank(other.Confidence) < confidenceRank(v.Confidence) {
		v.Confidence = other.Confidence
	}
	for _, src := range other.ErrorSources {
		v.addErrorSource(src)
	}
}

// AddErrorSource records a data-quality tag, deduplicated.
func (v *Vector) AddErrorSource(tag string) {
	v.addErrorSource(tag)
}

// HasErrorSource reports whether the given tag was recorded.
func (v *Vector) HasErrorSource(tag string) bool {
	for _, s := range v.ErrorSources {
		if s == tag {
			return true
		}
	}
	return false
}

func (v *Vector) addErrorSource(tag string) {
	if !v.HasErrorSource(tag) {
		v.ErrorSources = append(v.ErrorSources, tag)
	}
}

func confidenceRank(c Confidence) int {
	switch c {
	case ConfidenceHigh:
		return 3
	case ConfidenceMedium:
		return 2
	default:
		return 1
	}
}

func round1(f float64) float64 {
	return math.Round(f*10) / 10
}
