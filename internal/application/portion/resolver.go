// Package portion resolves the scaling multiplier between a user's stated
// portion and a food's official serving. Deterministic strategies run first;
// the language model is the last resort, and its answers are sanity-checked
// before they are trusted or cached.
package portion

import (
	"context"
	"fmt"
	"strconv"
	"strings"
	"sync"

	"go.uber.org/zap"

	"github.com/mealmind/v1/internal/domain/units"
	"github.com/mealmind/v1/internal/ports/outbound"
	"github.com/mealmind/v1/pkg/errors"
)

// Accepted multipliers must lie within this band; anything outside is
// discarded in favor of 1 and never cached.
const (
	SafeMin = 0.05
	SafeMax = 50.0
)

// Count-style conversions implying less than this many grams per item are
// rejected unless the ingredient is on the small-item allow list.
const minImpliedItemGrams = 5.0

// Resolver computes portion-scaling multipliers.
type Resolver struct {
	cache  outbound.ConversionCacheRepository
	llm    outbound.LanguageModel
	logger *zap.Logger

	mu   sync.Mutex
	memo map[string]float64 // process-scoped memoization, reset per process
}

// NewResolver creates a portion resolver.
func NewResolver(cache outbound.ConversionCacheRepository, llm outbound.LanguageModel, logger *zap.Logger) *Resolver {
	return &Resolver{
		cache:  cache,
		llm:    llm,
		logger: logger.Named("portion-resolver"),
		memo:   make(map[string]float64),
	}
}

// Reset clears the process-scoped memo table.
func (r *Resolver) Reset() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.memo = make(map[string]float64)
}

// Multiplier resolves how many official servings the user portion equals.
// Strategies in priority order: direct unit match, common-base conversion,
// parenthetical serving annotation, persistent conversion cache, and
// finally a bare-numeric model query. Implausible results fall back to 1
// and are not cached.
func (r *Resolver) Multiplier(ctx context.Context, foodName, userPortion, officialServing string) float64 {
	userQty, okUser := units.ParseQuantity(userPortion)
	servingQty, okServing := units.ParseQuantity(officialServing)
	if !okUser || !okServing || servingQty.Amount <= 0 {
		return 1
	}

	// 1) Same normalized unit: divide amounts.
	if userQty.Unit == servingQty.Unit {
		return clampOrDefault(userQty.Amount / servingQty.Amount)
	}

	// 2) Both sides convertible to a common base.
	if m, ok := r.commonBase(userQty, servingQty, foodName); ok {
		return clampOrDefault(m)
	}

	// 3) Parenthetical weight annotation in the official serving string.
	if servingGrams, ok := units.ParseServingAnnotation(officialServing); ok && servingGrams > 0 {
		if userGrams, ok := units.ToGrams(userQty, foodName); ok {
			return clampOrDefault(userGrams / servingGrams)
		}
		// "2 eggs" against "1 large egg (50g)": count per count.
		if units.IsCountUnit(userQty.Unit) {
			return clampOrDefault(userQty.Amount / servingQty.Amount)
		}
	}

	// 4) Persistent conversion cache.
	if m, ok := r.cached(ctx, foodName, userQty.Unit, servingQty.Unit); ok {
		return clampOrDefault(m * userQty.Amount / servingQty.Amount)
	}

	// 5) Model fallback: a bare numeric ratio, sanity-checked and cached.
	return r.modelMultiplier(ctx, foodName, userPortion, officialServing, userQty, servingQty)
}

// commonBase converts both quantities to grams or milliliters and divides.
func (r *Resolver) commonBase(user, serving units.Quantity, foodName string) (float64, bool) {
	if ug, ok1 := units.ToGrams(user, foodName); ok1 {
		if sg, ok2 := units.ToGrams(serving, foodName); ok2 && sg > 0 {
			return ug / sg, true
		}
	}
	if um, ok1 := units.ToMilliliters(user); ok1 {
		if sm, ok2 := units.ToMilliliters(serving); ok2 && sm > 0 {
			return um / sm, true
		}
	}
	return 0, false
}

func (r *Resolver) cached(ctx context.Context, foodName, fromUnit, toUnit string) (float64, bool) {
	key := memoKey(foodName, fromUnit, toUnit)
	r.mu.Lock()
	if m, ok := r.memo[key]; ok {
		r.mu.Unlock()
		return m, true
	}
	r.mu.Unlock()

	if r.cache == nil {
		return 0, false
	}
	entry, err := r.cache.Get(ctx, normalizeFood(foodName), fromUnit, toUnit)
	if err != nil || entry == nil {
		return 0, false
	}
	r.remember(key, entry.Multiplier)
	return entry.Multiplier, true
}

// modelMultiplier asks the language model for a bare per-unit ratio between
// one fromUnit and one toUnit of the food.
func (r *Resolver) modelMultiplier(ctx context.Context, foodName, userPortion, officialServing string, userQty, servingQty units.Quantity) float64 {
	if r.llm == nil {
		return 1
	}

	system := "You convert food portions. Reply with a single decimal number and nothing else."
	prompt := fmt.Sprintf(
		"How many units of %q (the official serving) equal one %q of %s? Official serving: %q. User portion: %q. Reply with only the number.",
		servingQty.Unit, userQty.Unit, foodName, officialServing, userPortion,
	)

	raw, err := r.llm.CompleteText(ctx, system, prompt)
	if err != nil {
		r.logger.Warn("model conversion query failed", zap.String("food", foodName), zap.Error(err))
		return 1
	}

	perUnit, err := strconv.ParseFloat(strings.TrimSpace(raw), 64)
	if err != nil {
		r.logger.Warn("model conversion reply not numeric", zap.String("reply", raw))
		return 1
	}

	multiplier := perUnit * userQty.Amount / servingQty.Amount
	if multiplier < SafeMin || multiplier > SafeMax {
		r.logger.Warn("model conversion outside safe band, using 1",
			zap.String("food", foodName),
			zap.Error(errors.NewConversionError(multiplier)))
		return 1
	}

	// Count-style units implying a tiny per-item weight are almost always
	// a hallucinated ratio, unless the food is a known small item.
	if units.IsCountUnit(userQty.Unit) && !units.IsSmallItem(foodName) {
		if servingGrams, ok := units.ParseServingAnnotation(officialServing); ok && servingGrams > 0 {
			impliedItemGrams := multiplier * servingGrams / userQty.Amount
			if impliedItemGrams < minImpliedItemGrams {
				r.logger.Warn("implied item weight implausibly small, using 1",
					zap.String("food", foodName),
					zap.Float64("implied_grams", impliedItemGrams))
				return 1
			}
		}
	}

	r.remember(memoKey(foodName, userQty.Unit, servingQty.Unit), perUnit)
	if r.cache != nil {
		entry := &outbound.ConversionEntry{
			FoodName:   normalizeFood(foodName),
			FromUnit:   userQty.Unit,
			ToUnit:     servingQty.Unit,
			Multiplier: perUnit,
		}
		if err := r.cache.Put(ctx, entry); err != nil {
			r.logger.Warn("failed to persist conversion", zap.Error(err))
		}
	}

	return multiplier
}

func (r *Resolver) remember(key string, m float64) {
	r.mu.Lock()
	r.memo[key] = m
	r.mu.Unlock()
}

func clampOrDefault(m float64) float64 {
	if m < SafeMin || m > SafeMax {
		return 1
	}
	return m
}

func memoKey(food, from, to string) string {
	return normalizeFood(food) + "|" + from + "|" + to
}

func normalizeFood(name string) string {
	return strings.Join(strings.Fields(strings.ToLower(name)), " ")
}
