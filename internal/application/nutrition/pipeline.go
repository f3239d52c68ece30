// Package nutrition resolves food names into nutrient vectors through an
// ordered pipeline of stages: cache lookup, model estimation with a
// caloric-density check, external API lookup, and a static heuristic table.
// Every stage's output is validated against the nutrient-hierarchy invariants
// before it is accepted, and successful resolutions are written back to the
// cache.
package nutrition

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/mealmind/v1/internal/domain/nutrition"
	"github.com/mealmind/v1/internal/domain/units"
	"github.com/mealmind/v1/internal/ports/outbound"
	"github.com/mealmind/v1/pkg/errors"
)

// Resolution sources, recorded on the result for observability.
const (
	SourceCache     = "cache"
	SourceModel     = "model"
	SourceAPI       = "api"
	SourceHeuristic = "heuristic"
)

const cacheTTL = 24 * time.Hour

// Result is a resolved per-serving nutrient vector together with the
// official serving it describes.
type Result struct {
	Nutrients   *nutrition.Vector `json:"nutrients"`
	ServingSize string            `json:"serving_size"`
	Source      string            `json:"source"`
}

type stageStatus int

const (
	stageOk stageStatus = iota
	stageRetry
	stageFail
)

// outcome is one stage's verdict: a usable result, a transient miss that the
// next stage should cover, or a definitive failure for this stage.
type outcome struct {
	status stageStatus
	result *Result
	reason string
}

func resolved(r *Result) outcome     { return outcome{status: stageOk, result: r} }
func miss(reason string) outcome     { return outcome{status: stageRetry, reason: reason} }
func rejected(reason string) outcome { return outcome{status: stageFail, reason: reason} }

type stage struct {
	name string
	run  func(ctx context.Context, foodName string) outcome
}

// Pipeline resolves food names to nutrient vectors.
type Pipeline struct {
	cache  outbound.CacheRepository
	llm    outbound.LanguageModel
	api    outbound.NutritionAPI
	logger *zap.Logger
}

// NewPipeline creates a resolution pipeline. Cache and api may be nil, in
// which case those stages report misses.
func NewPipeline(cache outbound.CacheRepository, llm outbound.LanguageModel, api outbound.NutritionAPI, logger *zap.Logger) *Pipeline {
	return &Pipeline{
		cache:  cache,
		llm:    llm,
		api:    api,
		logger: logger.Named("nutrition-pipeline"),
	}
}

// Resolve runs the stages in order and returns the first result that passes
// the hierarchy invariants. Results from any stage but the cache are written
// back to the cache. When every stage fails a resolution error is returned.
func (p *Pipeline) Resolve(ctx context.Context, foodName string) (*Result, error) {
	name := normalizeName(foodName)
	if name == "" {
		return nil, errors.NewResolutionError(foodName)
	}

	for _, st := range p.stages() {
		out := st.run(ctx, name)
		switch out.status {
		case stageOk:
			res := out.result
			if violations := nutrition.ValidateHierarchy(res.Nutrients); len(violations) > 0 {
				p.logger.Warn("stage result violates nutrient hierarchy",
					zap.String("stage", st.name),
					zap.String("food", name),
					zap.Any("violations", violations))
				continue
			}
			if res.ServingSize == "" {
				res.ServingSize = "1 serving"
			}
			if st.name != SourceCache {
				p.writeCache(ctx, name, res)
			}
			return res, nil
		case stageRetry:
			p.logger.Debug("stage miss",
				zap.String("stage", st.name),
				zap.String("food", name),
				zap.String("reason", out.reason))
		case stageFail:
			p.logger.Warn("stage rejected",
				zap.String("stage", st.name),
				zap.String("food", name),
				zap.String("reason", out.reason))
		}
	}

	return nil, errors.NewResolutionError(foodName)
}

func (p *Pipeline) stages() []stage {
	return []stage{
		{SourceCache, p.stageCache},
		{SourceModel, p.stageModel},
		{SourceAPI, p.stageAPI},
		{SourceHeuristic, p.stageHeuristic},
	}
}

func (p *Pipeline) stageCache(ctx context.Context, name string) outcome {
	if p.cache == nil {
		return miss("no cache configured")
	}
	raw, err := p.cache.Get(ctx, cacheKey(name))
	if err != nil || len(raw) == 0 {
		return miss("cache miss")
	}
	var res Result
	if err := json.Unmarshal(raw, &res); err != nil || res.Nutrients == nil {
		return miss("cached entry unreadable")
	}
	res.Source = SourceCache
	return resolved(&res)
}

// modelEstimate is the strict-JSON contract for nutrition estimation calls.
type modelEstimate struct {
	ServingSize string             `json:"serving_size"`
	Nutrients   map[string]float64 `json:"nutrients"`
}

func (p *Pipeline) stageModel(ctx context.Context, name string) outcome {
	if p.llm == nil {
		return miss("no model configured")
	}

	res, err := p.queryModel(ctx, name, "")
	if err != nil {
		return miss(fmt.Sprintf("model query failed: %v", err))
	}

	density, hasDensity := servingDensity(name, res)
	if !hasDensity {
		return resolved(res)
	}
	band, ok := nutrition.CheckDensity(name, density)
	if ok {
		return resolved(res)
	}

	// One corrective re-query with explicit guidance, then accept whatever
	// comes back, downgraded if still off.
	guidance := fmt.Sprintf(
		"Your previous estimate implied %.2f kcal per gram, but %s foods range from %.1f to %.1f kcal per gram. Re-estimate with plausible values.",
		density, band.Category, band.Min, band.Max,
	)
	retryRes, retryErr := p.queryModel(ctx, name, guidance)
	if retryErr == nil {
		res = retryRes
	}

	if d, ok2 := servingDensity(name, res); ok2 {
		if _, within := nutrition.CheckDensity(name, d); !within {
			res.Nutrients.Downgrade()
			res.Nutrients.AddErrorSource(nutrition.SourceDensityOutlier)
		}
	}
	return resolved(res)
}

func (p *Pipeline) queryModel(ctx context.Context, name, guidance string) (*Result, error) {
	system := "You are a nutrition database. Respond with strict JSON only: " +
		`{"serving_size": "<amount unit>", "nutrients": {"<key>": <number>, ...}}.`

	keys := make([]string, 0, len(nutrition.AllKeys()))
	for _, k := range nutrition.AllKeys() {
		keys = append(keys, string(k))
	}
	prompt := fmt.Sprintf(
		"Estimate the nutrition of one typical serving of %q. Include a serving_size with a gram weight in parentheses and values for these keys where known: %s.",
		name, strings.Join(keys, ", "),
	)
	if guidance != "" {
		prompt += " " + guidance
	}

	var est modelEstimate
	if err := p.llm.CompleteJSON(ctx, system, prompt, &est); err != nil {
		return nil, err
	}

	vec := nutrition.NewVector(nutrition.ConfidenceMedium)
	for rawKey, value := range est.Nutrients {
		if key, ok := nutrition.ResolveAlias(rawKey); ok {
			vec.Set(key, value)
		}
	}
	if len(vec.Values) == 0 {
		return nil, fmt.Errorf("estimate for %q carried no recognized nutrients", name)
	}
	vec.ReconcileCalories()

	serving := est.ServingSize
	if serving == "" {
		serving = "1 serving"
	}
	return &Result{Nutrients: vec, ServingSize: serving, Source: SourceModel}, nil
}

func (p *Pipeline) stageAPI(ctx context.Context, name string) outcome {
	if p.api == nil {
		return miss("no nutrition api configured")
	}
	lookup, err := p.api.Lookup(ctx, name)
	if err != nil {
		return miss(fmt.Sprintf("api lookup failed: %v", err))
	}
	if lookup == nil || lookup.Status != "found" || lookup.Nutrients == nil {
		return rejected("api has no data")
	}
	lookup.Nutrients.ReconcileCalories()
	return resolved(&Result{
		Nutrients:   lookup.Nutrients,
		ServingSize: lookup.ServingSize,
		Source:      SourceAPI,
	})
}

func (p *Pipeline) stageHeuristic(_ context.Context, name string) outcome {
	entry, ok := heuristicLookup(name)
	if !ok {
		return rejected("no heuristic entry")
	}
	return resolved(&Result{
		Nutrients:   entry.vector(),
		ServingSize: entry.serving,
		Source:      SourceHeuristic,
	})
}

func (p *Pipeline) writeCache(ctx context.Context, name string, res *Result) {
	if p.cache == nil {
		return
	}
	raw, err := json.Marshal(res)
	if err != nil {
		return
	}
	if err := p.cache.Set(ctx, cacheKey(name), raw, cacheTTL); err != nil {
		p.logger.Warn("failed to cache resolution", zap.String("food", name), zap.Error(err))
	}
}

// servingDensity derives kcal-per-gram from a result when its serving size
// carries a recoverable gram weight.
func servingDensity(name string, res *Result) (float64, bool) {
	grams, ok := units.ParseServingAnnotation(res.ServingSize)
	if !ok {
		if q, parsed := units.ParseQuantity(res.ServingSize); parsed {
			grams, ok = units.ToGrams(q, name)
		}
	}
	if !ok || grams <= 0 {
		return 0, false
	}
	return res.Nutrients.Get(nutrition.KeyCalories) / grams, true
}

func cacheKey(name string) string {
	return "nutrition:v1:" + name
}

func normalizeName(name string) string {
	return strings.Join(strings.Fields(strings.ToLower(name)), " ")
}
