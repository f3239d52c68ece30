package portion

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"go.uber.org/zap"

	"github.com/mealmind/v1/internal/ports/outbound"
)

type fakeConversionCache struct {
	entries map[string]*outbound.ConversionEntry
	puts    int
}

func newFakeConversionCache() *fakeConversionCache {
	return &fakeConversionCache{entries: make(map[string]*outbound.ConversionEntry)}
}

func (f *fakeConversionCache) Get(_ context.Context, food, from, to string) (*outbound.ConversionEntry, error) {
	return f.entries[food+"|"+from+"|"+to], nil
}

func (f *fakeConversionCache) Put(_ context.Context, entry *outbound.ConversionEntry) error {
	f.puts++
	f.entries[entry.FoodName+"|"+entry.FromUnit+"|"+entry.ToUnit] = entry
	return nil
}

type fakeNumericLLM struct {
	reply string
	err   error
	calls int
}

func (f *fakeNumericLLM) Chat(context.Context, []outbound.ChatMessage, []outbound.ToolDefinition) (*outbound.ChatResponse, error) {
	return nil, errors.New("not used")
}

func (f *fakeNumericLLM) CompleteJSON(context.Context, string, string, any) error {
	return errors.New("not used")
}

func (f *fakeNumericLLM) CompleteText(context.Context, string, string) (string, error) {
	f.calls++
	return f.reply, f.err
}

func newResolver(cache *fakeConversionCache, llm outbound.LanguageModel) *Resolver {
	return NewResolver(cache, llm, zap.NewNop())
}

func TestMultiplierDirectUnitMatch(t *testing.T) {
	r := newResolver(newFakeConversionCache(), &fakeNumericLLM{})

	// "2 eggs" against "1 large egg (50g)" yields multiplier 2.
	m := r.Multiplier(context.Background(), "egg", "2 eggs", "1 large egg (50g)")
	assert.InDelta(t, 2.0, m, 0.001)
}

func TestMultiplierCommonBaseConversion(t *testing.T) {
	r := newResolver(newFakeConversionCache(), &fakeNumericLLM{})

	// 100 g of flour against a 1-cup serving (240ml * 0.53 g/ml = 127.2g).
	m := r.Multiplier(context.Background(), "flour", "100 g", "1 cup")
	assert.InDelta(t, 100.0/127.2, m, 0.01)
}

func TestMultiplierServingAnnotation(t *testing.T) {
	r := newResolver(newFakeConversionCache(), &fakeNumericLLM{})

	// 75 g of a granola bar against "1 bar (1.5 oz)" = 42.5g.
	m := r.Multiplier(context.Background(), "granola bar", "75 g", "1 bar (1.5 oz)")
	assert.InDelta(t, 75.0/42.52, m, 0.02)
}

func TestMultiplierModelFallbackWithinBand(t *testing.T) {
	cache := newFakeConversionCache()
	llm := &fakeNumericLLM{reply: "3.5"}
	r := newResolver(cache, llm)

	m := r.Multiplier(context.Background(), "protein powder", "1 heaping spoonful", "1 scoop")
	assert.InDelta(t, 3.5, m, 0.001)
	assert.Equal(t, 1, llm.calls)
	assert.Equal(t, 1, cache.puts, "accepted model conversions are cached")
}

func TestMultiplierModelFallbackOutOfBandNotCached(t *testing.T) {
	cache := newFakeConversionCache()
	llm := &fakeNumericLLM{reply: "4000"}
	r := newResolver(cache, llm)

	m := r.Multiplier(context.Background(), "protein powder", "1 heaping spoonful", "1 scoop")
	assert.InDelta(t, 1.0, m, 0.001, "out-of-band values fall back to 1")
	assert.Equal(t, 0, cache.puts, "out-of-band values are not cached")
}

func TestMultiplierModelErrorDefaultsToOne(t *testing.T) {
	llm := &fakeNumericLLM{err: errors.New("boom")}
	r := newResolver(newFakeConversionCache(), llm)

	m := r.Multiplier(context.Background(), "protein powder", "1 heaping spoonful", "1 scoop")
	assert.InDelta(t, 1.0, m, 0.001)
}

func TestMultiplierUsesPersistentCacheBeforeModel(t *testing.T) {
	cache := newFakeConversionCache()
	cache.entries["protein powder|handful|scoop"] = &outbound.ConversionEntry{
		FoodName: "protein powder", FromUnit: "handful", ToUnit: "scoop", Multiplier: 2,
	}
	llm := &fakeNumericLLM{reply: "9"}
	r := newResolver(cache, llm)

	m := r.Multiplier(context.Background(), "protein powder", "1 handful", "1 scoop")
	assert.InDelta(t, 2.0, m, 0.001)
	assert.Equal(t, 0, llm.calls)
}

func TestMultiplierUnparseableDefaultsToOne(t *testing.T) {
	r := newResolver(newFakeConversionCache(), &fakeNumericLLM{})
	m := r.Multiplier(context.Background(), "tea", "", "")
	assert.InDelta(t, 1.0, m, 0.001)
}
