package llm

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/parthgeek/tally/internal/model"
)

func TestOutcomeCacheExpiry(t *testing.T) {
	cache := newOutcomeCache(20 * time.Millisecond)
	defer cache.Close()

	outcome := model.Ok(model.CategorizationResult{CategorySlug: "travel", Engine: model.EngineLLM})
	cache.set("k", outcome)

	got, found := cache.get("k")
	assert.True(t, found)
	assert.Equal(t, outcome, got)

	time.Sleep(30 * time.Millisecond)
	_, found = cache.get("k")
	assert.False(t, found)
}

func TestCacheKeyIgnoresTransactionID(t *testing.T) {
	a := model.Transaction{ID: "a", OrgID: "o1", Description: "AWS", AmountCents: -100}
	b := model.Transaction{ID: "b", OrgID: "o1", Description: "AWS", AmountCents: -100}

	assert.Equal(t, cacheKey(a, "retail"), cacheKey(b, "retail"))
	assert.NotEqual(t, cacheKey(a, "retail"), cacheKey(a, "consulting"))

	b.AmountCents = -200
	assert.NotEqual(t, cacheKey(a, "retail"), cacheKey(b, "retail"))
}
