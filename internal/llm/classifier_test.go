package llm

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/parthgeek/tally/internal/common"
	"github.com/parthgeek/tally/internal/model"
	"github.com/parthgeek/tally/internal/taxonomy"
)

// scriptedClient returns canned responses or errors in order, repeating the
// last entry once the script runs out.
type scriptedClient struct {
	responses []string
	errs      []error
	calls     atomic.Int64
}

func (c *scriptedClient) Complete(_ context.Context, _, _ string) (string, error) {
	i := int(c.calls.Add(1)) - 1
	if i >= len(c.responses) {
		i = len(c.responses) - 1
	}
	if c.errs[i] != nil {
		return "", c.errs[i]
	}
	return c.responses[i], nil
}

func testConfig() Config {
	return Config{
		Provider:   "anthropic",
		MaxRetries: 2,
		RetryDelay: time.Millisecond,
		CacheTTL:   time.Minute,
		RateLimit:  1000,
	}
}

func newTestClassifier(t *testing.T, client Client) *Classifier {
	t.Helper()
	c := NewClassifierWithClient(client, testConfig(), taxonomy.Default(), nil)
	t.Cleanup(c.Close)
	return c
}

func sampleTxn(id string) model.Transaction {
	return model.Transaction{
		ID:          id,
		OrgID:       "org-1",
		Description: "MCDONALD'S F32850",
		MCC:         "5814",
		Currency:    "USD",
		AmountCents: -1250,
		Date:        time.Date(2026, 2, 14, 0, 0, 0, 0, time.UTC),
	}
}

func TestClassifyValidResponse(t *testing.T) {
	client := &scriptedClient{
		responses: []string{`{"category": "meals-and-entertainment", "confidence": 0.9, "rationale": ["fast food mcc"]}`},
		errs:      []error{nil},
	}
	c := newTestClassifier(t, client)

	outcome := c.Classify(context.Background(), sampleTxn("t1"), "", nil)

	assert.Equal(t, model.OutcomeOK, outcome.Status)
	assert.Equal(t, "meals-and-entertainment", outcome.Result.CategorySlug)
	assert.InDelta(t, 0.9, outcome.Result.ConfidenceOrZero(), 1e-9)
	assert.Equal(t, model.EngineLLM, outcome.Result.Engine)
}

func TestClassifyProviderFailureDegrades(t *testing.T) {
	client := &scriptedClient{
		responses: []string{""},
		errs:      []error{common.Permanent(common.ErrProvider)},
	}
	c := newTestClassifier(t, client)

	outcome := c.Classify(context.Background(), sampleTxn("t1"), "", nil)

	// A hard provider failure degrades to a category-less fallback so the
	// dispatcher can decide what stands in.
	assert.Equal(t, model.OutcomeFallback, outcome.Status)
	assert.False(t, outcome.Result.HasCategory())
	assert.Contains(t, outcome.Reason, "provider failure")
	assert.Equal(t, int64(1), client.calls.Load())
}

func TestClassifyRetriesRateLimit(t *testing.T) {
	client := &scriptedClient{
		responses: []string{"", `{"category": "travel", "confidence": 0.8}`},
		errs:      []error{common.ErrRateLimit, nil},
	}
	c := newTestClassifier(t, client)

	outcome := c.Classify(context.Background(), sampleTxn("t1"), "", nil)

	assert.Equal(t, model.OutcomeOK, outcome.Status)
	assert.Equal(t, "travel", outcome.Result.CategorySlug)
	assert.Equal(t, int64(2), client.calls.Load())
}

func TestClassifyUnparsableResponse(t *testing.T) {
	client := &scriptedClient{
		responses: []string{"I cannot categorize this transaction, sorry."},
		errs:      []error{nil},
	}
	c := newTestClassifier(t, client)

	outcome := c.Classify(context.Background(), sampleTxn("t1"), "", nil)

	assert.Equal(t, model.OutcomeFallback, outcome.Status)
	assert.Equal(t, "miscellaneous", outcome.Result.CategorySlug)
	assert.InDelta(t, 0.5, outcome.Result.ConfidenceOrZero(), 1e-9)
	assert.Equal(t, "unparsable model response", outcome.Reason)
}

func TestClassifyUnknownSlugCoerced(t *testing.T) {
	client := &scriptedClient{
		responses: []string{`{"category": "space-tourism", "confidence": 0.95}`},
		errs:      []error{nil},
	}
	c := newTestClassifier(t, client)

	outcome := c.Classify(context.Background(), sampleTxn("t1"), "", nil)

	assert.Equal(t, model.OutcomeOK, outcome.Status)
	assert.Equal(t, "miscellaneous", outcome.Result.CategorySlug)
	require.NotEmpty(t, outcome.Result.Rationale)
	assert.Contains(t, outcome.Result.Rationale[len(outcome.Result.Rationale)-1], "space-tourism")
}

func TestClassifyCachesByContent(t *testing.T) {
	client := &scriptedClient{
		responses: []string{`{"category": "travel", "confidence": 0.8}`},
		errs:      []error{nil},
	}
	c := newTestClassifier(t, client)
	ctx := context.Background()

	first := c.Classify(ctx, sampleTxn("t1"), "retail", nil)
	// Same content under a different id hits the cache.
	second := c.Classify(ctx, sampleTxn("t2"), "retail", nil)

	assert.Equal(t, first.Result, second.Result)
	assert.Equal(t, int64(1), client.calls.Load())

	// A different industry is a different key.
	c.Classify(ctx, sampleTxn("t3"), "consulting", nil)
	assert.Equal(t, int64(2), client.calls.Load())
}

func TestClassifyProviderFailureNotCached(t *testing.T) {
	client := &scriptedClient{
		responses: []string{"", `{"category": "travel", "confidence": 0.8}`},
		errs:      []error{common.Permanent(errors.New("http 500")), nil},
	}
	c := newTestClassifier(t, client)
	ctx := context.Background()

	first := c.Classify(ctx, sampleTxn("t1"), "", nil)
	assert.Equal(t, model.OutcomeFallback, first.Status)

	// The failure was not cached, so the retry path gets a fresh call.
	second := c.Classify(ctx, sampleTxn("t1"), "", nil)
	assert.Equal(t, model.OutcomeOK, second.Status)
	assert.Equal(t, int64(2), client.calls.Load())
}

func TestBuildPromptIncludesHint(t *testing.T) {
	c := newTestClassifier(t, &scriptedClient{responses: []string{""}, errs: []error{nil}})

	hint := &model.CategorizationResult{
		CategorySlug: "meals-and-entertainment",
		Confidence:   model.Float64(0.7),
		Engine:       model.EnginePass1,
	}
	prompt := c.buildPrompt(sampleTxn("t1"), "consulting", hint)

	assert.Contains(t, prompt, "meals-and-entertainment")
	assert.Contains(t, prompt, "confidence 0.70")
	assert.Contains(t, prompt, "Business vertical: consulting")
	assert.Contains(t, prompt, "MCC: 5814")
	// Industry filtering keeps retail-only categories out of the list.
	assert.NotContains(t, prompt, "merchant-fees")
	// Tier-1 umbrella slugs are not offered to the model.
	assert.NotContains(t, prompt, "- operating-expenses:")
}
