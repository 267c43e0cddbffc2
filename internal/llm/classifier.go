package llm

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/parthgeek/tally/internal/common"
	"github.com/parthgeek/tally/internal/metrics"
	"github.com/parthgeek/tally/internal/model"
	"github.com/parthgeek/tally/internal/service"
	"github.com/parthgeek/tally/internal/taxonomy"
)

const systemPrompt = "You are a bookkeeping assistant that assigns business accounting " +
	"categories to bank feed transactions. Respond with a single JSON object of the form " +
	`{"category": "<slug>", "confidence": <0..1>, "rationale": ["..."]} and nothing else. ` +
	"Only use category slugs from the provided list."

// Classifier is the Pass-2 model classifier: a single external completion
// call wrapped in a per-minute quota gate, retry control, and slug
// validation. It never propagates provider failures; every path returns a
// usable Outcome.
type Classifier struct {
	client    Client
	gate      *quotaGate
	cache     *outcomeCache
	registry  *taxonomy.Registry
	logger    *slog.Logger
	retryOpts service.RetryOptions
}

// NewClassifier creates a model-backed classifier from provider config.
func NewClassifier(cfg Config, registry *taxonomy.Registry, logger *slog.Logger) (*Classifier, error) {
	client, err := newClient(cfg)
	if err != nil {
		return nil, fmt.Errorf("failed to create model client: %w", err)
	}
	return NewClassifierWithClient(client, cfg, registry, logger), nil
}

// NewClassifierWithClient wires an existing client, which is how tests and
// the evaluation runner inject doubles.
func NewClassifierWithClient(client Client, cfg Config, registry *taxonomy.Registry, logger *slog.Logger) *Classifier {
	retryOpts := service.DefaultRetryOptions()
	if cfg.MaxRetries > 0 {
		retryOpts.MaxAttempts = cfg.MaxRetries
	}
	if cfg.RetryDelay > 0 {
		retryOpts.InitialDelay = cfg.RetryDelay
	}
	if logger == nil {
		logger = slog.Default()
	}

	return &Classifier{
		client:    client,
		gate:      newQuotaGate(cfg.RateLimit),
		cache:     newOutcomeCache(cfg.CacheTTL),
		registry:  registry,
		logger:    logger,
		retryOpts: retryOpts,
	}
}

// Close releases the classifier's background resources.
func (c *Classifier) Close() {
	c.cache.Close()
}

// Classify asks the model to categorize a transaction. The hint, when
// present, is Pass-1's best candidate and is included in the prompt. The
// returned outcome is OK for a validated model answer, or Fallback when the
// provider failed (no category) or the response could not be parsed (default
// category at 0.5). It never returns Fatal.
func (c *Classifier) Classify(ctx context.Context, txn model.Transaction, industry string, hint *model.CategorizationResult) model.Outcome {
	key := cacheKey(txn, industry)
	if cached, found := c.cache.get(key); found {
		c.logger.Debug("model cache hit",
			"transaction_id", txn.ID,
			"merchant", txn.DisplayName())
		return cached
	}

	if c.gate.remaining() == 0 {
		metrics.QuotaWaits.Inc()
	}
	if err := c.gate.acquire(ctx); err != nil {
		return model.Fallback(
			model.CategorizationResult{Engine: model.EngineLLM},
			fmt.Sprintf("quota wait aborted: %v", err))
	}

	prompt := c.buildPrompt(txn, industry, hint)

	start := time.Now()
	var raw string
	err := common.WithRetry(ctx, func() error {
		var callErr error
		raw, callErr = c.client.Complete(ctx, systemPrompt, prompt)
		return callErr
	}, c.retryOpts)
	metrics.ModelCallDuration.Observe(float64(time.Since(start).Milliseconds()))

	if err != nil {
		c.logger.Warn("model call failed, degrading to fallback result",
			"transaction_id", txn.ID,
			"error", err)
		outcome := model.Fallback(
			model.CategorizationResult{Engine: model.EngineLLM},
			fmt.Sprintf("provider failure: %v", err))
		return outcome
	}

	outcome := c.interpret(txn, raw)
	c.cache.set(key, outcome)
	return outcome
}

// interpret turns raw model text into an outcome, validating the proposed
// slug against the taxonomy.
func (c *Classifier) interpret(txn model.Transaction, raw string) model.Outcome {
	parsed, ok := parseResponse(raw)
	if !ok {
		c.logger.Warn("unparsable model response, degrading to default category",
			"transaction_id", txn.ID)
		return model.Fallback(model.CategorizationResult{
			CategorySlug: c.registry.Fallback().Slug,
			Confidence:   model.Float64(defaultConfidence),
			Rationale:    []string{"model response could not be parsed"},
			Engine:       model.EngineLLM,
		}, "unparsable model response")
	}

	result := model.CategorizationResult{
		CategorySlug: parsed.Category,
		Confidence:   model.Float64(parsed.Confidence),
		Rationale:    parsed.Rationale,
		Attributes:   parsed.Attributes,
		Engine:       model.EngineLLM,
	}

	if _, known := c.registry.BySlug(parsed.Category); !known {
		coerced := c.registry.Fallback().Slug
		result.Rationale = append(result.Rationale,
			fmt.Sprintf("model proposed unknown category %q, coerced to %s", parsed.Category, coerced))
		result.CategorySlug = coerced
	}

	c.logger.Debug("model classification",
		"transaction_id", txn.ID,
		"category", result.CategorySlug,
		"confidence", result.ConfidenceOrZero())

	return model.Ok(result)
}

// buildPrompt renders the transaction, the industry's category list, and the
// optional Pass-1 context into the user prompt.
func (c *Classifier) buildPrompt(txn model.Transaction, industry string, hint *model.CategorizationResult) string {
	var b strings.Builder

	b.WriteString("Categories:\n")
	for _, cat := range c.registry.ListByIndustry(industry) {
		if cat.Tier != 2 {
			continue
		}
		fmt.Fprintf(&b, "- %s: %s\n", cat.Slug, cat.Name)
	}

	fmt.Fprintf(&b, "\nTransaction:\nMerchant: %s\nDescription: %s\nAmount: %.2f %s\nDate: %s\n",
		txn.MerchantName, txn.Description,
		float64(txn.AmountCents)/100, txn.Currency,
		txn.Date.Format("2006-01-02"))
	if txn.MCC != "" {
		fmt.Fprintf(&b, "MCC: %s\n", txn.MCC)
	}
	if industry != "" {
		fmt.Fprintf(&b, "Business vertical: %s\n", industry)
	}

	if hint != nil && hint.HasCategory() {
		fmt.Fprintf(&b, "\nA rule-based classifier suggested %s at confidence %.2f. Confirm or override it.\n",
			hint.CategorySlug, hint.ConfidenceOrZero())
	}

	return b.String()
}
