// Package dispatch implements the hybrid arbitration between the
// deterministic Pass-1 classifier and the generative Pass-2 classifier.
package dispatch

import (
	"context"
	"fmt"
	"log/slog"
	"sync/atomic"

	"github.com/parthgeek/tally/internal/metrics"
	"github.com/parthgeek/tally/internal/model"
	"github.com/parthgeek/tally/internal/taxonomy"
)

// Default arbitration thresholds. The escalation threshold shares its 0.95
// default with the auto-apply threshold but is tuned independently.
const (
	DefaultEscalationThreshold = 0.95
	DefaultFallbackConfidence  = 0.30
)

// Pass1 is the deterministic signal classifier contract.
type Pass1 interface {
	Classify(txn model.Transaction) model.CategorizationResult
}

// Pass2 is the model classifier contract. Implementations never return a
// Fatal outcome; failures surface as Fallback.
type Pass2 interface {
	Classify(ctx context.Context, txn model.Transaction, industry string, hint *model.CategorizationResult) model.Outcome
}

// Config holds the dispatcher's tunable thresholds.
type Config struct {
	EscalationThreshold float64
	FallbackConfidence  float64
}

// DefaultConfig returns the default dispatcher configuration.
func DefaultConfig() Config {
	return Config{
		EscalationThreshold: DefaultEscalationThreshold,
		FallbackConfidence:  DefaultFallbackConfidence,
	}
}

// Dispatcher decides whether a transaction needs Pass-2 and merges the two
// pass results. It is safe for concurrent use.
type Dispatcher struct {
	pass1         Pass1
	pass2         Pass2
	registry      *taxonomy.Registry
	logger        *slog.Logger
	cfg           Config
	fallbackCount atomic.Int64
}

// New creates a dispatcher over the two classifier passes.
func New(pass1 Pass1, pass2 Pass2, registry *taxonomy.Registry, cfg Config, logger *slog.Logger) *Dispatcher {
	if cfg.EscalationThreshold <= 0 {
		cfg.EscalationThreshold = DefaultEscalationThreshold
	}
	if cfg.FallbackConfidence <= 0 {
		cfg.FallbackConfidence = DefaultFallbackConfidence
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Dispatcher{
		pass1:    pass1,
		pass2:    pass2,
		registry: registry,
		logger:   logger,
		cfg:      cfg,
	}
}

// Categorize runs the two-state decision flow: Pass1Decided when the rule
// classifier is confident enough, Pass2Escalated otherwise. When both passes
// fail it forces the miscellaneous fallback at low confidence and counts the
// event. The returned outcome always carries a category.
func (d *Dispatcher) Categorize(ctx context.Context, txn model.Transaction, industry string) model.Outcome {
	p1 := d.pass1.Classify(txn)

	// Pass1Decided: a confident rule answer short-circuits the model call.
	if p1.HasCategory() && p1.ConfidenceOrZero() >= d.cfg.EscalationThreshold {
		return model.Ok(p1)
	}

	// Pass2Escalated.
	metrics.Escalations.Inc()
	var hint *model.CategorizationResult
	if p1.HasCategory() {
		hint = &p1
	}
	out2 := d.pass2.Classify(ctx, txn, industry, hint)
	p2 := out2.Result

	// Higher confidence wins; Pass-1 stands on ties.
	if p2.HasCategory() && (!p1.HasCategory() || p2.ConfidenceOrZero() > p1.ConfidenceOrZero()) {
		if out2.Status == model.OutcomeFallback {
			return model.Fallback(p2, out2.Reason)
		}
		return model.Ok(p2)
	}
	if p1.HasCategory() {
		return model.Ok(p1)
	}

	return d.forceFallback(txn, out2)
}

// forceFallback handles the double-failure case: miscellaneous at fixed low
// confidence, marked for review downstream by the confidence floor.
func (d *Dispatcher) forceFallback(txn model.Transaction, out2 model.Outcome) model.Outcome {
	d.fallbackCount.Add(1)
	metrics.Fallbacks.Inc()

	rationale := []string{"no rule signal matched"}
	if out2.Reason != "" {
		rationale = append(rationale, fmt.Sprintf("model pass degraded: %s", out2.Reason))
	} else {
		rationale = append(rationale, "model pass produced no category")
	}

	d.logger.Warn("both passes failed, forcing fallback category",
		"transaction_id", txn.ID,
		"merchant", txn.DisplayName())

	return model.Fallback(model.CategorizationResult{
		CategorySlug: d.registry.Fallback().Slug,
		Confidence:   model.Float64(d.cfg.FallbackConfidence),
		Rationale:    rationale,
		Engine:       model.EnginePass1,
	}, "both passes failed")
}

// FallbackCount reports how many times the forced fallback fired since
// process start.
func (d *Dispatcher) FallbackCount() int64 {
	return d.fallbackCount.Load()
}
