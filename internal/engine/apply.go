package engine

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/parthgeek/tally/internal/common"
	"github.com/parthgeek/tally/internal/metrics"
	"github.com/parthgeek/tally/internal/model"
	"github.com/parthgeek/tally/internal/service"
	"github.com/parthgeek/tally/internal/taxonomy"
)

// DefaultAutoApplyThreshold is the confidence at or above which a decision is
// applied without review, absent a guardrail override.
const DefaultAutoApplyThreshold = 0.95

// Applier persists a resolved categorization and writes the audit record.
// The transaction update takes priority over the audit trail: an audit write
// failure is logged and counted, never propagated.
type Applier struct {
	store     service.Storage
	registry  *taxonomy.Registry
	telemetry service.TelemetrySink
	logger    *slog.Logger
	autoApply float64
}

// NewApplier creates an applier. telemetry may be nil.
func NewApplier(store service.Storage, registry *taxonomy.Registry, telemetry service.TelemetrySink, autoApply float64, logger *slog.Logger) *Applier {
	if autoApply <= 0 {
		autoApply = DefaultAutoApplyThreshold
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Applier{
		store:     store,
		registry:  registry,
		telemetry: telemetry,
		logger:    logger,
		autoApply: autoApply,
	}
}

// Apply writes the guardrail-adjusted outcome to the transaction and appends
// the audit decision. Callers must have applied the fallback policy first:
// an empty category here is a caller contract violation, not a data error.
func (a *Applier) Apply(ctx context.Context, txn model.Transaction, result model.CategorizationResult, guard model.GuardrailOutcome) (*model.Decision, error) {
	if guard.CategorySlug == "" {
		return nil, fmt.Errorf("%w: apply invoked without a resolved category for transaction %s", common.ErrProgramming, txn.ID)
	}
	cat, ok := a.registry.BySlug(guard.CategorySlug)
	if !ok {
		return nil, fmt.Errorf("%w: apply invoked with unresolvable category %q for transaction %s", common.ErrProgramming, guard.CategorySlug, txn.ID)
	}

	needsReview := !(guard.Confidence >= a.autoApply) || guard.ForceReview

	if err := a.store.UpdateTransactionCategory(ctx, txn.ID, cat.ID, guard.Confidence, needsReview); err != nil {
		return nil, fmt.Errorf("failed to update transaction %s: %w", txn.ID, err)
	}

	rationale := append([]string{}, result.Rationale...)
	rationale = append(rationale, guard.Violations...)

	decision := &model.Decision{
		ID:            uuid.NewString(),
		TransactionID: txn.ID,
		OrgID:         txn.OrgID,
		CategorySlug:  cat.Slug,
		Confidence:    guard.Confidence,
		Engine:        result.Engine,
		Rationale:     rationale,
		CreatedAt:     time.Now().UTC(),
	}

	// The audit write happens after the transaction update and its failure is
	// non-fatal: category correctness outranks a complete audit trail.
	if err := a.store.InsertDecision(ctx, decision); err != nil {
		metrics.AuditWriteFailures.Inc()
		a.logger.Error("audit record write failed, transaction update stands",
			"transaction_id", txn.ID,
			"category", cat.Slug,
			"error", fmt.Errorf("%w: %v", common.ErrAuditWrite, err))
	}

	metrics.TransactionsProcessed.WithLabelValues(string(result.Engine)).Inc()
	if a.telemetry != nil {
		a.telemetry.Emit("decision.applied", map[string]any{
			"transaction_id": txn.ID,
			"org_id":         txn.OrgID,
			"category":       cat.Slug,
			"confidence":     guard.Confidence,
			"engine":         string(result.Engine),
			"needs_review":   needsReview,
			"violations":     len(guard.Violations),
		})
	}

	return decision, nil
}
