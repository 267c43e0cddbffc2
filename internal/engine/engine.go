// Package engine implements the batch orchestrator: admission control,
// FIFO batching, deadline-aware looping, and the decision apply step.
package engine

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/parthgeek/tally/internal/guardrail"
	"github.com/parthgeek/tally/internal/metrics"
	"github.com/parthgeek/tally/internal/model"
	"github.com/parthgeek/tally/internal/service"
	"github.com/parthgeek/tally/internal/taxonomy"
)

// Default orchestration parameters.
const (
	DefaultBatchSize       = 10
	DefaultInterBatchDelay = time.Second
)

// Config holds configuration options for the orchestrator.
type Config struct {
	BatchSize          int
	PerOrgCap          int
	GlobalOrgCap       int
	InterBatchDelay    time.Duration
	RunTimeout         time.Duration // Wall-clock budget per run; 0 means none
	AutoApplyThreshold float64
}

// DefaultConfig returns the default orchestrator configuration.
func DefaultConfig() Config {
	return Config{
		BatchSize:          DefaultBatchSize,
		PerOrgCap:          DefaultPerOrgCap,
		GlobalOrgCap:       DefaultGlobalOrgCap,
		InterBatchDelay:    DefaultInterBatchDelay,
		AutoApplyThreshold: DefaultAutoApplyThreshold,
	}
}

// BatchRunOptions selects the scope of one batch run.
type BatchRunOptions struct {
	OrgID      string // Empty means every organization with pending work
	Industry   string
	MaxBatches int // 0 means unlimited
}

// TxnError is a per-transaction failure reported as a line item.
type TxnError struct {
	TransactionID string `json:"transactionId"`
	Message       string `json:"message"`
}

// OrgResult summarizes one organization's share of a run.
type OrgResult struct {
	OrgID     string     `json:"organizationId"`
	Errors    []TxnError `json:"errors,omitempty"`
	Processed int        `json:"processed"`
	Batches   int        `json:"batches"`
	Deferred  bool       `json:"deferred"`
}

// BatchRunReport is the batch-run entrypoint response.
type BatchRunReport struct {
	Results        []OrgResult `json:"results"`
	Processed      int         `json:"processed"`
	Batches        int         `json:"batches"`
	Remaining      int         `json:"remaining"`
	TimeoutReached bool        `json:"timeoutReached"`
}

// Engine pulls bounded batches of uncategorized transactions, runs the
// hybrid dispatcher on each, polices the result, and applies it. Transactions
// within a batch run strictly sequentially; cancellation and deadlines are
// honored only at batch boundaries so an in-flight transaction always
// finishes.
type Engine struct {
	store       service.Storage
	categorizer Categorizer
	guard       *guardrail.Validator
	admission   *AdmissionController
	applier     *Applier
	logger      *slog.Logger
	now         func() time.Time
	sleep       func(ctx context.Context, d time.Duration) error
	cfg         Config
}

// New creates an orchestrator. admission may be shared between engines to
// bound pressure across concurrent runs; pass nil for a private controller.
func New(store service.Storage, categorizer Categorizer, registry *taxonomy.Registry, admission *AdmissionController, telemetry service.TelemetrySink, cfg Config, logger *slog.Logger) *Engine {
	if cfg.BatchSize <= 0 {
		cfg.BatchSize = DefaultBatchSize
	}
	if cfg.InterBatchDelay <= 0 {
		cfg.InterBatchDelay = DefaultInterBatchDelay
	}
	if cfg.AutoApplyThreshold <= 0 {
		cfg.AutoApplyThreshold = DefaultAutoApplyThreshold
	}
	if admission == nil {
		admission = NewAdmissionController(cfg.PerOrgCap, cfg.GlobalOrgCap)
	}
	if logger == nil {
		logger = slog.Default()
	}

	return &Engine{
		store:       store,
		categorizer: categorizer,
		guard:       guardrail.New(registry, guardrail.DefaultConfig()),
		admission:   admission,
		applier:     NewApplier(store, registry, telemetry, cfg.AutoApplyThreshold, logger),
		logger:      logger,
		now:         time.Now,
		sleep:       sleepCtx,
		cfg:         cfg,
	}
}

func sleepCtx(ctx context.Context, d time.Duration) error {
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}

// Run executes one batch run. Per-transaction failures become line items;
// a storage failure aborts only the affected organization's current batch.
// Only a failure to enumerate organizations is a job-level error.
func (e *Engine) Run(ctx context.Context, opts BatchRunOptions) (*BatchRunReport, error) {
	var deadline time.Time
	if e.cfg.RunTimeout > 0 {
		deadline = e.now().Add(e.cfg.RunTimeout)
	}

	orgs, err := e.runScope(ctx, opts)
	if err != nil {
		return nil, err
	}

	report := &BatchRunReport{}
	results := make(map[string]*OrgResult, len(orgs))
	for _, org := range orgs {
		results[org] = &OrgResult{OrgID: org}
	}

	pending := append([]string{}, orgs...)
	for len(pending) > 0 && !report.TimeoutReached {
		var deferred []string
		admitted := false

		for _, org := range pending {
			if e.deadlinePassed(deadline) {
				report.TimeoutReached = true
				break
			}
			if !e.admission.TryAcquire(org) {
				// Over a cap: defer to the next scheduling pass, never drop.
				results[org].Deferred = true
				deferred = append(deferred, org)
				continue
			}
			admitted = true
			results[org].Deferred = false
			e.processOrg(ctx, org, opts, deadline, results[org], report)
			e.admission.Release(org)
			if ctx.Err() != nil {
				break
			}
		}

		if ctx.Err() != nil {
			break
		}
		pending = deferred
		if len(pending) > 0 && !admitted && !report.TimeoutReached {
			// Every organization is capped by concurrent runs; back off
			// before the next pass.
			if err := e.sleep(ctx, e.cfg.InterBatchDelay); err != nil {
				break
			}
		}
	}

	for _, org := range orgs {
		result := results[org]
		report.Results = append(report.Results, *result)
		report.Processed += result.Processed
		report.Batches += result.Batches

		remaining, err := e.store.CountUncategorized(ctx, org)
		if err != nil {
			e.logger.Warn("failed to count remaining work", "org_id", org, "error", err)
			continue
		}
		report.Remaining += remaining
	}

	e.logger.Info("batch run complete",
		"processed", report.Processed,
		"batches", report.Batches,
		"remaining", report.Remaining,
		"timeout_reached", report.TimeoutReached)

	return report, nil
}

// runScope resolves which organizations the run covers.
func (e *Engine) runScope(ctx context.Context, opts BatchRunOptions) ([]string, error) {
	if opts.OrgID != "" {
		return []string{opts.OrgID}, nil
	}
	orgs, err := e.store.ListOrganizationsWithPending(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to list organizations with pending work: %w", err)
	}
	return orgs, nil
}

func (e *Engine) deadlinePassed(deadline time.Time) bool {
	return !deadline.IsZero() && e.now().After(deadline)
}

// processOrg drains one organization's queue in FIFO batches until the work,
// the batch budget, or the deadline runs out.
func (e *Engine) processOrg(ctx context.Context, orgID string, opts BatchRunOptions, deadline time.Time, result *OrgResult, report *BatchRunReport) {
	for {
		// The deadline gates each batch fetch, not each transaction, so an
		// in-flight transaction always finishes.
		if e.deadlinePassed(deadline) {
			report.TimeoutReached = true
			return
		}
		if ctx.Err() != nil {
			return
		}
		if opts.MaxBatches > 0 && result.Batches >= opts.MaxBatches {
			return
		}

		batch, err := e.store.ListUncategorized(ctx, orgID, e.cfg.BatchSize)
		if err != nil {
			// Batch-level failure aborts this organization only; applied
			// transactions from earlier batches stand.
			e.logger.Error("batch fetch failed, aborting organization",
				"org_id", orgID, "error", err)
			result.Errors = append(result.Errors, TxnError{Message: fmt.Sprintf("batch fetch failed: %v", err)})
			return
		}
		if len(batch) == 0 {
			return
		}

		before := result.Processed
		for i := range batch {
			e.processOne(ctx, &batch[i], opts.Industry, result)
		}
		if result.Processed == before {
			// Every row in the batch failed and stayed pending; fetching again
			// would spin on the same rows.
			e.logger.Error("batch made no progress, aborting organization",
				"org_id", orgID, "batch_size", len(batch))
			result.Batches++
			metrics.BatchesProcessed.Inc()
			return
		}

		result.Batches++
		metrics.BatchesProcessed.Inc()

		// A capacity-sized batch likely burned model quota; pause before the
		// next fetch.
		if len(batch) == e.cfg.BatchSize {
			if err := e.sleep(ctx, e.cfg.InterBatchDelay); err != nil {
				return
			}
		}
	}
}

// processOne runs a single transaction to completion, success or caught
// failure. Failures are recorded as line items and never abort the batch.
func (e *Engine) processOne(ctx context.Context, txn *model.Transaction, industry string, result *OrgResult) {
	if err := txn.Validate(); err != nil {
		result.Errors = append(result.Errors, TxnError{TransactionID: txn.ID, Message: err.Error()})
		return
	}

	outcome := e.categorizer.Categorize(ctx, *txn, industry)
	if !outcome.Usable() {
		// The dispatcher guarantees a category; reaching this is a contract
		// violation worth surfacing loudly.
		msg := "categorizer returned no usable outcome"
		if outcome.Err != nil {
			msg = outcome.Err.Error()
		}
		e.logger.Error("unusable categorization outcome",
			"transaction_id", txn.ID, "status", string(outcome.Status), "error", msg)
		result.Errors = append(result.Errors, TxnError{TransactionID: txn.ID, Message: msg})
		return
	}

	guard := e.guard.Check(*txn, outcome.Result.CategorySlug, outcome.Result.ConfidenceOrZero())
	if n := len(guard.Violations); n > 0 {
		metrics.GuardrailViolations.Add(float64(n))
		e.logger.Debug("guardrail violations recorded",
			"transaction_id", txn.ID, "violations", guard.Violations)
	}

	if _, err := e.applier.Apply(ctx, *txn, outcome.Result, guard); err != nil {
		result.Errors = append(result.Errors, TxnError{TransactionID: txn.ID, Message: err.Error()})
		return
	}

	result.Processed++
}
