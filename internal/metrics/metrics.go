// Package metrics exposes the engine's Prometheus instrumentation. Emission
// is fire-and-forget: nothing here returns an error or affects outcomes.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// TransactionsProcessed counts applied categorizations, labelled by the
	// engine that decided them.
	TransactionsProcessed = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "tally_transactions_processed_total",
		Help: "Total transactions categorized and applied, by deciding engine.",
	}, []string{"engine"})

	// Fallbacks counts the times both passes failed and the miscellaneous
	// category was forced.
	Fallbacks = promauto.NewCounter(prometheus.CounterOpts{
		Name: "tally_fallbacks_total",
		Help: "Total categorizations forced to the miscellaneous fallback.",
	})

	// Escalations counts Pass-1 results handed to the model classifier.
	Escalations = promauto.NewCounter(prometheus.CounterOpts{
		Name: "tally_escalations_total",
		Help: "Total transactions escalated from Pass-1 to the model classifier.",
	})

	// GuardrailViolations counts advisory guardrail findings.
	GuardrailViolations = promauto.NewCounter(prometheus.CounterOpts{
		Name: "tally_guardrail_violations_total",
		Help: "Total guardrail violations recorded.",
	})

	// ModelCallDuration observes end-to-end model call latency.
	ModelCallDuration = promauto.NewHistogram(prometheus.HistogramOpts{
		Name:    "tally_model_call_duration_ms",
		Help:    "Model provider call latency in milliseconds.",
		Buckets: []float64{50, 100, 250, 500, 1000, 2500, 5000, 10000, 30000},
	})

	// QuotaWaits counts the times a caller slept on the per-minute budget.
	QuotaWaits = promauto.NewCounter(prometheus.CounterOpts{
		Name: "tally_quota_waits_total",
		Help: "Total model calls suspended waiting for the per-minute quota window.",
	})

	// OrgsInFlight tracks organizations currently holding an admission slot.
	OrgsInFlight = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "tally_orgs_in_flight",
		Help: "Organizations currently being processed.",
	})

	// AuditWriteFailures counts decisions whose audit record could not be
	// written. The transaction update still stands.
	AuditWriteFailures = promauto.NewCounter(prometheus.CounterOpts{
		Name: "tally_audit_write_failures_total",
		Help: "Total audit record writes that failed after a successful apply.",
	})

	// BatchesProcessed counts completed batches per run outcome.
	BatchesProcessed = promauto.NewCounter(prometheus.CounterOpts{
		Name: "tally_batches_processed_total",
		Help: "Total transaction batches processed to completion.",
	})
)
