package guardrail

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/parthgeek/tally/internal/model"
	"github.com/parthgeek/tally/internal/taxonomy"
)

func TestCheck(t *testing.T) {
	v := New(taxonomy.Default(), DefaultConfig())

	tests := []struct {
		name            string
		txn             model.Transaction
		slug            string
		confidence      float64
		wantSlug        string
		wantViolations  int
		wantForceReview bool
	}{
		{
			name:       "clean high-confidence decision",
			txn:        model.Transaction{ID: "t1", OrgID: "o1", MCC: "5814", AmountCents: -1250},
			slug:       "meals-and-entertainment",
			confidence: 0.96,
			wantSlug:   "meals-and-entertainment",
		},
		{
			name:           "unknown slug coerced to fallback",
			txn:            model.Transaction{ID: "t2", OrgID: "o1", AmountCents: -1250},
			slug:           "crypto-winnings",
			confidence:     0.90,
			wantSlug:       "miscellaneous",
			wantViolations: 1,
		},
		{
			name:           "mcc disagreement outside the compatible family",
			txn:            model.Transaction{ID: "t3", OrgID: "o1", MCC: "5814", AmountCents: -1250},
			slug:           "office-supplies",
			confidence:     0.92,
			wantSlug:       "office-supplies",
			wantViolations: 1,
		},
		{
			name:       "mcc disagreement within the compatible family passes",
			txn:        model.Transaction{ID: "t4", OrgID: "o1", MCC: "5814", AmountCents: -1250},
			slug:       "travel",
			confidence: 0.92,
			wantSlug:   "travel",
		},
		{
			name:            "confidence below floor forces review",
			txn:             model.Transaction{ID: "t5", OrgID: "o1", AmountCents: -1250},
			slug:            "miscellaneous",
			confidence:      0.30,
			wantSlug:        "miscellaneous",
			wantViolations:  1,
			wantForceReview: true,
		},
		{
			name:       "floor boundary is not a violation",
			txn:        model.Transaction{ID: "t6", OrgID: "o1", AmountCents: -1250},
			slug:       "miscellaneous",
			confidence: 0.60,
			wantSlug:   "miscellaneous",
		},
		{
			name:           "revenue category on an outflow",
			txn:            model.Transaction{ID: "t7", OrgID: "o1", AmountCents: -5000},
			slug:           "sales-revenue",
			confidence:     0.90,
			wantSlug:       "sales-revenue",
			wantViolations: 1,
		},
		{
			name:       "revenue category on an inflow is fine",
			txn:        model.Transaction{ID: "t8", OrgID: "o1", AmountCents: 5000},
			slug:       "sales-revenue",
			confidence: 0.90,
			wantSlug:   "sales-revenue",
		},
		{
			name:            "violations stack",
			txn:             model.Transaction{ID: "t9", OrgID: "o1", MCC: "5814", AmountCents: -5000},
			slug:            "sales-revenue",
			confidence:      0.40,
			wantSlug:        "sales-revenue",
			wantViolations:  3,
			wantForceReview: true,
		},
		{
			name:       "unmapped mcc never conflicts",
			txn:        model.Transaction{ID: "t10", OrgID: "o1", MCC: "9999", AmountCents: -5000},
			slug:       "office-supplies",
			confidence: 0.90,
			wantSlug:   "office-supplies",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := v.Check(tt.txn, tt.slug, tt.confidence)

			assert.Equal(t, tt.wantSlug, got.CategorySlug)
			assert.Len(t, got.Violations, tt.wantViolations)
			assert.Equal(t, tt.wantForceReview, got.ForceReview)
			assert.InDelta(t, tt.confidence, got.Confidence, 1e-9)
		})
	}
}

func TestCompatibleFamiliesAreSymmetric(t *testing.T) {
	for a, peers := range compatibleFamilies {
		for b := range peers {
			assert.True(t, compatibleFamilies[b][a], "%s -> %s is one-directional", a, b)
		}
	}
}
