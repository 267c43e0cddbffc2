package storage

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/parthgeek/tally/internal/common"
	"github.com/parthgeek/tally/internal/model"
)

func makeDecision(txnID string, conf float64, createdAt time.Time) *model.Decision {
	return &model.Decision{
		ID:            uuid.NewString(),
		TransactionID: txnID,
		OrgID:         "org-1",
		CategorySlug:  "travel",
		Confidence:    conf,
		Engine:        model.EngineLLM,
		Rationale:     []string{"hotel chain", "weekday stay"},
		CreatedAt:     createdAt,
	}
}

func TestInsertAndGetDecisions(t *testing.T) {
	store := seededStore(t)
	ctx := context.Background()

	base := time.Date(2025, 3, 1, 12, 0, 0, 0, time.UTC)
	first := makeDecision("txn-1", 0.80, base)
	second := makeDecision("txn-1", 0.95, base.Add(time.Minute))
	other := makeDecision("txn-2", 0.70, base)

	require.NoError(t, store.InsertDecision(ctx, first))
	require.NoError(t, store.InsertDecision(ctx, second))
	require.NoError(t, store.InsertDecision(ctx, other))

	// Recategorization appends, never replaces: both records survive in
	// chronological order.
	trail, err := store.GetDecisionsByTransaction(ctx, "txn-1")
	require.NoError(t, err)
	require.Len(t, trail, 2)
	assert.Equal(t, first.ID, trail[0].ID)
	assert.Equal(t, second.ID, trail[1].ID)
	assert.Equal(t, []string{"hotel chain", "weekday stay"}, trail[0].Rationale)
	assert.Equal(t, model.EngineLLM, trail[0].Engine)
	assert.InDelta(t, 0.80, trail[0].Confidence, 1e-9)

	count, err := store.CountDecisions(ctx, "org-1")
	require.NoError(t, err)
	assert.Equal(t, 3, count)
}

func TestInsertDecisionValidates(t *testing.T) {
	store := seededStore(t)
	ctx := context.Background()

	tests := []struct {
		mutate func(*model.Decision)
		name   string
	}{
		{name: "missing transaction id", mutate: func(d *model.Decision) { d.TransactionID = "" }},
		{name: "missing org", mutate: func(d *model.Decision) { d.OrgID = "" }},
		{name: "missing category", mutate: func(d *model.Decision) { d.CategorySlug = "" }},
		{name: "confidence out of range", mutate: func(d *model.Decision) { d.Confidence = 1.5 }},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			d := makeDecision("txn-1", 0.9, time.Now().UTC())
			tt.mutate(d)
			assert.ErrorIs(t, store.InsertDecision(ctx, d), common.ErrValidation)
		})
	}
}

func TestGetDecisionsEmptyTrail(t *testing.T) {
	store := seededStore(t)

	trail, err := store.GetDecisionsByTransaction(context.Background(), "never-seen")
	require.NoError(t, err)
	assert.Empty(t, trail)
}
