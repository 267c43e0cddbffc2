package model

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestOutcomeUsable(t *testing.T) {
	tests := []struct {
		name    string
		outcome Outcome
		want    bool
	}{
		{
			name:    "ok with category",
			outcome: Ok(CategorizationResult{CategorySlug: "travel", Confidence: Float64(0.9)}),
			want:    true,
		},
		{
			name:    "fallback with category is still usable",
			outcome: Fallback(CategorizationResult{CategorySlug: "miscellaneous", Confidence: Float64(0.3)}, "both passes failed"),
			want:    true,
		},
		{
			name:    "fallback without category",
			outcome: Fallback(CategorizationResult{}, "provider failure"),
			want:    false,
		},
		{
			name:    "fatal is never usable",
			outcome: Fatal(errors.New("nil transaction")),
			want:    false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, tt.outcome.Usable())
		})
	}
}

func TestConfidenceOrZero(t *testing.T) {
	r := CategorizationResult{CategorySlug: "travel"}
	assert.Zero(t, r.ConfidenceOrZero())

	r.Confidence = Float64(0.7)
	assert.InDelta(t, 0.7, r.ConfidenceOrZero(), 1e-9)
}
