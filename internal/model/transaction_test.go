package model

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestTransactionValidate(t *testing.T) {
	tests := []struct {
		name    string
		txn     Transaction
		wantErr string
	}{
		{
			name: "valid transaction",
			txn: Transaction{
				ID:          "txn-1",
				OrgID:       "org-1",
				Description: "STARBUCKS STORE #123",
				MCC:         "5814",
				AmountCents: -575,
				Date:        time.Now(),
			},
		},
		{
			name:    "missing id",
			txn:     Transaction{OrgID: "org-1"},
			wantErr: "transaction id is required",
		},
		{
			name:    "missing organization",
			txn:     Transaction{ID: "txn-2"},
			wantErr: "organization id is required",
		},
		{
			name:    "mcc too short",
			txn:     Transaction{ID: "txn-3", OrgID: "org-1", MCC: "581"},
			wantErr: "mcc must be 4 digits",
		},
		{
			name:    "mcc non-numeric",
			txn:     Transaction{ID: "txn-4", OrgID: "org-1", MCC: "58a4"},
			wantErr: "mcc must be 4 digits",
		},
		{
			name: "empty mcc is allowed",
			txn:  Transaction{ID: "txn-5", OrgID: "org-1"},
		},
		{
			name:    "confidence above one",
			txn:     Transaction{ID: "txn-6", OrgID: "org-1", Confidence: Float64(1.5)},
			wantErr: "confidence must be between",
		},
		{
			name:    "negative confidence",
			txn:     Transaction{ID: "txn-7", OrgID: "org-1", Confidence: Float64(-0.1)},
			wantErr: "confidence must be between",
		},
		{
			name: "boundary confidences",
			txn:  Transaction{ID: "txn-8", OrgID: "org-1", Confidence: Float64(1.0)},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.txn.Validate()
			if tt.wantErr != "" {
				assert.ErrorContains(t, err, tt.wantErr)
				return
			}
			assert.NoError(t, err)
		})
	}
}

func TestTransactionHelpers(t *testing.T) {
	catID := 30
	txn := Transaction{
		ID:           "txn-1",
		OrgID:        "org-1",
		MerchantName: "Starbucks",
		Description:  "STARBUCKS STORE #123",
		AmountCents:  -575,
	}

	assert.False(t, txn.Categorized())
	assert.Equal(t, "Starbucks", txn.DisplayName())
	assert.False(t, txn.IsInflow())

	txn.CategoryID = &catID
	txn.MerchantName = ""
	txn.AmountCents = 10000

	assert.True(t, txn.Categorized())
	assert.Equal(t, "STARBUCKS STORE #123", txn.DisplayName())
	assert.True(t, txn.IsInflow())
}
