// Package model defines the core domain models used throughout the application.
package model

import (
	"fmt"
	"regexp"
	"time"
)

var mccPattern = regexp.MustCompile(`^\d{4}$`)

// Transaction represents a single bank or card feed record awaiting
// categorization. Records are created by an external ingestion process and
// mutated only by the decision apply step.
type Transaction struct {
	Date         time.Time
	CreatedAt    time.Time
	Attributes   map[string]any
	CategoryID   *int
	Confidence   *float64
	ID           string
	OrgID        string
	MerchantName string // Cleaned merchant name, may be empty
	Description  string // Raw feed description
	MCC          string // Merchant category code, 4 digits, may be empty
	Currency     string
	Raw          string // Provenance payload from the feed, verbatim
	AmountCents  int64  // Signed amount in minor units; negative is an outflow
	NeedsReview  bool
	Reviewed     bool
}

// Validate checks the fields an ingested record must carry before it can be
// categorized.
func (t *Transaction) Validate() error {
	if t.ID == "" {
		return fmt.Errorf("transaction id is required")
	}
	if t.OrgID == "" {
		return fmt.Errorf("transaction %s: organization id is required", t.ID)
	}
	if t.MCC != "" && !mccPattern.MatchString(t.MCC) {
		return fmt.Errorf("transaction %s: mcc must be 4 digits, got %q", t.ID, t.MCC)
	}
	if t.Confidence != nil && (*t.Confidence < 0 || *t.Confidence > 1) {
		return fmt.Errorf("transaction %s: confidence must be between 0.0 and 1.0, got %.2f", t.ID, *t.Confidence)
	}
	return nil
}

// Categorized reports whether a category has already been assigned.
func (t *Transaction) Categorized() bool {
	return t.CategoryID != nil
}

// DisplayName returns the merchant name when present, falling back to the raw
// description.
func (t *Transaction) DisplayName() string {
	if t.MerchantName != "" {
		return t.MerchantName
	}
	return t.Description
}

// IsInflow reports whether the amount credits the account.
func (t *Transaction) IsInflow() bool {
	return t.AmountCents > 0
}
