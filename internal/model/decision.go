package model

import (
	"fmt"
	"time"
)

// Decision is the append-only audit record written after every apply. Once
// written it is never updated or deleted.
type Decision struct {
	CreatedAt     time.Time
	ID            string
	TransactionID string
	OrgID         string
	CategorySlug  string
	Engine        EngineTag
	Rationale     []string
	Confidence    float64
}

// Validate ensures the decision record is complete before the audit write.
func (d *Decision) Validate() error {
	if d.TransactionID == "" {
		return fmt.Errorf("decision: transaction id is required")
	}
	if d.OrgID == "" {
		return fmt.Errorf("decision for %s: organization id is required", d.TransactionID)
	}
	if d.CategorySlug == "" {
		return fmt.Errorf("decision for %s: category slug is required", d.TransactionID)
	}
	if d.Confidence < 0 || d.Confidence > 1 {
		return fmt.Errorf("decision for %s: confidence must be between 0.0 and 1.0, got %.2f", d.TransactionID, d.Confidence)
	}
	return nil
}
