package engine

import (
	"context"

	"github.com/parthgeek/tally/internal/model"
)

// Categorizer is the hybrid arbitration contract the orchestrator drives.
// Outcomes are always usable unless Fatal.
type Categorizer interface {
	Categorize(ctx context.Context, txn model.Transaction, industry string) model.Outcome
}
