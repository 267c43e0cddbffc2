// Package service defines the interfaces for external collaborators consumed
// by the categorization core.
package service

import (
	"context"
	"time"

	"github.com/parthgeek/tally/internal/model"
)

// Storage defines the contract for the persistence layer. The engine only
// needs filtered range reads, row updates, and append-only decision inserts;
// anything richer stays behind this interface.
type Storage interface {
	// Transaction operations. ListUncategorized returns oldest-first and
	// excludes transactions that already carry a category, which is what
	// makes batch re-runs no-ops.
	ListUncategorized(ctx context.Context, orgID string, limit int) ([]model.Transaction, error)
	CountUncategorized(ctx context.Context, orgID string) (int, error)
	ListOrganizationsWithPending(ctx context.Context) ([]string, error)
	UpdateTransactionCategory(ctx context.Context, txnID string, categoryID int, confidence float64, needsReview bool) error

	// Decision operations. The decision store is append-only: there is no
	// update or delete.
	InsertDecision(ctx context.Context, decision *model.Decision) error

	// Category operations.
	GetCategories(ctx context.Context) ([]model.Category, error)

	// Database management.
	Migrate(ctx context.Context) error
	Close() error
}

// TelemetrySink receives fire-and-forget events. Implementations must never
// let a sink failure affect categorization outcomes.
type TelemetrySink interface {
	Emit(event string, fields map[string]any)
}

// RetryOptions configures retry behavior for operations.
type RetryOptions struct {
	MaxAttempts  int
	InitialDelay time.Duration
	MaxDelay     time.Duration
	Multiplier   float64
}

// DefaultRetryOptions returns the retry policy used for model provider calls:
// 1s base delay doubling up to a 10s cap, three attempts total.
func DefaultRetryOptions() RetryOptions {
	return RetryOptions{
		MaxAttempts:  3,
		InitialDelay: time.Second,
		MaxDelay:     10 * time.Second,
		Multiplier:   2.0,
	}
}
