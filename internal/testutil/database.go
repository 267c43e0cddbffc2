// Package testutil provides shared helpers for tests that need a real
// storage layer.
package testutil

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/parthgeek/tally/internal/model"
	"github.com/parthgeek/tally/internal/storage"
	"github.com/parthgeek/tally/internal/taxonomy"
)

// SetupTestDB creates an in-memory SQLite store, migrates it, and seeds the
// built-in taxonomy. Cleanup is registered automatically.
func SetupTestDB(t *testing.T) *storage.SQLiteStorage {
	t.Helper()

	store, err := storage.NewSQLiteStorage(":memory:")
	if err != nil {
		t.Fatalf("failed to create test database: %v", err)
	}

	ctx := context.Background()
	if err := store.Migrate(ctx); err != nil {
		t.Fatalf("failed to run migrations: %v", err)
	}
	if err := store.SeedCategories(ctx, taxonomy.DefaultCategories()); err != nil {
		t.Fatalf("failed to seed categories: %v", err)
	}

	t.Cleanup(func() {
		_ = store.Close()
	})

	return store
}

// MakeTransactions builds n sequential uncategorized transactions for an
// organization, with creation times spaced one second apart so FIFO order is
// unambiguous.
func MakeTransactions(orgID string, n int) []model.Transaction {
	base := time.Date(2025, 3, 1, 12, 0, 0, 0, time.UTC)
	out := make([]model.Transaction, 0, n)
	for i := 0; i < n; i++ {
		out = append(out, model.Transaction{
			ID:           fmt.Sprintf("%s-txn-%03d", orgID, i),
			OrgID:        orgID,
			MerchantName: fmt.Sprintf("VENDOR %d", i),
			Description:  fmt.Sprintf("PURCHASE %d", i),
			AmountCents:  -1000 - int64(i),
			Currency:     "USD",
			Date:         base.Add(time.Duration(i) * time.Hour),
			CreatedAt:    base.Add(time.Duration(i) * time.Second),
		})
	}
	return out
}
