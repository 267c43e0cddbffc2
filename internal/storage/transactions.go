package storage

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/parthgeek/tally/internal/common"
	"github.com/parthgeek/tally/internal/model"
)

const transactionColumns = `id, org_id, merchant_name, description, mcc, amount_cents,
	currency, date, category_id, confidence, needs_review, reviewed, attributes, raw, created_at`

// SaveTransactions inserts ingested feed records, skipping duplicates by id.
func (s *SQLiteStorage) SaveTransactions(ctx context.Context, transactions []model.Transaction) error {
	if err := validateContext(ctx); err != nil {
		return err
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	stmt, err := tx.PrepareContext(ctx, `INSERT OR IGNORE INTO transactions
		(id, org_id, merchant_name, description, mcc, amount_cents, currency, date,
		 category_id, confidence, needs_review, reviewed, attributes, raw, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`)
	if err != nil {
		return fmt.Errorf("failed to prepare insert: %w", err)
	}
	defer func() { _ = stmt.Close() }()

	for i := range transactions {
		txn := &transactions[i]
		if err := txn.Validate(); err != nil {
			return fmt.Errorf("%w: %v", common.ErrValidation, err)
		}
		attrs, err := marshalAttributes(txn.Attributes)
		if err != nil {
			return fmt.Errorf("transaction %s: %w", txn.ID, err)
		}
		if _, err := stmt.ExecContext(ctx,
			txn.ID, txn.OrgID, txn.MerchantName, txn.Description, txn.MCC,
			txn.AmountCents, txn.Currency, txn.Date,
			txn.CategoryID, txn.Confidence, txn.NeedsReview, txn.Reviewed,
			attrs, txn.Raw, txn.CreatedAt); err != nil {
			return fmt.Errorf("failed to insert transaction %s: %w", txn.ID, err)
		}
	}

	return tx.Commit()
}

// ListUncategorized returns up to limit transactions without an assigned
// category for the organization, oldest first. Already-categorized records
// are excluded here, which is what makes batch re-runs no-ops.
func (s *SQLiteStorage) ListUncategorized(ctx context.Context, orgID string, limit int) ([]model.Transaction, error) {
	if err := validateContext(ctx); err != nil {
		return nil, err
	}

	rows, err := s.db.QueryContext(ctx, `SELECT `+transactionColumns+`
		FROM transactions
		WHERE org_id = ? AND category_id IS NULL
		ORDER BY created_at ASC, id ASC
		LIMIT ?`, orgID, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to query uncategorized transactions: %w", err)
	}
	defer func() { _ = rows.Close() }()

	return scanTransactions(rows)
}

// CountUncategorized reports the organization's remaining queue depth.
func (s *SQLiteStorage) CountUncategorized(ctx context.Context, orgID string) (int, error) {
	if err := validateContext(ctx); err != nil {
		return 0, err
	}

	var count int
	err := s.db.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM transactions WHERE org_id = ? AND category_id IS NULL`,
		orgID).Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("failed to count uncategorized transactions: %w", err)
	}
	return count, nil
}

// ListOrganizationsWithPending returns every organization that still has
// uncategorized transactions, in stable order.
func (s *SQLiteStorage) ListOrganizationsWithPending(ctx context.Context) ([]string, error) {
	if err := validateContext(ctx); err != nil {
		return nil, err
	}

	rows, err := s.db.QueryContext(ctx, `SELECT DISTINCT org_id FROM transactions
		WHERE category_id IS NULL ORDER BY org_id`)
	if err != nil {
		return nil, fmt.Errorf("failed to query pending organizations: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var orgs []string
	for rows.Next() {
		var org string
		if err := rows.Scan(&org); err != nil {
			return nil, fmt.Errorf("failed to scan organization: %w", err)
		}
		orgs = append(orgs, org)
	}
	return orgs, rows.Err()
}

// GetTransactionByID fetches a single transaction.
func (s *SQLiteStorage) GetTransactionByID(ctx context.Context, id string) (*model.Transaction, error) {
	if err := validateContext(ctx); err != nil {
		return nil, err
	}

	row := s.db.QueryRowContext(ctx, `SELECT `+transactionColumns+`
		FROM transactions WHERE id = ?`, id)

	txn, err := scanTransaction(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("transaction %s: %w", id, common.ErrNotFound)
	}
	if err != nil {
		return nil, err
	}
	return txn, nil
}

// UpdateTransactionCategory applies a categorization decision to a record.
func (s *SQLiteStorage) UpdateTransactionCategory(ctx context.Context, txnID string, categoryID int, confidence float64, needsReview bool) error {
	if err := validateContext(ctx); err != nil {
		return err
	}

	result, err := s.db.ExecContext(ctx, `UPDATE transactions
		SET category_id = ?, confidence = ?, needs_review = ?
		WHERE id = ?`, categoryID, confidence, needsReview, txnID)
	if err != nil {
		return fmt.Errorf("failed to update transaction %s: %w", txnID, err)
	}

	affected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to check update of transaction %s: %w", txnID, err)
	}
	if affected == 0 {
		return fmt.Errorf("transaction %s: %w", txnID, common.ErrNotFound)
	}
	return nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanTransaction(row rowScanner) (*model.Transaction, error) {
	var txn model.Transaction
	var merchantName, description, mcc, attrs, raw sql.NullString
	var categoryID sql.NullInt64
	var confidence sql.NullFloat64

	err := row.Scan(&txn.ID, &txn.OrgID, &merchantName, &description, &mcc,
		&txn.AmountCents, &txn.Currency, &txn.Date,
		&categoryID, &confidence, &txn.NeedsReview, &txn.Reviewed,
		&attrs, &raw, &txn.CreatedAt)
	if err != nil {
		return nil, err
	}

	txn.MerchantName = merchantName.String
	txn.Description = description.String
	txn.MCC = mcc.String
	txn.Raw = raw.String
	if categoryID.Valid {
		id := int(categoryID.Int64)
		txn.CategoryID = &id
	}
	if confidence.Valid {
		txn.Confidence = &confidence.Float64
	}
	if attrs.Valid && attrs.String != "" {
		if err := json.Unmarshal([]byte(attrs.String), &txn.Attributes); err != nil {
			return nil, fmt.Errorf("transaction %s: corrupt attributes: %w", txn.ID, err)
		}
	}

	return &txn, nil
}

func scanTransactions(rows *sql.Rows) ([]model.Transaction, error) {
	var out []model.Transaction
	for rows.Next() {
		txn, err := scanTransaction(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan transaction: %w", err)
		}
		out = append(out, *txn)
	}
	return out, rows.Err()
}

func marshalAttributes(attrs map[string]any) (sql.NullString, error) {
	if len(attrs) == 0 {
		return sql.NullString{}, nil
	}
	data, err := json.Marshal(attrs)
	if err != nil {
		return sql.NullString{}, fmt.Errorf("failed to marshal attributes: %w", err)
	}
	return sql.NullString{String: string(data), Valid: true}, nil
}
