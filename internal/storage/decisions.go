package storage

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/parthgeek/tally/internal/common"
	"github.com/parthgeek/tally/internal/model"
)

// InsertDecision appends an audit record. The decisions table is append-only
// by construction: this is the only statement that touches it besides reads.
func (s *SQLiteStorage) InsertDecision(ctx context.Context, decision *model.Decision) error {
	if err := validateContext(ctx); err != nil {
		return err
	}
	if err := decision.Validate(); err != nil {
		return fmt.Errorf("%w: %v", common.ErrValidation, err)
	}

	rationale, err := json.Marshal(decision.Rationale)
	if err != nil {
		return fmt.Errorf("failed to marshal rationale: %w", err)
	}

	_, err = s.db.ExecContext(ctx, `INSERT INTO decisions
		(id, transaction_id, org_id, category_slug, confidence, engine, rationale, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		decision.ID, decision.TransactionID, decision.OrgID, decision.CategorySlug,
		decision.Confidence, string(decision.Engine), string(rationale), decision.CreatedAt)
	if err != nil {
		return fmt.Errorf("failed to insert decision for %s: %w", decision.TransactionID, err)
	}
	return nil
}

// GetDecisionsByTransaction returns the audit trail for a transaction,
// oldest first.
func (s *SQLiteStorage) GetDecisionsByTransaction(ctx context.Context, txnID string) ([]model.Decision, error) {
	if err := validateContext(ctx); err != nil {
		return nil, err
	}

	rows, err := s.db.QueryContext(ctx, `SELECT
		id, transaction_id, org_id, category_slug, confidence, engine, rationale, created_at
		FROM decisions WHERE transaction_id = ? ORDER BY created_at ASC, id ASC`, txnID)
	if err != nil {
		return nil, fmt.Errorf("failed to query decisions: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var decisions []model.Decision
	for rows.Next() {
		var d model.Decision
		var engine, rationale string
		if err := rows.Scan(&d.ID, &d.TransactionID, &d.OrgID, &d.CategorySlug,
			&d.Confidence, &engine, &rationale, &d.CreatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan decision: %w", err)
		}
		d.Engine = model.EngineTag(engine)
		if rationale != "" {
			if err := json.Unmarshal([]byte(rationale), &d.Rationale); err != nil {
				return nil, fmt.Errorf("decision %s: corrupt rationale: %w", d.ID, err)
			}
		}
		decisions = append(decisions, d)
	}
	return decisions, rows.Err()
}

// CountDecisions reports the audit trail size for an organization.
func (s *SQLiteStorage) CountDecisions(ctx context.Context, orgID string) (int, error) {
	if err := validateContext(ctx); err != nil {
		return 0, err
	}

	var count int
	err := s.db.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM decisions WHERE org_id = ?`, orgID).Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("failed to count decisions: %w", err)
	}
	return count, nil
}
