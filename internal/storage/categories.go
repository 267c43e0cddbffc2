package storage

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/parthgeek/tally/internal/model"
)

// SeedCategories inserts the given categories, ignoring ones that already
// exist. Used at migration time with the built-in taxonomy.
func (s *SQLiteStorage) SeedCategories(ctx context.Context, categories []model.Category) error {
	if err := validateContext(ctx); err != nil {
		return err
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	stmt, err := tx.PrepareContext(ctx, `INSERT OR IGNORE INTO categories
		(id, slug, name, parent_id, type, tier, pnl, industries, attributes)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`)
	if err != nil {
		return fmt.Errorf("failed to prepare insert: %w", err)
	}
	defer func() { _ = stmt.Close() }()

	for i := range categories {
		cat := &categories[i]
		attrs, err := marshalAttributeSchemas(cat.Attributes)
		if err != nil {
			return fmt.Errorf("category %s: %w", cat.Slug, err)
		}
		if _, err := stmt.ExecContext(ctx,
			cat.ID, cat.Slug, cat.Name, cat.ParentID, string(cat.Type), cat.Tier,
			cat.PnL, strings.Join(cat.Industries, ","), attrs); err != nil {
			return fmt.Errorf("failed to insert category %s: %w", cat.Slug, err)
		}
	}

	return tx.Commit()
}

// GetCategories returns every category ordered by id.
func (s *SQLiteStorage) GetCategories(ctx context.Context) ([]model.Category, error) {
	if err := validateContext(ctx); err != nil {
		return nil, err
	}

	rows, err := s.db.QueryContext(ctx, `SELECT
		id, slug, name, parent_id, type, tier, pnl, industries, attributes
		FROM categories ORDER BY id`)
	if err != nil {
		return nil, fmt.Errorf("failed to query categories: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var categories []model.Category
	for rows.Next() {
		var cat model.Category
		var parentID sql.NullInt64
		var catType, industries string
		var attrs sql.NullString

		if err := rows.Scan(&cat.ID, &cat.Slug, &cat.Name, &parentID, &catType,
			&cat.Tier, &cat.PnL, &industries, &attrs); err != nil {
			return nil, fmt.Errorf("failed to scan category: %w", err)
		}

		cat.Type = model.AccountingType(catType)
		if parentID.Valid {
			id := int(parentID.Int64)
			cat.ParentID = &id
		}
		if industries != "" {
			cat.Industries = strings.Split(industries, ",")
		}
		if attrs.Valid && attrs.String != "" {
			if err := json.Unmarshal([]byte(attrs.String), &cat.Attributes); err != nil {
				return nil, fmt.Errorf("category %s: corrupt attribute schema: %w", cat.Slug, err)
			}
		}

		categories = append(categories, cat)
	}
	return categories, rows.Err()
}

func marshalAttributeSchemas(attrs map[string]model.AttributeSchema) (sql.NullString, error) {
	if len(attrs) == 0 {
		return sql.NullString{}, nil
	}
	data, err := json.Marshal(attrs)
	if err != nil {
		return sql.NullString{}, fmt.Errorf("failed to marshal attribute schema: %w", err)
	}
	return sql.NullString{String: string(data), Valid: true}, nil
}
