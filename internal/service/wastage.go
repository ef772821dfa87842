package service

import (
	"context"
	"database/sql"
	"fmt"

	"cafehub/internal/apperr"
	"cafehub/internal/model"
)

type WastageService struct {
	db    *sql.DB
	audit *AuditService
}

func NewWastageService(db *sql.DB, audit *AuditService) *WastageService {
	return &WastageService{db: db, audit: audit}
}

// Record logs spoiled or discarded stock and deducts it from inventory.
func (s *WastageService) Record(ctx context.Context, productID string, quantity int, note, actor string) (*model.WastageEntry, error) {
	if quantity <= 0 {
		return nil, apperr.Validation("quantity", "wastage quantity must be positive")
	}
	if note == "" {
		return nil, apperr.Validation("note", "wastage note is required")
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback()

	res, err := tx.ExecContext(ctx,
		`UPDATE products SET stock_qty = stock_qty - $2, updated_at = NOW() WHERE id = $1`,
		productID, quantity)
	if err != nil {
		return nil, fmt.Errorf("deduct stock: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return nil, apperr.ErrNotFound
	}

	row := tx.QueryRowContext(ctx, `
		INSERT INTO wastage (product_id, quantity, note, recorded_by)
		VALUES ($1, $2, $3, $4)
		RETURNING id, product_id, quantity, note, recorded_by, recorded_at
	`, productID, quantity, note, actor)

	var e model.WastageEntry
	if err := row.Scan(&e.ID, &e.ProductID, &e.Quantity, &e.Note, &e.RecordedBy, &e.RecordedAt); err != nil {
		return nil, fmt.Errorf("insert wastage: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("commit tx: %w", err)
	}

	s.audit.Record(ctx, actor, "wastage-recorded", "product", productID, note)
	return &e, nil
}

func (s *WastageService) List(ctx context.Context) ([]model.WastageEntry, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, product_id, quantity, note, recorded_by, recorded_at
		FROM wastage ORDER BY recorded_at DESC
	`)
	if err != nil {
		return nil, fmt.Errorf("query wastage: %w", err)
	}
	defer rows.Close()

	var entries []model.WastageEntry
	for rows.Next() {
		var e model.WastageEntry
		if err := rows.Scan(&e.ID, &e.ProductID, &e.Quantity, &e.Note, &e.RecordedBy, &e.RecordedAt); err != nil {
			return nil, fmt.Errorf("scan wastage: %w", err)
		}
		entries = append(entries, e)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("rows iteration failed: %w", err)
	}

	return entries, nil
}
