package service

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/google/uuid"

	"cafehub/internal/apperr"
	"cafehub/internal/model"
)

type TableService struct {
	db    *sql.DB
	audit *AuditService
}

func NewTableService(db *sql.DB, audit *AuditService) *TableService {
	return &TableService{db: db, audit: audit}
}

func (s *TableService) Create(ctx context.Context, number int, actor string) (*model.Table, error) {
	if number <= 0 {
		return nil, apperr.Validation("number", "table number must be positive")
	}

	slug := fmt.Sprintf("t%d-%s", number, uuid.NewString()[:8])
	row := s.db.QueryRowContext(ctx, `
		INSERT INTO cafe_tables (number, qr_slug, status) VALUES ($1, $2, $3)
		RETURNING id, number, qr_slug, status, created_at, updated_at
	`, number, slug, model.TableIdle)

	var t model.Table
	if err := row.Scan(&t.ID, &t.Number, &t.QRSlug, &t.Status, &t.CreatedAt, &t.UpdatedAt); err != nil {
		return nil, fmt.Errorf("insert table: %w", err)
	}

	s.audit.Record(ctx, actor, "table-created", "table", t.ID, fmt.Sprintf("number %d", number))
	return &t, nil
}

func (s *TableService) List(ctx context.Context) ([]model.Table, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, number, qr_slug, status, created_at, updated_at
		FROM cafe_tables ORDER BY number
	`)
	if err != nil {
		return nil, fmt.Errorf("query tables: %w", err)
	}
	defer rows.Close()

	var tables []model.Table
	for rows.Next() {
		var t model.Table
		if err := rows.Scan(&t.ID, &t.Number, &t.QRSlug, &t.Status, &t.CreatedAt, &t.UpdatedAt); err != nil {
			return nil, fmt.Errorf("scan table: %w", err)
		}
		tables = append(tables, t)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("rows iteration failed: %w", err)
	}

	return tables, nil
}

// GetByQRSlug resolves a scanned QR code to its table, the entry point
// of a customer session.
func (s *TableService) GetByQRSlug(ctx context.Context, slug string) (*model.Table, error) {
	row := s.db.QueryRowContext(ctx, `
		SELECT id, number, qr_slug, status, created_at, updated_at
		FROM cafe_tables WHERE qr_slug = $1
	`, slug)

	var t model.Table
	if err := row.Scan(&t.ID, &t.Number, &t.QRSlug, &t.Status, &t.CreatedAt, &t.UpdatedAt); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, apperr.ErrNotFound
		}
		return nil, fmt.Errorf("get table: %w", err)
	}
	return &t, nil
}

// SetStatus is the cashier's manual occupancy flip.
func (s *TableService) SetStatus(ctx context.Context, tableID string, status model.TableStatus, actor string) (*model.Table, error) {
	if status != model.TableIdle && status != model.TableOccupied {
		return nil, apperr.Validation("status", "unknown table status")
	}

	row := s.db.QueryRowContext(ctx, `
		UPDATE cafe_tables SET status = $2, updated_at = NOW() WHERE id = $1
		RETURNING id, number, qr_slug, status, created_at, updated_at
	`, tableID, status)

	var t model.Table
	if err := row.Scan(&t.ID, &t.Number, &t.QRSlug, &t.Status, &t.CreatedAt, &t.UpdatedAt); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, apperr.ErrNotFound
		}
		return nil, fmt.Errorf("set table status: %w", err)
	}

	s.audit.Record(ctx, actor, "table-status", "table", t.ID, string(status))
	return &t, nil
}

// Reset returns a table to idle after its party leaves.
func (s *TableService) Reset(ctx context.Context, tableID, actor string) (*model.Table, error) {
	return s.SetStatus(ctx, tableID, model.TableIdle, actor)
}
