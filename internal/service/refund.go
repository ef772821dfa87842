package service

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"cafehub/internal/apperr"
	"cafehub/internal/model"
)

type RefundService struct {
	db    *sql.DB
	audit *AuditService
}

func NewRefundService(db *sql.DB, audit *AuditService) *RefundService {
	return &RefundService{db: db, audit: audit}
}

func (s *RefundService) Request(ctx context.Context, orderID string, amount float64, reason, actor string) (*model.Refund, error) {
	if amount <= 0 {
		return nil, apperr.Validation("amount", "refund amount must be positive")
	}
	if reason == "" {
		return nil, apperr.Validation("reason", "refund reason is required")
	}

	var exists bool
	if err := s.db.QueryRowContext(ctx, `SELECT EXISTS(SELECT 1 FROM orders WHERE id = $1)`, orderID).Scan(&exists); err != nil {
		return nil, fmt.Errorf("check order: %w", err)
	}
	if !exists {
		return nil, apperr.ErrNotFound
	}

	row := s.db.QueryRowContext(ctx, `
		INSERT INTO refunds (order_id, amount, reason, status)
		VALUES ($1, $2, $3, $4)
		RETURNING id, order_id, amount, reason, status, decided_by, created_at
	`, orderID, amount, reason, model.RefundRequested)

	var r model.Refund
	if err := row.Scan(&r.ID, &r.OrderID, &r.Amount, &r.Reason, &r.Status, &r.DecidedBy, &r.CreatedAt); err != nil {
		return nil, fmt.Errorf("insert refund: %w", err)
	}

	s.audit.Record(ctx, actor, "refund-requested", "refund", r.ID, reason)
	return &r, nil
}

// Decide resolves a requested refund. Only refunds still in requested
// state can be decided; deciding twice reports an invalid transition.
func (s *RefundService) Decide(ctx context.Context, refundID string, approve bool, actor string) (*model.Refund, error) {
	status := model.RefundDeclined
	if approve {
		status = model.RefundApproved
	}

	row := s.db.QueryRowContext(ctx, `
		UPDATE refunds SET status = $2, decided_by = $3, decided_at = NOW()
		WHERE id = $1 AND status = $4
		RETURNING id, order_id, amount, reason, status, decided_by, created_at, decided_at
	`, refundID, status, actor, model.RefundRequested)

	var r model.Refund
	var decidedAt sql.NullTime
	if err := row.Scan(&r.ID, &r.OrderID, &r.Amount, &r.Reason, &r.Status, &r.DecidedBy, &r.CreatedAt, &decidedAt); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			if exists, checkErr := s.exists(ctx, refundID); checkErr == nil && exists {
				return nil, fmt.Errorf("%w: refund already decided", apperr.ErrInvalidTransition)
			}
			return nil, apperr.ErrNotFound
		}
		return nil, fmt.Errorf("decide refund: %w", err)
	}
	if decidedAt.Valid {
		r.DecidedAt = &decidedAt.Time
	}

	s.audit.Record(ctx, actor, "refund-decided", "refund", r.ID, string(r.Status))
	return &r, nil
}

func (s *RefundService) exists(ctx context.Context, refundID string) (bool, error) {
	var exists bool
	err := s.db.QueryRowContext(ctx, `SELECT EXISTS(SELECT 1 FROM refunds WHERE id = $1)`, refundID).Scan(&exists)
	return exists, err
}

func (s *RefundService) List(ctx context.Context) ([]model.Refund, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, order_id, amount, reason, status, decided_by, created_at, decided_at
		FROM refunds ORDER BY created_at DESC
	`)
	if err != nil {
		return nil, fmt.Errorf("query refunds: %w", err)
	}
	defer rows.Close()

	var refunds []model.Refund
	for rows.Next() {
		var r model.Refund
		var decidedAt sql.NullTime
		if err := rows.Scan(&r.ID, &r.OrderID, &r.Amount, &r.Reason, &r.Status, &r.DecidedBy, &r.CreatedAt, &decidedAt); err != nil {
			return nil, fmt.Errorf("scan refund: %w", err)
		}
		if decidedAt.Valid {
			r.DecidedAt = &decidedAt.Time
		}
		refunds = append(refunds, r)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("rows iteration failed: %w", err)
	}

	return refunds, nil
}
