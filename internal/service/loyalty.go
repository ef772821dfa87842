package service

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"cafehub/internal/apperr"
	"cafehub/internal/model"
)

type LoyaltyService struct {
	db *sql.DB
}

func NewLoyaltyService(db *sql.DB) *LoyaltyService {
	return &LoyaltyService{db: db}
}

func (s *LoyaltyService) Customer(ctx context.Context, phone string) (*model.Customer, error) {
	row := s.db.QueryRowContext(ctx, `
		SELECT id, phone, name, email, loyalty_points, created_at
		FROM customers WHERE phone = $1
	`, phone)

	var c model.Customer
	if err := row.Scan(&c.ID, &c.Phone, &c.Name, &c.Email, &c.LoyaltyPoints, &c.CreatedAt); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, apperr.ErrNotFound
		}
		return nil, fmt.Errorf("get customer: %w", err)
	}
	return &c, nil
}

// Ledger returns the customer's points history, newest first.
func (s *LoyaltyService) Ledger(ctx context.Context, phone string) ([]model.LoyaltyEntry, error) {
	customer, err := s.Customer(ctx, phone)
	if err != nil {
		return nil, err
	}

	rows, err := s.db.QueryContext(ctx, `
		SELECT id, customer_id, COALESCE(order_id::text, ''), points, reason, created_at
		FROM loyalty_entries WHERE customer_id = $1 ORDER BY created_at DESC
	`, customer.ID)
	if err != nil {
		return nil, fmt.Errorf("query loyalty entries: %w", err)
	}
	defer rows.Close()

	var entries []model.LoyaltyEntry
	for rows.Next() {
		var e model.LoyaltyEntry
		if err := rows.Scan(&e.ID, &e.CustomerID, &e.OrderID, &e.Points, &e.Reason, &e.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan loyalty entry: %w", err)
		}
		entries = append(entries, e)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("rows iteration failed: %w", err)
	}

	return entries, nil
}

// Redeem debits points against an order. The balance row is locked so
// a concurrent redemption cannot overdraw.
func (s *LoyaltyService) Redeem(ctx context.Context, phone, orderID string, points int) error {
	if points <= 0 {
		return apperr.Validation("points", "points must be positive")
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback()

	var customerID string
	var balance int
	err = tx.QueryRowContext(ctx,
		`SELECT id, loyalty_points FROM customers WHERE phone = $1 FOR UPDATE`,
		phone).Scan(&customerID, &balance)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return apperr.ErrNotFound
		}
		return fmt.Errorf("lock customer: %w", err)
	}

	if balance < points {
		return apperr.ErrInsufficientPoints
	}

	_, err = tx.ExecContext(ctx,
		`UPDATE customers SET loyalty_points = loyalty_points - $1 WHERE id = $2`,
		points, customerID)
	if err != nil {
		return fmt.Errorf("debit points: %w", err)
	}

	_, err = tx.ExecContext(ctx, `
		INSERT INTO loyalty_entries (customer_id, order_id, points, reason, created_at)
		VALUES ($1, NULLIF($2, '')::uuid, $3, $4, $5)
	`, customerID, orderID, -points, "redemption", time.Now())
	if err != nil {
		return fmt.Errorf("insert redemption entry: %w", err)
	}

	return tx.Commit()
}
