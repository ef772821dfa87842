package service

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"cafehub/internal/apperr"
	"cafehub/internal/model"
)

type CatalogService struct {
	db    *sql.DB
	audit *AuditService
}

func NewCatalogService(db *sql.DB, audit *AuditService) *CatalogService {
	return &CatalogService{db: db, audit: audit}
}

// Menu returns available products grouped by category for the storefront.
func (s *CatalogService) Menu(ctx context.Context) (map[string][]model.Product, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, name, category, price, available, stock_qty, created_at, updated_at
		FROM products WHERE available = TRUE ORDER BY category, name
	`)
	if err != nil {
		return nil, fmt.Errorf("query menu: %w", err)
	}
	defer rows.Close()

	menu := make(map[string][]model.Product)
	for rows.Next() {
		var p model.Product
		if err := rows.Scan(&p.ID, &p.Name, &p.Category, &p.Price, &p.Available, &p.StockQty, &p.CreatedAt, &p.UpdatedAt); err != nil {
			return nil, fmt.Errorf("scan product: %w", err)
		}
		menu[p.Category] = append(menu[p.Category], p)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("rows iteration failed: %w", err)
	}

	return menu, nil
}

func (s *CatalogService) List(ctx context.Context) ([]model.Product, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, name, category, price, available, stock_qty, created_at, updated_at
		FROM products ORDER BY category, name
	`)
	if err != nil {
		return nil, fmt.Errorf("query products: %w", err)
	}
	defer rows.Close()

	var products []model.Product
	for rows.Next() {
		var p model.Product
		if err := rows.Scan(&p.ID, &p.Name, &p.Category, &p.Price, &p.Available, &p.StockQty, &p.CreatedAt, &p.UpdatedAt); err != nil {
			return nil, fmt.Errorf("scan product: %w", err)
		}
		products = append(products, p)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("rows iteration failed: %w", err)
	}

	return products, nil
}

func (s *CatalogService) Create(ctx context.Context, p model.Product, actor string) (*model.Product, error) {
	if p.Name == "" {
		return nil, apperr.Validation("name", "product name is required")
	}
	if p.Price < 0 {
		return nil, apperr.Validation("price", "price cannot be negative")
	}
	if p.Category == "" {
		p.Category = "general"
	}

	row := s.db.QueryRowContext(ctx, `
		INSERT INTO products (name, category, price, available, stock_qty)
		VALUES ($1, $2, $3, $4, $5)
		RETURNING id, created_at, updated_at
	`, p.Name, p.Category, p.Price, p.Available, p.StockQty)
	if err := row.Scan(&p.ID, &p.CreatedAt, &p.UpdatedAt); err != nil {
		return nil, fmt.Errorf("insert product: %w", err)
	}

	s.audit.Record(ctx, actor, "product-created", "product", p.ID, p.Name)
	return &p, nil
}

func (s *CatalogService) Update(ctx context.Context, p model.Product, actor string) (*model.Product, error) {
	if p.Price < 0 {
		return nil, apperr.Validation("price", "price cannot be negative")
	}

	res, err := s.db.ExecContext(ctx, `
		UPDATE products SET name = $2, category = $3, price = $4, available = $5, updated_at = NOW()
		WHERE id = $1
	`, p.ID, p.Name, p.Category, p.Price, p.Available)
	if err != nil {
		return nil, fmt.Errorf("update product: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return nil, apperr.ErrNotFound
	}

	s.audit.Record(ctx, actor, "product-updated", "product", p.ID, p.Name)
	return &p, nil
}

// AdjustStock applies an inventory dispatch delta. Negative deltas
// record consumption, positive deltas record a delivery.
func (s *CatalogService) AdjustStock(ctx context.Context, productID string, delta int, actor string) (*model.Product, error) {
	row := s.db.QueryRowContext(ctx, `
		UPDATE products SET stock_qty = stock_qty + $2, updated_at = NOW()
		WHERE id = $1
		RETURNING id, name, category, price, available, stock_qty, created_at, updated_at
	`, productID, delta)

	var p model.Product
	if err := row.Scan(&p.ID, &p.Name, &p.Category, &p.Price, &p.Available, &p.StockQty, &p.CreatedAt, &p.UpdatedAt); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, apperr.ErrNotFound
		}
		return nil, fmt.Errorf("adjust stock: %w", err)
	}

	s.audit.Record(ctx, actor, "stock-adjusted", "product", p.ID, fmt.Sprintf("delta %d, now %d", delta, p.StockQty))
	return &p, nil
}
