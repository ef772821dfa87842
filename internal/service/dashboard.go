package service

import (
	"context"
	"database/sql"
	"fmt"
)

type DashboardService struct {
	db *sql.DB
}

func NewDashboardService(db *sql.DB) *DashboardService {
	return &DashboardService{db: db}
}

type DashboardStats struct {
	OrdersToday    int          `json:"orders_today"`
	RevenueToday   float64      `json:"revenue_today"`
	PendingOrders  int          `json:"pending_orders"`
	OccupiedTables int          `json:"occupied_tables"`
	TopProducts    []TopProduct `json:"top_products"`
	FailedPrints   int          `json:"failed_prints"`
}

type TopProduct struct {
	Name     string `json:"name"`
	Quantity int    `json:"quantity"`
}

// Stats aggregates the admin dashboard numbers in one round trip set.
func (s *DashboardService) Stats(ctx context.Context) (*DashboardStats, error) {
	stats := &DashboardStats{}

	err := s.db.QueryRowContext(ctx, `
		SELECT COUNT(*), COALESCE(SUM(total) FILTER (WHERE paid_at IS NOT NULL), 0)
		FROM orders WHERE created_at >= date_trunc('day', NOW())
	`).Scan(&stats.OrdersToday, &stats.RevenueToday)
	if err != nil {
		return nil, fmt.Errorf("today stats: %w", err)
	}

	err = s.db.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM orders WHERE status = 'pending'`).Scan(&stats.PendingOrders)
	if err != nil {
		return nil, fmt.Errorf("pending count: %w", err)
	}

	err = s.db.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM cafe_tables WHERE status = 'occupied'`).Scan(&stats.OccupiedTables)
	if err != nil {
		return nil, fmt.Errorf("occupied count: %w", err)
	}

	err = s.db.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM print_jobs WHERE status = 'failed'`).Scan(&stats.FailedPrints)
	if err != nil {
		return nil, fmt.Errorf("failed prints count: %w", err)
	}

	rows, err := s.db.QueryContext(ctx, `
		SELECT name, SUM(quantity) AS qty FROM order_items
		GROUP BY name ORDER BY qty DESC LIMIT 5
	`)
	if err != nil {
		return nil, fmt.Errorf("top products: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var p TopProduct
		if err := rows.Scan(&p.Name, &p.Quantity); err != nil {
			return nil, fmt.Errorf("scan top product: %w", err)
		}
		stats.TopProducts = append(stats.TopProducts, p)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("rows iteration failed: %w", err)
	}

	return stats, nil
}
