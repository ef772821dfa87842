package model

import "time"

type Customer struct {
	ID            string    `json:"id"`
	Phone         string    `json:"phone"`
	Name          string    `json:"name,omitempty"`
	Email         string    `json:"email,omitempty"`
	LoyaltyPoints int       `json:"loyalty_points"`
	CreatedAt     time.Time `json:"created_at"`
}

// LoyaltyEntry is one row of the per-customer points ledger. Positive
// points are earned, negative points are redemptions.
type LoyaltyEntry struct {
	ID         string    `json:"id"`
	CustomerID string    `json:"-"`
	OrderID    string    `json:"order_id,omitempty"`
	Points     int       `json:"points"`
	Reason     string    `json:"reason"`
	CreatedAt  time.Time `json:"created_at"`
}
