package model

import (
	"time"
)

type OrderStatus string

const (
	OrderPending  OrderStatus = "pending"
	OrderApproved OrderStatus = "approved"
	OrderRejected OrderStatus = "rejected"
	OrderServed   OrderStatus = "served"
)

// transitions is the full set of legal lifecycle moves. rejected and
// served have no outgoing edges.
var transitions = map[OrderStatus][]OrderStatus{
	OrderPending:  {OrderApproved, OrderRejected},
	OrderApproved: {OrderServed},
}

func (s OrderStatus) CanTransitionTo(next OrderStatus) bool {
	for _, t := range transitions[s] {
		if t == next {
			return true
		}
	}
	return false
}

func (s OrderStatus) Terminal() bool {
	return len(transitions[s]) == 0
}

type Order struct {
	ID            string      `json:"id"`
	OrderNumber   string      `json:"order_number"`
	TableID       string      `json:"table_id,omitempty"`
	CustomerName  string      `json:"customer_name,omitempty"`
	CustomerPhone string      `json:"customer_phone,omitempty"`
	Items         []OrderItem `json:"items,omitempty"`
	Total         float64     `json:"total"`
	Status        OrderStatus `json:"status"`
	PaymentMethod string      `json:"payment_method,omitempty"`
	PaymentRef    string      `json:"payment_ref,omitempty"`
	PaidAt        *time.Time  `json:"paid_at,omitempty"`
	CreatedAt     time.Time   `json:"created_at"`
	ApprovedAt    *time.Time  `json:"approved_at,omitempty"`
	ServedAt      *time.Time  `json:"served_at,omitempty"`

	Timeline []TimelineEntry `json:"timeline,omitempty"`
}

type OrderItem struct {
	ID        string  `json:"id"`
	OrderID   string  `json:"-"`
	ProductID string  `json:"product_id"`
	Name      string  `json:"name"`
	Quantity  int     `json:"quantity"`
	UnitPrice float64 `json:"unit_price"`
	Notes     string  `json:"notes,omitempty"`
}

// TimelineEntry is one row of the append-only order log. Entries are
// never updated or reordered once written.
type TimelineEntry struct {
	OrderID   string    `json:"-"`
	Seq       int       `json:"seq"`
	Action    string    `json:"action"`
	Actor     string    `json:"actor"`
	Notes     string    `json:"notes,omitempty"`
	CreatedAt time.Time `json:"created_at"`
}
