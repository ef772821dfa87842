package notify

import "time"

const (
	EventOrderCreated  = "order.created"
	EventOrderApproved = "order.approved"
	EventOrderRejected = "order.rejected"
	EventOrderServed   = "order.served"
	EventOrderPaid     = "order.paid"
	EventPrintStatus   = "print.status"
	EventTableStatus   = "table.status"
)

// Event is the payload fanned out to connected viewers. Delivery is
// best-effort and at-most-once; clients re-fetch state over REST when
// they miss one.
type Event struct {
	Type    string      `json:"type"`
	Entity  string      `json:"entity"`
	ID      string      `json:"id"`
	Payload interface{} `json:"payload,omitempty"`
	At      time.Time   `json:"at"`
}
