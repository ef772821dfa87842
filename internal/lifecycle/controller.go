package lifecycle

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"

	"cafehub/internal/apperr"
	"cafehub/internal/model"
	"cafehub/internal/notify"
)

// EventSink receives lifecycle notifications. Publishing is advisory
// and must never block or fail the money path.
type EventSink interface {
	Publish(ctx context.Context, ev notify.Event)
}

// TicketQueue accepts kitchen ticket dispatch requests.
type TicketQueue interface {
	EnqueuePrint(ctx context.Context, orderID string) error
}

// SignatureVerifier checks a payment confirmation against the gateway
// secret.
type SignatureVerifier interface {
	VerifySignature(gatewayOrderID, paymentID, signature string) bool
}

// Controller enforces the order state machine and its side effects:
// pending -> approved | rejected, approved -> served. Every accepted
// transition appends exactly one timeline entry.
type Controller struct {
	db       *sql.DB
	events   EventSink
	tickets  TicketQueue
	verifier SignatureVerifier
}

func NewController(db *sql.DB, events EventSink, tickets TicketQueue, verifier SignatureVerifier) *Controller {
	return &Controller{db: db, events: events, tickets: tickets, verifier: verifier}
}

type CreateRequest struct {
	TableID       string       `json:"table_id"`
	CustomerName  string       `json:"customer_name"`
	CustomerPhone string       `json:"customer_phone"`
	Items         []CreateItem `json:"items"`
}

type CreateItem struct {
	ProductID string  `json:"product_id"`
	Name      string  `json:"name"`
	Quantity  int     `json:"quantity"`
	UnitPrice float64 `json:"unit_price"`
	Notes     string  `json:"notes"`
}

func (r *CreateRequest) validate() error {
	if len(r.Items) == 0 {
		return apperr.Validation("items", "order must contain at least one item")
	}
	for _, it := range r.Items {
		if it.Name == "" {
			return apperr.Validation("items", "item name is required")
		}
		if it.Quantity <= 0 {
			return apperr.Validation("items", "item quantity must be positive")
		}
		if it.UnitPrice < 0 {
			return apperr.Validation("items", "item price cannot be negative")
		}
	}
	return nil
}

// Create inserts the order in pending state with its first timeline
// entry, marks the table occupied, queues the kitchen ticket and
// broadcasts order.created. Ticket dispatch is best-effort: a broker
// failure is logged, not returned.
func (c *Controller) Create(ctx context.Context, req CreateRequest) (*model.Order, error) {
	if err := req.validate(); err != nil {
		return nil, err
	}

	now := time.Now()
	order := &model.Order{
		ID:            uuid.NewString(),
		OrderNumber:   newOrderNumber(now),
		TableID:       req.TableID,
		CustomerName:  req.CustomerName,
		CustomerPhone: req.CustomerPhone,
		Status:        model.OrderPending,
		CreatedAt:     now,
	}
	for _, it := range req.Items {
		order.Items = append(order.Items, model.OrderItem{
			ID:        uuid.NewString(),
			OrderID:   order.ID,
			ProductID: it.ProductID,
			Name:      it.Name,
			Quantity:  it.Quantity,
			UnitPrice: it.UnitPrice,
			Notes:     it.Notes,
		})
		order.Total += float64(it.Quantity) * it.UnitPrice
	}

	tx, err := c.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback()

	_, err = tx.ExecContext(ctx, `
		INSERT INTO orders (id, order_number, table_id, customer_name, customer_phone, total, status, created_at)
		VALUES ($1, $2, NULLIF($3, '')::uuid, $4, $5, $6, $7, $8)
	`, order.ID, order.OrderNumber, order.TableID, order.CustomerName, order.CustomerPhone, order.Total, order.Status, order.CreatedAt)
	if err != nil {
		return nil, fmt.Errorf("insert order: %w", err)
	}

	for _, it := range order.Items {
		_, err = tx.ExecContext(ctx, `
			INSERT INTO order_items (id, order_id, product_id, name, quantity, unit_price, notes)
			VALUES ($1, $2, NULLIF($3, '')::uuid, $4, $5, $6, $7)
		`, it.ID, it.OrderID, it.ProductID, it.Name, it.Quantity, it.UnitPrice, it.Notes)
		if err != nil {
			return nil, fmt.Errorf("insert order item: %w", err)
		}
	}

	entry := model.TimelineEntry{
		OrderID:   order.ID,
		Seq:       1,
		Action:    "Order Created",
		Actor:     actorOrCustomer(req.CustomerName),
		CreatedAt: now,
	}
	_, err = tx.ExecContext(ctx, `
		INSERT INTO order_timeline (order_id, seq, action, actor, notes, created_at)
		VALUES ($1, $2, $3, $4, $5, $6)
	`, entry.OrderID, entry.Seq, entry.Action, entry.Actor, entry.Notes, entry.CreatedAt)
	if err != nil {
		return nil, fmt.Errorf("insert timeline entry: %w", err)
	}

	if order.TableID != "" {
		_, err = tx.ExecContext(ctx,
			`UPDATE cafe_tables SET status = $1, updated_at = NOW() WHERE id = $2`,
			model.TableOccupied, order.TableID)
		if err != nil {
			return nil, fmt.Errorf("occupy table: %w", err)
		}
	}

	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("commit tx: %w", err)
	}
	order.Timeline = []model.TimelineEntry{entry}

	if err := c.tickets.EnqueuePrint(ctx, order.ID); err != nil {
		slog.Error("ticket enqueue failed", "order_id", order.ID, "error", err)
	}

	c.events.Publish(ctx, notify.Event{
		Type: notify.EventOrderCreated, Entity: "order", ID: order.ID,
		Payload: order, At: now,
	})
	if order.TableID != "" {
		c.events.Publish(ctx, notify.Event{
			Type: notify.EventTableStatus, Entity: "table", ID: order.TableID,
			Payload: map[string]string{"status": string(model.TableOccupied)}, At: now,
		})
	}

	return order, nil
}

// Approve moves a pending order to approved and stamps approved_at.
func (c *Controller) Approve(ctx context.Context, orderID, actor, notes string) (*model.Order, error) {
	return c.transition(ctx, orderID, model.OrderApproved, "Order Approved", actor, notes, notify.EventOrderApproved)
}

// Reject declines a pending order; the reason lands in the timeline.
func (c *Controller) Reject(ctx context.Context, orderID, actor, reason string) (*model.Order, error) {
	if strings.TrimSpace(reason) == "" {
		return nil, apperr.Validation("reason", "rejection reason is required")
	}
	return c.transition(ctx, orderID, model.OrderRejected, "Order Rejected", actor, reason, notify.EventOrderRejected)
}

// MarkServed closes out an approved order and stamps served_at.
func (c *Controller) MarkServed(ctx context.Context, orderID, actor string) (*model.Order, error) {
	return c.transition(ctx, orderID, model.OrderServed, "Order Served", actor, "", notify.EventOrderServed)
}

func (c *Controller) transition(ctx context.Context, orderID string, next model.OrderStatus, action, actor, notes, eventType string) (*model.Order, error) {
	now := time.Now()

	tx, err := c.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback()

	var current model.OrderStatus
	err = tx.QueryRowContext(ctx, `SELECT status FROM orders WHERE id = $1 FOR UPDATE`, orderID).Scan(&current)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, apperr.ErrNotFound
		}
		return nil, fmt.Errorf("lock order: %w", err)
	}

	if !current.CanTransitionTo(next) {
		return nil, fmt.Errorf("%w: %s -> %s", apperr.ErrInvalidTransition, current, next)
	}

	switch next {
	case model.OrderApproved:
		_, err = tx.ExecContext(ctx, `UPDATE orders SET status = $1, approved_at = $2 WHERE id = $3 AND status = $4`,
			next, now, orderID, current)
	case model.OrderServed:
		_, err = tx.ExecContext(ctx, `UPDATE orders SET status = $1, served_at = $2 WHERE id = $3 AND status = $4`,
			next, now, orderID, current)
	default:
		_, err = tx.ExecContext(ctx, `UPDATE orders SET status = $1 WHERE id = $2 AND status = $3`,
			next, orderID, current)
	}
	if err != nil {
		return nil, fmt.Errorf("update order status: %w", err)
	}

	if err := appendTimeline(ctx, tx, orderID, action, actor, notes, now); err != nil {
		return nil, err
	}

	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("commit tx: %w", err)
	}

	order, err := c.Get(ctx, orderID)
	if err != nil {
		return nil, err
	}

	c.events.Publish(ctx, notify.Event{
		Type: eventType, Entity: "order", ID: orderID, Payload: order, At: now,
	})

	return order, nil
}

type PaymentConfirmation struct {
	GatewayOrderID string `json:"gateway_order_id"`
	PaymentID      string `json:"payment_id"`
	Signature      string `json:"signature"`
	Method         string `json:"method"`
}

// ConfirmPayment records the gateway confirmation on the order. It
// never changes the lifecycle status; a confirmation arriving for a
// rejected order is refused and leaves an audit entry behind so the
// cashier can issue a manual refund.
func (c *Controller) ConfirmPayment(ctx context.Context, orderID string, conf PaymentConfirmation) (*model.Order, error) {
	if conf.PaymentID == "" || conf.Signature == "" {
		return nil, apperr.Validation("payment", "payment id and signature are required")
	}
	if !c.verifier.VerifySignature(conf.GatewayOrderID, conf.PaymentID, conf.Signature) {
		return nil, apperr.Validation("signature", "payment signature verification failed")
	}

	method := conf.Method
	if method == "" {
		method = "razorpay"
	}
	now := time.Now()

	tx, err := c.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback()

	var status model.OrderStatus
	var phone string
	var total float64
	var paidAt sql.NullTime
	err = tx.QueryRowContext(ctx,
		`SELECT status, customer_phone, total, paid_at FROM orders WHERE id = $1 FOR UPDATE`,
		orderID).Scan(&status, &phone, &total, &paidAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, apperr.ErrNotFound
		}
		return nil, fmt.Errorf("lock order: %w", err)
	}

	if status == model.OrderRejected {
		_, auditErr := tx.ExecContext(ctx, `
			INSERT INTO audit_logs (actor, action, entity, entity_id, detail)
			VALUES ($1, $2, $3, $4, $5)
		`, "payment-gateway", "payment-rejected", "order", orderID,
			fmt.Sprintf("payment %s arrived for rejected order", conf.PaymentID))
		if auditErr != nil {
			return nil, fmt.Errorf("record late payment: %w", auditErr)
		}
		if err := tx.Commit(); err != nil {
			return nil, fmt.Errorf("commit tx: %w", err)
		}
		return nil, fmt.Errorf("%w: payment confirmation for rejected order", apperr.ErrInvalidTransition)
	}

	if paidAt.Valid {
		// Duplicate webhook; the first confirmation stands.
		if err := tx.Commit(); err != nil {
			return nil, fmt.Errorf("commit tx: %w", err)
		}
		return c.Get(ctx, orderID)
	}

	_, err = tx.ExecContext(ctx,
		`UPDATE orders SET payment_method = $1, payment_ref = $2, paid_at = $3 WHERE id = $4`,
		method, conf.PaymentID, now, orderID)
	if err != nil {
		return nil, fmt.Errorf("stamp payment: %w", err)
	}

	if err := appendTimeline(ctx, tx, orderID, "Payment Confirmed", "payment-gateway", method, now); err != nil {
		return nil, err
	}

	if phone != "" {
		if err := earnPoints(ctx, tx, phone, orderID, total, now); err != nil {
			return nil, err
		}
	}

	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("commit tx: %w", err)
	}

	order, err := c.Get(ctx, orderID)
	if err != nil {
		return nil, err
	}

	c.events.Publish(ctx, notify.Event{
		Type: notify.EventOrderPaid, Entity: "order", ID: orderID, Payload: order, At: now,
	})

	return order, nil
}

// earnPoints credits 1 loyalty point per 10 currency units spent,
// creating the customer record on first sight.
func earnPoints(ctx context.Context, tx *sql.Tx, phone, orderID string, total float64, now time.Time) error {
	points := int(total / 10)
	if points <= 0 {
		return nil
	}

	var customerID string
	err := tx.QueryRowContext(ctx, `
		INSERT INTO customers (phone) VALUES ($1)
		ON CONFLICT (phone) DO UPDATE SET phone = EXCLUDED.phone
		RETURNING id
	`, phone).Scan(&customerID)
	if err != nil {
		return fmt.Errorf("upsert customer: %w", err)
	}

	_, err = tx.ExecContext(ctx,
		`UPDATE customers SET loyalty_points = loyalty_points + $1 WHERE id = $2`,
		points, customerID)
	if err != nil {
		return fmt.Errorf("credit points: %w", err)
	}

	_, err = tx.ExecContext(ctx, `
		INSERT INTO loyalty_entries (customer_id, order_id, points, reason, created_at)
		VALUES ($1, $2, $3, $4, $5)
	`, customerID, orderID, points, "order payment", now)
	if err != nil {
		return fmt.Errorf("insert loyalty entry: %w", err)
	}

	return nil
}

func appendTimeline(ctx context.Context, tx *sql.Tx, orderID, action, actor, notes string, now time.Time) error {
	_, err := tx.ExecContext(ctx, `
		INSERT INTO order_timeline (order_id, seq, action, actor, notes, created_at)
		SELECT $1, COALESCE(MAX(seq), 0) + 1, $2, $3, $4, $5 FROM order_timeline WHERE order_id = $1
	`, orderID, action, actor, notes, now)
	if err != nil {
		return fmt.Errorf("append timeline entry: %w", err)
	}
	return nil
}

// Get loads an order with its items and full timeline.
func (c *Controller) Get(ctx context.Context, orderID string) (*model.Order, error) {
	row := c.db.QueryRowContext(ctx, `
		SELECT id, order_number, COALESCE(table_id::text, ''), customer_name, customer_phone,
		       total, status, payment_method, payment_ref, paid_at, created_at, approved_at, served_at
		FROM orders WHERE id = $1
	`, orderID)

	var o model.Order
	var paidAt, approvedAt, servedAt sql.NullTime
	err := row.Scan(&o.ID, &o.OrderNumber, &o.TableID, &o.CustomerName, &o.CustomerPhone,
		&o.Total, &o.Status, &o.PaymentMethod, &o.PaymentRef, &paidAt, &o.CreatedAt, &approvedAt, &servedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, apperr.ErrNotFound
		}
		return nil, fmt.Errorf("get order: %w", err)
	}
	if paidAt.Valid {
		o.PaidAt = &paidAt.Time
	}
	if approvedAt.Valid {
		o.ApprovedAt = &approvedAt.Time
	}
	if servedAt.Valid {
		o.ServedAt = &servedAt.Time
	}

	items, err := c.db.QueryContext(ctx, `
		SELECT id, order_id, COALESCE(product_id::text, ''), name, quantity, unit_price, notes
		FROM order_items WHERE order_id = $1
	`, orderID)
	if err != nil {
		return nil, fmt.Errorf("query items: %w", err)
	}
	defer items.Close()
	for items.Next() {
		var it model.OrderItem
		if err := items.Scan(&it.ID, &it.OrderID, &it.ProductID, &it.Name, &it.Quantity, &it.UnitPrice, &it.Notes); err != nil {
			return nil, fmt.Errorf("scan item: %w", err)
		}
		o.Items = append(o.Items, it)
	}
	if err := items.Err(); err != nil {
		return nil, fmt.Errorf("rows iteration failed: %w", err)
	}

	timeline, err := c.db.QueryContext(ctx, `
		SELECT order_id, seq, action, actor, notes, created_at
		FROM order_timeline WHERE order_id = $1 ORDER BY seq ASC
	`, orderID)
	if err != nil {
		return nil, fmt.Errorf("query timeline: %w", err)
	}
	defer timeline.Close()
	for timeline.Next() {
		var e model.TimelineEntry
		if err := timeline.Scan(&e.OrderID, &e.Seq, &e.Action, &e.Actor, &e.Notes, &e.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan timeline entry: %w", err)
		}
		o.Timeline = append(o.Timeline, e)
	}
	if err := timeline.Err(); err != nil {
		return nil, fmt.Errorf("rows iteration failed: %w", err)
	}

	return &o, nil
}

// List returns orders newest first, optionally filtered by status.
func (c *Controller) List(ctx context.Context, status string) ([]model.Order, error) {
	query := `
		SELECT id, order_number, COALESCE(table_id::text, ''), customer_name, customer_phone,
		       total, status, payment_method, payment_ref, paid_at, created_at, approved_at, served_at
		FROM orders
	`
	args := []interface{}{}
	if status != "" {
		query += ` WHERE status = $1`
		args = append(args, status)
	}
	query += ` ORDER BY created_at DESC`

	rows, err := c.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("query orders: %w", err)
	}
	defer rows.Close()

	var orders []model.Order
	for rows.Next() {
		var o model.Order
		var paidAt, approvedAt, servedAt sql.NullTime
		if err := rows.Scan(&o.ID, &o.OrderNumber, &o.TableID, &o.CustomerName, &o.CustomerPhone,
			&o.Total, &o.Status, &o.PaymentMethod, &o.PaymentRef, &paidAt, &o.CreatedAt, &approvedAt, &servedAt); err != nil {
			return nil, fmt.Errorf("scan order: %w", err)
		}
		if paidAt.Valid {
			o.PaidAt = &paidAt.Time
		}
		if approvedAt.Valid {
			o.ApprovedAt = &approvedAt.Time
		}
		if servedAt.Valid {
			o.ServedAt = &servedAt.Time
		}
		orders = append(orders, o)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("rows iteration failed: %w", err)
	}

	return orders, nil
}

func newOrderNumber(now time.Time) string {
	return fmt.Sprintf("ORD-%s-%s", now.Format("20060102"), strings.ToUpper(uuid.NewString()[:8]))
}

func actorOrCustomer(name string) string {
	if name == "" {
		return "customer"
	}
	return name
}
