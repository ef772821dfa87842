package lifecycle

import (
	"context"
	"database/sql"
	"errors"
	"regexp"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"

	"cafehub/internal/apperr"
	"cafehub/internal/model"
	"cafehub/internal/notify"
)

type stubSink struct {
	events []notify.Event
}

func (s *stubSink) Publish(ctx context.Context, ev notify.Event) {
	s.events = append(s.events, ev)
}

type stubQueue struct {
	enqueued []string
	err      error
}

func (s *stubQueue) EnqueuePrint(ctx context.Context, orderID string) error {
	if s.err != nil {
		return s.err
	}
	s.enqueued = append(s.enqueued, orderID)
	return nil
}

type stubVerifier struct {
	ok bool
}

func (s *stubVerifier) VerifySignature(gatewayOrderID, paymentID, signature string) bool {
	return s.ok
}

func newTestController(t *testing.T) (*Controller, sqlmock.Sqlmock, *stubSink, *stubQueue, *stubVerifier) {
	t.Helper()
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock: %v", err)
	}
	t.Cleanup(func() { db.Close() })

	sink := &stubSink{}
	queue := &stubQueue{}
	verifier := &stubVerifier{ok: true}
	return NewController(db, sink, queue, verifier), mock, sink, queue, verifier
}

func TestCreateOrder(t *testing.T) {
	ctrl, mock, sink, queue, _ := newTestController(t)

	mock.ExpectBegin()
	mock.ExpectExec(regexp.QuoteMeta(`INSERT INTO orders`)).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec(regexp.QuoteMeta(`INSERT INTO order_items`)).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec(regexp.QuoteMeta(`INSERT INTO order_items`)).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec(regexp.QuoteMeta(`INSERT INTO order_timeline`)).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec(regexp.QuoteMeta(`UPDATE cafe_tables`)).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectCommit()

	order, err := ctrl.Create(context.Background(), CreateRequest{
		TableID:       "11111111-1111-1111-1111-111111111111",
		CustomerName:  "Asha",
		CustomerPhone: "9876543210",
		Items: []CreateItem{
			{Name: "Filter Coffee", Quantity: 2, UnitPrice: 50},
			{Name: "Masala Dosa", Quantity: 1, UnitPrice: 150},
		},
	})
	assert.NoError(t, err)
	assert.Equal(t, model.OrderPending, order.Status)
	assert.InDelta(t, 250.0, order.Total, 0.001)
	assert.Len(t, order.Timeline, 1)
	assert.Equal(t, "Order Created", order.Timeline[0].Action)
	assert.Equal(t, []string{order.ID}, queue.enqueued, "a print job must be queued on creation")

	// order.created plus table.status for the occupied table.
	assert.Len(t, sink.events, 2)
	assert.Equal(t, notify.EventOrderCreated, sink.events[0].Type)
	assert.Equal(t, notify.EventTableStatus, sink.events[1].Type)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestCreateOrderValidation(t *testing.T) {
	ctrl, _, _, queue, _ := newTestController(t)

	tests := []struct {
		name string
		req  CreateRequest
	}{
		{"no items", CreateRequest{}},
		{"zero quantity", CreateRequest{Items: []CreateItem{{Name: "Tea", Quantity: 0, UnitPrice: 20}}}},
		{"negative price", CreateRequest{Items: []CreateItem{{Name: "Tea", Quantity: 1, UnitPrice: -1}}}},
		{"unnamed item", CreateRequest{Items: []CreateItem{{Quantity: 1, UnitPrice: 20}}}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := ctrl.Create(context.Background(), tt.req)
			assert.True(t, apperr.IsValidation(err), "want validation error, got %v", err)
		})
	}
	assert.Empty(t, queue.enqueued, "invalid orders must not queue tickets")
}

func expectGetOrder(mock sqlmock.Sqlmock, id string, status model.OrderStatus, timelineLen int) {
	cols := []string{"id", "order_number", "table_id", "customer_name", "customer_phone",
		"total", "status", "payment_method", "payment_ref", "paid_at", "created_at", "approved_at", "served_at"}
	var approvedAt interface{}
	if status == model.OrderApproved || status == model.OrderServed {
		now := time.Now()
		approvedAt = now
	}
	mock.ExpectQuery(regexp.QuoteMeta(`FROM orders WHERE id =`)).
		WithArgs(id).
		WillReturnRows(sqlmock.NewRows(cols).
			AddRow(id, "ORD-20250601-ABCD1234", "", "Asha", "9876543210",
				250.0, status, "", "", nil, time.Now(), approvedAt, nil))
	mock.ExpectQuery(regexp.QuoteMeta(`FROM order_items`)).
		WithArgs(id).
		WillReturnRows(sqlmock.NewRows([]string{"id", "order_id", "product_id", "name", "quantity", "unit_price", "notes"}).
			AddRow("i1", id, "", "Filter Coffee", 2, 50.0, ""))

	tl := sqlmock.NewRows([]string{"order_id", "seq", "action", "actor", "notes", "created_at"})
	actions := []string{"Order Created", "Order Approved", "Order Served"}
	for i := 0; i < timelineLen; i++ {
		tl.AddRow(id, i+1, actions[i%len(actions)], "Cashier A", "", time.Now())
	}
	mock.ExpectQuery(regexp.QuoteMeta(`FROM order_timeline`)).
		WithArgs(id).
		WillReturnRows(tl)
}

func TestApproveOrder(t *testing.T) {
	ctrl, mock, sink, _, _ := newTestController(t)
	const id = "22222222-2222-2222-2222-222222222222"

	mock.ExpectBegin()
	mock.ExpectQuery(regexp.QuoteMeta(`SELECT status FROM orders WHERE id = $1 FOR UPDATE`)).
		WithArgs(id).
		WillReturnRows(sqlmock.NewRows([]string{"status"}).AddRow("pending"))
	mock.ExpectExec(regexp.QuoteMeta(`UPDATE orders SET status = $1, approved_at = $2 WHERE id = $3 AND status = $4`)).
		WithArgs(model.OrderApproved, sqlmock.AnyArg(), id, model.OrderPending).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec(regexp.QuoteMeta(`INSERT INTO order_timeline`)).
		WithArgs(id, "Order Approved", "Cashier A", "", sqlmock.AnyArg()).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectCommit()
	expectGetOrder(mock, id, model.OrderApproved, 2)

	order, err := ctrl.Approve(context.Background(), id, "Cashier A", "")
	assert.NoError(t, err)
	assert.Equal(t, model.OrderApproved, order.Status)
	assert.NotNil(t, order.ApprovedAt)
	assert.Len(t, order.Timeline, 2)
	assert.Len(t, sink.events, 1)
	assert.Equal(t, notify.EventOrderApproved, sink.events[0].Type)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestServeBeforeApprovalRejected(t *testing.T) {
	ctrl, mock, sink, _, _ := newTestController(t)
	const id = "33333333-3333-3333-3333-333333333333"

	mock.ExpectBegin()
	mock.ExpectQuery(regexp.QuoteMeta(`SELECT status FROM orders WHERE id = $1 FOR UPDATE`)).
		WithArgs(id).
		WillReturnRows(sqlmock.NewRows([]string{"status"}).AddRow("pending"))
	mock.ExpectRollback()

	_, err := ctrl.MarkServed(context.Background(), id, "Cashier A")
	assert.True(t, errors.Is(err, apperr.ErrInvalidTransition), "pending -> served must be refused, got %v", err)
	assert.Empty(t, sink.events, "refused transitions publish nothing")
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestServeTwiceIsInvalid(t *testing.T) {
	ctrl, mock, _, _, _ := newTestController(t)
	const id = "44444444-4444-4444-4444-444444444444"

	mock.ExpectBegin()
	mock.ExpectQuery(regexp.QuoteMeta(`SELECT status FROM orders WHERE id = $1 FOR UPDATE`)).
		WithArgs(id).
		WillReturnRows(sqlmock.NewRows([]string{"status"}).AddRow("served"))
	mock.ExpectRollback()

	_, err := ctrl.MarkServed(context.Background(), id, "Cashier A")
	assert.True(t, errors.Is(err, apperr.ErrInvalidTransition))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestApproveAfterRejectionFails(t *testing.T) {
	ctrl, mock, _, _, _ := newTestController(t)
	const id = "55555555-5555-5555-5555-555555555555"

	mock.ExpectBegin()
	mock.ExpectQuery(regexp.QuoteMeta(`SELECT status FROM orders WHERE id = $1 FOR UPDATE`)).
		WithArgs(id).
		WillReturnRows(sqlmock.NewRows([]string{"status"}).AddRow("rejected"))
	mock.ExpectRollback()

	_, err := ctrl.Approve(context.Background(), id, "Cashier A", "")
	assert.True(t, errors.Is(err, apperr.ErrInvalidTransition))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestRejectRequiresReason(t *testing.T) {
	ctrl, _, _, _, _ := newTestController(t)

	_, err := ctrl.Reject(context.Background(), "any", "Cashier A", "   ")
	assert.True(t, apperr.IsValidation(err))
}

func TestRejectRecordsReason(t *testing.T) {
	ctrl, mock, _, _, _ := newTestController(t)
	const id = "66666666-6666-6666-6666-666666666666"

	mock.ExpectBegin()
	mock.ExpectQuery(regexp.QuoteMeta(`SELECT status FROM orders WHERE id = $1 FOR UPDATE`)).
		WithArgs(id).
		WillReturnRows(sqlmock.NewRows([]string{"status"}).AddRow("pending"))
	mock.ExpectExec(regexp.QuoteMeta(`UPDATE orders SET status = $1 WHERE id = $2 AND status = $3`)).
		WithArgs(model.OrderRejected, id, model.OrderPending).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec(regexp.QuoteMeta(`INSERT INTO order_timeline`)).
		WithArgs(id, "Order Rejected", "Cashier A", "Out of stock", sqlmock.AnyArg()).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectCommit()
	expectGetOrder(mock, id, model.OrderRejected, 2)

	order, err := ctrl.Reject(context.Background(), id, "Cashier A", "Out of stock")
	assert.NoError(t, err)
	assert.Equal(t, model.OrderRejected, order.Status)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestTransitionUnknownOrder(t *testing.T) {
	ctrl, mock, _, _, _ := newTestController(t)

	mock.ExpectBegin()
	mock.ExpectQuery(regexp.QuoteMeta(`SELECT status FROM orders WHERE id = $1 FOR UPDATE`)).
		WithArgs("missing").
		WillReturnError(sql.ErrNoRows)
	mock.ExpectRollback()

	_, err := ctrl.Approve(context.Background(), "missing", "Cashier A", "")
	assert.True(t, errors.Is(err, apperr.ErrNotFound))
}

func TestConfirmPaymentBadSignature(t *testing.T) {
	ctrl, _, _, _, verifier := newTestController(t)
	verifier.ok = false

	_, err := ctrl.ConfirmPayment(context.Background(), "o1", PaymentConfirmation{
		GatewayOrderID: "order_gw1", PaymentID: "pay_1", Signature: "bad",
	})
	assert.True(t, apperr.IsValidation(err))
}

func TestConfirmPaymentForRejectedOrder(t *testing.T) {
	ctrl, mock, sink, _, _ := newTestController(t)
	const id = "77777777-7777-7777-7777-777777777777"

	mock.ExpectBegin()
	mock.ExpectQuery(regexp.QuoteMeta(`SELECT status, customer_phone, total, paid_at FROM orders`)).
		WithArgs(id).
		WillReturnRows(sqlmock.NewRows([]string{"status", "customer_phone", "total", "paid_at"}).
			AddRow("rejected", "9876543210", 250.0, nil))
	mock.ExpectExec(regexp.QuoteMeta(`INSERT INTO audit_logs`)).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectCommit()

	_, err := ctrl.ConfirmPayment(context.Background(), id, PaymentConfirmation{
		GatewayOrderID: "order_gw1", PaymentID: "pay_1", Signature: "sig",
	})
	assert.True(t, errors.Is(err, apperr.ErrInvalidTransition))
	assert.Empty(t, sink.events, "late payment publishes no event")
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestConfirmPaymentStampsAndEarnsPoints(t *testing.T) {
	ctrl, mock, sink, _, _ := newTestController(t)
	const id = "88888888-8888-8888-8888-888888888888"

	mock.ExpectBegin()
	mock.ExpectQuery(regexp.QuoteMeta(`SELECT status, customer_phone, total, paid_at FROM orders`)).
		WithArgs(id).
		WillReturnRows(sqlmock.NewRows([]string{"status", "customer_phone", "total", "paid_at"}).
			AddRow("pending", "9876543210", 250.0, nil))
	mock.ExpectExec(regexp.QuoteMeta(`UPDATE orders SET payment_method`)).
		WithArgs("upi", "pay_1", sqlmock.AnyArg(), id).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec(regexp.QuoteMeta(`INSERT INTO order_timeline`)).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectQuery(regexp.QuoteMeta(`INSERT INTO customers`)).
		WithArgs("9876543210").
		WillReturnRows(sqlmock.NewRows([]string{"id"}).AddRow("cust1"))
	mock.ExpectExec(regexp.QuoteMeta(`UPDATE customers SET loyalty_points`)).
		WithArgs(25, "cust1").
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec(regexp.QuoteMeta(`INSERT INTO loyalty_entries`)).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectCommit()
	expectGetOrder(mock, id, model.OrderPending, 2)

	order, err := ctrl.ConfirmPayment(context.Background(), id, PaymentConfirmation{
		GatewayOrderID: "order_gw1", PaymentID: "pay_1", Signature: "sig", Method: "upi",
	})
	assert.NoError(t, err)
	assert.Equal(t, model.OrderPending, order.Status, "payment must not change lifecycle status")
	assert.Len(t, sink.events, 1)
	assert.Equal(t, notify.EventOrderPaid, sink.events[0].Type)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestConfirmPaymentDuplicateIsNoop(t *testing.T) {
	ctrl, mock, sink, _, _ := newTestController(t)
	const id = "99999999-9999-9999-9999-999999999999"

	mock.ExpectBegin()
	mock.ExpectQuery(regexp.QuoteMeta(`SELECT status, customer_phone, total, paid_at FROM orders`)).
		WithArgs(id).
		WillReturnRows(sqlmock.NewRows([]string{"status", "customer_phone", "total", "paid_at"}).
			AddRow("approved", "9876543210", 250.0, time.Now()))
	mock.ExpectCommit()
	expectGetOrder(mock, id, model.OrderApproved, 3)

	_, err := ctrl.ConfirmPayment(context.Background(), id, PaymentConfirmation{
		GatewayOrderID: "order_gw1", PaymentID: "pay_1", Signature: "sig",
	})
	assert.NoError(t, err)
	assert.Empty(t, sink.events, "duplicate confirmation publishes nothing")
	assert.NoError(t, mock.ExpectationsWereMet())
}
