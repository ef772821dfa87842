package worker

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"regexp"
	"sync"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"

	"cafehub/internal/model"
	"cafehub/internal/notify"
	"cafehub/internal/printing"
)

type stubLoader struct {
	order *model.Order
}

func (s *stubLoader) Get(ctx context.Context, orderID string) (*model.Order, error) {
	return s.order, nil
}

type recordingSink struct {
	mu     sync.Mutex
	events []notify.Event
}

func (s *recordingSink) Publish(ctx context.Context, ev notify.Event) {
	s.mu.Lock()
	s.events = append(s.events, ev)
	s.mu.Unlock()
}

func jobRows(status model.PrintStatus, attempts int) *sqlmock.Rows {
	return sqlmock.NewRows([]string{"order_id", "status", "attempts", "last_attempt", "last_success", "message"}).
		AddRow("o1", status, attempts, nil, nil, "waiting for dispatch")
}

func expectUpdateStatus(mock sqlmock.Sqlmock, current model.PrintStatus, attempts int) {
	mock.ExpectBegin()
	mock.ExpectQuery(regexp.QuoteMeta(`FROM print_jobs WHERE order_id = $1 FOR UPDATE`)).
		WithArgs("o1").
		WillReturnRows(jobRows(current, attempts))
	mock.ExpectExec(regexp.QuoteMeta(`UPDATE print_jobs`)).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectCommit()
}

func expectGetJob(mock sqlmock.Sqlmock, current model.PrintStatus, attempts int) {
	mock.ExpectQuery(regexp.QuoteMeta(`FROM print_jobs WHERE order_id = $1`)).
		WithArgs("o1").
		WillReturnRows(jobRows(current, attempts))
}

func newTestDispatcher(t *testing.T, printerURL string) (*Dispatcher, sqlmock.Sqlmock, *recordingSink) {
	t.Helper()
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock: %v", err)
	}
	t.Cleanup(func() { db.Close() })

	loader := &stubLoader{order: &model.Order{
		ID:          "o1",
		OrderNumber: "ORD-20250601-ABCD1234",
		Total:       150,
		CreatedAt:   time.Now(),
		Items:       []model.OrderItem{{Name: "Masala Chai", Quantity: 3, UnitPrice: 50}},
	}}
	sink := &recordingSink{}
	return NewDispatcher(nil, printing.NewJobs(db), loader, sink, printerURL), mock, sink
}

func TestDispatchSuccess(t *testing.T) {
	var got struct {
		OrderNumber string            `json:"order_number"`
		Items       []model.OrderItem `json:"items"`
	}
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/print", r.URL.Path)
		assert.NoError(t, json.NewDecoder(r.Body).Decode(&got))
		w.WriteHeader(http.StatusOK)
	}))
	defer srv.Close()

	d, mock, sink := newTestDispatcher(t, srv.URL)

	expectUpdateStatus(mock, model.PrintQueued, 0)
	expectGetJob(mock, model.PrintPrinting, 1)
	expectUpdateStatus(mock, model.PrintPrinting, 1)
	expectGetJob(mock, model.PrintSuccess, 1)

	d.dispatch(context.Background(), "o1")

	assert.Equal(t, "ORD-20250601-ABCD1234", got.OrderNumber)
	assert.Len(t, got.Items, 1)
	assert.Len(t, sink.events, 2)
	for _, ev := range sink.events {
		assert.Equal(t, notify.EventPrintStatus, ev.Type)
	}
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestDispatchPrinterFailure(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusServiceUnavailable)
	}))
	defer srv.Close()

	d, mock, sink := newTestDispatcher(t, srv.URL)

	expectUpdateStatus(mock, model.PrintQueued, 0)
	expectGetJob(mock, model.PrintPrinting, 1)
	expectUpdateStatus(mock, model.PrintPrinting, 1)
	expectGetJob(mock, model.PrintFailed, 2)

	d.dispatch(context.Background(), "o1")

	assert.Len(t, sink.events, 2)
	assert.NoError(t, mock.ExpectationsWereMet())
}
