package worker

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"cafehub/internal/model"
	"cafehub/internal/notify"
	"cafehub/internal/printing"
)

// OrderLoader provides the order content a ticket is rendered from.
type OrderLoader interface {
	Get(ctx context.Context, orderID string) (*model.Order, error)
}

// EventSink receives print status events for the live feed.
type EventSink interface {
	Publish(ctx context.Context, ev notify.Event)
}

// Dispatcher consumes ticket dispatch messages from the print queue,
// pushes the rendered ticket to the kitchen printer and records the
// outcome. Retries are operator triggered; a failed job stays failed
// until someone re-enqueues it.
type Dispatcher struct {
	conn        *notify.Connection
	jobs        *printing.Jobs
	orders      OrderLoader
	events      EventSink
	printerAddr string
	client      *http.Client
}

func NewDispatcher(conn *notify.Connection, jobs *printing.Jobs, orders OrderLoader, events EventSink, printerAddr string) *Dispatcher {
	return &Dispatcher{
		conn:        conn,
		jobs:        jobs,
		orders:      orders,
		events:      events,
		printerAddr: printerAddr,
		client:      &http.Client{Timeout: 5 * time.Second},
	}
}

func (d *Dispatcher) Start(ctx context.Context) {
	slog.Info("starting print dispatcher", "printer", d.printerAddr)

	msgs, err := d.conn.Channel().Consume(
		notify.PrintQueue,
		"",    // consumer tag
		false, // auto-ack
		false, // exclusive
		false, // no-local
		false, // no-wait
		nil,
	)
	if err != nil {
		slog.Error("print queue consume failed", "error", err)
		return
	}

	for {
		select {
		case <-ctx.Done():
			slog.Info("print dispatcher stopped")
			return
		case m, ok := <-msgs:
			if !ok {
				slog.Error("print queue delivery channel closed")
				return
			}
			var msg notify.PrintMessage
			if err := json.Unmarshal(m.Body, &msg); err != nil {
				slog.Error("bad print message", "error", err)
				m.Ack(false)
				continue
			}
			d.dispatch(ctx, msg.OrderID)
			m.Ack(false)
		}
	}
}

// dispatch performs one delivery attempt. The job is marked printing
// while the ticket is in flight, then success or failed. Failures are
// recorded, never retried automatically.
func (d *Dispatcher) dispatch(ctx context.Context, orderID string) {
	order, err := d.orders.Get(ctx, orderID)
	if err != nil {
		slog.Error("order load for printing failed", "order_id", orderID, "error", err)
		return
	}

	if _, err := d.jobs.UpdateStatus(ctx, orderID, model.PrintPrinting, "sending ticket to printer"); err != nil {
		slog.Error("print job update failed", "order_id", orderID, "error", err)
		return
	}
	d.publishStatus(ctx, orderID)

	var job *model.PrintJob
	sendErr := d.sendTicket(ctx, order)
	if sendErr != nil {
		job, err = d.jobs.UpdateStatus(ctx, orderID, model.PrintFailed, sendErr.Error())
	} else {
		job, err = d.jobs.UpdateStatus(ctx, orderID, model.PrintSuccess, "ticket printed")
	}
	if err != nil {
		slog.Error("print job update failed", "order_id", orderID, "error", err)
		return
	}

	slog.Info("print attempt finished", "order_id", orderID, "status", job.Status, "attempts", job.Attempts)
	d.publishStatus(ctx, orderID)
}

type ticket struct {
	OrderNumber string            `json:"order_number"`
	TableID     string            `json:"table_id,omitempty"`
	Items       []model.OrderItem `json:"items"`
	Total       float64           `json:"total"`
	CreatedAt   time.Time         `json:"created_at"`
}

func (d *Dispatcher) sendTicket(ctx context.Context, order *model.Order) error {
	body, err := json.Marshal(ticket{
		OrderNumber: order.OrderNumber,
		TableID:     order.TableID,
		Items:       order.Items,
		Total:       order.Total,
		CreatedAt:   order.CreatedAt,
	})
	if err != nil {
		return fmt.Errorf("marshal ticket: %w", err)
	}

	url := fmt.Sprintf("%s/print", d.printerAddr)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := d.client.Do(req)
	if err != nil {
		return fmt.Errorf("printer unreachable: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("printer returned status %d", resp.StatusCode)
	}

	return nil
}

func (d *Dispatcher) publishStatus(ctx context.Context, orderID string) {
	job, err := d.jobs.Get(ctx, orderID)
	if err != nil {
		return
	}
	d.events.Publish(ctx, notify.Event{
		Type: notify.EventPrintStatus, Entity: "print_job", ID: orderID,
		Payload: job, At: time.Now(),
	})
}
