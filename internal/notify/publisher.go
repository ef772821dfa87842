package notify

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"github.com/rabbitmq/amqp091-go"
)

// Publisher pushes events onto the fanout exchange and ticket dispatch
// messages onto the print queue.
type Publisher struct {
	conn *Connection
}

func NewPublisher(conn *Connection) *Publisher {
	return &Publisher{conn: conn}
}

// Publish fans an event out to all connected viewers. It is fire and
// forget: failures are logged and never propagated to the caller, so
// the request path is not blocked on the broker.
func (p *Publisher) Publish(ctx context.Context, ev Event) {
	if err := p.publish(ctx, EventsExchange, "", ev, false); err != nil {
		slog.Error("event publish failed", "type", ev.Type, "id", ev.ID, "error", err)
	}
}

// EnqueuePrint places a ticket dispatch message on the print queue. The
// message is persistent so a broker restart does not lose pending tickets.
func (p *Publisher) EnqueuePrint(ctx context.Context, orderID string) error {
	msg := PrintMessage{OrderID: orderID, QueuedAt: time.Now()}
	if err := p.publish(ctx, "", PrintQueue, msg, true); err != nil {
		return fmt.Errorf("enqueue print job: %w", err)
	}
	return nil
}

// PrintMessage is the dispatch request consumed by the print worker.
type PrintMessage struct {
	OrderID  string    `json:"order_id"`
	QueuedAt time.Time `json:"queued_at"`
}

func (p *Publisher) publish(ctx context.Context, exchange, routingKey string, message interface{}, persistent bool) error {
	if p.conn.IsClosed() {
		if err := p.conn.Reconnect(); err != nil {
			return fmt.Errorf("failed to reconnect: %w", err)
		}
	}

	body, err := json.Marshal(message)
	if err != nil {
		return fmt.Errorf("failed to marshal message: %w", err)
	}

	deliveryMode := uint8(1)
	if persistent {
		deliveryMode = 2
	}

	ctx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()

	err = p.conn.Channel().PublishWithContext(
		ctx,
		exchange,
		routingKey,
		false, // mandatory
		false, // immediate
		amqp091.Publishing{
			ContentType:  "application/json",
			Body:         body,
			DeliveryMode: deliveryMode,
			Timestamp:    time.Now(),
		},
	)
	if err != nil {
		return fmt.Errorf("failed to publish message: %w", err)
	}

	return nil
}
