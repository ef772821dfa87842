package notify

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
)

// Consumer bridges the fanout exchange to the in-process hub. Each
// server instance binds its own exclusive queue so every instance sees
// every event.
type Consumer struct {
	conn *Connection
	hub  *Hub
}

func NewConsumer(conn *Connection, hub *Hub) *Consumer {
	return &Consumer{conn: conn, hub: hub}
}

func (c *Consumer) Run(ctx context.Context) error {
	ch := c.conn.Channel()

	q, err := ch.QueueDeclare(
		"",    // server-named
		false, // durable
		true,  // delete when unused
		true,  // exclusive
		false, // no-wait
		nil,
	)
	if err != nil {
		return fmt.Errorf("declare event queue: %w", err)
	}

	if err := ch.QueueBind(q.Name, "", EventsExchange, false, nil); err != nil {
		return fmt.Errorf("bind event queue: %w", err)
	}

	msgs, err := ch.Consume(q.Name, "", true, true, false, false, nil)
	if err != nil {
		return fmt.Errorf("consume events: %w", err)
	}

	slog.Info("event consumer started", "queue", q.Name)

	for {
		select {
		case <-ctx.Done():
			slog.Info("event consumer stopped")
			return nil
		case d, ok := <-msgs:
			if !ok {
				return fmt.Errorf("event delivery channel closed")
			}
			var ev Event
			if err := json.Unmarshal(d.Body, &ev); err != nil {
				slog.Error("bad event payload", "error", err)
				continue
			}
			c.hub.Broadcast(ev)
		}
	}
}
