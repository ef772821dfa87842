package notify

import (
	"fmt"
	"log/slog"
	"time"

	"github.com/rabbitmq/amqp091-go"
)

const (
	EventsExchange = "cafe.events"
	PrintQueue     = "print_jobs"
)

// Connection wraps the AMQP connection and declares the topology the
// server relies on: one fanout exchange for viewer notifications and
// one durable queue for kitchen ticket dispatch.
type Connection struct {
	conn    *amqp091.Connection
	channel *amqp091.Channel
	url     string
}

func Connect(url string) (*Connection, error) {
	c := &Connection{url: url}
	if err := c.connect(); err != nil {
		return nil, err
	}
	return c, nil
}

func (c *Connection) connect() error {
	const maxRetries = 5
	var err error

	for i := 0; i < maxRetries; i++ {
		c.conn, err = amqp091.Dial(c.url)
		if err == nil {
			c.channel, err = c.conn.Channel()
			if err == nil {
				if err = c.setupTopology(); err == nil {
					return nil
				}
				c.close()
			} else {
				c.conn.Close()
			}
		}

		if i < maxRetries-1 {
			wait := time.Duration(i+1) * 2 * time.Second
			slog.Error("rabbitmq connection failed, retrying", "wait", wait, "error", err)
			time.Sleep(wait)
		}
	}

	return fmt.Errorf("failed to connect to rabbitmq after %d attempts: %w", maxRetries, err)
}

func (c *Connection) setupTopology() error {
	err := c.channel.ExchangeDeclare(
		EventsExchange,
		"fanout",
		true,  // durable
		false, // auto-deleted
		false, // internal
		false, // no-wait
		nil,
	)
	if err != nil {
		return fmt.Errorf("failed to declare %s exchange: %w", EventsExchange, err)
	}

	_, err = c.channel.QueueDeclare(
		PrintQueue,
		true,  // durable
		false, // delete when unused
		false, // exclusive
		false, // no-wait
		nil,
	)
	if err != nil {
		return fmt.Errorf("failed to declare %s queue: %w", PrintQueue, err)
	}

	return nil
}

func (c *Connection) Channel() *amqp091.Channel {
	return c.channel
}

func (c *Connection) IsClosed() bool {
	return c.conn == nil || c.conn.IsClosed()
}

func (c *Connection) Reconnect() error {
	c.close()
	return c.connect()
}

func (c *Connection) Close() error {
	return c.close()
}

func (c *Connection) close() error {
	if c.channel != nil {
		c.channel.Close()
	}
	if c.conn != nil {
		return c.conn.Close()
	}
	return nil
}
