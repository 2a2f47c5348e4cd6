package amqp

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"fintrack/internal/core"

	"github.com/rabbitmq/amqp091-go"
)

const publishTimeout = 5 * time.Second

type Client struct {
	conn         *amqp091.Connection
	channel      *amqp091.Channel
	exchangeName string
	queueName    string
}

func NewClient(url, exchangeName, queueName string) (*Client, error) {
	conn, err := amqp091.Dial(url)
	if err != nil {
		return nil, fmt.Errorf("dial AMQP: %w", err)
	}

	channel, err := conn.Channel()
	if err != nil {
		conn.Close()
		return nil, fmt.Errorf("open channel: %w", err)
	}

	client := &Client{
		conn:         conn,
		channel:      channel,
		exchangeName: exchangeName,
		queueName:    queueName,
	}

	if err := client.setup(); err != nil {
		client.Close()
		return nil, fmt.Errorf("setup exchange and queue: %w", err)
	}

	return client, nil
}

func (c *Client) setup() error {
	err := c.channel.ExchangeDeclare(
		c.exchangeName, // name
		"direct",       // type
		true,           // durable
		false,          // auto-deleted
		false,          // internal
		false,          // no-wait
		nil,            // arguments
	)
	if err != nil {
		return fmt.Errorf("declare exchange: %w", err)
	}

	_, err = c.channel.QueueDeclare(
		c.queueName, // name
		true,        // durable
		false,       // delete when unused
		false,       // exclusive
		false,       // no-wait
		nil,         // arguments
	)
	if err != nil {
		return fmt.Errorf("declare queue: %w", err)
	}

	// Routing key is the queue name on the direct exchange.
	err = c.channel.QueueBind(c.queueName, c.queueName, c.exchangeName, false, nil)
	if err != nil {
		return fmt.Errorf("bind queue: %w", err)
	}

	return nil
}

// PublishEntryRecorded publishes a persistent entry-recorded event and
// returns its ID.
func (c *Client) PublishEntryRecorded(ctx context.Context, e core.Entry) (string, error) {
	msg := NewEntryRecordedMessage(e)
	body, err := msg.ToJSON()
	if err != nil {
		return "", fmt.Errorf("marshal message: %w", err)
	}

	ctx, cancel := context.WithTimeout(ctx, publishTimeout)
	defer cancel()

	err = c.channel.PublishWithContext(
		ctx,
		c.exchangeName, // exchange
		c.queueName,    // routing key
		false,          // mandatory
		false,          // immediate
		amqp091.Publishing{
			ContentType:  "application/json",
			DeliveryMode: amqp091.Persistent,
			MessageId:    msg.ID,
			Timestamp:    msg.Timestamp,
			Body:         body,
		},
	)
	if err != nil {
		return "", fmt.Errorf("publish message: %w", err)
	}

	slog.InfoContext(ctx, "Published entry recorded message",
		"event_id", msg.ID,
		"kind", msg.Kind,
		"date", msg.Date,
		"exchange", c.exchangeName,
		"queue", c.queueName)

	return msg.ID, nil
}

// Handler processes one decoded message. A returned error requeues it.
type Handler func(ctx context.Context, msg *EntryRecordedMessage) error

// ErrUnprocessable marks a handler failure that must not be retried.
var ErrUnprocessable = errors.New("unprocessable message")

type ackAction int

const (
	actionAck ackAction = iota
	actionDrop
	actionRequeue
)

// decide decodes body, runs handler, and picks what to tell the broker.
func decide(ctx context.Context, body []byte, handler Handler) ackAction {
	msg, err := EntryRecordedMessageFromJSON(body)
	if err != nil {
		slog.ErrorContext(ctx, "Failed to unmarshal message", "error", err)
		return actionDrop
	}

	if err := handler(ctx, msg); err != nil {
		if errors.Is(err, ErrUnprocessable) {
			slog.ErrorContext(ctx, "Dropping unprocessable message", "event_id", msg.ID, "error", err)
			return actionDrop
		}
		slog.ErrorContext(ctx, "Failed to handle message", "event_id", msg.ID, "error", err)
		return actionRequeue
	}
	return actionAck
}

// ConsumeEntryRecorded blocks delivering messages to handler until ctx is
// cancelled or the channel closes.
func (c *Client) ConsumeEntryRecorded(ctx context.Context, handler Handler) error {
	msgs, err := c.channel.Consume(
		c.queueName, // queue
		"",          // consumer
		false,       // auto-ack (we want manual ack)
		false,       // exclusive
		false,       // no-local
		false,       // no-wait
		nil,         // args
	)
	if err != nil {
		return fmt.Errorf("start consuming: %w", err)
	}

	slog.InfoContext(ctx, "Started consuming entry recorded messages", "queue", c.queueName)

	for {
		select {
		case <-ctx.Done():
			slog.InfoContext(ctx, "Stopping message consumption", "reason", ctx.Err())
			return ctx.Err()
		case delivery, ok := <-msgs:
			if !ok {
				return fmt.Errorf("message channel closed")
			}

			switch decide(ctx, delivery.Body, handler) {
			case actionAck:
				delivery.Ack(false)
			case actionDrop:
				delivery.Nack(false, false)
			case actionRequeue:
				delivery.Nack(false, true)
			}
		}
	}
}

func (c *Client) Close() error {
	if c.channel != nil {
		c.channel.Close()
	}
	if c.conn != nil {
		return c.conn.Close()
	}
	return nil
}
