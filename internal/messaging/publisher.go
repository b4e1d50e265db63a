package messaging

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	amqp "github.com/rabbitmq/amqp091-go"
	"github.com/sirupsen/logrus"
)

// TransactionReversedEvent is published after a reversal commits so
// downstream consumers (notifications, analytics) can react.
type TransactionReversedEvent struct {
	TransactionID         string    `json:"transaction_id"`
	ReversalTransactionID string    `json:"reversal_transaction_id"`
	UserID                string    `json:"user_id"`
	Amount                string    `json:"amount"`
	Reason                string    `json:"reason"`
	ReversedBy            string    `json:"reversed_by"`
	ActionsTaken          []string  `json:"actions_taken"`
	Partial               bool      `json:"partial"`
	OccurredAt            time.Time `json:"occurred_at"`
}

// EventPublisher publishes ledger events.
type EventPublisher interface {
	PublishTransactionReversed(ctx context.Context, event *TransactionReversedEvent) error
	Close() error
}

type rabbitPublisher struct {
	conn     *amqp.Connection
	channel  *amqp.Channel
	exchange string
	logger   *logrus.Logger
}

// NewRabbitPublisher connects to RabbitMQ and declares the topic exchange
// events are published to.
func NewRabbitPublisher(url, exchange string, logger *logrus.Logger) (EventPublisher, error) {
	conn, err := amqp.Dial(url)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to rabbitmq: %w", err)
	}

	channel, err := conn.Channel()
	if err != nil {
		conn.Close()
		return nil, fmt.Errorf("failed to open rabbitmq channel: %w", err)
	}

	err = channel.ExchangeDeclare(exchange, "topic", true, false, false, false, nil)
	if err != nil {
		channel.Close()
		conn.Close()
		return nil, fmt.Errorf("failed to declare exchange %s: %w", exchange, err)
	}

	return &rabbitPublisher{
		conn:     conn,
		channel:  channel,
		exchange: exchange,
		logger:   logger,
	}, nil
}

func (p *rabbitPublisher) PublishTransactionReversed(ctx context.Context, event *TransactionReversedEvent) error {
	body, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("failed to encode event: %w", err)
	}

	err = p.channel.PublishWithContext(ctx, p.exchange, "transaction.reversed", false, false, amqp.Publishing{
		ContentType:  "application/json",
		DeliveryMode: amqp.Persistent,
		Timestamp:    time.Now().UTC(),
		Body:         body,
	})
	if err != nil {
		return fmt.Errorf("failed to publish transaction.reversed: %w", err)
	}

	p.logger.WithFields(logrus.Fields{
		"transaction_id":          event.TransactionID,
		"reversal_transaction_id": event.ReversalTransactionID,
	}).Debug("Published transaction.reversed event")
	return nil
}

func (p *rabbitPublisher) Close() error {
	if err := p.channel.Close(); err != nil {
		p.conn.Close()
		return err
	}
	return p.conn.Close()
}

// noopPublisher is used when messaging is disabled.
type noopPublisher struct{}

func NewNoopPublisher() EventPublisher {
	return noopPublisher{}
}

func (noopPublisher) PublishTransactionReversed(context.Context, *TransactionReversedEvent) error {
	return nil
}

func (noopPublisher) Close() error { return nil }
