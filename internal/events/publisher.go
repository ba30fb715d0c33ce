package events

import (
	"context"
	"fmt"
	"time"

	"github.com/rabbitmq/amqp091-go"

	"finledger/internal/logger"
	"finledger/internal/services"
)

const publishTimeout = 5 * time.Second

// channel is the subset of *amqp091.Channel the publisher needs.
type channel interface {
	PublishWithContext(ctx context.Context, exchange, key string, mandatory, immediate bool, msg amqp091.Publishing) error
}

// Publisher sends a DriftEvent for every ledger report with failed steps.
// It implements services.EffectObserver.
type Publisher struct {
	conn         *amqp091.Connection
	channel      channel
	closeChannel func() error
	exchangeName string
	queueName    string
	now          func() time.Time
}

var _ services.EffectObserver = (*Publisher)(nil)

// NewPublisher dials url and declares a durable direct exchange with a queue
// bound to it under the queue's own name.
func NewPublisher(url, exchangeName, queueName string) (*Publisher, error) {
	conn, err := amqp091.Dial(url)
	if err != nil {
		return nil, fmt.Errorf("dial AMQP: %w", err)
	}

	ch, err := conn.Channel()
	if err != nil {
		conn.Close()
		return nil, fmt.Errorf("open channel: %w", err)
	}

	if err := declare(ch, exchangeName, queueName); err != nil {
		ch.Close()
		conn.Close()
		return nil, fmt.Errorf("setup exchange and queue: %w", err)
	}

	return &Publisher{
		conn:         conn,
		channel:      ch,
		closeChannel: ch.Close,
		exchangeName: exchangeName,
		queueName:    queueName,
		now:          time.Now,
	}, nil
}

func declare(ch *amqp091.Channel, exchangeName, queueName string) error {
	if err := ch.ExchangeDeclare(exchangeName, "direct", true, false, false, false, nil); err != nil {
		return fmt.Errorf("declare exchange: %w", err)
	}
	if _, err := ch.QueueDeclare(queueName, true, false, false, false, nil); err != nil {
		return fmt.Errorf("declare queue: %w", err)
	}
	if err := ch.QueueBind(queueName, queueName, exchangeName, false, nil); err != nil {
		return fmt.Errorf("bind queue: %w", err)
	}
	return nil
}

// Observe publishes a drift event if report carries failures. Publishing
// errors are logged; they never reach the ledger caller.
func (p *Publisher) Observe(ctx context.Context, report services.EffectReport) {
	event := NewDriftEvent(report, p.now())
	if event == nil {
		return
	}
	if err := p.Publish(ctx, event); err != nil {
		logger.Named("events").Errorw("Failed to publish drift event",
			"operation", event.Operation,
			"transaction_id", event.TransactionID,
			"error", err,
		)
	}
}

// Publish sends one persistent JSON message.
func (p *Publisher) Publish(ctx context.Context, event *DriftEvent) error {
	body, err := event.ToJSON()
	if err != nil {
		return fmt.Errorf("marshal message: %w", err)
	}

	// The request context may already be done; the event must still go out.
	ctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), publishTimeout)
	defer cancel()

	err = p.channel.PublishWithContext(ctx, p.exchangeName, p.queueName, false, false, amqp091.Publishing{
		ContentType:  "application/json",
		DeliveryMode: amqp091.Persistent,
		Timestamp:    event.OccurredAt,
		Body:         body,
	})
	if err != nil {
		return fmt.Errorf("publish message: %w", err)
	}

	logger.Named("events").Infow("Published drift event",
		"operation", event.Operation,
		"transaction_id", event.TransactionID,
		"failures", len(event.Failures),
		"exchange", p.exchangeName,
	)
	return nil
}

// Close closes the channel and the connection.
func (p *Publisher) Close() error {
	if p.closeChannel != nil {
		p.closeChannel()
	}
	if p.conn != nil {
		return p.conn.Close()
	}
	return nil
}
