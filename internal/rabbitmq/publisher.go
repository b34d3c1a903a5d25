package rabbitmq

import (
	"context"
	"encoding/json"

	amqp "github.com/rabbitmq/amqp091-go"
	"github.com/sirupsen/logrus"

	"friend-chat-service/internal/logger"
	"friend-chat-service/internal/observability"
	"friend-chat-service/internal/telemetry"
)

// Publisher publishes domain and audit events to a topic exchange.
type Publisher interface {
	Publish(ctx context.Context, routingKey string, event any) error
	Close() error
}

// NewPublisher builds a RabbitMQ publisher, or a noop publisher when AMQP is
// disabled or unreachable.
func NewPublisher(amqpURL, exchange string) Publisher {
	if amqpURL == "" {
		return newNoop("empty amqp url")
	}

	conn, err := amqp.Dial(amqpURL)
	if err != nil {
		return newNoop(err.Error())
	}

	ch, err := conn.Channel()
	if err != nil {
		_ = conn.Close()
		return newNoop(err.Error())
	}

	if err := ch.ExchangeDeclare(
		exchange,
		"topic",
		true,
		false,
		false,
		false,
		nil,
	); err != nil {
		_ = ch.Close()
		_ = conn.Close()
		return newNoop(err.Error())
	}

	logger.Log.WithField("exchange", exchange).Info("rabbitmq connected")
	return &amqpPublisher{conn: conn, ch: ch, exchange: exchange}
}

func newNoop(reason string) noopPublisher {
	logger.Log.WithField("reason", reason).Warn("rabbitmq disabled, using noop")
	return noopPublisher{reason: reason}
}

type amqpPublisher struct {
	conn     *amqp.Connection
	ch       *amqp.Channel
	exchange string
}

func (p *amqpPublisher) Publish(ctx context.Context, routingKey string, event any) error {
	body, err := json.Marshal(event)
	if err != nil {
		return err
	}

	err = p.ch.PublishWithContext(ctx, p.exchange, routingKey, false, false, amqp.Publishing{
		ContentType:  "application/json",
		DeliveryMode: amqp.Persistent,
		Body:         body,
	})
	if err != nil {
		logger.Log.WithError(err).WithField("routing_key", routingKey).Error("rabbitmq publish failed")
	}
	return err
}

func (p *amqpPublisher) Close() error {
	if p.ch != nil {
		_ = p.ch.Close()
	}
	if p.conn != nil {
		return p.conn.Close()
	}
	return nil
}

type noopPublisher struct {
	reason string
}

func (noopPublisher) Publish(ctx context.Context, routingKey string, event any) error {
	fields := logrus.Fields{"routing_key": routingKey}
	switch envelope := event.(type) {
	case observability.EventEnvelope:
		fields["event_type"] = envelope.EventType
		fields["event_name"] = envelope.EventName
		fields["request_id"] = envelope.RequestID
	case telemetry.AuditEnvelope:
		fields["event_type"] = envelope.EventType
		fields["service"] = envelope.Service
		fields["request_id"] = envelope.RequestID
	}
	logger.Log.WithFields(fields).Debug("rabbitmq noop publish")
	return nil
}

func (noopPublisher) Close() error {
	return nil
}

// PublisherMode reports the publisher mode for logging.
func PublisherMode(p Publisher) string {
	switch p.(type) {
	case *amqpPublisher:
		return "amqp"
	case noopPublisher:
		return "noop"
	default:
		return "unknown"
	}
}

// PublisherNoopReason explains why a noop publisher was chosen.
func PublisherNoopReason(p Publisher) string {
	if publisher, ok := p.(noopPublisher); ok {
		return publisher.reason
	}
	return ""
}
