package rabbitmq

import (
	"context"
	"encoding/json"
	"log/slog"

	"github.com/streadway/amqp"

	"session-service/src/events"
)

// Publisher defines the interface for publishing messages to RabbitMQ.
type Publisher interface {
	Publish(body []byte) error
}

// AMQPPublisher publishes to a durable fanout exchange.
type AMQPPublisher struct {
	conn     *amqp.Connection
	channel  *amqp.Channel
	exchange string
}

// NewAMQPPublisher connects to RabbitMQ and declares the fanout exchange.
func NewAMQPPublisher(amqpURL, exchange string) (*AMQPPublisher, error) {
	conn, err := amqp.Dial(amqpURL)
	if err != nil {
		return nil, err
	}
	ch, err := conn.Channel()
	if err != nil {
		conn.Close()
		return nil, err
	}
	if err := ch.ExchangeDeclare(
		exchange,
		"fanout",
		true,
		false,
		false,
		false,
		nil,
	); err != nil {
		ch.Close()
		conn.Close()
		return nil, err
	}
	return &AMQPPublisher{conn: conn, channel: ch, exchange: exchange}, nil
}

// Publish publishes a message to the exchange.
func (p *AMQPPublisher) Publish(body []byte) error {
	return p.channel.Publish(
		p.exchange,
		"",
		false,
		false,
		amqp.Publishing{
			ContentType: "application/json",
			Body:        body,
		},
	)
}

// Close closes the RabbitMQ connection and channel.
func (p *AMQPPublisher) Close() {
	if p.channel != nil {
		p.channel.Close()
	}
	if p.conn != nil {
		p.conn.Close()
	}
}

// Emitter adapts a Publisher to the lifecycle event contract.
type Emitter struct {
	pub Publisher
}

// NewEmitter wraps a publisher as an events.Emitter.
func NewEmitter(pub Publisher) *Emitter {
	return &Emitter{pub: pub}
}

// Emit publishes the event as JSON. Failures are logged and swallowed: the
// transition that produced the event has already committed.
func (e *Emitter) Emit(ctx context.Context, ev events.Event) {
	body, err := json.Marshal(ev)
	if err != nil {
		slog.Error("Failed to encode lifecycle event", "type", ev.Type, "error", err)
		return
	}
	if err := e.pub.Publish(body); err != nil {
		slog.Error("Failed to publish lifecycle event",
			"type", ev.Type,
			"request_id", ev.RequestID,
			"session_id", ev.SessionID,
			"error", err)
	}
}
