package events

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	amqp "github.com/rabbitmq/amqp091-go"

	"github.com/andreasstove999/ecommerce-system/checkout-service-go/internal/order"
)

const (
	EventsExchange         = "ecommerce.events"
	OrderCreatedRoutingKey = "order.created.v1"
	OrderPaidRoutingKey    = "order.paid.v1"

	publishTimeout = 3 * time.Second
)

// Channel is the subset of *amqp.Channel the publisher uses.
type Channel interface {
	ExchangeDeclare(name, kind string, durable, autoDelete, internal, noWait bool, args amqp.Table) error
	PublishWithContext(ctx context.Context, exchange, key string, mandatory, immediate bool, msg amqp.Publishing) error
	Close() error
}

type Sequencer interface {
	NextSequence(ctx context.Context, partitionKey string) (int64, error)
}

// Publisher emits order lifecycle events to the topic exchange.
type Publisher struct {
	ch  Channel
	seq Sequencer
}

func DialPublisher(url string, seq Sequencer) (*Publisher, *amqp.Connection, error) {
	conn, err := amqp.Dial(url)
	if err != nil {
		return nil, nil, fmt.Errorf("connect to rabbitmq: %w", err)
	}
	ch, err := conn.Channel()
	if err != nil {
		_ = conn.Close()
		return nil, nil, fmt.Errorf("open channel: %w", err)
	}
	p, err := NewPublisher(ch, seq)
	if err != nil {
		_ = conn.Close()
		return nil, nil, err
	}
	return p, conn, nil
}

func NewPublisher(ch Channel, seq Sequencer) (*Publisher, error) {
	if err := ch.ExchangeDeclare(EventsExchange, "topic", true, false, false, false, nil); err != nil {
		return nil, fmt.Errorf("declare exchange %s: %w", EventsExchange, err)
	}
	return &Publisher{ch: ch, seq: seq}, nil
}

func (p *Publisher) Close() error {
	return p.ch.Close()
}

func (p *Publisher) PublishOrderCreated(ctx context.Context, o *order.Order, meta EnvelopeMetadata) error {
	seq, err := p.seq.NextSequence(ctx, o.ID)
	if err != nil {
		return err
	}
	return p.publishJSON(ctx, OrderCreatedRoutingKey, BuildOrderCreatedEnvelope(o, seq, meta))
}

func (p *Publisher) PublishOrderPaid(ctx context.Context, o *order.Order, meta EnvelopeMetadata) error {
	seq, err := p.seq.NextSequence(ctx, o.ID)
	if err != nil {
		return err
	}
	return p.publishJSON(ctx, OrderPaidRoutingKey, BuildOrderPaidEnvelope(o, seq, meta))
}

func (p *Publisher) publishJSON(ctx context.Context, routingKey string, v any) error {
	body, err := json.Marshal(v)
	if err != nil {
		return fmt.Errorf("marshal %s: %w", routingKey, err)
	}

	pubCtx, cancel := context.WithTimeout(ctx, publishTimeout)
	defer cancel()

	if err := p.ch.PublishWithContext(pubCtx, EventsExchange, routingKey, false, false, amqp.Publishing{
		ContentType:  "application/json",
		DeliveryMode: amqp.Persistent,
		Timestamp:    time.Now().UTC(),
		Body:         body,
	}); err != nil {
		return fmt.Errorf("publish %s: %w", routingKey, err)
	}
	return nil
}

// Discard is used when event publishing is disabled.
type Discard struct{}

func (Discard) PublishOrderCreated(context.Context, *order.Order, EnvelopeMetadata) error { return nil }
func (Discard) PublishOrderPaid(context.Context, *order.Order, EnvelopeMetadata) error    { return nil }
