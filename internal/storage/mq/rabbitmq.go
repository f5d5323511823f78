package mq

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"

	amqp "github.com/rabbitmq/amqp091-go"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/tuanvumaihuynh/product-catalog/internal/config"
	"github.com/tuanvumaihuynh/product-catalog/pkg/outbox"
	"github.com/tuanvumaihuynh/product-catalog/pkg/ptr"
)

const exchangeType = "topic"

var (
	_ Producer = (*RabbitMQProducer)(nil)
	_ Consumer = (*RabbitMQConsumer)(nil)
)

func dialRabbitMQ(cfg config.RabbitMQ) (*amqp.Connection, *amqp.Channel, error) {
	conn, err := amqp.Dial(cfg.URL)
	if err != nil {
		return nil, nil, fmt.Errorf("dial rabbitmq: %w", err)
	}

	ch, err := conn.Channel()
	if err != nil {
		_ = conn.Close()
		return nil, nil, fmt.Errorf("open channel: %w", err)
	}

	if err := ch.ExchangeDeclare(
		cfg.Exchange,
		exchangeType,
		true,  // durable
		false, // auto-deleted
		false, // internal
		false, // no-wait
		nil,
	); err != nil {
		_ = ch.Close()
		_ = conn.Close()
		return nil, nil, fmt.Errorf("declare exchange: %w", err)
	}

	return conn, ch, nil
}

// RabbitMQProducer publishes to a topic exchange, using the event topic as the
// routing key. Publisher confirms are enabled so Produce only returns nil once
// the broker took the message.
type RabbitMQProducer struct {
	conn     *amqp.Connection
	ch       *amqp.Channel
	exchange string
}

func NewRabbitMQProducer(cfg config.RabbitMQ) (*RabbitMQProducer, error) {
	conn, ch, err := dialRabbitMQ(cfg)
	if err != nil {
		return nil, err
	}

	if err := ch.Confirm(false); err != nil {
		_ = ch.Close()
		_ = conn.Close()
		return nil, fmt.Errorf("enable publisher confirms: %w", err)
	}

	return &RabbitMQProducer{
		conn:     conn,
		ch:       ch,
		exchange: cfg.Exchange,
	}, nil
}

func (p *RabbitMQProducer) Produce(ctx context.Context, msg ProduceMsg) error {
	ctx, span := tracer.Start(ctx, "RabbitMQProducer.Produce",
		trace.WithAttributes(
			attribute.String("topic", msg.Topic),
		),
	)
	defer span.End()

	if err := p.publish(ctx, msg); err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "failed to produce message")
		return err
	}

	span.SetStatus(codes.Ok, "")
	return nil
}

func (p *RabbitMQProducer) publish(ctx context.Context, msg ProduceMsg) error {
	confirm, err := p.ch.PublishWithDeferredConfirmWithContext(ctx,
		p.exchange,
		msg.Topic,
		false, // mandatory
		false, // immediate
		buildPublishing(msg),
	)
	if err != nil {
		return fmt.Errorf("publish message: %w", err)
	}

	acked, err := confirm.WaitContext(ctx)
	if err != nil {
		return fmt.Errorf("wait for confirm: %w", err)
	}
	if !acked {
		return errors.New("message nacked by broker")
	}

	return nil
}

func (p *RabbitMQProducer) Close() {
	_ = p.ch.Close()
	_ = p.conn.Close()
}

func buildPublishing(msg ProduceMsg) amqp.Publishing {
	headers := make(amqp.Table, len(msg.Headers))
	for k, v := range msg.Headers {
		headers[k] = v
	}

	pub := amqp.Publishing{
		Headers:      headers,
		ContentType:  "application/json",
		DeliveryMode: amqp.Persistent,
		Body:         msg.Payload,
		MessageId:    ptr.Deref(msg.PartitionKey),
	}

	return pub
}

func deliveryToMessage(d amqp.Delivery) Message {
	headers := make(map[string]string, len(d.Headers))
	for k, v := range d.Headers {
		if s, ok := v.(string); ok {
			headers[k] = s
		}
	}

	return Message{
		Topic:   d.RoutingKey,
		Key:     d.MessageId,
		Headers: headers,
		Payload: d.Body,
	}
}

// RabbitMQConsumer binds one durable queue to the exchange with a routing key
// per registered topic. Failed deliveries are rejected without requeue.
type RabbitMQConsumer struct {
	conn     *amqp.Connection
	ch       *amqp.Channel
	exchange string
	queue    string
	handlers handlerRegistry
	log      *slog.Logger
}

func NewRabbitMQConsumer(cfg config.RabbitMQ, logger *slog.Logger) (*RabbitMQConsumer, error) {
	conn, ch, err := dialRabbitMQ(cfg)
	if err != nil {
		return nil, err
	}

	if _, err := ch.QueueDeclare(
		cfg.Queue,
		true,  // durable
		false, // delete when unused
		false, // exclusive
		false, // no-wait
		nil,
	); err != nil {
		_ = ch.Close()
		_ = conn.Close()
		return nil, fmt.Errorf("declare queue: %w", err)
	}

	return &RabbitMQConsumer{
		conn:     conn,
		ch:       ch,
		exchange: cfg.Exchange,
		queue:    cfg.Queue,
		handlers: handlerRegistry{},
		log:      logger.With(slog.String("consumer", "rabbitmq")),
	}, nil
}

func (c *RabbitMQConsumer) RegisterHandler(topic string, handler HandlerFunc) error {
	if err := c.handlers.register(topic, handler); err != nil {
		return err
	}

	if err := c.ch.QueueBind(c.queue, topic, c.exchange, false, nil); err != nil {
		delete(c.handlers, topic)
		return fmt.Errorf("bind queue to %s: %w", topic, err)
	}

	return nil
}

func (c *RabbitMQConsumer) Run(ctx context.Context) (CleanupFunc, error) {
	deliveries, err := c.ch.ConsumeWithContext(ctx,
		c.queue,
		"",    // consumer tag
		false, // auto-ack
		false, // exclusive
		false, // no-local
		false, // no-wait
		nil,
	)
	if err != nil {
		return nil, fmt.Errorf("consume queue: %w", err)
	}

	ctx, cancel := context.WithCancel(ctx)
	var wg sync.WaitGroup
	wg.Go(func() {
		for d := range deliveries {
			c.handle(ctx, d)
		}
	})

	cleanup := func() {
		cancel()
		_ = c.ch.Close()
		wg.Wait()
		_ = c.conn.Close()
	}

	return cleanup, nil
}

func (c *RabbitMQConsumer) handle(ctx context.Context, d amqp.Delivery) {
	msg := deliveryToMessage(d)

	msgCtx := outbox.ExtractContextFromHeaders(ctx, msg.Headers)
	msgCtx, span := tracer.Start(msgCtx, msg.Topic+" process",
		trace.WithSpanKind(trace.SpanKindConsumer),
	)
	defer span.End()

	if err := c.handlers.dispatch(msgCtx, c.log, msg); err != nil {
		span.SetStatus(codes.Error, err.Error())
		if nackErr := d.Nack(false, false); nackErr != nil {
			c.log.ErrorContext(msgCtx, "error nacking message", slog.Any("error", nackErr))
		}
		return
	}

	if err := d.Ack(false); err != nil {
		c.log.ErrorContext(msgCtx, "error acking message", slog.Any("error", err))
	}
}
