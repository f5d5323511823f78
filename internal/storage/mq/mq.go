// Package mq carries outbox events to and from the event bus. Kafka and
// RabbitMQ implementations share the Producer and Consumer interfaces.
package mq

import (
	"context"
	"fmt"
	"log/slog"
	"runtime/debug"

	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

type ProduceMsg struct {
	Topic        string
	Headers      map[string]string
	Payload      []byte
	PartitionKey *string
}

type Producer interface {
	Produce(ctx context.Context, msg ProduceMsg) error
}

// Message is a consumed event. Its trace context and correlation id have
// already been moved from Headers into the handler context.
type Message struct {
	Topic   string
	Key     string
	Headers map[string]string
	Payload []byte
}

type HandlerFunc func(ctx context.Context, msg Message) error

type CleanupFunc func()

type Consumer interface {
	RegisterHandler(topic string, handler HandlerFunc) error
	Run(ctx context.Context) (CleanupFunc, error)
}

type handlerRegistry map[string]HandlerFunc

func (r handlerRegistry) register(topic string, handler HandlerFunc) error {
	if _, exists := r[topic]; exists {
		return fmt.Errorf("handler for topic %s already registered", topic)
	}

	r[topic] = handler
	return nil
}

// dispatch runs the handler registered for msg.Topic. A panicking handler is
// reported as an error so the caller can decide whether to redeliver.
func (r handlerRegistry) dispatch(ctx context.Context, logger *slog.Logger, msg Message) (err error) {
	defer func() {
		if rvr := recover(); rvr != nil {
			span := trace.SpanFromContext(ctx)
			span.RecordError(fmt.Errorf("panic: %v", rvr))
			span.SetStatus(codes.Error, "panic in handler")

			logger.ErrorContext(ctx, "panic in message handler",
				slog.String("topic", msg.Topic),
				slog.Any("recover", rvr),
				slog.String("stack", string(debug.Stack())),
			)
			err = fmt.Errorf("panic in handler: %v", rvr)
		}
	}()

	fn, exists := r[msg.Topic]
	if !exists {
		logger.WarnContext(ctx, "no handler registered for topic",
			slog.String("topic", msg.Topic),
		)
		return nil
	}

	if err := fn(ctx, msg); err != nil {
		logger.ErrorContext(ctx, "error handling message",
			slog.String("topic", msg.Topic),
			slog.String("key", msg.Key),
			slog.Any("error", err),
		)
		return err
	}

	return nil
}
