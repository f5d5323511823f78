package mq

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/tuanvumaihuynh/product-catalog/internal/config"
)

// Bus groups the broker settings needed to pick an event bus implementation.
type Bus struct {
	EventBus config.EventBus
	Kafka    config.Kafka
	RabbitMQ config.RabbitMQ
}

type ClosableProducer interface {
	Producer
	Close()
}

// NewProducer connects a producer to the configured event bus.
func NewProducer(ctx context.Context, cfg Bus) (ClosableProducer, error) {
	switch cfg.EventBus.Driver {
	case config.EventBusDriverKafka:
		p, err := NewKafkaProducer(ctx, cfg.Kafka)
		if err != nil {
			return nil, fmt.Errorf("create kafka producer: %w", err)
		}
		return p, nil
	case config.EventBusDriverRabbitMQ:
		p, err := NewRabbitMQProducer(cfg.RabbitMQ)
		if err != nil {
			return nil, fmt.Errorf("create rabbitmq producer: %w", err)
		}
		return p, nil
	default:
		return nil, fmt.Errorf("unsupported event bus driver: %d", uint8(cfg.EventBus.Driver))
	}
}

// NewConsumer connects a consumer to the configured event bus. The consumer
// releases its connection in the cleanup returned by Run.
func NewConsumer(ctx context.Context, cfg Bus, logger *slog.Logger) (Consumer, error) {
	switch cfg.EventBus.Driver {
	case config.EventBusDriverKafka:
		c, err := NewKafkaConsumer(ctx, cfg.Kafka, logger)
		if err != nil {
			return nil, fmt.Errorf("create kafka consumer: %w", err)
		}
		return c, nil
	case config.EventBusDriverRabbitMQ:
		c, err := NewRabbitMQConsumer(cfg.RabbitMQ, logger)
		if err != nil {
			return nil, fmt.Errorf("create rabbitmq consumer: %w", err)
		}
		return c, nil
	default:
		return nil, fmt.Errorf("unsupported event bus driver: %d", uint8(cfg.EventBus.Driver))
	}
}
