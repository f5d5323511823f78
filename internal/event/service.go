package event

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"

	"github.com/tuanvumaihuynh/product-catalog/internal/log"
	"github.com/tuanvumaihuynh/product-catalog/internal/storage/mq"
	"github.com/tuanvumaihuynh/product-catalog/pkg/outbox"
)

// ProductCreatedSink receives every consumed product created event.
type ProductCreatedSink interface {
	Add(ctx context.Context, ev ProductCreatedEvent) error
}

// Service consumes catalog events from the bus.
type Service struct {
	logger     *slog.Logger
	mqConsumer mq.Consumer
	sink       ProductCreatedSink
}

// New creates a new event service. sink may be nil.
func New(
	logger *slog.Logger,
	mqConsumer mq.Consumer,
	sink ProductCreatedSink,
) *Service {
	return &Service{
		logger:     logger.With(slog.String("service", "event")),
		mqConsumer: mqConsumer,
		sink:       sink,
	}
}

type CleanupFunc func()

func (s *Service) Run(ctx context.Context) (CleanupFunc, error) {
	handlers := map[string]mq.HandlerFunc{
		TopicProductCreated:    handle(s.handleProductCreatedEvent),
		TopicProductUpdated:    handle(s.handleProductUpdatedEvent),
		TopicProductDeleted:    handle(s.handleProductDeletedEvent),
		TopicProductViewed:     handle(s.handleProductViewedEvent),
		TopicInventoryAdjusted: handle(s.handleInventoryAdjustedEvent),
	}

	for _, topic := range Topics {
		if err := s.mqConsumer.RegisterHandler(topic, handlers[topic]); err != nil {
			return nil, fmt.Errorf("register %s event handler: %w", topic, err)
		}
	}

	mqCleanup, err := s.mqConsumer.Run(ctx)
	if err != nil {
		return nil, fmt.Errorf("run mq consumer: %w", err)
	}

	cleanup := func() {
		mqCleanup()
	}

	return cleanup, nil
}

// handle decodes the payload into T before calling fn. Records logged by fn
// carry the event type and source.
func handle[T any](fn func(ctx context.Context, ev T) error) mq.HandlerFunc {
	return func(ctx context.Context, msg mq.Message) error {
		ctx = log.ContextWithAttrs(ctx,
			slog.String("event_type", msg.Topic),
			slog.String("event_source", outbox.Lookup(msg.Headers, outbox.SourceHeader)),
		)

		var ev T
		if err := json.Unmarshal(msg.Payload, &ev); err != nil {
			return fmt.Errorf("unmarshal %s event: %w", msg.Topic, err)
		}

		if err := fn(ctx, ev); err != nil {
			return fmt.Errorf("handle %s event: %w", msg.Topic, err)
		}

		return nil
	}
}

func (s *Service) handleProductCreatedEvent(ctx context.Context, ev ProductCreatedEvent) error {
	s.logger.InfoContext(ctx, "product created",
		slog.String("product_id", ev.ProductID),
		slog.String("quantity", ev.Quantity.String()),
	)

	if s.sink == nil {
		return nil
	}

	return s.sink.Add(ctx, ev)
}

func (s *Service) handleProductUpdatedEvent(ctx context.Context, ev ProductUpdatedEvent) error {
	s.logger.InfoContext(ctx, "product updated",
		slog.String("product_id", ev.ProductID),
		slog.Any("fields_changed", ev.FieldsChanged),
	)
	return nil
}

func (s *Service) handleProductDeletedEvent(ctx context.Context, ev ProductDeletedEvent) error {
	s.logger.InfoContext(ctx, "product deleted", slog.String("product_id", ev.ProductID))
	return nil
}

func (s *Service) handleProductViewedEvent(ctx context.Context, ev ProductViewedEvent) error {
	s.logger.DebugContext(ctx, "product viewed",
		slog.String("product_id", ev.ProductID),
		slog.Time("viewed_at", ev.ViewedAt),
	)
	return nil
}

func (s *Service) handleInventoryAdjustedEvent(ctx context.Context, ev InventoryAdjustedEvent) error {
	s.logger.InfoContext(ctx, "inventory adjusted",
		slog.String("product_id", ev.ProductID),
		slog.String("transaction_id", ev.TransactionID.String()),
		slog.String("quantity", ev.Quantity.String()),
		slog.String("new_quantity", ev.NewQuantity.String()),
		slog.String("remarks", ev.Remarks),
	)
	return nil
}
