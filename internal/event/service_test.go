package event_test

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tuanvumaihuynh/product-catalog/internal/event"
	"github.com/tuanvumaihuynh/product-catalog/internal/storage/mq"
)

type fakeConsumer struct {
	handlers map[string]mq.HandlerFunc
	running  bool
}

func (c *fakeConsumer) RegisterHandler(topic string, handler mq.HandlerFunc) error {
	if c.handlers == nil {
		c.handlers = map[string]mq.HandlerFunc{}
	}
	c.handlers[topic] = handler
	return nil
}

func (c *fakeConsumer) Run(context.Context) (mq.CleanupFunc, error) {
	c.running = true
	return func() { c.running = false }, nil
}

type sinkFunc func(ctx context.Context, ev event.ProductCreatedEvent) error

func (f sinkFunc) Add(ctx context.Context, ev event.ProductCreatedEvent) error { return f(ctx, ev) }

func TestService(t *testing.T) {
	ctx := context.Background()
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))

	t.Run("Should register a handler for every topic", func(t *testing.T) {
		consumer := &fakeConsumer{}

		cleanup, err := event.New(logger, consumer, nil).Run(ctx)
		require.NoError(t, err)

		assert.True(t, consumer.running)
		for _, topic := range event.Topics {
			assert.Contains(t, consumer.handlers, topic)
		}

		cleanup()
		assert.False(t, consumer.running)
	})

	t.Run("Should pass product created events to the sink", func(t *testing.T) {
		consumer := &fakeConsumer{}
		var got []event.ProductCreatedEvent
		sink := sinkFunc(func(_ context.Context, ev event.ProductCreatedEvent) error {
			got = append(got, ev)
			return nil
		})

		_, err := event.New(logger, consumer, sink).Run(ctx)
		require.NoError(t, err)

		payload, err := json.Marshal(event.ProductCreatedEvent{
			ProductID: "p1",
			Price:     decimal.RequireFromString("1.10"),
			Quantity:  decimal.RequireFromString("3"),
		})
		require.NoError(t, err)

		err = consumer.handlers[event.TopicProductCreated](ctx, mq.Message{
			Topic:   event.TopicProductCreated,
			Payload: payload,
		})
		require.NoError(t, err)

		require.Len(t, got, 1)
		assert.Equal(t, "p1", got[0].ProductID)
		assert.Equal(t, "1.1", got[0].Price.String())
	})

	t.Run("Should return sink errors", func(t *testing.T) {
		consumer := &fakeConsumer{}
		want := errors.New("bucket unavailable")

		_, err := event.New(logger, consumer, sinkFunc(func(context.Context, event.ProductCreatedEvent) error {
			return want
		})).Run(ctx)
		require.NoError(t, err)

		err = consumer.handlers[event.TopicProductCreated](ctx, mq.Message{
			Topic:   event.TopicProductCreated,
			Payload: []byte(`{"productId":"p1","price":"1","quantity":"1"}`),
		})
		assert.ErrorIs(t, err, want)
	})

	t.Run("Should reject a malformed payload", func(t *testing.T) {
		consumer := &fakeConsumer{}

		_, err := event.New(logger, consumer, nil).Run(ctx)
		require.NoError(t, err)

		err = consumer.handlers[event.TopicInventoryAdjusted](ctx, mq.Message{
			Topic:   event.TopicInventoryAdjusted,
			Payload: []byte(`not json`),
		})
		assert.Error(t, err)
	})
}
