package batch

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"regexp"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tuanvumaihuynh/product-catalog/internal/event"
)

const exportBucket = "exports"

var exportKeyPattern = regexp.MustCompile(`^product_created_[A-Z]{8}\.csv$`)

func newTestExporter(objects *memObjects) *Exporter {
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	return NewExporter(testBatchConfig, exportBucket, logger, objects)
}

func createdEvent(id string) event.ProductCreatedEvent {
	return event.ProductCreatedEvent{
		ProductID:   id,
		BrandName:   "acme",
		ProductName: "widget, large",
		Price:       decimal.RequireFromString("9.99"),
		Quantity:    decimal.RequireFromString("2.5"),
	}
}

func TestExporter(t *testing.T) {
	ctx := context.Background()

	t.Run("Should flush when the buffer is full", func(t *testing.T) {
		objects := newMemObjects()
		e := newTestExporter(objects)

		require.NoError(t, e.Add(ctx, createdEvent("p1")))
		require.NoError(t, e.Add(ctx, createdEvent("p2")))
		assert.Empty(t, objects.snapshot())

		require.NoError(t, e.Add(ctx, createdEvent("p3")))

		stored := objects.snapshot()
		require.Len(t, stored, 1)
		for key, data := range stored {
			assert.Regexp(t, `^exports/product_created_[A-Z]{8}\.csv$`, key)
			assert.Equal(t,
				"p1,acme,\"widget, large\",9.99,2.5\n"+
					"p2,acme,\"widget, large\",9.99,2.5\n"+
					"p3,acme,\"widget, large\",9.99,2.5\n",
				string(data))
		}
	})

	t.Run("Should skip an empty flush", func(t *testing.T) {
		objects := newMemObjects()

		key, err := newTestExporter(objects).Flush(ctx)

		require.NoError(t, err)
		assert.Empty(t, key)
		assert.Empty(t, objects.snapshot())
	})

	t.Run("Should keep events when the upload fails", func(t *testing.T) {
		objects := newMemObjects()
		objects.putErr = errors.New("bucket unavailable")
		e := newTestExporter(objects)
		require.NoError(t, e.Add(ctx, createdEvent("p1")))

		_, err := e.Flush(ctx)
		require.Error(t, err)

		objects.putErr = nil
		key, err := e.Flush(ctx)
		require.NoError(t, err)
		assert.Equal(t, "p1,acme,\"widget, large\",9.99,2.5\n", string(objects.snapshot()[exportBucket+"/"+key]))
	})

	t.Run("Should flush the rest on cleanup", func(t *testing.T) {
		objects := newMemObjects()
		e := newTestExporter(objects)
		cleanup := e.Run(ctx)
		require.NoError(t, e.Add(ctx, createdEvent("p1")))

		cleanup()

		assert.Len(t, objects.snapshot(), 1)
	})
}

func TestExportKey(t *testing.T) {
	for range 10 {
		assert.Regexp(t, exportKeyPattern, exportKey())
	}
}
