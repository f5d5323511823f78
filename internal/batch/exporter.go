package batch

import (
	"bytes"
	"context"
	"fmt"
	"log/slog"
	"math/rand/v2"
	"sync"
	"time"

	"github.com/tuanvumaihuynh/product-catalog/internal/config"
	"github.com/tuanvumaihuynh/product-catalog/internal/event"
)

const (
	exportKeyPrefix   = "product_created_"
	exportSuffixLen   = 8
	exportContentType = "text/csv"
)

type ObjectSink interface {
	PutObject(ctx context.Context, bucket, key string, data []byte, contentType string) error
}

// Exporter buffers product created events and writes them to the export bucket
// as CSV files, either when the buffer is full or on every interval tick.
type Exporter struct {
	cfg    config.Batch
	bucket string
	logger *slog.Logger
	sink   ObjectSink

	mu  sync.Mutex
	buf []event.ProductCreatedEvent
}

func NewExporter(cfg config.Batch, bucket string, logger *slog.Logger, sink ObjectSink) *Exporter {
	return &Exporter{
		cfg:    cfg,
		bucket: bucket,
		logger: logger.With(slog.String("service", "batch_exporter")),
		sink:   sink,
	}
}

// Add buffers ev and flushes when the buffer reaches the export size.
func (e *Exporter) Add(ctx context.Context, ev event.ProductCreatedEvent) error {
	e.mu.Lock()
	e.buf = append(e.buf, ev)
	full := len(e.buf) >= e.cfg.ExportSize
	e.mu.Unlock()

	if !full {
		return nil
	}

	if _, err := e.Flush(ctx); err != nil {
		return fmt.Errorf("flush export: %w", err)
	}

	return nil
}

// Flush writes the buffered events to one object and returns its key. It
// returns an empty key when there is nothing to write. On failure the events
// are kept for the next flush.
func (e *Exporter) Flush(ctx context.Context) (string, error) {
	e.mu.Lock()
	events := e.buf
	e.buf = nil
	e.mu.Unlock()

	if len(events) == 0 {
		return "", nil
	}

	var data bytes.Buffer
	if err := writeProductCreatedRows(&data, events); err != nil {
		e.requeue(events)
		return "", err
	}

	key := exportKey()
	if err := e.sink.PutObject(ctx, e.bucket, key, data.Bytes(), exportContentType); err != nil {
		e.requeue(events)
		return "", fmt.Errorf("object sink put object: %w", err)
	}

	e.logger.InfoContext(ctx, "products exported",
		slog.String("key", key), slog.Int("count", len(events)))

	return key, nil
}

// Run flushes on every export interval. The cleanup flushes what is left.
func (e *Exporter) Run(ctx context.Context) CleanupFunc {
	ctx, cancel := context.WithCancel(ctx)
	ticker := time.NewTicker(e.cfg.ExportInterval)

	doneChan := make(chan struct{})
	go func() {
		defer close(doneChan)
		defer ticker.Stop()

		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				if _, err := e.Flush(ctx); err != nil {
					e.logger.ErrorContext(ctx, "error flushing export", slog.Any("error", err))
				}
			}
		}
	}()

	return func() {
		cancel()
		<-doneChan

		flushCtx, flushCancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer flushCancel()
		if _, err := e.Flush(flushCtx); err != nil {
			e.logger.Error("error flushing export on shutdown", slog.Any("error", err))
		}
	}
}

func (e *Exporter) requeue(events []event.ProductCreatedEvent) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.buf = append(events, e.buf...)
}

func exportKey() string {
	const letters = "ABCDEFGHIJKLMNOPQRSTUVWXYZ"

	suffix := make([]byte, exportSuffixLen)
	for i := range suffix {
		suffix[i] = letters[rand.IntN(len(letters))]
	}

	return exportKeyPrefix + string(suffix) + ".csv"
}
