package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"sync"
	"time"

	"github.com/tuanvumaihuynh/product-catalog/internal/batch"
	"github.com/tuanvumaihuynh/product-catalog/internal/config"
	"github.com/tuanvumaihuynh/product-catalog/internal/event"
	"github.com/tuanvumaihuynh/product-catalog/internal/log"
	"github.com/tuanvumaihuynh/product-catalog/internal/repository"
	"github.com/tuanvumaihuynh/product-catalog/internal/service"
	"github.com/tuanvumaihuynh/product-catalog/internal/storage/cache"
	"github.com/tuanvumaihuynh/product-catalog/internal/storage/db"
	"github.com/tuanvumaihuynh/product-catalog/internal/storage/db/sqlc"
	"github.com/tuanvumaihuynh/product-catalog/internal/storage/mq"
	"github.com/tuanvumaihuynh/product-catalog/internal/storage/objectstore"
	"github.com/tuanvumaihuynh/product-catalog/internal/telemetry"
	"github.com/tuanvumaihuynh/product-catalog/pkg/cmdutil"
)

// pc-worker runs the batch import listener and the product.created exporter.
// It consumes events with its own Kafka group or RabbitMQ queue so it sees
// every product.created event independently of pc-standalone.
func main() {
	if err := run(); err != nil {
		fmt.Printf("error running worker application: %v\n", err)
		os.Exit(1)
	}
}

func run() error {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	time.Local = time.UTC

	type Config struct {
		Log         config.Log
		Postgres    config.Postgres
		EventBus    config.EventBus
		Kafka       config.Kafka
		RabbitMQ    config.RabbitMQ
		ObjectStore config.ObjectStore
		Batch       config.Batch
		Otel        config.Otel
	}
	cfg, err := config.New[Config]()
	if err != nil {
		return fmt.Errorf("error loading config: %w", err)
	}

	logger := log.NewSlogLogger(cfg.Log, slog.String("app", "pc-worker"))

	cleanupTracer, err := telemetry.InitTracer(ctx, cfg.Otel)
	if err != nil {
		return fmt.Errorf("error initializing tracer: %w", err)
	}
	defer func() {
		if err := cleanupTracer(ctx); err != nil {
			logger.ErrorContext(ctx, "error cleaning up tracer", slog.Any("error", err))
		}
	}()

	cleanupLoggerProvider, err := telemetry.InitLoggerProvider(ctx, cfg.Otel)
	if err != nil {
		return fmt.Errorf("error initializing logger provider: %w", err)
	}
	defer func() {
		if err := cleanupLoggerProvider(ctx); err != nil {
			logger.ErrorContext(ctx, "error cleaning up logger provider", slog.Any("error", err))
		}
	}()

	auditLogger := log.NewAuditLogger(logger, cfg.Otel)

	pgxPool, err := db.NewPgxPool(ctx, cfg.Postgres)
	if err != nil {
		return fmt.Errorf("error creating pgx pool: %w", err)
	}
	defer pgxPool.Close()

	dbClient := db.NewClient(pgxPool)
	queries := *sqlc.New()

	objectStore, err := objectstore.NewClient(cfg.ObjectStore, logger)
	if err != nil {
		return fmt.Errorf("error creating object store client: %w", err)
	}
	for _, bucket := range []string{cfg.ObjectStore.ImportBucket, cfg.ObjectStore.ExportBucket} {
		if err := objectStore.EnsureBucket(ctx, bucket); err != nil {
			return fmt.Errorf("error ensuring bucket %s: %w", bucket, err)
		}
	}

	consumer, err := mq.NewConsumer(ctx, mq.Bus{
		EventBus: cfg.EventBus,
		Kafka:    cfg.Kafka,
		RabbitMQ: cfg.RabbitMQ,
	}, logger)
	if err != nil {
		return fmt.Errorf("error creating event bus consumer: %w", err)
	}

	productRepository := repository.NewProductRepository(dbClient, queries)
	inventoryTxnRepository := repository.NewInventoryTxnRepository(dbClient, queries)
	outboxMsgRepository := repository.NewOutboxMsgRepository(dbClient, queries)

	productService := service.NewProductService(
		logger,
		auditLogger,
		dbClient,
		productRepository,
		inventoryTxnRepository,
		outboxMsgRepository,
	)
	// batch files carry no idempotency keys
	inventoryService := service.NewInventoryService(
		logger,
		dbClient,
		productRepository,
		inventoryTxnRepository,
		outboxMsgRepository,
		cache.NoopGuard{},
	)

	exporter := batch.NewExporter(cfg.Batch, cfg.ObjectStore.ExportBucket, logger, objectStore)
	importer := batch.NewImporter(cfg.Batch, cfg.ObjectStore.ImportBucket, logger, objectStore, productService, inventoryService)

	interruptChan := cmdutil.InterruptChan()
	var wg sync.WaitGroup

	// the exporter is stopped after the event service so its final flush
	// includes every consumed event
	wg.Go(func() {
		cleanupExporter := exporter.Run(ctx)
		logger.InfoContext(ctx, "batch exporter started", slog.String("bucket", cfg.ObjectStore.ExportBucket))

		svc := event.New(logger, consumer, exporter)
		cleanupEvent, err := svc.Run(ctx)
		if err != nil {
			panic(fmt.Errorf("error running event service: %w", err))
		}
		logger.InfoContext(ctx, "event service started")

		<-interruptChan

		logger.InfoContext(ctx, "event service is shutting down")
		cleanupEvent()
		logger.InfoContext(ctx, "event service is stopped")

		logger.InfoContext(ctx, "batch exporter is shutting down")
		cleanupExporter()
		logger.InfoContext(ctx, "batch exporter is stopped")
	})

	wg.Go(func() {
		cleanup := importer.Run(ctx)
		logger.InfoContext(ctx, "batch importer started", slog.String("bucket", cfg.ObjectStore.ImportBucket))

		<-interruptChan

		logger.InfoContext(ctx, "batch importer is shutting down")
		cleanup()

		logger.InfoContext(ctx, "batch importer is stopped")
	})

	wg.Wait()

	return nil
}
