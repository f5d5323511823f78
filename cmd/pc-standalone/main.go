package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"

	"github.com/tuanvumaihuynh/product-catalog/internal/config"
	"github.com/tuanvumaihuynh/product-catalog/internal/event"
	"github.com/tuanvumaihuynh/product-catalog/internal/http"
	"github.com/tuanvumaihuynh/product-catalog/internal/log"
	"github.com/tuanvumaihuynh/product-catalog/internal/relay"
	"github.com/tuanvumaihuynh/product-catalog/internal/repository"
	"github.com/tuanvumaihuynh/product-catalog/internal/service"
	"github.com/tuanvumaihuynh/product-catalog/internal/storage/cache"
	"github.com/tuanvumaihuynh/product-catalog/internal/storage/db"
	"github.com/tuanvumaihuynh/product-catalog/internal/storage/db/sqlc"
	"github.com/tuanvumaihuynh/product-catalog/internal/storage/mq"
	"github.com/tuanvumaihuynh/product-catalog/internal/telemetry"
	"github.com/tuanvumaihuynh/product-catalog/pkg/cmdutil"
	"github.com/tuanvumaihuynh/product-catalog/pkg/validator"
)

func main() {
	if err := run(); err != nil {
		fmt.Printf("error running standalone application: %v\n", err)
		os.Exit(1)
	}
}

func run() error {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	time.Local = time.UTC

	type Config struct {
		Log      config.Log
		Postgres config.Postgres
		HTTP     config.HTTP
		Relay    config.Relay
		EventBus config.EventBus
		Kafka    config.Kafka
		RabbitMQ config.RabbitMQ
		Redis    config.Redis
		Otel     config.Otel
	}
	cfg, err := config.New[Config]()
	if err != nil {
		return fmt.Errorf("error loading config: %w", err)
	}

	logger := log.NewSlogLogger(cfg.Log, slog.String("app", "pc-standalone"))

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

	var idempotencyGuard service.IdempotencyGuard = cache.NoopGuard{}
	if cfg.Redis.Addr != "" {
		redisClient, err := cache.NewRedisClient(ctx, cfg.Redis)
		if err != nil {
			return fmt.Errorf("error creating redis client: %w", err)
		}
		defer redisClient.Close()

		idempotencyGuard = cache.NewIdempotencyGuard(redisClient, cfg.Redis.IdempotencyTTL)
	} else {
		logger.WarnContext(ctx, "redis is not configured, adjustment idempotency keys are ignored")
	}

	bus := mq.Bus{
		EventBus: cfg.EventBus,
		Kafka:    cfg.Kafka,
		RabbitMQ: cfg.RabbitMQ,
	}
	producer, err := mq.NewProducer(ctx, bus)
	if err != nil {
		return fmt.Errorf("error creating event bus producer: %w", err)
	}
	defer producer.Close()

	consumer, err := mq.NewConsumer(ctx, bus, logger)
	if err != nil {
		return fmt.Errorf("error creating event bus consumer: %w", err)
	}

	validate, err := validator.NewDefaultValidator()
	if err != nil {
		return fmt.Errorf("error creating validator: %w", err)
	}

	registry := prometheus.NewRegistry()
	registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)

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
	inventoryService := service.NewInventoryService(
		logger,
		dbClient,
		productRepository,
		inventoryTxnRepository,
		outboxMsgRepository,
		idempotencyGuard,
	)

	interruptChan := cmdutil.InterruptChan()
	var wg sync.WaitGroup

	wg.Go(func() {
		svc := event.New(logger, consumer, nil)
		cleanup, err := svc.Run(ctx)
		if err != nil {
			panic(fmt.Errorf("error running event service: %w", err))
		}
		logger.InfoContext(ctx, "event service started")

		<-interruptChan

		logger.InfoContext(ctx, "event service is shutting down")
		cleanup()

		logger.InfoContext(ctx, "event service is stopped")
	})

	wg.Go(func() {
		svc := http.New(
			cfg.HTTP,
			logger,
			registry,
			validate,
			productService,
			inventoryService,
			dbClient,
		)
		cleanup, err := svc.Run(ctx)
		if err != nil {
			panic(fmt.Errorf("error running http service: %w", err))
		}

		logger.InfoContext(ctx, "http service started", slog.String("address", fmt.Sprintf(":%d", cfg.HTTP.Port)))

		<-interruptChan

		logger.InfoContext(ctx, "http service is shutting down")
		if err := cleanup(ctx); err != nil {
			logger.ErrorContext(ctx, "error shutting down http service", slog.Any("error", err))
		}

		logger.InfoContext(ctx, "http service is stopped")
	})

	wg.Go(func() {
		svc := relay.NewService(cfg.Relay, logger, dbClient, outboxMsgRepository, producer, registry)
		cleanup := svc.Run(ctx)
		logger.InfoContext(ctx, "relay service started", slog.String("event_bus", cfg.EventBus.Driver.String()))

		<-interruptChan

		logger.InfoContext(ctx, "relay service is shutting down")
		cleanup()

		logger.InfoContext(ctx, "relay service is stopped")
	})

	wg.Wait()

	return nil
}
