// Package relay moves committed outbox messages to the event bus.
package relay

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/tuanvumaihuynh/product-catalog/internal/config"
	"github.com/tuanvumaihuynh/product-catalog/internal/repository"
	"github.com/tuanvumaihuynh/product-catalog/internal/storage/db"
	"github.com/tuanvumaihuynh/product-catalog/internal/storage/mq"
	"github.com/tuanvumaihuynh/product-catalog/pkg/ptr"
)

const (
	statusSent   = "sent"
	statusFailed = "failed"

	purgeInterval = time.Hour
)

type Service struct {
	cfg           config.Relay
	logger        *slog.Logger
	db            db.DB
	outboxMsgRepo repository.OutboxMsgRepository
	mqProducer    mq.Producer
	relayed       *prometheus.CounterVec

	stopChan chan struct{}
}

// NewService creates the relay. reg may be nil to skip metric registration.
func NewService(
	cfg config.Relay,
	logger *slog.Logger,
	db db.DB,
	outboxMsgRepo repository.OutboxMsgRepository,
	mqProducer mq.Producer,
	reg prometheus.Registerer,
) *Service {
	relayed := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "outbox_messages_relayed_total",
		Help: "Number of outbox messages handed to the event bus, by topic and status.",
	}, []string{"topic", "status"})
	if reg != nil {
		reg.MustRegister(relayed)
	}

	return &Service{
		cfg:           cfg,
		logger:        logger.With(slog.String("service", "relay")),
		db:            db,
		outboxMsgRepo: outboxMsgRepo,
		mqProducer:    mqProducer,
		relayed:       relayed,
		stopChan:      make(chan struct{}),
	}
}

type CleanupFunc func()

func (s *Service) Run(ctx context.Context) CleanupFunc {
	ctx, cancel := context.WithCancel(ctx)

	stoppedChan := make(chan struct{})
	go func() {
		defer close(stoppedChan)
		s.run(ctx)
	}()

	return func() {
		close(s.stopChan)
		select {
		case <-stoppedChan:
		case <-time.After(5 * time.Second):
			cancel()
			<-stoppedChan
		}
		cancel()
	}
}

func (s *Service) run(ctx context.Context) {
	ticker := time.NewTicker(s.cfg.Interval)
	defer ticker.Stop()

	// a nil channel never fires, so purging is off without retention
	var purgeC <-chan time.Time
	if s.cfg.Retention > 0 {
		purgeTicker := time.NewTicker(purgeInterval)
		defer purgeTicker.Stop()
		purgeC = purgeTicker.C
	}

	for {
		select {
		case <-ctx.Done():
			return
		case <-s.stopChan:
			return
		case <-ticker.C:
			if _, err := s.RelayBatch(ctx); err != nil {
				s.logger.ErrorContext(ctx, "error relaying outbox msgs", slog.Any("error", err))
			}
		case <-purgeC:
			if _, err := s.PurgeProcessed(ctx); err != nil {
				s.logger.ErrorContext(ctx, "error purging outbox msgs", slog.Any("error", err))
			}
		}
	}
}

// PurgeProcessed deletes messages processed longer ago than the retention.
func (s *Service) PurgeProcessed(ctx context.Context) (int64, error) {
	if s.cfg.Retention <= 0 {
		return 0, nil
	}

	deleted, err := s.outboxMsgRepo.DeleteProcessedOutboxMsgs(ctx, time.Now().Add(-s.cfg.Retention))
	if err != nil {
		return 0, fmt.Errorf("delete processed outbox msgs: %w", err)
	}
	if deleted > 0 {
		s.logger.InfoContext(ctx, "purged processed outbox msgs", slog.Int64("count", deleted))
	}

	return deleted, nil
}

// RelayBatch produces one batch of unprocessed messages and marks each as
// processed, recording the produce error if any. The rows stay locked for the
// duration so concurrent relays never send the same message.
func (s *Service) RelayBatch(ctx context.Context) (int, error) {
	var count int
	err := s.db.WithTx(ctx, func(db db.DB) error {
		outboxMsgs, err := s.outboxMsgRepo.
			WithDB(db).
			ListUnprocessedOutboxMsgs(ctx, repository.ListUnprocessedOutboxMsgsParams{
				//nolint:gosec
				BatchSize: int32(s.cfg.BatchSize),
			})
		if err != nil {
			return fmt.Errorf("list unprocessed outbox msgs: %w", err)
		}

		count = len(outboxMsgs)
		if count == 0 {
			return nil
		}

		s.logger.InfoContext(ctx, "relaying outbox msgs", slog.Int("count", count))

		items := s.produceAll(ctx, outboxMsgs)

		if err := s.outboxMsgRepo.
			WithDB(db).
			BulkUpdateOutboxMsgs(ctx, repository.BulkUpdateOutboxMsgsParams{
				Items: items,
			}); err != nil {
			return fmt.Errorf("bulk update outbox msgs: %w", err)
		}

		return nil
	})

	return count, err
}

func (s *Service) produceAll(ctx context.Context, msgs []repository.OutboxMsg) []repository.BulkUpdateOutboxMsgsItem {
	if s.cfg.ProduceTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, s.cfg.ProduceTimeout)
		defer cancel()
	}

	items := make([]repository.BulkUpdateOutboxMsgsItem, len(msgs))

	var wg sync.WaitGroup
	for i, msg := range msgs {
		wg.Go(func() {
			items[i] = repository.BulkUpdateOutboxMsgsItem{ID: msg.ID}

			if err := s.mqProducer.Produce(ctx, mq.ProduceMsg{
				Topic:        msg.Topic,
				Headers:      msg.Headers,
				Payload:      msg.Payload,
				PartitionKey: msg.PartitionKey,
			}); err != nil {
				s.logger.ErrorContext(ctx,
					"error producing message",
					slog.String("outbox_msg_id", msg.ID.String()),
					slog.String("topic", msg.Topic),
					slog.String("partition_key", ptr.Deref(msg.PartitionKey)),
					slog.Any("error", err),
				)
				items[i].Error = ptr.New(fmt.Sprintf("produce message: %s", err))
				s.relayed.WithLabelValues(msg.Topic, statusFailed).Inc()
				return
			}

			s.relayed.WithLabelValues(msg.Topic, statusSent).Inc()
		})
	}
	wg.Wait()

	return items
}
