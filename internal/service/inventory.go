package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/tuanvumaihuynh/product-catalog/internal/apperr"
	"github.com/tuanvumaihuynh/product-catalog/internal/event"
	"github.com/tuanvumaihuynh/product-catalog/internal/log"
	"github.com/tuanvumaihuynh/product-catalog/internal/model"
	"github.com/tuanvumaihuynh/product-catalog/internal/repository"
	"github.com/tuanvumaihuynh/product-catalog/internal/storage/db"
)

type AdjustStockParams struct {
	ProductID string
	// Quantity is the signed delta as received, parsed as an exact decimal.
	Quantity       string
	Remarks        string
	IdempotencyKey string
}

type AdjustStockResult struct {
	NewQuantity decimal.Decimal
	Transaction model.InventoryTransaction
}

type InventoryService interface {
	// AdjustStock adds a signed delta to a product's stock and records it in the ledger.
	AdjustStock(ctx context.Context, params AdjustStockParams) (AdjustStockResult, error)
}

type inventoryService struct {
	logger           *slog.Logger
	db               db.DB
	productRepo      repository.ProductRepository
	inventoryTxnRepo repository.InventoryTxnRepository
	outboxMsgRepo    repository.OutboxMsgRepository
	idempotency      IdempotencyGuard
}

func NewInventoryService(
	logger *slog.Logger,
	db db.DB,
	productRepo repository.ProductRepository,
	inventoryTxnRepo repository.InventoryTxnRepository,
	outboxMsgRepo repository.OutboxMsgRepository,
	idempotency IdempotencyGuard,
) InventoryService {
	return &inventoryService{
		logger:           logger.With(slog.String("service", "inventory")),
		db:               db,
		productRepo:      productRepo,
		inventoryTxnRepo: inventoryTxnRepo,
		outboxMsgRepo:    outboxMsgRepo,
		idempotency:      idempotency,
	}
}

func (s *inventoryService) AdjustStock(ctx context.Context, params AdjustStockParams) (AdjustStockResult, error) {
	ctx = log.ContextWithAttrs(ctx, slog.String("product_id", params.ProductID))

	product, err := s.productRepo.GetProduct(ctx, params.ProductID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return AdjustStockResult{}, apperr.ProductNotFoundErr
		}
		return AdjustStockResult{}, fmt.Errorf("product repository get product: %w", err)
	}

	delta, err := model.ParseQuantity(params.Quantity)
	if err != nil {
		return AdjustStockResult{}, apperr.InvalidQuantityErr.WrapParent(err)
	}

	if product.Quantity.Add(delta).IsNegative() {
		return AdjustStockResult{}, apperr.InsufficientStockErr
	}

	if params.IdempotencyKey != "" {
		key := fmt.Sprintf("adjust:%s:%s", params.ProductID, params.IdempotencyKey)
		acquired, err := s.idempotency.Acquire(ctx, key)
		if err != nil {
			return AdjustStockResult{}, fmt.Errorf("acquire idempotency key: %w", err)
		}
		if !acquired {
			return AdjustStockResult{}, apperr.DuplicateAdjustmentErr
		}

		res, err := s.adjust(ctx, params.ProductID, delta, params.Remarks)
		if err != nil {
			if relErr := s.idempotency.Release(ctx, key); relErr != nil {
				s.logger.WarnContext(ctx, "error releasing idempotency key",
					slog.String("key", key), slog.Any("error", relErr))
			}
			return AdjustStockResult{}, err
		}
		return res, nil
	}

	return s.adjust(ctx, params.ProductID, delta, params.Remarks)
}

// adjust writes the cached quantity, the ledger entry and the event in one transaction.
func (s *inventoryService) adjust(ctx context.Context, productID string, delta decimal.Decimal, remarks string) (AdjustStockResult, error) {
	id, err := uuid.NewV7()
	if err != nil {
		return AdjustStockResult{}, fmt.Errorf("generate uuid v7: %w", err)
	}

	now := time.Now().UTC()
	txn := model.InventoryTransaction{
		ID:        id,
		ProductID: productID,
		Timestamp: now.Truncate(time.Second),
		Quantity:  delta,
		Remarks:   remarks,
	}

	var newQuantity decimal.Decimal
	if err := s.db.WithTx(ctx, func(db db.DB) error {
		newQuantity, err = s.productRepo.
			WithDB(db).
			AdjustQuantity(ctx, repository.AdjustQuantityParams{
				ID:        productID,
				Delta:     delta,
				UpdatedAt: now,
			})
		if err != nil {
			// a concurrent adjustment or delete won the race since the product was read
			if errors.Is(err, repository.ErrConditionNotMet) {
				return apperr.InsufficientStockErr
			}
			return fmt.Errorf("product repository adjust quantity: %w", err)
		}

		if err := s.inventoryTxnRepo.
			WithDB(db).
			CreateInventoryTxn(ctx, txn); err != nil {
			return fmt.Errorf("inventory txn repository create inventory txn: %w", err)
		}

		return publishEvent(ctx, s.outboxMsgRepo.WithDB(db), event.TopicInventoryAdjusted, productID,
			event.InventoryAdjustedEvent{
				ProductID:     productID,
				TransactionID: txn.ID,
				Quantity:      txn.Quantity,
				NewQuantity:   newQuantity,
				Remarks:       txn.Remarks,
				Timestamp:     txn.Timestamp,
			})
	}); err != nil {
		return AdjustStockResult{}, fmt.Errorf("db with tx: %w", err)
	}

	s.logger.InfoContext(ctx, "stock adjusted",
		slog.String("product_id", productID),
		slog.String("delta", delta.String()),
		slog.String("new_quantity", newQuantity.String()))

	return AdjustStockResult{
		NewQuantity: newQuantity,
		Transaction: txn,
	}, nil
}
