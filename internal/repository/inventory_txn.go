package repository

import (
	"context"
	"fmt"

	"github.com/tuanvumaihuynh/product-catalog/internal/model"
	"github.com/tuanvumaihuynh/product-catalog/internal/storage/db"
	"github.com/tuanvumaihuynh/product-catalog/internal/storage/db/sqlc"
)

// InventoryTxnRepository is the append-only inventory ledger.
type InventoryTxnRepository interface {
	WithDB(db db.DB) InventoryTxnRepository
	CreateInventoryTxn(ctx context.Context, txn model.InventoryTransaction) error
	ListInventoryTxnsByProduct(ctx context.Context, productID string) ([]model.InventoryTransaction, error)
}

type inventoryTxnRepository struct {
	db      db.DB
	queries sqlc.Queries
}

func NewInventoryTxnRepository(db db.DB, queries sqlc.Queries) InventoryTxnRepository {
	return &inventoryTxnRepository{
		db:      db,
		queries: queries,
	}
}

func (r inventoryTxnRepository) WithDB(db db.DB) InventoryTxnRepository {
	return &inventoryTxnRepository{
		db:      db,
		queries: r.queries,
	}
}

func (r inventoryTxnRepository) CreateInventoryTxn(ctx context.Context, txn model.InventoryTransaction) error {
	if err := r.queries.InventoryTransactionCreate(ctx, r.db, sqlc.InventoryTransactionCreateParams{
		ID:        txn.ID,
		ProductID: txn.ProductID,
		CreatedAt: txn.Timestamp,
		Quantity:  txn.Quantity,
		Remarks:   txn.Remarks,
	}); err != nil {
		return fmt.Errorf("create inventory transaction: %w", err)
	}

	return nil
}

func (r inventoryTxnRepository) ListInventoryTxnsByProduct(ctx context.Context, productID string) ([]model.InventoryTransaction, error) {
	txns, err := r.queries.InventoryTransactionListByProduct(ctx, r.db, productID)
	if err != nil {
		return nil, fmt.Errorf("list inventory transactions by product: %w", err)
	}

	results := make([]model.InventoryTransaction, 0, len(txns))
	for _, txn := range txns {
		results = append(results, model.InventoryTransaction{
			ID:        txn.ID,
			ProductID: txn.ProductID,
			Timestamp: txn.CreatedAt,
			Quantity:  txn.Quantity,
			Remarks:   txn.Remarks,
		})
	}

	return results, nil
}
