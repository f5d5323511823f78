// source: inventory_transactions.sql

package sqlc

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

const inventoryTransactionCreate = `-- name: InventoryTransactionCreate :exec
INSERT INTO inventory_transactions (id, product_id, created_at, quantity, remarks)
VALUES ($1, $2, $3, $4, $5)
`

type InventoryTransactionCreateParams struct {
	ID        uuid.UUID       `json:"id"`
	ProductID string          `json:"product_id"`
	CreatedAt time.Time       `json:"created_at"`
	Quantity  decimal.Decimal `json:"quantity"`
	Remarks   string          `json:"remarks"`
}

func (q *Queries) InventoryTransactionCreate(ctx context.Context, db DBTX, arg InventoryTransactionCreateParams) error {
	_, err := db.Exec(ctx, inventoryTransactionCreate,
		arg.ID,
		arg.ProductID,
		arg.CreatedAt,
		arg.Quantity,
		arg.Remarks,
	)
	return err
}

const inventoryTransactionListByProduct = `-- name: InventoryTransactionListByProduct :many
SELECT id, product_id, created_at, quantity, remarks FROM inventory_transactions WHERE product_id = $1 ORDER BY created_at, id
`

func (q *Queries) InventoryTransactionListByProduct(ctx context.Context, db DBTX, productID string) ([]InventoryTransaction, error) {
	rows, err := db.Query(ctx, inventoryTransactionListByProduct, productID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var items []InventoryTransaction
	for rows.Next() {
		var i InventoryTransaction
		if err := rows.Scan(
			&i.ID,
			&i.ProductID,
			&i.CreatedAt,
			&i.Quantity,
			&i.Remarks,
		); err != nil {
			return nil, err
		}
		items = append(items, i)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return items, nil
}
