// source: products.sql

package sqlc

import (
	"context"
	"encoding/json"
	"time"

	"github.com/shopspring/decimal"
)

const productAdjustQuantity = `-- name: ProductAdjustQuantity :one
UPDATE products
SET quantity   = quantity + $1,
    updated_at = $2
WHERE id = $3
  AND quantity + $1 >= 0
RETURNING quantity
`

type ProductAdjustQuantityParams struct {
	Delta     decimal.Decimal `json:"delta"`
	UpdatedAt time.Time       `json:"updated_at"`
	ID        string          `json:"id"`
}

func (q *Queries) ProductAdjustQuantity(ctx context.Context, db DBTX, arg ProductAdjustQuantityParams) (decimal.Decimal, error) {
	row := db.QueryRow(ctx, productAdjustQuantity, arg.Delta, arg.UpdatedAt, arg.ID)
	var quantity decimal.Decimal
	err := row.Scan(&quantity)
	return quantity, err
}

const productCreate = `-- name: ProductCreate :exec
INSERT INTO products (id, brand_name, product_name, price, quantity, attributes, created_at, updated_at)
VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
`

type ProductCreateParams struct {
	ID          string          `json:"id"`
	BrandName   string          `json:"brand_name"`
	ProductName string          `json:"product_name"`
	Price       decimal.Decimal `json:"price"`
	Quantity    decimal.Decimal `json:"quantity"`
	Attributes  json.RawMessage `json:"attributes"`
	CreatedAt   time.Time       `json:"created_at"`
	UpdatedAt   time.Time       `json:"updated_at"`
}

func (q *Queries) ProductCreate(ctx context.Context, db DBTX, arg ProductCreateParams) error {
	_, err := db.Exec(ctx, productCreate,
		arg.ID,
		arg.BrandName,
		arg.ProductName,
		arg.Price,
		arg.Quantity,
		arg.Attributes,
		arg.CreatedAt,
		arg.UpdatedAt,
	)
	return err
}

const productDelete = `-- name: ProductDelete :execrows
DELETE FROM products WHERE id = $1
`

func (q *Queries) ProductDelete(ctx context.Context, db DBTX, id string) (int64, error) {
	result, err := db.Exec(ctx, productDelete, id)
	if err != nil {
		return 0, err
	}
	return result.RowsAffected(), nil
}

const productGet = `-- name: ProductGet :one
SELECT id, brand_name, product_name, price, quantity, attributes, created_at, updated_at FROM products WHERE id = $1
`

func (q *Queries) ProductGet(ctx context.Context, db DBTX, id string) (Product, error) {
	row := db.QueryRow(ctx, productGet, id)
	var i Product
	err := row.Scan(
		&i.ID,
		&i.BrandName,
		&i.ProductName,
		&i.Price,
		&i.Quantity,
		&i.Attributes,
		&i.CreatedAt,
		&i.UpdatedAt,
	)
	return i, err
}

const productGetFirstByName = `-- name: ProductGetFirstByName :one
SELECT id, brand_name, product_name, price, quantity, attributes, created_at, updated_at FROM products WHERE product_name = $1 ORDER BY id LIMIT 1
`

func (q *Queries) ProductGetFirstByName(ctx context.Context, db DBTX, productName string) (Product, error) {
	row := db.QueryRow(ctx, productGetFirstByName, productName)
	var i Product
	err := row.Scan(
		&i.ID,
		&i.BrandName,
		&i.ProductName,
		&i.Price,
		&i.Quantity,
		&i.Attributes,
		&i.CreatedAt,
		&i.UpdatedAt,
	)
	return i, err
}

const productGetLowestQuantity = `-- name: ProductGetLowestQuantity :one
SELECT id, brand_name, product_name, price, quantity, attributes, created_at, updated_at FROM products ORDER BY quantity, id LIMIT 1
`

func (q *Queries) ProductGetLowestQuantity(ctx context.Context, db DBTX) (Product, error) {
	row := db.QueryRow(ctx, productGetLowestQuantity)
	var i Product
	err := row.Scan(
		&i.ID,
		&i.BrandName,
		&i.ProductName,
		&i.Price,
		&i.Quantity,
		&i.Attributes,
		&i.CreatedAt,
		&i.UpdatedAt,
	)
	return i, err
}

const productListAll = `-- name: ProductListAll :many
SELECT id, brand_name, product_name, price, quantity, attributes, created_at, updated_at FROM products ORDER BY id
`

func (q *Queries) ProductListAll(ctx context.Context, db DBTX) ([]Product, error) {
	rows, err := db.Query(ctx, productListAll)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var items []Product
	for rows.Next() {
		var i Product
		if err := rows.Scan(
			&i.ID,
			&i.BrandName,
			&i.ProductName,
			&i.Price,
			&i.Quantity,
			&i.Attributes,
			&i.CreatedAt,
			&i.UpdatedAt,
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

const productUpdate = `-- name: ProductUpdate :one
UPDATE products
SET brand_name   = COALESCE($1, brand_name),
    product_name = COALESCE($2, product_name),
    price        = COALESCE($3, price),
    attributes   = attributes || $4,
    updated_at   = $5
WHERE id = $6
RETURNING id, brand_name, product_name, price, quantity, attributes, created_at, updated_at
`

type ProductUpdateParams struct {
	BrandName   *string          `json:"brand_name"`
	ProductName *string          `json:"product_name"`
	Price       *decimal.Decimal `json:"price"`
	Attributes  json.RawMessage  `json:"attributes"`
	UpdatedAt   time.Time        `json:"updated_at"`
	ID          string           `json:"id"`
}

func (q *Queries) ProductUpdate(ctx context.Context, db DBTX, arg ProductUpdateParams) (Product, error) {
	row := db.QueryRow(ctx, productUpdate,
		arg.BrandName,
		arg.ProductName,
		arg.Price,
		arg.Attributes,
		arg.UpdatedAt,
		arg.ID,
	)
	var i Product
	err := row.Scan(
		&i.ID,
		&i.BrandName,
		&i.ProductName,
		&i.Price,
		&i.Quantity,
		&i.Attributes,
		&i.CreatedAt,
		&i.UpdatedAt,
	)
	return i, err
}
