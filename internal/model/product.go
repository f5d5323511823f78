package model

import (
	"time"

	"github.com/shopspring/decimal"
)

type Product struct {
	ID          string          `json:"productId"`
	BrandName   string          `json:"brand_name"`
	ProductName string          `json:"product_name"`
	Price       decimal.Decimal `json:"price"`
	// Quantity is the cached stock level. It only changes through stock adjustments.
	Quantity   decimal.Decimal `json:"quantity"`
	Attributes map[string]any  `json:"attributes,omitempty"`
	CreatedAt  time.Time       `json:"created_at"`
	UpdatedAt  time.Time       `json:"updated_at"`
}

// ProductWithInventory is a product joined with its ledger.
//
// CurrentStock is derived from the ledger and may differ from Product.Quantity.
// When the ledger could not be read, InventoryError is set and CurrentStock and
// History are nil.
type ProductWithInventory struct {
	Product
	CurrentStock   *decimal.Decimal       `json:"currentStock,omitempty"`
	History        []InventoryTransaction `json:"history,omitempty"`
	InventoryError *string                `json:"inventoryError,omitempty"`
}
