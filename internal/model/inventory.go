package model

import (
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/tuanvumaihuynh/product-catalog/pkg/validator"
)

const (
	RemarkInitialStock = "initial stock"
	RemarkBatchImport  = "batch import"
)

// InventoryTransaction is an immutable signed stock delta recorded against a product.
type InventoryTransaction struct {
	ID        uuid.UUID       `json:"id"`
	ProductID string          `json:"productId"`
	Timestamp time.Time       `json:"timestamp"`
	Quantity  decimal.Decimal `json:"quantity"`
	Remarks   string          `json:"remarks"`
}

// SumQuantities returns the exact sum of the transaction deltas.
func SumQuantities(txns []InventoryTransaction) decimal.Decimal {
	total := decimal.Zero
	for _, txn := range txns {
		total = total.Add(txn.Quantity)
	}
	return total
}

// ParseQuantity parses a signed decimal quantity such as "10", "-3.2" or "+4".
// Values outside validator.DecimalInRange are rejected.
func ParseQuantity(s string) (decimal.Decimal, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return decimal.Decimal{}, fmt.Errorf("empty quantity")
	}
	s = strings.TrimPrefix(s, "+")

	d, err := decimal.NewFromString(s)
	if err != nil {
		return decimal.Decimal{}, fmt.Errorf("parse quantity %q: %w", s, err)
	}
	if !validator.DecimalInRange(d) {
		return decimal.Decimal{}, fmt.Errorf("quantity %q out of range", s)
	}
	return d, nil
}
