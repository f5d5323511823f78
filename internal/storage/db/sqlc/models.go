package sqlc

import (
	"encoding/json"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

type InventoryTransaction struct {
	ID        uuid.UUID       `json:"id"`
	ProductID string          `json:"product_id"`
	CreatedAt time.Time       `json:"created_at"`
	Quantity  decimal.Decimal `json:"quantity"`
	Remarks   string          `json:"remarks"`
}

type OutboxMessage struct {
	ID           uuid.UUID        `json:"id"`
	Topic        string           `json:"topic"`
	Headers      *json.RawMessage `json:"headers"`
	Payload      json.RawMessage  `json:"payload"`
	PartitionKey *string          `json:"partition_key"`
	CreatedAt    time.Time        `json:"created_at"`
	ProcessedAt  *time.Time       `json:"processed_at"`
	Error        *string          `json:"error"`
}

type Product struct {
	ID          string          `json:"id"`
	BrandName   string          `json:"brand_name"`
	ProductName string          `json:"product_name"`
	Price       decimal.Decimal `json:"price"`
	Quantity    decimal.Decimal `json:"quantity"`
	Attributes  json.RawMessage `json:"attributes"`
	CreatedAt   time.Time       `json:"created_at"`
	UpdatedAt   time.Time       `json:"updated_at"`
}
