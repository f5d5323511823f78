package event

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

const (
	TopicProductCreated    = "product.created"
	TopicProductUpdated    = "product.updated"
	TopicProductDeleted    = "product.deleted"
	TopicProductViewed     = "product.viewed"
	TopicInventoryAdjusted = "inventory.adjusted"
)

// Topics lists every topic the catalog publishes.
var Topics = []string{
	TopicProductCreated,
	TopicProductUpdated,
	TopicProductDeleted,
	TopicProductViewed,
	TopicInventoryAdjusted,
}

type ProductCreatedEvent struct {
	ProductID   string          `json:"productId"`
	BrandName   string          `json:"brand_name"`
	ProductName string          `json:"product_name"`
	Price       decimal.Decimal `json:"price"`
	Quantity    decimal.Decimal `json:"quantity"`
	Attributes  map[string]any  `json:"attributes,omitempty"`
}

type ProductUpdatedEvent struct {
	ProductID     string   `json:"productId"`
	FieldsChanged []string `json:"fields_changed"`
}

type ProductDeletedEvent struct {
	ProductID string `json:"productId"`
}

type ProductViewedEvent struct {
	ProductID string    `json:"productId"`
	ViewedAt  time.Time `json:"viewed_at"`
}

type InventoryAdjustedEvent struct {
	ProductID     string          `json:"productId"`
	TransactionID uuid.UUID       `json:"transaction_id"`
	Quantity      decimal.Decimal `json:"quantity"`
	NewQuantity   decimal.Decimal `json:"new_quantity"`
	Remarks       string          `json:"remarks"`
	Timestamp     time.Time       `json:"timestamp"`
}
