package http

import "github.com/tuanvumaihuynh/product-catalog/internal/model"

type messageResponse struct {
	Message string `json:"message"`
}

type healthResponse struct {
	Status string `json:"status"`
}

type listProductsResponse struct {
	Items  []model.Product `json:"items"`
	Status string          `json:"status"`
}

type lowestQuantityResponse struct {
	Product *model.Product `json:"product"`
}

type updateProductResponse struct {
	Message           string         `json:"message"`
	UpdatedAttributes map[string]any `json:"updatedAttributes"`
}

type adjustStockResponse struct {
	Message     string                     `json:"message"`
	NewQuantity string                     `json:"newQuantity"`
	Transaction model.InventoryTransaction `json:"transaction"`
}
