package http

import (
	"context"

	"github.com/stretchr/testify/mock"

	"github.com/tuanvumaihuynh/product-catalog/internal/model"
	"github.com/tuanvumaihuynh/product-catalog/internal/service"
)

type mockProductService struct {
	mock.Mock
}

func (m *mockProductService) CreateProduct(ctx context.Context, params service.CreateProductParams) (model.Product, error) {
	args := m.Called(ctx, params)
	return args.Get(0).(model.Product), args.Error(1)
}

func (m *mockProductService) ListAllProducts(ctx context.Context) ([]model.Product, error) {
	args := m.Called(ctx)
	return args.Get(0).([]model.Product), args.Error(1)
}

func (m *mockProductService) GetProduct(ctx context.Context, id string) (model.Product, error) {
	args := m.Called(ctx, id)
	return args.Get(0).(model.Product), args.Error(1)
}

func (m *mockProductService) GetProductWithInventory(ctx context.Context, id string) (model.ProductWithInventory, error) {
	args := m.Called(ctx, id)
	return args.Get(0).(model.ProductWithInventory), args.Error(1)
}

func (m *mockProductService) GetProductByName(ctx context.Context, name string) (model.Product, error) {
	args := m.Called(ctx, name)
	return args.Get(0).(model.Product), args.Error(1)
}

func (m *mockProductService) GetLowestQuantityProduct(ctx context.Context) (*model.Product, error) {
	args := m.Called(ctx)
	return args.Get(0).(*model.Product), args.Error(1)
}

func (m *mockProductService) UpdateProduct(ctx context.Context, params service.UpdateProductParams) (model.Product, error) {
	args := m.Called(ctx, params)
	return args.Get(0).(model.Product), args.Error(1)
}

func (m *mockProductService) DeleteProduct(ctx context.Context, id string) error {
	args := m.Called(ctx, id)
	return args.Error(0)
}

type mockInventoryService struct {
	mock.Mock
}

func (m *mockInventoryService) AdjustStock(ctx context.Context, params service.AdjustStockParams) (service.AdjustStockResult, error) {
	args := m.Called(ctx, params)
	return args.Get(0).(service.AdjustStockResult), args.Error(1)
}

type healthFunc func(ctx context.Context) (bool, error)

func (f healthFunc) IsHealthy(ctx context.Context) (bool, error) { return f(ctx) }
