package batch

import (
	"bytes"
	"context"
	"io"
	"sync"

	"github.com/stretchr/testify/mock"

	"github.com/tuanvumaihuynh/product-catalog/internal/model"
	"github.com/tuanvumaihuynh/product-catalog/internal/service"
	"github.com/tuanvumaihuynh/product-catalog/internal/storage/objectstore"
)

type mockProductService struct {
	mock.Mock
}

var _ service.ProductService = (*mockProductService)(nil)

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

// memObjects is an in-memory bucket for both import and export tests.
type memObjects struct {
	mu      sync.Mutex
	objects map[string][]byte
	putErr  error
	events  chan objectstore.ObjectCreated
}

func newMemObjects() *memObjects {
	return &memObjects{
		objects: map[string][]byte{},
		events:  make(chan objectstore.ObjectCreated, 10),
	}
}

func (m *memObjects) GetObject(_ context.Context, bucket, key string) (io.ReadCloser, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	data, ok := m.objects[bucket+"/"+key]
	if !ok {
		return nil, io.ErrUnexpectedEOF
	}
	return io.NopCloser(bytes.NewReader(data)), nil
}

func (m *memObjects) ListenObjectCreated(ctx context.Context, _ string) <-chan objectstore.ObjectCreated {
	out := make(chan objectstore.ObjectCreated)
	go func() {
		defer close(out)
		for {
			select {
			case <-ctx.Done():
				return
			case obj := <-m.events:
				select {
				case out <- obj:
				case <-ctx.Done():
					return
				}
			}
		}
	}()
	return out
}

func (m *memObjects) PutObject(_ context.Context, bucket, key string, data []byte, _ string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.putErr != nil {
		return m.putErr
	}
	m.objects[bucket+"/"+key] = bytes.Clone(data)
	return nil
}

func (m *memObjects) put(bucket, key, data string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.objects[bucket+"/"+key] = []byte(data)
}

func (m *memObjects) snapshot() map[string][]byte {
	m.mu.Lock()
	defer m.mu.Unlock()
	res := make(map[string][]byte, len(m.objects))
	for k, v := range m.objects {
		res[k] = v
	}
	return res
}
