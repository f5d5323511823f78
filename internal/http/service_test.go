package http

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/tuanvumaihuynh/product-catalog/internal/apperr"
	"github.com/tuanvumaihuynh/product-catalog/internal/config"
	"github.com/tuanvumaihuynh/product-catalog/internal/model"
	"github.com/tuanvumaihuynh/product-catalog/internal/service"
	"github.com/tuanvumaihuynh/product-catalog/pkg/correlationid"
	"github.com/tuanvumaihuynh/product-catalog/pkg/validator"
)

type testServer struct {
	handler   http.Handler
	products  *mockProductService
	inventory *mockInventoryService
	healthy   bool
}

func newTestServer(t *testing.T) *testServer {
	t.Helper()

	v, err := validator.NewDefaultValidator()
	require.NoError(t, err)

	ts := &testServer{
		products:  &mockProductService{},
		inventory: &mockInventoryService{},
		healthy:   true,
	}
	health := healthFunc(func(context.Context) (bool, error) {
		if !ts.healthy {
			return false, errors.New("ping failed")
		}
		return true, nil
	})

	svc := New(
		config.HTTP{Swagger: true, CorsOrigins: []string{"*"}},
		slog.New(slog.NewTextHandler(io.Discard, nil)),
		prometheus.NewRegistry(),
		v,
		ts.products,
		ts.inventory,
		health,
	)

	ts.handler, err = svc.Router(context.Background())
	require.NoError(t, err)

	return ts
}

func (ts *testServer) do(method, target, body string, headers ...string) *httptest.ResponseRecorder {
	var reader io.Reader
	if body != "" {
		reader = strings.NewReader(body)
	}

	req := httptest.NewRequest(method, target, reader)
	req.Header.Set("Content-Type", "application/json")
	for i := 0; i+1 < len(headers); i += 2 {
		req.Header.Set(headers[i], headers[i+1])
	}

	resp := httptest.NewRecorder()
	ts.handler.ServeHTTP(resp, req)
	return resp
}

func decodeBody(t *testing.T, resp *httptest.ResponseRecorder) map[string]any {
	t.Helper()
	var body map[string]any
	require.NoError(t, json.Unmarshal(resp.Body.Bytes(), &body), resp.Body.String())
	return body
}

func testProduct(id string) model.Product {
	ts := time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC)
	return model.Product{
		ID:          id,
		BrandName:   "acme",
		ProductName: "widget",
		Price:       decimal.RequireFromString("9.99"),
		Quantity:    decimal.RequireFromString("7.3"),
		CreatedAt:   ts,
		UpdatedAt:   ts,
	}
}

func TestRouter(t *testing.T) {
	t.Run("Should return a json 404 for an unknown path", func(t *testing.T) {
		resp := newTestServer(t).do(http.MethodGet, "/unknown", "")

		assert.Equal(t, http.StatusNotFound, resp.Code)
		assert.Equal(t, map[string]any{"message": "Not Found"}, decodeBody(t, resp))
	})

	t.Run("Should return a json 405 for an unsupported method", func(t *testing.T) {
		resp := newTestServer(t).do(http.MethodPatch, "/products/p1", "")

		assert.Equal(t, http.StatusMethodNotAllowed, resp.Code)
		assert.Equal(t, map[string]any{"message": "Method Not Allowed"}, decodeBody(t, resp))
	})

	t.Run("Should echo a correlation id", func(t *testing.T) {
		ts := newTestServer(t)
		ts.products.On("ListAllProducts", mock.Anything).Return([]model.Product{}, nil)

		resp := ts.do(http.MethodGet, "/products", "", correlationid.Header, "corr-1")

		assert.Equal(t, "corr-1", resp.Header().Get(correlationid.Header))
	})

	t.Run("Should serve metrics", func(t *testing.T) {
		ts := newTestServer(t)
		ts.products.On("ListAllProducts", mock.Anything).Return([]model.Product{}, nil)
		ts.do(http.MethodGet, "/products", "")

		resp := ts.do(http.MethodGet, "/metrics", "")

		assert.Equal(t, http.StatusOK, resp.Code)
		assert.Contains(t, resp.Body.String(), "http_requests_total{")
		assert.Contains(t, resp.Body.String(), `status="200"`)
	})

	t.Run("Should report health", func(t *testing.T) {
		ts := newTestServer(t)

		resp := ts.do(http.MethodGet, "/healthz", "")
		assert.Equal(t, http.StatusOK, resp.Code)

		ts.healthy = false
		resp = ts.do(http.MethodGet, "/healthz", "")
		assert.Equal(t, http.StatusServiceUnavailable, resp.Code)
	})
}

func TestProductRoutes(t *testing.T) {
	t.Run("Should list products", func(t *testing.T) {
		ts := newTestServer(t)
		ts.products.On("ListAllProducts", mock.Anything).Return([]model.Product{testProduct("p1")}, nil)

		resp := ts.do(http.MethodGet, "/products", "")

		require.Equal(t, http.StatusOK, resp.Code)
		body := decodeBody(t, resp)
		assert.Equal(t, "success", body["status"])
		items := body["items"].([]any)
		require.Len(t, items, 1)
		assert.Equal(t, "7.3", items[0].(map[string]any)["quantity"])
	})

	t.Run("Should create a product keeping unknown keys as attributes", func(t *testing.T) {
		ts := newTestServer(t)
		ts.products.On("CreateProduct", mock.Anything, service.CreateProductParams{
			ID:          "p1",
			BrandName:   "acme",
			ProductName: "widget",
			Price:       decimal.RequireFromString("9.99"),
			Quantity:    decimal.RequireFromString("3"),
			Attributes:  map[string]any{"color": "red"},
		}).Return(testProduct("p1"), nil)

		resp := ts.do(http.MethodPost, "/products",
			`{"productId":"p1","brand_name":"acme","product_name":"widget","price":"9.99","quantity":3,"color":"red"}`)

		assert.Equal(t, http.StatusCreated, resp.Code)
		ts.products.AssertExpectations(t)
	})

	t.Run("Should reject a create body without brand", func(t *testing.T) {
		ts := newTestServer(t)

		resp := ts.do(http.MethodPost, "/products", `{"product_name":"widget"}`)

		assert.Equal(t, http.StatusBadRequest, resp.Code)
		assert.Equal(t, "VALIDATION_FAILED", decodeBody(t, resp)["code"])
		ts.products.AssertNotCalled(t, "CreateProduct", mock.Anything, mock.Anything)
	})

	t.Run("Should reject a create body with an out of range price", func(t *testing.T) {
		ts := newTestServer(t)

		resp := ts.do(http.MethodPost, "/products",
			`{"brand_name":"acme","product_name":"widget","price":1e400000000}`)

		assert.Equal(t, http.StatusBadRequest, resp.Code)
		assert.Equal(t, "VALIDATION_FAILED", decodeBody(t, resp)["code"])
		ts.products.AssertNotCalled(t, "CreateProduct", mock.Anything, mock.Anything)
	})

	t.Run("Should reject malformed json", func(t *testing.T) {
		resp := newTestServer(t).do(http.MethodPost, "/products", `{"brand_name":`)

		assert.Equal(t, http.StatusBadRequest, resp.Code)
		assert.Equal(t, apperr.InvalidRequestBodyCode, decodeBody(t, resp)["code"])
	})

	t.Run("Should get a product with its inventory", func(t *testing.T) {
		ts := newTestServer(t)
		stock := decimal.RequireFromString("7")
		ts.products.On("GetProductWithInventory", mock.Anything, "p1").Return(model.ProductWithInventory{
			Product:      testProduct("p1"),
			CurrentStock: &stock,
			History: []model.InventoryTransaction{{
				ID:        uuid.Nil,
				ProductID: "p1",
				Quantity:  stock,
				Remarks:   "restock",
			}},
		}, nil)

		resp := ts.do(http.MethodGet, "/products/p1", "")

		require.Equal(t, http.StatusOK, resp.Code)
		body := decodeBody(t, resp)
		assert.Equal(t, "7", body["currentStock"])
		assert.Len(t, body["history"], 1)
		assert.NotContains(t, body, "inventoryError")
	})

	t.Run("Should return 404 for an unknown product", func(t *testing.T) {
		ts := newTestServer(t)
		ts.products.On("GetProductWithInventory", mock.Anything, "missing").
			Return(model.ProductWithInventory{}, apperr.ProductNotFoundErr)

		resp := ts.do(http.MethodGet, "/products/missing", "")

		assert.Equal(t, http.StatusNotFound, resp.Code)
		assert.Equal(t, map[string]any{"error": "product not found", "code": apperr.ProductNotFoundCode}, decodeBody(t, resp))
	})

	t.Run("Should get a product by name", func(t *testing.T) {
		ts := newTestServer(t)
		ts.products.On("GetProductByName", mock.Anything, "widget").Return(testProduct("p1"), nil)

		resp := ts.do(http.MethodGet, "/products/by-name?product_name=widget", "")

		require.Equal(t, http.StatusOK, resp.Code)
		assert.Equal(t, "p1", decodeBody(t, resp)["productId"])
	})

	t.Run("Should return null for the lowest quantity of an empty catalog", func(t *testing.T) {
		ts := newTestServer(t)
		ts.products.On("GetLowestQuantityProduct", mock.Anything).Return((*model.Product)(nil), nil)

		resp := ts.do(http.MethodGet, "/products/lowest_quantity", "")

		require.Equal(t, http.StatusOK, resp.Code)
		assert.JSONEq(t, `{"product":null}`, resp.Body.String())
	})

	t.Run("Should update a product", func(t *testing.T) {
		ts := newTestServer(t)
		ts.products.On("UpdateProduct", mock.Anything, service.UpdateProductParams{
			ID:     "p1",
			Fields: map[string]any{"price": json.Number("10.50"), "color": "blue"},
		}).Return(testProduct("p1"), nil)

		resp := ts.do(http.MethodPut, "/products/p1", `{"price":10.50,"color":"blue"}`)

		require.Equal(t, http.StatusOK, resp.Code)
		body := decodeBody(t, resp)
		assert.Equal(t, "Product updated successfully", body["message"])
		assert.Equal(t, map[string]any{"price": 10.5, "color": "blue"}, body["updatedAttributes"])
	})

	t.Run("Should reject a quantity update", func(t *testing.T) {
		ts := newTestServer(t)
		ts.products.On("UpdateProduct", mock.Anything, mock.Anything).
			Return(model.Product{}, apperr.QuantityNotUpdatableErr)

		resp := ts.do(http.MethodPut, "/products/p1", `{"quantity":5}`)

		assert.Equal(t, http.StatusBadRequest, resp.Code)
		assert.Equal(t, apperr.QuantityNotUpdatableCode, decodeBody(t, resp)["code"])
	})

	t.Run("Should delete a product", func(t *testing.T) {
		ts := newTestServer(t)
		ts.products.On("DeleteProduct", mock.Anything, "p1").Return(nil)

		resp := ts.do(http.MethodDelete, "/products/p1", "")

		require.Equal(t, http.StatusOK, resp.Code)
		assert.Equal(t, "Product p1 deleted successfully", decodeBody(t, resp)["message"])
	})
}

func TestAdjustStockRoute(t *testing.T) {
	result := service.AdjustStockResult{
		NewQuantity: decimal.RequireFromString("7.3"),
		Transaction: model.InventoryTransaction{ProductID: "p1", Quantity: decimal.RequireFromString("-3.2")},
	}

	tests := []struct {
		name    string
		target  string
		body    string
		headers []string
		want    service.AdjustStockParams
	}{
		{
			name:   "query values",
			target: "/products/p1/inventory?quantity=-3.2&remarks=sale",
			want:   service.AdjustStockParams{ProductID: "p1", Quantity: "-3.2", Remarks: "sale"},
		},
		{
			name:   "body number",
			target: "/products/p1/inventory",
			body:   `{"quantity":-3.2,"remarks":"sale"}`,
			want:   service.AdjustStockParams{ProductID: "p1", Quantity: "-3.2", Remarks: "sale"},
		},
		{
			name:   "body string",
			target: "/products/p1/inventory",
			body:   `{"quantity":"-3.2"}`,
			want:   service.AdjustStockParams{ProductID: "p1", Quantity: "-3.2"},
		},
		{
			name:   "query wins over body",
			target: "/products/p1/inventory?quantity=5",
			body:   `{"quantity":1,"remarks":"from body"}`,
			want:   service.AdjustStockParams{ProductID: "p1", Quantity: "5", Remarks: "from body"},
		},
		{
			name:    "idempotency key",
			target:  "/products/p1/inventory?quantity=1",
			headers: []string{"Idempotency-Key", "req-1"},
			want:    service.AdjustStockParams{ProductID: "p1", Quantity: "1", IdempotencyKey: "req-1"},
		},
	}

	for _, tt := range tests {
		t.Run("Should read "+tt.name, func(t *testing.T) {
			ts := newTestServer(t)
			ts.inventory.On("AdjustStock", mock.Anything, tt.want).Return(result, nil)

			resp := ts.do(http.MethodPost, tt.target, tt.body, tt.headers...)

			require.Equal(t, http.StatusOK, resp.Code, resp.Body.String())
			body := decodeBody(t, resp)
			assert.Equal(t, "7.3", body["newQuantity"])
			assert.Equal(t, "-3.2", body["transaction"].(map[string]any)["quantity"])
			ts.inventory.AssertExpectations(t)
		})
	}

	t.Run("Should map insufficient stock to 400", func(t *testing.T) {
		ts := newTestServer(t)
		ts.inventory.On("AdjustStock", mock.Anything, mock.Anything).
			Return(service.AdjustStockResult{}, apperr.InsufficientStockErr)

		resp := ts.do(http.MethodPost, "/products/p1/inventory?quantity=-20", "")

		assert.Equal(t, http.StatusBadRequest, resp.Code)
		assert.Equal(t, map[string]any{
			"error": "cannot reduce below zero",
			"code":  apperr.InsufficientStockCode,
		}, decodeBody(t, resp))
	})

	t.Run("Should reject a non numeric body quantity", func(t *testing.T) {
		ts := newTestServer(t)

		resp := ts.do(http.MethodPost, "/products/p1/inventory", `{"quantity":true}`)

		assert.Equal(t, http.StatusBadRequest, resp.Code)
		assert.Equal(t, apperr.InvalidQuantityCode, decodeBody(t, resp)["code"])
		ts.inventory.AssertNotCalled(t, "AdjustStock", mock.Anything, mock.Anything)
	})
}
