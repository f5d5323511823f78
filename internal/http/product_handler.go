package http

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/oapi-codegen/runtime"
	"github.com/shopspring/decimal"

	"github.com/tuanvumaihuynh/product-catalog/internal/apperr"
	"github.com/tuanvumaihuynh/product-catalog/internal/service"
	"github.com/tuanvumaihuynh/product-catalog/pkg/validator"
)

const (
	idempotencyKeyHeader = "Idempotency-Key"
	maxBodyBytes         = 1 << 20
)

type createProductRequest struct {
	ProductID   string          `json:"productId"`
	BrandName   string          `json:"brand_name" validate:"required"`
	ProductName string          `json:"product_name" validate:"required"`
	Price       decimal.Decimal `json:"price" validate:"decimal_gte0"`
	Quantity    decimal.Decimal `json:"quantity" validate:"decimal_gte0"`
	Attributes  map[string]any  `json:"attributes"`
}

var createProductFields = map[string]struct{}{
	"productId":    {},
	"brand_name":   {},
	"product_name": {},
	"price":        {},
	"quantity":     {},
	"attributes":   {},
}

type adjustStockRequest struct {
	// Quantity is a JSON number or string.
	Quantity json.RawMessage `json:"quantity"`
	Remarks  string          `json:"remarks"`
}

type productHandler struct {
	validator    validator.Validator
	productSvc   service.ProductService
	inventorySvc service.InventoryService
}

func newProductHandler(
	validator validator.Validator,
	productSvc service.ProductService,
	inventorySvc service.InventoryService,
) *productHandler {
	return &productHandler{
		validator:    validator,
		productSvc:   productSvc,
		inventorySvc: inventorySvc,
	}
}

func (h *productHandler) ListProducts(w http.ResponseWriter, r *http.Request) error {
	products, err := h.productSvc.ListAllProducts(r.Context())
	if err != nil {
		return fmt.Errorf("product service list all products: %w", err)
	}

	writeJSON(w, http.StatusOK, listProductsResponse{Items: products, Status: "success"})
	return nil
}

func (h *productHandler) CreateProduct(w http.ResponseWriter, r *http.Request) error {
	body, err := readBody(w, r)
	if err != nil {
		return err
	}

	var req createProductRequest
	if err := json.Unmarshal(body, &req); err != nil {
		return apperr.InvalidRequestBodyErr.WrapParent(err)
	}
	if err := h.validator.Validate(req); err != nil {
		return err
	}

	// unknown top-level keys are kept as attributes
	var raw map[string]any
	if err := decodeJSON(body, &raw); err != nil {
		return apperr.InvalidRequestBodyErr.WrapParent(err)
	}
	attrs := req.Attributes
	for k, v := range raw {
		if _, known := createProductFields[k]; known {
			continue
		}
		if attrs == nil {
			attrs = map[string]any{}
		}
		attrs[k] = v
	}

	product, err := h.productSvc.CreateProduct(r.Context(), service.CreateProductParams{
		ID:          req.ProductID,
		BrandName:   req.BrandName,
		ProductName: req.ProductName,
		Price:       req.Price,
		Quantity:    req.Quantity,
		Attributes:  attrs,
	})
	if err != nil {
		return fmt.Errorf("product service create product: %w", err)
	}

	writeJSON(w, http.StatusCreated, product)
	return nil
}

func (h *productHandler) GetProduct(w http.ResponseWriter, r *http.Request) error {
	product, err := h.productSvc.GetProductWithInventory(r.Context(), chi.URLParam(r, "productId"))
	if err != nil {
		return fmt.Errorf("product service get product with inventory: %w", err)
	}

	writeJSON(w, http.StatusOK, product)
	return nil
}

func (h *productHandler) GetProductByName(w http.ResponseWriter, r *http.Request) error {
	var name string
	if err := runtime.BindQueryParameter("form", true, false, "product_name", r.URL.Query(), &name); err != nil {
		return apperr.ValidationErr.WrapParent(err)
	}

	product, err := h.productSvc.GetProductByName(r.Context(), name)
	if err != nil {
		return fmt.Errorf("product service get product by name: %w", err)
	}

	writeJSON(w, http.StatusOK, product)
	return nil
}

func (h *productHandler) GetLowestQuantityProduct(w http.ResponseWriter, r *http.Request) error {
	product, err := h.productSvc.GetLowestQuantityProduct(r.Context())
	if err != nil {
		return fmt.Errorf("product service get lowest quantity product: %w", err)
	}

	writeJSON(w, http.StatusOK, lowestQuantityResponse{Product: product})
	return nil
}

func (h *productHandler) UpdateProduct(w http.ResponseWriter, r *http.Request) error {
	body, err := readBody(w, r)
	if err != nil {
		return err
	}

	var fields map[string]any
	if len(bytes.TrimSpace(body)) > 0 {
		if err := decodeJSON(body, &fields); err != nil {
			return apperr.InvalidRequestBodyErr.WrapParent(err)
		}
	}

	if _, err := h.productSvc.UpdateProduct(r.Context(), service.UpdateProductParams{
		ID:     chi.URLParam(r, "productId"),
		Fields: fields,
	}); err != nil {
		return fmt.Errorf("product service update product: %w", err)
	}

	writeJSON(w, http.StatusOK, updateProductResponse{
		Message:           "Product updated successfully",
		UpdatedAttributes: fields,
	})
	return nil
}

func (h *productHandler) DeleteProduct(w http.ResponseWriter, r *http.Request) error {
	id := chi.URLParam(r, "productId")
	if err := h.productSvc.DeleteProduct(r.Context(), id); err != nil {
		return fmt.Errorf("product service delete product: %w", err)
	}

	writeJSON(w, http.StatusOK, messageResponse{Message: fmt.Sprintf("Product %s deleted successfully", id)})
	return nil
}

// AdjustStock reads quantity and remarks from the query string first and falls
// back to the JSON body for whichever is empty.
func (h *productHandler) AdjustStock(w http.ResponseWriter, r *http.Request) error {
	var quantity, remarks string
	query := r.URL.Query()
	if err := runtime.BindQueryParameter("form", true, false, "quantity", query, &quantity); err != nil {
		return apperr.ValidationErr.WrapParent(err)
	}
	if err := runtime.BindQueryParameter("form", true, false, "remarks", query, &remarks); err != nil {
		return apperr.ValidationErr.WrapParent(err)
	}

	body, err := readBody(w, r)
	if err != nil {
		return err
	}
	if len(bytes.TrimSpace(body)) > 0 {
		var req adjustStockRequest
		if err := json.Unmarshal(body, &req); err != nil {
			return apperr.InvalidRequestBodyErr.WrapParent(err)
		}

		if quantity == "" {
			if quantity, err = rawQuantity(req.Quantity); err != nil {
				return apperr.InvalidQuantityErr.WrapParent(err)
			}
		}
		if remarks == "" {
			remarks = req.Remarks
		}
	}

	res, err := h.inventorySvc.AdjustStock(r.Context(), service.AdjustStockParams{
		ProductID:      chi.URLParam(r, "productId"),
		Quantity:       quantity,
		Remarks:        remarks,
		IdempotencyKey: r.Header.Get(idempotencyKeyHeader),
	})
	if err != nil {
		return fmt.Errorf("inventory service adjust stock: %w", err)
	}

	writeJSON(w, http.StatusOK, adjustStockResponse{
		Message:     "Stock adjusted successfully",
		NewQuantity: res.NewQuantity.String(),
		Transaction: res.Transaction,
	})
	return nil
}

func readBody(w http.ResponseWriter, r *http.Request) ([]byte, error) {
	body, err := io.ReadAll(http.MaxBytesReader(w, r.Body, maxBodyBytes))
	if err != nil {
		return nil, apperr.InvalidRequestBodyErr.WrapParent(err)
	}

	return body, nil
}

// decodeJSON keeps numbers as json.Number so decimals are not rounded through float64.
func decodeJSON(body []byte, v any) error {
	dec := json.NewDecoder(bytes.NewReader(body))
	dec.UseNumber()
	if err := dec.Decode(v); err != nil {
		return err
	}
	if dec.More() {
		return errors.New("unexpected data after JSON value")
	}

	return nil
}

// rawQuantity returns the text of a JSON number or the content of a JSON string.
func rawQuantity(raw json.RawMessage) (string, error) {
	raw = bytes.TrimSpace(raw)
	if len(raw) == 0 || bytes.Equal(raw, []byte("null")) {
		return "", nil
	}

	if raw[0] == '"' {
		var s string
		if err := json.Unmarshal(raw, &s); err != nil {
			return "", err
		}
		return s, nil
	}

	var n json.Number
	if err := json.Unmarshal(raw, &n); err != nil {
		return "", err
	}
	return n.String(), nil
}
