package repository

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/shopspring/decimal"

	"github.com/tuanvumaihuynh/product-catalog/internal/model"
	"github.com/tuanvumaihuynh/product-catalog/internal/storage/db"
	"github.com/tuanvumaihuynh/product-catalog/internal/storage/db/sqlc"
)

var (
	ErrNotFound        = errors.New("record not found")
	ErrAlreadyExists   = errors.New("record already exists")
	ErrConditionNotMet = errors.New("update condition not met")
)

type UpdateProductParams struct {
	ID          string
	BrandName   *string
	ProductName *string
	Price       *decimal.Decimal
	Attributes  map[string]any
	UpdatedAt   time.Time
}

type AdjustQuantityParams struct {
	ID        string
	Delta     decimal.Decimal
	UpdatedAt time.Time
}

type ProductRepository interface {
	WithDB(db db.DB) ProductRepository
	CreateProduct(ctx context.Context, product model.Product) error
	GetProduct(ctx context.Context, id string) (model.Product, error)
	GetFirstProductByName(ctx context.Context, name string) (model.Product, error)
	ListAllProducts(ctx context.Context) ([]model.Product, error)
	// GetLowestQuantityProduct returns nil when the catalog is empty.
	GetLowestQuantityProduct(ctx context.Context) (*model.Product, error)
	UpdateProduct(ctx context.Context, params UpdateProductParams) (model.Product, error)
	// AdjustQuantity atomically adds Delta to the cached quantity. It returns
	// ErrConditionNotMet when the product is missing or the result would be negative.
	AdjustQuantity(ctx context.Context, params AdjustQuantityParams) (decimal.Decimal, error)
	DeleteProduct(ctx context.Context, id string) error
}

type productRepository struct {
	db      db.DB
	queries sqlc.Queries
}

func NewProductRepository(db db.DB, queries sqlc.Queries) ProductRepository {
	return &productRepository{
		db:      db,
		queries: queries,
	}
}

func (r productRepository) WithDB(db db.DB) ProductRepository {
	return &productRepository{
		db:      db,
		queries: r.queries,
	}
}

func (r productRepository) CreateProduct(ctx context.Context, product model.Product) error {
	attrs, err := marshalAttributes(product.Attributes)
	if err != nil {
		return err
	}

	if err := r.queries.ProductCreate(ctx, r.db, sqlc.ProductCreateParams{
		ID:          product.ID,
		BrandName:   product.BrandName,
		ProductName: product.ProductName,
		Price:       product.Price,
		Quantity:    product.Quantity,
		Attributes:  attrs,
		CreatedAt:   product.CreatedAt,
		UpdatedAt:   product.UpdatedAt,
	}); err != nil {
		if db.IsPgError(err, db.UniqueViolation) {
			return ErrAlreadyExists
		}
		return fmt.Errorf("create product: %w", err)
	}

	return nil
}

func (r productRepository) GetProduct(ctx context.Context, id string) (model.Product, error) {
	product, err := r.queries.ProductGet(ctx, r.db, id)
	if err != nil {
		if db.IsNoRows(err) {
			return model.Product{}, ErrNotFound
		}
		return model.Product{}, fmt.Errorf("get product: %w", err)
	}

	return sqlcProductToModelProduct(product)
}

func (r productRepository) GetFirstProductByName(ctx context.Context, name string) (model.Product, error) {
	product, err := r.queries.ProductGetFirstByName(ctx, r.db, name)
	if err != nil {
		if db.IsNoRows(err) {
			return model.Product{}, ErrNotFound
		}
		return model.Product{}, fmt.Errorf("get first product by name: %w", err)
	}

	return sqlcProductToModelProduct(product)
}

func (r productRepository) ListAllProducts(ctx context.Context) ([]model.Product, error) {
	products, err := r.queries.ProductListAll(ctx, r.db)
	if err != nil {
		return nil, fmt.Errorf("list all products: %w", err)
	}

	modelProducts := make([]model.Product, 0, len(products))
	for _, product := range products {
		modelProduct, err := sqlcProductToModelProduct(product)
		if err != nil {
			return nil, fmt.Errorf("convert product to model product: %w", err)
		}
		modelProducts = append(modelProducts, modelProduct)
	}

	return modelProducts, nil
}

func (r productRepository) GetLowestQuantityProduct(ctx context.Context) (*model.Product, error) {
	product, err := r.queries.ProductGetLowestQuantity(ctx, r.db)
	if err != nil {
		if db.IsNoRows(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("get lowest quantity product: %w", err)
	}

	modelProduct, err := sqlcProductToModelProduct(product)
	if err != nil {
		return nil, err
	}

	return &modelProduct, nil
}

func (r productRepository) UpdateProduct(ctx context.Context, params UpdateProductParams) (model.Product, error) {
	attrs, err := marshalAttributes(params.Attributes)
	if err != nil {
		return model.Product{}, err
	}

	product, err := r.queries.ProductUpdate(ctx, r.db, sqlc.ProductUpdateParams{
		BrandName:   params.BrandName,
		ProductName: params.ProductName,
		Price:       params.Price,
		Attributes:  attrs,
		UpdatedAt:   params.UpdatedAt,
		ID:          params.ID,
	})
	if err != nil {
		if db.IsNoRows(err) {
			return model.Product{}, ErrNotFound
		}
		return model.Product{}, fmt.Errorf("update product: %w", err)
	}

	return sqlcProductToModelProduct(product)
}

func (r productRepository) AdjustQuantity(ctx context.Context, params AdjustQuantityParams) (decimal.Decimal, error) {
	quantity, err := r.queries.ProductAdjustQuantity(ctx, r.db, sqlc.ProductAdjustQuantityParams{
		Delta:     params.Delta,
		UpdatedAt: params.UpdatedAt,
		ID:        params.ID,
	})
	if err != nil {
		if db.IsNoRows(err) || db.IsPgError(err, db.CheckViolation) {
			return decimal.Decimal{}, ErrConditionNotMet
		}
		return decimal.Decimal{}, fmt.Errorf("adjust product quantity: %w", err)
	}

	return quantity, nil
}

func (r productRepository) DeleteProduct(ctx context.Context, id string) error {
	rows, err := r.queries.ProductDelete(ctx, r.db, id)
	if err != nil {
		return fmt.Errorf("delete product: %w", err)
	}
	if rows == 0 {
		return ErrNotFound
	}

	return nil
}

func sqlcProductToModelProduct(product sqlc.Product) (model.Product, error) {
	var attrs map[string]any
	if len(product.Attributes) > 0 {
		if err := json.Unmarshal(product.Attributes, &attrs); err != nil {
			return model.Product{}, fmt.Errorf("unmarshal attributes: %w", err)
		}
	}
	if len(attrs) == 0 {
		attrs = nil
	}

	return model.Product{
		ID:          product.ID,
		BrandName:   product.BrandName,
		ProductName: product.ProductName,
		Price:       product.Price,
		Quantity:    product.Quantity,
		Attributes:  attrs,
		CreatedAt:   product.CreatedAt,
		UpdatedAt:   product.UpdatedAt,
	}, nil
}

func marshalAttributes(attrs map[string]any) (json.RawMessage, error) {
	if len(attrs) == 0 {
		return json.RawMessage("{}"), nil
	}

	b, err := json.Marshal(attrs)
	if err != nil {
		return nil, fmt.Errorf("marshal attributes: %w", err)
	}

	return b, nil
}
