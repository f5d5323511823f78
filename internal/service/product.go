package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/tuanvumaihuynh/product-catalog/internal/apperr"
	"github.com/tuanvumaihuynh/product-catalog/internal/event"
	"github.com/tuanvumaihuynh/product-catalog/internal/model"
	"github.com/tuanvumaihuynh/product-catalog/internal/repository"
	"github.com/tuanvumaihuynh/product-catalog/internal/storage/db"
	"github.com/tuanvumaihuynh/product-catalog/pkg/ptr"
)

type CreateProductParams struct {
	// ID is generated when empty.
	ID          string
	BrandName   string
	ProductName string
	Price       decimal.Decimal
	// Quantity is the initial stock. It is recorded as the first ledger entry.
	Quantity   decimal.Decimal
	Attributes map[string]any
}

type UpdateProductParams struct {
	ID string
	// Fields holds the decoded request body. Known columns are updated in place,
	// everything else is merged into the product attributes.
	Fields map[string]any
}

type ProductService interface {
	CreateProduct(ctx context.Context, params CreateProductParams) (model.Product, error)
	ListAllProducts(ctx context.Context) ([]model.Product, error)
	GetProduct(ctx context.Context, id string) (model.Product, error)
	GetProductWithInventory(ctx context.Context, id string) (model.ProductWithInventory, error)
	GetProductByName(ctx context.Context, name string) (model.Product, error)
	GetLowestQuantityProduct(ctx context.Context) (*model.Product, error)
	UpdateProduct(ctx context.Context, params UpdateProductParams) (model.Product, error)
	DeleteProduct(ctx context.Context, id string) error
}

type productService struct {
	logger           *slog.Logger
	auditLogger      *slog.Logger
	db               db.DB
	productRepo      repository.ProductRepository
	inventoryTxnRepo repository.InventoryTxnRepository
	outboxMsgRepo    repository.OutboxMsgRepository
}

func NewProductService(
	logger *slog.Logger,
	auditLogger *slog.Logger,
	db db.DB,
	productRepo repository.ProductRepository,
	inventoryTxnRepo repository.InventoryTxnRepository,
	outboxMsgRepo repository.OutboxMsgRepository,
) ProductService {
	return &productService{
		logger:           logger.With(slog.String("service", "product")),
		auditLogger:      auditLogger,
		db:               db,
		productRepo:      productRepo,
		inventoryTxnRepo: inventoryTxnRepo,
		outboxMsgRepo:    outboxMsgRepo,
	}
}

func (s *productService) CreateProduct(ctx context.Context, params CreateProductParams) (model.Product, error) {
	if params.Quantity.IsNegative() {
		return model.Product{}, apperr.InvalidQuantityErr.WithMsg("quantity must not be negative")
	}
	if params.Price.IsNegative() {
		return model.Product{}, apperr.ValidationErr.WithMsg("price must not be negative")
	}

	id := params.ID
	if id == "" {
		uid, err := uuid.NewV7()
		if err != nil {
			return model.Product{}, fmt.Errorf("generate uuid v7: %w", err)
		}
		id = uid.String()
	}

	now := time.Now().UTC()
	product := model.Product{
		ID:          id,
		BrandName:   params.BrandName,
		ProductName: params.ProductName,
		Price:       params.Price,
		Quantity:    params.Quantity,
		Attributes:  params.Attributes,
		CreatedAt:   now,
		UpdatedAt:   now,
	}

	if err := s.db.WithTx(ctx, func(db db.DB) error {
		if err := s.productRepo.
			WithDB(db).
			CreateProduct(ctx, product); err != nil {
			if errors.Is(err, repository.ErrAlreadyExists) {
				return apperr.ProductExistsErr
			}
			return fmt.Errorf("product repository create product: %w", err)
		}

		if product.Quantity.IsPositive() {
			txnID, err := uuid.NewV7()
			if err != nil {
				return fmt.Errorf("generate uuid v7: %w", err)
			}

			if err := s.inventoryTxnRepo.
				WithDB(db).
				CreateInventoryTxn(ctx, model.InventoryTransaction{
					ID:        txnID,
					ProductID: product.ID,
					Timestamp: now.Truncate(time.Second),
					Quantity:  product.Quantity,
					Remarks:   model.RemarkInitialStock,
				}); err != nil {
				return fmt.Errorf("inventory txn repository create inventory txn: %w", err)
			}
		}

		return publishEvent(ctx, s.outboxMsgRepo.WithDB(db), event.TopicProductCreated, product.ID,
			event.ProductCreatedEvent{
				ProductID:   product.ID,
				BrandName:   product.BrandName,
				ProductName: product.ProductName,
				Price:       product.Price,
				Quantity:    product.Quantity,
				Attributes:  product.Attributes,
			})
	}); err != nil {
		return model.Product{}, fmt.Errorf("db with tx: %w", err)
	}

	s.auditLogger.InfoContext(ctx, fmt.Sprintf("Product created: %s", product.ID),
		slog.String("product_id", product.ID))

	return product, nil
}

func (s *productService) ListAllProducts(ctx context.Context) ([]model.Product, error) {
	products, err := s.productRepo.ListAllProducts(ctx)
	if err != nil {
		return nil, fmt.Errorf("product repository list all products: %w", err)
	}

	return products, nil
}

func (s *productService) GetProduct(ctx context.Context, id string) (model.Product, error) {
	product, err := s.productRepo.GetProduct(ctx, id)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return model.Product{}, apperr.ProductNotFoundErr
		}
		return model.Product{}, fmt.Errorf("product repository get product: %w", err)
	}

	return product, nil
}

func (s *productService) GetProductWithInventory(ctx context.Context, id string) (model.ProductWithInventory, error) {
	product, err := s.GetProduct(ctx, id)
	if err != nil {
		return model.ProductWithInventory{}, err
	}

	res := model.ProductWithInventory{Product: product}

	txns, err := s.inventoryTxnRepo.ListInventoryTxnsByProduct(ctx, id)
	if err != nil {
		// the catalog record is still useful without its ledger
		s.logger.WarnContext(ctx, "error loading inventory history",
			slog.String("product_id", id), slog.Any("error", err))
		res.InventoryError = ptr.New(apperr.InventoryUnavailableErr.Msg())
	} else {
		res.CurrentStock = ptr.New(model.SumQuantities(txns))
		res.History = txns
	}

	if err := publishEvent(ctx, s.outboxMsgRepo, event.TopicProductViewed, id, event.ProductViewedEvent{
		ProductID: id,
		ViewedAt:  time.Now().UTC(),
	}); err != nil {
		s.logger.WarnContext(ctx, "error publishing product viewed event",
			slog.String("product_id", id), slog.Any("error", err))
	}

	return res, nil
}

// GetProductByName returns the product with the lowest id among those named name.
func (s *productService) GetProductByName(ctx context.Context, name string) (model.Product, error) {
	if name == "" {
		return model.Product{}, apperr.ProductNameRequiredErr
	}

	product, err := s.productRepo.GetFirstProductByName(ctx, name)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return model.Product{}, apperr.ProductNotFoundErr
		}
		return model.Product{}, fmt.Errorf("product repository get first product by name: %w", err)
	}

	return product, nil
}

func (s *productService) GetLowestQuantityProduct(ctx context.Context) (*model.Product, error) {
	product, err := s.productRepo.GetLowestQuantityProduct(ctx)
	if err != nil {
		return nil, fmt.Errorf("product repository get lowest quantity product: %w", err)
	}

	return product, nil
}

func (s *productService) UpdateProduct(ctx context.Context, params UpdateProductParams) (model.Product, error) {
	changes, err := parseProductChanges(params.ID, params.Fields)
	if err != nil {
		return model.Product{}, err
	}

	var product model.Product
	if err := s.db.WithTx(ctx, func(db db.DB) error {
		product, err = s.productRepo.
			WithDB(db).
			UpdateProduct(ctx, repository.UpdateProductParams{
				ID:          params.ID,
				BrandName:   changes.brandName,
				ProductName: changes.productName,
				Price:       changes.price,
				Attributes:  changes.attributes,
				UpdatedAt:   time.Now().UTC(),
			})
		if err != nil {
			if errors.Is(err, repository.ErrNotFound) {
				return apperr.ProductNotFoundErr
			}
			return fmt.Errorf("product repository update product: %w", err)
		}

		return publishEvent(ctx, s.outboxMsgRepo.WithDB(db), event.TopicProductUpdated, params.ID,
			event.ProductUpdatedEvent{
				ProductID:     params.ID,
				FieldsChanged: changes.fields,
			})
	}); err != nil {
		return model.Product{}, fmt.Errorf("db with tx: %w", err)
	}

	return product, nil
}

// DeleteProduct removes the catalog record. Its ledger entries are kept.
func (s *productService) DeleteProduct(ctx context.Context, id string) error {
	if err := s.db.WithTx(ctx, func(db db.DB) error {
		if err := s.productRepo.
			WithDB(db).
			DeleteProduct(ctx, id); err != nil {
			if errors.Is(err, repository.ErrNotFound) {
				return apperr.ProductNotFoundErr
			}
			return fmt.Errorf("product repository delete product: %w", err)
		}

		return publishEvent(ctx, s.outboxMsgRepo.WithDB(db), event.TopicProductDeleted, id,
			event.ProductDeletedEvent{ProductID: id})
	}); err != nil {
		return fmt.Errorf("db with tx: %w", err)
	}

	return nil
}
