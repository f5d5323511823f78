// Package batch imports product files dropped into object storage and exports
// newly created products back to it.
package batch

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"strings"

	"github.com/tuanvumaihuynh/product-catalog/internal/apperr"
	"github.com/tuanvumaihuynh/product-catalog/internal/config"
	"github.com/tuanvumaihuynh/product-catalog/internal/log"
	"github.com/tuanvumaihuynh/product-catalog/internal/model"
	"github.com/tuanvumaihuynh/product-catalog/internal/service"
	"github.com/tuanvumaihuynh/product-catalog/internal/storage/objectstore"
)

type CleanupFunc func()

type ObjectSource interface {
	GetObject(ctx context.Context, bucket, key string) (io.ReadCloser, error)
	ListenObjectCreated(ctx context.Context, bucket string) <-chan objectstore.ObjectCreated
}

// ImportResult counts what a single file did to the catalog.
type ImportResult struct {
	Created  int
	Updated  int
	Adjusted int
	Deleted  int
	Skipped  int
	Failed   int
}

type Importer struct {
	cfg              config.Batch
	bucket           string
	logger           *slog.Logger
	source           ObjectSource
	productService   service.ProductService
	inventoryService service.InventoryService
}

func NewImporter(
	cfg config.Batch,
	bucket string,
	logger *slog.Logger,
	source ObjectSource,
	productService service.ProductService,
	inventoryService service.InventoryService,
) *Importer {
	return &Importer{
		cfg:              cfg,
		bucket:           bucket,
		logger:           logger.With(slog.String("service", "batch_importer")),
		source:           source,
		productService:   productService,
		inventoryService: inventoryService,
	}
}

// Run imports every object created in the import bucket until cleanup is called.
func (i *Importer) Run(ctx context.Context) CleanupFunc {
	ctx, cancel := context.WithCancel(ctx)
	objects := i.source.ListenObjectCreated(ctx, i.bucket)

	doneChan := make(chan struct{})
	go func() {
		defer close(doneChan)

		for obj := range objects {
			res, err := i.ImportObject(ctx, obj.Key)
			if err != nil {
				i.logger.ErrorContext(ctx, "error importing object",
					slog.String("key", obj.Key), slog.Any("error", err))
				continue
			}

			i.logger.InfoContext(ctx, "object imported",
				slog.String("key", obj.Key),
				slog.Int("created", res.Created),
				slog.Int("updated", res.Updated),
				slog.Int("adjusted", res.Adjusted),
				slog.Int("deleted", res.Deleted),
				slog.Int("skipped", res.Skipped),
				slog.Int("failed", res.Failed),
			)
		}
	}()

	return func() {
		cancel()
		<-doneChan
	}
}

// ImportObject applies one file. The key prefix selects the action; any other
// prefix yields InvalidFileLocationErr.
func (i *Importer) ImportObject(ctx context.Context, key string) (ImportResult, error) {
	ctx = log.ContextWithAttrs(ctx, slog.String("object_key", key))

	switch {
	case strings.HasPrefix(key, i.cfg.CreatePrefix):
		return i.importFile(ctx, key, i.importCreateFile)
	case strings.HasPrefix(key, i.cfg.DeletePrefix):
		return i.importFile(ctx, key, i.importDeleteFile)
	default:
		return ImportResult{}, apperr.InvalidFileLocationErr
	}
}

func (i *Importer) importFile(
	ctx context.Context,
	key string,
	fn func(ctx context.Context, r io.Reader) (ImportResult, error),
) (ImportResult, error) {
	body, err := i.source.GetObject(ctx, i.bucket, key)
	if err != nil {
		return ImportResult{}, fmt.Errorf("object source get object: %w", err)
	}
	defer body.Close()

	return fn(ctx, body)
}

func (i *Importer) importCreateFile(ctx context.Context, r io.Reader) (ImportResult, error) {
	rows, err := readProductRows(r)
	if err != nil {
		return ImportResult{}, fmt.Errorf("read product rows: %w", err)
	}

	var res ImportResult
	for _, row := range rows {
		if err := i.upsertRow(ctx, row, &res); err != nil {
			i.logger.WarnContext(ctx, "error importing row",
				slog.Int("line", row.line),
				slog.String("product_id", row.id),
				slog.Any("error", err))
			res.Failed++
		}
	}

	return res, nil
}

func (i *Importer) upsertRow(ctx context.Context, row productRow, res *ImportResult) error {
	existing, err := i.productService.GetProduct(ctx, row.id)
	if errors.Is(err, apperr.ProductNotFoundErr) {
		if _, err := i.productService.CreateProduct(ctx, service.CreateProductParams{
			ID:          row.id,
			BrandName:   row.brandName,
			ProductName: row.productName,
			Price:       row.price,
			Quantity:    row.quantity,
			Attributes:  row.attributes,
		}); err != nil {
			return fmt.Errorf("product service create product: %w", err)
		}
		res.Created++
		return nil
	}
	if err != nil {
		return fmt.Errorf("product service get product: %w", err)
	}

	if fields := row.updateFields(); len(fields) > 0 {
		if _, err := i.productService.UpdateProduct(ctx, service.UpdateProductParams{
			ID:     row.id,
			Fields: fields,
		}); err != nil {
			return fmt.Errorf("product service update product: %w", err)
		}
		res.Updated++
	}

	if !row.hasQuantity {
		return nil
	}
	if delta := row.quantity.Sub(existing.Quantity); !delta.IsZero() {
		if _, err := i.inventoryService.AdjustStock(ctx, service.AdjustStockParams{
			ProductID: row.id,
			Quantity:  delta.String(),
			Remarks:   model.RemarkBatchImport,
		}); err != nil {
			return fmt.Errorf("inventory service adjust stock: %w", err)
		}
		res.Adjusted++
	}

	return nil
}

func (i *Importer) importDeleteFile(ctx context.Context, r io.Reader) (ImportResult, error) {
	ids, err := readProductIDs(r)
	if err != nil {
		return ImportResult{}, fmt.Errorf("read product ids: %w", err)
	}

	var res ImportResult
	for _, id := range ids {
		err := i.productService.DeleteProduct(ctx, id)
		switch {
		case err == nil:
			res.Deleted++
		case errors.Is(err, apperr.ProductNotFoundErr):
			res.Skipped++
		default:
			i.logger.WarnContext(ctx, "error deleting product",
				slog.String("product_id", id), slog.Any("error", err))
			res.Failed++
		}
	}

	return res, nil
}
