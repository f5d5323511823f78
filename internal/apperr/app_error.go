package apperr

import "github.com/tuanvumaihuynh/product-catalog/pkg/zerror"

const (
	ValidationErrorCode      = "VALIDATION_FAILED"
	ProductNotFoundCode      = "PRODUCT_NOT_FOUND"
	ProductAlreadyExistsCode = "PRODUCT_ALREADY_EXISTS"
	InvalidQuantityCode      = "INVALID_QUANTITY"
	InsufficientStockCode    = "INSUFFICIENT_STOCK"
	QuantityNotUpdatableCode = "QUANTITY_NOT_UPDATABLE"
	ProductIDMismatchCode    = "PRODUCT_ID_MISMATCH"
	EmptyUpdateCode          = "EMPTY_UPDATE"
	DuplicateAdjustmentCode  = "DUPLICATE_ADJUSTMENT"
	ProductNameRequiredCode  = "PRODUCT_NAME_REQUIRED"
	InvalidFileLocationCode  = "INVALID_FILE_LOCATION"
	InventoryUnavailableCode = "INVENTORY_UNAVAILABLE"
	InvalidRequestBodyCode   = "INVALID_REQUEST_BODY"
)

var (
	ValidationErr         = zerror.NewValidationFailed(ValidationErrorCode, "validation error")
	InvalidRequestBodyErr = zerror.NewBadRequest(InvalidRequestBodyCode, "invalid JSON body")

	ProductNotFoundErr     = zerror.NewNotFound(ProductNotFoundCode, "product not found")
	ProductExistsErr       = zerror.NewBadRequest(ProductAlreadyExistsCode, "product already exists")
	ProductIDMismatchErr   = zerror.NewBadRequest(ProductIDMismatchCode, "productId cannot be changed")
	ProductNameRequiredErr = zerror.NewBadRequest(ProductNameRequiredCode, "product_name is required")
	EmptyUpdateErr         = zerror.NewBadRequest(EmptyUpdateCode, "no update data provided")

	QuantityNotUpdatableErr = zerror.NewBadRequest(QuantityNotUpdatableCode, "quantity can only be changed through the inventory endpoint")
	InvalidQuantityErr      = zerror.NewBadRequest(InvalidQuantityCode, "quantity must be a signed decimal number")
	DuplicateAdjustmentErr  = zerror.NewBadRequest(DuplicateAdjustmentCode, "duplicate adjustment request")
	InventoryUnavailableErr = zerror.NewInternalServerError(InventoryUnavailableCode, "inventory history unavailable")

	// InsufficientStockErr is returned when an adjustment would drive stock below zero.
	InsufficientStockErr = zerror.NewBadRequest(InsufficientStockCode, "cannot reduce below zero")

	InvalidFileLocationErr = zerror.NewBadRequest(InvalidFileLocationCode, "invalid file location")
)
