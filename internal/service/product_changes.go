package service

import (
	"encoding/json"
	"fmt"
	"maps"
	"slices"

	"github.com/shopspring/decimal"

	"github.com/tuanvumaihuynh/product-catalog/internal/apperr"
	"github.com/tuanvumaihuynh/product-catalog/internal/model"
	"github.com/tuanvumaihuynh/product-catalog/pkg/validator"
)

const (
	fieldProductID   = "productId"
	fieldBrandName   = "brand_name"
	fieldProductName = "product_name"
	fieldPrice       = "price"
	fieldQuantity    = "quantity"
	fieldAttributes  = "attributes"
)

var readOnlyFields = []string{"created_at", "updated_at", "currentStock", "history"}

type productChanges struct {
	brandName   *string
	productName *string
	price       *decimal.Decimal
	attributes  map[string]any
	fields      []string
}

// parseProductChanges splits a partial update body into column updates and
// attribute merges. Quantity is rejected: stock only moves through adjustments.
// Keys are walked in sorted order with the attributes object first, so a
// top-level key overrides the same name inside attributes, as on create.
func parseProductChanges(id string, fields map[string]any) (productChanges, error) {
	if len(fields) == 0 {
		return productChanges{}, apperr.EmptyUpdateErr
	}

	if _, ok := fields[fieldQuantity]; ok {
		return productChanges{}, apperr.QuantityNotUpdatableErr
	}
	if value, ok := fields[fieldProductID]; ok {
		if s, isString := value.(string); !isString || s != id {
			return productChanges{}, apperr.ProductIDMismatchErr
		}
	}

	keys := slices.Sorted(maps.Keys(fields))
	if i := slices.Index(keys, fieldAttributes); i > 0 {
		keys = slices.Concat([]string{fieldAttributes}, keys[:i], keys[i+1:])
	}

	changes := productChanges{attributes: map[string]any{}}
	for _, key := range keys {
		value := fields[key]
		switch key {
		case fieldProductID:
			continue
		case fieldBrandName:
			s, ok := value.(string)
			if !ok {
				return productChanges{}, apperr.ValidationErr.WithMsg("brand_name must be a string")
			}
			changes.brandName = &s
		case fieldProductName:
			s, ok := value.(string)
			if !ok {
				return productChanges{}, apperr.ValidationErr.WithMsg("product_name must be a string")
			}
			changes.productName = &s
		case fieldPrice:
			price, err := decimalFromJSON(value)
			if err != nil || price.IsNegative() {
				return productChanges{}, apperr.ValidationErr.WithMsg("price must be a non-negative decimal number")
			}
			changes.price = &price
		case fieldAttributes:
			attrs, ok := value.(map[string]any)
			if !ok {
				return productChanges{}, apperr.ValidationErr.WithMsg("attributes must be an object")
			}
			for k, v := range attrs {
				changes.attributes[k] = v
			}
		default:
			if slices.Contains(readOnlyFields, key) {
				return productChanges{}, apperr.ValidationErr.WithMsg(fmt.Sprintf("%s is read-only", key))
			}
			changes.attributes[key] = value
		}
		changes.fields = append(changes.fields, key)
	}

	if len(changes.fields) == 0 {
		return productChanges{}, apperr.EmptyUpdateErr
	}
	slices.Sort(changes.fields)

	return changes, nil
}

// decimalFromJSON accepts a decoded JSON number (json.Number when the decoder
// used UseNumber, float64 otherwise) or a numeric string.
func decimalFromJSON(value any) (decimal.Decimal, error) {
	switch v := value.(type) {
	case json.Number:
		return model.ParseQuantity(v.String())
	case string:
		return model.ParseQuantity(v)
	case float64:
		d := decimal.NewFromFloat(v)
		if !validator.DecimalInRange(d) {
			return decimal.Decimal{}, fmt.Errorf("number %v out of range", v)
		}
		return d, nil
	default:
		return decimal.Decimal{}, fmt.Errorf("unsupported number type %T", value)
	}
}
