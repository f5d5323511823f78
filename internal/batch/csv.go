package batch

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"slices"
	"strings"

	"github.com/shopspring/decimal"

	"github.com/tuanvumaihuynh/product-catalog/internal/event"
	"github.com/tuanvumaihuynh/product-catalog/internal/model"
)

const (
	colProductID   = "productId"
	colBrandName   = "brand_name"
	colProductName = "product_name"
	colPrice       = "price"
	colQuantity    = "quantity"
)

// productRow is one line of a create file.
type productRow struct {
	line        int
	id          string
	brandName   string
	productName string
	price       decimal.Decimal
	quantity    decimal.Decimal
	attributes  map[string]any

	// set when the file carries a value for the column
	hasPrice    bool
	hasQuantity bool
}

// readProductRows parses a create file. The first line is the header; columns
// other than the product fields become attributes.
func readProductRows(r io.Reader) ([]productRow, error) {
	cr := csv.NewReader(r)
	cr.TrimLeadingSpace = true

	header, err := cr.Read()
	if err != nil {
		if errors.Is(err, io.EOF) {
			return nil, nil
		}
		return nil, fmt.Errorf("read header: %w", err)
	}
	for i := range header {
		header[i] = strings.TrimSpace(strings.TrimPrefix(header[i], "\ufeff"))
	}
	if !slices.Contains(header, colProductID) {
		return nil, fmt.Errorf("missing %s column", colProductID)
	}

	var rows []productRow
	for line := 2; ; line++ {
		record, err := cr.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("read line %d: %w", line, err)
		}

		row, err := parseProductRow(header, record)
		if err != nil {
			return nil, fmt.Errorf("parse line %d: %w", line, err)
		}
		row.line = line
		rows = append(rows, row)
	}

	return rows, nil
}

func parseProductRow(header, record []string) (productRow, error) {
	row := productRow{
		price:      decimal.Zero,
		quantity:   decimal.Zero,
		attributes: map[string]any{},
	}

	for i, col := range header {
		if i >= len(record) {
			break
		}
		value := strings.TrimSpace(record[i])

		switch col {
		case colProductID:
			row.id = value
		case colBrandName:
			row.brandName = value
		case colProductName:
			row.productName = value
		case colPrice:
			if value == "" {
				continue
			}
			price, err := model.ParseQuantity(value)
			if err != nil {
				return productRow{}, fmt.Errorf("parse price: %w", err)
			}
			row.price = price
			row.hasPrice = true
		case colQuantity:
			if value == "" {
				continue
			}
			quantity, err := model.ParseQuantity(value)
			if err != nil {
				return productRow{}, fmt.Errorf("parse quantity: %w", err)
			}
			row.quantity = quantity
			row.hasQuantity = true
		default:
			if col != "" && value != "" {
				row.attributes[col] = value
			}
		}
	}

	if row.id == "" {
		return productRow{}, fmt.Errorf("empty %s", colProductID)
	}

	return row, nil
}

// readProductIDs parses a delete file: no header, product id in the first column.
func readProductIDs(r io.Reader) ([]string, error) {
	cr := csv.NewReader(r)
	cr.FieldsPerRecord = -1

	var ids []string
	for {
		record, err := cr.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("read delete file: %w", err)
		}

		if len(record) == 0 {
			continue
		}
		if id := strings.TrimSpace(record[0]); id != "" {
			ids = append(ids, id)
		}
	}

	return ids, nil
}

// writeProductCreatedRows renders export rows without a header.
func writeProductCreatedRows(w io.Writer, events []event.ProductCreatedEvent) error {
	cw := csv.NewWriter(w)
	for _, ev := range events {
		if err := cw.Write([]string{
			ev.ProductID,
			ev.BrandName,
			ev.ProductName,
			ev.Price.String(),
			ev.Quantity.String(),
		}); err != nil {
			return fmt.Errorf("write csv row: %w", err)
		}
	}

	cw.Flush()
	if err := cw.Error(); err != nil {
		return fmt.Errorf("flush csv: %w", err)
	}

	return nil
}

// updateFields returns the partial update for an existing product. Empty cells
// leave the stored value untouched.
func (r productRow) updateFields() map[string]any {
	fields := map[string]any{}
	if r.brandName != "" {
		fields[colBrandName] = r.brandName
	}
	if r.productName != "" {
		fields[colProductName] = r.productName
	}
	if r.hasPrice {
		fields[colPrice] = r.price.String()
	}
	if len(r.attributes) > 0 {
		fields["attributes"] = r.attributes
	}
	return fields
}
