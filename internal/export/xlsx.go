// Package export writes selected products to an XLSX workbook.
//
// The workbook has a single sheet. Its header row is the union of the
// products' field keys in first-seen order, and each product becomes one
// row with its fields projected flat, matching what a spreadsheet user
// expects from a "JSON to sheet" conversion.
package export

import (
	"encoding/json"
	"fmt"
	"io"

	"github.com/JonMunkholm/ProductTable/internal/catalog"
	"github.com/xuri/excelize/v2"
)

const (
	// SheetName is the name of the only sheet in the workbook.
	SheetName = "Selected Products"

	// Filename is the download name offered to the browser.
	Filename = "selected_products.xlsx"

	// ContentType is the MIME type of the download.
	ContentType = "application/octet-stream"
)

// Project returns the products whose id is in selected, in raw-list order.
// The current sort and filters of the view do not affect the result.
func Project(raw []catalog.Product, selected map[int64]struct{}) []catalog.Product {
	out := make([]catalog.Product, 0, len(selected))
	for _, p := range raw {
		if _, ok := selected[p.ID]; ok {
			out = append(out, p)
		}
	}
	return out
}

// Columns returns the union of field keys across products in the order
// they are first seen.
func Columns(products []catalog.Product) []string {
	seen := make(map[string]struct{})
	var cols []string
	for _, p := range products {
		for _, f := range p.Fields() {
			if _, ok := seen[f.Key]; ok {
				continue
			}
			seen[f.Key] = struct{}{}
			cols = append(cols, f.Key)
		}
	}
	return cols
}

// WriteXLSX builds the workbook for products and writes it to w.
func WriteXLSX(w io.Writer, products []catalog.Product) error {
	f, err := Workbook(products)
	if err != nil {
		return err
	}
	defer f.Close()

	if err := f.Write(w); err != nil {
		return fmt.Errorf("write workbook: %w", err)
	}
	return nil
}

// Workbook builds the in-memory workbook. The caller must Close it.
func Workbook(products []catalog.Product) (*excelize.File, error) {
	f := excelize.NewFile()

	if err := f.SetSheetName(f.GetSheetName(0), SheetName); err != nil {
		f.Close()
		return nil, fmt.Errorf("build workbook: %w", err)
	}

	if err := fillSheet(f, products); err != nil {
		f.Close()
		return nil, fmt.Errorf("build workbook: %w", err)
	}
	return f, nil
}

func fillSheet(f *excelize.File, products []catalog.Product) error {
	cols := Columns(products)
	if len(cols) == 0 {
		return nil
	}

	header := make([]any, len(cols))
	for i, c := range cols {
		header[i] = c
	}
	if err := f.SetSheetRow(SheetName, "A1", &header); err != nil {
		return err
	}

	headerStyle, err := f.NewStyle(&excelize.Style{
		Font: &excelize.Font{Bold: true},
	})
	if err != nil {
		return err
	}
	lastHeader, err := excelize.CoordinatesToCellName(len(cols), 1)
	if err != nil {
		return err
	}
	if err := f.SetCellStyle(SheetName, "A1", lastHeader, headerStyle); err != nil {
		return err
	}

	index := make(map[string]int, len(cols))
	for i, c := range cols {
		index[c] = i
	}

	for r, p := range products {
		row := make([]any, len(cols))
		for _, field := range p.Fields() {
			row[index[field.Key]] = cellValue(field.Value)
		}
		cell, err := excelize.CoordinatesToCellName(1, r+2)
		if err != nil {
			return err
		}
		if err := f.SetSheetRow(SheetName, cell, &row); err != nil {
			return err
		}
	}
	return nil
}

// cellValue maps a decoded JSON value onto a typed spreadsheet cell.
func cellValue(v any) any {
	switch val := v.(type) {
	case nil:
		return nil
	case string, bool:
		return val
	case json.Number:
		if i, err := val.Int64(); err == nil {
			return i
		}
		if fl, err := val.Float64(); err == nil {
			return fl
		}
		return val.String()
	default:
		return catalog.FormatValue(val)
	}
}
