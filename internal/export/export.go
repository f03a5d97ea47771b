// Package export writes product listings and carts as .xlsx workbooks.
package export

import (
	"fmt"
	"io"

	"github.com/xuri/excelize/v2"

	"storefront/internal/model"
)

// Sheet names.
const (
	ProductsSheet = "Products"
	CartSheet     = "Cart"
)

var productColumns = []column{
	{"ID", 28}, {"Title", 40}, {"Price", 12}, {"Category", 20}, {"Brand", 20},
	{"Rating", 10}, {"Stock", 10}, {"Image", 50}, {"Description", 60},
}

var cartColumns = []column{
	{"Product ID", 28}, {"Title", 40}, {"Unit Price", 14}, {"Quantity", 10}, {"Line Total", 14},
}

type column struct {
	title string
	width float64
}

// Products writes one row per product.
func Products(w io.Writer, products []model.NormalizedProduct) error {
	f, err := newWorkbook(ProductsSheet, productColumns)
	if err != nil {
		return err
	}
	defer f.Close()

	for i, p := range products {
		price := any("N/A")
		if p.Price.Available {
			price = p.Price.Amount
		}
		row := []any{p.ID, p.Title, price, p.Category, p.Brand, p.Rating, p.Stock, p.ImageURL, p.Description}
		if err := setRow(f, ProductsSheet, i+2, row); err != nil {
			return err
		}
	}

	return write(f, w)
}

// Cart writes one row per line followed by the summary rows.
func Cart(w io.Writer, cart model.Cart, summary model.CartSummary) error {
	f, err := newWorkbook(CartSheet, cartColumns)
	if err != nil {
		return err
	}
	defer f.Close()

	for i, li := range cart {
		row := []any{
			li.ProductID, li.Title, float64(li.UnitPrice),
			li.EffectiveQuantity(), model.FromCents(li.LineTotalCents()),
		}
		if err := setRow(f, CartSheet, i+2, row); err != nil {
			return err
		}
	}

	shipping := any(summary.Shipping)
	if summary.FreeShipping() {
		shipping = "Free"
	}
	totals := [][]any{
		{"Subtotal", summary.Subtotal},
		{"Shipping", shipping},
		{"Tax", summary.Tax},
		{"Total", summary.Total},
	}

	bold, err := f.NewStyle(&excelize.Style{Font: &excelize.Font{Bold: true}})
	if err != nil {
		return fmt.Errorf("creating style: %w", err)
	}

	start := len(cart) + 3
	for i, t := range totals {
		r := start + i
		label, _ := excelize.CoordinatesToCellName(4, r)
		value, _ := excelize.CoordinatesToCellName(5, r)
		if err := f.SetCellValue(CartSheet, label, t[0]); err != nil {
			return fmt.Errorf("writing %s: %w", label, err)
		}
		if err := f.SetCellValue(CartSheet, value, t[1]); err != nil {
			return fmt.Errorf("writing %s: %w", value, err)
		}
		if err := f.SetCellStyle(CartSheet, label, label, bold); err != nil {
			return fmt.Errorf("styling %s: %w", label, err)
		}
	}

	return write(f, w)
}

func newWorkbook(sheet string, cols []column) (*excelize.File, error) {
	f := excelize.NewFile()
	if err := f.SetSheetName("Sheet1", sheet); err != nil {
		f.Close()
		return nil, fmt.Errorf("naming sheet: %w", err)
	}

	header, err := f.NewStyle(&excelize.Style{
		Font: &excelize.Font{Bold: true, Color: "FFFFFF"},
		Fill: excelize.Fill{Type: "pattern", Color: []string{"D81B60"}, Pattern: 1},
		Border: []excelize.Border{
			{Type: "bottom", Color: "000000", Style: 1},
		},
	})
	if err != nil {
		f.Close()
		return nil, fmt.Errorf("creating header style: %w", err)
	}

	for i, c := range cols {
		cell, _ := excelize.CoordinatesToCellName(i+1, 1)
		if err := f.SetCellValue(sheet, cell, c.title); err != nil {
			f.Close()
			return nil, fmt.Errorf("writing header: %w", err)
		}
		if err := f.SetCellStyle(sheet, cell, cell, header); err != nil {
			f.Close()
			return nil, fmt.Errorf("styling header: %w", err)
		}
		name, _ := excelize.ColumnNumberToName(i + 1)
		if err := f.SetColWidth(sheet, name, name, c.width); err != nil {
			f.Close()
			return nil, fmt.Errorf("sizing column %s: %w", name, err)
		}
	}

	if err := f.SetPanes(sheet, &excelize.Panes{Freeze: true, YSplit: 1, TopLeftCell: "A2", ActivePane: "bottomLeft"}); err != nil {
		f.Close()
		return nil, fmt.Errorf("freezing header: %w", err)
	}
	return f, nil
}

func setRow(f *excelize.File, sheet string, row int, values []any) error {
	cell, _ := excelize.CoordinatesToCellName(1, row)
	if err := f.SetSheetRow(sheet, cell, &values); err != nil {
		return fmt.Errorf("writing row %d: %w", row, err)
	}
	return nil
}

func write(f *excelize.File, w io.Writer) error {
	if _, err := f.WriteTo(w); err != nil {
		return fmt.Errorf("writing workbook: %w", err)
	}
	return nil
}
