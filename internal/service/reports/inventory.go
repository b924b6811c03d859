package reports

import (
	"fmt"

	"github.com/xuri/excelize/v2"

	"github.com/Spok95/clinic-stock/internal/domain/catalog"
	"github.com/Spok95/clinic-stock/internal/domain/stock"
)

var statusLabels = map[stock.Status]string{
	stock.StatusGood:    "Good",
	stock.StatusLow:     "Low",
	stock.StatusVeryLow: "Very Low",
	stock.StatusOut:     "Out of Stock",
	stock.StatusUnknown: "No Baseline",
}

// InventoryWorkbook renders the overall-inventory view as a spreadsheet,
// one row per catalog item. Caller closes the file.
func InventoryWorkbook(totals []stock.ItemTotals, items []catalog.Item) (*excelize.File, error) {
	category := make(map[int64]string, len(items))
	for _, it := range items {
		category[it.ID] = it.Category
	}

	f := excelize.NewFile()
	const sheet = "Inventory"
	f.SetSheetName(f.GetSheetName(0), sheet)

	headers := []string{"Item", "Category", "Central", "Transferred", "Total", "Baseline", "Status"}
	for i, h := range headers {
		cell, _ := excelize.CoordinatesToCellName(i+1, 1)
		if err := f.SetCellValue(sheet, cell, h); err != nil {
			return nil, err
		}
	}

	for i, t := range totals {
		row := i + 2
		values := []any{
			t.ItemName,
			category[t.ItemID],
			t.CentralQty,
			t.TransferredQty,
			t.GrandTotal,
			t.MaxQuantity,
			statusLabels[t.Status],
		}
		for col, v := range values {
			cell, _ := excelize.CoordinatesToCellName(col+1, row)
			if err := f.SetCellValue(sheet, cell, v); err != nil {
				return nil, err
			}
		}
	}

	if err := f.SetColWidth(sheet, "A", "A", 32); err != nil {
		return nil, fmt.Errorf("set column width: %w", err)
	}
	return f, nil
}
