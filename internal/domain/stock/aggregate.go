package stock

import "sort"

// ItemTotals is the overall-inventory view for one catalog item: its
// holdings summed across every department it appears in.
type ItemTotals struct {
	ItemID         int64  `json:"item_id"`
	ItemName       string `json:"item_name"`
	CentralQty     int64  `json:"central_qty"`
	TransferredQty int64  `json:"transferred_qty"`
	GrandTotal     int64  `json:"grand_total"`
	MaxQuantity    int64  `json:"max_quantity"`
	Status         Status `json:"status"`
}

// Aggregate groups location rows by catalog item ID and sums central-store
// quantity separately from quantity transferred out to sub-departments.
// The grand total is classified against the catalog baseline; items without
// one come back StatusUnknown rather than borrowing their own total as a
// ceiling. Pure: order-independent, no storage access, empty in -> empty out.
func Aggregate(rows []LocationStock) []ItemTotals {
	byItem := make(map[int64]*ItemTotals)
	for _, r := range rows {
		t, ok := byItem[r.ItemID]
		if !ok {
			t = &ItemTotals{ItemID: r.ItemID, ItemName: r.ItemName, MaxQuantity: r.ItemBaseline}
			byItem[r.ItemID] = t
		}
		if r.Central {
			t.CentralQty += r.Quantity
		} else {
			t.TransferredQty += r.Quantity
		}
	}

	out := make([]ItemTotals, 0, len(byItem))
	for _, t := range byItem {
		t.GrandTotal = t.CentralQty + t.TransferredQty
		t.Status = Classify(t.GrandTotal, t.MaxQuantity)
		out = append(out, *t)
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].ItemName != out[j].ItemName {
			return out[i].ItemName < out[j].ItemName
		}
		return out[i].ItemID < out[j].ItemID
	})
	return out
}

// VisibleTo pre-filters location rows for a caller before aggregation.
// Callers with overall visibility see everything; everyone else only their
// own department. The aggregator itself stays role-agnostic.
func VisibleTo(rows []LocationStock, departmentID int64, overall bool) []LocationStock {
	if overall {
		return rows
	}
	var out []LocationStock
	for _, r := range rows {
		if r.DepartmentID == departmentID {
			out = append(out, r)
		}
	}
	return out
}
