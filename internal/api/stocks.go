package api

import (
	"net/http"
	"strconv"
	"time"

	"github.com/Spok95/clinic-stock/internal/domain/stock"
	"github.com/Spok95/clinic-stock/internal/service/reports"
)

func (h *Handler) departmentStocks(w http.ResponseWriter, r *http.Request) {
	id := identityFrom(r)
	deptID, err := pathID(r, "id")
	if err != nil {
		respondError(w, http.StatusBadRequest, "invalid id")
		return
	}
	if !id.Overall && id.DepartmentID != deptID {
		respondError(w, http.StatusForbidden, "department not visible to caller")
		return
	}

	rows, err := h.stocks.ListByDepartment(r.Context(), deptID)
	if err != nil {
		h.log.Error("department stocks failed", "err", err)
		respondError(w, http.StatusInternalServerError, "internal error")
		return
	}
	respondJSON(w, http.StatusOK, stockViews(rows))
}

// stockOverview is the aggregate view: visibility filter first, then the
// role-agnostic aggregation.
func (h *Handler) stockOverview(w http.ResponseWriter, r *http.Request) {
	id := identityFrom(r)

	rows, err := h.stocks.ListAll(r.Context())
	if err != nil {
		h.log.Error("stock overview failed", "err", err)
		respondError(w, http.StatusInternalServerError, "internal error")
		return
	}
	visible := stock.VisibleTo(rows, id.DepartmentID, id.Overall)
	respondJSON(w, http.StatusOK, stock.Aggregate(visible))
}

func (h *Handler) inventoryReport(w http.ResponseWriter, r *http.Request) {
	id := identityFrom(r)

	rows, err := h.stocks.ListAll(r.Context())
	if err != nil {
		h.log.Error("inventory report failed", "err", err)
		respondError(w, http.StatusInternalServerError, "internal error")
		return
	}
	totals := stock.Aggregate(stock.VisibleTo(rows, id.DepartmentID, id.Overall))

	items, err := h.catalog.ListItems(r.Context(), false)
	if err != nil {
		h.log.Error("inventory report failed", "err", err)
		respondError(w, http.StatusInternalServerError, "internal error")
		return
	}

	f, err := reports.InventoryWorkbook(totals, items)
	if err != nil {
		h.log.Error("inventory report failed", "err", err)
		respondError(w, http.StatusInternalServerError, "internal error")
		return
	}
	defer func() { _ = f.Close() }()

	w.Header().Set("Content-Type", "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet")
	w.Header().Set("Content-Disposition", `attachment; filename="inventory.xlsx"`)
	if err := f.Write(w); err != nil {
		h.log.Error("inventory report write failed", "err", err)
	}
}

func (h *Handler) listMovements(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	limit := 100
	if v := q.Get("limit"); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 && n <= 1000 {
			limit = n
		}
	}

	if v := q.Get("item"); v != "" {
		itemID, err := strconv.ParseInt(v, 10, 64)
		if err != nil {
			respondError(w, http.StatusBadRequest, "invalid item id")
			return
		}
		ms, err := h.movements.ListByItem(r.Context(), itemID, limit)
		if err != nil {
			h.log.Error("list movements failed", "err", err)
			respondError(w, http.StatusInternalServerError, "internal error")
			return
		}
		respondJSON(w, http.StatusOK, ms)
		return
	}

	if v := q.Get("department"); v != "" {
		deptID, err := strconv.ParseInt(v, 10, 64)
		if err != nil {
			respondError(w, http.StatusBadRequest, "invalid department id")
			return
		}
		ms, err := h.movements.ListByDepartment(r.Context(), deptID, limit)
		if err != nil {
			h.log.Error("list movements failed", "err", err)
			respondError(w, http.StatusInternalServerError, "internal error")
			return
		}
		respondJSON(w, http.StatusOK, ms)
		return
	}

	if v := q.Get("group"); v != "" {
		ms, err := h.movements.ListByTransferGroup(r.Context(), v)
		if err != nil {
			h.log.Error("list movements failed", "err", err)
			respondError(w, http.StatusInternalServerError, "internal error")
			return
		}
		respondJSON(w, http.StatusOK, ms)
		return
	}

	if q.Get("from") != "" || q.Get("to") != "" {
		from, err := time.Parse(time.RFC3339, q.Get("from"))
		if err != nil {
			respondError(w, http.StatusBadRequest, "invalid from timestamp, want RFC3339")
			return
		}
		to, err := time.Parse(time.RFC3339, q.Get("to"))
		if err != nil {
			respondError(w, http.StatusBadRequest, "invalid to timestamp, want RFC3339")
			return
		}
		ms, err := h.movements.ListRange(r.Context(), from, to)
		if err != nil {
			h.log.Error("list movements failed", "err", err)
			respondError(w, http.StatusInternalServerError, "internal error")
			return
		}
		respondJSON(w, http.StatusOK, ms)
		return
	}

	respondError(w, http.StatusBadRequest, "item, department, group, or from/to query parameters required")
}

type stockView struct {
	ItemID      int64  `json:"item_id"`
	ItemName    string `json:"item_name"`
	Department  int64  `json:"department_id"`
	Quantity    int64  `json:"quantity"`
	MaxQuantity int64  `json:"max_quantity"`
	Status      string `json:"status"`
}

func stockViews(rows []stock.LocationStock) []stockView {
	out := make([]stockView, 0, len(rows))
	for _, r := range rows {
		out = append(out, stockView{
			ItemID:      r.ItemID,
			ItemName:    r.ItemName,
			Department:  r.DepartmentID,
			Quantity:    r.Quantity,
			MaxQuantity: r.MaxQuantity,
			Status:      string(r.Status),
		})
	}
	return out
}
