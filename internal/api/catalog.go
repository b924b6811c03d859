package api

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/Spok95/clinic-stock/internal/domain/catalog"
)

type itemPayload struct {
	Name        string  `json:"name"`
	Category    string  `json:"category"`
	Group       string  `json:"group"`
	SmallUnit   string  `json:"small_unit"`
	BigUnit     string  `json:"big_unit"`
	UnitFactor  int64   `json:"unit_factor"`
	CostPrice   float64 `json:"cost_price"`
	RetailPrice float64 `json:"retail_price"`
	MaxQuantity int64   `json:"max_quantity"`
}

func (p itemPayload) toItem() (catalog.Item, error) {
	g := catalog.Group(p.Group)
	if g != catalog.GroupMedicine && g != catalog.GroupSupply {
		return catalog.Item{}, errors.New("group must be medicine or supply")
	}
	if p.Name == "" {
		return catalog.Item{}, errors.New("name required")
	}
	return catalog.Item{
		Name:        p.Name,
		Category:    p.Category,
		Group:       g,
		SmallUnit:   p.SmallUnit,
		BigUnit:     p.BigUnit,
		UnitFactor:  p.UnitFactor,
		CostPrice:   p.CostPrice,
		RetailPrice: p.RetailPrice,
		MaxQuantity: p.MaxQuantity,
	}, nil
}

func (h *Handler) createItem(w http.ResponseWriter, r *http.Request) {
	var p itemPayload
	if err := decodeJSON(r, &p); err != nil {
		respondError(w, http.StatusBadRequest, "invalid payload")
		return
	}
	it, err := p.toItem()
	if err != nil {
		respondError(w, http.StatusBadRequest, err.Error())
		return
	}

	created, err := h.catalog.CreateItem(r.Context(), it)
	if err != nil {
		if errors.Is(err, catalog.ErrBaselineRequired) {
			respondError(w, http.StatusBadRequest, err.Error())
			return
		}
		h.log.Error("create item failed", "err", err)
		respondError(w, http.StatusInternalServerError, "internal error")
		return
	}
	respondJSON(w, http.StatusCreated, created)
}

func (h *Handler) getItem(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "id")
	if err != nil {
		respondError(w, http.StatusBadRequest, "invalid id")
		return
	}
	it, err := h.catalog.GetItem(r.Context(), id)
	if err != nil {
		h.log.Error("get item failed", "err", err)
		respondError(w, http.StatusInternalServerError, "internal error")
		return
	}
	if it == nil {
		respondError(w, http.StatusNotFound, "unknown item")
		return
	}
	respondJSON(w, http.StatusOK, it)
}

func (h *Handler) listItems(w http.ResponseWriter, r *http.Request) {
	onlyActive := r.URL.Query().Get("all") == ""
	items, err := h.catalog.ListItems(r.Context(), onlyActive)
	if err != nil {
		h.log.Error("list items failed", "err", err)
		respondError(w, http.StatusInternalServerError, "internal error")
		return
	}
	respondJSON(w, http.StatusOK, items)
}

func (h *Handler) searchItems(w http.ResponseWriter, r *http.Request) {
	items, err := h.catalog.SearchItems(r.Context(), r.URL.Query().Get("q"))
	if err != nil {
		h.log.Error("search items failed", "err", err)
		respondError(w, http.StatusInternalServerError, "internal error")
		return
	}
	respondJSON(w, http.StatusOK, items)
}

func (h *Handler) updateItem(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "id")
	if err != nil {
		respondError(w, http.StatusBadRequest, "invalid id")
		return
	}
	var p itemPayload
	if err := decodeJSON(r, &p); err != nil {
		respondError(w, http.StatusBadRequest, "invalid payload")
		return
	}
	it, err := p.toItem()
	if err != nil {
		respondError(w, http.StatusBadRequest, err.Error())
		return
	}
	it.ID = id

	updated, err := h.catalog.UpdateItem(r.Context(), it)
	if err != nil {
		if errors.Is(err, catalog.ErrBaselineRequired) {
			respondError(w, http.StatusBadRequest, err.Error())
			return
		}
		h.log.Error("update item failed", "err", err)
		respondError(w, http.StatusInternalServerError, "internal error")
		return
	}
	if updated == nil {
		respondError(w, http.StatusNotFound, "unknown item")
		return
	}
	respondJSON(w, http.StatusOK, updated)
}

func (h *Handler) deactivateItem(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "id")
	if err != nil {
		respondError(w, http.StatusBadRequest, "invalid id")
		return
	}
	if err := h.catalog.SetItemActive(r.Context(), id, false); err != nil {
		h.log.Error("deactivate item failed", "err", err)
		respondError(w, http.StatusInternalServerError, "internal error")
		return
	}
	respondJSON(w, http.StatusOK, map[string]string{"status": "deactivated"})
}

func (h *Handler) createDepartment(w http.ResponseWriter, r *http.Request) {
	var p struct {
		Name    string `json:"name"`
		Central bool   `json:"central"`
	}
	if err := decodeJSON(r, &p); err != nil || p.Name == "" {
		respondError(w, http.StatusBadRequest, "invalid payload")
		return
	}
	d, err := h.catalog.CreateDepartment(r.Context(), p.Name, p.Central)
	if err != nil {
		h.log.Error("create department failed", "err", err)
		respondError(w, http.StatusInternalServerError, "internal error")
		return
	}
	respondJSON(w, http.StatusCreated, d)
}

func (h *Handler) getDepartment(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "id")
	if err != nil {
		respondError(w, http.StatusBadRequest, "invalid id")
		return
	}
	d, err := h.catalog.GetDepartment(r.Context(), id)
	if err != nil {
		h.log.Error("get department failed", "err", err)
		respondError(w, http.StatusInternalServerError, "internal error")
		return
	}
	if d == nil {
		respondError(w, http.StatusNotFound, "unknown department")
		return
	}
	respondJSON(w, http.StatusOK, d)
}

func (h *Handler) updateDepartment(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "id")
	if err != nil {
		respondError(w, http.StatusBadRequest, "invalid id")
		return
	}
	var p struct {
		Name    string `json:"name"`
		Central bool   `json:"central"`
	}
	if err := decodeJSON(r, &p); err != nil || p.Name == "" {
		respondError(w, http.StatusBadRequest, "invalid payload")
		return
	}
	updated, err := h.catalog.UpdateDepartment(r.Context(), catalog.Department{ID: id, Name: p.Name, Central: p.Central})
	if err != nil {
		h.log.Error("update department failed", "err", err)
		respondError(w, http.StatusInternalServerError, "internal error")
		return
	}
	if updated == nil {
		respondError(w, http.StatusNotFound, "unknown department")
		return
	}
	respondJSON(w, http.StatusOK, updated)
}

func (h *Handler) deactivateDepartment(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "id")
	if err != nil {
		respondError(w, http.StatusBadRequest, "invalid id")
		return
	}
	if err := h.catalog.SetDepartmentActive(r.Context(), id, false); err != nil {
		h.log.Error("deactivate department failed", "err", err)
		respondError(w, http.StatusInternalServerError, "internal error")
		return
	}
	respondJSON(w, http.StatusOK, map[string]string{"status": "deactivated"})
}

func (h *Handler) listDepartments(w http.ResponseWriter, r *http.Request) {
	ds, err := h.catalog.ListDepartments(r.Context(), true)
	if err != nil {
		h.log.Error("list departments failed", "err", err)
		respondError(w, http.StatusInternalServerError, "internal error")
		return
	}
	respondJSON(w, http.StatusOK, ds)
}

func pathID(r *http.Request, name string) (int64, error) {
	return strconv.ParseInt(chi.URLParam(r, name), 10, 64)
}
