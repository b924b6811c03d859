package api

import (
	"net/http"

	"github.com/Spok95/clinic-stock/internal/domain/transfer"
	"github.com/Spok95/clinic-stock/internal/service/recorder"
)

type movementPayload struct {
	ItemID         int64  `json:"item_id"`
	DepartmentID   int64  `json:"department_id"`
	Quantity       int64  `json:"quantity"`
	Delta          int64  `json:"delta"`
	FromDeptID     int64  `json:"from_department_id"`
	ToDeptID       int64  `json:"to_department_id"`
	Reason         string `json:"reason"`
	IdempotencyKey string `json:"idempotency_key"`
}

func (h *Handler) stockIn(w http.ResponseWriter, r *http.Request) {
	var p movementPayload
	if err := decodeJSON(r, &p); err != nil {
		respondError(w, http.StatusBadRequest, "invalid payload")
		return
	}
	mv, err := h.svc.StockIn(r.Context(), recorder.StockIn{
		ItemID:         p.ItemID,
		DepartmentID:   p.DepartmentID,
		Quantity:       p.Quantity,
		Actor:          identityFrom(r).actor(),
		Reason:         p.Reason,
		IdempotencyKey: p.IdempotencyKey,
	})
	if err != nil {
		h.respondMovementError(w, err)
		return
	}
	respondJSON(w, http.StatusCreated, mv)
}

func (h *Handler) usage(w http.ResponseWriter, r *http.Request) {
	var p movementPayload
	if err := decodeJSON(r, &p); err != nil {
		respondError(w, http.StatusBadRequest, "invalid payload")
		return
	}
	mv, err := h.svc.Usage(r.Context(), recorder.Usage{
		ItemID:         p.ItemID,
		DepartmentID:   p.DepartmentID,
		Quantity:       p.Quantity,
		Actor:          identityFrom(r).actor(),
		Reason:         p.Reason,
		IdempotencyKey: p.IdempotencyKey,
	})
	if err != nil {
		h.respondMovementError(w, err)
		return
	}
	respondJSON(w, http.StatusCreated, mv)
}

func (h *Handler) adjustment(w http.ResponseWriter, r *http.Request) {
	var p movementPayload
	if err := decodeJSON(r, &p); err != nil {
		respondError(w, http.StatusBadRequest, "invalid payload")
		return
	}
	mv, err := h.svc.Adjust(r.Context(), recorder.Adjustment{
		ItemID:         p.ItemID,
		DepartmentID:   p.DepartmentID,
		Delta:          p.Delta,
		Actor:          identityFrom(r).actor(),
		Reason:         p.Reason,
		IdempotencyKey: p.IdempotencyKey,
	})
	if err != nil {
		h.respondMovementError(w, err)
		return
	}
	respondJSON(w, http.StatusCreated, mv)
}

func (h *Handler) transferMove(w http.ResponseWriter, r *http.Request) {
	var p movementPayload
	if err := decodeJSON(r, &p); err != nil {
		respondError(w, http.StatusBadRequest, "invalid payload")
		return
	}
	mvs, err := h.svc.Transfer(r.Context(), recorder.Transfer{
		ItemID:         p.ItemID,
		FromDeptID:     p.FromDeptID,
		ToDeptID:       p.ToDeptID,
		Quantity:       p.Quantity,
		Actor:          identityFrom(r).actor(),
		Reason:         p.Reason,
		IdempotencyKey: p.IdempotencyKey,
	})
	if err != nil {
		h.respondMovementError(w, err)
		return
	}
	respondJSON(w, http.StatusCreated, mvs)
}

/* Transfer requests */

type transferRequestPayload struct {
	FromDeptID int64  `json:"from_department_id"`
	ToDeptID   int64  `json:"to_department_id"`
	Reason     string `json:"reason"`
	Lines      []struct {
		ItemID   int64 `json:"item_id"`
		Quantity int64 `json:"quantity"`
	} `json:"lines"`
}

func (h *Handler) createTransferRequest(w http.ResponseWriter, r *http.Request) {
	id := identityFrom(r)
	var p transferRequestPayload
	if err := decodeJSON(r, &p); err != nil {
		respondError(w, http.StatusBadRequest, "invalid payload")
		return
	}

	req := transfer.Request{
		FromDeptID:  p.FromDeptID,
		ToDeptID:    p.ToDeptID,
		Reason:      p.Reason,
		RequestedBy: id.ActorID,
	}
	if req.ToDeptID == 0 {
		req.ToDeptID = id.DepartmentID
	}
	for _, l := range p.Lines {
		req.Lines = append(req.Lines, transfer.Line{ItemID: l.ItemID, Quantity: l.Quantity})
	}

	created, err := h.transfers.Create(r.Context(), req)
	if err != nil {
		respondError(w, http.StatusBadRequest, err.Error())
		return
	}
	respondJSON(w, http.StatusCreated, created)
}

// listTransferRequests shows the queue a department is asked to fulfil.
func (h *Handler) listTransferRequests(w http.ResponseWriter, r *http.Request) {
	id := identityFrom(r)
	reqs, err := h.transfers.ListPending(r.Context(), id.DepartmentID)
	if err != nil {
		h.log.Error("list transfer requests failed", "err", err)
		respondError(w, http.StatusInternalServerError, "internal error")
		return
	}
	respondJSON(w, http.StatusOK, reqs)
}

func (h *Handler) confirmTransferRequest(w http.ResponseWriter, r *http.Request) {
	reqID, err := pathID(r, "id")
	if err != nil {
		respondError(w, http.StatusBadRequest, "invalid id")
		return
	}
	mvs, err := h.svc.ConfirmTransferRequest(r.Context(), reqID, identityFrom(r).actor())
	if err != nil {
		h.respondMovementError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, mvs)
}
