package recorder

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/Spok95/clinic-stock/internal/domain/ledger"
	"github.com/Spok95/clinic-stock/internal/domain/stock"
	"github.com/Spok95/clinic-stock/internal/domain/transfer"
	"github.com/Spok95/clinic-stock/internal/infra/metrics"
)

// Notifier pushes a human-readable alert somewhere out of band. Failures
// must not fail the movement that triggered them.
type Notifier interface {
	Notify(ctx context.Context, text string) error
}

// Recorder applies stock movements. Every movement runs in one database
// transaction: affected location rows are locked FOR UPDATE, sufficiency is
// checked before any write, quantity and status are updated together, and
// exactly one ledger row per leg is appended before commit.
type Recorder struct {
	pool      *pgxpool.Pool
	transfers *transfer.Repo
	log       *slog.Logger
	notifier  Notifier
}

func New(pool *pgxpool.Pool, transfers *transfer.Repo, log *slog.Logger, notifier Notifier) *Recorder {
	return &Recorder{pool: pool, transfers: transfers, log: log, notifier: notifier}
}

func (r *Recorder) StockIn(ctx context.Context, m StockIn) (*ledger.Movement, error) {
	if err := m.validate(); err != nil {
		return nil, err
	}

	var (
		mv       *ledger.Movement
		itemName string
		deptName string
		prev     stock.Status
		next     stock.Status
		qty      int64
		maxQ     int64
	)
	err := r.inTx(ctx, func(tx pgx.Tx) error {
		item, err := lookupItem(ctx, tx, m.ItemID)
		if err != nil {
			return err
		}
		dept, err := lookupDept(ctx, tx, m.DepartmentID)
		if err != nil {
			return err
		}
		itemName, deptName = item.name, dept.name

		row, err := lockOrCreateRow(ctx, tx, m.ItemID, m.DepartmentID, item.maxQuantity)
		if err != nil {
			return err
		}
		prev = row.status

		newQty, err := applyDelta(row.quantity, m.Quantity)
		if err != nil {
			return err
		}
		next = stock.Classify(newQty, row.maxQuantity)
		qty, maxQ = newQty, row.maxQuantity

		if err := updateRow(ctx, tx, m.ItemID, m.DepartmentID, newQty, next); err != nil {
			return err
		}
		mv, err = insertMovement(ctx, tx, ledger.Movement{
			Type:           ledger.MoveStockIn,
			ItemID:         m.ItemID,
			DepartmentID:   m.DepartmentID,
			Delta:          m.Quantity,
			ActorID:        m.Actor.ID,
			ActorName:      m.Actor.Name,
			Reason:         m.Reason,
			IdempotencyKey: m.IdempotencyKey,
		})
		return err
	})
	if err != nil {
		metrics.MovementsRejected.WithLabelValues(rejectReason(err)).Inc()
		return nil, err
	}

	metrics.MovementsRecorded.WithLabelValues(string(ledger.MoveStockIn)).Inc()
	r.maybeAlert(ctx, itemName, deptName, qty, maxQ, prev, next)
	return mv, nil
}

func (r *Recorder) Usage(ctx context.Context, m Usage) (*ledger.Movement, error) {
	if err := m.validate(); err != nil {
		return nil, err
	}

	var (
		mv       *ledger.Movement
		itemName string
		deptName string
		prev     stock.Status
		next     stock.Status
		qty      int64
		maxQ     int64
	)
	err := r.inTx(ctx, func(tx pgx.Tx) error {
		item, err := lookupItem(ctx, tx, m.ItemID)
		if err != nil {
			return err
		}
		dept, err := lookupDept(ctx, tx, m.DepartmentID)
		if err != nil {
			return err
		}
		itemName, deptName = item.name, dept.name

		// usage never creates a row: a department that never stocked the
		// item holds zero and zero is always insufficient
		row, err := lockRow(ctx, tx, m.ItemID, m.DepartmentID)
		if err != nil {
			return err
		}
		if row == nil {
			return ErrInsufficientStock
		}
		prev = row.status

		newQty, err := applyDelta(row.quantity, -m.Quantity)
		if err != nil {
			return err
		}
		next = stock.Classify(newQty, row.maxQuantity)
		qty, maxQ = newQty, row.maxQuantity

		if err := updateRow(ctx, tx, m.ItemID, m.DepartmentID, newQty, next); err != nil {
			return err
		}
		mv, err = insertMovement(ctx, tx, ledger.Movement{
			Type:           ledger.MoveUsage,
			ItemID:         m.ItemID,
			DepartmentID:   m.DepartmentID,
			Delta:          -m.Quantity,
			ActorID:        m.Actor.ID,
			ActorName:      m.Actor.Name,
			Reason:         m.Reason,
			IdempotencyKey: m.IdempotencyKey,
		})
		return err
	})
	if err != nil {
		metrics.MovementsRejected.WithLabelValues(rejectReason(err)).Inc()
		return nil, err
	}

	metrics.MovementsRecorded.WithLabelValues(string(ledger.MoveUsage)).Inc()
	r.maybeAlert(ctx, itemName, deptName, qty, maxQ, prev, next)
	return mv, nil
}

func (r *Recorder) Adjust(ctx context.Context, m Adjustment) (*ledger.Movement, error) {
	if err := m.validate(); err != nil {
		return nil, err
	}

	var (
		mv       *ledger.Movement
		itemName string
		deptName string
		prev     stock.Status
		next     stock.Status
		qty      int64
		maxQ     int64
	)
	err := r.inTx(ctx, func(tx pgx.Tx) error {
		item, err := lookupItem(ctx, tx, m.ItemID)
		if err != nil {
			return err
		}
		dept, err := lookupDept(ctx, tx, m.DepartmentID)
		if err != nil {
			return err
		}
		itemName, deptName = item.name, dept.name

		var row *lockedRow
		if m.Delta > 0 {
			row, err = lockOrCreateRow(ctx, tx, m.ItemID, m.DepartmentID, item.maxQuantity)
		} else {
			row, err = lockRow(ctx, tx, m.ItemID, m.DepartmentID)
			if err == nil && row == nil {
				err = ErrInsufficientStock
			}
		}
		if err != nil {
			return err
		}
		prev = row.status

		newQty, err := applyDelta(row.quantity, m.Delta)
		if err != nil {
			return err
		}
		next = stock.Classify(newQty, row.maxQuantity)
		qty, maxQ = newQty, row.maxQuantity

		if err := updateRow(ctx, tx, m.ItemID, m.DepartmentID, newQty, next); err != nil {
			return err
		}
		mv, err = insertMovement(ctx, tx, ledger.Movement{
			Type:           ledger.MoveAdjustment,
			ItemID:         m.ItemID,
			DepartmentID:   m.DepartmentID,
			Delta:          m.Delta,
			ActorID:        m.Actor.ID,
			ActorName:      m.Actor.Name,
			Reason:         m.Reason,
			IdempotencyKey: m.IdempotencyKey,
		})
		return err
	})
	if err != nil {
		metrics.MovementsRejected.WithLabelValues(rejectReason(err)).Inc()
		return nil, err
	}

	metrics.MovementsRecorded.WithLabelValues(string(ledger.MoveAdjustment)).Inc()
	r.maybeAlert(ctx, itemName, deptName, qty, maxQ, prev, next)
	return mv, nil
}

// Transfer moves quantity between two departments. Both legs and both
// ledger rows commit in the same transaction, so a half-applied transfer
// cannot be observed or persisted.
func (r *Recorder) Transfer(ctx context.Context, m Transfer) ([]ledger.Movement, error) {
	if err := m.validate(); err != nil {
		return nil, err
	}

	var (
		out      []ledger.Movement
		itemName string
		srcName  string
		dstName  string
		src, dst *lockedRow
		srcPrev  stock.Status
		dstPrev  stock.Status
		srcNext  stock.Status
		dstNext  stock.Status
		srcQty   int64
		dstQty   int64
	)
	err := r.inTx(ctx, func(tx pgx.Tx) error {
		item, err := lookupItem(ctx, tx, m.ItemID)
		if err != nil {
			return err
		}
		from, err := lookupDept(ctx, tx, m.FromDeptID)
		if err != nil {
			return err
		}
		to, err := lookupDept(ctx, tx, m.ToDeptID)
		if err != nil {
			return err
		}
		itemName, srcName, dstName = item.name, from.name, to.name

		// the destination row may not exist yet; create it before locking
		// so both rows can be locked in one deterministic pass
		if err := ensureRow(ctx, tx, m.ItemID, m.ToDeptID, item.maxQuantity); err != nil {
			return err
		}
		src, dst, err = lockPair(ctx, tx, m.ItemID, m.FromDeptID, m.ToDeptID)
		if err != nil {
			return err
		}
		if src == nil {
			return ErrInsufficientStock
		}
		if dst == nil {
			return fmt.Errorf("destination stock row missing for item %d department %d", m.ItemID, m.ToDeptID)
		}
		srcPrev, dstPrev = src.status, dst.status

		newSrc, err := applyDelta(src.quantity, -m.Quantity)
		if err != nil {
			return err
		}
		newDst, err := applyDelta(dst.quantity, m.Quantity)
		if err != nil {
			return err
		}
		srcNext = stock.Classify(newSrc, src.maxQuantity)
		dstNext = stock.Classify(newDst, dst.maxQuantity)
		srcQty, dstQty = newSrc, newDst

		if err := updateRow(ctx, tx, m.ItemID, m.FromDeptID, newSrc, srcNext); err != nil {
			return err
		}
		if err := updateRow(ctx, tx, m.ItemID, m.ToDeptID, newDst, dstNext); err != nil {
			return err
		}

		outMv, inMv := transferLegs(m)
		outLeg, err := insertMovement(ctx, tx, outMv)
		if err != nil {
			return err
		}
		inLeg, err := insertMovement(ctx, tx, inMv)
		if err != nil {
			return err
		}
		out = []ledger.Movement{*outLeg, *inLeg}
		return nil
	})
	if err != nil {
		metrics.MovementsRejected.WithLabelValues(rejectReason(err)).Inc()
		return nil, err
	}

	metrics.MovementsRecorded.WithLabelValues(string(ledger.MoveTransferOut)).Inc()
	metrics.MovementsRecorded.WithLabelValues(string(ledger.MoveTransferIn)).Inc()
	r.maybeAlert(ctx, itemName, srcName, srcQty, src.maxQuantity, srcPrev, srcNext)
	r.maybeAlert(ctx, itemName, dstName, dstQty, dst.maxQuantity, dstPrev, dstNext)
	return out, nil
}

// ConfirmTransferRequest converts a pending request into movements, one
// transaction per line, and consumes the request once every line applied.
// Mixed outcomes come back as *PartialTransferError with the request left
// in place holding only history the ledger can explain.
func (r *Recorder) ConfirmTransferRequest(ctx context.Context, requestID int64, actor Actor) ([]ledger.Movement, error) {
	req, err := r.transfers.GetByID(ctx, requestID)
	if err != nil {
		return nil, err
	}
	if req == nil {
		return nil, ErrUnknownRequest
	}

	var (
		movements []ledger.Movement
		applied   []int64
		failed    []LineFailure
	)
	for _, line := range req.Lines {
		mvs, err := r.Transfer(ctx, Transfer{
			ItemID:         line.ItemID,
			FromDeptID:     req.FromDeptID,
			ToDeptID:       req.ToDeptID,
			Quantity:       line.Quantity,
			Actor:          actor,
			Reason:         req.Reason,
			IdempotencyKey: fmt.Sprintf("treq-%d-item-%d", req.ID, line.ItemID),
		})
		if err != nil {
			// a replayed confirmation finds its earlier legs already
			// recorded; that line counts as applied, not failed
			if errors.Is(err, ErrDuplicateMovement) {
				applied = append(applied, line.ItemID)
				continue
			}
			failed = append(failed, LineFailure{ItemID: line.ItemID, Err: err})
			continue
		}
		movements = append(movements, mvs...)
		applied = append(applied, line.ItemID)
	}

	if len(failed) == 0 {
		if err := r.transfers.Delete(ctx, req.ID); err != nil {
			r.log.Error("transfer request consumed but not deleted", "request_id", req.ID, "err", err)
		}
		return movements, nil
	}
	return movements, confirmOutcome(req.ID, applied, failed)
}

// confirmOutcome shapes the error for a confirmation with failed lines.
// "Partially completed" is only claimed when something actually applied;
// when every line failed the caller gets a plain aggregate failure.
func confirmOutcome(requestID int64, applied []int64, failed []LineFailure) error {
	if len(applied) == 0 {
		errs := make([]error, 0, len(failed))
		for _, f := range failed {
			errs = append(errs, fmt.Errorf("item %d: %w", f.ItemID, f.Err))
		}
		return fmt.Errorf("recorder: transfer request %d failed, no lines applied: %w", requestID, errors.Join(errs...))
	}
	return &PartialTransferError{RequestID: requestID, Applied: applied, Failed: failed}
}

// transferLegs builds the two ledger rows of a transfer. Both legs carry
// the caller's idempotency key unchanged; uniqueness is scoped per movement
// type, so the out and in legs never collide with each other or with a
// stock-in that happens to reuse the same key text.
func transferLegs(m Transfer) (out, in ledger.Movement) {
	out = ledger.Movement{
		Type:           ledger.MoveTransferOut,
		ItemID:         m.ItemID,
		DepartmentID:   m.FromDeptID,
		Delta:          -m.Quantity,
		ActorID:        m.Actor.ID,
		ActorName:      m.Actor.Name,
		CounterpartID:  &m.ToDeptID,
		Reason:         m.Reason,
		IdempotencyKey: m.IdempotencyKey,
		TransferGroup:  m.IdempotencyKey,
	}
	in = ledger.Movement{
		Type:           ledger.MoveTransferIn,
		ItemID:         m.ItemID,
		DepartmentID:   m.ToDeptID,
		Delta:          m.Quantity,
		ActorID:        m.Actor.ID,
		ActorName:      m.Actor.Name,
		CounterpartID:  &m.FromDeptID,
		Reason:         m.Reason,
		IdempotencyKey: m.IdempotencyKey,
		TransferGroup:  m.IdempotencyKey,
	}
	return out, in
}

/* transaction plumbing */

func (r *Recorder) inTx(ctx context.Context, fn func(tx pgx.Tx) error) error {
	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return err
	}
	defer func() { _ = tx.Rollback(ctx) }()

	if err := fn(tx); err != nil {
		return mapPgError(err)
	}
	if err := tx.Commit(ctx); err != nil {
		return mapPgError(err)
	}
	return nil
}

func mapPgError(err error) error {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		switch pgErr.Code {
		case "23505": // unique_violation: idempotency key replay
			return ErrDuplicateMovement
		case "40001", "40P01": // serialization failure / deadlock
			return ErrConcurrentModification
		}
	}
	return err
}

type itemInfo struct {
	name        string
	maxQuantity int64
}

func lookupItem(ctx context.Context, tx pgx.Tx, id int64) (*itemInfo, error) {
	var it itemInfo
	err := tx.QueryRow(ctx, `SELECT name, max_quantity FROM items WHERE id=$1`, id).
		Scan(&it.name, &it.maxQuantity)
	if err == pgx.ErrNoRows {
		return nil, ErrUnknownItem
	}
	if err != nil {
		return nil, err
	}
	return &it, nil
}

type deptInfo struct {
	name    string
	central bool
}

func lookupDept(ctx context.Context, tx pgx.Tx, id int64) (*deptInfo, error) {
	var d deptInfo
	err := tx.QueryRow(ctx, `SELECT name, central FROM departments WHERE id=$1`, id).
		Scan(&d.name, &d.central)
	if err == pgx.ErrNoRows {
		return nil, ErrUnknownDepartment
	}
	if err != nil {
		return nil, err
	}
	return &d, nil
}

type lockedRow struct {
	quantity    int64
	maxQuantity int64
	status      stock.Status
}

func ensureRow(ctx context.Context, tx pgx.Tx, itemID, deptID, baseline int64) error {
	// max_quantity freezes at first contact with the item
	_, err := tx.Exec(ctx, `
		INSERT INTO location_stocks (item_id, department_id, quantity, max_quantity, status)
		VALUES ($1,$2,0,$3,$4)
		ON CONFLICT (item_id, department_id) DO NOTHING
	`, itemID, deptID, baseline, stock.Classify(0, baseline))
	return err
}

func lockRow(ctx context.Context, tx pgx.Tx, itemID, deptID int64) (*lockedRow, error) {
	var row lockedRow
	err := tx.QueryRow(ctx, `
		SELECT quantity, max_quantity, status FROM location_stocks
		WHERE item_id=$1 AND department_id=$2
		FOR UPDATE
	`, itemID, deptID).Scan(&row.quantity, &row.maxQuantity, &row.status)
	if err == pgx.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &row, nil
}

func lockOrCreateRow(ctx context.Context, tx pgx.Tx, itemID, deptID, baseline int64) (*lockedRow, error) {
	if err := ensureRow(ctx, tx, itemID, deptID, baseline); err != nil {
		return nil, err
	}
	return lockRow(ctx, tx, itemID, deptID)
}

// lockPair locks the source and destination rows of a transfer in one
// statement; department_id order keeps two opposed transfers from
// deadlocking. The destination row must already exist.
func lockPair(ctx context.Context, tx pgx.Tx, itemID, fromDept, toDept int64) (src, dst *lockedRow, err error) {
	rows, err := tx.Query(ctx, `
		SELECT department_id, quantity, max_quantity, status FROM location_stocks
		WHERE item_id=$1 AND department_id IN ($2,$3)
		ORDER BY department_id
		FOR UPDATE
	`, itemID, fromDept, toDept)
	if err != nil {
		return nil, nil, err
	}
	defer rows.Close()

	for rows.Next() {
		var deptID int64
		var row lockedRow
		if err := rows.Scan(&deptID, &row.quantity, &row.maxQuantity, &row.status); err != nil {
			return nil, nil, err
		}
		switch deptID {
		case fromDept:
			src = &row
		case toDept:
			dst = &row
		}
	}
	return src, dst, rows.Err()
}

func updateRow(ctx context.Context, tx pgx.Tx, itemID, deptID, quantity int64, status stock.Status) error {
	_, err := tx.Exec(ctx, `
		UPDATE location_stocks
		SET quantity=$3, status=$4, updated_at=NOW()
		WHERE item_id=$1 AND department_id=$2
	`, itemID, deptID, quantity, status)
	return err
}

func insertMovement(ctx context.Context, tx pgx.Tx, m ledger.Movement) (*ledger.Movement, error) {
	var group any
	if m.TransferGroup != "" {
		group = m.TransferGroup
	}
	err := tx.QueryRow(ctx, `
		INSERT INTO movements (move_type, item_id, department_id, delta, actor_id, actor_name, counterpart_id, reason, idempotency_key, transfer_group)
		VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10)
		RETURNING id, created_at
	`, m.Type, m.ItemID, m.DepartmentID, m.Delta, m.ActorID, m.ActorName, m.CounterpartID, m.Reason, m.IdempotencyKey, group).
		Scan(&m.ID, &m.CreatedAt)
	if err != nil {
		return nil, err
	}
	return &m, nil
}

func rejectReason(err error) string {
	switch {
	case errors.Is(err, ErrInsufficientStock):
		return "insufficient_stock"
	case errors.Is(err, ErrUnknownItem):
		return "unknown_item"
	case errors.Is(err, ErrUnknownDepartment):
		return "unknown_department"
	case errors.Is(err, ErrDuplicateMovement):
		return "duplicate"
	case errors.Is(err, ErrConcurrentModification):
		return "conflict"
	default:
		return "other"
	}
}

func (r *Recorder) maybeAlert(ctx context.Context, itemName, deptName string, qty, maxQ int64, prev, next stock.Status) {
	if r.notifier == nil {
		return
	}
	if next.Severity() <= prev.Severity() {
		return
	}
	if next != stock.StatusVeryLow && next != stock.StatusOut {
		return
	}
	text := fmt.Sprintf("⚠️ %s at %s is %s: %d of %d remaining", itemName, deptName, next, qty, maxQ)
	if err := r.notifier.Notify(ctx, text); err != nil {
		r.log.Error("low-stock alert failed", "item", itemName, "department", deptName, "err", err)
		return
	}
	metrics.LowStockAlerts.Inc()
}
