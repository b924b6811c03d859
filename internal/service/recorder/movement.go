package recorder

import "errors"

// Actor is the authenticated principal a movement is stamped with. Always
// passed explicitly; the recorder has no notion of a current user.
type Actor struct {
	ID   string
	Name string
}

type StockIn struct {
	ItemID         int64
	DepartmentID   int64
	Quantity       int64
	Actor          Actor
	Reason         string
	IdempotencyKey string
}

type Usage struct {
	ItemID         int64
	DepartmentID   int64
	Quantity       int64
	Actor          Actor
	Reason         string
	IdempotencyKey string
}

// Adjustment corrects a count after an audit. Delta is signed.
type Adjustment struct {
	ItemID         int64
	DepartmentID   int64
	Delta          int64
	Actor          Actor
	Reason         string
	IdempotencyKey string
}

type Transfer struct {
	ItemID         int64
	FromDeptID     int64
	ToDeptID       int64
	Quantity       int64
	Actor          Actor
	Reason         string
	IdempotencyKey string
}

func (m StockIn) validate() error {
	return validateCommon(m.ItemID, m.DepartmentID, m.Quantity, m.Actor, m.IdempotencyKey)
}

func (m Usage) validate() error {
	return validateCommon(m.ItemID, m.DepartmentID, m.Quantity, m.Actor, m.IdempotencyKey)
}

func (m Adjustment) validate() error {
	if m.Delta == 0 {
		return errors.New("recorder: adjustment delta must be non-zero")
	}
	qty := m.Delta
	if qty < 0 {
		qty = -qty
	}
	return validateCommon(m.ItemID, m.DepartmentID, qty, m.Actor, m.IdempotencyKey)
}

func (m Transfer) validate() error {
	if m.FromDeptID == m.ToDeptID {
		return errors.New("recorder: transfer source and destination must differ")
	}
	if m.FromDeptID <= 0 || m.ToDeptID <= 0 {
		return errors.New("recorder: department id required")
	}
	return validateCommon(m.ItemID, m.FromDeptID, m.Quantity, m.Actor, m.IdempotencyKey)
}

func validateCommon(itemID, deptID, qty int64, actor Actor, key string) error {
	switch {
	case itemID <= 0:
		return errors.New("recorder: item id required")
	case deptID <= 0:
		return errors.New("recorder: department id required")
	case qty <= 0:
		return errors.New("recorder: quantity must be > 0")
	case actor.ID == "":
		return errors.New("recorder: actor required")
	case key == "":
		return errors.New("recorder: idempotency key required")
	}
	return nil
}

// applyDelta is the one place quantity arithmetic happens. A result below
// zero is rejected, never clamped.
func applyDelta(current, delta int64) (int64, error) {
	next := current + delta
	if next < 0 {
		return 0, ErrInsufficientStock
	}
	return next, nil
}
