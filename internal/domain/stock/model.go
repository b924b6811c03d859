package stock

import "time"

// Status is the discrete stock-level label derived from quantity against a
// baseline ceiling. One threshold table for every caller; boundaries are
// strict and evaluated descending, first match wins.
type Status string

const (
	StatusGood    Status = "good"     // > 70% of baseline
	StatusLow     Status = "low"      // > 50%, <= 70%
	StatusVeryLow Status = "very_low" // > 0%, <= 50%
	StatusOut     Status = "out_of_stock"
	StatusUnknown Status = "unknown" // no usable baseline
)

// Severity orders statuses from healthiest to worst. Unknown sits outside
// the ladder and compares as healthiest so it never masks a real shortage.
func (s Status) Severity() int {
	switch s {
	case StatusGood:
		return 1
	case StatusLow:
		return 2
	case StatusVeryLow:
		return 3
	case StatusOut:
		return 4
	default:
		return 0
	}
}

// Classify maps a quantity and its baseline ceiling to a Status. Total over
// its domain: a zero or negative baseline yields StatusUnknown, never a
// division by zero.
func Classify(quantity, maxQuantity int64) Status {
	if maxQuantity <= 0 {
		return StatusUnknown
	}
	if quantity <= 0 {
		return StatusOut
	}
	pct := float64(quantity) / float64(maxQuantity) * 100
	switch {
	case pct > 70:
		return StatusGood
	case pct > 50:
		return StatusLow
	default:
		return StatusVeryLow
	}
}

// LocationStock is one department's holding of one catalog item.
type LocationStock struct {
	ItemID       int64
	DepartmentID int64
	Quantity     int64
	MaxQuantity  int64 // frozen at first stock-in from the item baseline
	Status       Status
	UpdatedAt    time.Time

	// denormalized by the overview query, not stored on the row
	ItemName     string
	ItemBaseline int64 // current catalog baseline
	Central      bool  // department type
}
