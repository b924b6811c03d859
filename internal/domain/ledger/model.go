package ledger

import "time"

type MoveType string

const (
	MoveStockIn     MoveType = "stock_in"
	MoveUsage       MoveType = "usage"
	MoveTransferOut MoveType = "transfer_out"
	MoveTransferIn  MoveType = "transfer_in"
	MoveAdjustment  MoveType = "adjustment"
)

// Movement is one immutable audit row. Rows are only ever appended, inside
// the same transaction as the quantity change they describe; the two legs of
// a transfer share a TransferGroup.
type Movement struct {
	ID             int64     `json:"id"`
	CreatedAt      time.Time `json:"created_at"`
	Type           MoveType  `json:"type"`
	ItemID         int64     `json:"item_id"`
	DepartmentID   int64     `json:"department_id"`
	Delta          int64     `json:"delta"` // signed; negative for usage and transfer_out
	ActorID        string    `json:"actor_id"`
	ActorName      string    `json:"actor_name"`
	CounterpartID  *int64    `json:"counterpart_id,omitempty"` // other department of a transfer
	Reason         string    `json:"reason"`
	IdempotencyKey string    `json:"idempotency_key"`
	TransferGroup  string    `json:"transfer_group,omitempty"`
}
