package transfer

import "time"

// Request is a pending ask from one department to another for stock. It is
// consumed (deleted) once the confirming department converts it into actual
// movements.
type Request struct {
	ID          int64     `json:"id"`
	FromDeptID  int64     `json:"from_department_id"` // department asked to supply
	ToDeptID    int64     `json:"to_department_id"`   // requesting department
	Reason      string    `json:"reason"`
	RequestedBy string    `json:"requested_by"`
	CreatedAt   time.Time `json:"created_at"`
	Lines       []Line    `json:"lines"`
}

type Line struct {
	ItemID   int64 `json:"item_id"`
	Quantity int64 `json:"quantity"`
}
