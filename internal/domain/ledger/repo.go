package ledger

import (
	"context"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// Repo is read-only on purpose: movements are appended by the recorder
// inside its transaction and never touched again.
type Repo struct{ pool *pgxpool.Pool }

func NewRepo(pool *pgxpool.Pool) *Repo { return &Repo{pool: pool} }

const selectCols = `
	SELECT id, created_at, move_type, item_id, department_id, delta,
	       actor_id, actor_name, counterpart_id, reason, idempotency_key, COALESCE(transfer_group,'')
	FROM movements
`

func (r *Repo) ListByItem(ctx context.Context, itemID int64, limit int) ([]Movement, error) {
	rows, err := r.pool.Query(ctx, selectCols+`
		WHERE item_id=$1 ORDER BY created_at DESC, id DESC LIMIT $2
	`, itemID, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return scanMovements(rows)
}

func (r *Repo) ListByDepartment(ctx context.Context, departmentID int64, limit int) ([]Movement, error) {
	rows, err := r.pool.Query(ctx, selectCols+`
		WHERE department_id=$1 ORDER BY created_at DESC, id DESC LIMIT $2
	`, departmentID, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return scanMovements(rows)
}

func (r *Repo) ListRange(ctx context.Context, from, to time.Time) ([]Movement, error) {
	rows, err := r.pool.Query(ctx, selectCols+`
		WHERE created_at >= $1 AND created_at < $2 ORDER BY created_at, id
	`, from, to)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return scanMovements(rows)
}

func (r *Repo) ListByTransferGroup(ctx context.Context, group string) ([]Movement, error) {
	rows, err := r.pool.Query(ctx, selectCols+`
		WHERE transfer_group=$1 ORDER BY id
	`, group)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return scanMovements(rows)
}

func scanMovements(rows pgx.Rows) ([]Movement, error) {
	var out []Movement
	for rows.Next() {
		var m Movement
		if err := rows.Scan(
			&m.ID,
			&m.CreatedAt,
			&m.Type,
			&m.ItemID,
			&m.DepartmentID,
			&m.Delta,
			&m.ActorID,
			&m.ActorName,
			&m.CounterpartID,
			&m.Reason,
			&m.IdempotencyKey,
			&m.TransferGroup,
		); err != nil {
			return nil, err
		}
		out = append(out, m)
	}
	return out, rows.Err()
}
