package stock

import (
	"context"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

type Repo struct{ pool *pgxpool.Pool }

func NewRepo(pool *pgxpool.Pool) *Repo { return &Repo{pool: pool} }

// Get returns the row for (item, department), or nil when the department
// has never held the item.
func (r *Repo) Get(ctx context.Context, itemID, departmentID int64) (*LocationStock, error) {
	row := r.pool.QueryRow(ctx, `
		SELECT item_id, department_id, quantity, max_quantity, status, updated_at
		FROM location_stocks
		WHERE item_id=$1 AND department_id=$2
	`, itemID, departmentID)
	var ls LocationStock
	if err := row.Scan(&ls.ItemID, &ls.DepartmentID, &ls.Quantity, &ls.MaxQuantity, &ls.Status, &ls.UpdatedAt); err != nil {
		if err == pgx.ErrNoRows {
			return nil, nil
		}
		return nil, err
	}
	return &ls, nil
}

func (r *Repo) ListByDepartment(ctx context.Context, departmentID int64) ([]LocationStock, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT ls.item_id, ls.department_id, ls.quantity, ls.max_quantity, ls.status, ls.updated_at,
		       i.name, i.max_quantity, d.central
		FROM location_stocks ls
		JOIN items i ON i.id = ls.item_id
		JOIN departments d ON d.id = ls.department_id
		WHERE ls.department_id = $1
		ORDER BY i.name
	`, departmentID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return scanList(rows)
}

// ListAll is the overview read feeding Aggregate: every location row joined
// with its item name, the current catalog baseline and the department type.
func (r *Repo) ListAll(ctx context.Context) ([]LocationStock, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT ls.item_id, ls.department_id, ls.quantity, ls.max_quantity, ls.status, ls.updated_at,
		       i.name, i.max_quantity, d.central
		FROM location_stocks ls
		JOIN items i ON i.id = ls.item_id
		JOIN departments d ON d.id = ls.department_id
		ORDER BY i.name, ls.department_id
	`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return scanList(rows)
}

func scanList(rows pgx.Rows) ([]LocationStock, error) {
	var out []LocationStock
	for rows.Next() {
		var ls LocationStock
		if err := rows.Scan(
			&ls.ItemID,
			&ls.DepartmentID,
			&ls.Quantity,
			&ls.MaxQuantity,
			&ls.Status,
			&ls.UpdatedAt,
			&ls.ItemName,
			&ls.ItemBaseline,
			&ls.Central,
		); err != nil {
			return nil, err
		}
		out = append(out, ls)
	}
	return out, rows.Err()
}
