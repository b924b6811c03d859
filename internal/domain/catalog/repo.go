package catalog

import (
	"context"
	"errors"
	"strings"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

var ErrBaselineRequired = errors.New("catalog: max quantity must be positive")

type Repo struct{ pool *pgxpool.Pool }

func NewRepo(pool *pgxpool.Pool) *Repo { return &Repo{pool: pool} }

/* Items */

func (r *Repo) CreateItem(ctx context.Context, it Item) (*Item, error) {
	if it.MaxQuantity <= 0 {
		return nil, ErrBaselineRequired
	}
	row := r.pool.QueryRow(ctx, `
		INSERT INTO items (name, category, item_group, small_unit, big_unit, unit_factor, cost_price, retail_price, max_quantity, active)
		VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,TRUE)
		RETURNING id, name, category, item_group, small_unit, big_unit, unit_factor, cost_price, retail_price, max_quantity, active, created_at
	`, it.Name, it.Category, it.Group, it.SmallUnit, it.BigUnit, it.UnitFactor, it.CostPrice, it.RetailPrice, it.MaxQuantity)
	return scanItem(row)
}

func (r *Repo) GetItem(ctx context.Context, id int64) (*Item, error) {
	row := r.pool.QueryRow(ctx, `
		SELECT id, name, category, item_group, small_unit, big_unit, unit_factor, cost_price, retail_price, max_quantity, active, created_at
		FROM items WHERE id = $1
	`, id)
	it, err := scanItem(row)
	if err == pgx.ErrNoRows {
		return nil, nil
	}
	return it, err
}

func (r *Repo) ListItems(ctx context.Context, onlyActive bool) ([]Item, error) {
	q := `
		SELECT id, name, category, item_group, small_unit, big_unit, unit_factor, cost_price, retail_price, max_quantity, active, created_at
		FROM items
	`
	if onlyActive {
		q += " WHERE active = TRUE"
	}
	q += " ORDER BY name"

	rows, err := r.pool.Query(ctx, q)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []Item
	for rows.Next() {
		it, err := scanItem(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, *it)
	}
	return out, rows.Err()
}

func (r *Repo) UpdateItem(ctx context.Context, it Item) (*Item, error) {
	if it.MaxQuantity <= 0 {
		return nil, ErrBaselineRequired
	}
	row := r.pool.QueryRow(ctx, `
		UPDATE items
		SET name=$2, category=$3, item_group=$4, small_unit=$5, big_unit=$6, unit_factor=$7, cost_price=$8, retail_price=$9, max_quantity=$10
		WHERE id=$1
		RETURNING id, name, category, item_group, small_unit, big_unit, unit_factor, cost_price, retail_price, max_quantity, active, created_at
	`, it.ID, it.Name, it.Category, it.Group, it.SmallUnit, it.BigUnit, it.UnitFactor, it.CostPrice, it.RetailPrice, it.MaxQuantity)
	out, err := scanItem(row)
	if err == pgx.ErrNoRows {
		return nil, nil
	}
	return out, err
}

func (r *Repo) SetItemActive(ctx context.Context, id int64, active bool) error {
	_, err := r.pool.Exec(ctx, `UPDATE items SET active=$2 WHERE id=$1`, id, active)
	return err
}

// SearchItems matches on part of the name or category, case-insensitive.
func (r *Repo) SearchItems(ctx context.Context, q string) ([]Item, error) {
	q = strings.TrimSpace(q)
	if q == "" {
		return nil, nil
	}
	like := "%" + strings.ToLower(q) + "%"
	rows, err := r.pool.Query(ctx, `
		SELECT id, name, category, item_group, small_unit, big_unit, unit_factor, cost_price, retail_price, max_quantity, active, created_at
		FROM items
		WHERE LOWER(name) LIKE $1 OR LOWER(category) LIKE $1
		ORDER BY name
	`, like)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []Item
	for rows.Next() {
		it, err := scanItem(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, *it)
	}
	return out, rows.Err()
}

func scanItem(row pgx.Row) (*Item, error) {
	var it Item
	if err := row.Scan(
		&it.ID,
		&it.Name,
		&it.Category,
		&it.Group,
		&it.SmallUnit,
		&it.BigUnit,
		&it.UnitFactor,
		&it.CostPrice,
		&it.RetailPrice,
		&it.MaxQuantity,
		&it.Active,
		&it.CreatedAt,
	); err != nil {
		return nil, err
	}
	return &it, nil
}

/* Departments */

func (r *Repo) CreateDepartment(ctx context.Context, name string, central bool) (*Department, error) {
	row := r.pool.QueryRow(ctx, `
		INSERT INTO departments (name, central, active)
		VALUES ($1,$2,TRUE)
		RETURNING id, name, central, active, created_at
	`, name, central)
	var d Department
	if err := row.Scan(&d.ID, &d.Name, &d.Central, &d.Active, &d.CreatedAt); err != nil {
		return nil, err
	}
	return &d, nil
}

func (r *Repo) GetDepartment(ctx context.Context, id int64) (*Department, error) {
	row := r.pool.QueryRow(ctx, `
		SELECT id, name, central, active, created_at FROM departments WHERE id=$1
	`, id)
	var d Department
	if err := row.Scan(&d.ID, &d.Name, &d.Central, &d.Active, &d.CreatedAt); err != nil {
		if err == pgx.ErrNoRows {
			return nil, nil
		}
		return nil, err
	}
	return &d, nil
}

func (r *Repo) UpdateDepartment(ctx context.Context, d Department) (*Department, error) {
	row := r.pool.QueryRow(ctx, `
		UPDATE departments SET name=$2, central=$3 WHERE id=$1
		RETURNING id, name, central, active, created_at
	`, d.ID, d.Name, d.Central)
	var out Department
	if err := row.Scan(&out.ID, &out.Name, &out.Central, &out.Active, &out.CreatedAt); err != nil {
		if err == pgx.ErrNoRows {
			return nil, nil
		}
		return nil, err
	}
	return &out, nil
}

func (r *Repo) ListDepartments(ctx context.Context, onlyActive bool) ([]Department, error) {
	q := `SELECT id, name, central, active, created_at FROM departments`
	if onlyActive {
		q += " WHERE active = TRUE"
	}
	q += " ORDER BY name"

	rows, err := r.pool.Query(ctx, q)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []Department
	for rows.Next() {
		var d Department
		if err := rows.Scan(&d.ID, &d.Name, &d.Central, &d.Active, &d.CreatedAt); err != nil {
			return nil, err
		}
		out = append(out, d)
	}
	return out, rows.Err()
}

func (r *Repo) SetDepartmentActive(ctx context.Context, id int64, active bool) error {
	_, err := r.pool.Exec(ctx, `UPDATE departments SET active=$2 WHERE id=$1`, id, active)
	return err
}
