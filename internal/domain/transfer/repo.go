package transfer

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

var ErrEmptyRequest = errors.New("transfer: request needs at least one line")

type Repo struct{ pool *pgxpool.Pool }

func NewRepo(pool *pgxpool.Pool) *Repo { return &Repo{pool: pool} }

func (r *Repo) Create(ctx context.Context, req Request) (*Request, error) {
	if len(req.Lines) == 0 {
		return nil, ErrEmptyRequest
	}
	for _, l := range req.Lines {
		if l.Quantity <= 0 {
			return nil, errors.New("transfer: line quantity must be > 0")
		}
	}

	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return nil, err
	}
	defer func() { _ = tx.Rollback(ctx) }()

	row := tx.QueryRow(ctx, `
		INSERT INTO transfer_requests (from_dept_id, to_dept_id, reason, requested_by)
		VALUES ($1,$2,$3,$4)
		RETURNING id, created_at
	`, req.FromDeptID, req.ToDeptID, req.Reason, req.RequestedBy)
	if err := row.Scan(&req.ID, &req.CreatedAt); err != nil {
		return nil, err
	}

	for _, l := range req.Lines {
		if _, err := tx.Exec(ctx, `
			INSERT INTO transfer_request_lines (request_id, item_id, quantity)
			VALUES ($1,$2,$3)
		`, req.ID, l.ItemID, l.Quantity); err != nil {
			return nil, err
		}
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, err
	}
	return &req, nil
}

func (r *Repo) GetByID(ctx context.Context, id int64) (*Request, error) {
	row := r.pool.QueryRow(ctx, `
		SELECT id, from_dept_id, to_dept_id, reason, requested_by, created_at
		FROM transfer_requests WHERE id=$1
	`, id)
	var req Request
	if err := row.Scan(&req.ID, &req.FromDeptID, &req.ToDeptID, &req.Reason, &req.RequestedBy, &req.CreatedAt); err != nil {
		if err == pgx.ErrNoRows {
			return nil, nil
		}
		return nil, err
	}

	rows, err := r.pool.Query(ctx, `
		SELECT item_id, quantity FROM transfer_request_lines WHERE request_id=$1 ORDER BY item_id
	`, id)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	for rows.Next() {
		var l Line
		if err := rows.Scan(&l.ItemID, &l.Quantity); err != nil {
			return nil, err
		}
		req.Lines = append(req.Lines, l)
	}
	return &req, rows.Err()
}

// ListPending returns requests a department is being asked to fulfil.
func (r *Repo) ListPending(ctx context.Context, fromDeptID int64) ([]Request, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT id, from_dept_id, to_dept_id, reason, requested_by, created_at
		FROM transfer_requests
		WHERE from_dept_id=$1
		ORDER BY created_at
	`, fromDeptID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []Request
	var ids []int64
	for rows.Next() {
		var req Request
		if err := rows.Scan(&req.ID, &req.FromDeptID, &req.ToDeptID, &req.Reason, &req.RequestedBy, &req.CreatedAt); err != nil {
			return nil, err
		}
		out = append(out, req)
		ids = append(ids, req.ID)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	if len(out) == 0 {
		return out, nil
	}

	// one pass for every request's lines instead of a query per request
	lineRows, err := r.pool.Query(ctx, `
		SELECT request_id, item_id, quantity
		FROM transfer_request_lines
		WHERE request_id = ANY($1)
		ORDER BY request_id, item_id
	`, ids)
	if err != nil {
		return nil, err
	}
	defer lineRows.Close()

	lines := make(map[int64][]Line, len(out))
	for lineRows.Next() {
		var reqID int64
		var l Line
		if err := lineRows.Scan(&reqID, &l.ItemID, &l.Quantity); err != nil {
			return nil, err
		}
		lines[reqID] = append(lines[reqID], l)
	}
	if err := lineRows.Err(); err != nil {
		return nil, err
	}

	for i := range out {
		out[i].Lines = lines[out[i].ID]
	}
	return out, nil
}

// Delete consumes a confirmed request. Lines go with it via FK cascade.
func (r *Repo) Delete(ctx context.Context, id int64) error {
	_, err := r.pool.Exec(ctx, `DELETE FROM transfer_requests WHERE id=$1`, id)
	return err
}
