package database

import (
	"context"
	"database/sql"
	"fmt"

	"pgreconcile/reconcile"
)

// SQLConn runs query batches on a database/sql pool. All statements of a
// batch share one session and run in order, outside any transaction.
type SQLConn struct {
	db *sql.DB
}

// NewSQLConn wraps an open pool. The pool stays owned by the caller.
func NewSQLConn(db *sql.DB) *SQLConn {
	return &SQLConn{db: db}
}

// ExecuteQueries implements reconcile.Conn.
func (c *SQLConn) ExecuteQueries(ctx context.Context, queries []reconcile.QueryAndParams, readOnly bool) (*reconcile.Outcome, error) {
	if len(queries) == 0 {
		return &reconcile.Outcome{State: reconcile.StateSuccess}, nil
	}

	conn, err := c.db.Conn(ctx)
	if err != nil {
		return nil, fmt.Errorf("acquire connection: %w", err)
	}
	defer conn.Close()

	out := &reconcile.Outcome{State: reconcile.StateSuccess}
	for i, q := range queries {
		if !readOnly {
			if _, err := conn.ExecContext(ctx, q.Query, q.Params...); err != nil {
				return statementFailed(out, i, err), nil
			}
			continue
		}
		set, err := queryRows(ctx, conn, q)
		if err != nil {
			return statementFailed(out, i, err), nil
		}
		out.RowSets = append(out.RowSets, set)
	}
	return out, nil
}

func queryRows(ctx context.Context, conn *sql.Conn, q reconcile.QueryAndParams) (reconcile.RowSet, error) {
	var set reconcile.RowSet

	rows, err := conn.QueryContext(ctx, q.Query, q.Params...)
	if err != nil {
		return set, err
	}
	defer rows.Close()

	cols, err := rows.Columns()
	if err != nil {
		return set, err
	}
	for rows.Next() {
		raw := make([]any, len(cols))
		ptrs := make([]any, len(cols))
		for i := range raw {
			ptrs[i] = &raw[i]
		}
		if err := rows.Scan(ptrs...); err != nil {
			return set, err
		}
		set.Rows = append(set.Rows, toRow(cols, raw))
	}
	return set, rows.Err()
}

// toRow converts one row of driver values.
func toRow(cols []string, raw []any) reconcile.Row {
	vals := make([]reconcile.Value, len(raw))
	for i, v := range raw {
		vals[i] = reconcile.ValueOf(v)
	}
	return reconcile.Row{Columns: cols, Values: vals}
}

// statementFailed marks out as failed at statement i. Rows already
// collected are dropped.
func statementFailed(out *reconcile.Outcome, i int, err error) *reconcile.Outcome {
	out.State = reconcile.StateQueryFailed
	out.ErrorMessage = fmt.Sprintf("statement %d: %v", i+1, err)
	out.RowSets = nil
	return out
}
