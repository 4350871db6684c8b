package database

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"pgreconcile/reconcile"
)

// PgxConn runs query batches on a pgx pool.
type PgxConn struct {
	pool *pgxpool.Pool
}

// NewPgxConn opens a pool for dsn and returns a close function for cleanup.
func NewPgxConn(ctx context.Context, dsn string) (*PgxConn, func(), error) {
	pool, err := pgxpool.New(ctx, dsn)
	if err != nil {
		return nil, nil, fmt.Errorf("pgxpool: %w", err)
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, nil, fmt.Errorf("pgxpool: ping: %w", err)
	}
	return &PgxConn{pool: pool}, pool.Close, nil
}

// ExecuteQueries implements reconcile.Conn.
func (c *PgxConn) ExecuteQueries(ctx context.Context, queries []reconcile.QueryAndParams, readOnly bool) (*reconcile.Outcome, error) {
	if len(queries) == 0 {
		return &reconcile.Outcome{State: reconcile.StateSuccess}, nil
	}

	conn, err := c.pool.Acquire(ctx)
	if err != nil {
		return nil, fmt.Errorf("acquire connection: %w", err)
	}
	defer conn.Release()

	out := &reconcile.Outcome{State: reconcile.StateSuccess}
	for i, q := range queries {
		if !readOnly {
			if _, err := conn.Exec(ctx, q.Query, q.Params...); err != nil {
				return statementFailed(out, i, err), nil
			}
			continue
		}

		rows, err := conn.Query(ctx, q.Query, q.Params...)
		if err != nil {
			return statementFailed(out, i, err), nil
		}
		cols := fieldNames(rows.FieldDescriptions())
		var set reconcile.RowSet
		for rows.Next() {
			raw, err := rows.Values()
			if err != nil {
				rows.Close()
				return statementFailed(out, i, err), nil
			}
			set.Rows = append(set.Rows, toRow(cols, raw))
		}
		rows.Close()
		if err := rows.Err(); err != nil {
			return statementFailed(out, i, err), nil
		}
		out.RowSets = append(out.RowSets, set)
	}
	return out, nil
}

func fieldNames(fields []pgconn.FieldDescription) []string {
	cols := make([]string, len(fields))
	for i, f := range fields {
		cols[i] = f.Name
	}
	return cols
}
