package database

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	_ "github.com/go-sql-driver/mysql"
	_ "github.com/lib/pq"
	_ "github.com/microsoft/go-mssqldb"
	_ "modernc.org/sqlite"

	"pgreconcile/reconcile"
)

const pingTimeout = 5 * time.Second

// Open connects to dsn with the driver for d and returns a reconcile.Conn
// plus a close function for cleanup.
func Open(ctx context.Context, d Dialect, dsn string) (reconcile.Conn, func(), error) {
	if dsn == "" {
		return nil, nil, fmt.Errorf("%s: empty connection string", d)
	}
	if d == Pgx {
		conn, closeFn, err := NewPgxConn(ctx, dsn)
		if err != nil {
			return nil, nil, err
		}
		return conn, closeFn, nil
	}

	db, err := sql.Open(d.driverName(), dsn)
	if err != nil {
		return nil, nil, fmt.Errorf("%s: open: %w", d, err)
	}

	pingCtx, cancel := context.WithTimeout(ctx, pingTimeout)
	defer cancel()
	if err := db.PingContext(pingCtx); err != nil {
		db.Close()
		return nil, nil, fmt.Errorf("%s: ping: %w", d, err)
	}

	closeFn := func() { db.Close() }
	return NewSQLConn(db), closeFn, nil
}
