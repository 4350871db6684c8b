package database

import "fmt"

// Dialect names a supported database and the driver used to reach it.
type Dialect string

const (
	Postgres  Dialect = "postgres"  // lib/pq through database/sql
	Pgx       Dialect = "pgx"       // jackc/pgx pool
	MySQL     Dialect = "mysql"     // go-sql-driver/mysql
	SQLite    Dialect = "sqlite"    // modernc.org/sqlite
	SQLServer Dialect = "sqlserver" // microsoft/go-mssqldb
)

// ParseDialect validates a configured driver name.
func ParseDialect(s string) (Dialect, error) {
	switch d := Dialect(s); d {
	case Postgres, Pgx, MySQL, SQLite, SQLServer:
		return d, nil
	}
	return "", fmt.Errorf("unsupported driver %q", s)
}

// driverName returns the database/sql driver registered for d.
func (d Dialect) driverName() string {
	return string(d)
}
