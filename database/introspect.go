package database

import (
	"errors"
	"fmt"
	"strings"

	"pgreconcile/reconcile"
)

// ErrUnsupported is returned for kinds a dialect cannot introspect.
var ErrUnsupported = errors.New("introspection not supported")

// IntrospectionQuery builds a query that returns one row per name with the
// columns tbl and exists, as read by reconcile.CheckExistence. Postgres
// reports exists as a boolean, the other dialects as the text 't' or 'f'.
func IntrospectionQuery(d Dialect, kind reconcile.ObjectKind, names []string) (string, error) {
	if len(names) == 0 {
		return "", errors.New("no object names to introspect")
	}

	var catalog, exists string
	switch d {
	case Postgres, Pgx:
		catalog = pgCatalog(kind)
		exists = `"exists"`
	case MySQL:
		catalog = mysqlCatalog(kind)
		exists = "`exists`"
	case SQLServer:
		catalog = mssqlCatalog(kind)
		exists = "[exists]"
	case SQLite:
		if kind != reconcile.KindTable {
			return "", fmt.Errorf("%s %s: %w", d, kind, ErrUnsupported)
		}
		catalog = "SELECT 1 FROM sqlite_master m WHERE m.type = 'table' AND m.name = t.tbl"
		exists = `"exists"`
	default:
		return "", fmt.Errorf("%s: %w", d, ErrUnsupported)
	}

	selects := make([]string, len(names))
	for i, n := range names {
		selects[i] = "SELECT " + quoteLiteral(d, n) + " AS tbl"
	}

	test := fmt.Sprintf("CASE WHEN EXISTS (%s) THEN 't' ELSE 'f' END", catalog)
	if d == Postgres || d == Pgx {
		test = fmt.Sprintf("EXISTS (%s)", catalog)
	}
	return fmt.Sprintf("SELECT t.tbl AS tbl, %s AS %s\nFROM (%s) AS t",
		test, exists, strings.Join(selects, " UNION ALL ")), nil
}

func pgCatalog(kind reconcile.ObjectKind) string {
	if kind == reconcile.KindConstraint {
		return "SELECT 1 FROM information_schema.table_constraints c " +
			"WHERE c.constraint_schema = current_schema() AND c.constraint_name = t.tbl"
	}
	return "SELECT 1 FROM information_schema.tables i " +
		"WHERE i.table_schema = current_schema() AND i.table_name = t.tbl"
}

func mysqlCatalog(kind reconcile.ObjectKind) string {
	if kind == reconcile.KindConstraint {
		return "SELECT 1 FROM information_schema.table_constraints c " +
			"WHERE c.constraint_schema = DATABASE() AND c.constraint_name = t.tbl"
	}
	return "SELECT 1 FROM information_schema.tables i " +
		"WHERE i.table_schema = DATABASE() AND i.table_name = t.tbl"
}

func mssqlCatalog(kind reconcile.ObjectKind) string {
	if kind == reconcile.KindConstraint {
		return "SELECT 1 FROM INFORMATION_SCHEMA.TABLE_CONSTRAINTS c " +
			"WHERE c.CONSTRAINT_SCHEMA = SCHEMA_NAME() AND c.CONSTRAINT_NAME = t.tbl"
	}
	return "SELECT 1 FROM INFORMATION_SCHEMA.TABLES i " +
		"WHERE i.TABLE_SCHEMA = SCHEMA_NAME() AND i.TABLE_NAME = t.tbl"
}

// quoteLiteral renders s as a SQL string literal.
func quoteLiteral(d Dialect, s string) string {
	s = strings.ReplaceAll(s, "'", "''")
	if d == MySQL {
		s = strings.ReplaceAll(s, `\`, `\\`)
	}
	return "'" + s + "'"
}
