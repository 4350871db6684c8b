package reconcile

import (
	"context"
	"errors"
	"sort"
	"strings"
)

// scriptedConn returns a fixed outcome and records every batch.
type scriptedConn struct {
	out      *Outcome
	err      error
	batches  [][]QueryAndParams
	readOnly []bool
}

func (c *scriptedConn) ExecuteQueries(_ context.Context, q []QueryAndParams, readOnly bool) (*Outcome, error) {
	c.batches = append(c.batches, q)
	c.readOnly = append(c.readOnly, readOnly)
	return c.out, c.err
}

func rowsOutcome(rows ...Row) *Outcome {
	return &Outcome{State: StateSuccess, RowSets: []RowSet{{Rows: rows}}}
}

func row(tbl string, exists Value) Row {
	return Row{Columns: []string{ColumnName, ColumnExists}, Values: []Value{Text(tbl), exists}}
}

// catalogConn simulates a database whose objects are created by
// statements of the form "CREATE <name>". Introspection lists every known
// name with "t" or "f".
type catalogConn struct {
	known   []string
	present map[string]bool
	failOn  string
}

func newCatalog(known ...string) *catalogConn {
	return &catalogConn{known: known, present: map[string]bool{}}
}

func (c *catalogConn) ExecuteQueries(_ context.Context, q []QueryAndParams, readOnly bool) (*Outcome, error) {
	if readOnly {
		names := append([]string(nil), c.known...)
		sort.Strings(names)
		var rows []Row
		for _, n := range names {
			v := "f"
			if c.present[n] {
				v = "t"
			}
			rows = append(rows, row(n, Text(v)))
		}
		return rowsOutcome(rows...), nil
	}
	for _, stmt := range q {
		name := strings.TrimPrefix(stmt.Query, "CREATE ")
		if name == c.failOn {
			return &Outcome{State: StateQueryFailed, ErrorMessage: "cannot create " + name}, nil
		}
		c.present[name] = true
	}
	return &Outcome{State: StateSuccess}, nil
}

var errRefused = errors.New("dial tcp 127.0.0.1:5432: connect: connection refused")
