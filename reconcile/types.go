// Package reconcile checks which tables and constraints of a declared schema
// are missing from a database and creates exactly those.
package reconcile

import (
	"context"
	"fmt"
)

// ObjectKind selects which half of a Definition is consulted.
type ObjectKind int

const (
	KindTable ObjectKind = iota
	KindConstraint
)

func (k ObjectKind) String() string {
	switch k {
	case KindTable:
		return "table"
	case KindConstraint:
		return "constraint"
	default:
		return fmt.Sprintf("ObjectKind(%d)", int(k))
	}
}

// MarshalText encodes the kind by name.
func (k ObjectKind) MarshalText() ([]byte, error) {
	return []byte(k.String()), nil
}

// ParseKind accepts "table"/"tables" and "constraint"/"constraints".
func ParseKind(s string) (ObjectKind, error) {
	switch s {
	case "table", "tables":
		return KindTable, nil
	case "constraint", "constraints":
		return KindConstraint, nil
	}
	return 0, fmt.Errorf("unknown object kind %q", s)
}

// ExpectedObject is a schema object that must exist.
type ExpectedObject struct {
	Name string
	Kind ObjectKind
}

// Definition holds the creation statements for one table and/or one
// constraint. Either half may be empty.
type Definition struct {
	TableName      string
	TableDDL       string
	ConstraintName string
	ConstraintDDL  string
}

// key returns the lookup name and statement for kind.
func (d Definition) key(kind ObjectKind) (name, ddl string) {
	if kind == KindConstraint {
		return d.ConstraintName, d.ConstraintDDL
	}
	return d.TableName, d.TableDDL
}

// State is the execution state carried by a Result.
type State int

const (
	// StateUnset is the zero value and never appears in a returned Result.
	StateUnset State = iota
	StateSuccess
	StateMissingRelations
	StateQueryFailed
)

func (s State) String() string {
	switch s {
	case StateUnset:
		return "unset"
	case StateSuccess:
		return "success"
	case StateMissingRelations:
		return "missing"
	case StateQueryFailed:
		return "query_failed"
	default:
		return fmt.Sprintf("State(%d)", int(s))
	}
}

// MarshalText lets results be encoded with their state names.
func (s State) MarshalText() ([]byte, error) {
	return []byte(s.String()), nil
}

// Result reports the outcome for one object, or for a whole DDL batch.
type Result struct {
	ObjectName   string `json:"object_name"`
	State        State  `json:"state"`
	ErrorMessage string `json:"error_message,omitempty"`
}

// QueryAndParams is one statement handed to a Conn.
type QueryAndParams struct {
	Query  string
	Params []any
}

// Row is a single result row. Column names are per row so that rows of
// different shapes can share a RowSet.
type Row struct {
	Columns []string
	Values  []Value
}

// Get returns the value of the named column.
func (r Row) Get(column string) (Value, bool) {
	for i, c := range r.Columns {
		if c == column && i < len(r.Values) {
			return r.Values[i], true
		}
	}
	return Value{}, false
}

// RowSet holds the rows produced by one query.
type RowSet struct {
	Rows []Row
}

// Outcome is what a Conn reports for a batch of queries.
type Outcome struct {
	State        State
	ErrorMessage string
	RowSets      []RowSet
}

// Conn executes batches of queries. A returned error means the batch could
// not be run at all; statement failures are reported in Outcome.State.
// Implementations run statements in order without wrapping them in a
// transaction.
type Conn interface {
	ExecuteQueries(ctx context.Context, queries []QueryAndParams, readOnly bool) (*Outcome, error)
}
