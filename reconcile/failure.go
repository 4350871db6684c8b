package reconcile

import (
	"errors"
	"fmt"
	"path/filepath"
	"reflect"
	"runtime"
)

var errNilConn = errors.New("nil connection")

// isNilConn reports whether conn is nil or wraps a nil pointer.
func isNilConn(conn Conn) bool {
	if conn == nil {
		return true
	}
	v := reflect.ValueOf(conn)
	switch v.Kind() {
	case reflect.Pointer, reflect.Map, reflect.Func, reflect.Chan, reflect.Slice, reflect.Interface:
		return v.IsNil()
	}
	return false
}

// failedAt formats err with the file and line of its caller.
func failedAt(err error) string {
	_, file, line, ok := runtime.Caller(1)
	if !ok {
		return fmt.Sprintf("failed: %v", err)
	}
	return fmt.Sprintf("failed in %s:%d: %v", filepath.Base(file), line, err)
}

// failedResult converts a transport error into a Result.
func failedResult(name string, msg string) Result {
	return Result{ObjectName: name, State: StateQueryFailed, ErrorMessage: msg}
}

// fromOutcome copies the state reported by a Conn. A Conn that reports no
// state is treated as having failed.
func fromOutcome(name string, out *Outcome) Result {
	if out == nil {
		return failedResult(name, "connection returned no outcome")
	}
	r := Result{ObjectName: name, State: out.State, ErrorMessage: out.ErrorMessage}
	if r.State == StateUnset {
		r.State = StateQueryFailed
		if r.ErrorMessage == "" {
			r.ErrorMessage = "connection reported no execution state"
		}
	}
	return r
}
