package reconcile

import (
	"fmt"
	"strconv"
	"time"
)

// ValueKind tags the variant held by a Value.
type ValueKind int

const (
	ValueNull ValueKind = iota
	ValueBool
	ValueText
	ValueInt
	ValueFloat
)

// Value is a single column value as returned by a driver.
type Value struct {
	Kind ValueKind
	b    bool
	s    string
	i    int64
	f    float64
}

func Null() Value           { return Value{Kind: ValueNull} }
func Bool(b bool) Value     { return Value{Kind: ValueBool, b: b} }
func Text(s string) Value   { return Value{Kind: ValueText, s: s} }
func Int(i int64) Value     { return Value{Kind: ValueInt, i: i} }
func Float(f float64) Value { return Value{Kind: ValueFloat, f: f} }

// IsNull reports whether v is SQL NULL.
func (v Value) IsNull() bool { return v.Kind == ValueNull }

// AsBool returns the boolean held by v, if v is a Bool.
func (v Value) AsBool() (bool, bool) {
	return v.b, v.Kind == ValueBool
}

// AsText returns the string held by v, if v is a Text.
func (v Value) AsText() (string, bool) {
	return v.s, v.Kind == ValueText
}

// AsInt returns the integer held by v, if v is an Int.
func (v Value) AsInt() (int64, bool) {
	return v.i, v.Kind == ValueInt
}

func (v Value) String() string {
	switch v.Kind {
	case ValueBool:
		return strconv.FormatBool(v.b)
	case ValueText:
		return v.s
	case ValueInt:
		return strconv.FormatInt(v.i, 10)
	case ValueFloat:
		return strconv.FormatFloat(v.f, 'g', -1, 64)
	default:
		return "NULL"
	}
}

// ValueOf converts a value scanned by a database driver.
func ValueOf(x any) Value {
	switch t := x.(type) {
	case nil:
		return Null()
	case bool:
		return Bool(t)
	case string:
		return Text(t)
	case []byte:
		return Text(string(t))
	case int64:
		return Int(t)
	case int32:
		return Int(int64(t))
	case int16:
		return Int(int64(t))
	case int:
		return Int(int64(t))
	case float64:
		return Float(t)
	case float32:
		return Float(float64(t))
	case time.Time:
		return Text(t.Format(time.RFC3339Nano))
	case fmt.Stringer:
		return Text(t.String())
	default:
		return Text(fmt.Sprint(t))
	}
}

// IsTruthy reports whether v marks an object as present. Native true and
// the Postgres text encoding "t" are accepted; everything else is false.
func IsTruthy(v Value) bool {
	switch v.Kind {
	case ValueBool:
		return v.b
	case ValueText:
		return v.s == "t"
	default:
		return false
	}
}
