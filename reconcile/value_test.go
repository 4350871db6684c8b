package reconcile

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestIsTruthy(t *testing.T) {
	tests := []struct {
		name string
		in   Value
		want bool
	}{
		{"bool true", Bool(true), true},
		{"text t", Text("t"), true},
		{"bool false", Bool(false), false},
		{"text f", Text("f"), false},
		{"text true", Text("true"), false},
		{"text T", Text("T"), false},
		{"int 1", Int(1), false},
		{"null", Null(), false},
		{"empty text", Text(""), false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, IsTruthy(tt.in))
		})
	}
}

func TestValueOf(t *testing.T) {
	assert.Equal(t, Null(), ValueOf(nil))
	assert.Equal(t, Bool(true), ValueOf(true))
	assert.Equal(t, Text("event"), ValueOf("event"))
	assert.Equal(t, Text("t"), ValueOf([]byte("t")))
	assert.Equal(t, Int(7), ValueOf(int32(7)))
	assert.Equal(t, Float(1.5), ValueOf(1.5))

	ts := time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)
	assert.Equal(t, Text("2024-05-01T12:00:00Z"), ValueOf(ts))
}

func TestValueAccessors(t *testing.T) {
	b, ok := Bool(true).AsBool()
	assert.True(t, ok)
	assert.True(t, b)

	_, ok = Text("t").AsBool()
	assert.False(t, ok)

	s, ok := Text("x").AsText()
	assert.True(t, ok)
	assert.Equal(t, "x", s)

	assert.True(t, Null().IsNull())
	assert.Equal(t, "NULL", Null().String())
	assert.Equal(t, "42", Int(42).String())
}
