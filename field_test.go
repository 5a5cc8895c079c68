package metrics

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestFieldValueString(t *testing.T) {
	tests := []struct {
		name     string
		value    FieldValue
		expected string
	}{
		{name: "positive int", value: Int(42), expected: "42"},
		{name: "negative int", value: Int(-7), expected: "-7"},
		{name: "zero int", value: Int(0), expected: "0"},
		{name: "string", value: String("websocket"), expected: "websocket"},
		{name: "empty string", value: String(""), expected: ""},
		{name: "bool true", value: Bool(true), expected: "true"},
		{name: "bool false", value: Bool(false), expected: "false"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, tt.value.String())
		})
	}
}

func TestFieldValueKind(t *testing.T) {
	assert.Equal(t, FieldInt64, Int(1).Kind())
	assert.Equal(t, FieldString, String("x").Kind())
	assert.Equal(t, FieldBool, Bool(true).Kind())
}

func TestFieldConstructors(t *testing.T) {
	assert.Equal(t, Field{Name: "code", Kind: FieldInt64}, IntField("code"))
	assert.Equal(t, Field{Name: "method", Kind: FieldString}, StringField("method"))
	assert.Equal(t, Field{Name: "ok", Kind: FieldBool}, BoolField("ok"))
}

func TestEncodeKeyDistinguishesTuples(t *testing.T) {
	tests := []struct {
		name string
		a    []FieldValue
		b    []FieldValue
	}{
		{
			name: "separator inside string vs two strings",
			a:    []FieldValue{String("a|b")},
			b:    []FieldValue{String("a"), String("b")},
		},
		{
			name: "string digits vs int",
			a:    []FieldValue{String("1")},
			b:    []FieldValue{Int(1)},
		},
		{
			name: "string true vs bool",
			a:    []FieldValue{String("true")},
			b:    []FieldValue{Bool(true)},
		},
		{
			name: "embedded quote",
			a:    []FieldValue{String(`a"|s"b`)},
			b:    []FieldValue{String(`a"`), String(`b`)},
		},
		{
			name: "different order",
			a:    []FieldValue{String("x"), String("y")},
			b:    []FieldValue{String("y"), String("x")},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.NotEqual(t, encodeKey(tt.a), encodeKey(tt.b))
		})
	}
}

func TestEncodeKeyStable(t *testing.T) {
	labels := []FieldValue{Int(3), String("get"), Bool(false)}
	assert.Equal(t, encodeKey(labels), encodeKey(labels))
}
