package metrics

import (
	"strconv"
	"strings"
)

// FieldKind is the type of one label dimension of a gauge.
type FieldKind uint8

const (
	FieldInt64 FieldKind = iota
	FieldString
	FieldBool
)

// String returns the kind name for diagnostics.
func (k FieldKind) String() string {
	switch k {
	case FieldInt64:
		return "int64"
	case FieldString:
		return "string"
	case FieldBool:
		return "bool"
	default:
		return "unknown"
	}
}

// Field declares one named, typed label dimension of a gauge. The set of
// fields is fixed when the gauge is constructed.
type Field struct {
	Name string
	Kind FieldKind
}

// IntField declares an int64-valued label dimension.
func IntField(name string) Field { return Field{Name: name, Kind: FieldInt64} }

// StringField declares a string-valued label dimension.
func StringField(name string) Field { return Field{Name: name, Kind: FieldString} }

// BoolField declares a bool-valued label dimension.
func BoolField(name string) Field { return Field{Name: name, Kind: FieldBool} }

// FieldValue is a concrete value for one label dimension. Build them with
// Int, String, or Bool, matching the kind the gauge declared for that
// position.
type FieldValue struct {
	kind FieldKind
	num  int64
	str  string
	b    bool
}

// Int makes an int64 field value.
func Int(v int64) FieldValue { return FieldValue{kind: FieldInt64, num: v} }

// String makes a string field value.
func String(v string) FieldValue { return FieldValue{kind: FieldString, str: v} }

// Bool makes a bool field value.
func Bool(v bool) FieldValue { return FieldValue{kind: FieldBool, b: v} }

// Kind returns the value's field kind.
func (v FieldValue) Kind() FieldKind { return v.kind }

// String renders the value for export. The rendering is stable: the same
// value always produces the same string.
func (v FieldValue) String() string {
	switch v.kind {
	case FieldInt64:
		return strconv.FormatInt(v.num, 10)
	case FieldString:
		return v.str
	case FieldBool:
		return strconv.FormatBool(v.b)
	default:
		return ""
	}
}

// encodeKey flattens a label tuple into the cell store's map key. String
// components are quoted so that values containing the separator cannot
// collide with a different tuple.
func encodeKey(labels []FieldValue) string {
	var b strings.Builder
	for i, v := range labels {
		if i > 0 {
			b.WriteByte('|')
		}
		switch v.kind {
		case FieldInt64:
			b.WriteByte('i')
			b.WriteString(strconv.FormatInt(v.num, 10))
		case FieldString:
			b.WriteByte('s')
			b.WriteString(strconv.Quote(v.str))
		case FieldBool:
			b.WriteByte('b')
			b.WriteString(strconv.FormatBool(v.b))
		}
	}
	return b.String()
}
