package core

// value.go defines the closed cell-value variant used by every table.
//
// Loaders hand the core heterogeneous cells (text, integers, floats, booleans,
// blanks). Rather than passing interface{} around, each cell is a Value tagged
// with its Kind so the Normalizer can switch on the tag explicitly.

import (
	"fmt"
	"math"
	"regexp"
	"strconv"
	"strings"
)

// Kind identifies which member of the Value variant is populated.
type Kind uint8

const (
	KindNull Kind = iota
	KindString
	KindInt
	KindFloat
	KindBool
)

// String returns the lower-case name of the kind.
func (k Kind) String() string {
	switch k {
	case KindNull:
		return "null"
	case KindString:
		return "string"
	case KindInt:
		return "int"
	case KindFloat:
		return "float"
	case KindBool:
		return "bool"
	default:
		return "unknown"
	}
}

// Value is a single raw cell. The zero Value is null.
type Value struct {
	kind Kind
	s    string
	i    int64
	f    float64
	b    bool
}

// Null returns the null Value.
func Null() Value { return Value{} }

// String returns a text Value.
func String(s string) Value { return Value{kind: KindString, s: s} }

// Int returns an integer Value.
func Int(i int64) Value { return Value{kind: KindInt, i: i} }

// Float returns a floating point Value.
func Float(f float64) Value { return Value{kind: KindFloat, f: f} }

// Bool returns a boolean Value.
func Bool(b bool) Value { return Value{kind: KindBool, b: b} }

// Kind reports which member of the variant is set.
func (v Value) Kind() Kind { return v.kind }

// IsNull reports whether the value is null.
func (v Value) IsNull() bool { return v.kind == KindNull }

// Text returns the string payload. Only meaningful for KindString.
func (v Value) Text() string { return v.s }

// Int64 returns the integer payload. Only meaningful for KindInt.
func (v Value) Int64() int64 { return v.i }

// Float64 returns the float payload. Only meaningful for KindFloat.
func (v Value) Float64() float64 { return v.f }

// Boolean returns the boolean payload. Only meaningful for KindBool.
func (v Value) Boolean() bool { return v.b }

// String renders the raw value for display and export. Null renders as "".
func (v Value) String() string {
	switch v.kind {
	case KindString:
		return v.s
	case KindInt:
		return strconv.FormatInt(v.i, 10)
	case KindFloat:
		return strconv.FormatFloat(v.f, 'f', -1, 64)
	case KindBool:
		return strconv.FormatBool(v.b)
	default:
		return ""
	}
}

// Any returns the payload as a plain Go value (nil for null).
// Used by JSON encoding of tables.
func (v Value) Any() any {
	switch v.kind {
	case KindString:
		return v.s
	case KindInt:
		return v.i
	case KindFloat:
		if math.IsNaN(v.f) || math.IsInf(v.f, 0) {
			return v.String()
		}
		return v.f
	case KindBool:
		return v.b
	default:
		return nil
	}
}

// MarshalJSON encodes the payload without the tag.
func (v Value) MarshalJSON() ([]byte, error) {
	switch v.kind {
	case KindString:
		return []byte(strconv.Quote(v.s)), nil
	case KindNull:
		return []byte("null"), nil
	case KindFloat:
		if math.IsNaN(v.f) || math.IsInf(v.f, 0) {
			return []byte(strconv.Quote(v.String())), nil
		}
		return []byte(v.String()), nil
	default:
		return []byte(v.String()), nil
	}
}

// FromAny converts an arbitrary Go value into the variant.
// Unrecognized types degrade to their fmt string form.
func FromAny(x any) Value {
	switch t := x.(type) {
	case nil:
		return Null()
	case Value:
		return t
	case string:
		return String(t)
	case bool:
		return Bool(t)
	case int:
		return Int(int64(t))
	case int8:
		return Int(int64(t))
	case int16:
		return Int(int64(t))
	case int32:
		return Int(int64(t))
	case int64:
		return Int(t)
	case uint8:
		return Int(int64(t))
	case uint16:
		return Int(int64(t))
	case uint32:
		return Int(int64(t))
	case uint:
		if uint64(t) <= math.MaxInt64 {
			return Int(int64(t))
		}
		return String(strconv.FormatUint(uint64(t), 10))
	case uint64:
		if t <= math.MaxInt64 {
			return Int(int64(t))
		}
		return String(strconv.FormatUint(t, 10))
	case float32:
		return Float(float64(t))
	case float64:
		return Float(t)
	case fmt.Stringer:
		return String(t.String())
	default:
		return String(fmt.Sprint(t))
	}
}

// canonicalIntRegex matches integers without leading zeros ("0", "-12", "+7").
var canonicalIntRegex = regexp.MustCompile(`^[+-]?(0|[1-9][0-9]*)$`)

// canonicalFloatRegex matches decimals whose integer part has no leading zeros.
var canonicalFloatRegex = regexp.MustCompile(`^[+-]?(0|[1-9][0-9]*)\.[0-9]+$`)

// ParseCell infers a Value from delimited-text input.
//
// Blank input is null. "true"/"false" (any case) are booleans. Integers and
// decimals are recognised only in canonical form, so zero-padded identifiers
// such as "001" stay text.
func ParseCell(s string) Value {
	trimmed := strings.TrimSpace(s)
	if trimmed == "" {
		return Null()
	}

	switch strings.ToLower(trimmed) {
	case "true":
		return Bool(true)
	case "false":
		return Bool(false)
	}

	if canonicalIntRegex.MatchString(trimmed) {
		if i, err := strconv.ParseInt(trimmed, 10, 64); err == nil {
			return Int(i)
		}
		return String(s)
	}

	if canonicalFloatRegex.MatchString(trimmed) {
		if f, err := strconv.ParseFloat(trimmed, 64); err == nil {
			return Float(f)
		}
	}

	return String(s)
}
