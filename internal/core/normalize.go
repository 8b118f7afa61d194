package core

// normalize.go canonicalizes cell values for comparison.
//
// Spreadsheets and CSV exports disagree on how identifiers are written:
//   - 64356145 vs 64356145.0 (a float column in the exporting tool)
//   - " Bob " vs "bob" (padding and case)
//   - 1.50 vs 1.5 (trailing zeros)
//
// Normalize removes that noise. It never removes meaning: zero-padded codes
// like "001" are not numeric formatting and stay distinct from 1.

import (
	"math"
	"regexp"
	"strings"

	"github.com/shopspring/decimal"
)

// FloatPrecision is the number of decimal places kept when normalizing
// non-integral numbers. Digits beyond it are float noise.
//
// Magnitudes below 5e-11 therefore round to "0": Float(1e-12) normalizes
// equal to Int(0), while 1e-9 keeps its digits.
const FloatPrecision = 10

// NormalizedValue is the comparable form of a cell. The zero value is the
// NULL marker, which is distinct from every normalized string, including "".
type NormalizedValue struct {
	text  string
	valid bool
}

// NullValue is the NULL marker.
var NullValue = NormalizedValue{}

// IsNull reports whether v is the NULL marker.
func (v NormalizedValue) IsNull() bool { return !v.valid }

// String returns the canonical text. The NULL marker renders as "<null>".
func (v NormalizedValue) String() string {
	if !v.valid {
		return "<null>"
	}
	return v.text
}

// MarshalText lets NormalizedValue be used in JSON/YAML output.
func (v NormalizedValue) MarshalText() ([]byte, error) {
	return []byte(v.String()), nil
}

func normalized(s string) NormalizedValue {
	return NormalizedValue{text: s, valid: true}
}

// numericTextRegex matches decimal numerals without leading zeros.
var numericTextRegex = regexp.MustCompile(`^[+-]?(0|[1-9][0-9]*)(\.[0-9]+)?$`)

// Normalize returns the canonical comparison form of a raw value.
// It is total: every input produces a NormalizedValue.
func Normalize(v Value) NormalizedValue {
	switch v.Kind() {
	case KindNull:
		return NullValue
	case KindInt:
		return normalized(decimal.NewFromInt(v.Int64()).String())
	case KindFloat:
		return normalizeFloat(v.Float64())
	case KindBool:
		if v.Boolean() {
			return normalized("true")
		}
		return normalized("false")
	case KindString:
		return normalizeText(v.Text())
	default:
		return normalizeText(v.String())
	}
}

// NormalizeAny is Normalize for callers holding plain Go values.
func NormalizeAny(x any) NormalizedValue {
	return Normalize(FromAny(x))
}

func normalizeFloat(f float64) NormalizedValue {
	switch {
	case math.IsNaN(f):
		// Spreadsheet tools use NaN for blank numeric cells.
		return NullValue
	case math.IsInf(f, 1):
		return normalized("inf")
	case math.IsInf(f, -1):
		return normalized("-inf")
	}
	return normalized(canonicalDecimal(decimal.NewFromFloat(f)))
}

func normalizeText(s string) NormalizedValue {
	collapsed := strings.Join(strings.Fields(s), " ")
	if collapsed == "" {
		return NullValue
	}

	if numericTextRegex.MatchString(collapsed) {
		if d, err := decimal.NewFromString(collapsed); err == nil {
			return normalized(canonicalDecimal(d))
		}
	}

	return normalized(strings.ToLower(collapsed))
}

// canonicalDecimal rounds to FloatPrecision and drops trailing zeros, so
// 64356145.0 and 64356145 both render as "64356145".
func canonicalDecimal(d decimal.Decimal) string {
	d = d.Round(FloatPrecision)
	if d.IsZero() {
		return "0"
	}
	return d.String()
}
