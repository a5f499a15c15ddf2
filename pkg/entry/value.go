package entry

import (
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"strconv"
	"strings"
	"time"
)

// FieldType is the declared type of a schema field.
type FieldType string

const (
	TypeInteger  FieldType = "integer"
	TypeFloat    FieldType = "float"
	TypeBoolean  FieldType = "boolean"
	TypeText     FieldType = "text"
	TypeDuration FieldType = "duration"
)

// ErrUnknownType is returned for a type name that is not a FieldType.
var ErrUnknownType = errors.New("unknown field type")

// ErrNotFinite is returned for float text that parses to NaN or an infinity.
// Such values cannot be compared or encoded as JSON numbers.
var ErrNotFinite = errors.New("not a finite number")

// typeAliases maps accepted spellings to their canonical FieldType.
var typeAliases = map[string]FieldType{
	"integer":  TypeInteger,
	"int":      TypeInteger,
	"float":    TypeFloat,
	"number":   TypeFloat,
	"boolean":  TypeBoolean,
	"bool":     TypeBoolean,
	"text":     TypeText,
	"string":   TypeText,
	"duration": TypeDuration,
}

// ParseFieldType resolves a type name (case-insensitive, aliases allowed).
func ParseFieldType(name string) (FieldType, error) {
	t, ok := typeAliases[strings.ToLower(strings.TrimSpace(name))]
	if !ok {
		return "", fmt.Errorf("%w %q (must be integer, float, boolean, text, or duration)", ErrUnknownType, name)
	}
	return t, nil
}

// Valid reports whether t is one of the canonical field types.
func (t FieldType) Valid() bool {
	switch t {
	case TypeInteger, TypeFloat, TypeBoolean, TypeText, TypeDuration:
		return true
	}
	return false
}

// Value is a typed field value. The zero Value has no type and is not
// produced by ParseValue. Values are comparable with == and usable as map keys.
type Value struct {
	typ FieldType
	i   int64
	f   float64
	b   bool
	s   string
	d   time.Duration
}

// IntValue returns an integer value.
func IntValue(n int64) Value { return Value{typ: TypeInteger, i: n} }

// FloatValue returns a float value.
func FloatValue(f float64) Value { return Value{typ: TypeFloat, f: f} }

// BoolValue returns a boolean value.
func BoolValue(b bool) Value { return Value{typ: TypeBoolean, b: b} }

// TextValue returns a text value.
func TextValue(s string) Value { return Value{typ: TypeText, s: s} }

// DurationValue returns a duration value.
func DurationValue(d time.Duration) Value { return Value{typ: TypeDuration, d: d} }

// Type returns the value's type, or "" for the zero Value.
func (v Value) Type() FieldType { return v.typ }

// IsZero reports whether v is the untyped zero Value.
func (v Value) IsZero() bool { return v.typ == "" }

func (v Value) Int() int64              { return v.i }
func (v Value) Float() float64          { return v.f }
func (v Value) Bool() bool              { return v.b }
func (v Value) Text() string            { return v.s }
func (v Value) Duration() time.Duration { return v.d }

// Equal reports whether two values have the same type and payload.
func (v Value) Equal(o Value) bool {
	return v == o
}

// String renders the value in the form ParseValue accepts.
func (v Value) String() string {
	switch v.typ {
	case TypeInteger:
		return strconv.FormatInt(v.i, 10)
	case TypeFloat:
		f := v.f
		if f == 0 {
			f = 0 // fold -0
		}
		return strconv.FormatFloat(f, 'g', -1, 64)
	case TypeBoolean:
		return strconv.FormatBool(v.b)
	case TypeText:
		return v.s
	case TypeDuration:
		return v.d.String()
	}
	return ""
}

// MarshalJSON encodes numbers and booleans natively, text and durations as strings.
func (v Value) MarshalJSON() ([]byte, error) {
	switch v.typ {
	case TypeInteger:
		return json.Marshal(v.i)
	case TypeFloat:
		return json.Marshal(v.f)
	case TypeBoolean:
		return json.Marshal(v.b)
	case TypeText:
		return json.Marshal(v.s)
	case TypeDuration:
		return json.Marshal(v.d.String())
	}
	return []byte("null"), nil
}

// ParseValue parses raw into a value of type t after trimming surrounding
// whitespace. A returned error means the text is not a valid t.
func ParseValue(t FieldType, raw string) (Value, error) {
	s := strings.TrimSpace(raw)

	switch t {
	case TypeInteger:
		n, err := strconv.ParseInt(s, 10, 64)
		if err != nil {
			return Value{}, fmt.Errorf("parsing %q as %s: %w", s, t, err)
		}
		return IntValue(n), nil

	case TypeFloat:
		f, err := strconv.ParseFloat(s, 64)
		if err != nil {
			return Value{}, fmt.Errorf("parsing %q as %s: %w", s, t, err)
		}
		if math.IsNaN(f) || math.IsInf(f, 0) {
			return Value{}, fmt.Errorf("parsing %q as %s: %w", s, t, ErrNotFinite)
		}
		return FloatValue(f), nil

	case TypeBoolean:
		b, err := strconv.ParseBool(s)
		if err != nil {
			return Value{}, fmt.Errorf("parsing %q as %s: %w", s, t, err)
		}
		return BoolValue(b), nil

	case TypeText:
		return TextValue(s), nil

	case TypeDuration:
		d, err := time.ParseDuration(s)
		if err != nil {
			return Value{}, fmt.Errorf("parsing %q as %s: %w", s, t, err)
		}
		return DurationValue(d), nil

	default:
		return Value{}, fmt.Errorf("%w %q", ErrUnknownType, t)
	}
}
