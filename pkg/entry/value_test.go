package entry

import (
	"encoding/json"
	"errors"
	"testing"
	"time"
)

func TestParseValue(t *testing.T) {
	tests := []struct {
		name    string
		typ     FieldType
		raw     string
		want    Value
		wantErr bool
	}{
		{"integer", TypeInteger, "42", IntValue(42), false},
		{"integer trimmed", TypeInteger, "  7 \t", IntValue(7), false},
		{"negative integer", TypeInteger, "-3", IntValue(-3), false},
		{"leading zero is decimal", TypeInteger, "010", IntValue(10), false},
		{"integer not numeric", TypeInteger, "abc", Value{}, true},
		{"integer float text", TypeInteger, "1.5", Value{}, true},
		{"integer empty", TypeInteger, "", Value{}, true},
		{"float", TypeFloat, "1.25", FloatValue(1.25), false},
		{"float from integer", TypeFloat, "3", FloatValue(3), false},
		{"float invalid", TypeFloat, "1.2.3", Value{}, true},
		{"float NaN", TypeFloat, "NaN", Value{}, true},
		{"float infinity", TypeFloat, "Inf", Value{}, true},
		{"float negative infinity", TypeFloat, "-infinity", Value{}, true},
		{"float overflow", TypeFloat, "1e999", Value{}, true},
		{"boolean true", TypeBoolean, "true", BoolValue(true), false},
		{"boolean numeric", TypeBoolean, "0", BoolValue(false), false},
		{"boolean invalid", TypeBoolean, "yes", Value{}, true},
		{"text", TypeText, " hello world ", TextValue("hello world"), false},
		{"text empty", TypeText, "", TextValue(""), false},
		{"duration", TypeDuration, "1m30s", DurationValue(90 * time.Second), false},
		{"duration invalid", TypeDuration, "soon", Value{}, true},
		{"unknown type", FieldType("uuid"), "x", Value{}, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ParseValue(tt.typ, tt.raw)
			if (err != nil) != tt.wantErr {
				t.Fatalf("ParseValue(%s, %q) error = %v, wantErr %v", tt.typ, tt.raw, err, tt.wantErr)
			}
			if !got.Equal(tt.want) {
				t.Errorf("ParseValue(%s, %q) = %v, want %v", tt.typ, tt.raw, got, tt.want)
			}
		})
	}
}

func TestParseValue_UnknownTypeError(t *testing.T) {
	_, err := ParseValue(FieldType("uuid"), "x")
	if !errors.Is(err, ErrUnknownType) {
		t.Errorf("error = %v, want ErrUnknownType", err)
	}
}

func TestParseValue_NonFiniteFloatError(t *testing.T) {
	for _, raw := range []string{"NaN", "+Inf", "-Inf"} {
		_, err := ParseValue(TypeFloat, raw)
		if !errors.Is(err, ErrNotFinite) {
			t.Errorf("ParseValue(float, %q) error = %v, want ErrNotFinite", raw, err)
		}
	}
}

func TestParseFieldType(t *testing.T) {
	tests := []struct {
		in      string
		want    FieldType
		wantErr bool
	}{
		{"integer", TypeInteger, false},
		{"Int", TypeInteger, false},
		{"number", TypeFloat, false},
		{"BOOL", TypeBoolean, false},
		{"string", TypeText, false},
		{" duration ", TypeDuration, false},
		{"date", "", true},
		{"", "", true},
	}

	for _, tt := range tests {
		got, err := ParseFieldType(tt.in)
		if (err != nil) != tt.wantErr {
			t.Errorf("ParseFieldType(%q) error = %v, wantErr %v", tt.in, err, tt.wantErr)
			continue
		}
		if got != tt.want {
			t.Errorf("ParseFieldType(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}

func TestValue_EqualRequiresSameType(t *testing.T) {
	if IntValue(7).Equal(TextValue("7")) {
		t.Error("integer 7 should not equal text \"7\"")
	}
	if !IntValue(7).Equal(IntValue(7)) {
		t.Error("integer 7 should equal integer 7")
	}
	if (Value{}).Equal(IntValue(0)) {
		t.Error("zero Value should not equal integer 0")
	}
}

func TestValue_String(t *testing.T) {
	tests := []struct {
		v    Value
		want string
	}{
		{IntValue(-12), "-12"},
		{FloatValue(0.5), "0.5"},
		{BoolValue(true), "true"},
		{TextValue("a b"), "a b"},
		{DurationValue(2 * time.Second), "2s"},
		{Value{}, ""},
	}
	for _, tt := range tests {
		if got := tt.v.String(); got != tt.want {
			t.Errorf("String() = %q, want %q", got, tt.want)
		}
	}
}

func TestValue_MarshalJSON(t *testing.T) {
	data, err := json.Marshal(map[string]Value{
		"n": IntValue(3),
		"b": BoolValue(false),
		"s": TextValue("x"),
		"d": DurationValue(time.Minute),
	})
	if err != nil {
		t.Fatalf("Marshal() error = %v", err)
	}
	want := `{"b":false,"d":"1m0s","n":3,"s":"x"}`
	if string(data) != want {
		t.Errorf("Marshal() = %s, want %s", data, want)
	}
}
