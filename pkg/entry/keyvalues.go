package entry

import (
	"bytes"
	"encoding/json"
	"sort"
	"strconv"
	"strings"
)

// KeyValue is one extracted schema field.
type KeyValue struct {
	Name  string
	Value Value
}

// KeyValues holds the typed fields extracted from a structured entry,
// in extraction order. Names are unique.
type KeyValues []KeyValue

// GroupKey is the canonical form of a KeyValues used for grouping.
// Two KeyValues with the same names and values have the same GroupKey
// regardless of order.
type GroupKey string

// Get returns the value stored under name.
func (kv KeyValues) Get(name string) (Value, bool) {
	for _, f := range kv {
		if f.Name == name {
			return f.Value, true
		}
	}
	return Value{}, false
}

// Set stores v under name, replacing an existing value.
func (kv KeyValues) Set(name string, v Value) KeyValues {
	for i := range kv {
		if kv[i].Name == name {
			kv[i].Value = v
			return kv
		}
	}
	return append(kv, KeyValue{Name: name, Value: v})
}

// Names returns the field names in extraction order.
func (kv KeyValues) Names() []string {
	names := make([]string, len(kv))
	for i, f := range kv {
		names[i] = f.Name
	}
	return names
}

// sorted returns a copy ordered by name.
func (kv KeyValues) sorted() KeyValues {
	out := make(KeyValues, len(kv))
	copy(out, kv)
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out
}

// Key returns the canonical grouping key. Names and values are quoted so
// that no value can spell out a separator and alias another field set.
func (kv KeyValues) Key() GroupKey {
	var sb strings.Builder
	for _, f := range kv.sorted() {
		sb.WriteString(strconv.Quote(f.Name))
		sb.WriteByte(':')
		sb.WriteString(string(f.Value.Type()))
		sb.WriteByte(':')
		sb.WriteString(strconv.Quote(f.Value.String()))
		sb.WriteByte(';')
	}
	return GroupKey(sb.String())
}

// Equal reports whether both hold the same names and values, ignoring order.
func (kv KeyValues) Equal(o KeyValues) bool {
	if len(kv) != len(o) {
		return false
	}
	for _, f := range kv {
		v, ok := o.Get(f.Name)
		if !ok || !v.Equal(f.Value) {
			return false
		}
	}
	return true
}

// String renders the fields as {a=1, b=x} ordered by name.
func (kv KeyValues) String() string {
	parts := make([]string, 0, len(kv))
	for _, f := range kv.sorted() {
		parts = append(parts, f.Name+"="+f.Value.String())
	}
	return "{" + strings.Join(parts, ", ") + "}"
}

// MarshalJSON encodes the fields as a JSON object in extraction order.
func (kv KeyValues) MarshalJSON() ([]byte, error) {
	var buf bytes.Buffer
	buf.WriteByte('{')
	for i, f := range kv {
		if i > 0 {
			buf.WriteByte(',')
		}
		name, err := json.Marshal(f.Name)
		if err != nil {
			return nil, err
		}
		val, err := json.Marshal(f.Value)
		if err != nil {
			return nil, err
		}
		buf.Write(name)
		buf.WriteByte(':')
		buf.Write(val)
	}
	buf.WriteByte('}')
	return buf.Bytes(), nil
}
