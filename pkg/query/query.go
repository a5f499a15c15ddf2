// Package query filters parsed entries by attribute equality and presence.
// All functions are pure and safe to call concurrently on shared entries.
package query

import (
	"fmt"
	"sort"
	"strings"

	"github.com/ccollicutt/boxlog/pkg/entry"
)

// Constraints maps an attribute name to the value it must equal.
type Constraints map[string]entry.Value

// Names returns the constrained attribute names, sorted.
func (c Constraints) Names() []string {
	names := make([]string, 0, len(c))
	for name := range c {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Matches reports whether every constraint holds for e. An entry lacking a
// constrained attribute never matches. Values must agree in type and payload.
func Matches(e *entry.LogEntry, c Constraints) bool {
	for name, want := range c {
		got, ok := e.Field(name)
		if !ok || !got.Equal(want) {
			return false
		}
	}
	return true
}

// FindMatching returns the entries satisfying every constraint, in order.
// Empty constraints match every entry.
func FindMatching(entries []entry.LogEntry, c Constraints) []entry.LogEntry {
	out := make([]entry.LogEntry, 0, len(entries))
	for i := range entries {
		if Matches(&entries[i], c) {
			out = append(out, entries[i])
		}
	}
	return out
}

// HasFields reports whether e carries every named attribute.
func HasFields(e *entry.LogEntry, names []string) bool {
	for _, name := range names {
		if !e.Has(name) {
			return false
		}
	}
	return true
}

// Refine returns the entries carrying every named attribute, in order.
func Refine(entries []entry.LogEntry, names []string) []entry.LogEntry {
	out := make([]entry.LogEntry, 0, len(entries))
	for i := range entries {
		if HasFields(&entries[i], names) {
			out = append(out, entries[i])
		}
	}
	return out
}

// NewConstraints types raw string values using schema and the built-in
// attribute types (see entry.ResolveField).
func NewConstraints(raw map[string]string, schema entry.Schema) (Constraints, error) {
	c := make(Constraints, len(raw))
	for name, text := range raw {
		if name == "" {
			return nil, fmt.Errorf("constraint with empty field name")
		}
		v, err := entry.ResolveField(schema, name, text)
		if err != nil {
			return nil, fmt.Errorf("constraint %s: %w", name, err)
		}
		c[name] = v
	}
	return c, nil
}

// ParseConstraints parses "name=value" pairs, as given on the command line.
func ParseConstraints(pairs []string, schema entry.Schema) (Constraints, error) {
	raw := make(map[string]string, len(pairs))
	for _, pair := range pairs {
		name, value, ok := strings.Cut(pair, "=")
		if !ok {
			return nil, fmt.Errorf("invalid constraint %q (want name=value)", pair)
		}
		raw[strings.TrimSpace(name)] = value
	}
	return NewConstraints(raw, schema)
}
