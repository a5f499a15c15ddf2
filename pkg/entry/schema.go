package entry

import (
	"errors"
	"fmt"

	"gopkg.in/yaml.v3"
)

// Names of the built-in entry attributes visible to Field lookups.
const (
	FieldLevel   = "level"
	FieldMessage = "message"
	FieldModule  = "module"
	FieldFile    = "file"
	FieldLine    = "line"
)

// SchemaField declares the expected type of one body field.
type SchemaField struct {
	Name string
	Type FieldType
}

// Schema is an ordered mapping from field name to type. It is fixed for the
// duration of a parse. An empty Schema extracts and requires nothing.
//
// In YAML a Schema is written as a mapping, preserving key order:
//
//	schema:
//	  id: integer
//	  user: text
type Schema []SchemaField

// NewSchema builds a schema and validates it.
func NewSchema(fields ...SchemaField) (Schema, error) {
	s := Schema(fields)
	if err := s.Validate(); err != nil {
		return nil, err
	}
	return s, nil
}

// MustSchema is like NewSchema but panics on error. Intended for tests and
// package-level declarations.
func MustSchema(fields ...SchemaField) Schema {
	s, err := NewSchema(fields...)
	if err != nil {
		panic(err)
	}
	return s
}

// Lookup returns the declared type for name.
func (s Schema) Lookup(name string) (FieldType, bool) {
	for _, f := range s {
		if f.Name == name {
			return f.Type, true
		}
	}
	return "", false
}

// IsEmpty reports whether the schema declares no fields.
func (s Schema) IsEmpty() bool {
	return len(s) == 0
}

// Names returns the declared field names in order.
func (s Schema) Names() []string {
	names := make([]string, len(s))
	for i, f := range s {
		names[i] = f.Name
	}
	return names
}

// Validate checks names are present and unique and types are canonical.
func (s Schema) Validate() error {
	seen := make(map[string]bool, len(s))
	for i, f := range s {
		if f.Name == "" {
			return fmt.Errorf("field %d: name is required", i)
		}
		if seen[f.Name] {
			return fmt.Errorf("field %q: declared more than once", f.Name)
		}
		seen[f.Name] = true
		if !f.Type.Valid() {
			return fmt.Errorf("field %q: %w %q", f.Name, ErrUnknownType, f.Type)
		}
	}
	return nil
}

// UnmarshalYAML decodes a mapping of field name to type name.
func (s *Schema) UnmarshalYAML(node *yaml.Node) error {
	if node.Kind != yaml.MappingNode {
		return errors.New("schema must be a mapping of field name to type")
	}

	fields := make(Schema, 0, len(node.Content)/2)
	for i := 0; i+1 < len(node.Content); i += 2 {
		key, val := node.Content[i], node.Content[i+1]
		if val.Kind != yaml.ScalarNode {
			return fmt.Errorf("line %d: type of field %q must be a scalar", val.Line, key.Value)
		}
		t, err := ParseFieldType(val.Value)
		if err != nil {
			return fmt.Errorf("line %d: field %q: %w", val.Line, key.Value, err)
		}
		fields = append(fields, SchemaField{Name: key.Value, Type: t})
	}

	if err := fields.Validate(); err != nil {
		return err
	}
	*s = fields
	return nil
}

// MarshalYAML encodes the schema as an ordered mapping.
func (s Schema) MarshalYAML() (interface{}, error) {
	node := &yaml.Node{Kind: yaml.MappingNode}
	for _, f := range s {
		node.Content = append(node.Content,
			&yaml.Node{Kind: yaml.ScalarNode, Value: f.Name},
			&yaml.Node{Kind: yaml.ScalarNode, Value: string(f.Type)},
		)
	}
	return node, nil
}

// ResolveField parses raw as the type an entry attribute called name has:
// text for level, message, module and file, integer for line, the declared
// type for schema fields, and text otherwise.
func ResolveField(s Schema, name, raw string) (Value, error) {
	switch name {
	case FieldLevel, FieldMessage, FieldModule, FieldFile:
		return ParseValue(TypeText, raw)
	case FieldLine:
		return ParseValue(TypeInteger, raw)
	}
	if t, ok := s.Lookup(name); ok {
		return ParseValue(t, raw)
	}
	return ParseValue(TypeText, raw)
}
