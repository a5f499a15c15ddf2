// Package entry defines the typed log entry record produced by the parser
// and consumed by the query and analysis layers.
package entry

// Kind distinguishes the two entry layouts. The shapes never mix.
type Kind string

const (
	// KindStructured is a boxed multi-line entry (┌ header, │ fields, └ footer).
	KindStructured Kind = "structured"

	// KindSingle is a one-line [Level: message] entry.
	KindSingle Kind = "single"
)

// Provenance is the location reported by a structured entry's footer.
type Provenance struct {
	Module string `json:"module"`
	File   string `json:"file"`
	Line   int    `json:"line"`
}

// Origin is where the entry's first line was read from.
type Origin struct {
	// Source is the input name, usually a file path.
	Source string `json:"source,omitempty"`

	// LineNum is the 1-based line number of the entry's first line.
	LineNum int `json:"line_num,omitempty"`
}

// LogEntry is one parsed log record.
type LogEntry struct {
	Kind    Kind   `json:"kind"`
	Level   string `json:"level"`
	Message string `json:"message"`

	// KeyValues holds schema fields extracted from a structured entry's body.
	// Always empty for single-line entries.
	KeyValues KeyValues `json:"key_values,omitempty"`

	// Provenance is nil unless a structured entry had a recognisable footer.
	Provenance *Provenance `json:"provenance,omitempty"`

	Origin Origin `json:"origin"`
}

// Field looks up an attribute by name: level, message, module, file, line,
// then the extracted key values. Built-in names shadow key values.
func (e *LogEntry) Field(name string) (Value, bool) {
	switch name {
	case FieldLevel:
		return TextValue(e.Level), true
	case FieldMessage:
		return TextValue(e.Message), true
	case FieldModule:
		if e.Provenance == nil {
			return Value{}, false
		}
		return TextValue(e.Provenance.Module), true
	case FieldFile:
		if e.Provenance == nil {
			return Value{}, false
		}
		return TextValue(e.Provenance.File), true
	case FieldLine:
		if e.Provenance == nil {
			return Value{}, false
		}
		return IntValue(int64(e.Provenance.Line)), true
	}
	return e.KeyValues.Get(name)
}

// Has reports whether the entry carries the named attribute.
func (e *LogEntry) Has(name string) bool {
	_, ok := e.Field(name)
	return ok
}

// GroupKey returns the correlation group the entry belongs to.
func (e *LogEntry) GroupKey() GroupKey {
	return e.KeyValues.Key()
}
