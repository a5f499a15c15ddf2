package detector

import "github.com/ccollicutt/boxlog/pkg/entry"

// TypeCandidate is a field type the detector can infer from sampled values.
type TypeCandidate struct {
	Type     entry.FieldType
	Examples []string
}

// DefaultCandidates returns the inferable types, narrowest first. A field is
// given the first type every one of its sampled values parses as; text
// accepts anything and comes last.
func DefaultCandidates() []TypeCandidate {
	return []TypeCandidate{
		{Type: entry.TypeInteger, Examples: []string{"7", "-12", "0042"}},
		{Type: entry.TypeFloat, Examples: []string{"1.5", "2e-3"}},
		{Type: entry.TypeBoolean, Examples: []string{"true", "F"}},
		{Type: entry.TypeDuration, Examples: []string{"250ms", "1m30s"}},
		{Type: entry.TypeText, Examples: []string{"bob", "GET /health"}},
	}
}
