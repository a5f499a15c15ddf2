// Package detector samples a log file to recognise the boxed and bracketed
// entry layouts and to propose a schema for structured entries.
package detector

import (
	"context"
	"io"
	"sort"
	"strings"

	"github.com/ccollicutt/boxlog/pkg/entry"
	"github.com/ccollicutt/boxlog/pkg/parser"
)

// Layout names the entry shapes found in a sample.
type Layout string

const (
	LayoutStructured Layout = "structured"
	LayoutSingle     Layout = "single"
	LayoutMixed      Layout = "mixed"
	LayoutUnknown    Layout = "unknown"
)

// DetectionResult holds the result of analyzing a log sample.
type DetectionResult struct {
	SampledLines int            // Number of lines sampled
	Blocks       int            // Number of blocks the lines segment into
	Structured   int            // Blocks with a valid ┌ header
	Single       int            // Blocks that are [Level: message] entries
	Unrecognized int            // Blocks that would be dropped
	Footers      int            // Structured blocks ending in a └ @ footer
	Levels       map[string]int // Entries per level
	Fields       []FieldMatch   // Body fields, most common first
}

// FieldMatch describes one body field seen in structured entries.
type FieldMatch struct {
	Name        string
	Type        entry.FieldType
	Occurrences int     // Structured entries carrying the field
	Coverage    float64 // Occurrences / structured entries, 0.0 to 1.0
	SampleValue string  // First value seen, trimmed
}

// Detector analyzes log samples.
type Detector struct {
	candidates []TypeCandidate
	sampleSize int
}

// Option configures the Detector.
type Option func(*Detector)

// WithSampleSize sets the number of lines to sample (default 1000).
func WithSampleSize(n int) Option {
	return func(d *Detector) {
		if n > 0 {
			d.sampleSize = n
		}
	}
}

// New creates a new Detector with the default type candidates.
func New(opts ...Option) *Detector {
	d := &Detector{
		candidates: DefaultCandidates(),
		sampleSize: 1000,
	}
	for _, opt := range opts {
		opt(d)
	}
	return d
}

// DetectFromFile samples the head of a log file and analyzes it.
func (d *Detector) DetectFromFile(ctx context.Context, path string) (*DetectionResult, error) {
	lines, err := d.sampleFile(ctx, path)
	if err != nil {
		return nil, err
	}
	return d.DetectFromLines(lines), nil
}

// fieldStats accumulates observations of one body field.
type fieldStats struct {
	name        string
	occurrences int
	sample      string
	viable      []bool // parallel to Detector.candidates
}

// DetectFromLines segments lines the way the parser does and classifies
// each block.
func (d *Detector) DetectFromLines(lines []string) *DetectionResult {
	result := &DetectionResult{
		SampledLines: len(lines),
		Levels:       make(map[string]int),
	}

	stats := make(map[string]*fieldStats)
	for _, block := range segment(lines) {
		result.Blocks++
		d.classify(block, result, stats)
	}

	for _, s := range stats {
		result.Fields = append(result.Fields, FieldMatch{
			Name:        s.name,
			Type:        d.inferType(s),
			Occurrences: s.occurrences,
			Coverage:    float64(s.occurrences) / float64(result.Structured),
			SampleValue: s.sample,
		})
	}

	// Most common first, then by name for stable output
	sort.Slice(result.Fields, func(i, j int) bool {
		if result.Fields[i].Occurrences != result.Fields[j].Occurrences {
			return result.Fields[i].Occurrences > result.Fields[j].Occurrences
		}
		return result.Fields[i].Name < result.Fields[j].Name
	})

	return result
}

func (d *Detector) classify(block []string, result *DetectionResult, stats map[string]*fieldStats) {
	if strings.HasPrefix(block[0], "┌") {
		level, _, ok := parser.MatchHeader(block[0])
		if !ok {
			result.Unrecognized++
			return
		}
		result.Structured++
		result.Levels[level]++

		if len(block) > 1 {
			if _, ok := parser.MatchFooter(block[len(block)-1]); ok {
				result.Footers++
			}
		}

		// The last line is never body.
		seen := make(map[string]bool)
		for i := 1; i < len(block)-1; i++ {
			name, raw, ok := parser.MatchField(block[i])
			if !ok || seen[name] {
				continue
			}
			seen[name] = true
			d.observe(stats, name, raw)
		}
		return
	}

	if level, _, ok := parser.MatchSingle(block[0]); ok {
		result.Single++
		result.Levels[level]++
		return
	}
	result.Unrecognized++
}

func (d *Detector) observe(stats map[string]*fieldStats, name, raw string) {
	s := stats[name]
	if s == nil {
		s = &fieldStats{
			name:   name,
			sample: strings.TrimSpace(raw),
			viable: make([]bool, len(d.candidates)),
		}
		for i := range s.viable {
			s.viable[i] = true
		}
		stats[name] = s
	}
	s.occurrences++

	for i, c := range d.candidates {
		if s.viable[i] {
			if _, err := entry.ParseValue(c.Type, raw); err != nil {
				s.viable[i] = false
			}
		}
	}
}

func (d *Detector) inferType(s *fieldStats) entry.FieldType {
	for i, c := range d.candidates {
		if s.viable[i] {
			return c.Type
		}
	}
	return entry.TypeText
}

// segment splits lines into blocks at entry starts. Lines before the first
// entry start form a block of their own.
func segment(lines []string) [][]string {
	var blocks [][]string
	var cur []string
	for _, line := range lines {
		if parser.IsEntryStart(line) && len(cur) > 0 {
			blocks = append(blocks, cur)
			cur = nil
		}
		cur = append(cur, line)
	}
	if len(cur) > 0 {
		blocks = append(blocks, cur)
	}
	return blocks
}

// sampleFile reads up to sampleSize lines from the head of a file.
func (d *Detector) sampleFile(ctx context.Context, path string) ([]string, error) {
	src := parser.NewFileSource(path)
	defer src.Close()

	var lines []string
	for len(lines) < d.sampleSize {
		line, err := src.Next(ctx)
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, err
		}
		lines = append(lines, line.Content)
	}

	return lines, nil
}

// Layout reports which entry shapes the sample contains.
func (r *DetectionResult) Layout() Layout {
	switch {
	case r.Structured > 0 && r.Single > 0:
		return LayoutMixed
	case r.Structured > 0:
		return LayoutStructured
	case r.Single > 0:
		return LayoutSingle
	default:
		return LayoutUnknown
	}
}

// HasMatch returns true if at least one entry was recognised.
func (r *DetectionResult) HasMatch() bool {
	return r.Structured+r.Single > 0
}

// SuggestedSchema returns the fields present in every structured entry,
// sorted by name. A schema field missing from an entry rejects that entry,
// so only full-coverage fields are suggested.
func (r *DetectionResult) SuggestedSchema() entry.Schema {
	var fields []entry.SchemaField
	for _, f := range r.Fields {
		if f.Occurrences == r.Structured && r.Structured > 0 {
			fields = append(fields, entry.SchemaField{Name: f.Name, Type: f.Type})
		}
	}
	sort.Slice(fields, func(i, j int) bool { return fields[i].Name < fields[j].Name })
	return entry.Schema(fields)
}
