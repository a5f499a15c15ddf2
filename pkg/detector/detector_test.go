package detector

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/google/go-cmp/cmp"

	"github.com/ccollicutt/boxlog/pkg/entry"
)

func TestDetector_DetectFromLines_Structured(t *testing.T) {
	lines := []string{
		"┌ Info: start",
		"│ id = 7",
		"│ ok = true",
		"│ wait = 250ms",
		"└ @ Main main.jl:3",
		"┌ Info: end",
		"│ id = 8",
		"│ ok = false",
		"│ wait = 1s",
		"└ @ Main main.jl:9",
	}

	result := New().DetectFromLines(lines)

	if result.Layout() != LayoutStructured {
		t.Errorf("Layout() = %s, want structured", result.Layout())
	}
	if result.Structured != 2 || result.Footers != 2 || result.Unrecognized != 0 {
		t.Errorf("counts = %+v", result)
	}

	want := entry.Schema{
		{Name: "id", Type: entry.TypeInteger},
		{Name: "ok", Type: entry.TypeBoolean},
		{Name: "wait", Type: entry.TypeDuration},
	}
	if diff := cmp.Diff(want, result.SuggestedSchema()); diff != "" {
		t.Errorf("SuggestedSchema() mismatch (-want +got):\n%s", diff)
	}
}

func TestDetector_DetectFromLines_TypeWidening(t *testing.T) {
	lines := []string{
		"┌ Info: a",
		"│ n = 1",
		"│ f = 2",
		"│ b = 1",
		"│ s = 10",
		"└ @ M m.jl:1",
		"┌ Info: b",
		"│ n = 2",
		"│ f = 2.5",
		"│ b = true",
		"│ s = ten",
		"└ @ M m.jl:2",
	}

	result := New().DetectFromLines(lines)

	got := make(map[string]entry.FieldType)
	for _, f := range result.Fields {
		got[f.Name] = f.Type
	}
	want := map[string]entry.FieldType{
		"n": entry.TypeInteger,
		"f": entry.TypeFloat,
		"b": entry.TypeBoolean,
		"s": entry.TypeText,
	}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("field types mismatch (-want +got):\n%s", diff)
	}
}

func TestDetector_DetectFromLines_PartialCoverage(t *testing.T) {
	lines := []string{
		"┌ Info: a",
		"│ id = 1",
		"│ user = bob",
		"└ @ M m.jl:1",
		"┌ Info: b",
		"│ id = 2",
		"└ @ M m.jl:2",
	}

	result := New().DetectFromLines(lines)

	if len(result.Fields) != 2 {
		t.Fatalf("Fields = %d, want 2", len(result.Fields))
	}
	if result.Fields[0].Name != "id" || result.Fields[0].Coverage != 1 {
		t.Errorf("Fields[0] = %+v, want id with full coverage", result.Fields[0])
	}
	if result.Fields[1].Name != "user" || result.Fields[1].Coverage != 0.5 {
		t.Errorf("Fields[1] = %+v, want user with half coverage", result.Fields[1])
	}

	schema := result.SuggestedSchema()
	if len(schema) != 1 || schema[0].Name != "id" {
		t.Errorf("SuggestedSchema() = %v, want only id", schema)
	}
}

func TestDetector_DetectFromLines_LastLineIsNotBody(t *testing.T) {
	lines := []string{
		"┌ Info: no footer",
		"│ id = 1",
		"│ tail = x",
	}

	result := New().DetectFromLines(lines)

	if result.Footers != 0 {
		t.Errorf("Footers = %d, want 0", result.Footers)
	}
	if len(result.Fields) != 1 || result.Fields[0].Name != "id" {
		t.Errorf("Fields = %+v, want only id", result.Fields)
	}
}

func TestDetector_DetectFromLines_Single(t *testing.T) {
	lines := []string{
		"[Info: started]",
		"[Warn: disk low]",
		"  continuation",
		"[Error: crashed",
	}

	result := New().DetectFromLines(lines)

	if result.Layout() != LayoutSingle {
		t.Errorf("Layout() = %s, want single", result.Layout())
	}
	if result.Blocks != 3 || result.Single != 3 {
		t.Errorf("Blocks = %d, Single = %d, want 3, 3", result.Blocks, result.Single)
	}
	if result.Levels["Warn"] != 1 || result.Levels["Error"] != 1 {
		t.Errorf("Levels = %v", result.Levels)
	}
	if len(result.SuggestedSchema()) != 0 {
		t.Error("SuggestedSchema() should be empty without structured entries")
	}
}

func TestDetector_DetectFromLines_Unrecognized(t *testing.T) {
	lines := []string{
		"plain text",
		"more plain text",
		"┌ not a header",
		"└ @ M m.jl:1",
	}

	result := New().DetectFromLines(lines)

	if result.HasMatch() {
		t.Error("HasMatch() = true, want false")
	}
	if result.Layout() != LayoutUnknown {
		t.Errorf("Layout() = %s, want unknown", result.Layout())
	}
	if result.Unrecognized != 2 {
		t.Errorf("Unrecognized = %d, want 2", result.Unrecognized)
	}
}

func TestDetector_DetectFromLines_EmptyInput(t *testing.T) {
	result := New().DetectFromLines(nil)
	if result.SampledLines != 0 || result.Blocks != 0 || result.HasMatch() {
		t.Errorf("result = %+v, want empty", result)
	}
}

func TestDetector_WithSampleSize(t *testing.T) {
	if d := New(WithSampleSize(50)); d.sampleSize != 50 {
		t.Errorf("sampleSize = %d, want 50", d.sampleSize)
	}
	if d := New(WithSampleSize(-1)); d.sampleSize != 1000 {
		t.Errorf("sampleSize = %d, want default 1000", d.sampleSize)
	}
}

func TestDetector_DetectFromFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "test.log")
	content := "┌ Info: start\r\n│ id = 1\r\n└ @ Main main.jl:1\r\n[Warn: disk low]\r\n"
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("Failed to write temp file: %v", err)
	}

	result, err := New().DetectFromFile(context.Background(), path)
	if err != nil {
		t.Fatalf("DetectFromFile() error = %v", err)
	}

	if result.Layout() != LayoutMixed {
		t.Errorf("Layout() = %s, want mixed", result.Layout())
	}
	if result.Footers != 1 {
		t.Errorf("Footers = %d, want 1 (CR stripped)", result.Footers)
	}
}

func TestDetector_DetectFromFile_SampleLimit(t *testing.T) {
	path := filepath.Join(t.TempDir(), "test.log")
	content := "[Info: a]\n[Info: b]\n[Info: c]\n[Info: d]\n"
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("Failed to write temp file: %v", err)
	}

	result, err := New(WithSampleSize(2)).DetectFromFile(context.Background(), path)
	if err != nil {
		t.Fatalf("DetectFromFile() error = %v", err)
	}
	if result.SampledLines != 2 || result.Single != 2 {
		t.Errorf("SampledLines = %d, Single = %d, want 2, 2", result.SampledLines, result.Single)
	}
}

func TestDetector_DetectFromFile_NotFound(t *testing.T) {
	if _, err := New().DetectFromFile(context.Background(), "/nonexistent/file.log"); err == nil {
		t.Error("DetectFromFile() expected error for non-existent file")
	}
}

func TestDefaultCandidates(t *testing.T) {
	candidates := DefaultCandidates()
	if candidates[len(candidates)-1].Type != entry.TypeText {
		t.Error("text must be the last candidate")
	}
	for _, c := range candidates {
		for _, ex := range c.Examples {
			if _, err := entry.ParseValue(c.Type, ex); err != nil {
				t.Errorf("example %q does not parse as %s: %v", ex, c.Type, err)
			}
		}
	}
}

func TestDetector_BankLog(t *testing.T) {
	logFile := filepath.Join("..", "..", "testdata", "logs", "bank.log")
	if _, err := os.Stat(logFile); os.IsNotExist(err) {
		t.Fatalf("Required test file not found: %s", logFile)
	}

	result, err := New().DetectFromFile(context.Background(), logFile)
	if err != nil {
		t.Fatalf("DetectFromFile() error = %v", err)
	}

	if result.Structured != 5 || result.Single != 3 || result.Footers != 5 {
		t.Errorf("Structured = %d, Single = %d, Footers = %d; want 5, 3, 5",
			result.Structured, result.Single, result.Footers)
	}

	want := entry.Schema{
		{Name: "amount", Type: entry.TypeFloat},
		{Name: "id", Type: entry.TypeInteger},
		{Name: "user", Type: entry.TypeText},
	}
	if diff := cmp.Diff(want, result.SuggestedSchema()); diff != "" {
		t.Errorf("SuggestedSchema() mismatch (-want +got):\n%s", diff)
	}
}
