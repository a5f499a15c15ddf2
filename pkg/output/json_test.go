package output

import (
	"bytes"
	"context"
	"encoding/json"
	"strings"
	"testing"
	"time"

	"github.com/ccollicutt/boxlog/pkg/analyzer"
	"github.com/ccollicutt/boxlog/pkg/entry"
)

func TestNewJSONFormatter(t *testing.T) {
	f := NewJSONFormatter(FormatOptions{})
	if f.Name() != "json" {
		t.Errorf("Name() = %q, want %q", f.Name(), "json")
	}
}

func TestJSONFormatter_Format(t *testing.T) {
	f := NewJSONFormatter(FormatOptions{})
	report := createTestReport()

	var buf bytes.Buffer
	if err := f.Format(context.Background(), report, &buf); err != nil {
		t.Fatalf("Format() error = %v", err)
	}

	var parsed struct {
		Summary Summary
		Results []struct {
			RuleName string
			Issues   []struct {
				Type    string
				Context struct {
					Keys  map[string]any
					State string
				}
			}
		}
		Metadata struct {
			RunID   string
			Sources []string
		}
	}
	if err := json.Unmarshal(buf.Bytes(), &parsed); err != nil {
		t.Fatalf("Output is not valid JSON: %v", err)
	}

	if parsed.Summary.RulesChecked != 2 {
		t.Errorf("RulesChecked = %d, want 2", parsed.Summary.RulesChecked)
	}
	if parsed.Summary.TotalIssues != 2 {
		t.Errorf("TotalIssues = %d, want 2", parsed.Summary.TotalIssues)
	}
	if parsed.Metadata.RunID != "run-1" {
		t.Errorf("RunID = %q, want run-1", parsed.Metadata.RunID)
	}

	issue := parsed.Results[0].Issues[0]
	if issue.Type != "missing_closing" || issue.Context.State != "opening_seen" {
		t.Errorf("issue = %s/%s, want missing_closing/opening_seen", issue.Type, issue.Context.State)
	}
	if issue.Context.Keys["id"] != float64(7) {
		t.Errorf("Keys = %v, want id=7", issue.Context.Keys)
	}
}

func TestJSONFormatter_Format_Quiet(t *testing.T) {
	f := NewJSONFormatter(FormatOptions{Quiet: true})

	var buf bytes.Buffer
	if err := f.Format(context.Background(), createTestReport(), &buf); err != nil {
		t.Fatalf("Format() error = %v", err)
	}

	var parsed Summary
	if err := json.Unmarshal(buf.Bytes(), &parsed); err != nil {
		t.Fatalf("Output is not valid JSON: %v", err)
	}
	if parsed.RulesChecked != 2 {
		t.Errorf("RulesChecked = %d, want 2", parsed.RulesChecked)
	}
}

func TestJSONFormatter_Format_Empty(t *testing.T) {
	f := NewJSONFormatter(FormatOptions{})
	report := &Report{Results: []*analyzer.RuleResult{}}

	var buf bytes.Buffer
	if err := f.Format(context.Background(), report, &buf); err != nil {
		t.Fatalf("Format() error = %v", err)
	}
	if !json.Valid(buf.Bytes()) {
		t.Fatalf("Output is not valid JSON: %s", buf.String())
	}
}

func TestJSONFormatter_FormatEntries(t *testing.T) {
	f := NewJSONFormatter(FormatOptions{})

	var buf bytes.Buffer
	if err := f.FormatEntries(context.Background(), testEntries(), &buf); err != nil {
		t.Fatalf("FormatEntries() error = %v", err)
	}

	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	if len(lines) != 2 {
		t.Fatalf("got %d lines, want 2:\n%s", len(lines), buf.String())
	}

	var first map[string]any
	if err := json.Unmarshal([]byte(lines[0]), &first); err != nil {
		t.Fatalf("line 1 is not JSON: %v", err)
	}
	if first["kind"] != "structured" || first["message"] != "start" {
		t.Errorf("line 1 = %v", first)
	}
	kv, _ := first["key_values"].(map[string]any)
	if kv["id"] != float64(7) || kv["wait"] != "1.5s" {
		t.Errorf("key_values = %v", kv)
	}
	prov, _ := first["provenance"].(map[string]any)
	if prov["module"] != "Bank" || prov["line"] != float64(12) {
		t.Errorf("provenance = %v", prov)
	}

	var second map[string]any
	if err := json.Unmarshal([]byte(lines[1]), &second); err != nil {
		t.Fatalf("line 2 is not JSON: %v", err)
	}
	if _, ok := second["provenance"]; ok {
		t.Error("single-line entry should omit provenance")
	}
	if _, ok := second["key_values"]; ok {
		t.Error("single-line entry should omit key_values")
	}
}

func TestJSONFormatter_FormatEntries_Cancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	var buf bytes.Buffer
	err := NewJSONFormatter(FormatOptions{}).FormatEntries(ctx, testEntries(), &buf)
	if err == nil {
		t.Error("FormatEntries() expected error for cancelled context")
	}
}

func testEntries() []entry.LogEntry {
	return []entry.LogEntry{
		{
			Kind:    entry.KindStructured,
			Level:   "Info",
			Message: "start",
			KeyValues: entry.KeyValues{
				{Name: "id", Value: entry.IntValue(7)},
				{Name: "wait", Value: entry.DurationValue(1500 * time.Millisecond)},
			},
			Provenance: &entry.Provenance{Module: "Bank", File: "bank.jl", Line: 12},
			Origin:     entry.Origin{Source: "app.log", LineNum: 1},
		},
		{
			Kind:    entry.KindSingle,
			Level:   "Warn",
			Message: "disk low",
			Origin:  entry.Origin{Source: "app.log", LineNum: 5},
		},
	}
}
