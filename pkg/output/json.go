package output

import (
	"context"
	"encoding/json"
	"io"

	"github.com/ccollicutt/boxlog/pkg/entry"
)

// JSONFormatter formats reports as JSON and entries as JSON lines.
type JSONFormatter struct {
	opts FormatOptions
}

// NewJSONFormatter creates a new JSON formatter with the given options.
func NewJSONFormatter(opts FormatOptions) *JSONFormatter {
	return &JSONFormatter{opts: opts}
}

// Name returns the format name.
func (f *JSONFormatter) Name() string {
	return "json"
}

// Format renders the report as JSON.
func (f *JSONFormatter) Format(ctx context.Context, report *Report, w io.Writer) error {
	encoder := json.NewEncoder(w)
	encoder.SetIndent("", "  ")

	if f.opts.Quiet {
		return encoder.Encode(report.Summary)
	}

	return encoder.Encode(report)
}

// FormatEntries writes one JSON object per line.
func (f *JSONFormatter) FormatEntries(ctx context.Context, entries []entry.LogEntry, w io.Writer) error {
	encoder := json.NewEncoder(w)
	for i := range entries {
		if err := ctx.Err(); err != nil {
			return err
		}
		if err := encoder.Encode(&entries[i]); err != nil {
			return err
		}
	}
	return nil
}
