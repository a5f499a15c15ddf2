package output

import (
	"context"
	"fmt"
	"io"

	"github.com/ccollicutt/boxlog/pkg/entry"
)

// Formatter renders analysis results in a specific format.
type Formatter interface {
	// Format renders the report to the given writer.
	Format(ctx context.Context, report *Report, w io.Writer) error

	// Name returns the format name (text, json).
	Name() string
}

// EntryFormatter renders parsed entries.
type EntryFormatter interface {
	// FormatEntries renders entries to the given writer, in order.
	FormatEntries(ctx context.Context, entries []entry.LogEntry, w io.Writer) error

	// Name returns the format name (text, json).
	Name() string
}

// FormatOptions controls formatter behavior.
type FormatOptions struct {
	// Verbose enables detailed output including issue locations.
	Verbose bool

	// Quiet enables minimal summary-only output.
	Quiet bool

	// NoColor disables styling of entry levels.
	NoColor bool
}

// NewFormatter returns the report formatter called name.
func NewFormatter(name string, opts FormatOptions) (Formatter, error) {
	switch name {
	case "text", "":
		return NewTextFormatter(opts), nil
	case "json":
		return NewJSONFormatter(opts), nil
	default:
		return nil, fmt.Errorf("unknown output format %q (must be text or json)", name)
	}
}

// NewEntryFormatter returns the entry formatter called name.
func NewEntryFormatter(name string, opts FormatOptions) (EntryFormatter, error) {
	switch name {
	case "text", "":
		return NewTextFormatter(opts), nil
	case "json":
		return NewJSONFormatter(opts), nil
	default:
		return nil, fmt.Errorf("unknown output format %q (must be text or json)", name)
	}
}
