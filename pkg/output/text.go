package output

import (
	"context"
	"fmt"
	"io"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/ccollicutt/boxlog/pkg/analyzer"
	"github.com/ccollicutt/boxlog/pkg/entry"
)

// TextFormatter formats reports and entries as human-readable text.
type TextFormatter struct {
	opts FormatOptions
}

// NewTextFormatter creates a new text formatter with the given options.
func NewTextFormatter(opts FormatOptions) *TextFormatter {
	return &TextFormatter{opts: opts}
}

// Name returns the format name.
func (f *TextFormatter) Name() string {
	return "text"
}

// Format renders the report as text.
func (f *TextFormatter) Format(ctx context.Context, report *Report, w io.Writer) error {
	if f.opts.Quiet {
		return f.formatQuiet(report, w)
	}
	return f.formatFull(report, w)
}

func (f *TextFormatter) formatQuiet(report *Report, w io.Writer) error {
	fmt.Fprintf(w, "boxlog: %d rules checked, %d with issues, %d total issues\n",
		report.Summary.RulesChecked,
		report.Summary.RulesWithIssues,
		report.Summary.TotalIssues)
	return nil
}

func (f *TextFormatter) formatFull(report *Report, w io.Writer) error {
	fmt.Fprintln(w, "=== boxlog Analysis Report ===")
	fmt.Fprintln(w)

	for _, result := range report.Results {
		if err := f.formatRuleResult(result, w); err != nil {
			return err
		}
	}

	fmt.Fprintln(w, "---")
	fmt.Fprintf(w, "Summary: %d rules checked, %d rules with issues, %d total issues\n",
		report.Summary.RulesChecked,
		report.Summary.RulesWithIssues,
		report.Summary.TotalIssues)

	if f.opts.Verbose {
		fmt.Fprintf(w, "Lines processed: %d\n", report.Summary.LinesProcessed)
		fmt.Fprintf(w, "Entries parsed: %d, rejected: %d\n",
			report.Summary.EntriesParsed, report.Summary.EntriesRejected)
		fmt.Fprintf(w, "Duration: %s\n", report.Metadata.Duration.Round(1e6))
		if report.Metadata.RunID != "" {
			fmt.Fprintf(w, "Run ID: %s\n", report.Metadata.RunID)
		}
	}

	return nil
}

func (f *TextFormatter) formatRuleResult(result *analyzer.RuleResult, w io.Writer) error {
	ruleType := strings.ToUpper(string(result.RuleType))
	fmt.Fprintf(w, "[%s] %s\n", ruleType, result.RuleName)

	if result.Description != "" && f.opts.Verbose {
		fmt.Fprintf(w, "  %s\n", result.Description)
	}

	if !result.HasIssues() {
		fmt.Fprintln(w, "  No issues detected")
		fmt.Fprintln(w)
		return nil
	}

	fmt.Fprintf(w, "  Missing: %d issue(s)\n", len(result.Issues))

	for i := range result.Issues {
		f.formatIssue(&result.Issues[i], w)
	}

	fmt.Fprintln(w)
	return nil
}

func (f *TextFormatter) formatIssue(issue *analyzer.Issue, w io.Writer) {
	ctx := issue.Context
	switch issue.Type {
	case analyzer.IssueTypeMissingClosing:
		fmt.Fprintf(w, "  - %s: opened, never closed\n", ctx.Keys)
	case analyzer.IssueTypeMissingOpening:
		fmt.Fprintf(w, "  - %s: closed, never opened\n", ctx.Keys)
	case analyzer.IssueTypeBelowMinOccurrences:
		fmt.Fprintf(w, "  - Only %d occurrences (minimum required: %d)\n",
			ctx.Occurrences, ctx.MinRequired)
	default:
		fmt.Fprintf(w, "  - %s\n", issue.Description)
	}

	if f.opts.Verbose && ctx.Source != "" {
		fmt.Fprintf(w, "    Source: %s:%d\n", ctx.Source, ctx.LineNum)
	}
}

// levelColors maps common level names to terminal colors.
var levelColors = map[string]lipgloss.Color{
	"debug": lipgloss.Color("8"),
	"info":  lipgloss.Color("12"),
	"warn":  lipgloss.Color("11"),
	"error": lipgloss.Color("9"),
}

// FormatEntries writes each entry on one line, followed by its key values
// and provenance. Levels are coloured when w is a terminal.
func (f *TextFormatter) FormatEntries(ctx context.Context, entries []entry.LogEntry, w io.Writer) error {
	renderer := lipgloss.NewRenderer(w)
	dim := renderer.NewStyle().Faint(true)

	for i := range entries {
		if err := ctx.Err(); err != nil {
			return err
		}
		e := &entries[i]

		var b strings.Builder
		b.WriteString(f.level(renderer, e.Level))
		b.WriteString(" ")
		b.WriteString(e.Message)
		if len(e.KeyValues) > 0 {
			b.WriteString(" ")
			b.WriteString(e.KeyValues.String())
		}
		if e.Provenance != nil {
			at := fmt.Sprintf("@ %s %s:%d", e.Provenance.Module, e.Provenance.File, e.Provenance.Line)
			b.WriteString(" ")
			b.WriteString(f.style(dim, at))
		}
		if f.opts.Verbose && e.Origin.Source != "" {
			b.WriteString(" ")
			b.WriteString(f.style(dim, fmt.Sprintf("(%s:%d)", e.Origin.Source, e.Origin.LineNum)))
		}

		if _, err := fmt.Fprintln(w, b.String()); err != nil {
			return err
		}
	}
	return nil
}

func (f *TextFormatter) level(r *lipgloss.Renderer, level string) string {
	text := "[" + level + "]"
	color, ok := levelColors[strings.ToLower(level)]
	if !ok {
		return text
	}
	return f.style(r.NewStyle().Bold(true).Foreground(color), text)
}

func (f *TextFormatter) style(s lipgloss.Style, text string) string {
	if f.opts.NoColor {
		return text
	}
	return s.Render(text)
}
