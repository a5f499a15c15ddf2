// Package output provides formatting for analysis reports and parsed entries.
package output

import (
	"time"

	"github.com/google/uuid"

	"github.com/ccollicutt/boxlog/pkg/analyzer"
	"github.com/ccollicutt/boxlog/pkg/parser"
)

// Report is the complete analysis output.
type Report struct {
	// Summary provides aggregate statistics.
	Summary Summary

	// Results contains findings from each rule.
	Results []*analyzer.RuleResult

	// Metadata provides context about the analysis.
	Metadata Metadata
}

// Summary provides aggregate statistics.
type Summary struct {
	// RulesChecked is the number of rules that were executed.
	RulesChecked int

	// RulesWithIssues is the number of rules that detected issues.
	RulesWithIssues int

	// TotalIssues is the total number of issues detected.
	TotalIssues int

	// LinesProcessed is the total number of log lines read.
	LinesProcessed int

	// EntriesParsed is the number of entries the rules saw.
	EntriesParsed int

	// EntriesRejected is the number of blocks that produced no entry.
	EntriesRejected int
}

// Metadata provides context about the analysis run.
type Metadata struct {
	// RunID identifies this analysis; it is also sent to webhooks.
	RunID string

	// ConfigFile is the path to the configuration file used.
	ConfigFile string

	// Sources lists the log files that were analyzed.
	Sources []string

	// Rejected breaks EntriesRejected down by reason.
	Rejected map[parser.RejectReason]int `json:",omitempty"`

	// AnalyzedAt is when the analysis was performed.
	AnalyzedAt time.Time

	// Duration is how long the analysis took.
	Duration time.Duration
}

// NewReport creates a Report from analysis results.
func NewReport(result *analyzer.AnalysisResult, configFile string) *Report {
	stats := result.Metadata.Parse
	return &Report{
		Results: result.Results,
		Metadata: Metadata{
			RunID:      uuid.NewString(),
			ConfigFile: configFile,
			Sources:    result.Metadata.Sources,
			Rejected:   stats.Rejected,
			AnalyzedAt: result.Metadata.EndTime,
			Duration:   result.Metadata.EndTime.Sub(result.Metadata.StartTime),
		},
		Summary: Summary{
			RulesChecked:    len(result.Results),
			RulesWithIssues: result.RulesWithIssues(),
			TotalIssues:     result.TotalIssues(),
			LinesProcessed:  stats.Lines,
			EntriesParsed:   stats.Entries,
			EntriesRejected: stats.TotalRejected(),
		},
	}
}

// HasIssues returns true if any issues were detected.
func (r *Report) HasIssues() bool {
	return r.Summary.TotalIssues > 0
}
