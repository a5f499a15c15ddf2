// Package analyzer evaluates rules over parsed log entries. Its core is
// FindMismatched, which pairs opening and closing messages per correlation
// group.
package analyzer

import (
	"time"

	"github.com/ccollicutt/boxlog/pkg/entry"
)

// RuleType enumerates analysis strategies.
type RuleType string

const (
	RuleTypePair     RuleType = "pair"
	RuleTypePresence RuleType = "presence"
)

// IssueType categorizes detected issues.
type IssueType string

const (
	// IssueTypeMissingClosing indicates a group saw the opening marker only.
	IssueTypeMissingClosing IssueType = "missing_closing"

	// IssueTypeMissingOpening indicates a group saw the closing marker only.
	IssueTypeMissingOpening IssueType = "missing_opening"

	// IssueTypeBelowMinOccurrences indicates fewer matching entries than required.
	IssueTypeBelowMinOccurrences IssueType = "below_min_occurrences"
)

// RuleResult contains findings from executing a single rule.
type RuleResult struct {
	// RuleName is the name of the rule that produced these results.
	RuleName string

	// RuleType indicates the strategy used.
	RuleType RuleType

	// Description is the rule's description, if any.
	Description string

	// Issues contains all detected problems.
	Issues []Issue

	// Stats provides execution statistics.
	Stats RuleStats
}

// RuleStats contains execution statistics for a rule.
type RuleStats struct {
	// EntriesProcessed is the number of entries examined.
	EntriesProcessed int

	// EntriesMatched is the number of entries selected by match and require.
	EntriesMatched int

	// StartTime is when rule processing began.
	StartTime time.Time

	// EndTime is when rule processing completed.
	EndTime time.Time
}

// HasIssues returns true if any issues were detected.
func (r *RuleResult) HasIssues() bool {
	return len(r.Issues) > 0
}

// Issue represents a single detected problem.
type Issue struct {
	// Type categorizes the issue.
	Type IssueType

	// Description is a human-readable summary of the issue.
	Description string

	// Context provides details about where the issue occurred.
	Context IssueContext
}

// IssueContext provides detailed information about an issue.
type IssueContext struct {
	// Keys identifies the correlation group (pair rules).
	Keys entry.KeyValues

	// State is the group's final match state (pair rules).
	State MatchState

	// Source is the file holding the group's first entry.
	Source string

	// LineNum is the line of the group's first entry.
	LineNum int

	// Occurrences is the actual count (presence rules).
	Occurrences int

	// MinRequired is the minimum required count (presence rules).
	MinRequired int
}
