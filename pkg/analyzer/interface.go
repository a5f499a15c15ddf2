package analyzer

import (
	"context"

	"github.com/ccollicutt/boxlog/pkg/entry"
)

// RuleEngine consumes parsed entries and reports issues for one rule.
// Each strategy (pair, presence) implements this interface.
type RuleEngine interface {
	// Name returns the rule name for reporting.
	Name() string

	// Type returns the rule type.
	Type() RuleType

	// Process handles a single entry, updating internal state.
	Process(ctx context.Context, e *entry.LogEntry) error

	// Finalize completes analysis and returns detected issues.
	// Called after all entries have been processed.
	Finalize(ctx context.Context) (*RuleResult, error)

	// Reset clears internal state for reuse.
	Reset()
}
