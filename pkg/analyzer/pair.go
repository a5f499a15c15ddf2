package analyzer

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/ccollicutt/boxlog/pkg/config"
	"github.com/ccollicutt/boxlog/pkg/entry"
)

// PairEngine implements RuleEngine for opening/closing pair detection.
// Selected entries are grouped by key values; groups that saw only one of
// the two markers are reported.
type PairEngine struct {
	name        string
	description string
	opening     string
	closing     string
	sel         selector

	// State
	mu      sync.Mutex
	tracker *groupTracker
	stats   RuleStats
}

// NewPairEngine creates a pair engine from a validated rule config.
func NewPairEngine(rule *config.RuleConfig) (*PairEngine, error) {
	if rule.RuleTypeEnum() != config.RuleTypePair {
		return nil, fmt.Errorf("rule %q is not a pair rule", rule.Name)
	}
	if rule.Opening == "" || rule.Closing == "" {
		return nil, fmt.Errorf("rule %q needs both opening and closing markers", rule.Name)
	}

	return &PairEngine{
		name:        rule.Name,
		description: rule.Description,
		opening:     rule.Opening,
		closing:     rule.Closing,
		sel:         newSelector(rule),
		tracker:     newGroupTracker(rule.Opening, rule.Closing),
		stats:       RuleStats{StartTime: time.Now()},
	}, nil
}

// Name returns the rule name.
func (e *PairEngine) Name() string {
	return e.name
}

// Type returns the rule type.
func (e *PairEngine) Type() RuleType {
	return RuleTypePair
}

// Process handles a single entry.
func (e *PairEngine) Process(_ context.Context, le *entry.LogEntry) error {
	e.mu.Lock()
	defer e.mu.Unlock()

	e.stats.EntriesProcessed++
	if !e.sel.selects(le) {
		return nil
	}
	e.stats.EntriesMatched++
	e.tracker.observe(le)
	return nil
}

// Finalize completes analysis and returns one issue per mismatched group.
func (e *PairEngine) Finalize(_ context.Context) (*RuleResult, error) {
	e.mu.Lock()
	defer e.mu.Unlock()

	e.stats.EndTime = time.Now()

	mismatches := e.tracker.mismatches()
	result := &RuleResult{
		RuleName:    e.name,
		RuleType:    RuleTypePair,
		Description: e.description,
		Issues:      make([]Issue, 0, len(mismatches)),
		Stats:       e.stats,
	}

	for _, m := range mismatches {
		issue := Issue{
			Context: IssueContext{
				Keys:    m.Keys,
				State:   m.State,
				Source:  m.Origin.Source,
				LineNum: m.Origin.LineNum,
			},
		}
		if m.State == MatchOpeningSeen {
			issue.Type = IssueTypeMissingClosing
			issue.Description = fmt.Sprintf("Saw %q but no %q", e.opening, e.closing)
		} else {
			issue.Type = IssueTypeMissingOpening
			issue.Description = fmt.Sprintf("Saw %q without a preceding %q", e.closing, e.opening)
		}
		result.Issues = append(result.Issues, issue)
	}

	return result, nil
}

// Reset clears internal state for reuse.
func (e *PairEngine) Reset() {
	e.mu.Lock()
	defer e.mu.Unlock()

	e.tracker = newGroupTracker(e.opening, e.closing)
	e.stats = RuleStats{StartTime: time.Now()}
}
