package analyzer

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/ccollicutt/boxlog/pkg/config"
	"github.com/ccollicutt/boxlog/pkg/entry"
)

// PresenceEngine implements RuleEngine for absence detection: it reports
// when fewer selected entries exist than the rule requires.
type PresenceEngine struct {
	name           string
	description    string
	minOccurrences int
	sel            selector

	// State
	mu    sync.Mutex
	first *entry.Origin
	stats RuleStats
}

// NewPresenceEngine creates a presence engine from a validated rule config.
func NewPresenceEngine(rule *config.RuleConfig) (*PresenceEngine, error) {
	if rule.RuleTypeEnum() != config.RuleTypePresence {
		return nil, fmt.Errorf("rule %q is not a presence rule", rule.Name)
	}

	minOcc := rule.MinOccurrences
	if minOcc <= 0 {
		minOcc = config.DefaultMinOccurrences
	}

	return &PresenceEngine{
		name:           rule.Name,
		description:    rule.Description,
		minOccurrences: minOcc,
		sel:            newSelector(rule),
		stats:          RuleStats{StartTime: time.Now()},
	}, nil
}

// Name returns the rule name.
func (e *PresenceEngine) Name() string {
	return e.name
}

// Type returns the rule type.
func (e *PresenceEngine) Type() RuleType {
	return RuleTypePresence
}

// Process handles a single entry.
func (e *PresenceEngine) Process(_ context.Context, le *entry.LogEntry) error {
	e.mu.Lock()
	defer e.mu.Unlock()

	e.stats.EntriesProcessed++
	if !e.sel.selects(le) {
		return nil
	}
	e.stats.EntriesMatched++
	if e.first == nil {
		origin := le.Origin
		e.first = &origin
	}
	return nil
}

// Finalize completes analysis and returns detected issues.
func (e *PresenceEngine) Finalize(_ context.Context) (*RuleResult, error) {
	e.mu.Lock()
	defer e.mu.Unlock()

	e.stats.EndTime = time.Now()

	result := &RuleResult{
		RuleName:    e.name,
		RuleType:    RuleTypePresence,
		Description: e.description,
		Issues:      make([]Issue, 0),
		Stats:       e.stats,
	}

	if n := e.stats.EntriesMatched; n < e.minOccurrences {
		issue := Issue{
			Type: IssueTypeBelowMinOccurrences,
			Description: fmt.Sprintf("Found %d matching entries, expected at least %d",
				n, e.minOccurrences),
			Context: IssueContext{
				Occurrences: n,
				MinRequired: e.minOccurrences,
			},
		}
		if e.first != nil {
			issue.Context.Source = e.first.Source
			issue.Context.LineNum = e.first.LineNum
		}
		result.Issues = append(result.Issues, issue)
	}

	return result, nil
}

// Reset clears internal state for reuse.
func (e *PresenceEngine) Reset() {
	e.mu.Lock()
	defer e.mu.Unlock()

	e.first = nil
	e.stats = RuleStats{StartTime: time.Now()}
}
