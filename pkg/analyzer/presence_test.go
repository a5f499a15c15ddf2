package analyzer

import (
	"testing"

	"github.com/ccollicutt/boxlog/pkg/config"
	"github.com/ccollicutt/boxlog/pkg/entry"
)

func TestNewPresenceEngine_WrongType(t *testing.T) {
	if _, err := NewPresenceEngine(&config.RuleConfig{Name: "x", Type: "pair"}); err == nil {
		t.Error("NewPresenceEngine() expected error for wrong type")
	}
}

func TestPresenceEngine_DefaultMinimum(t *testing.T) {
	engine, err := NewPresenceEngine(&config.RuleConfig{Name: "hb", Type: "presence"})
	if err != nil {
		t.Fatalf("NewPresenceEngine() error = %v", err)
	}

	result := finalize(t, engine)
	if len(result.Issues) != 1 {
		t.Fatalf("Issues = %d, want 1", len(result.Issues))
	}
	ctx := result.Issues[0].Context
	if ctx.Occurrences != 0 || ctx.MinRequired != 1 {
		t.Errorf("Context = %+v, want 0 of 1", ctx)
	}
}

func TestPresenceEngine(t *testing.T) {
	tests := []struct {
		name       string
		rule       config.RuleConfig
		entries    []entry.LogEntry
		wantIssues int
		wantCount  int
	}{
		{
			name:       "enough matching entries",
			rule:       config.RuleConfig{Match: map[string]string{"message": "heartbeat"}, MinOccurrences: 2},
			entries:    []entry.LogEntry{single("heartbeat"), single("other"), single("heartbeat")},
			wantIssues: 0,
			wantCount:  2,
		},
		{
			name:       "too few",
			rule:       config.RuleConfig{Match: map[string]string{"message": "heartbeat"}, MinOccurrences: 3},
			entries:    []entry.LogEntry{single("heartbeat"), single("heartbeat")},
			wantIssues: 1,
			wantCount:  2,
		},
		{
			name:       "require selects structured only",
			rule:       config.RuleConfig{Require: []string{"id"}},
			entries:    []entry.LogEntry{single("start")},
			wantIssues: 1,
			wantCount:  0,
		},
		{
			name:       "typed match",
			rule:       config.RuleConfig{Match: map[string]string{"id": "7"}},
			entries:    []entry.LogEntry{structured("start", 7, 1)},
			wantIssues: 0,
			wantCount:  1,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tt.rule.Name = "presence"
			tt.rule.Type = "presence"
			engine, err := NewPresenceEngine(validRule(t, tt.rule))
			if err != nil {
				t.Fatalf("NewPresenceEngine() error = %v", err)
			}

			process(t, engine, tt.entries...)
			result := finalize(t, engine)

			if len(result.Issues) != tt.wantIssues {
				t.Errorf("Issues = %d, want %d", len(result.Issues), tt.wantIssues)
			}
			if result.Stats.EntriesMatched != tt.wantCount {
				t.Errorf("EntriesMatched = %d, want %d", result.Stats.EntriesMatched, tt.wantCount)
			}
			if tt.wantIssues > 0 && result.Issues[0].Type != IssueTypeBelowMinOccurrences {
				t.Errorf("Type = %v, want %v", result.Issues[0].Type, IssueTypeBelowMinOccurrences)
			}
		})
	}
}

func TestPresenceEngine_IssuePointsAtFirstMatch(t *testing.T) {
	rule := validRule(t, config.RuleConfig{Name: "p", Type: "presence", Require: []string{"id"}, MinOccurrences: 5})
	engine, err := NewPresenceEngine(rule)
	if err != nil {
		t.Fatalf("NewPresenceEngine() error = %v", err)
	}

	process(t, engine, single("noise"), structured("start", 1, 12), structured("start", 2, 20))

	result := finalize(t, engine)
	if len(result.Issues) != 1 {
		t.Fatalf("Issues = %d, want 1", len(result.Issues))
	}
	if got := result.Issues[0].Context.LineNum; got != 12 {
		t.Errorf("LineNum = %d, want 12", got)
	}
}

func single(msg string) entry.LogEntry {
	return entry.LogEntry{Kind: entry.KindSingle, Level: "Info", Message: msg}
}
