package analyzer

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/ccollicutt/boxlog/pkg/config"
	"github.com/ccollicutt/boxlog/pkg/parser"
)

// Analyzer orchestrates analysis across multiple rules.
type Analyzer struct {
	cfg     *config.Config
	engines []RuleEngine

	// Options
	ruleFilter map[string]bool // nil means all rules
	logger     *zap.Logger
}

// AnalyzerOption configures analyzer behavior.
type AnalyzerOption func(*Analyzer)

// WithRuleFilter limits analysis to the specified rules.
func WithRuleFilter(rules []string) AnalyzerOption {
	return func(a *Analyzer) {
		if len(rules) > 0 {
			a.ruleFilter = make(map[string]bool)
			for _, r := range rules {
				a.ruleFilter[r] = true
			}
		}
	}
}

// WithLogger sets the logger used for per-rule debug output.
func WithLogger(l *zap.Logger) AnalyzerOption {
	return func(a *Analyzer) {
		if l != nil {
			a.logger = l
		}
	}
}

// NewAnalyzer creates a new analyzer from a validated configuration.
func NewAnalyzer(cfg *config.Config, opts ...AnalyzerOption) (*Analyzer, error) {
	a := &Analyzer{
		cfg:     cfg,
		engines: make([]RuleEngine, 0, len(cfg.Rules)),
		logger:  zap.NewNop(),
	}

	for _, opt := range opts {
		opt(a)
	}

	for i := range cfg.Rules {
		rule := &cfg.Rules[i]

		if a.ruleFilter != nil && !a.ruleFilter[rule.Name] {
			continue
		}

		engine, err := createEngine(rule)
		if err != nil {
			return nil, fmt.Errorf("creating engine for rule %q: %w", rule.Name, err)
		}
		a.engines = append(a.engines, engine)
	}

	if len(a.engines) == 0 {
		return nil, fmt.Errorf("no rules to execute (check rules in config and --rule filter)")
	}

	return a, nil
}

// createEngine creates the appropriate rule engine based on rule type.
func createEngine(rule *config.RuleConfig) (RuleEngine, error) {
	switch rule.RuleTypeEnum() {
	case config.RuleTypePair:
		return NewPairEngine(rule)
	case config.RuleTypePresence:
		return NewPresenceEngine(rule)
	default:
		return nil, fmt.Errorf("unknown rule type: %s", rule.Type)
	}
}

// AnalysisResult contains the complete analysis output.
type AnalysisResult struct {
	// Results contains findings from each rule.
	Results []*RuleResult

	// Metadata provides context about the analysis.
	Metadata AnalysisMetadata
}

// AnalysisMetadata provides context about the analysis run.
type AnalysisMetadata struct {
	// ConfigFile is the path to the configuration file used.
	ConfigFile string

	// Sources lists the log files that were analyzed.
	Sources []string

	// StartTime is when analysis began.
	StartTime time.Time

	// EndTime is when analysis completed.
	EndTime time.Time

	// Parse holds the parser's line, block, entry and rejection counts.
	Parse parser.Stats
}

// TotalIssues returns the total number of issues across all rules.
func (r *AnalysisResult) TotalIssues() int {
	total := 0
	for _, result := range r.Results {
		total += len(result.Issues)
	}
	return total
}

// RulesWithIssues returns the count of rules that detected issues.
func (r *AnalysisResult) RulesWithIssues() int {
	count := 0
	for _, result := range r.Results {
		if result.HasIssues() {
			count++
		}
	}
	return count
}

// Analyze runs every rule over the parsed entries.
func (a *Analyzer) Analyze(ctx context.Context, parsed *parser.Result) (*AnalysisResult, error) {
	result := &AnalysisResult{
		Results: make([]*RuleResult, 0, len(a.engines)),
		Metadata: AnalysisMetadata{
			Sources:   parsed.Sources,
			Parse:     parsed.Stats,
			StartTime: time.Now(),
		},
	}

	for _, engine := range a.engines {
		engine.Reset()
	}

	for i := range parsed.Entries {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		for _, engine := range a.engines {
			if err := engine.Process(ctx, &parsed.Entries[i]); err != nil {
				return nil, fmt.Errorf("processing entry with rule %q: %w", engine.Name(), err)
			}
		}
	}

	for _, engine := range a.engines {
		ruleResult, err := engine.Finalize(ctx)
		if err != nil {
			return nil, fmt.Errorf("finalizing rule %q: %w", engine.Name(), err)
		}
		a.logger.Debug("rule finished",
			zap.String("rule", ruleResult.RuleName),
			zap.String("type", string(ruleResult.RuleType)),
			zap.Int("matched", ruleResult.Stats.EntriesMatched),
			zap.Int("issues", len(ruleResult.Issues)),
		)
		result.Results = append(result.Results, ruleResult)
	}

	result.Metadata.EndTime = time.Now()

	return result, nil
}
