package analyzer

import (
	"github.com/ccollicutt/boxlog/pkg/config"
	"github.com/ccollicutt/boxlog/pkg/entry"
	"github.com/ccollicutt/boxlog/pkg/query"
)

// selector narrows the entries a rule looks at using the query layer.
type selector struct {
	match   query.Constraints
	require []string
}

func newSelector(rule *config.RuleConfig) selector {
	return selector{match: rule.CompiledMatch(), require: rule.Require}
}

func (s selector) selects(e *entry.LogEntry) bool {
	return query.HasFields(e, s.require) && query.Matches(e, s.match)
}
