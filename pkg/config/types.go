// Package config provides configuration loading and validation for boxlog.
package config

import (
	"time"

	"github.com/ccollicutt/boxlog/pkg/entry"
	"github.com/ccollicutt/boxlog/pkg/parser"
	"github.com/ccollicutt/boxlog/pkg/query"
)

// Config is the root configuration structure loaded from YAML.
type Config struct {
	LogSources []string        `yaml:"log_sources"`
	Schema     entry.Schema    `yaml:"schema,omitempty"`
	Filters    parser.Filter   `yaml:"filters,omitempty"`
	Rules      []RuleConfig    `yaml:"rules,omitempty"`
	Webhooks   []WebhookConfig `yaml:"webhooks,omitempty"`
}

// ParserOptions returns the parser options described by the config.
func (c *Config) ParserOptions() parser.Options {
	return parser.Options{
		Schema: c.Schema,
		Filter: c.Filters,
	}
}

// RuleType represents the type of analysis rule.
type RuleType string

const (
	// RuleTypePair checks that opening and closing messages pair up per group.
	RuleTypePair RuleType = "pair"

	// RuleTypePresence checks that enough matching entries exist.
	RuleTypePresence RuleType = "presence"
)

// RuleConfig defines a single analysis rule.
type RuleConfig struct {
	// Common fields
	Name        string `yaml:"name"`
	Type        string `yaml:"type"` // pair, presence
	Description string `yaml:"description,omitempty"`

	// Match selects entries whose attributes equal the given values.
	// Values are typed against the schema when the config is validated.
	Match map[string]string `yaml:"match,omitempty"`

	// Require selects entries carrying every listed attribute.
	Require []string `yaml:"require,omitempty"`

	// Pair rule fields
	Opening string `yaml:"opening,omitempty"`
	Closing string `yaml:"closing,omitempty"`

	// Presence rule fields
	MinOccurrences int `yaml:"min_occurrences,omitempty"`

	// compiledMatch is populated during validation.
	compiledMatch query.Constraints
}

// CompiledMatch returns the typed match constraints.
func (r *RuleConfig) CompiledMatch() query.Constraints {
	return r.compiledMatch
}

// RuleTypeEnum returns the rule type as a RuleType enum.
func (r *RuleConfig) RuleTypeEnum() RuleType {
	return RuleType(r.Type)
}

// WebhookTrigger determines when a webhook fires.
type WebhookTrigger string

const (
	// WebhookTriggerOnIssues fires only when issues are detected (default).
	WebhookTriggerOnIssues WebhookTrigger = "on_issues"
	// WebhookTriggerAlways fires after every analysis.
	WebhookTriggerAlways WebhookTrigger = "always"
	// WebhookTriggerNever disables the webhook.
	WebhookTriggerNever WebhookTrigger = "never"
)

// WebhookConfig defines a webhook endpoint for sending analysis results.
type WebhookConfig struct {
	// Name is an optional identifier for the webhook.
	Name string `yaml:"name,omitempty"`

	// URL is the webhook endpoint (required).
	URL string `yaml:"url"`

	// Token is an optional bearer token. ${VAR} and $VAR are expanded.
	Token string `yaml:"token,omitempty"`

	// Trigger defaults to on_issues.
	Trigger WebhookTrigger `yaml:"trigger,omitempty"`

	// Timeout defaults to DefaultWebhookTimeout.
	Timeout time.Duration `yaml:"timeout,omitempty"`
}
