package config

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"os"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/ccollicutt/boxlog/pkg/query"
)

// Load reads and validates a configuration file.
func Load(_ context.Context, path string) (*Config, error) {
	data, err := os.ReadFile(path) // #nosec G304 -- user-provided config path is expected
	if err != nil {
		return nil, fmt.Errorf("reading config file: %w", err)
	}

	cfg := DefaultConfig()
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("parsing config file: %w", err)
	}

	cfg.applyEnvironmentOverrides()

	if err := Validate(cfg); err != nil {
		return nil, fmt.Errorf("validating config: %w", err)
	}

	return cfg, nil
}

// Validate checks a configuration for errors and compiles rule constraints.
// Rules are optional: a config without rules can still drive parsing.
func Validate(cfg *Config) error {
	if len(cfg.LogSources) == 0 {
		return errors.New("log_sources: at least one log source is required")
	}

	if err := cfg.Schema.Validate(); err != nil {
		return fmt.Errorf("schema: %w", err)
	}

	seen := make(map[string]bool, len(cfg.Rules))
	for i := range cfg.Rules {
		rule := &cfg.Rules[i]
		if err := validateRule(rule, cfg); err != nil {
			return fmt.Errorf("rules[%d] (%s): %w", i, rule.Name, err)
		}
		if seen[rule.Name] {
			return fmt.Errorf("rules[%d] (%s): duplicate rule name", i, rule.Name)
		}
		seen[rule.Name] = true
	}

	// Webhooks are optional, but validate if present
	for i := range cfg.Webhooks {
		if err := ValidateWebhook(&cfg.Webhooks[i]); err != nil {
			name := cfg.Webhooks[i].Name
			if name == "" {
				name = cfg.Webhooks[i].URL
			}
			return fmt.Errorf("webhooks[%d] (%s): %w", i, name, err)
		}
	}

	return nil
}

func validateRule(rule *RuleConfig, cfg *Config) error {
	if rule.Name == "" {
		return errors.New("name is required")
	}

	for _, name := range rule.Require {
		if name == "" {
			return errors.New("require: field names must not be empty")
		}
	}

	match, err := query.NewConstraints(rule.Match, cfg.Schema)
	if err != nil {
		return fmt.Errorf("match: %w", err)
	}
	rule.compiledMatch = match

	switch RuleType(rule.Type) {
	case RuleTypePair:
		return validatePairRule(rule)
	case RuleTypePresence:
		return validatePresenceRule(rule)
	default:
		return fmt.Errorf("invalid type %q (must be pair or presence)", rule.Type)
	}
}

func validatePairRule(rule *RuleConfig) error {
	if rule.Opening == "" {
		return errors.New("opening is required for pair rules")
	}
	if rule.Closing == "" {
		return errors.New("closing is required for pair rules")
	}
	if rule.Opening == rule.Closing {
		return errors.New("opening and closing must differ")
	}
	if rule.MinOccurrences != 0 {
		return errors.New("min_occurrences is only valid for presence rules")
	}
	return nil
}

func validatePresenceRule(rule *RuleConfig) error {
	if rule.Opening != "" || rule.Closing != "" {
		return errors.New("opening and closing are only valid for pair rules")
	}
	if rule.MinOccurrences < 0 {
		return errors.New("min_occurrences must not be negative")
	}
	if rule.MinOccurrences == 0 {
		rule.MinOccurrences = DefaultMinOccurrences
	}
	return nil
}

// ErrInvalidWebhook wraps every webhook validation failure.
var ErrInvalidWebhook = errors.New("invalid webhook")

// ValidateWebhook checks wh and fills its defaults: the token is expanded
// from the environment, the trigger defaults to on_issues and the timeout
// to DefaultWebhookTimeout. Errors wrap ErrInvalidWebhook.
func ValidateWebhook(wh *WebhookConfig) error {
	if err := validateWebhook(wh); err != nil {
		return fmt.Errorf("%w: %w", ErrInvalidWebhook, err)
	}
	return nil
}

func validateWebhook(wh *WebhookConfig) error {
	if wh.URL == "" {
		return errors.New("url is required")
	}

	u, err := url.Parse(wh.URL)
	if err != nil {
		return fmt.Errorf("invalid url: %w", err)
	}

	if u.Scheme != "http" && u.Scheme != "https" {
		return fmt.Errorf("url scheme must be http or https, got %q", u.Scheme)
	}

	if u.Host == "" {
		return errors.New("url must have a host")
	}

	wh.Token = expandEnvVar(wh.Token)

	switch wh.Trigger {
	case "":
		wh.Trigger = WebhookTriggerOnIssues
	case WebhookTriggerOnIssues, WebhookTriggerAlways, WebhookTriggerNever:
	default:
		return fmt.Errorf("invalid trigger %q (must be on_issues, always, or never)", wh.Trigger)
	}

	if wh.Timeout <= 0 {
		wh.Timeout = DefaultWebhookTimeout
	}

	return nil
}

// expandEnvVar expands a token written as ${VAR} or $VAR.
func expandEnvVar(s string) string {
	if strings.HasPrefix(s, "${") && strings.HasSuffix(s, "}") {
		return os.Getenv(s[2 : len(s)-1])
	}
	if strings.HasPrefix(s, "$") {
		return os.Getenv(s[1:])
	}
	return s
}
