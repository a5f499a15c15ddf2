package config

import (
	"os"
	"strings"
	"time"
)

// Default values for configuration.
const (
	DefaultMinOccurrences = 1
	DefaultWebhookTimeout = 10 * time.Second
)

// Environment variable names.
const (
	EnvLogSources    = "BOXLOG_LOG_SOURCES"
	EnvMessageFilter = "BOXLOG_MESSAGE_FILTER"
	EnvModuleFilter  = "BOXLOG_MODULE_FILTER"
)

// DefaultConfig returns a configuration with sensible defaults.
func DefaultConfig() *Config {
	return &Config{
		LogSources: []string{},
		Rules:      []RuleConfig{},
	}
}

// applyEnvironmentOverrides applies environment variable overrides to the config.
func (c *Config) applyEnvironmentOverrides() {
	if sources := os.Getenv(EnvLogSources); sources != "" {
		c.LogSources = splitList(sources)
	}
	if msg := os.Getenv(EnvMessageFilter); msg != "" {
		c.Filters.Message = msg
	}
	if mod := os.Getenv(EnvModuleFilter); mod != "" {
		c.Filters.Module = mod
	}
}

func splitList(s string) []string {
	var out []string
	for _, part := range strings.Split(s, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}
