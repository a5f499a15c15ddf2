package commands

import (
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/ccollicutt/boxlog/pkg/config"
	"github.com/ccollicutt/boxlog/pkg/parser"
)

// NewValidateCommand creates the validate command.
func NewValidateCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "validate <config-file>",
		Short: "Validate a configuration file",
		Long: `Validate a boxlog configuration file without running analysis.

Checks:
  - YAML syntax
  - Required fields
  - Schema field types
  - Match values parse as their field types
  - Rule type-specific requirements
  - Log source file existence (warning only)`,
		Args: cobra.ExactArgs(1),
		RunE: runValidate,
	}
}

func runValidate(cmd *cobra.Command, args []string) error {
	configPath := args[0]
	ctx := contextOf(cmd.Context())
	w := cmd.OutOrStdout()

	fmt.Fprintf(w, "Validating %s...\n", configPath)

	cfg, err := config.Load(ctx, configPath)
	if err != nil {
		return fmt.Errorf("validation failed: %w", err)
	}

	fmt.Fprintf(w, "\nConfiguration valid!\n")
	fmt.Fprintf(w, "  Log sources: %d pattern(s)\n", len(cfg.LogSources))
	fmt.Fprintf(w, "  Schema:      %d field(s)\n", len(cfg.Schema))
	fmt.Fprintf(w, "  Rules:       %d\n", len(cfg.Rules))

	if len(cfg.Schema) > 0 {
		fmt.Fprintf(w, "\nSchema:\n")
		for _, f := range cfg.Schema {
			fmt.Fprintf(w, "  %s: %s\n", f.Name, f.Type)
		}
	}

	if cfg.Filters.Message != "" || cfg.Filters.Module != "" {
		fmt.Fprintf(w, "\nFilters:\n")
		if cfg.Filters.Message != "" {
			fmt.Fprintf(w, "  message contains %q\n", cfg.Filters.Message)
		}
		if cfg.Filters.Module != "" {
			fmt.Fprintf(w, "  module contains %q\n", cfg.Filters.Module)
		}
	}

	if len(cfg.Rules) > 0 {
		fmt.Fprintf(w, "\nRules:\n")
		for i, rule := range cfg.Rules {
			fmt.Fprintf(w, "  %d. [%s] %s\n", i+1, rule.Type, rule.Name)
			if rule.Description != "" {
				fmt.Fprintf(w, "     %s\n", rule.Description)
			}
			if len(rule.Require) > 0 {
				fmt.Fprintf(w, "     requires: %s\n", strings.Join(rule.Require, ", "))
			}
		}
	}

	// Missing log files are warnings only
	files, err := parser.ExpandGlobs(cfg.LogSources)
	if err != nil {
		fmt.Fprintf(w, "\nWarning: Error expanding log source patterns: %v\n", err)
		return nil
	}

	var found []string
	for _, f := range files {
		if fileExists(f) {
			found = append(found, f)
		}
	}
	if len(found) == 0 {
		fmt.Fprintf(w, "\nWarning: No files match log source patterns\n")
		return nil
	}

	fmt.Fprintf(w, "\nLog files matched: %d\n", len(found))
	for _, f := range found {
		fmt.Fprintf(w, "  - %s\n", f)
	}

	return nil
}

func fileExists(path string) bool {
	info, err := os.Stat(path)
	return err == nil && !info.IsDir()
}
