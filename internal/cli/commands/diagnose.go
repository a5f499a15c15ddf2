package commands

import (
	"context"
	"fmt"
	"io"
	"net/url"
	"os"
	"sort"
	"strings"
	"time"

	"github.com/bmatcuk/doublestar/v4"
	"github.com/spf13/cobra"

	"github.com/ccollicutt/boxlog/pkg/config"
	"github.com/ccollicutt/boxlog/pkg/detector"
	"github.com/ccollicutt/boxlog/pkg/entry"
	"github.com/ccollicutt/boxlog/pkg/parser"
	"github.com/ccollicutt/boxlog/pkg/webhook"
)

// probeTimeout bounds the verbose webhook reachability check.
const probeTimeout = 5 * time.Second

// DiagnoseOptions holds options for the diagnose command
type DiagnoseOptions struct {
	Verbose bool
}

// DiagnosticResult represents the result of a single diagnostic check
type DiagnosticResult struct {
	Check    string
	Status   string // "ok", "warning", "error"
	Message  string
	Details  []string
	Suggests []string
}

// NewDiagnoseCommand creates the diagnose command
func NewDiagnoseCommand() *cobra.Command {
	opts := &DiagnoseOptions{}

	cmd := &cobra.Command{
		Use:   "diagnose <config-file>",
		Short: "Diagnose common configuration issues",
		Long: `Diagnose common configuration issues.

This command checks your configuration file for common problems:
- Config file syntax and structure
- Log source file existence and accessibility
- Schema and filters against actual logs (how many entries survive)
- Rule fields that no entry can carry
- Webhook settings

Example:
  boxlog diagnose config.yaml
  boxlog diagnose -v config.yaml  # verbose output`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runDiagnose(contextOf(cmd.Context()), cmd.OutOrStdout(), args[0], opts)
		},
	}

	cmd.Flags().BoolVarP(&opts.Verbose, "verbose", "v", false, "Show detailed diagnostic output")

	return cmd
}

func runDiagnose(ctx context.Context, w io.Writer, configPath string, opts *DiagnoseOptions) error {
	results := []DiagnosticResult{}

	result := checkConfigExists(configPath)
	results = append(results, result)
	if result.Status == "error" {
		printDiagnostics(w, results, opts)
		return nil
	}

	cfg, result := checkConfigParseable(ctx, configPath)
	results = append(results, result)
	if result.Status == "error" {
		printDiagnostics(w, results, opts)
		return nil
	}

	results = append(results, checkLogSources(cfg)...)
	results = append(results, checkSchemaFit(ctx, cfg, opts)...)
	results = append(results, checkRules(cfg)...)
	results = append(results, checkWebhooks(ctx, cfg, opts)...)

	printDiagnostics(w, results, opts)
	return nil
}

func checkConfigExists(path string) DiagnosticResult {
	result := DiagnosticResult{
		Check: "Config File",
	}

	info, err := os.Stat(path)
	if os.IsNotExist(err) {
		result.Status = "error"
		result.Message = fmt.Sprintf("Config file not found: %s", path)
		result.Suggests = []string{
			"Check the file path is correct",
			"Use 'boxlog detect <log-file> --write-config config.yaml' to generate a starter config",
		}
		return result
	}
	if err != nil {
		result.Status = "error"
		result.Message = fmt.Sprintf("Cannot access config file: %v", err)
		result.Suggests = []string{"Check file permissions"}
		return result
	}
	if info.IsDir() {
		result.Status = "error"
		result.Message = "Path is a directory, not a file"
		return result
	}
	if info.Size() == 0 {
		result.Status = "error"
		result.Message = "Config file is empty"
		result.Suggests = []string{
			"Use 'boxlog detect <log-file> --write-config config.yaml' to generate a starter config",
		}
		return result
	}

	result.Status = "ok"
	result.Message = fmt.Sprintf("Found: %s (%d bytes)", path, info.Size())
	return result
}

func checkConfigParseable(ctx context.Context, path string) (*config.Config, DiagnosticResult) {
	result := DiagnosticResult{
		Check: "Config Syntax",
	}

	cfg, err := config.Load(ctx, path)
	if err != nil {
		result.Status = "error"
		result.Message = fmt.Sprintf("Failed to parse config: %v", err)
		if strings.Contains(err.Error(), "yaml") {
			result.Suggests = []string{
				"Check YAML syntax - ensure proper indentation (use spaces, not tabs)",
			}
		}
		return nil, result
	}

	result.Status = "ok"
	result.Message = "Config file parsed successfully"
	result.Details = []string{
		fmt.Sprintf("Log sources: %d", len(cfg.LogSources)),
		fmt.Sprintf("Schema fields: %d", len(cfg.Schema)),
		fmt.Sprintf("Rules: %d", len(cfg.Rules)),
	}
	return cfg, result
}

func checkLogSources(cfg *config.Config) []DiagnosticResult {
	results := []DiagnosticResult{}

	totalFiles := 0
	for _, source := range cfg.LogSources {
		result := DiagnosticResult{
			Check: fmt.Sprintf("Log Source: %s", source),
		}

		if pattern, ok := strings.CutPrefix(source, "!"); ok {
			if doublestar.ValidatePathPattern(pattern) {
				result.Status = "ok"
				result.Message = "Excludes matching files from the other sources"
			} else {
				result.Status = "error"
				result.Message = "Invalid exclude pattern"
			}
		} else if strings.ContainsAny(source, "*?[{") {
			matches, err := doublestar.FilepathGlob(source, doublestar.WithFilesOnly())
			if err != nil {
				result.Status = "error"
				result.Message = fmt.Sprintf("Invalid glob pattern: %v", err)
			} else if len(matches) == 0 {
				result.Status = "warning"
				result.Message = "Glob pattern matches no files"
				result.Suggests = []string{
					"Check if the log files exist at this path",
					"Verify the glob pattern syntax",
				}
			} else {
				result.Status = "ok"
				result.Message = fmt.Sprintf("Matches %d file(s)", len(matches))
				result.Details = append(result.Details, matches...)
				totalFiles += len(matches)
			}
		} else {
			info, err := os.Stat(source)
			if os.IsNotExist(err) {
				result.Status = "error"
				result.Message = "File does not exist"
				result.Suggests = []string{
					"Check if the log file path is correct",
				}
			} else if err != nil {
				result.Status = "error"
				result.Message = fmt.Sprintf("Cannot access file: %v", err)
				result.Suggests = []string{"Check file permissions"}
			} else if info.IsDir() {
				result.Status = "error"
				result.Message = "Path is a directory, not a file"
				result.Suggests = []string{
					"Use a glob pattern to match files in directory",
					"Example: /var/log/app/**/*.log",
				}
			} else if info.Size() == 0 {
				result.Status = "warning"
				result.Message = "File is empty (0 bytes)"
			} else {
				result.Status = "ok"
				result.Message = fmt.Sprintf("File exists (%d bytes)", info.Size())
				totalFiles++
			}
		}
		results = append(results, result)
	}

	if totalFiles == 0 {
		results = append(results, DiagnosticResult{
			Check:   "Log Files Summary",
			Status:  "error",
			Message: "No accessible log files found",
			Suggests: []string{
				"Ensure at least one log file exists and is readable",
			},
		})
	}

	return results
}

// firstLogFile returns the first regular file the log sources resolve to.
func firstLogFile(cfg *config.Config) string {
	files, err := parser.ExpandGlobs(cfg.LogSources)
	if err != nil {
		return ""
	}
	for _, f := range files {
		if info, err := os.Stat(f); err == nil && info.Mode().IsRegular() {
			return f
		}
	}
	return ""
}

// checkSchemaFit parses the first log file with the configured schema and
// filters and reports how many blocks survive, and why the rest did not.
func checkSchemaFit(ctx context.Context, cfg *config.Config, opts *DiagnoseOptions) []DiagnosticResult {
	logFile := firstLogFile(cfg)
	if logFile == "" {
		return nil
	}

	result := DiagnosticResult{
		Check: fmt.Sprintf("Schema Fit: %s", logFile),
	}

	parsed, err := parser.ParseFiles(ctx, []string{logFile}, cfg.ParserOptions())
	if err != nil {
		result.Status = "warning"
		result.Message = fmt.Sprintf("Cannot read file: %v", err)
		return []DiagnosticResult{result}
	}

	stats := parsed.Stats
	rejected := stats.TotalRejected()
	reasons := make([]string, 0, len(stats.Rejected))
	for reason, n := range stats.Rejected {
		reasons = append(reasons, fmt.Sprintf("%s: %d", reason, n))
	}
	sort.Strings(reasons)

	switch {
	case stats.Entries == 0:
		result.Status = "error"
		result.Message = fmt.Sprintf("No entries survive parsing (%d blocks rejected)", rejected)
		result.Details = reasons
	case rejected > stats.Entries:
		result.Status = "warning"
		result.Message = fmt.Sprintf("%d entries parsed, %d blocks rejected", stats.Entries, rejected)
		result.Details = reasons
	default:
		result.Status = "ok"
		result.Message = fmt.Sprintf("%d entries parsed, %d blocks rejected", stats.Entries, rejected)
		if opts.Verbose {
			result.Details = reasons
		}
	}

	schemaRejected := stats.Rejected[parser.ReasonMissingField] + stats.Rejected[parser.ReasonInvalidValue]
	if result.Status != "ok" && schemaRejected > 0 {
		result.Suggests = append(result.Suggests, schemaSuggestions(ctx, logFile, cfg.Schema)...)
	}
	if result.Status != "ok" && stats.Rejected[parser.ReasonModuleFilter]+stats.Rejected[parser.ReasonMessageFilter] > 0 {
		result.Suggests = append(result.Suggests, "Filters drop entries; check filters.message and filters.module")
	}

	return []DiagnosticResult{result}
}

// schemaSuggestions compares the configured schema to the detected fields.
func schemaSuggestions(ctx context.Context, logFile string, schema entry.Schema) []string {
	detected, err := detector.New().DetectFromFile(ctx, logFile)
	if err != nil {
		return nil
	}

	byName := make(map[string]detector.FieldMatch, len(detected.Fields))
	for _, f := range detected.Fields {
		byName[f.Name] = f
	}

	var suggests []string
	for _, f := range schema {
		found, ok := byName[f.Name]
		switch {
		case !ok:
			suggests = append(suggests, fmt.Sprintf("Field %q never appears in boxed entries", f.Name))
		case found.Coverage < 1:
			suggests = append(suggests, fmt.Sprintf("Field %q is missing from %.0f%% of boxed entries",
				f.Name, (1-found.Coverage)*100))
		case found.Type != f.Type && f.Type != entry.TypeText:
			suggests = append(suggests, fmt.Sprintf("Field %q is declared %s but looks like %s",
				f.Name, f.Type, found.Type))
		}
	}
	suggests = append(suggests, "Use 'boxlog detect "+logFile+"' to see the fields present")
	return suggests
}

// knownField reports whether entries can carry the named attribute.
func knownField(schema entry.Schema, name string) bool {
	switch name {
	case entry.FieldLevel, entry.FieldMessage, entry.FieldModule, entry.FieldFile, entry.FieldLine:
		return true
	}
	_, ok := schema.Lookup(name)
	return ok
}

func checkRules(cfg *config.Config) []DiagnosticResult {
	results := []DiagnosticResult{}

	if len(cfg.Rules) == 0 {
		results = append(results, DiagnosticResult{
			Check:   "Rules",
			Status:  "warning",
			Message: "No detection rules defined",
			Suggests: []string{
				"Add pair or presence rules to run 'boxlog analyze'",
			},
		})
		return results
	}

	for _, rule := range cfg.Rules {
		result := DiagnosticResult{
			Check: fmt.Sprintf("Rule: %s", rule.Name),
		}

		warnings := []string{}

		fields := append([]string{}, rule.Require...)
		for name := range rule.Match {
			fields = append(fields, name)
		}
		sort.Strings(fields)
		for _, name := range fields {
			if !knownField(cfg.Schema, name) {
				warnings = append(warnings, fmt.Sprintf("Field %q is not in the schema, so no entry carries it", name))
			}
		}

		switch rule.RuleTypeEnum() {
		case config.RuleTypePair:
			if len(rule.Require) == 0 {
				warnings = append(warnings, "No require fields - single-line entries join the empty correlation group")
			}
		case config.RuleTypePresence:
			if len(rule.Match) == 0 && len(rule.Require) == 0 {
				warnings = append(warnings, "No match or require - every entry counts as an occurrence")
			}
		}

		if len(warnings) > 0 {
			result.Status = "warning"
			result.Message = fmt.Sprintf("%d warning(s)", len(warnings))
			result.Details = warnings
		} else {
			result.Status = "ok"
			result.Message = fmt.Sprintf("Type: %s", rule.Type)
		}

		results = append(results, result)
	}

	return results
}

func printDiagnostics(w io.Writer, results []DiagnosticResult, opts *DiagnoseOptions) {
	fmt.Fprintln(w, "=== boxlog Configuration Diagnostics ===")
	fmt.Fprintln(w)

	okCount := 0
	warnCount := 0
	errCount := 0

	for _, r := range results {
		var icon string
		switch r.Status {
		case "ok":
			icon = "PASS"
			okCount++
		case "warning":
			icon = "WARN"
			warnCount++
		case "error":
			icon = "FAIL"
			errCount++
		}

		fmt.Fprintf(w, "[%s] %s\n", icon, r.Check)
		fmt.Fprintf(w, "    %s\n", r.Message)

		if opts.Verbose || r.Status != "ok" {
			for _, d := range r.Details {
				fmt.Fprintf(w, "      - %s\n", d)
			}
		}

		for _, s := range r.Suggests {
			fmt.Fprintf(w, "      Hint: %s\n", s)
		}

		fmt.Fprintln(w)
	}

	fmt.Fprintln(w, "---")
	fmt.Fprintf(w, "Summary: %d passed, %d warnings, %d errors\n", okCount, warnCount, errCount)

	if errCount > 0 {
		fmt.Fprintln(w, "\nFix the errors above before running analysis.")
	} else if warnCount > 0 {
		fmt.Fprintln(w, "\nConfiguration is usable but has warnings.")
	} else {
		fmt.Fprintln(w, "\nConfiguration looks good!")
	}
}

func checkWebhooks(ctx context.Context, cfg *config.Config, opts *DiagnoseOptions) []DiagnosticResult {
	results := []DiagnosticResult{}

	if len(cfg.Webhooks) == 0 {
		// Webhooks are optional, just note they're not configured
		if opts.Verbose {
			results = append(results, DiagnosticResult{
				Check:   "Webhooks",
				Status:  "ok",
				Message: "No webhooks configured (optional)",
			})
		}
		return results
	}

	for _, wh := range cfg.Webhooks {
		name := wh.Name
		if name == "" {
			name = wh.URL
		}

		result := DiagnosticResult{
			Check: fmt.Sprintf("Webhook: %s", name),
		}

		issues := []string{}
		warnings := []string{}

		// Check URL
		if wh.URL == "" {
			issues = append(issues, "Missing url")
		} else {
			u, err := url.Parse(wh.URL)
			if err != nil {
				issues = append(issues, fmt.Sprintf("Invalid URL: %v", err))
			} else if u.Scheme != "http" && u.Scheme != "https" {
				issues = append(issues, fmt.Sprintf("URL scheme must be http or https, got %q", u.Scheme))
			} else if u.Host == "" {
				issues = append(issues, "URL must have a host")
			}
		}

		// Check trigger
		if wh.Trigger != "" {
			switch wh.Trigger {
			case config.WebhookTriggerOnIssues, config.WebhookTriggerAlways, config.WebhookTriggerNever:
				// Valid
			default:
				issues = append(issues, fmt.Sprintf("Invalid trigger %q (use on_issues, always, or never)", wh.Trigger))
			}
		}

		// An unset variable expands to itself
		if strings.HasPrefix(wh.Token, "${") || strings.HasPrefix(wh.Token, "$") {
			warnings = append(warnings, fmt.Sprintf("Token appears to be an unresolved env var: %s", wh.Token))
		}

		if len(issues) > 0 {
			result.Status = "error"
			result.Message = fmt.Sprintf("%d configuration issue(s)", len(issues))
			result.Details = issues
		} else if len(warnings) > 0 {
			result.Status = "warning"
			result.Message = fmt.Sprintf("%d warning(s)", len(warnings))
			result.Details = warnings
		} else {
			result.Status = "ok"
			result.Message = fmt.Sprintf("Trigger: %s", wh.Trigger)
			if opts.Verbose {
				result.Details = []string{
					fmt.Sprintf("URL: %s", wh.URL),
					fmt.Sprintf("Timeout: %s", wh.Timeout),
				}
				if wh.Token != "" {
					result.Details = append(result.Details, "Token: configured")
				}
			}
		}

		results = append(results, result)
	}

	// Optionally test webhook connectivity
	if opts.Verbose {
		for _, wh := range cfg.Webhooks {
			if wh.URL == "" {
				continue
			}

			name := wh.Name
			if name == "" {
				name = wh.URL
			}

			result := checkWebhookConnectivity(ctx, wh)
			result.Check = fmt.Sprintf("Webhook Connectivity: %s", name)
			results = append(results, result)
		}
	}

	return results
}

func checkWebhookConnectivity(ctx context.Context, wh config.WebhookConfig) DiagnosticResult {
	result := DiagnosticResult{}

	status, err := webhook.NewClient().Probe(ctx, wh.URL, wh.Token, probeTimeout)
	switch {
	case err != nil:
		result.Status = "warning"
		result.Message = fmt.Sprintf("Cannot connect: %v", err)
		result.Suggests = []string{
			"Check if the webhook URL is correct",
			"Verify network connectivity",
		}
	case status < 400:
		result.Status = "ok"
		result.Message = fmt.Sprintf("Reachable (status %d)", status)
	default:
		result.Status = "warning"
		result.Message = fmt.Sprintf("Reachable but returned status %d", status)
		result.Suggests = []string{
			"The endpoint may only accept POST; delivery can still succeed",
			"Check authentication if using a token",
		}
	}

	return result
}
