package commands

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/ccollicutt/boxlog/pkg/detector"
	"github.com/ccollicutt/boxlog/pkg/entry"
)

// DetectOptions holds command-line options for the detect command.
type DetectOptions struct {
	Output      string
	SampleSize  int
	WriteConfig string
}

// NewDetectCommand creates the detect command.
func NewDetectCommand() *cobra.Command {
	opts := &DetectOptions{}

	cmd := &cobra.Command{
		Use:   "detect <log-file>",
		Short: "Detect entry layout and body fields in a log file",
		Long: `Sample a log file to recognise boxed and [Level: message] entries.

Reports how many lines segment into each layout, which levels appear, and
the body fields of boxed entries with an inferred type for each. Fields
present in every boxed entry are proposed as a schema.

Optionally generates a starter config file with --write-config.

Example:
  boxlog detect /var/log/myapp.log
  boxlog detect --sample 500 /var/log/large.log
  boxlog detect -w boxlog.yaml /var/log/app.log`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runDetect(cmd, args, opts)
		},
	}

	cmd.Flags().StringVarP(&opts.Output, "output", "o", "text", "Output format (text|json)")
	cmd.Flags().IntVarP(&opts.SampleSize, "sample", "n", 1000, "Number of lines to sample")
	cmd.Flags().StringVarP(&opts.WriteConfig, "write-config", "w", "", "Write starter config to file (will not overwrite)")

	return cmd
}

func runDetect(cmd *cobra.Command, args []string, opts *DetectOptions) error {
	logFile := args[0]
	ctx := contextOf(cmd.Context())
	out := cmd.OutOrStdout()

	if _, err := os.Stat(logFile); os.IsNotExist(err) {
		return fmt.Errorf("log file not found: %s", logFile)
	}

	d := detector.New(detector.WithSampleSize(opts.SampleSize))

	result, err := d.DetectFromFile(ctx, logFile)
	if err != nil {
		return fmt.Errorf("detection failed: %w", err)
	}

	if opts.WriteConfig != "" {
		if err := writeStarterConfig(result, logFile, opts.WriteConfig); err != nil {
			return err
		}
		fmt.Fprintf(cmd.ErrOrStderr(), "Wrote starter config to: %s\n", opts.WriteConfig)
	}

	switch opts.Output {
	case "json":
		return outputDetectJSON(out, result, logFile)
	case "text", "":
		return outputDetectText(out, result, logFile)
	default:
		return fmt.Errorf("unknown output format %q (must be text or json)", opts.Output)
	}
}

func outputDetectText(w io.Writer, result *detector.DetectionResult, logFile string) error {
	fmt.Fprintln(w, "=== Log Layout Detection ===")
	fmt.Fprintln(w)
	fmt.Fprintf(w, "File: %s\n", logFile)
	fmt.Fprintf(w, "Lines sampled: %d\n", result.SampledLines)
	fmt.Fprintf(w, "Blocks: %d\n", result.Blocks)
	fmt.Fprintln(w)

	if !result.HasMatch() {
		fmt.Fprintln(w, "No boxed or [Level: message] entries detected.")
		fmt.Fprintln(w)
		fmt.Fprintln(w, "Tip: boxed entries start with '┌ Level: message' and end with '└ @ Module file:line'.")
		return nil
	}

	fmt.Fprintf(w, "Layout: %s\n", result.Layout())
	fmt.Fprintf(w, "  Boxed entries:       %d (%d with footer)\n", result.Structured, result.Footers)
	fmt.Fprintf(w, "  Single-line entries: %d\n", result.Single)
	if result.Unrecognized > 0 {
		fmt.Fprintf(w, "  Unrecognized blocks: %d (these are dropped)\n", result.Unrecognized)
	}
	fmt.Fprintln(w)

	if len(result.Levels) > 0 {
		fmt.Fprintln(w, "Levels:")
		for _, level := range sortedLevels(result.Levels) {
			fmt.Fprintf(w, "  %-8s %d\n", level, result.Levels[level])
		}
		fmt.Fprintln(w)
	}

	if len(result.Fields) > 0 {
		fmt.Fprintln(w, "Body fields:")
		for _, f := range result.Fields {
			fmt.Fprintf(w, "  %-16s %-9s %5.1f%%  e.g. %s\n",
				f.Name, f.Type, f.Coverage*100, f.SampleValue)
		}
		fmt.Fprintln(w)
	}

	schema := result.SuggestedSchema()
	if !schema.IsEmpty() {
		snippet, err := yaml.Marshal(struct {
			Schema entry.Schema `yaml:"schema"`
		}{schema})
		if err != nil {
			return fmt.Errorf("rendering schema: %w", err)
		}
		fmt.Fprintln(w, "--- Configuration snippet (copy to your config file) ---")
		fmt.Fprintln(w)
		fmt.Fprint(w, string(snippet))
		fmt.Fprintln(w)
	}

	return nil
}

func sortedLevels(levels map[string]int) []string {
	names := make([]string, 0, len(levels))
	for name := range levels {
		names = append(names, name)
	}
	sort.Slice(names, func(i, j int) bool {
		if levels[names[i]] != levels[names[j]] {
			return levels[names[i]] > levels[names[j]]
		}
		return names[i] < names[j]
	})
	return names
}

// JSONField represents a body field in JSON output.
type JSONField struct {
	Name        string          `json:"name"`
	Type        entry.FieldType `json:"type"`
	Occurrences int             `json:"occurrences"`
	Coverage    float64         `json:"coverage"`
	SampleValue string          `json:"sample_value"`
}

// JSONOutput represents the full JSON output.
type JSONOutput struct {
	File         string            `json:"file"`
	Layout       detector.Layout   `json:"layout"`
	SampledLines int               `json:"sampled_lines"`
	Blocks       int               `json:"blocks"`
	Structured   int               `json:"structured"`
	Single       int               `json:"single"`
	Unrecognized int               `json:"unrecognized"`
	Footers      int               `json:"footers"`
	Levels       map[string]int    `json:"levels"`
	Fields       []JSONField       `json:"fields"`
	Schema       map[string]string `json:"suggested_schema"`
}

func outputDetectJSON(w io.Writer, result *detector.DetectionResult, logFile string) error {
	out := JSONOutput{
		File:         logFile,
		Layout:       result.Layout(),
		SampledLines: result.SampledLines,
		Blocks:       result.Blocks,
		Structured:   result.Structured,
		Single:       result.Single,
		Unrecognized: result.Unrecognized,
		Footers:      result.Footers,
		Levels:       result.Levels,
		Fields:       make([]JSONField, 0, len(result.Fields)),
		Schema:       make(map[string]string),
	}
	if out.Levels == nil {
		out.Levels = map[string]int{}
	}

	for _, f := range result.Fields {
		out.Fields = append(out.Fields, JSONField{
			Name:        f.Name,
			Type:        f.Type,
			Occurrences: f.Occurrences,
			Coverage:    f.Coverage,
			SampleValue: f.SampleValue,
		})
	}
	for _, f := range result.SuggestedSchema() {
		out.Schema[f.Name] = string(f.Type)
	}

	encoder := json.NewEncoder(w)
	encoder.SetIndent("", "  ")
	return encoder.Encode(out)
}

// writeStarterConfig generates a starter config file from the detection.
func writeStarterConfig(result *detector.DetectionResult, logFile, configPath string) error {
	if _, err := os.Stat(configPath); err == nil {
		return fmt.Errorf("config file already exists: %s (will not overwrite)", configPath)
	}

	if !result.HasMatch() {
		return fmt.Errorf("cannot generate config: no entries detected")
	}

	content, err := generateStarterConfig(logFile, result)
	if err != nil {
		return err
	}

	// #nosec G306 - config file doesn't need restrictive permissions
	if err := os.WriteFile(configPath, []byte(content), 0644); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}
	return nil
}

// starterHeader is the generated part of a starter config.
type starterHeader struct {
	LogSources []string     `yaml:"log_sources"`
	Schema     entry.Schema `yaml:"schema,omitempty"`
}

// generateStarterConfig creates a YAML config template. The example rules
// are commented out so the file validates as written.
func generateStarterConfig(logFile string, result *detector.DetectionResult) (string, error) {
	absLogFile := logFile
	if abs, err := filepath.Abs(logFile); err == nil {
		absLogFile = abs
	}

	header, err := yaml.Marshal(starterHeader{
		LogSources: []string{absLogFile},
		Schema:     result.SuggestedSchema(),
	})
	if err != nil {
		return "", fmt.Errorf("rendering config: %w", err)
	}

	keyHint := "id"
	if names := result.SuggestedSchema().Names(); len(names) > 0 {
		keyHint = strings.Join(names, ", ")
	}

	var b strings.Builder
	fmt.Fprintf(&b, "# boxlog configuration\n")
	fmt.Fprintf(&b, "# Generated by: boxlog detect\n")
	fmt.Fprintf(&b, "# Detected layout: %s (%d boxed, %d single-line)\n\n",
		result.Layout(), result.Structured, result.Single)
	b.Write(header)
	fmt.Fprintf(&b, `
# filters:
#   message: ""   # keep entries whose message contains this text
#   module: ""    # keep boxed entries whose footer module contains this text

rules: []
# Replace [] above with your rules, for example:
#
# rules:
#   # Every opening entry needs a closing entry in the same correlation
#   # group (same %s values)
#   - name: unclosed-requests
#     type: pair
#     description: "Requests opened but never closed"
#     opening: "request start"
#     closing: "request end"
#     require: [id]
#
#   # At least N matching entries must be present
#   - name: heartbeat
#     type: presence
#     match:
#       message: heartbeat
#     min_occurrences: 10
`, keyHint)

	return b.String(), nil
}
