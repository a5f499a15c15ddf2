package commands

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/ccollicutt/boxlog/pkg/config"
	"github.com/ccollicutt/boxlog/pkg/entry"
	"github.com/ccollicutt/boxlog/pkg/output"
	"github.com/ccollicutt/boxlog/pkg/parser"
	"github.com/ccollicutt/boxlog/pkg/query"
)

// ParseOptions holds command-line options for the parse command.
type ParseOptions struct {
	ConfigFile string
	Schema     []string
	Message    string
	Module     string
	Match      []string
	Require    []string
	Output     string
	Verbose    bool
	NoColor    bool
}

// NewParseCommand creates the parse command.
func NewParseCommand() *cobra.Command {
	opts := &ParseOptions{}

	cmd := &cobra.Command{
		Use:   "parse [log-file...]",
		Short: "Parse logs and print matching entries",
		Long: `Parse log files into entries and print those matching the query.

Schema fields are declared as name=type (integer, float, boolean, text,
duration). A boxed entry is kept only if every declared field is present
and parses as its type.

Queries:
  --match name=value   keep entries whose field equals value (repeatable)
  --require name       keep entries that carry the field (repeatable)

Log files default to the config's log_sources when --config is given.

Exit codes:
  0 - At least one entry matched
  1 - No entries matched
  2 - Configuration or runtime error`,
		Example: `  boxlog parse app.log --schema id=integer --match id=7
  boxlog parse --config boxlog.yaml --module Ledger -o json`,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runParse(cmd, args, opts)
		},
	}

	cmd.Flags().StringVarP(&opts.ConfigFile, "config", "c", "", "Config file supplying schema, filters and log sources")
	cmd.Flags().StringSliceVar(&opts.Schema, "schema", nil, "Schema field as name=type (can be repeated)")
	cmd.Flags().StringVar(&opts.Message, "message", "", "Keep entries whose message contains this text")
	cmd.Flags().StringVar(&opts.Module, "module", "", "Keep boxed entries whose footer module contains this text")
	cmd.Flags().StringArrayVar(&opts.Match, "match", nil, "Field constraint as name=value (can be repeated)")
	cmd.Flags().StringSliceVar(&opts.Require, "require", nil, "Field every entry must carry (can be repeated)")
	cmd.Flags().StringVarP(&opts.Output, "output", "o", "text", "Output format (text|json)")
	cmd.Flags().BoolVarP(&opts.Verbose, "verbose", "v", false, "Show where each entry was read from")
	cmd.Flags().BoolVar(&opts.NoColor, "no-color", false, "Disable colored levels")

	return cmd
}

func runParse(cmd *cobra.Command, args []string, opts *ParseOptions) error {
	ctx := contextOf(cmd.Context())
	logger := LoggerFrom(ctx)

	parseOpts, patterns, err := buildParseOptions(cmd, args, opts)
	if err != nil {
		return err
	}
	parseOpts.Logger = logger

	constraints, err := query.ParseConstraints(opts.Match, parseOpts.Schema)
	if err != nil {
		return fmt.Errorf("invalid --match: %w", err)
	}

	formatter, err := output.NewEntryFormatter(opts.Output, output.FormatOptions{
		Verbose: opts.Verbose,
		NoColor: opts.NoColor,
	})
	if err != nil {
		return err
	}

	files, err := parser.ExpandGlobs(patterns)
	if err != nil {
		return fmt.Errorf("expanding log sources: %w", err)
	}
	if len(files) == 0 {
		return fmt.Errorf("no log files matched patterns: %v", patterns)
	}

	parsed, err := parser.ParseFiles(ctx, files, parseOpts)
	if err != nil {
		return fmt.Errorf("parsing logs: %w", err)
	}

	entries := query.FindMatching(parsed.Entries, constraints)
	if len(opts.Require) > 0 {
		entries = query.Refine(entries, opts.Require)
	}

	logger.Info("parsed log sources",
		zap.Int("files", len(files)),
		zap.Int("lines", parsed.Stats.Lines),
		zap.Int("entries", parsed.Stats.Entries),
		zap.Int("rejected", parsed.Stats.TotalRejected()),
		zap.Int("matched", len(entries)))

	if err := formatter.FormatEntries(ctx, entries, cmd.OutOrStdout()); err != nil {
		return fmt.Errorf("formatting output: %w", err)
	}

	if len(entries) == 0 {
		ExitCode = 1
	}
	return nil
}

// buildParseOptions layers flags over the optional config file and returns
// the parser options plus the log source patterns to read.
func buildParseOptions(cmd *cobra.Command, args []string, opts *ParseOptions) (parser.Options, []string, error) {
	var parseOpts parser.Options
	var patterns []string

	if opts.ConfigFile != "" {
		cfg, err := config.Load(contextOf(cmd.Context()), opts.ConfigFile)
		if err != nil {
			return parser.Options{}, nil, fmt.Errorf("loading config: %w", err)
		}
		parseOpts = cfg.ParserOptions()
		patterns = cfg.LogSources
	}

	if len(args) > 0 {
		patterns = args
	}
	if len(patterns) == 0 {
		return parser.Options{}, nil, fmt.Errorf("no log files given (pass files or --config)")
	}

	if len(opts.Schema) > 0 {
		schema, err := parseSchemaFlags(parseOpts.Schema, opts.Schema)
		if err != nil {
			return parser.Options{}, nil, err
		}
		parseOpts.Schema = schema
	}

	if cmd.Flags().Changed("message") {
		parseOpts.Filter.Message = opts.Message
	}
	if cmd.Flags().Changed("module") {
		parseOpts.Filter.Module = opts.Module
	}

	return parseOpts, patterns, nil
}

// parseSchemaFlags appends name=type declarations to base. A name already in
// base has its type replaced.
func parseSchemaFlags(base entry.Schema, decls []string) (entry.Schema, error) {
	schema := make(entry.Schema, len(base), len(base)+len(decls))
	copy(schema, base)

	for _, decl := range decls {
		name, typ, ok := strings.Cut(decl, "=")
		name = strings.TrimSpace(name)
		if !ok || name == "" {
			return nil, fmt.Errorf("invalid --schema %q (want name=type)", decl)
		}
		ft, err := entry.ParseFieldType(typ)
		if err != nil {
			return nil, fmt.Errorf("invalid --schema %q: %w", decl, err)
		}

		replaced := false
		for i := range schema {
			if schema[i].Name == name {
				schema[i].Type = ft
				replaced = true
			}
		}
		if !replaced {
			schema = append(schema, entry.SchemaField{Name: name, Type: ft})
		}
	}

	if err := schema.Validate(); err != nil {
		return nil, fmt.Errorf("invalid schema: %w", err)
	}
	return schema, nil
}
