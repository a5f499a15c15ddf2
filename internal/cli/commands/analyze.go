package commands

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/ccollicutt/boxlog/pkg/analyzer"
	"github.com/ccollicutt/boxlog/pkg/config"
	"github.com/ccollicutt/boxlog/pkg/output"
	"github.com/ccollicutt/boxlog/pkg/parser"
	"github.com/ccollicutt/boxlog/pkg/webhook"
)

// Server errors and dropped connections are retried this many times.
const (
	webhookRetries = 2
	webhookBackoff = 250 * time.Millisecond
)

// ExitCode is set by commands to indicate the result
var ExitCode = 0

// AnalyzeOptions holds command-line options for the analyze command.
type AnalyzeOptions struct {
	Output  string
	Rules   []string
	Verbose bool
	Quiet   bool

	// Webhook options
	WebhookURL     string
	WebhookToken   string
	WebhookTrigger string
}

// NewAnalyzeCommand creates the analyze command.
func NewAnalyzeCommand() *cobra.Command {
	opts := &AnalyzeOptions{}

	cmd := &cobra.Command{
		Use:   "analyze <config-file>",
		Short: "Check logs for uncorrelated entries",
		Long: `Parse the configured log sources and run every rule against the entries.

Rules:
  - pair      an opening entry without its closing entry, or the reverse,
              within a correlation group (same key values)
  - presence  fewer matching entries than required

Exit codes:
  0 - No issues detected
  1 - Issues detected
  2 - Configuration or runtime error`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runAnalyze(cmd, args, opts)
		},
	}

	cmd.Flags().StringVarP(&opts.Output, "output", "o", "text", "Output format (text|json)")
	cmd.Flags().StringSliceVar(&opts.Rules, "rule", nil, "Run specific rule(s) only (can be repeated)")
	cmd.Flags().BoolVarP(&opts.Verbose, "verbose", "v", false, "Show sources, parse counts and issue locations")
	cmd.Flags().BoolVarP(&opts.Quiet, "quiet", "q", false, "Summary only, no details")

	cmd.Flags().StringVar(&opts.WebhookURL, "webhook-url", "", "Webhook endpoint URL")
	cmd.Flags().StringVar(&opts.WebhookToken, "webhook-token", "", "Bearer token for webhook auth")
	cmd.Flags().StringVar(&opts.WebhookTrigger, "webhook-trigger", "on_issues", "When to fire webhook (on_issues|always|never)")

	return cmd
}

func runAnalyze(cmd *cobra.Command, args []string, opts *AnalyzeOptions) error {
	configPath := args[0]
	ctx := contextOf(cmd.Context())
	logger := LoggerFrom(ctx)

	cfg, err := config.Load(ctx, configPath)
	if err != nil {
		return fmt.Errorf("loading config: %w", err)
	}

	hooks, err := collectWebhooks(cfg, opts)
	if err != nil {
		return err
	}

	files, err := parser.ExpandGlobs(cfg.LogSources)
	if err != nil {
		return fmt.Errorf("expanding log sources: %w", err)
	}
	if len(files) == 0 {
		return fmt.Errorf("no log files matched patterns: %v", cfg.LogSources)
	}

	// Fail on a bad output format before doing any work.
	formatter, err := createFormatter(opts)
	if err != nil {
		return err
	}

	var analyzerOpts []analyzer.AnalyzerOption
	if len(opts.Rules) > 0 {
		analyzerOpts = append(analyzerOpts, analyzer.WithRuleFilter(opts.Rules))
	}
	analyzerOpts = append(analyzerOpts, analyzer.WithLogger(logger))

	a, err := analyzer.NewAnalyzer(cfg, analyzerOpts...)
	if err != nil {
		return fmt.Errorf("creating analyzer: %w", err)
	}

	parseOpts := cfg.ParserOptions()
	parseOpts.Logger = logger
	parsed, err := parser.ParseFiles(ctx, files, parseOpts)
	if err != nil {
		return fmt.Errorf("parsing logs: %w", err)
	}
	logger.Info("parsed log sources",
		zap.Int("files", len(files)),
		zap.Int("lines", parsed.Stats.Lines),
		zap.Int("entries", parsed.Stats.Entries),
		zap.Int("rejected", parsed.Stats.TotalRejected()))

	result, err := a.Analyze(ctx, parsed)
	if err != nil {
		return fmt.Errorf("analysis failed: %w", err)
	}

	report := output.NewReport(result, configPath)

	if err := formatter.Format(ctx, report, cmd.OutOrStdout()); err != nil {
		return fmt.Errorf("formatting output: %w", err)
	}

	// Webhook failures are logged but never fail the analysis.
	if len(hooks) > 0 {
		client := webhook.NewClient(webhook.WithRetries(webhookRetries, webhookBackoff))
		client.Dispatch(ctx, hooks, report, logger)
	}

	if report.HasIssues() {
		ExitCode = 1
	}

	return nil
}

func createFormatter(opts *AnalyzeOptions) (output.Formatter, error) {
	return output.NewFormatter(opts.Output, output.FormatOptions{
		Verbose: opts.Verbose,
		Quiet:   opts.Quiet,
	})
}

// collectWebhooks merges config file webhooks with the CLI webhook. The CLI
// webhook is validated the same way as one read from a config file.
func collectWebhooks(cfg *config.Config, opts *AnalyzeOptions) ([]config.WebhookConfig, error) {
	webhooks := make([]config.WebhookConfig, 0, len(cfg.Webhooks)+1)
	webhooks = append(webhooks, cfg.Webhooks...)

	if opts.WebhookURL != "" {
		hook := config.WebhookConfig{
			Name:    "cli",
			URL:     opts.WebhookURL,
			Token:   opts.WebhookToken,
			Trigger: config.WebhookTrigger(opts.WebhookTrigger),
		}
		if err := config.ValidateWebhook(&hook); err != nil {
			return nil, fmt.Errorf("--webhook-url: %w", err)
		}
		webhooks = append(webhooks, hook)
	}

	return webhooks, nil
}
