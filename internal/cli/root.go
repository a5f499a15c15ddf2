// Package cli provides the command-line interface for boxlog.
package cli

import (
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/ccollicutt/boxlog/internal/cli/commands"
)

// Execute runs the root command and returns the exit code.
func Execute() int {
	return Run(os.Args[1:], os.Stdout, os.Stderr)
}

// Run executes boxlog with args, writing command output to stdout and
// errors to stderr, and returns the process exit code.
func Run(args []string, stdout, stderr io.Writer) int {
	commands.ExitCode = 0

	rootCmd := NewRootCommand()
	rootCmd.SetArgs(args)
	rootCmd.SetOut(stdout)
	rootCmd.SetErr(stderr)

	if err := rootCmd.Execute(); err != nil {
		// Print error to stderr (SilenceErrors prevents Cobra from doing this)
		_, _ = fmt.Fprintf(rootCmd.ErrOrStderr(), "Error: %v\n", err)
		return 2 // Configuration or runtime error
	}
	return commands.ExitCode
}

// NewRootCommand creates the root cobra command.
func NewRootCommand() *cobra.Command {
	var logLevel string
	var logger *zap.Logger

	rootCmd := &cobra.Command{
		Use:   "boxlog",
		Short: "Parse boxed log entries and find uncorrelated ones",
		Long: `boxlog parses logs made of boxed multi-line entries

  ┌ Info: start transaction
  │ id = 7
  └ @ Bank.Ledger src/ledger.jl:41

and single-line [Level: message] entries into typed records, queries them by
field, and reports entries whose correlation partner never appeared: an
opening without a closing, or a closing without an opening.

Declare a schema of body fields and boxlog keeps only the boxed entries that
carry every field with a value of the declared type.`,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			l, err := commands.NewLogger(logLevel, cmd.ErrOrStderr())
			if err != nil {
				return err
			}
			logger = l
			cmd.SetContext(commands.WithLogger(cmd.Context(), logger))
			return nil
		},
		PersistentPostRun: func(cmd *cobra.Command, args []string) {
			if logger != nil {
				// stderr cannot be synced on every platform
				_ = logger.Sync()
			}
		},
	}

	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", envOr("BOXLOG_LOG_LEVEL", "warn"),
		"Diagnostic log level (debug|info|warn|error)")

	rootCmd.AddCommand(commands.NewParseCommand())
	rootCmd.AddCommand(commands.NewAnalyzeCommand())
	rootCmd.AddCommand(commands.NewDetectCommand())
	rootCmd.AddCommand(commands.NewDiagnoseCommand())
	rootCmd.AddCommand(commands.NewValidateCommand())
	rootCmd.AddCommand(commands.NewVersionCommand())

	return rootCmd
}

func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}
