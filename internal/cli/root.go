// Package cli provides the command-line interface for speedlog.
package cli

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/ccollicutt/speedlog/internal/cli/commands"
	"github.com/ccollicutt/speedlog/internal/logger"
)

// Execute runs the root command and returns the exit code.
func Execute() int {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	defer func() { _ = logger.Sync() }()

	return run(ctx, NewRootCommand())
}

func run(ctx context.Context, rootCmd *cobra.Command) int {
	commands.ExitCode = 0
	if err := rootCmd.ExecuteContext(ctx); err != nil {
		// Print error to stderr (SilenceErrors prevents Cobra from doing this)
		_, _ = fmt.Fprintf(rootCmd.ErrOrStderr(), "Error: %v\n", err)
		return 2 // Configuration or runtime error
	}
	return commands.ExitCode
}

// NewRootCommand creates the root cobra command.
func NewRootCommand() *cobra.Command {
	rootCmd := &cobra.Command{
		Use:   "speedlog",
		Short: "Record and check internet connection speed over time",
		Long: `speedlog keeps a monthly CSV history of internet connection speed.

It can:
  - Import historical speed test logfiles into the monthly datasets
  - Sample the connection periodically and append to the datasets
  - Report missing samples and out-of-order rows
  - Summarize and plot download, upload and ping

Settings come from a YAML file (--config or $SPEEDLOG_CONFIG) and the
SPEEDLOG_* environment variables.`,
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	rootCmd.AddCommand(commands.NewImportCommand())
	rootCmd.AddCommand(commands.NewSampleCommand())
	rootCmd.AddCommand(commands.NewGapsCommand())
	rootCmd.AddCommand(commands.NewStatsCommand())
	rootCmd.AddCommand(commands.NewDiagnoseCommand())
	rootCmd.AddCommand(commands.NewValidateCommand())
	rootCmd.AddCommand(commands.NewVersionCommand())

	return rootCmd
}
