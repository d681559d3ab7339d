package commands

import (
	"context"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/ccollicutt/speedlog/pkg/config"
	"github.com/ccollicutt/speedlog/pkg/fsutil"
)

// NewValidateCommand creates the validate command.
func NewValidateCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "validate [config-file]",
		Short: "Validate a configuration file",
		Long: `Validate a speedlog configuration file without importing or sampling.

The file defaults to $` + config.EnvConfig + `. Environment overrides are applied
before validation, as for every other command.

Checks:
  - YAML syntax
  - Durations, counts and the time zone
  - Measurement server and webhook URLs
  - Dataset and logfile directories (warning only)`,
		Args: cobra.MaximumNArgs(1),
		RunE: runValidate,
	}
}

func runValidate(cmd *cobra.Command, args []string) error {
	configPath := os.Getenv(config.EnvConfig)
	if len(args) == 1 {
		configPath = args[0]
	}
	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}
	out := cmd.OutOrStdout()

	if configPath == "" {
		fmt.Fprintln(out, "Validating defaults and environment...")
	} else {
		fmt.Fprintf(out, "Validating %s...\n", configPath)
	}

	cfg, err := config.Load(ctx, configPath)
	if err != nil {
		return fmt.Errorf("validation failed: %w", err)
	}

	fmt.Fprintf(out, "\nConfiguration valid!\n")
	fmt.Fprintf(out, "  Samples dir:  %s\n", orUnset(cfg.SamplesDir))
	fmt.Fprintf(out, "  Logs dir:     %s\n", orUnset(cfg.LogsDir))
	fmt.Fprintf(out, "  Time zone:    %s\n", cfg.Location())
	fmt.Fprintf(out, "  Interval:     %s (start delay %s)\n", cfg.Sampler.Interval, cfg.Sampler.StartDelay)
	fmt.Fprintf(out, "  Measurement:  timeout %s, %d retries\n", cfg.Sampler.MeasureTimeout, cfg.Sampler.Retries)
	fmt.Fprintf(out, "  Servers:      %d\n", len(cfg.Measurement.Servers))
	fmt.Fprintf(out, "  Max gap:      %s\n", cfg.Gaps.MaxGap)
	fmt.Fprintf(out, "  Webhooks:     %d\n", len(cfg.Webhooks))

	if err := cfg.RequireSamplesDir(); err != nil {
		fmt.Fprintf(out, "\nWarning: %v\n", err)
	} else if files, err := fsutil.List(cfg.SamplesDir, cfg.DatasetExtension); err == nil {
		fmt.Fprintf(out, "\nDatasets found: %d\n", len(files))
	}

	if err := cfg.RequireLogsDir(); err != nil {
		fmt.Fprintf(out, "Warning: %v\n", err)
	} else if files, err := fsutil.List(cfg.LogsDir, cfg.LogExtension); err == nil {
		fmt.Fprintf(out, "Logfiles found: %d\n", len(files))
	}

	return nil
}

func orUnset(s string) string {
	if s == "" {
		return "(not set)"
	}
	return s
}
