package commands

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/ccollicutt/speedlog/pkg/analyzer"
	"github.com/ccollicutt/speedlog/pkg/output"
	"github.com/ccollicutt/speedlog/pkg/webhook"
)

// GapsOptions holds command-line options for the gaps command.
type GapsOptions struct {
	GlobalOptions
	ReportOptions
	Webhooks WebhookOptions

	Since          time.Duration
	MaxGap         time.Duration
	MinOccurrences int
	Rules          []string
}

// NewGapsCommand creates the gaps command.
func NewGapsCommand() *cobra.Command {
	opts := &GapsOptions{}

	cmd := &cobra.Command{
		Use:   "gaps [dataset|glob]...",
		Short: "Find missing samples and out-of-order rows in the datasets",
		Long: `Check datasets for missing samples and row ordering problems.

Without arguments every dataset in samples_dir is checked. Arguments may be
dataset paths or glob patterns, including ** patterns.

Rules:
  missing-samples  consecutive samples further apart than gaps.max_gap
  row-order        rows out of time order or with duplicate timestamps

Exit codes:
  0 - No issues found
  1 - Issues found
  2 - Configuration or runtime error`,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runGaps(cmd, opts, args)
		},
	}

	opts.GlobalOptions.register(cmd)
	opts.ReportOptions.register(cmd)
	opts.Webhooks.register(cmd)
	cmd.Flags().DurationVar(&opts.Since, "since", 0, "Only check samples newer than this (e.g. 720h)")
	cmd.Flags().DurationVar(&opts.MaxGap, "max-gap", 0, "Override gaps.max_gap")
	cmd.Flags().IntVar(&opts.MinOccurrences, "min-occurrences", 0, "Override gaps.min_occurrences")
	cmd.Flags().StringSliceVar(&opts.Rules, "rule", nil, "Run only the named rules (repeatable)")

	return cmd
}

func runGaps(cmd *cobra.Command, opts *GapsOptions, args []string) error {
	ctx, cfg, log, err := setup(cmd, &opts.GlobalOptions)
	if err != nil {
		return err
	}
	if opts.MaxGap > 0 {
		cfg.Gaps.MaxGap = opts.MaxGap
	}
	if opts.MinOccurrences > 0 {
		cfg.Gaps.MinOccurrences = opts.MinOccurrences
	}

	paths, err := resolveDatasets(cfg, args)
	if err != nil {
		return err
	}

	formatter, err := opts.formatter()
	if err != nil {
		return err
	}

	var analyzerOpts []analyzer.AnalyzerOption
	analyzerOpts = append(analyzerOpts, analyzer.WithLogger(log))
	if opts.Since > 0 {
		analyzerOpts = append(analyzerOpts, analyzer.WithTimeRange(time.Now().Add(-opts.Since), time.Time{}))
	}
	if len(opts.Rules) > 0 {
		analyzerOpts = append(analyzerOpts, analyzer.WithRuleFilter(opts.Rules))
	}

	a, err := analyzer.NewAnalyzer(cfg, analyzerOpts...)
	if err != nil {
		return fmt.Errorf("creating analyzer: %w", err)
	}

	result, err := a.Analyze(ctx, paths)
	if err != nil {
		return fmt.Errorf("analysis failed: %w", err)
	}

	report := output.NewGapReport(result, opts.configPath())
	if err := formatter.FormatGaps(ctx, report, cmd.OutOrStdout()); err != nil {
		return fmt.Errorf("formatting output: %w", err)
	}

	sendWebhooks(ctx, cfg, &opts.Webhooks, webhook.NewEvent(webhook.KindGaps, report, report.HasIssues()), log)

	if report.HasIssues() {
		ExitCode = 1
	}
	return nil
}
