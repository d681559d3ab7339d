package commands

import (
	"context"
	"fmt"
	"io"
	"time"

	"github.com/spf13/cobra"

	"github.com/ccollicutt/speedlog/pkg/dataset"
	"github.com/ccollicutt/speedlog/pkg/importer"
	"github.com/ccollicutt/speedlog/pkg/metrics"
	"github.com/ccollicutt/speedlog/pkg/output"
	"github.com/ccollicutt/speedlog/pkg/parser"
	"github.com/ccollicutt/speedlog/pkg/webhook"
)

// ImportOptions holds command-line options for the import command.
type ImportOptions struct {
	GlobalOptions
	ReportOptions
	Webhooks WebhookOptions

	DryRun bool
	Watch  bool
	Settle time.Duration
}

// NewImportCommand creates the import command.
func NewImportCommand() *cobra.Command {
	opts := &ImportOptions{}

	cmd := &cobra.Command{
		Use:   "import",
		Short: "Merge historical speed test logfiles into the monthly datasets",
		Long: `Merge historical speed test logfiles into the monthly CSV datasets.

Every logfile in logs_dir whose dataset (first six characters of the logfile
name plus the dataset extension, e.g. 202103.csv) is missing or older than the
logfile is read record by record and merged into the dataset in samples_dir.
Records whose timestamp is already present are skipped, so re-running an
import is safe.

Exit codes:
  0 - Import finished (unreadable lines are reported, not fatal)
  2 - Configuration or runtime error`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runImport(cmd, opts)
		},
	}

	opts.GlobalOptions.register(cmd)
	opts.ReportOptions.register(cmd)
	opts.Webhooks.register(cmd)
	cmd.Flags().BoolVar(&opts.DryRun, "dry-run", false, "Show which logfiles would be merged without writing")
	cmd.Flags().BoolVarP(&opts.Watch, "watch", "w", false, "Keep running and merge logfiles as they change")
	cmd.Flags().DurationVar(&opts.Settle, "settle", importer.DefaultSettle, "Quiet period after a change before merging (with --watch)")

	return cmd
}

func runImport(cmd *cobra.Command, opts *ImportOptions) error {
	ctx, cfg, log, err := setup(cmd, &opts.GlobalOptions)
	if err != nil {
		return err
	}
	if err := cfg.RequireSamplesDir(); err != nil {
		return err
	}
	if err := cfg.RequireLogsDir(); err != nil {
		return err
	}

	formatter, err := opts.formatter()
	if err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	var progress io.Writer
	if opts.Output == "text" && !opts.Quiet && !opts.DryRun {
		progress = out
	}

	merger := dataset.NewMerger(parser.NewTimestampParser(cfg.Location()), dataset.WithLogger(log))
	orch := importer.New(importer.Options{
		LogsDir:          cfg.LogsDir,
		DatasetDir:       cfg.SamplesDir,
		LogExtension:     cfg.LogExtension,
		DatasetExtension: cfg.DatasetExtension,
	}, merger, importer.WithLogger(log), importer.WithProgress(progress))

	emit := func(ctx context.Context, r *importer.Report) {
		report := output.NewImportReport(r, opts.DryRun)
		if err := formatter.FormatImport(ctx, report, out); err != nil {
			log.Errorw("formatting output", "error", err)
		}
		if !opts.DryRun {
			sendWebhooks(ctx, cfg, &opts.Webhooks, webhook.NewEvent(webhook.KindImport, report, report.HasIssues()), log)
		}
	}

	if opts.DryRun {
		r, err := orch.DryRun(ctx)
		if err != nil {
			return fmt.Errorf("planning import: %w", err)
		}
		emit(ctx, r)
		return nil
	}

	if opts.Watch {
		if cfg.Metrics.Enabled {
			metrics.NewServer(cfg.Metrics.Listen, log).Start(ctx)
		}
		log.Infow("watching for logfile changes", "dir", cfg.LogsDir)
		return orch.Watch(ctx, opts.Settle, func(r *importer.Report) { emit(ctx, r) })
	}

	r, err := orch.Run(ctx)
	if r != nil {
		emit(ctx, r)
	}
	if err != nil {
		return fmt.Errorf("import failed: %w", err)
	}
	return nil
}
