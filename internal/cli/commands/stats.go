package commands

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/ccollicutt/speedlog/pkg/output"
	"github.com/ccollicutt/speedlog/pkg/stats"
)

// StatsOptions holds command-line options for the stats command.
type StatsOptions struct {
	GlobalOptions
	ReportOptions

	Plot  string
	Title string
}

// NewStatsCommand creates the stats command.
func NewStatsCommand() *cobra.Command {
	opts := &StatsOptions{}

	cmd := &cobra.Command{
		Use:   "stats [dataset|glob]...",
		Short: "Summarize download, upload and ping per dataset",
		Long: `Print count, mean, standard deviation, median, 95th percentile and range
of download and upload (Mbit/s) and ping (ms) for each dataset, plus a total
when more than one dataset is given.

Without arguments every dataset in samples_dir is summarized. With --plot the
throughput of all selected datasets is rendered to an image whose format
follows the file extension (png, svg, pdf).`,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runStats(cmd, opts, args)
		},
	}

	opts.GlobalOptions.register(cmd)
	opts.ReportOptions.register(cmd)
	cmd.Flags().StringVar(&opts.Plot, "plot", "", "Render throughput over time to this image file")
	cmd.Flags().StringVar(&opts.Title, "title", "speedlog throughput", "Plot title")

	return cmd
}

func runStats(cmd *cobra.Command, opts *StatsOptions, args []string) error {
	ctx, cfg, log, err := setup(cmd, &opts.GlobalOptions)
	if err != nil {
		return err
	}

	paths, err := resolveDatasets(cfg, args)
	if err != nil {
		return err
	}

	formatter, err := opts.formatter()
	if err != nil {
		return err
	}

	all, err := stats.ComputeFiles(paths)
	if err != nil {
		return err
	}

	report := output.NewStatsReport(all)
	if err := formatter.FormatStats(ctx, report, cmd.OutOrStdout()); err != nil {
		return fmt.Errorf("formatting output: %w", err)
	}

	if opts.Plot != "" {
		merged := stats.Merge("all", all)
		if err := stats.PlotThroughput(opts.Plot, opts.Title, merged.Series()); err != nil {
			return err
		}
		log.Infow("plot written", "path", opts.Plot, "datasets", len(all))
	}
	return nil
}
