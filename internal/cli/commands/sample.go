package commands

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/ccollicutt/speedlog/pkg/config"
	"github.com/ccollicutt/speedlog/pkg/dataset"
	"github.com/ccollicutt/speedlog/pkg/metrics"
	"github.com/ccollicutt/speedlog/pkg/sampler"
	"github.com/ccollicutt/speedlog/pkg/speedtest"
)

// SampleOptions holds command-line options for the sample command.
type SampleOptions struct {
	GlobalOptions

	Once          bool
	Metrics       bool
	MetricsListen string
	Servers       []string
}

// NewSampleCommand creates the sample command.
func NewSampleCommand() *cobra.Command {
	opts := &SampleOptions{}

	cmd := &cobra.Command{
		Use:   "sample",
		Short: "Measure the connection periodically and append to the monthly datasets",
		Long: `Run a speed test every sampler.interval and append the result to the
dataset of the month the measurement started in.

The first measurement starts sampler.start_delay after launch. When a
measurement overruns its slot the schedule restarts from the current time.
A failed measurement is logged and the cycle is skipped; failing to write
a sample stops the sampler.

Use --once to take a single measurement and exit.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runSample(cmd, opts)
		},
	}

	opts.GlobalOptions.register(cmd)
	cmd.Flags().BoolVar(&opts.Once, "once", false, "Take one measurement and exit")
	cmd.Flags().BoolVar(&opts.Metrics, "metrics", false, "Serve prometheus metrics (overrides metrics.enabled)")
	cmd.Flags().StringVar(&opts.MetricsListen, "metrics-listen", "", "Metrics listen address (overrides metrics.listen)")
	cmd.Flags().StringSliceVar(&opts.Servers, "server", nil, "Speed test server base URL (repeatable, overrides measurement.servers)")

	return cmd
}

func runSample(cmd *cobra.Command, opts *SampleOptions) error {
	ctx, cfg, log, err := setup(cmd, &opts.GlobalOptions)
	if err != nil {
		return err
	}
	if err := cfg.RequireSamplesDir(); err != nil {
		return err
	}

	servers := cfg.Measurement.Servers
	if len(opts.Servers) > 0 {
		servers = opts.Servers
	}
	if len(servers) == 0 {
		return &config.Error{Field: "measurement.servers", Reason: "no speed test servers configured"}
	}

	measurer := speedtest.NewHTTPMeasurer(speedtest.Options{
		Servers:       servers,
		PingCount:     cfg.Measurement.PingCount,
		DownloadBytes: cfg.Measurement.DownloadBytes,
		UploadBytes:   cfg.Measurement.UploadBytes,
		Timeout:       cfg.Measurement.Timeout,
	}, speedtest.WithLogger(log))

	s := sampler.New(sampler.Options{
		SamplesDir: cfg.SamplesDir,
		Extension:  cfg.DatasetExtension,
		Location:   cfg.Location(),
		Interval:   cfg.Sampler.Interval,
		StartDelay: cfg.Sampler.StartDelay,
		Retry: sampler.RetryPolicy{
			Timeout: cfg.Sampler.MeasureTimeout,
			Retries: cfg.Sampler.Retries,
			Backoff: cfg.Sampler.RetryBackoff,
		},
	}, measurer, sampler.WithLogger(log))

	if opts.Metrics || cfg.Metrics.Enabled {
		listen := cfg.Metrics.Listen
		if opts.MetricsListen != "" {
			listen = opts.MetricsListen
		}
		metrics.NewServer(listen, log).Start(ctx)
	}

	if opts.Once {
		sample, err := s.SampleOnce(ctx)
		if err != nil {
			return err
		}
		_, err = fmt.Fprintf(cmd.OutOrStdout(), "%s ping=%sms download=%s upload=%s server=%s\n",
			dataset.FormatTimestamp(sample.Timestamp),
			dataset.FormatFloat(sample.Ping),
			dataset.FormatFloat(sample.Download),
			dataset.FormatFloat(sample.Upload),
			sample.Server)
		return err
	}

	return s.Run(ctx)
}
