package importer

import (
	"context"
	"fmt"
	"io"
	"time"

	"go.uber.org/zap"

	"github.com/ccollicutt/speedlog/pkg/dataset"
	"github.com/ccollicutt/speedlog/pkg/fsutil"
)

// Options configures where the orchestrator looks for files.
type Options struct {
	LogsDir          string
	DatasetDir       string
	LogExtension     string
	DatasetExtension string
}

// Report summarizes one orchestration pass.
type Report struct {
	LogsFound  int                    `json:"logs_found"`
	UpToDate   int                    `json:"up_to_date"`
	Jobs       []Job                  `json:"jobs"`
	Results    []*dataset.MergeResult `json:"results"`
	StartedAt  time.Time              `json:"started_at"`
	FinishedAt time.Time              `json:"finished_at"`
}

// Totals sums the counters of all merges.
func (r *Report) Totals() (converted, skipped, errors int) {
	for _, res := range r.Results {
		converted += res.Converted
		skipped += res.Skipped
		errors += res.Errors
	}
	return converted, skipped, errors
}

// HasErrors reports whether any merged logfile had unreadable lines.
func (r *Report) HasErrors() bool {
	_, _, errors := r.Totals()
	return errors > 0
}

// Orchestrator runs sequential merge passes over a logs directory.
type Orchestrator struct {
	opts     Options
	merger   *dataset.Merger
	log      *zap.SugaredLogger
	progress io.Writer
}

// Option configures an Orchestrator.
type Option func(*Orchestrator)

// WithLogger sets the logger.
func WithLogger(l *zap.SugaredLogger) Option {
	return func(o *Orchestrator) {
		if l != nil {
			o.log = l
		}
	}
}

// WithProgress prints one summary line per merged logfile to w.
func WithProgress(w io.Writer) Option {
	return func(o *Orchestrator) {
		o.progress = w
	}
}

// New creates an Orchestrator.
func New(opts Options, merger *dataset.Merger, options ...Option) *Orchestrator {
	o := &Orchestrator{
		opts:   opts,
		merger: merger,
		log:    zap.NewNop().Sugar(),
	}
	for _, opt := range options {
		opt(o)
	}
	return o
}

// Plan lists both directories and returns the logfiles that need merging
// together with the number of logfiles found.
func (o *Orchestrator) Plan(ctx context.Context) ([]Job, int, error) {
	logs, err := fsutil.List(o.opts.LogsDir, o.opts.LogExtension)
	if err != nil {
		return nil, 0, fmt.Errorf("listing logfiles: %w", err)
	}
	datasets, err := fsutil.List(o.opts.DatasetDir, o.opts.DatasetExtension)
	if err != nil {
		return nil, 0, fmt.Errorf("listing datasets: %w", err)
	}
	return Plan(logs, datasets, o.opts.DatasetDir, o.opts.DatasetExtension), len(logs), nil
}

// DryRun plans a pass without merging anything.
func (o *Orchestrator) DryRun(ctx context.Context) (*Report, error) {
	report := &Report{StartedAt: time.Now()}
	jobs, found, err := o.Plan(ctx)
	if err != nil {
		return nil, err
	}
	report.LogsFound = found
	report.UpToDate = found - len(jobs)
	report.Jobs = jobs
	report.FinishedAt = time.Now()
	return report, nil
}

// Run performs one pass: plan, then merge every selected logfile in order.
func (o *Orchestrator) Run(ctx context.Context) (*Report, error) {
	report := &Report{StartedAt: time.Now()}

	jobs, found, err := o.Plan(ctx)
	if err != nil {
		return nil, err
	}
	report.LogsFound = found
	report.UpToDate = found - len(jobs)
	report.Jobs = jobs

	o.log.Infow("import pass planned", "logs", found, "selected", len(jobs))

	for _, job := range jobs {
		if err := ctx.Err(); err != nil {
			return report, err
		}

		if o.progress != nil {
			fmt.Fprintf(o.progress, "converting %s: ", job.Log.Name)
		}

		result, err := o.merger.MergeLog(ctx, job.Log.Path, job.Dataset)
		if result != nil {
			report.Results = append(report.Results, result)
		}
		if err != nil {
			if o.progress != nil {
				fmt.Fprintln(o.progress, "failed")
			}
			return report, fmt.Errorf("merging %s: %w", job.Log.Name, err)
		}

		if o.progress != nil {
			fmt.Fprintln(o.progress, result.Summary())
		}
		o.log.Infow("merged logfile",
			"log", job.Log.Name,
			"dataset", job.Dataset,
			"reason", job.Reason,
			"converted", result.Converted,
			"skipped", result.Skipped,
			"errors", result.Errors,
		)
	}

	report.FinishedAt = time.Now()
	return report, nil
}
