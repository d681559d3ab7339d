// Package output renders import, gap and stats reports as text or JSON.
package output

import (
	"time"

	"github.com/ccollicutt/speedlog/pkg/analyzer"
	"github.com/ccollicutt/speedlog/pkg/dataset"
	"github.com/ccollicutt/speedlog/pkg/importer"
	"github.com/ccollicutt/speedlog/pkg/stats"
)

// GapReport is the output of `speedlog gaps`.
type GapReport struct {
	Summary  GapSummary             `json:"summary"`
	Results  []*analyzer.RuleResult `json:"results"`
	Metadata Metadata               `json:"metadata"`
}

// GapSummary provides aggregate statistics.
type GapSummary struct {
	RulesChecked     int `json:"rules_checked"`
	RulesWithIssues  int `json:"rules_with_issues"`
	TotalIssues      int `json:"total_issues"`
	SamplesProcessed int `json:"samples_processed"`
	Unparsable       int `json:"unparsable"`
}

// Metadata provides context about the run.
type Metadata struct {
	// ConfigFile is the path to the configuration file used.
	ConfigFile string `json:"config_file,omitempty"`

	// Sources lists the datasets that were analyzed.
	Sources []string `json:"sources"`

	// TimeRange is the time filter that was applied, if any.
	TimeRange *analyzer.TimeRange `json:"time_range,omitempty"`

	AnalyzedAt time.Time     `json:"analyzed_at"`
	Duration   time.Duration `json:"duration"`
}

// NewGapReport creates a GapReport from analysis results.
func NewGapReport(result *analyzer.AnalysisResult, configFile string) *GapReport {
	return &GapReport{
		Results: result.Results,
		Metadata: Metadata{
			ConfigFile: configFile,
			Sources:    result.Metadata.Sources,
			TimeRange:  result.Metadata.TimeRange,
			AnalyzedAt: result.Metadata.EndTime,
			Duration:   result.Metadata.EndTime.Sub(result.Metadata.StartTime),
		},
		Summary: GapSummary{
			RulesChecked:     len(result.Results),
			RulesWithIssues:  result.RulesWithIssues(),
			TotalIssues:      result.TotalIssues(),
			SamplesProcessed: result.Metadata.SamplesProcessed,
			Unparsable:       result.Metadata.Unparsable,
		},
	}
}

// HasIssues returns true if any issues were detected.
func (r *GapReport) HasIssues() bool {
	return r.Summary.TotalIssues > 0
}

// ImportReport is the output of `speedlog import`.
type ImportReport struct {
	DryRun  bool                   `json:"dry_run,omitempty"`
	Summary ImportSummary          `json:"summary"`
	Jobs    []importer.Job         `json:"jobs"`
	Results []*dataset.MergeResult `json:"results"`

	StartedAt time.Time     `json:"started_at"`
	Duration  time.Duration `json:"duration"`
}

// ImportSummary totals an import pass.
type ImportSummary struct {
	LogsFound int `json:"logs_found"`
	UpToDate  int `json:"up_to_date"`
	Merged    int `json:"merged"`
	Converted int `json:"converted"`
	Skipped   int `json:"skipped"`
	Errors    int `json:"errors"`
}

// NewImportReport creates an ImportReport from an orchestrator pass.
func NewImportReport(r *importer.Report, dryRun bool) *ImportReport {
	converted, skipped, errs := r.Totals()
	report := &ImportReport{
		DryRun:  dryRun,
		Jobs:    r.Jobs,
		Results: r.Results,
		Summary: ImportSummary{
			LogsFound: r.LogsFound,
			UpToDate:  r.UpToDate,
			Merged:    len(r.Results),
			Converted: converted,
			Skipped:   skipped,
			Errors:    errs,
		},
		StartedAt: r.StartedAt,
	}
	if !r.FinishedAt.IsZero() {
		report.Duration = r.FinishedAt.Sub(r.StartedAt)
	}
	return report
}

// HasIssues reports whether any merged logfile had unreadable lines.
func (r *ImportReport) HasIssues() bool {
	return r.Summary.Errors > 0
}

// StatsReport is the output of `speedlog stats`.
type StatsReport struct {
	Datasets []*stats.DatasetStats `json:"datasets"`
	Total    *stats.DatasetStats   `json:"total,omitempty"`
}

// NewStatsReport creates a StatsReport. A total over all datasets is added
// when there is more than one.
func NewStatsReport(all []*stats.DatasetStats) *StatsReport {
	report := &StatsReport{Datasets: all}
	if len(all) > 1 {
		report.Total = stats.Merge("total", all)
	}
	return report
}
