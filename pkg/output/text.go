package output

import (
	"context"
	"fmt"
	"io"
	"path/filepath"
	"strings"
	"text/tabwriter"
	"time"

	"github.com/ccollicutt/speedlog/pkg/analyzer"
	"github.com/ccollicutt/speedlog/pkg/stats"
)

const timeLayout = "2006-01-02 15:04:05"

// TextFormatter formats reports as human-readable text.
type TextFormatter struct {
	opts FormatOptions
}

// NewTextFormatter creates a new text formatter with the given options.
func NewTextFormatter(opts FormatOptions) *TextFormatter {
	return &TextFormatter{opts: opts}
}

// Name returns the format name.
func (f *TextFormatter) Name() string {
	return "text"
}

// FormatImport renders the import report as text. The per-file progress
// lines are printed while merging, so only the totals are written here.
func (f *TextFormatter) FormatImport(ctx context.Context, report *ImportReport, w io.Writer) error {
	s := report.Summary
	if report.DryRun {
		for _, job := range report.Jobs {
			fmt.Fprintf(w, "would convert %s -> %s (%s)\n",
				job.Log.Name, filepath.Base(job.Dataset), job.Reason)
		}
		fmt.Fprintf(w, "%d logfile(s), %d to convert, %d up to date\n",
			s.LogsFound, len(report.Jobs), s.UpToDate)
		return nil
	}

	if f.opts.Quiet {
		fmt.Fprintf(w, "speedlog: %d merged, %d converted, %d skipped, %d errors\n",
			s.Merged, s.Converted, s.Skipped, s.Errors)
		return nil
	}

	fmt.Fprintf(w, "%d logfile(s) found, %d up to date, %d merged\n", s.LogsFound, s.UpToDate, s.Merged)
	fmt.Fprintf(w, "total: converted entries (%d), skipped lines (%d), error lines (%d)\n",
		s.Converted, s.Skipped, s.Errors)

	if f.opts.Verbose {
		for _, r := range report.Results {
			created := ""
			if r.Created {
				created = " (new)"
			}
			fmt.Fprintf(w, "  %s -> %s%s\n", filepath.Base(r.Log), filepath.Base(r.Dataset), created)
		}
		fmt.Fprintf(w, "Duration: %s\n", report.Duration.Round(time.Millisecond))
	}
	return nil
}

// FormatGaps renders the gap report as text.
func (f *TextFormatter) FormatGaps(ctx context.Context, report *GapReport, w io.Writer) error {
	if f.opts.Quiet {
		fmt.Fprintf(w, "speedlog: %d rules checked, %d with issues, %d total issues\n",
			report.Summary.RulesChecked,
			report.Summary.RulesWithIssues,
			report.Summary.TotalIssues)
		return nil
	}

	fmt.Fprintln(w, "=== speedlog Gap Report ===")
	fmt.Fprintln(w)

	for _, result := range report.Results {
		f.formatRuleResult(result, w)
	}

	fmt.Fprintln(w, "---")
	fmt.Fprintf(w, "Summary: %d rules checked, %d rules with issues, %d total issues\n",
		report.Summary.RulesChecked,
		report.Summary.RulesWithIssues,
		report.Summary.TotalIssues)

	if f.opts.Verbose {
		fmt.Fprintf(w, "Samples processed: %d\n", report.Summary.SamplesProcessed)
		fmt.Fprintf(w, "Unparsable timestamps: %d\n", report.Summary.Unparsable)
		fmt.Fprintf(w, "Duration: %s\n", report.Metadata.Duration.Round(time.Millisecond))
	}
	return nil
}

func (f *TextFormatter) formatRuleResult(result *analyzer.RuleResult, w io.Writer) {
	ruleType := strings.ToUpper(string(result.RuleType))
	fmt.Fprintf(w, "[%s] %s\n", ruleType, result.RuleName)

	if result.Description != "" && f.opts.Verbose {
		fmt.Fprintf(w, "  %s\n", result.Description)
	}

	if !result.HasIssues() {
		fmt.Fprintln(w, "  No issues detected")
		fmt.Fprintln(w)
		return
	}

	fmt.Fprintf(w, "  Found: %d issue(s)\n", len(result.Issues))
	for _, issue := range result.Issues {
		f.formatIssue(&issue, w)
	}
	fmt.Fprintln(w)
}

func (f *TextFormatter) formatIssue(issue *analyzer.Issue, w io.Writer) {
	ctx := issue.Context
	switch issue.Type {
	case analyzer.IssueTypeGapExceeded:
		fmt.Fprintf(w, "  - Gap of %s between %s and %s (max allowed: %s)",
			ctx.ActualGap.Round(time.Second),
			ctx.StartTime.Format(timeLayout),
			ctx.EndTime.Format(timeLayout),
			ctx.ExpectedGap)
		if ctx.MissingSamples > 0 {
			fmt.Fprintf(w, ", ~%d sample(s) missing", ctx.MissingSamples)
		}
		fmt.Fprintln(w)
	case analyzer.IssueTypeBelowMinOccurrences:
		fmt.Fprintf(w, "  - Only %d samples (minimum required: %d)\n",
			ctx.Occurrences, ctx.MinRequired)
		return
	case analyzer.IssueTypeOutOfOrder:
		fmt.Fprintf(w, "  - %s recorded after %s\n",
			ctx.EndTime.Format(timeLayout), ctx.StartTime.Format(timeLayout))
	case analyzer.IssueTypeDuplicate:
		fmt.Fprintf(w, "  - %s recorded twice\n", ctx.EndTime.Format(timeLayout))
	default:
		fmt.Fprintf(w, "  - %s\n", issue.Description)
	}

	if f.opts.Verbose && ctx.Source != "" {
		fmt.Fprintf(w, "    Source: %s:%d\n", ctx.Source, ctx.Row)
	}
}

// FormatStats renders dataset summaries as a table.
func (f *TextFormatter) FormatStats(ctx context.Context, report *StatsReport, w io.Writer) error {
	rows := report.Datasets
	if f.opts.Quiet && report.Total != nil {
		rows = nil
	}
	if report.Total != nil {
		rows = append(rows[:len(rows):len(rows)], report.Total)
	}

	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "DATASET\tROWS\tDOWN MEAN\tDOWN MEDIAN\tDOWN P95\tUP MEAN\tUP MEDIAN\tPING MEDIAN\tFIRST\tLAST")
	for _, st := range rows {
		fmt.Fprintf(tw, "%s\t%d\t%.2f\t%.2f\t%.2f\t%.2f\t%.2f\t%.1f\t%s\t%s\n",
			filepath.Base(st.Source),
			st.Rows,
			st.Download.Mean, st.Download.Median, st.Download.P95,
			st.Upload.Mean, st.Upload.Median,
			st.Ping.Median,
			formatTime(st.First), formatTime(st.Last))
	}
	if err := tw.Flush(); err != nil {
		return err
	}

	if f.opts.Verbose {
		for _, st := range rows {
			f.formatStatsDetail(st, w)
		}
	}
	return nil
}

func (f *TextFormatter) formatStatsDetail(st *stats.DatasetStats, w io.Writer) {
	fmt.Fprintf(w, "\n%s (%d unreadable cells)\n", st.Source, st.Unreadable)
	fmt.Fprintf(w, "  download Mbit/s: %s\n", st.Download)
	fmt.Fprintf(w, "  upload Mbit/s:   %s\n", st.Upload)
	fmt.Fprintf(w, "  ping ms:         %s\n", st.Ping)
}

func formatTime(t time.Time) string {
	if t.IsZero() {
		return "-"
	}
	return t.Format(timeLayout)
}
