package output

import (
	"context"
	"encoding/json"
	"io"
)

// JSONFormatter formats reports as JSON.
type JSONFormatter struct {
	opts FormatOptions
}

// NewJSONFormatter creates a new JSON formatter with the given options.
func NewJSONFormatter(opts FormatOptions) *JSONFormatter {
	return &JSONFormatter{opts: opts}
}

// Name returns the format name.
func (f *JSONFormatter) Name() string {
	return "json"
}

// FormatImport renders the import report as JSON.
func (f *JSONFormatter) FormatImport(ctx context.Context, report *ImportReport, w io.Writer) error {
	if f.opts.Quiet {
		return f.encode(w, report.Summary)
	}
	return f.encode(w, report)
}

// FormatGaps renders the gap report as JSON.
func (f *JSONFormatter) FormatGaps(ctx context.Context, report *GapReport, w io.Writer) error {
	if f.opts.Quiet {
		return f.encode(w, report.Summary)
	}
	return f.encode(w, report)
}

// FormatStats renders the stats report as JSON.
func (f *JSONFormatter) FormatStats(ctx context.Context, report *StatsReport, w io.Writer) error {
	if f.opts.Quiet && report.Total != nil {
		return f.encode(w, report.Total)
	}
	return f.encode(w, report)
}

func (f *JSONFormatter) encode(w io.Writer, v any) error {
	encoder := json.NewEncoder(w)
	encoder.SetIndent("", "  ")
	return encoder.Encode(v)
}
