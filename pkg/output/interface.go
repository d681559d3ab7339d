package output

import (
	"context"
	"fmt"
	"io"
)

// Formatter renders command reports in a specific format.
type Formatter interface {
	// FormatImport renders the result of an import pass.
	FormatImport(ctx context.Context, report *ImportReport, w io.Writer) error

	// FormatGaps renders a dataset gap analysis.
	FormatGaps(ctx context.Context, report *GapReport, w io.Writer) error

	// FormatStats renders dataset summaries.
	FormatStats(ctx context.Context, report *StatsReport, w io.Writer) error

	// Name returns the format name (text, json).
	Name() string
}

// FormatOptions controls formatter behavior.
type FormatOptions struct {
	// Verbose enables detailed output such as dataset rows of issues.
	Verbose bool

	// Quiet enables minimal summary-only output.
	Quiet bool
}

// New returns the formatter named format.
func New(format string, opts FormatOptions) (Formatter, error) {
	switch format {
	case "", "text":
		return NewTextFormatter(opts), nil
	case "json":
		return NewJSONFormatter(opts), nil
	default:
		return nil, fmt.Errorf("unknown output format %q (use text or json)", format)
	}
}
