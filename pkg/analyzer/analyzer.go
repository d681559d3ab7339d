package analyzer

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/ccollicutt/speedlog/pkg/config"
	"github.com/ccollicutt/speedlog/pkg/dataset"
)

// Analyzer runs the rule engines over the combined timeline of one or more
// datasets.
type Analyzer struct {
	engines []RuleEngine

	timeRange  *TimeRange
	ruleFilter map[string]bool // nil means all rules
	log        *zap.SugaredLogger
}

// TimeRange defines a time window for filtering samples.
type TimeRange struct {
	Start time.Time `json:"start"`
	End   time.Time `json:"end"`
}

// AnalyzerOption configures analyzer behavior.
type AnalyzerOption func(*Analyzer)

// WithTimeRange limits analysis to samples within the given time range.
// A zero bound is open.
func WithTimeRange(start, end time.Time) AnalyzerOption {
	return func(a *Analyzer) {
		a.timeRange = &TimeRange{Start: start, End: end}
	}
}

// WithRuleFilter limits analysis to the named rules.
func WithRuleFilter(rules []string) AnalyzerOption {
	return func(a *Analyzer) {
		if len(rules) > 0 {
			a.ruleFilter = make(map[string]bool)
			for _, r := range rules {
				a.ruleFilter[r] = true
			}
		}
	}
}

// WithLogger sets the logger.
func WithLogger(l *zap.SugaredLogger) AnalyzerOption {
	return func(a *Analyzer) {
		if l != nil {
			a.log = l
		}
	}
}

// NewAnalyzer creates an analyzer from the gap and sampler configuration.
func NewAnalyzer(cfg *config.Config, opts ...AnalyzerOption) (*Analyzer, error) {
	a := &Analyzer{log: zap.NewNop().Sugar()}
	for _, opt := range opts {
		opt(a)
	}

	gaps, err := NewGapEngine(cfg.Gaps.MaxGap, cfg.Sampler.Interval, cfg.Gaps.MinOccurrences)
	if err != nil {
		return nil, fmt.Errorf("creating gap rule: %w", err)
	}
	for _, engine := range []RuleEngine{gaps, NewOrderEngine()} {
		if a.ruleFilter != nil && !a.ruleFilter[engine.Name()] {
			continue
		}
		a.engines = append(a.engines, engine)
	}

	if len(a.engines) == 0 {
		return nil, fmt.Errorf("no rules to execute (check --rule filter)")
	}
	return a, nil
}

// AnalysisResult contains the complete analysis output.
type AnalysisResult struct {
	Results  []*RuleResult    `json:"results"`
	Metadata AnalysisMetadata `json:"metadata"`
}

// AnalysisMetadata provides context about the analysis run.
type AnalysisMetadata struct {
	// Sources lists the datasets that were analyzed, in order.
	Sources []string `json:"sources"`

	// TimeRange is the time filter applied, if any.
	TimeRange *TimeRange `json:"time_range,omitempty"`

	StartTime time.Time `json:"start_time"`
	EndTime   time.Time `json:"end_time"`

	// SamplesProcessed is the number of rows passed to the rules.
	SamplesProcessed int `json:"samples_processed"`

	// Unparsable is the number of rows whose timestamp cell could not be read.
	Unparsable int `json:"unparsable"`
}

// TotalIssues returns the total number of issues across all rules.
func (r *AnalysisResult) TotalIssues() int {
	total := 0
	for _, result := range r.Results {
		total += len(result.Issues)
	}
	return total
}

// RulesWithIssues returns the count of rules that detected issues.
func (r *AnalysisResult) RulesWithIssues() int {
	count := 0
	for _, result := range r.Results {
		if result.HasIssues() {
			count++
		}
	}
	return count
}

// Analyze reads the datasets at paths in order and runs every rule over
// their rows as one timeline.
func (a *Analyzer) Analyze(ctx context.Context, paths []string) (*AnalysisResult, error) {
	result := &AnalysisResult{
		Results: make([]*RuleResult, 0, len(a.engines)),
		Metadata: AnalysisMetadata{
			TimeRange: a.timeRange,
			StartTime: time.Now(),
		},
	}

	for _, engine := range a.engines {
		engine.Reset()
	}

	for _, path := range paths {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		if err := a.analyzeDataset(ctx, path, &result.Metadata); err != nil {
			return nil, err
		}
	}

	for _, engine := range a.engines {
		ruleResult, err := engine.Finalize(ctx)
		if err != nil {
			return nil, fmt.Errorf("finalizing rule %q: %w", engine.Name(), err)
		}
		result.Results = append(result.Results, ruleResult)
	}

	result.Metadata.EndTime = time.Now()
	return result, nil
}

func (a *Analyzer) analyzeDataset(ctx context.Context, path string, meta *AnalysisMetadata) error {
	ds, err := dataset.Open(path)
	if err != nil {
		return err
	}
	meta.Sources = append(meta.Sources, path)

	for i, cell := range ds.Column(dataset.ColTimestamp) {
		ts, err := dataset.ParseTimestamp(cell)
		if err != nil {
			meta.Unparsable++
			a.log.Debugw("unparsable timestamp", "dataset", path, "row", i+1, "cell", cell)
			continue
		}
		if !a.inRange(ts) {
			continue
		}

		meta.SamplesProcessed++
		s := Sample{Timestamp: ts, Source: path, Row: i + 1}
		for _, engine := range a.engines {
			if err := engine.Process(ctx, s); err != nil {
				return fmt.Errorf("processing sample with rule %q: %w", engine.Name(), err)
			}
		}
	}
	return nil
}

func (a *Analyzer) inRange(ts time.Time) bool {
	if a.timeRange == nil {
		return true
	}
	if !a.timeRange.Start.IsZero() && ts.Before(a.timeRange.Start) {
		return false
	}
	if !a.timeRange.End.IsZero() && ts.After(a.timeRange.End) {
		return false
	}
	return true
}
