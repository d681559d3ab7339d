package analyzer

import (
	"context"
	"fmt"
	"slices"
	"sync"
	"time"
)

// GapEngine implements RuleEngine for missing samples. It orders the
// timeline and reports consecutive samples further apart than maxGap.
type GapEngine struct {
	maxGap         time.Duration
	interval       time.Duration
	minOccurrences int

	mu      sync.Mutex
	samples []Sample
	stats   RuleStats
}

// NewGapEngine creates a gap engine. interval is the nominal sampling
// interval used to estimate the number of missing samples; zero disables
// the estimate.
func NewGapEngine(maxGap, interval time.Duration, minOccurrences int) (*GapEngine, error) {
	if maxGap <= 0 {
		return nil, fmt.Errorf("max gap must be positive, got %s", maxGap)
	}
	return &GapEngine{
		maxGap:         maxGap,
		interval:       interval,
		minOccurrences: minOccurrences,
	}, nil
}

// Name returns the rule name.
func (e *GapEngine) Name() string {
	return "missing-samples"
}

// Type returns the rule type.
func (e *GapEngine) Type() RuleType {
	return RuleTypeGaps
}

// Process records a sample.
func (e *GapEngine) Process(ctx context.Context, s Sample) error {
	e.mu.Lock()
	defer e.mu.Unlock()

	e.stats.SamplesProcessed++
	e.samples = append(e.samples, s)
	return nil
}

// Finalize completes analysis and returns detected issues.
func (e *GapEngine) Finalize(ctx context.Context) (*RuleResult, error) {
	e.mu.Lock()
	defer e.mu.Unlock()

	result := &RuleResult{
		RuleName:    e.Name(),
		RuleType:    RuleTypeGaps,
		Description: fmt.Sprintf("samples at most %s apart", e.maxGap),
		Issues:      make([]Issue, 0),
	}

	sorted := slices.Clone(e.samples)
	slices.SortStableFunc(sorted, func(a, b Sample) int {
		return a.Timestamp.Compare(b.Timestamp)
	})
	if len(sorted) > 0 {
		e.stats.FirstSample = sorted[0].Timestamp
		e.stats.LastSample = sorted[len(sorted)-1].Timestamp
	}
	result.Stats = e.stats

	for i := 1; i < len(sorted); i++ {
		prev := sorted[i-1]
		curr := sorted[i]
		gap := curr.Timestamp.Sub(prev.Timestamp)
		if gap <= e.maxGap {
			continue
		}

		issue := Issue{
			Type: IssueTypeGapExceeded,
			Description: fmt.Sprintf("Gap of %s between samples (max allowed: %s)",
				gap.Round(time.Second), e.maxGap),
			Context: IssueContext{
				StartTime:   prev.Timestamp,
				EndTime:     curr.Timestamp,
				Source:      curr.Source,
				Row:         curr.Row,
				ActualGap:   gap,
				ExpectedGap: e.maxGap,
			},
		}
		if e.interval > 0 {
			issue.Context.MissingSamples = int(gap/e.interval) - 1
			if gap%e.interval != 0 {
				issue.Context.MissingSamples++
			}
		}
		result.Issues = append(result.Issues, issue)
	}

	if e.minOccurrences > 0 && len(sorted) < e.minOccurrences {
		result.Issues = append(result.Issues, Issue{
			Type: IssueTypeBelowMinOccurrences,
			Description: fmt.Sprintf("Only %d samples found (minimum required: %d)",
				len(sorted), e.minOccurrences),
			Context: IssueContext{
				Occurrences: len(sorted),
				MinRequired: e.minOccurrences,
			},
		})
	}

	return result, nil
}

// Reset clears internal state for reuse.
func (e *GapEngine) Reset() {
	e.mu.Lock()
	defer e.mu.Unlock()

	e.samples = nil
	e.stats = RuleStats{}
}
