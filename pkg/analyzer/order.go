package analyzer

import (
	"context"
	"fmt"
	"sync"
	"time"
)

// OrderEngine implements RuleEngine for row order. Datasets are append-only,
// so importing an older logfile after live samples leaves rows out of
// chronological order; the sampler does not deduplicate, so the same
// instant can also appear twice.
type OrderEngine struct {
	mu     sync.Mutex
	prev   *Sample
	seen   map[int64]Sample
	issues []Issue
	stats  RuleStats
}

// NewOrderEngine creates an order engine.
func NewOrderEngine() *OrderEngine {
	return &OrderEngine{seen: make(map[int64]Sample)}
}

// Name returns the rule name.
func (e *OrderEngine) Name() string {
	return "row-order"
}

// Type returns the rule type.
func (e *OrderEngine) Type() RuleType {
	return RuleTypeOrder
}

// Process checks s against the previous sample and all earlier instants.
func (e *OrderEngine) Process(ctx context.Context, s Sample) error {
	e.mu.Lock()
	defer e.mu.Unlock()

	e.stats.SamplesProcessed++
	if e.stats.FirstSample.IsZero() || s.Timestamp.Before(e.stats.FirstSample) {
		e.stats.FirstSample = s.Timestamp
	}
	if s.Timestamp.After(e.stats.LastSample) {
		e.stats.LastSample = s.Timestamp
	}

	instant := s.Timestamp.UnixNano()
	if first, ok := e.seen[instant]; ok {
		e.issues = append(e.issues, Issue{
			Type: IssueTypeDuplicate,
			Description: fmt.Sprintf("Sample at %s already recorded in %s row %d",
				s.Timestamp.Format(time.RFC3339), first.Source, first.Row),
			Context: IssueContext{
				StartTime: first.Timestamp,
				EndTime:   s.Timestamp,
				Source:    s.Source,
				Row:       s.Row,
			},
		})
	} else {
		e.seen[instant] = s
	}

	if e.prev != nil && e.prev.Source == s.Source && s.Timestamp.Before(e.prev.Timestamp) {
		e.issues = append(e.issues, Issue{
			Type: IssueTypeOutOfOrder,
			Description: fmt.Sprintf("Sample at %s follows later sample at %s",
				s.Timestamp.Format(time.RFC3339), e.prev.Timestamp.Format(time.RFC3339)),
			Context: IssueContext{
				StartTime: e.prev.Timestamp,
				EndTime:   s.Timestamp,
				Source:    s.Source,
				Row:       s.Row,
			},
		})
	}
	e.prev = &s
	return nil
}

// Finalize returns the collected issues.
func (e *OrderEngine) Finalize(ctx context.Context) (*RuleResult, error) {
	e.mu.Lock()
	defer e.mu.Unlock()

	issues := make([]Issue, len(e.issues))
	copy(issues, e.issues)
	return &RuleResult{
		RuleName:    e.Name(),
		RuleType:    RuleTypeOrder,
		Description: "rows in chronological order without repeated instants",
		Issues:      issues,
		Stats:       e.stats,
	}, nil
}

// Reset clears internal state for reuse.
func (e *OrderEngine) Reset() {
	e.mu.Lock()
	defer e.mu.Unlock()

	e.prev = nil
	e.seen = make(map[int64]Sample)
	e.issues = nil
	e.stats = RuleStats{}
}
