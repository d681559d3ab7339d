package analyzer

import (
	"context"
)

// RuleEngine consumes the samples of a timeline and reports issues.
type RuleEngine interface {
	// Name returns the rule name for reporting.
	Name() string

	// Type returns the rule type.
	Type() RuleType

	// Process handles a single sample in dataset order.
	Process(ctx context.Context, s Sample) error

	// Finalize completes analysis and returns detected issues.
	// Called after all samples have been processed.
	Finalize(ctx context.Context) (*RuleResult, error)

	// Reset clears internal state for reuse.
	Reset()
}
