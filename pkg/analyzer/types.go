// Package analyzer checks dataset timelines for missing and inconsistent
// samples.
package analyzer

import (
	"time"
)

// RuleType enumerates detection strategies.
type RuleType string

const (
	RuleTypeGaps  RuleType = "gaps"
	RuleTypeOrder RuleType = "order"
)

// IssueType categorizes detected issues.
type IssueType string

const (
	// IssueTypeGapExceeded indicates two consecutive samples are further
	// apart than the allowed gap.
	IssueTypeGapExceeded IssueType = "gap_exceeded"

	// IssueTypeBelowMinOccurrences indicates fewer samples than required.
	IssueTypeBelowMinOccurrences IssueType = "below_min_occurrences"

	// IssueTypeOutOfOrder indicates a row older than the row before it.
	IssueTypeOutOfOrder IssueType = "out_of_order"

	// IssueTypeDuplicate indicates two rows with the same instant.
	IssueTypeDuplicate IssueType = "duplicate_timestamp"
)

// Sample is one dataset row as seen by the engines.
type Sample struct {
	Timestamp time.Time
	Source    string
	Row       int // 1-based, header excluded
}

// RuleResult contains findings from executing a single rule.
type RuleResult struct {
	RuleName    string    `json:"rule_name"`
	RuleType    RuleType  `json:"rule_type"`
	Description string    `json:"description,omitempty"`
	Issues      []Issue   `json:"issues"`
	Stats       RuleStats `json:"stats"`
}

// RuleStats contains execution statistics for a rule.
type RuleStats struct {
	// SamplesProcessed is the number of rows examined.
	SamplesProcessed int `json:"samples_processed"`

	// FirstSample and LastSample bound the examined timeline.
	FirstSample time.Time `json:"first_sample"`
	LastSample  time.Time `json:"last_sample"`
}

// HasIssues returns true if any issues were detected.
func (r *RuleResult) HasIssues() bool {
	return len(r.Issues) > 0
}

// Issue represents a single detected problem.
type Issue struct {
	Type        IssueType    `json:"type"`
	Description string       `json:"description"`
	Context     IssueContext `json:"context"`
}

// IssueContext provides detailed information about an issue.
type IssueContext struct {
	// StartTime is the sample before the problem.
	StartTime time.Time `json:"start_time,omitempty"`

	// EndTime is the sample after the problem.
	EndTime time.Time `json:"end_time,omitempty"`

	// Source is the dataset the issue was found in.
	Source string `json:"source,omitempty"`

	// Row is the dataset row of the sample after the problem.
	Row int `json:"row,omitempty"`

	// ActualGap and ExpectedGap are set for gap issues.
	ActualGap   time.Duration `json:"actual_gap,omitempty"`
	ExpectedGap time.Duration `json:"expected_gap,omitempty"`

	// MissingSamples estimates how many samples fit into the gap at the
	// nominal sampling interval.
	MissingSamples int `json:"missing_samples,omitempty"`

	// Occurrences and MinRequired are set for min_occurrences checks.
	Occurrences int `json:"occurrences,omitempty"`
	MinRequired int `json:"min_required,omitempty"`
}
