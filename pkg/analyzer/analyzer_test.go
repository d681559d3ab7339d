package analyzer

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/ccollicutt/speedlog/pkg/config"
)

const header = "timestamp,protocol,download,upload,ping\n"

func writeDataset(t *testing.T, dir, name string, stamps ...string) string {
	t.Helper()
	content := header
	for _, s := range stamps {
		content += s + ",x,1,1,1\n"
	}
	path := filepath.Join(dir, name)
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}
	return path
}

func testConfig() *config.Config {
	cfg := config.DefaultConfig()
	cfg.Gaps.MaxGap = 2 * time.Hour
	cfg.Sampler.Interval = time.Hour
	return cfg
}

func TestAnalyze_AcrossDatasets(t *testing.T) {
	dir := t.TempDir()
	march := writeDataset(t, dir, "202103.csv",
		"2021-03-31 21:00:20+02:00",
		"2021-03-31 22:00:20+02:00",
		"2021-03-31 23:00:20+02:00",
	)
	april := writeDataset(t, dir, "202104.csv",
		"2021-04-01 04:00:20+02:00",
		"not a timestamp",
		"2021-04-01T05:00:20+02:00",
	)

	a, err := NewAnalyzer(testConfig())
	if err != nil {
		t.Fatalf("NewAnalyzer() error = %v", err)
	}
	result, err := a.Analyze(context.Background(), []string{march, april})
	if err != nil {
		t.Fatalf("Analyze() error = %v", err)
	}

	if result.Metadata.SamplesProcessed != 5 {
		t.Errorf("SamplesProcessed = %d, want 5", result.Metadata.SamplesProcessed)
	}
	if result.Metadata.Unparsable != 1 {
		t.Errorf("Unparsable = %d, want 1", result.Metadata.Unparsable)
	}
	if len(result.Metadata.Sources) != 2 {
		t.Errorf("Sources = %v, want 2 entries", result.Metadata.Sources)
	}
	if result.TotalIssues() != 1 {
		t.Fatalf("TotalIssues() = %d, want 1", result.TotalIssues())
	}
	if result.RulesWithIssues() != 1 {
		t.Errorf("RulesWithIssues() = %d, want 1", result.RulesWithIssues())
	}

	issue := result.Results[0].Issues[0]
	if issue.Context.Source != april || issue.Context.Row != 1 {
		t.Errorf("issue at %s row %d, want %s row 1", issue.Context.Source, issue.Context.Row, april)
	}
	if issue.Context.ActualGap != 5*time.Hour {
		t.Errorf("ActualGap = %v, want 5h", issue.Context.ActualGap)
	}
}

func TestAnalyze_TimeRange(t *testing.T) {
	dir := t.TempDir()
	path := writeDataset(t, dir, "202103.csv",
		"2021-03-01 00:00:00+01:00",
		"2021-03-01 10:00:00+01:00",
		"2021-03-01 11:00:00+01:00",
	)

	start := time.Date(2021, 3, 1, 9, 0, 0, 0, time.UTC)
	a, err := NewAnalyzer(testConfig(), WithTimeRange(start, time.Time{}))
	if err != nil {
		t.Fatalf("NewAnalyzer() error = %v", err)
	}
	result, err := a.Analyze(context.Background(), []string{path})
	if err != nil {
		t.Fatalf("Analyze() error = %v", err)
	}
	if result.Metadata.SamplesProcessed != 2 {
		t.Errorf("SamplesProcessed = %d, want 2", result.Metadata.SamplesProcessed)
	}
	if result.TotalIssues() != 0 {
		t.Errorf("TotalIssues() = %d, want 0", result.TotalIssues())
	}
}

func TestAnalyze_MissingDataset(t *testing.T) {
	a, err := NewAnalyzer(testConfig())
	if err != nil {
		t.Fatalf("NewAnalyzer() error = %v", err)
	}
	if _, err := a.Analyze(context.Background(), []string{filepath.Join(t.TempDir(), "nope.csv")}); err == nil {
		t.Error("Analyze() expected error for missing dataset")
	}
}

func TestNewAnalyzer_RuleFilter(t *testing.T) {
	a, err := NewAnalyzer(testConfig(), WithRuleFilter([]string{"row-order"}))
	if err != nil {
		t.Fatalf("NewAnalyzer() error = %v", err)
	}
	if len(a.engines) != 1 || a.engines[0].Name() != "row-order" {
		t.Errorf("engines = %v, want only row-order", a.engines)
	}

	if _, err := NewAnalyzer(testConfig(), WithRuleFilter([]string{"unknown"})); err == nil {
		t.Error("NewAnalyzer() expected error when filter excludes all rules")
	}
}

func TestAnalyze_Cancelled(t *testing.T) {
	a, err := NewAnalyzer(testConfig())
	if err != nil {
		t.Fatalf("NewAnalyzer() error = %v", err)
	}
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if _, err := a.Analyze(ctx, []string{"whatever.csv"}); err == nil {
		t.Error("Analyze() expected error for cancelled context")
	}
}
