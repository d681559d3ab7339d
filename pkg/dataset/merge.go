package dataset

import (
	"context"
	"errors"
	"fmt"
	"os"

	"go.uber.org/zap"

	"github.com/ccollicutt/speedlog/pkg/metrics"
	"github.com/ccollicutt/speedlog/pkg/parser"
)

// MergeResult reports what a single logfile merge did.
type MergeResult struct {
	Log       string `json:"log"`
	Dataset   string `json:"dataset"`
	Created   bool   `json:"created"`
	Converted int    `json:"converted"`
	Skipped   int    `json:"skipped"`
	Errors    int    `json:"errors"`
}

// Summary is the one-line human readable form of the counts.
func (r *MergeResult) Summary() string {
	return fmt.Sprintf("converted entries (%d), skipped lines (%d), error lines (%d)",
		r.Converted, r.Skipped, r.Errors)
}

// Merger merges logfile records into datasets.
type Merger struct {
	ts  *parser.TimestampParser
	log *zap.SugaredLogger
}

// MergerOption configures a Merger.
type MergerOption func(*Merger)

// WithLogger sets the logger used for per-line diagnostics.
func WithLogger(l *zap.SugaredLogger) MergerOption {
	return func(m *Merger) {
		if l != nil {
			m.log = l
		}
	}
}

// NewMerger creates a Merger that parses timestamps with ts.
func NewMerger(ts *parser.TimestampParser, opts ...MergerOption) *Merger {
	m := &Merger{
		ts:  ts,
		log: zap.NewNop().Sugar(),
	}
	for _, opt := range opts {
		opt(m)
	}
	return m
}

// MergeLog reads every record of the logfile at logPath and appends those
// whose timestamp is not yet present to the dataset at datasetPath, creating
// it if needed. Malformed lines are counted and skipped; the file is always
// processed to the end.
func (m *Merger) MergeLog(ctx context.Context, logPath, datasetPath string) (*MergeResult, error) {
	reader, err := parser.OpenReader(logPath, m.ts)
	if err != nil {
		return nil, err
	}

	_, statErr := os.Stat(datasetPath)
	created := errors.Is(statErr, os.ErrNotExist)

	ds, err := Load(datasetPath)
	if err != nil {
		return nil, err
	}

	result := &MergeResult{
		Log:     logPath,
		Dataset: datasetPath,
		Created: created,
	}
	m.mergeRecords(ctx, reader, ds, result)

	if err := ds.Save(datasetPath); err != nil {
		return nil, err
	}

	metrics.ImportFiles.Inc()
	metrics.ImportRecords.WithLabelValues("converted").Add(float64(result.Converted))
	metrics.ImportRecords.WithLabelValues("skipped").Add(float64(result.Skipped))
	metrics.ImportRecords.WithLabelValues("error").Add(float64(result.Errors))

	// An interrupted merge keeps what it appended; re-running is idempotent.
	if err := ctx.Err(); err != nil {
		return result, err
	}
	return result, nil
}

// mergeRecords runs the record loop. It stops early only if ctx is cancelled.
func (m *Merger) mergeRecords(ctx context.Context, r *parser.Reader, ds *Dataset, result *MergeResult) {
	for r.LinesLeft() >= 3 {
		if ctx.Err() != nil {
			return
		}

		ts, ok := r.ReadTimestamp()
		if !ok {
			m.lineError(r, result, "timestamp")
			continue
		}

		ping, ok := r.ReadPing()
		if !ok {
			m.lineError(r, result, "ping")
			continue
		}

		download, ok := r.ReadDownload()
		if !ok {
			m.lineError(r, result, "download")
			continue
		}

		upload, ok := r.ReadUpload()
		if !ok {
			m.lineError(r, result, "upload")
			continue
		}

		rec := parser.Record{
			Timestamp: ts,
			Protocol:  r.Protocol(),
			Download:  download,
			Upload:    upload,
			Ping:      ping,
		}

		if ds.Add(Row(rec)) {
			result.Converted++
		} else {
			result.Skipped++
		}
	}
}

func (m *Merger) lineError(r *parser.Reader, result *MergeResult, field string) {
	result.Errors++
	m.log.Debugw("unreadable line", "field", field, "at", r.Protocol())
}
