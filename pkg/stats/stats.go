// Package stats summarizes the measurements stored in datasets.
package stats

import (
	"fmt"
	"math"
	"sort"
	"strconv"
	"strings"
	"time"

	"gonum.org/v1/gonum/stat"

	"github.com/ccollicutt/speedlog/pkg/dataset"
)

// Megabit is the unit divisor for rates. It matches the importer, which
// scales logged Mbit/s by 1024*1024.
const Megabit = 1024 * 1024

// Summary describes the distribution of one measurement.
type Summary struct {
	Count  int     `json:"count"`
	Mean   float64 `json:"mean"`
	StdDev float64 `json:"stddev"`
	Min    float64 `json:"min"`
	Median float64 `json:"median"`
	P95    float64 `json:"p95"`
	Max    float64 `json:"max"`
}

// Summarize computes the summary of values. values is sorted in place.
func Summarize(values []float64) Summary {
	if len(values) == 0 {
		return Summary{}
	}
	sort.Float64s(values)

	mean, std := stat.MeanStdDev(values, nil)
	if len(values) == 1 {
		std = 0
	}
	return Summary{
		Count:  len(values),
		Mean:   mean,
		StdDev: std,
		Min:    values[0],
		Median: stat.Quantile(0.5, stat.Empirical, values, nil),
		P95:    stat.Quantile(0.95, stat.Empirical, values, nil),
		Max:    values[len(values)-1],
	}
}

// Series is the time series of one or more datasets. Rates are in Mbit/s,
// ping in ms. Points whose cell cannot be read are left out of that
// measurement only.
type Series struct {
	Download []Point
	Upload   []Point
	Ping     []Point
}

// Point is one measurement at a time.
type Point struct {
	Time  time.Time
	Value float64
}

// DatasetStats summarizes one dataset.
type DatasetStats struct {
	Source string    `json:"source"`
	Rows   int       `json:"rows"`
	First  time.Time `json:"first"`
	Last   time.Time `json:"last"`

	// Unreadable counts cells that were skipped, across all columns.
	Unreadable int `json:"unreadable"`

	Download Summary `json:"download_mbit"`
	Upload   Summary `json:"upload_mbit"`
	Ping     Summary `json:"ping_ms"`

	series Series
}

// Series returns the points the summary was computed from.
func (s *DatasetStats) Series() Series {
	return s.series
}

// Compute summarizes ds. source names it in the result.
func Compute(ds *dataset.Dataset, source string) *DatasetStats {
	st := &DatasetStats{Source: source, Rows: ds.Len()}

	stamps := ds.Column(dataset.ColTimestamp)
	columns := []struct {
		name  string
		scale float64
		into  *[]Point
	}{
		{dataset.ColDownload, Megabit, &st.series.Download},
		{dataset.ColUpload, Megabit, &st.series.Upload},
		{dataset.ColPing, 1, &st.series.Ping},
	}

	times := make([]time.Time, len(stamps))
	valid := make([]bool, len(stamps))
	for i, cell := range stamps {
		t, err := dataset.ParseTimestamp(cell)
		if err != nil {
			st.Unreadable++
			continue
		}
		times[i], valid[i] = t, true
		if st.First.IsZero() || t.Before(st.First) {
			st.First = t
		}
		if t.After(st.Last) {
			st.Last = t
		}
	}

	for _, col := range columns {
		for i, cell := range ds.Column(col.name) {
			if !valid[i] {
				continue
			}
			v, ok := parseValue(cell)
			if !ok {
				st.Unreadable++
				continue
			}
			*col.into = append(*col.into, Point{Time: times[i], Value: v / col.scale})
		}
	}

	st.Download = Summarize(values(st.series.Download))
	st.Upload = Summarize(values(st.series.Upload))
	st.Ping = Summarize(values(st.series.Ping))
	return st
}

// ComputeFiles reads and summarizes every dataset in paths.
func ComputeFiles(paths []string) ([]*DatasetStats, error) {
	out := make([]*DatasetStats, 0, len(paths))
	for _, path := range paths {
		ds, err := dataset.Open(path)
		if err != nil {
			return nil, err
		}
		out = append(out, Compute(ds, path))
	}
	return out, nil
}

// Merge combines several dataset summaries into one over all their points.
func Merge(source string, all []*DatasetStats) *DatasetStats {
	st := &DatasetStats{Source: source}
	for _, s := range all {
		st.Rows += s.Rows
		st.Unreadable += s.Unreadable
		if !s.First.IsZero() && (st.First.IsZero() || s.First.Before(st.First)) {
			st.First = s.First
		}
		if s.Last.After(st.Last) {
			st.Last = s.Last
		}
		st.series.Download = append(st.series.Download, s.series.Download...)
		st.series.Upload = append(st.series.Upload, s.series.Upload...)
		st.series.Ping = append(st.series.Ping, s.series.Ping...)
	}
	st.Download = Summarize(values(st.series.Download))
	st.Upload = Summarize(values(st.series.Upload))
	st.Ping = Summarize(values(st.series.Ping))
	return st
}

func values(points []Point) []float64 {
	out := make([]float64, len(points))
	for i, p := range points {
		out[i] = p.Value
	}
	return out
}

// parseValue reads a numeric cell. Ping cells copied from logfiles may
// still carry their unit.
func parseValue(cell string) (float64, bool) {
	cell = strings.TrimSpace(cell)
	cell = strings.TrimSuffix(cell, "ms")
	v, err := strconv.ParseFloat(strings.TrimSpace(cell), 64)
	if err != nil || math.IsNaN(v) || math.IsInf(v, 0) {
		return 0, false
	}
	return v, true
}

// String is a one-line rendering used in logs.
func (s Summary) String() string {
	return fmt.Sprintf("n=%d mean=%.2f sd=%.2f median=%.2f p95=%.2f", s.Count, s.Mean, s.StdDev, s.Median, s.P95)
}
