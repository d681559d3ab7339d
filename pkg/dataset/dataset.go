// Package dataset stores speed test measurements as per-period CSV files and
// merges logfile records into them.
package dataset

import (
	"bytes"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/ccollicutt/speedlog/pkg/fsutil"
)

// Column names, in file order.
const (
	ColTimestamp = "timestamp"
	ColProtocol  = "protocol"
	ColDownload  = "download"
	ColUpload    = "upload"
	ColPing      = "ping"
)

// Columns is the fixed schema of a new dataset.
var Columns = []string{ColTimestamp, ColProtocol, ColDownload, ColUpload, ColPing}

// TimestampLayout is how timestamps are written to datasets.
const TimestampLayout = "2006-01-02 15:04:05-07:00"

// timestampLayouts are accepted when reading existing rows.
var timestampLayouts = []string{
	TimestampLayout,
	"2006-01-02T15:04:05-07:00",
	"2006-01-02 15:04:05.999999999-07:00",
	time.RFC3339Nano,
}

// FormatTimestamp serializes t the way datasets store it.
func FormatTimestamp(t time.Time) string {
	return t.Format(TimestampLayout)
}

// ParseTimestamp parses a timestamp cell written by speedlog or by older tools.
func ParseTimestamp(cell string) (time.Time, error) {
	cell = strings.TrimSpace(cell)
	for _, layout := range timestampLayouts {
		if t, err := time.Parse(layout, cell); err == nil {
			return t, nil
		}
	}
	return time.Time{}, fmt.Errorf("unrecognized timestamp %q", cell)
}

// key normalizes a timestamp cell so the space and T separated forms of the
// same wall time and offset compare equal.
func key(cell string) string {
	if t, err := ParseTimestamp(cell); err == nil {
		return FormatTimestamp(t)
	}
	return strings.TrimSpace(cell)
}

// Row is one measurement in dataset units.
type Row struct {
	Timestamp time.Time
	Protocol  string
	Download  float64 // bit/s
	Upload    float64 // bit/s
	Ping      string  // ms
}

// Dataset is an in-memory CSV table keyed by timestamp. Existing rows and
// columns are kept verbatim; rows are only ever appended.
type Dataset struct {
	header  []string
	columns map[string]int
	rows    [][]string
	keys    map[string]struct{}
}

// New returns an empty dataset with the fixed schema.
func New() *Dataset {
	d := &Dataset{keys: make(map[string]struct{})}
	d.setHeader(append([]string(nil), Columns...))
	return d
}

// Load reads the dataset at path. A missing or empty file yields New().
func Load(path string) (*Dataset, error) {
	f, err := os.Open(path) // #nosec G304 -- dataset paths come from the configured directory
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return New(), nil
		}
		return nil, fmt.Errorf("opening dataset %s: %w", path, err)
	}
	defer f.Close()

	d, err := Read(f)
	if err != nil {
		return nil, fmt.Errorf("reading dataset %s: %w", path, err)
	}
	return d, nil
}

// Open reads the existing dataset at path. Unlike Load, a missing file is
// an error.
func Open(path string) (*Dataset, error) {
	if _, err := os.Stat(path); err != nil {
		return nil, fmt.Errorf("opening dataset: %w", err)
	}
	return Load(path)
}

// Read parses CSV data with a header line.
func Read(r io.Reader) (*Dataset, error) {
	reader := csv.NewReader(r)
	reader.FieldsPerRecord = -1

	records, err := reader.ReadAll()
	if err != nil {
		return nil, err
	}
	if len(records) == 0 {
		return New(), nil
	}

	d := &Dataset{keys: make(map[string]struct{})}
	d.setHeader(records[0])

	tsCol, ok := d.columns[ColTimestamp]
	if !ok {
		return nil, fmt.Errorf("header has no %q column", ColTimestamp)
	}

	// Datasets written by other tools may lack some schema columns.
	for _, col := range Columns {
		d.ensureColumn(col)
	}

	for _, rec := range records[1:] {
		row := make([]string, max(len(d.header), len(rec)))
		copy(row, rec)
		d.rows = append(d.rows, row)
		if tsCol < len(rec) {
			d.keys[key(rec[tsCol])] = struct{}{}
		}
	}
	return d, nil
}

func (d *Dataset) setHeader(header []string) {
	d.header = header
	d.columns = make(map[string]int, len(header))
	for i, name := range header {
		if _, dup := d.columns[name]; !dup {
			d.columns[name] = i
		}
	}
}

func (d *Dataset) ensureColumn(name string) {
	if _, ok := d.columns[name]; ok {
		return
	}
	d.columns[name] = len(d.header)
	d.header = append(d.header, name)
	for i := range d.rows {
		d.rows[i] = append(d.rows[i], "")
	}
}

// Contains reports whether a row with timestamp t exists.
func (d *Dataset) Contains(t time.Time) bool {
	_, ok := d.keys[FormatTimestamp(t)]
	return ok
}

// Add appends row unless its timestamp is already present. It reports
// whether the row was added.
func (d *Dataset) Add(row Row) bool {
	k := FormatTimestamp(row.Timestamp)
	if _, ok := d.keys[k]; ok {
		return false
	}

	cells := make([]string, len(d.header))
	cells[d.columns[ColTimestamp]] = k
	cells[d.columns[ColProtocol]] = row.Protocol
	cells[d.columns[ColDownload]] = FormatFloat(row.Download)
	cells[d.columns[ColUpload]] = FormatFloat(row.Upload)
	cells[d.columns[ColPing]] = row.Ping

	d.rows = append(d.rows, cells)
	d.keys[k] = struct{}{}
	return true
}

// Len is the number of data rows.
func (d *Dataset) Len() int {
	return len(d.rows)
}

// Header returns a copy of the column names.
func (d *Dataset) Header() []string {
	return append([]string(nil), d.header...)
}

// Column returns the cells of the named column, or nil if it does not exist.
func (d *Dataset) Column(name string) []string {
	i, ok := d.columns[name]
	if !ok {
		return nil
	}
	out := make([]string, len(d.rows))
	for r, row := range d.rows {
		out[r] = row[i]
	}
	return out
}

// Write serializes the dataset as CSV.
func (d *Dataset) Write(w io.Writer) error {
	cw := csv.NewWriter(w)
	if err := cw.Write(d.header); err != nil {
		return err
	}
	if err := cw.WriteAll(d.rows); err != nil {
		return err
	}
	return cw.Error()
}

// Save atomically replaces the file at path with the dataset.
func (d *Dataset) Save(path string) error {
	var buf bytes.Buffer
	if err := d.Write(&buf); err != nil {
		return fmt.Errorf("encoding dataset: %w", err)
	}
	if err := fsutil.AtomicWriteFile(path, buf.Bytes(), 0o644); err != nil {
		return fmt.Errorf("writing dataset %s: %w", path, err)
	}
	return nil
}

// FormatFloat renders rates without exponent or trailing zeros.
func FormatFloat(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}
