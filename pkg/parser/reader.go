package parser

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"
)

// Reader reconstructs records from a speed test logfile. A record is a block
// of four lines: a timestamp, then Ping, Download and Upload lines.
//
// A Reader is single-use and not safe for concurrent use.
type Reader struct {
	name   string
	cursor *Cursor
	ts     *TimestampParser
}

// NewReader creates a reader over already loaded lines. name is used for
// provenance only.
func NewReader(name string, lines []string, ts *TimestampParser) *Reader {
	return &Reader{
		name:   name,
		cursor: NewCursor(lines),
		ts:     ts,
	}
}

// OpenReader loads the logfile at path into memory and returns a reader over it.
func OpenReader(path string, ts *TimestampParser) (*Reader, error) {
	data, err := os.ReadFile(path) // #nosec G304 -- logfile paths come from the configured directory
	if err != nil {
		return nil, fmt.Errorf("reading logfile %s: %w", path, err)
	}
	return NewReader(filepath.Base(path), SplitLines(string(data)), ts), nil
}

// SplitLines splits text on \n, \r\n and \r. A trailing line break does not
// produce an empty last line.
func SplitLines(text string) []string {
	if text == "" {
		return nil
	}
	text = strings.ReplaceAll(text, "\r\n", "\n")
	text = strings.ReplaceAll(text, "\r", "\n")
	text = strings.TrimSuffix(text, "\n")
	return strings.Split(text, "\n")
}

// ReadTimestamp consumes the next line and parses it as a timestamp.
// A line that fails is dropped; the cursor is not rewound.
func (r *Reader) ReadTimestamp() (time.Time, bool) {
	line, ok := r.cursor.Next()
	if !ok || !ContainsWeekday(line) {
		return time.Time{}, false
	}
	return r.ts.Parse(line)
}

// ReadPing consumes the next line and returns the ping text without its unit.
func (r *Reader) ReadPing() (string, bool) {
	line, ok := r.cursor.Next()
	if !ok {
		return "", false
	}
	ping, ok := pingField.extract(line)
	if !ok {
		r.cursor.RewindOneIfTimestampLike(line)
		return "", false
	}
	return ping, true
}

// ReadDownload consumes the next line and returns the download rate in bytes/s.
func (r *Reader) ReadDownload() (float64, bool) {
	return r.readRate(downloadField)
}

// ReadUpload consumes the next line and returns the upload rate in bytes/s.
func (r *Reader) ReadUpload() (float64, bool) {
	return r.readRate(uploadField)
}

func (r *Reader) readRate(f field) (float64, bool) {
	line, ok := r.cursor.Next()
	if !ok {
		return 0, false
	}
	v, ok := f.value(line)
	if !ok {
		r.cursor.RewindOneIfTimestampLike(line)
		return 0, false
	}
	return v, true
}

// LinesLeft is the number of lines between the cursor and the end of file.
func (r *Reader) LinesLeft() int {
	return r.cursor.Remaining()
}

// Protocol returns "<logfile>@<line index>" for the current cursor position.
func (r *Reader) Protocol() string {
	return fmt.Sprintf("%s@%d", r.name, r.cursor.Index())
}

// Name returns the logfile name.
func (r *Reader) Name() string {
	return r.name
}
